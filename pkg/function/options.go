package function

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/hookscope/hookscope/pkg/errs"
	"github.com/hookscope/hookscope/utils"
	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// decodeOptions fills out with its defaults, then overlays input.
func decodeOptions(input any, out any) error {
	if err := defaults.Set(out); err != nil {
		return err
	}
	if input != nil {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "json",
			WeaklyTypedInput: true,
			Result:           out,
		})
		if err != nil {
			return err
		}
		if err := decoder.Decode(input); err != nil {
			return fmt.Errorf("invalid options: %w", err)
		}
	}
	if err := utils.Validate(out); err != nil {
		var validateErr *errs.ValidateError
		if errors.As(err, &validateErr) && len(validateErr.Fields) > 0 {
			fields, _ := json.Marshal(validateErr.Fields)
			return fmt.Errorf("invalid options: %w: %s", err, fields)
		}
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

func validateSchema(schema map[string]any) error {
	if len(schema) == 0 {
		return nil
	}
	b, err := json.Marshal(schema)
	if err != nil {
		return err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return err
	}
	if _, err := c.Compile("schema.json"); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	return nil
}
