package cmd

import (
	"encoding/json"
	"os"

	"github.com/hookscope/hookscope/app"
	"github.com/hookscope/hookscope/pkg/function"
	"github.com/hookscope/hookscope/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func readRequest(filename string) (function.RawRequest, error) {
	raw := function.RawRequest{Method: "POST", BodyType: function.BodyTypeEmpty}
	if filename == "" {
		return raw, nil
	}
	b, err := os.ReadFile(filename)
	if err != nil {
		return raw, errors.Wrap(err, "could not read request")
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return raw, errors.Wrap(err, "invalid request")
	}
	if err := utils.Validate(&raw); err != nil {
		return raw, errors.Wrap(err, "invalid request")
	}
	return raw, nil
}

func newEvalCmd() *cobra.Command {
	var (
		file        string
		requestFile string
		clientSide  bool
		fingerprint string
		origin      string
	)

	eval := &cobra.Command{
		Use:               "eval",
		Short:             "Run a script once and print its result",
		Long:              `Run a script against a captured request using the configured store, blob storage and scraper.`,
		PersistentPreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrap(err, "could not read script")
			}
			raw, err := readRequest(requestFile)
			if err != nil {
				return err
			}

			cfg.Admin.Listen = "off"
			cfg.Proxy.Listen = "off"
			app, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer app.Store().Close()

			origin = utils.DefaultIfZero(origin, cfg.Proxy.DefaultOrigin)
			raw.Origin = utils.DefaultIfZero(raw.Origin, origin)
			raw.FingerprintID = utils.DefaultIfZero(raw.FingerprintID, fingerprint)

			mode := function.ServerSide
			if clientSide {
				mode = function.ClientSide
			}
			result := app.Engine().Execute(cmd.Context(), function.Job{
				Script:  function.ScriptSource{ExecutionContext: mode, Code: string(code)},
				Request: function.NormalizeRequest(raw),
				Webhook: function.CapabilityContext{
					TenantOrigin:      origin,
					TenantFingerprint: fingerprint,
				},
			})

			b, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(b))
			if !result.Success {
				return errors.New("script failed")
			}
			return nil
		},
	}

	eval.Flags().StringVarP(&file, "file", "f", "", "The script filename")
	eval.Flags().StringVarP(&requestFile, "request", "r", "", "A JSON file holding the request")
	eval.Flags().BoolVarP(&clientSide, "client-side", "", false, "Run as a client-side script")
	eval.Flags().StringVarP(&fingerprint, "fingerprint", "", "cli", "The tenant fingerprint")
	eval.Flags().StringVarP(&origin, "origin", "", "", "The tenant origin")
	_ = eval.MarkFlagRequired("file")

	return eval
}
