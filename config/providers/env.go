package providers

import (
	"os"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/kelseyhightower/envconfig"
)

type EnvProvider struct {
	prefix string
}

func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix}
}

// Load overlays environment variables onto cfg.
// envconfig assigns `default` tags to every unset variable, so values are
// decoded into a scratch copy and only fields that differ from their
// defaults are merged back.
func (p *EnvProvider) Load(cfg any) error {
	if !p.present() {
		return nil
	}

	t := reflect.TypeOf(cfg).Elem()
	overlay := reflect.New(t)
	if err := envconfig.Process(p.prefix, overlay.Interface()); err != nil {
		return err
	}
	baseline := reflect.New(t)
	if err := defaults.Set(baseline.Interface()); err != nil {
		return err
	}

	merge(reflect.ValueOf(cfg).Elem(), overlay.Elem(), baseline.Elem())
	return nil
}

func (p *EnvProvider) present() bool {
	prefix := strings.ToUpper(p.prefix) + "_"
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, prefix) {
			return true
		}
	}
	return false
}

func merge(dst, overlay, baseline reflect.Value) {
	for i := 0; i < dst.NumField(); i++ {
		if !dst.Type().Field(i).IsExported() {
			continue
		}
		d, o, b := dst.Field(i), overlay.Field(i), baseline.Field(i)
		if d.Kind() == reflect.Struct {
			merge(d, o, b)
			continue
		}
		if !reflect.DeepEqual(o.Interface(), b.Interface()) {
			d.Set(o)
		}
	}
}
