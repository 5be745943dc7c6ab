package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hookscope/hookscope/config"
	"github.com/stretchr/testify/assert"
)

func TestNewZapLogger(t *testing.T) {
	tests := []struct {
		desc   string
		format config.LogFormat
		check  func(t *testing.T, content string)
	}{
		{
			desc:   "text",
			format: config.LogFormatText,
			check: func(t *testing.T, content string) {
				assert.Contains(t, content, "[engine]")
				assert.Contains(t, content, "script finished")
			},
		},
		{
			desc:   "json",
			format: config.LogFormatJson,
			check: func(t *testing.T, content string) {
				assert.True(t, strings.HasPrefix(content, "{"))
				assert.Contains(t, content, `"logger":"engine"`)
				assert.Contains(t, content, `"msg":"script finished"`)
			},
		},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "hookscope.log")
			logger, err := NewZapLogger(&config.LogConfig{
				File:   file,
				Level:  config.LogLevelInfo,
				Format: test.format,
			})
			assert.NoError(t, err)
			logger.Named("engine").Infof("script finished")
			logger.Debugf("hidden")
			_ = logger.Sync()

			b, err := os.ReadFile(file)
			assert.NoError(t, err)
			test.check(t, string(b))
			assert.NotContains(t, string(b), "hidden")
		})
	}
}

func TestNewZapLoggerInvalidLevel(t *testing.T) {
	_, err := NewZapLogger(&config.LogConfig{Level: "loud", Format: config.LogFormatText})
	assert.Error(t, err)
}
