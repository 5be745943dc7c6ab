package function

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeOptions(t *testing.T) {
	tests := []struct {
		scenario string
		input    any
		expected ResponseInit
		errParts []string
	}{
		{
			scenario: "defaults",
			input:    nil,
			expected: ResponseInit{},
		},
		{
			scenario: "weakly typed status",
			input:    map[string]any{"status": "201"},
			expected: ResponseInit{Status: 201},
		},
		{
			scenario: "status out of range",
			input:    map[string]any{"status": 42},
			errParts: []string{"invalid options", "request validation", `"status"`},
		},
		{
			scenario: "status not a number",
			input:    map[string]any{"status": "abc"},
			errParts: []string{"invalid options", "status"},
		},
	}
	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			var init ResponseInit
			err := decodeOptions(test.input, &init)
			if len(test.errParts) == 0 {
				assert.NoError(t, err)
				assert.Equal(t, test.expected, init)
				return
			}
			assert.Error(t, err)
			for _, part := range test.errParts {
				assert.Contains(t, err.Error(), part)
			}
		})
	}
}
