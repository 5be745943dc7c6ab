package function

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	vm := goja.New()
	tests := []struct {
		scenario string
		script   string
		expected string
	}{
		{"string", `'hello'`, "hello"},
		{"number", `1.5`, "1.5"},
		{"boolean", `false`, "false"},
		{"null", `null`, "null"},
		{"undefined", `undefined`, "undefined"},
		{"object", `({a: [1, 'b']})`, `{"a":[1,"b"]}`},
		{"array", `[1, null]`, `[1,null]`},
		{"circular", `(() => { const o = {}; o.o = o; return o })()`, unserializableObject},
		{"function", `(function () {})`, ""},
	}
	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			v, err := vm.RunString(test.script)
			assert.NoError(t, err)
			assert.Equal(t, test.expected, FormatValue(vm, v))
		})
	}
}

func TestFormatReason(t *testing.T) {
	vm := goja.New()
	tests := []struct {
		scenario string
		script   string
		expected string
	}{
		{"error", `new Error('boom')`, "Error: boom"},
		{"type error", `new TypeError('bad input')`, "TypeError: bad input"},
		{"string", `'plain'`, "plain"},
		{"object", `({reason: 'x'})`, `{"reason":"x"}`},
		{"undefined", `undefined`, "undefined"},
	}
	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			v, err := vm.RunString(test.script)
			assert.NoError(t, err)
			assert.Contains(t, FormatReason(vm, v), test.expected)
		})
	}
}

func TestFormatArgs(t *testing.T) {
	vm := goja.New()
	v, err := vm.RunString(`[1, 'a', {b: true}]`)
	assert.NoError(t, err)
	var args []goja.Value
	obj := v.ToObject(vm)
	for i := 0; i < 3; i++ {
		args = append(args, obj.Get(strconv.Itoa(i)))
	}
	assert.Equal(t, `1 a {"b":true}`, FormatArgs(vm, args))
	assert.Equal(t, "", FormatArgs(vm, nil))
}

func TestLogSink(t *testing.T) {
	t.Run("drain resets", func(t *testing.T) {
		sink := NewLogSink(SinkOptions{})
		sink.Append(LogLevelLog, "a")
		sink.Append(LogLevelError, "b")
		entries := sink.Drain()
		assert.Len(t, entries, 2)
		assert.Equal(t, LogLevelError, entries[1].Level)
		assert.NotNil(t, sink.Drain())
		assert.Empty(t, sink.Drain())
	})

	t.Run("timestamps never decrease", func(t *testing.T) {
		now := time.Date(2024, 1, 1, 10, 0, 0, int(123*time.Millisecond), time.UTC)
		calls := 0
		sink := NewLogSink(SinkOptions{Clock: func() time.Time {
			calls++
			if calls == 2 {
				return now.Add(-time.Hour)
			}
			return now
		}})
		sink.Append(LogLevelLog, "a")
		sink.Append(LogLevelLog, "b")
		entries := sink.Drain()
		assert.Equal(t, "2024-01-01T10:00:00.123Z", entries[0].Timestamp)
		assert.Equal(t, entries[0].Timestamp, entries[1].Timestamp)
	})

	t.Run("drops over the cap", func(t *testing.T) {
		sink := NewLogSink(SinkOptions{MaxEntries: 1})
		sink.Append(LogLevelLog, "a")
		sink.Append(LogLevelLog, "b")
		sink.Append(LogLevelLog, "c")
		entries := sink.Drain()
		assert.Len(t, entries, 2)
		assert.Equal(t, "2 log entries dropped", entries[1].Message)
	})

	t.Run("truncates on rune boundaries", func(t *testing.T) {
		sink := NewLogSink(SinkOptions{MaxMessageSize: 4})
		sink.Append(LogLevelLog, "aé€b")
		entries := sink.Drain()
		assert.Equal(t, "aé"+truncatedSuffix, entries[0].Message)
		assert.True(t, strings.HasSuffix(entries[0].Message, truncatedSuffix))
	})
}
