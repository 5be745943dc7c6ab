package function

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/segmentio/ksuid"
)

const (
	timestampFormat      = "2006-01-02T15:04:05.000Z"
	unserializableObject = "[Unserializable Object]"
	truncatedSuffix      = " [truncated]"
)

type SinkOptions struct {
	MaxEntries     int
	MaxMessageSize int
	Clock          func() time.Time
}

// LogSink is an append-only buffer of one run's console output.
// Timestamps never decrease, even if the clock steps backwards.
type LogSink struct {
	mu      sync.Mutex
	opts    SinkOptions
	entries []LogEntry
	dropped int
	last    time.Time
}

func NewLogSink(opts SinkOptions) *LogSink {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &LogSink{opts: opts, entries: make([]LogEntry, 0)}
}

func (s *LogSink) Append(level LogLevel, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.MaxEntries > 0 && len(s.entries) >= s.opts.MaxEntries {
		s.dropped++
		return
	}
	s.entries = append(s.entries, s.entry(level, s.truncate(message)))
}

// Drain returns the buffered entries and resets the sink.
func (s *LogSink) Drain() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.entries
	if s.dropped > 0 {
		entries = append(entries, s.entry(LogLevelError, fmt.Sprintf("%d log entries dropped", s.dropped)))
	}
	s.entries = make([]LogEntry, 0)
	s.dropped = 0
	return entries
}

func (s *LogSink) entry(level LogLevel, message string) LogEntry {
	now := s.opts.Clock().UTC()
	if now.Before(s.last) {
		now = s.last
	}
	s.last = now
	return LogEntry{
		ID:        ksuid.New().String(),
		Level:     level,
		Message:   message,
		Timestamp: now.Format(timestampFormat),
	}
}

func (s *LogSink) truncate(message string) string {
	limit := s.opts.MaxMessageSize
	if limit <= 0 || len(message) <= limit {
		return message
	}
	cut := limit
	for cut > 0 && !utf8RuneStart(message[cut]) {
		cut--
	}
	return message[:cut] + truncatedSuffix
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// FormatValue renders a console argument: primitives as-is, objects as JSON.
func FormatValue(vm *goja.Runtime, v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	if _, ok := v.(*goja.Object); !ok {
		return v.String()
	}

	s, ok, err := stringify(vm, v)
	if err != nil {
		return unserializableObject
	}
	if !ok {
		return ""
	}
	return s
}

// FormatReason renders a rejection reason. Error objects keep their stack
// or their "Name: message" form instead of serializing to "{}".
func FormatReason(vm *goja.Runtime, v goja.Value) string {
	obj, ok := v.(*goja.Object)
	if !ok || obj.ClassName() != "Error" {
		return FormatValue(vm, v)
	}
	message := ""
	if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) {
		message = m.String()
	}
	if stack := obj.Get("stack"); stack != nil && !goja.IsUndefined(stack) && !goja.IsNull(stack) {
		if s := stack.String(); strings.Contains(s, message) {
			return s
		}
	}
	return obj.String()
}

func FormatArgs(vm *goja.Runtime, args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = FormatValue(vm, arg)
	}
	return strings.Join(parts, " ")
}

// stringify calls JSON.stringify; ok is false when it yields undefined.
func stringify(vm *goja.Runtime, v goja.Value) (s string, ok bool, err error) {
	fn, _ := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("stringify"))
	res, err := fn(goja.Undefined(), v)
	if err != nil {
		return "", false, err
	}
	if goja.IsUndefined(res) {
		return "", false, nil
	}
	return res.String(), true, nil
}

func newConsole(vm *goja.Runtime, sink *LogSink) *goja.Object {
	console := vm.NewObject()
	levels := map[string]LogLevel{
		"log":   LogLevelLog,
		"info":  LogLevelLog,
		"debug": LogLevelLog,
		"error": LogLevelError,
		"warn":  LogLevelError,
	}
	for name, level := range levels {
		level := level
		_ = console.Set(name, func(call goja.FunctionCall) goja.Value {
			sink.Append(level, FormatArgs(vm, call.Arguments))
			return goja.Undefined()
		})
	}
	return console
}
