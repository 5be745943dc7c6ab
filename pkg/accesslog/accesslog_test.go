package accesslog

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hookscope/hookscope/constants"
	"github.com/stretchr/testify/assert"
)

func serve(logger AccessLogger, status int) {
	handler := NewMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(constants.HeaderRequestId, "req-1")
		if status != 0 {
			w.WriteHeader(status)
		}
		_, _ = w.Write([]byte("hello"))
	}))
	req := httptest.NewRequest("POST", "/n/fp/example.com", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("User-Agent", "curl/8")
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestJsonLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := newLogger("proxy", "json", false, buf)
	assert.NoError(t, err)

	serve(logger, 0)

	var line map[string]any
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "proxy", line["name"])
	assert.Equal(t, "10.0.0.1", line["client_ip"])
	assert.Equal(t, "req-1", line["request_id"])
	request := line["request"].(map[string]any)
	assert.Equal(t, "POST", request["method"])
	assert.Equal(t, "/n/fp/example.com", request["path"])
	response := line["response"].(map[string]any)
	assert.EqualValues(t, 200, response["status"])
	assert.EqualValues(t, 5, response["size"])
}

func TestTextLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := newLogger("admin", "text", false, buf)
	assert.NoError(t, err)

	serve(logger, 201)

	out := buf.String()
	assert.True(t, strings.Contains(out, "[admin]"))
	assert.True(t, strings.Contains(out, `10.0.0.1 req-1 "POST /n/fp/example.com HTTP/1.1" 201 5`))
	assert.True(t, strings.Contains(out, `"application/json" "curl/8"`))
}

func TestNewAccessLogger(t *testing.T) {
	_, err := NewAccessLogger("proxy", Options{})
	assert.EqualError(t, err, "accesslog file is required")

	_, err = newLogger("proxy", "xml", false, &bytes.Buffer{})
	assert.EqualError(t, err, "invalid format: xml")

	logger, err := NewAccessLogger("proxy", Options{File: t.TempDir() + "/access.log", Format: "json"})
	assert.NoError(t, err)
	assert.IsType(t, &JsonLogger{}, logger)
}

func TestEntryDefaults(t *testing.T) {
	entry := NewEntry(httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, "192.0.2.1", entry.ClientIP)
	assert.Contains(t, entry.String(), `192.0.2.1 - "GET / HTTP/1.1" 0 0 0ms "-" "-"`)
}
