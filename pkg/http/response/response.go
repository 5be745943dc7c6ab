package response

import (
	"encoding/json"
	"net/http"

	"github.com/hookscope/hookscope/constants"
)

type ErrorResponse struct {
	Message string      `json:"message"`
	Error   interface{} `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, code int, data interface{}) {
	_json(w, code, data, false)
}

func PrettyJSON(w http.ResponseWriter, code int, data interface{}) {
	_json(w, code, data, true)
}

func _json(w http.ResponseWriter, code int, data interface{}, pretty bool) {
	for _, header := range constants.DefaultResponseHeaders {
		w.Header().Set(header.Name, header.Value)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	w.WriteHeader(code)

	if data == nil {
		return
	}

	var bytes []byte
	switch v := data.(type) {
	case string:
		bytes = []byte(v)
	default:
		var err error
		if pretty {
			bytes, err = json.MarshalIndent(data, "", "  ")
		} else {
			bytes, err = json.Marshal(data)
		}
		if err != nil {
			panic(err)
		}
	}
	_, err := w.Write(bytes)
	if err != nil {
		panic(err)
	}
}

// Raw writes a response authored elsewhere. Its headers win over the
// default ones.
func Raw(w http.ResponseWriter, code int, headers map[string]string, body string) {
	for _, header := range constants.DefaultResponseHeaders {
		w.Header().Set(header.Name, header.Value)
	}
	for name, value := range headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}
