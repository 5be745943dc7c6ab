package function

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	responseContentTypeJSON = "application/json"
	responseContentTypeText = "text/plain;charset=UTF-8"
)

// HTTPResponse is a response authored by a server-side script.
type HTTPResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// ResponseInit mirrors the second argument of the fetch Response constructor.
type ResponseInit struct {
	Status  int               `json:"status" validate:"omitempty,min=100,max=599"`
	Headers map[string]string `json:"headers"`
}

func newResponse(init ResponseInit, contentType string, body string) *HTTPResponse {
	resp := &HTTPResponse{
		Status:  init.Status,
		Headers: map[string]string{"content-type": contentType},
		Body:    body,
	}
	if resp.Status == 0 {
		resp.Status = 200
	}
	for name, value := range init.Headers {
		resp.Headers[strings.ToLower(name)] = value
	}
	return resp
}

// JSONResponse returns nil for client-side runs.
func (c *Capabilities) JSONResponse(payload any, init ResponseInit) (*HTTPResponse, error) {
	if c.mode != ServerSide {
		return nil, nil
	}
	body, ok := payload.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("$json: %w", err)
		}
		body = b
	}
	return newResponse(init, responseContentTypeJSON, string(body)), nil
}

// TextResponse returns nil for client-side runs.
func (c *Capabilities) TextResponse(payload string, init ResponseInit) *HTTPResponse {
	if c.mode != ServerSide {
		return nil
	}
	return newResponse(init, responseContentTypeText, payload)
}
