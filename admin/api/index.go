package api

import (
	"net/http"

	"github.com/hookscope/hookscope"
	"github.com/hookscope/hookscope/config"
	"github.com/hookscope/hookscope/pkg/http/response"
)

type IndexResponse struct {
	Version       string         `json:"version"`
	Message       string         `json:"message"`
	Configuration *config.Config `json:"configuration"`
}

// Index reports the running version and effective configuration.
// Passwords are masked by their JSON encoding.
func (api *API) Index(w http.ResponseWriter, r *http.Request) {
	index := IndexResponse{
		Version:       hookscope.VERSION,
		Message:       "Welcome to Hookscope",
		Configuration: api.cfg,
	}

	if r.URL.Query().Has("pretty") {
		response.PrettyJSON(w, 200, index)
		return
	}
	api.json(200, w, index)
}
