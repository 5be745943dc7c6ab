package api

import (
	"net/http"

	"github.com/hookscope/hookscope/pkg/function"
)

// ListLogs returns the tenant's run logs, newest first.
func (api *API) ListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := api.store.ListLogs(r.Context(), api.tenant(r))
	api.assert(err)
	if logs == nil {
		logs = []function.LogEntry{}
	}

	api.json(200, w, logs)
}
