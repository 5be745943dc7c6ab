package api

import (
	"net/http"

	"github.com/creasty/defaults"
	"github.com/hookscope/hookscope/pkg/function"
	"github.com/hookscope/hookscope/pkg/http/response"
	"github.com/hookscope/hookscope/pkg/store"
	"github.com/hookscope/hookscope/utils"
)

type ScriptRequest struct {
	Source           string                    `json:"source"`
	ExecutionContext function.ExecutionContext `json:"executionContext" default:"server-side" validate:"oneof=client-side server-side"`
}

func (req *ScriptRequest) script(tenant function.Tenant) *store.Script {
	return &store.Script{
		Fingerprint:      tenant.Fingerprint,
		Origin:           tenant.Origin,
		Source:           req.Source,
		ExecutionContext: req.ExecutionContext,
	}
}

func (api *API) bindScript(w http.ResponseWriter, r *http.Request) (*ScriptRequest, bool) {
	var req ScriptRequest
	api.assert(defaults.Set(&req))
	if err := api.decode(r, &req); err != nil {
		api.error(400, w, err)
		return nil, false
	}
	if err := utils.Validate(&req); err != nil {
		api.error(400, w, err)
		return nil, false
	}
	return &req, true
}

func (api *API) GetScript(w http.ResponseWriter, r *http.Request) {
	script, err := api.store.GetScript(r.Context(), api.tenant(r))
	api.assert(err)

	if script == nil {
		api.json(404, w, response.ErrorResponse{Message: MsgNotFound})
		return
	}

	api.json(200, w, script)
}

// CreateScript creates the record unless the tenant already has one.
func (api *API) CreateScript(w http.ResponseWriter, r *http.Request) {
	tenant := api.tenant(r)
	req, ok := api.bindScript(w, r)
	if !ok {
		return
	}

	created, err := api.store.CreateScript(r.Context(), req.script(tenant))
	api.assert(err)

	script, err := api.store.GetScript(r.Context(), tenant)
	api.assert(err)

	code := 200
	if created {
		code = 201
	}
	api.json(code, w, script)
}

func (api *API) UpdateScript(w http.ResponseWriter, r *http.Request) {
	tenant := api.tenant(r)
	req, ok := api.bindScript(w, r)
	if !ok {
		return
	}

	api.assert(api.store.SaveScript(r.Context(), req.script(tenant)))

	script, err := api.store.GetScript(r.Context(), tenant)
	api.assert(err)

	api.json(200, w, script)
}
