package api

import (
	"net/http"

	"github.com/hookscope/hookscope/pkg/errs"
	"github.com/hookscope/hookscope/pkg/function"
	"github.com/hookscope/hookscope/utils"
)

type EvalWebhook struct {
	Origin         string `json:"origin"`
	Fingerprint    string `json:"fingerprint"`
	UploadEndpoint string `json:"uploadEndpoint" validate:"omitempty,url"`
}

// EvalRequest is the editor's run action.
type EvalRequest struct {
	Script  function.ScriptSource `json:"script"`
	Request function.RawRequest   `json:"request"`
	Webhook EvalWebhook           `json:"webhook"`
}

func (req *EvalRequest) Validate() error {
	if err := utils.Validate(req); err != nil {
		return err
	}
	if req.Script.ExecutionContext == function.ServerSide && req.Webhook.Fingerprint == "" {
		return errs.NewValidateFieldsError(errs.ErrRequestValidate, map[string]interface{}{
			"webhook": map[string]interface{}{
				"fingerprint": "required for server-side scripts",
			},
		})
	}
	return nil
}

func (api *API) Eval(w http.ResponseWriter, r *http.Request) {
	var req EvalRequest
	if err := api.decode(r, &req); err != nil {
		api.error(400, w, err)
		return
	}
	if req.Script.ExecutionContext == "" {
		req.Script.ExecutionContext = function.ClientSide
	}
	if err := req.Validate(); err != nil {
		api.error(400, w, err)
		return
	}

	webhook := req.Webhook
	webhook.Origin = utils.DefaultIfZero(webhook.Origin, api.cfg.Proxy.DefaultOrigin)
	raw := req.Request
	raw.Origin = utils.DefaultIfZero(raw.Origin, webhook.Origin)
	raw.FingerprintID = utils.DefaultIfZero(raw.FingerprintID, webhook.Fingerprint)
	raw.Method = utils.DefaultIfZero(raw.Method, http.MethodPost)

	result := api.engine.Execute(r.Context(), function.Job{
		Script:  req.Script,
		Request: function.NormalizeRequest(raw),
		Webhook: function.CapabilityContext{
			TenantOrigin:      webhook.Origin,
			TenantFingerprint: webhook.Fingerprint,
			UploadEndpoint:    webhook.UploadEndpoint,
		},
	})

	api.json(200, w, result)
}
