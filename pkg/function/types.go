package function

import "context"

type BodyType string

const (
	BodyTypeJSON  BodyType = "json"
	BodyTypeText  BodyType = "text"
	BodyTypeForm  BodyType = "form"
	BodyTypeBlob  BodyType = "blob"
	BodyTypeEmpty BodyType = "empty"
)

// WebhookRequestContext is the immutable snapshot of one inbound request
// exposed to scripts as the `request` global.
type WebhookRequestContext struct {
	BodyType      BodyType          `json:"bodyType"`
	Method        string            `json:"method"`
	FingerprintID string            `json:"fingerprintId"`
	Origin        string            `json:"origin"`
	Note          string            `json:"note"`
	Query         map[string]string `json:"query"`
	Headers       map[string]string `json:"headers"`
	RequestBody   string            `json:"requestBody"`
	StorageID     string            `json:"storageId,omitempty"`
}

type ExecutionContext string

const (
	ClientSide ExecutionContext = "client-side"
	ServerSide ExecutionContext = "server-side"
)

type ScriptSource struct {
	ExecutionContext ExecutionContext `json:"executionContext" validate:"omitempty,oneof=client-side server-side"`
	Code             string           `json:"code"`
}

// CapabilityContext is the identity capability calls are bound to.
// It is never exposed to the script.
type CapabilityContext struct {
	TenantOrigin      string
	TenantFingerprint string
	UploadEndpoint    string
}

func (cc CapabilityContext) Tenant() Tenant {
	return Tenant{Origin: cc.TenantOrigin, Fingerprint: cc.TenantFingerprint}
}

// Tenant identifies a visitor's webhook endpoint.
type Tenant struct {
	Origin      string `json:"origin"`
	Fingerprint string `json:"fingerprint"`
}

type LogLevel string

const (
	LogLevelLog   LogLevel = "log"
	LogLevelError LogLevel = "error"
)

type LogEntry struct {
	ID        string   `json:"id"`
	Level     LogLevel `json:"level"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp"`
}

type ExecutionResult struct {
	Success bool       `json:"success"`
	Result  any        `json:"result,omitempty"`
	Logs    []LogEntry `json:"logs"`
	Error   string     `json:"error,omitempty"`
}

// Response returns the script-authored HTTP response, if any.
func (r ExecutionResult) Response() (*HTTPResponse, bool) {
	resp, ok := r.Result.(*HTTPResponse)
	return resp, ok && resp != nil
}

type Job struct {
	Script  ScriptSource
	Request WebhookRequestContext
	Webhook CapabilityContext
}

type Runner interface {
	Execute(ctx context.Context, job Job) ExecutionResult
}
