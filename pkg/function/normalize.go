package function

import (
	"net/http"
	"net/url"
	"strings"
)

type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RawRequest is a captured request before normalization.
type RawRequest struct {
	BodyType      BodyType `json:"bodyType" validate:"omitempty,oneof=json text form blob empty"`
	Method        string   `json:"method"`
	FingerprintID string   `json:"fingerprintId"`
	Origin        string   `json:"origin"`
	Note          string   `json:"note"`
	Query         []Pair   `json:"query"`
	Headers       []Pair   `json:"headers"`
	RequestBody   string   `json:"requestBody"`
	StorageID     string   `json:"storageId,omitempty"`
}

// NormalizeHeaders maps header pairs, the last value of a repeated name wins.
func NormalizeHeaders(pairs []Pair) map[string]string {
	headers := make(map[string]string, len(pairs))
	for _, p := range pairs {
		headers[p.Key] = p.Value
	}
	return headers
}

// NormalizeQuery maps query pairs, values of a repeated key are comma-joined
// in order.
func NormalizeQuery(pairs []Pair) map[string]string {
	grouped := make(map[string][]string, len(pairs))
	for _, p := range pairs {
		grouped[p.Key] = append(grouped[p.Key], p.Value)
	}
	query := make(map[string]string, len(grouped))
	for key, values := range grouped {
		query[key] = strings.Join(values, ",")
	}
	return query
}

func NormalizeRequest(raw RawRequest) WebhookRequestContext {
	bodyType := raw.BodyType
	if bodyType == "" {
		bodyType = BodyTypeEmpty
	}
	return WebhookRequestContext{
		BodyType:      bodyType,
		Method:        strings.ToUpper(raw.Method),
		FingerprintID: raw.FingerprintID,
		Origin:        raw.Origin,
		Note:          raw.Note,
		Query:         NormalizeQuery(raw.Query),
		Headers:       NormalizeHeaders(raw.Headers),
		RequestBody:   raw.RequestBody,
		StorageID:     raw.StorageID,
	}
}

// HeaderPairs flattens header into pairs with lower-cased names.
func HeaderPairs(header http.Header) []Pair {
	pairs := make([]Pair, 0, len(header))
	for name, values := range header {
		for _, value := range values {
			pairs = append(pairs, Pair{Key: strings.ToLower(name), Value: value})
		}
	}
	return pairs
}

func QueryPairs(values url.Values) []Pair {
	pairs := make([]Pair, 0, len(values))
	for key, vals := range values {
		for _, value := range vals {
			pairs = append(pairs, Pair{Key: key, Value: value})
		}
	}
	return pairs
}
