package article

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned by ParsePatch when the payload is not a JSON
// object.
var ErrMalformed = errors.New("malformed article payload")

const (
	msgNotString  = "must be a string"
	msgNotBoolean = "must be a boolean"
)

// ParsePatch decodes a request payload into a Patch. The payload is either
// the article object itself or an object wrapping it under "article".
// Unknown keys are ignored. Values of the wrong JSON type are reported as a
// *ValidationError rather than silently dropped.
func ParsePatch(data []byte) (Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return Patch{}, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}
	if inner, ok := raw["article"]; ok {
		var wrapped map[string]json.RawMessage
		if err := json.Unmarshal(inner, &wrapped); err == nil && wrapped != nil {
			raw = wrapped
		}
	}

	var p Patch
	verr := &ValidationError{}
	if v, ok := raw["title"]; ok && !isNull(v) {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			verr.Add("title", msgNotString)
		} else {
			p.Title = &s
		}
	}
	if v, ok := raw["body"]; ok && !isNull(v) {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			verr.Add("body", msgNotString)
		} else {
			p.Body = &s
		}
	}
	if v, ok := raw["published"]; ok && !isNull(v) {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			verr.Add("published", msgNotBoolean)
		} else {
			p.Published = &b
		}
	}
	if !verr.Empty() {
		return Patch{}, verr
	}
	return p, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
