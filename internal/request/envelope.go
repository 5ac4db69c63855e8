package request

import (
	"bytes"
	"encoding/json"

	pkgerrors "playground/pkg/errors"
)

// Envelope is the backend's standard response wrapper.
type Envelope struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error,omitempty"`
	Message string          `json:"message"`
}

// parseEnvelope reports whether body is a JSON object carrying a code field.
func parseEnvelope(body []byte) (Envelope, bool) {
	var env Envelope
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return env, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return env, false
	}
	if _, ok := fields["code"]; !ok {
		return env, false
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return env, false
	}
	return env, true
}

func envelopeError(env Envelope) error {
	err := pkgerrors.New(pkgerrors.BusinessError).WithDetail("code", env.Code)
	if env.Message != "" {
		err = err.WithMessage(env.Message)
	}
	return err
}
