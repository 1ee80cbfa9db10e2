package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/identity"
)

// Envelope is the uniform outward result of every operation.
type Envelope struct {
	StatusCode int    `json:"-"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Result     any    `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Success wraps a facade result.
func Success(message string, result any) Envelope {
	return Envelope{
		StatusCode: http.StatusOK,
		Success:    true,
		Message:    message,
		Result:     result,
	}
}

// Failure wraps err with the status its kind maps to. Internal failures never
// leak their cause.
func Failure(err error) Envelope {
	kind := identity.KindOf(err)
	msg := "internal error"
	var ierr *identity.Error
	if kind != identity.KindInternal && errors.As(err, &ierr) {
		msg = ierr.Error()
	}
	return Envelope{
		StatusCode: kind.StatusCode(),
		Success:    false,
		Error:      msg,
	}
}

// Body renders the envelope as JSON.
func (e Envelope) Body() []byte {
	b, err := json.Marshal(e)
	if err != nil {
		b, _ = json.Marshal(Failure(err))
	}
	return b
}

// CORSHeaders is the fixed header set the queue-style adapter attaches.
func CORSHeaders(origin string) map[string]string {
	h := map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": "OPTIONS,POST",
	}
	if origin != "" {
		h["Access-Control-Allow-Origin"] = origin
		if origin != "*" {
			h["Access-Control-Allow-Credentials"] = "true"
		}
	}
	return h
}
