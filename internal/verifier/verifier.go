// Package verifier checks whether an email address is deliverable before a
// sign-up is admitted.
package verifier

import (
	"context"
	"net/mail"
	"strings"
)

type EmailVerificationResult struct {
	Score        float32 `json:"score"`
	IsValid      bool    `json:"valid"`
	IsDisposable bool    `json:"disposable"`
	IsRoleBased  bool    `json:"role"`
	Raw          string  `json:"raw"`
}

// DefaultValidResult is reported for whitelisted domains.
var DefaultValidResult = &EmailVerificationResult{
	Score:   100.0,
	IsValid: true,
	Raw:     "{}",
}

type EmailVerifier interface {
	VerifyEmail(ctx context.Context, email string) (*EmailVerificationResult, error)
}

// Domain returns the lower-cased domain of email, or "" when email does not
// parse.
func Domain(email string) string {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return ""
	}
	at := strings.LastIndex(addr.Address, "@")
	if at == -1 || at == len(addr.Address)-1 {
		return ""
	}
	return strings.ToLower(addr.Address[at+1:])
}
