package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/sendgrid/sendgrid-go"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/config"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/log"
)

const sendGridValidationPath = "/v3/validations/email"

type sendGridValidationRequest struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

type sendGridValidationResponse struct {
	Result struct {
		Email   string  `json:"email"`
		Verdict string  `json:"verdict"`
		Score   float32 `json:"score"`
		Checks  struct {
			Domain struct {
				IsSuspectedDisposableAddress bool `json:"is_suspected_disposable_address"`
			} `json:"domain"`
			LocalPart struct {
				IsSuspectedRoleAddress bool `json:"is_suspected_role_address"`
			} `json:"local_part"`
		} `json:"checks"`
	} `json:"result"`
}

type SendGridEmailVerifier struct {
	APIHost   string
	APIKey    string
	Whitelist []string
}

func NewSendGridVerifier(cfg *config.Config) (*SendGridEmailVerifier, error) {
	v := &SendGridEmailVerifier{
		APIHost: cfg.SendGridApiHost,
		APIKey:  cfg.SendGridEmailVerificationApiKey,
	}
	if cfg.EmailVerificationWhitelist != nil {
		v.Whitelist = *cfg.EmailVerificationWhitelist
	}
	return v, nil
}

func (v *SendGridEmailVerifier) VerifyEmail(ctx context.Context, email string) (*EmailVerificationResult, error) {
	if v.whitelisted(email) {
		log.Debug("email domain was on whitelist", "domain", Domain(email))
		return DefaultValidResult, nil
	}
	return v.verifyViaAPI(ctx, email)
}

func (v *SendGridEmailVerifier) whitelisted(email string) bool {
	if len(v.Whitelist) == 0 {
		return false
	}
	domain := Domain(email)
	return domain != "" && slices.Contains(v.Whitelist, domain)
}

func (v *SendGridEmailVerifier) verifyViaAPI(ctx context.Context, email string) (*EmailVerificationResult, error) {
	body, err := json.Marshal(sendGridValidationRequest{Email: email, Source: "cognito"})
	if err != nil {
		return nil, fmt.Errorf("sendgrid marshal error: %w", err)
	}

	request := sendgrid.GetRequest(v.APIKey, sendGridValidationPath, v.APIHost)
	request.Method = "POST"
	request.Body = body

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("sendgrid api error: %w", err)
	}
	if response.StatusCode >= 300 {
		return nil, fmt.Errorf("sendgrid api error: status %d", response.StatusCode)
	}

	var payload sendGridValidationResponse
	if err := json.Unmarshal([]byte(response.Body), &payload); err != nil {
		return nil, fmt.Errorf("sendgrid unmarshal error: %w", err)
	}

	r := payload.Result
	return &EmailVerificationResult{
		Score:        r.Score,
		IsValid:      r.Verdict != "Invalid",
		IsDisposable: r.Checks.Domain.IsSuspectedDisposableAddress,
		IsRoleBased:  r.Checks.LocalPart.IsSuspectedRoleAddress,
		Raw:          response.Body,
	}, nil
}
