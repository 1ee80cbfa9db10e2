package handlers

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aws/aws-lambda-go/events"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/config"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/log"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/opa"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/verifier"
)

const PreSignupPolicyQuery = "data.cognito_hook_presignup.result"

// PreSignupHandler admits or rejects sign-ups before the identity provider
// creates the user. Unlike the post-authentication hooks a deny is returned
// as an error, which is how the provider is told to reject.
type PreSignupHandler struct {
	Config        *config.Config
	Policy        *opa.Policy
	EmailVerifier verifier.EmailVerifier
}

func NewPreSignupHandler(cfg *config.Config) (*PreSignupHandler, error) {
	if cfg.AppPolicyPath == "" {
		return nil, fmt.Errorf("policy path is empty")
	}
	policy, err := opa.Load(context.Background(), cfg.AppPolicyPath, PreSignupPolicyQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy at path %s: %w", cfg.AppPolicyPath, err)
	}

	v, err := verifier.NewSendGridVerifier(cfg)
	if err != nil {
		return nil, fmt.Errorf("sendgrid init error: %w", err)
	}
	return &PreSignupHandler{
		Config:        cfg,
		Policy:        policy,
		EmailVerifier: v,
	}, nil
}

func (h *PreSignupHandler) Handle(ctx context.Context, evt events.CognitoEventUserPoolsPreSignup) (events.CognitoEventUserPoolsPreSignup, error) {
	debugEvent(h.Config.DebugEnabled, evt)

	input := &PolicyInput{
		Trigger:           evt.TriggerSource,
		CallerContext:     evt.CallerContext,
		UserAttributes:    evt.Request.UserAttributes,
		ClientMetadata:    evt.Request.ClientMetadata,
		EmailVerification: h.VerifyEmail(ctx, &evt),
	}

	output, err := opa.EvaluatePolicy[PolicyOutput](ctx, h.Policy, input)
	if err != nil {
		// fail open: only an explicit deny rejects a sign-up, so a broken or
		// undefined policy cannot lock out every new user
		log.Error("failed to evaluate policy", "error", err)
		return evt, nil
	}

	if output.Action == "deny" {
		reason := output.Reason
		if reason == "" {
			reason = "sign-up denied"
		}
		log.Info("sign-up denied by policy", "trigger", evt.TriggerSource, "reason", reason)
		return evt, errors.New(reason)
	}

	evt.Response = output.Response
	return evt, nil
}

// VerifyEmail returns nil when verification is disabled, not wanted for the
// trigger, or the event has no email.
func (h *PreSignupHandler) VerifyEmail(ctx context.Context, evt *events.CognitoEventUserPoolsPreSignup) *verifier.EmailVerificationResult {
	if !h.Config.EmailVerificationEnabled || h.EmailVerifier == nil {
		return nil
	}

	if sources := h.Config.EmailVerificationForTriggerSources; sources == nil || !slices.Contains(*sources, evt.TriggerSource) {
		return nil
	}

	email := evt.Request.UserAttributes["email"]
	if email == "" {
		log.Info("skipping email verification because no email address was found")
		return nil
	}

	result, err := h.EmailVerifier.VerifyEmail(ctx, email)
	if err != nil {
		log.Warn("email verification error", "error", err)
		return nil
	}
	return result
}
