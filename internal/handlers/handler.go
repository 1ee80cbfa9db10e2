package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/identity"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/log"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/verifier"
)

// ProfileSyncer is the facade operation the post-authentication and
// post-confirmation hooks call.
type ProfileSyncer interface {
	SyncProfileOnAuthentication(ctx context.Context, attrs identity.Attributes) error
}

var _ ProfileSyncer = (*identity.Facade)(nil)

type PolicyInput struct {
	Trigger           string                                    `json:"trigger"`
	CallerContext     events.CognitoEventUserPoolsCallerContext `json:"callerContext"`
	UserAttributes    map[string]string                         `json:"userAttributes"`
	ClientMetadata    map[string]string                         `json:"clientMetadata"`
	EmailVerification *verifier.EmailVerificationResult         `json:"emailVerification"`
}

type PolicyOutput struct {
	Action   string                                        `json:"action"`
	Reason   string                                        `json:"reason,omitempty"`
	Response events.CognitoEventUserPoolsPreSignupResponse `json:"response"`
}

// guard runs fn and only logs what goes wrong, panics included. The
// identity provider treats any error from these hooks as a failed sign-in.
func guard(ctx context.Context, trigger string, fn func(context.Context) error) {
	logger := log.FromContext(ctx).With("trigger", trigger)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("hook panicked", "panic", fmt.Sprint(r))
		}
	}()
	if err := fn(ctx); err != nil {
		logger.Error("hook failed", "error", err)
	}
}

// attributesFrom maps a trigger's user record to facade attributes.
func attributesFrom(header events.CognitoEventUserPoolsHeader, attrs map[string]string) identity.Attributes {
	userID := header.UserName
	if userID == "" {
		userID = attrs["sub"]
	}
	return identity.Attributes{
		UserID:        userID,
		Sub:           attrs["sub"],
		Email:         attrs["email"],
		Name:          attrs["name"],
		Provider:      providerTag(header.TriggerSource, attrs),
		TriggerSource: header.TriggerSource,
	}
}

// providerTag names the identity provider: the federated provider from the
// "identities" attribute, otherwise Cognito.
func providerTag(trigger string, attrs map[string]string) string {
	if raw := attrs["identities"]; raw != "" {
		var ids []struct {
			ProviderName string `json:"providerName"`
		}
		if err := json.Unmarshal([]byte(raw), &ids); err == nil {
			for _, id := range ids {
				if id.ProviderName != "" {
					return id.ProviderName
				}
			}
		}
		return "Federated"
	}
	if strings.Contains(trigger, "ExternalProvider") {
		return "Federated"
	}
	return "Cognito"
}

func debugEvent(enabled bool, evt any) {
	if !enabled {
		return
	}
	evtJSON, err := json.Marshal(evt)
	if err != nil {
		log.Warn("failed to marshal triggered event", "error", err)
		return
	}
	log.Debug(string(evtJSON))
}
