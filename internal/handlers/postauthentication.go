package handlers

import (
	"context"

	"github.com/aws/aws-lambda-go/events"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/config"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/log"
)

type PostAuthenticationHandler struct {
	Config *config.Config
	Syncer ProfileSyncer
}

func NewPostAuthenticationHandler(cfg *config.Config, syncer ProfileSyncer) *PostAuthenticationHandler {
	return &PostAuthenticationHandler{Config: cfg, Syncer: syncer}
}

// Handle mirrors the profile and sends the login notification. It returns
// evt unchanged and a nil error whatever happens inside.
func (h *PostAuthenticationHandler) Handle(ctx context.Context, evt events.CognitoEventUserPoolsPostAuthentication) (events.CognitoEventUserPoolsPostAuthentication, error) {
	debugEvent(h.Config != nil && h.Config.DebugEnabled, evt)

	ctx = log.WithContext(ctx, log.With("user_pool_id", evt.UserPoolID, "username", evt.UserName))
	attrs := attributesFrom(evt.CognitoEventUserPoolsHeader, evt.Request.UserAttributes)

	guard(ctx, evt.TriggerSource, func(ctx context.Context) error {
		return h.Syncer.SyncProfileOnAuthentication(ctx, attrs)
	})
	return evt, nil
}
