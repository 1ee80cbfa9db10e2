package handlers

import (
	"context"

	"github.com/aws/aws-lambda-go/events"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/config"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/log"
)

const triggerConfirmSignUp = "PostConfirmation_ConfirmSignUp"

type PostConfirmationHandler struct {
	Config *config.Config
	Syncer ProfileSyncer
}

func NewPostConfirmationHandler(cfg *config.Config, syncer ProfileSyncer) *PostConfirmationHandler {
	return &PostConfirmationHandler{Config: cfg, Syncer: syncer}
}

// Handle syncs the profile once a sign-up is confirmed; the forgot-password
// confirmation passes straight through. evt is always returned unchanged.
func (h *PostConfirmationHandler) Handle(ctx context.Context, evt events.CognitoEventUserPoolsPostConfirmation) (events.CognitoEventUserPoolsPostConfirmation, error) {
	debugEvent(h.Config != nil && h.Config.DebugEnabled, evt)

	if evt.TriggerSource != triggerConfirmSignUp {
		log.Debug("skipping post confirmation trigger", "trigger", evt.TriggerSource)
		return evt, nil
	}

	ctx = log.WithContext(ctx, log.With("user_pool_id", evt.UserPoolID, "username", evt.UserName))
	attrs := attributesFrom(evt.CognitoEventUserPoolsHeader, evt.Request.UserAttributes)

	guard(ctx, evt.TriggerSource, func(ctx context.Context) error {
		return h.Syncer.SyncProfileOnAuthentication(ctx, attrs)
	})
	return evt, nil
}
