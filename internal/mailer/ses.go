package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/identity"
)

const charset = "UTF-8"

var ErrNoRecipient = errors.New("mailer: recipient is required")

type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

var (
	_ SESAPI          = (*ses.Client)(nil)
	_ identity.Mailer = (*SES)(nil)
)

// SES sends mail through Amazon SES from a fixed source address.
type SES struct {
	Client SESAPI
	Source string
}

func NewSES(client SESAPI, source string) *SES {
	return &SES{Client: client, Source: source}
}

func (m *SES) Send(ctx context.Context, msg identity.Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}

	body := &types.Body{}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String(charset)}
	}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String(charset)}
	}

	_, err := m.Client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(m.Source),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charset)},
			Body:    body,
		},
	})
	if err != nil {
		return fmt.Errorf("mailer: send email: %w", err)
	}
	return nil
}
