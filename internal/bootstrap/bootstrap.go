// Package bootstrap builds the AWS clients once per process and wires them
// into the identity facade.
package bootstrap

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ses"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/config"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/identity"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/mailer"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/profile"
)

// Facade returns a facade over real AWS clients. The profile store is only
// wired when a table name is configured.
func Facade(ctx context.Context, cfg *config.Config) (*identity.Facade, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	var store identity.ProfileStore
	if cfg.ProfileTableName != "" {
		store = profile.NewStore(dynamodb.NewFromConfig(awsCfg), cfg.ProfileTableName)
	}

	var m identity.Mailer
	if cfg.SESSourceEmail != "" {
		m = mailer.NewSES(ses.NewFromConfig(awsCfg), cfg.SESSourceEmail)
	}

	return identity.New(cfg, cognitoidentityprovider.NewFromConfig(awsCfg), m, store), nil
}
