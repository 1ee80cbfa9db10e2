// Package profile mirrors a subset of the identity provider's user record
// into a DynamoDB table.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/identity"
)

// PasswordPlaceholder is written once to the password attribute; credentials
// live in the identity provider only.
const PasswordPlaceholder = "COGNITO_MANAGED"

var ErrNotFound = errors.New("profile not found")

type DynamoDBAPI interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

var (
	_ DynamoDBAPI           = (*dynamodb.Client)(nil)
	_ identity.ProfileStore = (*Store)(nil)
)

// Record is the stored item.
type Record struct {
	UserID    string `dynamodbav:"userId"`
	Sub       string `dynamodbav:"sub,omitempty"`
	Email     string `dynamodbav:"email,omitempty"`
	Name      string `dynamodbav:"name,omitempty"`
	Password  string `dynamodbav:"password,omitempty"`
	Provider  string `dynamodbav:"provider,omitempty"`
	LastLogin string `dynamodbav:"lastLogin,omitempty"`
	CreatedAt string `dynamodbav:"createdAt,omitempty"`
}

type Store struct {
	Client DynamoDBAPI
	Table  string
}

func NewStore(client DynamoDBAPI, table string) *Store {
	return &Store{Client: client, Table: table}
}

// Upsert writes p. Email, name, password placeholder and creation time are
// only set when absent; last login, provider and sub always overwrite.
func (s *Store) Upsert(ctx context.Context, p identity.Profile) error {
	if p.UserID == "" {
		return errors.New("profile: user id is required")
	}

	ts := p.LastLogin.UTC().Format(time.RFC3339)
	provider := p.Provider
	if provider == "" {
		provider = "Cognito"
	}

	update := expression.
		Set(expression.Name("lastLogin"), expression.Value(ts)).
		Set(expression.Name("provider"), expression.Value(provider)).
		Set(expression.Name("password"), expression.Name("password").IfNotExists(expression.Value(PasswordPlaceholder))).
		Set(expression.Name("createdAt"), expression.Name("createdAt").IfNotExists(expression.Value(ts)))
	if p.Sub != "" {
		update = update.Set(expression.Name("sub"), expression.Value(p.Sub))
	}
	if p.Email != "" {
		update = update.Set(expression.Name("email"), expression.Name("email").IfNotExists(expression.Value(p.Email)))
	}
	if p.Name != "" {
		update = update.Set(expression.Name("name"), expression.Name("name").IfNotExists(expression.Value(p.Name)))
	}

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return fmt.Errorf("profile: build update: %w", err)
	}

	_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.Table),
		Key:                       key(p.UserID),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return fmt.Errorf("profile: update item: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, userID string) (*Record, error) {
	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.Table),
		Key:       key(userID),
	})
	if err != nil {
		return nil, fmt.Errorf("profile: get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var r Record
	if err := attributevalue.UnmarshalMap(out.Item, &r); err != nil {
		return nil, fmt.Errorf("profile: decode item: %w", err)
	}
	return &r, nil
}

func key(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
}
