package profile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/identity"
)

type fakeDynamo struct {
	update *dynamodb.UpdateItemInput
	get    *dynamodb.GetItemInput
	item   map[string]types.AttributeValue
	err    error
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.update = in
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.get = in
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.item}, nil
}

func stringValues(in map[string]types.AttributeValue) []string {
	var out []string
	for _, v := range in {
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			out = append(out, s.Value)
		}
	}
	return out
}

func nameValues(in map[string]string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, v)
	}
	return out
}

func TestUpsert(t *testing.T) {
	db := &fakeDynamo{}
	s := NewStore(db, "profiles")

	err := s.Upsert(context.Background(), identity.Profile{
		UserID:    "user-1",
		Sub:       "sub-1",
		Email:     "ada@example.com",
		Name:      "Ada",
		Provider:  "Google",
		LastLogin: time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)),
	})
	require.NoError(t, err)

	in := db.update
	require.NotNil(t, in)
	assert.Equal(t, "profiles", aws.ToString(in.TableName))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "user-1"}, in.Key["userId"])

	assert.ElementsMatch(t,
		[]string{"lastLogin", "provider", "password", "createdAt", "sub", "email", "name"},
		nameValues(in.ExpressionAttributeNames))
	assert.Subset(t, stringValues(in.ExpressionAttributeValues),
		[]string{"2025-01-02T02:04:05Z", "Google", PasswordPlaceholder, "sub-1", "ada@example.com", "Ada"})

	update := aws.ToString(in.UpdateExpression)
	assert.True(t, strings.HasPrefix(update, "SET "))
	assert.Equal(t, 4, strings.Count(update, "if_not_exists("))
}

func TestUpsert_MinimalProfile(t *testing.T) {
	db := &fakeDynamo{}
	s := NewStore(db, "profiles")

	require.NoError(t, s.Upsert(context.Background(), identity.Profile{UserID: "user-1"}))
	assert.ElementsMatch(t,
		[]string{"lastLogin", "provider", "password", "createdAt"},
		nameValues(db.update.ExpressionAttributeNames))
	assert.Contains(t, stringValues(db.update.ExpressionAttributeValues), "Cognito")
}

func TestUpsert_Errors(t *testing.T) {
	db := &fakeDynamo{}
	s := NewStore(db, "profiles")
	assert.Error(t, s.Upsert(context.Background(), identity.Profile{}))
	assert.Nil(t, db.update)

	db.err = errors.New("ResourceNotFoundException")
	err := s.Upsert(context.Background(), identity.Profile{UserID: "user-1"})
	assert.ErrorIs(t, err, db.err)
}

func TestGet(t *testing.T) {
	db := &fakeDynamo{item: map[string]types.AttributeValue{
		"userId":    &types.AttributeValueMemberS{Value: "user-1"},
		"email":     &types.AttributeValueMemberS{Value: "ada@example.com"},
		"password":  &types.AttributeValueMemberS{Value: PasswordPlaceholder},
		"lastLogin": &types.AttributeValueMemberS{Value: "2025-01-02T03:04:05Z"},
	}}
	s := NewStore(db, "profiles")

	r, err := s.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, &Record{
		UserID:    "user-1",
		Email:     "ada@example.com",
		Password:  PasswordPlaceholder,
		LastLogin: "2025-01-02T03:04:05Z",
	}, r)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "user-1"}, db.get.Key["userId"])

	db.item = nil
	_, err = s.Get(context.Background(), "user-2")
	assert.ErrorIs(t, err, ErrNotFound)
}
