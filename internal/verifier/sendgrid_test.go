package verifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/config"
)

func TestDomain(t *testing.T) {
	assert.Equal(t, "example.com", Domain("Ada <ada@Example.COM>"))
	assert.Equal(t, "example.com", Domain("ada@example.com"))
	assert.Empty(t, Domain("not an email"))
}

func TestVerifyEmail_Whitelist(t *testing.T) {
	v, err := NewSendGridVerifier(&config.Config{
		SendGridApiHost:            "http://127.0.0.1:1",
		EmailVerificationWhitelist: &[]string{"example.com"},
	})
	require.NoError(t, err)

	res, err := v.VerifyEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Same(t, DefaultValidResult, res)
}

func TestVerifyEmail_API(t *testing.T) {
	var got sendGridValidationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, sendGridValidationPath, r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"result":{"email":"info@tempmail.test","verdict":"Risky","score":0.31,
			"checks":{"domain":{"is_suspected_disposable_address":true},"local_part":{"is_suspected_role_address":true}}}}`)
	}))
	defer srv.Close()

	v := &SendGridEmailVerifier{APIHost: srv.URL, APIKey: "sg-key"}
	res, err := v.VerifyEmail(context.Background(), "info@tempmail.test")
	require.NoError(t, err)

	assert.Equal(t, "info@tempmail.test", got.Email)
	assert.Equal(t, "cognito", got.Source)
	assert.True(t, res.IsValid)
	assert.True(t, res.IsDisposable)
	assert.True(t, res.IsRoleBased)
	assert.InDelta(t, 0.31, res.Score, 0.001)
}

func TestVerifyEmail_InvalidVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"result":{"verdict":"Invalid","score":0.01}}`)
	}))
	defer srv.Close()

	v := &SendGridEmailVerifier{APIHost: srv.URL, APIKey: "sg-key"}
	res, err := v.VerifyEmail(context.Background(), "nobody@nowhere.test")
	require.NoError(t, err)
	assert.False(t, res.IsValid)
}

func TestVerifyEmail_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	v := &SendGridEmailVerifier{APIHost: srv.URL, APIKey: "bad"}
	_, err := v.VerifyEmail(context.Background(), "ada@example.com")
	assert.Error(t, err)
}
