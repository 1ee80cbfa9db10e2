package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/config"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/gateway"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/identity"
)

type stubService struct {
	calls int
	token string
	panic bool
}

func (s *stubService) Register(_ context.Context, email, _, _ string) (*identity.Registration, error) {
	s.calls++
	if s.panic {
		panic("boom")
	}
	return &identity.Registration{UserSub: "sub-1", Username: email}, nil
}

func (s *stubService) ConfirmRegistration(_ context.Context, email, _ string) (*identity.Confirmation, error) {
	s.calls++
	return &identity.Confirmation{Username: email, Status: "SUCCESS"}, nil
}

func (s *stubService) Authenticate(_ context.Context, _, _ string) (*identity.Session, error) {
	s.calls++
	return nil, &identity.Error{Kind: identity.KindAuthentication, Msg: "Incorrect username or password."}
}

func (s *stubService) RequestPasswordReset(_ context.Context, _ string) (*identity.Acknowledgment, error) {
	s.calls++
	return &identity.Acknowledgment{Message: identity.PasswordResetRequestedMessage}, nil
}

func (s *stubService) ResetPassword(_ context.Context, _, _, _ string) (*identity.Acknowledgment, error) {
	s.calls++
	return &identity.Acknowledgment{Message: identity.PasswordResetMessage}, nil
}

func (s *stubService) SignOut(_ context.Context, token string) (*identity.Acknowledgment, error) {
	s.calls++
	s.token = token
	return &identity.Acknowledgment{Message: identity.SignOutMessage}, nil
}

func newTestServer(svc *stubService) http.Handler {
	cfg := &config.Config{
		CORSAllowedOrigin: "https://app.example.com",
		HTTPPort:          "0",
		HTTPBasePath:      "/auth",
	}
	return NewServer(cfg, gateway.New(svc)).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestServer_SignUp(t *testing.T) {
	svc := &stubService{}
	rec, body := do(t, newTestServer(svc), http.MethodPost, "/auth/signup",
		`{"email":"ada@example.com","password":"Secret123!","name":"Ada"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, gateway.SignUpMessage, body["message"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_ProviderRejection(t *testing.T) {
	rec, body := do(t, newTestServer(&stubService{}), http.MethodPost, "/auth/signin",
		`{"email":"ada@example.com","password":"wrong"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Incorrect username or password.", body["error"])
}

func TestServer_RoutingFailures(t *testing.T) {
	svc := &stubService{}
	h := newTestServer(svc)

	rec, body := do(t, h, http.MethodGet, "/auth/signin", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method Not Allowed", body["error"])

	rec, body = do(t, h, http.MethodPost, "/auth/unknown", "{}", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", body["error"])

	assert.Zero(t, svc.calls)
}

func TestServer_SignOut(t *testing.T) {
	svc := &stubService{}
	h := newTestServer(svc)

	rec, body := do(t, h, http.MethodPost, "/auth/signout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Missing bearer token", body["error"])
	assert.Zero(t, svc.calls)

	rec, _ = do(t, h, http.MethodPost, "/auth/signout", "", map[string]string{"Authorization": "Bearer access-token"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "access-token", svc.token)
}

func TestServer_CORS(t *testing.T) {
	h := newTestServer(&stubService{})

	rec, _ := do(t, h, http.MethodOptions, "/auth/signin", "", map[string]string{"Origin": "https://app.example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec, _ = do(t, h, http.MethodOptions, "/auth/signin", "", map[string]string{"Origin": "https://evil.example.com"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_RecoversPanics(t *testing.T) {
	rec, body := do(t, newTestServer(&stubService{panic: true}), http.MethodPost, "/auth/signup",
		`{"email":"ada@example.com","password":"Secret123!","name":"Ada"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", body["error"])
}

func TestServer_Health(t *testing.T) {
	rec, body := do(t, newTestServer(&stubService{}), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_ReusesClientRequestID(t *testing.T) {
	rec, _ := do(t, newTestServer(&stubService{}), http.MethodGet, "/health", "", map[string]string{"X-Request-ID": "req-42"})
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestServer_PreflightOnlyForKnownOperations(t *testing.T) {
	h := newTestServer(&stubService{})
	origin := map[string]string{"Origin": "https://app.example.com"}

	for _, path := range []string{"/auth/nope", "/totally/unknown", "/signin"} {
		rec, body := do(t, h, http.MethodOptions, path, "", origin)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "Not Found", body["error"], path)
	}

	rec, _ := do(t, h, http.MethodOptions, "/auth/signin/", "", origin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_TrailingSlashIsNotRedirected(t *testing.T) {
	svc := &stubService{}
	h := newTestServer(svc)

	rec, body := do(t, h, http.MethodPost, "/auth/signup/",
		`{"email":"ada@example.com","password":"Secret123!","name":"Ada"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.Equal(t, gateway.SignUpMessage, body["message"])
	assert.Equal(t, 1, svc.calls)

	rec, body = do(t, h, http.MethodGet, "/auth/signup/", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method Not Allowed", body["error"])

	rec, _ = do(t, h, http.MethodPost, "/auth/", "{}", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
