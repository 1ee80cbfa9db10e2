package gateway

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/identity"
)

func TestResolve_KnownRoutes(t *testing.T) {
	for _, r := range Routes() {
		op, err := Resolve(r.Method, r.Path)
		require.NoError(t, err, r.Path)
		assert.Equal(t, r.Operation, op)
	}
}

func TestResolve_NormalizesPath(t *testing.T) {
	op, err := Resolve("post", "/SignIn/")
	require.NoError(t, err)
	assert.Equal(t, OpSignIn, op)
}

func TestResolve_WrongVerbIs405(t *testing.T) {
	for _, r := range Routes() {
		for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
			_, err := Resolve(m, r.Path)
			require.ErrorIs(t, err, identity.ErrMethodNotAllowed, "%s %s", m, r.Path)
			assert.Equal(t, http.StatusMethodNotAllowed, identity.KindOf(err).StatusCode())
		}
	}
}

func TestResolve_UnknownPathIs404(t *testing.T) {
	for _, p := range []string{"/", "/login", "/signup/extra", "/health"} {
		for _, m := range []string{http.MethodGet, http.MethodPost} {
			_, err := Resolve(m, p)
			require.ErrorIs(t, err, identity.ErrRouteNotFound, "%s %s", m, p)
			assert.Equal(t, http.StatusNotFound, identity.KindOf(err).StatusCode())
		}
	}
}

func TestRoutes_ReturnsCopy(t *testing.T) {
	rs := Routes()
	rs[0].Path = "/changed"
	assert.Equal(t, "/signup", Routes()[0].Path)
	assert.True(t, IsRoute("signup"))
	assert.False(t, IsRoute("/changed"))
}

func TestCutBasePath(t *testing.T) {
	tests := []struct {
		base, path string
		want       string
		ok         bool
	}{
		{"/auth", "/auth/signup", "/signup", true},
		{"/auth/", "/auth", "", true},
		{"/auth", "/authsignup", "/authsignup", false},
		{"/auth", "/signup", "/signup", false},
		{"", "/signup", "/signup", true},
	}
	for _, tt := range tests {
		got, ok := CutBasePath(tt.base, tt.path)
		assert.Equal(t, tt.want, got, "%s %s", tt.base, tt.path)
		assert.Equal(t, tt.ok, ok, "%s %s", tt.base, tt.path)
	}
}
