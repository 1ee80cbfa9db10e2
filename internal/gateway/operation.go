package gateway

import (
	"net/http"
	"strings"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/identity"
)

// Operation names one credential flow.
type Operation string

const (
	OpSignUp             Operation = "signup"
	OpConfirm            Operation = "confirm"
	OpSignIn             Operation = "signin"
	OpForgotPassword     Operation = "forgot-password"
	OpConfirmNewPassword Operation = "confirm-new-password"
	OpSignOut            Operation = "signout"

	// OpPostAuthSync is only reachable from the lifecycle hooks.
	OpPostAuthSync Operation = "post-auth-sync"
)

// Route binds a path to an operation.
type Route struct {
	Method    string
	Path      string
	Operation Operation
}

var routes = []Route{
	{http.MethodPost, "/signup", OpSignUp},
	{http.MethodPost, "/confirm", OpConfirm},
	{http.MethodPost, "/signin", OpSignIn},
	{http.MethodPost, "/forgot-password", OpForgotPassword},
	{http.MethodPost, "/confirm-new-password", OpConfirmNewPassword},
	{http.MethodPost, "/signout", OpSignOut},
}

// Routes returns a copy of the route table.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Resolve maps method and path to an operation. An unknown path is
// ErrRouteNotFound; a known path with another verb is ErrMethodNotAllowed.
func Resolve(method, path string) (Operation, error) {
	path = normalizePath(path)
	found := false
	for _, r := range routes {
		if r.Path != path {
			continue
		}
		found = true
		if strings.EqualFold(r.Method, method) {
			return r.Operation, nil
		}
	}
	if !found {
		return "", identity.ErrRouteNotFound
	}
	return "", identity.ErrMethodNotAllowed
}

// IsRoute reports whether path names a known operation.
func IsRoute(path string) bool {
	path = normalizePath(path)
	for _, r := range routes {
		if r.Path == path {
			return true
		}
	}
	return false
}

// CutBasePath strips base from p. ok is false when p lies outside base, in
// which case p is returned as is.
func CutBasePath(base, p string) (rest string, ok bool) {
	base = strings.TrimRight(base, "/")
	if base == "" {
		return p, true
	}
	rest, ok = strings.CutPrefix(p, base)
	if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
		return p, false
	}
	return rest, true
}

func normalizePath(p string) string {
	p = "/" + strings.Trim(p, "/")
	return strings.ToLower(p)
}
