// Package gateway routes normalized credential requests to the identity
// facade and shapes the uniform response envelope.
package gateway

import (
	"context"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/identity"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/log"
)

const (
	SignUpMessage  = "Signup successful. Please confirm your email."
	ConfirmMessage = "User confirmed successfully"
	SignInMessage  = "Sign in successful"
)

// Service is the set of facade operations reachable over a route.
type Service interface {
	Register(ctx context.Context, email, password, name string) (*identity.Registration, error)
	ConfirmRegistration(ctx context.Context, email, code string) (*identity.Confirmation, error)
	Authenticate(ctx context.Context, email, password string) (*identity.Session, error)
	RequestPasswordReset(ctx context.Context, email string) (*identity.Acknowledgment, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) (*identity.Acknowledgment, error)
	SignOut(ctx context.Context, accessToken string) (*identity.Acknowledgment, error)
}

var _ Service = (*identity.Facade)(nil)

type Gateway struct {
	Service Service
}

func New(svc Service) *Gateway {
	return &Gateway{Service: svc}
}

// Handle runs one invocation through resolve, decode, dispatch and
// normalization.
func (g *Gateway) Handle(ctx context.Context, inv Invocation) Envelope {
	op, err := Resolve(inv.Method, inv.Path)
	if err != nil {
		return g.fail(ctx, err)
	}
	if op == OpSignOut && BearerToken(inv.Authorization) == "" {
		return g.fail(withOperation(ctx, op), identity.ErrMissingToken)
	}
	req, err := Decode(op, inv.Body, inv.Authorization)
	if err != nil {
		return g.fail(withOperation(ctx, op), err)
	}
	return g.Dispatch(ctx, req)
}

// Dispatch selects the facade call for req.Operation.
func (g *Gateway) Dispatch(ctx context.Context, req Request) Envelope {
	ctx = withOperation(ctx, req.Operation)

	var env Envelope
	switch req.Operation {
	case OpSignUp:
		reg, err := g.Service.Register(ctx, req.Email, req.Password, req.Name)
		if err != nil {
			return g.fail(ctx, err)
		}
		env = Success(SignUpMessage, reg)
	case OpConfirm:
		res, err := g.Service.ConfirmRegistration(ctx, req.Email, req.Code)
		if err != nil {
			return g.fail(ctx, err)
		}
		env = Success(ConfirmMessage, res)
	case OpSignIn:
		s, err := g.Service.Authenticate(ctx, req.Email, req.Password)
		if err != nil {
			return g.fail(ctx, err)
		}
		env = Success(SignInMessage, s)
	case OpForgotPassword:
		ack, err := g.Service.RequestPasswordReset(ctx, req.Email)
		if err != nil {
			return g.fail(ctx, err)
		}
		env = Success(ack.Message, nil)
	case OpConfirmNewPassword:
		ack, err := g.Service.ResetPassword(ctx, req.Email, req.Code, req.NewPassword)
		if err != nil {
			return g.fail(ctx, err)
		}
		env = Success(ack.Message, nil)
	case OpSignOut:
		if req.Token == "" {
			return g.fail(ctx, identity.ErrMissingToken)
		}
		ack, err := g.Service.SignOut(ctx, req.Token)
		if err != nil {
			return g.fail(ctx, err)
		}
		env = Success(ack.Message, nil)
	default:
		return g.fail(ctx, identity.ErrRouteNotFound)
	}

	log.FromContext(ctx).Info("operation handled", "status", env.StatusCode)
	return env
}

func (g *Gateway) fail(ctx context.Context, err error) Envelope {
	env := Failure(err)
	l := log.FromContext(ctx).With("status", env.StatusCode, "kind", identity.KindOf(err).String())
	if env.StatusCode >= 500 {
		l.Error("operation failed", "error", err)
	} else {
		l.Info("operation rejected", "error", env.Error)
	}
	return env
}

func withOperation(ctx context.Context, op Operation) context.Context {
	return log.WithContext(ctx, log.FromContext(ctx).With("operation", string(op)))
}
