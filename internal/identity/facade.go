package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"golang.org/x/sync/errgroup"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/config"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/log"
)

const (
	PasswordResetRequestedMessage = "If a user with that email exists, a password reset code has been sent."
	PasswordResetMessage          = "Password has been reset successfully"
	SignOutMessage                = "Signed out successfully"
)

// Registration is the handle returned by a successful sign-up.
type Registration struct {
	UserSub        string `json:"userSub"`
	Username       string `json:"username"`
	Confirmed      bool   `json:"userConfirmed"`
	Destination    string `json:"destination,omitempty"`
	DeliveryMedium string `json:"deliveryMedium,omitempty"`
}

type Confirmation struct {
	Username string `json:"username"`
	Status   string `json:"status"`
}

// Session holds the tokens issued by a successful sign-in. Token is the id
// token; AccessToken is what sign-out expects.
type Session struct {
	Token        string `json:"token"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	TokenType    string `json:"tokenType,omitempty"`
	ExpiresIn    int32  `json:"expiresIn"`
}

type Acknowledgment struct {
	Message string `json:"message"`
}

// Attributes describe the identity that just authenticated, as reported by
// a lifecycle hook.
type Attributes struct {
	UserID        string
	Sub           string
	Email         string
	Name          string
	Provider      string
	TriggerSource string
}

type Notifications struct {
	OnSignup         bool
	OnSignin         bool
	OnAuthentication bool
}

// Facade is the only caller of the identity provider, the mailer and the
// profile store.
type Facade struct {
	Cognito      CognitoAPI
	Mailer       Mailer
	Profiles     ProfileStore
	ClientID     string
	ClientSecret string
	Notify       Notifications
	Now          func() time.Time
}

func New(cfg *config.Config, cognito CognitoAPI, mailer Mailer, profiles ProfileStore) *Facade {
	return &Facade{
		Cognito:      cognito,
		Mailer:       mailer,
		Profiles:     profiles,
		ClientID:     cfg.CognitoClientID,
		ClientSecret: cfg.CognitoClientSecret,
		Notify: Notifications{
			OnSignup:         cfg.NotifyOnSignup,
			OnSignin:         cfg.NotifyOnSignin,
			OnAuthentication: cfg.NotifyOnAuthentication,
		},
		Now: time.Now,
	}
}

func (f *Facade) Register(ctx context.Context, email, password, name string) (*Registration, error) {
	const op = "register"

	out, err := f.Cognito.SignUp(ctx, &cip.SignUpInput{
		ClientId:   aws.String(f.ClientID),
		Username:   aws.String(email),
		Password:   aws.String(password),
		SecretHash: f.secretHash(email),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("name"), Value: aws.String(name)},
		},
	})
	if err != nil {
		return nil, providerError(KindRegistration, op, err)
	}
	if out == nil {
		return nil, &Error{Kind: KindInternal, Op: op, Msg: "internal error", Err: errors.New("empty sign-up response")}
	}

	reg := &Registration{
		UserSub:   aws.ToString(out.UserSub),
		Username:  email,
		Confirmed: out.UserConfirmed,
	}
	if d := out.CodeDeliveryDetails; d != nil {
		reg.Destination = aws.ToString(d.Destination)
		reg.DeliveryMedium = string(d.DeliveryMedium)
	}

	log.FromContext(ctx).Info("user registered", "user_sub", reg.UserSub, "confirmed", reg.Confirmed)

	if f.Notify.OnSignup {
		f.sendBestEffort(ctx, "welcome", welcomeMessage(email, name))
	}
	return reg, nil
}

func (f *Facade) ConfirmRegistration(ctx context.Context, email, code string) (*Confirmation, error) {
	_, err := f.Cognito.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:           aws.String(f.ClientID),
		Username:           aws.String(email),
		ConfirmationCode:   aws.String(code),
		SecretHash:         f.secretHash(email),
		ForceAliasCreation: true,
	})
	if err != nil {
		return nil, providerError(KindConfirmation, "confirm", err)
	}
	return &Confirmation{Username: email, Status: "SUCCESS"}, nil
}

func (f *Facade) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	const op = "authenticate"

	params := map[string]string{
		"USERNAME": email,
		"PASSWORD": password,
	}
	if h := f.secretHash(email); h != nil {
		params["SECRET_HASH"] = *h
	}

	out, err := f.Cognito.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(f.ClientID),
		AuthParameters: params,
	})
	if err != nil {
		return nil, providerError(KindAuthentication, op, err)
	}
	if out == nil || out.AuthenticationResult == nil {
		msg := "authentication did not complete"
		if out != nil && out.ChallengeName != "" {
			msg = fmt.Sprintf("authentication challenge required: %s", out.ChallengeName)
		}
		return nil, NewError(KindAuthentication, op, msg)
	}

	res := out.AuthenticationResult
	s := &Session{
		Token:        aws.ToString(res.IdToken),
		AccessToken:  aws.ToString(res.AccessToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		TokenType:    aws.ToString(res.TokenType),
		ExpiresIn:    res.ExpiresIn,
	}

	if f.Notify.OnSignin {
		f.sendBestEffort(ctx, "sign-in notice", signInMessage(email, f.now()))
	}
	return s, nil
}

// RequestPasswordReset always acknowledges with the same message. Provider
// failures, including an unknown user, are only logged.
func (f *Facade) RequestPasswordReset(ctx context.Context, email string) (*Acknowledgment, error) {
	_, err := f.Cognito.ForgotPassword(ctx, &cip.ForgotPasswordInput{
		ClientId:   aws.String(f.ClientID),
		Username:   aws.String(email),
		SecretHash: f.secretHash(email),
	})
	if err != nil {
		log.FromContext(ctx).Warn("password reset request not delivered", "error", err)
	}
	return &Acknowledgment{Message: PasswordResetRequestedMessage}, nil
}

func (f *Facade) ResetPassword(ctx context.Context, email, code, newPassword string) (*Acknowledgment, error) {
	_, err := f.Cognito.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
		ClientId:         aws.String(f.ClientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
		SecretHash:       f.secretHash(email),
	})
	if err != nil {
		return nil, providerError(KindReset, "reset-password", err)
	}
	return &Acknowledgment{Message: PasswordResetMessage}, nil
}

// SignOut invalidates every session of the identity owning accessToken.
func (f *Facade) SignOut(ctx context.Context, accessToken string) (*Acknowledgment, error) {
	const op = "sign-out"
	if accessToken == "" {
		return nil, NewError(KindSignOut, op, "access token is required")
	}
	if _, err := f.Cognito.GlobalSignOut(ctx, &cip.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	}); err != nil {
		return nil, providerError(KindSignOut, op, err)
	}
	return &Acknowledgment{Message: SignOutMessage}, nil
}

// SyncProfileOnAuthentication upserts the profile and sends the login
// notification concurrently. Neither side cancels the other. A failed email
// is logged only; a failed upsert is logged and returned.
func (f *Facade) SyncProfileOnAuthentication(ctx context.Context, attrs Attributes) error {
	logger := log.FromContext(ctx).With("user_id", attrs.UserID, "trigger", attrs.TriggerSource)
	now := f.now()

	var g errgroup.Group

	g.Go(func() (err error) {
		defer recoverInto(logger, "profile upsert", &err)
		if f.Profiles == nil {
			logger.Debug("profile store not configured, skipping upsert")
			return nil
		}
		if attrs.UserID == "" {
			err = errors.New("profile sync: missing user id")
			logger.Error("profile upsert skipped", "error", err)
			return err
		}
		err = f.Profiles.Upsert(ctx, Profile{
			UserID:    attrs.UserID,
			Sub:       attrs.Sub,
			Email:     attrs.Email,
			Name:      attrs.Name,
			Provider:  attrs.Provider,
			LastLogin: now,
		})
		if err != nil {
			logger.Error("profile upsert failed", "error", err)
			return fmt.Errorf("profile sync: %w", err)
		}
		logger.Debug("profile upserted")
		return nil
	})

	g.Go(func() error {
		defer recoverInto(logger, "login notification", nil)
		if !f.Notify.OnAuthentication || attrs.Email == "" {
			return nil
		}
		f.sendBestEffort(ctx, "login notification", loginMessage(attrs.Email, attrs.Name, attrs.Provider, now))
		return nil
	})

	return g.Wait()
}

// recoverInto logs a panic in a sync goroutine and, when errp is set, turns
// it into an error. A recover in the caller's goroutine cannot see it.
func recoverInto(logger *slog.Logger, task string, errp *error) {
	r := recover()
	if r == nil {
		return
	}
	logger.Error("profile sync task panicked", "task", task, "panic", fmt.Sprint(r))
	if errp != nil {
		*errp = fmt.Errorf("profile sync: %s panicked: %v", task, r)
	}
}

func (f *Facade) sendBestEffort(ctx context.Context, kind string, msg Message) {
	if f.Mailer == nil || msg.To == "" {
		return
	}
	if err := f.Mailer.Send(ctx, msg); err != nil {
		log.FromContext(ctx).Warn("notification email failed", "kind", kind, "error", err)
		return
	}
	log.FromContext(ctx).Debug("notification email sent", "kind", kind)
}

// secretHash is nil unless the app client has a secret.
func (f *Facade) secretHash(username string) *string {
	if f.ClientSecret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(f.ClientSecret))
	mac.Write([]byte(username + f.ClientID))
	return aws.String(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

func (f *Facade) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}
