package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/identity"
)

// Request is one normalized credential operation. Token comes from the
// Authorization header, everything else from the JSON body.
type Request struct {
	Operation   Operation `json:"-"`
	Email       string    `json:"email" validate:"required,email"`
	Password    string    `json:"password" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Code        string    `json:"code" validate:"required"`
	NewPassword string    `json:"newPassword" validate:"required"`
	Token       string    `json:"-"`
}

// Invocation is what every HTTP-shaped adapter hands to the gateway.
type Invocation struct {
	Method        string
	Path          string
	Body          []byte
	Authorization string
}

var requiredFields = map[Operation][]string{
	OpSignUp:             {"Email", "Password", "Name"},
	OpConfirm:            {"Email", "Code"},
	OpSignIn:             {"Email", "Password"},
	OpForgotPassword:     {"Email"},
	OpConfirmNewPassword: {"Email", "Code", "NewPassword"},
	OpSignOut:            nil,
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode parses body for op and checks the fields op needs. The bearer
// token, if any, is taken from authorization.
func Decode(op Operation, body []byte, authorization string) (Request, error) {
	var req Request
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return Request{}, &identity.Error{Kind: identity.KindParse, Op: string(op), Msg: "invalid request body", Err: err}
		}
	}

	req.Operation = op
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Code = strings.TrimSpace(req.Code)
	req.Token = BearerToken(authorization)

	fields, ok := requiredFields[op]
	if !ok {
		return Request{}, identity.ErrRouteNotFound
	}
	if len(fields) == 0 {
		return req, nil
	}
	if err := validate.StructPartial(req, fields...); err != nil {
		return Request{}, &identity.Error{Kind: identity.KindParse, Op: string(op), Msg: describe(err), Err: err}
	}
	return req, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := jsonName(fe.StructField())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email address", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

func jsonName(field string) string {
	switch field {
	case "NewPassword":
		return "newPassword"
	case "":
		return "field"
	}
	return strings.ToLower(field[:1]) + field[1:]
}
