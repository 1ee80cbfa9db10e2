// Package proxy adapts API Gateway proxy events to the credential gateway.
package proxy

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/gateway"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/identity"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/log"
)

type Handler struct {
	Gateway       *gateway.Gateway
	AllowedOrigin string
	// BasePath is stripped from the event path when present, so both
	// "/signup" and "/auth/signup" reach the same operation.
	BasePath string
}

func NewHandler(gw *gateway.Gateway, allowedOrigin, basePath string) *Handler {
	return &Handler{Gateway: gw, AllowedOrigin: allowedOrigin, BasePath: basePath}
}

// Handle never returns an error: every outcome, including a malformed event,
// is reported in the response.
func (h *Handler) Handle(ctx context.Context, evt events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := log.With("request_id", evt.RequestContext.RequestID, "method", evt.HTTPMethod, "path", evt.Path)
	ctx = log.WithContext(ctx, logger)

	path, _ := gateway.CutBasePath(h.BasePath, evt.Path)
	if evt.HTTPMethod == http.MethodOptions && gateway.IsRoute(path) {
		return h.respond(gateway.Success("", nil)), nil
	}

	body := []byte(evt.Body)
	if evt.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(evt.Body)
		if err != nil {
			env := gateway.Failure(&identity.Error{Kind: identity.KindParse, Msg: "invalid request body", Err: err})
			logger.Info("request body not decodable", "error", err)
			return h.respond(env), nil
		}
		body = decoded
	}

	env := h.Gateway.Handle(ctx, gateway.Invocation{
		Method:        evt.HTTPMethod,
		Path:          path,
		Body:          body,
		Authorization: header(evt.Headers, "Authorization"),
	})
	return h.respond(env), nil
}

func (h *Handler) respond(env gateway.Envelope) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: env.StatusCode,
		Headers:    gateway.CORSHeaders(h.AllowedOrigin),
		Body:       string(env.Body()),
	}
}

// header looks up name case-insensitively; API Gateway keeps the client's
// casing.
func header(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if http.CanonicalHeaderKey(k) == http.CanonicalHeaderKey(name) {
			return v
		}
	}
	return ""
}
