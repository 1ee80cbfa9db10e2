package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-lambda-go/events"
	"github.com/joho/godotenv"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/bootstrap"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/config"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/gateway"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/handlers"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/log"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/proxy"
)

var (
	dataPath   string
	policyPath string
	hookName   string
)

func init() {
	flag.StringVar(&dataPath, "data", "", "path to JSON file with an array of test events")
	flag.StringVar(&policyPath, "policy", "", "path to OPA policy (presignup only)")
	flag.StringVar(&hookName, "hook", "presignup", "presignup, postauthentication, postconfirmation or gateway")
	flag.Parse()
}

func NewDebugConfig() (*config.Config, error) {
	envpath := filepath.Join(".env")
	if _, err := os.Stat(envpath); err == nil {
		_ = godotenv.Load(envpath)
	}

	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	if cfg.DebugDataPath == "" {
		cfg.DebugDataPath = filepath.Join("fixtures", "debug-"+hookName+".json")
	}
	if dataPath != "" {
		cfg.DebugDataPath = dataPath
	}

	if cfg.AppPolicyPath == "" {
		cfg.AppPolicyPath = filepath.Join("fixtures", "debug-policy.rego")
	}
	if policyPath != "" {
		cfg.AppPolicyPath = policyPath
	}

	return cfg, nil
}

// replay decodes data as []E and feeds every element to handle.
func replay[E any, R any](ctx context.Context, data []byte, handle func(context.Context, E) (R, error)) error {
	var evts []E
	if err := json.Unmarshal(data, &evts); err != nil {
		return fmt.Errorf("failed to parse event file: %w", err)
	}
	for i, e := range evts {
		rErr := ""
		r, err := handle(ctx, e)
		if err != nil {
			rErr = err.Error()
		}
		rJSON, err := json.Marshal(r)
		if err != nil {
			log.Error("failed to marshal response", "error", err)
		}
		log.Info("event handled", "index", i, "error", rErr, "response", string(rJSON))
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, data []byte) error {
	switch hookName {
	case "presignup":
		h, err := handlers.NewPreSignupHandler(cfg)
		if err != nil {
			return err
		}
		return replay(ctx, data, h.Handle)
	}

	facade, err := bootstrap.Facade(ctx, cfg)
	if err != nil {
		return err
	}

	switch hookName {
	case "postauthentication":
		return replay(ctx, data, handlers.NewPostAuthenticationHandler(cfg, facade).Handle)
	case "postconfirmation":
		return replay(ctx, data, handlers.NewPostConfirmationHandler(cfg, facade).Handle)
	case "gateway":
		h := proxy.NewHandler(gateway.New(facade), cfg.CORSAllowedOrigin, cfg.HTTPBasePath)
		return replay[events.APIGatewayProxyRequest](ctx, data, h.Handle)
	}
	return fmt.Errorf("unknown hook %q", hookName)
}

func main() {
	cfg, err := NewDebugConfig()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log.SetLevel(cfg.AppLogLevel)

	data, err := os.ReadFile(cfg.DebugDataPath)
	if err != nil {
		log.Error("failed to read data file", "path", cfg.DebugDataPath, "error", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, data); err != nil {
		log.Error("debug run failed", "hook", hookName, "error", err)
		os.Exit(1)
	}

	log.Info("debug run completed", "hook", hookName)
}
