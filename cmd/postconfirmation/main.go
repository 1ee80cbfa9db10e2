package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/bootstrap"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/config"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/handlers"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/log"
)

func main() {
	cfg, err := config.Load(config.HookRequirements...)
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log.SetLevel(cfg.AppLogLevel)

	facade, err := bootstrap.Facade(context.Background(), cfg)
	if err != nil {
		log.Error("failed to init identity facade", "error", err)
		os.Exit(1)
	}

	h := handlers.NewPostConfirmationHandler(cfg, facade)
	lambda.Start(h.Handle)
}
