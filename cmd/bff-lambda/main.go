package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/bff-lambda

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"training-app/internal/bfflambda"
	"training-app/internal/bootstrap"
	"training-app/internal/shared/config"
	"training-app/internal/shared/server"
	"training-app/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.SetLevel(cfg.LogLevel)

	h, closer, err := bootstrap.BuildLambda(context.Background(), cfg)
	if err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"service": bootstrap.ServiceBFFLambda, "error": err.Error()})
		os.Exit(1)
	}
	if closer != nil {
		defer closer()
	}

	if server.IsLambdaRuntime() {
		lambda.Start(h.Handle)
		return
	}

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           bfflambda.LocalHandler(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := server.Serve(srv, bootstrap.ServiceBFFLambda); err != nil {
		telemetry.Error("server.failed", map[string]any{"service": bootstrap.ServiceBFFLambda, "error": err.Error()})
		os.Exit(1)
	}
}
