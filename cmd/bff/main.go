package main

import (
	"context"
	"os"

	"training-app/internal/bootstrap"
	"training-app/internal/shared/config"
	"training-app/internal/shared/server"
	"training-app/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.SetLevel(cfg.LogLevel)

	app, err := bootstrap.BuildBFF(context.Background(), cfg)
	if err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"service": bootstrap.ServiceBFF, "error": err.Error()})
		os.Exit(1)
	}
	defer app.Close()

	if err := server.Run(app.Router, bootstrap.ServiceBFF, server.Addr(cfg.Port)); err != nil {
		telemetry.Error("server.failed", map[string]any{"service": bootstrap.ServiceBFF, "error": err.Error()})
		os.Exit(1)
	}
}
