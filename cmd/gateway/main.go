package main

import (
	"os"

	"training-app/internal/bootstrap"
	"training-app/internal/shared/config"
	"training-app/internal/shared/server"
	"training-app/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.SetLevel(cfg.LogLevel)

	r, err := bootstrap.BuildGateway(cfg)
	if err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"service": bootstrap.ServiceGateway, "error": err.Error()})
		os.Exit(1)
	}

	if err := server.Run(r, bootstrap.ServiceGateway, server.Addr(cfg.Port)); err != nil {
		telemetry.Error("server.failed", map[string]any{"service": bootstrap.ServiceGateway, "error": err.Error()})
		os.Exit(1)
	}
}
