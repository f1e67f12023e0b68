package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"training-app/internal/shared/telemetry"
)

const shutdownTimeout = 10 * time.Second

// IsLambdaRuntime reports whether the process was started by AWS Lambda.
func IsLambdaRuntime() bool {
	return strings.TrimSpace(os.Getenv("AWS_LAMBDA_RUNTIME_API")) != "" ||
		strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != ""
}

// Run serves r on addr until SIGINT/SIGTERM, or hands it to the Lambda runtime
// through the HTTP API adapter.
func Run(r *gin.Engine, service, addr string) error {
	if IsLambdaRuntime() {
		telemetry.Info("server.lambda.start", map[string]any{"service": service})
		lambda.Start(ginadapter.NewV2(r).ProxyWithContext)
		return nil
	}

	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	return Serve(srv, service)
}

// Serve runs srv and shuts it down gracefully on SIGINT/SIGTERM.
func Serve(srv *http.Server, service string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("server.start", map[string]any{"service": service, "addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	telemetry.Info("server.shutdown", map[string]any{"service": service})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
