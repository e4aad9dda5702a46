// Command bedrock-chat runs the chat relay server.
//
// Configuration via environment variables:
//
//	MODEL_ID    - Bedrock model identifier (default: us.amazon.nova-lite-v1:0)
//	AWS_REGION  - Bedrock region (default: us-east-1)
//	PORT        - Listen port (default: 8000)
//	NGROK_TOKEN - ngrok access token; unset skips public exposure
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/caarlos0/env/v9"

	"bedrock-chat/handler"
	"bedrock-chat/internal/integrations/bedrock"
	"bedrock-chat/internal/tunnel"
	"bedrock-chat/internal/usecase"
)

type Config struct {
	ModelID    string `env:"MODEL_ID" envDefault:"us.amazon.nova-lite-v1:0"`
	Region     string `env:"AWS_REGION" envDefault:"us-east-1"`
	Port       int    `env:"PORT" envDefault:"8000"`
	NgrokToken string `env:"NGROK_TOKEN"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parsing env config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Clients ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return fmt.Errorf("loading AWS config: %w", err)
	}

	llm, err := bedrock.New(bedrockruntime.NewFromConfig(awsCfg))
	if err != nil {
		return fmt.Errorf("creating bedrock client: %w", err)
	}
	slog.Info("initialized bedrock client", "region", cfg.Region, "model", cfg.ModelID)

	chatService, err := usecase.NewChatService(llm, cfg.ModelID)
	if err != nil {
		return fmt.Errorf("creating chat service: %w", err)
	}

	h, err := handler.New(chatService)
	if err != nil {
		return fmt.Errorf("creating handler: %w", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: h.Routes(),
	}

	errCh := make(chan error, 1)

	// Public exposure is optional; a missing token only skips it.
	tun, err := tunnel.Open(ctx, cfg.NgrokToken)
	switch {
	case errors.Is(err, tunnel.ErrNoToken):
		slog.Warn("NGROK_TOKEN is not set, skipping public exposure")
	case err != nil:
		return err
	default:
		slog.Info("public url", "url", tun.URL())
		go func() {
			if serveErr := srv.Serve(tun); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				errCh <- serveErr
			}
		}()
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "model", cfg.ModelID)
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
