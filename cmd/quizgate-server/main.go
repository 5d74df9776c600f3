package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/quizgate/internal/bootstrap"
	"github.com/at-ishikawa/quizgate/internal/config"
	"github.com/at-ishikawa/quizgate/internal/inference"
	"github.com/at-ishikawa/quizgate/internal/inference/gemini"
	"github.com/at-ishikawa/quizgate/internal/quiz"
	"github.com/at-ishikawa/quizgate/internal/server"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "quizgate-server",
		Short:         "Answers multiple-choice question batches over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}
	setupLogger(cfg.Log.Level)

	app := bootstrap.New(cfg.Server.ShutdownTimeout)

	var client inference.Client
	if cfg.Gemini.HasUsableAPIKey() {
		geminiClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Settings())
		app.AddShutdownHook(func(ctx context.Context) error {
			return geminiClient.Close()
		})
		client = geminiClient
		slog.Default().Info("gemini client configured", "model", geminiClient.GetModel())
	} else {
		slog.Default().Warn("GEMINI_API_KEY is not set; every answer will use the fallback")
	}

	handler := server.NewAnswerHandler(quiz.NewAnswerer(client), cfg.Server.MaxBodyBytes)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: h2c.NewHandler(server.NewRouter(cfg.Server, handler), &http2.Server{}),
	}
	app.AddShutdownHook(srv.Shutdown)

	return app.Run(ctx, func(ctx context.Context) error {
		slog.Default().Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("srv.ListenAndServe() > %w", err)
		}
		return nil
	})
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}

func setupLogger(level string) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelInfo
	}

	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})),
	)
}
