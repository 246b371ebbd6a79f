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

	"github.com/go-todo-nosql/internal/config"
	"github.com/go-todo-nosql/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-todo-nosql/internal/infrastructure/jwt"
	"github.com/go-todo-nosql/internal/infrastructure/smtp"
	"github.com/go-todo-nosql/internal/infrastructure/sns"
	transporthttp "github.com/go-todo-nosql/internal/transport/http"
	"github.com/spf13/cobra"
)

var serveBootstrap bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), serveBootstrap)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveBootstrap, "bootstrap", false, "create tables before serving")
}

func runServe(ctx context.Context, bootstrap bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	if bootstrap {
		if err := dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables); err != nil {
			return err
		}
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	mailer, err := newMailSender(ctx, cfg)
	if err != nil {
		return err
	}

	deps := &transporthttp.Deps{
		UserRepo: dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		TodoRepo: dynamo.NewTodoRepo(dynamoClient, cfg.DynamoTables.Todos),
		Mailer:   mailer,
		Tokens:   jwtProvider,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "mail_transport", cfg.MailTransport)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func newMailSender(ctx context.Context, cfg *config.Config) (transporthttp.MailSender, error) {
	if cfg.MailTransport == config.MailTransportSNS {
		p, err := sns.NewPublisher(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("sns publisher: %w", err)
		}
		return p, nil
	}
	return smtp.NewMailer(cfg), nil
}
