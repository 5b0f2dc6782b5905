package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alovak/cardflow-gateway/gateway"
	"github.com/alovak/cardflow-gateway/internal/banksim"
	"github.com/alovak/cardflow-gateway/internal/logging"
	"github.com/alovak/cardflow-gateway/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "gateway",
		Short:         "Card payment gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// a missing .env is fine, the environment alone is enough
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("loading .env: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(bankSimulatorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the payment gateway HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gateway.ConfigFromEnv()
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}

			app := gateway.NewApp(logger, cfg)
			if err := app.Start(); err != nil {
				return fmt.Errorf("starting gateway: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			app.Shutdown()
			return nil
		},
	}
}

func bankSimulatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank-simulator",
		Short: "Run a local acquiring bank simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")

			logger, err := newLogger(os.Getenv("LOG_LEVEL"))
			if err != nil {
				return err
			}

			router := chi.NewRouter()
			router.Use(chimw.RequestID)
			router.Use(middleware.NewStructuredLogger(logger))
			banksim.New(logger).AppendRoutes(router)

			l, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listening tcp port: %w", err)
			}

			srv := &http.Server{
				Handler:           router,
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()

			logger.Info("bank simulator started", slog.String("addr", l.Addr().String()))
			if err := srv.Serve(l); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("serving bank simulator: %w", err)
			}
			logger.Info("bank simulator stopped")

			return nil
		},
	}

	cmd.Flags().String("addr", "localhost:8080", "listen address")

	return cmd
}

func newLogger(level string) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(os.Stdout, lvl), nil
}
