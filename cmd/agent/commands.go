package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kjannette/trahn-agent/internal/agent"
	"github.com/kjannette/trahn-agent/internal/api"
	"github.com/kjannette/trahn-agent/internal/config"
	"github.com/kjannette/trahn-agent/internal/notifications"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const banner = `
╔══════════════════════════════════════╗
║        TRAHN Trade Agent v0.3        ║
║                                      ║
╚══════════════════════════════════════╝
`

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trahn-agent",
		Short:         "Trade-evaluation agent with confidence, budget and negotiation gates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newDemoCmd())
	return root
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the agent behind the REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				cfg.APIPort = port
			}
			return runServe(cfg)
		},
	}
	cmd.Flags().Int("port", 0, "API port (overrides API_PORT)")
	return cmd
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Evaluate the built-in AVAX/USD scenarios and print agent stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runDemo(cmd.OutOrStdout(), cfg)
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}

// buildAgent wires an agent from configuration. reg may be nil.
func buildAgent(cfg *config.Config, logger zerolog.Logger, reg prometheus.Registerer) (*agent.Agent, error) {
	opts := []agent.Option{
		agent.WithLogger(logger),
		agent.WithNotifier(notifications.NewSender(cfg.WebhookURL, cfg.BotName, logger)),
	}
	if reg != nil {
		opts = append(opts, agent.WithMetrics(agent.NewMetrics(reg)))
	}

	a, err := agent.New(agent.Config{
		ID:          cfg.AgentID,
		Personality: cfg.PersonalityValue(),
		Thresholds:  cfg.Thresholds(),
		Limits:      cfg.Limits(),
		ApprovalTTL: cfg.ApprovalTTL,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("agent init: %w", err)
	}

	if cfg.WalletAddress != "" {
		if err := a.ConnectWallet(cfg.WalletAddress); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func runServe(cfg *config.Config) error {
	fmt.Print(banner)
	cfg.Print()

	logger := newLogger(cfg.LogLevel)
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := buildAgent(cfg, logger, reg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(a, api.Options{
		Port:       cfg.APIPort,
		APIKey:     cfg.APIKey,
		CORSOrigin: cfg.CORSAllowOrigin,
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Logger:     logger,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	}

	logger.Info().Msg("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	logger.Info().Msg("shutdown complete")
	return nil
}
