package app

import (
	"log/slog"
	"os"

	"signal_relay/internal/infra"
	"signal_relay/internal/infra/enrichment"
	"signal_relay/internal/infra/telegram"
	"signal_relay/internal/service"
)

// DefaultConfigPath is used when RELAY_CONFIG is not set
const DefaultConfigPath = "configs/config.yaml"

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Metrics *infra.Metrics
	Relay   *service.RelayService
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// ConfigPath resolves the config file location from the environment.
func ConfigPath() string {
	if p := os.Getenv("RELAY_CONFIG"); p != "" {
		return p
	}
	return DefaultConfigPath
}

// Initialize loads config, installs the logger and wires the relay.
func (b *Bootstrap) Initialize(configPath string) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("Bootstrapping relay",
		slog.String("version", cfg.App.Version),
		slog.Duration("enrichment_timeout", cfg.EnrichmentTimeout()),
	)

	// 3. Metrics
	if cfg.Metrics.Enabled {
		b.Metrics = infra.NewMetrics()
	}

	// 4. Relay
	enricher := enrichment.NewClient(cfg.EnrichmentTimeout())
	messenger := telegram.NewClient(cfg.Relay.TelegramBaseURL, cfg.MessagingTimeout())
	b.Relay = service.NewRelayService(enricher, messenger, b.Metrics, infra.NewTracer())

	slog.Info("Relay ready")
	return nil
}
