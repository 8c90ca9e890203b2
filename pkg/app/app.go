// Package app assembles the components described by a Config.
package app

import (
	"time"

	"roaster/pkg/config"
	"roaster/pkg/donation"
	"roaster/pkg/llm"
	"roaster/pkg/metrics"
	"roaster/pkg/orchestrator"
	"roaster/pkg/portfolio"
	"roaster/pkg/pricing"
	"roaster/pkg/roast"
	"roaster/pkg/rpc"
	"roaster/pkg/wallet"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Mode names reported by Modes.
const (
	ModeBridge    = "bridge"
	ModeSimulated = "simulated"
	ModeLive      = "live"
	ModeDemo      = "demo"
	ModeRemote    = "remote"
	ModeMock      = "mock"
)

// Modes reports which components cfg will run against real services.
func Modes(cfg config.Config) orchestrator.Modes {
	m := orchestrator.Modes{Wallet: ModeSimulated, Portfolio: ModeDemo, Generation: ModeMock}
	if cfg.Wallet.BridgeURL != "" {
		m.Wallet = ModeBridge
	}
	if cfg.DataSource.Enabled() {
		m.Portfolio = ModeLive
	}
	if cfg.Generation.Enabled() {
		m.Generation = ModeRemote
	}
	return m
}

// Build wires an orchestrator from cfg. Collectors are registered with reg
// unless it is nil.
func Build(cfg config.Config, logger *zap.Logger, reg prometheus.Registerer) *orchestrator.Orchestrator {
	var bridge wallet.Bridge
	if cfg.Wallet.BridgeURL != "" {
		bridge = wallet.NewHTTPBridge(cfg.Wallet.BridgeURL, cfg.Wallet.Timeout(), logger)
	}

	var source portfolio.DataSource
	if cfg.DataSource.Enabled() {
		ds := cfg.DataSource
		prices := pricing.NewService(
			pricing.NewDEXScreenerClient(ds.PriceURL, ds.Timeout(), logger),
			time.Duration(ds.PriceCacheMinutes)*time.Minute,
			logger,
		)
		source = portfolio.NewSolanaSource(rpc.Dial(ds.RPCURL), prices, ds.RequestsPerSecond, ds.SignatureLimit, logger)
	}

	var completer llm.Completer
	if cfg.Generation.Enabled() {
		g := cfg.Generation
		completer = llm.NewClient(g.BaseURL, g.APIKey, g.Model, g.MaxTokens, g.Timeout(), logger)
	}

	modes := Modes(cfg)
	logger.Info("Components assembled",
		zap.String("wallet", modes.Wallet),
		zap.String("portfolio", modes.Portfolio),
		zap.String("generation", modes.Generation))

	return orchestrator.New(orchestrator.Deps{
		Connector: wallet.NewConnector(bridge, logger, wallet.WithDelay(cfg.Wallet.ConnectDelay())),
		Analyzer:  portfolio.NewAnalyzer(source, nil, logger),
		Generator: roast.NewGenerator(completer, nil, logger),
		Donations: donation.NewProcessor(bridge, cfg.Donation.Recipient, cfg.Donation.Currency, cfg.Donation.Amounts, logger),
		Metrics:   metrics.New(reg),
		Logger:    logger,
		Language:  cfg.Language,
		Modes:     modes,
	})
}
