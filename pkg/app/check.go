package app

import (
	"context"
	"time"

	"roaster/pkg/config"
	"roaster/pkg/models"
	"roaster/pkg/rpc"

	"go.uber.org/zap"
)

// Check validates cfg, probes every configured endpoint and, unless dryRun,
// rewrites the file at path when normalisation changed anything.
func Check(ctx context.Context, cfg config.Config, path string, dryRun bool, logger *zap.Logger) models.CheckReport {
	report := models.CheckReport{
		ConfigPath: path,
		DryRun:     dryRun,
	}
	report.StructureErrors = config.Validate(cfg)
	report.ValidStructure = len(report.StructureErrors) == 0

	modes := Modes(cfg)
	report.GenerationMode = modes.Generation
	report.PortfolioMode = modes.Portfolio
	report.WalletMode = modes.Wallet

	if !report.ValidStructure {
		return report
	}

	report.Endpoints = append(report.Endpoints,
		probe("solana_rpc", cfg.DataSource.RPCURL, cfg.DataSource.Enabled(), func() (time.Duration, error) {
			return rpc.ProbeSolana(ctx, cfg.DataSource.RPCURL)
		}),
		probe("price_api", cfg.DataSource.PriceURL, cfg.DataSource.Enabled(), func() (time.Duration, error) {
			return rpc.ProbeHTTP(cfg.DataSource.PriceURL)
		}),
		probe("generation_api", cfg.Generation.BaseURL, cfg.Generation.Enabled(), func() (time.Duration, error) {
			return rpc.ProbeHTTP(cfg.Generation.BaseURL)
		}),
		probe("wallet_bridge", cfg.Wallet.BridgeURL, cfg.Wallet.BridgeURL != "", func() (time.Duration, error) {
			return rpc.ProbeHTTP(cfg.Wallet.BridgeURL)
		}),
	)

	needs, err := config.NeedsRewrite(path, cfg)
	if err != nil {
		logger.Warn("Could not compare config on disk", zap.Error(err))
		return report
	}
	report.ConfigUpdated = needs
	if needs && !dryRun {
		if err := config.SaveConfig(cfg, path); err != nil {
			report.SaveError = err.Error()
		}
	}
	return report
}

func probe(name, url string, enabled bool, fn func() (time.Duration, error)) models.EndpointResult {
	res := models.EndpointResult{Name: name, URL: url}
	if !enabled {
		res.Status = "skipped"
		return res
	}
	latency, err := fn()
	if err != nil {
		res.Status = "error"
		res.Error = err.Error()
		return res
	}
	res.Status = "ok"
	res.Latency = latency.Round(time.Millisecond).String()
	return res
}
