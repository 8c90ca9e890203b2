// Package portfolio turns an address into a PortfolioSnapshot.
package portfolio

import (
	"context"
	"fmt"

	addresses "roaster/pkg/address"
	"roaster/pkg/models"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// DataSource looks up the real holdings of an address.
type DataSource interface {
	Snapshot(ctx context.Context, address string) (models.PortfolioSnapshot, error)
}

// AnalysisError wraps a data source failure.
type AnalysisError struct {
	Address string
	Err     error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis of %s failed: %v", e.Address, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Analyzer produces snapshots from a DataSource, or the demo snapshot when
// none is configured.
type Analyzer struct {
	source DataSource
	clock  clock.Clock
	logger *zap.Logger
}

// NewAnalyzer builds an Analyzer. A nil source selects demo mode.
func NewAnalyzer(source DataSource, clk clock.Clock, logger *zap.Logger) *Analyzer {
	if clk == nil {
		clk = clock.New()
	}
	return &Analyzer{
		source: source,
		clock:  clk,
		logger: logger.Named("Analyzer"),
	}
}

// Live reports whether a real data source is configured.
func (a *Analyzer) Live() bool {
	return a.source != nil
}

// Analyze returns a fresh snapshot for address. In live mode the total is
// recomputed from the holdings and negative figures are clamped to zero.
// Addresses that are not Solana keys, such as the simulated connector's demo
// address, get the demo snapshot even in live mode.
func (a *Analyzer) Analyze(ctx context.Context, address string) (models.PortfolioSnapshot, error) {
	if a.source == nil {
		return a.demo(address), nil
	}
	if _, err := addresses.Validate(address); err != nil {
		a.logger.Info("Not a Solana address, using demo snapshot", zap.String("address", address))
		return a.demo(address), nil
	}

	start := a.clock.Now()
	snap, err := a.source.Snapshot(ctx, address)
	if err != nil {
		a.logger.Warn("Data source failed", zap.String("address", address), zap.Error(err))
		return models.PortfolioSnapshot{}, &AnalysisError{Address: address, Err: err}
	}

	tokens := make([]models.TokenHolding, len(snap.Tokens))
	for i, t := range snap.Tokens {
		if t.Amount < 0 {
			t.Amount = 0
		}
		if t.Value < 0 {
			t.Value = 0
		}
		tokens[i] = t
	}
	snap.Tokens = tokens
	if snap.NFTCount < 0 {
		snap.NFTCount = 0
	}
	if snap.TransactionCount < 0 {
		snap.TransactionCount = 0
	}
	snap.Address = address
	snap.TotalValue = snap.TokenValueSum()
	snap.CapturedAt = a.clock.Now()
	snap.Demo = false

	a.logger.Info("Snapshot captured",
		zap.String("address", address),
		zap.Int("tokens", len(snap.Tokens)),
		zap.Float64("totalValue", snap.TotalValue),
		zap.Duration("took", a.clock.Since(start)))
	return snap, nil
}

func (a *Analyzer) demo(address string) models.PortfolioSnapshot {
	snap := DemoSnapshot(address)
	snap.CapturedAt = a.clock.Now()
	return snap
}

// DemoSnapshot is the fixed placeholder portfolio. Its total deliberately
// differs from the sum of its holdings.
func DemoSnapshot(address string) models.PortfolioSnapshot {
	return models.PortfolioSnapshot{
		Address: address,
		Tokens: []models.TokenHolding{
			{Name: "SOL", Amount: 0.42, Value: 63.21},
			{Name: "BONK", Amount: 1337420, Value: 28.50},
			{Name: "WIF", Amount: 69, Value: 151.80},
			{Name: "PEPE", Amount: 4200000, Value: 12.34},
		},
		NFTCount:         3,
		TotalValue:       420.69,
		TransactionCount: 1337,
		Demo:             true,
	}
}
