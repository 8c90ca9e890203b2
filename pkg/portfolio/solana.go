package portfolio

import (
	"context"
	"sort"

	"roaster/pkg/address"
	"roaster/pkg/models"
	"roaster/pkg/pricing"
	"roaster/pkg/rpc"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultMaxHoldings caps how many holdings a live snapshot keeps.
const DefaultMaxHoldings = 20

// Pricer resolves USD quotes for mints.
type Pricer interface {
	Quotes(ctx context.Context, mints []string) (map[string]pricing.Quote, error)
}

// SolanaSource reads holdings from a Solana RPC node and prices them.
type SolanaSource struct {
	client         rpc.Client
	pricer         Pricer
	limiter        *rate.Limiter
	signatureLimit int
	maxHoldings    int
	logger         *zap.Logger
}

// NewSolanaSource builds a live source. A nil pricer leaves every value at 0.
func NewSolanaSource(client rpc.Client, pricer Pricer, requestsPerSecond float64, signatureLimit int, logger *zap.Logger) *SolanaSource {
	return &SolanaSource{
		client:         client,
		pricer:         pricer,
		limiter:        rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		signatureLimit: signatureLimit,
		maxHoldings:    DefaultMaxHoldings,
		logger:         logger.Named("SolanaSource"),
	}
}

func (s *SolanaSource) Snapshot(ctx context.Context, addr string) (models.PortfolioSnapshot, error) {
	data, err := rpc.FetchWalletData(ctx, s.client, s.limiter, addr, s.signatureLimit)
	if err != nil {
		return models.PortfolioSnapshot{}, err
	}

	holdings := []models.TokenHolding{{Name: "SOL", Mint: rpc.WrappedSOLMint, Amount: data.SOL()}}
	mints := []string{rpc.WrappedSOLMint}
	byMint := map[string]int{rpc.WrappedSOLMint: 0}
	nfts := 0
	for _, acc := range data.Accounts {
		if acc.IsNFT() {
			nfts++
			continue
		}
		if acc.UIAmount <= 0 {
			continue
		}
		if i, ok := byMint[acc.Mint]; ok {
			holdings[i].Amount += acc.UIAmount
			continue
		}
		byMint[acc.Mint] = len(holdings)
		holdings = append(holdings, models.TokenHolding{
			Name:   address.ShortForm(acc.Mint, 4, 4),
			Mint:   acc.Mint,
			Amount: acc.UIAmount,
		})
		mints = append(mints, acc.Mint)
	}

	if s.pricer != nil {
		quotes, err := s.pricer.Quotes(ctx, mints)
		if err != nil {
			s.logger.Warn("Pricing unavailable, values left at zero", zap.Error(err))
		}
		for i := range holdings {
			q, ok := quotes[holdings[i].Mint]
			if !ok {
				continue
			}
			if q.Symbol != "" && holdings[i].Mint != rpc.WrappedSOLMint {
				holdings[i].Name = q.Symbol
			}
			holdings[i].Value = holdings[i].Amount * q.PriceUSD
		}
	}

	// SOL stays first, the rest by value.
	rest := holdings[1:]
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Value > rest[j].Value })
	if len(holdings) > s.maxHoldings {
		holdings = holdings[:s.maxHoldings]
	}

	return models.PortfolioSnapshot{
		Address:          addr,
		Tokens:           holdings,
		NFTCount:         nfts,
		TransactionCount: data.SignatureCount,
	}, nil
}
