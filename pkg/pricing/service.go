package pricing

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var stablecoinSymbols = map[string]struct{}{
	"USDC":  {},
	"USDT":  {},
	"PYUSD": {},
}

// Service resolves mint prices through a Client and caches them.
type Service struct {
	client Client
	cache  *cache.Cache
	logger *zap.Logger
}

func NewService(client Client, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger.Named("PriceService"),
	}
}

// Quotes returns the known quotes for mints. Mints without a usable pair are
// absent from the result. An error is returned only when every lookup failed.
func (s *Service) Quotes(ctx context.Context, mints []string) (map[string]Quote, error) {
	out := make(map[string]Quote, len(mints))
	var missing []string
	seen := make(map[string]bool, len(mints))
	for _, m := range mints {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		if q, ok := s.cache.Get(m); ok {
			out[m] = q.(Quote)
			continue
		}
		missing = append(missing, m)
	}
	if len(missing) == 0 {
		return out, nil
	}

	batches := batch(missing, MaxTokensPerRequest)
	var (
		mu     sync.Mutex
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, b := range batches {
		b := b
		g.Go(func() error {
			pairs, err := s.client.GetTokenPairs(gctx, b)
			if err != nil {
				s.logger.Warn("Price batch failed", zap.Strings("mints", b), zap.Error(err))
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			for _, mint := range b {
				q, ok := SelectQuote(pairs, mint)
				if !ok {
					s.logger.Debug("No usable pair for mint", zap.String("mint", mint))
					continue
				}
				s.cache.Set(mint, q, cache.DefaultExpiration)
				mu.Lock()
				out[mint] = q
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if failed == len(batches) {
		return out, errors.New("all price lookups failed")
	}
	return out, nil
}

// SelectQuote picks the price of mint from pairs. Pairs quoted in a
// stablecoin win; ties go to the deepest liquidity.
func SelectQuote(pairs []PairData, mint string) (Quote, bool) {
	var bestStable, bestOverall *PairData
	for i := range pairs {
		p := &pairs[i]
		if p.BaseToken.Address != mint {
			continue
		}
		price, err := strconv.ParseFloat(p.PriceUsd, 64)
		if err != nil || price <= 0 {
			continue
		}
		if _, ok := stablecoinSymbols[strings.ToUpper(p.QuoteToken.Symbol)]; ok {
			if bestStable == nil || liquidity(p) > liquidity(bestStable) {
				bestStable = p
			}
		}
		if bestOverall == nil || liquidity(p) > liquidity(bestOverall) {
			bestOverall = p
		}
	}

	chosen := bestStable
	if chosen == nil {
		chosen = bestOverall
	}
	if chosen == nil {
		return Quote{}, false
	}
	price, _ := strconv.ParseFloat(chosen.PriceUsd, 64)
	return Quote{
		Mint:     mint,
		Symbol:   chosen.BaseToken.Symbol,
		Name:     chosen.BaseToken.Name,
		PriceUSD: price,
	}, true
}

func liquidity(p *PairData) float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.Usd
}

func batch(items []string, size int) [][]string {
	var out [][]string
	for size < len(items) {
		items, out = items[size:], append(out, items[:size])
	}
	return append(out, items)
}
