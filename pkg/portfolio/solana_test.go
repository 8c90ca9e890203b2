package portfolio

import (
	"context"
	"errors"
	"testing"

	"roaster/pkg/pricing"
	"roaster/pkg/rpc"

	"github.com/gagliardetto/solana-go"
	solrpc "github.com/gagliardetto/solana-go/rpc"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	bonkMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	wifMint  = "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"
)

type fakeRPC struct {
	lamports uint64
	accounts string
	sigs     int
	err      error
}

func (f *fakeRPC) GetBalance(context.Context, solana.PublicKey, solrpc.CommitmentType) (*solrpc.GetBalanceResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &solrpc.GetBalanceResult{Value: f.lamports}, nil
}

func (f *fakeRPC) GetTokenAccountsByOwner(context.Context, solana.PublicKey, *solrpc.GetTokenAccountsConfig, *solrpc.GetTokenAccountsOpts) (*solrpc.GetTokenAccountsResult, error) {
	var res solrpc.GetTokenAccountsResult
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal([]byte(f.accounts), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (f *fakeRPC) GetSignaturesForAddressWithOpts(context.Context, solana.PublicKey, *solrpc.GetSignaturesForAddressOpts) ([]*solrpc.TransactionSignature, error) {
	return make([]*solrpc.TransactionSignature, f.sigs), nil
}

type fakePricer struct {
	quotes map[string]pricing.Quote
	err    error
	asked  []string
}

func (f *fakePricer) Quotes(_ context.Context, mints []string) (map[string]pricing.Quote, error) {
	f.asked = mints
	return f.quotes, f.err
}

func account(mint, amount string, decimals int, ui string) string {
	return `{"pubkey":"4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T","account":{"lamports":1,"owner":"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA","executable":false,"rentEpoch":0,"data":{"program":"spl-token","space":165,"parsed":{"type":"account","info":{"mint":"` +
		mint + `","tokenAmount":{"amount":"` + amount + `","decimals":` + string(rune('0'+decimals)) + `,"uiAmountString":"` + ui + `"}}}}}}`
}

func accountsJSON(accs ...string) string {
	out := `{"context":{"slot":1},"value":[`
	for i, a := range accs {
		if i > 0 {
			out += ","
		}
		out += a
	}
	return out + `]}`
}

func TestSolanaSource_Snapshot(t *testing.T) {
	client := &fakeRPC{
		lamports: 2_000_000_000,
		sigs:     42,
		accounts: accountsJSON(
			account(bonkMint, "100000000", 5, "1000"),
			account(wifMint, "5000000", 6, "5"),
			account("NFTmint1111111111111111111111111111111111111", "1", 0, "1"),
			account("NFTmint2222222222222222222222222222222222222", "1", 0, "1"),
			account("Empty11111111111111111111111111111111111111", "0", 6, "0"),
		),
	}
	pricer := &fakePricer{quotes: map[string]pricing.Quote{
		rpc.WrappedSOLMint: {Symbol: "SOL", PriceUSD: 150},
		bonkMint:           {Symbol: "Bonk", PriceUSD: 0.00002},
		wifMint:            {Symbol: "$WIF", PriceUSD: 2},
	}}

	src := NewSolanaSource(client, pricer, 100, 1000, zap.NewNop())
	snap, err := src.Snapshot(context.Background(), addr)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{rpc.WrappedSOLMint, bonkMint, wifMint}, pricer.asked)
	assert.Equal(t, 2, snap.NFTCount)
	assert.Equal(t, 42, snap.TransactionCount)
	require.Len(t, snap.Tokens, 3)

	assert.Equal(t, "SOL", snap.Tokens[0].Name)
	assert.InDelta(t, 300.0, snap.Tokens[0].Value, 1e-9)
	assert.Equal(t, "$WIF", snap.Tokens[1].Name)
	assert.InDelta(t, 10.0, snap.Tokens[1].Value, 1e-9)
	assert.Equal(t, "Bonk", snap.Tokens[2].Name)
	assert.InDelta(t, 0.02, snap.Tokens[2].Value, 1e-9)
}

func TestSolanaSource_PricingDown(t *testing.T) {
	client := &fakeRPC{lamports: 1_000_000_000, accounts: accountsJSON(account(bonkMint, "100000", 5, "1"))}
	src := NewSolanaSource(client, &fakePricer{err: errors.New("down")}, 100, 10, zap.NewNop())

	snap, err := src.Snapshot(context.Background(), addr)
	require.NoError(t, err)
	require.Len(t, snap.Tokens, 2)
	assert.Equal(t, "DezX...B263", snap.Tokens[1].Name)
	assert.Zero(t, snap.TokenValueSum())
}

func TestSolanaSource_RPCFailure(t *testing.T) {
	client := &fakeRPC{err: errors.New("boom"), accounts: accountsJSON()}
	src := NewSolanaSource(client, nil, 100, 10, zap.NewNop())
	_, err := src.Snapshot(context.Background(), addr)
	assert.ErrorContains(t, err, "boom")
}
