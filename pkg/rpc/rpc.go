// Package rpc wraps the Solana JSON-RPC calls and endpoint probes.
package rpc

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	solrpc "github.com/gagliardetto/solana-go/rpc"
	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ProbeTimeout bounds each endpoint probe.
var ProbeTimeout = 5 * time.Second

// WrappedSOLMint is the mint used to price native SOL.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// Client is the subset of the solana-go RPC client used here.
type Client interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment solrpc.CommitmentType) (*solrpc.GetBalanceResult, error)
	GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey, conf *solrpc.GetTokenAccountsConfig, opts *solrpc.GetTokenAccountsOpts) (*solrpc.GetTokenAccountsResult, error)
	GetSignaturesForAddressWithOpts(ctx context.Context, account solana.PublicKey, opts *solrpc.GetSignaturesForAddressOpts) ([]*solrpc.TransactionSignature, error)
}

// Dial returns a JSON-RPC client for url.
func Dial(url string) Client {
	return solrpc.New(url)
}

// TokenAccount is one parsed SPL token account.
type TokenAccount struct {
	Mint     string
	Amount   string
	Decimals uint8
	UIAmount float64
}

// IsNFT reports whether the account looks like a single non-fungible token.
func (t TokenAccount) IsNFT() bool {
	return t.Decimals == 0 && t.Amount == "1"
}

// WalletData is the raw on-chain view of an address.
type WalletData struct {
	Lamports       uint64
	Accounts       []TokenAccount
	SignatureCount int
}

// SOL returns the native balance in whole SOL.
func (w WalletData) SOL() float64 {
	return float64(w.Lamports) / float64(solana.LAMPORTS_PER_SOL)
}

type parsedAccount struct {
	Parsed struct {
		Info struct {
			Mint        string `json:"mint"`
			TokenAmount struct {
				Amount         string   `json:"amount"`
				Decimals       uint8    `json:"decimals"`
				UIAmount       *float64 `json:"uiAmount"`
				UIAmountString string   `json:"uiAmountString"`
			} `json:"tokenAmount"`
		} `json:"info"`
		Type string `json:"type"`
	} `json:"parsed"`
}

// ParseTokenAccount decodes a jsonParsed SPL token account.
func ParseTokenAccount(raw []byte) (TokenAccount, error) {
	var p parsedAccount
	if err := json.Unmarshal(raw, &p); err != nil {
		return TokenAccount{}, fmt.Errorf("failed to decode token account: %w", err)
	}
	info := p.Parsed.Info
	if info.Mint == "" {
		return TokenAccount{}, fmt.Errorf("token account has no mint")
	}
	acc := TokenAccount{
		Mint:     info.Mint,
		Amount:   info.TokenAmount.Amount,
		Decimals: info.TokenAmount.Decimals,
	}
	switch {
	case info.TokenAmount.UIAmount != nil:
		acc.UIAmount = *info.TokenAmount.UIAmount
	case info.TokenAmount.UIAmountString != "":
		v, err := strconv.ParseFloat(info.TokenAmount.UIAmountString, 64)
		if err != nil {
			return TokenAccount{}, fmt.Errorf("bad uiAmountString %q: %w", info.TokenAmount.UIAmountString, err)
		}
		acc.UIAmount = v
	}
	return acc, nil
}

// FetchWalletData queries balance, token accounts and recent signatures for
// address concurrently. Every call waits on limiter first.
func FetchWalletData(ctx context.Context, client Client, limiter *rate.Limiter, address string, signatureLimit int) (WalletData, error) {
	owner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return WalletData{}, fmt.Errorf("invalid address %q: %w", address, err)
	}

	var data WalletData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := limiter.Wait(gctx); err != nil {
			return err
		}
		res, err := client.GetBalance(gctx, owner, solrpc.CommitmentConfirmed)
		if err != nil {
			return fmt.Errorf("getBalance: %w", err)
		}
		data.Lamports = res.Value
		return nil
	})

	g.Go(func() error {
		if err := limiter.Wait(gctx); err != nil {
			return err
		}
		res, err := client.GetTokenAccountsByOwner(gctx, owner,
			&solrpc.GetTokenAccountsConfig{ProgramId: solana.TokenProgramID.ToPointer()},
			&solrpc.GetTokenAccountsOpts{Commitment: solrpc.CommitmentConfirmed, Encoding: solana.EncodingJSONParsed},
		)
		if err != nil {
			return fmt.Errorf("getTokenAccountsByOwner: %w", err)
		}
		accounts := make([]TokenAccount, 0, len(res.Value))
		for _, ta := range res.Value {
			if ta == nil || ta.Account.Data == nil {
				continue
			}
			acc, err := ParseTokenAccount(ta.Account.Data.GetRawJSON())
			if err != nil {
				return fmt.Errorf("token account %s: %w", ta.Pubkey, err)
			}
			accounts = append(accounts, acc)
		}
		data.Accounts = accounts
		return nil
	})

	g.Go(func() error {
		if err := limiter.Wait(gctx); err != nil {
			return err
		}
		limit := signatureLimit
		sigs, err := client.GetSignaturesForAddressWithOpts(gctx, owner, &solrpc.GetSignaturesForAddressOpts{
			Limit:      &limit,
			Commitment: solrpc.CommitmentConfirmed,
		})
		if err != nil {
			return fmt.Errorf("getSignaturesForAddress: %w", err)
		}
		data.SignatureCount = len(sigs)
		return nil
	})

	if err := g.Wait(); err != nil {
		return WalletData{}, err
	}
	return data, nil
}

// ProbeSolana measures the round trip of a getHealth call.
func ProbeSolana(ctx context.Context, url string) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	start := time.Now()
	client := solrpc.New(url)
	defer func() { _ = client.Close() }()
	health, err := client.GetHealth(ctx)
	if err != nil {
		return 0, err
	}
	if health != solrpc.HealthOk {
		return 0, fmt.Errorf("node reports %q", health)
	}
	return time.Since(start), nil
}

// ProbeHTTP measures a GET against url. Any response below 500 counts as
// reachable, since most of the probed services reject bare GETs.
func ProbeHTTP(url string) (time.Duration, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	start := time.Now()
	if err := fasthttp.DoTimeout(req, resp, ProbeTimeout); err != nil {
		return 0, err
	}
	if resp.StatusCode() >= fasthttp.StatusInternalServerError {
		return 0, fmt.Errorf("status %d", resp.StatusCode())
	}
	return time.Since(start), nil
}
