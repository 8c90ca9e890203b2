package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	ChainSolana = "solana"

	// MaxTokensPerRequest is the DEX Screener limit on addresses per call.
	MaxTokensPerRequest = 30
)

// Client fetches trading pairs for a set of token mints.
type Client interface {
	GetTokenPairs(ctx context.Context, mints []string) ([]PairData, error)
}

type dexScreenerClient struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

func NewDEXScreenerClient(baseURL string, timeout time.Duration, logger *zap.Logger) Client {
	return &dexScreenerClient{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("DEXScreenerClient"),
	}
}

func (c *dexScreenerClient) GetTokenPairs(ctx context.Context, mints []string) ([]PairData, error) {
	if len(mints) == 0 {
		return nil, fmt.Errorf("mints cannot be empty")
	}
	if len(mints) > MaxTokensPerRequest {
		return nil, fmt.Errorf("number of mints (%d) exceeds max tokens per request (%d)", len(mints), MaxTokensPerRequest)
	}

	requestURL := fmt.Sprintf("%s/tokens/v1/%s/%s", c.baseURL, ChainSolana, strings.Join(mints, ","))
	c.logger.Debug("Requesting token pairs", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentType("application/json")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		c.logger.Error("Failed to execute request", zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("DEX Screener request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("DEX Screener request to %s failed with status %d", requestURL, resp.StatusCode())
	}

	var pairs []PairData
	if err := json.Unmarshal(rawBody, &pairs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DEX Screener response: %w", err)
	}
	c.logger.Debug("Received token pairs", zap.Int("pairCount", len(pairs)))
	return pairs, nil
}
