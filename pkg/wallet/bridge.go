package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TransferRequest is a value transfer to send through a Bridge.
type TransferRequest struct {
	To       string
	Amount   decimal.Decimal
	Currency string
}

// Bridge is a device-resident wallet capable of handing out its public key
// and signing transfers.
type Bridge interface {
	Connect(ctx context.Context) (string, error)
	Transfer(ctx context.Context, req TransferRequest) (string, error)
}

// HTTPBridge talks to a local wallet daemon over HTTP.
type HTTPBridge struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

func NewHTTPBridge(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPBridge {
	return &HTTPBridge{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("WalletBridge"),
	}
}

type connectResponse struct {
	Address string `json:"address"`
}

type transferPayload struct {
	To       string `json:"to"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type transferResponse struct {
	Signature string `json:"signature"`
}

// Connect asks the daemon for the wallet's public key.
func (b *HTTPBridge) Connect(ctx context.Context) (string, error) {
	var resp connectResponse
	if err := b.post(ctx, "/connect", nil, &resp); err != nil {
		return "", err
	}
	if resp.Address == "" {
		return "", errors.New("bridge returned an empty address")
	}
	return resp.Address, nil
}

// Transfer asks the daemon to sign and send req, returning its acknowledgement.
func (b *HTTPBridge) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	payload := transferPayload{
		To:       req.To,
		Amount:   req.Amount.String(),
		Currency: req.Currency,
	}
	var resp transferResponse
	if err := b.post(ctx, "/transfer", payload, &resp); err != nil {
		return "", err
	}
	if resp.Signature == "" {
		return "", errors.New("bridge returned an empty signature")
	}
	return resp.Signature, nil
}

func (b *HTTPBridge) post(ctx context.Context, path string, payload, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	requestURL := b.baseURL + path

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		req.SetBody(body)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline := time.Now().Add(b.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := b.client.DoDeadline(req, resp, deadline); err != nil {
		b.logger.Error("Bridge request failed", zap.String("url", requestURL), zap.Error(err))
		return fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		b.logger.Error("Bridge returned non-OK status",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", resp.Body()))
		return fmt.Errorf("bridge request to %s failed with status %d", requestURL, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode bridge response: %w", err)
	}
	return nil
}
