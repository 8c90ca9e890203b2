// Package donation sends tips to the operator through the wallet bridge.
package donation

import (
	"context"
	"errors"
	"fmt"

	"roaster/pkg/models"
	"roaster/pkg/wallet"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrNotConnected is returned unless the session is a connected seed vault.
	ErrNotConnected     = errors.New("donation: wallet not connected")
	ErrAmountNotAllowed = errors.New("donation: amount not on the menu")
)

// DonationError wraps a bridge transfer failure.
type DonationError struct {
	Request models.DonationRequest
	Err     error
}

func (e *DonationError) Error() string {
	return fmt.Sprintf("donation of %s %s to %s failed: %v", e.Request.Amount, e.Request.Currency, e.Request.Recipient, e.Err)
}

func (e *DonationError) Unwrap() error { return e.Err }

type Processor struct {
	bridge    wallet.Bridge
	recipient string
	currency  string
	amounts   []decimal.Decimal
	logger    *zap.Logger
}

// NewProcessor builds a Processor. A nil bridge makes every donation
// simulated. Amounts that are not positive are left off the menu.
func NewProcessor(bridge wallet.Bridge, recipient, currency string, amounts []decimal.Decimal, logger *zap.Logger) *Processor {
	logger = logger.Named("DonationProcessor")
	menu := make([]decimal.Decimal, 0, len(amounts))
	for _, a := range amounts {
		if !a.IsPositive() {
			logger.Warn("Ignoring non-positive donation amount", zap.String("amount", a.String()))
			continue
		}
		menu = append(menu, a)
	}
	return &Processor{
		bridge:    bridge,
		recipient: recipient,
		currency:  currency,
		amounts:   menu,
		logger:    logger,
	}
}

// Amounts returns the donation menu.
func (p *Processor) Amounts() []decimal.Decimal {
	out := make([]decimal.Decimal, len(p.amounts))
	copy(out, p.amounts)
	return out
}

func (p *Processor) Recipient() string { return p.recipient }
func (p *Processor) Currency() string  { return p.currency }
func (p *Processor) Simulated() bool   { return p.bridge == nil }

// Allowed reports whether amount is a positive amount on the menu.
func (p *Processor) Allowed(amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}
	for _, a := range p.amounts {
		if a.Equal(amount) {
			return true
		}
	}
	return false
}

// Donate sends amount from session to the operator. The session check comes
// first, so a manual session is rejected even when no bridge is configured.
func (p *Processor) Donate(ctx context.Context, session models.WalletSession, amount decimal.Decimal) (models.DonationReceipt, error) {
	if !session.CanDonate() {
		return models.DonationReceipt{}, ErrNotConnected
	}
	if !p.Allowed(amount) {
		return models.DonationReceipt{}, fmt.Errorf("%w: %s", ErrAmountNotAllowed, amount)
	}

	req := models.DonationRequest{
		ID:        uuid.NewString(),
		Amount:    amount,
		Currency:  p.currency,
		Recipient: p.recipient,
	}

	if p.bridge == nil {
		p.logger.Info("Simulated donation",
			zap.String("id", req.ID),
			zap.String("amount", amount.String()),
			zap.String("recipient", p.recipient))
		return models.DonationReceipt{Request: req, Simulated: true}, nil
	}

	ack, err := p.bridge.Transfer(ctx, wallet.TransferRequest{
		To:       p.recipient,
		Amount:   amount,
		Currency: p.currency,
	})
	if err != nil {
		p.logger.Warn("Donation transfer failed", zap.String("id", req.ID), zap.Error(err))
		return models.DonationReceipt{}, &DonationError{Request: req, Err: err}
	}
	p.logger.Info("Donation sent", zap.String("id", req.ID), zap.String("ack", ack))
	return models.DonationReceipt{Request: req, Ack: ack}, nil
}
