// Package orchestrator wires user actions to the wallet, portfolio, roast and
// donation components and owns the single session state.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"roaster/pkg/address"
	"roaster/pkg/donation"
	"roaster/pkg/i18n"
	"roaster/pkg/metrics"
	"roaster/pkg/models"
	"roaster/pkg/wallet"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrBusy is returned while another connect, analysis or donation runs.
	ErrBusy = wallet.ErrBusy
	// ErrNoWallet is returned by Analyze when the session has no address.
	ErrNoWallet = errors.New("orchestrator: no wallet address")
	// ErrSuperseded is returned when the session changed while an operation
	// was in flight; its result has been dropped.
	ErrSuperseded          = errors.New("orchestrator: session changed during operation")
	ErrUnsupportedLanguage = errors.New("orchestrator: unsupported language")
)

type Connector interface {
	Connect(ctx context.Context) (string, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, address string) (models.PortfolioSnapshot, error)
}

type Generator interface {
	Generate(ctx context.Context, snap models.PortfolioSnapshot, lang string) models.RoastResult
}

type Donator interface {
	Donate(ctx context.Context, session models.WalletSession, amount decimal.Decimal) (models.DonationReceipt, error)
	Amounts() []decimal.Decimal
	Recipient() string
	Currency() string
}

// Modes describes which components run against real services.
type Modes struct {
	Wallet     string `json:"wallet"`
	Portfolio  string `json:"portfolio"`
	Generation string `json:"generation"`
}

// State is everything a surface needs to render.
type State struct {
	Session  models.WalletSession      `json:"session"`
	Snapshot *models.PortfolioSnapshot `json:"snapshot,omitempty"`
	Roast    *models.RoastResult       `json:"roast,omitempty"`
	Donation *models.DonationReceipt   `json:"donation,omitempty"`
	Language string                    `json:"language"`
	Busy     bool                      `json:"busy"`
	// LastError is an i18n key, translated by whichever surface renders it.
	LastError string `json:"last_error,omitempty"`
}

type Deps struct {
	Connector Connector
	Analyzer  Analyzer
	Generator Generator
	Donations Donator
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Language  string
	Modes     Modes
}

type Orchestrator struct {
	connector Connector
	analyzer  Analyzer
	generator Generator
	donations Donator
	metrics   *metrics.Metrics
	logger    *zap.Logger
	modes     Modes

	state       State
	subscribers []Subscriber
	mu          sync.RWMutex
}

func New(d Deps) *Orchestrator {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		connector: d.Connector,
		analyzer:  d.Analyzer,
		generator: d.Generator,
		donations: d.Donations,
		metrics:   d.Metrics,
		logger:    logger.Named("Orchestrator"),
		modes:     d.Modes,
		state:     State{Language: i18n.Normalize(d.Language)},
	}
}

func (o *Orchestrator) Modes() Modes { return o.modes }

// DonationMenu returns the allowed amounts, currency and recipient.
func (o *Orchestrator) DonationMenu() ([]decimal.Decimal, string, string) {
	return o.donations.Amounts(), o.donations.Currency(), o.donations.Recipient()
}

// State returns a copy of the current state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() State {
	s := o.state
	if s.Snapshot != nil {
		snap := *s.Snapshot
		snap.Tokens = append([]models.TokenHolding(nil), s.Snapshot.Tokens...)
		s.Snapshot = &snap
	}
	if s.Roast != nil {
		r := *s.Roast
		s.Roast = &r
	}
	if s.Donation != nil {
		d := *s.Donation
		s.Donation = &d
	}
	return s
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (o *Orchestrator) Subscribe() Subscriber {
	o.mu.Lock()
	defer o.mu.Unlock()
	ch := make(Subscriber, 100)
	o.subscribers = append(o.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber.
func (o *Orchestrator) Unsubscribe(ch Subscriber) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, sub := range o.subscribers {
		if sub == ch {
			o.subscribers = append(o.subscribers[:i], o.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// emitLocked must be called with o.mu held. Slow subscribers miss events.
func (o *Orchestrator) emitLocked(t EventType) {
	ev := Event{Type: t, State: o.snapshotLocked()}
	for _, sub := range o.subscribers {
		select {
		case sub <- ev:
		default:
		}
	}
}

// claimLocked sets the busy flag, or reports that it was already set.
func (o *Orchestrator) claimLocked(op string, started time.Time) error {
	if o.state.Busy {
		o.metrics.Observe(op, metrics.OutcomeBusy, started)
		return ErrBusy
	}
	o.state.Busy = true
	return nil
}

// Connect starts a seed vault connection and waits for it.
func (o *Orchestrator) Connect(ctx context.Context) error {
	const op = "connect"
	started := time.Now()

	o.mu.Lock()
	if o.state.Busy {
		o.mu.Unlock()
		o.metrics.Observe(op, metrics.OutcomeBusy, started)
		return ErrBusy
	}
	next, err := wallet.BeginConnect(o.state.Session)
	if err != nil {
		o.mu.Unlock()
		o.metrics.Observe(op, metrics.OutcomeRejected, started)
		return err
	}
	o.state.Busy = true
	o.state.Session = next
	o.state.Snapshot = nil
	o.state.Roast = nil
	o.state.LastError = ""
	o.emitLocked(EventSessionUpdated)
	o.mu.Unlock()

	addr, connErr := o.connector.Connect(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Busy = false

	if o.state.Session.ID != next.ID {
		o.logger.Info("Dropping stale connection result", zap.String("session", next.ID))
		o.metrics.Observe(op, metrics.OutcomeStale, started)
		o.emitLocked(EventSessionUpdated)
		return ErrSuperseded
	}

	if connErr != nil {
		o.state.Session, _ = wallet.FailConnect(o.state.Session)
		o.state.LastError = i18n.ConnectFailed
		o.logger.Warn("Connection failed", zap.Error(connErr))
		o.metrics.Observe(op, metrics.OutcomeError, started)
		o.emitLocked(EventSessionUpdated)
		return connErr
	}

	o.state.Session, _ = wallet.CompleteConnect(o.state.Session, addr)
	o.logger.Info("Wallet connected", zap.String("address", addr))
	o.metrics.Observe(op, metrics.OutcomeOK, started)
	o.emitLocked(EventSessionUpdated)
	return nil
}

// Disconnect drops the session and its results. It is allowed at any time;
// anything in flight finishes but its result is discarded.
func (o *Orchestrator) Disconnect() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Session = wallet.Disconnect(o.state.Session)
	o.state.Snapshot = nil
	o.state.Roast = nil
	o.state.Donation = nil
	o.state.LastError = ""
	o.metrics.Observe("disconnect", metrics.OutcomeOK, time.Now())
	o.emitLocked(EventSessionUpdated)
}

// AnalyzeAddress validates raw and roasts it as a manual session. Validation
// errors are returned as *address.ValidationError and leave state untouched.
func (o *Orchestrator) AnalyzeAddress(ctx context.Context, raw string) error {
	const op = "analyze_address"
	started := time.Now()

	addr, err := address.Validate(raw)
	if err != nil {
		o.metrics.Observe(op, metrics.OutcomeRejected, started)
		return err
	}

	o.mu.Lock()
	if err := o.claimLocked(op, started); err != nil {
		o.mu.Unlock()
		return err
	}
	next, err := wallet.BeginManual(o.state.Session, addr)
	if err != nil {
		o.state.Busy = false
		o.mu.Unlock()
		o.metrics.Observe(op, metrics.OutcomeRejected, started)
		return err
	}
	o.state.Session = next
	return o.analyzeClaimed(ctx, op, started, next.ID, addr)
}

// Analyze roasts the address of the current session.
func (o *Orchestrator) Analyze(ctx context.Context) error {
	const op = "analyze"
	started := time.Now()

	o.mu.Lock()
	if err := o.claimLocked(op, started); err != nil {
		o.mu.Unlock()
		return err
	}
	s := o.state.Session
	if s.Address == "" {
		o.state.Busy = false
		o.state.LastError = i18n.NoWallet
		o.emitLocked(EventAnalysisFailed)
		o.mu.Unlock()
		o.metrics.Observe(op, metrics.OutcomeRejected, started)
		return ErrNoWallet
	}
	return o.analyzeClaimed(ctx, op, started, s.ID, s.Address)
}

// analyzeClaimed is entered with o.mu held and the busy flag set. It
// releases the lock while the components run.
func (o *Orchestrator) analyzeClaimed(ctx context.Context, op string, started time.Time, sessionID, addr string) error {
	lang := o.state.Language
	o.state.Snapshot = nil
	o.state.Roast = nil
	o.state.LastError = ""
	o.emitLocked(EventAnalysisStarted)
	o.mu.Unlock()

	snap, err := o.analyzer.Analyze(ctx, addr)
	var result models.RoastResult
	if err == nil {
		result = o.generator.Generate(ctx, snap, lang)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Busy = false

	if o.state.Session.ID != sessionID {
		o.logger.Info("Dropping stale analysis", zap.String("address", addr))
		o.metrics.Observe(op, metrics.OutcomeStale, started)
		o.emitLocked(EventAnalysisFailed)
		return ErrSuperseded
	}

	if err != nil {
		o.state.LastError = i18n.Error
		o.metrics.Observe(op, metrics.OutcomeError, started)
		o.emitLocked(EventAnalysisFailed)
		return err
	}

	o.state.Snapshot = &snap
	o.state.Roast = &result
	if o.metrics != nil {
		o.metrics.Roasts.WithLabelValues(string(result.Source), result.Language, fmt.Sprint(result.Failed)).Inc()
	}
	o.metrics.Observe(op, metrics.OutcomeOK, started)
	o.logger.Info("Roast ready",
		zap.String("address", addr),
		zap.String("source", string(result.Source)),
		zap.Bool("failed", result.Failed))
	o.emitLocked(EventAnalysisCompleted)
	return nil
}

// Donate sends amount from the connected seed vault. If the session changes
// while the transfer runs, the receipt is returned with ErrSuperseded and not
// kept in the state.
func (o *Orchestrator) Donate(ctx context.Context, amount decimal.Decimal) (models.DonationReceipt, error) {
	const op = "donate"
	started := time.Now()

	o.mu.Lock()
	if err := o.claimLocked(op, started); err != nil {
		o.mu.Unlock()
		return models.DonationReceipt{}, err
	}
	session := o.state.Session
	o.state.Donation = nil
	o.mu.Unlock()

	receipt, err := o.donations.Donate(ctx, session, amount)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Busy = false

	if o.state.Session.ID != session.ID {
		o.logger.Info("Dropping donation receipt for a closed session",
			zap.String("session", session.ID), zap.Error(err))
		o.metrics.Observe(op, metrics.OutcomeStale, started)
		o.emitLocked(EventDonationFailed)
		if err != nil {
			return models.DonationReceipt{}, err
		}
		return receipt, ErrSuperseded
	}

	if err != nil {
		o.state.LastError = i18n.Error
		if errors.Is(err, donation.ErrNotConnected) {
			o.state.LastError = i18n.NoWallet
		}
		o.metrics.Observe(op, metrics.OutcomeError, started)
		o.emitLocked(EventDonationFailed)
		return models.DonationReceipt{}, err
	}
	o.state.Donation = &receipt
	o.state.LastError = ""
	if o.metrics != nil {
		o.metrics.Donations.WithLabelValues(receipt.Request.Currency, fmt.Sprint(receipt.Simulated)).Inc()
	}
	o.metrics.Observe(op, metrics.OutcomeOK, started)
	o.emitLocked(EventDonationCompleted)
	return receipt, nil
}

// SetLanguage switches the UI language. The current roast keeps the
// language it was generated in.
func (o *Orchestrator) SetLanguage(lang string) error {
	if !i18n.IsSupported(lang) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Language = lang
	o.emitLocked(EventLanguageUpdated)
	return nil
}

// ToggleLanguage moves to the next supported language and returns it.
func (o *Orchestrator) ToggleLanguage() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Language = i18n.Next(o.state.Language)
	o.emitLocked(EventLanguageUpdated)
	return o.state.Language
}
