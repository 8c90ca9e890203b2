package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus is the connection state of a wallet session.
type SessionStatus int

const (
	StatusDisconnected SessionStatus = iota
	StatusConnecting
	StatusConnected
	StatusFailed
)

func (s SessionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

func (s SessionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SessionStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "disconnected":
		*s = StatusDisconnected
	case "connecting":
		*s = StatusConnecting
	case "connected":
		*s = StatusConnected
	case "failed":
		*s = StatusFailed
	default:
		return fmt.Errorf("unknown session status %q", text)
	}
	return nil
}

// Origin records how a session's address was obtained.
type Origin int

const (
	OriginNone Origin = iota
	OriginSeedVault
	OriginManual
)

func (o Origin) String() string {
	switch o {
	case OriginSeedVault:
		return "seed_vault"
	case OriginManual:
		return "manual"
	default:
		return "none"
	}
}

func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Origin) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none":
		*o = OriginNone
	case "seed_vault":
		*o = OriginSeedVault
	case "manual":
		*o = OriginManual
	default:
		return fmt.Errorf("unknown session origin %q", text)
	}
	return nil
}

// WalletSession is the wallet the user is currently working with.
// Address is set only while connected or for a manually entered address.
type WalletSession struct {
	ID      string        `json:"id,omitempty"`
	Status  SessionStatus `json:"status"`
	Address string        `json:"address,omitempty"`
	Origin  Origin        `json:"origin"`
}

// CanDonate reports whether the session may send a donation.
func (s WalletSession) CanDonate() bool {
	return s.Origin == OriginSeedVault && s.Status == StatusConnected
}

// TokenHolding is one line of a portfolio snapshot.
type TokenHolding struct {
	Name   string  `json:"name"`
	Mint   string  `json:"mint,omitempty"`
	Amount float64 `json:"amount"`
	Value  float64 `json:"value"`
}

// PortfolioSnapshot is a point-in-time capture of a wallet's holdings.
type PortfolioSnapshot struct {
	Address          string         `json:"address"`
	Tokens           []TokenHolding `json:"tokens"`
	NFTCount         int            `json:"nft_count"`
	TotalValue       float64        `json:"total_value"`
	TransactionCount int            `json:"transaction_count"`
	CapturedAt       time.Time      `json:"captured_at"`
	Demo             bool           `json:"demo"`
}

// TokenValueSum adds up the value of every holding.
func (p PortfolioSnapshot) TokenValueSum() float64 {
	var sum float64
	for _, t := range p.Tokens {
		sum += t.Value
	}
	return sum
}

// RoastSource says where a roast's text came from.
type RoastSource string

const (
	SourceMock      RoastSource = "mock"
	SourceGenerated RoastSource = "generated"
)

// RoastResult is the critique produced for a snapshot.
type RoastResult struct {
	Text     string      `json:"text"`
	Source   RoastSource `json:"source"`
	Language string      `json:"language"`
	// Failed is set when the generation service errored and Text is the
	// generic error string for Language.
	Failed bool `json:"failed"`
}

// DonationRequest is a single transfer to the operator.
type DonationRequest struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Recipient string          `json:"recipient"`
}

// DonationReceipt is the outcome of a successful donation call.
type DonationReceipt struct {
	Request   DonationRequest `json:"request"`
	Simulated bool            `json:"simulated"`
	Ack       string          `json:"ack,omitempty"`
}

// EndpointResult holds the probe result for one configured endpoint.
type EndpointResult struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Status  string `json:"status"` // "ok", "error" or "skipped"
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CheckReport holds the results of the configuration check.
type CheckReport struct {
	ConfigPath      string           `json:"config_path"`
	ValidStructure  bool             `json:"valid_structure"`
	StructureErrors []string         `json:"structure_errors,omitempty"`
	GenerationMode  string           `json:"generation_mode"`
	PortfolioMode   string           `json:"portfolio_mode"`
	WalletMode      string           `json:"wallet_mode"`
	Endpoints       []EndpointResult `json:"endpoints,omitempty"`
	ConfigUpdated   bool             `json:"config_updated"`
	SaveError       string           `json:"save_error,omitempty"`
	DryRun          bool             `json:"dry_run"`
}
