package wallet

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Kind classifies a ConnectorError.
type Kind string

const (
	KindBusy          Kind = "BUSY"
	KindBridgeFailure Kind = "BRIDGE_FAILURE"
)

// ConnectorError is returned by connection attempts.
type ConnectorError struct {
	Kind Kind
	Err  error
}

func (e *ConnectorError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("wallet connect: %s", e.Kind)
	}
	return fmt.Sprintf("wallet connect: %s: %v", e.Kind, e.Err)
}

func (e *ConnectorError) Unwrap() error { return e.Err }

// Is matches any ConnectorError of the same kind.
func (e *ConnectorError) Is(target error) bool {
	t, ok := target.(*ConnectorError)
	return ok && t.Kind == e.Kind
}

var (
	ErrBusy          = &ConnectorError{Kind: KindBusy}
	ErrBridgeFailure = &ConnectorError{Kind: KindBridgeFailure}
)

const (
	DefaultConnectDelay = time.Second

	demoPrefix    = "Demo"
	demoSuffixLen = 13
	base36        = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Connector obtains a wallet address, from the bridge when one is present or
// by simulation otherwise.
type Connector struct {
	bridge Bridge
	clock  clock.Clock
	delay  time.Duration
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Connector)

// WithClock replaces the wall clock used for the simulated delay.
func WithClock(c clock.Clock) Option {
	return func(conn *Connector) { conn.clock = c }
}

func WithDelay(d time.Duration) Option {
	return func(conn *Connector) { conn.delay = d }
}

func WithRand(r *rand.Rand) Option {
	return func(conn *Connector) { conn.rng = r }
}

// NewConnector builds a Connector. A nil bridge selects simulated connections.
func NewConnector(bridge Bridge, logger *zap.Logger, opts ...Option) *Connector {
	c := &Connector{
		bridge: bridge,
		clock:  clock.New(),
		delay:  DefaultConnectDelay,
		logger: logger.Named("Connector"),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Simulated reports whether connections are fabricated locally.
func (c *Connector) Simulated() bool {
	return c.bridge == nil
}

// Connect returns the wallet address. Bridge errors come back as a
// ConnectorError of kind KindBridgeFailure and are not retried.
func (c *Connector) Connect(ctx context.Context) (string, error) {
	if c.bridge != nil {
		addr, err := c.bridge.Connect(ctx)
		if err != nil {
			c.logger.Warn("Bridge connect failed", zap.Error(err))
			return "", &ConnectorError{Kind: KindBridgeFailure, Err: err}
		}
		c.logger.Info("Bridge connected", zap.String("address", addr))
		return addr, nil
	}

	select {
	case <-c.clock.After(c.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	addr := c.demoAddress()
	c.logger.Info("Simulated connection", zap.String("address", addr))
	return addr, nil
}

func (c *Connector) demoAddress() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var b strings.Builder
	b.WriteString(demoPrefix)
	for i := 0; i < demoSuffixLen; i++ {
		b.WriteByte(base36[c.rng.Intn(len(base36))])
	}
	return b.String()
}
