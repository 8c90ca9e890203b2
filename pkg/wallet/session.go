package wallet

import (
	"errors"

	"roaster/pkg/models"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when an operation is not allowed from the
// session's current status.
var ErrInvalidTransition = errors.New("wallet: invalid session transition")

// Transitions below return a new session value and never modify their input.
// Every transition that starts or ends a lifecycle issues a fresh ID so that
// results from an older lifecycle can be recognised and dropped.

// BeginConnect moves a disconnected session to Connecting.
func BeginConnect(s models.WalletSession) (models.WalletSession, error) {
	switch s.Status {
	case models.StatusConnecting:
		return s, ErrBusy
	case models.StatusDisconnected:
		return models.WalletSession{
			ID:     uuid.NewString(),
			Status: models.StatusConnecting,
			Origin: models.OriginSeedVault,
		}, nil
	default:
		return s, ErrInvalidTransition
	}
}

// CompleteConnect records the address handed out by the connector.
func CompleteConnect(s models.WalletSession, address string) (models.WalletSession, error) {
	if s.Status != models.StatusConnecting {
		return s, ErrInvalidTransition
	}
	return models.WalletSession{
		ID:      s.ID,
		Status:  models.StatusConnected,
		Address: address,
		Origin:  models.OriginSeedVault,
	}, nil
}

func FailConnect(s models.WalletSession) (models.WalletSession, error) {
	if s.Status != models.StatusConnecting {
		return s, ErrInvalidTransition
	}
	return models.WalletSession{
		ID:     s.ID,
		Status: models.StatusFailed,
		Origin: models.OriginSeedVault,
	}, nil
}

// Disconnect returns to the initial state from anywhere. Calling it on a
// disconnected session is a no-op apart from the new ID.
func Disconnect(models.WalletSession) models.WalletSession {
	return models.WalletSession{
		ID:     uuid.NewString(),
		Status: models.StatusDisconnected,
	}
}

// BeginManual accepts a validated free-text address for one-shot analysis.
// A seed vault connection has to be dropped first.
func BeginManual(s models.WalletSession, address string) (models.WalletSession, error) {
	switch s.Status {
	case models.StatusConnecting:
		return s, ErrBusy
	case models.StatusConnected:
		return s, ErrInvalidTransition
	}
	return models.WalletSession{
		ID:      uuid.NewString(),
		Status:  models.StatusDisconnected,
		Address: address,
		Origin:  models.OriginManual,
	}, nil
}
