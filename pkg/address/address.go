// Package address performs syntactic checks on Solana wallet addresses.
//
// Validation never touches the network: a well-formed address may still not
// exist on chain or hold anything.
package address

import (
	"fmt"
	"regexp"
	"strings"
)

// Reason identifies why an address was rejected.
type Reason string

const (
	ReasonEmpty     Reason = "EMPTY"
	ReasonBadFormat Reason = "BAD_FORMAT"
)

const (
	MinLength = 32
	MaxLength = 44
)

var base58Pattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// ValidationError is returned by Validate for rejected input.
type ValidationError struct {
	Reason Reason
	Input  string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonEmpty:
		return "address is empty"
	default:
		return fmt.Sprintf("address %q is not a base-58 string of %d-%d characters", e.Input, MinLength, MaxLength)
	}
}

// Is lets errors.Is match on the reason alone.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Reason == e.Reason && (t.Input == "" || t.Input == e.Input)
}

var (
	ErrEmpty     = &ValidationError{Reason: ReasonEmpty}
	ErrBadFormat = &ValidationError{Reason: ReasonBadFormat}
)

// Validate trims raw and checks it against the base-58 alphabet and length
// bounds. It returns the trimmed address when valid.
func Validate(raw string) (string, error) {
	addr := strings.TrimSpace(raw)
	if addr == "" {
		return "", &ValidationError{Reason: ReasonEmpty}
	}
	if !base58Pattern.MatchString(addr) {
		return "", &ValidationError{Reason: ReasonBadFormat, Input: addr}
	}
	return addr, nil
}

// ShortForm renders addr as its first head and last tail characters joined by
// an ellipsis. Addresses too short to abbreviate are returned unchanged.
func ShortForm(addr string, head, tail int) string {
	if head < 0 || tail < 0 || len(addr) <= head+tail {
		return addr
	}
	return addr[:head] + "..." + addr[len(addr)-tail:]
}
