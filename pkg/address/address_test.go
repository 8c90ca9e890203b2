package address

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func TestValidate_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason Reason
		valid  bool
	}{
		{name: "all ones, 32 chars", input: "11111111111111111111111111111111", valid: true},
		{name: "system program padded by whitespace", input: "  So11111111111111111111111111111111111111112\n", valid: true},
		{name: "short", input: "short", reason: ReasonBadFormat},
		{name: "empty", input: "", reason: ReasonEmpty},
		{name: "whitespace only", input: " \t\n ", reason: ReasonEmpty},
		{name: "contains zero", input: "0" + strings.Repeat("1", 31), reason: ReasonBadFormat},
		{name: "contains capital O", input: "O" + strings.Repeat("1", 31), reason: ReasonBadFormat},
		{name: "contains capital I", input: "I" + strings.Repeat("1", 31), reason: ReasonBadFormat},
		{name: "contains lowercase l", input: "l" + strings.Repeat("1", 31), reason: ReasonBadFormat},
		{name: "inner space", input: strings.Repeat("1", 16) + " " + strings.Repeat("1", 16), reason: ReasonBadFormat},
		{name: "evm address", input: "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", reason: ReasonBadFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := Validate(tt.input)
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, strings.TrimSpace(tt.input), addr)
				return
			}
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.reason, verr.Reason)
			assert.Empty(t, addr)
		})
	}
}

func TestValidate_LengthBounds(t *testing.T) {
	for n := 0; n <= 60; n++ {
		input := strings.Repeat("z", n)
		_, err := Validate(input)
		switch {
		case n == 0:
			assert.ErrorIs(t, err, ErrEmpty, "length %d", n)
		case n < MinLength || n > MaxLength:
			assert.ErrorIs(t, err, ErrBadFormat, "length %d", n)
		default:
			assert.NoError(t, err, "length %d", n)
		}
	}
}

func TestValidate_WholeAlphabetAccepted(t *testing.T) {
	for start := 0; start+MinLength <= len(base58Alphabet); start++ {
		for n := MinLength; n <= MaxLength && start+n <= len(base58Alphabet); n++ {
			input := base58Alphabet[start : start+n]
			_, err := Validate(input)
			assert.NoError(t, err, input)
		}
	}
}

func TestValidate_ForeignCharacterRejected(t *testing.T) {
	base := strings.Repeat("1", 40)
	for _, r := range "0OIl+/=-_!é" {
		input := base[:20] + string(r) + base[21:]
		_, err := Validate(input)
		assert.ErrorIs(t, err, ErrBadFormat, "rune %q", r)
	}
}

func TestValidate_Deterministic(t *testing.T) {
	in := "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	a1, e1 := Validate(in)
	a2, e2 := Validate(in)
	assert.Equal(t, a1, a2)
	assert.Equal(t, e1, e2)
}

func TestShortForm(t *testing.T) {
	addr := "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	assert.Equal(t, "9WzDXwBb...YtAWWM", ShortForm(addr, 8, 6))
	assert.Equal(t, "9WzDXwBbmkg8...dLVL9zYtAWWM", ShortForm(addr, 12, 12))
	assert.Equal(t, "short", ShortForm("short", 8, 6))
}
