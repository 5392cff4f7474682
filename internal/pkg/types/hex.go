// Package types holds small value types shared across packages.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidHex is returned when a string is not a 0x-prefixed hexadecimal number.
var ErrInvalidHex = errors.New("invalid hex number")

// Hex is a 0x-prefixed hexadecimal quantity as used by Ethereum JSON-RPC
// (e.g. block heights). The empty Hex means "unset".
type Hex string

// HexFromString validates s and returns it as a Hex.
func HexFromString(s string) (Hex, error) {
	if err := validateHex(s); err != nil {
		return "", err
	}
	return Hex(s), nil
}

// HexFromInt encodes n as a Hex.
func HexFromInt(n int64) Hex {
	return Hex("0x" + strconv.FormatInt(n, 16))
}

func validateHex(s string) error {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return fmt.Errorf("%w: %q must start with 0x", ErrInvalidHex, s)
	}

	if _, err := strconv.ParseUint(s[2:], 16, 64); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHex, err)
	}

	return nil
}

// MarshalJSON encodes h as a JSON string.
func (h Hex) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(h))
}

// UnmarshalJSON decodes and validates a JSON string.
func (h *Hex) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHex, err)
	}

	if err := validateHex(s); err != nil {
		return err
	}

	*h = Hex(s)
	return nil
}

// IsEmpty reports whether h is unset.
func (h Hex) IsEmpty() bool {
	return h == ""
}

// Int decodes h. Empty or invalid values decode as zero.
func (h Hex) Int() int64 {
	if len(h) < 3 {
		return 0
	}

	v, _ := strconv.ParseInt(string(h)[2:], 16, 64)
	return v
}

// Add returns h+n. An invalid h counts as zero.
func (h Hex) Add(n int64) Hex {
	return HexFromInt(h.Int() + n)
}

// String returns the raw representation.
func (h Hex) String() string {
	return string(h)
}
