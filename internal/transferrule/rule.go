// Package transferrule implements the native-currency transfer detection rule.
//
// A Rule matches a transaction when its value reaches a minimum threshold and,
// optionally, when its sender and/or recipient equal configured addresses.
// Matching is pure: a Rule holds no mutable state, never mutates the
// transactions it inspects and is safe for concurrent use.
package transferrule

import (
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

var (
	// ErrNegativeThreshold is returned by New and Provide when the configured
	// value threshold is below zero.
	ErrNegativeThreshold = errors.New("value threshold must not be negative")

	// ErrNilFindingFactory is returned by Provide when no finding factory is given.
	ErrNilFindingFactory = errors.New("finding factory is required")
)

// DefaultValueThreshold returns the threshold applied when none is configured:
// 10 ether, expressed in wei.
//
// A new value is returned on every call so callers may modify it freely.
func DefaultValueThreshold() *big.Int {
	return new(big.Int).Mul(big.NewInt(10), big.NewInt(params.Ether))
}

// Transaction is the read-only view of a transaction the rule inspects.
type Transaction struct {
	Hash  string   // Transaction hash (informational, never compared)
	From  string   // Sender address
	To    string   // Recipient address, empty for contract creation
	Value *big.Int // Transferred amount in wei, nil is treated as zero
}

// Rule is an immutable transfer-matching configuration.
//
// Build one with New. The zero value behaves like a Rule built with no options.
type Rule struct {
	from           string
	to             string
	valueThreshold *big.Int
}

// config collects the options before a Rule is built.
type config struct {
	from           string
	to             string
	valueThreshold *big.Int
}

// Option configures a Rule.
type Option func(*config)

// WithFrom restricts matches to transactions sent by addr.
// An empty addr disables the sender filter.
func WithFrom(addr string) Option {
	return func(c *config) {
		c.from = addr
	}
}

// WithTo restricts matches to transactions sent to addr.
// An empty addr disables the recipient filter.
func WithTo(addr string) Option {
	return func(c *config) {
		c.to = addr
	}
}

// WithValueThreshold sets the minimum transferred amount (inclusive), in wei.
//
// A zero threshold matches every value. A nil threshold keeps the default
// (see DefaultValueThreshold). The value is copied.
func WithValueThreshold(v *big.Int) Option {
	return func(c *config) {
		if v == nil {
			c.valueThreshold = nil
			return
		}
		c.valueThreshold = new(big.Int).Set(v)
	}
}

// New builds a Rule from the given options.
//
// It returns ErrNegativeThreshold if the threshold is below zero.
func New(opts ...Option) (Rule, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.valueThreshold == nil {
		cfg.valueThreshold = DefaultValueThreshold()
	}

	if cfg.valueThreshold.Sign() < 0 {
		return Rule{}, ErrNegativeThreshold
	}

	return Rule{
		from:           cfg.from,
		to:             cfg.to,
		valueThreshold: cfg.valueThreshold,
	}, nil
}

// From returns the sender filter, empty when disabled.
func (r Rule) From() string { return r.from }

// To returns the recipient filter, empty when disabled.
func (r Rule) To() string { return r.to }

// ValueThreshold returns a copy of the minimum matched value.
func (r Rule) ValueThreshold() *big.Int {
	if r.valueThreshold == nil {
		return DefaultValueThreshold()
	}
	return new(big.Int).Set(r.valueThreshold)
}

// meetsThreshold reports whether value >= threshold. A nil value counts as zero.
func (r Rule) meetsThreshold(value *big.Int) bool {
	threshold := r.valueThreshold
	if threshold == nil {
		threshold = DefaultValueThreshold()
	}

	if value == nil {
		return threshold.Sign() <= 0
	}
	return value.Cmp(threshold) >= 0
}

// matchesAddress reports whether actual equals filter ignoring case.
// An empty filter always matches; an empty actual never matches a set filter.
func matchesAddress(filter, actual string) bool {
	if filter == "" {
		return true
	}
	return actual != "" && strings.EqualFold(filter, actual)
}

// Matches reports whether tx satisfies every configured condition.
func (r Rule) Matches(tx Transaction) bool {
	return r.meetsThreshold(tx.Value) &&
		matchesAddress(r.from, tx.From) &&
		matchesAddress(r.to, tx.To)
}
