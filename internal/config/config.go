// Package config loads the agent configuration from the environment.
//
// Variables are read with the TRANSFERWATCH_ prefix after an optional env
// file is loaded. Variables already set in the process win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"strings"

	"github.com/gabapcia/transferwatch/internal/pkg/validator"
	"github.com/gabapcia/transferwatch/internal/transferrule"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "TRANSFERWATCH"

// ErrInvalidAmount is returned for a wei amount that is not a non-negative
// 256-bit decimal or 0x-prefixed hex integer.
var ErrInvalidAmount = errors.New("invalid wei amount")

// WeiAmount is an optional amount in wei decoded from the environment.
type WeiAmount struct {
	value *big.Int
}

// ParseWeiAmount parses s as a decimal or 0x-prefixed hex integer.
// An empty s yields an unset amount.
func ParseWeiAmount(s string) (WeiAmount, error) {
	var a WeiAmount
	return a, a.Decode(s)
}

// Decode implements envconfig.Decoder.
func (a *WeiAmount) Decode(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		a.value = nil
		return nil
	}

	v, ok := math.ParseBig256(s)
	if !ok || v.Sign() < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	a.value = v
	return nil
}

// IsSet reports whether an amount was decoded.
func (a WeiAmount) IsSet() bool {
	return a.value != nil
}

// Int returns a copy of the amount, or nil when unset.
func (a WeiAmount) Int() *big.Int {
	if a.value == nil {
		return nil
	}
	return new(big.Int).Set(a.value)
}

type EthereumConfig struct {
	RPCEndpoint string `split_words:"true" required:"true" validate:"required,url"`
	Network     string `default:"ethereum" validate:"required"`
}

type RedisConfig struct {
	Addr     string `default:"localhost:6379" validate:"required,hostname_port"`
	Username string
	Password string
	DB       int `default:"0" validate:"gte=0"`
}

// RuleConfig holds the transfer rule filters. Unset fields leave the
// matching filter disabled; an unset threshold keeps the rule default.
type RuleConfig struct {
	From           string    `validate:"omitempty,eth_addr"`
	To             string    `validate:"omitempty,eth_addr"`
	ValueThreshold WeiAmount `split_words:"true"`
}

// Options converts the rule configuration into transferrule options.
func (r RuleConfig) Options() []transferrule.Option {
	opts := []transferrule.Option{
		transferrule.WithFrom(r.From),
		transferrule.WithTo(r.To),
	}
	if r.ValueThreshold.IsSet() {
		opts = append(opts, transferrule.WithValueThreshold(r.ValueThreshold.Int()))
	}
	return opts
}

type Config struct {
	LogLevel         string `split_words:"true" default:"info" validate:"oneof=debug info warn error"`
	ServiceName      string `split_words:"true" default:"transferwatch" validate:"required"`
	TelemetryEnabled bool   `split_words:"true" default:"false"`

	Ethereum EthereumConfig
	Redis    RedisConfig
	Rule     RuleConfig
}

// Load reads envFiles (missing files are ignored), then the environment.
func Load(envFiles ...string) (Config, error) {
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, err
	}

	if err := validator.Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
