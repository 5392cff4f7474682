// Package finding defines the detection record published by the agent and
// the factories that produce it.
package finding

import (
	"maps"
	"math/big"

	"github.com/gabapcia/transferwatch/internal/pkg/validator"
)

// Severity ranks how urgent a finding is.
type Severity string

const (
	SeverityUnknown  Severity = "Unknown"
	SeverityInfo     Severity = "Info"
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Type classifies what kind of condition a finding describes.
type Type string

const (
	TypeUnknown    Type = "Unknown"
	TypeExploit    Type = "Exploit"
	TypeSuspicious Type = "Suspicious"
	TypeDegraded   Type = "Degraded"
	TypeInfo       Type = "Info"
)

// Finding describes a detected condition.
type Finding struct {
	Name        string            `json:"name" validate:"required"`
	Description string            `json:"description" validate:"required"`
	AlertID     string            `json:"alertId" validate:"required"`
	Protocol    string            `json:"protocol,omitempty"`
	Severity    Severity          `json:"severity" validate:"oneof=Unknown Info Low Medium High Critical"`
	Type        Type              `json:"type" validate:"oneof=Unknown Exploit Suspicious Degraded Info"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// clone returns a copy of f that shares no mutable state with it.
func (f Finding) clone() Finding {
	if f.Metadata != nil {
		f.Metadata = maps.Clone(f.Metadata)
	}
	return f
}

// NewFactory validates template and returns a factory that yields a fresh
// copy of it on every call.
func NewFactory(template Finding) (func() Finding, error) {
	if err := validator.Validate(template); err != nil {
		return nil, err
	}

	template = template.clone()
	return func() Finding {
		return template.clone()
	}, nil
}

// LargeTransfer returns the finding template emitted for a native-currency
// transfer at or above threshold (in wei).
func LargeTransfer(threshold *big.Int) Finding {
	metadata := map[string]string{}
	if threshold != nil {
		metadata["threshold"] = threshold.String()
	}

	return Finding{
		Name:        "Large Native Transfer",
		Description: "Native currency transfer at or above the configured threshold",
		AlertID:     "NATIVE-TRANSFER-1",
		Protocol:    "ethereum",
		Severity:    SeverityInfo,
		Type:        TypeInfo,
		Metadata:    metadata,
	}
}
