package pricing

import (
	"errors"
	"fmt"
	"math"
)

// Settings holds the process-wide parameters shared by every evaluation.
type Settings struct {
	// ExchangeRate is local-currency units per USD.
	ExchangeRate float64 `json:"exchangeRate"`
	// GSTLowRate and GSTHighRate are fractions, 0.18 meaning 18%.
	GSTLowRate  float64 `json:"gstLowRate"`
	GSTHighRate float64 `json:"gstHighRate"`
	// GSTThresholdUSD is the USD cost at or above which GSTHighRate applies.
	GSTThresholdUSD float64 `json:"gstThresholdUsd"`
	// AnimationsEnabled is a display preference; pricing ignores it.
	AnimationsEnabled bool `json:"animationsEnabled"`
}

// DefaultSettings returns the settings used on first run or when stored settings are missing.
func DefaultSettings() Settings {
	return Settings{
		ExchangeRate:      278,
		GSTLowRate:        0.18,
		GSTHighRate:       0.25,
		GSTThresholdUSD:   500,
		AnimationsEnabled: true,
	}
}

// Validate reports the first invalid field.
func (s Settings) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"exchangeRate", s.ExchangeRate},
		{"gstLowRate", s.GSTLowRate},
		{"gstHighRate", s.GSTHighRate},
		{"gstThresholdUsd", s.GSTThresholdUSD},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%s must be a finite number", f.name)
		}
	}

	if s.ExchangeRate <= 0 {
		return errors.New("exchangeRate must be greater than 0")
	}
	if s.GSTLowRate < 0 || s.GSTLowRate > 1 {
		return errors.New("gstLowRate must be between 0 and 1")
	}
	if s.GSTHighRate < 0 || s.GSTHighRate > 1 {
		return errors.New("gstHighRate must be between 0 and 1")
	}
	if s.GSTThresholdUSD < 0 {
		return errors.New("gstThresholdUsd must be greater than or equal to 0")
	}
	if s.ExchangeRate > MaxAmount || s.GSTThresholdUSD > MaxAmount {
		return fmt.Errorf("exchangeRate and gstThresholdUsd must not exceed %g", MaxAmount)
	}

	return nil
}
