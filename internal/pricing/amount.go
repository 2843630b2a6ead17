package pricing

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Optional is a number that may be deliberately absent, such as a sale price
// that has not been estimated yet.
type Optional struct {
	Value float64
	Set   bool
}

// Some returns a set Optional holding v.
func Some(v float64) Optional {
	return Optional{Value: v, Set: true}
}

// None returns an unset Optional.
func None() Optional {
	return Optional{}
}

// OrZero returns the value, or 0 when unset.
func (o Optional) OrZero() float64 {
	if !o.Set {
		return 0
	}
	return o.Value
}

// MarshalJSON encodes an unset value as null.
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON decodes null as unset.
func (o *Optional) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional{}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MaxAmount is the largest amount, in USD or local units, the calculator
// works with. Anything larger is treated as a typing mistake.
const MaxAmount = 1e12

// Coerce maps non-finite and negative values to 0 and clamps values above
// MaxAmount to MaxAmount, so sums and products of coerced values stay finite.
func Coerce(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return math.Min(v, MaxAmount)
}

// InRange reports whether a set value lies within [0, MaxAmount].
func (o Optional) InRange() bool {
	return o.Set && o.Value >= 0 && o.Value <= MaxAmount
}

// thousands matches comma-grouped integers in western (1,234,567) and
// lakh (12,34,567) style.
var thousands = regexp.MustCompile(`^[+-]?(\d{1,3}(,\d{3})+|\d{1,2}(,\d{2})*,\d{3})$`)

// ParseAmount turns free-form user text into an Optional.
//
// Blank, non-numeric and non-finite input is unset. Surrounding spaces are
// ignored and commas are accepted only as thousands separators, so "1,5" is
// unset rather than 15. Negative numbers become 0. Values above MaxAmount are
// kept so callers can reject them.
func ParseAmount(raw string) Optional {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "_", "")
	if s == "" {
		return None()
	}

	if strings.Contains(s, ",") {
		intPart, _, _ := strings.Cut(s, ".")
		if !thousands.MatchString(intPart) {
			return None()
		}
		s = strings.ReplaceAll(s, ",", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return None()
	}
	if v < 0 {
		return Some(0)
	}

	return Some(v)
}
