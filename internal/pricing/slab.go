package pricing

import (
	"fmt"
	"math"
)

// Unbounded is the MaxUSD of the "and above" band.
const Unbounded = math.MaxFloat64

// Slab is one USD value band with a fixed fee per identity path, in local currency.
type Slab struct {
	ID     int64   `json:"id"`
	Label  string  `json:"rangeLabel"`
	MinUSD float64 `json:"min"`
	MaxUSD float64 `json:"max"`
	FeeA   float64 `json:"feeA"`
	FeeB   float64 `json:"feeB"`
}

// Contains reports whether usd falls inside the band, bounds inclusive.
func (s Slab) Contains(usd float64) bool {
	return s.MinUSD <= usd && usd <= s.MaxUSD
}

// IsUnbounded reports whether the band has no upper limit.
func (s Slab) IsUnbounded() bool {
	return s.MaxUSD >= Unbounded || math.IsInf(s.MaxUSD, 1)
}

// Fee returns the fixed fee charged under the given path.
func (s Slab) Fee(p Path) float64 {
	if p == PathB {
		return s.FeeB
	}
	return s.FeeA
}

// DefaultSlabs returns the built-in slab table used on first run.
//
// Neighbouring bands share their boundary value so fractional USD amounts never
// fall between two bands; the lower band wins at the shared point because
// FindSlab scans in table order. Each boundary value (30, 100, 200, 350, 500)
// therefore belongs to the band it closes: FindSlab(500) is "351-500" and the
// last band starts applying just above 500, matching its "501+" label.
func DefaultSlabs() []Slab {
	return []Slab{
		{Label: "0-30", MinUSD: 0, MaxUSD: 30, FeeA: 550, FeeB: 430},
		{Label: "31-100", MinUSD: 30, MaxUSD: 100, FeeA: 4323, FeeB: 3200},
		{Label: "101-200", MinUSD: 100, MaxUSD: 200, FeeA: 11561, FeeB: 9580},
		{Label: "201-350", MinUSD: 200, MaxUSD: 350, FeeA: 14661, FeeB: 12200},
		{Label: "351-500", MinUSD: 350, MaxUSD: 500, FeeA: 23420, FeeB: 17800},
		{Label: "501+", MinUSD: 500, MaxUSD: Unbounded, FeeA: 37007, FeeB: 36870},
	}
}

// FindSlab returns the first slab in table order containing usd.
//
// Non-finite or negative values are looked up as 0. When no band matches, the
// last slab is returned with ok=false so callers can flag the table as broken.
// An empty table yields the zero Slab and ok=false.
func FindSlab(slabs []Slab, usd float64) (Slab, bool) {
	if len(slabs) == 0 {
		return Slab{}, false
	}

	usd = Coerce(usd)
	for _, s := range slabs {
		if s.Contains(usd) {
			return s, true
		}
	}

	return slabs[len(slabs)-1], false
}

// ValidateSlabs checks the table covers every USD value >= 0 exactly once
// (neighbours may touch at a shared boundary) and returns one message per problem.
func ValidateSlabs(slabs []Slab) []string {
	if len(slabs) == 0 {
		return []string{"slab table is empty"}
	}

	var problems []string
	if slabs[0].MinUSD > 0 {
		problems = append(problems, fmt.Sprintf("slab %q starts at %s instead of 0", slabs[0].Label, formatUSD(slabs[0].MinUSD)))
	}

	for i, s := range slabs {
		if s.MinUSD > s.MaxUSD {
			problems = append(problems, fmt.Sprintf("slab %q has min %s above max %s", s.Label, formatUSD(s.MinUSD), formatUSD(s.MaxUSD)))
		}
		if s.FeeA < 0 || s.FeeB < 0 {
			problems = append(problems, fmt.Sprintf("slab %q has a negative fee", s.Label))
		}
		if i == 0 {
			continue
		}

		prev := slabs[i-1]
		switch {
		case s.MinUSD > prev.MaxUSD:
			problems = append(problems, fmt.Sprintf("gap between %q and %q: %s to %s is not covered", prev.Label, s.Label, formatUSD(prev.MaxUSD), formatUSD(s.MinUSD)))
		case s.MinUSD < prev.MaxUSD:
			problems = append(problems, fmt.Sprintf("slab %q overlaps %q", s.Label, prev.Label))
		}
	}

	if last := slabs[len(slabs)-1]; !last.IsUnbounded() {
		problems = append(problems, fmt.Sprintf("last slab %q is capped at %s; values above it fall back to it", last.Label, formatUSD(last.MaxUSD)))
	}

	return problems
}

func formatUSD(v float64) string {
	if v >= Unbounded {
		return "unbounded"
	}
	return fmt.Sprintf("$%g", v)
}
