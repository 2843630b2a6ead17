package inventory

import "github.com/Simplici0/importcalc/internal/pricing"

// Priced pairs a device with its freshly computed result.
type Priced struct {
	Device Device         `json:"device"`
	Result pricing.Result `json:"result"`
}

// Reprice evaluates every device against the current settings and slab table.
func Reprice(devices []Device, settings pricing.Settings, slabs []pricing.Slab) []Priced {
	priced := make([]Priced, 0, len(devices))
	for _, d := range devices {
		priced = append(priced, Priced{
			Device: d,
			Result: pricing.Evaluate(d.Input(), settings, slabs),
		})
	}
	return priced
}

// Summary rolls up a priced device list.
type Summary struct {
	Devices      int     `json:"devices"`
	LandedPathA  float64 `json:"landedPathA"`
	LandedPathB  float64 `json:"landedPathB"`
	ProfitPathA  float64 `json:"profitPathA"`
	ProfitPathB  float64 `json:"profitPathB"`
	BestPathA    int     `json:"bestPathA"`
	BestPathB    int     `json:"bestPathB"`
	WithoutSale  int     `json:"withoutSale"`
	FallbackUsed int     `json:"fallbackUsed"`
}

// Summarize totals landed cost for all devices and profit for those with a sale price.
func Summarize(priced []Priced) Summary {
	s := Summary{Devices: len(priced)}
	for _, p := range priced {
		r := p.Result
		s.LandedPathA += r.LandedPathA
		s.LandedPathB += r.LandedPathB
		if r.UsedFallbackSlab {
			s.FallbackUsed++
		}

		switch r.BestPath {
		case pricing.PathA:
			s.BestPathA++
		case pricing.PathB:
			s.BestPathB++
		default:
			s.WithoutSale++
			continue
		}
		s.ProfitPathA += r.ProfitPathA.Value
		s.ProfitPathB += r.ProfitPathB.Value
	}
	return s
}
