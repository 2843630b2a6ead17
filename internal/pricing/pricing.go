package pricing

// Path identifies one of the two alternative fee schedules.
type Path string

const (
	PathNone Path = ""
	PathA    Path = "A"
	PathB    Path = "B"
)

// Label returns the display name of the path.
func (p Path) Label() string {
	switch p {
	case PathA:
		return "Path A"
	case PathB:
		return "Path B"
	default:
		return ""
	}
}

// Input represents the per-device figures entered by the user.
type Input struct {
	PurchaseCostUSD   float64  `json:"purchaseCostUsd"`
	ShippingCostUSD   float64  `json:"shippingCostUsd"`
	ExpectedSalePrice Optional `json:"expectedSalePriceLocal"`
}

// Result contains every figure derived from an Input. Values are unrounded.
type Result struct {
	BaseUSD        float64 `json:"baseUsd"`
	GSTRate        float64 `json:"gstRate"`
	GSTAmount      float64 `json:"gstAmount"`
	BasePriceLocal float64 `json:"basePriceLocal"`

	Slab      Slab   `json:"slab"`
	SlabLabel string `json:"slabLabel"`
	// UsedFallbackSlab is set when no band contained BaseUSD and the last band was used.
	UsedFallbackSlab bool `json:"usedFallbackSlab"`

	LandedPathA float64 `json:"landedPathA"`
	LandedPathB float64 `json:"landedPathB"`

	// Profit, margin and best-path figures are unset when no sale price was given.
	ProfitPathA Optional `json:"profitPathA"`
	ProfitPathB Optional `json:"profitPathB"`
	MarginPathA Optional `json:"marginPathA"`
	MarginPathB Optional `json:"marginPathB"`
	BestPath    Path     `json:"bestPath"`
	BestProfit  Optional `json:"bestProfit"`
}

// Landed returns the landed cost under the given path.
func (r Result) Landed(p Path) float64 {
	if p == PathB {
		return r.LandedPathB
	}
	return r.LandedPathA
}

// Evaluate computes tax, landed cost, profit and margin for both paths.
// It never fails: invalid figures degrade to 0, amounts above MaxAmount are
// clamped so every figure stays finite, and a missing sale price leaves profit
// and margin unset.
func Evaluate(in Input, settings Settings, slabs []Slab) Result {
	purchase := Coerce(in.PurchaseCostUSD)
	shipping := Coerce(in.ShippingCostUSD)

	baseUSD := purchase + shipping
	basePriceLocal := baseUSD * Coerce(settings.ExchangeRate)

	gstRate := settings.GSTLowRate
	if baseUSD >= settings.GSTThresholdUSD {
		gstRate = settings.GSTHighRate
	}
	gstRate = Coerce(gstRate)
	gstAmount := basePriceLocal * gstRate

	slab, matched := FindSlab(slabs, baseUSD)

	result := Result{
		BaseUSD:          baseUSD,
		GSTRate:          gstRate,
		GSTAmount:        gstAmount,
		BasePriceLocal:   basePriceLocal,
		Slab:             slab,
		SlabLabel:        slab.Label,
		UsedFallbackSlab: !matched,
		LandedPathA:      basePriceLocal + gstAmount + Coerce(slab.FeeA),
		LandedPathB:      basePriceLocal + gstAmount + Coerce(slab.FeeB),
	}

	if !in.ExpectedSalePrice.Set {
		return result
	}

	sale := Coerce(in.ExpectedSalePrice.Value)
	profitA := sale - result.LandedPathA
	profitB := sale - result.LandedPathB
	result.ProfitPathA = Some(profitA)
	result.ProfitPathB = Some(profitB)
	result.MarginPathA = Some(margin(profitA, sale))
	result.MarginPathB = Some(margin(profitB, sale))

	if profitB >= profitA {
		result.BestPath = PathB
		result.BestProfit = Some(profitB)
	} else {
		result.BestPath = PathA
		result.BestProfit = Some(profitA)
	}

	return result
}

func margin(profit, sale float64) float64 {
	if sale <= 0 {
		return 0
	}
	return (profit / sale) * 100
}
