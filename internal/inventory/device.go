package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/importcalc/internal/pricing"
)

// BrandOther is the choice that takes a free-form brand name.
const BrandOther = "Other"

// Brands lists the selectable brands in display order.
var Brands = []string{
	"Apple",
	"Samsung",
	"Google",
	"Xiaomi",
	"OnePlus",
	"Oppo",
	"Vivo",
	"Realme",
	"Infinix",
	"Tecno",
	"Huawei",
	"Nothing",
	"Motorola",
	BrandOther,
}

// Device is a priced inventory line item. Only raw inputs are stored; derived
// figures come from pricing.Evaluate against the current settings and slabs.
type Device struct {
	ID                string           `json:"id"`
	Brand             string           `json:"brand"`
	Model             string           `json:"model"`
	PurchaseCostUSD   float64          `json:"purchaseCostUsd"`
	ShippingCostUSD   float64          `json:"shippingCostUsd"`
	ExpectedSalePrice pricing.Optional `json:"expectedSalePriceLocal"`
	CreatedAt         time.Time        `json:"createdAt"`
}

// Input returns the pricing input for the device.
func (d Device) Input() pricing.Input {
	return pricing.Input{
		PurchaseCostUSD:   d.PurchaseCostUSD,
		ShippingCostUSD:   d.ShippingCostUSD,
		ExpectedSalePrice: d.ExpectedSalePrice,
	}
}

// Name returns "Brand Model".
func (d Device) Name() string {
	return strings.TrimSpace(d.Brand + " " + d.Model)
}

// Draft holds the unvalidated values of the add-device form.
type Draft struct {
	Brand             string
	OtherBrand        string
	Model             string
	PurchaseCostUSD   pricing.Optional
	ShippingCostUSD   pricing.Optional
	ExpectedSalePrice pricing.Optional
}

// ValidationError describes a rejected field of a Draft.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ResolveBrand returns the canonical brand for a known choice, or the trimmed
// free-form name when choice is BrandOther.
func ResolveBrand(choice, other string) (string, error) {
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return "", &ValidationError{Field: "brand", Message: "is required"}
	}

	if strings.EqualFold(choice, BrandOther) {
		name := strings.TrimSpace(other)
		if name == "" {
			return "", &ValidationError{Field: "otherBrand", Message: "is required when brand is Other"}
		}
		return name, nil
	}

	for _, b := range Brands {
		if strings.EqualFold(b, choice) {
			return b, nil
		}
	}

	return "", &ValidationError{Field: "brand", Message: fmt.Sprintf("%q is not a known brand", choice)}
}

// NewDevice validates a draft and creates a device with a fresh ID.
func NewDevice(d Draft, now time.Time) (Device, error) {
	brand, err := ResolveBrand(d.Brand, d.OtherBrand)
	if err != nil {
		return Device{}, err
	}

	model := strings.TrimSpace(d.Model)
	if model == "" {
		return Device{}, &ValidationError{Field: "model", Message: "is required"}
	}
	if !d.PurchaseCostUSD.Set || d.PurchaseCostUSD.Value <= 0 {
		return Device{}, &ValidationError{Field: "purchaseCostUsd", Message: "must be greater than 0"}
	}
	if !d.ExpectedSalePrice.Set || d.ExpectedSalePrice.Value <= 0 {
		return Device{}, &ValidationError{Field: "expectedSalePriceLocal", Message: "must be greater than 0"}
	}
	for _, f := range []struct {
		name  string
		value pricing.Optional
	}{
		{"purchaseCostUsd", d.PurchaseCostUSD},
		{"shippingCostUsd", d.ShippingCostUSD},
		{"expectedSalePriceLocal", d.ExpectedSalePrice},
	} {
		if f.value.Set && !f.value.InRange() {
			return Device{}, &ValidationError{Field: f.name, Message: fmt.Sprintf("must not exceed %g", pricing.MaxAmount)}
		}
	}

	return Device{
		ID:                uuid.NewString(),
		Brand:             brand,
		Model:             model,
		PurchaseCostUSD:   d.PurchaseCostUSD.Value,
		ShippingCostUSD:   pricing.Coerce(d.ShippingCostUSD.OrZero()),
		ExpectedSalePrice: d.ExpectedSalePrice,
		CreatedAt:         now.UTC(),
	}, nil
}
