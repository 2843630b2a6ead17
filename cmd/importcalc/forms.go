package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Simplici0/importcalc/internal/inventory"
	"github.com/Simplici0/importcalc/internal/pricing"
)

// fieldError is a form value that failed validation.
type fieldError struct {
	Field   string
	Message string
}

func (e *fieldError) Error() string {
	return e.Field + " " + e.Message
}

func parseNonNegativeFloat(raw, field string) (float64, error) {
	value := pricing.ParseAmount(raw)
	if !value.Set {
		return 0, &fieldError{Field: field, Message: "must be numeric"}
	}
	if strings.HasPrefix(strings.TrimSpace(raw), "-") {
		return 0, &fieldError{Field: field, Message: "must be greater than or equal to 0"}
	}
	if value.Value > pricing.MaxAmount {
		return 0, &fieldError{Field: field, Message: fmt.Sprintf("must not exceed %g", pricing.MaxAmount)}
	}
	return value.Value, nil
}

func parsePositiveFloat(raw, field string) (float64, error) {
	value, err := parseNonNegativeFloat(raw, field)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, &fieldError{Field: field, Message: "must be greater than 0"}
	}
	return value, nil
}

// parsePercent reads a 0-100 percentage and returns it as a fraction.
func parsePercent(raw, field string) (float64, error) {
	value, err := parseNonNegativeFloat(raw, field)
	if err != nil {
		return 0, err
	}
	if value > 100 {
		return 0, &fieldError{Field: field, Message: "must be between 0 and 100"}
	}
	return value / 100, nil
}

func parseBool(raw, field string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return true, nil
	case "0", "false", "off", "no", "":
		return false, nil
	}
	return false, &fieldError{Field: field, Message: "must be true or false"}
}

// parseSettingsForm applies the submitted fields on top of current. Fields
// that are absent from the form keep their current value.
func parseSettingsForm(r *http.Request, current pricing.Settings) (pricing.Settings, error) {
	st := current

	present := func(name string) (string, bool) {
		values, ok := r.Form[name]
		if !ok || len(values) == 0 {
			return "", false
		}
		return values[0], true
	}

	var err error
	if raw, ok := present("exchangeRate"); ok {
		if st.ExchangeRate, err = parsePositiveFloat(raw, "exchangeRate"); err != nil {
			return current, err
		}
	}
	if raw, ok := present("gstLowPercent"); ok {
		if st.GSTLowRate, err = parsePercent(raw, "gstLowPercent"); err != nil {
			return current, err
		}
	}
	if raw, ok := present("gstHighPercent"); ok {
		if st.GSTHighRate, err = parsePercent(raw, "gstHighPercent"); err != nil {
			return current, err
		}
	}
	if raw, ok := present("gstThresholdUsd"); ok {
		if st.GSTThresholdUSD, err = parseNonNegativeFloat(raw, "gstThresholdUsd"); err != nil {
			return current, err
		}
	}
	if raw, ok := present("animationsEnabled"); ok {
		if st.AnimationsEnabled, err = parseBool(raw, "animationsEnabled"); err != nil {
			return current, err
		}
	}

	if err := st.Validate(); err != nil {
		return current, &fieldError{Field: "settings", Message: err.Error()}
	}
	return st, nil
}

func parseSlabFeesForm(r *http.Request) (feeA, feeB float64, err error) {
	if feeA, err = parseNonNegativeFloat(r.FormValue("feeA"), "feeA"); err != nil {
		return 0, 0, err
	}
	if feeB, err = parseNonNegativeFloat(r.FormValue("feeB"), "feeB"); err != nil {
		return 0, 0, err
	}
	return feeA, feeB, nil
}

func parseSlabID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &fieldError{Field: "id", Message: "is not a valid slab id"}
	}
	return id, nil
}

// parseQuoteForm reads free-form amounts the way a live calculator does:
// anything unparseable counts as 0 and an empty sale price stays unset.
func parseQuoteForm(r *http.Request) pricing.Input {
	return pricing.Input{
		PurchaseCostUSD:   pricing.ParseAmount(r.FormValue("purchaseCostUsd")).OrZero(),
		ShippingCostUSD:   pricing.ParseAmount(r.FormValue("shippingCostUsd")).OrZero(),
		ExpectedSalePrice: pricing.ParseAmount(r.FormValue("expectedSalePriceLocal")),
	}
}

func parseDraftForm(r *http.Request) inventory.Draft {
	return inventory.Draft{
		Brand:             r.FormValue("brand"),
		OtherBrand:        r.FormValue("otherBrand"),
		Model:             r.FormValue("model"),
		PurchaseCostUSD:   pricing.ParseAmount(r.FormValue("purchaseCostUsd")),
		ShippingCostUSD:   pricing.ParseAmount(r.FormValue("shippingCostUsd")),
		ExpectedSalePrice: pricing.ParseAmount(r.FormValue("expectedSalePriceLocal")),
	}
}

func describeAmount(o pricing.Optional) string {
	if !o.Set {
		return "unset"
	}
	return fmt.Sprintf("%g", o.Value)
}
