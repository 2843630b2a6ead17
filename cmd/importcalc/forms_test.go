package main

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Simplici0/importcalc/internal/pricing"
)

func TestParseNonNegativeFloat(t *testing.T) {
	cases := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{raw: "1,199", want: 1199},
		{raw: " 30.5 ", want: 30.5},
		{raw: "0", want: 0},
		{raw: "-5", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "1,5", wantErr: true},
		{raw: "1e12", want: 1e12},
		{raw: "2e12", wantErr: true},
		{raw: "1e307", wantErr: true},
	}

	for _, tc := range cases {
		got, err := parseNonNegativeFloat(tc.raw, "amount")
		if tc.wantErr {
			var fe *fieldError
			if !errors.As(err, &fe) || fe.Field != "amount" {
				t.Fatalf("%q: expected field error, got %v", tc.raw, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: got %v, %v; want %v", tc.raw, got, err, tc.want)
		}
	}
}

func TestParsePercent_ReturnsFraction(t *testing.T) {
	got, err := parsePercent("18", "gstLowPercent")
	if err != nil || got != 0.18 {
		t.Fatalf("got %v, %v", got, err)
	}
	if _, err := parsePercent("100.5", "gstLowPercent"); err == nil {
		t.Fatalf("expected range error")
	}
}

func TestParseSettingsForm_KeepsAbsentFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/settings", nil)
	req.Form = url.Values{"gstHighPercent": {"30"}, "gstThresholdUsd": {"600"}}

	got, err := parseSettingsForm(req, pricing.DefaultSettings())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.GSTHighRate != 0.3 || got.GSTThresholdUSD != 600 {
		t.Fatalf("unexpected settings: %+v", got)
	}
	if got.ExchangeRate != 278 || got.GSTLowRate != 0.18 || !got.AnimationsEnabled {
		t.Fatalf("absent fields changed: %+v", got)
	}
}

func TestParseSettingsForm_RejectsBadBool(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/settings", nil)
	req.Form = url.Values{"animationsEnabled": {"sometimes"}}

	if _, err := parseSettingsForm(req, pricing.DefaultSettings()); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestParseQuoteForm_LenientAmounts(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/quote", nil)
	req.Form = url.Values{
		"purchaseCostUsd":        {"-40"},
		"shippingCostUsd":        {"n/a"},
		"expectedSalePriceLocal": {"0"},
	}

	in := parseQuoteForm(req)
	if in.PurchaseCostUSD != 0 || in.ShippingCostUSD != 0 {
		t.Fatalf("expected coerced costs, got %+v", in)
	}
	if !in.ExpectedSalePrice.Set || in.ExpectedSalePrice.Value != 0 {
		t.Fatalf("a zero sale price is a value, got %+v", in.ExpectedSalePrice)
	}
}

func TestParseDraftForm(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/devices", nil)
	req.Form = url.Values{
		"brand":                  {"Other"},
		"otherBrand":             {"Fairphone"},
		"model":                  {"5"},
		"purchaseCostUsd":        {"699"},
		"expectedSalePriceLocal": {""},
	}

	d := parseDraftForm(req)
	if d.Brand != "Other" || d.OtherBrand != "Fairphone" || d.Model != "5" {
		t.Fatalf("unexpected draft: %+v", d)
	}
	if !d.PurchaseCostUSD.Set || d.ShippingCostUSD.Set || d.ExpectedSalePrice.Set {
		t.Fatalf("unexpected amounts: %+v", d)
	}
}
