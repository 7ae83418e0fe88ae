package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyRoundsHalfUpToTwoDecimals(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "19.995", want: "20.00"},
		{input: "19.994", want: "19.99"},
		{input: "0.005", want: "0.01"},
		{input: "2.675", want: "2.68"},
		{input: "10", want: "10.00"},
	}
	for _, tc := range cases {
		money, err := NewMoneyFromString(tc.input)
		if err != nil {
			t.Fatalf("parse %s failed: %v", tc.input, err)
		}
		if money.String() != tc.want {
			t.Fatalf("%s want %s got %s", tc.input, tc.want, money.String())
		}
	}
}

func TestMoneyMulInt(t *testing.T) {
	price := NewMoneyFromDecimal(decimal.RequireFromString("5.99"))
	if got := price.MulInt(2).String(); got != "11.98" {
		t.Fatalf("5.99×2 want 11.98 got %s", got)
	}
	if got := price.MulInt(0).String(); got != "0.00" {
		t.Fatalf("5.99×0 want 0.00 got %s", got)
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	price := NewMoneyFromDecimal(decimal.RequireFromString("7.5"))
	raw, err := json.Marshal(price)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(raw) != `"7.50"` {
		t.Fatalf("marshal want \"7.50\" got %s", raw)
	}

	var parsed Money
	if err := json.Unmarshal([]byte(`"19.995"`), &parsed); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if parsed.String() != "20.00" {
		t.Fatalf("unmarshal want 20.00 got %s", parsed.String())
	}
	if err := json.Unmarshal([]byte(`3.4`), &parsed); err != nil {
		t.Fatalf("unmarshal number failed: %v", err)
	}
	if parsed.String() != "3.40" {
		t.Fatalf("unmarshal number want 3.40 got %s", parsed.String())
	}
}
