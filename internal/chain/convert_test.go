package chain

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestToSmallestUnit(t *testing.T) {
	cases := []struct {
		amount   string
		decimals int32
		want     string
	}{
		{"1", 18, "1000000000000000000"},
		{"2.5", 18, "2500000000000000000"},
		{"0.000001", 6, "1"},
		{"0", 18, "0"},
		// Precision beyond the token's decimals truncates, never rounds up.
		{"0.0000000000000000019", 18, "1"},
	}

	for _, c := range cases {
		amount, err := decimal.NewFromString(c.amount)
		if err != nil {
			t.Fatalf("invalid test amount %s: %v", c.amount, err)
		}
		if got := ToSmallestUnit(amount, c.decimals); got.String() != c.want {
			t.Errorf("ToSmallestUnit(%s, %d) = %s, want %s", c.amount, c.decimals, got, c.want)
		}
	}
}

func TestFromSmallestUnit(t *testing.T) {
	units, _ := new(big.Int).SetString("2500000000000000000", 10)
	got := FromSmallestUnit(units, 18)
	if !got.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("FromSmallestUnit = %s, want 2.5", got)
	}
}

func TestFromSmallestUnit_NilIsZero(t *testing.T) {
	if got := FromSmallestUnit(nil, 18); !got.IsZero() {
		t.Errorf("FromSmallestUnit(nil) = %s, want 0", got)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	amounts := []string{"1", "0.5", "123.456789", "0.000000000000000001"}

	for _, raw := range amounts {
		amount := decimal.RequireFromString(raw)
		back := FromSmallestUnit(ToSmallestUnit(amount, 18), 18)
		if !back.Equal(amount) {
			t.Errorf("round trip of %s came back as %s", raw, back)
		}
	}
}
