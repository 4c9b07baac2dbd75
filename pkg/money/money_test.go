package money

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in       string
		currency string
		want     int64
		wantErr  bool
	}{
		{in: "1234.56", currency: "BRL", want: 123456},
		{in: "0.01", currency: "BRL", want: 1},
		{in: "1500", currency: "BRL", want: 150000},
		{in: " 99.90 ", currency: "", want: 9990},
		{in: "10.005", currency: "BRL", wantErr: true},
		{in: "abc", currency: "BRL", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseDecimal(tc.in, tc.currency)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDecimal(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDecimal(%q): %v", tc.in, err)
			continue
		}
		if got.Amount() != tc.want {
			t.Errorf("ParseDecimal(%q) = %d, want %d", tc.in, got.Amount(), tc.want)
		}
	}
}

func TestAddRejectsMixedCurrencies(t *testing.T) {
	_, err := New(100, "BRL").Add(New(100, "USD"))
	if !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
}

func TestAddSub(t *testing.T) {
	a := New(1050, "BRL")
	b := New(950, "BRL")

	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if sum.Amount() != 2000 {
		t.Fatalf("sum = %d, want 2000", sum.Amount())
	}

	diff, err := a.Sub(b)
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	if diff.Amount() != 100 {
		t.Fatalf("diff = %d, want 100", diff.Amount())
	}
}

func TestSplitEvenRemainderGoesLast(t *testing.T) {
	parts := New(100, "BRL").SplitEven(3)
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if parts[0].Amount() != 33 || parts[1].Amount() != 33 {
		t.Fatalf("leading parts = %d, %d, want 33, 33", parts[0].Amount(), parts[1].Amount())
	}
	if parts[2].Amount() != 34 {
		t.Fatalf("last part = %d, want 34", parts[2].Amount())
	}

	var total int64
	for _, p := range parts {
		total += p.Amount()
	}
	if total != 100 {
		t.Fatalf("split total = %d, want 100", total)
	}
}

func TestDecimalString(t *testing.T) {
	if got := New(123456, "BRL").DecimalString(); got != "1234.56" {
		t.Fatalf("DecimalString = %q, want %q", got, "1234.56")
	}
	if got := New(-50, "BRL").DecimalString(); got != "-0.50" {
		t.Fatalf("DecimalString = %q, want %q", got, "-0.50")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(New(9990, "BRL"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Money
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Amount() != 9990 || back.Currency() != "BRL" {
		t.Fatalf("round trip = %+v", back)
	}
}
