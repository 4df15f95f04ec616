package types_test

import (
	"testing"
	"time"

	"github.com/billcore/regie/types"
)

func TestAmountFromString(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"42", "42", true},
		{"42.50", "42.5", true},
		{"-12.34", "-12.34", true},
		{"0", "0", true},
		{"abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := types.AmountFromString(tt.in)
			if tt.ok != (err == nil) {
				t.Fatalf("AmountFromString(%q) err = %v, want ok = %v", tt.in, err, tt.ok)
			}
			if tt.ok && got.String() != tt.want {
				t.Errorf("AmountFromString(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestAmountExactness(t *testing.T) {
	// 0.1 + 0.2 must be exactly 0.3, not the float64 approximation.
	a := types.MustAmount("0.1")
	b := types.MustAmount("0.2")
	if got := a.Add(b); !got.Equal(types.MustAmount("0.3")) {
		t.Errorf("0.1 + 0.2 = %s, want 0.3", got)
	}

	// quantity * unit_amount stays exact for fractional quantities.
	qty := types.MustAmount("1.5")
	unit := types.MustAmount("3.33")
	if got := qty.Mul(unit); !got.Equal(types.MustAmount("4.995")) {
		t.Errorf("1.5 * 3.33 = %s, want 4.995", got)
	}
}

func TestMinAmount(t *testing.T) {
	tests := []struct {
		a, b, want string
	}{
		{"5", "43", "5"},
		{"43", "5", "5"},
		{"7", "7", "7"},
		{"-1", "0", "-1"},
	}

	for _, tt := range tests {
		got := types.MinAmount(types.MustAmount(tt.a), types.MustAmount(tt.b))
		if !got.Equal(types.MustAmount(tt.want)) {
			t.Errorf("MinAmount(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSumAmounts(t *testing.T) {
	got := types.SumAmounts(
		types.MustAmount("84"),
		types.MustAmount("-42"),
	)
	if !got.Equal(types.AmountFromInt(42)) {
		t.Errorf("SumAmounts = %s, want 42", got)
	}

	if !types.SumAmounts().IsZero() {
		t.Error("SumAmounts() of nothing should be zero")
	}
}

func TestDocumentState(t *testing.T) {
	active := types.ActiveState()
	if !active.IsActive() || active.IsCancelled() {
		t.Error("ActiveState should be active and not cancelled")
	}

	at := time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC)
	cancelled := types.CancelledState(at, "agent-7", "error", "wrong payer")
	if cancelled.IsActive() || !cancelled.IsCancelled() {
		t.Error("CancelledState should be cancelled")
	}
	if cancelled.Cancelled.At != at {
		t.Errorf("Cancelled.At = %v, want %v", cancelled.Cancelled.At, at)
	}
	if cancelled.Cancelled.By != "agent-7" || cancelled.Cancelled.Reason != "error" {
		t.Errorf("unexpected cancellation fields: %+v", cancelled.Cancelled)
	}
}
