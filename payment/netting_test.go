package payment_test

import (
	"testing"

	"github.com/billcore/regie/id"
	"github.com/billcore/regie/payment"
	"github.com/billcore/regie/types"
)

func balance(inv id.InvoiceID, remaining string) payment.LineBalance {
	return payment.LineBalance{
		InvoiceID: inv,
		LineID:    id.NewLineID(),
		Remaining: types.MustAmount(remaining),
	}
}

func TestPlanAllocationsNetting(t *testing.T) {
	inv := id.NewInvoiceID()
	positive := balance(inv, "84")
	reduction := balance(inv, "-42")

	allocations := payment.PlanAllocations([]payment.LineBalance{positive, reduction}, types.AmountFromInt(42))
	if len(allocations) != 2 {
		t.Fatalf("got %d allocations, want 2", len(allocations))
	}

	// Netting rows come first and carry the full negative balance.
	if allocations[0].LineID != reduction.LineID || !allocations[0].Amount.Equal(types.AmountFromInt(-42)) {
		t.Errorf("netting allocation = %+v, want -42 on the reduction line", allocations[0])
	}
	// The freed value tops up the payment for the positive line.
	if allocations[1].LineID != positive.LineID || !allocations[1].Amount.Equal(types.AmountFromInt(84)) {
		t.Errorf("allocation = %+v, want +84 on the positive line", allocations[1])
	}
	// Planned total equals the payment amount.
	if got := payment.AllocatedTotal(allocations); !got.Equal(types.AmountFromInt(42)) {
		t.Errorf("AllocatedTotal = %s, want 42", got)
	}
}

func TestPlanAllocationsPartialLastLine(t *testing.T) {
	inv := id.NewInvoiceID()
	first := balance(inv, "10")
	second := balance(inv, "10")

	allocations := payment.PlanAllocations([]payment.LineBalance{first, second}, types.AmountFromInt(15))
	if len(allocations) != 2 {
		t.Fatalf("got %d allocations, want 2", len(allocations))
	}
	if !allocations[0].Amount.Equal(types.AmountFromInt(10)) {
		t.Errorf("first allocation = %s, want 10", allocations[0].Amount)
	}
	if !allocations[1].Amount.Equal(types.AmountFromInt(5)) {
		t.Errorf("second allocation = %s, want 5 (partial)", allocations[1].Amount)
	}
}

func TestPlanAllocationsOverpayment(t *testing.T) {
	inv := id.NewInvoiceID()
	only := balance(inv, "10")

	allocations := payment.PlanAllocations([]payment.LineBalance{only}, types.AmountFromInt(12))
	if len(allocations) != 1 {
		t.Fatalf("got %d allocations, want 1", len(allocations))
	}
	// The excess 2 has no receiving line; it is accepted, not allocated.
	if !allocations[0].Amount.Equal(types.AmountFromInt(10)) {
		t.Errorf("allocation = %s, want 10", allocations[0].Amount)
	}
	if got := payment.AllocatedTotal(allocations); !got.Equal(types.AmountFromInt(10)) {
		t.Errorf("AllocatedTotal = %s, want 10", got)
	}
}

func TestPlanAllocationsSettledLines(t *testing.T) {
	inv := id.NewInvoiceID()
	settled := balance(inv, "0")

	if got := payment.PlanAllocations([]payment.LineBalance{settled}, types.AmountFromInt(5)); len(got) != 0 {
		t.Errorf("got %d allocations for settled lines, want 0", len(got))
	}
}

func TestPlanAllocationsMultiInvoiceOrder(t *testing.T) {
	invA := id.NewInvoiceID()
	invB := id.NewInvoiceID()
	a := balance(invA, "20")
	b := balance(invB, "20")

	allocations := payment.PlanAllocations([]payment.LineBalance{a, b}, types.AmountFromInt(25))
	if len(allocations) != 2 {
		t.Fatalf("got %d allocations, want 2", len(allocations))
	}
	if allocations[0].InvoiceID != invA || !allocations[0].Amount.Equal(types.AmountFromInt(20)) {
		t.Errorf("first allocation = %+v, want 20 on the first invoice", allocations[0])
	}
	if allocations[1].InvoiceID != invB || !allocations[1].Amount.Equal(types.AmountFromInt(5)) {
		t.Errorf("second allocation = %+v, want 5 on the second invoice", allocations[1])
	}
}

func TestPlanAllocationsExactDecimals(t *testing.T) {
	inv := id.NewInvoiceID()
	l := balance(inv, "3.33")

	allocations := payment.PlanAllocations([]payment.LineBalance{l}, types.MustAmount("3.33"))
	if len(allocations) != 1 || !allocations[0].Amount.Equal(types.MustAmount("3.33")) {
		t.Fatalf("allocations = %+v, want one exact 3.33", allocations)
	}
}
