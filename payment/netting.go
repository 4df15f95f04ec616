package payment

import (
	"github.com/billcore/regie/id"
	"github.com/billcore/regie/types"
)

// LineBalance is a snapshot of one invoice line's remaining balance, in
// allocation order: (invoice id, line id) ascending.
type LineBalance struct {
	InvoiceID id.InvoiceID
	LineID    id.LineID
	Remaining types.Amount
}

// Allocation is one planned InvoiceLinePayment amount.
type Allocation struct {
	InvoiceID id.InvoiceID
	LineID    id.LineID
	Amount    types.Amount
}

// PlanAllocations splits a payment amount across invoice lines in two
// deterministic passes.
//
// Netting pass: every line with a negative remaining balance (an unnetted
// reduction) receives a negative allocation of that full balance. It does
// not consume the payment amount; the offset value becomes available to
// the positive lines instead.
//
// Allocation pass: positive-remaining lines are walked in order, each
// taking min(remaining, available) until the available amount runs out.
// The last consumed line may receive a partial amount.
//
// Amount left after all lines are settled is accepted as an over-payment
// with no receiving line; callers are expected to cap the amount at the
// invoice's remaining balance, the planner tolerates excess for rounding.
func PlanAllocations(lines []LineBalance, amount types.Amount) []Allocation {
	allocations := make([]Allocation, 0, len(lines))
	available := amount

	for _, l := range lines {
		if l.Remaining.IsNegative() {
			allocations = append(allocations, Allocation{
				InvoiceID: l.InvoiceID,
				LineID:    l.LineID,
				Amount:    l.Remaining,
			})
			available = available.Sub(l.Remaining)
		}
	}

	for _, l := range lines {
		if !available.IsPositive() {
			break
		}
		if !l.Remaining.IsPositive() {
			continue
		}
		take := types.MinAmount(l.Remaining, available)
		allocations = append(allocations, Allocation{
			InvoiceID: l.InvoiceID,
			LineID:    l.LineID,
			Amount:    take,
		})
		available = available.Sub(take)
	}

	return allocations
}

// AllocatedTotal sums the planned allocation amounts. For a fully
// consumed payment it equals the payment amount; netting rows cancel out
// against the value they free up.
func AllocatedTotal(allocations []Allocation) types.Amount {
	total := types.ZeroAmount
	for _, a := range allocations {
		total = total.Add(a.Amount)
	}
	return total
}
