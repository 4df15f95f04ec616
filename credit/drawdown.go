package credit

import (
	"github.com/billcore/regie/id"
	"github.com/billcore/regie/types"
)

// Draw is one planned consumption of a single credit's balance.
type Draw struct {
	CreditID id.CreditID
	Amount   types.Amount
}

// PlanDrawdown walks usable credits in the order given (oldest publication
// first, then id) and plans FIFO consumption against need. Each draw takes
// min(credit remaining, still needed); planning stops once need is covered
// or credits run out. Credits with nothing left contribute no draw, which
// is what makes re-running assignment on a settled invoice a no-op.
func PlanDrawdown(credits []*Credit, need types.Amount) []Draw {
	draws := make([]Draw, 0, len(credits))
	for _, c := range credits {
		if !need.IsPositive() {
			break
		}
		if !c.Usable() {
			continue
		}
		amount := types.MinAmount(c.RemainingAmount, need)
		draws = append(draws, Draw{CreditID: c.ID, Amount: amount})
		need = need.Sub(amount)
	}
	return draws
}

// ApplyDraw moves amount from remaining to assigned on the credit. The
// caller persists it with a compare-and-set on the previously read
// remaining amount so that concurrent finalizations cannot double-spend.
func ApplyDraw(c *Credit, amount types.Amount) {
	c.RemainingAmount = c.RemainingAmount.Sub(amount)
	c.AssignedAmount = c.AssignedAmount.Add(amount)
	c.Touch()
}
