package credit_test

import (
	"testing"

	"github.com/billcore/regie/credit"
	"github.com/billcore/regie/id"
	"github.com/billcore/regie/types"
)

func usableCredit(remaining string) *credit.Credit {
	r := types.MustAmount(remaining)
	return &credit.Credit{
		ID:              id.NewCreditID(),
		TotalAmount:     r,
		RemainingAmount: r,
		UsableFlag:      true,
		State:           types.ActiveState(),
	}
}

func TestPlanDrawdownFIFO(t *testing.T) {
	a := usableCredit("5")
	b := usableCredit("5")

	draws := credit.PlanDrawdown([]*credit.Credit{a, b}, types.AmountFromInt(42))
	if len(draws) != 2 {
		t.Fatalf("got %d draws, want 2", len(draws))
	}
	if draws[0].CreditID != a.ID || !draws[0].Amount.Equal(types.AmountFromInt(5)) {
		t.Errorf("first draw = %+v, want 5 from first credit", draws[0])
	}
	if draws[1].CreditID != b.ID || !draws[1].Amount.Equal(types.AmountFromInt(5)) {
		t.Errorf("second draw = %+v, want 5 from second credit", draws[1])
	}
}

func TestPlanDrawdownOvershoot(t *testing.T) {
	c := usableCredit("43")

	draws := credit.PlanDrawdown([]*credit.Credit{c}, types.AmountFromInt(42))
	if len(draws) != 1 {
		t.Fatalf("got %d draws, want 1", len(draws))
	}
	if !draws[0].Amount.Equal(types.AmountFromInt(42)) {
		t.Errorf("draw amount = %s, want 42", draws[0].Amount)
	}

	credit.ApplyDraw(c, draws[0].Amount)
	if !c.RemainingAmount.Equal(types.AmountFromInt(1)) {
		t.Errorf("remaining = %s, want 1", c.RemainingAmount)
	}
	if !c.AssignedAmount.Equal(types.AmountFromInt(42)) {
		t.Errorf("assigned = %s, want 42", c.AssignedAmount)
	}
	if !c.AssignedAmount.Add(c.RemainingAmount).Equal(c.TotalAmount) {
		t.Error("assigned + remaining must equal total")
	}
}

func TestPlanDrawdownStopsWhenCovered(t *testing.T) {
	a := usableCredit("50")
	b := usableCredit("50")

	draws := credit.PlanDrawdown([]*credit.Credit{a, b}, types.AmountFromInt(30))
	if len(draws) != 1 {
		t.Fatalf("got %d draws, want 1", len(draws))
	}
	if draws[0].CreditID != a.ID || !draws[0].Amount.Equal(types.AmountFromInt(30)) {
		t.Errorf("draw = %+v, want 30 from first credit", draws[0])
	}
}

func TestPlanDrawdownSkipsUnusable(t *testing.T) {
	exhausted := usableCredit("0")
	cancelled := usableCredit("10")
	cancelled.State = types.CancelledState(cancelled.CreatedAt, "tester", "error", "")
	parked := usableCredit("10")
	parked.UsableFlag = false
	good := usableCredit("10")

	draws := credit.PlanDrawdown([]*credit.Credit{exhausted, cancelled, parked, good}, types.AmountFromInt(7))
	if len(draws) != 1 {
		t.Fatalf("got %d draws, want 1", len(draws))
	}
	if draws[0].CreditID != good.ID || !draws[0].Amount.Equal(types.AmountFromInt(7)) {
		t.Errorf("draw = %+v, want 7 from the usable credit", draws[0])
	}
}

func TestPlanDrawdownNoNeed(t *testing.T) {
	if draws := credit.PlanDrawdown([]*credit.Credit{usableCredit("5")}, types.ZeroAmount); len(draws) != 0 {
		t.Errorf("got %d draws for zero need, want 0", len(draws))
	}
}
