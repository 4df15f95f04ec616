package docket_test

import (
	"testing"
	"time"

	"github.com/billcore/regie/docket"
	"github.com/billcore/regie/id"
	"github.com/billcore/regie/types"
)

var end = time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

func collectionDocket(threshold string) *docket.CollectionDocket {
	return &docket.CollectionDocket{
		ID:               id.NewCollectionDocketID(),
		RegieID:          id.NewRegieID(),
		DateEnd:          end,
		MinimumThreshold: types.MustAmount(threshold),
		State:            types.ActiveState(),
	}
}

func candidate(payer, remaining string, due time.Time) docket.InvoiceCandidate {
	return docket.InvoiceCandidate{
		ID:              id.NewInvoiceID(),
		PayerExternalID: payer,
		RemainingAmount: types.MustAmount(remaining),
		DateDue:         due,
		Active:          true,
	}
}

func has[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func TestPlanCollectionMembershipAttach(t *testing.T) {
	d := collectionDocket("0")
	due := end.AddDate(0, 0, -5)

	matching := candidate("payer:1", "30", due)
	paid := candidate("payer:2", "0", due)
	notDue := candidate("payer:3", "30", end.AddDate(0, 0, 5))
	cancelled := candidate("payer:4", "30", due)
	cancelled.Active = false
	elsewhere := candidate("payer:5", "30", due)
	elsewhere.DocketID = id.NewCollectionDocketID()

	diff := docket.PlanCollectionMembership(d, []docket.InvoiceCandidate{matching, paid, notDue, cancelled, elsewhere})

	if len(diff.Attach) != 1 || !has(diff.Attach, matching.ID) {
		t.Errorf("Attach = %v, want only the matching invoice", diff.Attach)
	}
	if len(diff.Detach) != 0 {
		t.Errorf("Detach = %v, want none", diff.Detach)
	}
}

func TestPlanCollectionMembershipThresholdAllOrNothing(t *testing.T) {
	d := collectionDocket("50")
	due := end.AddDate(0, 0, -5)

	// payer:rich owes 30+25 = 55, above threshold: both attach.
	rich1 := candidate("payer:rich", "30", due)
	rich2 := candidate("payer:rich", "25", due)
	// payer:poor owes 30+15 = 45, below threshold: neither attaches.
	poor1 := candidate("payer:poor", "30", due)
	poor2 := candidate("payer:poor", "15", due)

	diff := docket.PlanCollectionMembership(d, []docket.InvoiceCandidate{rich1, rich2, poor1, poor2})

	if len(diff.Attach) != 2 || !has(diff.Attach, rich1.ID) || !has(diff.Attach, rich2.ID) {
		t.Errorf("Attach = %v, want both rich invoices", diff.Attach)
	}
	if has(diff.Attach, poor1.ID) || has(diff.Attach, poor2.ID) {
		t.Error("below-threshold payer must contribute no invoices at all")
	}
}

func TestPlanCollectionMembershipDetach(t *testing.T) {
	d := collectionDocket("50")
	due := end.AddDate(0, 0, -5)

	// Was attached but meanwhile paid off: detach.
	settled := candidate("payer:1", "0", due)
	settled.DocketID = d.ID
	// Was attached and its payer dropped below the threshold: detach too.
	below := candidate("payer:2", "40", due)
	below.DocketID = d.ID

	diff := docket.PlanCollectionMembership(d, []docket.InvoiceCandidate{settled, below})

	if len(diff.Detach) != 2 || !has(diff.Detach, settled.ID) || !has(diff.Detach, below.ID) {
		t.Errorf("Detach = %v, want both stale members", diff.Detach)
	}
	if len(diff.Attach) != 0 {
		t.Errorf("Attach = %v, want none", diff.Attach)
	}
}

func TestPlanCollectionMembershipIdempotent(t *testing.T) {
	d := collectionDocket("10")
	due := end.AddDate(0, 0, -5)

	member := candidate("payer:1", "30", due)
	member.DocketID = d.ID

	diff := docket.PlanCollectionMembership(d, []docket.InvoiceCandidate{member})
	if !diff.Empty() {
		t.Errorf("diff = %+v, want empty for unchanged criteria", diff)
	}
}

func TestPlanPaymentMembership(t *testing.T) {
	d := &docket.PaymentDocket{
		ID:               id.NewPaymentDocketID(),
		RegieID:          id.NewRegieID(),
		DateEnd:          end,
		PaymentTypeSlugs: []string{"check", "cash"},
		State:            types.ActiveState(),
	}
	before := end.AddDate(0, 0, -1)

	check := docket.PaymentCandidate{ID: id.NewPaymentID(), PaymentTypeSlug: "check", ReceivedAt: before, Active: true}
	card := docket.PaymentCandidate{ID: id.NewPaymentID(), PaymentTypeSlug: "creditcard", ReceivedAt: before, Active: true}
	late := docket.PaymentCandidate{ID: id.NewPaymentID(), PaymentTypeSlug: "cash", ReceivedAt: end, Active: true}
	member := docket.PaymentCandidate{ID: id.NewPaymentID(), PaymentTypeSlug: "cash", ReceivedAt: before, Active: true, DocketID: d.ID}
	staleMember := docket.PaymentCandidate{ID: id.NewPaymentID(), PaymentTypeSlug: "creditcard", ReceivedAt: before, Active: true, DocketID: d.ID}
	elsewhere := docket.PaymentCandidate{ID: id.NewPaymentID(), PaymentTypeSlug: "check", ReceivedAt: before, Active: true, DocketID: id.NewPaymentDocketID()}

	diff := docket.PlanPaymentMembership(d, []docket.PaymentCandidate{check, card, late, member, staleMember, elsewhere})

	if len(diff.Attach) != 1 || !has(diff.Attach, check.ID) {
		t.Errorf("Attach = %v, want only the matching check payment", diff.Attach)
	}
	if len(diff.Detach) != 1 || !has(diff.Detach, staleMember.ID) {
		t.Errorf("Detach = %v, want only the stale member", diff.Detach)
	}

	// Applying the diff and re-planning yields no further changes.
	check.DocketID = d.ID
	staleMember.DocketID = id.PaymentDocketID{}
	again := docket.PlanPaymentMembership(d, []docket.PaymentCandidate{check, card, late, member, staleMember, elsewhere})
	if !again.Empty() {
		t.Errorf("second plan = %+v, want empty", again)
	}
}
