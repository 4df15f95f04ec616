package docket

import (
	"time"

	"github.com/billcore/regie/id"
	"github.com/billcore/regie/types"
)

// InvoiceCandidate is the membership-relevant snapshot of one invoice of
// the docket's regie.
type InvoiceCandidate struct {
	ID              id.InvoiceID
	PayerExternalID string
	RemainingAmount types.Amount
	DateDue         time.Time
	DocketID        id.CollectionDocketID
	Active          bool
}

// PaymentCandidate is the membership-relevant snapshot of one payment of
// the docket's regie.
type PaymentCandidate struct {
	ID              id.PaymentID
	PaymentTypeSlug string
	ReceivedAt      time.Time
	DocketID        id.PaymentDocketID
	Active          bool
}

// Diff lists the membership changes a sync must apply atomically.
// Applying an empty diff is the no-op that makes sync idempotent.
type Diff[T comparable] struct {
	Attach []T
	Detach []T
}

// Empty reports whether the diff changes nothing.
func (d Diff[T]) Empty() bool {
	return len(d.Attach) == 0 && len(d.Detach) == 0
}

// PlanCollectionMembership reconciles a collection docket's membership
// against its criteria. An invoice matches when it is active, still owes
// money and is due strictly before the docket's end date. Inclusion is
// all-or-nothing per payer: unless the payer's matching invoices together
// reach the minimum threshold, none are attached and previously attached
// ones are detached. Invoices held by a different docket are never touched.
func PlanCollectionMembership(d *CollectionDocket, candidates []InvoiceCandidate) Diff[id.InvoiceID] {
	matches := func(c InvoiceCandidate) bool {
		return c.Active && c.RemainingAmount.IsPositive() && c.DateDue.Before(d.DateEnd)
	}

	// Group the reachable matching invoices per payer: free ones plus
	// those already in this docket.
	totals := make(map[string]types.Amount)
	for _, c := range candidates {
		if !matches(c) {
			continue
		}
		if !c.DocketID.IsNil() && c.DocketID != d.ID {
			continue
		}
		totals[c.PayerExternalID] = totals[c.PayerExternalID].Add(c.RemainingAmount)
	}

	var diff Diff[id.InvoiceID]
	for _, c := range candidates {
		inThis := c.DocketID == d.ID && !c.DocketID.IsNil()
		eligible := matches(c) && totals[c.PayerExternalID].GreaterThanOrEqual(d.MinimumThreshold)

		switch {
		case inThis && !eligible:
			diff.Detach = append(diff.Detach, c.ID)
		case !inThis && eligible && c.DocketID.IsNil():
			diff.Attach = append(diff.Attach, c.ID)
		}
	}
	return diff
}

// PlanPaymentMembership reconciles a payment docket's membership: active
// payments of one of the selected types received strictly before the end
// date belong in the docket. Payments held by a different docket are never
// touched.
func PlanPaymentMembership(d *PaymentDocket, candidates []PaymentCandidate) Diff[id.PaymentID] {
	selected := make(map[string]bool, len(d.PaymentTypeSlugs))
	for _, s := range d.PaymentTypeSlugs {
		selected[s] = true
	}

	matches := func(c PaymentCandidate) bool {
		return c.Active && selected[c.PaymentTypeSlug] && c.ReceivedAt.Before(d.DateEnd)
	}

	var diff Diff[id.PaymentID]
	for _, c := range candidates {
		inThis := c.DocketID == d.ID && !c.DocketID.IsNil()

		switch {
		case inThis && !matches(c):
			diff.Detach = append(diff.Detach, c.ID)
		case !inThis && matches(c) && c.DocketID.IsNil():
			diff.Attach = append(diff.Attach, c.ID)
		}
	}
	return diff
}
