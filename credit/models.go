// Package credit models finalized credits, their draft form, and the
// assignment rows linking credit balance consumed onto invoices.
package credit

import (
	"fmt"
	"time"

	"github.com/billcore/regie/id"
	"github.com/billcore/regie/invoice"
	"github.com/billcore/regie/types"
)

// DraftCredit mirrors invoice.DraftInvoice for negative billing runs.
// A draft whose aggregated lines sum negative is promoted to a credit
// with inverted quantities.
type DraftCredit struct {
	types.Entity
	ID      id.DraftCreditID      `json:"id"`
	RegieID id.RegieID            `json:"regie_id"`
	PoolID  id.PoolID             `json:"pool_id,omitempty"`
	Label   string                `json:"label"`
	Payer   invoice.PayerSnapshot `json:"payer"`

	TotalAmount types.Amount `json:"total_amount"`

	DatePublication time.Time `json:"date_publication"`

	Lines []*invoice.DraftLine `json:"lines"`
}

// Recompute re-derives the draft's total from its non-disabled lines.
func (d *DraftCredit) Recompute() {
	d.TotalAmount = invoice.TotalOf(d.Lines)
}

// Credit is a finalized, numbered credit document holding payer balance.
// AssignedAmount plus RemainingAmount always equals TotalAmount.
type Credit struct {
	types.Entity
	ID      id.CreditID           `json:"id"`
	RegieID id.RegieID            `json:"regie_id"`
	PoolID  id.PoolID             `json:"pool_id,omitempty"`
	Label   string                `json:"label"`
	Payer   invoice.PayerSnapshot `json:"payer"`

	Number          int64  `json:"number"`
	FormattedNumber string `json:"formatted_number"`

	TotalAmount     types.Amount `json:"total_amount"`
	AssignedAmount  types.Amount `json:"assigned_amount"`
	RemainingAmount types.Amount `json:"remaining_amount"`

	DatePublication time.Time `json:"date_publication"`

	// Usable gates automatic assignment; an imported or disputed credit
	// can be parked without cancelling it.
	UsableFlag bool `json:"usable"`

	State types.DocumentState `json:"state"`

	Lines []*invoice.Line `json:"lines"`
}

// Usable is the shared activity predicate for credits: active, flagged
// usable, and with balance left to assign.
func (c *Credit) Usable() bool {
	return c.State.IsActive() && c.UsableFlag && c.RemainingAmount.IsPositive()
}

// DefaultLabel returns the label given to credits produced by promoting a
// negative draft.
func DefaultLabel(at time.Time) string {
	return fmt.Sprintf("Credit from %s", at.UTC().Format("02/01/2006"))
}

// Assignment records credit balance applied to one invoice through one
// synthetic credit-type payment.
type Assignment struct {
	types.Entity
	ID        id.AssignmentID `json:"id"`
	RegieID   id.RegieID      `json:"regie_id"`
	CreditID  id.CreditID     `json:"credit_id"`
	InvoiceID id.InvoiceID    `json:"invoice_id"`
	PaymentID id.PaymentID    `json:"payment_id"`
	Amount    types.Amount    `json:"amount"`
}
