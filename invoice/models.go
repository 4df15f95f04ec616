package invoice

import (
	"time"

	"github.com/billcore/regie/id"
	"github.com/billcore/regie/types"
)

// PayerSnapshot carries the payer identity as opaque strings captured at
// draft creation. The engine never resolves them against a directory.
type PayerSnapshot struct {
	ExternalID  string `json:"external_id"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Address     string `json:"address,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DirectDebit bool   `json:"direct_debit"`
}

// LineDetails holds the covered dates of a line as a sorted unique list
// of "2006-01-02" strings.
type LineDetails struct {
	Dates []string `json:"dates,omitempty"`
}

// DraftInvoice is a mutable, unnumbered invoice under construction.
// Finalization is the only path producing an immutable Invoice from it.
type DraftInvoice struct {
	types.Entity
	ID      id.DraftInvoiceID `json:"id"`
	RegieID id.RegieID        `json:"regie_id"`
	PoolID  id.PoolID         `json:"pool_id,omitempty"`
	Label   string            `json:"label"`
	Payer   PayerSnapshot     `json:"payer"`

	TotalAmount types.Amount `json:"total_amount"`

	DatePublication     time.Time `json:"date_publication"`
	DatePaymentDeadline time.Time `json:"date_payment_deadline"`
	DateDue             time.Time `json:"date_due"`
	DateDebit           time.Time `json:"date_debit,omitempty"`

	PreviousInvoiceID id.InvoiceID `json:"previous_invoice_id,omitempty"`

	Lines []*DraftLine `json:"lines"`
}

// DraftLine is one billable item on a draft document.
type DraftLine struct {
	ID             id.LineID    `json:"id"`
	Label          string       `json:"label"`
	Quantity       types.Amount `json:"quantity"`
	UnitAmount     types.Amount `json:"unit_amount"`
	TotalAmount    types.Amount `json:"total_amount"`
	EventSlug      string       `json:"event_slug,omitempty"`
	EventLabel     string       `json:"event_label,omitempty"`
	AgendaSlug     string       `json:"agenda_slug,omitempty"`
	ActivityLabel  string       `json:"activity_label,omitempty"`
	Description    string       `json:"description,omitempty"`
	AccountingCode string       `json:"accounting_code,omitempty"`
	UserExternalID string       `json:"user_external_id,omitempty"`
	UserFirstName  string       `json:"user_first_name,omitempty"`
	UserLastName   string       `json:"user_last_name,omitempty"`
	Details        LineDetails  `json:"details"`
	Disabled       bool         `json:"disabled,omitempty"`
}

// Invoice is a finalized, sequentially numbered, immutable document. The
// only mutations it ever accepts are payment bookkeeping, docket linkage
// and terminal cancellation.
type Invoice struct {
	types.Entity
	ID      id.InvoiceID  `json:"id"`
	RegieID id.RegieID    `json:"regie_id"`
	PoolID  id.PoolID     `json:"pool_id,omitempty"`
	Label   string        `json:"label"`
	Payer   PayerSnapshot `json:"payer"`

	Number          int64  `json:"number"`
	FormattedNumber string `json:"formatted_number"`

	TotalAmount     types.Amount `json:"total_amount"`
	PaidAmount      types.Amount `json:"paid_amount"`
	RemainingAmount types.Amount `json:"remaining_amount"`

	DatePublication     time.Time `json:"date_publication"`
	DatePaymentDeadline time.Time `json:"date_payment_deadline"`
	DateDue             time.Time `json:"date_due"`
	DateDebit           time.Time `json:"date_debit,omitempty"`

	PreviousInvoiceID  id.InvoiceID          `json:"previous_invoice_id,omitempty"`
	CollectionDocketID id.CollectionDocketID `json:"collection_docket_id,omitempty"`

	State types.DocumentState `json:"state"`

	Lines []*Line `json:"lines"`
}

// Line is one item of a finalized invoice, tracking its own paid and
// remaining balances for the netting engine.
type Line struct {
	ID              id.LineID    `json:"id"`
	InvoiceID       id.InvoiceID `json:"invoice_id"`
	Label           string       `json:"label"`
	Quantity        types.Amount `json:"quantity"`
	UnitAmount      types.Amount `json:"unit_amount"`
	TotalAmount     types.Amount `json:"total_amount"`
	PaidAmount      types.Amount `json:"paid_amount"`
	RemainingAmount types.Amount `json:"remaining_amount"`
	EventSlug       string       `json:"event_slug,omitempty"`
	EventLabel      string       `json:"event_label,omitempty"`
	AgendaSlug      string       `json:"agenda_slug,omitempty"`
	ActivityLabel   string       `json:"activity_label,omitempty"`
	Description     string       `json:"description,omitempty"`
	AccountingCode  string       `json:"accounting_code,omitempty"`
	UserExternalID  string       `json:"user_external_id,omitempty"`
	UserFirstName   string       `json:"user_first_name,omitempty"`
	UserLastName    string       `json:"user_last_name,omitempty"`
	Details         LineDetails  `json:"details"`
	Disabled        bool         `json:"disabled,omitempty"`
}

// LinesFromDraft converts draft lines into invoice lines with fresh
// balances. Disabled lines carry a zero balance and never receive
// allocations.
func LinesFromDraft(draftLines []*DraftLine, invID id.InvoiceID) []*Line {
	out := make([]*Line, 0, len(draftLines))
	for _, dl := range draftLines {
		remaining := dl.TotalAmount
		if dl.Disabled {
			remaining = types.ZeroAmount
		}
		out = append(out, &Line{
			ID:              dl.ID,
			InvoiceID:       invID,
			Label:           dl.Label,
			Quantity:        dl.Quantity,
			UnitAmount:      dl.UnitAmount,
			TotalAmount:     dl.TotalAmount,
			PaidAmount:      types.ZeroAmount,
			RemainingAmount: remaining,
			EventSlug:       dl.EventSlug,
			EventLabel:      dl.EventLabel,
			AgendaSlug:      dl.AgendaSlug,
			ActivityLabel:   dl.ActivityLabel,
			Description:     dl.Description,
			AccountingCode:  dl.AccountingCode,
			UserExternalID:  dl.UserExternalID,
			UserFirstName:   dl.UserFirstName,
			UserLastName:    dl.UserLastName,
			Details:         LineDetails{Dates: append([]string(nil), dl.Details.Dates...)},
			Disabled:        dl.Disabled,
		})
	}
	return out
}

// TotalOf sums the total amounts of the non-disabled draft lines.
func TotalOf(lines []*DraftLine) types.Amount {
	total := types.ZeroAmount
	for _, l := range lines {
		if l.Disabled {
			continue
		}
		total = total.Add(l.TotalAmount)
	}
	return total
}

// Recompute re-derives the draft's total from its lines. Called after
// every line insert or merge.
func (d *DraftInvoice) Recompute() {
	d.TotalAmount = TotalOf(d.Lines)
}

// Usable is the single activity predicate every mutation and query path
// shares: the invoice is not cancelled and not held by a docket.
func (i *Invoice) Usable() bool {
	return i.State.IsActive() && i.CollectionDocketID.IsNil()
}

// PastDue reports whether the invoice's payment window has elapsed.
func (i *Invoice) PastDue(now time.Time) bool {
	return i.DateDue.Before(truncateDay(now))
}

// HasPDF reports whether a static document can be rendered.
func (i *Invoice) HasPDF() bool {
	return i.State.IsActive()
}

// HasDynamicPDF reports whether a document including current payments can
// be rendered.
func (i *Invoice) HasDynamicPDF() bool {
	return i.State.IsActive() && !i.PaidAmount.IsZero()
}

// HasPaymentsPDF reports whether a paid-in-full receipt can be rendered.
func (i *Invoice) HasPaymentsPDF() bool {
	return i.State.IsActive() && i.TotalAmount.IsPositive() && i.RemainingAmount.IsZero()
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
