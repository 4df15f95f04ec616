// Package store defines the unified persistence interface for the billing
// engine. Backends compose the per-domain CRUD contracts and implement the
// multi-row transitions as single atomic operations; the engine never
// stitches a financial transition together from separate CRUD calls.
package store

import (
	"context"
	"time"

	"github.com/billcore/regie/billing"
	"github.com/billcore/regie/campaign"
	"github.com/billcore/regie/credit"
	"github.com/billcore/regie/docket"
	"github.com/billcore/regie/id"
	"github.com/billcore/regie/invoice"
	"github.com/billcore/regie/payment"
	"github.com/billcore/regie/types"
)

// Store is the complete persistence contract. Every composite method runs
// in exactly one transaction: it either applies fully or not at all.
// Serialization conflicts surface as retryable errors, never as silent
// skips or duplicates.
type Store interface {
	billing.Store
	campaign.Store
	invoice.Store
	credit.Store
	payment.Store
	docket.Store

	// FinalizeDraftInvoice closes a draft: allocates the next invoice
	// number for (regie, month), copies the draft and its lines into an
	// immutable invoice, deletes the draft, and runs credit assignment
	// against the new invoice unless its due date has already passed.
	// A draft with a negative total is rejected without consuming a
	// number.
	FinalizeDraftInvoice(ctx context.Context, params FinalizeInvoiceParams) (*FinalizeInvoiceResult, error)

	// FinalizeDraftCredit closes a draft credit into a numbered credit.
	FinalizeDraftCredit(ctx context.Context, params FinalizeCreditParams) (*FinalizeCreditResult, error)

	// AssignCredits applies the payer's usable credit balance to the
	// invoice via synthetic credit-type payments. Re-running on a
	// settled invoice creates nothing.
	AssignCredits(ctx context.Context, invID id.InvoiceID, now time.Time) (*AssignCreditsResult, error)

	// ApplyPayment registers one payment and allocates it across the
	// target invoices' lines with the two-pass netting algorithm.
	ApplyPayment(ctx context.Context, params ApplyPaymentParams) (*ApplyPaymentResult, error)

	// SyncCollectionDocket reconciles the docket's invoice membership
	// against its criteria and returns the applied diff.
	SyncCollectionDocket(ctx context.Context, docketID id.CollectionDocketID) (docket.Diff[id.InvoiceID], error)

	// SyncPaymentDocket reconciles the docket's payment membership
	// against its criteria and returns the applied diff.
	SyncPaymentDocket(ctx context.Context, docketID id.PaymentDocketID) (docket.Diff[id.PaymentID], error)

	// CollectDocketPayments registers one collect-type payment per
	// member invoice of a collection docket, settling its remaining
	// amount.
	CollectDocketPayments(ctx context.Context, docketID id.CollectionDocketID, now time.Time) (*CollectResult, error)

	// CancelInvoice terminally cancels an invoice that has no payment
	// history and is held by no docket.
	CancelInvoice(ctx context.Context, invID id.InvoiceID, c types.Cancellation) (*invoice.Invoice, error)

	// CancelCredit terminally cancels a credit that has no assignment
	// history.
	CancelCredit(ctx context.Context, creditID id.CreditID, c types.Cancellation) (*credit.Credit, error)

	// CancelPayment cancels a payment and deletes its allocation and
	// assignment rows, restoring invoice balances and credit balances.
	// A cancelled payment is defined as never having validly applied.
	CancelPayment(ctx context.Context, payID id.PaymentID, c types.Cancellation) (*payment.Payment, error)

	// CancelCollectionDocket cancels the docket and detaches its members.
	CancelCollectionDocket(ctx context.Context, docketID id.CollectionDocketID, c types.Cancellation) (*docket.CollectionDocket, error)

	// CancelPaymentDocket cancels the docket and detaches its members.
	CancelPaymentDocket(ctx context.Context, docketID id.PaymentDocketID, c types.Cancellation) (*docket.PaymentDocket, error)

	// PropagateCampaignDates persists the campaign's dates and copies
	// them onto every draft and finalized invoice of its pools; the
	// debit date reaches only direct-debit payers.
	PropagateCampaignDates(ctx context.Context, c *campaign.Campaign) error

	// Ping verifies connectivity to the underlying storage.
	Ping(ctx context.Context) error

	// Migrate applies schema migrations.
	Migrate(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// FinalizeInvoiceParams drives one draft invoice finalization.
type FinalizeInvoiceParams struct {
	DraftID id.DraftInvoiceID
	Now     time.Time
	// SkipAssignment disables the credit-assignment step regardless of
	// the due date.
	SkipAssignment bool
}

// FinalizeInvoiceResult reports the produced document and any credit
// assignments that settled part of it.
type FinalizeInvoiceResult struct {
	Invoice     *invoice.Invoice
	Payments    []*payment.Payment
	Assignments []*credit.Assignment
}

// FinalizeCreditParams drives one draft credit finalization.
type FinalizeCreditParams struct {
	DraftID id.DraftCreditID
	Now     time.Time
}

// FinalizeCreditResult reports the produced credit.
type FinalizeCreditResult struct {
	Credit *credit.Credit
}

// AssignCreditsResult reports the synthetic payments and assignment rows
// one assignment run produced. All slices are empty when the invoice was
// already settled.
type AssignCreditsResult struct {
	Invoice     *invoice.Invoice
	Payments    []*payment.Payment
	Assignments []*credit.Assignment
}

// ApplyPaymentParams registers one payment against invoices of a single
// payer.
type ApplyPaymentParams struct {
	RegieID         id.RegieID
	InvoiceIDs      []id.InvoiceID
	Amount          types.Amount
	PaymentTypeSlug string
	Payer           invoice.PayerSnapshot
	Now             time.Time
	// AllowCollected lets the bulk-collect path pay invoices held by a
	// collection docket; normal registration rejects them.
	AllowCollected bool
}

// ApplyPaymentResult reports the payment and its line allocations.
type ApplyPaymentResult struct {
	Payment      *payment.Payment
	LinePayments []*payment.InvoiceLinePayment
	Invoices     []*invoice.Invoice
}

// CollectResult reports the payments a bulk collection registered.
type CollectResult struct {
	Docket   *docket.CollectionDocket
	Payments []*payment.Payment
}
