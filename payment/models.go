// Package payment models payments, their allocation onto invoice lines,
// and the deterministic two-pass netting algorithm that splits a payment
// amount across lines.
package payment

import (
	"github.com/billcore/regie/id"
	"github.com/billcore/regie/invoice"
	"github.com/billcore/regie/types"
)

// Payment is a registered payment of a single amount against one or more
// invoices of the same payer. Credit assignment registers synthetic
// payments with the reserved "credit" type.
type Payment struct {
	types.Entity
	ID      id.PaymentID `json:"id"`
	RegieID id.RegieID   `json:"regie_id"`

	Number          int64  `json:"number"`
	FormattedNumber string `json:"formatted_number"`

	Amount          types.Amount `json:"amount"`
	PaymentTypeSlug string       `json:"payment_type"`

	Payer invoice.PayerSnapshot `json:"payer"`

	DocketID id.PaymentDocketID `json:"docket_id,omitempty"`

	State types.DocumentState `json:"state"`
}

// Usable is the shared activity predicate for payments: active and not
// held by a docket.
func (p *Payment) Usable() bool {
	return p.State.IsActive() && p.DocketID.IsNil()
}

// InvoiceLinePayment is the join row recording how much of one payment
// landed on one invoice line. Netting rows carry a negative amount.
type InvoiceLinePayment struct {
	types.Entity
	ID        id.LinePaymentID `json:"id"`
	PaymentID id.PaymentID     `json:"payment_id"`
	InvoiceID id.InvoiceID     `json:"invoice_id"`
	LineID    id.LineID        `json:"line_id"`
	Amount    types.Amount     `json:"amount"`
}
