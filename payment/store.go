package payment

import (
	"context"
	"time"

	"github.com/billcore/regie/id"
)

type Store interface {
	GetPayment(ctx context.Context, payID id.PaymentID) (*Payment, error)
	ListPayments(ctx context.Context, regieID id.RegieID, opts ListOpts) ([]*Payment, error)
	UpdatePayment(ctx context.Context, p *Payment) error

	ListLinePaymentsByPayment(ctx context.Context, payID id.PaymentID) ([]*InvoiceLinePayment, error)
	ListLinePaymentsByInvoice(ctx context.Context, invID id.InvoiceID) ([]*InvoiceLinePayment, error)
}

type ListOpts struct {
	PayerExternalID string
	PaymentTypeSlug string
	ActiveOnly      bool
	Before          time.Time
	Limit           int
	Offset          int
}
