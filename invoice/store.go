package invoice

import (
	"context"
	"time"

	"github.com/billcore/regie/id"
)

type Store interface {
	CreateDraftInvoice(ctx context.Context, d *DraftInvoice) error
	GetDraftInvoice(ctx context.Context, draftID id.DraftInvoiceID) (*DraftInvoice, error)
	ListDraftInvoices(ctx context.Context, regieID id.RegieID, opts ListOpts) ([]*DraftInvoice, error)
	UpdateDraftInvoice(ctx context.Context, d *DraftInvoice) error
	DeleteDraftInvoice(ctx context.Context, draftID id.DraftInvoiceID) error

	GetInvoice(ctx context.Context, invID id.InvoiceID) (*Invoice, error)
	ListInvoices(ctx context.Context, regieID id.RegieID, opts ListOpts) ([]*Invoice, error)
	UpdateInvoice(ctx context.Context, inv *Invoice) error
}

type ListOpts struct {
	PoolID          id.PoolID
	PayerExternalID string
	ActiveOnly      bool
	DueBefore       time.Time
	Limit           int
	Offset          int
}
