package credit

import (
	"context"

	"github.com/billcore/regie/id"
)

type Store interface {
	CreateDraftCredit(ctx context.Context, d *DraftCredit) error
	GetDraftCredit(ctx context.Context, draftID id.DraftCreditID) (*DraftCredit, error)
	UpdateDraftCredit(ctx context.Context, d *DraftCredit) error
	DeleteDraftCredit(ctx context.Context, draftID id.DraftCreditID) error

	GetCredit(ctx context.Context, creditID id.CreditID) (*Credit, error)
	UpdateCredit(ctx context.Context, c *Credit) error

	// ListUsableCredits returns the credits eligible for assignment to a
	// payer's invoices: same regie and payer, active, usable, remaining
	// balance positive, and belonging to no pool or to a pool whose
	// campaign is finalized. Ordered oldest DatePublication first, then
	// by id.
	ListUsableCredits(ctx context.Context, regieID id.RegieID, payerExternalID string) ([]*Credit, error)

	CreateAssignment(ctx context.Context, a *Assignment) error
	ListAssignmentsByInvoice(ctx context.Context, invID id.InvoiceID) ([]*Assignment, error)
	ListAssignmentsByCredit(ctx context.Context, creditID id.CreditID) ([]*Assignment, error)
}
