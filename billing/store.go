package billing

import (
	"context"

	"github.com/billcore/regie/id"
)

type Store interface {
	CreateRegie(ctx context.Context, r *Regie) error
	GetRegie(ctx context.Context, regieID id.RegieID) (*Regie, error)
	ListRegies(ctx context.Context) ([]*Regie, error)
	UpdateRegie(ctx context.Context, r *Regie) error

	CreatePaymentType(ctx context.Context, pt *PaymentType) error
	GetPaymentType(ctx context.Context, regieID id.RegieID, slug string) (*PaymentType, error)
	ListPaymentTypes(ctx context.Context, regieID id.RegieID) ([]*PaymentType, error)
	UpdatePaymentType(ctx context.Context, pt *PaymentType) error
}
