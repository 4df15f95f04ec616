package docket

import (
	"context"

	"github.com/billcore/regie/id"
)

type Store interface {
	CreateCollectionDocket(ctx context.Context, d *CollectionDocket) error
	GetCollectionDocket(ctx context.Context, docketID id.CollectionDocketID) (*CollectionDocket, error)
	ListCollectionDockets(ctx context.Context, regieID id.RegieID) ([]*CollectionDocket, error)
	UpdateCollectionDocket(ctx context.Context, d *CollectionDocket) error

	CreatePaymentDocket(ctx context.Context, d *PaymentDocket) error
	GetPaymentDocket(ctx context.Context, docketID id.PaymentDocketID) (*PaymentDocket, error)
	ListPaymentDockets(ctx context.Context, regieID id.RegieID) ([]*PaymentDocket, error)
	UpdatePaymentDocket(ctx context.Context, d *PaymentDocket) error
}
