// Package docket models collection and payment dockets: batch groupings
// of invoices or payments for downstream bulk processing, with idempotent
// set-reconciliation of their membership.
package docket

import (
	"time"

	"github.com/billcore/regie/id"
	"github.com/billcore/regie/types"
)

// CollectionDocket batches unpaid invoices for bulk collection. Its
// criteria are snapshotted at creation; membership is recomputed from
// them by sync, never edited row by row.
type CollectionDocket struct {
	types.Entity
	ID      id.CollectionDocketID `json:"id"`
	RegieID id.RegieID            `json:"regie_id"`
	Label   string                `json:"label"`

	Number          int64  `json:"number"`
	FormattedNumber string `json:"formatted_number"`

	// DateEnd bounds the selection: only invoices due strictly before it
	// are candidates.
	DateEnd time.Time `json:"date_end"`

	// MinimumThreshold is the per-payer aggregate remaining amount a
	// payer must reach before any of their invoices are included.
	MinimumThreshold types.Amount `json:"minimum_threshold"`

	State types.DocumentState `json:"state"`
}

// PaymentDocket batches registered payments of selected types for bulk
// deposit.
type PaymentDocket struct {
	types.Entity
	ID      id.PaymentDocketID `json:"id"`
	RegieID id.RegieID         `json:"regie_id"`
	Label   string             `json:"label"`

	Number          int64  `json:"number"`
	FormattedNumber string `json:"formatted_number"`

	DateEnd          time.Time `json:"date_end"`
	PaymentTypeSlugs []string  `json:"payment_types"`

	State types.DocumentState `json:"state"`
}

// Usable reports whether the docket still accepts membership changes.
func (d *CollectionDocket) Usable() bool { return d.State.IsActive() }

// Usable reports whether the docket still accepts membership changes.
func (d *PaymentDocket) Usable() bool { return d.State.IsActive() }
