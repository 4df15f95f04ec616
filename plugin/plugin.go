// Package plugin provides an extensible hook system for the billing
// engine. Plugins implement the base interface plus any subset of the
// event interfaces; the registry dispatches each event only to the
// plugins that declared interest.
package plugin

import (
	"context"

	"github.com/billcore/regie/campaign"
	"github.com/billcore/regie/credit"
	"github.com/billcore/regie/invoice"
	"github.com/billcore/regie/payment"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called once when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called once when the engine shuts down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Document lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceFinalized is called after a draft is closed into a numbered
// invoice.
type OnInvoiceFinalized interface {
	Plugin
	OnInvoiceFinalized(ctx context.Context, inv *invoice.Invoice) error
}

// OnCreditFinalized is called after a draft credit is closed into a
// numbered credit.
type OnCreditFinalized interface {
	Plugin
	OnCreditFinalized(ctx context.Context, c *credit.Credit) error
}

// OnCreditAssigned is called for each assignment of credit balance onto
// an invoice.
type OnCreditAssigned interface {
	Plugin
	OnCreditAssigned(ctx context.Context, a *credit.Assignment) error
}

// OnInvoiceCancelled is called after an invoice is terminally cancelled.
type OnInvoiceCancelled interface {
	Plugin
	OnInvoiceCancelled(ctx context.Context, inv *invoice.Invoice) error
}

// OnCreditCancelled is called after a credit is terminally cancelled.
type OnCreditCancelled interface {
	Plugin
	OnCreditCancelled(ctx context.Context, c *credit.Credit) error
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentRegistered is called after a payment is registered and
// allocated, including the synthetic credit and collect payments.
type OnPaymentRegistered interface {
	Plugin
	OnPaymentRegistered(ctx context.Context, p *payment.Payment) error
}

// OnPaymentCancelled is called after a payment is cancelled and its
// allocations reversed.
type OnPaymentCancelled interface {
	Plugin
	OnPaymentCancelled(ctx context.Context, p *payment.Payment) error
}

// ──────────────────────────────────────────────────
// Campaign hooks
// ──────────────────────────────────────────────────

// OnCampaignFinalized is called when a campaign is finalized, making its
// pool credits usable.
type OnCampaignFinalized interface {
	Plugin
	OnCampaignFinalized(ctx context.Context, c *campaign.Campaign) error
}

// OnPoolCompleted is called when a generation pool finishes successfully.
type OnPoolCompleted interface {
	Plugin
	OnPoolCompleted(ctx context.Context, p *campaign.Pool) error
}

// OnPoolFailed is called when a generation pool is marked failed.
type OnPoolFailed interface {
	Plugin
	OnPoolFailed(ctx context.Context, p *campaign.Pool) error
}

// ──────────────────────────────────────────────────
// Docket hooks
// ──────────────────────────────────────────────────

// OnDocketSynced is called after a docket membership sync, with the
// number of attached and detached documents.
type OnDocketSynced interface {
	Plugin
	OnDocketSynced(ctx context.Context, docketID string, attached, detached int) error
}

// ──────────────────────────────────────────────────
// Extension points
// ──────────────────────────────────────────────────

// DocumentRenderer produces a rendered document (typically PDF) for a
// finalized invoice. Renderers are looked up by format name.
type DocumentRenderer interface {
	Plugin
	Format() string
	RenderInvoice(ctx context.Context, inv *invoice.Invoice) ([]byte, error)
}

// PayerNotifier delivers payer-facing notifications for document events.
type PayerNotifier interface {
	Plugin
	NotifyPayer(ctx context.Context, payer invoice.PayerSnapshot, subject string, body string) error
}
