// Package audithook bridges billing engine lifecycle events to an audit
// trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any specific audit system. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/billcore/regie/campaign"
	"github.com/billcore/regie/credit"
	"github.com/billcore/regie/invoice"
	"github.com/billcore/regie/payment"
	"github.com/billcore/regie/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnInvoiceFinalized  = (*Extension)(nil)
	_ plugin.OnInvoiceCancelled  = (*Extension)(nil)
	_ plugin.OnCreditFinalized   = (*Extension)(nil)
	_ plugin.OnCreditCancelled   = (*Extension)(nil)
	_ plugin.OnCreditAssigned    = (*Extension)(nil)
	_ plugin.OnPaymentRegistered = (*Extension)(nil)
	_ plugin.OnPaymentCancelled  = (*Extension)(nil)
	_ plugin.OnCampaignFinalized = (*Extension)(nil)
	_ plugin.OnPoolCompleted     = (*Extension)(nil)
	_ plugin.OnPoolFailed        = (*Extension)(nil)
	_ plugin.OnDocketSynced      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. Defined
// locally so the package carries no backend dependency.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges billing lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Document lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceFinalized implements plugin.OnInvoiceFinalized.
func (e *Extension) OnInvoiceFinalized(ctx context.Context, inv *invoice.Invoice) error {
	return e.record(ctx, ActionInvoiceFinalized, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, inv.ID.String(), CategoryBilling, nil,
		"number", inv.FormattedNumber,
		"regie_id", inv.RegieID.String(),
		"payer", inv.Payer.ExternalID,
		"total", inv.TotalAmount.String(),
	)
}

// OnInvoiceCancelled implements plugin.OnInvoiceCancelled.
func (e *Extension) OnInvoiceCancelled(ctx context.Context, inv *invoice.Invoice) error {
	reason := ""
	if inv.State.Cancelled != nil {
		reason = inv.State.Cancelled.Reason
	}
	return e.record(ctx, ActionInvoiceCancelled, SeverityWarning, OutcomeSuccess,
		ResourceInvoice, inv.ID.String(), CategoryBilling, nil,
		"number", inv.FormattedNumber,
		"cancel_reason", reason,
	)
}

// OnCreditFinalized implements plugin.OnCreditFinalized.
func (e *Extension) OnCreditFinalized(ctx context.Context, c *credit.Credit) error {
	return e.record(ctx, ActionCreditFinalized, SeverityInfo, OutcomeSuccess,
		ResourceCredit, c.ID.String(), CategoryBilling, nil,
		"number", c.FormattedNumber,
		"regie_id", c.RegieID.String(),
		"payer", c.Payer.ExternalID,
		"total", c.TotalAmount.String(),
	)
}

// OnCreditCancelled implements plugin.OnCreditCancelled.
func (e *Extension) OnCreditCancelled(ctx context.Context, c *credit.Credit) error {
	reason := ""
	if c.State.Cancelled != nil {
		reason = c.State.Cancelled.Reason
	}
	return e.record(ctx, ActionCreditCancelled, SeverityWarning, OutcomeSuccess,
		ResourceCredit, c.ID.String(), CategoryBilling, nil,
		"number", c.FormattedNumber,
		"cancel_reason", reason,
	)
}

// OnCreditAssigned implements plugin.OnCreditAssigned.
func (e *Extension) OnCreditAssigned(ctx context.Context, a *credit.Assignment) error {
	return e.record(ctx, ActionCreditAssigned, SeverityInfo, OutcomeSuccess,
		ResourceCredit, a.CreditID.String(), CategoryPayment, nil,
		"invoice_id", a.InvoiceID.String(),
		"payment_id", a.PaymentID.String(),
		"amount", a.Amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentRegistered implements plugin.OnPaymentRegistered.
func (e *Extension) OnPaymentRegistered(ctx context.Context, p *payment.Payment) error {
	return e.record(ctx, ActionPaymentRegistered, SeverityInfo, OutcomeSuccess,
		ResourcePayment, p.ID.String(), CategoryPayment, nil,
		"number", p.FormattedNumber,
		"amount", p.Amount.String(),
		"payment_type", p.PaymentTypeSlug,
		"payer", p.Payer.ExternalID,
	)
}

// OnPaymentCancelled implements plugin.OnPaymentCancelled.
func (e *Extension) OnPaymentCancelled(ctx context.Context, p *payment.Payment) error {
	reason := ""
	if p.State.Cancelled != nil {
		reason = p.State.Cancelled.Reason
	}
	return e.record(ctx, ActionPaymentCancelled, SeverityWarning, OutcomeSuccess,
		ResourcePayment, p.ID.String(), CategoryPayment, nil,
		"number", p.FormattedNumber,
		"amount", p.Amount.String(),
		"cancel_reason", reason,
	)
}

// ──────────────────────────────────────────────────
// Campaign lifecycle hooks
// ──────────────────────────────────────────────────

// OnCampaignFinalized implements plugin.OnCampaignFinalized.
func (e *Extension) OnCampaignFinalized(ctx context.Context, c *campaign.Campaign) error {
	return e.record(ctx, ActionCampaignFinalized, SeverityInfo, OutcomeSuccess,
		ResourceCampaign, c.ID.String(), CategoryCampaign, nil,
		"label", c.Label,
		"regie_id", c.RegieID.String(),
	)
}

// OnPoolCompleted implements plugin.OnPoolCompleted.
func (e *Extension) OnPoolCompleted(ctx context.Context, p *campaign.Pool) error {
	return e.record(ctx, ActionPoolCompleted, SeverityInfo, OutcomeSuccess,
		ResourcePool, p.ID.String(), CategoryCampaign, nil,
		"campaign_id", p.CampaignID.String(),
	)
}

// OnPoolFailed implements plugin.OnPoolFailed.
func (e *Extension) OnPoolFailed(ctx context.Context, p *campaign.Pool) error {
	return e.record(ctx, ActionPoolFailed, SeverityError, OutcomeFailure,
		ResourcePool, p.ID.String(), CategoryCampaign, nil,
		"campaign_id", p.CampaignID.String(),
		"error", p.Error,
	)
}

// ──────────────────────────────────────────────────
// Docket hooks
// ──────────────────────────────────────────────────

// OnDocketSynced implements plugin.OnDocketSynced.
func (e *Extension) OnDocketSynced(ctx context.Context, docketID string, attached, detached int) error {
	return e.record(ctx, ActionDocketSynced, SeverityInfo, OutcomeSuccess,
		ResourceDocket, docketID, CategoryCollection, nil,
		"attached", attached,
		"detached", detached,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
