// Package observability provides a metrics extension for the billing
// engine that records lifecycle event counts via an injected MetricFactory.
package observability

import (
	"context"

	"github.com/billcore/regie/campaign"
	"github.com/billcore/regie/credit"
	"github.com/billcore/regie/invoice"
	"github.com/billcore/regie/payment"
	"github.com/billcore/regie/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceFinalized  = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceCancelled  = (*MetricsExtension)(nil)
	_ plugin.OnCreditFinalized   = (*MetricsExtension)(nil)
	_ plugin.OnCreditCancelled   = (*MetricsExtension)(nil)
	_ plugin.OnCreditAssigned    = (*MetricsExtension)(nil)
	_ plugin.OnPaymentRegistered = (*MetricsExtension)(nil)
	_ plugin.OnPaymentCancelled  = (*MetricsExtension)(nil)
	_ plugin.OnCampaignFinalized = (*MetricsExtension)(nil)
	_ plugin.OnPoolCompleted     = (*MetricsExtension)(nil)
	_ plugin.OnPoolFailed        = (*MetricsExtension)(nil)
	_ plugin.OnDocketSynced      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as an engine plugin to automatically track billing metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Document metrics
	InvoiceFinalized Counter
	InvoiceCancelled Counter
	InvoiceTotal     Histogram
	CreditFinalized  Counter
	CreditCancelled  Counter
	CreditTotal      Histogram
	CreditAssigned   Counter
	AssignedAmount   Histogram

	// Payment metrics
	PaymentRegistered Counter
	PaymentCancelled  Counter
	PaymentAmount     Histogram

	// Campaign metrics
	CampaignFinalized Counter
	PoolCompleted     Counter
	PoolFailed        Counter

	// Docket metrics
	DocketSynced   Counter
	DocketAttached Counter
	DocketDetached Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Document metrics
		InvoiceFinalized: factory.Counter("regie.invoice.finalized"),
		InvoiceCancelled: factory.Counter("regie.invoice.cancelled"),
		InvoiceTotal:     factory.Histogram("regie.invoice.total_amount"),
		CreditFinalized:  factory.Counter("regie.credit.finalized"),
		CreditCancelled:  factory.Counter("regie.credit.cancelled"),
		CreditTotal:      factory.Histogram("regie.credit.total_amount"),
		CreditAssigned:   factory.Counter("regie.credit.assigned"),
		AssignedAmount:   factory.Histogram("regie.credit.assigned_amount"),

		// Payment metrics
		PaymentRegistered: factory.Counter("regie.payment.registered"),
		PaymentCancelled:  factory.Counter("regie.payment.cancelled"),
		PaymentAmount:     factory.Histogram("regie.payment.amount"),

		// Campaign metrics
		CampaignFinalized: factory.Counter("regie.campaign.finalized"),
		PoolCompleted:     factory.Counter("regie.pool.completed"),
		PoolFailed:        factory.Counter("regie.pool.failed"),

		// Docket metrics
		DocketSynced:   factory.Counter("regie.docket.synced"),
		DocketAttached: factory.Counter("regie.docket.attached"),
		DocketDetached: factory.Counter("regie.docket.detached"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "metrics" }

// OnInvoiceFinalized implements plugin.OnInvoiceFinalized.
func (m *MetricsExtension) OnInvoiceFinalized(_ context.Context, inv *invoice.Invoice) error {
	m.InvoiceFinalized.Inc()
	m.InvoiceTotal.Observe(inv.TotalAmount.InexactFloat64())
	return nil
}

// OnInvoiceCancelled implements plugin.OnInvoiceCancelled.
func (m *MetricsExtension) OnInvoiceCancelled(_ context.Context, _ *invoice.Invoice) error {
	m.InvoiceCancelled.Inc()
	return nil
}

// OnCreditFinalized implements plugin.OnCreditFinalized.
func (m *MetricsExtension) OnCreditFinalized(_ context.Context, c *credit.Credit) error {
	m.CreditFinalized.Inc()
	m.CreditTotal.Observe(c.TotalAmount.InexactFloat64())
	return nil
}

// OnCreditCancelled implements plugin.OnCreditCancelled.
func (m *MetricsExtension) OnCreditCancelled(_ context.Context, _ *credit.Credit) error {
	m.CreditCancelled.Inc()
	return nil
}

// OnCreditAssigned implements plugin.OnCreditAssigned.
func (m *MetricsExtension) OnCreditAssigned(_ context.Context, a *credit.Assignment) error {
	m.CreditAssigned.Inc()
	m.AssignedAmount.Observe(a.Amount.InexactFloat64())
	return nil
}

// OnPaymentRegistered implements plugin.OnPaymentRegistered.
func (m *MetricsExtension) OnPaymentRegistered(_ context.Context, p *payment.Payment) error {
	m.PaymentRegistered.Inc()
	m.PaymentAmount.Observe(p.Amount.InexactFloat64())
	return nil
}

// OnPaymentCancelled implements plugin.OnPaymentCancelled.
func (m *MetricsExtension) OnPaymentCancelled(_ context.Context, _ *payment.Payment) error {
	m.PaymentCancelled.Inc()
	return nil
}

// OnCampaignFinalized implements plugin.OnCampaignFinalized.
func (m *MetricsExtension) OnCampaignFinalized(_ context.Context, _ *campaign.Campaign) error {
	m.CampaignFinalized.Inc()
	return nil
}

// OnPoolCompleted implements plugin.OnPoolCompleted.
func (m *MetricsExtension) OnPoolCompleted(_ context.Context, _ *campaign.Pool) error {
	m.PoolCompleted.Inc()
	return nil
}

// OnPoolFailed implements plugin.OnPoolFailed.
func (m *MetricsExtension) OnPoolFailed(_ context.Context, _ *campaign.Pool) error {
	m.PoolFailed.Inc()
	return nil
}

// OnDocketSynced implements plugin.OnDocketSynced.
func (m *MetricsExtension) OnDocketSynced(_ context.Context, _ string, attached, detached int) error {
	m.DocketSynced.Inc()
	m.DocketAttached.Add(float64(attached))
	m.DocketDetached.Add(float64(detached))
	return nil
}
