package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/billcore/regie/campaign"
	"github.com/billcore/regie/credit"
	"github.com/billcore/regie/invoice"
	"github.com/billcore/regie/payment"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit              []OnInit
	onShutdown          []OnShutdown
	onInvoiceFinalized  []OnInvoiceFinalized
	onCreditFinalized   []OnCreditFinalized
	onCreditAssigned    []OnCreditAssigned
	onInvoiceCancelled  []OnInvoiceCancelled
	onCreditCancelled   []OnCreditCancelled
	onPaymentRegistered []OnPaymentRegistered
	onPaymentCancelled  []OnPaymentCancelled
	onCampaignFinalized []OnCampaignFinalized
	onPoolCompleted     []OnPoolCompleted
	onPoolFailed        []OnPoolFailed
	onDocketSynced      []OnDocketSynced
	renderers           map[string]DocumentRenderer
	notifiers           []PayerNotifier
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:    slog.Default(),
		renderers: make(map[string]DocumentRenderer),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnInvoiceFinalized); ok {
		r.onInvoiceFinalized = append(r.onInvoiceFinalized, v)
	}
	if v, ok := p.(OnCreditFinalized); ok {
		r.onCreditFinalized = append(r.onCreditFinalized, v)
	}
	if v, ok := p.(OnCreditAssigned); ok {
		r.onCreditAssigned = append(r.onCreditAssigned, v)
	}
	if v, ok := p.(OnInvoiceCancelled); ok {
		r.onInvoiceCancelled = append(r.onInvoiceCancelled, v)
	}
	if v, ok := p.(OnCreditCancelled); ok {
		r.onCreditCancelled = append(r.onCreditCancelled, v)
	}
	if v, ok := p.(OnPaymentRegistered); ok {
		r.onPaymentRegistered = append(r.onPaymentRegistered, v)
	}
	if v, ok := p.(OnPaymentCancelled); ok {
		r.onPaymentCancelled = append(r.onPaymentCancelled, v)
	}
	if v, ok := p.(OnCampaignFinalized); ok {
		r.onCampaignFinalized = append(r.onCampaignFinalized, v)
	}
	if v, ok := p.(OnPoolCompleted); ok {
		r.onPoolCompleted = append(r.onPoolCompleted, v)
	}
	if v, ok := p.(OnPoolFailed); ok {
		r.onPoolFailed = append(r.onPoolFailed, v)
	}
	if v, ok := p.(OnDocketSynced); ok {
		r.onDocketSynced = append(r.onDocketSynced, v)
	}
	if v, ok := p.(DocumentRenderer); ok {
		r.renderers[v.Format()] = v
	}
	if v, ok := p.(PayerNotifier); ok {
		r.notifiers = append(r.notifiers, v)
	}

	r.logger.Info("plugin registered", "name", p.Name())
	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// GetRenderer returns a document renderer by format name.
func (r *Registry) GetRenderer(format string) DocumentRenderer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.renderers[format]
}

// GetNotifiers returns all registered payer notifiers.
func (r *Registry) GetNotifiers() []PayerNotifier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]PayerNotifier, len(r.notifiers))
	copy(result, r.notifiers)
	return result
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitInvoiceFinalized emits an invoice finalized event.
func (r *Registry) EmitInvoiceFinalized(ctx context.Context, inv *invoice.Invoice) {
	r.mu.RLock()
	plugins := r.onInvoiceFinalized
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceFinalized(ctx, inv)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceFinalized failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitCreditFinalized emits a credit finalized event.
func (r *Registry) EmitCreditFinalized(ctx context.Context, c *credit.Credit) {
	r.mu.RLock()
	plugins := r.onCreditFinalized
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCreditFinalized(ctx, c)
		}); err != nil {
			r.logger.Warn("plugin OnCreditFinalized failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitCreditAssigned emits a credit assigned event.
func (r *Registry) EmitCreditAssigned(ctx context.Context, a *credit.Assignment) {
	r.mu.RLock()
	plugins := r.onCreditAssigned
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCreditAssigned(ctx, a)
		}); err != nil {
			r.logger.Warn("plugin OnCreditAssigned failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitInvoiceCancelled emits an invoice cancelled event.
func (r *Registry) EmitInvoiceCancelled(ctx context.Context, inv *invoice.Invoice) {
	r.mu.RLock()
	plugins := r.onInvoiceCancelled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceCancelled(ctx, inv)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceCancelled failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitCreditCancelled emits a credit cancelled event.
func (r *Registry) EmitCreditCancelled(ctx context.Context, c *credit.Credit) {
	r.mu.RLock()
	plugins := r.onCreditCancelled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCreditCancelled(ctx, c)
		}); err != nil {
			r.logger.Warn("plugin OnCreditCancelled failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitPaymentRegistered emits a payment registered event.
func (r *Registry) EmitPaymentRegistered(ctx context.Context, p *payment.Payment) {
	r.mu.RLock()
	plugins := r.onPaymentRegistered
	r.mu.RUnlock()

	for _, pl := range plugins {
		if err := r.callWithTimeout(ctx, pl.Name(), func() error {
			return pl.OnPaymentRegistered(ctx, p)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentRegistered failed", "plugin", pl.Name(), "error", err)
		}
	}
}

// EmitPaymentCancelled emits a payment cancelled event.
func (r *Registry) EmitPaymentCancelled(ctx context.Context, p *payment.Payment) {
	r.mu.RLock()
	plugins := r.onPaymentCancelled
	r.mu.RUnlock()

	for _, pl := range plugins {
		if err := r.callWithTimeout(ctx, pl.Name(), func() error {
			return pl.OnPaymentCancelled(ctx, p)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentCancelled failed", "plugin", pl.Name(), "error", err)
		}
	}
}

// EmitCampaignFinalized emits a campaign finalized event.
func (r *Registry) EmitCampaignFinalized(ctx context.Context, c *campaign.Campaign) {
	r.mu.RLock()
	plugins := r.onCampaignFinalized
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCampaignFinalized(ctx, c)
		}); err != nil {
			r.logger.Warn("plugin OnCampaignFinalized failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitPoolCompleted emits a pool completed event.
func (r *Registry) EmitPoolCompleted(ctx context.Context, pool *campaign.Pool) {
	r.mu.RLock()
	plugins := r.onPoolCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPoolCompleted(ctx, pool)
		}); err != nil {
			r.logger.Warn("plugin OnPoolCompleted failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitPoolFailed emits a pool failed event.
func (r *Registry) EmitPoolFailed(ctx context.Context, pool *campaign.Pool) {
	r.mu.RLock()
	plugins := r.onPoolFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPoolFailed(ctx, pool)
		}); err != nil {
			r.logger.Warn("plugin OnPoolFailed failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitDocketSynced emits a docket synced event.
func (r *Registry) EmitDocketSynced(ctx context.Context, docketID string, attached, detached int) {
	r.mu.RLock()
	plugins := r.onDocketSynced
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDocketSynced(ctx, docketID, attached, detached)
		}); err != nil {
			r.logger.Warn("plugin OnDocketSynced failed", "plugin", p.Name(), "error", err)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the billing pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
