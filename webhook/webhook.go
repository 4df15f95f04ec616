// Package webhook delivers billing events to the callback URLs configured
// per regie. Payment registrations go to the payment callback URL,
// cancellations to the cancel callback URL. Delivery is best-effort: a
// failed POST is logged and never blocks the billing pipeline.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/billcore/regie/billing"
	"github.com/billcore/regie/credit"
	"github.com/billcore/regie/id"
	"github.com/billcore/regie/invoice"
	"github.com/billcore/regie/payment"
	"github.com/billcore/regie/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnPaymentRegistered = (*Extension)(nil)
	_ plugin.OnPaymentCancelled  = (*Extension)(nil)
	_ plugin.OnInvoiceCancelled  = (*Extension)(nil)
	_ plugin.OnCreditCancelled   = (*Extension)(nil)
)

// RegieResolver looks up the regie owning a document, to read its
// callback configuration. Wire the store's GetRegie here.
type RegieResolver func(ctx context.Context, regieID id.RegieID) (*billing.Regie, error)

// Delivery is the JSON body posted to a callback URL. Every delivery
// carries a fresh UUID so receivers can deduplicate retries.
type Delivery struct {
	UUID    string    `json:"uuid"`
	Event   string    `json:"event"`
	SentAt  time.Time `json:"sent_at"`
	Payload any       `json:"payload"`
}

// Extension posts billing events to per-regie callback URLs.
type Extension struct {
	resolve RegieResolver
	client  *http.Client
	logger  *slog.Logger
}

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

// WithHTTPClient sets the HTTP client used for deliveries.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extension) {
		e.client = c
	}
}

// New creates a webhook extension resolving callback URLs through resolve.
func New(resolve RegieResolver, opts ...Option) *Extension {
	e := &Extension{
		resolve: resolve,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "webhook" }

// OnPaymentRegistered implements plugin.OnPaymentRegistered.
func (e *Extension) OnPaymentRegistered(ctx context.Context, p *payment.Payment) error {
	r, err := e.resolve(ctx, p.RegieID)
	if err != nil {
		return err
	}
	if r.PaymentCallbackURL == "" {
		return nil
	}
	return e.post(ctx, r.PaymentCallbackURL, "payment.registered", p)
}

// OnPaymentCancelled implements plugin.OnPaymentCancelled.
func (e *Extension) OnPaymentCancelled(ctx context.Context, p *payment.Payment) error {
	r, err := e.resolve(ctx, p.RegieID)
	if err != nil {
		return err
	}
	if r.CancelCallbackURL == "" {
		return nil
	}
	return e.post(ctx, r.CancelCallbackURL, "payment.cancelled", p)
}

// OnInvoiceCancelled implements plugin.OnInvoiceCancelled.
func (e *Extension) OnInvoiceCancelled(ctx context.Context, inv *invoice.Invoice) error {
	r, err := e.resolve(ctx, inv.RegieID)
	if err != nil {
		return err
	}
	if r.CancelCallbackURL == "" {
		return nil
	}
	return e.post(ctx, r.CancelCallbackURL, "invoice.cancelled", inv)
}

// OnCreditCancelled implements plugin.OnCreditCancelled.
func (e *Extension) OnCreditCancelled(ctx context.Context, c *credit.Credit) error {
	r, err := e.resolve(ctx, c.RegieID)
	if err != nil {
		return err
	}
	if r.CancelCallbackURL == "" {
		return nil
	}
	return e.post(ctx, r.CancelCallbackURL, "credit.cancelled", c)
}

func (e *Extension) post(ctx context.Context, url, event string, payload any) error {
	body, err := json.Marshal(Delivery{
		UUID:    uuid.NewString(),
		Event:   event,
		SentAt:  time.Now().UTC(),
		Payload: payload,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Warn("webhook delivery failed", "event", event, "url", url, "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("webhook: callback returned %d", resp.StatusCode)
		e.logger.Warn("webhook delivery rejected", "event", event, "url", url, "status", resp.StatusCode)
		return err
	}
	return nil
}
