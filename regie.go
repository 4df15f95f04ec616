package regie

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/billcore/regie/billing"
	"github.com/billcore/regie/campaign"
	"github.com/billcore/regie/credit"
	"github.com/billcore/regie/docket"
	"github.com/billcore/regie/id"
	"github.com/billcore/regie/invoice"
	"github.com/billcore/regie/payment"
	"github.com/billcore/regie/plugin"
	"github.com/billcore/regie/store"
	"github.com/billcore/regie/types"
)

// Engine is the main billing engine. All financial transitions go through
// it: it validates state machines, delegates the atomic work to the store
// and emits plugin events after commit.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		now:     func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock overrides the engine clock. Tests use this to pin document
// numbering periods and due-date checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("billing engine started")
	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	e.plugins.EmitShutdown(context.Background())
	return e.store.Close()
}

// Plugins exposes the plugin registry.
func (e *Engine) Plugins() *plugin.Registry {
	return e.plugins
}

// ──────────────────────────────────────────────────
// Regie management
// ──────────────────────────────────────────────────

// CreateRegie creates a billing unit and seeds its default payment types,
// including the reserved credit and collect types.
func (e *Engine) CreateRegie(ctx context.Context, r *billing.Regie) error {
	if r.Label == "" {
		return &ValidationError{Field: "label", Message: "required"}
	}
	if r.Slug == "" {
		return &ValidationError{Field: "slug", Message: "required"}
	}
	if r.ID == (id.RegieID{}) {
		r.ID = id.NewRegieID()
	}
	r.Entity = types.NewEntity()

	if err := e.store.CreateRegie(ctx, r); err != nil {
		return err
	}

	for _, pt := range billing.DefaultPaymentTypes(r.ID) {
		if err := e.store.CreatePaymentType(ctx, pt); err != nil {
			return err
		}
	}

	e.logger.Info("regie created", "regie", r.ID, "seq", r.Seq)
	return nil
}

// GetRegie retrieves a regie by ID.
func (e *Engine) GetRegie(ctx context.Context, regieID id.RegieID) (*billing.Regie, error) {
	return e.store.GetRegie(ctx, regieID)
}

// ListRegies returns all regies.
func (e *Engine) ListRegies(ctx context.Context) ([]*billing.Regie, error) {
	return e.store.ListRegies(ctx)
}

// UpdateRegie updates a regie's mutable configuration. The numbering
// sequence is never changed.
func (e *Engine) UpdateRegie(ctx context.Context, r *billing.Regie) error {
	current, err := e.store.GetRegie(ctx, r.ID)
	if err != nil {
		return err
	}
	r.Seq = current.Seq
	r.CreatedAt = current.CreatedAt
	r.Touch()
	return e.store.UpdateRegie(ctx, r)
}

// CreatePaymentType adds a payment type to a regie. The reserved credit
// and collect slugs are engine-managed and rejected here.
func (e *Engine) CreatePaymentType(ctx context.Context, pt *billing.PaymentType) error {
	if pt.Slug == "" {
		return &ValidationError{Field: "slug", Message: "required"}
	}
	if billing.IsReservedSlug(pt.Slug) {
		return ErrPaymentTypeReserved
	}
	if _, err := e.store.GetRegie(ctx, pt.RegieID); err != nil {
		return err
	}
	if pt.ID == (id.PaymentTypeID{}) {
		pt.ID = id.NewPaymentTypeID()
	}
	pt.Entity = types.NewEntity()
	return e.store.CreatePaymentType(ctx, pt)
}

// GetPaymentType retrieves a payment type by regie and slug.
func (e *Engine) GetPaymentType(ctx context.Context, regieID id.RegieID, slug string) (*billing.PaymentType, error) {
	return e.store.GetPaymentType(ctx, regieID, slug)
}

// ListPaymentTypes returns a regie's payment types.
func (e *Engine) ListPaymentTypes(ctx context.Context, regieID id.RegieID) ([]*billing.PaymentType, error) {
	return e.store.ListPaymentTypes(ctx, regieID)
}

// SetPaymentTypeDisabled toggles a payment type. Reserved types stay
// enabled so that credit assignment and bulk collection keep working.
func (e *Engine) SetPaymentTypeDisabled(ctx context.Context, regieID id.RegieID, slug string, disabled bool) error {
	if billing.IsReservedSlug(slug) {
		return ErrPaymentTypeReserved
	}
	pt, err := e.store.GetPaymentType(ctx, regieID, slug)
	if err != nil {
		return err
	}
	pt.Disabled = disabled
	pt.Touch()
	return e.store.UpdatePaymentType(ctx, pt)
}

// ──────────────────────────────────────────────────
// Campaign management
// ──────────────────────────────────────────────────

// CreateCampaign creates a primary campaign after checking its own date
// constraints and the overlap guard against sibling campaigns.
func (e *Engine) CreateCampaign(ctx context.Context, c *campaign.Campaign) error {
	if _, err := e.store.GetRegie(ctx, c.RegieID); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == (id.CampaignID{}) {
		c.ID = id.NewCampaignID()
	}

	siblings, err := e.store.ListCampaigns(ctx, c.RegieID)
	if err != nil {
		return err
	}
	if err := c.CheckOverlap(siblings); err != nil {
		return fmt.Errorf("%w: %s", ErrCampaignOverlap, err)
	}

	c.Entity = types.NewEntity()
	return e.store.CreateCampaign(ctx, c)
}

// CampaignDates carries the payer-facing dates of a campaign.
type CampaignDates struct {
	Publication     time.Time
	PaymentDeadline time.Time
	Due             time.Time
	Debit           time.Time
}

// CreateCorrectiveCampaign creates a corrective run of a primary
// campaign. Period, agendas and label are inherited from the latest
// corrective if one exists, otherwise from the primary itself.
func (e *Engine) CreateCorrectiveCampaign(ctx context.Context, primaryID id.CampaignID, dates CampaignDates) (*campaign.Campaign, error) {
	primary, err := e.store.GetCampaign(ctx, primaryID)
	if err != nil {
		return nil, err
	}
	if primary.IsCorrective() {
		return nil, &ValidationError{Field: "primary_campaign_id", Message: "must reference a primary campaign"}
	}

	source := primary
	correctives, err := e.store.ListCorrectives(ctx, primaryID)
	if err != nil {
		return nil, err
	}
	for _, prior := range correctives {
		if source == primary || prior.ID.String() > source.ID.String() {
			source = prior
		}
	}

	c := &campaign.Campaign{
		Entity:              types.NewEntity(),
		ID:                  id.NewCampaignID(),
		RegieID:             primary.RegieID,
		PrimaryCampaignID:   primaryID,
		DatePublication:     dates.Publication,
		DatePaymentDeadline: dates.PaymentDeadline,
		DateDue:             dates.Due,
		DateDebit:           dates.Debit,
	}
	c.InheritFrom(source)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	siblings, err := e.store.ListCampaigns(ctx, c.RegieID)
	if err != nil {
		return nil, err
	}
	if err := c.CheckOverlap(siblings); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCampaignOverlap, err)
	}

	if err := e.store.CreateCampaign(ctx, c); err != nil {
		return nil, err
	}

	// The corrective run re-covers these agendas: their unlock records
	// are spent.
	unlocks, err := e.store.ListAgendaUnlocks(ctx, primaryID)
	if err != nil {
		return nil, err
	}
	for _, u := range unlocks {
		if !u.Active || !c.CoversAgenda(u.AgendaSlug) {
			continue
		}
		u.Active = false
		u.Touch()
		if err := e.store.UpdateAgendaUnlock(ctx, u); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// UnlockAgenda records that an agenda of a campaign needs a corrective
// run. The record lands on the primary campaign; unlocking through a
// corrective resolves to its primary. An agenda already holding an
// active unlock returns the existing record.
func (e *Engine) UnlockAgenda(ctx context.Context, campaignID id.CampaignID, agendaSlug string) (*campaign.AgendaUnlock, error) {
	c, err := e.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.IsCorrective() {
		if c, err = e.store.GetCampaign(ctx, c.PrimaryCampaignID); err != nil {
			return nil, err
		}
	}
	if !c.CoversAgenda(agendaSlug) {
		return nil, &ValidationError{Field: "agenda_slug", Message: "agenda is not covered by the campaign"}
	}

	unlocks, err := e.store.ListAgendaUnlocks(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	for _, u := range unlocks {
		if u.Active && u.AgendaSlug == agendaSlug {
			return u, nil
		}
	}

	u := &campaign.AgendaUnlock{
		Entity:     types.NewEntity(),
		ID:         id.NewAgendaUnlockID(),
		CampaignID: c.ID,
		AgendaSlug: agendaSlug,
		DateUnlock: e.now(),
		Active:     true,
	}
	if err := e.store.CreateAgendaUnlock(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ListAgendaUnlocks returns the active unlock records of a campaign's
// agendas. A corrective campaign reads its primary's records.
func (e *Engine) ListAgendaUnlocks(ctx context.Context, campaignID id.CampaignID) ([]*campaign.AgendaUnlock, error) {
	c, err := e.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.IsCorrective() {
		if c, err = e.store.GetCampaign(ctx, c.PrimaryCampaignID); err != nil {
			return nil, err
		}
	}
	unlocks, err := e.store.ListAgendaUnlocks(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*campaign.AgendaUnlock, 0, len(unlocks))
	for _, u := range unlocks {
		if u.Active && c.CoversAgenda(u.AgendaSlug) {
			out = append(out, u)
		}
	}
	return out, nil
}

// GetCampaign retrieves a campaign by ID.
func (e *Engine) GetCampaign(ctx context.Context, campaignID id.CampaignID) (*campaign.Campaign, error) {
	return e.store.GetCampaign(ctx, campaignID)
}

// ListCampaigns returns a regie's campaigns.
func (e *Engine) ListCampaigns(ctx context.Context, regieID id.RegieID) ([]*campaign.Campaign, error) {
	return e.store.ListCampaigns(ctx, regieID)
}

// UpdateCampaignDates changes the payer-facing dates of a non-finalized
// campaign and propagates them onto every document of its pools. The
// debit date reaches only direct-debit payers.
func (e *Engine) UpdateCampaignDates(ctx context.Context, campaignID id.CampaignID, dates CampaignDates) (*campaign.Campaign, error) {
	c, err := e.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Finalized {
		return nil, ErrCampaignFinalized
	}

	c.DatePublication = dates.Publication
	c.DatePaymentDeadline = dates.PaymentDeadline
	c.DateDue = dates.Due
	c.DateDebit = dates.Debit
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.Touch()

	if err := e.store.PropagateCampaignDates(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// FinalizeCampaign marks a campaign finalized. Its latest pool must have
// been promoted first. Finalization is what makes the campaign's credits
// usable for assignment.
func (e *Engine) FinalizeCampaign(ctx context.Context, campaignID id.CampaignID) (*campaign.Campaign, error) {
	c, err := e.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Finalized {
		return nil, ErrCampaignFinalized
	}

	latest, err := e.store.LatestPool(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.Draft || latest.Status != campaign.PoolCompleted {
		return nil, &StateError{Entity: "campaign", State: "pool not promoted", Op: "finalize"}
	}

	c.Finalized = true
	c.Touch()
	if err := e.store.UpdateCampaign(ctx, c); err != nil {
		return nil, err
	}

	e.plugins.EmitCampaignFinalized(ctx, c)
	e.logger.Info("campaign finalized", "campaign", c.ID)
	return c, nil
}

// ──────────────────────────────────────────────────
// Pool lifecycle
// ──────────────────────────────────────────────────

// CreatePool registers a new generation run for a campaign.
func (e *Engine) CreatePool(ctx context.Context, campaignID id.CampaignID) (*campaign.Pool, error) {
	c, err := e.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Finalized {
		return nil, ErrCampaignFinalized
	}

	p := &campaign.Pool{
		Entity:     types.NewEntity(),
		ID:         id.NewPoolID(),
		CampaignID: campaignID,
		Draft:      true,
		Status:     campaign.PoolRegistered,
	}
	if err := e.store.CreatePool(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPool retrieves a pool by ID.
func (e *Engine) GetPool(ctx context.Context, poolID id.PoolID) (*campaign.Pool, error) {
	return e.store.GetPool(ctx, poolID)
}

// StartPool moves a registered pool to running. A pool in any other
// state is rejected so that only one job ever processes a run.
func (e *Engine) StartPool(ctx context.Context, poolID id.PoolID) (*campaign.Pool, error) {
	p, err := e.store.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if !p.Processable() {
		return nil, ErrPoolNotProcessable
	}
	p.Status = campaign.PoolRunning
	p.Touch()
	if err := e.store.UpdatePool(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CompletePool moves a running pool to completed.
func (e *Engine) CompletePool(ctx context.Context, poolID id.PoolID) (*campaign.Pool, error) {
	p, err := e.store.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if p.Status != campaign.PoolRunning {
		return nil, &StateError{Entity: "pool", State: string(p.Status), Op: "complete"}
	}
	at := e.now()
	p.Status = campaign.PoolCompleted
	p.CompletedAt = &at
	p.Touch()
	if err := e.store.UpdatePool(ctx, p); err != nil {
		return nil, err
	}

	e.plugins.EmitPoolCompleted(ctx, p)
	return p, nil
}

// FailPool marks a pool failed with a reason. The pool's drafts remain
// for inspection; a new pool must be created to retry.
func (e *Engine) FailPool(ctx context.Context, poolID id.PoolID, reason string) (*campaign.Pool, error) {
	p, err := e.store.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if p.Status == campaign.PoolCompleted && !p.Draft {
		return nil, &StateError{Entity: "pool", State: "promoted", Op: "fail"}
	}
	p.Status = campaign.PoolFailed
	p.Error = reason
	p.Touch()
	if err := e.store.UpdatePool(ctx, p); err != nil {
		return nil, err
	}

	e.plugins.EmitPoolFailed(ctx, p)
	e.logger.Warn("pool failed", "pool", p.ID, "reason", reason)
	return p, nil
}

// DraftSeed is the per-payer input of one generation run: an identity
// snapshot plus the priced lines to bill.
type DraftSeed struct {
	Payer invoice.PayerSnapshot
	Label string
	Lines []invoice.LineInput
}

// GenerateDraftDocuments builds one draft invoice per seed inside a
// running pool. Mergeable lines aggregate onto a single draft line;
// campaign dates are stamped onto every draft, the debit date only for
// direct-debit payers.
func (e *Engine) GenerateDraftDocuments(ctx context.Context, poolID id.PoolID, seeds []DraftSeed) ([]*invoice.DraftInvoice, error) {
	p, err := e.store.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if p.Status != campaign.PoolRunning {
		return nil, ErrPoolNotProcessable
	}
	c, err := e.store.GetCampaign(ctx, p.CampaignID)
	if err != nil {
		return nil, err
	}

	drafts := make([]*invoice.DraftInvoice, 0, len(seeds))
	for _, seed := range seeds {
		if seed.Payer.ExternalID == "" {
			return nil, &ValidationError{Field: "payer.external_id", Message: "required"}
		}
		label := seed.Label
		if label == "" {
			label = c.Label
		}
		d := &invoice.DraftInvoice{
			Entity:              types.NewEntity(),
			ID:                  id.NewDraftInvoiceID(),
			RegieID:             c.RegieID,
			PoolID:              poolID,
			Label:               label,
			Payer:               seed.Payer,
			DatePublication:     c.DatePublication,
			DatePaymentDeadline: c.DatePaymentDeadline,
			DateDue:             c.DateDue,
		}
		if seed.Payer.DirectDebit {
			d.DateDebit = c.DateDebit
		}
		for _, in := range seed.Lines {
			addLine(d, in)
		}
		d.Recompute()

		if err := e.store.CreateDraftInvoice(ctx, d); err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}

	e.logger.Info("draft documents generated", "pool", poolID, "count", len(drafts))
	return drafts, nil
}

// AddDraftLine adds one priced line to a draft invoice, merging onto an
// existing matching line when the input requests it.
func (e *Engine) AddDraftLine(ctx context.Context, draftID id.DraftInvoiceID, in invoice.LineInput) (*invoice.DraftInvoice, error) {
	d, err := e.store.GetDraftInvoice(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if !d.PoolID.IsNil() {
		p, err := e.store.GetPool(ctx, d.PoolID)
		if err != nil {
			return nil, err
		}
		if !p.Draft {
			return nil, ErrPoolNotDraft
		}
	}

	addLine(d, in)
	d.Recompute()
	d.Touch()

	if err := e.store.UpdateDraftInvoice(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func addLine(d *invoice.DraftInvoice, in invoice.LineInput) {
	if i := invoice.FindMergeTarget(d.Lines, in); i >= 0 {
		invoice.MergeInto(d.Lines[i], in)
		return
	}
	d.Lines = append(d.Lines, invoice.NewDraftLine(in))
}

// PoolResult reports the documents a pool promotion produced.
type PoolResult struct {
	Pool     *campaign.Pool
	Invoices []*invoice.Invoice
	Credits  []*credit.Credit
}

// FinalizePool promotes the drafts of a completed pool into numbered
// documents. Drafts with a negative total become credits with inverted
// quantities and consume no invoice number. Only the latest pool of a
// campaign may be promoted, exactly once.
func (e *Engine) FinalizePool(ctx context.Context, poolID id.PoolID) (*PoolResult, error) {
	p, err := e.store.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if !p.Draft {
		return nil, ErrPoolNotDraft
	}
	if p.Status != campaign.PoolCompleted {
		return nil, ErrPoolNotProcessable
	}
	latest, err := e.store.LatestPool(ctx, p.CampaignID)
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.ID != p.ID {
		return nil, ErrPoolNotLast
	}
	c, err := e.store.GetCampaign(ctx, p.CampaignID)
	if err != nil {
		return nil, err
	}

	drafts, err := e.store.ListDraftInvoices(ctx, c.RegieID, invoice.ListOpts{PoolID: poolID})
	if err != nil {
		return nil, err
	}

	now := e.now()
	res := &PoolResult{}
	for _, d := range drafts {
		if invoice.TotalOf(d.Lines).IsNegative() {
			cr, err := e.promoteNegativeDraft(ctx, d, now)
			if err != nil {
				return nil, err
			}
			res.Credits = append(res.Credits, cr)
			continue
		}

		finRes, err := e.store.FinalizeDraftInvoice(ctx, store.FinalizeInvoiceParams{DraftID: d.ID, Now: now})
		if err != nil {
			return nil, err
		}
		e.emitFinalized(ctx, finRes.Invoice, finRes.Payments, finRes.Assignments)
		res.Invoices = append(res.Invoices, finRes.Invoice)
	}

	p.Draft = false
	p.Touch()
	if err := e.store.UpdatePool(ctx, p); err != nil {
		return nil, err
	}
	res.Pool = p

	e.logger.Info("pool promoted",
		"pool", p.ID,
		"invoices", len(res.Invoices),
		"credits", len(res.Credits),
	)
	return res, nil
}

// promoteNegativeDraft converts a negative draft invoice into a credit
// with inverted line quantities, then finalizes it.
func (e *Engine) promoteNegativeDraft(ctx context.Context, d *invoice.DraftInvoice, now time.Time) (*credit.Credit, error) {
	lines := make([]*invoice.DraftLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		inv := *l
		inv.Quantity = l.Quantity.Neg()
		inv.TotalAmount = inv.Quantity.Mul(inv.UnitAmount)
		lines = append(lines, &inv)
	}

	dc := &credit.DraftCredit{
		Entity:          types.NewEntity(),
		ID:              id.NewDraftCreditID(),
		RegieID:         d.RegieID,
		PoolID:          d.PoolID,
		Label:           credit.DefaultLabel(now),
		Payer:           d.Payer,
		DatePublication: d.DatePublication,
		Lines:           lines,
	}
	dc.Recompute()
	if err := e.store.CreateDraftCredit(ctx, dc); err != nil {
		return nil, err
	}
	if err := e.store.DeleteDraftInvoice(ctx, d.ID); err != nil {
		return nil, err
	}

	finRes, err := e.store.FinalizeDraftCredit(ctx, store.FinalizeCreditParams{DraftID: dc.ID, Now: now})
	if err != nil {
		return nil, err
	}

	e.plugins.EmitCreditFinalized(ctx, finRes.Credit)
	return finRes.Credit, nil
}

// ──────────────────────────────────────────────────
// Draft and document management
// ──────────────────────────────────────────────────

// CreateDraftInvoice creates a standalone draft outside any campaign
// pool, for ad hoc billing.
func (e *Engine) CreateDraftInvoice(ctx context.Context, d *invoice.DraftInvoice) error {
	if _, err := e.store.GetRegie(ctx, d.RegieID); err != nil {
		return err
	}
	if d.Payer.ExternalID == "" {
		return &ValidationError{Field: "payer.external_id", Message: "required"}
	}
	if d.ID == (id.DraftInvoiceID{}) {
		d.ID = id.NewDraftInvoiceID()
	}
	d.Entity = types.NewEntity()
	d.Recompute()
	return e.store.CreateDraftInvoice(ctx, d)
}

// GetDraftInvoice retrieves a draft invoice by ID.
func (e *Engine) GetDraftInvoice(ctx context.Context, draftID id.DraftInvoiceID) (*invoice.DraftInvoice, error) {
	return e.store.GetDraftInvoice(ctx, draftID)
}

// ListDraftInvoices returns a regie's draft invoices.
func (e *Engine) ListDraftInvoices(ctx context.Context, regieID id.RegieID, opts invoice.ListOpts) ([]*invoice.DraftInvoice, error) {
	return e.store.ListDraftInvoices(ctx, regieID, opts)
}

// DeleteDraftInvoice discards a draft. Finalized invoices can only be
// cancelled, never deleted.
func (e *Engine) DeleteDraftInvoice(ctx context.Context, draftID id.DraftInvoiceID) error {
	return e.store.DeleteDraftInvoice(ctx, draftID)
}

// CloseDraftInvoice finalizes one draft into a numbered invoice and runs
// credit assignment unless the due date has already passed.
func (e *Engine) CloseDraftInvoice(ctx context.Context, draftID id.DraftInvoiceID) (*store.FinalizeInvoiceResult, error) {
	res, err := e.store.FinalizeDraftInvoice(ctx, store.FinalizeInvoiceParams{DraftID: draftID, Now: e.now()})
	if err != nil {
		return nil, err
	}
	e.emitFinalized(ctx, res.Invoice, res.Payments, res.Assignments)
	return res, nil
}

// CloseDraftCredit finalizes one draft credit into a numbered credit.
func (e *Engine) CloseDraftCredit(ctx context.Context, draftID id.DraftCreditID) (*credit.Credit, error) {
	res, err := e.store.FinalizeDraftCredit(ctx, store.FinalizeCreditParams{DraftID: draftID, Now: e.now()})
	if err != nil {
		return nil, err
	}
	e.plugins.EmitCreditFinalized(ctx, res.Credit)
	return res.Credit, nil
}

func (e *Engine) emitFinalized(ctx context.Context, inv *invoice.Invoice, pays []*payment.Payment, asgns []*credit.Assignment) {
	e.plugins.EmitInvoiceFinalized(ctx, inv)
	for _, p := range pays {
		e.plugins.EmitPaymentRegistered(ctx, p)
	}
	for _, a := range asgns {
		e.plugins.EmitCreditAssigned(ctx, a)
	}
}

// GetInvoice retrieves a finalized invoice by ID.
func (e *Engine) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	return e.store.GetInvoice(ctx, invID)
}

// ListInvoices returns a regie's finalized invoices.
func (e *Engine) ListInvoices(ctx context.Context, regieID id.RegieID, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	return e.store.ListInvoices(ctx, regieID, opts)
}

// GetCredit retrieves a credit by ID.
func (e *Engine) GetCredit(ctx context.Context, creditID id.CreditID) (*credit.Credit, error) {
	return e.store.GetCredit(ctx, creditID)
}

// ListUsableCredits returns the credits currently assignable to a
// payer's invoices, oldest first.
func (e *Engine) ListUsableCredits(ctx context.Context, regieID id.RegieID, payerExternalID string) ([]*credit.Credit, error) {
	return e.store.ListUsableCredits(ctx, regieID, payerExternalID)
}

// SetCreditUsable parks or releases a credit for automatic assignment
// without cancelling it.
func (e *Engine) SetCreditUsable(ctx context.Context, creditID id.CreditID, usable bool) (*credit.Credit, error) {
	c, err := e.store.GetCredit(ctx, creditID)
	if err != nil {
		return nil, err
	}
	if c.State.IsCancelled() {
		return nil, ErrDocumentCancelled
	}
	c.UsableFlag = usable
	c.Touch()
	if err := e.store.UpdateCredit(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AssignCredits applies the payer's usable credit balance to one invoice.
// Already-settled invoices produce nothing, which makes re-running safe.
func (e *Engine) AssignCredits(ctx context.Context, invID id.InvoiceID) (*store.AssignCreditsResult, error) {
	res, err := e.store.AssignCredits(ctx, invID, e.now())
	if err != nil {
		return nil, err
	}
	for _, p := range res.Payments {
		e.plugins.EmitPaymentRegistered(ctx, p)
	}
	for _, a := range res.Assignments {
		e.plugins.EmitCreditAssigned(ctx, a)
	}
	return res, nil
}

// ──────────────────────────────────────────────────
// Payments
// ──────────────────────────────────────────────────

// RegisterPaymentInput describes one incoming payment to register.
type RegisterPaymentInput struct {
	RegieID         id.RegieID
	InvoiceIDs      []id.InvoiceID
	Amount          types.Amount
	PaymentTypeSlug string
	// Payer is optional; when empty it is taken from the first invoice.
	Payer invoice.PayerSnapshot
}

// RegisterPayment validates and registers a payment, allocating it
// across the target invoices' lines with line netting. Overpayment is
// accepted; the surplus simply stays unallocated on the payment.
func (e *Engine) RegisterPayment(ctx context.Context, in RegisterPaymentInput) (*store.ApplyPaymentResult, error) {
	if !in.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "must be positive"}
	}
	if len(in.InvoiceIDs) == 0 {
		return nil, &ValidationError{Field: "invoice_ids", Message: "at least one invoice required"}
	}
	if billing.IsReservedSlug(in.PaymentTypeSlug) {
		return nil, ErrPaymentTypeReserved
	}
	pt, err := e.store.GetPaymentType(ctx, in.RegieID, in.PaymentTypeSlug)
	if err != nil {
		return nil, err
	}
	if pt.Disabled {
		return nil, ErrPaymentTypeDisabled
	}

	res, err := e.store.ApplyPayment(ctx, store.ApplyPaymentParams{
		RegieID:         in.RegieID,
		InvoiceIDs:      in.InvoiceIDs,
		Amount:          in.Amount,
		PaymentTypeSlug: in.PaymentTypeSlug,
		Payer:           in.Payer,
		Now:             e.now(),
	})
	if err != nil {
		return nil, err
	}

	e.plugins.EmitPaymentRegistered(ctx, res.Payment)
	e.logger.Info("payment registered",
		"payment", res.Payment.ID,
		"number", res.Payment.FormattedNumber,
		"amount", res.Payment.Amount,
		"type", res.Payment.PaymentTypeSlug,
	)
	return res, nil
}

// GetPayment retrieves a payment by ID.
func (e *Engine) GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Payment, error) {
	return e.store.GetPayment(ctx, payID)
}

// ListPayments returns a regie's payments.
func (e *Engine) ListPayments(ctx context.Context, regieID id.RegieID, opts payment.ListOpts) ([]*payment.Payment, error) {
	return e.store.ListPayments(ctx, regieID, opts)
}

// ──────────────────────────────────────────────────
// Cancellation
// ──────────────────────────────────────────────────

// CancelInvoice terminally cancels an invoice with an audit trail. An
// invoice with payment history must have its payments cancelled first.
func (e *Engine) CancelInvoice(ctx context.Context, invID id.InvoiceID, by, reason, description string) (*invoice.Invoice, error) {
	inv, err := e.store.CancelInvoice(ctx, invID, types.Cancellation{
		At: e.now(), By: by, Reason: reason, Description: description,
	})
	if err != nil {
		return nil, err
	}
	e.plugins.EmitInvoiceCancelled(ctx, inv)
	return inv, nil
}

// CancelCredit terminally cancels a credit with an audit trail. A credit
// that has been drawn on cannot be cancelled.
func (e *Engine) CancelCredit(ctx context.Context, creditID id.CreditID, by, reason, description string) (*credit.Credit, error) {
	c, err := e.store.CancelCredit(ctx, creditID, types.Cancellation{
		At: e.now(), By: by, Reason: reason, Description: description,
	})
	if err != nil {
		return nil, err
	}
	e.plugins.EmitCreditCancelled(ctx, c)
	return c, nil
}

// CancelPayment cancels a payment, reversing its allocations and any
// credit assignments so balances return to their pre-payment values.
func (e *Engine) CancelPayment(ctx context.Context, payID id.PaymentID, by, reason, description string) (*payment.Payment, error) {
	p, err := e.store.CancelPayment(ctx, payID, types.Cancellation{
		At: e.now(), By: by, Reason: reason, Description: description,
	})
	if err != nil {
		return nil, err
	}
	e.plugins.EmitPaymentCancelled(ctx, p)
	return p, nil
}

// ──────────────────────────────────────────────────
// Dockets
// ──────────────────────────────────────────────────

// CreateCollectionDocket creates a collection docket. A zero threshold
// falls back to the regie's configured minimum.
func (e *Engine) CreateCollectionDocket(ctx context.Context, regieID id.RegieID, label string, dateEnd time.Time, threshold types.Amount) (*docket.CollectionDocket, error) {
	r, err := e.store.GetRegie(ctx, regieID)
	if err != nil {
		return nil, err
	}
	if dateEnd.IsZero() {
		return nil, &ValidationError{Field: "date_end", Message: "required"}
	}
	if threshold.IsZero() {
		threshold = r.CollectionMinThreshold
	}

	d := &docket.CollectionDocket{
		Entity:           types.NewEntity(),
		ID:               id.NewCollectionDocketID(),
		RegieID:          regieID,
		Label:            label,
		DateEnd:          dateEnd,
		MinimumThreshold: threshold,
		State:            types.ActiveState(),
	}
	if err := e.store.CreateCollectionDocket(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// CreatePaymentDocket creates a payment docket over the given payment
// types. Every slug must exist on the regie.
func (e *Engine) CreatePaymentDocket(ctx context.Context, regieID id.RegieID, label string, dateEnd time.Time, paymentTypeSlugs []string) (*docket.PaymentDocket, error) {
	if _, err := e.store.GetRegie(ctx, regieID); err != nil {
		return nil, err
	}
	if dateEnd.IsZero() {
		return nil, &ValidationError{Field: "date_end", Message: "required"}
	}
	if len(paymentTypeSlugs) == 0 {
		return nil, &ValidationError{Field: "payment_types", Message: "at least one payment type required"}
	}
	for _, slug := range paymentTypeSlugs {
		if _, err := e.store.GetPaymentType(ctx, regieID, slug); err != nil {
			return nil, err
		}
	}

	d := &docket.PaymentDocket{
		Entity:           types.NewEntity(),
		ID:               id.NewPaymentDocketID(),
		RegieID:          regieID,
		Label:            label,
		DateEnd:          dateEnd,
		PaymentTypeSlugs: paymentTypeSlugs,
		State:            types.ActiveState(),
	}
	if err := e.store.CreatePaymentDocket(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetCollectionDocket retrieves a collection docket by ID.
func (e *Engine) GetCollectionDocket(ctx context.Context, docketID id.CollectionDocketID) (*docket.CollectionDocket, error) {
	return e.store.GetCollectionDocket(ctx, docketID)
}

// GetPaymentDocket retrieves a payment docket by ID.
func (e *Engine) GetPaymentDocket(ctx context.Context, docketID id.PaymentDocketID) (*docket.PaymentDocket, error) {
	return e.store.GetPaymentDocket(ctx, docketID)
}

// ListCollectionDockets returns a regie's collection dockets.
func (e *Engine) ListCollectionDockets(ctx context.Context, regieID id.RegieID) ([]*docket.CollectionDocket, error) {
	return e.store.ListCollectionDockets(ctx, regieID)
}

// ListPaymentDockets returns a regie's payment dockets.
func (e *Engine) ListPaymentDockets(ctx context.Context, regieID id.RegieID) ([]*docket.PaymentDocket, error) {
	return e.store.ListPaymentDockets(ctx, regieID)
}

// SyncCollectionDocket reconciles a collection docket's membership.
// Re-running with unchanged inputs applies an empty diff.
func (e *Engine) SyncCollectionDocket(ctx context.Context, docketID id.CollectionDocketID) (docket.Diff[id.InvoiceID], error) {
	diff, err := e.store.SyncCollectionDocket(ctx, docketID)
	if err != nil {
		return diff, err
	}
	if !diff.Empty() {
		e.plugins.EmitDocketSynced(ctx, docketID.String(), len(diff.Attach), len(diff.Detach))
	}
	return diff, nil
}

// SyncPaymentDocket reconciles a payment docket's membership.
func (e *Engine) SyncPaymentDocket(ctx context.Context, docketID id.PaymentDocketID) (docket.Diff[id.PaymentID], error) {
	diff, err := e.store.SyncPaymentDocket(ctx, docketID)
	if err != nil {
		return diff, err
	}
	if !diff.Empty() {
		e.plugins.EmitDocketSynced(ctx, docketID.String(), len(diff.Attach), len(diff.Detach))
	}
	return diff, nil
}

// CollectPayments registers one collect-type payment per member invoice
// of a collection docket, settling each invoice in full.
func (e *Engine) CollectPayments(ctx context.Context, docketID id.CollectionDocketID) (*store.CollectResult, error) {
	res, err := e.store.CollectDocketPayments(ctx, docketID, e.now())
	if err != nil {
		return nil, err
	}
	for _, p := range res.Payments {
		e.plugins.EmitPaymentRegistered(ctx, p)
	}
	e.logger.Info("docket collected", "docket", docketID, "payments", len(res.Payments))
	return res, nil
}

// CancelCollectionDocket cancels a collection docket and frees its
// member invoices.
func (e *Engine) CancelCollectionDocket(ctx context.Context, docketID id.CollectionDocketID, by, reason, description string) (*docket.CollectionDocket, error) {
	return e.store.CancelCollectionDocket(ctx, docketID, types.Cancellation{
		At: e.now(), By: by, Reason: reason, Description: description,
	})
}

// CancelPaymentDocket cancels a payment docket and frees its member
// payments.
func (e *Engine) CancelPaymentDocket(ctx context.Context, docketID id.PaymentDocketID, by, reason, description string) (*docket.PaymentDocket, error) {
	return e.store.CancelPaymentDocket(ctx, docketID, types.Cancellation{
		At: e.now(), By: by, Reason: reason, Description: description,
	})
}
