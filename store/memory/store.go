// Package memory provides an in-memory Store implementation for tests and
// embedded use. A single mutex plays the role of the database transaction:
// every composite operation mutates under one critical section, so it
// either applies fully or not at all.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	regie "github.com/billcore/regie"
	"github.com/billcore/regie/billing"
	"github.com/billcore/regie/campaign"
	"github.com/billcore/regie/credit"
	"github.com/billcore/regie/docket"
	"github.com/billcore/regie/id"
	"github.com/billcore/regie/invoice"
	"github.com/billcore/regie/payment"
	"github.com/billcore/regie/store"
)

// Ensure Store implements the full contract at compile time.
var _ store.Store = (*Store)(nil)

type counterKey struct {
	regie  id.RegieID
	kind   billing.Kind
	period string
}

// Store is the in-memory backend.
type Store struct {
	mu sync.RWMutex

	regies            map[id.RegieID]*billing.Regie
	paymentTypes      map[id.PaymentTypeID]*billing.PaymentType
	campaigns         map[id.CampaignID]*campaign.Campaign
	pools             map[id.PoolID]*campaign.Pool
	agendaUnlocks     map[id.AgendaUnlockID]*campaign.AgendaUnlock
	draftInvoices     map[id.DraftInvoiceID]*invoice.DraftInvoice
	invoices          map[id.InvoiceID]*invoice.Invoice
	draftCredits      map[id.DraftCreditID]*credit.DraftCredit
	credits           map[id.CreditID]*credit.Credit
	payments          map[id.PaymentID]*payment.Payment
	linePayments      map[id.LinePaymentID]*payment.InvoiceLinePayment
	assignments       map[id.AssignmentID]*credit.Assignment
	collectionDockets map[id.CollectionDocketID]*docket.CollectionDocket
	paymentDockets    map[id.PaymentDocketID]*docket.PaymentDocket

	counters map[counterKey]int64
	regieSeq int

	closed bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		regies:            make(map[id.RegieID]*billing.Regie),
		paymentTypes:      make(map[id.PaymentTypeID]*billing.PaymentType),
		campaigns:         make(map[id.CampaignID]*campaign.Campaign),
		pools:             make(map[id.PoolID]*campaign.Pool),
		agendaUnlocks:     make(map[id.AgendaUnlockID]*campaign.AgendaUnlock),
		draftInvoices:     make(map[id.DraftInvoiceID]*invoice.DraftInvoice),
		invoices:          make(map[id.InvoiceID]*invoice.Invoice),
		draftCredits:      make(map[id.DraftCreditID]*credit.DraftCredit),
		credits:           make(map[id.CreditID]*credit.Credit),
		payments:          make(map[id.PaymentID]*payment.Payment),
		linePayments:      make(map[id.LinePaymentID]*payment.InvoiceLinePayment),
		assignments:       make(map[id.AssignmentID]*credit.Assignment),
		collectionDockets: make(map[id.CollectionDocketID]*docket.CollectionDocket),
		paymentDockets:    make(map[id.PaymentDocketID]*docket.PaymentDocket),
		counters:          make(map[counterKey]int64),
	}
}

// Ping implements store.Store.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return regie.ErrStoreClosed
	}
	return nil
}

// Migrate implements store.Store. Nothing to do in memory.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Close implements store.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// nextNumber allocates the next sequence number for (regie, kind, month).
func (s *Store) nextNumber(regieID id.RegieID, kind billing.Kind, at time.Time) int64 {
	key := counterKey{regie: regieID, kind: kind, period: billing.PeriodKey(at)}
	s.counters[key]++
	return s.counters[key]
}

// ──────────────────────────────────────────────────
// billing.Store
// ──────────────────────────────────────────────────

func (s *Store) CreateRegie(_ context.Context, r *billing.Regie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.regies[r.ID]; ok {
		return regie.ErrAlreadyExists
	}
	s.regieSeq++
	r.Seq = s.regieSeq
	s.regies[r.ID] = cloneRegie(r)
	return nil
}

func (s *Store) GetRegie(_ context.Context, regieID id.RegieID) (*billing.Regie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.regies[regieID]
	if !ok {
		return nil, regie.ErrRegieNotFound
	}
	return cloneRegie(r), nil
}

func (s *Store) ListRegies(_ context.Context) ([]*billing.Regie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*billing.Regie, 0, len(s.regies))
	for _, r := range s.regies {
		out = append(out, cloneRegie(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (s *Store) UpdateRegie(_ context.Context, r *billing.Regie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.regies[r.ID]; !ok {
		return regie.ErrRegieNotFound
	}
	s.regies[r.ID] = cloneRegie(r)
	return nil
}

func (s *Store) CreatePaymentType(_ context.Context, pt *billing.PaymentType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.paymentTypes {
		if existing.RegieID == pt.RegieID && existing.Slug == pt.Slug {
			return regie.ErrAlreadyExists
		}
	}
	s.paymentTypes[pt.ID] = clonePaymentType(pt)
	return nil
}

func (s *Store) GetPaymentType(_ context.Context, regieID id.RegieID, slug string) (*billing.PaymentType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pt := s.paymentTypeBySlugLocked(regieID, slug)
	if pt == nil {
		return nil, regie.ErrPaymentTypeNotFound
	}
	return clonePaymentType(pt), nil
}

func (s *Store) paymentTypeBySlugLocked(regieID id.RegieID, slug string) *billing.PaymentType {
	for _, pt := range s.paymentTypes {
		if pt.RegieID == regieID && pt.Slug == slug {
			return pt
		}
	}
	return nil
}

func (s *Store) ListPaymentTypes(_ context.Context, regieID id.RegieID) ([]*billing.PaymentType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*billing.PaymentType, 0)
	for _, pt := range s.paymentTypes {
		if pt.RegieID == regieID {
			out = append(out, clonePaymentType(pt))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (s *Store) UpdatePaymentType(_ context.Context, pt *billing.PaymentType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paymentTypes[pt.ID]; !ok {
		return regie.ErrPaymentTypeNotFound
	}
	s.paymentTypes[pt.ID] = clonePaymentType(pt)
	return nil
}

// ──────────────────────────────────────────────────
// campaign.Store
// ──────────────────────────────────────────────────

func (s *Store) CreateCampaign(_ context.Context, c *campaign.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[c.ID]; ok {
		return regie.ErrAlreadyExists
	}
	s.campaigns[c.ID] = cloneCampaign(c)
	return nil
}

func (s *Store) GetCampaign(_ context.Context, campaignID id.CampaignID) (*campaign.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[campaignID]
	if !ok {
		return nil, regie.ErrCampaignNotFound
	}
	return cloneCampaign(c), nil
}

func (s *Store) ListCampaigns(_ context.Context, regieID id.RegieID) ([]*campaign.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*campaign.Campaign, 0)
	for _, c := range s.campaigns {
		if c.RegieID == regieID {
			out = append(out, cloneCampaign(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *Store) UpdateCampaign(_ context.Context, c *campaign.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[c.ID]; !ok {
		return regie.ErrCampaignNotFound
	}
	s.campaigns[c.ID] = cloneCampaign(c)
	return nil
}

func (s *Store) ListCorrectives(_ context.Context, primaryID id.CampaignID) ([]*campaign.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*campaign.Campaign, 0)
	for _, c := range s.campaigns {
		if c.PrimaryCampaignID == primaryID {
			out = append(out, cloneCampaign(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *Store) CreatePool(_ context.Context, p *campaign.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pools[p.ID]; ok {
		return regie.ErrAlreadyExists
	}
	s.pools[p.ID] = clonePool(p)
	return nil
}

func (s *Store) GetPool(_ context.Context, poolID id.PoolID) (*campaign.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pools[poolID]
	if !ok {
		return nil, regie.ErrPoolNotFound
	}
	return clonePool(p), nil
}

func (s *Store) ListPools(_ context.Context, campaignID id.CampaignID) ([]*campaign.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*campaign.Pool, 0)
	for _, p := range s.pools {
		if p.CampaignID == campaignID {
			out = append(out, clonePool(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *Store) UpdatePool(_ context.Context, p *campaign.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pools[p.ID]; !ok {
		return regie.ErrPoolNotFound
	}
	s.pools[p.ID] = clonePool(p)
	return nil
}

func (s *Store) LatestPool(_ context.Context, campaignID id.CampaignID) (*campaign.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *campaign.Pool
	for _, p := range s.pools {
		if p.CampaignID != campaignID {
			continue
		}
		// Pool IDs are K-sortable, so the max ID is the newest run.
		if latest == nil || p.ID.String() > latest.ID.String() {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	return clonePool(latest), nil
}

func (s *Store) CreateAgendaUnlock(_ context.Context, u *campaign.AgendaUnlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agendaUnlocks[u.ID]; ok {
		return regie.ErrAlreadyExists
	}
	s.agendaUnlocks[u.ID] = cloneAgendaUnlock(u)
	return nil
}

func (s *Store) ListAgendaUnlocks(_ context.Context, campaignID id.CampaignID) ([]*campaign.AgendaUnlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*campaign.AgendaUnlock, 0)
	for _, u := range s.agendaUnlocks {
		if u.CampaignID == campaignID {
			out = append(out, cloneAgendaUnlock(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *Store) UpdateAgendaUnlock(_ context.Context, u *campaign.AgendaUnlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agendaUnlocks[u.ID]; !ok {
		return regie.ErrNotFound
	}
	s.agendaUnlocks[u.ID] = cloneAgendaUnlock(u)
	return nil
}

// ──────────────────────────────────────────────────
// invoice.Store
// ──────────────────────────────────────────────────

func (s *Store) CreateDraftInvoice(_ context.Context, d *invoice.DraftInvoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.draftInvoices[d.ID]; ok {
		return regie.ErrAlreadyExists
	}
	s.draftInvoices[d.ID] = cloneDraftInvoice(d)
	return nil
}

func (s *Store) GetDraftInvoice(_ context.Context, draftID id.DraftInvoiceID) (*invoice.DraftInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.draftInvoices[draftID]
	if !ok {
		return nil, regie.ErrDraftNotFound
	}
	return cloneDraftInvoice(d), nil
}

func (s *Store) ListDraftInvoices(_ context.Context, regieID id.RegieID, opts invoice.ListOpts) ([]*invoice.DraftInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*invoice.DraftInvoice, 0)
	for _, d := range s.draftInvoices {
		if d.RegieID != regieID {
			continue
		}
		if !opts.PoolID.IsNil() && d.PoolID != opts.PoolID {
			continue
		}
		if opts.PayerExternalID != "" && d.Payer.ExternalID != opts.PayerExternalID {
			continue
		}
		out = append(out, cloneDraftInvoice(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return paginate(out, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateDraftInvoice(_ context.Context, d *invoice.DraftInvoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.draftInvoices[d.ID]; !ok {
		return regie.ErrDraftNotFound
	}
	s.draftInvoices[d.ID] = cloneDraftInvoice(d)
	return nil
}

func (s *Store) DeleteDraftInvoice(_ context.Context, draftID id.DraftInvoiceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.draftInvoices[draftID]; !ok {
		return regie.ErrDraftNotFound
	}
	delete(s.draftInvoices, draftID)
	return nil
}

func (s *Store) GetInvoice(_ context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[invID]
	if !ok {
		return nil, regie.ErrInvoiceNotFound
	}
	return cloneInvoice(inv), nil
}

func (s *Store) ListInvoices(_ context.Context, regieID id.RegieID, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*invoice.Invoice, 0)
	for _, inv := range s.invoices {
		if inv.RegieID != regieID {
			continue
		}
		if !opts.PoolID.IsNil() && inv.PoolID != opts.PoolID {
			continue
		}
		if opts.PayerExternalID != "" && inv.Payer.ExternalID != opts.PayerExternalID {
			continue
		}
		if opts.ActiveOnly && !inv.State.IsActive() {
			continue
		}
		if !opts.DueBefore.IsZero() && !inv.DateDue.Before(opts.DueBefore) {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return paginate(out, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[inv.ID]; !ok {
		return regie.ErrInvoiceNotFound
	}
	s.invoices[inv.ID] = cloneInvoice(inv)
	return nil
}

// ──────────────────────────────────────────────────
// credit.Store
// ──────────────────────────────────────────────────

func (s *Store) CreateDraftCredit(_ context.Context, d *credit.DraftCredit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.draftCredits[d.ID]; ok {
		return regie.ErrAlreadyExists
	}
	s.draftCredits[d.ID] = cloneDraftCredit(d)
	return nil
}

func (s *Store) GetDraftCredit(_ context.Context, draftID id.DraftCreditID) (*credit.DraftCredit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.draftCredits[draftID]
	if !ok {
		return nil, regie.ErrDraftNotFound
	}
	return cloneDraftCredit(d), nil
}

func (s *Store) UpdateDraftCredit(_ context.Context, d *credit.DraftCredit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.draftCredits[d.ID]; !ok {
		return regie.ErrDraftNotFound
	}
	s.draftCredits[d.ID] = cloneDraftCredit(d)
	return nil
}

func (s *Store) DeleteDraftCredit(_ context.Context, draftID id.DraftCreditID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.draftCredits[draftID]; !ok {
		return regie.ErrDraftNotFound
	}
	delete(s.draftCredits, draftID)
	return nil
}

func (s *Store) GetCredit(_ context.Context, creditID id.CreditID) (*credit.Credit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.credits[creditID]
	if !ok {
		return nil, regie.ErrCreditNotFound
	}
	return cloneCredit(c), nil
}

func (s *Store) UpdateCredit(_ context.Context, c *credit.Credit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credits[c.ID]; !ok {
		return regie.ErrCreditNotFound
	}
	s.credits[c.ID] = cloneCredit(c)
	return nil
}

func (s *Store) ListUsableCredits(_ context.Context, regieID id.RegieID, payerExternalID string) ([]*credit.Credit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*credit.Credit, 0)
	for _, c := range s.usableCreditsLocked(regieID, payerExternalID) {
		out = append(out, cloneCredit(c))
	}
	return out, nil
}

// usableCreditsLocked returns live references, FIFO-ordered by publication
// date then id.
func (s *Store) usableCreditsLocked(regieID id.RegieID, payerExternalID string) []*credit.Credit {
	out := make([]*credit.Credit, 0)
	for _, c := range s.credits {
		if c.RegieID != regieID || c.Payer.ExternalID != payerExternalID {
			continue
		}
		if !c.Usable() {
			continue
		}
		if !s.poolCampaignFinalizedLocked(c.PoolID) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DatePublication.Equal(out[j].DatePublication) {
			return out[i].DatePublication.Before(out[j].DatePublication)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// poolCampaignFinalizedLocked reports whether a credit is reachable for
// assignment: no pool at all, or a pool whose campaign is finalized.
func (s *Store) poolCampaignFinalizedLocked(poolID id.PoolID) bool {
	if poolID.IsNil() {
		return true
	}
	p, ok := s.pools[poolID]
	if !ok {
		return false
	}
	c, ok := s.campaigns[p.CampaignID]
	return ok && c.Finalized
}

func (s *Store) CreateAssignment(_ context.Context, a *credit.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[a.ID]; ok {
		return regie.ErrAlreadyExists
	}
	s.assignments[a.ID] = cloneAssignment(a)
	return nil
}

func (s *Store) ListAssignmentsByInvoice(_ context.Context, invID id.InvoiceID) ([]*credit.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*credit.Assignment, 0)
	for _, a := range s.assignments {
		if a.InvoiceID == invID {
			out = append(out, cloneAssignment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *Store) ListAssignmentsByCredit(_ context.Context, creditID id.CreditID) ([]*credit.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*credit.Assignment, 0)
	for _, a := range s.assignments {
		if a.CreditID == creditID {
			out = append(out, cloneAssignment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// ──────────────────────────────────────────────────
// payment.Store
// ──────────────────────────────────────────────────

func (s *Store) GetPayment(_ context.Context, payID id.PaymentID) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[payID]
	if !ok {
		return nil, regie.ErrPaymentNotFound
	}
	return clonePayment(p), nil
}

func (s *Store) ListPayments(_ context.Context, regieID id.RegieID, opts payment.ListOpts) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*payment.Payment, 0)
	for _, p := range s.payments {
		if p.RegieID != regieID {
			continue
		}
		if opts.PayerExternalID != "" && p.Payer.ExternalID != opts.PayerExternalID {
			continue
		}
		if opts.PaymentTypeSlug != "" && p.PaymentTypeSlug != opts.PaymentTypeSlug {
			continue
		}
		if opts.ActiveOnly && !p.State.IsActive() {
			continue
		}
		if !opts.Before.IsZero() && !p.CreatedAt.Before(opts.Before) {
			continue
		}
		out = append(out, clonePayment(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return paginate(out, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdatePayment(_ context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ID]; !ok {
		return regie.ErrPaymentNotFound
	}
	s.payments[p.ID] = clonePayment(p)
	return nil
}

func (s *Store) ListLinePaymentsByPayment(_ context.Context, payID id.PaymentID) ([]*payment.InvoiceLinePayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*payment.InvoiceLinePayment, 0)
	for _, lp := range s.linePayments {
		if lp.PaymentID == payID {
			out = append(out, cloneLinePayment(lp))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *Store) ListLinePaymentsByInvoice(_ context.Context, invID id.InvoiceID) ([]*payment.InvoiceLinePayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*payment.InvoiceLinePayment, 0)
	for _, lp := range s.linePayments {
		if lp.InvoiceID == invID {
			out = append(out, cloneLinePayment(lp))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// ──────────────────────────────────────────────────
// docket.Store
// ──────────────────────────────────────────────────

func (s *Store) CreateCollectionDocket(_ context.Context, d *docket.CollectionDocket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collectionDockets[d.ID]; ok {
		return regie.ErrAlreadyExists
	}
	d.Number = s.nextNumber(d.RegieID, billing.KindCollectionDocket, d.CreatedAt)
	if r, ok := s.regies[d.RegieID]; ok {
		d.FormattedNumber = billing.FormatNumber(billing.KindCollectionDocket, r.Seq, d.CreatedAt, d.Number)
	}
	s.collectionDockets[d.ID] = cloneCollectionDocket(d)
	return nil
}

func (s *Store) GetCollectionDocket(_ context.Context, docketID id.CollectionDocketID) (*docket.CollectionDocket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.collectionDockets[docketID]
	if !ok {
		return nil, regie.ErrDocketNotFound
	}
	return cloneCollectionDocket(d), nil
}

func (s *Store) ListCollectionDockets(_ context.Context, regieID id.RegieID) ([]*docket.CollectionDocket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*docket.CollectionDocket, 0)
	for _, d := range s.collectionDockets {
		if d.RegieID == regieID {
			out = append(out, cloneCollectionDocket(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *Store) UpdateCollectionDocket(_ context.Context, d *docket.CollectionDocket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collectionDockets[d.ID]; !ok {
		return regie.ErrDocketNotFound
	}
	s.collectionDockets[d.ID] = cloneCollectionDocket(d)
	return nil
}

func (s *Store) CreatePaymentDocket(_ context.Context, d *docket.PaymentDocket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paymentDockets[d.ID]; ok {
		return regie.ErrAlreadyExists
	}
	d.Number = s.nextNumber(d.RegieID, billing.KindPaymentDocket, d.CreatedAt)
	if r, ok := s.regies[d.RegieID]; ok {
		d.FormattedNumber = billing.FormatNumber(billing.KindPaymentDocket, r.Seq, d.CreatedAt, d.Number)
	}
	s.paymentDockets[d.ID] = clonePaymentDocket(d)
	return nil
}

func (s *Store) GetPaymentDocket(_ context.Context, docketID id.PaymentDocketID) (*docket.PaymentDocket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.paymentDockets[docketID]
	if !ok {
		return nil, regie.ErrDocketNotFound
	}
	return clonePaymentDocket(d), nil
}

func (s *Store) ListPaymentDockets(_ context.Context, regieID id.RegieID) ([]*docket.PaymentDocket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*docket.PaymentDocket, 0)
	for _, d := range s.paymentDockets {
		if d.RegieID == regieID {
			out = append(out, clonePaymentDocket(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *Store) UpdatePaymentDocket(_ context.Context, d *docket.PaymentDocket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paymentDockets[d.ID]; !ok {
		return regie.ErrDocketNotFound
	}
	s.paymentDockets[d.ID] = clonePaymentDocket(d)
	return nil
}

// ──────────────────────────────────────────────────
// pagination helper
// ──────────────────────────────────────────────────

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
