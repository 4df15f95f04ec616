package memory

import (
	"context"
	"sort"
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
	"github.com/billcore/regie/types"
)

// FinalizeDraftInvoice implements store.Store.
func (s *Store) FinalizeDraftInvoice(_ context.Context, params store.FinalizeInvoiceParams) (*store.FinalizeInvoiceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.draftInvoices[params.DraftID]
	if !ok {
		return nil, regie.ErrDraftNotFound
	}
	total := invoice.TotalOf(d.Lines)
	if total.IsNegative() {
		return nil, &regie.BusinessRuleError{Rule: "negative_total", Message: "cannot close a draft with a negative total", Err: regie.ErrNegativeTotal}
	}
	r, ok := s.regies[d.RegieID]
	if !ok {
		return nil, regie.ErrRegieNotFound
	}

	now := params.Now
	n := s.nextNumber(d.RegieID, billing.KindInvoice, now)
	invID := id.NewInvoiceID()
	inv := &invoice.Invoice{
		Entity:              types.NewEntity(),
		ID:                  invID,
		RegieID:             d.RegieID,
		PoolID:              d.PoolID,
		Label:               d.Label,
		Payer:               d.Payer,
		Number:              n,
		FormattedNumber:     billing.FormatNumber(billing.KindInvoice, r.Seq, now, n),
		TotalAmount:         total,
		PaidAmount:          types.ZeroAmount,
		RemainingAmount:     total,
		DatePublication:     d.DatePublication,
		DatePaymentDeadline: d.DatePaymentDeadline,
		DateDue:             d.DateDue,
		DateDebit:           d.DateDebit,
		PreviousInvoiceID:   d.PreviousInvoiceID,
		State:               types.ActiveState(),
		Lines:               invoice.LinesFromDraft(d.Lines, invID),
	}
	delete(s.draftInvoices, params.DraftID)
	s.invoices[inv.ID] = inv

	res := &store.FinalizeInvoiceResult{}
	if !params.SkipAssignment && !inv.PastDue(now) {
		pays, asgns := s.assignCreditsLocked(inv, now)
		res.Payments = pays
		res.Assignments = asgns
	}
	res.Invoice = cloneInvoice(inv)
	return res, nil
}

// FinalizeDraftCredit implements store.Store.
func (s *Store) FinalizeDraftCredit(_ context.Context, params store.FinalizeCreditParams) (*store.FinalizeCreditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.draftCredits[params.DraftID]
	if !ok {
		return nil, regie.ErrDraftNotFound
	}
	total := invoice.TotalOf(d.Lines)
	if total.IsNegative() {
		return nil, &regie.BusinessRuleError{Rule: "negative_total", Message: "cannot close a draft with a negative total", Err: regie.ErrNegativeTotal}
	}
	r, ok := s.regies[d.RegieID]
	if !ok {
		return nil, regie.ErrRegieNotFound
	}

	now := params.Now
	pub := d.DatePublication
	if pub.IsZero() {
		pub = now
	}
	n := s.nextNumber(d.RegieID, billing.KindCredit, now)
	c := &credit.Credit{
		Entity:          types.NewEntity(),
		ID:              id.NewCreditID(),
		RegieID:         d.RegieID,
		PoolID:          d.PoolID,
		Label:           d.Label,
		Payer:           d.Payer,
		Number:          n,
		FormattedNumber: billing.FormatNumber(billing.KindCredit, r.Seq, now, n),
		TotalAmount:     total,
		AssignedAmount:  types.ZeroAmount,
		RemainingAmount: total,
		DatePublication: pub,
		UsableFlag:      true,
		State:           types.ActiveState(),
		Lines:           invoice.LinesFromDraft(d.Lines, id.InvoiceID{}),
	}
	delete(s.draftCredits, params.DraftID)
	s.credits[c.ID] = c

	return &store.FinalizeCreditResult{Credit: cloneCredit(c)}, nil
}

// AssignCredits implements store.Store.
func (s *Store) AssignCredits(_ context.Context, invID id.InvoiceID, now time.Time) (*store.AssignCreditsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[invID]
	if !ok {
		return nil, regie.ErrInvoiceNotFound
	}
	if !inv.State.IsActive() {
		return nil, regie.ErrDocumentCancelled
	}
	if !inv.CollectionDocketID.IsNil() {
		return nil, regie.ErrDocumentCollected
	}

	pays, asgns := s.assignCreditsLocked(inv, now)
	return &store.AssignCreditsResult{
		Invoice:     cloneInvoice(inv),
		Payments:    pays,
		Assignments: asgns,
	}, nil
}

// assignCreditsLocked drains the payer's usable credits onto inv, oldest
// first. One synthetic credit-type payment and one assignment row per
// credit drawn. Settled invoices produce nothing.
func (s *Store) assignCreditsLocked(inv *invoice.Invoice, now time.Time) ([]*payment.Payment, []*credit.Assignment) {
	if !inv.RemainingAmount.IsPositive() {
		return nil, nil
	}

	credits := s.usableCreditsLocked(inv.RegieID, inv.Payer.ExternalID)
	draws := credit.PlanDrawdown(credits, inv.RemainingAmount)
	byID := make(map[id.CreditID]*credit.Credit, len(credits))
	for _, c := range credits {
		byID[c.ID] = c
	}

	var pays []*payment.Payment
	var asgns []*credit.Assignment
	for _, draw := range draws {
		c := byID[draw.CreditID]
		p, _ := s.applyPaymentLocked(inv.RegieID, []*invoice.Invoice{inv}, draw.Amount, billing.CreditSlug, inv.Payer, now)
		credit.ApplyDraw(c, draw.Amount)

		a := &credit.Assignment{
			Entity:    types.NewEntity(),
			ID:        id.NewAssignmentID(),
			RegieID:   inv.RegieID,
			CreditID:  c.ID,
			InvoiceID: inv.ID,
			PaymentID: p.ID,
			Amount:    draw.Amount,
		}
		s.assignments[a.ID] = a

		pays = append(pays, clonePayment(p))
		asgns = append(asgns, cloneAssignment(a))
	}
	return pays, asgns
}

// ApplyPayment implements store.Store.
func (s *Store) ApplyPayment(_ context.Context, params store.ApplyPaymentParams) (*store.ApplyPaymentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.regies[params.RegieID]; !ok {
		return nil, regie.ErrRegieNotFound
	}
	if !params.Amount.IsPositive() {
		return nil, &regie.ValidationError{Field: "amount", Message: "must be positive"}
	}

	invs := make([]*invoice.Invoice, 0, len(params.InvoiceIDs))
	payer := params.Payer
	for _, invID := range params.InvoiceIDs {
		inv, ok := s.invoices[invID]
		if !ok {
			return nil, regie.ErrInvoiceNotFound
		}
		if inv.RegieID != params.RegieID {
			return nil, regie.ErrInvoiceNotFound
		}
		if !inv.State.IsActive() {
			return nil, regie.ErrDocumentCancelled
		}
		if !inv.CollectionDocketID.IsNil() && !params.AllowCollected {
			return nil, regie.ErrDocumentCollected
		}
		if payer.ExternalID == "" {
			payer = inv.Payer
		}
		if inv.Payer.ExternalID != payer.ExternalID {
			return nil, regie.ErrPayerMismatch
		}
		invs = append(invs, inv)
	}
	if len(invs) == 0 {
		return nil, &regie.ValidationError{Field: "invoice_ids", Message: "at least one invoice required"}
	}

	p, lps := s.applyPaymentLocked(params.RegieID, invs, params.Amount, params.PaymentTypeSlug, payer, params.Now)

	res := &store.ApplyPaymentResult{Payment: clonePayment(p)}
	for _, lp := range lps {
		res.LinePayments = append(res.LinePayments, cloneLinePayment(lp))
	}
	for _, inv := range invs {
		res.Invoices = append(res.Invoices, cloneInvoice(inv))
	}
	return res, nil
}

// applyPaymentLocked numbers a payment, nets it across the invoices'
// lines and books the per-line join rows. Invoices are live references;
// their balances mutate in place.
func (s *Store) applyPaymentLocked(regieID id.RegieID, invs []*invoice.Invoice, amount types.Amount, slug string, payer invoice.PayerSnapshot, now time.Time) (*payment.Payment, []*payment.InvoiceLinePayment) {
	r := s.regies[regieID]
	n := s.nextNumber(regieID, billing.KindPayment, now)
	p := &payment.Payment{
		Entity:          types.NewEntity(),
		ID:              id.NewPaymentID(),
		RegieID:         regieID,
		Number:          n,
		FormattedNumber: billing.FormatNumber(billing.KindPayment, r.Seq, now, n),
		Amount:          amount,
		PaymentTypeSlug: slug,
		Payer:           payer,
		State:           types.ActiveState(),
	}
	s.payments[p.ID] = p

	var balances []payment.LineBalance
	byInvoice := make(map[id.InvoiceID]*invoice.Invoice, len(invs))
	for _, inv := range invs {
		byInvoice[inv.ID] = inv
		for _, l := range inv.Lines {
			if l.Disabled {
				continue
			}
			balances = append(balances, payment.LineBalance{
				InvoiceID: inv.ID,
				LineID:    l.ID,
				Remaining: l.RemainingAmount,
			})
		}
	}

	allocs := payment.PlanAllocations(balances, amount)
	lps := make([]*payment.InvoiceLinePayment, 0, len(allocs))
	for _, a := range allocs {
		inv := byInvoice[a.InvoiceID]
		for _, l := range inv.Lines {
			if l.ID != a.LineID {
				continue
			}
			l.PaidAmount = l.PaidAmount.Add(a.Amount)
			l.RemainingAmount = l.RemainingAmount.Sub(a.Amount)
			break
		}
		inv.PaidAmount = inv.PaidAmount.Add(a.Amount)
		inv.RemainingAmount = inv.RemainingAmount.Sub(a.Amount)
		inv.Touch()

		lp := &payment.InvoiceLinePayment{
			Entity:    types.NewEntity(),
			ID:        id.NewLinePaymentID(),
			PaymentID: p.ID,
			InvoiceID: a.InvoiceID,
			LineID:    a.LineID,
			Amount:    a.Amount,
		}
		s.linePayments[lp.ID] = lp
		lps = append(lps, lp)
	}
	return p, lps
}

// SyncCollectionDocket implements store.Store.
func (s *Store) SyncCollectionDocket(_ context.Context, docketID id.CollectionDocketID) (docket.Diff[id.InvoiceID], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero docket.Diff[id.InvoiceID]
	d, ok := s.collectionDockets[docketID]
	if !ok {
		return zero, regie.ErrDocketNotFound
	}
	if !d.State.IsActive() {
		return zero, regie.ErrDocketCancelled
	}

	var candidates []docket.InvoiceCandidate
	for _, inv := range s.invoices {
		if inv.RegieID != d.RegieID {
			continue
		}
		candidates = append(candidates, docket.InvoiceCandidate{
			ID:              inv.ID,
			PayerExternalID: inv.Payer.ExternalID,
			RemainingAmount: inv.RemainingAmount,
			DateDue:         inv.DateDue,
			DocketID:        inv.CollectionDocketID,
			Active:          inv.State.IsActive(),
		})
	}

	diff := docket.PlanCollectionMembership(d, candidates)
	for _, invID := range diff.Detach {
		inv := s.invoices[invID]
		inv.CollectionDocketID = id.CollectionDocketID{}
		inv.Touch()
	}
	for _, invID := range diff.Attach {
		inv := s.invoices[invID]
		inv.CollectionDocketID = d.ID
		inv.Touch()
	}
	return diff, nil
}

// SyncPaymentDocket implements store.Store.
func (s *Store) SyncPaymentDocket(_ context.Context, docketID id.PaymentDocketID) (docket.Diff[id.PaymentID], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero docket.Diff[id.PaymentID]
	d, ok := s.paymentDockets[docketID]
	if !ok {
		return zero, regie.ErrDocketNotFound
	}
	if !d.State.IsActive() {
		return zero, regie.ErrDocketCancelled
	}

	var candidates []docket.PaymentCandidate
	for _, p := range s.payments {
		if p.RegieID != d.RegieID {
			continue
		}
		candidates = append(candidates, docket.PaymentCandidate{
			ID:              p.ID,
			PaymentTypeSlug: p.PaymentTypeSlug,
			ReceivedAt:      p.CreatedAt,
			DocketID:        p.DocketID,
			Active:          p.State.IsActive(),
		})
	}

	diff := docket.PlanPaymentMembership(d, candidates)
	for _, payID := range diff.Detach {
		p := s.payments[payID]
		p.DocketID = id.PaymentDocketID{}
		p.Touch()
	}
	for _, payID := range diff.Attach {
		p := s.payments[payID]
		p.DocketID = d.ID
		p.Touch()
	}
	return diff, nil
}

// CollectDocketPayments implements store.Store.
func (s *Store) CollectDocketPayments(_ context.Context, docketID id.CollectionDocketID, now time.Time) (*store.CollectResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.collectionDockets[docketID]
	if !ok {
		return nil, regie.ErrDocketNotFound
	}
	if !d.State.IsActive() {
		return nil, regie.ErrDocketCancelled
	}

	var members []*invoice.Invoice
	for _, inv := range s.invoices {
		if inv.CollectionDocketID == d.ID && inv.State.IsActive() && inv.RemainingAmount.IsPositive() {
			members = append(members, inv)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID.String() < members[j].ID.String() })

	res := &store.CollectResult{}
	for _, inv := range members {
		p, _ := s.applyPaymentLocked(d.RegieID, []*invoice.Invoice{inv}, inv.RemainingAmount, billing.CollectSlug, inv.Payer, now)
		res.Payments = append(res.Payments, clonePayment(p))
	}
	res.Docket = cloneCollectionDocket(d)
	return res, nil
}

// CancelInvoice implements store.Store.
func (s *Store) CancelInvoice(_ context.Context, invID id.InvoiceID, c types.Cancellation) (*invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[invID]
	if !ok {
		return nil, regie.ErrInvoiceNotFound
	}
	if inv.State.IsCancelled() {
		return nil, regie.ErrAlreadyCancelled
	}
	if !inv.CollectionDocketID.IsNil() {
		return nil, regie.ErrDocumentCollected
	}
	for _, lp := range s.linePayments {
		if lp.InvoiceID == invID {
			return nil, &regie.BusinessRuleError{Rule: "payment_history", Message: "cannot cancel an invoice with payment history", Err: regie.ErrHasPayments}
		}
	}

	inv.State = types.DocumentState{Cancelled: &c}
	inv.Touch()
	return cloneInvoice(inv), nil
}

// CancelCredit implements store.Store.
func (s *Store) CancelCredit(_ context.Context, creditID id.CreditID, c types.Cancellation) (*credit.Credit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cr, ok := s.credits[creditID]
	if !ok {
		return nil, regie.ErrCreditNotFound
	}
	if cr.State.IsCancelled() {
		return nil, regie.ErrAlreadyCancelled
	}
	for _, a := range s.assignments {
		if a.CreditID == creditID {
			return nil, &regie.BusinessRuleError{Rule: "assignment_history", Message: "cannot cancel a credit with assignment history", Err: regie.ErrHasAssignments}
		}
	}

	cr.State = types.DocumentState{Cancelled: &c}
	cr.Touch()
	return cloneCredit(cr), nil
}

// CancelPayment implements store.Store. Reverses every allocation and
// assignment the payment produced, then marks it cancelled.
func (s *Store) CancelPayment(_ context.Context, payID id.PaymentID, c types.Cancellation) (*payment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[payID]
	if !ok {
		return nil, regie.ErrPaymentNotFound
	}
	if p.State.IsCancelled() {
		return nil, regie.ErrAlreadyCancelled
	}
	if !p.DocketID.IsNil() {
		return nil, regie.ErrDocumentCollected
	}

	for lpID, lp := range s.linePayments {
		if lp.PaymentID != payID {
			continue
		}
		inv := s.invoices[lp.InvoiceID]
		for _, l := range inv.Lines {
			if l.ID != lp.LineID {
				continue
			}
			l.PaidAmount = l.PaidAmount.Sub(lp.Amount)
			l.RemainingAmount = l.RemainingAmount.Add(lp.Amount)
			break
		}
		inv.PaidAmount = inv.PaidAmount.Sub(lp.Amount)
		inv.RemainingAmount = inv.RemainingAmount.Add(lp.Amount)
		inv.Touch()
		delete(s.linePayments, lpID)
	}

	for aID, a := range s.assignments {
		if a.PaymentID != payID {
			continue
		}
		cr := s.credits[a.CreditID]
		cr.RemainingAmount = cr.RemainingAmount.Add(a.Amount)
		cr.AssignedAmount = cr.AssignedAmount.Sub(a.Amount)
		cr.Touch()
		delete(s.assignments, aID)
	}

	p.State = types.DocumentState{Cancelled: &c}
	p.Touch()
	return clonePayment(p), nil
}

// CancelCollectionDocket implements store.Store.
func (s *Store) CancelCollectionDocket(_ context.Context, docketID id.CollectionDocketID, c types.Cancellation) (*docket.CollectionDocket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.collectionDockets[docketID]
	if !ok {
		return nil, regie.ErrDocketNotFound
	}
	if d.State.IsCancelled() {
		return nil, regie.ErrAlreadyCancelled
	}

	for _, inv := range s.invoices {
		if inv.CollectionDocketID == d.ID {
			inv.CollectionDocketID = id.CollectionDocketID{}
			inv.Touch()
		}
	}
	d.State = types.DocumentState{Cancelled: &c}
	d.Touch()
	return cloneCollectionDocket(d), nil
}

// CancelPaymentDocket implements store.Store.
func (s *Store) CancelPaymentDocket(_ context.Context, docketID id.PaymentDocketID, c types.Cancellation) (*docket.PaymentDocket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.paymentDockets[docketID]
	if !ok {
		return nil, regie.ErrDocketNotFound
	}
	if d.State.IsCancelled() {
		return nil, regie.ErrAlreadyCancelled
	}

	for _, p := range s.payments {
		if p.DocketID == d.ID {
			p.DocketID = id.PaymentDocketID{}
			p.Touch()
		}
	}
	d.State = types.DocumentState{Cancelled: &c}
	d.Touch()
	return clonePaymentDocket(d), nil
}

// PropagateCampaignDates implements store.Store.
func (s *Store) PropagateCampaignDates(_ context.Context, c *campaign.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.campaigns[c.ID]; !ok {
		return regie.ErrCampaignNotFound
	}
	s.campaigns[c.ID] = cloneCampaign(c)

	poolIDs := make(map[id.PoolID]bool)
	for _, p := range s.pools {
		if p.CampaignID == c.ID {
			poolIDs[p.ID] = true
		}
	}

	for _, d := range s.draftInvoices {
		if !poolIDs[d.PoolID] {
			continue
		}
		d.DatePublication = c.DatePublication
		d.DatePaymentDeadline = c.DatePaymentDeadline
		d.DateDue = c.DateDue
		if d.Payer.DirectDebit {
			d.DateDebit = c.DateDebit
		} else {
			d.DateDebit = time.Time{}
		}
		d.Touch()
	}
	for _, inv := range s.invoices {
		if !poolIDs[inv.PoolID] || inv.State.IsCancelled() {
			continue
		}
		inv.DatePublication = c.DatePublication
		inv.DatePaymentDeadline = c.DatePaymentDeadline
		inv.DateDue = c.DateDue
		if inv.Payer.DirectDebit {
			inv.DateDebit = c.DateDebit
		} else {
			inv.DateDebit = time.Time{}
		}
		inv.Touch()
	}
	return nil
}
