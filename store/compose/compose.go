// Package compose implements the multi-row financial transitions of the
// store contract on top of a backend's CRUD surface. The SQL backends
// delegate their composite methods here; the counter upsert and the
// compare-and-set credit update are the two points where a backend must
// guarantee atomicity itself, and a lost race surfaces as a retryable
// error rather than a silent double-spend.
package compose

import (
	"context"
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

// Backend is the persistence surface a SQL store exposes to the composite
// layer: the per-domain CRUD contracts plus the row-level primitives the
// transitions need. Insert methods exist here and not on the public store
// fragments because finalization is the only path that creates numbered
// documents.
type Backend interface {
	billing.Store
	campaign.Store
	invoice.Store
	credit.Store
	payment.Store
	docket.Store

	InsertInvoice(ctx context.Context, inv *invoice.Invoice) error
	InsertCredit(ctx context.Context, c *credit.Credit) error
	InsertPayment(ctx context.Context, p *payment.Payment) error
	InsertLinePayment(ctx context.Context, lp *payment.InvoiceLinePayment) error
	DeleteLinePayment(ctx context.Context, lpID id.LinePaymentID) error

	ListAssignmentsByPayment(ctx context.Context, payID id.PaymentID) ([]*credit.Assignment, error)
	DeleteAssignment(ctx context.Context, asgnID id.AssignmentID) error

	// NextNumber atomically increments and returns the (regie, kind,
	// month) counter.
	NextNumber(ctx context.Context, regieID id.RegieID, kind billing.Kind, at time.Time) (int64, error)

	// UpdateCreditBalance persists the credit's balances only if the
	// stored remaining amount still equals expectedRemaining, and
	// returns regie.ErrCreditContended otherwise.
	UpdateCreditBalance(ctx context.Context, c *credit.Credit, expectedRemaining types.Amount) error
}

// FinalizeDraftInvoice closes a draft invoice into a numbered invoice and
// runs credit assignment unless skipped or past due.
func FinalizeDraftInvoice(ctx context.Context, b Backend, params store.FinalizeInvoiceParams) (*store.FinalizeInvoiceResult, error) {
	d, err := b.GetDraftInvoice(ctx, params.DraftID)
	if err != nil {
		return nil, err
	}
	total := invoice.TotalOf(d.Lines)
	if total.IsNegative() {
		return nil, &regie.BusinessRuleError{Rule: "negative_total", Message: "cannot close a draft with a negative total", Err: regie.ErrNegativeTotal}
	}
	r, err := b.GetRegie(ctx, d.RegieID)
	if err != nil {
		return nil, err
	}

	now := params.Now
	n, err := b.NextNumber(ctx, d.RegieID, billing.KindInvoice, now)
	if err != nil {
		return nil, err
	}
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
	if err := b.InsertInvoice(ctx, inv); err != nil {
		return nil, err
	}
	if err := b.DeleteDraftInvoice(ctx, params.DraftID); err != nil {
		return nil, err
	}

	res := &store.FinalizeInvoiceResult{}
	if !params.SkipAssignment && !inv.PastDue(now) {
		pays, asgns, err := assignCredits(ctx, b, inv, now)
		if err != nil {
			return nil, err
		}
		res.Payments = pays
		res.Assignments = asgns
	}
	res.Invoice = inv
	return res, nil
}

// FinalizeDraftCredit closes a draft credit into a numbered credit.
func FinalizeDraftCredit(ctx context.Context, b Backend, params store.FinalizeCreditParams) (*store.FinalizeCreditResult, error) {
	d, err := b.GetDraftCredit(ctx, params.DraftID)
	if err != nil {
		return nil, err
	}
	total := invoice.TotalOf(d.Lines)
	if total.IsNegative() {
		return nil, &regie.BusinessRuleError{Rule: "negative_total", Message: "cannot close a draft with a negative total", Err: regie.ErrNegativeTotal}
	}
	r, err := b.GetRegie(ctx, d.RegieID)
	if err != nil {
		return nil, err
	}

	now := params.Now
	pub := d.DatePublication
	if pub.IsZero() {
		pub = now
	}
	n, err := b.NextNumber(ctx, d.RegieID, billing.KindCredit, now)
	if err != nil {
		return nil, err
	}
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
	if err := b.InsertCredit(ctx, c); err != nil {
		return nil, err
	}
	if err := b.DeleteDraftCredit(ctx, params.DraftID); err != nil {
		return nil, err
	}
	return &store.FinalizeCreditResult{Credit: c}, nil
}

// AssignCredits applies the payer's usable credit balance to the invoice.
func AssignCredits(ctx context.Context, b Backend, invID id.InvoiceID, now time.Time) (*store.AssignCreditsResult, error) {
	inv, err := b.GetInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}
	if !inv.State.IsActive() {
		return nil, regie.ErrDocumentCancelled
	}
	if !inv.CollectionDocketID.IsNil() {
		return nil, regie.ErrDocumentCollected
	}

	pays, asgns, err := assignCredits(ctx, b, inv, now)
	if err != nil {
		return nil, err
	}
	return &store.AssignCreditsResult{
		Invoice:     inv,
		Payments:    pays,
		Assignments: asgns,
	}, nil
}

// assignCredits drains the payer's usable credits onto inv, oldest first.
// One synthetic credit-type payment and one assignment row per credit
// drawn. Settled invoices produce nothing.
func assignCredits(ctx context.Context, b Backend, inv *invoice.Invoice, now time.Time) ([]*payment.Payment, []*credit.Assignment, error) {
	if !inv.RemainingAmount.IsPositive() {
		return nil, nil, nil
	}

	credits, err := b.ListUsableCredits(ctx, inv.RegieID, inv.Payer.ExternalID)
	if err != nil {
		return nil, nil, err
	}
	draws := credit.PlanDrawdown(credits, inv.RemainingAmount)
	byID := make(map[id.CreditID]*credit.Credit, len(credits))
	for _, c := range credits {
		byID[c.ID] = c
	}

	var pays []*payment.Payment
	var asgns []*credit.Assignment
	for _, draw := range draws {
		c := byID[draw.CreditID]
		p, _, err := applyPayment(ctx, b, inv.RegieID, []*invoice.Invoice{inv}, draw.Amount, billing.CreditSlug, inv.Payer, now)
		if err != nil {
			return nil, nil, err
		}

		expected := c.RemainingAmount
		credit.ApplyDraw(c, draw.Amount)
		if err := b.UpdateCreditBalance(ctx, c, expected); err != nil {
			return nil, nil, err
		}

		a := &credit.Assignment{
			Entity:    types.NewEntity(),
			ID:        id.NewAssignmentID(),
			RegieID:   inv.RegieID,
			CreditID:  c.ID,
			InvoiceID: inv.ID,
			PaymentID: p.ID,
			Amount:    draw.Amount,
		}
		if err := b.CreateAssignment(ctx, a); err != nil {
			return nil, nil, err
		}

		pays = append(pays, p)
		asgns = append(asgns, a)
	}
	return pays, asgns, nil
}

// ApplyPayment registers one payment and allocates it across the target
// invoices' lines.
func ApplyPayment(ctx context.Context, b Backend, params store.ApplyPaymentParams) (*store.ApplyPaymentResult, error) {
	if _, err := b.GetRegie(ctx, params.RegieID); err != nil {
		return nil, err
	}
	if !params.Amount.IsPositive() {
		return nil, &regie.ValidationError{Field: "amount", Message: "must be positive"}
	}

	invs := make([]*invoice.Invoice, 0, len(params.InvoiceIDs))
	payer := params.Payer
	for _, invID := range params.InvoiceIDs {
		inv, err := b.GetInvoice(ctx, invID)
		if err != nil {
			return nil, err
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

	p, lps, err := applyPayment(ctx, b, params.RegieID, invs, params.Amount, params.PaymentTypeSlug, payer, params.Now)
	if err != nil {
		return nil, err
	}
	return &store.ApplyPaymentResult{
		Payment:      p,
		LinePayments: lps,
		Invoices:     invs,
	}, nil
}

// applyPayment numbers a payment, nets it across the invoices' lines and
// books the per-line join rows. Invoice balances mutate in place and are
// persisted per touched invoice.
func applyPayment(ctx context.Context, b Backend, regieID id.RegieID, invs []*invoice.Invoice, amount types.Amount, slug string, payer invoice.PayerSnapshot, now time.Time) (*payment.Payment, []*payment.InvoiceLinePayment, error) {
	r, err := b.GetRegie(ctx, regieID)
	if err != nil {
		return nil, nil, err
	}
	n, err := b.NextNumber(ctx, regieID, billing.KindPayment, now)
	if err != nil {
		return nil, nil, err
	}
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
	if err := b.InsertPayment(ctx, p); err != nil {
		return nil, nil, err
	}

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
	touched := make(map[id.InvoiceID]bool, len(invs))
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
		touched[inv.ID] = true

		lp := &payment.InvoiceLinePayment{
			Entity:    types.NewEntity(),
			ID:        id.NewLinePaymentID(),
			PaymentID: p.ID,
			InvoiceID: a.InvoiceID,
			LineID:    a.LineID,
			Amount:    a.Amount,
		}
		if err := b.InsertLinePayment(ctx, lp); err != nil {
			return nil, nil, err
		}
		lps = append(lps, lp)
	}
	for _, inv := range invs {
		if !touched[inv.ID] {
			continue
		}
		if err := b.UpdateInvoice(ctx, inv); err != nil {
			return nil, nil, err
		}
	}
	return p, lps, nil
}

// SyncCollectionDocket reconciles the docket's invoice membership.
func SyncCollectionDocket(ctx context.Context, b Backend, docketID id.CollectionDocketID) (docket.Diff[id.InvoiceID], error) {
	var zero docket.Diff[id.InvoiceID]
	d, err := b.GetCollectionDocket(ctx, docketID)
	if err != nil {
		return zero, err
	}
	if !d.State.IsActive() {
		return zero, regie.ErrDocketCancelled
	}

	invs, err := b.ListInvoices(ctx, d.RegieID, invoice.ListOpts{})
	if err != nil {
		return zero, err
	}
	byID := make(map[id.InvoiceID]*invoice.Invoice, len(invs))
	candidates := make([]docket.InvoiceCandidate, 0, len(invs))
	for _, inv := range invs {
		byID[inv.ID] = inv
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
		inv := byID[invID]
		inv.CollectionDocketID = id.CollectionDocketID{}
		inv.Touch()
		if err := b.UpdateInvoice(ctx, inv); err != nil {
			return zero, err
		}
	}
	for _, invID := range diff.Attach {
		inv := byID[invID]
		inv.CollectionDocketID = d.ID
		inv.Touch()
		if err := b.UpdateInvoice(ctx, inv); err != nil {
			return zero, err
		}
	}
	return diff, nil
}

// SyncPaymentDocket reconciles the docket's payment membership.
func SyncPaymentDocket(ctx context.Context, b Backend, docketID id.PaymentDocketID) (docket.Diff[id.PaymentID], error) {
	var zero docket.Diff[id.PaymentID]
	d, err := b.GetPaymentDocket(ctx, docketID)
	if err != nil {
		return zero, err
	}
	if !d.State.IsActive() {
		return zero, regie.ErrDocketCancelled
	}

	pays, err := b.ListPayments(ctx, d.RegieID, payment.ListOpts{})
	if err != nil {
		return zero, err
	}
	byID := make(map[id.PaymentID]*payment.Payment, len(pays))
	candidates := make([]docket.PaymentCandidate, 0, len(pays))
	for _, p := range pays {
		byID[p.ID] = p
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
		p := byID[payID]
		p.DocketID = id.PaymentDocketID{}
		p.Touch()
		if err := b.UpdatePayment(ctx, p); err != nil {
			return zero, err
		}
	}
	for _, payID := range diff.Attach {
		p := byID[payID]
		p.DocketID = d.ID
		p.Touch()
		if err := b.UpdatePayment(ctx, p); err != nil {
			return zero, err
		}
	}
	return diff, nil
}

// CollectDocketPayments settles every member invoice of a collection
// docket with one collect-type payment each.
func CollectDocketPayments(ctx context.Context, b Backend, docketID id.CollectionDocketID, now time.Time) (*store.CollectResult, error) {
	d, err := b.GetCollectionDocket(ctx, docketID)
	if err != nil {
		return nil, err
	}
	if !d.State.IsActive() {
		return nil, regie.ErrDocketCancelled
	}

	invs, err := b.ListInvoices(ctx, d.RegieID, invoice.ListOpts{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	res := &store.CollectResult{Docket: d}
	for _, inv := range invs {
		if inv.CollectionDocketID != d.ID || !inv.RemainingAmount.IsPositive() {
			continue
		}
		p, _, err := applyPayment(ctx, b, d.RegieID, []*invoice.Invoice{inv}, inv.RemainingAmount, billing.CollectSlug, inv.Payer, now)
		if err != nil {
			return nil, err
		}
		res.Payments = append(res.Payments, p)
	}
	return res, nil
}

// CancelInvoice terminally cancels an invoice with no payment history.
func CancelInvoice(ctx context.Context, b Backend, invID id.InvoiceID, c types.Cancellation) (*invoice.Invoice, error) {
	inv, err := b.GetInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}
	if inv.State.IsCancelled() {
		return nil, regie.ErrAlreadyCancelled
	}
	if !inv.CollectionDocketID.IsNil() {
		return nil, regie.ErrDocumentCollected
	}
	lps, err := b.ListLinePaymentsByInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}
	if len(lps) > 0 {
		return nil, &regie.BusinessRuleError{Rule: "payment_history", Message: "cannot cancel an invoice with payment history", Err: regie.ErrHasPayments}
	}

	inv.State = types.DocumentState{Cancelled: &c}
	inv.Touch()
	if err := b.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// CancelCredit terminally cancels a credit with no assignment history.
func CancelCredit(ctx context.Context, b Backend, creditID id.CreditID, c types.Cancellation) (*credit.Credit, error) {
	cr, err := b.GetCredit(ctx, creditID)
	if err != nil {
		return nil, err
	}
	if cr.State.IsCancelled() {
		return nil, regie.ErrAlreadyCancelled
	}
	asgns, err := b.ListAssignmentsByCredit(ctx, creditID)
	if err != nil {
		return nil, err
	}
	if len(asgns) > 0 {
		return nil, &regie.BusinessRuleError{Rule: "assignment_history", Message: "cannot cancel a credit with assignment history", Err: regie.ErrHasAssignments}
	}

	cr.State = types.DocumentState{Cancelled: &c}
	cr.Touch()
	if err := b.UpdateCredit(ctx, cr); err != nil {
		return nil, err
	}
	return cr, nil
}

// CancelPayment reverses every allocation and assignment the payment
// produced, then marks it cancelled.
func CancelPayment(ctx context.Context, b Backend, payID id.PaymentID, c types.Cancellation) (*payment.Payment, error) {
	p, err := b.GetPayment(ctx, payID)
	if err != nil {
		return nil, err
	}
	if p.State.IsCancelled() {
		return nil, regie.ErrAlreadyCancelled
	}
	if !p.DocketID.IsNil() {
		return nil, regie.ErrDocumentCollected
	}

	lps, err := b.ListLinePaymentsByPayment(ctx, payID)
	if err != nil {
		return nil, err
	}
	invs := make(map[id.InvoiceID]*invoice.Invoice)
	for _, lp := range lps {
		inv, ok := invs[lp.InvoiceID]
		if !ok {
			inv, err = b.GetInvoice(ctx, lp.InvoiceID)
			if err != nil {
				return nil, err
			}
			invs[lp.InvoiceID] = inv
		}
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
		if err := b.DeleteLinePayment(ctx, lp.ID); err != nil {
			return nil, err
		}
	}
	for _, inv := range invs {
		inv.Touch()
		if err := b.UpdateInvoice(ctx, inv); err != nil {
			return nil, err
		}
	}

	asgns, err := b.ListAssignmentsByPayment(ctx, payID)
	if err != nil {
		return nil, err
	}
	for _, a := range asgns {
		cr, err := b.GetCredit(ctx, a.CreditID)
		if err != nil {
			return nil, err
		}
		expected := cr.RemainingAmount
		cr.RemainingAmount = cr.RemainingAmount.Add(a.Amount)
		cr.AssignedAmount = cr.AssignedAmount.Sub(a.Amount)
		cr.Touch()
		if err := b.UpdateCreditBalance(ctx, cr, expected); err != nil {
			return nil, err
		}
		if err := b.DeleteAssignment(ctx, a.ID); err != nil {
			return nil, err
		}
	}

	p.State = types.DocumentState{Cancelled: &c}
	p.Touch()
	if err := b.UpdatePayment(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CancelCollectionDocket cancels the docket and detaches its members.
func CancelCollectionDocket(ctx context.Context, b Backend, docketID id.CollectionDocketID, c types.Cancellation) (*docket.CollectionDocket, error) {
	d, err := b.GetCollectionDocket(ctx, docketID)
	if err != nil {
		return nil, err
	}
	if d.State.IsCancelled() {
		return nil, regie.ErrAlreadyCancelled
	}

	invs, err := b.ListInvoices(ctx, d.RegieID, invoice.ListOpts{})
	if err != nil {
		return nil, err
	}
	for _, inv := range invs {
		if inv.CollectionDocketID != d.ID {
			continue
		}
		inv.CollectionDocketID = id.CollectionDocketID{}
		inv.Touch()
		if err := b.UpdateInvoice(ctx, inv); err != nil {
			return nil, err
		}
	}

	d.State = types.DocumentState{Cancelled: &c}
	d.Touch()
	if err := b.UpdateCollectionDocket(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// CancelPaymentDocket cancels the docket and detaches its members.
func CancelPaymentDocket(ctx context.Context, b Backend, docketID id.PaymentDocketID, c types.Cancellation) (*docket.PaymentDocket, error) {
	d, err := b.GetPaymentDocket(ctx, docketID)
	if err != nil {
		return nil, err
	}
	if d.State.IsCancelled() {
		return nil, regie.ErrAlreadyCancelled
	}

	pays, err := b.ListPayments(ctx, d.RegieID, payment.ListOpts{})
	if err != nil {
		return nil, err
	}
	for _, p := range pays {
		if p.DocketID != d.ID {
			continue
		}
		p.DocketID = id.PaymentDocketID{}
		p.Touch()
		if err := b.UpdatePayment(ctx, p); err != nil {
			return nil, err
		}
	}

	d.State = types.DocumentState{Cancelled: &c}
	d.Touch()
	if err := b.UpdatePaymentDocket(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// PropagateCampaignDates persists the campaign's dates and copies them
// onto every draft and finalized invoice of its pools. The debit date
// reaches only direct-debit payers.
func PropagateCampaignDates(ctx context.Context, b Backend, c *campaign.Campaign) error {
	if err := b.UpdateCampaign(ctx, c); err != nil {
		return err
	}
	pools, err := b.ListPools(ctx, c.ID)
	if err != nil {
		return err
	}

	for _, pool := range pools {
		drafts, err := b.ListDraftInvoices(ctx, c.RegieID, invoice.ListOpts{PoolID: pool.ID})
		if err != nil {
			return err
		}
		for _, d := range drafts {
			stampDates(&d.DatePublication, &d.DatePaymentDeadline, &d.DateDue, &d.DateDebit, c, d.Payer.DirectDebit)
			d.Touch()
			if err := b.UpdateDraftInvoice(ctx, d); err != nil {
				return err
			}
		}

		invs, err := b.ListInvoices(ctx, c.RegieID, invoice.ListOpts{PoolID: pool.ID})
		if err != nil {
			return err
		}
		for _, inv := range invs {
			if inv.State.IsCancelled() {
				continue
			}
			stampDates(&inv.DatePublication, &inv.DatePaymentDeadline, &inv.DateDue, &inv.DateDebit, c, inv.Payer.DirectDebit)
			inv.Touch()
			if err := b.UpdateInvoice(ctx, inv); err != nil {
				return err
			}
		}
	}
	return nil
}

func stampDates(pub, deadline, due, debit *time.Time, c *campaign.Campaign, directDebit bool) {
	*pub = c.DatePublication
	*deadline = c.DatePaymentDeadline
	*due = c.DateDue
	if directDebit {
		*debit = c.DateDebit
	} else {
		*debit = time.Time{}
	}
}
