package regie_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	regie "github.com/billcore/regie"
	"github.com/billcore/regie/billing"
	"github.com/billcore/regie/campaign"
	"github.com/billcore/regie/credit"
	"github.com/billcore/regie/id"
	"github.com/billcore/regie/invoice"
	"github.com/billcore/regie/store"
	"github.com/billcore/regie/store/memory"
	"github.com/billcore/regie/types"
)

// fixedNow pins the engine clock so formatted numbers land in a known
// period.
var fixedNow = time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC)

func newEngine(t *testing.T) *regie.Engine {
	t.Helper()
	e := regie.New(memory.New(), regie.WithClock(func() time.Time { return fixedNow }))
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start engine: %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })
	return e
}

func newRegie(t *testing.T, e *regie.Engine, slug string) *billing.Regie {
	t.Helper()
	r := &billing.Regie{
		Label:                  "Department " + slug,
		Slug:                   slug,
		CollectionMinThreshold: types.MustAmount("5"),
	}
	if err := e.CreateRegie(context.Background(), r); err != nil {
		t.Fatalf("create regie: %v", err)
	}
	return r
}

func payer(ext string) invoice.PayerSnapshot {
	return invoice.PayerSnapshot{ExternalID: ext, FirstName: "Jean", LastName: "Dupont"}
}

func line(label, qty, unit string) invoice.LineInput {
	return invoice.LineInput{
		Label:      label,
		Quantity:   types.MustAmount(qty),
		UnitAmount: types.MustAmount(unit),
	}
}

// draftWith creates a standalone draft and adds its lines through the
// engine, returning the draft as last seen.
func draftWith(t *testing.T, e *regie.Engine, regieID id.RegieID, p invoice.PayerSnapshot, due time.Time, lines ...invoice.LineInput) *invoice.DraftInvoice {
	t.Helper()
	ctx := context.Background()
	d := &invoice.DraftInvoice{
		RegieID:             regieID,
		Label:               "Ad hoc billing",
		Payer:               p,
		DatePublication:     fixedNow,
		DatePaymentDeadline: fixedNow.AddDate(0, 0, 15),
		DateDue:             due,
	}
	if err := e.CreateDraftInvoice(ctx, d); err != nil {
		t.Fatalf("create draft invoice: %v", err)
	}
	out := d
	for _, in := range lines {
		updated, err := e.AddDraftLine(ctx, d.ID, in)
		if err != nil {
			t.Fatalf("add draft line: %v", err)
		}
		out = updated
	}
	return out
}

func closeDraft(t *testing.T, e *regie.Engine, draftID id.DraftInvoiceID) *store.FinalizeInvoiceResult {
	t.Helper()
	res, err := e.CloseDraftInvoice(context.Background(), draftID)
	if err != nil {
		t.Fatalf("close draft invoice: %v", err)
	}
	return res
}

func newCampaign(t *testing.T, e *regie.Engine, regieID id.RegieID, agenda string, pub time.Time) *campaign.Campaign {
	t.Helper()
	c := &campaign.Campaign{
		RegieID:             regieID,
		Label:               "Season " + agenda,
		DateStart:           time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		DateEnd:             time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC),
		Agendas:             []string{agenda},
		DatePublication:     pub,
		DatePaymentDeadline: pub.AddDate(0, 0, 15),
		DateDue:             pub.AddDate(0, 1, 0),
		DateDebit:           pub.AddDate(0, 1, 5),
	}
	if err := e.CreateCampaign(context.Background(), c); err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	return c
}

// runPool drives one generation run from creation through promotion.
func runPool(t *testing.T, e *regie.Engine, campaignID id.CampaignID, seeds ...regie.DraftSeed) *regie.PoolResult {
	t.Helper()
	ctx := context.Background()
	p, err := e.CreatePool(ctx, campaignID)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	if _, err := e.StartPool(ctx, p.ID); err != nil {
		t.Fatalf("start pool: %v", err)
	}
	if _, err := e.GenerateDraftDocuments(ctx, p.ID, seeds); err != nil {
		t.Fatalf("generate drafts: %v", err)
	}
	if _, err := e.CompletePool(ctx, p.ID); err != nil {
		t.Fatalf("complete pool: %v", err)
	}
	res, err := e.FinalizePool(ctx, p.ID)
	if err != nil {
		t.Fatalf("finalize pool: %v", err)
	}
	return res
}

// makeCredit produces one usable credit of the given amount by running a
// negative billing campaign end to end.
func makeCredit(t *testing.T, e *regie.Engine, regieID id.RegieID, p invoice.PayerSnapshot, agenda, amount string, pub time.Time) *credit.Credit {
	t.Helper()
	c := newCampaign(t, e, regieID, agenda, pub)
	res := runPool(t, e, c.ID, regie.DraftSeed{
		Payer: p,
		Lines: []invoice.LineInput{line("Refund", "-1", amount)},
	})
	if len(res.Credits) != 1 {
		t.Fatalf("got %d credits, want 1", len(res.Credits))
	}
	if _, err := e.FinalizeCampaign(context.Background(), c.ID); err != nil {
		t.Fatalf("finalize campaign: %v", err)
	}
	return res.Credits[0]
}

func wantAmount(t *testing.T, got types.Amount, want string) {
	t.Helper()
	if !got.Equal(types.MustAmount(want)) {
		t.Errorf("amount = %s, want %s", got, want)
	}
}

func TestCreateRegieSeedsDefaultPaymentTypes(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")

	pts, err := e.ListPaymentTypes(ctx, r.ID)
	if err != nil {
		t.Fatalf("list payment types: %v", err)
	}
	if len(pts) != 7 {
		t.Fatalf("got %d payment types, want 7", len(pts))
	}
	slugs := make(map[string]bool, len(pts))
	for _, pt := range pts {
		slugs[pt.Slug] = true
	}
	for _, want := range []string{"cash", "check", billing.CreditSlug, billing.CollectSlug} {
		if !slugs[want] {
			t.Errorf("missing payment type %q", want)
		}
	}

	err = e.CreatePaymentType(ctx, &billing.PaymentType{RegieID: r.ID, Slug: billing.CreditSlug, Label: "Fake"})
	if !errors.Is(err, regie.ErrPaymentTypeReserved) {
		t.Errorf("create reserved slug: got %v, want ErrPaymentTypeReserved", err)
	}
	err = e.SetPaymentTypeDisabled(ctx, r.ID, billing.CollectSlug, true)
	if !errors.Is(err, regie.ErrPaymentTypeReserved) {
		t.Errorf("disable reserved slug: got %v, want ErrPaymentTypeReserved", err)
	}
}

func TestCloseDraftInvoiceAssignsSequentialNumbers(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r1 := newRegie(t, e, "sports")
	r2 := newRegie(t, e, "culture")
	if r1.Seq != 1 || r2.Seq != 2 {
		t.Fatalf("regie seqs = %d, %d, want 1, 2", r1.Seq, r2.Seq)
	}
	due := fixedNow.AddDate(0, 1, 0)

	d1 := draftWith(t, e, r1.ID, payer("p-1"), due, line("Session", "1", "10"))
	d2 := draftWith(t, e, r1.ID, payer("p-1"), due, line("Session", "1", "10"))
	inv1 := closeDraft(t, e, d1.ID).Invoice
	inv2 := closeDraft(t, e, d2.ID).Invoice
	if inv1.FormattedNumber != "F01-24-11-0000001" {
		t.Errorf("first invoice number = %q, want F01-24-11-0000001", inv1.FormattedNumber)
	}
	if inv2.FormattedNumber != "F01-24-11-0000002" {
		t.Errorf("second invoice number = %q, want F01-24-11-0000002", inv2.FormattedNumber)
	}

	// Each regie numbers independently.
	d3 := draftWith(t, e, r2.ID, payer("p-9"), due, line("Session", "1", "10"))
	inv3 := closeDraft(t, e, d3.ID).Invoice
	if inv3.FormattedNumber != "F02-24-11-0000001" {
		t.Errorf("other regie invoice number = %q, want F02-24-11-0000001", inv3.FormattedNumber)
	}

	payRes, err := e.RegisterPayment(ctx, regie.RegisterPaymentInput{
		RegieID:         r1.ID,
		InvoiceIDs:      []id.InvoiceID{inv1.ID},
		Amount:          types.MustAmount("10"),
		PaymentTypeSlug: "check",
	})
	if err != nil {
		t.Fatalf("register payment: %v", err)
	}
	if payRes.Payment.FormattedNumber != "R01-24-11-0000001" {
		t.Errorf("payment number = %q, want R01-24-11-0000001", payRes.Payment.FormattedNumber)
	}
}

func TestRegisterPaymentNetsNegativeLines(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")
	due := fixedNow.AddDate(0, 1, 0)

	d := draftWith(t, e, r.ID, payer("p-1"), due,
		line("Pool session", "1", "84"),
		line("Early-bird rebate", "-1", "42"),
	)
	inv := closeDraft(t, e, d.ID).Invoice
	wantAmount(t, inv.TotalAmount, "42")

	res, err := e.RegisterPayment(ctx, regie.RegisterPaymentInput{
		RegieID:         r.ID,
		InvoiceIDs:      []id.InvoiceID{inv.ID},
		Amount:          types.MustAmount("42"),
		PaymentTypeSlug: "check",
	})
	if err != nil {
		t.Fatalf("register payment: %v", err)
	}

	// Netting first: the negative line is zeroed by a negative
	// allocation, freeing its value for the positive line.
	if len(res.LinePayments) != 2 {
		t.Fatalf("got %d line payments, want 2", len(res.LinePayments))
	}
	wantAmount(t, res.LinePayments[0].Amount, "-42")
	if res.LinePayments[0].LineID != inv.Lines[1].ID {
		t.Errorf("netting row targets line %s, want %s", res.LinePayments[0].LineID, inv.Lines[1].ID)
	}
	wantAmount(t, res.LinePayments[1].Amount, "84")
	if res.LinePayments[1].LineID != inv.Lines[0].ID {
		t.Errorf("allocation row targets line %s, want %s", res.LinePayments[1].LineID, inv.Lines[0].ID)
	}

	settled := res.Invoices[0]
	wantAmount(t, settled.PaidAmount, "42")
	wantAmount(t, settled.RemainingAmount, "0")
	for _, l := range settled.Lines {
		wantAmount(t, l.RemainingAmount, "0")
	}
}

func TestRegisterPaymentAcceptsOverpayment(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")
	due := fixedNow.AddDate(0, 1, 0)

	d := draftWith(t, e, r.ID, payer("p-1"), due, line("Session", "1", "10"))
	inv := closeDraft(t, e, d.ID).Invoice

	res, err := e.RegisterPayment(ctx, regie.RegisterPaymentInput{
		RegieID:         r.ID,
		InvoiceIDs:      []id.InvoiceID{inv.ID},
		Amount:          types.MustAmount("25"),
		PaymentTypeSlug: "cash",
	})
	if err != nil {
		t.Fatalf("register payment: %v", err)
	}
	// The surplus stays on the payment, unallocated.
	wantAmount(t, res.Payment.Amount, "25")
	if len(res.LinePayments) != 1 {
		t.Fatalf("got %d line payments, want 1", len(res.LinePayments))
	}
	wantAmount(t, res.LinePayments[0].Amount, "10")
	wantAmount(t, res.Invoices[0].RemainingAmount, "0")
}

func TestRegisterPaymentValidation(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")
	due := fixedNow.AddDate(0, 1, 0)

	dA := draftWith(t, e, r.ID, payer("payer-a"), due, line("Session", "1", "10"))
	dB := draftWith(t, e, r.ID, payer("payer-b"), due, line("Session", "1", "10"))
	invA := closeDraft(t, e, dA.ID).Invoice
	invB := closeDraft(t, e, dB.ID).Invoice

	cases := []struct {
		name string
		in   regie.RegisterPaymentInput
		want error
	}{
		{
			name: "zero amount",
			in: regie.RegisterPaymentInput{
				RegieID: r.ID, InvoiceIDs: []id.InvoiceID{invA.ID},
				Amount: types.ZeroAmount, PaymentTypeSlug: "cash",
			},
			want: regie.ErrInvalidInput,
		},
		{
			name: "no invoices",
			in: regie.RegisterPaymentInput{
				RegieID: r.ID, Amount: types.MustAmount("10"), PaymentTypeSlug: "cash",
			},
			want: regie.ErrInvalidInput,
		},
		{
			name: "reserved type",
			in: regie.RegisterPaymentInput{
				RegieID: r.ID, InvoiceIDs: []id.InvoiceID{invA.ID},
				Amount: types.MustAmount("10"), PaymentTypeSlug: billing.CreditSlug,
			},
			want: regie.ErrPaymentTypeReserved,
		},
		{
			name: "mixed payers",
			in: regie.RegisterPaymentInput{
				RegieID: r.ID, InvoiceIDs: []id.InvoiceID{invA.ID, invB.ID},
				Amount: types.MustAmount("10"), PaymentTypeSlug: "cash",
			},
			want: regie.ErrPayerMismatch,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.RegisterPayment(ctx, tc.in)
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}

	if err := e.SetPaymentTypeDisabled(ctx, r.ID, "cash", true); err != nil {
		t.Fatalf("disable payment type: %v", err)
	}
	_, err := e.RegisterPayment(ctx, regie.RegisterPaymentInput{
		RegieID: r.ID, InvoiceIDs: []id.InvoiceID{invA.ID},
		Amount: types.MustAmount("10"), PaymentTypeSlug: "cash",
	})
	if !errors.Is(err, regie.ErrPaymentTypeDisabled) {
		t.Errorf("disabled type: got %v, want ErrPaymentTypeDisabled", err)
	}
}

func TestAddDraftLineMergesMatchingLines(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")
	due := fixedNow.AddDate(0, 1, 0)

	mergeable := func(qty, date string) invoice.LineInput {
		return invoice.LineInput{
			Label:      "Swim pass",
			Quantity:   types.MustAmount(qty),
			UnitAmount: types.MustAmount("10"),
			EventSlug:  "swim",
			AgendaSlug: "pool-a",
			Subject:    "Swimming",
			MergeLines: true,
			Dates:      []string{date},
		}
	}

	d := draftWith(t, e, r.ID, payer("p-1"), due, mergeable("1", "2024-11-02"))
	d, err := e.AddDraftLine(ctx, d.ID, mergeable("2", "2024-11-01"))
	if err != nil {
		t.Fatalf("add merging line: %v", err)
	}
	if len(d.Lines) != 1 {
		t.Fatalf("got %d lines, want 1 merged line", len(d.Lines))
	}
	wantAmount(t, d.Lines[0].Quantity, "3")
	wantAmount(t, d.Lines[0].TotalAmount, "30")
	wantAmount(t, d.TotalAmount, "30")
	if got := d.Lines[0].Details.Dates; len(got) != 2 || got[0] != "2024-11-01" || got[1] != "2024-11-02" {
		t.Errorf("merged dates = %v, want sorted union", got)
	}
	if d.Lines[0].Description != "Swimming" {
		t.Errorf("description = %q, want %q", d.Lines[0].Description, "Swimming")
	}

	// A different unit amount never merges.
	other := mergeable("1", "2024-11-03")
	other.UnitAmount = types.MustAmount("12")
	d, err = e.AddDraftLine(ctx, d.ID, other)
	if err != nil {
		t.Fatalf("add non-merging line: %v", err)
	}
	if len(d.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(d.Lines))
	}
}

func TestFinalizePoolPromotesNegativeDraftsToCredits(t *testing.T) {
	e := newEngine(t)
	r := newRegie(t, e, "sports")
	c := newCampaign(t, e, r.ID, "tennis", fixedNow)

	res := runPool(t, e, c.ID,
		regie.DraftSeed{Payer: payer("payer-a"), Lines: []invoice.LineInput{line("Course", "1", "30")}},
		regie.DraftSeed{Payer: payer("payer-b"), Lines: []invoice.LineInput{line("Overcharge refund", "-2", "21")}},
	)

	if len(res.Invoices) != 1 || len(res.Credits) != 1 {
		t.Fatalf("got %d invoices and %d credits, want 1 and 1", len(res.Invoices), len(res.Credits))
	}
	if res.Invoices[0].FormattedNumber != "F01-24-11-0000001" {
		t.Errorf("invoice number = %q, want F01-24-11-0000001", res.Invoices[0].FormattedNumber)
	}
	cr := res.Credits[0]
	if cr.FormattedNumber != "A01-24-11-0000001" {
		t.Errorf("credit number = %q, want A01-24-11-0000001", cr.FormattedNumber)
	}
	wantAmount(t, cr.TotalAmount, "42")
	wantAmount(t, cr.RemainingAmount, "42")
	if len(cr.Lines) != 1 {
		t.Fatalf("got %d credit lines, want 1", len(cr.Lines))
	}
	// Quantities are inverted on promotion.
	wantAmount(t, cr.Lines[0].Quantity, "2")

	if res.Pool.Draft {
		t.Error("promoted pool still marked draft")
	}

	// The credit consumed no invoice number: the next invoice is #2.
	d := draftWith(t, e, r.ID, payer("payer-c"), fixedNow.AddDate(0, 1, 0), line("Session", "1", "10"))
	next := closeDraft(t, e, d.ID).Invoice
	if next.FormattedNumber != "F01-24-11-0000002" {
		t.Errorf("next invoice number = %q, want F01-24-11-0000002", next.FormattedNumber)
	}
}

func TestPoolLifecycleGuards(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")
	c := newCampaign(t, e, r.ID, "judo", fixedNow)

	p1, err := e.CreatePool(ctx, c.ID)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	if _, err := e.FinalizePool(ctx, p1.ID); !errors.Is(err, regie.ErrPoolNotProcessable) {
		t.Errorf("finalize registered pool: got %v, want ErrPoolNotProcessable", err)
	}
	if _, err := e.GenerateDraftDocuments(ctx, p1.ID, nil); !errors.Is(err, regie.ErrPoolNotProcessable) {
		t.Errorf("generate on registered pool: got %v, want ErrPoolNotProcessable", err)
	}
	if _, err := e.StartPool(ctx, p1.ID); err != nil {
		t.Fatalf("start pool: %v", err)
	}
	if _, err := e.StartPool(ctx, p1.ID); !errors.Is(err, regie.ErrPoolNotProcessable) {
		t.Errorf("start running pool: got %v, want ErrPoolNotProcessable", err)
	}
	if _, err := e.CompletePool(ctx, p1.ID); err != nil {
		t.Fatalf("complete pool: %v", err)
	}

	// A newer pool supersedes p1: only the latest run may be promoted.
	p2, err := e.CreatePool(ctx, c.ID)
	if err != nil {
		t.Fatalf("create second pool: %v", err)
	}
	if _, err := e.FinalizePool(ctx, p1.ID); !errors.Is(err, regie.ErrPoolNotLast) {
		t.Errorf("finalize superseded pool: got %v, want ErrPoolNotLast", err)
	}

	if _, err := e.StartPool(ctx, p2.ID); err != nil {
		t.Fatalf("start second pool: %v", err)
	}
	if _, err := e.CompletePool(ctx, p2.ID); err != nil {
		t.Fatalf("complete second pool: %v", err)
	}
	if _, err := e.FinalizePool(ctx, p2.ID); err != nil {
		t.Fatalf("finalize second pool: %v", err)
	}
	if _, err := e.FinalizePool(ctx, p2.ID); !errors.Is(err, regie.ErrPoolNotDraft) {
		t.Errorf("double finalize: got %v, want ErrPoolNotDraft", err)
	}
}

func TestCreditsRequireFinalizedCampaign(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")
	p := payer("payer-a")

	// Finalizing before the latest pool is promoted is a state error.
	early := newCampaign(t, e, r.ID, "rowing", fixedNow)
	if _, err := e.CreatePool(ctx, early.ID); err != nil {
		t.Fatalf("create pool: %v", err)
	}
	if _, err := e.FinalizeCampaign(ctx, early.ID); !regie.IsStateError(err) {
		t.Errorf("finalize with unpromoted pool: got %v, want state error", err)
	}

	c := newCampaign(t, e, r.ID, "swim", fixedNow)
	res := runPool(t, e, c.ID, regie.DraftSeed{
		Payer: p,
		Lines: []invoice.LineInput{line("Refund", "-1", "42")},
	})
	if len(res.Credits) != 1 {
		t.Fatalf("got %d credits, want 1", len(res.Credits))
	}

	// Campaign not finalized yet: the credit is invisible to assignment.
	usable, err := e.ListUsableCredits(ctx, r.ID, p.ExternalID)
	if err != nil {
		t.Fatalf("list usable credits: %v", err)
	}
	if len(usable) != 0 {
		t.Fatalf("got %d usable credits before finalization, want 0", len(usable))
	}

	if _, err := e.FinalizeCampaign(ctx, c.ID); err != nil {
		t.Fatalf("finalize campaign: %v", err)
	}
	usable, err = e.ListUsableCredits(ctx, r.ID, p.ExternalID)
	if err != nil {
		t.Fatalf("list usable credits: %v", err)
	}
	if len(usable) != 1 {
		t.Fatalf("got %d usable credits after finalization, want 1", len(usable))
	}

	if _, err := e.FinalizeCampaign(ctx, c.ID); !errors.Is(err, regie.ErrCampaignFinalized) {
		t.Errorf("double finalize: got %v, want ErrCampaignFinalized", err)
	}
	if _, err := e.CreatePool(ctx, c.ID); !errors.Is(err, regie.ErrCampaignFinalized) {
		t.Errorf("pool on finalized campaign: got %v, want ErrCampaignFinalized", err)
	}

	// Parking a credit removes it from assignment without cancelling it.
	if _, err := e.SetCreditUsable(ctx, usable[0].ID, false); err != nil {
		t.Fatalf("park credit: %v", err)
	}
	parked, err := e.ListUsableCredits(ctx, r.ID, p.ExternalID)
	if err != nil {
		t.Fatalf("list usable credits: %v", err)
	}
	if len(parked) != 0 {
		t.Fatalf("got %d usable credits while parked, want 0", len(parked))
	}
	if _, err := e.SetCreditUsable(ctx, usable[0].ID, true); err != nil {
		t.Fatalf("release credit: %v", err)
	}
}

func TestCloseDraftInvoiceRejectsNegativeTotal(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")

	d := draftWith(t, e, r.ID, payer("p-1"), fixedNow.AddDate(0, 1, 0), line("Refund", "-1", "10"))
	_, err := e.CloseDraftInvoice(ctx, d.ID)
	if !errors.Is(err, regie.ErrNegativeTotal) {
		t.Fatalf("close negative draft: got %v, want ErrNegativeTotal", err)
	}
	var bre *regie.BusinessRuleError
	if !errors.As(err, &bre) || bre.Rule != "negative_total" {
		t.Errorf("close negative draft: got %v, want a negative_total rule rejection", err)
	}
	if !regie.IsBusinessRuleError(err) {
		t.Error("negative-total rejection not classified as a business rule error")
	}
	// The draft survives the rejection untouched.
	if _, err := e.GetDraftInvoice(ctx, d.ID); err != nil {
		t.Errorf("draft gone after rejected close: %v", err)
	}
}

func TestCreditAssignmentDrainsOldestFirst(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")
	p := payer("payer-a")

	septFirst := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	septFifth := time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC)
	older := makeCredit(t, e, r.ID, p, "tennis", "42", septFirst)
	newer := makeCredit(t, e, r.ID, p, "judo", "58", septFifth)

	usable, err := e.ListUsableCredits(ctx, r.ID, p.ExternalID)
	if err != nil {
		t.Fatalf("list usable credits: %v", err)
	}
	if len(usable) != 2 || usable[0].ID != older.ID || usable[1].ID != newer.ID {
		t.Fatalf("usable credits not in publication order")
	}

	d := draftWith(t, e, r.ID, p, fixedNow.AddDate(0, 1, 0), line("Session", "1", "60"))
	res := closeDraft(t, e, d.ID)

	// 42 drains the older credit entirely, 18 comes off the newer one.
	if len(res.Assignments) != 2 {
		t.Fatalf("got %d assignments, want 2", len(res.Assignments))
	}
	if res.Assignments[0].CreditID != older.ID {
		t.Errorf("first draw from credit %s, want oldest %s", res.Assignments[0].CreditID, older.ID)
	}
	wantAmount(t, res.Assignments[0].Amount, "42")
	if res.Assignments[1].CreditID != newer.ID {
		t.Errorf("second draw from credit %s, want %s", res.Assignments[1].CreditID, newer.ID)
	}
	wantAmount(t, res.Assignments[1].Amount, "18")

	for _, pay := range res.Payments {
		if pay.PaymentTypeSlug != billing.CreditSlug {
			t.Errorf("synthetic payment type = %q, want %q", pay.PaymentTypeSlug, billing.CreditSlug)
		}
	}

	inv, err := e.GetInvoice(ctx, res.Invoice.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	wantAmount(t, inv.RemainingAmount, "0")

	drained, err := e.GetCredit(ctx, older.ID)
	if err != nil {
		t.Fatalf("get credit: %v", err)
	}
	wantAmount(t, drained.RemainingAmount, "0")
	partial, err := e.GetCredit(ctx, newer.ID)
	if err != nil {
		t.Fatalf("get credit: %v", err)
	}
	wantAmount(t, partial.RemainingAmount, "40")
	wantAmount(t, partial.AssignedAmount, "18")

	// Re-running against a settled invoice assigns nothing.
	rerun, err := e.AssignCredits(ctx, inv.ID)
	if err != nil {
		t.Fatalf("rerun assignment: %v", err)
	}
	if len(rerun.Payments) != 0 || len(rerun.Assignments) != 0 {
		t.Errorf("rerun produced %d payments and %d assignments, want none",
			len(rerun.Payments), len(rerun.Assignments))
	}
}

func TestCloseDraftInvoicePastDueSkipsAssignment(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")
	p := payer("payer-a")
	makeCredit(t, e, r.ID, p, "swim", "42", fixedNow)

	yesterday := fixedNow.AddDate(0, 0, -1)
	d := draftWith(t, e, r.ID, p, yesterday, line("Session", "1", "50"))
	res := closeDraft(t, e, d.ID)
	if len(res.Payments) != 0 || len(res.Assignments) != 0 {
		t.Fatalf("past-due close produced %d payments and %d assignments, want none",
			len(res.Payments), len(res.Assignments))
	}
	wantAmount(t, res.Invoice.RemainingAmount, "50")

	// An explicit rerun assigns regardless of the due date.
	asg, err := e.AssignCredits(ctx, res.Invoice.ID)
	if err != nil {
		t.Fatalf("assign credits: %v", err)
	}
	if len(asg.Assignments) != 1 {
		t.Fatalf("got %d assignments, want 1", len(asg.Assignments))
	}
	wantAmount(t, asg.Assignments[0].Amount, "42")
	wantAmount(t, asg.Invoice.RemainingAmount, "8")
}

func TestCancelInvoiceWithPaymentHistoryRejected(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")
	due := fixedNow.AddDate(0, 1, 0)

	d := draftWith(t, e, r.ID, payer("p-1"), due, line("Session", "1", "50"))
	inv := closeDraft(t, e, d.ID).Invoice

	payRes, err := e.RegisterPayment(ctx, regie.RegisterPaymentInput{
		RegieID: r.ID, InvoiceIDs: []id.InvoiceID{inv.ID},
		Amount: types.MustAmount("20"), PaymentTypeSlug: "check",
	})
	if err != nil {
		t.Fatalf("register payment: %v", err)
	}

	if _, err := e.CancelInvoice(ctx, inv.ID, "clerk", "duplicate", ""); !errors.Is(err, regie.ErrHasPayments) || !regie.IsBusinessRuleError(err) {
		t.Fatalf("cancel paid invoice: got %v, want ErrHasPayments business-rule rejection", err)
	}
	got, err := e.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if !got.State.IsActive() {
		t.Fatal("rejected cancellation left invoice inactive")
	}

	// Cancelling the payment restores the balance and clears the history.
	if _, err := e.CancelPayment(ctx, payRes.Payment.ID, "clerk", "typo", ""); err != nil {
		t.Fatalf("cancel payment: %v", err)
	}
	got, err = e.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	wantAmount(t, got.RemainingAmount, "50")
	wantAmount(t, got.PaidAmount, "0")

	cancelled, err := e.CancelInvoice(ctx, inv.ID, "clerk", "duplicate", "issued twice")
	if err != nil {
		t.Fatalf("cancel invoice: %v", err)
	}
	if !cancelled.State.IsCancelled() {
		t.Fatal("invoice not marked cancelled")
	}
	if cancelled.State.Cancelled.By != "clerk" || cancelled.State.Cancelled.Reason != "duplicate" {
		t.Errorf("audit trail = %+v, want by clerk for duplicate", cancelled.State.Cancelled)
	}

	if _, err := e.CancelInvoice(ctx, inv.ID, "clerk", "again", ""); !errors.Is(err, regie.ErrAlreadyCancelled) {
		t.Errorf("double cancel: got %v, want ErrAlreadyCancelled", err)
	}
	_, err = e.RegisterPayment(ctx, regie.RegisterPaymentInput{
		RegieID: r.ID, InvoiceIDs: []id.InvoiceID{inv.ID},
		Amount: types.MustAmount("10"), PaymentTypeSlug: "check",
	})
	if !errors.Is(err, regie.ErrDocumentCancelled) {
		t.Errorf("pay cancelled invoice: got %v, want ErrDocumentCancelled", err)
	}
}

func TestCancelPaymentRestoresCreditBalance(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")
	p := payer("payer-a")
	cr := makeCredit(t, e, r.ID, p, "swim", "42", fixedNow)

	d := draftWith(t, e, r.ID, p, fixedNow.AddDate(0, 1, 0), line("Session", "1", "30"))
	res := closeDraft(t, e, d.ID)
	if len(res.Payments) != 1 {
		t.Fatalf("got %d synthetic payments, want 1", len(res.Payments))
	}
	drawn, err := e.GetCredit(ctx, cr.ID)
	if err != nil {
		t.Fatalf("get credit: %v", err)
	}
	wantAmount(t, drawn.RemainingAmount, "12")

	if _, err := e.CancelCredit(ctx, cr.ID, "clerk", "dispute", ""); !errors.Is(err, regie.ErrHasAssignments) {
		t.Fatalf("cancel drawn credit: got %v, want ErrHasAssignments", err)
	}

	if _, err := e.CancelPayment(ctx, res.Payments[0].ID, "clerk", "reversal", ""); err != nil {
		t.Fatalf("cancel synthetic payment: %v", err)
	}
	restored, err := e.GetCredit(ctx, cr.ID)
	if err != nil {
		t.Fatalf("get credit: %v", err)
	}
	wantAmount(t, restored.RemainingAmount, "42")
	wantAmount(t, restored.AssignedAmount, "0")
	inv, err := e.GetInvoice(ctx, res.Invoice.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	wantAmount(t, inv.RemainingAmount, "30")

	// The assignment history is gone; cancellation is allowed now.
	if _, err := e.CancelCredit(ctx, cr.ID, "clerk", "dispute", ""); err != nil {
		t.Fatalf("cancel credit after reversal: %v", err)
	}
}

func TestCollectionDocketThresholdIsAllOrNothingPerPayer(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")
	due := fixedNow.AddDate(0, 1, 0)
	pA := payer("payer-a")
	pB := payer("payer-b")

	invA1 := closeDraft(t, e, draftWith(t, e, r.ID, pA, due, line("Session", "1", "30")).ID).Invoice
	invA2 := closeDraft(t, e, draftWith(t, e, r.ID, pA, due, line("Session", "1", "40")).ID).Invoice
	invB := closeDraft(t, e, draftWith(t, e, r.ID, pB, due, line("Session", "1", "20")).ID).Invoice

	dateEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	dk, err := e.CreateCollectionDocket(ctx, r.ID, "Year-end collection", dateEnd, types.MustAmount("50"))
	if err != nil {
		t.Fatalf("create collection docket: %v", err)
	}
	if !strings.HasPrefix(dk.FormattedNumber, "T01-") || !strings.HasSuffix(dk.FormattedNumber, "-0000001") {
		t.Errorf("docket number = %q, want first T number of regie 1", dk.FormattedNumber)
	}

	diff, err := e.SyncCollectionDocket(ctx, dk.ID)
	if err != nil {
		t.Fatalf("sync docket: %v", err)
	}
	attached := make(map[id.InvoiceID]bool, len(diff.Attach))
	for _, invID := range diff.Attach {
		attached[invID] = true
	}
	// Payer A owes 70 >= 50: both invoices in. Payer B owes 20: out.
	if len(diff.Attach) != 2 || !attached[invA1.ID] || !attached[invA2.ID] {
		t.Fatalf("attach = %v, want both payer-a invoices", diff.Attach)
	}
	if attached[invB.ID] {
		t.Fatal("below-threshold payer attached")
	}

	// Idempotent: unchanged inputs produce an empty diff.
	diff, err = e.SyncCollectionDocket(ctx, dk.ID)
	if err != nil {
		t.Fatalf("re-sync docket: %v", err)
	}
	if !diff.Empty() {
		t.Fatalf("re-sync diff = %+v, want empty", diff)
	}

	// Docketed invoices reject direct payments.
	_, err = e.RegisterPayment(ctx, regie.RegisterPaymentInput{
		RegieID: r.ID, InvoiceIDs: []id.InvoiceID{invA1.ID},
		Amount: types.MustAmount("10"), PaymentTypeSlug: "cash",
	})
	if !errors.Is(err, regie.ErrDocumentCollected) {
		t.Fatalf("pay docketed invoice: got %v, want ErrDocumentCollected", err)
	}

	col, err := e.CollectPayments(ctx, dk.ID)
	if err != nil {
		t.Fatalf("collect payments: %v", err)
	}
	if len(col.Payments) != 2 {
		t.Fatalf("got %d collect payments, want 2", len(col.Payments))
	}
	total := types.ZeroAmount
	for _, pay := range col.Payments {
		if pay.PaymentTypeSlug != billing.CollectSlug {
			t.Errorf("collect payment type = %q, want %q", pay.PaymentTypeSlug, billing.CollectSlug)
		}
		total = total.Add(pay.Amount)
	}
	wantAmount(t, total, "70")
	for _, invID := range []id.InvoiceID{invA1.ID, invA2.ID} {
		inv, err := e.GetInvoice(ctx, invID)
		if err != nil {
			t.Fatalf("get invoice: %v", err)
		}
		wantAmount(t, inv.RemainingAmount, "0")
	}

	// Settled members fall out on the next sync.
	diff, err = e.SyncCollectionDocket(ctx, dk.ID)
	if err != nil {
		t.Fatalf("post-collect sync: %v", err)
	}
	if len(diff.Detach) != 2 || len(diff.Attach) != 0 {
		t.Fatalf("post-collect diff = %+v, want 2 detached", diff)
	}
}

func TestPaymentDocketHoldsMemberPayments(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")
	due := fixedNow.AddDate(0, 1, 0)

	inv := closeDraft(t, e, draftWith(t, e, r.ID, payer("p-1"), due, line("Session", "1", "100")).ID).Invoice
	register := func(amount, slug string) id.PaymentID {
		res, err := e.RegisterPayment(ctx, regie.RegisterPaymentInput{
			RegieID: r.ID, InvoiceIDs: []id.InvoiceID{inv.ID},
			Amount: types.MustAmount(amount), PaymentTypeSlug: slug,
		})
		if err != nil {
			t.Fatalf("register payment: %v", err)
		}
		return res.Payment.ID
	}
	check1 := register("10", "check")
	check2 := register("10", "check")
	register("5", "cash")

	dateEnd := time.Now().UTC().Add(24 * time.Hour)
	dk, err := e.CreatePaymentDocket(ctx, r.ID, "Check deposit", dateEnd, []string{"check"})
	if err != nil {
		t.Fatalf("create payment docket: %v", err)
	}

	diff, err := e.SyncPaymentDocket(ctx, dk.ID)
	if err != nil {
		t.Fatalf("sync payment docket: %v", err)
	}
	if len(diff.Attach) != 2 {
		t.Fatalf("got %d attached payments, want the 2 checks", len(diff.Attach))
	}

	diff, err = e.SyncPaymentDocket(ctx, dk.ID)
	if err != nil {
		t.Fatalf("re-sync payment docket: %v", err)
	}
	if !diff.Empty() {
		t.Fatalf("re-sync diff = %+v, want empty", diff)
	}

	// A docketed payment cannot be cancelled while held.
	if _, err := e.CancelPayment(ctx, check1, "clerk", "typo", ""); !errors.Is(err, regie.ErrDocumentCollected) {
		t.Fatalf("cancel held payment: got %v, want ErrDocumentCollected", err)
	}

	// Cancelling the docket releases its members.
	if _, err := e.CancelPaymentDocket(ctx, dk.ID, "clerk", "aborted", ""); err != nil {
		t.Fatalf("cancel payment docket: %v", err)
	}
	for _, payID := range []id.PaymentID{check1, check2} {
		pay, err := e.GetPayment(ctx, payID)
		if err != nil {
			t.Fatalf("get payment: %v", err)
		}
		if !pay.DocketID.IsNil() {
			t.Errorf("payment %s still held after docket cancellation", payID)
		}
	}
	if _, err := e.CancelPayment(ctx, check1, "clerk", "typo", ""); err != nil {
		t.Fatalf("cancel released payment: %v", err)
	}
}

func TestUpdateCampaignDatesPropagatesToDrafts(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")
	c := newCampaign(t, e, r.ID, "gym", fixedNow)

	p, err := e.CreatePool(ctx, c.ID)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	if _, err := e.StartPool(ctx, p.ID); err != nil {
		t.Fatalf("start pool: %v", err)
	}
	debtor := payer("payer-dd")
	debtor.DirectDebit = true
	if _, err := e.GenerateDraftDocuments(ctx, p.ID, []regie.DraftSeed{
		{Payer: debtor, Lines: []invoice.LineInput{line("Session", "1", "10")}},
		{Payer: payer("payer-b"), Lines: []invoice.LineInput{line("Session", "1", "10")}},
	}); err != nil {
		t.Fatalf("generate drafts: %v", err)
	}

	pub := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	dates := regie.CampaignDates{
		Publication:     pub,
		PaymentDeadline: pub.AddDate(0, 0, 10),
		Due:             pub.AddDate(0, 1, 0),
		Debit:           pub.AddDate(0, 1, 5),
	}
	if _, err := e.UpdateCampaignDates(ctx, c.ID, dates); err != nil {
		t.Fatalf("update campaign dates: %v", err)
	}

	drafts, err := e.ListDraftInvoices(ctx, r.ID, invoice.ListOpts{PoolID: p.ID})
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("got %d drafts, want 2", len(drafts))
	}
	for _, d := range drafts {
		if !d.DatePublication.Equal(pub) || !d.DateDue.Equal(dates.Due) {
			t.Errorf("draft %s dates not propagated", d.ID)
		}
		if d.Payer.DirectDebit {
			if !d.DateDebit.Equal(dates.Debit) {
				t.Errorf("direct-debit draft missing debit date")
			}
		} else if !d.DateDebit.IsZero() {
			t.Errorf("non-debit draft carries debit date %v", d.DateDebit)
		}
	}

	// Broken date ordering is rejected before anything mutates.
	bad := dates
	bad.PaymentDeadline = pub.AddDate(0, 0, -1)
	if _, err := e.UpdateCampaignDates(ctx, c.ID, bad); err == nil {
		t.Error("deadline before publication accepted")
	}
}

func TestCorrectiveCampaignInheritsFromPrimary(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")
	primary := newCampaign(t, e, r.ID, "gym", time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))

	pub := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	dates := regie.CampaignDates{
		Publication:     pub,
		PaymentDeadline: pub.AddDate(0, 0, 15),
		Due:             pub.AddDate(0, 1, 0),
		Debit:           pub.AddDate(0, 1, 5),
	}
	corr, err := e.CreateCorrectiveCampaign(ctx, primary.ID, dates)
	if err != nil {
		t.Fatalf("create corrective campaign: %v", err)
	}
	if !corr.IsCorrective() || corr.PrimaryCampaignID != primary.ID {
		t.Fatal("corrective not linked to its primary")
	}
	if corr.Label != primary.Label {
		t.Errorf("label = %q, want inherited %q", corr.Label, primary.Label)
	}
	if !corr.DateStart.Equal(primary.DateStart) || !corr.DateEnd.Equal(primary.DateEnd) {
		t.Error("billed period not inherited from primary")
	}
	if !corr.DatePublication.Equal(pub) {
		t.Error("corrective kept the primary's publication date")
	}

	// Correctives chain off the primary only, never off each other.
	if _, err := e.CreateCorrectiveCampaign(ctx, corr.ID, dates); !errors.Is(err, regie.ErrInvalidInput) {
		t.Errorf("corrective of corrective: got %v, want validation error", err)
	}
}

func TestCorrectiveCampaignSpendsAgendaUnlocks(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	r := newRegie(t, e, "sports")
	primary := newCampaign(t, e, r.ID, "gym", time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC))

	u, err := e.UnlockAgenda(ctx, primary.ID, "gym")
	if err != nil {
		t.Fatalf("unlock agenda: %v", err)
	}
	if !u.Active || u.CampaignID != primary.ID {
		t.Fatal("unlock record not active on the primary campaign")
	}

	// Unlocking again returns the existing active record.
	again, err := e.UnlockAgenda(ctx, primary.ID, "gym")
	if err != nil {
		t.Fatalf("unlock agenda twice: %v", err)
	}
	if again.ID != u.ID {
		t.Error("second unlock created a duplicate record")
	}

	if _, err := e.UnlockAgenda(ctx, primary.ID, "judo"); !errors.Is(err, regie.ErrInvalidInput) {
		t.Errorf("unlock uncovered agenda: got %v, want validation error", err)
	}

	unlocks, err := e.ListAgendaUnlocks(ctx, primary.ID)
	if err != nil {
		t.Fatalf("list unlocks: %v", err)
	}
	if len(unlocks) != 1 {
		t.Fatalf("active unlocks = %d, want 1", len(unlocks))
	}

	// The corrective run re-covers the agenda: the unlock is spent.
	pub := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	corr, err := e.CreateCorrectiveCampaign(ctx, primary.ID, regie.CampaignDates{
		Publication:     pub,
		PaymentDeadline: pub.AddDate(0, 0, 15),
		Due:             pub.AddDate(0, 1, 0),
		Debit:           pub.AddDate(0, 1, 5),
	})
	if err != nil {
		t.Fatalf("create corrective campaign: %v", err)
	}
	unlocks, err = e.ListAgendaUnlocks(ctx, primary.ID)
	if err != nil {
		t.Fatalf("list unlocks after corrective: %v", err)
	}
	if len(unlocks) != 0 {
		t.Fatalf("active unlocks after corrective = %d, want 0", len(unlocks))
	}

	// Unlocking through the corrective lands on the primary.
	u2, err := e.UnlockAgenda(ctx, corr.ID, "gym")
	if err != nil {
		t.Fatalf("unlock via corrective: %v", err)
	}
	if u2.CampaignID != primary.ID {
		t.Error("unlock via corrective not recorded on the primary campaign")
	}
	if u2.ID == u.ID {
		t.Error("spent unlock record was reused")
	}
}
