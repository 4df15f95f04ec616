package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	regie "github.com/billcore/regie"
	"github.com/billcore/regie/billing"
	"github.com/billcore/regie/id"
	"github.com/billcore/regie/invoice"
	"github.com/billcore/regie/store"
	"github.com/billcore/regie/store/memory"
	"github.com/billcore/regie/types"
)

var now = time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC)

func seedRegie(t *testing.T, s *memory.Store) *billing.Regie {
	t.Helper()
	r := &billing.Regie{
		Entity: types.NewEntity(),
		ID:     id.NewRegieID(),
		Label:  "Sports",
		Slug:   "sports",
	}
	require.NoError(t, s.CreateRegie(context.Background(), r))
	return r
}

func seedDraft(t *testing.T, s *memory.Store, regieID id.RegieID, total string) *invoice.DraftInvoice {
	t.Helper()
	d := &invoice.DraftInvoice{
		Entity:  types.NewEntity(),
		ID:      id.NewDraftInvoiceID(),
		RegieID: regieID,
		Label:   "Ad hoc",
		Payer:   invoice.PayerSnapshot{ExternalID: "payer-1"},
		DateDue: now.AddDate(0, 1, 0),
		Lines: []*invoice.DraftLine{invoice.NewDraftLine(invoice.LineInput{
			Label:      "Session",
			Quantity:   types.MustAmount("1"),
			UnitAmount: types.MustAmount(total),
		})},
	}
	d.Recompute()
	require.NoError(t, s.CreateDraftInvoice(context.Background(), d))
	return d
}

func TestRegieRoundTrip(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	_, err := s.GetRegie(ctx, id.NewRegieID())
	require.ErrorIs(t, err, regie.ErrRegieNotFound)

	r := seedRegie(t, s)
	require.Equal(t, 1, r.Seq)

	got, err := s.GetRegie(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, r.Slug, got.Slug)

	got.Label = "Renamed"
	require.NoError(t, s.UpdateRegie(ctx, got))
	again, err := s.GetRegie(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", again.Label)
}

func TestFinalizeDraftInvoiceConsumesDraft(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	r := seedRegie(t, s)
	d := seedDraft(t, s, r.ID, "42")

	res, err := s.FinalizeDraftInvoice(ctx, store.FinalizeInvoiceParams{DraftID: d.ID, Now: now})
	require.NoError(t, err)
	require.Equal(t, "F01-24-11-0000001", res.Invoice.FormattedNumber)
	require.True(t, res.Invoice.RemainingAmount.Equal(types.MustAmount("42")))
	require.Len(t, res.Invoice.Lines, 1)

	_, err = s.GetDraftInvoice(ctx, d.ID)
	require.ErrorIs(t, err, regie.ErrDraftNotFound)

	// The draft is gone: finalization cannot run twice.
	_, err = s.FinalizeDraftInvoice(ctx, store.FinalizeInvoiceParams{DraftID: d.ID, Now: now})
	require.ErrorIs(t, err, regie.ErrDraftNotFound)
}

func TestCountersArePerKindAndPeriod(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	r := seedRegie(t, s)

	first, err := s.FinalizeDraftInvoice(ctx, store.FinalizeInvoiceParams{
		DraftID: seedDraft(t, s, r.ID, "10").ID, Now: now,
	})
	require.NoError(t, err)
	require.Equal(t, "F01-24-11-0000001", first.Invoice.FormattedNumber)

	// A new month restarts the invoice counter.
	december := now.AddDate(0, 1, 0)
	second, err := s.FinalizeDraftInvoice(ctx, store.FinalizeInvoiceParams{
		DraftID: seedDraft(t, s, r.ID, "10").ID, Now: december,
	})
	require.NoError(t, err)
	require.Equal(t, "F01-24-12-0000001", second.Invoice.FormattedNumber)

	// Payments run their own counter, independent of invoices.
	pay, err := s.ApplyPayment(ctx, store.ApplyPaymentParams{
		RegieID:         r.ID,
		InvoiceIDs:      []id.InvoiceID{first.Invoice.ID},
		Amount:          types.MustAmount("10"),
		PaymentTypeSlug: "check",
		Now:             now,
	})
	require.NoError(t, err)
	require.Equal(t, "R01-24-11-0000001", pay.Payment.FormattedNumber)
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	r := seedRegie(t, s)

	res, err := s.FinalizeDraftInvoice(ctx, store.FinalizeInvoiceParams{
		DraftID: seedDraft(t, s, r.ID, "10").ID, Now: now,
	})
	require.NoError(t, err)

	res.Invoice.Label = "mutated"
	res.Invoice.Lines[0].RemainingAmount = types.MustAmount("999")

	got, err := s.GetInvoice(ctx, res.Invoice.ID)
	require.NoError(t, err)
	require.Equal(t, "Ad hoc", got.Label)
	require.True(t, got.Lines[0].RemainingAmount.Equal(types.MustAmount("10")))
}
