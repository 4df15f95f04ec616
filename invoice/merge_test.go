package invoice_test

import (
	"testing"

	"github.com/billcore/regie/invoice"
	"github.com/billcore/regie/types"
)

func lunchInput() invoice.LineInput {
	return invoice.LineInput{
		Label:          "Lunch",
		Quantity:       types.AmountFromInt(1),
		UnitAmount:     types.MustAmount("3.50"),
		EventSlug:      "lunch-2024-11-04",
		EventLabel:     "Lunch",
		AgendaSlug:     "school-lunch",
		ActivityLabel:  "Canteen",
		AccountingCode: "706",
		UserExternalID: "child:42",
		Dates:          []string{"2024-11-04"},
		Subject:        "Lunch",
		Description:    "Lunch 04/11",
		MergeLines:     true,
	}
}

func TestMergeEligible(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*invoice.LineInput)
		want   bool
	}{
		{"eligible", func(in *invoice.LineInput) {}, true},
		{"merge not requested", func(in *invoice.LineInput) { in.MergeLines = false }, false},
		{"no agenda slug", func(in *invoice.LineInput) { in.AgendaSlug = "" }, false},
		{"no event slug", func(in *invoice.LineInput) { in.EventSlug = "" }, false},
		{"no subject", func(in *invoice.LineInput) { in.Subject = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := lunchInput()
			tt.mutate(&in)
			if got := in.MergeEligible(); got != tt.want {
				t.Errorf("MergeEligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindMergeTarget(t *testing.T) {
	existing := invoice.NewDraftLine(lunchInput())
	lines := []*invoice.DraftLine{existing}

	t.Run("match", func(t *testing.T) {
		if got := invoice.FindMergeTarget(lines, lunchInput()); got != 0 {
			t.Errorf("FindMergeTarget = %d, want 0", got)
		}
	})

	mismatches := []struct {
		name   string
		mutate func(*invoice.LineInput)
	}{
		{"different unit amount", func(in *invoice.LineInput) { in.UnitAmount = types.MustAmount("4.00") }},
		{"different user", func(in *invoice.LineInput) { in.UserExternalID = "child:43" }},
		{"different agenda", func(in *invoice.LineInput) { in.AgendaSlug = "sports-club" }},
		{"different accounting code", func(in *invoice.LineInput) { in.AccountingCode = "707" }},
		{"subject not a description prefix", func(in *invoice.LineInput) { in.Subject = "Dinner" }},
	}

	for _, tt := range mismatches {
		t.Run(tt.name, func(t *testing.T) {
			in := lunchInput()
			tt.mutate(&in)
			if got := invoice.FindMergeTarget(lines, in); got != -1 {
				t.Errorf("FindMergeTarget = %d, want -1", got)
			}
		})
	}

	t.Run("disabled lines are skipped", func(t *testing.T) {
		disabled := invoice.NewDraftLine(lunchInput())
		disabled.Disabled = true
		if got := invoice.FindMergeTarget([]*invoice.DraftLine{disabled}, lunchInput()); got != -1 {
			t.Errorf("FindMergeTarget = %d, want -1 for disabled line", got)
		}
	})
}

func TestMergeInto(t *testing.T) {
	l := invoice.NewDraftLine(lunchInput())

	next := lunchInput()
	next.Dates = []string{"2024-11-05"}
	next.Description = "Lunch 05/11"
	invoice.MergeInto(l, next)

	if !l.Quantity.Equal(types.AmountFromInt(2)) {
		t.Errorf("Quantity = %s, want 2", l.Quantity)
	}
	if !l.TotalAmount.Equal(types.MustAmount("7.00")) {
		t.Errorf("TotalAmount = %s, want 7.00", l.TotalAmount)
	}
	wantDates := []string{"2024-11-04", "2024-11-05"}
	if len(l.Details.Dates) != len(wantDates) {
		t.Fatalf("Dates = %v, want %v", l.Details.Dates, wantDates)
	}
	for i, d := range wantDates {
		if l.Details.Dates[i] != d {
			t.Errorf("Dates[%d] = %q, want %q", i, l.Details.Dates[i], d)
		}
	}
	if l.Description != "Lunch 04/11 05/11" {
		t.Errorf("Description = %q, want %q", l.Description, "Lunch 04/11 05/11")
	}
}

func TestMergeDates(t *testing.T) {
	got := invoice.MergeDates(
		[]string{"2024-11-05", "2024-11-04"},
		[]string{"2024-11-04", "2024-11-06", ""},
	)
	want := []string{"2024-11-04", "2024-11-05", "2024-11-06"}
	if len(got) != len(want) {
		t.Fatalf("MergeDates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MergeDates[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRecompute(t *testing.T) {
	d := &invoice.DraftInvoice{}
	a := invoice.NewDraftLine(lunchInput())

	reduction := lunchInput()
	reduction.Quantity = types.AmountFromInt(-1)
	reduction.UnitAmount = types.MustAmount("1.50")
	b := invoice.NewDraftLine(reduction)

	disabled := invoice.NewDraftLine(lunchInput())
	disabled.Disabled = true

	d.Lines = []*invoice.DraftLine{a, b, disabled}
	d.Recompute()

	if !d.TotalAmount.Equal(types.MustAmount("2.00")) {
		t.Errorf("TotalAmount = %s, want 2.00 (disabled line excluded)", d.TotalAmount)
	}
}
