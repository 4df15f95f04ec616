package billing_test

import (
	"testing"
	"time"

	"github.com/billcore/regie/billing"
	"github.com/billcore/regie/id"
)

func TestFormatNumber(t *testing.T) {
	nov2024 := time.Date(2024, 11, 5, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		kind     billing.Kind
		regieSeq int
		period   time.Time
		n        int64
		want     string
	}{
		{"first invoice", billing.KindInvoice, 2, nov2024, 1, "F02-24-11-0000001"},
		{"credit", billing.KindCredit, 2, nov2024, 12, "A02-24-11-0000012"},
		{"payment", billing.KindPayment, 7, nov2024, 345, "R07-24-11-0000345"},
		{"collection docket", billing.KindCollectionDocket, 2, nov2024, 1, "T02-24-11-0000001"},
		{"payment docket", billing.KindPaymentDocket, 2, nov2024, 3, "B02-24-11-0000003"},
		{"wide sequence", billing.KindInvoice, 99, nov2024, 1234567, "F99-24-11-1234567"},
		{
			"january pads month",
			billing.KindInvoice, 1,
			time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), 1,
			"F01-25-01-0000001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := billing.FormatNumber(tt.kind, tt.regieSeq, tt.period, tt.n)
			if got != tt.want {
				t.Errorf("FormatNumber = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPeriodKey(t *testing.T) {
	got := billing.PeriodKey(time.Date(2024, 11, 30, 23, 59, 0, 0, time.UTC))
	if got != "24-11" {
		t.Errorf("PeriodKey = %q, want %q", got, "24-11")
	}
}

func TestDefaultPaymentTypes(t *testing.T) {
	pts := billing.DefaultPaymentTypes(id.NewRegieID())
	slugs := make(map[string]bool, len(pts))
	for _, pt := range pts {
		slugs[pt.Slug] = true
	}

	for _, want := range []string{"cash", "check", "creditcard", "directdebit", "onlinepayment", "credit", "collect"} {
		if !slugs[want] {
			t.Errorf("missing default payment type %q", want)
		}
	}

	if !billing.IsReservedSlug("credit") || !billing.IsReservedSlug("collect") {
		t.Error("credit and collect slugs must be reserved")
	}
	if billing.IsReservedSlug("cash") {
		t.Error("cash must not be reserved")
	}
}
