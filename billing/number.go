package billing

import (
	"fmt"
	"time"
)

// Kind is the document kind encoded as the first letter of a formatted
// number. Counters are unique per (regie, kind, period).
type Kind string

const (
	KindInvoice          Kind = "F"
	KindCredit           Kind = "A"
	KindPayment          Kind = "R"
	KindCollectionDocket Kind = "T"
	KindPaymentDocket    Kind = "B"
)

// PeriodKey returns the "yy-mm" counter period for a point in time.
func PeriodKey(t time.Time) string {
	return t.UTC().Format("06-01")
}

// FormatNumber renders the formatted number of document n of the given
// kind, for the regie with sequence regieSeq, in the month of period.
//
// The format is bit-exact: "<kind><regieSeq:02d>-<yy>-<mm>-<n:07d>",
// e.g. invoice #1 of regie 2 in November 2024 is "F02-24-11-0000001".
func FormatNumber(kind Kind, regieSeq int, period time.Time, n int64) string {
	return fmt.Sprintf("%s%02d-%s-%07d", kind, regieSeq, PeriodKey(period), n)
}
