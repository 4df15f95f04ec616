package invoice

import (
	"sort"
	"strings"

	"github.com/billcore/regie/id"
	"github.com/billcore/regie/types"
)

// LineInput is a priced billable item to add to a draft document. The
// pricing engine supplies it fully priced; nothing here computes a price.
type LineInput struct {
	Label          string
	Quantity       types.Amount
	UnitAmount     types.Amount
	EventSlug      string
	EventLabel     string
	AgendaSlug     string
	ActivityLabel  string
	Description    string
	AccountingCode string
	UserExternalID string
	UserFirstName  string
	UserLastName   string
	Dates          []string

	// Subject marks lines eligible for merging; the merged line's
	// description starts with it. Empty disables merging.
	Subject string
	// MergeLines requests aggregation onto an existing matching line.
	MergeLines bool
}

// MergeEligible reports whether the input may be merged at all. Merging
// requires both slugs and a subject so that unrelated items are never
// accidentally concatenated.
func (in LineInput) MergeEligible() bool {
	return in.MergeLines && in.AgendaSlug != "" && in.EventSlug != "" && in.Subject != ""
}

// FindMergeTarget returns the index of the existing draft line the input
// merges onto, or -1 when a new line must be created. A target matches on
// every identity field and its description starts with the subject.
func FindMergeTarget(lines []*DraftLine, in LineInput) int {
	if !in.MergeEligible() {
		return -1
	}
	for i, l := range lines {
		if l.Disabled {
			continue
		}
		if l.Label == in.Label &&
			l.EventSlug == in.EventSlug &&
			l.EventLabel == in.EventLabel &&
			l.AgendaSlug == in.AgendaSlug &&
			l.ActivityLabel == in.ActivityLabel &&
			l.UnitAmount.Equal(in.UnitAmount) &&
			l.AccountingCode == in.AccountingCode &&
			l.UserExternalID == in.UserExternalID &&
			strings.HasPrefix(l.Description, in.Subject) {
			return i
		}
	}
	return -1
}

// NewDraftLine builds a fresh line from the input. TotalAmount is always
// quantity times unit amount, exact.
func NewDraftLine(in LineInput) *DraftLine {
	desc := in.Description
	if desc == "" && in.Subject != "" {
		desc = in.Subject
	}
	return &DraftLine{
		ID:             id.NewLineID(),
		Label:          in.Label,
		Quantity:       in.Quantity,
		UnitAmount:     in.UnitAmount,
		TotalAmount:    in.Quantity.Mul(in.UnitAmount),
		EventSlug:      in.EventSlug,
		EventLabel:     in.EventLabel,
		AgendaSlug:     in.AgendaSlug,
		ActivityLabel:  in.ActivityLabel,
		Description:    desc,
		AccountingCode: in.AccountingCode,
		UserExternalID: in.UserExternalID,
		UserFirstName:  in.UserFirstName,
		UserLastName:   in.UserLastName,
		Details:        LineDetails{Dates: MergeDates(nil, in.Dates)},
	}
}

// MergeInto folds the input onto an existing line: quantity accumulates,
// the total is recomputed, covered dates are unioned and the extra
// description is appended space-joined.
func MergeInto(l *DraftLine, in LineInput) {
	l.Quantity = l.Quantity.Add(in.Quantity)
	l.TotalAmount = l.Quantity.Mul(l.UnitAmount)
	l.Details.Dates = MergeDates(l.Details.Dates, in.Dates)
	if extra := strings.TrimPrefix(in.Description, in.Subject); strings.TrimSpace(extra) != "" {
		l.Description = strings.TrimSpace(l.Description + " " + strings.TrimSpace(extra))
	}
}

// MergeDates unions two date lists into a sorted unique list.
func MergeDates(existing, added []string) []string {
	seen := make(map[string]bool, len(existing)+len(added))
	out := make([]string, 0, len(existing)+len(added))
	for _, lists := range [][]string{existing, added} {
		for _, d := range lists {
			if d == "" || seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}
