// Package billing defines the billing unit (regie) configuration:
// identity, payment types, and the sequential document numbering scheme.
package billing

import (
	"github.com/billcore/regie/id"
	"github.com/billcore/regie/types"
)

// Regie is a billing unit. Each regie owns its own numbering sequences,
// payment types and docket thresholds; many regies run concurrently but
// never share documents.
type Regie struct {
	types.Entity
	ID    id.RegieID `json:"id"`
	Label string     `json:"label"`
	Slug  string     `json:"slug"`

	// Seq is the small integer embedded in formatted numbers
	// (the "02" in F02-24-11-0000001). Assigned once by the store.
	Seq int `json:"seq"`

	// CollectionMinThreshold is the per-payer minimum aggregate remaining
	// amount for inclusion in a collection docket.
	CollectionMinThreshold types.Amount `json:"collection_min_threshold"`

	// Callback URLs notified best-effort after commit. Empty disables.
	PaymentCallbackURL string `json:"payment_callback_url,omitempty"`
	CancelCallbackURL  string `json:"cancel_callback_url,omitempty"`
}

// PaymentType is an allowed means of payment for a regie.
type PaymentType struct {
	types.Entity
	ID       id.PaymentTypeID `json:"id"`
	RegieID  id.RegieID       `json:"regie_id"`
	Slug     string           `json:"slug"`
	Label    string           `json:"label"`
	Disabled bool             `json:"disabled"`
}

// CreditSlug is the synthetic payment type used for credit assignment.
// It is reserved: seeded with every regie and never user-creatable.
const CreditSlug = "credit"

// CollectSlug is the synthetic payment type used when collecting the
// invoices of a collection docket in bulk.
const CollectSlug = "collect"

// DefaultPaymentTypes returns the payment types seeded for a new regie.
func DefaultPaymentTypes(regieID id.RegieID) []*PaymentType {
	defaults := []struct {
		slug, label string
	}{
		{"cash", "Cash"},
		{"check", "Check"},
		{"creditcard", "Credit card"},
		{"directdebit", "Direct debit"},
		{"onlinepayment", "Online payment"},
		{CreditSlug, "Credit"},
		{CollectSlug, "Collect"},
	}

	out := make([]*PaymentType, 0, len(defaults))
	for _, d := range defaults {
		out = append(out, &PaymentType{
			Entity:  types.NewEntity(),
			ID:      id.NewPaymentTypeID(),
			RegieID: regieID,
			Slug:    d.slug,
			Label:   d.label,
		})
	}
	return out
}

// IsReservedSlug reports whether slug is one of the synthetic payment
// types managed by the engine itself.
func IsReservedSlug(slug string) bool {
	return slug == CreditSlug || slug == CollectSlug
}
