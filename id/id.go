// Package id defines TypeID-based identity types for all billing entities.
//
// Every entity uses a single ID struct with a prefix that identifies the
// entity type. IDs are K-sortable (UUIDv7-based), globally unique, and
// URL-safe in the format "prefix_suffix". The ID is the only identifier
// ever exposed outside the engine; database sequence numbers stay internal.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all billing entity types.
const (
	PrefixRegie            Prefix = "regie" // Billing unit
	PrefixPaymentType      Prefix = "ptype" // Allowed payment type
	PrefixCampaign         Prefix = "camp"  // Billing campaign
	PrefixPool             Prefix = "pool"  // Campaign run
	PrefixAgendaUnlock     Prefix = "aglk"  // Agenda unlock record
	PrefixDraftInvoice     Prefix = "dinv"  // Draft invoice
	PrefixInvoice          Prefix = "inv"   // Finalized invoice
	PrefixDraftCredit      Prefix = "dcrd"  // Draft credit
	PrefixCredit           Prefix = "crd"   // Finalized credit
	PrefixLine             Prefix = "line"  // Invoice/credit line
	PrefixPayment          Prefix = "pay"   // Payment record
	PrefixLinePayment      Prefix = "lpay"  // Payment-to-line allocation
	PrefixAssignment       Prefix = "asgn"  // Credit assignment
	PrefixCollectionDocket Prefix = "cdkt"  // Collection docket
	PrefixPaymentDocket    Prefix = "pdkt"  // Payment docket
)

// ID is the primary identifier type for all billing entities.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "inv_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// MustParseWithPrefix is like ParseWithPrefix but panics on error.
func MustParseWithPrefix(s string, expected Prefix) ID {
	parsed, err := ParseWithPrefix(s, expected)
	if err != nil {
		panic(fmt.Sprintf("id: must parse with prefix %q: %v", expected, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Type aliases
// ──────────────────────────────────────────────────

// RegieID is a type-safe identifier for billing units (prefix: "regie").
type RegieID = ID

// PaymentTypeID is a type-safe identifier for payment types (prefix: "ptype").
type PaymentTypeID = ID

// CampaignID is a type-safe identifier for campaigns (prefix: "camp").
type CampaignID = ID

// PoolID is a type-safe identifier for pools (prefix: "pool").
type PoolID = ID

// AgendaUnlockID is a type-safe identifier for agenda unlock records (prefix: "aglk").
type AgendaUnlockID = ID

// DraftInvoiceID is a type-safe identifier for draft invoices (prefix: "dinv").
type DraftInvoiceID = ID

// InvoiceID is a type-safe identifier for invoices (prefix: "inv").
type InvoiceID = ID

// DraftCreditID is a type-safe identifier for draft credits (prefix: "dcrd").
type DraftCreditID = ID

// CreditID is a type-safe identifier for credits (prefix: "crd").
type CreditID = ID

// LineID is a type-safe identifier for document lines (prefix: "line").
type LineID = ID

// PaymentID is a type-safe identifier for payments (prefix: "pay").
type PaymentID = ID

// LinePaymentID is a type-safe identifier for line allocations (prefix: "lpay").
type LinePaymentID = ID

// AssignmentID is a type-safe identifier for credit assignments (prefix: "asgn").
type AssignmentID = ID

// CollectionDocketID is a type-safe identifier for collection dockets (prefix: "cdkt").
type CollectionDocketID = ID

// PaymentDocketID is a type-safe identifier for payment dockets (prefix: "pdkt").
type PaymentDocketID = ID

// AnyID is a type alias that accepts any valid prefix.
type AnyID = ID

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewRegieID generates a new unique regie ID.
func NewRegieID() ID { return New(PrefixRegie) }

// NewPaymentTypeID generates a new unique payment type ID.
func NewPaymentTypeID() ID { return New(PrefixPaymentType) }

// NewCampaignID generates a new unique campaign ID.
func NewCampaignID() ID { return New(PrefixCampaign) }

// NewPoolID generates a new unique pool ID.
func NewPoolID() ID { return New(PrefixPool) }

// NewAgendaUnlockID generates a new unique agenda unlock ID.
func NewAgendaUnlockID() ID { return New(PrefixAgendaUnlock) }

// NewDraftInvoiceID generates a new unique draft invoice ID.
func NewDraftInvoiceID() ID { return New(PrefixDraftInvoice) }

// NewInvoiceID generates a new unique invoice ID.
func NewInvoiceID() ID { return New(PrefixInvoice) }

// NewDraftCreditID generates a new unique draft credit ID.
func NewDraftCreditID() ID { return New(PrefixDraftCredit) }

// NewCreditID generates a new unique credit ID.
func NewCreditID() ID { return New(PrefixCredit) }

// NewLineID generates a new unique line ID.
func NewLineID() ID { return New(PrefixLine) }

// NewPaymentID generates a new unique payment ID.
func NewPaymentID() ID { return New(PrefixPayment) }

// NewLinePaymentID generates a new unique line payment ID.
func NewLinePaymentID() ID { return New(PrefixLinePayment) }

// NewAssignmentID generates a new unique credit assignment ID.
func NewAssignmentID() ID { return New(PrefixAssignment) }

// NewCollectionDocketID generates a new unique collection docket ID.
func NewCollectionDocketID() ID { return New(PrefixCollectionDocket) }

// NewPaymentDocketID generates a new unique payment docket ID.
func NewPaymentDocketID() ID { return New(PrefixPaymentDocket) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseRegieID parses a string and validates the "regie" prefix.
func ParseRegieID(s string) (ID, error) { return ParseWithPrefix(s, PrefixRegie) }

// ParseCampaignID parses a string and validates the "camp" prefix.
func ParseCampaignID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCampaign) }

// ParsePoolID parses a string and validates the "pool" prefix.
func ParsePoolID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPool) }

// ParseAgendaUnlockID parses a string and validates the "aglk" prefix.
func ParseAgendaUnlockID(s string) (ID, error) { return ParseWithPrefix(s, PrefixAgendaUnlock) }

// ParseDraftInvoiceID parses a string and validates the "dinv" prefix.
func ParseDraftInvoiceID(s string) (ID, error) { return ParseWithPrefix(s, PrefixDraftInvoice) }

// ParseInvoiceID parses a string and validates the "inv" prefix.
func ParseInvoiceID(s string) (ID, error) { return ParseWithPrefix(s, PrefixInvoice) }

// ParseDraftCreditID parses a string and validates the "dcrd" prefix.
func ParseDraftCreditID(s string) (ID, error) { return ParseWithPrefix(s, PrefixDraftCredit) }

// ParseCreditID parses a string and validates the "crd" prefix.
func ParseCreditID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCredit) }

// ParseLineID parses a string and validates the "line" prefix.
func ParseLineID(s string) (ID, error) { return ParseWithPrefix(s, PrefixLine) }

// ParsePaymentID parses a string and validates the "pay" prefix.
func ParsePaymentID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPayment) }

// ParseCollectionDocketID parses a string and validates the "cdkt" prefix.
func ParseCollectionDocketID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCollectionDocket) }

// ParsePaymentDocketID parses a string and validates the "pdkt" prefix.
func ParsePaymentDocketID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPaymentDocket) }

// ParseAny parses a string into an ID without type checking the prefix.
func ParseAny(s string) (ID, error) { return Parse(s) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
