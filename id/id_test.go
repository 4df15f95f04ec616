package id_test

import (
	"strings"
	"testing"

	"github.com/billcore/regie/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"RegieID", id.NewRegieID, "regie_"},
		{"PaymentTypeID", id.NewPaymentTypeID, "ptype_"},
		{"CampaignID", id.NewCampaignID, "camp_"},
		{"PoolID", id.NewPoolID, "pool_"},
		{"DraftInvoiceID", id.NewDraftInvoiceID, "dinv_"},
		{"InvoiceID", id.NewInvoiceID, "inv_"},
		{"DraftCreditID", id.NewDraftCreditID, "dcrd_"},
		{"CreditID", id.NewCreditID, "crd_"},
		{"LineID", id.NewLineID, "line_"},
		{"PaymentID", id.NewPaymentID, "pay_"},
		{"LinePaymentID", id.NewLinePaymentID, "lpay_"},
		{"AssignmentID", id.NewAssignmentID, "asgn_"},
		{"CollectionDocketID", id.NewCollectionDocketID, "cdkt_"},
		{"PaymentDocketID", id.NewPaymentDocketID, "pdkt_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixInvoice)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixInvoice {
		t.Errorf("expected prefix %q, got %q", id.PrefixInvoice, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"RegieID", id.NewRegieID, id.ParseRegieID},
		{"CampaignID", id.NewCampaignID, id.ParseCampaignID},
		{"PoolID", id.NewPoolID, id.ParsePoolID},
		{"DraftInvoiceID", id.NewDraftInvoiceID, id.ParseDraftInvoiceID},
		{"InvoiceID", id.NewInvoiceID, id.ParseInvoiceID},
		{"DraftCreditID", id.NewDraftCreditID, id.ParseDraftCreditID},
		{"CreditID", id.NewCreditID, id.ParseCreditID},
		{"LineID", id.NewLineID, id.ParseLineID},
		{"PaymentID", id.NewPaymentID, id.ParsePaymentID},
		{"CollectionDocketID", id.NewCollectionDocketID, id.ParseCollectionDocketID},
		{"PaymentDocketID", id.NewPaymentDocketID, id.ParsePaymentDocketID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parseFn func(string) (id.ID, error)
	}{
		{"ParseRegieID rejects camp_", id.NewCampaignID().String(), id.ParseRegieID},
		{"ParseCampaignID rejects pool_", id.NewPoolID().String(), id.ParseCampaignID},
		{"ParsePoolID rejects dinv_", id.NewDraftInvoiceID().String(), id.ParsePoolID},
		{"ParseDraftInvoiceID rejects inv_", id.NewInvoiceID().String(), id.ParseDraftInvoiceID},
		{"ParseInvoiceID rejects crd_", id.NewCreditID().String(), id.ParseInvoiceID},
		{"ParseCreditID rejects line_", id.NewLineID().String(), id.ParseCreditID},
		{"ParseLineID rejects pay_", id.NewPaymentID().String(), id.ParseLineID},
		{"ParsePaymentID rejects cdkt_", id.NewCollectionDocketID().String(), id.ParsePaymentID},
		{"ParseCollectionDocketID rejects pdkt_", id.NewPaymentDocketID().String(), id.ParseCollectionDocketID},
		{"ParsePaymentDocketID rejects regie_", id.NewRegieID().String(), id.ParsePaymentDocketID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parseFn(tt.input)
			if err == nil {
				t.Errorf("expected error for cross-type parse of %q, got nil", tt.input)
			}
		})
	}
}

func TestParseAny(t *testing.T) {
	ids := []id.ID{
		id.NewRegieID(),
		id.NewCampaignID(),
		id.NewPoolID(),
		id.NewDraftInvoiceID(),
		id.NewInvoiceID(),
		id.NewDraftCreditID(),
		id.NewCreditID(),
		id.NewLineID(),
		id.NewPaymentID(),
		id.NewCollectionDocketID(),
		id.NewPaymentDocketID(),
	}

	for _, i := range ids {
		t.Run(i.String(), func(t *testing.T) {
			parsed, err := id.ParseAny(i.String())
			if err != nil {
				t.Fatalf("ParseAny(%q) failed: %v", i.String(), err)
			}
			if parsed.String() != i.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), i.String())
			}
		})
	}
}

func TestParseWithPrefix(t *testing.T) {
	i := id.NewInvoiceID()
	parsed, err := id.ParseWithPrefix(i.String(), id.PrefixInvoice)
	if err != nil {
		t.Fatalf("ParseWithPrefix failed: %v", err)
	}
	if parsed.String() != i.String() {
		t.Errorf("mismatch: %q != %q", parsed.String(), i.String())
	}

	_, err = id.ParseWithPrefix(i.String(), id.PrefixCredit)
	if err == nil {
		t.Error("expected error for wrong prefix")
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := id.Parse("")
	if err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestMarshalUnmarshalText(t *testing.T) {
	original := id.NewInvoiceID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var restored id.ID
	if unmarshalErr := restored.UnmarshalText(data); unmarshalErr != nil {
		t.Fatalf("UnmarshalText failed: %v", unmarshalErr)
	}
	if restored.String() != original.String() {
		t.Errorf("mismatch: %q != %q", restored.String(), original.String())
	}

	// Nil round-trip.
	var nilID id.ID
	data, err = nilID.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText(nil) failed: %v", err)
	}
	var restored2 id.ID
	if err := restored2.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText(nil) failed: %v", err)
	}
	if !restored2.IsNil() {
		t.Error("expected nil after round-trip of nil ID")
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewPaymentID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if scanErr := scanned.Scan(val); scanErr != nil {
		t.Fatalf("Scan failed: %v", scanErr)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	// Nil round-trip.
	var nilID id.ID
	val, err = nilID.Value()
	if err != nil {
		t.Fatalf("Value(nil) failed: %v", err)
	}
	if val != nil {
		t.Errorf("expected nil value for nil ID, got %v", val)
	}

	var scanned2 id.ID
	if err := scanned2.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if !scanned2.IsNil() {
		t.Error("expected nil after scan of nil")
	}
}

func TestUniqueness(t *testing.T) {
	a := id.NewInvoiceID()
	b := id.NewInvoiceID()
	if a.String() == b.String() {
		t.Errorf("two consecutive NewInvoiceID() calls returned the same ID: %q", a.String())
	}
}
