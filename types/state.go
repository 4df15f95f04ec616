package types

import "time"

// Cancellation records the terminal cancellation of a document or payment.
// A document with a non-nil Cancellation accepts no further mutation.
type Cancellation struct {
	At          time.Time `json:"at"`
	By          string    `json:"by"`
	Reason      string    `json:"reason"`
	Description string    `json:"description,omitempty"`
}

// DocumentState is the lifecycle state shared by invoices, credits,
// payments and dockets: either active or terminally cancelled. Modelling
// it as one tagged value keeps the cancellation fields from drifting apart
// and gives every caller the same activity predicate.
type DocumentState struct {
	Cancelled *Cancellation `json:"cancelled,omitempty"`
}

// ActiveState returns the state of a freshly created document.
func ActiveState() DocumentState {
	return DocumentState{}
}

// CancelledState returns a terminal state carrying the audit fields.
func CancelledState(at time.Time, by, reason, description string) DocumentState {
	return DocumentState{Cancelled: &Cancellation{
		At:          at.UTC(),
		By:          by,
		Reason:      reason,
		Description: description,
	}}
}

// IsActive reports whether the document has not been cancelled.
func (s DocumentState) IsActive() bool {
	return s.Cancelled == nil
}

// IsCancelled reports whether the document has been terminally cancelled.
func (s DocumentState) IsCancelled() bool {
	return s.Cancelled != nil
}
