package regie

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("regie: not found")
	ErrAlreadyExists = errors.New("regie: already exists")
	ErrInvalidInput  = errors.New("regie: invalid input")

	// Regie / payment type errors
	ErrRegieNotFound       = errors.New("regie: billing unit not found")
	ErrPaymentTypeNotFound = errors.New("regie: payment type not found")
	ErrPaymentTypeDisabled = errors.New("regie: payment type is disabled")
	ErrPaymentTypeReserved = errors.New("regie: payment type slug is reserved")

	// Campaign / pool errors
	ErrCampaignNotFound   = errors.New("regie: campaign not found")
	ErrCampaignFinalized  = errors.New("regie: campaign is finalized")
	ErrCampaignOverlap    = errors.New("regie: campaign dates overlap an existing campaign")
	ErrPoolNotFound       = errors.New("regie: pool not found")
	ErrPoolNotProcessable = errors.New("regie: pool is not in a processable status")
	ErrPoolNotDraft       = errors.New("regie: pool is not a draft run")
	ErrPoolNotLast        = errors.New("regie: pool is not the campaign's latest run")

	// Document errors
	ErrDraftNotFound     = errors.New("regie: draft document not found")
	ErrInvoiceNotFound   = errors.New("regie: invoice not found")
	ErrCreditNotFound    = errors.New("regie: credit not found")
	ErrLineNotFound      = errors.New("regie: line not found")
	ErrDocumentCancelled = errors.New("regie: document is cancelled")
	ErrDocumentCollected = errors.New("regie: document belongs to a docket")
	ErrNegativeTotal     = errors.New("regie: draft total is negative")

	// Payment errors
	ErrPaymentNotFound  = errors.New("regie: payment not found")
	ErrPaymentCancelled = errors.New("regie: payment is cancelled")
	ErrPayerMismatch    = errors.New("regie: payer does not match")

	// Docket errors
	ErrDocketNotFound  = errors.New("regie: docket not found")
	ErrDocketCancelled = errors.New("regie: docket is cancelled")

	// Cancellation errors
	ErrAlreadyCancelled = errors.New("regie: already cancelled")
	ErrHasPayments      = errors.New("regie: document has payment history")
	ErrHasAssignments   = errors.New("regie: credit has assignment history")

	// Store errors
	ErrStoreNotReady     = errors.New("regie: store not ready")
	ErrStoreClosed       = errors.New("regie: store is closed")
	ErrTransactionFailed = errors.New("regie: transaction failed")
	ErrMigrationFailed   = errors.New("regie: migration failed")
	ErrCounterConflict   = errors.New("regie: number counter conflict, retry")
	ErrCreditContended   = errors.New("regie: credit balance changed concurrently, retry")
)

// ValidationError represents a field-scoped validation failure rejected
// before any mutation takes place.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("regie: validation failed for %s: %s", e.Field, e.Message)
}

// Is makes ValidationError match ErrInvalidInput.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// StateError reports an operation attempted on a document or pool in the
// wrong lifecycle state. The whole operation is rejected with no partial
// effect.
type StateError struct {
	Entity string
	State  string
	Op     string
}

func (e StateError) Error() string {
	return fmt.Sprintf("regie: cannot %s %s in state %s", e.Op, e.Entity, e.State)
}

// BusinessRuleError is a named domain-rule rejection, distinct from generic
// validation: negative-total close, cancelling a paid document, and so on.
// Err carries the matching sentinel so errors.Is targets keep working.
type BusinessRuleError struct {
	Rule    string
	Message string
	Err     error
}

func (e BusinessRuleError) Error() string {
	return fmt.Sprintf("regie: %s: %s", e.Rule, e.Message)
}

func (e BusinessRuleError) Unwrap() error {
	return e.Err
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "regie: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("regie: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrRegieNotFound) ||
		errors.Is(err, ErrPaymentTypeNotFound) ||
		errors.Is(err, ErrCampaignNotFound) ||
		errors.Is(err, ErrPoolNotFound) ||
		errors.Is(err, ErrDraftNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrCreditNotFound) ||
		errors.Is(err, ErrLineNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrDocketNotFound)
}

// IsStateError returns true for wrong-lifecycle-state rejections.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se) ||
		errors.Is(err, ErrCampaignFinalized) ||
		errors.Is(err, ErrPoolNotProcessable) ||
		errors.Is(err, ErrDocumentCancelled) ||
		errors.Is(err, ErrDocumentCollected) ||
		errors.Is(err, ErrPaymentCancelled) ||
		errors.Is(err, ErrAlreadyCancelled)
}

// IsBusinessRuleError returns true for named domain-rule rejections.
func IsBusinessRuleError(err error) bool {
	var be *BusinessRuleError
	return errors.As(err, &be) ||
		errors.Is(err, ErrNegativeTotal) ||
		errors.Is(err, ErrHasPayments) ||
		errors.Is(err, ErrHasAssignments)
}

// IsRetryable returns true if the error is a serialization conflict and the
// whole operation can be retried by the caller.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed) ||
		errors.Is(err, ErrCounterConflict) ||
		errors.Is(err, ErrCreditContended)
}
