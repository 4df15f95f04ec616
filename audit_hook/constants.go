package audithook

// Action constants for audit events.
const (
	// Document actions
	ActionInvoiceFinalized = "invoice.finalized"
	ActionInvoiceCancelled = "invoice.cancelled"
	ActionCreditFinalized  = "credit.finalized"
	ActionCreditCancelled  = "credit.cancelled"
	ActionCreditAssigned   = "credit.assigned"

	// Payment actions
	ActionPaymentRegistered = "payment.registered"
	ActionPaymentCancelled  = "payment.cancelled"

	// Campaign actions
	ActionCampaignFinalized = "campaign.finalized"
	ActionPoolCompleted     = "pool.completed"
	ActionPoolFailed        = "pool.failed"

	// Docket actions
	ActionDocketSynced = "docket.synced"
)

// Resource constants for audit events.
const (
	ResourceInvoice  = "invoice"
	ResourceCredit   = "credit"
	ResourcePayment  = "payment"
	ResourceCampaign = "campaign"
	ResourcePool     = "pool"
	ResourceDocket   = "docket"
)

// Category constants for audit events.
const (
	CategoryBilling    = "billing"
	CategoryPayment    = "payment"
	CategoryCampaign   = "campaign"
	CategoryCollection = "collection"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
