package postgres

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/billcore/regie/billing"
	"github.com/billcore/regie/campaign"
	"github.com/billcore/regie/credit"
	"github.com/billcore/regie/docket"
	"github.com/billcore/regie/id"
	"github.com/billcore/regie/invoice"
	"github.com/billcore/regie/payment"
	"github.com/billcore/regie/types"
)

// Amounts are stored as exact decimal strings and compared in Go, never
// in SQL. Payer, lines and state are stored as JSON documents; the payer
// external id and the cancelled flag are denormalized into their own
// columns for filtering.

func amountToString(a types.Amount) string {
	return a.String()
}

func amountFromString(s string) (types.Amount, error) {
	if s == "" {
		return types.ZeroAmount, nil
	}
	return types.AmountFromString(s)
}

func idToString(v id.ID) string {
	return v.String()
}

func optionalID(s string) (id.ID, error) {
	if s == "" {
		return id.Nil, nil
	}
	return id.Parse(s)
}

func stateToJSON(s types.DocumentState) json.RawMessage {
	raw, _ := json.Marshal(s) //nolint:errcheck // best-effort
	return raw
}

func stateFromJSON(raw json.RawMessage) types.DocumentState {
	var s types.DocumentState
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &s) //nolint:errcheck // best-effort
	}
	return s
}

func payerToJSON(p invoice.PayerSnapshot) json.RawMessage {
	raw, _ := json.Marshal(p) //nolint:errcheck // best-effort
	return raw
}

func payerFromJSON(raw json.RawMessage) invoice.PayerSnapshot {
	var p invoice.PayerSnapshot
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &p) //nolint:errcheck // best-effort
	}
	return p
}

// ==================== Regie models ====================

type regieModel struct {
	grove.BaseModel `grove:"table:regie_regies"`

	ID                     string    `grove:"id,pk"`
	Label                  string    `grove:"label"`
	Slug                   string    `grove:"slug"`
	Seq                    int       `grove:"seq"`
	CollectionMinThreshold string    `grove:"collection_min_threshold"`
	PaymentCallbackURL     string    `grove:"payment_callback_url"`
	CancelCallbackURL      string    `grove:"cancel_callback_url"`
	CreatedAt              time.Time `grove:"created_at"`
	UpdatedAt              time.Time `grove:"updated_at"`
}

func toRegieModel(r *billing.Regie) *regieModel {
	return &regieModel{
		ID:                     r.ID.String(),
		Label:                  r.Label,
		Slug:                   r.Slug,
		Seq:                    r.Seq,
		CollectionMinThreshold: amountToString(r.CollectionMinThreshold),
		PaymentCallbackURL:     r.PaymentCallbackURL,
		CancelCallbackURL:      r.CancelCallbackURL,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
}

func fromRegieModel(m *regieModel) (*billing.Regie, error) {
	regieID, err := id.ParseRegieID(m.ID)
	if err != nil {
		return nil, err
	}
	threshold, err := amountFromString(m.CollectionMinThreshold)
	if err != nil {
		return nil, err
	}
	return &billing.Regie{
		Entity:                 types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                     regieID,
		Label:                  m.Label,
		Slug:                   m.Slug,
		Seq:                    m.Seq,
		CollectionMinThreshold: threshold,
		PaymentCallbackURL:     m.PaymentCallbackURL,
		CancelCallbackURL:      m.CancelCallbackURL,
	}, nil
}

type paymentTypeModel struct {
	grove.BaseModel `grove:"table:regie_payment_types"`

	ID        string    `grove:"id,pk"`
	RegieID   string    `grove:"regie_id"`
	Slug      string    `grove:"slug"`
	Label     string    `grove:"label"`
	Disabled  bool      `grove:"disabled"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toPaymentTypeModel(pt *billing.PaymentType) *paymentTypeModel {
	return &paymentTypeModel{
		ID:        pt.ID.String(),
		RegieID:   pt.RegieID.String(),
		Slug:      pt.Slug,
		Label:     pt.Label,
		Disabled:  pt.Disabled,
		CreatedAt: pt.CreatedAt,
		UpdatedAt: pt.UpdatedAt,
	}
}

func fromPaymentTypeModel(m *paymentTypeModel) (*billing.PaymentType, error) {
	ptID, err := id.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	regieID, err := id.ParseRegieID(m.RegieID)
	if err != nil {
		return nil, err
	}
	return &billing.PaymentType{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       ptID,
		RegieID:  regieID,
		Slug:     m.Slug,
		Label:    m.Label,
		Disabled: m.Disabled,
	}, nil
}

// ==================== Campaign models ====================

type campaignModel struct {
	grove.BaseModel `grove:"table:regie_campaigns"`

	ID                  string          `grove:"id,pk"`
	RegieID             string          `grove:"regie_id"`
	Label               string          `grove:"label"`
	DateStart           time.Time       `grove:"date_start"`
	DateEnd             time.Time       `grove:"date_end"`
	Agendas             json.RawMessage `grove:"agendas,type:jsonb"`
	DatePublication     time.Time       `grove:"date_publication"`
	DatePaymentDeadline time.Time       `grove:"date_payment_deadline"`
	DateDue             time.Time       `grove:"date_due"`
	DateDebit           time.Time       `grove:"date_debit"`
	PrimaryCampaignID   string          `grove:"primary_campaign_id"`
	Finalized           bool            `grove:"finalized"`
	InvoiceModel        string          `grove:"invoice_model"`
	CreatedAt           time.Time       `grove:"created_at"`
	UpdatedAt           time.Time       `grove:"updated_at"`
}

func toCampaignModel(c *campaign.Campaign) *campaignModel {
	agendas, _ := json.Marshal(c.Agendas) //nolint:errcheck // best-effort
	return &campaignModel{
		ID:                  c.ID.String(),
		RegieID:             c.RegieID.String(),
		Label:               c.Label,
		DateStart:           c.DateStart,
		DateEnd:             c.DateEnd,
		Agendas:             agendas,
		DatePublication:     c.DatePublication,
		DatePaymentDeadline: c.DatePaymentDeadline,
		DateDue:             c.DateDue,
		DateDebit:           c.DateDebit,
		PrimaryCampaignID:   idToString(c.PrimaryCampaignID),
		Finalized:           c.Finalized,
		InvoiceModel:        c.InvoiceModel,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func fromCampaignModel(m *campaignModel) (*campaign.Campaign, error) {
	campaignID, err := id.ParseCampaignID(m.ID)
	if err != nil {
		return nil, err
	}
	regieID, err := id.ParseRegieID(m.RegieID)
	if err != nil {
		return nil, err
	}
	primaryID, err := optionalID(m.PrimaryCampaignID)
	if err != nil {
		return nil, err
	}
	var agendas []string
	if len(m.Agendas) > 0 {
		_ = json.Unmarshal(m.Agendas, &agendas) //nolint:errcheck // best-effort
	}
	return &campaign.Campaign{
		Entity:              types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                  campaignID,
		RegieID:             regieID,
		Label:               m.Label,
		DateStart:           m.DateStart,
		DateEnd:             m.DateEnd,
		Agendas:             agendas,
		DatePublication:     m.DatePublication,
		DatePaymentDeadline: m.DatePaymentDeadline,
		DateDue:             m.DateDue,
		DateDebit:           m.DateDebit,
		PrimaryCampaignID:   primaryID,
		Finalized:           m.Finalized,
		InvoiceModel:        m.InvoiceModel,
	}, nil
}

type poolModel struct {
	grove.BaseModel `grove:"table:regie_pools"`

	ID          string     `grove:"id,pk"`
	CampaignID  string     `grove:"campaign_id"`
	Draft       bool       `grove:"draft"`
	Status      string     `grove:"status"`
	CompletedAt *time.Time `grove:"completed_at"`
	Error       string     `grove:"error"`
	CreatedAt   time.Time  `grove:"created_at"`
	UpdatedAt   time.Time  `grove:"updated_at"`
}

func toPoolModel(p *campaign.Pool) *poolModel {
	return &poolModel{
		ID:          p.ID.String(),
		CampaignID:  p.CampaignID.String(),
		Draft:       p.Draft,
		Status:      string(p.Status),
		CompletedAt: p.CompletedAt,
		Error:       p.Error,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromPoolModel(m *poolModel) (*campaign.Pool, error) {
	poolID, err := id.ParsePoolID(m.ID)
	if err != nil {
		return nil, err
	}
	campaignID, err := id.ParseCampaignID(m.CampaignID)
	if err != nil {
		return nil, err
	}
	return &campaign.Pool{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          poolID,
		CampaignID:  campaignID,
		Draft:       m.Draft,
		Status:      campaign.PoolStatus(m.Status),
		CompletedAt: m.CompletedAt,
		Error:       m.Error,
	}, nil
}

type agendaUnlockModel struct {
	grove.BaseModel `grove:"table:regie_agenda_unlocks"`

	ID         string    `grove:"id,pk"`
	CampaignID string    `grove:"campaign_id"`
	AgendaSlug string    `grove:"agenda_slug"`
	DateUnlock time.Time `grove:"date_unlock"`
	Active     bool      `grove:"active"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
}

func toAgendaUnlockModel(u *campaign.AgendaUnlock) *agendaUnlockModel {
	return &agendaUnlockModel{
		ID:         u.ID.String(),
		CampaignID: u.CampaignID.String(),
		AgendaSlug: u.AgendaSlug,
		DateUnlock: u.DateUnlock,
		Active:     u.Active,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func fromAgendaUnlockModel(m *agendaUnlockModel) (*campaign.AgendaUnlock, error) {
	unlockID, err := id.ParseAgendaUnlockID(m.ID)
	if err != nil {
		return nil, err
	}
	campaignID, err := id.ParseCampaignID(m.CampaignID)
	if err != nil {
		return nil, err
	}
	return &campaign.AgendaUnlock{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         unlockID,
		CampaignID: campaignID,
		AgendaSlug: m.AgendaSlug,
		DateUnlock: m.DateUnlock,
		Active:     m.Active,
	}, nil
}

// ==================== Document models ====================

type draftInvoiceModel struct {
	grove.BaseModel `grove:"table:regie_draft_invoices"`

	ID                  string          `grove:"id,pk"`
	RegieID             string          `grove:"regie_id"`
	PoolID              string          `grove:"pool_id"`
	Label               string          `grove:"label"`
	Payer               json.RawMessage `grove:"payer,type:jsonb"`
	PayerExternalID     string          `grove:"payer_external_id"`
	TotalAmount         string          `grove:"total_amount"`
	DatePublication     time.Time       `grove:"date_publication"`
	DatePaymentDeadline time.Time       `grove:"date_payment_deadline"`
	DateDue             time.Time       `grove:"date_due"`
	DateDebit           time.Time       `grove:"date_debit"`
	PreviousInvoiceID   string          `grove:"previous_invoice_id"`
	Lines               json.RawMessage `grove:"lines,type:jsonb"`
	CreatedAt           time.Time       `grove:"created_at"`
	UpdatedAt           time.Time       `grove:"updated_at"`
}

func toDraftInvoiceModel(d *invoice.DraftInvoice) *draftInvoiceModel {
	lines, _ := json.Marshal(d.Lines) //nolint:errcheck // best-effort
	return &draftInvoiceModel{
		ID:                  d.ID.String(),
		RegieID:             d.RegieID.String(),
		PoolID:              idToString(d.PoolID),
		Label:               d.Label,
		Payer:               payerToJSON(d.Payer),
		PayerExternalID:     d.Payer.ExternalID,
		TotalAmount:         amountToString(d.TotalAmount),
		DatePublication:     d.DatePublication,
		DatePaymentDeadline: d.DatePaymentDeadline,
		DateDue:             d.DateDue,
		DateDebit:           d.DateDebit,
		PreviousInvoiceID:   idToString(d.PreviousInvoiceID),
		Lines:               lines,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

func fromDraftInvoiceModel(m *draftInvoiceModel) (*invoice.DraftInvoice, error) {
	draftID, err := id.ParseDraftInvoiceID(m.ID)
	if err != nil {
		return nil, err
	}
	regieID, err := id.ParseRegieID(m.RegieID)
	if err != nil {
		return nil, err
	}
	poolID, err := optionalID(m.PoolID)
	if err != nil {
		return nil, err
	}
	prevID, err := optionalID(m.PreviousInvoiceID)
	if err != nil {
		return nil, err
	}
	total, err := amountFromString(m.TotalAmount)
	if err != nil {
		return nil, err
	}
	var lines []*invoice.DraftLine
	if len(m.Lines) > 0 {
		_ = json.Unmarshal(m.Lines, &lines) //nolint:errcheck // best-effort
	}
	return &invoice.DraftInvoice{
		Entity:              types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                  draftID,
		RegieID:             regieID,
		PoolID:              poolID,
		Label:               m.Label,
		Payer:               payerFromJSON(m.Payer),
		TotalAmount:         total,
		DatePublication:     m.DatePublication,
		DatePaymentDeadline: m.DatePaymentDeadline,
		DateDue:             m.DateDue,
		DateDebit:           m.DateDebit,
		PreviousInvoiceID:   prevID,
		Lines:               lines,
	}, nil
}

type invoiceModel struct {
	grove.BaseModel `grove:"table:regie_invoices"`

	ID                  string          `grove:"id,pk"`
	RegieID             string          `grove:"regie_id"`
	PoolID              string          `grove:"pool_id"`
	Label               string          `grove:"label"`
	Payer               json.RawMessage `grove:"payer,type:jsonb"`
	PayerExternalID     string          `grove:"payer_external_id"`
	Number              int64           `grove:"number"`
	FormattedNumber     string          `grove:"formatted_number"`
	TotalAmount         string          `grove:"total_amount"`
	PaidAmount          string          `grove:"paid_amount"`
	RemainingAmount     string          `grove:"remaining_amount"`
	DatePublication     time.Time       `grove:"date_publication"`
	DatePaymentDeadline time.Time       `grove:"date_payment_deadline"`
	DateDue             time.Time       `grove:"date_due"`
	DateDebit           time.Time       `grove:"date_debit"`
	PreviousInvoiceID   string          `grove:"previous_invoice_id"`
	CollectionDocketID  string          `grove:"collection_docket_id"`
	Cancelled           bool            `grove:"cancelled"`
	State               json.RawMessage `grove:"state,type:jsonb"`
	Lines               json.RawMessage `grove:"lines,type:jsonb"`
	CreatedAt           time.Time       `grove:"created_at"`
	UpdatedAt           time.Time       `grove:"updated_at"`
}

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	lines, _ := json.Marshal(inv.Lines) //nolint:errcheck // best-effort
	return &invoiceModel{
		ID:                  inv.ID.String(),
		RegieID:             inv.RegieID.String(),
		PoolID:              idToString(inv.PoolID),
		Label:               inv.Label,
		Payer:               payerToJSON(inv.Payer),
		PayerExternalID:     inv.Payer.ExternalID,
		Number:              inv.Number,
		FormattedNumber:     inv.FormattedNumber,
		TotalAmount:         amountToString(inv.TotalAmount),
		PaidAmount:          amountToString(inv.PaidAmount),
		RemainingAmount:     amountToString(inv.RemainingAmount),
		DatePublication:     inv.DatePublication,
		DatePaymentDeadline: inv.DatePaymentDeadline,
		DateDue:             inv.DateDue,
		DateDebit:           inv.DateDebit,
		PreviousInvoiceID:   idToString(inv.PreviousInvoiceID),
		CollectionDocketID:  idToString(inv.CollectionDocketID),
		Cancelled:           inv.State.IsCancelled(),
		State:               stateToJSON(inv.State),
		Lines:               lines,
		CreatedAt:           inv.CreatedAt,
		UpdatedAt:           inv.UpdatedAt,
	}
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	invID, err := id.ParseInvoiceID(m.ID)
	if err != nil {
		return nil, err
	}
	regieID, err := id.ParseRegieID(m.RegieID)
	if err != nil {
		return nil, err
	}
	poolID, err := optionalID(m.PoolID)
	if err != nil {
		return nil, err
	}
	prevID, err := optionalID(m.PreviousInvoiceID)
	if err != nil {
		return nil, err
	}
	docketID, err := optionalID(m.CollectionDocketID)
	if err != nil {
		return nil, err
	}
	total, err := amountFromString(m.TotalAmount)
	if err != nil {
		return nil, err
	}
	paid, err := amountFromString(m.PaidAmount)
	if err != nil {
		return nil, err
	}
	remaining, err := amountFromString(m.RemainingAmount)
	if err != nil {
		return nil, err
	}
	var lines []*invoice.Line
	if len(m.Lines) > 0 {
		_ = json.Unmarshal(m.Lines, &lines) //nolint:errcheck // best-effort
	}
	return &invoice.Invoice{
		Entity:              types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                  invID,
		RegieID:             regieID,
		PoolID:              poolID,
		Label:               m.Label,
		Payer:               payerFromJSON(m.Payer),
		Number:              m.Number,
		FormattedNumber:     m.FormattedNumber,
		TotalAmount:         total,
		PaidAmount:          paid,
		RemainingAmount:     remaining,
		DatePublication:     m.DatePublication,
		DatePaymentDeadline: m.DatePaymentDeadline,
		DateDue:             m.DateDue,
		DateDebit:           m.DateDebit,
		PreviousInvoiceID:   prevID,
		CollectionDocketID:  docketID,
		State:               stateFromJSON(m.State),
		Lines:               lines,
	}, nil
}

type draftCreditModel struct {
	grove.BaseModel `grove:"table:regie_draft_credits"`

	ID              string          `grove:"id,pk"`
	RegieID         string          `grove:"regie_id"`
	PoolID          string          `grove:"pool_id"`
	Label           string          `grove:"label"`
	Payer           json.RawMessage `grove:"payer,type:jsonb"`
	PayerExternalID string          `grove:"payer_external_id"`
	TotalAmount     string          `grove:"total_amount"`
	DatePublication time.Time       `grove:"date_publication"`
	Lines           json.RawMessage `grove:"lines,type:jsonb"`
	CreatedAt       time.Time       `grove:"created_at"`
	UpdatedAt       time.Time       `grove:"updated_at"`
}

func toDraftCreditModel(d *credit.DraftCredit) *draftCreditModel {
	lines, _ := json.Marshal(d.Lines) //nolint:errcheck // best-effort
	return &draftCreditModel{
		ID:              d.ID.String(),
		RegieID:         d.RegieID.String(),
		PoolID:          idToString(d.PoolID),
		Label:           d.Label,
		Payer:           payerToJSON(d.Payer),
		PayerExternalID: d.Payer.ExternalID,
		TotalAmount:     amountToString(d.TotalAmount),
		DatePublication: d.DatePublication,
		Lines:           lines,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func fromDraftCreditModel(m *draftCreditModel) (*credit.DraftCredit, error) {
	draftID, err := id.ParseDraftCreditID(m.ID)
	if err != nil {
		return nil, err
	}
	regieID, err := id.ParseRegieID(m.RegieID)
	if err != nil {
		return nil, err
	}
	poolID, err := optionalID(m.PoolID)
	if err != nil {
		return nil, err
	}
	total, err := amountFromString(m.TotalAmount)
	if err != nil {
		return nil, err
	}
	var lines []*invoice.DraftLine
	if len(m.Lines) > 0 {
		_ = json.Unmarshal(m.Lines, &lines) //nolint:errcheck // best-effort
	}
	return &credit.DraftCredit{
		Entity:          types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:              draftID,
		RegieID:         regieID,
		PoolID:          poolID,
		Label:           m.Label,
		Payer:           payerFromJSON(m.Payer),
		TotalAmount:     total,
		DatePublication: m.DatePublication,
		Lines:           lines,
	}, nil
}

type creditModel struct {
	grove.BaseModel `grove:"table:regie_credits"`

	ID              string          `grove:"id,pk"`
	RegieID         string          `grove:"regie_id"`
	PoolID          string          `grove:"pool_id"`
	Label           string          `grove:"label"`
	Payer           json.RawMessage `grove:"payer,type:jsonb"`
	PayerExternalID string          `grove:"payer_external_id"`
	Number          int64           `grove:"number"`
	FormattedNumber string          `grove:"formatted_number"`
	TotalAmount     string          `grove:"total_amount"`
	AssignedAmount  string          `grove:"assigned_amount"`
	RemainingAmount string          `grove:"remaining_amount"`
	DatePublication time.Time       `grove:"date_publication"`
	Usable          bool            `grove:"usable"`
	Cancelled       bool            `grove:"cancelled"`
	State           json.RawMessage `grove:"state,type:jsonb"`
	Lines           json.RawMessage `grove:"lines,type:jsonb"`
	CreatedAt       time.Time       `grove:"created_at"`
	UpdatedAt       time.Time       `grove:"updated_at"`
}

func toCreditModel(c *credit.Credit) *creditModel {
	lines, _ := json.Marshal(c.Lines) //nolint:errcheck // best-effort
	return &creditModel{
		ID:              c.ID.String(),
		RegieID:         c.RegieID.String(),
		PoolID:          idToString(c.PoolID),
		Label:           c.Label,
		Payer:           payerToJSON(c.Payer),
		PayerExternalID: c.Payer.ExternalID,
		Number:          c.Number,
		FormattedNumber: c.FormattedNumber,
		TotalAmount:     amountToString(c.TotalAmount),
		AssignedAmount:  amountToString(c.AssignedAmount),
		RemainingAmount: amountToString(c.RemainingAmount),
		DatePublication: c.DatePublication,
		Usable:          c.UsableFlag,
		Cancelled:       c.State.IsCancelled(),
		State:           stateToJSON(c.State),
		Lines:           lines,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func fromCreditModel(m *creditModel) (*credit.Credit, error) {
	creditID, err := id.ParseCreditID(m.ID)
	if err != nil {
		return nil, err
	}
	regieID, err := id.ParseRegieID(m.RegieID)
	if err != nil {
		return nil, err
	}
	poolID, err := optionalID(m.PoolID)
	if err != nil {
		return nil, err
	}
	total, err := amountFromString(m.TotalAmount)
	if err != nil {
		return nil, err
	}
	assigned, err := amountFromString(m.AssignedAmount)
	if err != nil {
		return nil, err
	}
	remaining, err := amountFromString(m.RemainingAmount)
	if err != nil {
		return nil, err
	}
	var lines []*invoice.Line
	if len(m.Lines) > 0 {
		_ = json.Unmarshal(m.Lines, &lines) //nolint:errcheck // best-effort
	}
	return &credit.Credit{
		Entity:          types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:              creditID,
		RegieID:         regieID,
		PoolID:          poolID,
		Label:           m.Label,
		Payer:           payerFromJSON(m.Payer),
		Number:          m.Number,
		FormattedNumber: m.FormattedNumber,
		TotalAmount:     total,
		AssignedAmount:  assigned,
		RemainingAmount: remaining,
		DatePublication: m.DatePublication,
		UsableFlag:      m.Usable,
		State:           stateFromJSON(m.State),
		Lines:           lines,
	}, nil
}

// ==================== Payment models ====================

type paymentModel struct {
	grove.BaseModel `grove:"table:regie_payments"`

	ID              string          `grove:"id,pk"`
	RegieID         string          `grove:"regie_id"`
	Number          int64           `grove:"number"`
	FormattedNumber string          `grove:"formatted_number"`
	Amount          string          `grove:"amount"`
	PaymentType     string          `grove:"payment_type"`
	Payer           json.RawMessage `grove:"payer,type:jsonb"`
	PayerExternalID string          `grove:"payer_external_id"`
	DocketID        string          `grove:"docket_id"`
	Cancelled       bool            `grove:"cancelled"`
	State           json.RawMessage `grove:"state,type:jsonb"`
	CreatedAt       time.Time       `grove:"created_at"`
	UpdatedAt       time.Time       `grove:"updated_at"`
}

func toPaymentModel(p *payment.Payment) *paymentModel {
	return &paymentModel{
		ID:              p.ID.String(),
		RegieID:         p.RegieID.String(),
		Number:          p.Number,
		FormattedNumber: p.FormattedNumber,
		Amount:          amountToString(p.Amount),
		PaymentType:     p.PaymentTypeSlug,
		Payer:           payerToJSON(p.Payer),
		PayerExternalID: p.Payer.ExternalID,
		DocketID:        idToString(p.DocketID),
		Cancelled:       p.State.IsCancelled(),
		State:           stateToJSON(p.State),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	payID, err := id.ParsePaymentID(m.ID)
	if err != nil {
		return nil, err
	}
	regieID, err := id.ParseRegieID(m.RegieID)
	if err != nil {
		return nil, err
	}
	docketID, err := optionalID(m.DocketID)
	if err != nil {
		return nil, err
	}
	amount, err := amountFromString(m.Amount)
	if err != nil {
		return nil, err
	}
	return &payment.Payment{
		Entity:          types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:              payID,
		RegieID:         regieID,
		Number:          m.Number,
		FormattedNumber: m.FormattedNumber,
		Amount:          amount,
		PaymentTypeSlug: m.PaymentType,
		Payer:           payerFromJSON(m.Payer),
		DocketID:        docketID,
		State:           stateFromJSON(m.State),
	}, nil
}

type linePaymentModel struct {
	grove.BaseModel `grove:"table:regie_line_payments"`

	ID        string    `grove:"id,pk"`
	PaymentID string    `grove:"payment_id"`
	InvoiceID string    `grove:"invoice_id"`
	LineID    string    `grove:"line_id"`
	Amount    string    `grove:"amount"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toLinePaymentModel(lp *payment.InvoiceLinePayment) *linePaymentModel {
	return &linePaymentModel{
		ID:        lp.ID.String(),
		PaymentID: lp.PaymentID.String(),
		InvoiceID: lp.InvoiceID.String(),
		LineID:    lp.LineID.String(),
		Amount:    amountToString(lp.Amount),
		CreatedAt: lp.CreatedAt,
		UpdatedAt: lp.UpdatedAt,
	}
}

func fromLinePaymentModel(m *linePaymentModel) (*payment.InvoiceLinePayment, error) {
	lpID, err := id.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	payID, err := id.ParsePaymentID(m.PaymentID)
	if err != nil {
		return nil, err
	}
	invID, err := id.ParseInvoiceID(m.InvoiceID)
	if err != nil {
		return nil, err
	}
	lineID, err := id.ParseLineID(m.LineID)
	if err != nil {
		return nil, err
	}
	amount, err := amountFromString(m.Amount)
	if err != nil {
		return nil, err
	}
	return &payment.InvoiceLinePayment{
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:        lpID,
		PaymentID: payID,
		InvoiceID: invID,
		LineID:    lineID,
		Amount:    amount,
	}, nil
}

type assignmentModel struct {
	grove.BaseModel `grove:"table:regie_assignments"`

	ID        string    `grove:"id,pk"`
	RegieID   string    `grove:"regie_id"`
	CreditID  string    `grove:"credit_id"`
	InvoiceID string    `grove:"invoice_id"`
	PaymentID string    `grove:"payment_id"`
	Amount    string    `grove:"amount"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toAssignmentModel(a *credit.Assignment) *assignmentModel {
	return &assignmentModel{
		ID:        a.ID.String(),
		RegieID:   a.RegieID.String(),
		CreditID:  a.CreditID.String(),
		InvoiceID: a.InvoiceID.String(),
		PaymentID: a.PaymentID.String(),
		Amount:    amountToString(a.Amount),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func fromAssignmentModel(m *assignmentModel) (*credit.Assignment, error) {
	asgnID, err := id.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	regieID, err := id.ParseRegieID(m.RegieID)
	if err != nil {
		return nil, err
	}
	creditID, err := id.ParseCreditID(m.CreditID)
	if err != nil {
		return nil, err
	}
	invID, err := id.ParseInvoiceID(m.InvoiceID)
	if err != nil {
		return nil, err
	}
	payID, err := id.ParsePaymentID(m.PaymentID)
	if err != nil {
		return nil, err
	}
	amount, err := amountFromString(m.Amount)
	if err != nil {
		return nil, err
	}
	return &credit.Assignment{
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:        asgnID,
		RegieID:   regieID,
		CreditID:  creditID,
		InvoiceID: invID,
		PaymentID: payID,
		Amount:    amount,
	}, nil
}

// ==================== Docket models ====================

type collectionDocketModel struct {
	grove.BaseModel `grove:"table:regie_collection_dockets"`

	ID               string          `grove:"id,pk"`
	RegieID          string          `grove:"regie_id"`
	Label            string          `grove:"label"`
	Number           int64           `grove:"number"`
	FormattedNumber  string          `grove:"formatted_number"`
	DateEnd          time.Time       `grove:"date_end"`
	MinimumThreshold string          `grove:"minimum_threshold"`
	Cancelled        bool            `grove:"cancelled"`
	State            json.RawMessage `grove:"state,type:jsonb"`
	CreatedAt        time.Time       `grove:"created_at"`
	UpdatedAt        time.Time       `grove:"updated_at"`
}

func toCollectionDocketModel(d *docket.CollectionDocket) *collectionDocketModel {
	return &collectionDocketModel{
		ID:               d.ID.String(),
		RegieID:          d.RegieID.String(),
		Label:            d.Label,
		Number:           d.Number,
		FormattedNumber:  d.FormattedNumber,
		DateEnd:          d.DateEnd,
		MinimumThreshold: amountToString(d.MinimumThreshold),
		Cancelled:        d.State.IsCancelled(),
		State:            stateToJSON(d.State),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func fromCollectionDocketModel(m *collectionDocketModel) (*docket.CollectionDocket, error) {
	docketID, err := id.ParseCollectionDocketID(m.ID)
	if err != nil {
		return nil, err
	}
	regieID, err := id.ParseRegieID(m.RegieID)
	if err != nil {
		return nil, err
	}
	threshold, err := amountFromString(m.MinimumThreshold)
	if err != nil {
		return nil, err
	}
	return &docket.CollectionDocket{
		Entity:           types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:               docketID,
		RegieID:          regieID,
		Label:            m.Label,
		Number:           m.Number,
		FormattedNumber:  m.FormattedNumber,
		DateEnd:          m.DateEnd,
		MinimumThreshold: threshold,
		State:            stateFromJSON(m.State),
	}, nil
}

type paymentDocketModel struct {
	grove.BaseModel `grove:"table:regie_payment_dockets"`

	ID              string          `grove:"id,pk"`
	RegieID         string          `grove:"regie_id"`
	Label           string          `grove:"label"`
	Number          int64           `grove:"number"`
	FormattedNumber string          `grove:"formatted_number"`
	DateEnd         time.Time       `grove:"date_end"`
	PaymentTypes    json.RawMessage `grove:"payment_types,type:jsonb"`
	Cancelled       bool            `grove:"cancelled"`
	State           json.RawMessage `grove:"state,type:jsonb"`
	CreatedAt       time.Time       `grove:"created_at"`
	UpdatedAt       time.Time       `grove:"updated_at"`
}

func toPaymentDocketModel(d *docket.PaymentDocket) *paymentDocketModel {
	slugs, _ := json.Marshal(d.PaymentTypeSlugs) //nolint:errcheck // best-effort
	return &paymentDocketModel{
		ID:              d.ID.String(),
		RegieID:         d.RegieID.String(),
		Label:           d.Label,
		Number:          d.Number,
		FormattedNumber: d.FormattedNumber,
		DateEnd:         d.DateEnd,
		PaymentTypes:    slugs,
		Cancelled:       d.State.IsCancelled(),
		State:           stateToJSON(d.State),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func fromPaymentDocketModel(m *paymentDocketModel) (*docket.PaymentDocket, error) {
	docketID, err := id.ParsePaymentDocketID(m.ID)
	if err != nil {
		return nil, err
	}
	regieID, err := id.ParseRegieID(m.RegieID)
	if err != nil {
		return nil, err
	}
	var slugs []string
	if len(m.PaymentTypes) > 0 {
		_ = json.Unmarshal(m.PaymentTypes, &slugs) //nolint:errcheck // best-effort
	}
	return &docket.PaymentDocket{
		Entity:           types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:               docketID,
		RegieID:          regieID,
		Label:            m.Label,
		Number:           m.Number,
		FormattedNumber:  m.FormattedNumber,
		DateEnd:          m.DateEnd,
		PaymentTypeSlugs: slugs,
		State:            stateFromJSON(m.State),
	}, nil
}
