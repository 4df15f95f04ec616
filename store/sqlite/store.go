package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	regie "github.com/billcore/regie"
	"github.com/billcore/regie/billing"
	"github.com/billcore/regie/campaign"
	"github.com/billcore/regie/credit"
	"github.com/billcore/regie/docket"
	"github.com/billcore/regie/id"
	"github.com/billcore/regie/invoice"
	"github.com/billcore/regie/payment"
	"github.com/billcore/regie/store"
	"github.com/billcore/regie/store/compose"
	"github.com/billcore/regie/types"
)

// compile-time interface checks
var (
	_ store.Store     = (*Store)(nil)
	_ compose.Backend = (*Store)(nil)
)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("regie/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("regie/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func now() time.Time {
	return time.Now().UTC()
}

// ==================== Regie Store ====================

func (s *Store) CreateRegie(ctx context.Context, r *billing.Regie) error {
	if r.Seq == 0 {
		var seq int
		err := s.sdb.NewRaw(`SELECT COALESCE(MAX(seq), 0) + 1 FROM regie_regies`).Scan(ctx, &seq)
		if err != nil {
			return err
		}
		r.Seq = seq
	}
	_, err := s.sdb.NewInsert(toRegieModel(r)).Exec(ctx)
	return err
}

func (s *Store) GetRegie(ctx context.Context, regieID id.RegieID) (*billing.Regie, error) {
	m := new(regieModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", regieID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, regie.ErrRegieNotFound
		}
		return nil, err
	}
	return fromRegieModel(m)
}

func (s *Store) ListRegies(ctx context.Context) ([]*billing.Regie, error) {
	var models []regieModel
	err := s.sdb.NewSelect(&models).
		OrderExpr("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*billing.Regie, len(models))
	for i := range models {
		r, err := fromRegieModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) UpdateRegie(ctx context.Context, r *billing.Regie) error {
	m := toRegieModel(r)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return regie.ErrRegieNotFound
	}
	return nil
}

func (s *Store) CreatePaymentType(ctx context.Context, pt *billing.PaymentType) error {
	_, err := s.sdb.NewInsert(toPaymentTypeModel(pt)).Exec(ctx)
	return err
}

func (s *Store) GetPaymentType(ctx context.Context, regieID id.RegieID, slug string) (*billing.PaymentType, error) {
	m := new(paymentTypeModel)
	err := s.sdb.NewSelect(m).
		Where("regie_id = ?", regieID.String()).
		Where("slug = ?", slug).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, regie.ErrPaymentTypeNotFound
		}
		return nil, err
	}
	return fromPaymentTypeModel(m)
}

func (s *Store) ListPaymentTypes(ctx context.Context, regieID id.RegieID) ([]*billing.PaymentType, error) {
	var models []paymentTypeModel
	err := s.sdb.NewSelect(&models).
		Where("regie_id = ?", regieID.String()).
		OrderExpr("slug ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*billing.PaymentType, len(models))
	for i := range models {
		pt, err := fromPaymentTypeModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = pt
	}
	return result, nil
}

func (s *Store) UpdatePaymentType(ctx context.Context, pt *billing.PaymentType) error {
	m := toPaymentTypeModel(pt)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return regie.ErrPaymentTypeNotFound
	}
	return nil
}

// ==================== Campaign Store ====================

func (s *Store) CreateCampaign(ctx context.Context, c *campaign.Campaign) error {
	_, err := s.sdb.NewInsert(toCampaignModel(c)).Exec(ctx)
	return err
}

func (s *Store) GetCampaign(ctx context.Context, campaignID id.CampaignID) (*campaign.Campaign, error) {
	m := new(campaignModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", campaignID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, regie.ErrCampaignNotFound
		}
		return nil, err
	}
	return fromCampaignModel(m)
}

func (s *Store) ListCampaigns(ctx context.Context, regieID id.RegieID) ([]*campaign.Campaign, error) {
	var models []campaignModel
	err := s.sdb.NewSelect(&models).
		Where("regie_id = ?", regieID.String()).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*campaign.Campaign, len(models))
	for i := range models {
		c, err := fromCampaignModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

func (s *Store) UpdateCampaign(ctx context.Context, c *campaign.Campaign) error {
	m := toCampaignModel(c)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return regie.ErrCampaignNotFound
	}
	return nil
}

func (s *Store) ListCorrectives(ctx context.Context, primaryID id.CampaignID) ([]*campaign.Campaign, error) {
	var models []campaignModel
	err := s.sdb.NewSelect(&models).
		Where("primary_campaign_id = ?", primaryID.String()).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*campaign.Campaign, len(models))
	for i := range models {
		c, err := fromCampaignModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

func (s *Store) CreatePool(ctx context.Context, p *campaign.Pool) error {
	_, err := s.sdb.NewInsert(toPoolModel(p)).Exec(ctx)
	return err
}

func (s *Store) GetPool(ctx context.Context, poolID id.PoolID) (*campaign.Pool, error) {
	m := new(poolModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", poolID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, regie.ErrPoolNotFound
		}
		return nil, err
	}
	return fromPoolModel(m)
}

func (s *Store) ListPools(ctx context.Context, campaignID id.CampaignID) ([]*campaign.Pool, error) {
	var models []poolModel
	err := s.sdb.NewSelect(&models).
		Where("campaign_id = ?", campaignID.String()).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*campaign.Pool, len(models))
	for i := range models {
		p, err := fromPoolModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) UpdatePool(ctx context.Context, p *campaign.Pool) error {
	m := toPoolModel(p)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return regie.ErrPoolNotFound
	}
	return nil
}

func (s *Store) LatestPool(ctx context.Context, campaignID id.CampaignID) (*campaign.Pool, error) {
	m := new(poolModel)
	err := s.sdb.NewSelect(m).
		Where("campaign_id = ?", campaignID.String()).
		OrderExpr("id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return fromPoolModel(m)
}

func (s *Store) CreateAgendaUnlock(ctx context.Context, u *campaign.AgendaUnlock) error {
	_, err := s.sdb.NewInsert(toAgendaUnlockModel(u)).Exec(ctx)
	return err
}

func (s *Store) ListAgendaUnlocks(ctx context.Context, campaignID id.CampaignID) ([]*campaign.AgendaUnlock, error) {
	var models []agendaUnlockModel
	err := s.sdb.NewSelect(&models).
		Where("campaign_id = ?", campaignID.String()).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*campaign.AgendaUnlock, len(models))
	for i := range models {
		u, err := fromAgendaUnlockModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = u
	}
	return result, nil
}

func (s *Store) UpdateAgendaUnlock(ctx context.Context, u *campaign.AgendaUnlock) error {
	m := toAgendaUnlockModel(u)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return regie.ErrNotFound
	}
	return nil
}

// ==================== Draft invoice / invoice Store ====================

func (s *Store) CreateDraftInvoice(ctx context.Context, d *invoice.DraftInvoice) error {
	_, err := s.sdb.NewInsert(toDraftInvoiceModel(d)).Exec(ctx)
	return err
}

func (s *Store) GetDraftInvoice(ctx context.Context, draftID id.DraftInvoiceID) (*invoice.DraftInvoice, error) {
	m := new(draftInvoiceModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", draftID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, regie.ErrDraftNotFound
		}
		return nil, err
	}
	return fromDraftInvoiceModel(m)
}

func (s *Store) ListDraftInvoices(ctx context.Context, regieID id.RegieID, opts invoice.ListOpts) ([]*invoice.DraftInvoice, error) {
	var models []draftInvoiceModel
	q := s.sdb.NewSelect(&models).Where("regie_id = ?", regieID.String())
	if !opts.PoolID.IsNil() {
		q = q.Where("pool_id = ?", opts.PoolID.String())
	}
	if opts.PayerExternalID != "" {
		q = q.Where("payer_external_id = ?", opts.PayerExternalID)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	result := make([]*invoice.DraftInvoice, len(models))
	for i := range models {
		d, err := fromDraftInvoiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = d
	}
	return result, nil
}

func (s *Store) UpdateDraftInvoice(ctx context.Context, d *invoice.DraftInvoice) error {
	m := toDraftInvoiceModel(d)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return regie.ErrDraftNotFound
	}
	return nil
}

func (s *Store) DeleteDraftInvoice(ctx context.Context, draftID id.DraftInvoiceID) error {
	res, err := s.sdb.NewDelete((*draftInvoiceModel)(nil)).
		Where("id = ?", draftID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return regie.ErrDraftNotFound
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	m := new(invoiceModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", invID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, regie.ErrInvoiceNotFound
		}
		return nil, err
	}
	return fromInvoiceModel(m)
}

func (s *Store) ListInvoices(ctx context.Context, regieID id.RegieID, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel
	q := s.sdb.NewSelect(&models).Where("regie_id = ?", regieID.String())
	if !opts.PoolID.IsNil() {
		q = q.Where("pool_id = ?", opts.PoolID.String())
	}
	if opts.PayerExternalID != "" {
		q = q.Where("payer_external_id = ?", opts.PayerExternalID)
	}
	if opts.ActiveOnly {
		q = q.Where("cancelled = ?", false)
	}
	if !opts.DueBefore.IsZero() {
		q = q.Where("date_due < ?", opts.DueBefore)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	result := make([]*invoice.Invoice, len(models))
	for i := range models {
		inv, err := fromInvoiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = inv
	}
	return result, nil
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	m := toInvoiceModel(inv)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return regie.ErrInvoiceNotFound
	}
	return nil
}

func (s *Store) InsertInvoice(ctx context.Context, inv *invoice.Invoice) error {
	_, err := s.sdb.NewInsert(toInvoiceModel(inv)).Exec(ctx)
	return err
}

// ==================== Credit Store ====================

func (s *Store) CreateDraftCredit(ctx context.Context, d *credit.DraftCredit) error {
	_, err := s.sdb.NewInsert(toDraftCreditModel(d)).Exec(ctx)
	return err
}

func (s *Store) GetDraftCredit(ctx context.Context, draftID id.DraftCreditID) (*credit.DraftCredit, error) {
	m := new(draftCreditModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", draftID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, regie.ErrDraftNotFound
		}
		return nil, err
	}
	return fromDraftCreditModel(m)
}

func (s *Store) UpdateDraftCredit(ctx context.Context, d *credit.DraftCredit) error {
	m := toDraftCreditModel(d)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return regie.ErrDraftNotFound
	}
	return nil
}

func (s *Store) DeleteDraftCredit(ctx context.Context, draftID id.DraftCreditID) error {
	res, err := s.sdb.NewDelete((*draftCreditModel)(nil)).
		Where("id = ?", draftID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return regie.ErrDraftNotFound
	}
	return nil
}

func (s *Store) GetCredit(ctx context.Context, creditID id.CreditID) (*credit.Credit, error) {
	m := new(creditModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", creditID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, regie.ErrCreditNotFound
		}
		return nil, err
	}
	return fromCreditModel(m)
}

func (s *Store) UpdateCredit(ctx context.Context, c *credit.Credit) error {
	m := toCreditModel(c)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return regie.ErrCreditNotFound
	}
	return nil
}

func (s *Store) InsertCredit(ctx context.Context, c *credit.Credit) error {
	_, err := s.sdb.NewInsert(toCreditModel(c)).Exec(ctx)
	return err
}

// ListUsableCredits returns assignable credits oldest first. The balance
// and pool-finalization predicates run in Go: amounts are stored as
// decimal strings, and a pool credit is eligible only once its campaign
// is finalized.
func (s *Store) ListUsableCredits(ctx context.Context, regieID id.RegieID, payerExternalID string) ([]*credit.Credit, error) {
	var models []creditModel
	err := s.sdb.NewSelect(&models).
		Where("regie_id = ?", regieID.String()).
		Where("payer_external_id = ?", payerExternalID).
		Where("cancelled = ?", false).
		Where("usable = ?", true).
		OrderExpr("date_publication ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	poolOK := make(map[string]bool)
	result := make([]*credit.Credit, 0, len(models))
	for i := range models {
		c, err := fromCreditModel(&models[i])
		if err != nil {
			return nil, err
		}
		if !c.RemainingAmount.IsPositive() {
			continue
		}
		if !c.PoolID.IsNil() {
			ok, err := s.poolCampaignFinalized(ctx, poolOK, c.PoolID)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		result = append(result, c)
	}
	return result, nil
}

// poolCampaignFinalized memoizes the finalization state of a pool's
// campaign across one listing. A missing pool or campaign excludes the
// credit rather than failing the listing.
func (s *Store) poolCampaignFinalized(ctx context.Context, memo map[string]bool, poolID id.PoolID) (bool, error) {
	key := poolID.String()
	if ok, seen := memo[key]; seen {
		return ok, nil
	}
	p, err := s.GetPool(ctx, poolID)
	if err != nil {
		if errors.Is(err, regie.ErrPoolNotFound) {
			memo[key] = false
			return false, nil
		}
		return false, err
	}
	c, err := s.GetCampaign(ctx, p.CampaignID)
	if err != nil {
		if errors.Is(err, regie.ErrCampaignNotFound) {
			memo[key] = false
			return false, nil
		}
		return false, err
	}
	memo[key] = c.Finalized
	return c.Finalized, nil
}

func (s *Store) CreateAssignment(ctx context.Context, a *credit.Assignment) error {
	_, err := s.sdb.NewInsert(toAssignmentModel(a)).Exec(ctx)
	return err
}

func (s *Store) ListAssignmentsByInvoice(ctx context.Context, invID id.InvoiceID) ([]*credit.Assignment, error) {
	return s.listAssignments(ctx, "invoice_id = ?", invID.String())
}

func (s *Store) ListAssignmentsByCredit(ctx context.Context, creditID id.CreditID) ([]*credit.Assignment, error) {
	return s.listAssignments(ctx, "credit_id = ?", creditID.String())
}

func (s *Store) ListAssignmentsByPayment(ctx context.Context, payID id.PaymentID) ([]*credit.Assignment, error) {
	return s.listAssignments(ctx, "payment_id = ?", payID.String())
}

func (s *Store) listAssignments(ctx context.Context, where, arg string) ([]*credit.Assignment, error) {
	var models []assignmentModel
	err := s.sdb.NewSelect(&models).
		Where(where, arg).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*credit.Assignment, len(models))
	for i := range models {
		a, err := fromAssignmentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

func (s *Store) DeleteAssignment(ctx context.Context, asgnID id.AssignmentID) error {
	_, err := s.sdb.NewDelete((*assignmentModel)(nil)).
		Where("id = ?", asgnID.String()).
		Exec(ctx)
	return err
}

// UpdateCreditBalance persists the credit's balances with a
// compare-and-set guard on the remaining amount. A lost race returns
// regie.ErrCreditContended so the caller can retry against fresh state.
func (s *Store) UpdateCreditBalance(ctx context.Context, c *credit.Credit, expectedRemaining types.Amount) error {
	var updatedID string
	err := s.sdb.NewRaw(`
		UPDATE regie_credits
		SET assigned_amount = ?, remaining_amount = ?, usable = ?, updated_at = ?
		WHERE id = ? AND remaining_amount = ?
		RETURNING id
	`,
		amountToString(c.AssignedAmount),
		amountToString(c.RemainingAmount),
		c.UsableFlag,
		now(),
		c.ID.String(),
		amountToString(expectedRemaining),
	).Scan(ctx, &updatedID)
	if err != nil {
		if isNoRows(err) {
			return regie.ErrCreditContended
		}
		return err
	}
	return nil
}

// ==================== Payment Store ====================

func (s *Store) GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Payment, error) {
	m := new(paymentModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", payID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, regie.ErrPaymentNotFound
		}
		return nil, err
	}
	return fromPaymentModel(m)
}

func (s *Store) ListPayments(ctx context.Context, regieID id.RegieID, opts payment.ListOpts) ([]*payment.Payment, error) {
	var models []paymentModel
	q := s.sdb.NewSelect(&models).Where("regie_id = ?", regieID.String())
	if opts.PayerExternalID != "" {
		q = q.Where("payer_external_id = ?", opts.PayerExternalID)
	}
	if opts.PaymentTypeSlug != "" {
		q = q.Where("payment_type = ?", opts.PaymentTypeSlug)
	}
	if opts.ActiveOnly {
		q = q.Where("cancelled = ?", false)
	}
	if !opts.Before.IsZero() {
		q = q.Where("created_at < ?", opts.Before)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	result := make([]*payment.Payment, len(models))
	for i := range models {
		p, err := fromPaymentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p *payment.Payment) error {
	m := toPaymentModel(p)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return regie.ErrPaymentNotFound
	}
	return nil
}

func (s *Store) InsertPayment(ctx context.Context, p *payment.Payment) error {
	_, err := s.sdb.NewInsert(toPaymentModel(p)).Exec(ctx)
	return err
}

func (s *Store) ListLinePaymentsByPayment(ctx context.Context, payID id.PaymentID) ([]*payment.InvoiceLinePayment, error) {
	return s.listLinePayments(ctx, "payment_id = ?", payID.String())
}

func (s *Store) ListLinePaymentsByInvoice(ctx context.Context, invID id.InvoiceID) ([]*payment.InvoiceLinePayment, error) {
	return s.listLinePayments(ctx, "invoice_id = ?", invID.String())
}

func (s *Store) listLinePayments(ctx context.Context, where, arg string) ([]*payment.InvoiceLinePayment, error) {
	var models []linePaymentModel
	err := s.sdb.NewSelect(&models).
		Where(where, arg).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*payment.InvoiceLinePayment, len(models))
	for i := range models {
		lp, err := fromLinePaymentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = lp
	}
	return result, nil
}

func (s *Store) InsertLinePayment(ctx context.Context, lp *payment.InvoiceLinePayment) error {
	_, err := s.sdb.NewInsert(toLinePaymentModel(lp)).Exec(ctx)
	return err
}

func (s *Store) DeleteLinePayment(ctx context.Context, lpID id.LinePaymentID) error {
	_, err := s.sdb.NewDelete((*linePaymentModel)(nil)).
		Where("id = ?", lpID.String()).
		Exec(ctx)
	return err
}

// ==================== Docket Store ====================

func (s *Store) CreateCollectionDocket(ctx context.Context, d *docket.CollectionDocket) error {
	r, err := s.GetRegie(ctx, d.RegieID)
	if err != nil {
		return err
	}
	n, err := s.NextNumber(ctx, d.RegieID, billing.KindCollectionDocket, d.CreatedAt)
	if err != nil {
		return err
	}
	d.Number = n
	d.FormattedNumber = billing.FormatNumber(billing.KindCollectionDocket, r.Seq, d.CreatedAt, n)
	_, err = s.sdb.NewInsert(toCollectionDocketModel(d)).Exec(ctx)
	return err
}

func (s *Store) GetCollectionDocket(ctx context.Context, docketID id.CollectionDocketID) (*docket.CollectionDocket, error) {
	m := new(collectionDocketModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", docketID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, regie.ErrDocketNotFound
		}
		return nil, err
	}
	return fromCollectionDocketModel(m)
}

func (s *Store) ListCollectionDockets(ctx context.Context, regieID id.RegieID) ([]*docket.CollectionDocket, error) {
	var models []collectionDocketModel
	err := s.sdb.NewSelect(&models).
		Where("regie_id = ?", regieID.String()).
		OrderExpr("number ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*docket.CollectionDocket, len(models))
	for i := range models {
		d, err := fromCollectionDocketModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = d
	}
	return result, nil
}

func (s *Store) UpdateCollectionDocket(ctx context.Context, d *docket.CollectionDocket) error {
	m := toCollectionDocketModel(d)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return regie.ErrDocketNotFound
	}
	return nil
}

func (s *Store) CreatePaymentDocket(ctx context.Context, d *docket.PaymentDocket) error {
	r, err := s.GetRegie(ctx, d.RegieID)
	if err != nil {
		return err
	}
	n, err := s.NextNumber(ctx, d.RegieID, billing.KindPaymentDocket, d.CreatedAt)
	if err != nil {
		return err
	}
	d.Number = n
	d.FormattedNumber = billing.FormatNumber(billing.KindPaymentDocket, r.Seq, d.CreatedAt, n)
	_, err = s.sdb.NewInsert(toPaymentDocketModel(d)).Exec(ctx)
	return err
}

func (s *Store) GetPaymentDocket(ctx context.Context, docketID id.PaymentDocketID) (*docket.PaymentDocket, error) {
	m := new(paymentDocketModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", docketID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, regie.ErrDocketNotFound
		}
		return nil, err
	}
	return fromPaymentDocketModel(m)
}

func (s *Store) ListPaymentDockets(ctx context.Context, regieID id.RegieID) ([]*docket.PaymentDocket, error) {
	var models []paymentDocketModel
	err := s.sdb.NewSelect(&models).
		Where("regie_id = ?", regieID.String()).
		OrderExpr("number ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*docket.PaymentDocket, len(models))
	for i := range models {
		d, err := fromPaymentDocketModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = d
	}
	return result, nil
}

func (s *Store) UpdatePaymentDocket(ctx context.Context, d *docket.PaymentDocket) error {
	m := toPaymentDocketModel(d)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return regie.ErrDocketNotFound
	}
	return nil
}

// ==================== Numbering ====================

// NextNumber atomically increments the (regie, kind, month) counter via
// an upsert and returns the allocated value.
func (s *Store) NextNumber(ctx context.Context, regieID id.RegieID, kind billing.Kind, at time.Time) (int64, error) {
	var n int64
	err := s.sdb.NewRaw(`
		INSERT INTO regie_counters (regie_id, kind, period, n)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (regie_id, kind, period) DO UPDATE SET n = n + 1
		RETURNING n
	`, regieID.String(), string(kind), billing.PeriodKey(at)).Scan(ctx, &n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", regie.ErrCounterConflict, err)
	}
	return n, nil
}

// ==================== Composite operations ====================

func (s *Store) FinalizeDraftInvoice(ctx context.Context, params store.FinalizeInvoiceParams) (*store.FinalizeInvoiceResult, error) {
	return compose.FinalizeDraftInvoice(ctx, s, params)
}

func (s *Store) FinalizeDraftCredit(ctx context.Context, params store.FinalizeCreditParams) (*store.FinalizeCreditResult, error) {
	return compose.FinalizeDraftCredit(ctx, s, params)
}

func (s *Store) AssignCredits(ctx context.Context, invID id.InvoiceID, at time.Time) (*store.AssignCreditsResult, error) {
	return compose.AssignCredits(ctx, s, invID, at)
}

func (s *Store) ApplyPayment(ctx context.Context, params store.ApplyPaymentParams) (*store.ApplyPaymentResult, error) {
	return compose.ApplyPayment(ctx, s, params)
}

func (s *Store) SyncCollectionDocket(ctx context.Context, docketID id.CollectionDocketID) (docket.Diff[id.InvoiceID], error) {
	return compose.SyncCollectionDocket(ctx, s, docketID)
}

func (s *Store) SyncPaymentDocket(ctx context.Context, docketID id.PaymentDocketID) (docket.Diff[id.PaymentID], error) {
	return compose.SyncPaymentDocket(ctx, s, docketID)
}

func (s *Store) CollectDocketPayments(ctx context.Context, docketID id.CollectionDocketID, at time.Time) (*store.CollectResult, error) {
	return compose.CollectDocketPayments(ctx, s, docketID, at)
}

func (s *Store) CancelInvoice(ctx context.Context, invID id.InvoiceID, c types.Cancellation) (*invoice.Invoice, error) {
	return compose.CancelInvoice(ctx, s, invID, c)
}

func (s *Store) CancelCredit(ctx context.Context, creditID id.CreditID, c types.Cancellation) (*credit.Credit, error) {
	return compose.CancelCredit(ctx, s, creditID, c)
}

func (s *Store) CancelPayment(ctx context.Context, payID id.PaymentID, c types.Cancellation) (*payment.Payment, error) {
	return compose.CancelPayment(ctx, s, payID, c)
}

func (s *Store) CancelCollectionDocket(ctx context.Context, docketID id.CollectionDocketID, c types.Cancellation) (*docket.CollectionDocket, error) {
	return compose.CancelCollectionDocket(ctx, s, docketID, c)
}

func (s *Store) CancelPaymentDocket(ctx context.Context, docketID id.PaymentDocketID, c types.Cancellation) (*docket.PaymentDocket, error) {
	return compose.CancelPaymentDocket(ctx, s, docketID, c)
}

func (s *Store) PropagateCampaignDates(ctx context.Context, c *campaign.Campaign) error {
	return compose.PropagateCampaignDates(ctx, s, c)
}
