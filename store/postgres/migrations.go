package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the billing store (PostgreSQL).
var Migrations = migrate.NewGroup("regie")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_regie_regies",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS regie_regies (
    id                       TEXT PRIMARY KEY,
    label                    TEXT NOT NULL DEFAULT '',
    slug                     TEXT NOT NULL DEFAULT '',
    seq                      INT NOT NULL DEFAULT 0,
    collection_min_threshold TEXT NOT NULL DEFAULT '0',
    payment_callback_url     TEXT NOT NULL DEFAULT '',
    cancel_callback_url      TEXT NOT NULL DEFAULT '',
    created_at               TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at               TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_regie_regies_slug ON regie_regies (slug);
CREATE UNIQUE INDEX IF NOT EXISTS idx_regie_regies_seq ON regie_regies (seq);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS regie_regies`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_regie_payment_types",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS regie_payment_types (
    id         TEXT PRIMARY KEY,
    regie_id   TEXT NOT NULL DEFAULT '',
    slug       TEXT NOT NULL DEFAULT '',
    label      TEXT NOT NULL DEFAULT '',
    disabled   BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_regie_payment_types_slug ON regie_payment_types (regie_id, slug);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS regie_payment_types`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_regie_campaigns",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS regie_campaigns (
    id                    TEXT PRIMARY KEY,
    regie_id              TEXT NOT NULL DEFAULT '',
    label                 TEXT NOT NULL DEFAULT '',
    date_start            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    date_end              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    agendas               JSONB NOT NULL DEFAULT '[]',
    date_publication      TIMESTAMPTZ,
    date_payment_deadline TIMESTAMPTZ,
    date_due              TIMESTAMPTZ,
    date_debit            TIMESTAMPTZ,
    primary_campaign_id   TEXT NOT NULL DEFAULT '',
    finalized             BOOLEAN NOT NULL DEFAULT FALSE,
    invoice_model         TEXT NOT NULL DEFAULT '',
    created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_regie_campaigns_regie ON regie_campaigns (regie_id);
CREATE INDEX IF NOT EXISTS idx_regie_campaigns_primary ON regie_campaigns (primary_campaign_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS regie_campaigns`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_regie_pools",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS regie_pools (
    id           TEXT PRIMARY KEY,
    campaign_id  TEXT NOT NULL DEFAULT '',
    draft        BOOLEAN NOT NULL DEFAULT TRUE,
    status       TEXT NOT NULL DEFAULT 'registered',
    completed_at TIMESTAMPTZ,
    error        TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_regie_pools_campaign ON regie_pools (campaign_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS regie_pools`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_regie_draft_invoices",
			Version: "20240101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS regie_draft_invoices (
    id                    TEXT PRIMARY KEY,
    regie_id              TEXT NOT NULL DEFAULT '',
    pool_id               TEXT NOT NULL DEFAULT '',
    label                 TEXT NOT NULL DEFAULT '',
    payer                 JSONB NOT NULL DEFAULT '{}',
    payer_external_id     TEXT NOT NULL DEFAULT '',
    total_amount          TEXT NOT NULL DEFAULT '0',
    date_publication      TIMESTAMPTZ,
    date_payment_deadline TIMESTAMPTZ,
    date_due              TIMESTAMPTZ,
    date_debit            TIMESTAMPTZ,
    previous_invoice_id   TEXT NOT NULL DEFAULT '',
    lines                 JSONB NOT NULL DEFAULT '[]',
    created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_regie_draft_invoices_regie ON regie_draft_invoices (regie_id);
CREATE INDEX IF NOT EXISTS idx_regie_draft_invoices_pool ON regie_draft_invoices (pool_id);
CREATE INDEX IF NOT EXISTS idx_regie_draft_invoices_payer ON regie_draft_invoices (regie_id, payer_external_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS regie_draft_invoices`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_regie_invoices",
			Version: "20240101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS regie_invoices (
    id                    TEXT PRIMARY KEY,
    regie_id              TEXT NOT NULL DEFAULT '',
    pool_id               TEXT NOT NULL DEFAULT '',
    label                 TEXT NOT NULL DEFAULT '',
    payer                 JSONB NOT NULL DEFAULT '{}',
    payer_external_id     TEXT NOT NULL DEFAULT '',
    number                BIGINT NOT NULL DEFAULT 0,
    formatted_number      TEXT NOT NULL DEFAULT '',
    total_amount          TEXT NOT NULL DEFAULT '0',
    paid_amount           TEXT NOT NULL DEFAULT '0',
    remaining_amount      TEXT NOT NULL DEFAULT '0',
    date_publication      TIMESTAMPTZ,
    date_payment_deadline TIMESTAMPTZ,
    date_due              TIMESTAMPTZ,
    date_debit            TIMESTAMPTZ,
    previous_invoice_id   TEXT NOT NULL DEFAULT '',
    collection_docket_id  TEXT NOT NULL DEFAULT '',
    cancelled             BOOLEAN NOT NULL DEFAULT FALSE,
    state                 JSONB NOT NULL DEFAULT '{}',
    lines                 JSONB NOT NULL DEFAULT '[]',
    created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_regie_invoices_number ON regie_invoices (formatted_number);
CREATE INDEX IF NOT EXISTS idx_regie_invoices_regie ON regie_invoices (regie_id);
CREATE INDEX IF NOT EXISTS idx_regie_invoices_pool ON regie_invoices (pool_id);
CREATE INDEX IF NOT EXISTS idx_regie_invoices_payer ON regie_invoices (regie_id, payer_external_id);
CREATE INDEX IF NOT EXISTS idx_regie_invoices_docket ON regie_invoices (collection_docket_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS regie_invoices`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_regie_draft_credits",
			Version: "20240101000007",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS regie_draft_credits (
    id                TEXT PRIMARY KEY,
    regie_id          TEXT NOT NULL DEFAULT '',
    pool_id           TEXT NOT NULL DEFAULT '',
    label             TEXT NOT NULL DEFAULT '',
    payer             JSONB NOT NULL DEFAULT '{}',
    payer_external_id TEXT NOT NULL DEFAULT '',
    total_amount      TEXT NOT NULL DEFAULT '0',
    date_publication  TIMESTAMPTZ,
    lines             JSONB NOT NULL DEFAULT '[]',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_regie_draft_credits_regie ON regie_draft_credits (regie_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS regie_draft_credits`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_regie_credits",
			Version: "20240101000008",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS regie_credits (
    id                TEXT PRIMARY KEY,
    regie_id          TEXT NOT NULL DEFAULT '',
    pool_id           TEXT NOT NULL DEFAULT '',
    label             TEXT NOT NULL DEFAULT '',
    payer             JSONB NOT NULL DEFAULT '{}',
    payer_external_id TEXT NOT NULL DEFAULT '',
    number            BIGINT NOT NULL DEFAULT 0,
    formatted_number  TEXT NOT NULL DEFAULT '',
    total_amount      TEXT NOT NULL DEFAULT '0',
    assigned_amount   TEXT NOT NULL DEFAULT '0',
    remaining_amount  TEXT NOT NULL DEFAULT '0',
    date_publication  TIMESTAMPTZ,
    usable            BOOLEAN NOT NULL DEFAULT TRUE,
    cancelled         BOOLEAN NOT NULL DEFAULT FALSE,
    state             JSONB NOT NULL DEFAULT '{}',
    lines             JSONB NOT NULL DEFAULT '[]',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_regie_credits_number ON regie_credits (formatted_number);
CREATE INDEX IF NOT EXISTS idx_regie_credits_payer ON regie_credits (regie_id, payer_external_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS regie_credits`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_regie_payments",
			Version: "20240101000009",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS regie_payments (
    id                TEXT PRIMARY KEY,
    regie_id          TEXT NOT NULL DEFAULT '',
    number            BIGINT NOT NULL DEFAULT 0,
    formatted_number  TEXT NOT NULL DEFAULT '',
    amount            TEXT NOT NULL DEFAULT '0',
    payment_type      TEXT NOT NULL DEFAULT '',
    payer             JSONB NOT NULL DEFAULT '{}',
    payer_external_id TEXT NOT NULL DEFAULT '',
    docket_id         TEXT NOT NULL DEFAULT '',
    cancelled         BOOLEAN NOT NULL DEFAULT FALSE,
    state             JSONB NOT NULL DEFAULT '{}',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_regie_payments_number ON regie_payments (formatted_number);
CREATE INDEX IF NOT EXISTS idx_regie_payments_regie ON regie_payments (regie_id);
CREATE INDEX IF NOT EXISTS idx_regie_payments_docket ON regie_payments (docket_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS regie_payments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_regie_line_payments",
			Version: "20240101000010",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS regie_line_payments (
    id         TEXT PRIMARY KEY,
    payment_id TEXT NOT NULL DEFAULT '',
    invoice_id TEXT NOT NULL DEFAULT '',
    line_id    TEXT NOT NULL DEFAULT '',
    amount     TEXT NOT NULL DEFAULT '0',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_regie_line_payments_payment ON regie_line_payments (payment_id);
CREATE INDEX IF NOT EXISTS idx_regie_line_payments_invoice ON regie_line_payments (invoice_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS regie_line_payments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_regie_assignments",
			Version: "20240101000011",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS regie_assignments (
    id         TEXT PRIMARY KEY,
    regie_id   TEXT NOT NULL DEFAULT '',
    credit_id  TEXT NOT NULL DEFAULT '',
    invoice_id TEXT NOT NULL DEFAULT '',
    payment_id TEXT NOT NULL DEFAULT '',
    amount     TEXT NOT NULL DEFAULT '0',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_regie_assignments_credit ON regie_assignments (credit_id);
CREATE INDEX IF NOT EXISTS idx_regie_assignments_invoice ON regie_assignments (invoice_id);
CREATE INDEX IF NOT EXISTS idx_regie_assignments_payment ON regie_assignments (payment_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS regie_assignments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_regie_collection_dockets",
			Version: "20240101000012",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS regie_collection_dockets (
    id                TEXT PRIMARY KEY,
    regie_id          TEXT NOT NULL DEFAULT '',
    label             TEXT NOT NULL DEFAULT '',
    number            BIGINT NOT NULL DEFAULT 0,
    formatted_number  TEXT NOT NULL DEFAULT '',
    date_end          TIMESTAMPTZ,
    minimum_threshold TEXT NOT NULL DEFAULT '0',
    cancelled         BOOLEAN NOT NULL DEFAULT FALSE,
    state             JSONB NOT NULL DEFAULT '{}',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_regie_collection_dockets_regie ON regie_collection_dockets (regie_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS regie_collection_dockets`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_regie_payment_dockets",
			Version: "20240101000013",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS regie_payment_dockets (
    id               TEXT PRIMARY KEY,
    regie_id         TEXT NOT NULL DEFAULT '',
    label            TEXT NOT NULL DEFAULT '',
    number           BIGINT NOT NULL DEFAULT 0,
    formatted_number TEXT NOT NULL DEFAULT '',
    date_end         TIMESTAMPTZ,
    payment_types    JSONB NOT NULL DEFAULT '[]',
    cancelled        BOOLEAN NOT NULL DEFAULT FALSE,
    state            JSONB NOT NULL DEFAULT '{}',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_regie_payment_dockets_regie ON regie_payment_dockets (regie_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS regie_payment_dockets`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_regie_counters",
			Version: "20240101000014",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS regie_counters (
    regie_id TEXT NOT NULL,
    kind     TEXT NOT NULL,
    period   TEXT NOT NULL,
    n        BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (regie_id, kind, period)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS regie_counters`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_regie_agenda_unlocks",
			Version: "20240101000015",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS regie_agenda_unlocks (
    id          TEXT PRIMARY KEY,
    campaign_id TEXT NOT NULL DEFAULT '',
    agenda_slug TEXT NOT NULL DEFAULT '',
    date_unlock TIMESTAMPTZ,
    active      BOOLEAN NOT NULL DEFAULT TRUE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_regie_agenda_unlocks_campaign ON regie_agenda_unlocks (campaign_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS regie_agenda_unlocks`)
				return err
			},
		},
	)
}
