// Package regie provides an embeddable billing and reconciliation engine
// for public-sector billing units.
//
// Regie is designed as a library, not a service. Import it directly into
// your Go application and drive it from your own jobs and handlers. It
// provides:
//
//   - Campaign-driven draft generation with line aggregation
//   - Exactly-once sequential document numbering per billing unit
//   - Deterministic two-pass payment allocation with line netting
//   - Oldest-first credit assignment onto open invoices
//   - Collection and payment dockets with idempotent membership sync
//   - Terminal cancellation with a full audit trail
//   - Pluggable post-commit hooks via the plugin registry
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    regie "github.com/billcore/regie"
//	    "github.com/billcore/regie/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create engine
//	e := regie.New(store)
//
//	// Start the engine (runs store migrations, initializes plugins)
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
// # Core Concepts
//
// A regie is an isolated billing unit. Each regie owns its own payment
// types and numbering sequences; documents never cross regies:
//
//	r := &billing.Regie{Label: "Sports department", Slug: "sports"}
//	err := e.CreateRegie(ctx, r)
//
// Campaigns define a billed period over a set of agendas. Each run of a
// campaign is a pool, and a pool owns the drafts it generated:
//
//	pool, err := e.CreatePool(ctx, campaignID)
//	pool, err = e.StartPool(ctx, pool.ID)
//	drafts, err := e.GenerateDraftDocuments(ctx, pool.ID, seeds)
//	pool, err = e.CompletePool(ctx, pool.ID)
//
// Promoting a pool turns its drafts into numbered, immutable documents.
// Drafts whose lines sum negative become credits instead of invoices:
//
//	result, err := e.FinalizePool(ctx, pool.ID)
//
// Payments allocate across invoice lines with netting: negative lines are
// offset first, then positive lines are settled in order:
//
//	res, err := e.RegisterPayment(ctx, regie.RegisterPaymentInput{
//	    RegieID:         r.ID,
//	    InvoiceIDs:      []id.InvoiceID{invID},
//	    Amount:          regie.MustAmount("42"),
//	    PaymentTypeSlug: "check",
//	})
//
// # Numbering
//
// Formatted numbers are gapless per (regie, kind, month) and bit-exact:
// invoice #1 of regie 2 in November 2024 is "F02-24-11-0000001". Invoices
// use kind F, credits A, payments R, dockets T and B. A draft promoted to
// a credit consumes no invoice number.
//
// # Amounts
//
// All monetary values use exact decimal arithmetic via the Amount type.
// There is no float anywhere in a financial path; stores persist amounts
// as exact decimal strings.
//
// # Stores
//
// Three store implementations ship with the engine:
//
//   - store/memory: mutex-guarded maps, for tests and prototyping
//   - store/sqlite: embedded single-file deployments
//   - store/postgres: production deployments
//
// All three satisfy the same store.Store contract and pass the same
// behavior: tests written against memory hold against SQL.
package regie
