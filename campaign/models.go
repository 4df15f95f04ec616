// Package campaign models billing campaigns and their pools. A campaign
// defines a billing period over a set of agendas; each run of a campaign
// is a pool that owns the draft or finalized documents it produced.
package campaign

import (
	"time"

	"github.com/billcore/regie/id"
	"github.com/billcore/regie/types"
)

type Campaign struct {
	types.Entity
	ID      id.CampaignID `json:"id"`
	RegieID id.RegieID    `json:"regie_id"`
	Label   string        `json:"label"`

	// Billed period. DateEnd is exclusive in storage; the overlap guard
	// treats ranges as inclusive of their last covered day.
	DateStart time.Time `json:"date_start"`
	DateEnd   time.Time `json:"date_end"`

	Agendas []string `json:"agendas"`

	DatePublication     time.Time `json:"date_publication"`
	DatePaymentDeadline time.Time `json:"date_payment_deadline"`
	DateDue             time.Time `json:"date_due"`
	DateDebit           time.Time `json:"date_debit"`

	// PrimaryCampaignID links a corrective campaign to the campaign it
	// adjusts. Nil for primary campaigns.
	PrimaryCampaignID id.CampaignID `json:"primary_campaign_id,omitempty"`

	Finalized bool `json:"finalized"`

	InvoiceModel string `json:"invoice_model,omitempty"`
}

// IsCorrective reports whether this campaign adjusts a primary campaign.
func (c *Campaign) IsCorrective() bool {
	return !c.PrimaryCampaignID.IsNil()
}

// Overlaps reports whether the billed periods of two campaigns intersect,
// treating both ranges as inclusive.
func (c *Campaign) Overlaps(other *Campaign) bool {
	return !c.DateStart.After(other.DateEnd) && !other.DateStart.After(c.DateEnd)
}

// SharesAgenda reports whether both campaigns cover at least one common
// agenda slug.
func (c *Campaign) SharesAgenda(other *Campaign) bool {
	for _, a := range c.Agendas {
		for _, b := range other.Agendas {
			if a == b {
				return true
			}
		}
	}
	return false
}

// CoversAgenda reports whether the campaign bills the given agenda.
func (c *Campaign) CoversAgenda(slug string) bool {
	for _, a := range c.Agendas {
		if a == slug {
			return true
		}
	}
	return false
}

// PoolStatus is the processing state of one campaign run.
type PoolStatus string

const (
	PoolRegistered PoolStatus = "registered"
	PoolRunning    PoolStatus = "running"
	PoolCompleted  PoolStatus = "completed"
	PoolFailed     PoolStatus = "failed"
)

type Pool struct {
	types.Entity
	ID          id.PoolID     `json:"id"`
	CampaignID  id.CampaignID `json:"campaign_id"`
	Draft       bool          `json:"draft"`
	Status      PoolStatus    `json:"status"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Processable reports whether a run job may pick up this pool. Only one
// job processes a pool at a time; a pool already running, completed or
// failed is rejected at the state-machine boundary.
func (p *Pool) Processable() bool {
	return p.Status == PoolRegistered
}

// AgendaUnlock records that one agenda of a finalized campaign was
// released for re-billing. The record always hangs off the primary
// campaign; creating a corrective campaign that covers the agenda again
// deactivates it.
type AgendaUnlock struct {
	types.Entity
	ID         id.AgendaUnlockID `json:"id"`
	CampaignID id.CampaignID     `json:"campaign_id"`
	AgendaSlug string            `json:"agenda_slug"`
	DateUnlock time.Time         `json:"date_unlock"`
	Active     bool              `json:"active"`
}
