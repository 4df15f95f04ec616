package campaign

import (
	"errors"
	"fmt"
)

var (
	errEndBeforeStart  = errors.New("campaign: date_end must be after date_start")
	errBadDateOrdering = errors.New("campaign: publication, payment deadline and due dates must be ordered")
	errNoAgendas       = errors.New("campaign: at least one agenda is required")
)

// Validate checks the campaign's own date and agenda constraints. Overlap
// against sibling campaigns is checked separately because it needs the
// store.
func (c *Campaign) Validate() error {
	if len(c.Agendas) == 0 {
		return errNoAgendas
	}
	if !c.DateEnd.After(c.DateStart) {
		return errEndBeforeStart
	}
	if c.DatePaymentDeadline.Before(c.DatePublication) || c.DateDue.Before(c.DatePaymentDeadline) {
		return errBadDateOrdering
	}
	return nil
}

// CheckOverlap returns an error naming the first sibling campaign whose
// inclusive billed period intersects c on a shared agenda. Corrective
// campaigns are exempt against their own primary chain: a corrective run
// deliberately re-covers its primary's period.
func (c *Campaign) CheckOverlap(siblings []*Campaign) error {
	for _, other := range siblings {
		if other.ID == c.ID {
			continue
		}
		if c.IsCorrective() && (other.ID == c.PrimaryCampaignID || other.PrimaryCampaignID == c.PrimaryCampaignID) {
			continue
		}
		if other.IsCorrective() && other.PrimaryCampaignID == c.ID {
			continue
		}
		if c.Overlaps(other) && c.SharesAgenda(other) {
			return fmt.Errorf("campaign: dates overlap campaign %q on a shared agenda", other.Label)
		}
	}
	return nil
}

// InheritFrom copies the fields a corrective campaign takes over from its
// primary campaign or from the latest prior corrective run.
func (c *Campaign) InheritFrom(parent *Campaign) {
	c.Label = parent.Label
	c.DateStart = parent.DateStart
	c.DateEnd = parent.DateEnd
	c.Agendas = append([]string(nil), parent.Agendas...)
	c.InvoiceModel = parent.InvoiceModel
}
