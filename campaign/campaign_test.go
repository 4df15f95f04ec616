package campaign_test

import (
	"testing"
	"time"

	"github.com/billcore/regie/campaign"
	"github.com/billcore/regie/id"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validCampaign() *campaign.Campaign {
	return &campaign.Campaign{
		ID:                  id.NewCampaignID(),
		RegieID:             id.NewRegieID(),
		Label:               "November 2024",
		DateStart:           day(2024, 11, 1),
		DateEnd:             day(2024, 12, 1),
		Agendas:             []string{"school-lunch"},
		DatePublication:     day(2024, 12, 2),
		DatePaymentDeadline: day(2024, 12, 15),
		DateDue:             day(2024, 12, 31),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*campaign.Campaign)
		ok     bool
	}{
		{"valid", func(c *campaign.Campaign) {}, true},
		{"end before start", func(c *campaign.Campaign) { c.DateEnd = day(2024, 10, 1) }, false},
		{"end equals start", func(c *campaign.Campaign) { c.DateEnd = c.DateStart }, false},
		{"deadline before publication", func(c *campaign.Campaign) { c.DatePaymentDeadline = day(2024, 12, 1) }, false},
		{"due before deadline", func(c *campaign.Campaign) { c.DateDue = day(2024, 12, 10) }, false},
		{"no agendas", func(c *campaign.Campaign) { c.Agendas = nil }, false},
		{"publication equals deadline", func(c *campaign.Campaign) { c.DatePublication = c.DatePaymentDeadline }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCampaign()
			tt.mutate(c)
			err := c.Validate()
			if tt.ok != (err == nil) {
				t.Errorf("Validate() = %v, want ok = %v", err, tt.ok)
			}
		})
	}
}

func TestCheckOverlap(t *testing.T) {
	base := validCampaign()

	overlapping := validCampaign()
	overlapping.Label = "Mid-November"
	overlapping.DateStart = day(2024, 11, 15)
	overlapping.DateEnd = day(2024, 12, 15)

	disjoint := validCampaign()
	disjoint.Label = "October"
	disjoint.DateStart = day(2024, 10, 1)
	disjoint.DateEnd = day(2024, 10, 31)

	otherAgenda := validCampaign()
	otherAgenda.Label = "Sports"
	otherAgenda.Agendas = []string{"sports-club"}

	touching := validCampaign()
	touching.Label = "December"
	touching.DateStart = day(2024, 12, 1)
	touching.DateEnd = day(2024, 12, 31)

	if err := base.CheckOverlap([]*campaign.Campaign{disjoint, otherAgenda}); err != nil {
		t.Errorf("disjoint/other-agenda siblings must not conflict: %v", err)
	}
	if err := base.CheckOverlap([]*campaign.Campaign{overlapping}); err == nil {
		t.Error("expected overlap error for intersecting period on shared agenda")
	}
	// Inclusive ranges: sharing a single boundary day counts as overlap.
	if err := base.CheckOverlap([]*campaign.Campaign{touching}); err == nil {
		t.Error("expected overlap error for ranges sharing the boundary day")
	}
}

func TestCheckOverlapCorrectiveExemption(t *testing.T) {
	primary := validCampaign()

	corrective := validCampaign()
	corrective.PrimaryCampaignID = primary.ID
	corrective.InheritFrom(primary)

	if err := corrective.CheckOverlap([]*campaign.Campaign{primary}); err != nil {
		t.Errorf("corrective campaign must be allowed to re-cover its primary: %v", err)
	}

	earlier := validCampaign()
	earlier.PrimaryCampaignID = primary.ID
	earlier.InheritFrom(primary)
	if err := corrective.CheckOverlap([]*campaign.Campaign{earlier}); err != nil {
		t.Errorf("correctives of the same primary must not conflict: %v", err)
	}
}

func TestInheritFrom(t *testing.T) {
	primary := validCampaign()
	primary.InvoiceModel = "full"

	corrective := &campaign.Campaign{ID: id.NewCampaignID(), PrimaryCampaignID: primary.ID}
	corrective.InheritFrom(primary)

	if corrective.Label != primary.Label {
		t.Errorf("Label = %q, want %q", corrective.Label, primary.Label)
	}
	if !corrective.DateStart.Equal(primary.DateStart) || !corrective.DateEnd.Equal(primary.DateEnd) {
		t.Error("corrective must inherit the billed period")
	}
	if corrective.InvoiceModel != "full" {
		t.Errorf("InvoiceModel = %q, want full", corrective.InvoiceModel)
	}
	if !corrective.IsCorrective() {
		t.Error("IsCorrective should be true")
	}

	// Inherited agendas are a copy, not a shared slice.
	corrective.Agendas[0] = "changed"
	if primary.Agendas[0] == "changed" {
		t.Error("InheritFrom must copy the agenda slice")
	}
}

func TestPoolProcessable(t *testing.T) {
	tests := []struct {
		status campaign.PoolStatus
		want   bool
	}{
		{campaign.PoolRegistered, true},
		{campaign.PoolRunning, false},
		{campaign.PoolCompleted, false},
		{campaign.PoolFailed, false},
	}

	for _, tt := range tests {
		p := &campaign.Pool{Status: tt.status}
		if got := p.Processable(); got != tt.want {
			t.Errorf("Processable(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
