package campaign

import (
	"context"

	"github.com/billcore/regie/id"
)

type Store interface {
	CreateCampaign(ctx context.Context, c *Campaign) error
	GetCampaign(ctx context.Context, campaignID id.CampaignID) (*Campaign, error)
	ListCampaigns(ctx context.Context, regieID id.RegieID) ([]*Campaign, error)
	UpdateCampaign(ctx context.Context, c *Campaign) error

	// ListCorrectives returns the corrective campaigns of a primary
	// campaign, oldest first.
	ListCorrectives(ctx context.Context, primaryID id.CampaignID) ([]*Campaign, error)

	CreatePool(ctx context.Context, p *Pool) error
	GetPool(ctx context.Context, poolID id.PoolID) (*Pool, error)
	ListPools(ctx context.Context, campaignID id.CampaignID) ([]*Pool, error)
	UpdatePool(ctx context.Context, p *Pool) error

	// LatestPool returns the most recently created pool of a campaign,
	// or nil when the campaign has no pools yet.
	LatestPool(ctx context.Context, campaignID id.CampaignID) (*Pool, error)

	CreateAgendaUnlock(ctx context.Context, u *AgendaUnlock) error
	// ListAgendaUnlocks returns a campaign's unlock records, active and
	// spent alike, oldest first.
	ListAgendaUnlocks(ctx context.Context, campaignID id.CampaignID) ([]*AgendaUnlock, error)
	UpdateAgendaUnlock(ctx context.Context, u *AgendaUnlock) error
}
