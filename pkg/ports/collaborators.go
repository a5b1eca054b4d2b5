package ports

import (
	"context"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// LeadStore persists submitted leads and manages their scheduled bookings.
type LeadStore interface {
	// SaveLeads stores a batch. With SkipDuplicates false, a batch that overlaps existing
	// records is not saved and the duplicates are reported instead.
	SaveLeads(ctx context.Context, req domain.SaveLeadsRequest) (*domain.SaveLeadsResult, error)

	// CancelBookings cancels every scheduled booking of the given leads.
	CancelBookings(ctx context.Context, leadIDs []string) (*domain.CancelBookingsResult, error)
}

// CampaignService creates and starts campaigns from a finished onboarding.
type CampaignService interface {
	CreateCampaign(ctx context.Context, payload domain.CampaignPayload) (*domain.CreateCampaignResult, error)
	StartCampaign(ctx context.Context, campaignID string) (*domain.StartCampaignResult, error)
}
