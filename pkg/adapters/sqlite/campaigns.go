package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/ports"
)

var _ ports.CampaignService = (*Store)(nil)

// ErrCampaignNotFound is returned when starting or reading an unknown campaign.
var ErrCampaignNotFound = errors.New("campaign not found")

// Campaign statuses.
const (
	CampaignDraft  = "draft"
	CampaignActive = "active"
)

// Campaign is a stored campaign.
type Campaign struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Status    string                 `json:"status"`
	Payload   domain.CampaignPayload `json:"payload"`
	CreatedAt string                 `json:"created_at"`
	StartedAt string                 `json:"started_at,omitempty"`
}

// CreateCampaign implements ports.CampaignService.
func (s *Store) CreateCampaign(ctx context.Context, payload domain.CampaignPayload) (*domain.CreateCampaignResult, error) {
	if payload.Name == "" {
		return nil, errors.New("campaign name is required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode campaign payload: %w", err)
	}
	id := s.newID()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO campaigns (id, name, payload, status, created_at) VALUES (?, ?, ?, ?, ?)",
		id, payload.Name, string(raw), CampaignDraft, s.timestamp())
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	s.logger.InfoContext(ctx, "Campaign created", "campaign_id", id, "steps", len(payload.Steps))
	return &domain.CreateCampaignResult{Success: true, Data: domain.CampaignRef{ID: id}}, nil
}

// StartCampaign implements ports.CampaignService. Starting an active campaign is a no-op.
func (s *Store) StartCampaign(ctx context.Context, campaignID string) (*domain.StartCampaignResult, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE campaigns SET status = ?, started_at = COALESCE(started_at, ?) WHERE id = ?",
		CampaignActive, s.timestamp(), campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to start campaign: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCampaignNotFound, campaignID)
	}
	s.logger.InfoContext(ctx, "Campaign started", "campaign_id", campaignID)
	return &domain.StartCampaignResult{Success: true}, nil
}

// Campaign loads a stored campaign.
func (s *Store) Campaign(ctx context.Context, id string) (*Campaign, error) {
	var c Campaign
	var raw string
	var started sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, payload, status, created_at, started_at FROM campaigns WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &raw, &c.Status, &c.CreatedAt, &started)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCampaignNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	c.StartedAt = started.String
	if err := json.Unmarshal([]byte(raw), &c.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode campaign payload: %w", err)
	}
	return &c, nil
}
