package runtime

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/techiemaya-admin/lad-onboarding/pkg/deps"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/workflow"
)

// Payload builds the campaign payload from a session's answers and full graph.
func (e *Engine) Payload(s *domain.Session) domain.CampaignPayload {
	wf := e.assembler.Regenerate(s.Answers, -1)

	leadsPerDay := s.Inbound.LeadsPerDay
	if leadsPerDay <= 0 {
		leadsPerDay = defaultLeadsPerDay
	}
	msg := e.connectionMessage(s)
	return domain.CampaignPayload{
		Name:              e.campaignName(s),
		LeadsPerDay:       leadsPerDay,
		CampaignDays:      s.Inbound.CampaignDays,
		ConnectionMessage: msg,
		Platforms:         slices.Clone(s.Answers.Get(domain.KeyPlatforms)),
		Steps:             workflow.Linearize(wf),
		Workflow:          wf,
	}
}

// connectionMessage returns the first template answered for a selected feature, in
// platform then feature order, or the default message.
func (e *Engine) connectionMessage(s *domain.Session) string {
	for _, pid := range s.Platforms {
		p, ok := e.catalog.Platform(pid)
		if !ok {
			continue
		}
		for _, fid := range p.SortByOrder(s.Features[pid]) {
			f, ok := p.Feature(fid)
			if !ok || !deps.NeedsTemplate(f.Label) {
				continue
			}
			if msg := s.Answers.First(domain.UtilityKey(pid, fid, domain.UtilityTemplate)); msg != "" {
				return msg
			}
		}
	}
	return defaultConnectionMessage
}

// Launch creates and starts the campaign of a completed session. A failure is terminal:
// the returned session carries a message pointing at the Campaigns view together with
// ErrLaunchFailed, and later launches return s unchanged with ErrLaunchFailed.
func (e *Engine) Launch(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	if s.State != domain.StateComplete {
		return nil, domain.ErrNotComplete
	}
	if s.Launched {
		return s, nil
	}
	if s.LaunchFailed {
		return s, fmt.Errorf("%w: campaign %q was not started", domain.ErrLaunchFailed, s.CampaignID)
	}
	if e.campaigns == nil {
		return nil, fmt.Errorf("campaign service: %w", domain.ErrNotConfigured)
	}
	next := s.Snapshot()
	err := e.launch(ctx, next)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	next.UpdatedAt = e.now().UTC()
	return next, err
}

func (e *Engine) launch(ctx context.Context, s *domain.Session) error {
	payload := e.Payload(s)

	created, err := e.campaigns.CreateCampaign(ctx, payload)
	if err == nil && (created == nil || !created.Success || created.Data.ID == "") {
		err = errors.New("campaign was not created")
	}
	if err != nil {
		return e.launchFailed(ctx, s, fmt.Errorf("creating campaign: %w", err))
	}
	s.CampaignID = created.Data.ID

	started, err := e.campaigns.StartCampaign(ctx, created.Data.ID)
	if err == nil && (started == nil || !started.Success) {
		err = errors.New("campaign was not started")
	}
	if err != nil {
		return e.launchFailed(ctx, s, fmt.Errorf("starting campaign %s: %w", created.Data.ID, err))
	}

	s.Launched = true
	e.say(s, fmt.Sprintf(msgLaunched, payload.Name), &domain.Hints{Status: domain.StatusReady})
	e.logger.InfoContext(ctx, "Campaign launched", "session_id", s.ID, "campaign_id", s.CampaignID)
	return nil
}

func (e *Engine) launchFailed(ctx context.Context, s *domain.Session, err error) error {
	e.logger.ErrorContext(ctx, "Campaign launch failed", "session_id", s.ID, "campaign_id", s.CampaignID, "err", err)
	s.LaunchFailed = true
	e.say(s, msgLaunchFailed, nil)
	return fmt.Errorf("%w: %w", domain.ErrLaunchFailed, err)
}
