package runtime

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/options"
	"github.com/techiemaya-admin/lad-onboarding/pkg/ports"
	"github.com/techiemaya-admin/lad-onboarding/pkg/workflow"
)

// delegate hands a reply the controller cannot interpret to the generation service and
// merges the answer into s as an assistant turn.
func (e *Engine) delegate(ctx context.Context, s *domain.Session, text string) (*ports.GenerateResponse, error) {
	if e.generator == nil {
		return nil, fmt.Errorf("generation service: %w", domain.ErrNotConfigured)
	}
	req := e.request(s, text)

	if e.hooks.OnDelegate != nil {
		e.hooks.OnDelegate(ctx, &domain.DelegateEvent{
			EventBase: e.event(domain.EventDelegate, s.ID),
			State:     s.State,
		})
	}
	start := time.Now()
	resp, err := e.generator.Generate(ctx, req)
	if e.hooks.OnDelegateReturn != nil {
		e.hooks.OnDelegateReturn(ctx, &domain.DelegateEvent{
			EventBase: e.event(domain.EventDelegateReturn, s.ID),
			State:     s.State,
			Duration:  time.Since(start),
			IsError:   err != nil,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("generation service failed: %w", err)
	}
	if resp == nil {
		return nil, errors.New("generation service returned no response")
	}

	e.merge(ctx, s, resp, req.QuestionKey)
	return resp, nil
}

func (e *Engine) request(s *domain.Session, text string) ports.GenerateRequest {
	history := s.Turns
	if n := len(history); n > 0 && history[n-1].Role == domain.RoleUser {
		history = history[:n-1]
	}
	features := make(map[string][]string, len(s.Features))
	for k, v := range s.Features {
		features[k] = slices.Clone(v)
	}
	return ports.GenerateRequest{
		Message:             text,
		ConversationHistory: slices.Clone(history),
		QuestionKey:         lastQuestionKey(s),
		SelectedPath:        s.Path,
		Context: ports.GenerateContext{
			SelectedPath:       s.Path,
			SelectedCategory:   s.Category,
			SelectedPlatforms:  slices.Clone(s.Platforms),
			PlatformsConfirmed: s.PlatformsConfirmed,
			PlatformFeatures:   features,
			CurrentPlatform:    s.CurrentPlatform(),
			CurrentFeature:     s.CurrentFeature(),
			WorkflowNodes:      slices.Clone(s.Workflow.Nodes),
			CurrentFlowState:   s.State,
			FastMode:           e.fastMode,
		},
	}
}

// merge turns a generation response into an assistant turn. Explicit options win over
// options parsed from the text. A suggested graph is kept only when it is well formed.
func (e *Engine) merge(ctx context.Context, s *domain.Session, resp *ports.GenerateResponse, questionKey string) {
	hints := &domain.Hints{
		QuestionKey:   questionKey,
		Status:        resp.Status,
		Missing:       slices.Clone(resp.Missing),
		SearchResults: resp.SearchResults,
	}
	text := resp.Text
	if choices := options.Normalize(resp.Options); len(choices) > 0 {
		hints.Options = &domain.OptionSet{Kind: domain.OptionSingleSelect, Choices: choices}
	} else if e.classifier.Classify(text) == options.CategoryOptions {
		hints.Options = options.Parse(text)
		if stripped := options.Strip(text); stripped != "" {
			text = stripped
		}
	}
	if resp.Workflow != nil {
		if err := workflow.Validate(*resp.Workflow); err != nil {
			e.logger.WarnContext(ctx, "Ignoring invalid suggested workflow", "session_id", s.ID, "err", err)
		} else {
			wf := resp.Workflow.Clone()
			hints.Workflow = &wf
		}
	}
	if len(resp.WorkflowUpdates) > 0 {
		e.applyUpdates(ctx, s, resp.WorkflowUpdates)
	}
	e.say(s, text, hints)
}

// applyUpdates merges answer updates from the generation service as if they had been
// captured locally.
func (e *Engine) applyUpdates(ctx context.Context, s *domain.Session, updates map[string][]string) {
	for _, key := range slices.Sorted(maps.Keys(updates)) {
		values := options.Normalize(updates[key])
		switch {
		case key == domain.KeyPlatforms:
			var ids []string
			for _, v := range values {
				if _, ok := e.catalog.Platform(v); ok {
					ids = append(ids, v)
					continue
				}
				ids = append(ids, e.catalog.MatchPlatforms(v)...)
			}
			e.addPlatforms(s, ids)
		case strings.HasSuffix(key, ".features") && strings.Count(key, ".") == 1:
			e.applyFeatures(ctx, s, strings.TrimSuffix(key, ".features"), values)
		case key == domain.KeyInboundLeadsPerDay:
			s.Inbound.LeadsPerDay = positiveInt(first(values), defaultLeadsPerDay)
			s.Answers.Set(key, []string{strconv.Itoa(s.Inbound.LeadsPerDay)})
		case key == domain.KeyInboundDays:
			s.Inbound.CampaignDays = positiveInt(first(values), defaultCampaignDays)
			s.Answers.Set(key, []string{strconv.Itoa(s.Inbound.CampaignDays)})
		case key == domain.KeyInboundName:
			s.Inbound.CampaignName = first(values)
			s.Answers.Set(key, values)
		default:
			if e.knownUtilityKey(key) {
				s.Answers.Set(key, values)
				continue
			}
			e.logger.WarnContext(ctx, "Ignoring unknown answer update", "session_id", s.ID, "key", key)
		}
	}
}

func (e *Engine) applyFeatures(ctx context.Context, s *domain.Session, platform string, values []string) {
	p, ok := e.catalog.Platform(platform)
	if !ok {
		e.logger.WarnContext(ctx, "Ignoring features of unknown platform", "session_id", s.ID, "platform", platform)
		return
	}
	var ids []string
	for _, v := range values {
		if id, ok := p.MatchFeature(v); ok {
			ids = append(ids, id)
		}
	}
	sel, err := e.reselect(p, s.Features[p.ID], ids)
	if err != nil {
		e.logger.WarnContext(ctx, "Ignoring feature update", "session_id", s.ID, "platform", platform, "err", err)
		return
	}
	selected := sel.selected
	s.AddPlatform(p.ID)
	s.Answers.Set(domain.KeyPlatforms, s.Platforms)
	s.Features[p.ID] = selected
	s.Answers.Set(domain.FeaturesKey(p.ID), selected)
}

func (e *Engine) knownUtilityKey(key string) bool {
	pid, fid, u, ok := domain.SplitUtilityKey(key)
	if !ok {
		return false
	}
	switch u {
	case domain.UtilityDelay, domain.UtilityCondition, domain.UtilityOnFalse, domain.UtilityTemplate:
	default:
		return false
	}
	p, ok := e.catalog.Platform(pid)
	return ok && p.Known(fid)
}
