package runtime

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

var pathChoices = []string{labelLeadGeneration, labelInbound, labelAutomation, labelProfiling}

func (e *Engine) askPath(s *domain.Session, text string) {
	e.ask(s, text, questionPath, domain.OptionSingleSelect, slices.Clone(pathChoices))
}

func (e *Engine) onInitial(ctx context.Context, s *domain.Session, cls Classification, text string) error {
	switch {
	case cls.Intent == IntentPath:
		return e.choosePath(ctx, s, cls)
	case len(cls.Platforms) > 0:
		s.Path = domain.PathLeadGeneration
		s.Category = string(domain.PathLeadGeneration)
		e.addPlatforms(s, cls.Platforms)
		s.State = domain.StatePlatformConfirmation
		e.confirmPlatforms(s, "")
		return nil
	}
	_, err := e.delegate(ctx, s, text)
	return err
}

func (e *Engine) choosePath(ctx context.Context, s *domain.Session, cls Classification) error {
	s.Path = cls.Path
	s.Category = string(cls.Path)
	switch cls.Path {
	case domain.PathLeadGeneration:
		s.DataMode = cls.DataMode
		if len(cls.Platforms) > 0 {
			e.addPlatforms(s, cls.Platforms)
			s.State = domain.StatePlatformConfirmation
			e.confirmPlatforms(s, "")
			return nil
		}
		s.State = domain.StatePlatformSelection
		e.askPlatforms(s, msgAskPlatforms)
	case domain.PathAutomation:
		s.State = domain.StateRequirementsCollection
		e.say(s, msgRequirements, &domain.Hints{Status: domain.StatusNeedsInput})
	case domain.PathProfiling:
		s.State = domain.StateProfilingMode
		e.say(s, msgProfiling, &domain.Hints{Status: domain.StatusNeedsInput})
	default:
		e.askPath(s, msgPathRetry)
	}
	return nil
}

func (e *Engine) askPlatforms(s *domain.Session, text string) {
	labels := make([]string, 0, len(e.catalog.Platforms))
	for _, p := range e.catalog.Platforms {
		labels = append(labels, p.Label)
	}
	e.say(s, text, &domain.Hints{
		QuestionKey: domain.KeyPlatforms,
		Status:      domain.StatusNeedsInput,
		Options: &domain.OptionSet{
			Kind:       domain.OptionMultiSelect,
			Choices:    labels,
			Prechecked: e.platformLabels(s.Platforms),
		},
	})
}

func (e *Engine) onPlatformSelection(s *domain.Session, cls Classification) error {
	if len(cls.Platforms) == 0 {
		e.askPlatforms(s, msgPlatformsRetry)
		return nil
	}
	e.addPlatforms(s, cls.Platforms)
	s.State = domain.StatePlatformConfirmation
	e.confirmPlatforms(s, "")
	return nil
}

// onPlatformConfirmation loops until a confirmation keyword arrives. Adding platforms
// re-enters the state.
func (e *Engine) onPlatformConfirmation(s *domain.Session, cls Classification) error {
	switch {
	case cls.Intent == IntentConfirm && len(s.Platforms) > 0:
		s.PlatformsConfirmed = true
		s.Answers.Set(domain.KeyPlatforms, s.Platforms)
		s.PlatformCursor, s.FeatureCursor = 0, 0
		s.State = domain.StatePlatformFeatures
		e.askFeatures(s, "")
	case len(cls.Platforms) > 0:
		e.addPlatforms(s, cls.Platforms)
		e.confirmPlatforms(s, "")
	case cls.Intent == IntentAddPlatform:
		remaining := e.remainingPlatforms(s)
		if len(remaining) == 0 {
			e.confirmPlatforms(s, msgAllPlatforms)
			return nil
		}
		e.ask(s, msgAskAnother, domain.KeyPlatforms, domain.OptionSingleSelect, remaining)
	default:
		e.confirmPlatforms(s, msgConfirmRetry)
	}
	return nil
}

func (e *Engine) confirmPlatforms(s *domain.Session, prefix string) {
	text := fmt.Sprintf(msgConfirmPlatforms, strings.Join(e.platformLabels(s.Platforms), ", "))
	e.ask(s, joinPrefix(prefix, text), questionConfirm, domain.OptionSingleSelect,
		[]string{labelContinue, labelAddPlatform})
}

// addPlatforms inserts into the selection set and mirrors it in the answer map.
func (e *Engine) addPlatforms(s *domain.Session, ids []string) {
	for _, id := range ids {
		s.AddPlatform(id)
	}
	s.Answers.Set(domain.KeyPlatforms, s.Platforms)
}

func (e *Engine) remainingPlatforms(s *domain.Session) []string {
	var labels []string
	for _, p := range e.catalog.Platforms {
		if !slices.Contains(s.Platforms, p.ID) {
			labels = append(labels, p.Label)
		}
	}
	return labels
}

func (e *Engine) platformLabels(ids []string) []string {
	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = e.catalog.Label(id)
	}
	return labels
}

func (e *Engine) onRequirements(ctx context.Context, s *domain.Session, cls Classification, text string) error {
	if len(cls.Platforms) > 0 && cls.Intent != IntentRequirement {
		s.Path = domain.PathLeadGeneration
		e.addPlatforms(s, cls.Platforms)
		s.State = domain.StatePlatformConfirmation
		e.confirmPlatforms(s, "")
		return nil
	}
	resp, err := e.delegate(ctx, s, text)
	if err != nil {
		return err
	}
	if domain.Status(resp.Status) != domain.StatusReady {
		return nil
	}
	if len(s.Platforms) > 0 {
		s.State = domain.StatePlatformConfirmation
		e.confirmPlatforms(s, "")
		return nil
	}
	s.State = domain.StatePlatformSelection
	e.askPlatforms(s, msgAskPlatforms)
	return nil
}

func (e *Engine) onProfiling(ctx context.Context, s *domain.Session, text string) error {
	if profilingComplete(text) {
		s.State = domain.StateInitial
		e.askPath(s, msgProfilingDone)
		return nil
	}
	resp, err := e.delegate(ctx, s, text)
	if err != nil {
		return err
	}
	if domain.Status(resp.Status) == domain.StatusReady || profilingComplete(resp.Text) {
		s.State = domain.StateInitial
		e.askPath(s, msgProfilingDone)
	}
	return nil
}

func (e *Engine) onComplete(ctx context.Context, s *domain.Session, cls Classification, text string) error {
	if cls.Intent != IntentLaunch {
		_, err := e.delegate(ctx, s, text)
		return err
	}
	if s.Launched {
		e.say(s, fmt.Sprintf(msgLaunched, e.campaignName(s)), nil)
		return nil
	}
	if s.LaunchFailed {
		e.say(s, msgLaunchFailed, nil)
		return nil
	}
	if e.campaigns == nil {
		return fmt.Errorf("campaign service: %w", domain.ErrNotConfigured)
	}
	// A failed launch leaves its own terminal message and is not rolled back.
	_ = e.launch(ctx, s)
	return ctx.Err()
}
