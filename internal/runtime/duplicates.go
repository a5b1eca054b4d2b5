package runtime

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

var resolutionLabels = map[domain.Resolution]string{
	domain.ResolveSkipDuplicates: "Skip duplicates",
	domain.ResolveIncludeAll:     "Include all",
	domain.ResolveFollowUpNow:    "Follow up now",
	domain.ResolveConfirmCancel:  "Yes, cancel scheduled follow-ups",
	domain.ResolveBack:           "Back",
}

// ResolutionLabel returns the menu label of a resolution.
func ResolutionLabel(r domain.Resolution) string {
	return resolutionLabels[r]
}

// ParseResolution accepts a resolution id or its menu label.
func ParseResolution(text string) (domain.Resolution, bool) {
	t := normalizeText(text)
	for r, label := range resolutionLabels {
		if t == string(r) || t == strings.ToLower(label) {
			return r, true
		}
	}
	return "", false
}

// SubmitLeads sends a lead batch to the lead store. When duplicates are found nothing is
// saved, and the returned session holds a checkpoint asking how to proceed.
func (e *Engine) SubmitLeads(ctx context.Context, s *domain.Session, leads []domain.Lead) (*domain.Session, error) {
	if e.leads == nil {
		return nil, fmt.Errorf("lead store: %w", domain.ErrNotConfigured)
	}
	if len(leads) == 0 {
		return nil, fmt.Errorf("%w: no leads", domain.ErrEmptyInput)
	}
	if s.Checkpoint != nil && !s.Checkpoint.Resolved {
		return nil, domain.ErrCheckpointPending
	}

	next := s.Snapshot()
	res, err := e.leads.SaveLeads(ctx, domain.SaveLeadsRequest{Leads: slices.Clone(leads)})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return e.fail(ctx, s, nil, fmt.Errorf("saving leads: %w", err)), nil
	}

	if res.Data.DuplicatesFound || len(res.Data.Duplicates) > 0 {
		next.Checkpoint = &domain.DuplicateCheckpoint{
			Leads:         slices.Clone(leads),
			Duplicates:    slices.Clone(res.Data.Duplicates),
			NewLeadsCount: res.Data.NewLeadsCount,
		}
		e.askResolution(next, "")
	} else {
		next.Checkpoint = nil
		e.say(next, fmt.Sprintf(msgLeadsSaved, res.Data.Saved), nil)
	}
	next.UpdatedAt = e.now().UTC()
	return next, nil
}

// Resolve applies a duplicate resolution to the pending checkpoint.
func (e *Engine) Resolve(ctx context.Context, s *domain.Session, r domain.Resolution) (*domain.Session, error) {
	if s.Checkpoint == nil {
		return nil, domain.ErrNoCheckpoint
	}
	if s.Checkpoint.Resolved {
		return nil, domain.ErrCheckpointResolved
	}
	if e.leads == nil {
		return nil, fmt.Errorf("lead store: %w", domain.ErrNotConfigured)
	}
	next := s.Snapshot()
	if err := e.resolve(ctx, next, r); err != nil {
		if errors.Is(err, domain.ErrInvalidResolution) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return e.fail(ctx, s, nil, err), nil
	}
	next.UpdatedAt = e.now().UTC()
	return next, nil
}

// resolveReply handles a chat reply while a checkpoint is open.
func (e *Engine) resolveReply(ctx context.Context, s *domain.Session, text string) error {
	r, ok := ParseResolution(text)
	if !ok {
		e.askResolution(s, msgDuplicatesRetry)
		return nil
	}
	if e.leads == nil {
		return fmt.Errorf("lead store: %w", domain.ErrNotConfigured)
	}
	err := e.resolve(ctx, s, r)
	if errors.Is(err, domain.ErrInvalidResolution) {
		e.askResolution(s, msgDuplicatesRetry)
		return nil
	}
	return err
}

// ignoredResolution reports whether text repeats a choice of a checkpoint that is
// already settled while its menu is still the latest question. Such replies are dropped
// without a turn. Once another question is asked the labels are ordinary answers.
func (e *Engine) ignoredResolution(s *domain.Session, text string) bool {
	if s.Checkpoint == nil || !s.Checkpoint.Resolved || lastQuestion(s) != questionDuplicates {
		return false
	}
	_, ok := ParseResolution(text)
	return ok
}

// lastQuestion returns the question key of the most recent assistant prompt.
func lastQuestion(s *domain.Session) string {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		t := s.Turns[i]
		if t.Role == domain.RoleAssistant && t.Hints != nil && t.Hints.QuestionKey != "" {
			return t.Hints.QuestionKey
		}
	}
	return ""
}

func (e *Engine) resolve(ctx context.Context, s *domain.Session, r domain.Resolution) error {
	cp := s.Checkpoint
	if cp.AwaitingConfirm {
		switch r {
		case domain.ResolveConfirmCancel:
			cancelled := 0
			if ids := cp.BookedLeadIDs(); len(ids) > 0 {
				res, err := e.leads.CancelBookings(ctx, ids)
				if err != nil {
					return fmt.Errorf("cancelling bookings: %w", err)
				}
				cancelled = res.CancelledBookings
			}
			return e.resubmit(ctx, s, domain.ResolveFollowUpNow, false, cancelled)
		case domain.ResolveBack:
			cp.AwaitingConfirm = false
			e.askResolution(s, "")
			return nil
		}
		return fmt.Errorf("%w: %q while confirming", domain.ErrInvalidResolution, r)
	}

	switch r {
	case domain.ResolveSkipDuplicates:
		return e.resubmit(ctx, s, r, true, 0)
	case domain.ResolveIncludeAll:
		return e.resubmit(ctx, s, r, false, 0)
	case domain.ResolveFollowUpNow:
		cp.AwaitingConfirm = true
		e.askResolution(s, "")
		return nil
	}
	return fmt.Errorf("%w: %q", domain.ErrInvalidResolution, r)
}

// resubmit sends the held batch again with the chosen duplicate policy.
func (e *Engine) resubmit(ctx context.Context, s *domain.Session, r domain.Resolution, skip bool, cancelled int) error {
	cp := s.Checkpoint
	res, err := e.leads.SaveLeads(ctx, domain.SaveLeadsRequest{
		Leads:             slices.Clone(cp.Leads),
		SkipDuplicates:    skip,
		IncludeDuplicates: !skip,
	})
	if err != nil {
		return fmt.Errorf("resubmitting leads: %w", err)
	}
	cp.Resubmissions++
	cp.Resolved = true
	cp.Resolution = r
	cp.AwaitingConfirm = false

	switch {
	case cancelled > 0:
		e.say(s, fmt.Sprintf(msgLeadsCancelled, cancelled, res.Data.Saved), nil)
	case res.Data.SkippedDuplicates > 0:
		e.say(s, fmt.Sprintf(msgLeadsSavedSkip, res.Data.Saved, res.Data.SkippedDuplicates), nil)
	default:
		e.say(s, fmt.Sprintf(msgLeadsSaved, res.Data.Saved), nil)
	}
	return nil
}

func (e *Engine) askResolution(s *domain.Session, prefix string) {
	cp := s.Checkpoint
	if cp.AwaitingConfirm {
		e.ask(s, joinPrefix(prefix, fmt.Sprintf(msgConfirmCancel, len(cp.BookedLeadIDs()))), questionDuplicates,
			domain.OptionSingleSelect,
			[]string{ResolutionLabel(domain.ResolveConfirmCancel), ResolutionLabel(domain.ResolveBack)})
		return
	}
	choices := make([]string, 0, len(domain.ResolutionMenu))
	for _, r := range domain.ResolutionMenu {
		choices = append(choices, ResolutionLabel(r))
	}
	e.ask(s, joinPrefix(prefix, fmt.Sprintf(msgDuplicates, len(cp.Duplicates), cp.NewLeadsCount)),
		questionDuplicates, domain.OptionSingleSelect, choices)
}
