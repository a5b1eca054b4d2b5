package runtime

import (
	"fmt"
	"slices"
	"strings"

	"github.com/techiemaya-admin/lad-onboarding/pkg/catalog"
	"github.com/techiemaya-admin/lad-onboarding/pkg/deps"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/options"
	"github.com/techiemaya-admin/lad-onboarding/pkg/workflow"
)

func (e *Engine) currentPlatform(s *domain.Session) (*catalog.Platform, error) {
	id := s.CurrentPlatform()
	p, ok := e.catalog.Platform(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPlatform, id)
	}
	return p, nil
}

func (e *Engine) askFeatures(s *domain.Session, prefix string) {
	p, err := e.currentPlatform(s)
	if err != nil {
		e.logger.Error("Cannot ask features", "session_id", s.ID, "err", err)
		return
	}
	var prechecked []string
	for _, id := range s.Features[p.ID] {
		prechecked = append(prechecked, p.LabelOf(id))
	}
	e.say(s, joinPrefix(prefix, fmt.Sprintf(msgAskFeatures, p.Label)), &domain.Hints{
		QuestionKey:          domain.FeaturesKey(p.ID),
		Status:               domain.StatusNeedsInput,
		PlatformActionPrompt: true,
		Options: &domain.OptionSet{
			Kind:       domain.OptionMultiSelect,
			Choices:    p.OptionLabels(),
			Prechecked: prechecked,
		},
	})
}

// splitChoices expands a free-text reply into separate choices.
func splitChoices(values []string) []string {
	if len(values) != 1 {
		return values
	}
	parts := strings.FieldsFunc(values[0], func(r rune) bool { return r == ',' || r == ';' || r == '\n' })
	var out []string
	for _, part := range parts {
		for _, p := range strings.Split(part, " and ") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// onPlatformFeatures applies a multi-select answer against the current selection of
// the platform. Unchecked actions are toggled off first so their dependents cascade out,
// then new choices are toggled on so requirements are added. Each auto-add warning is
// shown once per session.
func (e *Engine) onPlatformFeatures(s *domain.Session, values []string) error {
	p, err := e.currentPlatform(s)
	if err != nil {
		return err
	}

	var ids []string
	for _, v := range values {
		if id, ok := p.MatchFeature(v); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		for _, v := range splitChoices(values) {
			if id, ok := p.MatchFeature(v); ok {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		e.askFeatures(s, fmt.Sprintf(msgFeaturesRetry, p.Label))
		return nil
	}

	sel, err := e.reselect(p, s.Features[p.ID], ids)
	if err != nil {
		return err
	}
	var notices []string
	if len(sel.dropped) > 0 {
		notices = append(notices, fmt.Sprintf(msgDependentsRemoved, labelList(p, sel.dropped)))
	}
	for _, w := range sel.warnings {
		key := w.Key(p.ID)
		if s.HasWarned(key) {
			continue
		}
		s.Warned = append(s.Warned, key)
		notices = append(notices, w.Text)
	}

	s.Features[p.ID] = sel.selected
	s.Answers.Set(domain.FeaturesKey(p.ID), sel.selected)
	if len(sel.selected) == 0 {
		e.askFeatures(s, strings.Join(notices, " "))
		return nil
	}
	s.FeatureCursor = 0
	s.Utilities = make(map[string][]string)
	s.State = domain.StateFeatureUtilities
	e.askUtility(s, strings.Join(notices, " "))
	return nil
}

// selection is the outcome of reselect.
type selection struct {
	selected []string
	// dropped are chosen actions that left with a deselected requirement.
	dropped  []string
	warnings []deps.Warning
}

// reselect moves a platform from its current actions to the chosen ones. A chosen
// action that was already selected and cascaded out with an unchecked requirement
// stays out.
func (e *Engine) reselect(p *catalog.Platform, current, chosen []string) (selection, error) {
	selected := slices.Clone(current)
	var removed []string
	for _, id := range current {
		if keptBy(p, id, chosen) || !slices.Contains(selected, id) {
			continue
		}
		res, err := e.resolver.Toggle(p.ID, id, selected, false)
		if err != nil {
			return selection{}, err
		}
		selected = res.Selected
		removed = append(removed, res.Removed...)
	}

	out := selection{}
	for _, id := range chosen {
		if members := membersOf(p, id); overlaps(members, current) && overlaps(members, removed) && !overlaps(members, selected) {
			if !slices.Contains(out.dropped, id) {
				out.dropped = append(out.dropped, id)
			}
			continue
		}
		res, err := e.resolver.Toggle(p.ID, id, selected, true)
		if err != nil {
			return selection{}, err
		}
		selected = res.Selected
		out.warnings = append(out.warnings, res.Warnings...)
	}
	out.selected = p.SortByOrder(selected)
	return out, nil
}

// keptBy reports whether chosen still covers id, directly, through its family or
// through a sibling variant that will replace it.
func keptBy(p *catalog.Platform, id string, chosen []string) bool {
	if slices.Contains(chosen, id) {
		return true
	}
	fam := p.FamilyOf(id)
	if fam == "" {
		return false
	}
	return slices.ContainsFunc(chosen, func(c string) bool {
		return c == fam || p.FamilyOf(c) == fam
	})
}

// membersOf expands a family id to its variants.
func membersOf(p *catalog.Platform, id string) []string {
	if _, ok := p.Family(id); ok {
		return p.Variants(id)
	}
	return []string{id}
}

func overlaps(a, b []string) bool {
	return slices.ContainsFunc(a, func(id string) bool { return slices.Contains(b, id) })
}

func labelList(p *catalog.Platform, ids []string) string {
	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = fmt.Sprintf("%q", p.LabelOf(id))
	}
	return strings.Join(labels, ", ")
}

// utilitiesFor lists the questions of the current feature, in the order they are asked.
// The false-branch question exists only when a real condition was chosen.
func utilitiesFor(s *domain.Session, f catalog.Feature) []string {
	us := []string{domain.UtilityDelay}
	if f.Condition != "" {
		us = append(us, domain.UtilityCondition)
		if c := first(s.Utilities[domain.UtilityCondition]); c != "" && !strings.EqualFold(c, labelNoCondition) {
			us = append(us, domain.UtilityOnFalse)
		}
	}
	if deps.NeedsTemplate(f.Label) {
		us = append(us, domain.UtilityTemplate)
	}
	return us
}

func (e *Engine) currentFeature(s *domain.Session) (*catalog.Platform, catalog.Feature, error) {
	p, err := e.currentPlatform(s)
	if err != nil {
		return nil, catalog.Feature{}, err
	}
	f, ok := p.Feature(s.CurrentFeature())
	if !ok {
		return nil, catalog.Feature{}, fmt.Errorf("%w: %s.%s", domain.ErrUnknownAction, p.ID, s.CurrentFeature())
	}
	return p, f, nil
}

func pendingUtility(s *domain.Session, f catalog.Feature) (string, bool) {
	for _, u := range utilitiesFor(s, f) {
		if _, done := s.Utilities[u]; !done {
			return u, true
		}
	}
	return "", false
}

// awaitingTemplate reports whether the next reply is free message text, which must not
// be read as a command.
func (e *Engine) awaitingTemplate(s *domain.Session) bool {
	if s.State != domain.StateFeatureUtilities {
		return false
	}
	_, f, err := e.currentFeature(s)
	if err != nil {
		return false
	}
	u, ok := pendingUtility(s, f)
	return ok && u == domain.UtilityTemplate
}

func (e *Engine) askUtility(s *domain.Session, prefix string) {
	p, f, err := e.currentFeature(s)
	if err != nil {
		e.logger.Error("Cannot ask utility", "session_id", s.ID, "err", err)
		return
	}
	u, ok := pendingUtility(s, f)
	if !ok {
		e.advanceFeature(s, prefix)
		return
	}
	key := domain.UtilityKey(p.ID, f.ID, u)
	switch u {
	case domain.UtilityDelay:
		e.say(s, joinPrefix(prefix, fmt.Sprintf(msgAskDelay, f.Label)), &domain.Hints{
			QuestionKey: key,
			Status:      domain.StatusNeedsInput,
			Options:     &domain.OptionSet{Kind: domain.OptionDelay, Choices: e.catalog.DelayChoices()},
		})
	case domain.UtilityCondition:
		e.say(s, joinPrefix(prefix, fmt.Sprintf(msgAskCondition, f.Condition)), &domain.Hints{
			QuestionKey: key,
			Status:      domain.StatusNeedsInput,
			Options: &domain.OptionSet{
				Kind:    domain.OptionCondition,
				Choices: []string{capitalize(f.Condition), labelNoCondition},
			},
		})
	case domain.UtilityOnFalse:
		e.ask(s, joinPrefix(prefix, fmt.Sprintf(msgAskOnFalse, f.Condition)), key,
			domain.OptionSingleSelect, e.falseBranchChoices(s, p.ID))
	case domain.UtilityTemplate:
		e.say(s, joinPrefix(prefix, fmt.Sprintf(msgAskTemplate, f.Label)), &domain.Hints{
			QuestionKey: key,
			Status:      domain.StatusNeedsInput,
		})
	}
}

// falseBranchChoices offers the actions of the other selected platforms.
func (e *Engine) falseBranchChoices(s *domain.Session, current string) []string {
	choices := []string{workflow.EndSequence}
	for _, pid := range s.Platforms {
		if pid == current {
			continue
		}
		p, ok := e.catalog.Platform(pid)
		if !ok {
			continue
		}
		for _, f := range p.Features {
			choices = append(choices, falseBranchLabel(p, f))
		}
	}
	return choices
}

func falseBranchLabel(p *catalog.Platform, f catalog.Feature) string {
	return p.Label + ": " + f.Label
}

func (e *Engine) onFeatureUtility(s *domain.Session, values []string) error {
	p, f, err := e.currentFeature(s)
	if err != nil {
		return err
	}
	u, ok := pendingUtility(s, f)
	if !ok {
		e.advanceFeature(s, "")
		return nil
	}
	answer, valid := e.parseUtility(s, p, f, u, values)
	if !valid {
		e.askUtility(s, msgUtilityRetry)
		return nil
	}
	s.Utilities[u] = answer
	s.Answers.Set(domain.UtilityKey(p.ID, f.ID, u), answer)
	e.askUtility(s, "")
	return nil
}

// parseUtility validates one utility answer and returns its stored form. Condition
// answers are stored as the catalog predicate or "No condition". False-branch answers
// are stored as "platform.feature" references.
func (e *Engine) parseUtility(s *domain.Session, p *catalog.Platform, f catalog.Feature, u string, values []string) ([]string, bool) {
	text := strings.Join(values, ", ")
	switch u {
	case domain.UtilityDelay:
		if _, _, ok := options.ParseDelay(values[0]); ok {
			return []string{values[0]}, true
		}
		return nil, false
	case domain.UtilityCondition:
		t := normalizeText(text)
		switch {
		case slices.Contains([]string{"no", "none", "no condition", "skip", "not needed"}, t):
			return []string{labelNoCondition}, true
		case t == "yes" || t == "y" || strings.HasPrefix(t, "wait") || strings.Contains(t, strings.ToLower(f.Condition)):
			return []string{f.Condition}, true
		}
		return nil, false
	case domain.UtilityOnFalse:
		return e.parseFalseBranch(s, p.ID, values)
	case domain.UtilityTemplate:
		return []string{text}, true
	}
	return nil, false
}

func (e *Engine) parseFalseBranch(s *domain.Session, current string, values []string) ([]string, bool) {
	var refs []string
	for _, v := range splitChoices(values) {
		if strings.EqualFold(v, workflow.EndSequence) {
			return []string{workflow.EndSequence}, true
		}
		if ref, ok := e.matchFalseBranch(s, current, v); ok && !slices.Contains(refs, ref) {
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		return nil, false
	}
	return refs, true
}

func (e *Engine) matchFalseBranch(s *domain.Session, current, v string) (string, bool) {
	if ref, ok := workflow.ParseRef(v); ok {
		if p, found := e.catalog.Platform(ref.Platform); found {
			if _, known := p.Feature(ref.Feature); known {
				return ref.String(), true
			}
		}
	}
	for _, pid := range s.Platforms {
		if pid == current {
			continue
		}
		p, ok := e.catalog.Platform(pid)
		if !ok {
			continue
		}
		for _, f := range p.Features {
			if strings.EqualFold(v, falseBranchLabel(p, f)) {
				return workflow.Ref{Platform: p.ID, Feature: f.ID}.String(), true
			}
		}
	}
	return "", false
}

// advanceFeature moves the cursors past the configured feature.
func (e *Engine) advanceFeature(s *domain.Session, prefix string) {
	s.FeatureCursor++
	s.Utilities = make(map[string][]string)
	if s.FeatureCursor < len(s.Features[s.CurrentPlatform()]) {
		e.askUtility(s, prefix)
		return
	}
	s.PlatformCursor++
	s.FeatureCursor = 0
	if s.PlatformCursor < len(s.Platforms) {
		s.State = domain.StatePlatformFeatures
		e.askFeatures(s, prefix)
		return
	}
	if s.DataMode == domain.DataModeInbound {
		s.State = domain.StateInboundLeadsPerDay
		e.ask(s, joinPrefix(prefix, msgAskLeadsPerDay), domain.KeyInboundLeadsPerDay,
			domain.OptionSingleSelect, []string{"10", "25", "50", "100"})
		return
	}
	e.complete(s, prefix)
}

func (e *Engine) complete(s *domain.Session, prefix string) {
	s.State = domain.StateComplete
	steps := len(e.assembler.Steps(s.Answers))
	wf := e.assembler.Regenerate(s.Answers, -1)
	text := fmt.Sprintf(msgComplete, steps, strings.Join(e.platformLabels(s.Platforms), ", "))
	e.say(s, joinPrefix(prefix, text), &domain.Hints{
		QuestionKey: questionLaunch,
		Status:      domain.StatusReady,
		Workflow:    &wf,
		Options: &domain.OptionSet{
			Kind:    domain.OptionSingleSelect,
			Choices: []string{labelLaunch, labelStartOver},
		},
	})
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
