package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/techiemaya-admin/lad-onboarding/internal/logging"
	"github.com/techiemaya-admin/lad-onboarding/pkg/catalog"
	"github.com/techiemaya-admin/lad-onboarding/pkg/deps"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/options"
	"github.com/techiemaya-admin/lad-onboarding/pkg/ports"
	"github.com/techiemaya-admin/lad-onboarding/pkg/workflow"
)

// Engine is the onboarding flow controller. It owns no sessions: every operation takes
// the current snapshot and returns the next one, leaving the input untouched.
type Engine struct {
	catalog    *catalog.Catalog
	resolver   *deps.Resolver
	assembler  *workflow.Assembler
	classifier options.Classifier
	generator  ports.Generator
	leads      ports.LeadStore
	campaigns  ports.CampaignService
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	now        func() time.Time
	pacing     time.Duration
	transitive bool
	fastMode   bool
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithGenerator sets the text generation service used for delegated states.
func WithGenerator(g ports.Generator) EngineOption {
	return func(e *Engine) {
		e.generator = g
	}
}

// WithLeadStore sets the lead persistence collaborator.
func WithLeadStore(s ports.LeadStore) EngineOption {
	return func(e *Engine) {
		e.leads = s
	}
}

// WithCampaignService sets the campaign collaborator used by Launch.
func WithCampaignService(c ports.CampaignService) EngineOption {
	return func(e *Engine) {
		e.campaigns = c
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source used for turn timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithPacing waits d before each reply is returned. The wait honors cancellation.
func WithPacing(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.pacing = d
	}
}

// WithTransitiveCascade makes action removal cascade through all dependents.
func WithTransitiveCascade() EngineOption {
	return func(e *Engine) {
		e.transitive = true
	}
}

// WithClassifier replaces the keyword classifier applied to generated text.
func WithClassifier(c options.Classifier) EngineOption {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithFastMode asks the generation service for shorter answers.
func WithFastMode() EngineOption {
	return func(e *Engine) {
		e.fastMode = true
	}
}

// NewEngine creates a controller over a catalog. A nil catalog selects the default one.
func NewEngine(c *catalog.Catalog, opts ...EngineOption) *Engine {
	if c == nil {
		c = catalog.Default()
	}
	e := &Engine{
		catalog:    c,
		classifier: options.NewKeywordClassifier(),
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	var depOpts []deps.Option
	if e.transitive {
		depOpts = append(depOpts, deps.WithTransitive())
	}
	e.resolver = deps.New(c, depOpts...)
	e.assembler = workflow.New(c, workflow.WithLogger(e.logger))
	return e
}

// Catalog returns the catalog the engine was built with.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Start returns a new session greeted with the path question.
func (e *Engine) Start(id string) *domain.Session {
	s := domain.NewSession(id, e.now().UTC())
	e.askPath(s, msgWelcome)
	if err := e.refreshWorkflow(context.Background(), s); err != nil {
		e.logger.Error("Initial workflow is invalid", "err", err)
	}
	return s
}

// Reset returns a copy of s with every selection structure back at its initial value.
// The conversation history is kept and the path question is asked again.
func (e *Engine) Reset(s *domain.Session) *domain.Session {
	next := s.Snapshot()
	e.reset(next)
	if err := e.refreshWorkflow(context.Background(), next); err != nil {
		e.logger.Error("Reset workflow is invalid", "err", err)
	}
	next.UpdatedAt = e.now().UTC()
	return next
}

func (e *Engine) reset(s *domain.Session) {
	fresh := domain.NewSession(s.ID, s.CreatedAt)
	fresh.Turns = s.Turns
	*s = *fresh
	e.askPath(s, msgStartOver)
}

// Reply applies one user reply. input may be a string, a list of strings (multi-select)
// or a number.
//
// The step runs on a copy. When a handler, the generation service or graph assembly
// fails, the returned session is s with the user turn and a fallback message appended
// and no other change. When ctx is cancelled the step is discarded and ctx's error is
// returned.
func (e *Engine) Reply(ctx context.Context, s *domain.Session, input any) (*domain.Session, error) {
	values := options.Normalize(input)
	if len(values) == 0 {
		return nil, domain.ErrEmptyInput
	}
	text := strings.Join(values, ", ")
	if e.ignoredResolution(s, text) {
		e.logger.DebugContext(ctx, "Ignoring resolution for settled checkpoint", "session_id", s.ID)
		return s, nil
	}

	user := domain.Turn{Role: domain.RoleUser, Text: text, Timestamp: e.now().UTC()}
	next := s.Snapshot()
	next.Append(user)

	err := e.dispatch(ctx, next, values, text)
	if err == nil {
		err = e.refreshWorkflow(ctx, next)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("step cancelled: %w", ctxErr)
		}
		return e.fail(ctx, s, &user, err), nil
	}
	next.UpdatedAt = e.now().UTC()
	e.emitTransition(ctx, next.ID, s.State, next.State)

	if err := e.pace(ctx); err != nil {
		return nil, fmt.Errorf("step cancelled: %w", err)
	}
	return next, nil
}

func (e *Engine) dispatch(ctx context.Context, s *domain.Session, values []string, text string) error {
	cls := Classify(text, e.catalog)
	if cls.Intent == IntentReset && !e.awaitingTemplate(s) {
		e.reset(s)
		return nil
	}
	if s.Checkpoint != nil && !s.Checkpoint.Resolved {
		return e.resolveReply(ctx, s, text)
	}

	switch s.State {
	case domain.StateInitial:
		return e.onInitial(ctx, s, cls, text)
	case domain.StatePlatformSelection:
		return e.onPlatformSelection(s, cls)
	case domain.StatePlatformConfirmation:
		return e.onPlatformConfirmation(s, cls)
	case domain.StatePlatformFeatures:
		return e.onPlatformFeatures(s, values)
	case domain.StateFeatureUtilities:
		return e.onFeatureUtility(s, values)
	case domain.StateRequirementsCollection:
		return e.onRequirements(ctx, s, cls, text)
	case domain.StateProfilingMode:
		return e.onProfiling(ctx, s, text)
	case domain.StateInboundLeadsPerDay, domain.StateInboundCampaignDays, domain.StateInboundCampaignName:
		return e.onInbound(s, text)
	case domain.StateComplete:
		return e.onComplete(ctx, s, cls, text)
	}
	return fmt.Errorf("unknown flow state %q", s.State)
}

// fail builds the rollback result: the original session plus the user turn and a
// fallback message.
func (e *Engine) fail(ctx context.Context, s *domain.Session, user *domain.Turn, err error) *domain.Session {
	e.logger.WarnContext(ctx, "Step failed, keeping previous state", "session_id", s.ID, "state", s.State, "err", err)
	out := s.Snapshot()
	if user != nil {
		out.Append(*user)
	}
	e.say(out, msgFallback, nil)
	out.UpdatedAt = e.now().UTC()
	if e.hooks.OnFallback != nil {
		e.hooks.OnFallback(ctx, &domain.FallbackEvent{
			EventBase: e.event(domain.EventFallback, s.ID),
			State:     s.State,
			Err:       err.Error(),
		})
	}
	return out
}

// refreshWorkflow regenerates the preview graph from the answer map.
func (e *Engine) refreshWorkflow(ctx context.Context, s *domain.Session) error {
	wf := e.assembler.Regenerate(s.Answers, e.cursor(s))
	if err := workflow.Validate(wf); err != nil {
		return err
	}
	if reflect.DeepEqual(wf, s.Workflow) {
		return nil
	}
	s.Workflow = wf
	if e.hooks.OnWorkflowBuilt != nil {
		e.hooks.OnWorkflowBuilt(ctx, &domain.WorkflowEvent{
			EventBase: e.event(domain.EventWorkflowBuilt, s.ID),
			Nodes:     len(wf.Nodes),
			Edges:     len(wf.Edges),
		})
	}
	return nil
}

// cursor counts the steps the preview includes. The step being configured is shown as
// soon as its utilities are asked. Past configuration every step is included.
func (e *Engine) cursor(s *domain.Session) int {
	switch s.State {
	case domain.StateComplete, domain.StateInboundLeadsPerDay, domain.StateInboundCampaignDays, domain.StateInboundCampaignName:
		return -1
	}
	n := 0
	for i := 0; i < s.PlatformCursor && i < len(s.Platforms); i++ {
		n += len(s.Features[s.Platforms[i]])
	}
	n += s.FeatureCursor
	if s.State == domain.StateFeatureUtilities {
		n++
	}
	return n
}

func (e *Engine) pace(ctx context.Context) error {
	if e.pacing <= 0 {
		return nil
	}
	t := time.NewTimer(e.pacing)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// say appends an assistant turn.
func (e *Engine) say(s *domain.Session, text string, hints *domain.Hints) {
	s.Append(domain.Turn{
		Role:      domain.RoleAssistant,
		Text:      text,
		Timestamp: e.now().UTC(),
		Hints:     hints,
	})
}

// ask appends an assistant question with a choice list.
func (e *Engine) ask(s *domain.Session, text, key string, kind domain.OptionKind, choices []string) {
	e.say(s, text, &domain.Hints{
		QuestionKey: key,
		Status:      domain.StatusNeedsInput,
		Options:     &domain.OptionSet{Kind: kind, Choices: choices},
	})
}

func (e *Engine) event(t domain.EventType, sessionID string) domain.EventBase {
	return domain.EventBase{Timestamp: e.now().UTC(), Type: t, SessionID: sessionID}
}

func (e *Engine) emitTransition(ctx context.Context, id string, from, to domain.FlowState) {
	e.logger.DebugContext(ctx, "Transition", "session_id", id, "from", from, "to", to)
	if e.hooks.OnTransition != nil {
		e.hooks.OnTransition(ctx, &domain.TransitionEvent{
			EventBase: e.event(domain.EventTransition, id),
			From:      from,
			To:        to,
		})
	}
}

// lastQuestionKey returns the question key of the latest assistant turn.
func lastQuestionKey(s *domain.Session) string {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		t := s.Turns[i]
		if t.Role != domain.RoleAssistant {
			continue
		}
		if t.Hints != nil {
			return t.Hints.QuestionKey
		}
		return ""
	}
	return ""
}

func joinPrefix(prefix, text string) string {
	if prefix == "" {
		return text
	}
	return prefix + " " + text
}
