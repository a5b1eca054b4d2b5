package workflow

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/techiemaya-admin/lad-onboarding/internal/logging"
	"github.com/techiemaya-admin/lad-onboarding/pkg/catalog"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/options"
)

// EndSequence is the on_false answer that sends the false branch straight to end.
const EndSequence = "End sequence"

// Schedule values of channel action nodes.
const (
	ScheduleImmediate = "immediate"
	ScheduleDelayed   = "delayed"
)

var noCondition = []string{"", "no", "none", "no condition", "skip", "not needed"}

// Step is one configured feature, the unit counted by the regeneration cursor.
type Step struct {
	Platform   string
	Feature    string
	Label      string
	Template   string
	DelayUnit  string
	DelayValue int
	Predicate  string
	OnFalse    []Ref
}

// Ref points at a platform feature used on a false branch.
type Ref struct {
	Platform string
	Feature  string
}

// String returns the answer map form "platform.feature".
func (r Ref) String() string {
	return r.Platform + "." + r.Feature
}

// ParseRef parses "platform.feature".
func ParseRef(s string) (Ref, bool) {
	platform, feature, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || platform == "" || feature == "" || strings.Contains(feature, ".") {
		return Ref{}, false
	}
	return Ref{Platform: platform, Feature: feature}, true
}

// Assembler derives workflow graphs from answer maps.
type Assembler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// Option configures the Assembler.
type Option func(*Assembler)

// WithLogger sets the logger used to report skipped answers.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// New creates an assembler over a catalog.
func New(c *catalog.Catalog, opts ...Option) *Assembler {
	a := &Assembler{catalog: c, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Steps lists the configured steps in graph order: platforms in selection order, and
// within a platform the features in catalog precedence. Unknown platforms and features
// are skipped.
func (a *Assembler) Steps(answers domain.AnswerMap) []Step {
	var steps []Step
	for _, pid := range answers.Get(domain.KeyPlatforms) {
		p, ok := a.catalog.Platform(pid)
		if !ok {
			a.logger.Warn("Skipping unknown platform", "platform", pid)
			continue
		}
		seen := map[string]bool{}
		for _, fid := range p.SortByOrder(answers.Get(domain.FeaturesKey(pid))) {
			if fam, isFamily := p.Family(fid); isFamily {
				fid = fam.Default
			}
			f, ok := p.Feature(fid)
			if !ok {
				a.logger.Warn("Skipping unknown feature", "platform", pid, "feature", fid)
				continue
			}
			if seen[fid] {
				continue
			}
			seen[fid] = true
			steps = append(steps, a.step(answers, p, f))
		}
	}
	return steps
}

func (a *Assembler) step(answers domain.AnswerMap, p *catalog.Platform, f catalog.Feature) Step {
	s := Step{
		Platform: p.ID,
		Feature:  f.ID,
		Label:    f.Label,
		Template: answers.First(domain.UtilityKey(p.ID, f.ID, domain.UtilityTemplate)),
	}
	if d := answers.First(domain.UtilityKey(p.ID, f.ID, domain.UtilityDelay)); d != "" {
		if unit, value, ok := options.ParseDelay(d); ok {
			s.DelayUnit, s.DelayValue = unit, value
		} else {
			a.logger.Warn("Ignoring unparsable delay", "platform", p.ID, "feature", f.ID, "delay", d)
		}
	}
	s.Predicate = predicate(answers.First(domain.UtilityKey(p.ID, f.ID, domain.UtilityCondition)), f.Condition)
	if s.Predicate == "" {
		return s
	}
	for _, raw := range answers.Get(domain.UtilityKey(p.ID, f.ID, domain.UtilityOnFalse)) {
		if strings.EqualFold(raw, EndSequence) {
			continue
		}
		ref, ok := ParseRef(raw)
		if !ok || !a.known(ref) {
			a.logger.Warn("Skipping unknown false-branch step", "platform", p.ID, "feature", f.ID, "ref", raw)
			continue
		}
		s.OnFalse = append(s.OnFalse, ref)
	}
	return s
}

// predicate maps a condition answer to the predicate label, or "" for no condition.
// Affirmative answers take the catalog's predicate for the feature.
func predicate(answer, catalogPredicate string) string {
	a := strings.ToLower(strings.TrimSpace(answer))
	for _, n := range noCondition {
		if a == n {
			return ""
		}
	}
	if (a == "yes" || a == "y" || a == "wait") && catalogPredicate != "" {
		return catalogPredicate
	}
	return strings.TrimSpace(answer)
}

func (a *Assembler) known(r Ref) bool {
	p, ok := a.catalog.Platform(r.Platform)
	if !ok {
		return false
	}
	_, ok = p.Feature(r.Feature)
	return ok
}

// Regenerate rebuilds the graph from scratch. cursor is the number of steps to include;
// a negative cursor includes every step. The result depends only on the arguments.
func (a *Assembler) Regenerate(answers domain.AnswerMap, cursor int) domain.Workflow {
	steps := a.Steps(answers)
	if cursor >= 0 && cursor < len(steps) {
		steps = steps[:cursor]
	}
	return a.Build(answers, steps)
}

// Build lays out the given steps as a graph.
func (a *Assembler) Build(answers domain.AnswerMap, steps []Step) domain.Workflow {
	b := &builder{}
	b.node(domain.Node{ID: domain.StartNodeID, Kind: domain.NodeStart})

	prev, branch := domain.StartNodeID, ""
	delayed := false
	for _, s := range steps {
		id := NodeID(s.Platform, s.Feature)
		b.node(domain.Node{
			ID:       id,
			Kind:     domain.NodeChannelAction,
			Platform: s.Platform,
			Config:   channelConfig(s.Feature, s.Label, s.Template, delayed),
		})
		b.edge(prev, id, branch)
		prev, branch, delayed = id, "", false

		if s.DelayValue > 0 {
			did := id + "-delay"
			b.node(domain.Node{
				ID:       did,
				Kind:     domain.NodeDelay,
				Platform: s.Platform,
				Config: map[string]string{
					domain.ConfigUnit:  s.DelayUnit,
					domain.ConfigValue: strconv.Itoa(s.DelayValue),
				},
			})
			b.edge(prev, did, "")
			prev, delayed = did, true
		}

		if s.Predicate != "" {
			cid := id + "-condition"
			b.node(domain.Node{
				ID:       cid,
				Kind:     domain.NodeCondition,
				Platform: s.Platform,
				Config:   map[string]string{domain.ConfigPredicate: s.Predicate},
			})
			b.edge(prev, cid, "")
			a.falseBranch(b, answers, cid, s.OnFalse)
			prev, branch, delayed = cid, domain.BranchTrue, false
		}
	}

	b.node(domain.Node{ID: domain.EndNodeID, Kind: domain.NodeEnd})
	b.edge(prev, domain.EndNodeID, branch)
	return b.wf
}

func (a *Assembler) falseBranch(b *builder, answers domain.AnswerMap, cid string, refs []Ref) {
	prev, branch := cid, domain.BranchFalse
	for _, r := range refs {
		id := cid + "-" + NodeID(r.Platform, r.Feature)
		label := r.Feature
		if p, ok := a.catalog.Platform(r.Platform); ok {
			label = p.LabelOf(r.Feature)
		}
		template := answers.First(domain.UtilityKey(r.Platform, r.Feature, domain.UtilityTemplate))
		b.node(domain.Node{
			ID:       id,
			Kind:     domain.NodeChannelAction,
			Platform: r.Platform,
			Config:   channelConfig(r.Feature, label, template, false),
		})
		b.edge(prev, id, branch)
		prev, branch = id, ""
	}
	b.edge(prev, domain.EndNodeID, branch)
}

func channelConfig(feature, label, template string, delayed bool) map[string]string {
	cfg := map[string]string{
		domain.ConfigFeature:  feature,
		domain.ConfigLabel:    label,
		domain.ConfigSchedule: ScheduleImmediate,
	}
	if delayed {
		cfg[domain.ConfigSchedule] = ScheduleDelayed
	}
	if template != "" {
		cfg[domain.ConfigTemplate] = template
	}
	return cfg
}

// NodeID returns the deterministic id of a feature's channel node.
func NodeID(platform, feature string) string {
	return platform + "-" + feature
}

type builder struct {
	wf domain.Workflow
}

func (b *builder) node(n domain.Node) {
	b.wf.Nodes = append(b.wf.Nodes, n)
}

func (b *builder) edge(from, to, branch string) {
	b.wf.Edges = append(b.wf.Edges, edge(from, to, branch))
}
