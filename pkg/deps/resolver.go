package deps

import (
	"fmt"
	"slices"
	"strings"

	"github.com/techiemaya-admin/lad-onboarding/pkg/catalog"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// Resolver keeps a platform's multi-select action set consistent with the catalog's
// dependency rules. It holds no state between calls.
type Resolver struct {
	catalog    *catalog.Catalog
	transitive bool
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithTransitive makes removal cascade through the full chain of dependents instead of
// only the direct ones.
func WithTransitive() Option {
	return func(r *Resolver) {
		r.transitive = true
	}
}

// New creates a resolver over the given catalog.
func New(c *catalog.Catalog, opts ...Option) *Resolver {
	r := &Resolver{catalog: c}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Warning is a one-time notice that an action was added because another required it.
type Warning struct {
	Action   string
	Required string
	Text     string
}

// Key identifies the warning pair within a session.
func (w Warning) Key(platform string) string {
	return platform + ":" + w.Action + ">" + w.Required
}

// Result is the outcome of a single toggle.
type Result struct {
	Selected      []string
	Added         []string
	Removed       []string
	Replaced      []string
	Warnings      []Warning
	NeedsTemplate bool
}

func (r *Resolver) platform(id string) (*catalog.Platform, error) {
	p, ok := r.catalog.Platform(id)
	if !ok {
		return nil, fmt.Errorf("%w: platform %q", domain.ErrUnknownAction, id)
	}
	return p, nil
}

func (r *Resolver) action(platform, action string) (*catalog.Platform, error) {
	p, err := r.platform(platform)
	if err != nil {
		return nil, err
	}
	if !p.Known(action) {
		return nil, fmt.Errorf("%w: %s.%s", domain.ErrUnknownAction, platform, action)
	}
	return p, nil
}

// satisfied reports whether req is met by selected. Any member of a variant family
// satisfies a requirement on the family or on any of its siblings.
func satisfied(p *catalog.Platform, req string, selected []string) bool {
	if slices.Contains(selected, req) {
		return true
	}
	family := p.FamilyOf(req)
	if family == "" {
		return false
	}
	for _, v := range p.Variants(family) {
		if slices.Contains(selected, v) {
			return true
		}
	}
	return false
}

// concrete maps a family id to its default variant. Other ids are returned unchanged.
func concrete(p *catalog.Platform, id string) string {
	if f, ok := p.Family(id); ok {
		return f.Default
	}
	return id
}

// AutoSelect returns the actions that must be added so that candidate and everything it
// pulls in have their requirements met. A requirement on a variant family resolves to the
// family's default variant.
func (r *Resolver) AutoSelect(platform, candidate string, selected []string) ([]string, error) {
	p, err := r.action(platform, candidate)
	if err != nil {
		return nil, err
	}
	pairs := autoSelect(p, concrete(p, candidate), selected)
	added := make([]string, 0, len(pairs))
	for _, pr := range pairs {
		added = append(added, pr.required)
	}
	return added, nil
}

type requirement struct {
	by       string
	required string
}

func autoSelect(p *catalog.Platform, candidate string, selected []string) []requirement {
	have := append(slices.Clone(selected), candidate)
	var out []requirement
	queue := []string{candidate}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		f, ok := p.Feature(id)
		if !ok {
			continue
		}
		for _, req := range f.Requires {
			if satisfied(p, req, have) {
				continue
			}
			add := concrete(p, req)
			have = append(have, add)
			out = append(out, requirement{by: id, required: add})
			queue = append(queue, add)
		}
	}
	return out
}

// Remove returns the selected actions that depend on candidate and are no longer
// satisfied once it is gone. Only direct dependents are returned unless the resolver
// was built WithTransitive.
func (r *Resolver) Remove(platform, candidate string, selected []string) ([]string, error) {
	p, err := r.action(platform, candidate)
	if err != nil {
		return nil, err
	}
	return r.cascade(p, []string{candidate}, selected), nil
}

func (r *Resolver) cascade(p *catalog.Platform, gone []string, selected []string) []string {
	remaining := slices.DeleteFunc(slices.Clone(selected), func(id string) bool {
		return slices.Contains(gone, id)
	})

	var removed []string
	frontier := gone
	for len(frontier) > 0 {
		var next []string
		for _, id := range remaining {
			if slices.Contains(removed, id) {
				continue
			}
			f, ok := p.Feature(id)
			if !ok {
				continue
			}
			for _, req := range f.Requires {
				if names(p, req, frontier) && !satisfied(p, req, without(remaining, removed)) {
					removed = append(removed, id)
					next = append(next, id)
					break
				}
			}
		}
		if !r.transitive {
			break
		}
		remaining = without(remaining, next)
		frontier = next
	}
	return removed
}

// names reports whether a requirement refers to one of ids, directly or through a family.
func names(p *catalog.Platform, req string, ids []string) bool {
	for _, id := range ids {
		if req == id {
			return true
		}
		if fam := p.FamilyOf(id); fam != "" && (req == fam || p.FamilyOf(req) == fam) {
			return true
		}
	}
	return false
}

func without(ids, drop []string) []string {
	return slices.DeleteFunc(slices.Clone(ids), func(id string) bool {
		return slices.Contains(drop, id)
	})
}

// Toggle applies one selection change to the set of a platform.
//
// Turning on a bare family id activates its default variant unless a variant is already
// active. Turning on a variant replaces an active sibling. Turning off a family id removes
// whichever variant is active. Requirements are added and dependents removed as needed.
func (r *Resolver) Toggle(platform, action string, selected []string, on bool) (Result, error) {
	p, err := r.action(platform, action)
	if err != nil {
		return Result{}, err
	}
	if on {
		return r.toggleOn(p, action, selected), nil
	}
	return r.toggleOff(p, action, selected), nil
}

func (r *Resolver) toggleOn(p *catalog.Platform, action string, selected []string) Result {
	res := Result{Selected: slices.Clone(selected)}

	if _, isFamily := p.Family(action); isFamily {
		for _, v := range p.Variants(action) {
			if slices.Contains(selected, v) {
				return res
			}
		}
	}
	target := concrete(p, action)
	if slices.Contains(res.Selected, target) {
		return res
	}

	if fam := p.FamilyOf(target); fam != "" {
		for _, v := range p.Variants(fam) {
			if v != target && slices.Contains(res.Selected, v) {
				res.Replaced = append(res.Replaced, v)
			}
		}
		res.Selected = without(res.Selected, res.Replaced)
	}

	res.Selected = append(res.Selected, target)
	res.Added = append(res.Added, target)
	for _, req := range autoSelect(p, target, res.Selected) {
		res.Selected = append(res.Selected, req.required)
		res.Added = append(res.Added, req.required)
		res.Warnings = append(res.Warnings, Warning{
			Action:   req.by,
			Required: req.required,
			Text:     WarningText(p.LabelOf(req.by), p.LabelOf(req.required)),
		})
	}
	for _, id := range res.Added {
		if NeedsTemplate(p.LabelOf(id)) {
			res.NeedsTemplate = true
			break
		}
	}
	return res
}

func (r *Resolver) toggleOff(p *catalog.Platform, action string, selected []string) Result {
	res := Result{Selected: slices.Clone(selected)}

	var gone []string
	if _, isFamily := p.Family(action); isFamily {
		for _, v := range p.Variants(action) {
			if slices.Contains(selected, v) {
				gone = append(gone, v)
			}
		}
	} else if slices.Contains(selected, action) {
		gone = []string{action}
	}
	if len(gone) == 0 {
		return res
	}

	res.Removed = append(gone, r.cascade(p, gone, selected)...)
	res.Selected = without(res.Selected, res.Removed)
	return res
}

// WarningText formats the one-time auto-add notice.
func WarningText(action, required string) string {
	return fmt.Sprintf("%q requires %q, so %q was added automatically.", action, required, required)
}

var (
	templatePhrases = []string{"with message", "after accepted"}
	templateWords   = []string{"message", "email", "script", "comment", "dm", "inmail", "voicemail", "whatsapp"}
)

// NeedsTemplate reports whether an action label implies a message template must be captured.
func NeedsTemplate(label string) bool {
	l := strings.ToLower(label)
	if strings.Contains(l, "without message") {
		return false
	}
	for _, phrase := range templatePhrases {
		if strings.Contains(l, phrase) {
			return true
		}
	}
	words := strings.FieldsFunc(l, func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	for _, w := range words {
		if slices.Contains(templateWords, w) {
			return true
		}
	}
	return false
}
