package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Family groups mutually exclusive variants of one logical action.
type Family struct {
	ID      string `yaml:"id" json:"id"`
	Label   string `yaml:"label" json:"label"`
	Default string `yaml:"default" json:"default"`
}

// Feature is one selectable action of a platform.
type Feature struct {
	ID        string   `yaml:"id" json:"id"`
	Label     string   `yaml:"label" json:"label"`
	Order     int      `yaml:"order" json:"order"`
	VariantOf string   `yaml:"variant_of,omitempty" json:"variant_of,omitempty"`
	Requires  []string `yaml:"requires,omitempty" json:"requires,omitempty"`
	Condition string   `yaml:"condition,omitempty" json:"condition,omitempty"`
}

// Platform is an outreach channel.
type Platform struct {
	ID       string    `yaml:"id" json:"id"`
	Label    string    `yaml:"label" json:"label"`
	Keywords []string  `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Families []Family  `yaml:"families,omitempty" json:"families,omitempty"`
	Features []Feature `yaml:"features" json:"features"`
}

// Rule is the dependency declaration of one action.
type Rule struct {
	Platform  string
	Action    string
	Requires  []string
	VariantOf string
}

// Catalog is the set of known platforms and actions.
type Catalog struct {
	Delays    []string   `yaml:"delays" json:"delays"`
	Platforms []Platform `yaml:"platforms" json:"platforms"`
}

// Default returns the embedded catalog. It panics if the embedded file is invalid,
// which can only happen on a broken build.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads and validates a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks references and that the requires relation is acyclic per platform.
func (c *Catalog) Validate() error {
	if len(c.Platforms) == 0 {
		return fmt.Errorf("catalog has no platforms")
	}
	seen := make(map[string]bool)
	for _, p := range c.Platforms {
		if p.ID == "" {
			return fmt.Errorf("platform with empty id")
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate platform %q", p.ID)
		}
		seen[p.ID] = true

		for _, f := range p.Families {
			def, ok := p.Feature(f.Default)
			if !ok || def.VariantOf != f.ID {
				return fmt.Errorf("platform %q: family %q default %q is not one of its variants", p.ID, f.ID, f.Default)
			}
		}
		for _, f := range p.Features {
			if strings.Contains(f.ID, ".") {
				return fmt.Errorf("platform %q: feature id %q must not contain '.'", p.ID, f.ID)
			}
			if f.VariantOf != "" {
				if _, ok := p.Family(f.VariantOf); !ok {
					return fmt.Errorf("platform %q: feature %q names unknown family %q", p.ID, f.ID, f.VariantOf)
				}
			}
			for _, r := range f.Requires {
				if !p.Known(r) {
					return fmt.Errorf("platform %q: feature %q requires unknown action %q", p.ID, f.ID, r)
				}
			}
		}
		if err := p.checkAcyclic(); err != nil {
			return err
		}
	}
	return nil
}

// checkAcyclic runs a DFS over the requires relation, treating a family as requiring
// nothing and each variant as reachable through its family.
func (p *Platform) checkAcyclic() error {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int)

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		switch color[id] {
		case grey:
			return fmt.Errorf("platform %q: dependency cycle %s", p.ID, strings.Join(append(path, id), " -> "))
		case black:
			return nil
		}
		color[id] = grey
		for _, next := range p.requiresOf(id) {
			if err := visit(next, append(path, id)); err != nil {
				return err
			}
		}
		color[id] = black
		return nil
	}

	for _, f := range p.Features {
		if err := visit(f.ID, nil); err != nil {
			return err
		}
	}
	return nil
}

// requiresOf expands a requirement on a family to all of its variants.
func (p *Platform) requiresOf(id string) []string {
	if _, ok := p.Family(id); ok {
		return p.Variants(id)
	}
	f, ok := p.Feature(id)
	if !ok {
		return nil
	}
	return f.Requires
}

// Platform returns the platform with the given id.
func (c *Catalog) Platform(id string) (*Platform, bool) {
	for i := range c.Platforms {
		if c.Platforms[i].ID == id {
			return &c.Platforms[i], true
		}
	}
	return nil, false
}

// PlatformIDs returns all platform ids in catalog order.
func (c *Catalog) PlatformIDs() []string {
	ids := make([]string, len(c.Platforms))
	for i, p := range c.Platforms {
		ids[i] = p.ID
	}
	return ids
}

// Label returns the display label of a platform, or the id itself.
func (c *Catalog) Label(platform string) string {
	if p, ok := c.Platform(platform); ok && p.Label != "" {
		return p.Label
	}
	return platform
}

// MatchPlatforms finds every platform mentioned in text, ordered by first mention.
func (c *Catalog) MatchPlatforms(text string) []string {
	lower := " " + normalize(text) + " "
	type hit struct {
		id  string
		pos int
	}
	var hits []hit
	for _, p := range c.Platforms {
		best := -1
		for _, term := range append([]string{p.ID, p.Label}, p.Keywords...) {
			t := normalize(term)
			if t == "" {
				continue
			}
			if pos := strings.Index(lower, " "+t+" "); pos >= 0 && (best < 0 || pos < best) {
				best = pos
			}
		}
		if best >= 0 {
			hits = append(hits, hit{id: p.ID, pos: best})
		}
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return a.pos - b.pos })
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids
}

// DelayChoices returns the delay choices, falling back to "No delay" only.
func (c *Catalog) DelayChoices() []string {
	if len(c.Delays) == 0 {
		return []string{"No delay"}
	}
	return slices.Clone(c.Delays)
}

// Feature returns the feature with the given id.
func (p *Platform) Feature(id string) (Feature, bool) {
	for _, f := range p.Features {
		if f.ID == id {
			return f, true
		}
	}
	return Feature{}, false
}

// Family returns the variant family with the given id.
func (p *Platform) Family(id string) (Family, bool) {
	for _, f := range p.Families {
		if f.ID == id {
			return f, true
		}
	}
	return Family{}, false
}

// Known reports whether id is a feature or a family of the platform.
func (p *Platform) Known(id string) bool {
	if _, ok := p.Feature(id); ok {
		return true
	}
	_, ok := p.Family(id)
	return ok
}

// Variants returns the concrete features of a family, in catalog order.
func (p *Platform) Variants(family string) []string {
	var ids []string
	for _, f := range p.Features {
		if f.VariantOf == family {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// FamilyOf returns the family id of a feature, or "" if it is not a variant.
func (p *Platform) FamilyOf(id string) string {
	if _, ok := p.Family(id); ok {
		return id
	}
	f, ok := p.Feature(id)
	if !ok {
		return ""
	}
	return f.VariantOf
}

// LabelOf returns the display label of a feature or family.
func (p *Platform) LabelOf(id string) string {
	if f, ok := p.Feature(id); ok {
		return f.Label
	}
	if f, ok := p.Family(id); ok {
		return f.Label
	}
	return id
}

// Rules returns the dependency rules of the platform, in catalog order.
func (p *Platform) Rules() []Rule {
	rules := make([]Rule, 0, len(p.Features))
	for _, f := range p.Features {
		rules = append(rules, Rule{
			Platform:  p.ID,
			Action:    f.ID,
			Requires:  slices.Clone(f.Requires),
			VariantOf: f.VariantOf,
		})
	}
	return rules
}

// MatchFeature resolves an option label or id to a feature or family id.
func (p *Platform) MatchFeature(text string) (string, bool) {
	t := normalize(text)
	if t == "" {
		return "", false
	}
	for _, f := range p.Features {
		if normalize(f.ID) == t || normalize(f.Label) == t {
			return f.ID, true
		}
	}
	for _, f := range p.Families {
		if normalize(f.ID) == t || normalize(f.Label) == t {
			return f.ID, true
		}
	}
	return "", false
}

// OptionLabels returns the labels of all features in catalog order.
func (p *Platform) OptionLabels() []string {
	labels := make([]string, 0, len(p.Features))
	for _, f := range p.Features {
		labels = append(labels, f.Label)
	}
	return labels
}

// SortByOrder orders feature ids by catalog precedence, ties broken by catalog position.
// Unknown ids keep their relative order at the end.
func (p *Platform) SortByOrder(ids []string) []string {
	position := make(map[string]int, len(p.Features))
	order := make(map[string]int, len(p.Features))
	for i, f := range p.Features {
		position[f.ID] = i
		order[f.ID] = f.Order
	}
	out := slices.Clone(ids)
	slices.SortStableFunc(out, func(a, b string) int {
		_, okA := position[a]
		_, okB := position[b]
		switch {
		case okA && !okB:
			return -1
		case !okA && okB:
			return 1
		case !okA && !okB:
			return 0
		}
		if order[a] != order[b] {
			return order[a] - order[b]
		}
		return position[a] - position[b]
	})
	return out
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ", ",", " ", ".", " ", "!", " ", "?", " ", "(", " ", ")", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
