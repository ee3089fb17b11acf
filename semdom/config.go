package semdom

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultMaxDepth is the deepest element that is fully classified.
const DefaultMaxDepth = 50

// DefaultIDPrefix prefixes every generated node id.
const DefaultIDPrefix = "sdom"

// DefaultExcludeTags are materialised as placeholders unless listed in
// Config.IncludeTags.
var DefaultExcludeTags = []string{"script", "style", "noscript", "template"}

// Config controls a Parser. The zero value is usable.
type Config struct {
	// DisableBounds skips geometry lookups even when the adapter offers them.
	DisableBounds bool `yaml:"disable_bounds"`
	// DisableStateGraph leaves Document.StateGraph empty.
	DisableStateGraph bool `yaml:"disable_state_graph"`
	// MaxDepth is the deepest depth (root = 0) that is classified. Zero means
	// DefaultMaxDepth; negative values are rejected.
	MaxDepth int `yaml:"max_depth"`
	// ExcludeTags replaces DefaultExcludeTags when non-empty.
	ExcludeTags []string `yaml:"exclude_tags"`
	// IncludeTags removes tags from the default exclusions. Listing a tag in
	// both IncludeTags and an explicit ExcludeTags is an error.
	IncludeTags []string `yaml:"include_tags"`
	// RoleOverrides maps a tag name to a role name.
	RoleOverrides map[string]string `yaml:"role_overrides"`
	// IntentOverrides maps a role name to an intent name.
	IntentOverrides map[string]string `yaml:"intent_overrides"`
	IDPrefix        string            `yaml:"id_prefix"`
	// DisableValidation skips certification; Document.Certification is the
	// zero value.
	DisableValidation bool `yaml:"disable_validation"`
	// TargetLevel is informational: it is copied onto the Document and
	// reported by MeetsTarget but never changes parsing.
	TargetLevel string `yaml:"target_level"`
	// Scoring selects "ratio" (default) or "weighted".
	Scoring string `yaml:"scoring"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.IDPrefix == "" {
		c.IDPrefix = DefaultIDPrefix
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// settings is a validated Config with names resolved to enum values.
type settings struct {
	cfg             Config
	excluded        map[string]bool
	roleOverrides   map[string]Role
	intentOverrides map[Role]Intent
	target          Level
	scoring         ScoringMode
}

func (c Config) compile() (*settings, error) {
	c.defaults()
	if c.MaxDepth < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxDepth, c.MaxDepth)
	}

	s := &settings{
		cfg:             c,
		excluded:        make(map[string]bool),
		roleOverrides:   make(map[string]Role, len(c.RoleOverrides)),
		intentOverrides: make(map[Role]Intent, len(c.IntentOverrides)),
	}

	include := make(map[string]bool, len(c.IncludeTags))
	for _, t := range c.IncludeTags {
		include[strings.ToLower(t)] = true
	}
	exclude := c.ExcludeTags
	explicit := len(exclude) > 0
	if !explicit {
		exclude = DefaultExcludeTags
	}
	for _, t := range exclude {
		t = strings.ToLower(t)
		if include[t] {
			if explicit {
				return nil, fmt.Errorf("%w: %q", ErrConflictingTags, t)
			}
			continue
		}
		s.excluded[t] = true
	}

	for tag, name := range c.RoleOverrides {
		r, err := ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("role override for <%s>: %w", tag, err)
		}
		s.roleOverrides[strings.ToLower(tag)] = r
	}
	for roleName, name := range c.IntentOverrides {
		r, err := ParseRole(roleName)
		if err != nil {
			return nil, fmt.Errorf("intent override key: %w", err)
		}
		in, err := ParseIntent(name)
		if err != nil {
			return nil, fmt.Errorf("intent override for %s: %w", roleName, err)
		}
		s.intentOverrides[r] = in
	}

	var err error
	if c.TargetLevel != "" {
		if s.target, err = ParseLevel(c.TargetLevel); err != nil {
			return nil, err
		}
	}
	if s.scoring, err = ParseScoringMode(c.Scoring); err != nil {
		return nil, err
	}
	return s, nil
}

// excludedTags returns the effective exclusion list, sorted.
func (s *settings) excludedTags() []string {
	out := make([]string, 0, len(s.excluded))
	for t := range s.excluded {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
