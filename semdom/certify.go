package semdom

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Level is the discrete certification grade.
type Level uint8

const (
	LevelNone Level = iota
	LevelBasic
	LevelStandard
	LevelAdvanced
	LevelFull
)

var levelNames = [...]string{"none", "basic", "standard", "advanced", "full"}

// ParseLevel returns the level with the given name.
func ParseLevel(s string) (Level, error) {
	for i, n := range levelNames {
		if n == s {
			return Level(i), nil
		}
	}
	return LevelNone, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "Level(" + strconv.Itoa(int(l)) + ")"
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// LevelForScore maps a 0-100 score to its level.
func LevelForScore(score int) Level {
	switch {
	case score >= 90:
		return LevelFull
	case score >= 80:
		return LevelAdvanced
	case score >= 70:
		return LevelStandard
	case score >= 50:
		return LevelBasic
	}
	return LevelNone
}

// Severity grades a failed check.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

var severityNames = [...]string{"info", "warning", "error", "critical"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "Severity(" + strconv.Itoa(int(s)) + ")"
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(b []byte) error {
	for i, n := range severityNames {
		if n == string(b) {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("semdom: unknown severity %q", b)
}

// Category groups checks.
type Category string

const (
	CategoryStructure        Category = "structure"
	CategoryAccessibility    Category = "accessibility"
	CategoryNavigation       Category = "navigation"
	CategoryState            Category = "state"
	CategoryInteroperability Category = "interoperability"
)

// ScoringMode selects how failures turn into a score.
type ScoringMode uint8

const (
	// ScoreRatio is round(100 * passed / total).
	ScoreRatio ScoringMode = iota
	// ScoreWeighted starts from the ratio score and deducts per failure by
	// severity, floored at zero.
	ScoreWeighted
)

// ParseScoringMode accepts "ratio", "weighted" and "" (ratio).
func ParseScoringMode(s string) (ScoringMode, error) {
	switch strings.ToLower(s) {
	case "", "ratio":
		return ScoreRatio, nil
	case "weighted":
		return ScoreWeighted, nil
	}
	return ScoreRatio, fmt.Errorf("%w: %q", ErrUnknownScoring, s)
}

func (m ScoringMode) String() string {
	if m == ScoreWeighted {
		return "weighted"
	}
	return "ratio"
}

func (m ScoringMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *ScoringMode) UnmarshalText(b []byte) error {
	v, err := ParseScoringMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// severityDeduction is the weighted-mode penalty per failure.
var severityDeduction = [...]int{
	SeverityInfo:     0,
	SeverityWarning:  5,
	SeverityError:    15,
	SeverityCritical: 25,
}

// Check is a passed check.
type Check struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

// Failure is a failed check with the nodes that caused it.
type Failure struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Nodes    []string `json:"nodes,omitempty"`
}

// CategoryResult counts passed checks within a category.
type CategoryResult struct {
	Passed int `json:"passed"`
	Total  int `json:"total"`
}

// Certification is the readiness grade of a Document.
type Certification struct {
	Level      Level                       `json:"level"`
	Score      int                         `json:"score"`
	Mode       ScoringMode                 `json:"mode"`
	Checks     []Check                     `json:"checks"`
	Failures   []Failure                   `json:"failures"`
	Categories map[Category]CategoryResult `json:"categories"`
}

// Passed reports whether the check with the given id passed.
func (c *Certification) Passed(id string) bool {
	for _, ch := range c.Checks {
		if ch.ID == id {
			return true
		}
	}
	return false
}

// Failure returns the failure record for a check id.
func (c *Certification) Failure(id string) (Failure, bool) {
	for _, f := range c.Failures {
		if f.ID == id {
			return f, true
		}
	}
	return Failure{}, false
}

// HasErrors reports whether any failure is error or critical.
func (c *Certification) HasErrors() bool {
	for _, f := range c.Failures {
		if f.Severity >= SeverityError {
			return true
		}
	}
	return false
}

// Total returns the number of checks run.
func (c *Certification) Total() int { return len(c.Checks) + len(c.Failures) }

// RatioScore is round(100 * passed / total), zero when total is zero.
func RatioScore(passed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(passed) / float64(total)))
}

// WeightedScore deducts per-severity penalties from the ratio score.
func WeightedScore(passed, total int, failures []Failure) int {
	score := RatioScore(passed, total)
	for _, f := range failures {
		if int(f.Severity) < len(severityDeduction) {
			score -= severityDeduction[f.Severity]
		}
	}
	return max(score, 0)
}

const (
	stateCoverageMin  = 0.80
	intentCoverageMin = 0.70
)

// certifyInput is what the checks look at.
type certifyInput struct {
	nodes         []*Node // pre-order
	landmarks     []*Node
	interactables []*Node
	// tables holds the synthesized transition table of each stateful node,
	// independent of whether the graph is attached to the Document.
	tables     map[string]*SSGNode
	duplicates [][]string
}

type certifier struct {
	out Certification
}

func (c *certifier) record(id, name string, cat Category, ok bool, sev Severity, msg string, nodes []string) {
	r := c.out.Categories[cat]
	r.Total++
	if ok {
		r.Passed++
		c.out.Checks = append(c.out.Checks, Check{ID: id, Name: name, Category: cat})
	} else {
		c.out.Failures = append(c.out.Failures, Failure{
			ID: id, Name: name, Category: cat,
			Message: msg, Severity: sev, Nodes: nodes,
		})
	}
	c.out.Categories[cat] = r
}

// certify runs the nine checks in a fixed order.
func certify(in certifyInput, mode ScoringMode) Certification {
	c := &certifier{}
	c.out.Mode = mode
	c.out.Checks = []Check{}
	c.out.Failures = []Failure{}
	c.out.Categories = make(map[Category]CategoryResult, 5)

	// Structure
	c.record("landmarks", "Page has landmark regions", CategoryStructure,
		len(in.landmarks) >= 1, SeverityError,
		"no landmark regions (main, navigation, banner, ...)", nil)
	c.record("multiple-landmarks", "Page has at least two landmarks", CategoryStructure,
		len(in.landmarks) >= 2, SeverityWarning,
		fmt.Sprintf("%d landmark region(s), want at least 2", len(in.landmarks)), nil)

	// Accessibility
	var unnamed []string
	for _, n := range in.interactables {
		if n.A11y.Name == "" {
			unnamed = append(unnamed, n.ID)
		}
	}
	c.record("accessible-names", "Interactive elements have accessible names", CategoryAccessibility,
		len(unnamed) == 0, SeverityError,
		fmt.Sprintf("%d interactive element(s) lack an accessible name", len(unnamed)), unnamed)

	var skipped []string
	prev := 0
	for _, n := range in.nodes {
		if n.Role != RoleHeading || n.Placeholder || n.A11y.Level == nil {
			continue
		}
		lvl := *n.A11y.Level
		if prev > 0 && lvl > prev+1 {
			skipped = append(skipped, n.ID)
		}
		prev = lvl
	}
	c.record("heading-hierarchy", "Heading levels do not skip", CategoryAccessibility,
		len(skipped) == 0, SeverityWarning,
		fmt.Sprintf("%d heading(s) skip a level", len(skipped)), skipped)

	// Navigation
	focusable := false
	for _, n := range in.nodes {
		if n.A11y.Focusable && n.A11y.InTabOrder {
			focusable = true
			break
		}
	}
	c.record("focusable", "Page has keyboard-reachable elements", CategoryNavigation,
		focusable, SeverityError, "no focusable element in tab order", nil)

	var dupNodes []string
	for _, ids := range in.duplicates {
		dupNodes = append(dupNodes, ids...)
	}
	c.record("unique-ids", "Explicit ids are unique", CategoryNavigation,
		len(in.duplicates) == 0, SeverityCritical,
		fmt.Sprintf("%d explicit id(s) used more than once", len(in.duplicates)), dupNodes)

	var noSelector []string
	for _, n := range in.nodes {
		if n.Selector == "" {
			noSelector = append(noSelector, n.ID)
		}
	}
	c.record("selectors", "Every node has a selector", CategoryNavigation,
		len(noSelector) == 0, SeverityWarning,
		fmt.Sprintf("%d node(s) without a selector", len(noSelector)), noSelector)

	// State
	var uncovered []string
	for _, n := range in.interactables {
		if g, ok := in.tables[n.ID]; !ok || len(g.Transitions) == 0 {
			uncovered = append(uncovered, n.ID)
		}
	}
	c.record("state-coverage", "Interactive elements define state transitions", CategoryState,
		coverage(len(in.interactables), len(uncovered)) >= stateCoverageMin, SeverityWarning,
		fmt.Sprintf("%d of %d interactive element(s) without transitions", len(uncovered), len(in.interactables)),
		uncovered)

	// Interoperability
	var noIntent []string
	for _, n := range in.interactables {
		if n.Intent == IntentNone {
			noIntent = append(noIntent, n.ID)
		}
	}
	c.record("intent-coverage", "Interactive elements carry an intent", CategoryInteroperability,
		coverage(len(in.interactables), len(noIntent)) >= intentCoverageMin, SeverityInfo,
		fmt.Sprintf("%d of %d interactive element(s) without an intent", len(noIntent), len(in.interactables)),
		noIntent)

	passed, total := len(c.out.Checks), c.out.Total()
	switch mode {
	case ScoreWeighted:
		c.out.Score = WeightedScore(passed, total, c.out.Failures)
	default:
		c.out.Score = RatioScore(passed, total)
	}
	c.out.Level = LevelForScore(c.out.Score)
	return c.out
}

// coverage is the satisfied fraction; an empty population is fully covered.
func coverage(total, missing int) float64 {
	if total == 0 {
		return 1
	}
	return float64(total-missing) / float64(total)
}
