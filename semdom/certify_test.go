package semdom

import "testing"

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		score int
		want  Level
	}{
		{100, LevelFull}, {90, LevelFull}, {89, LevelAdvanced}, {80, LevelAdvanced},
		{79, LevelStandard}, {70, LevelStandard}, {69, LevelBasic}, {50, LevelBasic},
		{49, LevelNone}, {0, LevelNone},
	}
	for _, tt := range tests {
		if got := LevelForScore(tt.score); got != tt.want {
			t.Errorf("LevelForScore(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
	prev := LevelNone
	for s := 0; s <= 100; s++ {
		l := LevelForScore(s)
		if l < prev {
			t.Fatalf("level decreased at score %d", s)
		}
		prev = l
	}
}

func TestRatioScore_Monotonic(t *testing.T) {
	for total := 1; total <= 12; total++ {
		for passed := 0; passed < total; passed++ {
			a := RatioScore(passed, total)
			b := RatioScore(passed+1, total+1)
			if b < a {
				t.Fatalf("adding a passing check lowered score: %d/%d=%d, %d/%d=%d",
					passed, total, a, passed+1, total+1, b)
			}
		}
	}
	if RatioScore(7, 9) != 78 {
		t.Fatalf("RatioScore(7, 9) = %d", RatioScore(7, 9))
	}
	if RatioScore(0, 0) != 0 {
		t.Fatal("empty check set must score 0")
	}
}

func TestWeightedScore(t *testing.T) {
	failures := []Failure{
		{Severity: SeverityCritical},
		{Severity: SeverityWarning},
		{Severity: SeverityInfo},
	}
	// ratio 6/9 = 67, minus 25 + 5 + 0
	if got := WeightedScore(6, 9, failures); got != 37 {
		t.Fatalf("weighted: got %d, want 37", got)
	}
	many := make([]Failure, 10)
	for i := range many {
		many[i].Severity = SeverityCritical
	}
	if got := WeightedScore(0, 10, many); got != 0 {
		t.Fatalf("floor: got %d", got)
	}
}

func TestCertify_EmptyPage(t *testing.T) {
	doc := parse(t, `<div>just text</div>`, Config{})
	c := doc.Certification

	if c.Total() != 9 {
		t.Fatalf("checks run: %d, want 9", c.Total())
	}
	// landmarks, multiple-landmarks and focusable fail; the ratio checks
	// pass vacuously with no interactive nodes.
	for _, id := range []string{"landmarks", "multiple-landmarks", "focusable"} {
		if c.Passed(id) {
			t.Errorf("%s: expected failure", id)
		}
	}
	for _, id := range []string{"accessible-names", "state-coverage", "intent-coverage", "unique-ids", "selectors", "heading-hierarchy"} {
		if !c.Passed(id) {
			t.Errorf("%s: expected pass", id)
		}
	}
	if c.Score != 67 || c.Level != LevelBasic {
		t.Fatalf("score %d level %s", c.Score, c.Level)
	}
	if !c.HasErrors() {
		t.Fatal("missing landmarks is an error")
	}
	if got := c.Categories[CategoryStructure]; got.Passed != 0 || got.Total != 2 {
		t.Fatalf("structure category: %+v", got)
	}
	if got := c.Categories[CategoryNavigation]; got.Passed != 2 || got.Total != 3 {
		t.Fatalf("navigation category: %+v", got)
	}
}

func TestCertify_AccessibleNamesListsOffenders(t *testing.T) {
	doc := parse(t, `<main><button></button><input type="text"><a href="/">ok</a></main>`, Config{})
	f, ok := doc.Certification.Failure("accessible-names")
	if !ok {
		t.Fatal("expected accessible-names failure")
	}
	if f.Severity != SeverityError || len(f.Nodes) != 2 {
		t.Fatalf("failure: %+v", f)
	}
}

func TestCertify_IntentCoverage(t *testing.T) {
	// Sliders have no intent heuristic: three of four nodes lack one.
	doc := parse(t, `<main><nav>
<div role="slider" tabindex="0" aria-label="a"></div>
<div role="slider" tabindex="0" aria-label="b"></div>
<div role="slider" tabindex="0" aria-label="c"></div>
<a href="/">d</a></nav></main>`, Config{})
	f, ok := doc.Certification.Failure("intent-coverage")
	if !ok {
		t.Fatal("expected intent-coverage failure")
	}
	if f.Severity != SeverityInfo || len(f.Nodes) != 3 {
		t.Fatalf("failure: %+v", f)
	}
}

func TestCertify_WeightedMode(t *testing.T) {
	doc := parse(t, `<div id="dup">a</div><div id="dup">b</div>`, Config{Scoring: "weighted"})
	c := doc.Certification
	if c.Mode != ScoreWeighted {
		t.Fatalf("mode: %s", c.Mode)
	}
	// 5 of 9 pass (56); minus error 15 (landmarks), warning 5, error 15
	// (focusable), critical 25.
	if c.Score != 0 || c.Level != LevelNone {
		t.Fatalf("score %d level %s", c.Score, c.Level)
	}
	if c.Level != LevelForScore(c.Score) {
		t.Fatal("level must follow score")
	}
}
