package semdom

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRole_RoundTripNames(t *testing.T) {
	for r := Role(0); r < roleCount; r++ {
		got, err := ParseRole(r.String())
		if err != nil || got != r {
			t.Fatalf("ParseRole(%q) = %v, %v", r.String(), got, err)
		}
		if r.Abbrev() == "" {
			t.Fatalf("%s has no id abbreviation", r)
		}
	}
	if _, err := ParseRole("bogus-role"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("bogus role: %v", err)
	}
}

func TestRole_Sets(t *testing.T) {
	landmarks := 0
	interactive := 0
	for r := Role(0); r < roleCount; r++ {
		if r.IsLandmark() {
			landmarks++
		}
		if r.IsInteractive() {
			interactive++
		}
		if r.IsLandmark() && r.IsInteractive() {
			t.Fatalf("%s is both landmark and interactive", r)
		}
	}
	if landmarks != 8 || interactive != 14 {
		t.Fatalf("landmarks %d, interactive %d", landmarks, interactive)
	}
}

func TestEnums_Parse(t *testing.T) {
	if in, err := ParseIntent(""); err != nil || in != IntentNone {
		t.Fatalf("empty intent: %v %v", in, err)
	}
	if _, err := ParseIntent("explode"); !errors.Is(err, ErrUnknownIntent) {
		t.Fatalf("bad intent: %v", err)
	}
	if s, err := ParseState("indeterminate"); err != nil || s != StateIndeterminate {
		t.Fatalf("state: %v %v", s, err)
	}
	if d, err := ParseDirection("previous-sibling"); err != nil || d != PreviousSibling {
		t.Fatalf("direction: %v %v", d, err)
	}
	if _, err := ParseDirection("sideways"); !errors.Is(err, ErrUnknownDirection) {
		t.Fatalf("bad direction: %v", err)
	}
	if l, err := ParseLevel("advanced"); err != nil || l != LevelAdvanced {
		t.Fatalf("level: %v %v", l, err)
	}
}

func TestNode_JSON(t *testing.T) {
	lvl := 2
	n := Node{
		ID:     "sdom-btn-1-abcde",
		Role:   RoleCheckbox,
		Label:  "Agree",
		Intent: IntentToggle,
		State:  StateChecked,
		A11y:   A11y{Name: "Agree", Focusable: true, InTabOrder: true, Level: &lvl},
		Value:  BoolValue(true),
		Tag:    "input",
	}
	b, err := json.Marshal(n)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["role"] != "checkbox" || raw["intent"] != "toggle" || raw["state"] != "checked" || raw["value"] != true {
		t.Fatalf("json: %s", b)
	}
	if _, ok := raw["flags"]; ok {
		t.Fatalf("zero flags must be omitted: %s", b)
	}

	var back Node
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back.Role != RoleCheckbox || back.Value == nil || !back.Value.Bool || *back.A11y.Level != 2 {
		t.Fatalf("decoded: %+v", back)
	}
}
