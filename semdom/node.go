package semdom

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hazyhaar/semdom/dom"
)

// Node is the semantic projection of one element.
type Node struct {
	ID       string    `json:"id"`
	Role     Role      `json:"role"`
	Label    string    `json:"label"`
	Intent   Intent    `json:"intent,omitempty"`
	State    State     `json:"state"`
	Flags    Flags     `json:"flags,omitzero"`
	Selector string    `json:"selector"`
	Path     string    `json:"path"`
	A11y     A11y      `json:"a11y"`
	Value    *Value    `json:"value,omitempty"`
	Bounds   *dom.Rect `json:"bounds,omitempty"`
	Href     string    `json:"href,omitempty"`
	Tag      string    `json:"tag"`
	Depth    int       `json:"depth"`
	// Placeholder marks an excluded or too-deep element that was kept for
	// shape only.
	Placeholder bool `json:"placeholder,omitempty"`
	// Parent is the id of the parent node, empty at the root.
	Parent   string  `json:"parent,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// Flags are auxiliary booleans independent of State.
type Flags struct {
	Disabled bool `json:"disabled,omitempty"`
	ReadOnly bool `json:"readonly,omitempty"`
	Required bool `json:"required,omitempty"`
}

// A11y is the accessibility summary of a node.
type A11y struct {
	Name       string `json:"name"`
	Focusable  bool   `json:"focusable"`
	InTabOrder bool   `json:"inTabOrder"`
	// Level is the heading level, nil for non-headings.
	Level *int `json:"level,omitempty"`
	// Live is "off", "polite" or "assertive"; empty when not a live region.
	Live     string `json:"live,omitempty"`
	PosInSet int    `json:"posInSet,omitempty"`
	SetSize  int    `json:"setSize,omitempty"`
}

// IsInteractive reports whether the node's role is user-operable.
func (n *Node) IsInteractive() bool { return n.Role.IsInteractive() }

// IsLandmark reports whether the node's role is a page region.
func (n *Node) IsLandmark() bool { return n.Role.IsLandmark() }

// Visible reports whether the node is not hidden.
func (n *Node) Visible() bool { return n.State != StateHidden }

// ValueKind discriminates Value.
type ValueKind uint8

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBool
)

// Value is a scalar carried by input-like elements.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
}

func StringValue(s string) *Value { return &Value{Kind: ValueString, Str: s} }
func NumberValue(f float64) *Value { return &Value{Kind: ValueNumber, Num: f} }
func BoolValue(b bool) *Value { return &Value{Kind: ValueBool, Bool: b} }

func (v *Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// MarshalJSON encodes the bare scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNumber:
		return json.Marshal(v.Num)
	case ValueBool:
		return json.Marshal(v.Bool)
	default:
		return json.Marshal(v.Str)
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case string:
		*v = Value{Kind: ValueString, Str: x}
	case float64:
		*v = Value{Kind: ValueNumber, Num: x}
	case bool:
		*v = Value{Kind: ValueBool, Bool: x}
	default:
		return fmt.Errorf("semdom: value must be a scalar, got %T", raw)
	}
	return nil
}
