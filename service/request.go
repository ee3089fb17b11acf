package service

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/hazyhaar/semdom/semdom"
)

// ErrBadRequest wraps argument errors from tools and routes.
var ErrBadRequest = errors.New("service: bad request")

// QueryRequest is the wire form of a semdom query. Names are the lower-case
// role, intent and state names.
type QueryRequest struct {
	Roles       []string `json:"roles,omitempty"`
	Intents     []string `json:"intents,omitempty"`
	States      []string `json:"states,omitempty"`
	Text        string   `json:"text,omitempty"`
	Pattern     string   `json:"pattern,omitempty"`
	Interactive bool     `json:"interactive,omitempty"`
	Visible     bool     `json:"visible,omitempty"`
	Focusable   bool     `json:"focusable,omitempty"`
	Shallow     bool     `json:"shallow,omitempty"`
	// Under roots the query at a node id instead of the document root.
	Under string `json:"under,omitempty"`
	// Limit caps the result; nil means unbounded.
	Limit *int `json:"limit,omitempty"`
}

func (q QueryRequest) options() ([]semdom.QueryOption, error) {
	var opts []semdom.QueryOption
	if len(q.Roles) > 0 {
		roles := make([]semdom.Role, 0, len(q.Roles))
		for _, name := range q.Roles {
			r, err := semdom.ParseRole(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
			}
			roles = append(roles, r)
		}
		opts = append(opts, semdom.Roles(roles...))
	}
	if len(q.Intents) > 0 {
		intents := make([]semdom.Intent, 0, len(q.Intents))
		for _, name := range q.Intents {
			i, err := semdom.ParseIntent(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
			}
			intents = append(intents, i)
		}
		opts = append(opts, semdom.Intents(intents...))
	}
	if len(q.States) > 0 {
		states := make([]semdom.State, 0, len(q.States))
		for _, name := range q.States {
			st, err := semdom.ParseState(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
			}
			states = append(states, st)
		}
		opts = append(opts, semdom.States(states...))
	}
	if q.Text != "" {
		opts = append(opts, semdom.Containing(q.Text))
	}
	if q.Pattern != "" {
		re, err := regexp.Compile(q.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern: %w", ErrBadRequest, err)
		}
		opts = append(opts, semdom.Matching(re))
	}
	if q.Interactive {
		opts = append(opts, semdom.InteractiveOnly())
	}
	if q.Visible {
		opts = append(opts, semdom.VisibleOnly())
	}
	if q.Focusable {
		opts = append(opts, semdom.FocusableOnly())
	}
	if q.Shallow {
		opts = append(opts, semdom.Shallow())
	}
	if q.Limit != nil {
		if *q.Limit < 0 {
			return nil, fmt.Errorf("%w: negative limit", ErrBadRequest)
		}
		opts = append(opts, semdom.Limit(*q.Limit))
	}
	return opts, nil
}

// NavigateRequest is the wire form of a navigation.
type NavigateRequest struct {
	From          string        `json:"from"`
	Direction     string        `json:"direction"`
	Wrap          bool          `json:"wrap,omitempty"`
	SkipHidden    bool          `json:"skip_hidden,omitempty"`
	FocusableOnly bool          `json:"focusable_only,omitempty"`
	Filter        *QueryRequest `json:"filter,omitempty"`
}

func (n NavigateRequest) options() (semdom.NavigateOptions, error) {
	dir, err := semdom.ParseDirection(n.Direction)
	if err != nil {
		return semdom.NavigateOptions{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	opts := semdom.NavigateOptions{
		Direction:     dir,
		Wrap:          n.Wrap,
		SkipHidden:    n.SkipHidden,
		FocusableOnly: n.FocusableOnly,
	}
	if n.Filter != nil {
		f := *n.Filter
		f.Limit, f.Shallow, f.Under = nil, false, ""
		if opts.Filter, err = f.options(); err != nil {
			return semdom.NavigateOptions{}, err
		}
	}
	return opts, nil
}

// NodeView is a node without its subtree.
type NodeView struct {
	ID       string   `json:"id"`
	Role     string   `json:"role"`
	Label    string   `json:"label,omitempty"`
	Intent   string   `json:"intent,omitempty"`
	State    string   `json:"state"`
	Selector string   `json:"selector"`
	Href     string   `json:"href,omitempty"`
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children,omitempty"`
}

// View flattens n to its wire form.
func View(n *semdom.Node) NodeView {
	v := NodeView{
		ID:       n.ID,
		Role:     n.Role.String(),
		Label:    n.Label,
		Intent:   n.Intent.String(),
		State:    n.State.String(),
		Selector: n.Selector,
		Href:     n.Href,
		Parent:   n.Parent,
	}
	for _, c := range n.Children {
		v.Children = append(v.Children, c.ID)
	}
	return v
}

func Views(nodes []*semdom.Node) []NodeView {
	out := make([]NodeView, len(nodes))
	for i, n := range nodes {
		out[i] = View(n)
	}
	return out
}
