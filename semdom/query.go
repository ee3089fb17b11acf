package semdom

import (
	"regexp"
	"slices"
	"strings"
)

// QueryOption narrows a query. Options of the same kind accumulate.
type QueryOption func(*query)

type query struct {
	roles      []Role
	intents    []Intent
	states     []State
	containing []string
	patterns   []*regexp.Regexp
	where      []func(*Node) bool

	interactive bool
	visible     bool
	focusable   bool
	shallow     bool

	limited bool
	limit   int
}

// Roles matches nodes whose role is any of rs.
func Roles(rs ...Role) QueryOption {
	return func(q *query) { q.roles = append(q.roles, rs...) }
}

// Intents matches nodes whose intent is any of is.
func Intents(is ...Intent) QueryOption {
	return func(q *query) { q.intents = append(q.intents, is...) }
}

// States matches nodes whose state is any of ss.
func States(ss ...State) QueryOption {
	return func(q *query) { q.states = append(q.states, ss...) }
}

// Containing matches labels containing text, case-insensitively.
func Containing(text string) QueryOption {
	return func(q *query) { q.containing = append(q.containing, strings.ToLower(text)) }
}

// Matching matches labels against re.
func Matching(re *regexp.Regexp) QueryOption {
	return func(q *query) { q.patterns = append(q.patterns, re) }
}

// Where adds a custom predicate.
func Where(fn func(*Node) bool) QueryOption {
	return func(q *query) { q.where = append(q.where, fn) }
}

// InteractiveOnly matches user-operable nodes.
func InteractiveOnly() QueryOption { return func(q *query) { q.interactive = true } }

// VisibleOnly skips hidden nodes.
func VisibleOnly() QueryOption { return func(q *query) { q.visible = true } }

// FocusableOnly matches focusable nodes.
func FocusableOnly() QueryOption { return func(q *query) { q.focusable = true } }

// Shallow inspects only the direct children of the query root.
func Shallow() QueryOption { return func(q *query) { q.shallow = true } }

// Limit stops the walk after k matches. Limit(0) matches nothing.
func Limit(k int) QueryOption {
	return func(q *query) {
		q.limited = true
		q.limit = max(k, 0)
	}
}

func newQuery(opts []QueryOption) *query {
	q := &query{}
	for _, o := range opts {
		o(q)
	}
	return q
}

// match applies every predicate but not limit or shallow.
func (q *query) match(n *Node) bool {
	if len(q.roles) > 0 && !slices.Contains(q.roles, n.Role) {
		return false
	}
	if len(q.intents) > 0 && !slices.Contains(q.intents, n.Intent) {
		return false
	}
	if len(q.states) > 0 && !slices.Contains(q.states, n.State) {
		return false
	}
	if q.interactive && !n.IsInteractive() {
		return false
	}
	if q.visible && !n.Visible() {
		return false
	}
	if q.focusable && !n.A11y.Focusable {
		return false
	}
	if len(q.containing) > 0 {
		label := strings.ToLower(n.Label)
		for _, c := range q.containing {
			if !strings.Contains(label, c) {
				return false
			}
		}
	}
	for _, re := range q.patterns {
		if !re.MatchString(n.Label) {
			return false
		}
	}
	for _, fn := range q.where {
		if !fn(n) {
			return false
		}
	}
	return true
}

// Query returns the nodes under root (root included) that match every
// option, in pre-order.
func Query(root *Node, opts ...QueryOption) []*Node {
	q := newQuery(opts)
	if root == nil || (q.limited && q.limit == 0) {
		return nil
	}
	var out []*Node
	visit := func(n *Node) bool {
		if q.match(n) {
			out = append(out, n)
			if q.limited && len(out) >= q.limit {
				return false
			}
		}
		return true
	}
	if q.shallow {
		for _, c := range root.Children {
			if !visit(c) {
				break
			}
		}
		return out
	}
	walk(root, visit)
	return out
}

// Query runs Query from the document root.
func (d *Document) Query(opts ...QueryOption) []*Node {
	return Query(d.Root, opts...)
}
