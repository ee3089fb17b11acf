package semdom

import (
	"github.com/hazyhaar/semdom/dom"
	"github.com/hazyhaar/semdom/idgen"
)

// builder holds the state of one walk. It is discarded once the Document
// is assembled.
type builder struct {
	s     *settings
	seq   *idgen.Sequence
	loc   locator
	index map[string]*Node

	// explicit source id -> node ids it produced, in claim order.
	claims     map[string][]string
	claimOrder []string

	placeholders int
}

func newBuilder(s *settings, root dom.Element, rnd idgen.Generator) *builder {
	return &builder{
		s:      s,
		seq:    idgen.NewSequence(s.cfg.IDPrefix, rnd),
		loc:    ancestry(root),
		index:  make(map[string]*Node),
		claims: make(map[string][]string),
	}
}

// build materialises el and its subtree. Ids are assigned before children
// are visited so each child can record its parent id.
func (b *builder) build(el dom.Element, parent string, depth int, st step) *Node {
	b.loc = append(b.loc, st)
	defer func() { b.loc = b.loc[:len(b.loc)-1] }()

	tag := el.Tag()
	n := &Node{
		Tag:      tag,
		Depth:    depth,
		Parent:   parent,
		Selector: b.loc.selector(),
		Path:     b.loc.path(),
	}

	if b.s.excluded[tag] || depth > b.s.cfg.MaxDepth {
		n.Role = RoleGeneric
		n.State = StateHidden
		n.Placeholder = true
		n.ID = b.assignID(el, RoleGeneric)
		b.index[n.ID] = n
		b.placeholders++
		return n
	}

	c := classify(el, b.s)
	n.Role = c.role
	n.Label = c.label
	n.Intent = c.intent
	n.State = c.state
	n.Flags = c.flags
	n.A11y = c.a11y
	n.Value = c.value
	n.Href = c.href
	if !b.s.cfg.DisableBounds {
		if r, ok := dom.BoundsOf(el); ok {
			n.Bounds = &r
		}
	}
	n.ID = b.assignID(el, c.role)
	b.index[n.ID] = n

	kids := el.Children()
	if len(kids) == 0 {
		return n
	}
	total := make(map[string]int, len(kids))
	for _, k := range kids {
		total[k.Tag()]++
	}
	seen := make(map[string]int, len(total))
	n.Children = make([]*Node, 0, len(kids))
	for _, k := range kids {
		t := k.Tag()
		seen[t]++
		child := b.build(k, n.ID, depth+1, newStep(k, seen[t], total[t]))
		n.Children = append(n.Children, child)
	}
	return n
}

// assignID prefers data-agent-id, then id, then a generated id.
func (b *builder) assignID(el dom.Element, role Role) string {
	for _, attr := range [...]string{"data-agent-id", "id"} {
		v := collapse(dom.AttrOr(el, attr))
		if v == "" {
			continue
		}
		id, _ := b.seq.Claim(v)
		if _, ok := b.claims[v]; !ok {
			b.claimOrder = append(b.claimOrder, v)
		}
		b.claims[v] = append(b.claims[v], id)
		return id
	}
	return b.seq.Next(role.Abbrev())
}

// duplicates returns, for every explicit id claimed more than once, the
// node ids it produced. Source ids appear in first-claim order.
func (b *builder) duplicates() [][]string {
	var out [][]string
	for _, v := range b.claimOrder {
		if ids := b.claims[v]; len(ids) > 1 {
			out = append(out, ids)
		}
	}
	return out
}
