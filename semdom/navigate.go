package semdom

// NavigateOptions selects a direction and filters candidates.
type NavigateOptions struct {
	Direction Direction
	// Filter candidates with query predicates. Limit and Shallow are ignored.
	Filter []QueryOption
	// Wrap continues past either end for Next, Previous and the sibling
	// directions.
	Wrap          bool
	SkipHidden    bool
	FocusableOnly bool
}

// Navigate moves from the node with the given id. It returns false when the
// id is unknown, there is no parent, or no candidate satisfies the filter.
func (d *Document) Navigate(id string, opts NavigateOptions) (*Node, bool) {
	cur, ok := d.index[id]
	if !ok {
		return nil, false
	}
	q := newQuery(opts.Filter)
	accept := func(n *Node) bool {
		if opts.SkipHidden && !n.Visible() {
			return false
		}
		if opts.FocusableOnly && !n.A11y.Focusable {
			return false
		}
		return q.match(n)
	}

	switch opts.Direction {
	case Next, Previous, First, Last:
		// Recomputed on every call; Documents are small and rebuilt per parse.
		flat := d.Nodes()
		pos := indexOf(flat, cur)
		switch opts.Direction {
		case First:
			return scan(flat, 0, len(flat), 1, accept)
		case Last:
			return scan(flat, len(flat)-1, -1, -1, accept)
		case Next:
			return around(flat, pos, 1, opts.Wrap, accept)
		default:
			return around(flat, pos, -1, opts.Wrap, accept)
		}

	case Parent:
		p, ok := d.index[cur.Parent]
		if !ok || !accept(p) {
			return nil, false
		}
		return p, true

	case FirstChild:
		return scan(cur.Children, 0, len(cur.Children), 1, accept)
	case LastChild:
		return scan(cur.Children, len(cur.Children)-1, -1, -1, accept)

	case NextSibling, PreviousSibling:
		p, ok := d.index[cur.Parent]
		if !ok {
			return nil, false
		}
		dir := 1
		if opts.Direction == PreviousSibling {
			dir = -1
		}
		return around(p.Children, indexOf(p.Children, cur), dir, opts.Wrap, accept)
	}
	return nil, false
}

func indexOf(nodes []*Node, n *Node) int {
	for i, c := range nodes {
		if c == n {
			return i
		}
	}
	return -1
}

// scan walks nodes[from] toward (exclusive) to in steps of dir.
func scan(nodes []*Node, from, to, dir int, accept func(*Node) bool) (*Node, bool) {
	for i := from; i != to; i += dir {
		if accept(nodes[i]) {
			return nodes[i], true
		}
	}
	return nil, false
}

// around looks past pos in direction dir and, with wrap, continues from the
// other end up to (not including) pos.
func around(nodes []*Node, pos, dir int, wrap bool, accept func(*Node) bool) (*Node, bool) {
	if pos < 0 {
		return nil, false
	}
	if dir > 0 {
		if n, ok := scan(nodes, pos+1, len(nodes), 1, accept); ok || !wrap {
			return n, ok
		}
		return scan(nodes, 0, pos, 1, accept)
	}
	if n, ok := scan(nodes, pos-1, -1, -1, accept); ok || !wrap {
		return n, ok
	}
	return scan(nodes, len(nodes)-1, pos, -1, accept)
}
