package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLDocument adapts a parsed golang.org/x/net/html tree.
// Indexes are built once at construction; the tree is never modified.
type HTMLDocument struct {
	node   *html.Node // the DocumentNode (or topmost node of a detached tree)
	byID   map[string]*html.Node
	labels map[string][]*html.Node
}

// Parse reads HTML from r and wraps the resulting tree.
func Parse(r io.Reader) (*HTMLDocument, error) {
	n, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return FromNode(n), nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*HTMLDocument, error) {
	return Parse(strings.NewReader(s))
}

// FromNode wraps an already-parsed tree. Any node of the tree may be passed;
// the adapter climbs to the top before indexing.
func FromNode(n *html.Node) *HTMLDocument {
	for n.Parent != nil {
		n = n.Parent
	}
	d := &HTMLDocument{
		node:   n,
		byID:   make(map[string]*html.Node),
		labels: make(map[string][]*html.Node),
	}
	d.index(n)
	return d
}

func (d *HTMLDocument) index(n *html.Node) {
	if n.Type == html.ElementNode {
		if id := getAttr(n, "id"); id != "" {
			if _, seen := d.byID[id]; !seen {
				d.byID[id] = n
			}
		}
		if n.DataAtom == atom.Label {
			if target := getAttr(n, "for"); target != "" {
				d.labels[target] = append(d.labels[target], n)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.index(c)
	}
}

// Wrap returns the Element view of n, or nil when n is not an element.
func (d *HTMLDocument) Wrap(n *html.Node) Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	return &htmlElement{n: n, doc: d}
}

// Root returns the <html> element.
func (d *HTMLDocument) Root() Element {
	return d.Wrap(findFirst(d.node, atom.Html))
}

// Body returns the <body> element, falling back to the root element.
func (d *HTMLDocument) Body() Element {
	if b := findFirst(d.node, atom.Body); b != nil {
		return d.Wrap(b)
	}
	return d.Root()
}

// Title returns the trimmed <title> text.
func (d *HTMLDocument) Title() string {
	t := findFirst(d.node, atom.Title)
	if t == nil {
		return ""
	}
	return collectText(t)
}

// Lang returns the lang attribute of the root element.
func (d *HTMLDocument) Lang() string {
	root := findFirst(d.node, atom.Html)
	if root == nil {
		return ""
	}
	return strings.TrimSpace(getAttr(root, "lang"))
}

// ElementByID implements Document.
func (d *HTMLDocument) ElementByID(id string) Element {
	return d.Wrap(d.byID[id])
}

// LabelsFor implements Document.
func (d *HTMLDocument) LabelsFor(id string) []Element {
	nodes := d.labels[id]
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, d.Wrap(n))
	}
	return out
}

type htmlElement struct {
	n   *html.Node
	doc *HTMLDocument
}

func (e *htmlElement) Tag() string { return strings.ToLower(e.n.Data) }

func (e *htmlElement) Attr(name string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (e *htmlElement) Children() []Element {
	var out []Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, &htmlElement{n: c, doc: e.doc})
		}
	}
	return out
}

func (e *htmlElement) Parent() Element {
	p := e.n.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return &htmlElement{n: p, doc: e.doc}
}

func (e *htmlElement) Text() string { return collectText(e.n) }

func (e *htmlElement) Document() Document { return e.doc }

// Node exposes the underlying node for callers that need to render it.
func (e *htmlElement) Node() *html.Node { return e.n }

// Key implements Keyed.
func (e *htmlElement) Key() any { return e.n }

// getAttr returns the value of an attribute on a node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// findFirst returns the first element with the given atom in document order.
func findFirst(root *html.Node, tag atom.Atom) *html.Node {
	if root.Type == html.ElementNode && root.DataAtom == tag {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := findFirst(c, tag); n != nil {
			return n
		}
	}
	return nil
}

// collectText gathers descendant text, skipping non-rendered containers,
// and collapses runs of whitespace to a single space.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
