// Package semdom builds a semantic projection of a markup tree: every
// element gets a stable id, an accessibility role, an intent and a UI state,
// interactive nodes get a static state machine, and the whole document gets
// an agent-readiness certification.
//
// A Document is immutable once returned. Query and Navigate only read it.
package semdom

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hazyhaar/semdom/dom"
	"github.com/hazyhaar/semdom/idgen"
)

// Version is stamped on every Document.
const Version = "1.0"

// Meta is caller-supplied document metadata. Empty fields are filled from
// the markup where the adapter can provide them.
type Meta struct {
	URL   string
	Title string
	Lang  string
}

// Document is the result of one parse.
type Document struct {
	URL     string `json:"url,omitempty"`
	Title   string `json:"title,omitempty"`
	Lang    string `json:"lang,omitempty"`
	Version string `json:"version"`

	Root          *Node               `json:"root"`
	Landmarks     []*Node             `json:"-"`
	Interactables []*Node             `json:"-"`
	StateGraph    map[string]*SSGNode `json:"stateGraph,omitempty"`
	Certification Certification       `json:"certification"`
	// Target is informational; see MeetsTarget.
	Target Level `json:"target"`

	index map[string]*Node
}

// Lookup returns the node with the given id.
func (d *Document) Lookup(id string) (*Node, bool) {
	n, ok := d.index[id]
	return n, ok
}

// Len returns the number of indexed nodes.
func (d *Document) Len() int { return len(d.index) }

// Nodes returns every node in pre-order.
func (d *Document) Nodes() []*Node {
	out := make([]*Node, 0, len(d.index))
	walk(d.Root, func(n *Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// MeetsTarget reports whether the certification reaches the configured
// target level.
func (d *Document) MeetsTarget() bool { return d.Certification.Level >= d.Target }

// walk visits n and its descendants in pre-order until fn returns false.
// It reports whether the walk ran to completion.
func walk(n *Node, fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// Parser turns element trees into Documents. A Parser is safe for
// concurrent use; each Parse owns its own build state.
type Parser struct {
	s      *settings
	logger *slog.Logger
	rnd    idgen.Generator
}

// Option configures a Parser beyond Config.
type Option func(*Parser)

// WithSuffixGenerator replaces the random suffix source of generated ids.
// Tests use it to make ids reproducible.
func WithSuffixGenerator(g idgen.Generator) Option {
	return func(p *Parser) { p.rnd = g }
}

// NewParser validates cfg and returns a Parser.
func NewParser(cfg Config, opts ...Option) (*Parser, error) {
	s, err := cfg.compile()
	if err != nil {
		return nil, err
	}
	p := &Parser{s: s, logger: s.cfg.Logger}
	for _, o := range opts {
		o(p)
	}
	p.logger.Debug("semdom: parser ready",
		"max_depth", s.cfg.MaxDepth,
		"exclude", s.excludedTags(),
		"scoring", s.scoring.String(),
	)
	return p, nil
}

// Parse builds a Document rooted at root.
func (p *Parser) Parse(root dom.Element, meta Meta) (*Document, error) {
	if root == nil {
		return nil, ErrNilRoot
	}
	start := time.Now()

	b := newBuilder(p.s, root, p.rnd)
	nth, count := siblingPosition(root)
	tree := b.build(root, "", 0, newStep(root, nth, count))

	doc := &Document{
		URL:     meta.URL,
		Title:   meta.Title,
		Lang:    meta.Lang,
		Version: Version,
		Root:    tree,
		Target:  p.s.target,
		index:   b.index,
	}

	nodes := doc.Nodes()
	for _, n := range nodes {
		if n.Placeholder {
			continue
		}
		if n.IsLandmark() {
			doc.Landmarks = append(doc.Landmarks, n)
		}
		if n.IsInteractive() {
			doc.Interactables = append(doc.Interactables, n)
		}
	}

	graph := synthesize(nodes)
	if !p.s.cfg.DisableStateGraph {
		doc.StateGraph = graph
	} else {
		doc.StateGraph = map[string]*SSGNode{}
	}
	if !p.s.cfg.DisableValidation {
		doc.Certification = certify(certifyInput{
			nodes:         nodes,
			landmarks:     doc.Landmarks,
			interactables: doc.Interactables,
			tables:        graph,
			duplicates:    b.duplicates(),
		}, p.s.scoring)
	}

	p.logger.Debug("semdom: parsed",
		"url", meta.URL,
		"nodes", len(b.index),
		"placeholders", b.placeholders,
		"landmarks", len(doc.Landmarks),
		"interactables", len(doc.Interactables),
		"score", doc.Certification.Score,
		"level", doc.Certification.Level.String(),
		"elapsed", time.Since(start),
	)
	return doc, nil
}

// ParseHTML parses markup and builds a Document from its <body>. Title and
// Lang default to the markup's <title> and <html lang>.
func (p *Parser) ParseHTML(r io.Reader, meta Meta) (*Document, error) {
	hd, err := dom.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("semdom: %w", err)
	}
	if meta.Title == "" {
		meta.Title = hd.Title()
	}
	if meta.Lang == "" {
		meta.Lang = hd.Lang()
	}
	return p.Parse(hd.Body(), meta)
}

// Parse is NewParser(cfg) followed by Parse.
func Parse(root dom.Element, cfg Config, meta Meta) (*Document, error) {
	p, err := NewParser(cfg)
	if err != nil {
		return nil, err
	}
	return p.Parse(root, meta)
}

// ParseHTML is NewParser(cfg) followed by ParseHTML.
func ParseHTML(r io.Reader, cfg Config, meta Meta) (*Document, error) {
	p, err := NewParser(cfg)
	if err != nil {
		return nil, err
	}
	return p.ParseHTML(r, meta)
}
