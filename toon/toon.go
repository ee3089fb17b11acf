// Package toon renders a semdom.Document for language-model agents.
//
// Serialize produces TOON (token-oriented object notation): one line per
// node, two-space indentation for nesting, labels quoted and escaped.
//
//	v:1.0
//	url:https://example.test/
//	title:Sign up
//	lang:en
//
//	cert:
//	  level:standard
//	  score:78
//
//	root:
//	  sdom-main-1-abcde main
//	    sdom-btn-2-abcde button "Submit" ->submit
//	      a11y: focusable tab
//
// JSON returns the full document plus landmark and interactable id lists.
// AgentSummary, OneLiner and NavSummary are lossy digests sized for a
// prompt.
package toon

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/hazyhaar/semdom/semdom"
)

// Options controls Serialize output.
type Options struct {
	// Selectors adds a sel: line per node.
	Selectors bool
	// Paths adds a path: line per node.
	Paths bool
	// Placeholders keeps placeholder nodes in the output.
	Placeholders bool
}

// Serialize renders doc with default options.
func Serialize(doc *semdom.Document) string {
	return SerializeWith(doc, Options{})
}

// SerializeWith renders doc.
func SerializeWith(doc *semdom.Document, opts Options) string {
	var b strings.Builder

	b.WriteString("v:" + doc.Version + "\n")
	b.WriteString("url:" + doc.URL + "\n")
	b.WriteString("title:" + escape(doc.Title) + "\n")
	b.WriteString("lang:" + doc.Lang + "\n")
	b.WriteByte('\n')

	b.WriteString("cert:\n")
	b.WriteString("  level:" + doc.Certification.Level.String() + "\n")
	b.WriteString("  score:" + strconv.Itoa(doc.Certification.Score) + "\n")
	for _, f := range doc.Certification.Failures {
		b.WriteString("  ! " + f.ID + " " + f.Severity.String() + "\n")
	}
	b.WriteByte('\n')

	b.WriteString("root:\n")
	if doc.Root != nil {
		writeNode(&b, doc.Root, 1, opts)
	}

	if len(doc.Landmarks) > 0 {
		b.WriteString("\nlandmarks:\n")
		for _, n := range doc.Landmarks {
			b.WriteString("  - " + n.ID + " " + n.Role.String() + labelPart(n) + "\n")
		}
	}
	if len(doc.Interactables) > 0 {
		b.WriteString("\ninteractables:\n")
		for _, n := range doc.Interactables {
			b.WriteString("  - " + n.ID + " " + n.Role.String() + labelPart(n) + intentPart(n) + "\n")
		}
	}
	return b.String()
}

// SerializeNode renders one subtree without indentation at its root.
func SerializeNode(n *semdom.Node) string {
	var b strings.Builder
	writeNode(&b, n, 0, Options{})
	return b.String()
}

func writeNode(b *strings.Builder, n *semdom.Node, depth int, opts Options) {
	if n.Placeholder && !opts.Placeholders {
		return
	}
	pad := strings.Repeat("  ", depth)

	b.WriteString(pad + n.ID + " " + n.Role.String() + labelPart(n) + intentPart(n))
	if n.State != semdom.StateIdle {
		b.WriteString(" [" + n.State.String() + "]")
	}
	if n.Placeholder {
		b.WriteString(" (placeholder)")
	}
	b.WriteByte('\n')

	if a := n.A11y; a.Focusable || a.Level != nil {
		parts := []string{"a11y:"}
		if a.Focusable {
			parts = append(parts, "focusable")
		}
		if a.InTabOrder {
			parts = append(parts, "tab")
		}
		if a.Level != nil {
			parts = append(parts, "L"+strconv.Itoa(*a.Level))
		}
		b.WriteString(pad + "  " + strings.Join(parts, " ") + "\n")
	}
	if n.Href != "" {
		b.WriteString(pad + "  href:" + n.Href + "\n")
	}
	if n.Value != nil {
		b.WriteString(pad + "  val:" + escape(n.Value.String()) + "\n")
	}
	if opts.Selectors && n.Selector != "" {
		b.WriteString(pad + "  sel:" + n.Selector + "\n")
	}
	if opts.Paths && n.Path != "" {
		b.WriteString(pad + "  path:" + n.Path + "\n")
	}
	for _, c := range n.Children {
		writeNode(b, c, depth+1, opts)
	}
}

// labelPart quotes the label so spaces and "->" inside it stay unambiguous.
func labelPart(n *semdom.Node) string {
	if n.Label == "" {
		return ""
	}
	return ` "` + escape(n.Label) + `"`
}

func intentPart(n *semdom.Node) string {
	if n.Intent == semdom.IntentNone {
		return ""
	}
	return " ->" + n.Intent.String()
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escape(s string) string { return escaper.Replace(s) }

// projection adds the id lists that Document keeps out of its own JSON.
type projection struct {
	*semdom.Document
	Landmarks     []string `json:"landmarks"`
	Interactables []string `json:"interactables"`
}

// JSON returns the indented JSON form of doc.
func JSON(doc *semdom.Document) ([]byte, error) {
	return json.MarshalIndent(projection{
		Document:      doc,
		Landmarks:     ids(doc.Landmarks),
		Interactables: ids(doc.Interactables),
	}, "", "  ")
}

func ids(nodes []*semdom.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
