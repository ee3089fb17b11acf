package dom

import (
	"testing"
)

const testPage = `<!DOCTYPE html>
<html lang="fr">
<head><title>  Test   Page </title><style>.x{}</style></head>
<body>
<nav><a href="/">Home</a></nav>
<main id="content">
  <label for="email">Email   address</label>
  <input id="email" type="email">
  <button>Send <span>now</span><script>alert(1)</script></button>
  <div id="content">duplicate id</div>
</main>
</body>
</html>`

func mustParse(t *testing.T, s string) *HTMLDocument {
	t.Helper()
	doc, err := ParseString(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestHTMLDocument_Metadata(t *testing.T) {
	doc := mustParse(t, testPage)
	if got := doc.Title(); got != "Test Page" {
		t.Errorf("Title: got %q, want %q", got, "Test Page")
	}
	if got := doc.Lang(); got != "fr" {
		t.Errorf("Lang: got %q, want %q", got, "fr")
	}
	if got := doc.Body().Tag(); got != "body" {
		t.Errorf("Body tag: got %q", got)
	}
	if got := doc.Root().Tag(); got != "html" {
		t.Errorf("Root tag: got %q", got)
	}
}

func TestHTMLDocument_ElementByIDFirstWins(t *testing.T) {
	doc := mustParse(t, testPage)
	el := doc.ElementByID("content")
	if el == nil {
		t.Fatal("ElementByID(content): nil")
	}
	if el.Tag() != "main" {
		t.Fatalf("ElementByID(content): got <%s>, want <main>", el.Tag())
	}
	if doc.ElementByID("missing") != nil {
		t.Fatal("ElementByID(missing): want nil")
	}
}

func TestHTMLDocument_LabelsFor(t *testing.T) {
	doc := mustParse(t, testPage)
	labels := doc.LabelsFor("email")
	if len(labels) != 1 {
		t.Fatalf("LabelsFor(email): got %d labels", len(labels))
	}
	if got := labels[0].Text(); got != "Email address" {
		t.Errorf("label text: got %q", got)
	}
	if doc.LabelsFor("nope") != nil {
		t.Error("LabelsFor(nope): want nil")
	}
}

func TestElement_TextSkipsScript(t *testing.T) {
	doc := mustParse(t, testPage)
	var button Element
	var walk func(Element)
	walk = func(e Element) {
		if e.Tag() == "button" {
			button = e
			return
		}
		for _, c := range e.Children() {
			walk(c)
		}
	}
	walk(doc.Body())
	if button == nil {
		t.Fatal("button not found")
	}
	if got := button.Text(); got != "Send now" {
		t.Errorf("button text: got %q, want %q", got, "Send now")
	}
}

func TestElement_ParentChain(t *testing.T) {
	doc := mustParse(t, testPage)
	root := doc.Root()
	if root.Parent() != nil {
		t.Fatal("root element should have no parent")
	}
	body := doc.Body()
	if p := body.Parent(); p == nil || p.Tag() != "html" {
		t.Fatalf("body parent: got %v", p)
	}
	kids := body.Children()
	if len(kids) != 2 || kids[0].Tag() != "nav" || kids[1].Tag() != "main" {
		t.Fatalf("body children: got %d", len(kids))
	}
}

func TestElement_Attr(t *testing.T) {
	doc := mustParse(t, testPage)
	input := doc.ElementByID("email")
	if v, ok := input.Attr("type"); !ok || v != "email" {
		t.Errorf("Attr(type): got %q, %v", v, ok)
	}
	if HasAttr(input, "disabled") {
		t.Error("HasAttr(disabled): want false")
	}
	if AttrOr(input, "placeholder") != "" {
		t.Error("AttrOr(placeholder): want empty")
	}
}

func TestBoundsOf_StaticMarkup(t *testing.T) {
	doc := mustParse(t, testPage)
	if _, ok := BoundsOf(doc.Body()); ok {
		t.Fatal("static markup should not report geometry")
	}
}

func TestSame(t *testing.T) {
	doc := mustParse(t, testPage)
	a := doc.ElementByID("email")
	b := doc.LabelsFor("email")[0].Document().ElementByID("email")
	if !Same(a, b) {
		t.Fatal("two views of the same node should be Same")
	}
	if Same(a, doc.Body()) {
		t.Fatal("different nodes reported Same")
	}
	if !Same(nil, nil) || Same(a, nil) {
		t.Fatal("nil handling")
	}
}
