package semdom

import (
	"testing"

	"github.com/hazyhaar/semdom/dom"
)

func TestLocate(t *testing.T) {
	const page = `<html><body>
<div class="wrap main-col">
  <p>one</p>
  <p class="lead x:y">two</p>
  <span id="x"><b>bold</b></span>
</div>
<div id="box"><ul><li>a</li><li><a href="#">b</a></li></ul></div>
</body></html>`
	doc, err := dom.ParseString(page)
	if err != nil {
		t.Fatal(err)
	}
	body := doc.Body()
	wrap := body.Children()[0]
	lead := wrap.Children()[1]
	bold := doc.ElementByID("x").Children()[0]
	link := doc.ElementByID("box").Children()[0].Children()[1].Children()[0]

	tests := []struct {
		name     string
		el       dom.Element
		selector string
		path     string
	}{
		{"class chain", lead,
			"html > body > div.wrap.main-col:nth-of-type(1) > p.lead:nth-of-type(2)",
			"/html/body/div[1]/p[2]"},
		{"stops at id", bold, "#x > b", "/html/body/div[1]/span/b"},
		{"id ancestor", link, "#box > ul > li:nth-of-type(2) > a", "/html/body/div[2]/ul/li[2]/a"},
		{"self id", doc.ElementByID("x"), "#x", "/html/body/div[1]/span"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, path := Locate(tt.el)
			if sel != tt.selector {
				t.Errorf("selector: got %q, want %q", sel, tt.selector)
			}
			if path != tt.path {
				t.Errorf("path: got %q, want %q", path, tt.path)
			}
		})
	}
}

func TestIDSelector(t *testing.T) {
	tests := map[string]string{
		"main":     "#main",
		"-dash":    "#-dash",
		"1abc":     `[id="1abc"]`,
		"a b":      `[id="a b"]`,
		`q"uote`:   `[id="q\"uote"]`,
		"ns:thing": `[id="ns:thing"]`,
	}
	for id, want := range tests {
		if got := idSelector(id); got != want {
			t.Errorf("idSelector(%q) = %q, want %q", id, got, want)
		}
	}
}

func TestLocate_DuplicateIDsDoNotFail(t *testing.T) {
	doc, err := dom.ParseString(`<div id="dup"><i>a</i></div><div id="dup"><i>b</i></div>`)
	if err != nil {
		t.Fatal(err)
	}
	second := doc.Body().Children()[1].Children()[0]
	sel, path := Locate(second)
	if sel != "#dup > i" {
		t.Fatalf("selector: %q", sel)
	}
	if path != "/html/body/div[2]/i" {
		t.Fatalf("path: %q", path)
	}
}
