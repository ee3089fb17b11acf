package semdom

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/hazyhaar/semdom/dom"
)

// cssIdent matches identifiers that can be written after # or . unescaped.
var cssIdent = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)

// step is one level of an element's location: its CSS and path segments
// plus the id that can anchor a selector.
type step struct {
	id   string
	css  string
	path string
}

// newStep builds the step for el, the nth (1-based) of count same-tag
// element siblings.
func newStep(el dom.Element, nth, count int) step {
	tag := el.Tag()
	var css strings.Builder
	css.WriteString(tag)
	for _, cls := range strings.Fields(dom.AttrOr(el, "class")) {
		if cssIdent.MatchString(cls) {
			css.WriteByte('.')
			css.WriteString(cls)
		}
	}
	p := tag
	if count > 1 {
		css.WriteString(":nth-of-type(" + strconv.Itoa(nth) + ")")
		p += "[" + strconv.Itoa(nth) + "]"
	}
	return step{
		id:   strings.TrimSpace(dom.AttrOr(el, "id")),
		css:  css.String(),
		path: p,
	}
}

// locator is the chain of steps from the top of the source tree to the
// element being built.
type locator []step

// selector climbs from the last step and stops at the first id.
func (l locator) selector() string {
	var parts []string
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].id != "" {
			parts = append(parts, idSelector(l[i].id))
			break
		}
		parts = append(parts, l[i].css)
	}
	slices.Reverse(parts)
	return strings.Join(parts, " > ")
}

func (l locator) path() string {
	var b strings.Builder
	for _, s := range l {
		b.WriteByte('/')
		b.WriteString(s.path)
	}
	return b.String()
}

func idSelector(id string) string {
	if cssIdent.MatchString(id) {
		return "#" + id
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `[id="` + r.Replace(id) + `"]`
}

// siblingPosition returns el's 1-based position among same-tag element
// siblings and how many there are.
func siblingPosition(el dom.Element) (nth, count int) {
	parent := el.Parent()
	if parent == nil {
		return 1, 1
	}
	tag := el.Tag()
	for _, c := range parent.Children() {
		if c.Tag() != tag {
			continue
		}
		count++
		if dom.Same(c, el) {
			nth = count
		}
	}
	if nth == 0 {
		return 1, 1
	}
	return nth, count
}

// ancestry returns the locator for el's ancestors, top first. The builder
// extends it downward as it walks.
func ancestry(el dom.Element) locator {
	var l locator
	for p := el.Parent(); p != nil; p = p.Parent() {
		nth, count := siblingPosition(p)
		l = append(l, newStep(p, nth, count))
	}
	slices.Reverse(l)
	return l
}

// Locate returns the selector and path for a single element. The builder
// computes the same strings incrementally during its walk.
func Locate(el dom.Element) (selector, path string) {
	nth, count := siblingPosition(el)
	l := append(ancestry(el), newStep(el, nth, count))
	return l.selector(), l.path()
}
