// Package dom defines the read-only element view the semantic builder walks,
// and an implementation of it over golang.org/x/net/html.
//
// The builder never sees *html.Node directly: anything that can answer the
// Element and Document questions below (a headless browser bridge, a test
// fixture, another parser) can be classified.
package dom

// Element is a read-only view over one markup element.
type Element interface {
	// Tag returns the lower-case tag name.
	Tag() string
	// Attr returns the attribute value and whether it is present.
	Attr(name string) (string, bool)
	// Children returns element children in document order.
	Children() []Element
	// Parent returns the parent element, or nil at the top of the tree.
	Parent() Element
	// Text returns the descendant text content, whitespace-collapsed.
	Text() string
	// Document returns the owning document.
	Document() Document
}

// Document answers lookups that span the whole tree.
type Document interface {
	// ElementByID returns the first element in document order carrying id,
	// or nil.
	ElementByID(id string) Element
	// LabelsFor returns the <label for="id"> elements in document order.
	LabelsFor(id string) []Element
}

// Rect is a bounding box in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bounder is implemented by elements backed by a layout engine.
// Static markup never has geometry; callers treat a missing Bounder and
// ok == false the same way.
type Bounder interface {
	Bounds() (Rect, bool)
}

// BoundsOf returns the element's bounding box when the adapter can provide one.
func BoundsOf(el Element) (Rect, bool) {
	b, ok := el.(Bounder)
	if !ok {
		return Rect{}, false
	}
	return b.Bounds()
}

// HasAttr reports whether el carries the attribute.
func HasAttr(el Element, name string) bool {
	_, ok := el.Attr(name)
	return ok
}

// AttrOr returns the attribute value, or "" when absent.
func AttrOr(el Element, name string) string {
	v, _ := el.Attr(name)
	return v
}

// Keyed is implemented by adapters that hand out a fresh Element value on
// every traversal. Key returns something comparable that is equal for two
// views of the same element.
type Keyed interface {
	Key() any
}

// Same reports whether a and b view the same element.
func Same(a, b Element) bool {
	if a == nil || b == nil {
		return a == b
	}
	ka, okA := a.(Keyed)
	kb, okB := b.(Keyed)
	if okA && okB {
		return ka.Key() == kb.Key()
	}
	return a == b
}
