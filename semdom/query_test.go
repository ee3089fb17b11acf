package semdom

import (
	"regexp"
	"testing"
)

const formPage = `<nav><a href="/">Home</a><a href="/docs">Docs</a></nav>
<main>
  <h1>Sign up</h1>
  <form>
    <label for="email">Email</label><input id="email" type="email">
    <input type="checkbox" id="news" aria-label="Newsletter">
    <button disabled>Submit</button>
    <button>Cancel</button>
    <div hidden><button>Hidden action</button></div>
  </form>
</main>`

func labels(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Label
	}
	return out
}

func TestQuery_Predicates(t *testing.T) {
	doc := parse(t, formPage, Config{})

	tests := []struct {
		name string
		opts []QueryOption
		want []string
	}{
		{"role", []QueryOption{Roles(RoleButton)}, []string{"Submit", "Cancel", "Hidden action"}},
		{"roles set", []QueryOption{Roles(RoleLink, RoleCheckbox)}, []string{"Home", "Docs", "Newsletter"}},
		{"intent", []QueryOption{Intents(IntentCancel)}, []string{"Cancel"}},
		{"state", []QueryOption{States(StateDisabled)}, []string{"Submit"}},
		{"containing", []QueryOption{Containing("DOC")}, []string{"Docs"}},
		{"matching", []QueryOption{Roles(RoleButton), Matching(regexp.MustCompile(`^[A-Z][a-z]+$`))}, []string{"Submit", "Cancel"}},
		{"interactive focusable", []QueryOption{InteractiveOnly(), FocusableOnly(), Roles(RoleButton)}, []string{"Cancel", "Hidden action"}},
		{"where", []QueryOption{Where(func(n *Node) bool { return n.Tag == "h1" })}, []string{"Sign up"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := labels(doc.Query(tt.opts...))
			if len(got) != len(tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %q, want %q", got, tt.want)
				}
			}
		})
	}
}

func TestQuery_VisibleOnlySkipsHiddenNode(t *testing.T) {
	doc := parse(t, formPage, Config{})
	hidden := doc.Query(States(StateHidden))
	if len(hidden) != 1 || hidden[0].Tag != "div" {
		t.Fatalf("hidden: %d", len(hidden))
	}
	for _, n := range doc.Query(VisibleOnly()) {
		if n.State == StateHidden {
			t.Fatalf("VisibleOnly returned hidden node %q", n.ID)
		}
	}
}

func TestQuery_IncludesRootAndShallow(t *testing.T) {
	doc := parse(t, formPage, Config{})
	all := Query(doc.Root)
	if len(all) != doc.Len() || all[0] != doc.Root {
		t.Fatalf("unfiltered query: %d nodes, root first=%v", len(all), all[0] == doc.Root)
	}

	shallow := Query(doc.Root, Shallow())
	if len(shallow) != len(doc.Root.Children) {
		t.Fatalf("shallow: got %d, want %d", len(shallow), len(doc.Root.Children))
	}
	for i, n := range shallow {
		if n != doc.Root.Children[i] {
			t.Fatalf("shallow[%d] is not a direct child", i)
		}
	}
	nav := doc.Landmarks[0]
	if got := Query(nav, Shallow(), Roles(RoleLink)); len(got) != 2 {
		t.Fatalf("shallow links under nav: %d", len(got))
	}
}

func TestQuery_LimitCorrectness(t *testing.T) {
	doc := parse(t, formPage, Config{})
	for _, role := range []Role{RoleButton, RoleLink, RoleHeading, RoleTable} {
		all := len(doc.Query(Roles(role)))
		for k := 0; k <= all+2; k++ {
			if got := len(doc.Query(Roles(role), Limit(k))); got != min(k, all) {
				t.Fatalf("%s limit %d: got %d, want %d", role, k, got, min(k, all))
			}
		}
	}
}

func TestQuery_LimitShortCircuits(t *testing.T) {
	doc := parse(t, formPage, Config{})
	calls := 0
	got := doc.Query(Where(func(n *Node) bool {
		calls++
		return true
	}), Limit(2))
	if len(got) != 2 || calls != 2 {
		t.Fatalf("results %d, predicate calls %d", len(got), calls)
	}
}
