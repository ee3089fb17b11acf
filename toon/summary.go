package toon

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/semdom/semdom"
)

const (
	summaryActions = 10
	navLinks       = 10
	navTransitions = 5
)

// AgentSummary is a few labelled lines:
//
//	PAGE: Sign up
//	LANDMARKS: nav(#top), main(main)
//	ACTIONS: [submit]Send, [navigate]Home
//	STATE: 6 nodes; checked:1 disabled:1
//	STATS: 2L 5A 1H
//	CERT: standard 78
func AgentSummary(doc *semdom.Document) string {
	var lines []string
	if doc.Title != "" {
		lines = append(lines, "PAGE: "+doc.Title)
	}

	if len(doc.Landmarks) > 0 {
		parts := make([]string, len(doc.Landmarks))
		for i, n := range doc.Landmarks {
			parts[i] = n.Role.Abbrev() + "(" + shortSelector(n.Selector) + ")"
		}
		lines = append(lines, "LANDMARKS: "+strings.Join(parts, ", "))
	}

	if len(doc.Interactables) > 0 {
		var parts []string
		for _, n := range doc.Interactables[:min(len(doc.Interactables), summaryActions)] {
			intent := "act"
			if n.Intent != semdom.IntentNone {
				intent = n.Intent.String()
			}
			parts = append(parts, "["+intent+"]"+truncate(n.Label, 20))
		}
		lines = append(lines, "ACTIONS: "+strings.Join(parts, ", "))
	}

	if len(doc.StateGraph) > 0 {
		lines = append(lines, fmt.Sprintf("STATE: %d nodes%s", len(doc.StateGraph), stateCounts(doc.StateGraph)))
	}

	headings := semdom.Query(doc.Root, semdom.Roles(semdom.RoleHeading))
	lines = append(lines, fmt.Sprintf("STATS: %dL %dA %dH", len(doc.Landmarks), len(doc.Interactables), len(headings)))
	if len(doc.Certification.Checks)+len(doc.Certification.Failures) > 0 {
		lines = append(lines, fmt.Sprintf("CERT: %s %d", doc.Certification.Level, doc.Certification.Score))
	}
	return strings.Join(lines, "\n")
}

// stateCounts lists non-idle current states with their counts, by name.
func stateCounts(g map[string]*semdom.SSGNode) string {
	counts := make(map[string]int)
	for _, n := range g {
		if n.CurrentState != semdom.StateIdle {
			counts[n.CurrentState.String()]++
		}
	}
	if len(counts) == 0 {
		return ""
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s:%d", name, counts[name])
	}
	return "; " + strings.Join(parts, " ")
}

// OneLiner fits a page on one line:
//
//	Sign up | 2L 5A | nav,main | link:Home,link:Docs,input:Email
func OneLiner(doc *semdom.Document) string {
	title := doc.Title
	if title == "" {
		title = "Untitled"
	}
	var landmarks []string
	for _, n := range doc.Landmarks[:min(len(doc.Landmarks), 3)] {
		landmarks = append(landmarks, n.Role.Abbrev())
	}
	var actions []string
	for _, n := range doc.Interactables[:min(len(doc.Interactables), 3)] {
		actions = append(actions, n.Role.Abbrev()+":"+truncate(n.Label, 10))
	}
	return fmt.Sprintf("%s | %dL %dA | %s | %s",
		truncate(title, 30),
		len(doc.Landmarks), len(doc.Interactables),
		strings.Join(landmarks, ","),
		strings.Join(actions, ","))
}

// NavSummary lists where links go and which transitions are available
// right now.
func NavSummary(doc *semdom.Document) string {
	var lines []string

	var links []string
	for _, n := range doc.Interactables {
		if n.Role != semdom.RoleLink || n.Href == "" {
			continue
		}
		links = append(links, "  "+n.Label+" -> "+n.Href)
		if len(links) == navLinks {
			break
		}
	}
	if len(links) > 0 {
		lines = append(lines, "NAVIGATION:")
		lines = append(lines, links...)
	}

	ids := make([]string, 0, len(doc.StateGraph))
	for id := range doc.StateGraph {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var edges []string
	for _, id := range ids {
		for _, t := range doc.StateGraph[id].Available() {
			edges = append(edges, fmt.Sprintf("  %s: %s -[%s]-> %s", id, t.From, t.Trigger, t.To))
			if len(edges) == navTransitions {
				break
			}
		}
		if len(edges) == navTransitions {
			break
		}
	}
	if len(edges) > 0 {
		lines = append(lines, "TRANSITIONS:")
		lines = append(lines, edges...)
	}
	return strings.Join(lines, "\n")
}

// Savings compares the rough token cost of the JSON and TOON forms at four
// bytes per token.
type Savings struct {
	JSONTokens int `json:"jsonTokens"`
	TOONTokens int `json:"toonTokens"`
	Percent    int `json:"percent"`
}

// EstimateSavings renders doc both ways and compares sizes.
func EstimateSavings(doc *semdom.Document) (Savings, error) {
	js, err := JSON(doc)
	if err != nil {
		return Savings{}, err
	}
	s := Savings{
		JSONTokens: (len(js) + 3) / 4,
		TOONTokens: (len(Serialize(doc)) + 3) / 4,
	}
	if s.JSONTokens > 0 && s.TOONTokens < s.JSONTokens {
		s.Percent = (100*(s.JSONTokens-s.TOONTokens) + s.JSONTokens/2) / s.JSONTokens
	}
	return s, nil
}

// shortSelector keeps the last compound of a child-combinator selector.
func shortSelector(sel string) string {
	if i := strings.LastIndex(sel, " > "); i >= 0 {
		return sel[i+3:]
	}
	return sel
}

// truncate cuts s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
