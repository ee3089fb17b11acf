package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/semdom/audit"
	"github.com/hazyhaar/semdom/kit"
	"github.com/hazyhaar/semdom/semdom"
	"github.com/hazyhaar/semdom/toon"
)

// Output formats accepted by sdom_parse and sdom_render.
const (
	FormatJSON     = "json"
	FormatTOON     = "toon"
	FormatSummary  = "summary"
	FormatOneLiner = "oneliner"
	FormatNav      = "nav"
)

// Render formats the document.
func Render(doc *semdom.Document, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", FormatTOON:
		return toon.Serialize(doc), nil
	case FormatJSON:
		b, err := toon.JSON(doc)
		return string(b), err
	case FormatSummary:
		return toon.AgentSummary(doc), nil
	case FormatOneLiner:
		return toon.OneLiner(doc), nil
	case FormatNav:
		return toon.NavSummary(doc), nil
	}
	return "", fmt.Errorf("%w: unknown format %q", ErrBadRequest, format)
}

// RegisterMCP registers the sdom_* tools on srv.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerParse(srv)
	s.registerRender(srv)
	s.registerLookup(srv)
	s.registerQuery(srv)
	s.registerNavigate(srv)
	s.registerLandmarks(srv)
	s.registerInteractables(srv)
	s.registerStateGraph(srv)
	s.registerCertification(srv)
	s.registerTransition(srv)
}

// tool registers ep behind the middleware chain and stamps the session on
// the context.
func (s *Service) tool(srv *mcp.Server, tool *mcp.Tool, ep kit.Endpoint, decode func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error)) {
	mws := []kit.Middleware{kit.Recovery(s.log), kit.Logging(s.log, tool.Name), kit.Timeout(s.cfg.ToolTimeout)}
	if s.audit != nil {
		mws = append(mws, audit.Middleware(s.audit, tool.Name))
	}
	wrapped := kit.Chain(mws...)(ep)
	kit.RegisterMCPTool(srv, tool, wrapped, func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		res, err := decode(req)
		if err != nil {
			return nil, err
		}
		res.EnrichCtx = func(ctx context.Context) context.Context {
			return kit.WithSessionID(ctx, s.session)
		}
		return res, nil
	})
}

var formatProperty = map[string]any{
	"type":        "string",
	"enum":        []string{FormatTOON, FormatJSON, FormatSummary, FormatOneLiner, FormatNav},
	"description": "Output format (default toon)",
}

// --- parse ---

type parseReq struct {
	HTML   string `json:"html"`
	URL    string `json:"url"`
	Title  string `json:"title"`
	Format string `json:"format"`
}

func (s *Service) registerParse(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sdom_parse",
		Description: "Parse an HTML page into a SemanticDOM and make it the current document. Returns the document in the requested format.",
		InputSchema: kit.InputSchema(map[string]any{
			"html":   map[string]any{"type": "string", "description": "HTML markup"},
			"url":    map[string]any{"type": "string", "description": "Page URL recorded on the document"},
			"title":  map[string]any{"type": "string", "description": "Title override"},
			"format": formatProperty,
		}, []string{"html"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*parseReq)
		doc, err := s.Load(ctx, strings.NewReader(r.HTML), semdom.Meta{URL: r.URL, Title: r.Title})
		if err != nil {
			return nil, err
		}
		out, err := Render(doc, r.Format)
		return kit.Text(out), err
	}
	s.tool(srv, tool, endpoint, kit.DecodeJSON[parseReq]())
}

// --- render ---

type renderReq struct {
	Format string `json:"format"`
}

func (s *Service) registerRender(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sdom_render",
		Description: "Render the current document as TOON, JSON, an agent summary, a one-liner or a navigation summary.",
		InputSchema: kit.InputSchema(map[string]any{"format": formatProperty}, nil),
	}
	endpoint := func(_ context.Context, req any) (any, error) {
		doc, err := s.Document()
		if err != nil {
			return nil, err
		}
		out, err := Render(doc, req.(*renderReq).Format)
		return kit.Text(out), err
	}
	s.tool(srv, tool, endpoint, kit.DecodeJSON[renderReq]())
}

// --- lookup ---

type lookupReq struct {
	ID string `json:"id"`
}

type lookupResp struct {
	Node    NodeView `json:"node"`
	Subtree string   `json:"subtree"`
}

func (s *Service) registerLookup(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sdom_lookup",
		Description: "Get a node by id, with its subtree in TOON form.",
		InputSchema: kit.InputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Node id"},
		}, []string{"id"}),
	}
	endpoint := func(_ context.Context, req any) (any, error) {
		n, err := s.Lookup(req.(*lookupReq).ID)
		if err != nil {
			return nil, err
		}
		return lookupResp{Node: View(n), Subtree: toon.SerializeNode(n)}, nil
	}
	s.tool(srv, tool, endpoint, kit.DecodeJSON[lookupReq]())
}

// --- query ---

func queryProperties() map[string]any {
	list := func(desc string) map[string]any {
		return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": desc}
	}
	flag := func(desc string) map[string]any {
		return map[string]any{"type": "boolean", "description": desc}
	}
	return map[string]any{
		"roles":       list("Role names, any of"),
		"intents":     list("Intent names, any of"),
		"states":      list("State names, any of"),
		"text":        map[string]any{"type": "string", "description": "Case-insensitive label substring"},
		"pattern":     map[string]any{"type": "string", "description": "Regular expression on the label"},
		"interactive": flag("Only interactive nodes"),
		"visible":     flag("Skip hidden nodes"),
		"focusable":   flag("Only focusable nodes"),
		"shallow":     flag("Only direct children of the query root"),
		"under":       map[string]any{"type": "string", "description": "Node id to query under (default: document root)"},
		"limit":       map[string]any{"type": "integer", "minimum": 0, "description": "Maximum results"},
	}
}

func (s *Service) registerQuery(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sdom_query",
		Description: "Find nodes by role, intent, state, label text and flags, in document order.",
		InputSchema: kit.InputSchema(queryProperties(), nil),
	}
	endpoint := func(_ context.Context, req any) (any, error) {
		nodes, err := s.Query(*req.(*QueryRequest))
		if err != nil {
			return nil, err
		}
		return map[string]any{"count": len(nodes), "nodes": Views(nodes)}, nil
	}
	s.tool(srv, tool, endpoint, kit.DecodeJSON[QueryRequest]())
}

// --- navigate ---

func (s *Service) registerNavigate(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sdom_navigate",
		Description: "Move from a node in a direction: next, previous, first, last, parent, first-child, last-child, next-sibling, previous-sibling.",
		InputSchema: kit.InputSchema(map[string]any{
			"from":           map[string]any{"type": "string", "description": "Starting node id"},
			"direction":      map[string]any{"type": "string", "description": "Direction name"},
			"wrap":           map[string]any{"type": "boolean"},
			"skip_hidden":    map[string]any{"type": "boolean"},
			"focusable_only": map[string]any{"type": "boolean"},
			"filter":         map[string]any{"type": "object", "properties": queryProperties()},
		}, []string{"from", "direction"}),
	}
	endpoint := func(_ context.Context, req any) (any, error) {
		n, err := s.Navigate(*req.(*NavigateRequest))
		if err != nil {
			return nil, err
		}
		if n == nil {
			return map[string]any{"found": false}, nil
		}
		return map[string]any{"found": true, "node": View(n)}, nil
	}
	s.tool(srv, tool, endpoint, kit.DecodeJSON[NavigateRequest]())
}

// --- landmarks / interactables ---

func (s *Service) registerLandmarks(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sdom_landmarks",
		Description: "List the page regions (main, navigation, banner, ...) in document order.",
		InputSchema: kit.InputSchema(map[string]any{}, nil),
	}
	endpoint := func(_ context.Context, _ any) (any, error) {
		doc, err := s.Document()
		if err != nil {
			return nil, err
		}
		return Views(doc.Landmarks), nil
	}
	s.tool(srv, tool, endpoint, kit.DecodeJSON[struct{}]())
}

func (s *Service) registerInteractables(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sdom_interactables",
		Description: "List the interactive elements in document order.",
		InputSchema: kit.InputSchema(map[string]any{}, nil),
	}
	endpoint := func(_ context.Context, _ any) (any, error) {
		doc, err := s.Document()
		if err != nil {
			return nil, err
		}
		return Views(doc.Interactables), nil
	}
	s.tool(srv, tool, endpoint, kit.DecodeJSON[struct{}]())
}

// --- state graph ---

type stateGraphReq struct {
	ID string `json:"id"`
}

type stateView struct {
	NodeID    string              `json:"nodeId"`
	Role      string              `json:"role"`
	Current   string              `json:"current"`
	Available []semdom.Transition `json:"available"`
	History   int                 `json:"history"`
}

func (s *Service) stateOf(id string, g *semdom.SSGNode) (stateView, error) {
	cur, _ := s.store.Get(id)
	av, err := s.store.Available(id)
	if err != nil {
		return stateView{}, err
	}
	return stateView{
		NodeID:    id,
		Role:      g.Role.String(),
		Current:   cur.String(),
		Available: av,
		History:   len(s.store.History(id)),
	}, nil
}

func (s *Service) registerStateGraph(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sdom_state_graph",
		Description: "Show runtime state and available transitions, for one node or for every node with a state machine.",
		InputSchema: kit.InputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Node id (optional)"},
		}, nil),
	}
	endpoint := func(_ context.Context, req any) (any, error) {
		doc, err := s.Document()
		if err != nil {
			return nil, err
		}
		if id := req.(*stateGraphReq).ID; id != "" {
			g, ok := doc.StateGraph[id]
			if !ok {
				return nil, fmt.Errorf("%w: %s has no state machine", ErrNodeNotFound, id)
			}
			return s.stateOf(id, g)
		}
		ids := make([]string, 0, len(doc.StateGraph))
		for id := range doc.StateGraph {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out := make([]stateView, 0, len(ids))
		for _, id := range ids {
			v, err := s.stateOf(id, doc.StateGraph[id])
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	s.tool(srv, tool, endpoint, kit.DecodeJSON[stateGraphReq]())
}

// --- certification ---

func (s *Service) registerCertification(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sdom_certification",
		Description: "Show the agent-readiness certification: level, score, passed checks and failures.",
		InputSchema: kit.InputSchema(map[string]any{}, nil),
	}
	endpoint := func(_ context.Context, _ any) (any, error) {
		doc, err := s.Document()
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"certification": doc.Certification,
			"target":        doc.Target,
			"meetsTarget":   doc.MeetsTarget(),
		}, nil
	}
	s.tool(srv, tool, endpoint, kit.DecodeJSON[struct{}]())
}

// --- transition ---

type transitionReq struct {
	ID      string `json:"id"`
	Trigger string `json:"trigger"`
}

func (s *Service) registerTransition(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sdom_transition",
		Description: "Fire a trigger (focus, click, open, ...) on a node's runtime state machine and return the new state.",
		InputSchema: kit.InputSchema(map[string]any{
			"id":      map[string]any{"type": "string", "description": "Node id"},
			"trigger": map[string]any{"type": "string", "description": "Trigger name"},
		}, []string{"id", "trigger"}),
	}
	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*transitionReq)
		st, err := s.Transition(r.ID, semdom.Trigger(r.Trigger))
		if err != nil {
			return nil, err
		}
		return map[string]string{"id": r.ID, "state": st.String()}, nil
	}
	s.tool(srv, tool, endpoint, kit.DecodeJSON[transitionReq]())
}
