package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/semdom/audit"
	"github.com/hazyhaar/semdom/kit"
	"github.com/hazyhaar/semdom/semdom"
	"github.com/hazyhaar/semdom/shield"
	"github.com/hazyhaar/semdom/ssgstore"
	"github.com/hazyhaar/semdom/toon"
)

// Router returns a chi router with the standard middleware stack and the
// service routes mounted.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	for _, mw := range shield.Stack(shield.DefaultHeaders(), s.limiter) {
		r.Use(mw)
	}
	r.Use(s.stampContext)
	r.Use(s.logRequests)
	s.RegisterHTTP(r)
	return r
}

// stampContext copies chi's request id onto the kit context keys.
func (s *Service) stampContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := kit.WithTransport(r.Context(), kit.TransportHTTP)
		ctx = kit.WithRequestID(ctx, middleware.GetReqID(ctx))
		ctx = kit.WithSessionID(ctx, s.session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.DebugContext(r.Context(), "service: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", kit.GetRequestID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// RegisterHTTP mounts the document routes on r.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "loaded": s.loaded()})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/document", s.handleParse)
		r.Get("/document", s.handleRender)
		r.Get("/certification", s.handleCertification)
		r.Get("/landmarks", s.handleList(func(d *semdom.Document) []*semdom.Node { return d.Landmarks }))
		r.Get("/interactables", s.handleList(func(d *semdom.Document) []*semdom.Node { return d.Interactables }))
		r.Get("/query", s.handleQuery)
		r.Get("/nodes/{id}", s.handleLookup)
		r.Get("/nodes/{id}/navigate/{direction}", s.handleNavigate)
		r.Get("/nodes/{id}/state", s.handleState)
		r.Post("/nodes/{id}/state/{trigger}", s.handleTransition)
		r.Get("/audit", s.handleAudit)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ssgstore.ErrInvalidTransition),
		errors.Is(err, semdom.ErrNilRoot):
		code = http.StatusBadRequest
	case errors.Is(err, ErrNoDocument), errors.Is(err, ErrNodeNotFound),
		errors.Is(err, ssgstore.ErrUnknownNode), errors.Is(err, ErrNoAudit):
		code = http.StatusNotFound
	case errors.Is(err, ErrInputTooLarge):
		code = http.StatusRequestEntityTooLarge
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func boolParam(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}

func listParam(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// handleParse reads the request body as markup. url and title come from
// the query string.
func (s *Service) handleParse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	doc, err := s.Load(r.Context(), r.Body, semdom.Meta{URL: q.Get("url"), Title: q.Get("title")})
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{
		"url":   doc.URL,
		"title": doc.Title,
		"nodes": doc.Len(),
		"level": doc.Certification.Level,
		"score": doc.Certification.Score,
	}
	if sv, err := toon.EstimateSavings(doc); err == nil {
		resp["savings"] = sv
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Service) handleRender(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Document()
	if err != nil {
		writeError(w, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatJSON
	}
	out, err := Render(doc, format)
	if err != nil {
		writeError(w, err)
		return
	}
	if format == FormatJSON {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Write([]byte(out))
}

func (s *Service) handleCertification(w http.ResponseWriter, _ *http.Request) {
	doc, err := s.Document()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc.Certification)
}

func (s *Service) handleList(pick func(*semdom.Document) []*semdom.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		doc, err := s.Document()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Views(pick(doc)))
	}
}

func (s *Service) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := QueryRequest{
		Roles:       listParam(r, "role"),
		Intents:     listParam(r, "intent"),
		States:      listParam(r, "state"),
		Text:        q.Get("text"),
		Pattern:     q.Get("pattern"),
		Interactive: boolParam(r, "interactive"),
		Visible:     boolParam(r, "visible"),
		Focusable:   boolParam(r, "focusable"),
		Shallow:     boolParam(r, "shallow"),
		Under:       q.Get("under"),
	}
	if v := q.Get("limit"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, errors.Join(ErrBadRequest, err))
			return
		}
		req.Limit = &k
	}
	nodes, err := s.Query(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Views(nodes))
}

func (s *Service) handleLookup(w http.ResponseWriter, r *http.Request) {
	n, err := s.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, View(n))
}

func (s *Service) handleNavigate(w http.ResponseWriter, r *http.Request) {
	n, err := s.Navigate(NavigateRequest{
		From:          chi.URLParam(r, "id"),
		Direction:     chi.URLParam(r, "direction"),
		Wrap:          boolParam(r, "wrap"),
		SkipHidden:    boolParam(r, "skip_hidden"),
		FocusableOnly: boolParam(r, "focusable_only"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if n == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, View(n))
}

func (s *Service) handleState(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Document()
	if err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	g, ok := doc.StateGraph[id]
	if !ok {
		writeError(w, errors.Join(ErrNodeNotFound, errors.New(id+" has no state machine")))
		return
	}
	v, err := s.stateOf(id, g)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Service) handleTransition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := s.Transition(id, semdom.Trigger(chi.URLParam(r, "trigger")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "state": st.String()})
}

// handleAudit lists recent tool calls: ?action=&status=&since=<duration>&limit=
func (s *Service) handleAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := audit.Filter{Action: q.Get("action"), Status: q.Get("status")}
	if v := q.Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			writeError(w, errors.Join(ErrBadRequest, err))
			return
		}
		f.Since = time.Now().Add(-d)
	}
	if v := q.Get("limit"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, errors.Join(ErrBadRequest, err))
			return
		}
		f.Limit = k
	}
	entries, err := s.Audit(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
