// Package service is the session front end of semdom: it holds the current
// Document of one page and the runtime state store seeded from it, and
// exposes both over MCP tools and HTTP routes.
package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hazyhaar/semdom/audit"
	"github.com/hazyhaar/semdom/dbopen"
	"github.com/hazyhaar/semdom/idgen"
	"github.com/hazyhaar/semdom/semdom"
	"github.com/hazyhaar/semdom/shield"
	"github.com/hazyhaar/semdom/ssgstore"
)

var (
	ErrNoDocument    = errors.New("service: no document loaded")
	ErrInputTooLarge = errors.New("service: input too large")
	ErrNodeNotFound  = errors.New("service: node not found")
	ErrNoAudit       = errors.New("service: audit log disabled")
)

// Service is safe for concurrent use. Each Load swaps the document
// atomically; readers see either the old or the new one.
type Service struct {
	cfg     Config
	log     *slog.Logger
	parser  *semdom.Parser
	store   *ssgstore.Store
	db      *sql.DB
	audit   *audit.SQLiteLogger
	limiter *shield.RateLimiter
	session string

	mu  sync.RWMutex
	doc *semdom.Document
}

// New validates the parser configuration and opens the state database
// when one is configured.
func New(cfg Config) (*Service, error) {
	cfg.defaults()
	parser, err := semdom.NewParser(cfg.Parser)
	if err != nil {
		return nil, err
	}
	s := &Service{
		cfg:     cfg,
		log:     cfg.Logger,
		parser:  parser,
		store:   ssgstore.New(ssgstore.Options{Logger: cfg.Logger}),
		limiter: shield.NewRateLimiter(cfg.RateLimit, cfg.Logger),
		session: idgen.Prefixed("ses_", idgen.Default)(),
	}
	if cfg.StateDB == "" {
		return s, nil
	}

	db, err := dbopen.Open(cfg.StateDB,
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(ssgstore.Schema),
		dbopen.WithSchema(audit.Schema))
	if err != nil {
		return nil, fmt.Errorf("service: state db: %w", err)
	}
	s.db = db
	if !cfg.DisableAudit {
		s.audit = audit.NewSQLiteLogger(db, audit.WithLogger(cfg.Logger))
		if cfg.AuditRetention > 0 {
			n, err := s.audit.Cleanup(context.Background(), time.Now().Add(-cfg.AuditRetention))
			if err != nil {
				s.log.Warn("service: audit cleanup failed", "error", err)
			} else if n > 0 {
				s.log.Info("service: audit pruned", "rows", n)
			}
		}
	}
	return s, nil
}

// Close snapshots the runtime state, if persistent, and releases the
// database.
func (s *Service) Close() error {
	if s.db == nil {
		return nil
	}
	var err error
	if s.audit != nil {
		s.audit.Close()
	}
	if s.loaded() {
		err = s.store.Persist(context.Background(), s.db)
	}
	return errors.Join(err, s.db.Close())
}

// Audit returns recent tool calls, newest first.
func (s *Service) Audit(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	if s.audit == nil {
		return nil, ErrNoAudit
	}
	return s.audit.Query(ctx, f)
}

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// Store returns the runtime state store.
func (s *Service) Store() *ssgstore.Store { return s.store }

// StateDB returns the snapshot database, nil when state is memory-only.
func (s *Service) StateDB() *sql.DB { return s.db }

// Session identifies this service instance in logs and tool calls.
func (s *Service) Session() string { return s.session }

// Load parses markup from r and makes it the current document. Runtime
// state of nodes whose ids survive the reload is carried over when a state
// database is configured.
func (s *Service) Load(ctx context.Context, r io.Reader, meta semdom.Meta) (*semdom.Document, error) {
	limit := s.cfg.MaxInputBytes
	buf, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("service: read input: %w", err)
	}
	if int64(len(buf)) > limit {
		return nil, fmt.Errorf("%w: limit is %s", ErrInputTooLarge, humanize.IBytes(uint64(limit)))
	}

	doc, err := s.parser.ParseHTML(bytes.NewReader(buf), meta)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil && s.doc != nil {
		if err := s.store.Persist(ctx, s.db); err != nil {
			s.log.Warn("service: state snapshot failed", "error", err)
		}
	}
	s.doc = doc
	s.store.Load(doc)
	if s.db != nil {
		if err := s.store.Restore(ctx, s.db); err != nil {
			s.log.Warn("service: state restore failed", "error", err)
		}
	}

	s.log.Info("service: document loaded",
		"url", doc.URL,
		"size", humanize.Bytes(uint64(len(buf))),
		"nodes", doc.Len(),
		"level", doc.Certification.Level.String(),
		"score", doc.Certification.Score)
	return doc, nil
}

// LoadFile loads an HTML file. The document URL defaults to its file URL.
func (s *Service) LoadFile(ctx context.Context, path string, meta semdom.Meta) (*semdom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	defer f.Close()
	if meta.URL == "" {
		if abs, err := filepath.Abs(path); err == nil {
			meta.URL = "file://" + filepath.ToSlash(abs)
		}
	}
	return s.Load(ctx, f, meta)
}

// ReloadFile returns a watch action that reloads path.
func (s *Service) ReloadFile(path string, meta semdom.Meta) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := s.LoadFile(ctx, path, meta)
		return err
	}
}

// RestoreState re-reads the snapshot database into the store. It is the
// watch action for snapshots written by another process.
func (s *Service) RestoreState(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	if !s.loaded() {
		return ErrNoDocument
	}
	return s.store.Restore(ctx, s.db)
}

// Document returns the current document.
func (s *Service) Document() (*semdom.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil, ErrNoDocument
	}
	return s.doc, nil
}

func (s *Service) loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc != nil
}

// Lookup returns a node of the current document.
func (s *Service) Lookup(id string) (*semdom.Node, error) {
	doc, err := s.Document()
	if err != nil {
		return nil, err
	}
	n, ok := doc.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return n, nil
}

// Query runs a query against the current document.
func (s *Service) Query(req QueryRequest) ([]*semdom.Node, error) {
	doc, err := s.Document()
	if err != nil {
		return nil, err
	}
	root := doc.Root
	if req.Under != "" {
		n, ok := doc.Lookup(req.Under)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, req.Under)
		}
		root = n
	}
	opts, err := req.options()
	if err != nil {
		return nil, err
	}
	return semdom.Query(root, opts...), nil
}

// Navigate moves from a node of the current document. A miss is
// reported as (nil, nil).
func (s *Service) Navigate(req NavigateRequest) (*semdom.Node, error) {
	doc, err := s.Document()
	if err != nil {
		return nil, err
	}
	if _, ok := doc.Lookup(req.From); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, req.From)
	}
	opts, err := req.options()
	if err != nil {
		return nil, err
	}
	n, ok := doc.Navigate(req.From, opts)
	if !ok {
		return nil, nil
	}
	return n, nil
}

// Transition fires a trigger on a node's runtime state.
func (s *Service) Transition(id string, trigger semdom.Trigger) (semdom.State, error) {
	if !s.loaded() {
		return semdom.StateIdle, ErrNoDocument
	}
	return s.store.Apply(id, trigger)
}
