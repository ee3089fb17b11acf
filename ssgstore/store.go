// Package ssgstore holds the live UI state of a parsed document. A
// semdom.Document is immutable and only records the state each node had at
// parse time; a Store is seeded from it and then tracks transitions applied
// by a caller (an agent clicking through a page, a UI binding), with a
// bounded per-node history and change subscriptions.
//
// A Store is owned by one session. Create as many as needed; nothing is
// shared between them.
package ssgstore

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/semdom/idgen"
	"github.com/hazyhaar/semdom/semdom"
)

// DefaultHistoryLimit is the number of records kept per node.
const DefaultHistoryLimit = 100

// TriggerSet marks history records written by Set rather than Apply.
const TriggerSet semdom.Trigger = "set"

var (
	ErrUnknownNode       = errors.New("ssgstore: unknown node")
	ErrInvalidTransition = errors.New("ssgstore: invalid transition")
)

// Record is one applied state change.
type Record struct {
	ID      string         `json:"id"`
	NodeID  string         `json:"nodeId"`
	From    semdom.State   `json:"from"`
	To      semdom.State   `json:"to"`
	Trigger semdom.Trigger `json:"trigger"`
	At      time.Time      `json:"at"`
}

// Listener is called after every state change, outside the store lock.
type Listener func(Record)

// Options configures a Store.
type Options struct {
	// HistoryLimit caps each node's history. Default: 100.
	HistoryLimit int
	// IDs generates record ids. Default: "ssg_" + UUIDv7.
	IDs idgen.Generator
	// Now is the clock. Default: time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = DefaultHistoryLimit
	}
	if o.IDs == nil {
		o.IDs = idgen.Prefixed("ssg_", idgen.Default)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

type entry struct {
	role semdom.Role
	// parsed is the state the markup reported at Load.
	parsed  semdom.State
	state   semdom.State
	table   []semdom.Transition
	history []Record
}

// Store is safe for concurrent use.
type Store struct {
	opts Options

	mu      sync.RWMutex
	entries map[string]*entry
	subs    map[uint64]Listener
	nextSub uint64
	version int64
}

// New returns an empty Store.
func New(opts Options) *Store {
	opts.defaults()
	return &Store{
		opts:    opts,
		entries: make(map[string]*entry),
		subs:    make(map[uint64]Listener),
	}
}

// Load replaces the store's contents with the state graph of doc. History
// is cleared.
func (s *Store) Load(doc *semdom.Document) {
	entries := make(map[string]*entry, len(doc.StateGraph))
	for id, g := range doc.StateGraph {
		entries[id] = &entry{
			role:   g.Role,
			parsed: g.CurrentState,
			state:  g.CurrentState,
			table:  append([]semdom.Transition(nil), g.Transitions...),
		}
	}
	s.mu.Lock()
	s.entries = entries
	s.version++
	s.mu.Unlock()
	s.opts.Logger.Debug("ssgstore: loaded", "nodes", len(entries), "url", doc.URL)
}

// Len returns the number of tracked nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Version increments on every Load and state change.
func (s *Store) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Get returns the current state of a node.
func (s *Store) Get(id string) (semdom.State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return semdom.StateIdle, false
	}
	return e.state, true
}

// Available returns the transitions leaving the node's current state.
func (s *Store) Available(id string) ([]semdom.Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	var out []semdom.Transition
	for _, t := range e.table {
		if t.From == e.state {
			out = append(out, t)
		}
	}
	return out, nil
}

// Set forces a node into state without consulting its table.
func (s *Store) Set(id string, state semdom.State) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	rec := s.record(id, e, state, TriggerSet)
	subs := s.listeners()
	s.mu.Unlock()

	notify(subs, rec)
	return nil
}

// Apply fires trigger on a node and returns the new state.
func (s *Store) Apply(id string, trigger semdom.Trigger) (semdom.State, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return semdom.StateIdle, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	to, ok := semdom.NextState(e.table, e.state, trigger)
	if !ok {
		from := e.state
		s.mu.Unlock()
		return from, fmt.Errorf("%w: %s has no %q edge from %s", ErrInvalidTransition, id, trigger, from)
	}
	rec := s.record(id, e, to, trigger)
	subs := s.listeners()
	s.mu.Unlock()

	s.opts.Logger.Debug("ssgstore: transition",
		"node", id, "from", rec.From.String(), "to", to.String(), "trigger", string(trigger))
	notify(subs, rec)
	return to, nil
}

// record moves e to state and appends to its history. Caller holds mu.
func (s *Store) record(id string, e *entry, to semdom.State, trigger semdom.Trigger) Record {
	rec := Record{
		ID:      s.opts.IDs(),
		NodeID:  id,
		From:    e.state,
		To:      to,
		Trigger: trigger,
		At:      s.opts.Now(),
	}
	e.state = to
	e.history = append(e.history, rec)
	if over := len(e.history) - s.opts.HistoryLimit; over > 0 {
		e.history = append(e.history[:0:0], e.history[over:]...)
	}
	s.version++
	return rec
}

// History returns a copy of the node's records, oldest first.
func (s *Store) History(id string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	return append([]Record(nil), e.history...)
}

// Snapshot returns the current state of every node.
func (s *Store) Snapshot() map[string]semdom.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]semdom.State, len(s.entries))
	for id, e := range s.entries {
		out[id] = e.state
	}
	return out
}

// Subscribe registers fn for every later change. Call the returned
// function to unsubscribe; it is safe to call more than once.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// listeners copies the subscriber set. Caller holds mu.
func (s *Store) listeners() []Listener {
	if len(s.subs) == 0 {
		return nil
	}
	out := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []Listener, rec Record) {
	for _, fn := range subs {
		fn(rec)
	}
}
