package ssgstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazyhaar/semdom/dbopen"
	"github.com/hazyhaar/semdom/semdom"
)

// Schema creates the snapshot tables. Pass it to dbopen.WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS ssg_state (
	node_id    TEXT PRIMARY KEY,
	role         TEXT NOT NULL,
	parsed_state TEXT NOT NULL,
	state        TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS ssg_history (
	id         TEXT PRIMARY KEY,
	node_id    TEXT NOT NULL REFERENCES ssg_state(node_id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	from_state TEXT NOT NULL,
	to_state   TEXT NOT NULL,
	trigger    TEXT NOT NULL,
	at         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ssg_history_node ON ssg_history(node_id, seq);
`

// Persist replaces the snapshot in db with the store's current states and
// histories.
func (s *Store) Persist(ctx context.Context, db *sql.DB) error {
	type row struct {
		id      string
		role    semdom.Role
		parsed  semdom.State
		state   semdom.State
		history []Record
	}
	s.mu.RLock()
	rows := make([]row, 0, len(s.entries))
	for id, e := range s.entries {
		rows = append(rows, row{id, e.role, e.parsed, e.state, append([]Record(nil), e.history...)})
	}
	s.mu.RUnlock()

	now := s.opts.Now().UnixMilli()
	err := dbopen.RunTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM ssg_history`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM ssg_state`); err != nil {
			return err
		}
		stState, err := tx.PrepareContext(ctx,
			`INSERT INTO ssg_state (node_id, role, parsed_state, state, updated_at) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stState.Close()
		stHist, err := tx.PrepareContext(ctx,
			`INSERT INTO ssg_history (id, node_id, seq, from_state, to_state, trigger, at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stHist.Close()

		for _, r := range rows {
			if _, err := stState.ExecContext(ctx, r.id, r.role.String(), r.parsed.String(), r.state.String(), now); err != nil {
				return fmt.Errorf("state %s: %w", r.id, err)
			}
			for i, h := range r.history {
				if _, err := stHist.ExecContext(ctx, h.ID, r.id, i,
					h.From.String(), h.To.String(), string(h.Trigger), h.At.UnixMilli()); err != nil {
					return fmt.Errorf("history %s: %w", h.ID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ssgstore: persist: %w", err)
	}
	s.opts.Logger.Debug("ssgstore: persisted", "nodes", len(rows))
	return nil
}

// Restore overwrites states and histories of nodes already loaded with the
// snapshot in db. A row is applied only when the node's parse-time state
// matches the one recorded with the snapshot; when the markup changed the
// node's state since, the markup wins. Rows for nodes the store does not
// track are ignored, as are rows whose names no longer parse. Listeners are
// not notified.
func (s *Store) Restore(ctx context.Context, db *sql.DB) error {
	type snap struct{ parsed, state semdom.State }
	states := make(map[string]snap)
	rows, err := db.QueryContext(ctx, `SELECT node_id, parsed_state, state FROM ssg_state`)
	if err != nil {
		return fmt.Errorf("ssgstore: restore: %w", err)
	}
	for rows.Next() {
		var id, parsedName, name string
		if err := rows.Scan(&id, &parsedName, &name); err != nil {
			rows.Close()
			return fmt.Errorf("ssgstore: restore: %w", err)
		}
		parsed, err := semdom.ParseState(parsedName)
		if err == nil {
			var st semdom.State
			if st, err = semdom.ParseState(name); err == nil {
				states[id] = snap{parsed, st}
				continue
			}
		}
		s.opts.Logger.Warn("ssgstore: skipping snapshot row", "node", id, "error", err)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("ssgstore: restore: %w", err)
	}

	history := make(map[string][]Record)
	hrows, err := db.QueryContext(ctx,
		`SELECT id, node_id, from_state, to_state, trigger, at FROM ssg_history ORDER BY node_id, seq`)
	if err != nil {
		return fmt.Errorf("ssgstore: restore history: %w", err)
	}
	defer hrows.Close()
	for hrows.Next() {
		var (
			rec      Record
			from, to string
			trigger  string
			at       int64
		)
		if err := hrows.Scan(&rec.ID, &rec.NodeID, &from, &to, &trigger, &at); err != nil {
			return fmt.Errorf("ssgstore: restore history: %w", err)
		}
		if rec.From, err = semdom.ParseState(from); err != nil {
			continue
		}
		if rec.To, err = semdom.ParseState(to); err != nil {
			continue
		}
		rec.Trigger = semdom.Trigger(trigger)
		rec.At = time.UnixMilli(at)
		history[rec.NodeID] = append(history[rec.NodeID], rec)
	}
	if err := hrows.Err(); err != nil {
		return fmt.Errorf("ssgstore: restore history: %w", err)
	}

	restored, stale := 0, 0
	s.mu.Lock()
	for id, sn := range states {
		e, ok := s.entries[id]
		if !ok {
			continue
		}
		if e.parsed != sn.parsed {
			stale++
			continue
		}
		e.state = sn.state
		h := history[id]
		if over := len(h) - s.opts.HistoryLimit; over > 0 {
			h = h[over:]
		}
		e.history = h
		restored++
	}
	s.version++
	s.mu.Unlock()

	s.opts.Logger.Debug("ssgstore: restored", "nodes", restored, "stale", stale, "snapshot", len(states))
	return nil
}
