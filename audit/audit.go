// Package audit records one row per tool call in SQLite. Entries are
// buffered and written in batches; Close drains the buffer.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/semdom/dbopen"
	"github.com/hazyhaar/semdom/idgen"
	"github.com/hazyhaar/semdom/kit"
)

// Schema creates the audit_log table.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_log (
    entry_id      TEXT PRIMARY KEY,
    timestamp     INTEGER NOT NULL,
    action        TEXT NOT NULL,
    transport     TEXT NOT NULL,
    session_id    TEXT NOT NULL DEFAULT '',
    request_id    TEXT NOT NULL DEFAULT '',
    parameters    TEXT NOT NULL DEFAULT '',
    error_message TEXT NOT NULL DEFAULT '',
    duration_ms   INTEGER NOT NULL DEFAULT 0,
    status        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_log(action, status);
`

// MaxParameters caps the stored request JSON; page markup can be large.
const MaxParameters = 4 << 10

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Entry is one audited call. Timestamp is in Unix milliseconds.
type Entry struct {
	EntryID    string `json:"entryId"`
	Timestamp  int64  `json:"timestamp"`
	Action     string `json:"action"`
	Transport  string `json:"transport"`
	SessionID  string `json:"sessionId,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
	Parameters string `json:"parameters,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
	Status     string `json:"status"`
}

// Logger is what Middleware writes to.
type Logger interface {
	Log(ctx context.Context, e *Entry) error
	LogAsync(e *Entry)
}

// Filter narrows Query. Zero fields match everything.
type Filter struct {
	Action string
	Status string
	Since  time.Time
	// Limit defaults to 100.
	Limit int
}

// SQLiteLogger is a Logger backed by the audit_log table.
type SQLiteLogger struct {
	db       *sql.DB
	newID    idgen.Generator
	log      *slog.Logger
	batch    int
	interval time.Duration

	ch        chan *Entry
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a SQLiteLogger.
type Option func(*SQLiteLogger)

// WithIDGenerator replaces the "aud_" prefixed default.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(l *SQLiteLogger) { l.newID = gen }
}

// WithLogger sets the logger for flush failures.
func WithLogger(log *slog.Logger) Option {
	return func(l *SQLiteLogger) { l.log = log }
}

// WithBuffer sets the queue size and the batch size that triggers a flush.
func WithBuffer(queue, batch int) Option {
	return func(l *SQLiteLogger) {
		if queue > 0 {
			l.ch = make(chan *Entry, queue)
		}
		if batch > 0 {
			l.batch = batch
		}
	}
}

// WithFlushInterval sets how often a partial batch is written.
func WithFlushInterval(d time.Duration) Option {
	return func(l *SQLiteLogger) {
		if d > 0 {
			l.interval = d
		}
	}
}

// NewSQLiteLogger starts the flush goroutine. Call Init once if the schema
// was not applied when the database was opened.
func NewSQLiteLogger(db *sql.DB, opts ...Option) *SQLiteLogger {
	l := &SQLiteLogger{
		db:       db,
		newID:    idgen.Prefixed("aud_", idgen.Default),
		log:      slog.Default(),
		batch:    32,
		interval: 2 * time.Second,
		ch:       make(chan *Entry, 512),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	go l.flushLoop()
	return l
}

// Init creates the audit table.
func (l *SQLiteLogger) Init() error {
	_, err := l.db.Exec(Schema)
	return err
}

func (l *SQLiteLogger) fillDefaults(e *Entry) {
	if e.EntryID == "" {
		e.EntryID = l.newID()
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	if e.Transport == "" {
		e.Transport = kit.TransportCLI
	}
	if e.Status == "" {
		e.Status = StatusSuccess
		if e.Error != "" {
			e.Status = StatusError
		}
	}
}

// Log writes e immediately.
func (l *SQLiteLogger) Log(ctx context.Context, e *Entry) error {
	l.fillDefaults(e)
	_, err := dbopen.Exec(ctx, l.db, insertSQL, e.args()...)
	return err
}

// LogAsync queues e. A full queue falls back to a synchronous write.
func (l *SQLiteLogger) LogAsync(e *Entry) {
	l.fillDefaults(e)
	select {
	case l.ch <- e:
	default:
		l.log.Warn("audit: buffer full, writing inline", "action", e.Action)
		if _, err := dbopen.Exec(context.Background(), l.db, insertSQL, e.args()...); err != nil {
			l.log.Error("audit: inline write failed", "error", err)
		}
	}
}

// Close drains the queue. It is safe to call more than once.
func (l *SQLiteLogger) Close() error {
	l.closeOnce.Do(func() { close(l.stop) })
	<-l.done
	return nil
}

// Query returns entries newest first.
func (l *SQLiteLogger) Query(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if !f.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, f.Since.UnixMilli())
	}
	q := `SELECT entry_id, timestamp, action, transport, session_id, request_id,
		parameters, error_message, duration_ms, status FROM audit_log`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	q += " ORDER BY timestamp DESC, entry_id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.EntryID, &e.Timestamp, &e.Action, &e.Transport, &e.SessionID,
			&e.RequestID, &e.Parameters, &e.Error, &e.DurationMs, &e.Status); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Cleanup deletes entries older than before and reports how many went.
func (l *SQLiteLogger) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	res, err := dbopen.Exec(ctx, l.db, "DELETE FROM audit_log WHERE timestamp < ?", before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("audit: cleanup: %w", err)
	}
	return res.RowsAffected()
}

const insertSQL = `INSERT INTO audit_log
	(entry_id, timestamp, action, transport, session_id, request_id,
	 parameters, error_message, duration_ms, status)
	VALUES (?,?,?,?,?,?,?,?,?,?)`

func (e *Entry) args() []any {
	return []any{e.EntryID, e.Timestamp, e.Action, e.Transport, e.SessionID, e.RequestID,
		e.Parameters, e.Error, e.DurationMs, e.Status}
}

func (l *SQLiteLogger) flushLoop() {
	defer close(l.done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	batch := make([]*Entry, 0, l.batch)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := dbopen.RunTx(ctx, l.db, func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx, insertSQL)
			if err != nil {
				return err
			}
			defer stmt.Close()
			for _, e := range batch {
				if _, err := stmt.ExecContext(ctx, e.args()...); err != nil {
					return fmt.Errorf("%s: %w", e.EntryID, err)
				}
			}
			return nil
		})
		if err != nil {
			l.log.Error("audit: flush failed", "entries", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-l.stop:
			for {
				select {
				case e := <-l.ch:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		case e := <-l.ch:
			batch = append(batch, e)
			if len(batch) >= l.batch {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Middleware audits every call of the wrapped endpoint under action. The
// request is recorded as JSON; responses are not stored.
func Middleware(l Logger, action string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			e := &Entry{
				Action:     action,
				Transport:  kit.GetTransport(ctx),
				SessionID:  kit.GetSessionID(ctx),
				RequestID:  kit.GetRequestID(ctx),
				DurationMs: time.Since(start).Milliseconds(),
			}
			if req != nil {
				if b, merr := json.Marshal(req); merr == nil {
					if len(b) > MaxParameters {
						b = b[:MaxParameters]
					}
					e.Parameters = string(b)
				}
			}
			if err != nil {
				e.Error = err.Error()
			}
			l.LogAsync(e)
			return resp, err
		}
	}
}
