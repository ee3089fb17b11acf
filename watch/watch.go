// Package watch re-runs an action when a source changes: an HTML file on
// disk that must be re-parsed, or a state snapshot database written by
// another process. It polls a version token, debounces bursts of changes
// and reports counters.
//
//	w := watch.New(watch.Options{
//		Detector: watch.FileModTime("page.html"),
//		Interval: 500 * time.Millisecond,
//		Debounce: 200 * time.Millisecond,
//	})
//	go w.OnChange(ctx, svc.ReloadFile)
package watch

import (
	"context"
	"database/sql"
	"errors"
	"hash/fnv"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNoDetector is returned by OnChange when Options.Detector is nil.
var ErrNoDetector = errors.New("watch: no change detector")

// ChangeDetector reads a version token. Two calls that return different
// values mean the source changed.
type ChangeDetector func(ctx context.Context) (int64, error)

// Options tunes the watcher.
type Options struct {
	// Detector reads the version token. Required.
	Detector ChangeDetector
	// Interval is the polling frequency. Default: 1s.
	Interval time.Duration
	// Debounce is the quiet period after a change before the action fires.
	// Further changes inside the window restart it. 0 fires immediately.
	Debounce time.Duration
	Logger   *slog.Logger
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Watcher is safe for concurrent use.
type Watcher struct {
	opts Options

	// version is the last token whose action succeeded.
	version atomic.Int64
	// seq counts successful actions; WaitForReloads blocks on it.
	seq     atomic.Int64
	seqMu   sync.Mutex
	seqCond *sync.Cond

	checks   atomic.Int64
	changes  atomic.Int64
	errors   atomic.Int64
	reloads  atomic.Int64
	reloadNs atomic.Int64
}

// Stats are point-in-time counters.
type Stats struct {
	Checks          int64         `json:"checks"`
	ChangesDetected int64         `json:"changes_detected"`
	Errors          int64         `json:"errors"`
	Reloads         int64         `json:"reloads"`
	AvgReloadTime   time.Duration `json:"avg_reload_time"`
}

// New creates a Watcher. Call OnChange to start the loop.
func New(opts Options) *Watcher {
	opts.defaults()
	w := &Watcher{opts: opts}
	w.seqCond = sync.NewCond(&w.seqMu)
	return w
}

// Stats returns the current counters.
func (w *Watcher) Stats() Stats {
	s := Stats{
		Checks:          w.checks.Load(),
		ChangesDetected: w.changes.Load(),
		Errors:          w.errors.Load(),
		Reloads:         w.reloads.Load(),
	}
	if s.Reloads > 0 {
		s.AvgReloadTime = time.Duration(w.reloadNs.Load() / s.Reloads)
	}
	return s
}

// Version returns the token of the last successful action.
func (w *Watcher) Version() int64 { return w.version.Load() }

// OnChange polls until ctx is cancelled. The token observed at start is
// the baseline and does not fire. When the token moves and the debounce
// window passes quietly, action runs; if it fails the token is not
// recorded and the next poll retries.
func (w *Watcher) OnChange(ctx context.Context, action func(context.Context) error) error {
	if w.opts.Detector == nil {
		return ErrNoDetector
	}
	log := w.opts.Logger

	if v, err := w.opts.Detector(ctx); err != nil {
		log.Warn("watch: initial version check failed", "error", err)
	} else {
		w.version.Store(v)
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	var (
		debounce   *time.Timer
		debounceCh <-chan time.Time
		pending    int64
		hasPending bool
	)
	log.Info("watch: started", "interval", w.opts.Interval, "debounce", w.opts.Debounce)

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			log.Info("watch: stopped")
			return ctx.Err()

		case <-ticker.C:
			w.checks.Add(1)
			cur, err := w.opts.Detector(ctx)
			if err != nil {
				w.errors.Add(1)
				log.Warn("watch: version check failed", "error", err)
				continue
			}
			if cur == w.version.Load() || (hasPending && cur == pending) {
				continue
			}
			w.changes.Add(1)
			pending, hasPending = cur, true
			if w.opts.Debounce <= 0 {
				w.fire(ctx, action, pending)
				hasPending = false
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(w.opts.Debounce)
			debounceCh = debounce.C
			log.Debug("watch: change detected, debouncing", "pending_version", cur)

		case <-debounceCh:
			debounceCh = nil
			if hasPending {
				w.fire(ctx, action, pending)
				hasPending = false
			}
		}
	}
}

func (w *Watcher) fire(ctx context.Context, action func(context.Context) error, ver int64) {
	log := w.opts.Logger
	log.Info("watch: reloading", "old_version", w.version.Load(), "new_version", ver)
	start := time.Now()
	if err := action(ctx); err != nil {
		w.errors.Add(1)
		log.Error("watch: reload failed", "error", err, "version", ver)
		return
	}
	elapsed := time.Since(start)
	w.reloads.Add(1)
	w.reloadNs.Add(int64(elapsed))
	w.version.Store(ver)

	w.seqMu.Lock()
	w.seq.Add(1)
	w.seqCond.Broadcast()
	w.seqMu.Unlock()
	log.Info("watch: reload complete", "version", ver, "duration", elapsed)
}

// WaitForReloads blocks until at least n actions have succeeded, or ctx
// expires.
func (w *Watcher) WaitForReloads(ctx context.Context, n int64) error {
	if w.seq.Load() >= n {
		return nil
	}
	stop := context.AfterFunc(ctx, func() {
		w.seqMu.Lock()
		w.seqCond.Broadcast()
		w.seqMu.Unlock()
	})
	defer stop()

	w.seqMu.Lock()
	defer w.seqMu.Unlock()
	for w.seq.Load() < n {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.seqCond.Wait()
	}
	return nil
}

// ---------- Detectors ----------

// FileModTime tokens a file by modification time and size. A missing file
// is an error, so the watcher keeps the last good document.
func FileModTime(path string) ChangeDetector {
	return func(context.Context) (int64, error) {
		fi, err := os.Stat(path)
		if err != nil {
			return 0, err
		}
		return fi.ModTime().UnixNano() ^ fi.Size(), nil
	}
}

// FileHash tokens a file by an FNV-1a hash of its contents. It catches
// rewrites that keep the modification time, at the cost of reading the
// file on every poll.
func FileHash(path string) ChangeDetector {
	return func(context.Context) (int64, error) {
		f, err := os.Open(path)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		h := fnv.New64a()
		if _, err := io.Copy(h, f); err != nil {
			return 0, err
		}
		return int64(h.Sum64()), nil
	}
}

// PragmaDataVersion uses PRAGMA data_version, which moves when another
// connection writes to the database file. Use it to pick up state
// snapshots persisted by another process.
func PragmaDataVersion(db *sql.DB) ChangeDetector {
	return func(ctx context.Context) (int64, error) {
		var v int64
		err := db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v)
		return v, err
	}
}

// PragmaUserVersion uses PRAGMA user_version, which writers bump
// explicitly.
func PragmaUserVersion(db *sql.DB) ChangeDetector {
	return func(ctx context.Context) (int64, error) {
		var v int64
		err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
		return v, err
	}
}
