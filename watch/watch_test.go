package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hazyhaar/semdom/dbopen"
)

// counter is a detector whose token the test moves by hand.
type counter struct{ v atomic.Int64 }

func (c *counter) detect(context.Context) (int64, error) { return c.v.Load(), nil }

func start(t *testing.T, w *Watcher, action func(context.Context) error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.OnChange(ctx, action)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Let the baseline be read.
	time.Sleep(50 * time.Millisecond)
}

func TestOnChange_NoDetector(t *testing.T) {
	if err := New(Options{}).OnChange(context.Background(), nil); !errors.Is(err, ErrNoDetector) {
		t.Fatalf("got %v", err)
	}
}

func TestOnChange_FiresOnVersionChange(t *testing.T) {
	var c counter
	var reloads atomic.Int32
	w := New(Options{Interval: 20 * time.Millisecond, Detector: c.detect})
	start(t, w, func(context.Context) error {
		reloads.Add(1)
		return nil
	})

	if got := reloads.Load(); got != 0 {
		t.Fatalf("baseline fired %d reloads", got)
	}

	c.v.Store(1)
	time.Sleep(80 * time.Millisecond)
	if got := reloads.Load(); got != 1 {
		t.Fatalf("expected 1 reload, got %d", got)
	}

	c.v.Store(2)
	time.Sleep(80 * time.Millisecond)
	if got := reloads.Load(); got != 2 {
		t.Fatalf("expected 2 reloads, got %d", got)
	}

	time.Sleep(80 * time.Millisecond)
	if got := reloads.Load(); got != 2 {
		t.Fatalf("expected still 2, got %d", got)
	}
}

func TestOnChange_Debounce(t *testing.T) {
	var c counter
	var reloads atomic.Int32
	w := New(Options{
		Interval: 20 * time.Millisecond,
		Debounce: 100 * time.Millisecond,
		Detector: c.detect,
	})
	start(t, w, func(context.Context) error {
		reloads.Add(1)
		return nil
	})

	for i := int64(1); i <= 5; i++ {
		c.v.Store(i)
		time.Sleep(15 * time.Millisecond)
	}
	if got := reloads.Load(); got != 0 {
		t.Fatalf("expected 0 reloads during debounce, got %d", got)
	}

	time.Sleep(200 * time.Millisecond)
	if got := reloads.Load(); got != 1 {
		t.Fatalf("expected exactly 1 debounced reload, got %d", got)
	}
	if w.Version() != 5 {
		t.Fatalf("version %d, want 5", w.Version())
	}
}

func TestOnChange_ErrorDoesNotAdvanceVersion(t *testing.T) {
	var c counter
	var calls atomic.Int32
	w := New(Options{Interval: 20 * time.Millisecond, Detector: c.detect})
	start(t, w, func(context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("parse failed")
		}
		return nil
	})

	c.v.Store(1)
	time.Sleep(120 * time.Millisecond)

	if got := calls.Load(); got < 2 {
		t.Fatalf("expected a failed call and a retry, got %d calls", got)
	}
	if v := w.Version(); v != 1 {
		t.Fatalf("expected version 1, got %d", v)
	}
	if w.Stats().Errors == 0 {
		t.Fatal("failed reload must count as an error")
	}
}

func TestOnChange_NegativeTokens(t *testing.T) {
	var c counter
	c.v.Store(-7)
	var reloads atomic.Int32
	w := New(Options{Interval: 20 * time.Millisecond, Detector: c.detect})
	start(t, w, func(context.Context) error {
		reloads.Add(1)
		return nil
	})

	c.v.Store(-1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.WaitForReloads(ctx, 1); err != nil {
		t.Fatalf("WaitForReloads: %v", err)
	}
	if w.Version() != -1 {
		t.Fatalf("version %d", w.Version())
	}
}

func TestWaitForReloads_Timeout(t *testing.T) {
	var c counter
	w := New(Options{Interval: 20 * time.Millisecond, Detector: c.detect})
	start(t, w, func(context.Context) error { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	if err := w.WaitForReloads(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}

func TestFileDetectors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte("<main>one</main>"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for name, det := range map[string]ChangeDetector{
		"modtime": FileModTime(path),
		"hash":    FileHash(path),
	} {
		t.Run(name, func(t *testing.T) {
			a, err := det(ctx)
			if err != nil {
				t.Fatal(err)
			}
			b, _ := det(ctx)
			if a != b {
				t.Fatal("unchanged file must keep its token")
			}
		})
	}

	h1, _ := FileHash(path)(ctx)
	m1, _ := FileModTime(path)(ctx)
	later := time.Now().Add(2 * time.Second)
	if err := os.WriteFile(path, []byte("<main>two!</main>"), 0o644); err != nil {
		t.Fatal(err)
	}
	os.Chtimes(path, later, later)
	h2, _ := FileHash(path)(ctx)
	m2, _ := FileModTime(path)(ctx)
	if h1 == h2 || m1 == m2 {
		t.Fatalf("rewrite not detected: hash %d/%d modtime %d/%d", h1, h2, m1, m2)
	}

	if _, err := FileModTime(filepath.Join(t.TempDir(), "missing"))(ctx); err == nil {
		t.Fatal("missing file must be an error")
	}
}

func TestOnChange_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	os.WriteFile(path, []byte("<p>a</p>"), 0o644)

	var seen atomic.Value
	w := New(Options{Interval: 20 * time.Millisecond, Detector: FileHash(path)})
	start(t, w, func(context.Context) error {
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		seen.Store(string(b))
		return nil
	})

	os.WriteFile(path, []byte("<p>b</p>"), 0o644)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.WaitForReloads(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if got := seen.Load(); got != "<p>b</p>" {
		t.Fatalf("action saw %v", got)
	}
}

func TestPragmaDetectors(t *testing.T) {
	db := dbopen.OpenMemory(t)
	ctx := context.Background()

	if v, err := PragmaDataVersion(db)(ctx); err != nil || v < 0 {
		t.Fatalf("data_version: %d, %v", v, err)
	}

	uv := PragmaUserVersion(db)
	if v, err := uv(ctx); err != nil || v != 0 {
		t.Fatalf("user_version: %d, %v", v, err)
	}
	if _, err := db.Exec("PRAGMA user_version = 42"); err != nil {
		t.Fatal(err)
	}
	if v, _ := uv(ctx); v != 42 {
		t.Fatalf("user_version after bump: %d", v)
	}
}

func TestStats(t *testing.T) {
	var c counter
	w := New(Options{Interval: 20 * time.Millisecond, Detector: c.detect})
	start(t, w, func(context.Context) error { return nil })

	c.v.Store(1)
	time.Sleep(80 * time.Millisecond)

	s := w.Stats()
	if s.Checks == 0 || s.ChangesDetected == 0 || s.Reloads == 0 {
		t.Fatalf("stats: %+v", s)
	}
}
