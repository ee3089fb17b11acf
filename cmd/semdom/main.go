// Command semdom turns an HTML page into a SemanticDOM for agents.
//
// Usage:
//
//	semdom -file page.html                       # print TOON and exit
//	semdom -file page.html -format summary       # agent summary
//	semdom -file page.html -query-role button    # query and exit
//	semdom -file page.html -navigate-from home -direction next
//	semdom -file page.html -serve -watch         # HTTP + MCP, reload on change
//	semdom -mcp                                  # MCP over stdio
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/semdom/semdom"
	"github.com/hazyhaar/semdom/service"
	"github.com/hazyhaar/semdom/watch"
)

var version = "dev"

type flags struct {
	config    string
	file      string
	url       string
	title     string
	format    string
	queryRole string
	queryText string
	limit     int
	from      string
	direction string
	serve     bool
	mcp       bool
	watch     bool
	stateDB   string
	addr      string
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", "", "path to semdom.yaml config file")
	flag.StringVar(&f.file, "file", "", "HTML file to parse")
	flag.StringVar(&f.url, "url", "", "URL recorded on the document (not fetched)")
	flag.StringVar(&f.title, "title", "", "title override")
	flag.StringVar(&f.format, "format", service.FormatTOON, "output format: toon, json, summary, oneliner, nav")
	flag.StringVar(&f.queryRole, "query-role", "", "comma-separated roles to query (one-shot)")
	flag.StringVar(&f.queryText, "query-text", "", "label substring to query (one-shot)")
	flag.IntVar(&f.limit, "limit", 0, "max query results (0 = unbounded)")
	flag.StringVar(&f.from, "navigate-from", "", "node id to navigate from (one-shot)")
	flag.StringVar(&f.direction, "direction", "next", "navigation direction")
	flag.BoolVar(&f.serve, "serve", false, "serve HTTP and MCP (streamable) until interrupted")
	flag.BoolVar(&f.mcp, "mcp", false, "serve MCP over stdio")
	flag.BoolVar(&f.watch, "watch", false, "reload -file when it changes (serve modes)")
	flag.StringVar(&f.stateDB, "state-db", "", "SQLite file for runtime state snapshots")
	flag.StringVar(&f.addr, "addr", "", "HTTP listen address (overrides config)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, f); err != nil {
		logger.Error("semdom: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, f flags) error {
	cfg, err := resolveConfig(f)
	if err != nil {
		return err
	}
	cfg.Logger = logger

	s, err := service.New(*cfg)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("semdom: close", "error", err)
		}
	}()

	meta := semdom.Meta{URL: f.url, Title: f.title}
	if f.file != "" {
		if _, err := s.LoadFile(ctx, f.file, meta); err != nil {
			return err
		}
	}

	switch {
	case f.mcp:
		startWatchers(ctx, logger, s, f, meta)
		return newMCPServer(s).Run(ctx, &mcp.StdioTransport{})
	case f.serve:
		startWatchers(ctx, logger, s, f, meta)
		return serve(ctx, logger, s)
	}

	if f.file == "" {
		return errors.New("usage: semdom -file <page.html> [-format f] [-query-role r] | -serve | -mcp")
	}
	return oneShot(s, f)
}

func resolveConfig(f flags) (*service.Config, error) {
	cfg := &service.Config{}
	if f.config != "" {
		var err error
		if cfg, err = service.LoadConfigFile(f.config); err != nil {
			return nil, err
		}
	}
	if f.stateDB != "" {
		cfg.StateDB = f.stateDB
	}
	if f.addr != "" {
		cfg.HTTPAddr = f.addr
	}
	return cfg, nil
}

func newMCPServer(s *service.Service) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "semdom", Version: version}, nil)
	s.RegisterMCP(srv)
	return srv
}

func serve(ctx context.Context, logger *slog.Logger, s *service.Service) error {
	r := s.Router()
	srv := newMCPServer(s)
	r.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil))

	addr := s.Config().HTTPAddr
	hs := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	logger.Info("semdom: listening", "addr", addr, "session", s.Session())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("semdom: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// startWatchers reloads the page file and re-reads state snapshots written
// by other processes sharing the state database.
func startWatchers(ctx context.Context, logger *slog.Logger, s *service.Service, f flags, meta semdom.Meta) {
	if !f.watch {
		return
	}
	wc := s.Config().Watch
	if f.file != "" {
		w := watch.New(watch.Options{
			Detector: watch.FileModTime(f.file),
			Interval: wc.Interval,
			Debounce: wc.Debounce,
			Logger:   logger,
		})
		go w.OnChange(ctx, s.ReloadFile(f.file, meta))
	}
	if db := s.StateDB(); db != nil {
		w := watch.New(watch.Options{
			Detector: watch.PragmaDataVersion(db),
			Interval: wc.Interval,
			Logger:   logger,
		})
		go w.OnChange(ctx, s.RestoreState)
	}
}

func oneShot(s *service.Service, f flags) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if f.from != "" {
		n, err := s.Navigate(service.NavigateRequest{From: f.from, Direction: f.direction})
		if err != nil {
			return err
		}
		if n == nil {
			return enc.Encode(map[string]any{"found": false})
		}
		return enc.Encode(service.View(n))
	}

	if f.queryRole != "" || f.queryText != "" {
		req := service.QueryRequest{Text: f.queryText}
		if f.queryRole != "" {
			req.Roles = strings.Split(f.queryRole, ",")
		}
		if f.limit > 0 {
			req.Limit = &f.limit
		}
		nodes, err := s.Query(req)
		if err != nil {
			return err
		}
		return enc.Encode(service.Views(nodes))
	}

	doc, err := s.Document()
	if err != nil {
		return err
	}
	out, err := service.Render(doc, f.format)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, strings.TrimRight(out, "\n"))
	return nil
}
