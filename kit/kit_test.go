package kit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestChain_Order(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name+"_before")
				resp, err := next(ctx, req)
				order = append(order, name+"_after")
				return resp, err
			}
		}
	}

	base := func(_ context.Context, _ any) (any, error) {
		order = append(order, "endpoint")
		return "ok", nil
	}

	chained := Chain(mw("a"), mw("b"), mw("c"))(base)
	resp, err := chained(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != "ok" {
		t.Fatalf("response: got %v", resp)
	}

	expected := []string{"a_before", "b_before", "c_before", "endpoint", "c_after", "b_after", "a_after"}
	if len(order) != len(expected) {
		t.Fatalf("order length: got %d, want %d", len(order), len(expected))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Fatalf("order[%d]: got %q, want %q", i, order[i], v)
		}
	}
}

func TestChain_ErrorPropagation(t *testing.T) {
	errFail := errors.New("fail")
	base := func(_ context.Context, _ any) (any, error) {
		return nil, errFail
	}

	noop := func(next Endpoint) Endpoint { return next }
	chained := Chain(noop)(base)

	_, err := chained(context.Background(), nil)
	if !errors.Is(err, errFail) {
		t.Fatalf("error: got %v, want %v", err, errFail)
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ep := Logging(logger, "sdom_query")(func(_ context.Context, _ any) (any, error) {
		return nil, errors.New("boom")
	})
	ctx := WithRequestID(WithTransport(context.Background(), TransportHTTP), "req_1")
	ep(ctx, nil)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line: %v (%s)", err, buf.String())
	}
	if line["msg"] != "kit: call failed" || line["endpoint"] != "sdom_query" ||
		line["transport"] != "http" || line["request_id"] != "req_1" || line["error"] != "boom" {
		t.Fatalf("log line: %v", line)
	}
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ep := Recovery(logger)(func(_ context.Context, _ any) (any, error) {
		panic("bad node")
	})
	_, err := ep(context.Background(), nil)
	var ep2 *ErrPanic
	if !errors.As(err, &ep2) || ep2.Value != "bad node" {
		t.Fatalf("expected ErrPanic, got %T: %v", err, err)
	}
}

func TestTimeout(t *testing.T) {
	ep := Timeout(10 * time.Millisecond)(func(ctx context.Context, _ any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	_, err := ep(context.Background(), nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v", err)
	}
}

func TestContext_Transport(t *testing.T) {
	if v := GetTransport(context.Background()); v != TransportCLI {
		t.Fatalf("default transport: got %q", v)
	}
	ctx := WithTransport(context.Background(), TransportMCP)
	if v := GetTransport(ctx); v != TransportMCP {
		t.Fatalf("transport: got %q", v)
	}
}

func TestContext_IDs(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" || GetSessionID(ctx) != "" {
		t.Fatal("empty context must yield empty ids")
	}
	ctx = WithSessionID(WithRequestID(ctx, "req_abc"), "ses_1")
	if v := GetRequestID(ctx); v != "req_abc" {
		t.Fatalf("request_id: got %q", v)
	}
	if v := GetSessionID(ctx); v != "ses_1" {
		t.Fatalf("session_id: got %q", v)
	}
}

func TestInputSchema(t *testing.T) {
	s := InputSchema(map[string]any{"id": map[string]any{"type": "string"}}, []string{"id"})
	if s["type"] != "object" {
		t.Fatalf("type: %v", s["type"])
	}
	if _, ok := s["required"]; !ok {
		t.Fatal("required missing")
	}
	if _, ok := InputSchema(map[string]any{}, nil)["required"]; ok {
		t.Fatal("empty required must be omitted")
	}
}

type echoReq struct {
	Word string `json:"word"`
}

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	impl := &mcp.Implementation{Name: "kit-test", Version: "0.1.0"}
	srv := mcp.NewServer(impl, nil)

	RegisterMCPTool(srv, &mcp.Tool{
		Name:        "echo",
		Description: "Echo a word with the request's transport.",
		InputSchema: InputSchema(map[string]any{
			"word": map[string]any{"type": "string"},
		}, []string{"word"}),
	}, func(ctx context.Context, req any) (any, error) {
		r := req.(*echoReq)
		if r.Word == "fail" {
			return nil, errors.New("asked to fail")
		}
		return map[string]string{
			"word":      r.Word,
			"transport": GetTransport(ctx),
			"request":   GetRequestID(ctx),
		}, nil
	}, DecodeJSON[echoReq]())

	RegisterMCPTool(srv, &mcp.Tool{
		Name:        "shout",
		Description: "Return plain text.",
		InputSchema: InputSchema(map[string]any{}, nil),
	}, func(_ context.Context, _ any) (any, error) {
		return Text("HELLO"), nil
	}, DecodeJSON[struct{}]())

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(impl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func TestRegisterMCPTool(t *testing.T) {
	session := mcpSession(t)
	ctx := context.Background()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "echo", Arguments: map[string]any{"word": "hi"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %+v", res.Content)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(res.Content[0].(*mcp.TextContent).Text), &got); err != nil {
		t.Fatal(err)
	}
	if got["word"] != "hi" || got["transport"] != TransportMCP || got["request"] == "" {
		t.Fatalf("response: %v", got)
	}

	res, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "echo", Arguments: map[string]any{"word": "fail"}})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.Contains(res.Content[0].(*mcp.TextContent).Text, "asked to fail") {
		t.Fatalf("expected tool error, got %+v", res)
	}

	res, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "shout", Arguments: map[string]any{}})
	if err != nil {
		t.Fatal(err)
	}
	if text := res.Content[0].(*mcp.TextContent).Text; text != "HELLO" {
		t.Fatalf("text result: %q", text)
	}
}
