package lsp

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/sandcalc/sandcalc/pkg/testutil"
	"github.com/sandcalc/sandcalc/pkg/tt"
)

var diagnosticsTests = []struct {
	name string
	text string
	want []lsp.Diagnostic
}{
	{
		name: "no error",
		text: "x = math.sqrt(2)\nx * 2",
		want: []lsp.Diagnostic{},
	},
	{
		name: "policy violations",
		text: "x = 1\nimport os\nf = lambda: 1",
		want: []lsp.Diagnostic{
			{
				Range:    lsp.Range{Start: lsp.Position{Line: 1, Character: 0}, End: lsp.Position{Line: 1, Character: 9}},
				Severity: lsp.Error, Source: "policy", Message: "import statements are not allowed",
			},
			{
				Range:    lsp.Range{Start: lsp.Position{Line: 2, Character: 4}, End: lsp.Position{Line: 2, Character: 13}},
				Severity: lsp.Error, Source: "policy", Message: "lambda expressions are not allowed",
			},
		},
	},
}

func TestDiagnostics(t *testing.T) {
	for _, test := range diagnosticsTests {
		t.Run(test.name, func(t *testing.T) {
			got := diagnostics("file:///a.py", test.text)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiagnostics_ParseError(t *testing.T) {
	got := diagnostics("file:///a.py", "x = 1\ny = (1 +")
	// Only one parse error is reported, and policy violations are not
	// looked for.
	if len(got) != 1 || got[0].Source != "parse" || got[0].Range.Start.Line != 1 {
		t.Errorf("got %v", got)
	}
}

func TestServer(t *testing.T) {
	client, notes := startServer(t)
	ctx := context.Background()

	var init lsp.InitializeResult
	request(t, client, "initialize", lsp.InitializeParams{}, &init)
	if init.Capabilities.TextDocumentSync.Options.Change != lsp.TDSKFull {
		t.Errorf("got capabilities %+v", init.Capabilities)
	}

	client.Notify(ctx, "textDocument/didOpen", lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{URI: "file:///a.py", Text: "import os"}})
	if got := <-notes; len(got.Diagnostics) != 1 || got.Diagnostics[0].Source != "policy" {
		t.Errorf("got diagnostics %+v", got)
	}

	client.Notify(ctx, "textDocument/didChange", lsp.DidChangeTextDocumentParams{
		TextDocument:   lsp.VersionedTextDocumentIdentifier{TextDocumentIdentifier: lsp.TextDocumentIdentifier{URI: "file:///a.py"}},
		ContentChanges: []lsp.TextDocumentContentChangeEvent{{Text: "math.sqrt"}}})
	if got := <-notes; len(got.Diagnostics) != 0 {
		t.Errorf("got diagnostics %+v", got)
	}

	var items []lsp.CompletionItem
	request(t, client, "textDocument/completion", lsp.CompletionParams{
		TextDocumentPositionParams: lsp.TextDocumentPositionParams{
			TextDocument: lsp.TextDocumentIdentifier{URI: "file:///a.py"},
			Position:     lsp.Position{Line: 0, Character: 7}}}, &items)
	if len(items) != 1 || items[0].Label != "sqrt" || items[0].Kind != lsp.CIKFunction {
		t.Errorf("got completion items %+v", items)
	}
	wantRange := lsp.Range{Start: lsp.Position{Character: 5}, End: lsp.Position{Character: 7}}
	if len(items) == 1 && items[0].TextEdit.Range != wantRange {
		t.Errorf("got range %+v, want %+v", items[0].TextEdit.Range, wantRange)
	}

	client.Notify(ctx, "textDocument/didChange", lsp.DidChangeTextDocumentParams{
		TextDocument:   lsp.VersionedTextDocumentIdentifier{TextDocumentIdentifier: lsp.TextDocumentIdentifier{URI: "file:///a.py"}},
		ContentChanges: []lsp.TextDocumentContentChangeEvent{{Text: "abs(-1) + undefined"}}})
	<-notes

	hoverAt := func(char int) *lsp.Range {
		var hover struct{ Range *lsp.Range }
		request(t, client, "textDocument/hover", lsp.TextDocumentPositionParams{
			TextDocument: lsp.TextDocumentIdentifier{URI: "file:///a.py"},
			Position:     lsp.Position{Line: 0, Character: char}}, &hover)
		return hover.Range
	}
	if r := hoverAt(1); r == nil || *r != (lsp.Range{End: lsp.Position{Character: 3}}) {
		t.Errorf("got hover range %v for abs", r)
	}
	if r := hoverAt(12); r != nil {
		t.Errorf("got hover range %v for an unknown name", r)
	}

	err := client.Call(ctx, "textDocument/bogus", nil, nil)
	if rpcErr, ok := err.(*jsonrpc2.Error); !ok || rpcErr.Code != jsonrpc2.CodeMethodNotFound {
		t.Errorf("got error %v, want method not found", err)
	}
}

func startServer(t *testing.T) (*jsonrpc2.Conn, <-chan lsp.PublishDiagnosticsParams) {
	ctx, cancel := context.WithCancel(context.Background())
	serverSide, clientSide := net.Pipe()
	jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(serverSide, jsonrpc2.VSCodeObjectCodec{}),
		handler(newServer()))

	notes := make(chan lsp.PublishDiagnosticsParams, 10)
	client := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(clientSide, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(func(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
			if req.Method == "textDocument/publishDiagnostics" && req.Params != nil {
				var params lsp.PublishDiagnosticsParams
				if json.Unmarshal(*req.Params, &params) == nil {
					notes <- params
				}
			}
			return nil, nil
		}))
	t.Cleanup(func() {
		client.Close()
		cancel()
	})

	timed := make(chan lsp.PublishDiagnosticsParams)
	go func() {
		for {
			select {
			case n := <-notes:
				timed <- n
			case <-time.After(testutil.Scaled(5 * time.Second)):
				close(timed)
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return client, timed
}

func request(t *testing.T, conn *jsonrpc2.Conn, method string, params, result any) {
	t.Helper()
	if err := conn.Call(context.Background(), method, params, result); err != nil {
		t.Fatalf("%s: %v", method, err)
	}
}

func TestPositions(t *testing.T) {
	tt.Test(t, lspPositionFromIdx,
		tt.Args("ab\ncd", 4).Rets(lsp.Position{Line: 1, Character: 1}),
		tt.Args("ab\r\ncd", 5).Rets(lsp.Position{Line: 1, Character: 1}),
		tt.Args("😀x", 4).Rets(lsp.Position{Line: 0, Character: 2}),
	)
	tt.Test(t, lspPositionToIdx,
		tt.Args("ab\ncd", lsp.Position{Line: 1, Character: 1}).Rets(4),
		tt.Args("ab", lsp.Position{Line: 5, Character: 0}).Rets(2),
	)
}

func TestWordAround(t *testing.T) {
	tt.Test(t, wordAround,
		tt.Args("x = math.sqrt(2)", 6).Rets(4, 13),
		tt.Args("x = 1", 1).Rets(0, 1),
		tt.Args("x = 1", 2).Rets(2, 2),
	)
}
