package mcpserver

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/raido/internal/backup"
	"github.com/starford/raido/internal/lifecycle"
	"github.com/starford/raido/internal/mover"
	"github.com/starford/raido/internal/quality"
	"github.com/starford/raido/internal/routing"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/testutil"
	"github.com/starford/raido/internal/triage"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	_, store := testutil.TestVault(t)
	ledger := testutil.TestLedger(t)
	backups, err := backup.NewManager(filepath.Join(t.TempDir(), "backups"), ledger)
	if err != nil {
		t.Fatal(err)
	}
	table, err := routing.NewTable(map[string]string{
		"fleeting":   "notes/fleeting",
		"literature": "notes/literature",
		"permanent":  "notes/permanent",
	})
	if err != nil {
		t.Fatal(err)
	}
	coord := lifecycle.New(lifecycle.Options{
		Store:     store,
		Routes:    table,
		Mover:     mover.New(store, backups, true),
		Backups:   backups,
		Scanner:   triage.NewGenerator(store, quality.DefaultMinQuality),
		Ledger:    ledger,
		Recursive: true,
	})
	return New(store, coord), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "scan_candidates":
		result, err = srv.scanCandidates(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "set_quality_score":
		result, err = srv.setQualityScore(ctx, req)
	case "promote_note":
		result, err = srv.promoteNote(ctx, req)
	case "repair_orphans":
		result, err = srv.repairOrphans(ctx, req)
	case "get_lifecycle_contract":
		result, err = srv.getLifecycleContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestScanCandidates(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("a.md", testutil.MD("status: inbox\ntype: fleeting\nquality_score: 0.9", "x\n"))

	r := callTool(t, srv, "scan_candidates", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, `"a.md"`) || !strings.Contains(text, `"promote"`) {
		t.Errorf("scan result = %q", text)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestSetQualityScore(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("a.md", testutil.MD("status: inbox\ntype: fleeting", "body\n"))

	r := callTool(t, srv, "set_quality_score", map[string]interface{}{
		"path":  "a.md",
		"score": 0.85,
	})
	if r.IsError {
		t.Fatalf("set_quality_score failed: %s", resultText(r))
	}

	data, _ := store.Read("a.md")
	got := string(data)
	if !strings.Contains(got, "quality_score: 0.85") {
		t.Errorf("score not written:\n%s", got)
	}
	if !strings.Contains(got, "ai_processed: true") {
		t.Errorf("processing flag not set:\n%s", got)
	}
	// Untouched lines survive byte-for-byte.
	if !strings.Contains(got, "status: inbox") || !strings.Contains(got, "type: fleeting") {
		t.Errorf("existing fields altered:\n%s", got)
	}
}

func TestSetQualityScore_OutOfRange(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("a.md", testutil.MD("status: inbox\ntype: fleeting", "body\n"))

	for _, score := range []float64{-0.1, 1.5} {
		r := callTool(t, srv, "set_quality_score", map[string]interface{}{
			"path":  "a.md",
			"score": score,
		})
		if !r.IsError {
			t.Errorf("score %v accepted, want rejection", score)
		}
	}
	data, _ := store.Read("a.md")
	if strings.Contains(string(data), "quality_score") {
		t.Error("rejected score still written")
	}
}

func TestPromoteNote_PreviewThenExecute(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("a.md", testutil.MD("status: inbox\ntype: fleeting\nquality_score: 0.9", "x\n"))

	r := callTool(t, srv, "promote_note", map[string]interface{}{"path": "a.md"})
	if r.IsError {
		t.Fatalf("preview failed: %s", resultText(r))
	}
	if ok, _ := store.Exists("a.md"); !ok {
		t.Fatal("preview moved the note")
	}

	r = callTool(t, srv, "promote_note", map[string]interface{}{"path": "a.md", "execute": true})
	if r.IsError {
		t.Fatalf("promote failed: %s", resultText(r))
	}
	if ok, _ := store.Exists("notes/fleeting/a.md"); !ok {
		t.Error("note not relocated")
	}
}

func TestRepairOrphans_PreviewThenExecute(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("orphan.md", testutil.MD(
		"status: inbox\ntype: fleeting\nai_processed: true\nquality_score: 0.9", "o\n"))

	// Default call is a preview: the report names the orphan, the file
	// stays put.
	r := callTool(t, srv, "repair_orphans", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("preview failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "orphan.md") {
		t.Errorf("report missing orphan: %s", resultText(r))
	}
	if ok, _ := store.Exists("orphan.md"); !ok {
		t.Fatal("preview moved the orphan")
	}

	r = callTool(t, srv, "repair_orphans", map[string]interface{}{"execute": true})
	if r.IsError {
		t.Fatalf("repair failed: %s", resultText(r))
	}
	if ok, _ := store.Exists("notes/fleeting/orphan.md"); !ok {
		t.Error("orphan not repaired")
	}
}

func TestLifecycleContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_lifecycle_contract", map[string]interface{}{})
	text := resultText(r)
	for _, want := range []string{"status: inbox", "quality_score", "promoted"} {
		if !strings.Contains(text, want) {
			t.Errorf("contract missing %q", want)
		}
	}
}
