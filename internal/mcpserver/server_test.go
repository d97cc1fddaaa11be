package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/notefiler/internal/catalog"
	"github.com/starford/notefiler/internal/filer"
	"github.com/starford/notefiler/internal/notes"
	"github.com/starford/notefiler/internal/noteservice"
	"github.com/starford/notefiler/internal/testutil"
)

const gitResponse = `{"primaryCategory":"学习笔记类","secondaryCategory":"Git","noteType":"Git基础","formattedContent":"git init","summary":"学习Git基础","keywords":["git"]}`

type fixedCompleter struct{ out string }

func (c fixedCompleter) Complete(context.Context, string) (string, error) { return c.out, nil }

func testServer(t *testing.T) (*Server, string) {
	t.Helper()

	dir, store := testutil.TestStorage(t)
	db := testutil.TestDB(t)
	cat := catalog.New(store)
	f := filer.New(filer.Deps{
		Storage:   store,
		Notes:     notes.New(store, cat),
		Records:   db,
		Completer: fixedCompleter{out: gitResponse},
	})
	return New(noteservice.NewService(f, db, store, cat, notes.DefaultRoot)), dir
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "store_note":
		result, err = srv.storeNote(ctx, req)
	case "capture_note":
		result, err = srv.captureNote(ctx, req)
	case "get_classification_prompt":
		result, err = srv.getPrompt(ctx, req)
	case "get_note_format":
		result, err = srv.getNoteFormat(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "audit_indexes":
		result, err = srv.auditIndexes(ctx, req)
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

func storeResult(t *testing.T, r *mcp.CallToolResult) filer.Result {
	t.Helper()
	if r.IsError {
		t.Fatalf("store failed: %s", resultText(r))
	}
	var res filer.Result
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return res
}

func TestStoreAndReadNote(t *testing.T) {
	srv, dir := testServer(t)

	res := storeResult(t, callTool(t, srv, "store_note", map[string]any{
		"input":        "我最近计划学习GIT",
		"llm_response": "```json\n" + gitResponse + "\n```",
	}))
	if res.StoragePath != "AI笔记/学习笔记类/Git/Git基础.md" {
		t.Errorf("storage_path = %q", res.StoragePath)
	}

	r := callTool(t, srv, "read_note", map[string]any{"path": res.StoragePath})
	onDisk, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(res.StoragePath)))
	if err != nil {
		t.Fatal(err)
	}
	if resultText(r) != string(onDisk) {
		t.Errorf("read result = %q", resultText(r))
	}
}

func TestStoreNote_Override(t *testing.T) {
	srv, _ := testServer(t)

	res := storeResult(t, callTool(t, srv, "store_note", map[string]any{
		"input":              "周末去爬山",
		"primary_category":   "生活记录类",
		"secondary_category": "运动",
		"note_type":          "爬山",
	}))
	if res.StoragePath != "AI笔记/生活记录类/运动/爬山.md" {
		t.Errorf("storage_path = %q", res.StoragePath)
	}
}

func TestStoreNote_Unclassified(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "store_note", map[string]any{"input": "随便写点", "llm_response": "抱歉"})
	if !r.IsError {
		t.Fatal("expected error without a usable classification")
	}
	if !strings.Contains(resultText(r), "classification unavailable") {
		t.Errorf("error = %q", resultText(r))
	}
}

func TestCaptureNote(t *testing.T) {
	srv, _ := testServer(t)
	res := storeResult(t, callTool(t, srv, "capture_note", map[string]any{"input": "我最近计划学习GIT"}))
	if res.Record.SecondaryCategory != "Git" {
		t.Errorf("secondary = %q", res.Record.SecondaryCategory)
	}
}

func TestListAndSearchNotes(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_notes", map[string]any{})
	if resultText(r) != "no notes stored" {
		t.Errorf("empty list = %q", resultText(r))
	}

	res := storeResult(t, callTool(t, srv, "store_note", map[string]any{"input": "a", "llm_response": gitResponse}))

	r = callTool(t, srv, "list_notes", map[string]any{"limit": float64(10)})
	if !strings.Contains(resultText(r), res.StoragePath) {
		t.Errorf("list = %q", resultText(r))
	}

	r = callTool(t, srv, "search_notes", map[string]any{"query": "git"})
	if !strings.Contains(resultText(r), res.NoteID) {
		t.Errorf("search = %q", resultText(r))
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]any{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestAuditIndexes(t *testing.T) {
	srv, dir := testServer(t)
	storeResult(t, callTool(t, srv, "store_note", map[string]any{"input": "a", "llm_response": gitResponse}))

	r := callTool(t, srv, "audit_indexes", map[string]any{})
	if !strings.HasPrefix(resultText(r), "consistent") {
		t.Fatalf("audit = %q", resultText(r))
	}

	orphan := filepath.Join(dir, "AI笔记", "学习笔记类", "Git", "手写.md")
	if err := os.WriteFile(orphan, []byte("# 手写\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r = callTool(t, srv, "audit_indexes", map[string]any{})
	if !strings.Contains(resultText(r), "orphan") {
		t.Errorf("audit = %q", resultText(r))
	}

	r = callTool(t, srv, "audit_indexes", map[string]any{"repair": true})
	if resultText(r) != "consistent: 2 indexes, 2 notes, 1 fixed" {
		t.Errorf("repair = %q", resultText(r))
	}
}

func TestPromptAndFormat(t *testing.T) {
	srv, _ := testServer(t)
	if !strings.Contains(resultText(callTool(t, srv, "get_classification_prompt", nil)), "secondaryCategory") {
		t.Error("prompt should describe the JSON fields")
	}
	if resultText(callTool(t, srv, "get_note_format", nil)) != NoteFormatContract {
		t.Error("format tool should return the contract")
	}
}
