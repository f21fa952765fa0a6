package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/dendra/internal/storage"
	"github.com/starford/dendra/internal/testutil"
	"github.com/starford/dendra/internal/vault"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	_, store := testutil.TestVault(t)

	fixed := time.UnixMilli(1700000000000)
	v := vault.New(store, testutil.TestDB(t),
		vault.WithLogger(testutil.Logger()),
		vault.WithClock(func() time.Time { return fixed }),
	)
	if err := v.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	return New(v, "test"), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handler functions
	// are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_tree":
		result, err = srv.getTree(ctx, req)
	case "lookup_note":
		result, err = srv.lookupNote(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "get_note_template":
		result, err = srv.getNoteTemplate(ctx, req)
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

const wantTemplate = "---\ntitle: \"Cool Note\"\nupdated: 1700000000000\ncreated: 1700000000000\n---\n\n"

func TestCreateAndReadNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{"name": "project.cool-note"})
	if text := resultText(r); text != "created: project.cool-note.md" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{"name": "Project.Cool-Note"})
	if text := resultText(r); text != wantTemplate {
		t.Errorf("read result = %q", text)
	}
}

func TestCreateNote_Errors(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]interface{}{"name": "a"})

	r := callTool(t, srv, "create_note", map[string]interface{}{"name": "a"})
	if !r.IsError || !strings.Contains(resultText(r), "already exists") {
		t.Errorf("duplicate = %q", resultText(r))
	}
	r = callTool(t, srv, "create_note", map[string]interface{}{"name": "a..b"})
	if !r.IsError {
		t.Error("expected error for malformed name")
	}
	r = callTool(t, srv, "create_note", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for missing name")
	}
}

func TestGetTree(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]interface{}{"name": "b.x"})
	_ = callTool(t, srv, "create_note", map[string]interface{}{"name": "a"})

	text := resultText(callTool(t, srv, "get_tree", map[string]interface{}{}))
	if !strings.HasPrefix(text, "root\n") {
		t.Errorf("text tree = %q", text)
	}
	if strings.Index(text, "a (A)") > strings.Index(text, "b\n") {
		t.Errorf("siblings out of order: %q", text)
	}

	r := callTool(t, srv, "get_tree", map[string]interface{}{"format": "json"})
	var notes []vault.NoteView
	if err := json.Unmarshal([]byte(resultText(r)), &notes); err != nil {
		t.Fatalf("json tree: %v", err)
	}
	var paths []string
	for _, n := range notes {
		paths = append(paths, n.Path)
	}
	if got := strings.Join(paths, ","); got != "root,a,b,b.x" {
		t.Errorf("paths = %s", got)
	}
}

func TestLookupNote(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]interface{}{"name": "a.b"})

	r := callTool(t, srv, "lookup_note", map[string]interface{}{"name": "A"})
	var view vault.NoteView
	if err := json.Unmarshal([]byte(resultText(r)), &view); err != nil {
		t.Fatalf("lookup: %v (%q)", err, resultText(r))
	}
	if view.Path != "a" || view.HasFile || view.ChildCount != 1 {
		t.Errorf("view = %+v", view)
	}

	r = callTool(t, srv, "lookup_note", map[string]interface{}{"name": "zzz"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"name": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestSearchNotes(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]interface{}{"name": "project.cool-note"})

	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "Cool Note"})
	if !strings.Contains(resultText(r), `"path": "project.cool-note"`) {
		t.Errorf("search = %q", resultText(r))
	}
}

func TestSearchNotes_Under(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]interface{}{"name": "work.status"})
	_ = callTool(t, srv, "create_note", map[string]interface{}{"name": "home.status"})

	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "Status", "under": "home"})
	text := resultText(r)
	if !strings.Contains(text, `"path": "home.status"`) || strings.Contains(text, "work.status") {
		t.Errorf("search = %q", text)
	}
}

func TestGetNoteTemplate(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "get_note_template", map[string]interface{}{"name": "x.cool-note"})
	if text := resultText(r); text != wantTemplate {
		t.Errorf("template = %q", text)
	}
	if store.Exists("x.cool-note.md") {
		t.Error("template tool must not create the note")
	}

	r = callTool(t, srv, "get_note_template", map[string]interface{}{"name": ".bad"})
	if !r.IsError {
		t.Error("expected error for malformed name")
	}
}

func TestContractResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readContractResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != contractURI || !strings.Contains(tc.Text, "dot-delimited") {
		t.Errorf("contents = %+v", contents)
	}
}
