package index

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/starford/dendra/internal/apperr"
	"github.com/starford/dendra/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "dendra-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
}

func TestUpsertAndGet(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		Path:      "project.hello.md",
		Title:     "Hello World",
		Checksum:  "abc123",
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertNote(row, "This is a hello world note."); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	cs, err := db.GetChecksum("project.hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
	got, err := db.GetNote("project.hello.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Title != "Hello World" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestUpsertReplaces(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Title: "Old", Checksum: "1"}, "old body")
	_ = db.UpsertNote(NoteRow{Path: "a.md", Title: "New", Checksum: "2"}, "new body")

	got, err := db.GetNote("a.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Title != "New" || got.Checksum != "2" {
		t.Errorf("row = %+v", got)
	}
	all, _ := db.AllChecksums()
	if len(all) != 1 {
		t.Errorf("rows = %d, want 1", len(all))
	}
}

func TestGetMissing(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nope.md")
	if err != nil || cs != "" {
		t.Errorf("GetChecksum = %q, %v", cs, err)
	}
	if _, err := db.GetNote("nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetNote err = %v, want ErrNotFound", err)
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "del.md", Checksum: "x"}, "body")
	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Error("note still present after delete")
	}
}

func TestSearchMatchesNameTitleAndBody(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "project.backend.md", Title: "Backend", Checksum: "1"}, "service design")
	_ = db.UpsertNote(NoteRow{Path: "daily.md", Title: "Daily", Checksum: "2"}, "nothing here")

	results, err := db.Search(Query{Text: "design", Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "project.backend.md" {
		t.Errorf("results = %+v", results)
	}
}

func TestSearchUnder(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "Project.md", Checksum: "1"}, "shared word")
	_ = db.UpsertNote(NoteRow{Path: "project.api.md", Checksum: "2"}, "shared word")
	_ = db.UpsertNote(NoteRow{Path: "projects.md", Checksum: "3"}, "shared word")
	_ = db.UpsertNote(NoteRow{Path: "daily.md", Checksum: "4"}, "shared word")

	results, err := db.Search(Query{Text: "shared", Under: "project"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	var paths []string
	for _, r := range results {
		paths = append(paths, r.Path)
	}
	sort.Strings(paths)
	if want := []string{"Project.md", "project.api.md"}; !slices.Equal(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestSearchUnderEscapesWildcards(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a_b.c.md", Checksum: "1"}, "needle")
	_ = db.UpsertNote(NoteRow{Path: "axb.c.md", Checksum: "2"}, "needle")

	results, err := db.Search(Query{Text: "needle", Under: "a_b"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "a_b.c.md" {
		t.Errorf("results = %+v", results)
	}
}

func TestUpsertDerivesName(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "Project.API.md", Checksum: "1"}, "")
	got, err := db.GetNote("Project.API.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Name != "project.api" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestOpenDropsStaleSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "1"}, "")
	if _, err := db.conn.Exec(`PRAGMA user_version = 1`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	all, _ := db.AllChecksums()
	if len(all) != 0 {
		t.Errorf("rows after version bump = %v", all)
	}
	var version int
	_ = db.conn.QueryRow(`PRAGMA user_version`).Scan(&version)
	if version != schemaVersion {
		t.Errorf("user_version = %d", version)
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	store, err := storage.NewFS(dir, "md")
	if err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(dir, "a.md"), []byte("---\ntitle: Alpha\n---\nbody"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "a.b.md"), []byte("no frontmatter"), 0o644)
	_ = db.UpsertNote(NoteRow{Path: "gone.md", Checksum: "stale"}, "")

	entries, err := Sync(db, store, quietLogger())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	titles := map[string]string{}
	for _, e := range entries {
		titles[e.File.BaseName] = e.Title
	}
	if len(titles) != 2 || titles["a"] != "Alpha" || titles["a.b"] != "" {
		t.Errorf("titles = %v", titles)
	}
	if cs, _ := db.GetChecksum("gone.md"); cs != "" {
		t.Error("stale row not removed")
	}

	// Second pass hits the cache; a poisoned cached title proves it.
	cs, _ := db.GetChecksum("a.md")
	_ = db.UpsertNote(NoteRow{Path: "a.md", Title: "Cached", Checksum: cs}, "")
	entries, err = Sync(db, store, quietLogger())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	for _, e := range entries {
		if e.File.Path == "a.md" && e.Title != "Cached" {
			t.Errorf("title = %q, want cached value", e.Title)
		}
	}
}
