// Package vault keeps a note tree in sync with a flat directory of
// dot-named note files. It resolves frontmatter titles, serializes every tree
// mutation, and implements the watcher's event handler.
package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"golang.org/x/text/language"

	"github.com/starford/dendra/internal/apperr"
	"github.com/starford/dendra/internal/checksum"
	"github.com/starford/dendra/internal/index"
	"github.com/starford/dendra/internal/notetree"
	"github.com/starford/dendra/internal/parser"
	"github.com/starford/dendra/internal/storage"
)

// Verify *Vault satisfies index.Handler at compile time.
var _ index.Handler = (*Vault)(nil)

// NoteView is a read-only snapshot of one tree node.
type NoteView struct {
	Path       string `json:"path"`
	Key        string `json:"key"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	File       string `json:"file,omitempty"`
	HasFile    bool   `json:"has_file"`
	ChildCount int    `json:"child_count"`
	Depth      int    `json:"depth"`
}

// NoteDetail is a note view plus the file it is backed by.
type NoteDetail struct {
	NoteView
	Content  string `json:"content"`
	HTML     string `json:"html"`
	Checksum string `json:"checksum"`
}

// SearchHit is a search result mapped back onto a note name.
type SearchHit struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Vault owns the note tree of one vault directory.
type Vault struct {
	store  storage.Provider
	db     index.NoteIndex
	logger *slog.Logger
	md     goldmark.Markdown

	ext          string
	sortOnInsert bool
	locale       language.Tag
	now          func() time.Time

	mu          sync.RWMutex
	tree        *notetree.Tree
	initialized bool
}

// Option configures a Vault.
type Option func(*Vault)

// WithExtension sets the note file extension, without the dot. Defaults to "md".
func WithExtension(ext string) Option {
	return func(v *Vault) {
		v.ext = strings.TrimPrefix(ext, ".")
	}
}

// WithSortOnInsert controls whether live inserts keep siblings sorted.
// The initial load always sorts the whole tree once.
func WithSortOnInsert(enabled bool) Option {
	return func(v *Vault) {
		v.sortOnInsert = enabled
	}
}

// WithLocale sets the language used to order sibling notes.
func WithLocale(tag language.Tag) Option {
	return func(v *Vault) {
		v.locale = tag
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
	}
}

// WithClock overrides the time source used for note templates.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) {
		v.now = now
	}
}

// New creates a vault over store, caching resolved titles in db. The tree is
// empty until Init is called.
func New(store storage.Provider, db index.NoteIndex, opts ...Option) *Vault {
	v := &Vault{
		store:        store,
		db:           db,
		logger:       slog.Default(),
		md:           goldmark.New(),
		ext:          "md",
		sortOnInsert: true,
		locale:       language.Und,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.tree = notetree.New(notetree.WithLocale(v.locale))
	return v
}

// Init builds the tree from the vault listing. Calling it again is a no-op.
func (v *Vault) Init(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.initialized {
		return nil
	}

	entries, err := index.Sync(v.db, v.store, v.logger)
	if err != nil {
		return fmt.Errorf("vault: init: %w", err)
	}

	tree := notetree.New(notetree.WithLocale(v.locale))
	for _, e := range entries {
		if _, err := tree.Insert(e.File.Path, e.File.BaseName, e.Title, false); err != nil {
			v.logger.Warn("vault: skipped note", slog.String("path", e.File.Path), slog.String("error", err.Error()))
		}
	}
	tree.Sort()

	v.tree = tree
	v.initialized = true
	v.logger.Info("vault: initialized", slog.Int("files", len(entries)), slog.Int("notes", tree.Size()))
	return nil
}

// IsNote reports whether path is an eligible note file: a plain file name in
// the vault root carrying the note extension.
func (v *Vault) IsNote(path string) bool {
	if path != filepath.Base(path) {
		return false
	}
	return strings.HasSuffix(path, "."+v.ext) && len(path) > len(v.ext)+1
}

// BaseName strips the note extension from path.
func (v *Vault) BaseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), "."+v.ext)
}

// NotePath returns the file name backing baseName.
func (v *Vault) NotePath(baseName string) string {
	return baseName + "." + v.ext
}

// resolveTitle reads path and returns its frontmatter title, refreshing the
// cache. It runs outside the tree lock.
func (v *Vault) resolveTitle(path string) (string, error) {
	data, err := v.store.Read(path)
	if err != nil {
		return "", err
	}
	res, err := index.IndexFile(v.db, path, data)
	if err != nil {
		return "", err
	}
	return res.Title, nil
}

// OnFileCreated inserts the note backed by path.
func (v *Vault) OnFileCreated(path string) bool {
	if !v.IsNote(path) {
		return false
	}
	title, err := v.resolveTitle(path)
	if err != nil {
		v.logger.Warn("vault: resolve metadata failed", slog.String("path", path), slog.String("error", err.Error()))
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, err := v.tree.Insert(path, v.BaseName(path), title, v.sortOnInsert); err != nil {
		v.logger.Warn("vault: insert failed", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}
	return true
}

// OnMetadataChanged re-resolves the title of the note backed by path. It
// returns false when the tree has no note for path.
func (v *Vault) OnMetadataChanged(path string) bool {
	if !v.IsNote(path) {
		return false
	}
	baseName := v.BaseName(path)

	v.mu.RLock()
	note := v.tree.Lookup(baseName)
	known := note != nil && note.File() == path
	v.mu.RUnlock()
	if !known {
		return false
	}

	title, err := v.resolveTitle(path)
	if err != nil {
		v.logger.Warn("vault: resolve metadata failed", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tree.UpdateMetadata(baseName, title) != nil
}

// OnFileDeleted removes the note backed by path, pruning empty ancestors.
func (v *Vault) OnFileDeleted(path string) bool {
	if !v.IsNote(path) {
		return false
	}
	if err := v.db.DeleteNote(path); err != nil {
		v.logger.Warn("vault: cache delete failed", slog.String("path", path), slog.String("error", err.Error()))
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	note := v.tree.Lookup(v.BaseName(path))
	if note == nil || note.File() != path {
		return false
	}
	v.tree.Delete(v.BaseName(path))
	return true
}

// OnFileRenamed moves a note from oldPath to newPath.
func (v *Vault) OnFileRenamed(oldPath, newPath string) bool {
	deleted := v.OnFileDeleted(oldPath)
	created := v.OnFileCreated(newPath)
	return deleted || created
}

// Reconcile compares the tree with the vault listing: notes whose file is gone
// are deleted, files without a note are inserted, and files whose content
// changed since they were cached are re-synced.
func (v *Vault) Reconcile(cb index.EventCallback) {
	files, err := v.store.List()
	if err != nil {
		v.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}
	disk := make(map[string]string, len(files))
	for _, f := range files {
		disk[f.Path] = f.Checksum
	}

	v.mu.RLock()
	var stale []string
	present := make(map[string]bool)
	for _, n := range v.tree.Flatten() {
		if !n.HasFile() {
			continue
		}
		if _, ok := disk[n.File()]; ok {
			present[n.File()] = true
		} else {
			stale = append(stale, n.File())
		}
	}
	// A case variant of a file that still owns its node is already covered.
	covered := make(map[string]bool)
	for p := range disk {
		if present[p] {
			continue
		}
		if n := v.tree.Lookup(v.BaseName(p)); n != nil && n.HasFile() {
			if _, ok := disk[n.File()]; ok {
				covered[p] = true
			}
		}
	}
	v.mu.RUnlock()

	emit := func(kind, path string) {
		v.logger.Debug("reconcile: applied", slog.String("path", path), slog.String("op", kind))
		if cb != nil {
			cb(kind, path)
		}
	}

	for _, p := range stale {
		if v.OnFileDeleted(p) {
			emit("deleted", p)
		}
	}
	for p, cs := range disk {
		if covered[p] {
			continue
		}
		if !present[p] {
			if v.OnFileCreated(p) {
				emit("created", p)
			}
			continue
		}
		cached, err := v.db.GetChecksum(p)
		if err == nil && cached != cs && v.OnMetadataChanged(p) {
			emit("updated", p)
		}
	}
}

// Lookup returns a view of the note addressed by baseName.
func (v *Vault) Lookup(baseName string) (NoteView, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	note := v.tree.Lookup(baseName)
	if note == nil {
		return NoteView{}, false
	}
	return viewOf(note), true
}

// Outline returns every note in pre-order, root first.
func (v *Vault) Outline() []NoteView {
	v.mu.RLock()
	defer v.mu.RUnlock()
	notes := v.tree.Flatten()
	out := make([]NoteView, len(notes))
	for i, n := range notes {
		out[i] = viewOf(n)
	}
	return out
}

// ReadNote returns the note addressed by baseName with its file content.
// Structural notes have no content and are reported as not found.
func (v *Vault) ReadNote(_ context.Context, baseName string) (*NoteDetail, error) {
	view, ok := v.Lookup(baseName)
	if !ok || !view.HasFile {
		return nil, apperr.ErrNotFound
	}
	data, err := v.store.Read(view.File)
	if err != nil {
		return nil, fmt.Errorf("vault: read %s: %w", view.File, err)
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	var html bytes.Buffer
	if err := v.md.Convert([]byte(res.Body), &html); err != nil {
		return nil, fmt.Errorf("vault: render %s: %w", view.File, err)
	}
	return &NoteDetail{
		NoteView: view,
		Content:  string(data),
		HTML:     html.String(),
		Checksum: checksum.Sum(data),
	}, nil
}

// Template returns the default content of a new note named baseName.
func (v *Vault) Template(baseName string) (string, error) {
	if !notetree.ValidName(baseName) {
		return "", fmt.Errorf("%w: %q", apperr.ErrMalformedName, baseName)
	}
	return notetree.NoteTemplate(notetree.GenerateTitle(baseName), v.now()), nil
}

// CreateNote writes a new note file from the default template and adds it to
// the tree.
func (v *Vault) CreateNote(_ context.Context, baseName string) (*NoteView, error) {
	if !notetree.ValidName(baseName) {
		return nil, fmt.Errorf("%w: %q", apperr.ErrMalformedName, baseName)
	}
	path := v.NotePath(baseName)
	if v.store.Exists(path) {
		return nil, apperr.ErrAlreadyExists
	}
	if view, ok := v.Lookup(baseName); ok && view.HasFile {
		// Same name in another casing.
		return nil, apperr.ErrAlreadyExists
	}

	content, err := v.Template(baseName)
	if err != nil {
		return nil, err
	}
	if err := v.store.Write(path, []byte(content)); err != nil {
		return nil, err
	}
	if !v.OnFileCreated(path) {
		return nil, fmt.Errorf("vault: create %s: note not added", path)
	}
	view, _ := v.Lookup(baseName)
	return &view, nil
}

// UpdateNote replaces the content of the note addressed by baseName. When
// ifMatch is set it must equal the checksum of the current content.
func (v *Vault) UpdateNote(ctx context.Context, baseName string, content []byte, ifMatch string) (*NoteDetail, error) {
	view, ok := v.Lookup(baseName)
	if !ok || !view.HasFile {
		return nil, apperr.ErrNotFound
	}
	existing, err := v.store.Read(view.File)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if !checksum.Matches(existing, ifMatch) {
		return nil, apperr.ErrConflict
	}
	if err := v.store.Write(view.File, content); err != nil {
		return nil, err
	}
	v.OnMetadataChanged(view.File)
	return v.ReadNote(ctx, baseName)
}

// DeleteNote removes the file backing baseName and prunes the tree.
func (v *Vault) DeleteNote(_ context.Context, baseName string) error {
	view, ok := v.Lookup(baseName)
	if !ok || !view.HasFile {
		return apperr.ErrNotFound
	}
	if err := v.store.Delete(view.File); err != nil {
		return err
	}
	v.OnFileDeleted(view.File)
	return nil
}

// RenameNote moves the file backing oldName to newName.
func (v *Vault) RenameNote(_ context.Context, oldName, newName string) (*NoteView, error) {
	if !notetree.ValidName(newName) {
		return nil, fmt.Errorf("%w: %q", apperr.ErrMalformedName, newName)
	}
	view, ok := v.Lookup(oldName)
	if !ok || !view.HasFile {
		return nil, apperr.ErrNotFound
	}
	newPath := v.NotePath(newName)
	if newPath == view.File {
		return &view, nil
	}
	// A case-only rename targets the same node; anything else must be free.
	if !strings.EqualFold(newPath, view.File) {
		if v.store.Exists(newPath) {
			return nil, apperr.ErrAlreadyExists
		}
		if other, ok := v.Lookup(newName); ok && other.HasFile {
			return nil, apperr.ErrAlreadyExists
		}
	}
	if err := v.store.Move(view.File, newPath); err != nil {
		return nil, err
	}
	v.OnFileRenamed(view.File, newPath)
	moved, ok := v.Lookup(newName)
	if !ok {
		return nil, fmt.Errorf("vault: rename %s: note not added", newPath)
	}
	return &moved, nil
}

// Search runs a full-text query against the cache. A non-empty under limits
// hits to that note's subtree, matched case-insensitively; "root" is the
// whole vault.
func (v *Vault) Search(_ context.Context, query, under string, limit int) ([]SearchHit, error) {
	if under == notetree.RootName {
		under = ""
	}
	if under != "" && !notetree.ValidName(under) {
		return nil, fmt.Errorf("%w: %q", apperr.ErrMalformedName, under)
	}
	results, err := v.db.Search(index.Query{Text: query, Under: strings.ToLower(under), Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]SearchHit, 0, len(results))
	for _, r := range results {
		out = append(out, SearchHit{Path: v.BaseName(r.Path), Title: r.Title, Snippet: r.Snippet})
	}
	return out, nil
}

func viewOf(n *notetree.Note) NoteView {
	return NoteView{
		Path:       n.Path(),
		Key:        n.Key(),
		Name:       n.Name(),
		Title:      n.Title(),
		File:       n.File(),
		HasFile:    n.HasFile(),
		ChildCount: n.ChildCount(),
		Depth:      n.Depth(),
	}
}
