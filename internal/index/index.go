package index

import (
	"path/filepath"
	"strings"
)

// NoteIndex is the cache surface the vault depends on.
type NoteIndex interface {
	UpsertNote(n NoteRow, body string) error
	DeleteNote(path string) error
	GetChecksum(path string) (string, error)
	GetNote(path string) (*NoteRow, error)
	AllChecksums() (map[string]string, error)
	Search(q Query) ([]SearchResult, error)
	Close() error
}

var _ NoteIndex = (*DB)(nil)

// Query is a full-text search request.
type Query struct {
	Text string
	// Under restricts hits to the note with this lowercased dotted name and
	// its descendants. Empty searches the whole vault.
	Under string
	Limit int
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return 20
	}
	return q.Limit
}

// underArgs returns the exact-name and LIKE-prefix arguments for the Under
// filter. Both are empty when the filter is off.
func (q Query) underArgs() (string, string) {
	if q.Under == "" {
		return "", ""
	}
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return q.Under, r.Replace(q.Under) + ".%"
}

// NameOf returns the lowercased dotted name stored for a note file path.
func NameOf(path string) string {
	return strings.ToLower(strings.TrimSuffix(path, filepath.Ext(path)))
}

// nameTokens splits a dotted name into space separated words for FTS.
func nameTokens(name string) string {
	return strings.ReplaceAll(name, ".", " ")
}
