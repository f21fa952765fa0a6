//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			path UNINDEXED,
			name,
			title,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, n NoteRow, body string) error {
	if _, err := tx.Exec(`DELETE FROM notes_fts WHERE path = ?`, n.Path); err != nil {
		return fmt.Errorf("index: clear fts: %w", err)
	}
	_, err := tx.Exec(`INSERT INTO notes_fts (path, name, title, body) VALUES (?, ?, ?, ?)`,
		n.Path, nameTokens(n.Name), n.Title, body)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) error {
	if _, err := tx.Exec(`DELETE FROM notes_fts WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	return nil
}

// Search runs an FTS5 MATCH ranked by bm25 with body snippets. Name segments
// are indexed as words, so "api" finds "project.api".
func (db *DB) Search(q Query) ([]SearchResult, error) {
	exact, prefix := q.underArgs()
	rows, err := db.conn.Query(`
		SELECT path,
		       title,
		       snippet(notes_fts, 3, '<b>', '</b>', '...', 64)
		FROM notes_fts
		WHERE notes_fts MATCH ?
		  AND (? = '' OR path IN (
		        SELECT path FROM notes WHERE name = ? OR name LIKE ? ESCAPE '\'))
		ORDER BY rank
		LIMIT ?
	`, q.Text, exact, exact, prefix, q.limit())
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
