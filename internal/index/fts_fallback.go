//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

// Without the sqlite_fts5 tag search falls back to LIKE over the notes table.

func initFTS(*sql.DB) error { return nil }

func ftsUpsert(*sql.Tx, NoteRow, string) error { return nil }

func ftsDelete(*sql.Tx, string) error { return nil }

// Search matches the text as a substring of the name, title or body and
// orders hits by name so parents come before their children.
func (db *DB) Search(q Query) ([]SearchResult, error) {
	exact, prefix := q.underArgs()
	like := "%" + q.Text + "%"
	rows, err := db.conn.Query(`
		SELECT path, title, substr(body, 1, 200)
		FROM notes
		WHERE (name LIKE ? OR title LIKE ? OR body LIKE ?)
		  AND (? = '' OR name = ? OR name LIKE ? ESCAPE '\')
		ORDER BY name
		LIMIT ?
	`, like, like, like, exact, exact, prefix, q.limit())
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
