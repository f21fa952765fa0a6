package index

import (
	"log/slog"

	"github.com/starford/dendra/internal/checksum"
	"github.com/starford/dendra/internal/models"
	"github.com/starford/dendra/internal/parser"
	"github.com/starford/dendra/internal/storage"
)

// Entry pairs a note file on disk with its resolved frontmatter title.
type Entry struct {
	File  models.NoteFile
	Title string
}

// Sync lists the vault and brings the cache up to date:
//   - unchanged files reuse the cached title
//   - new/changed files are parsed and upserted
//   - cached files missing from disk are deleted
//
// It returns one entry per note file on disk. Unreadable files are logged and
// returned with an empty title.
func Sync(db NoteIndex, store storage.Provider, logger *slog.Logger) ([]Entry, error) {
	files, err := store.List()
	if err != nil {
		return nil, err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(files))
	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Path] = struct{}{}

		if cs, ok := checksums[f.Path]; ok && cs == f.Checksum {
			if row, err := db.GetNote(f.Path); err == nil {
				out = append(out, Entry{File: f, Title: row.Title})
				continue
			}
		}

		data, err := store.Read(f.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			out = append(out, Entry{File: f})
			continue
		}
		res, err := IndexFile(db, f.Path, data)
		if err != nil {
			logger.Warn("sync: index failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			out = append(out, Entry{File: f})
			continue
		}
		logger.Debug("sync: indexed", slog.String("path", f.Path))
		out = append(out, Entry{File: f, Title: res.Title})
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteNote(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return out, nil
}

// IndexFile parses data, upserts it into the cache, and returns the parse result.
func IndexFile(db NoteIndex, path string, data []byte) (*parser.Result, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	row := NoteRow{
		Path:     path,
		Title:    res.Title,
		Checksum: checksum.Sum(data),
	}
	if err := db.UpsertNote(row, res.Body); err != nil {
		return nil, err
	}
	return res, nil
}
