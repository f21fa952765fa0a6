package notetree

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// GenerateTitle derives a display title from the last segment of a dotted name:
// "project.my-cool-note" becomes "My Cool Note". An empty last segment yields "".
func GenerateTitle(path string) string {
	segment := path[strings.LastIndex(path, Separator)+1:]

	upper := cases.Upper(language.Und)
	lower := cases.Lower(language.Und)

	words := make([]string, 0, strings.Count(segment, "-")+1)
	for _, piece := range strings.Split(segment, "-") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		_, size := utf8.DecodeRuneInString(piece)
		words = append(words, upper.String(piece[:size])+lower.String(piece[size:]))
	}
	return strings.Join(words, " ")
}

// NoteTemplate returns the initial content of a freshly created note file.
// Timestamps are Unix milliseconds. The title is written with Go quoting, whose
// escapes are all valid in a YAML double-quoted scalar.
func NoteTemplate(title string, now time.Time) string {
	ts := now.UnixMilli()
	return fmt.Sprintf("---\ntitle: %q\nupdated: %d\ncreated: %d\n---\n\n", title, ts, ts)
}
