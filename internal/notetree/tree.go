// Package notetree maps flat, dot-delimited note names ("project.backend.api")
// onto an ordered tree of notes and keeps it in sync as files come and go.
//
// A Tree is not safe for concurrent use; callers serialize access.
package notetree

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/dendra/internal/apperr"
)

// ErrEmptyFile is returned by Insert when no file reference is given.
var ErrEmptyFile = errors.New("notetree: empty file reference")

// Tree owns a root note and every note reachable from it.
type Tree struct {
	root     *Note
	collator *collate.Collator
}

// Option configures a Tree.
type Option func(*Tree)

// WithLocale sets the language used to order siblings. Defaults to language.Und.
func WithLocale(tag language.Tag) Option {
	return func(t *Tree) {
		t.collator = collate.New(tag, collate.IgnoreCase)
	}
}

// New returns a tree holding only the root.
func New(opts ...Option) *Tree {
	t := &Tree{root: newNote(RootName)}
	for _, opt := range opts {
		opt(t)
	}
	if t.collator == nil {
		t.collator = collate.New(language.Und, collate.IgnoreCase)
	}
	return t
}

// Root returns the root note.
func (t *Tree) Root() *Note {
	return t.root
}

// Insert attaches file to the note addressed by baseName, creating any missing
// ancestors on the way. When resort is set, each parent that gains a child has
// its direct children re-sorted. The note's title is synced from title, or
// generated when title is empty.
//
// Re-inserting an existing name replaces its file without adding a node.
func (t *Tree) Insert(file, baseName, title string, resort bool) (*Note, error) {
	if file == "" {
		return nil, fmt.Errorf("%w: %q", ErrEmptyFile, baseName)
	}
	segments := SplitName(baseName)
	if !validSegments(segments) {
		return nil, fmt.Errorf("%w: %q", apperr.ErrMalformedName, baseName)
	}

	current := t.root
	if !IsRootPath(segments) {
		for _, segment := range segments {
			next := current.findChild(segment)
			if next == nil {
				next = newNote(segment)
				if err := current.appendChild(next); err != nil {
					return nil, err
				}
				if resort {
					current.sortChildren(t.compare, false)
				}
			}
			current = next
		}
	}

	current.file = file
	current.SyncMetadata(title)
	return current, nil
}

// Lookup returns the note addressed by baseName, or nil. Malformed names are
// never found.
func (t *Tree) Lookup(baseName string) *Note {
	segments := SplitName(baseName)
	if IsRootPath(segments) {
		return t.root
	}
	if !validSegments(segments) {
		return nil
	}

	current := t.root
	for _, segment := range segments {
		current = current.findChild(segment)
		if current == nil {
			return nil
		}
	}
	return current
}

// Delete detaches the file from the note addressed by baseName and prunes every
// ancestor left with neither a file nor children. It returns the note whose file
// was cleared, or nil if no note matched. A note that survives because it still
// has children falls back to its generated title.
func (t *Tree) Delete(baseName string) *Note {
	note := t.Lookup(baseName)
	if note == nil {
		return nil
	}

	note.file = ""
	if len(note.children) > 0 {
		note.title = GenerateTitle(note.name)
		return note
	}

	for current := note; current.parent != nil && current.file == "" && len(current.children) == 0; {
		parent := current.parent
		parent.removeChild(current)
		current = parent
	}
	return note
}

// UpdateMetadata syncs the title of the note addressed by baseName and returns
// it, or nil if no note matched.
func (t *Tree) UpdateMetadata(baseName, title string) *Note {
	note := t.Lookup(baseName)
	if note == nil {
		return nil
	}
	note.SyncMetadata(title)
	return note
}

// Sort orders the children of every note, case-insensitively by name.
func (t *Tree) Sort() {
	t.root.sortChildren(t.compare, true)
}

// Walk visits every note in pre-order, root first, until fn returns false.
func (t *Tree) Walk(fn func(*Note) bool) {
	stack := []*Note{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			return
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
}

// Flatten returns every note in pre-order: root first, then each child's
// subtree in current child order.
func (t *Tree) Flatten() []*Note {
	var out []*Note
	t.Walk(func(n *Note) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Size returns the number of notes below the root.
func (t *Tree) Size() int {
	n := -1
	t.Walk(func(*Note) bool {
		n++
		return true
	})
	return n
}

func (t *Tree) compare(a, b *Note) int {
	if c := t.collator.CompareString(a.name, b.name); c != 0 {
		return c
	}
	if c := strings.Compare(a.key, b.key); c != 0 {
		return c
	}
	return strings.Compare(a.name, b.name)
}
