package notetree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/starford/dendra/internal/apperr"
)

// Note is a node of the tree. A note without a file is structural: it exists
// only because a descendant's name implies it.
type Note struct {
	name     string // first-seen casing
	key      string // lower-cased name used for matching
	title    string
	file     string
	parent   *Note
	children []*Note
}

func newNote(name string) *Note {
	return &Note{
		name:  name,
		key:   strings.ToLower(name),
		title: GenerateTitle(name),
	}
}

// Name returns the segment this note was created with.
func (n *Note) Name() string { return n.name }

// Title returns the display title.
func (n *Note) Title() string { return n.title }

// File returns the backing file reference, or "" for a structural note.
func (n *Note) File() string { return n.file }

// HasFile reports whether the note is backed by a file.
func (n *Note) HasFile() bool { return n.file != "" }

// Parent returns the parent note, nil for the root.
func (n *Note) Parent() *Note { return n.parent }

// IsRoot reports whether n is the root of its tree.
func (n *Note) IsRoot() bool { return n.parent == nil }

// Children returns a copy of the child list in its current order.
func (n *Note) Children() []*Note { return slices.Clone(n.children) }

// ChildCount returns the number of direct children.
func (n *Note) ChildCount() int { return len(n.children) }

// Depth returns the number of ancestors; the root has depth 0.
func (n *Note) Depth() int {
	depth := 0
	for p := n.parent; p != nil; p = p.parent {
		depth++
	}
	return depth
}

// Path returns the dotted name of the note. The root renders as "root".
func (n *Note) Path() string {
	var segments []string
	for current := n; current.parent != nil; current = current.parent {
		segments = append(segments, current.name)
	}
	if len(segments) == 0 {
		return RootName
	}
	slices.Reverse(segments)
	return JoinPath(segments)
}

// Key returns the lower-cased dotted name used for matching.
func (n *Note) Key() string {
	return strings.ToLower(n.Path())
}

// SyncMetadata applies an externally resolved title. An empty title falls back
// to the generated one. Structural notes are left untouched.
func (n *Note) SyncMetadata(title string) {
	if n.file == "" {
		return
	}
	if title != "" {
		n.title = title
		return
	}
	n.title = GenerateTitle(n.name)
}

func (n *Note) appendChild(child *Note) error {
	if child.parent != nil {
		return fmt.Errorf("%w: note %q already has a parent", apperr.ErrStructuralViolation, child.name)
	}
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

func (n *Note) removeChild(child *Note) {
	i := slices.Index(n.children, child)
	if i < 0 {
		return
	}
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil
}

func (n *Note) findChild(name string) *Note {
	key := strings.ToLower(name)
	for _, child := range n.children {
		if child.key == key {
			return child
		}
	}
	return nil
}

func (n *Note) sortChildren(cmp func(a, b *Note) int, recursive bool) {
	slices.SortStableFunc(n.children, cmp)
	if !recursive {
		return
	}
	for _, child := range n.children {
		child.sortChildren(cmp, true)
	}
}
