// Package outline renders a pre-order note listing as a text tree.
package outline

import (
	"fmt"

	"github.com/disiqueira/gotree/v3"

	"github.com/starford/dendra/internal/vault"
)

// Render draws notes, which must be in pre-order with the root first, as an
// indented tree. Notes backed by a file show their title next to the name.
func Render(notes []vault.NoteView) string {
	if len(notes) == 0 {
		return ""
	}
	root := gotree.New(Label(notes[0]))

	// branches[d] is the most recent node seen at depth d.
	branches := []gotree.Tree{root}
	for _, n := range notes[1:] {
		if n.Depth < 1 || n.Depth > len(branches) {
			continue
		}
		branches = branches[:n.Depth]
		branches = append(branches, branches[n.Depth-1].Add(Label(n)))
	}
	return root.Print()
}

// Label formats a single outline entry.
func Label(n vault.NoteView) string {
	if !n.HasFile {
		return n.Name
	}
	return fmt.Sprintf("%s (%s)", n.Name, n.Title)
}
