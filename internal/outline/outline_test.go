package outline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dendra/internal/vault"
)

func view(name string, depth int, title string) vault.NoteView {
	return vault.NoteView{Name: name, Depth: depth, Title: title, HasFile: title != ""}
}

func TestRender(t *testing.T) {
	notes := []vault.NoteView{
		view("root", 0, ""),
		view("project", 1, ""),
		view("backend", 2, "Backend Notes"),
		view("api", 3, "API"),
		view("frontend", 2, "Frontend"),
		view("daily", 1, "Daily"),
	}

	out := Render(notes)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, len(notes))

	assert.Equal(t, "root", lines[0])
	wants := []string{"project", "backend (Backend Notes)", "api (API)", "frontend (Frontend)", "daily (Daily)"}
	for i, want := range wants {
		assert.True(t, strings.HasSuffix(lines[i+1], want), "line %d = %q", i+1, lines[i+1])
	}

	// deeper notes are indented further
	indent := func(s string) int { return len([]rune(s)) - len([]rune(strings.TrimLeft(s, "│├└─ "))) }
	assert.Less(t, indent(lines[1]), indent(lines[2]))
	assert.Less(t, indent(lines[2]), indent(lines[3]))
	assert.Equal(t, indent(lines[2]), indent(lines[4]))
	assert.Equal(t, indent(lines[1]), indent(lines[5]))
}

func TestRender_Empty(t *testing.T) {
	assert.Empty(t, Render(nil))
}

func TestRender_RootOnly(t *testing.T) {
	out := Render([]vault.NoteView{view("root", 0, "")})
	assert.Equal(t, "root", strings.TrimSpace(out))
}

func TestRender_SkipsDetachedDepth(t *testing.T) {
	out := Render([]vault.NoteView{view("root", 0, ""), view("orphan", 3, "Orphan")})
	assert.NotContains(t, out, "orphan")
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "a", Label(vault.NoteView{Name: "a", Title: "A"}))
	assert.Equal(t, "a (Alpha)", Label(vault.NoteView{Name: "a", Title: "Alpha", HasFile: true}))
}
