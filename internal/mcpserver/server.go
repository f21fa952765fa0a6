// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the note tree for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dendra/internal/apperr"
	"github.com/starford/dendra/internal/outline"
	"github.com/starford/dendra/internal/vault"
)

const contractURI = "dendra://note-template"

// Server wraps the MCP server with note tree tools.
type Server struct {
	mcp   *server.MCPServer
	vault *vault.Vault
}

// New creates a new MCP server with all tools registered. v must already be
// initialized.
func New(v *vault.Vault, version string) *Server {
	s := &Server{vault: v}

	s.mcp = server.NewMCPServer(
		"Dendra",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_tree",
		mcp.WithDescription("Return every note in tree order. "+
			"format=text draws an indented outline; format=json lists nodes with titles and depth."),
		mcp.WithString("format", mcp.Description("Output format"), mcp.Enum("text", "json"), mcp.DefaultString("text")),
	), s.getTree)

	s.mcp.AddTool(mcp.NewTool("lookup_note",
		mcp.WithDescription("Look up a note by its dotted name (case-insensitive)."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Dotted note name, e.g. project.backend.api")),
	), s.lookupNote)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full Markdown content of a note."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Dotted note name")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note from the default template. Missing parents are implied. "+
			"Read the contract first via the "+contractURI+" resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Dotted note name for the new note")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note names, titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("under", mcp.Description("Optional dotted name; only that note and its descendants match")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("get_note_template",
		mcp.WithDescription("Return the content create_note would write for a name, without creating it."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Dotted note name")),
	), s.getNoteTemplate)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Note Format Contract",
			mcp.WithResourceDescription("How dotted note names map onto the tree and what a new note contains."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func toolError(name string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name))
	case errors.Is(err, apperr.ErrAlreadyExists):
		return mcp.NewToolResultError(fmt.Sprintf("note already exists: %s", name))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) getTree(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes := s.vault.Outline()
	if req.GetString("format", "text") == "json" {
		return jsonResult(notes), nil
	}
	return mcp.NewToolResultText(outline.Render(notes)), nil
}

func (s *Server) lookupNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, ok := s.vault.Lookup(name)
	if !ok {
		return toolError(name, apperr.ErrNotFound), nil
	}
	return jsonResult(view), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.vault.ReadNote(ctx, name)
	if err != nil {
		return toolError(name, err), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, err := s.vault.CreateNote(ctx, name)
	if err != nil {
		return toolError(name, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", view.File)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	under := req.GetString("under", "")
	results, err := s.vault.Search(ctx, query, under, 20)
	if err != nil {
		return toolError(under, err), nil
	}
	return jsonResult(results), nil
}

func (s *Server) getNoteTemplate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := s.vault.Template(name)
	if err != nil {
		return toolError(name, err), nil
	}
	return mcp.NewToolResultText(content), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
