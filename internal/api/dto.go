package api

import "github.com/starford/dendra/internal/vault"

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Name string `json:"name" example:"project.backend.api" validate:"required"`
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Content string `json:"content" example:"---\ntitle: API\n---\nBody" validate:"required"`
}

// MoveNoteRequest is the request body for renaming a note.
type MoveNoteRequest struct {
	Name string `json:"name" example:"archive.api" validate:"required"`
}

// NoteView is a single tree node (aliased from the vault layer).
type NoteView = vault.NoteView

// NoteDetail is the full note response type (aliased from the vault layer).
type NoteDetail = vault.NoteDetail

// SearchResult is a single search hit (aliased from the vault layer).
type SearchResult = vault.SearchHit

// TreeResponse wraps the pre-order note listing.
type TreeResponse struct {
	Notes []NoteView `json:"notes" validate:"required"`
	Total int        `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}
