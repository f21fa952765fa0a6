package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dendra/internal/checksum"
	"github.com/starford/dendra/internal/outline"
	"github.com/starford/dendra/internal/vault"
)

// Handler holds API route handlers.
type Handler struct {
	vault *vault.Vault
}

// NewHandler creates a new Handler.
func NewHandler(v *vault.Vault) *Handler {
	return &Handler{vault: v}
}

// noteName extracts the dotted note name from the URL.
func noteName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Tree handles GET /api/tree.
//
//	@Summary		List every note in tree order
//	@Tags			tree
//	@Produce		json,plain
//	@Param			format	query		string	false	"Output format"	Enums(json, text)
//	@Success		200		{object}	TreeResponse
//	@Security		BearerAuth
//	@Router			/tree [get]
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	notes := h.vault.Outline()
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(outline.Render(notes)))
		return
	}
	writeJSON(w, http.StatusOK, TreeResponse{Notes: notes, Total: len(notes) - 1})
}

// GetNote handles GET /api/notes/{name}.
//
//	@Summary		Get a single note by name
//	@Tags			notes
//	@Produce		json
//	@Param			name	path		string	true	"Dotted note name"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{name} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	name := noteName(r)
	note, err := h.vault.ReadNote(r.Context(), name)
	if err != nil {
		writeError(w, "get note", name, err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(note.Checksum))
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a note from the default template
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteView
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	note, err := h.vault.CreateNote(r.Context(), req.Name)
	if err != nil {
		writeError(w, "create note", req.Name, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/{name}.
//
//	@Summary		Update a note with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			name		path		string				true	"Dotted note name"
//	@Param			If-Match	header		string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		UpdateNoteRequest	true	"Updated content"
//	@Success		200			{object}	NoteDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{name} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	name := noteName(r)

	var req UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	ifMatch := checksum.FromETag(r.Header.Get("If-Match"))

	note, err := h.vault.UpdateNote(r.Context(), name, []byte(req.Content), ifMatch)
	if err != nil {
		writeError(w, "update note", name, err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(note.Checksum))
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{name}.
//
//	@Summary		Delete a note and prune empty parents
//	@Tags			notes
//	@Param			name	path	string	true	"Dotted note name"
//	@Success		204		"Note deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{name} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	name := noteName(r)
	if err := h.vault.DeleteNote(r.Context(), name); err != nil {
		writeError(w, "delete note", name, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveNote handles POST /api/notes/{name}/move.
//
//	@Summary		Rename a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string			true	"Dotted note name"
//	@Param			body	body		MoveNoteRequest	true	"New name"
//	@Success		200		{object}	NoteView
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{name}/move [post]
func (h *Handler) MoveNote(w http.ResponseWriter, r *http.Request) {
	name := noteName(r)

	var req MoveNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	note, err := h.vault.RenameNote(r.Context(), name, req.Name)
	if err != nil {
		writeError(w, "move note", name, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			under	query		string	false	"Only notes in this subtree"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	under := r.URL.Query().Get("under")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.vault.Search(r.Context(), q, under, limit)
	if err != nil {
		writeError(w, "search", under, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
