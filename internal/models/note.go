// Package models defines the domain types shared by the vault layers.
package models

import "time"

// NoteFile describes one eligible note file in the vault root.
type NoteFile struct {
	Path      string    `json:"path"`      // relative to the vault root, e.g. "project.api.md"
	BaseName  string    `json:"base_name"` // file name without extension, e.g. "project.api"
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
