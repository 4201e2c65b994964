// Package models defines the domain types for Lectern.
package models

import (
	"time"

	"github.com/alariczq/lectern/internal/frontmatter"
)

// Document is one parsed content item: front matter plus Markdown body.
// The body is opaque text; fenced code blocks inside it are never
// interpreted. A Document is read-only once loaded.
type Document struct {
	Path      string               `json:"path"`
	Meta      frontmatter.Metadata `json:"metadata"`
	Body      string               `json:"body"`
	Checksum  string               `json:"checksum"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// DocumentInfo is a lightweight representation returned by store listings.
type DocumentInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link is a directed reference from one document's body to another document.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}
