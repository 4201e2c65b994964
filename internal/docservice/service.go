// Package docservice coordinates the content store, the loader, and the
// search index behind one API-facing service.
package docservice

import (
	"context"
	"time"

	"github.com/alariczq/lectern/internal/apperr"
	"github.com/alariczq/lectern/internal/checksum"
	"github.com/alariczq/lectern/internal/frontmatter"
	"github.com/alariczq/lectern/internal/index"
	"github.com/alariczq/lectern/internal/loader"
	"github.com/alariczq/lectern/internal/markdown"
	"github.com/alariczq/lectern/internal/models"
	"github.com/alariczq/lectern/internal/storage"
)

// DocumentDetail is the full representation of a document.
type DocumentDetail struct {
	Path      string               `json:"path"`
	Title     string               `json:"title"`
	Meta      frontmatter.Metadata `json:"metadata"`
	Body      string               `json:"body"`
	Checksum  string               `json:"checksum"`
	WordCount int                  `json:"word_count"`
	Backlinks []string             `json:"backlinks"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Checksum    string    `json:"checksum"`
	Tags        []string  `json:"tags"`
	Categories  []string  `json:"categories"`
	Draft       bool      `json:"draft"`
	Date        time.Time `json:"date,omitzero"`
	WordCount   int       `json:"word_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Service coordinates storage, loading, and index operations.
type Service struct {
	store  storage.Provider
	db     *index.DB
	loader *loader.Loader
}

// NewService creates a new document service.
func NewService(store storage.Provider, db *index.DB, l *loader.Loader) *Service {
	return &Service{store: store, db: db, loader: l}
}

// Loader exposes the service's loader for callers that run collection
// checks with the same parse policy.
func (s *Service) Loader() *loader.Loader {
	return s.loader
}

// GetDocument loads a document and enriches it with backlinks.
func (s *Service) GetDocument(_ context.Context, path string) (*DocumentDetail, error) {
	doc, err := s.loader.Load(path)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(doc)
}

// CreateDocument validates, writes, and indexes a new document. The content
// must parse under the service's front matter policy before anything is
// written.
func (s *Service) CreateDocument(_ context.Context, path string, content []byte) (*DocumentDetail, error) {
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	doc, err := s.loader.Build(path, content, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, doc); err != nil {
		return nil, err
	}
	return s.buildDetail(doc)
}

// UpdateDocument writes updated content with optimistic concurrency: when
// ifMatch is non-empty it must equal the checksum of the current content.
func (s *Service) UpdateDocument(_ context.Context, path string, content []byte, ifMatch string) (*DocumentDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		return nil, apperr.ErrNotFound
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	doc, err := s.loader.Build(path, content, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, doc); err != nil {
		return nil, err
	}
	return s.buildDetail(doc)
}

// DeleteDocument removes a document from storage and index.
func (s *Service) DeleteDocument(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	return s.db.DeleteDocument(path)
}

// ListDocuments returns one page of documents plus the total match count.
func (s *Service) ListDocuments(_ context.Context, q index.ListQuery) ([]DocumentListItem, int, error) {
	rows, total, err := s.db.ListDocuments(q)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocumentListItem, len(rows))
	for i, r := range rows {
		items[i] = DocumentListItem{
			Path:        r.Path,
			Title:       r.Title,
			Description: r.Description,
			Checksum:    r.Checksum,
			Tags:        nonNilSlice(r.Tags),
			Categories:  nonNilSlice(r.Categories),
			Draft:       r.Draft,
			Date:        r.Date,
			WordCount:   r.WordCount,
			UpdatedAt:   r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Backlinks returns all document paths that link to the given target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	return s.db.Backlinks(target)
}

// Tags returns taxonomy counts for tags.
func (s *Service) Tags(_ context.Context) ([]index.TermCount, error) {
	return s.db.Tags()
}

// Categories returns taxonomy counts for categories.
func (s *Service) Categories(_ context.Context) ([]index.TermCount, error) {
	return s.db.Categories()
}

// buildDetail constructs a DocumentDetail from an already-parsed document.
func (s *Service) buildDetail(doc *models.Document) (*DocumentDetail, error) {
	analysis := markdown.Analyze([]byte(doc.Body))
	bl, err := s.db.Backlinks(doc.Path)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{
		Path:      doc.Path,
		Title:     markdown.DeriveTitle(doc.Meta.Title, analysis),
		Meta:      doc.Meta,
		Body:      doc.Body,
		Checksum:  doc.Checksum,
		WordCount: analysis.WordCount,
		Backlinks: nonNilSlice(bl),
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
