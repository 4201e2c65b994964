// Package loader turns raw content files into Documents. Collection loads
// are partial-failure tolerant: one bad file never aborts the rest.
package loader

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alariczq/lectern/internal/apperr"
	"github.com/alariczq/lectern/internal/checksum"
	"github.com/alariczq/lectern/internal/frontmatter"
	"github.com/alariczq/lectern/internal/models"
	"github.com/alariczq/lectern/internal/storage"
)

// Result is the outcome of loading a single document. Exactly one of Doc
// and Err is set.
type Result struct {
	Path string
	Doc  *models.Document
	Err  error
}

// Loader builds Documents from a content store using a fixed parse policy.
type Loader struct {
	store     storage.Provider
	parseOpts []frontmatter.Option
}

// New creates a Loader. Parse options set the front matter policy for every
// document this loader touches.
func New(store storage.Provider, parseOpts ...frontmatter.Option) *Loader {
	return &Loader{store: store, parseOpts: parseOpts}
}

// Build parses raw bytes into a Document. Pure: no I/O, no side effects.
func (l *Loader) Build(path string, data []byte, modTime time.Time) (*models.Document, error) {
	meta, body, err := frontmatter.Parse(data, l.parseOpts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &models.Document{
		Path:      path,
		Meta:      meta,
		Body:      body,
		Checksum:  checksum.Sum(data),
		UpdatedAt: modTime,
	}, nil
}

// Load reads and parses a single document from the store.
func (l *Loader) Load(path string) (*models.Document, error) {
	data, err := l.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	return l.Build(path, data, time.Now())
}

// LoadAll loads every document under dir, one Result per file. The returned
// error covers only the directory listing itself.
func (l *Loader) LoadAll(dir string) ([]Result, error) {
	infos, err := l.store.List(dir)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(infos))
	for _, info := range infos {
		res := Result{Path: info.Path}
		data, err := l.store.Read(info.Path)
		if err != nil {
			res.Err = err
		} else if doc, err := l.Build(info.Path, data, info.UpdatedAt); err != nil {
			res.Err = err
		} else {
			res.Doc = doc
		}
		results = append(results, res)
	}
	return results, nil
}

// Failed filters results down to the ones that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
