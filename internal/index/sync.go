package index

import (
	"log/slog"
	gopath "path"

	"github.com/alariczq/lectern/internal/loader"
	"github.com/alariczq/lectern/internal/markdown"
	"github.com/alariczq/lectern/internal/models"
)

// IndexDocument analyzes a parsed document and upserts it. Link targets in
// the body are resolved relative to the document before being stored, so
// the links table always holds root-relative paths.
func IndexDocument(db *DB, doc *models.Document) error {
	analysis := markdown.Analyze([]byte(doc.Body))

	links := make([]string, 0, len(analysis.Links))
	for _, target := range analysis.Links {
		links = append(links, gopath.Clean(gopath.Join(gopath.Dir(doc.Path), target)))
	}

	row := DocRow{
		Path:        doc.Path,
		Title:       markdown.DeriveTitle(doc.Meta.Title, analysis),
		Description: doc.Meta.Description,
		Checksum:    doc.Checksum,
		Tags:        doc.Meta.Tags,
		Categories:  doc.Meta.Categories,
		Draft:       doc.Meta.Draft,
		Date:        doc.Meta.Date,
		WordCount:   analysis.WordCount,
		UpdatedAt:   doc.UpdatedAt,
	}
	return db.UpsertDocument(row, analysis.PlainText, links)
}

// Sync walks the content directory and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - unparseable files are logged and skipped, never fatal
//   - files removed from disk are deleted from the index
func Sync(db *DB, l *loader.Loader, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	results, err := l.LoadAll("")
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(results))
	for _, res := range results {
		disk[res.Path] = struct{}{}

		if res.Err != nil {
			logger.Warn("sync: load failed", slog.String("path", res.Path), slog.String("error", res.Err.Error()))
			continue
		}
		if checksums[res.Path] == res.Doc.Checksum {
			continue
		}
		if err := IndexDocument(db, res.Doc); err != nil {
			logger.Warn("sync: index failed", slog.String("path", res.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", res.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}
