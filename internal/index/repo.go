package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DocRow represents a row in the documents table.
type DocRow struct {
	Path        string
	Title       string
	Description string
	Checksum    string
	Tags        []string
	Categories  []string
	Draft       bool
	Date        time.Time
	WordCount   int
	UpdatedAt   time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Title   string
	Snippet string
}

// TermCount is a taxonomy term with its document count.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// ListQuery drives ListDocuments. Zero values mean: first page, default
// size, no filters, published only, newest first.
type ListQuery struct {
	Limit         int
	Offset        int
	Tag           string
	Category      string
	IncludeDrafts bool
	Sort          string // date | title | path | updated_at
}

// UpsertDocument inserts or replaces a document, its FTS entry, and links
// within a transaction.
func (db *DB) UpsertDocument(row DocRow, body string, links []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(emptyIfNil(row.Tags))
	catsJSON, _ := json.Marshal(emptyIfNil(row.Categories))

	var date any
	if !row.Date.IsZero() {
		date = row.Date
	}

	_, err = tx.Exec(`
		INSERT INTO documents (path, title, description, checksum, tags, categories, draft, date, word_count, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title       = excluded.title,
			description = excluded.description,
			checksum    = excluded.checksum,
			tags        = excluded.tags,
			categories  = excluded.categories,
			draft       = excluded.draft,
			date        = excluded.date,
			word_count  = excluded.word_count,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, row.Path, row.Title, row.Description, row.Checksum, string(tagsJSON), string(catsJSON),
		row.Draft, date, row.WordCount, body, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, row.Path, row.Title, row.Description, body, row.Tags); err != nil {
		return err
	}

	// Replace links: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, row.Path)
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(row.Path, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document, its FTS entry, and outgoing links.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string
// if not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return cs, nil
}

// ListDocuments returns one page of documents plus the total match count.
func (db *DB) ListDocuments(q ListQuery) ([]DocRow, int, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Limit > 200 {
		q.Limit = 200
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	where := `WHERE 1=1`
	var args []any
	if !q.IncludeDrafts {
		where += ` AND draft = 0`
	}
	if q.Tag != "" {
		where += ` AND tags LIKE ?`
		args = append(args, `%"`+q.Tag+`"%`)
	}
	if q.Category != "" {
		where += ` AND categories LIKE ?`
		args = append(args, `%"`+q.Category+`"%`)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM documents `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	order := map[string]string{
		"date":       `date DESC, path ASC`,
		"title":      `title ASC, path ASC`,
		"path":       `path ASC`,
		"updated_at": `updated_at DESC, path ASC`,
	}[q.Sort]
	if order == "" {
		order = `date DESC, path ASC`
	}

	rows, err := db.conn.Query(`
		SELECT path, title, description, checksum, tags, categories, draft, date, word_count, updated_at
		FROM documents `+where+`
		ORDER BY `+order+`
		LIMIT ? OFFSET ?
	`, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocRow
	for rows.Next() {
		row, err := scanDocRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	return out, total, rows.Err()
}

func scanDocRow(rows *sql.Rows) (DocRow, error) {
	var (
		row        DocRow
		tagsJSON   string
		catsJSON   string
		date       sql.NullTime
	)
	if err := rows.Scan(&row.Path, &row.Title, &row.Description, &row.Checksum,
		&tagsJSON, &catsJSON, &row.Draft, &date, &row.WordCount, &row.UpdatedAt); err != nil {
		return DocRow{}, fmt.Errorf("index: scan document: %w", err)
	}
	_ = json.Unmarshal([]byte(tagsJSON), &row.Tags)
	_ = json.Unmarshal([]byte(catsJSON), &row.Categories)
	if date.Valid {
		row.Date = date.Time
	}
	return row, nil
}

// Backlinks returns all document paths that link to the given target.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Tags returns every tag with its document count, most used first.
func (db *DB) Tags() ([]TermCount, error) {
	return db.termCounts("tags")
}

// Categories returns every category with its document count, most used first.
func (db *DB) Categories() ([]TermCount, error) {
	return db.termCounts("categories")
}

func (db *DB) termCounts(column string) ([]TermCount, error) {
	rows, err := db.conn.Query(`
		SELECT je.value, COUNT(*)
		FROM documents, json_each(documents.` + column + `) AS je
		GROUP BY je.value
		ORDER BY COUNT(*) DESC, je.value ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("index: %s counts: %w", column, err)
	}
	defer rows.Close()

	var out []TermCount
	for rows.Next() {
		var tc TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// AllPaths returns every indexed document path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
