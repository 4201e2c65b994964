// Package markdown analyzes document bodies for indexing: plain text for
// full-text search, internal cross-references, heading fallback, and word
// counts. It never renders HTML.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// engine is stateless and safe for concurrent use.
var engine = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Linkify),
)

// Analysis holds everything the index needs from a document body.
type Analysis struct {
	// PlainText is the body stripped of Markdown markup. Code block
	// contents are kept: readers search for identifiers too.
	PlainText string
	// Links are deduplicated internal references (relative .md targets).
	Links []string
	// FirstHeading is the text of the first heading, used as a title
	// fallback when front matter has none.
	FirstHeading string
	// WordCount counts whitespace-separated words of PlainText.
	WordCount int
}

// Analyze parses source as Markdown and extracts index inputs.
func Analyze(source []byte) Analysis {
	root := engine.Parser().Parse(text.NewReader(source))

	var (
		sb      strings.Builder
		links   []string
		seen    = map[string]struct{}{}
		heading string
	)

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			// Separate blocks so words do not run together.
			if _, isText := n.(*ast.Text); !isText && n.Type() == ast.TypeBlock {
				sb.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.FencedCodeBlock:
			writeCodeLines(&sb, node, source)
		case *ast.CodeBlock:
			writeCodeLines(&sb, node, source)
		case *ast.Heading:
			if heading == "" {
				heading = headingText(node, source)
			}
		case *ast.Link:
			if target, ok := internalTarget(string(node.Destination)); ok {
				if _, dup := seen[target]; !dup {
					seen[target] = struct{}{}
					links = append(links, target)
				}
			}
		}
		return ast.WalkContinue, nil
	})

	plain := sb.String()
	return Analysis{
		PlainText:    plain,
		Links:        links,
		FirstHeading: heading,
		WordCount:    len(strings.Fields(plain)),
	}
}

// DeriveTitle returns the front matter title when present, otherwise the
// first heading of the body, otherwise empty.
func DeriveTitle(metaTitle string, a Analysis) string {
	if metaTitle != "" {
		return metaTitle
	}
	return a.FirstHeading
}

func writeCodeLines(sb *strings.Builder, n interface {
	Lines() *text.Segments
}, source []byte) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
}

func headingText(h *ast.Heading, source []byte) string {
	var sb strings.Builder
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
		}
	}
	return strings.TrimSpace(sb.String())
}

// internalTarget reports whether a link destination references another
// document in the same content tree. The convention is a relative path
// ending in .md; anything with a scheme or an absolute path is external.
func internalTarget(dest string) (string, bool) {
	if dest == "" || strings.Contains(dest, "://") {
		return "", false
	}
	if strings.HasPrefix(dest, "mailto:") || strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "#") {
		return "", false
	}
	// Drop fragment and query.
	if i := strings.IndexAny(dest, "#?"); i >= 0 {
		dest = dest[:i]
	}
	dest = strings.TrimPrefix(dest, "./")
	if !strings.HasSuffix(dest, ".md") {
		return "", false
	}
	return dest, true
}
