// Package frontmatter parses and encodes delimited metadata blocks at the
// top of Markdown documents. TOML blocks are fenced by +++ lines, YAML
// blocks by --- lines; the rest of the file is the body, kept verbatim.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a front matter block.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Delimiter returns the fence line for the format.
func (f Format) Delimiter() string {
	if f == FormatYAML {
		return "---"
	}
	return "+++"
}

var (
	// ErrMalformed reports an opening delimiter without a matching closing
	// delimiter, or a block that cannot be decoded.
	ErrMalformed = errors.New("malformed front matter")
	// ErrMissing reports input with no front matter block at all. It is
	// returned only when RequireFrontMatter is set; the default policy
	// treats such input as body-only.
	ErrMissing = errors.New("missing front matter")
)

// Metadata is the typed front matter of a document. Tags and Categories
// keep their source order. Extra holds unrecognized keys verbatim when the
// parser is configured to keep them.
type Metadata struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Date        time.Time      `json:"date,omitzero"`
	Draft       bool           `json:"draft"`
	Tags        []string       `json:"tags,omitempty"`
	Categories  []string       `json:"categories,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// IsZero reports whether no metadata field is set.
func (m Metadata) IsZero() bool {
	return m.Title == "" && m.Description == "" && m.Date.IsZero() &&
		!m.Draft && len(m.Tags) == 0 && len(m.Categories) == 0 && len(m.Extra) == 0
}

// Option configures Parse.
type Option func(*options)

type options struct {
	requireFrontMatter bool
	keepUnknownKeys    bool
}

// RequireFrontMatter makes Parse fail with ErrMissing when the input has no
// delimiter block, instead of degrading to an empty Metadata with the whole
// input as body.
func RequireFrontMatter() Option {
	return func(o *options) { o.requireFrontMatter = true }
}

// KeepUnknownKeys preserves unrecognized metadata keys in Metadata.Extra.
// Without it they are dropped silently.
func KeepUnknownKeys() Option {
	return func(o *options) { o.keepUnknownKeys = true }
}

// Parse splits data into front matter and body. It is a pure function:
// parsing the same bytes twice yields structurally equal results.
func Parse(data []byte, opts ...Option) (Metadata, string, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	format, block, body, found, err := split(data)
	if err != nil {
		return Metadata{}, "", err
	}
	if !found {
		if o.requireFrontMatter {
			return Metadata{}, "", ErrMissing
		}
		return Metadata{}, string(data), nil
	}

	raw := map[string]any{}
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(block, &raw); err != nil {
			return Metadata{}, "", fmt.Errorf("%w: decode toml block: %v", ErrMalformed, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(block, &raw); err != nil {
			return Metadata{}, "", fmt.Errorf("%w: decode yaml block: %v", ErrMalformed, err)
		}
	}

	meta, err := fromMap(raw, o.keepUnknownKeys)
	if err != nil {
		return Metadata{}, "", err
	}
	return meta, body, nil
}

// split locates the delimiter pair. Leading blank lines before the opening
// delimiter are tolerated; everything after the closing delimiter line is
// the body, verbatim.
func split(data []byte) (format Format, block []byte, body string, found bool, err error) {
	trimmed := bytes.TrimLeft(data, "\r\n")

	switch {
	case hasDelimiterPrefix(trimmed, FormatTOML):
		format = FormatTOML
	case hasDelimiterPrefix(trimmed, FormatYAML):
		format = FormatYAML
	default:
		return "", nil, "", false, nil
	}
	delim := format.Delimiter()

	nl := bytes.IndexByte(trimmed, '\n')
	if nl < 0 {
		// The opening delimiter is the whole input.
		return "", nil, "", false, fmt.Errorf("%w: no closing %s delimiter", ErrMalformed, delim)
	}

	blockStart := nl + 1
	for off := blockStart; ; {
		end := bytes.IndexByte(trimmed[off:], '\n')
		var line []byte
		next := len(trimmed)
		if end < 0 {
			line = trimmed[off:]
		} else {
			line = trimmed[off : off+end]
			next = off + end + 1
		}
		if string(bytes.TrimRight(line, "\r")) == delim {
			return format, trimmed[blockStart:off], string(trimmed[next:]), true, nil
		}
		if end < 0 {
			return "", nil, "", false, fmt.Errorf("%w: no closing %s delimiter", ErrMalformed, delim)
		}
		off = next
	}
}

// hasDelimiterPrefix reports whether data starts with the format's fence as
// a full line (the fence followed by a newline or end of input).
func hasDelimiterPrefix(data []byte, f Format) bool {
	delim := []byte(f.Delimiter())
	if !bytes.HasPrefix(data, delim) {
		return false
	}
	rest := bytes.TrimPrefix(data, delim)
	if len(rest) == 0 {
		return true
	}
	return rest[0] == '\n' || (rest[0] == '\r' && len(rest) > 1 && rest[1] == '\n')
}
