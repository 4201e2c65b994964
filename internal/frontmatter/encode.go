package frontmatter

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Encode serializes metadata back into a delimited front matter block.
// Zero-valued fields are omitted, Extra keys are emitted alongside the
// recognized ones. Encode then Parse yields equal metadata; key ordering
// within the block is not significant.
func Encode(meta Metadata, format Format) ([]byte, error) {
	raw := meta.toMap()

	var block []byte
	var err error
	switch format {
	case FormatYAML:
		block, err = yaml.Marshal(raw)
	case FormatTOML:
		block, err = toml.Marshal(raw)
	default:
		return nil, fmt.Errorf("frontmatter: unknown format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("frontmatter: encode %s block: %w", format, err)
	}

	delim := format.Delimiter()
	var buf bytes.Buffer
	buf.Grow(len(block) + 2*len(delim) + 2)
	buf.WriteString(delim)
	buf.WriteByte('\n')
	buf.Write(block)
	if len(block) > 0 && block[len(block)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(delim)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// toMap flattens metadata into the key/value shape of the wire block.
// Draft is always emitted so readers never have to guess the default.
func (m Metadata) toMap() map[string]any {
	raw := make(map[string]any, len(m.Extra)+6)
	for key, value := range m.Extra {
		raw[key] = value
	}
	if m.Title != "" {
		raw[keyTitle] = m.Title
	}
	if m.Description != "" {
		raw[keyDescription] = m.Description
	}
	if !m.Date.IsZero() {
		raw[keyDate] = m.Date
	}
	raw[keyDraft] = m.Draft
	if len(m.Tags) > 0 {
		raw[keyTags] = append([]string(nil), m.Tags...)
	}
	if len(m.Categories) > 0 {
		raw[keyCategories] = append([]string(nil), m.Categories...)
	}
	return raw
}
