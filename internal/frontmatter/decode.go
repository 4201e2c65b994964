package frontmatter

import (
	"fmt"
	"strings"
	"time"
)

// Recognized metadata keys. Anything else is an unknown key.
const (
	keyTitle       = "title"
	keyDescription = "description"
	keyDate        = "date"
	keyDraft       = "draft"
	keyTags        = "tags"
	keyCategories  = "categories"
)

// dateLayouts are tried in order when the date value arrives as a string
// (YAML scalars, or quoted TOML values).
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// fromMap coerces a decoded key/value block into typed Metadata. Values of
// the wrong shape fail with ErrMalformed naming the offending key.
func fromMap(raw map[string]any, keepUnknown bool) (Metadata, error) {
	var meta Metadata
	for key, value := range raw {
		var err error
		switch strings.ToLower(key) {
		case keyTitle:
			meta.Title, err = toString(value)
		case keyDescription:
			meta.Description, err = toString(value)
		case keyDate:
			meta.Date, err = toTime(value)
		case keyDraft:
			meta.Draft, err = toBool(value)
		case keyTags:
			meta.Tags, err = toStringSlice(value)
		case keyCategories:
			meta.Categories, err = toStringSlice(value)
		default:
			if keepUnknown {
				if meta.Extra == nil {
					meta.Extra = map[string]any{}
				}
				meta.Extra[key] = value
			}
		}
		if err != nil {
			return Metadata{}, fmt.Errorf("%w: key %q: %v", ErrMalformed, key, err)
		}
	}
	return meta, nil
}

func toString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func toBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
	return b, nil
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", t)
	default:
		return time.Time{}, fmt.Errorf("expected timestamp, got %T", v)
	}
}

func toStringSlice(v any) ([]string, error) {
	switch items := v.(type) {
	case []string:
		return items, nil
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string list element, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		// A bare scalar is accepted as a one-element list.
		return []string{items}, nil
	default:
		return nil, fmt.Errorf("expected string list, got %T", v)
	}
}
