package frontmatter

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestEncode_RoundTripTOML(t *testing.T) {
	meta := Metadata{
		Title:       "Async in Depth",
		Description: "How executors poll futures.",
		Date:        time.Date(2020, 11, 5, 9, 30, 0, 0, time.UTC),
		Draft:       true,
		Tags:        []string{"rust", "async", "runtime"},
		Categories:  []string{"rust"},
	}
	block, err := Encode(meta, FormatTOML)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasPrefix(string(block), "+++\n") || !strings.HasSuffix(string(block), "+++\n") {
		t.Fatalf("block not fenced: %q", block)
	}

	got, body, err := Parse(block)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if body != "" {
		t.Errorf("body = %q, want empty", body)
	}
	if !got.Date.Equal(meta.Date) {
		t.Errorf("date = %v, want %v", got.Date, meta.Date)
	}
	got.Date, meta.Date = time.Time{}, time.Time{}
	if !reflect.DeepEqual(got, meta) {
		t.Errorf("round trip = %+v, want %+v", got, meta)
	}
}

func TestEncode_RoundTripYAML(t *testing.T) {
	meta := Metadata{
		Title: "Borrow Checker",
		Tags:  []string{"b", "a"}, // order must survive
	}
	block, err := Encode(meta, FormatYAML)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, _, err := Parse(block)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Title != meta.Title {
		t.Errorf("title = %q", got.Title)
	}
	if !reflect.DeepEqual(got.Tags, meta.Tags) {
		t.Errorf("tags = %v, want %v", got.Tags, meta.Tags)
	}
}

func TestEncode_ExtraKeys(t *testing.T) {
	meta := Metadata{
		Title: "X",
		Extra: map[string]any{"series": "memory"},
	}
	block, err := Encode(meta, FormatTOML)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, _, err := Parse(block, KeepUnknownKeys())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Extra["series"] != "memory" {
		t.Errorf("extra = %v", got.Extra)
	}
}

func TestEncode_UnknownFormat(t *testing.T) {
	if _, err := Encode(Metadata{}, Format("json")); err == nil {
		t.Error("expected error for unknown format")
	}
}
