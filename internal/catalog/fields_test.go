package catalog

import (
	"strings"
	"testing"
)

const sampleFields = `
stray line before any header

Field of Study: Engineering
Computer Science: algorithms and code
Music Production: not music theory

Field of Study: Arts
Music: practice and theory
line without separator
`

func TestParseFieldsOfStudy(t *testing.T) {
	entries, err := ParseFieldsOfStudy(strings.NewReader(sampleFields))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(entries), entries)
	}
	first := entries[0]
	if first.Field != "Engineering" || first.Course != "Computer Science" || first.Description != "algorithms and code" {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	last := entries[2]
	if last.Field != "Arts" || last.Course != "Music" {
		t.Fatalf("unexpected last entry: %+v", last)
	}
}

func TestParseFieldsOfStudyEmptyInput(t *testing.T) {
	entries, err := ParseFieldsOfStudy(strings.NewReader(""))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}
