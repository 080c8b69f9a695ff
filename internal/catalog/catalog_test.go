package catalog

import (
	"errors"
	"testing"
)

func TestNewTraitCatalogRejectsEmptyManifest(t *testing.T) {
	if _, err := NewTraitCatalog(nil); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestNewTraitCatalogRejectsBlankKey(t *testing.T) {
	defs := []TraitDefinition{{Trait: "  ", Description: "x"}}
	if _, err := NewTraitCatalog(defs); err == nil {
		t.Fatalf("expected error for blank trait key")
	}
}

func TestTraitCatalogKeysPreserveManifestOrder(t *testing.T) {
	defs := []TraitDefinition{
		{Trait: "b", Description: "second"},
		{Trait: "a", Description: "first"},
	}
	cat, err := NewTraitCatalog(defs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	keys := cat.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("expected manifest order [b a], got %v", keys)
	}
	if cat.Len() != 2 {
		t.Fatalf("expected len 2, got %d", cat.Len())
	}
}

func TestTraitCatalogContainsAndDescribe(t *testing.T) {
	cat, err := NewTraitCatalog([]TraitDefinition{{Trait: "motivation", Description: "what drives the user"}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if !cat.Contains("motivation") {
		t.Fatalf("expected catalog to contain motivation")
	}
	if cat.Contains("unknown") {
		t.Fatalf("did not expect catalog to contain unknown")
	}
	if got := cat.Describe("motivation"); got != "what drives the user" {
		t.Fatalf("unexpected description: %q", got)
	}
	if got := cat.Describe("missing"); got != "missing" {
		t.Fatalf("expected key echoed for unknown trait, got %q", got)
	}
}
