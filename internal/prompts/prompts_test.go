package prompts

import (
	"strings"
	"testing"
)

// TestStaticStore_Builtins verifies every built-in prompt resolves under the
// production label and via the empty-label default.
func TestStaticStore_Builtins(t *testing.T) {
	t.Parallel()

	store := NewStaticStore()

	for _, typ := range []Type{
		TypeChatGeneration,
		TypeMultiQueryBuilder,
		TypeCulinaryBrainstorm,
		TypeIngestNormalizeIngredients,
		TypeIngestEnrichRecipes,
		TypeMetricRelevancy,
		TypeMetricFaithfulness,
	} {
		tmpl, err := store.Get(typ, "")
		if err != nil {
			t.Errorf("Get(%q): %v", typ, err)
			continue
		}
		if tmpl.Label != DefaultLabel {
			t.Errorf("Get(%q) label = %q, want %q", typ, tmpl.Label, DefaultLabel)
		}
		if len(tmpl.Messages) == 0 {
			t.Errorf("Get(%q) has no messages", typ)
		}
	}

	if _, err := store.Get("nonexistent", ""); err == nil {
		t.Error("expected error for unregistered type")
	}
	if _, err := store.Get(TypeChatGeneration, "staging"); err == nil {
		t.Error("expected error for unregistered label")
	}
}

// TestCompile verifies placeholder substitution and that unknown
// placeholders are left visible.
func TestCompile(t *testing.T) {
	t.Parallel()

	tmpl := Template{Messages: []Message{
		{Role: "system", Content: "Context: {{context_text}} missing: {{unknown}}"},
		{Role: "user", Content: "{{query}}"},
	}}

	msgs := tmpl.Compile(map[string]string{
		"context_text": "RECIPES",
		"query":        "chicken dinner",
	})

	if msgs[0].Content != "Context: RECIPES missing: {{unknown}}" {
		t.Errorf("system = %q", msgs[0].Content)
	}
	if msgs[1].Content != "chicken dinner" {
		t.Errorf("user = %q", msgs[1].Content)
	}

	// Compilation must not mutate the template.
	if !strings.Contains(tmpl.Messages[1].Content, "{{query}}") {
		t.Error("Compile mutated the template")
	}
}

// TestRegister_Override verifies labels are independent registrations.
func TestRegister_Override(t *testing.T) {
	t.Parallel()

	store := NewStaticStore()
	store.Register(TypeChatGeneration, "experiment", []Message{{Role: "system", Content: "terse"}})

	exp, err := store.Get(TypeChatGeneration, "experiment")
	if err != nil {
		t.Fatalf("Get experiment: %v", err)
	}
	if exp.Messages[0].Content != "terse" {
		t.Errorf("experiment label not isolated: %+v", exp)
	}

	prod, err := store.Get(TypeChatGeneration, "")
	if err != nil {
		t.Fatalf("Get production: %v", err)
	}
	if prod.Messages[0].Content == "terse" {
		t.Error("production label was overwritten")
	}
}
