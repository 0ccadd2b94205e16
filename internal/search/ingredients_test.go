package search

import (
	"slices"
	"testing"
)

// TestExpandIngredient verifies category expansion, case folding, and the
// passthrough for plain ingredients.
func TestExpandIngredient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		first    string
		contains []string
	}{
		{"category uppercase", "MEAT", "meat", []string{"chicken", "beef", "pork"}},
		{"category fish", "fish", "fish", []string{"salmon", "cod"}},
		{"category seafood", "Seafood", "seafood", []string{"shrimp", "mussel"}},
		{"category vegetable", "vegetable", "vegetable", []string{"carrot", "leek", "onion"}},
		{"plain ingredient", "quinoa", "quinoa", nil},
		{"plain uppercase", "Chicken", "chicken", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ExpandIngredient(tt.input)
			if len(got) == 0 {
				t.Fatal("expansion must never be empty")
			}
			if got[0] != tt.first {
				t.Errorf("first element = %q, want the lowercased input %q", got[0], tt.first)
			}
			for _, want := range tt.contains {
				if !slices.Contains(got, want) {
					t.Errorf("expansion of %q missing %q: %v", tt.input, want, got)
				}
			}
			if tt.contains == nil && len(got) != 1 {
				t.Errorf("plain ingredient must not expand: %v", got)
			}
		})
	}
}
