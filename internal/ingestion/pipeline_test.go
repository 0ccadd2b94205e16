package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/ladleworks/ladle/internal/prompts"
	"github.com/ladleworks/ladle/internal/recipe"
)

// fakeModel replays canned JSON responses keyed by a substring of the last
// user message.
type fakeModel struct {
	calls     int
	lastInput string
	responses map[string]string
	err       error
}

func (f *fakeModel) Chat(_ context.Context, msgs []*schema.Message) (string, error) {
	f.calls++
	f.lastInput = msgs[len(msgs)-1].Content
	return "", f.err
}

func (f *fakeModel) ChatJSON(_ context.Context, msgs []*schema.Message, out any) error {
	f.calls++
	f.lastInput = msgs[len(msgs)-1].Content
	if f.err != nil {
		return f.err
	}
	for key, raw := range f.responses {
		if strings.Contains(f.lastInput, key) {
			return json.Unmarshal([]byte(raw), out)
		}
	}
	return json.Unmarshal([]byte(`{}`), out)
}

func (f *fakeModel) StreamChat(_ context.Context, msgs []*schema.Message, _ io.Writer) (string, error) {
	return f.Chat(nil, msgs)
}

// fakeEmbedder returns one fixed vector per text and records batch sizes.
type fakeEmbedder struct {
	batches [][]string
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

// fakeUpserter records every upserted batch.
type fakeUpserter struct {
	batches [][]*recipe.IndexEntry
}

func (f *fakeUpserter) Upsert(_ context.Context, entries []*recipe.IndexEntry, _ [][]float32) error {
	f.batches = append(f.batches, entries)
	return nil
}

func enrichedRecipe(id, name string) *recipe.Recipe {
	healthy := false
	mins := 30
	return &recipe.Recipe{
		ID:               id,
		Name:             name,
		Category:         []string{"main"},
		Tags:             []string{"dinner"},
		Tools:            []string{"oven"},
		Method:           []string{"roasting"},
		IsHealthy:        &healthy,
		TotalTimeMinutes: &mins,
		Ingredients:      []recipe.Ingredient{{Display: "1 whole chicken"}},
		NormalizedIngredients: []recipe.NormalizedIngredient{
			{Names: []string{"chicken"}},
		},
	}
}

// TestNewPipeline_Guards verifies the constructor dependency checks.
func TestNewPipeline_Guards(t *testing.T) {
	t.Parallel()

	if _, err := NewPipeline(&fakeModel{}, prompts.NewStaticStore(), nil, &fakeUpserter{}, Config{}); err == nil {
		t.Error("expected error for nil embedder")
	}
	if _, err := NewPipeline(nil, nil, &fakeEmbedder{}, &fakeUpserter{}, Config{}); err == nil {
		t.Error("expected error for enrichment without a model client")
	}
	if _, err := NewPipeline(nil, nil, &fakeEmbedder{}, &fakeUpserter{}, Config{SkipEnrichment: true}); err != nil {
		t.Errorf("SkipEnrichment should not need a model client: %v", err)
	}
}

// TestLoadDump verifies export parsing and error paths.
func TestLoadDump(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dump.json")
	data := `[{"id": "r1", "name": "Roast Chicken"}, {"id": "r2", "name": "Dal"}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write dump: %v", err)
	}

	recipes, err := LoadDump(path)
	if err != nil {
		t.Fatalf("LoadDump: %v", err)
	}
	if len(recipes) != 2 || recipes[0].Name != "Roast Chicken" {
		t.Errorf("unexpected recipes: %+v", recipes)
	}

	if _, err := LoadDump(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

// TestIngest_Enriches verifies only missing properties are requested and
// applied, and present ones are never overwritten.
func TestIngest_Enriches(t *testing.T) {
	t.Parallel()

	model := &fakeModel{responses: map[string]string{
		"Requested fields": `{
			"recipeCategory": ["main"],
			"tags": ["should-not-apply"],
			"tools": ["oven"],
			"method": ["roasting"],
			"is_healthy": true,
			"total_time_minutes": 90
		}`,
	}}
	emb := &fakeEmbedder{}
	idx := &fakeUpserter{}
	p, err := NewPipeline(model, prompts.NewStaticStore(), emb, idx, Config{})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	r := &recipe.Recipe{
		ID:          "r1",
		Name:        "Roast Chicken",
		Tags:        []string{"dinner"},
		Ingredients: []recipe.Ingredient{{Display: "1 whole chicken"}},
		NormalizedIngredients: []recipe.NormalizedIngredient{
			{Names: []string{"chicken"}},
		},
	}

	n, err := p.Ingest(context.Background(), []*recipe.Recipe{r})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 1 {
		t.Errorf("indexed = %d, want 1", n)
	}

	if !strings.Contains(model.lastInput, `"recipeCategory"`) {
		t.Error("missing property not requested")
	}
	if strings.Contains(model.lastInput, `"tags"`) {
		t.Error("present property should not be requested")
	}
	if len(r.Category) != 1 || r.Category[0] != "main" {
		t.Errorf("category not applied: %v", r.Category)
	}
	if len(r.Tags) != 1 || r.Tags[0] != "dinner" {
		t.Errorf("present tags overwritten: %v", r.Tags)
	}
	if r.TotalTimeMinutes == nil || *r.TotalTimeMinutes != 90 {
		t.Errorf("total time not applied: %v", r.TotalTimeMinutes)
	}
}

// TestIngest_NormalizesIngredients verifies the normalization pass runs only
// when normalized ingredients are absent and rejects mismatched responses.
func TestIngest_NormalizesIngredients(t *testing.T) {
	t.Parallel()

	model := &fakeModel{responses: map[string]string{
		"Requested fields": `{}`,
		"1 whole chicken": `{"ingredients": [
			{"names": ["chicken"]},
			{"names": ["salt", "sea salt"]}
		]}`,
	}}
	p, err := NewPipeline(model, prompts.NewStaticStore(), &fakeEmbedder{}, &fakeUpserter{}, Config{})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	r := enrichedRecipe("r1", "Roast Chicken")
	r.NormalizedIngredients = nil
	r.Ingredients = []recipe.Ingredient{
		{Display: "1 whole chicken"},
		{Display: "salt"},
	}

	if _, err := p.Ingest(context.Background(), []*recipe.Recipe{r}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(r.NormalizedIngredients) != 2 {
		t.Fatalf("normalized = %+v", r.NormalizedIngredients)
	}
	if r.NormalizedIngredients[1].Names[1] != "sea salt" {
		t.Errorf("multi-name entry lost: %+v", r.NormalizedIngredients[1])
	}

	// Mismatched entry count must be rejected, leaving the recipe untouched.
	bad := enrichedRecipe("r2", "Dal")
	bad.NormalizedIngredients = nil
	bad.Ingredients = []recipe.Ingredient{{Display: "1 whole chicken"}}
	model.responses["1 whole chicken"] = `{"ingredients": [{"names": ["a"]}, {"names": ["b"]}]}`

	if _, err := p.Ingest(context.Background(), []*recipe.Recipe{bad}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(bad.NormalizedIngredients) != 0 {
		t.Errorf("mismatched normalization applied: %+v", bad.NormalizedIngredients)
	}
}

// TestIngest_EnrichmentFailureIndexesAsIs verifies a model failure does not
// abort the run.
func TestIngest_EnrichmentFailureIndexesAsIs(t *testing.T) {
	t.Parallel()

	model := &fakeModel{err: errors.New("model unreachable")}
	idx := &fakeUpserter{}
	p, err := NewPipeline(model, prompts.NewStaticStore(), &fakeEmbedder{}, idx, Config{})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	r := &recipe.Recipe{ID: "r1", Name: "Roast Chicken"}
	n, err := p.Ingest(context.Background(), []*recipe.Recipe{r})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 1 {
		t.Errorf("indexed = %d, want 1 despite enrichment failure", n)
	}
}

// TestIngest_SkipsRecipesWithoutID verifies recipes lacking an ID are dropped.
func TestIngest_SkipsRecipesWithoutID(t *testing.T) {
	t.Parallel()

	idx := &fakeUpserter{}
	p, err := NewPipeline(nil, nil, &fakeEmbedder{}, idx, Config{SkipEnrichment: true})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	n, err := p.Ingest(context.Background(), []*recipe.Recipe{
		enrichedRecipe("r1", "Roast Chicken"),
		{Name: "No ID"},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 1 {
		t.Errorf("indexed = %d, want 1", n)
	}
}

// TestIngest_Batches verifies entries are embedded and upserted in
// BatchSize-sized chunks.
func TestIngest_Batches(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{}
	idx := &fakeUpserter{}
	p, err := NewPipeline(nil, nil, emb, idx, Config{BatchSize: 2, SkipEnrichment: true})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	recipes := []*recipe.Recipe{
		enrichedRecipe("r1", "A"),
		enrichedRecipe("r2", "B"),
		enrichedRecipe("r3", "C"),
	}
	n, err := p.Ingest(context.Background(), recipes)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 3 {
		t.Errorf("indexed = %d, want 3", n)
	}
	if len(emb.batches) != 2 || len(emb.batches[0]) != 2 || len(emb.batches[1]) != 1 {
		t.Errorf("embed batches = %v", lens(emb.batches))
	}
	if len(idx.batches) != 2 {
		t.Errorf("upsert batches = %d, want 2", len(idx.batches))
	}
}

// TestIngest_SkipEnrichmentMakesNoModelCalls verifies the pre-enriched path.
func TestIngest_SkipEnrichmentMakesNoModelCalls(t *testing.T) {
	t.Parallel()

	model := &fakeModel{}
	p, err := NewPipeline(model, prompts.NewStaticStore(), &fakeEmbedder{}, &fakeUpserter{}, Config{SkipEnrichment: true})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	r := &recipe.Recipe{ID: "r1", Name: "Roast Chicken"}
	if _, err := p.Ingest(context.Background(), []*recipe.Recipe{r}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if model.calls != 0 {
		t.Errorf("model calls = %d, want 0", model.calls)
	}
}

func lens(batches [][]string) []int {
	out := make([]int, len(batches))
	for i, b := range batches {
		out[i] = len(b)
	}
	return out
}
