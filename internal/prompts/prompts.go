// Package prompts provides a versioned, in-process prompt registry.
// Prompts are identified by a [Type] and an optional label (defaulting to
// "production"), and compile into role/content message lists with {{var}}
// placeholder substitution.
package prompts

import (
	"fmt"
	"strings"
)

// Type identifies a prompt template in the registry.
type Type string

const (
	// TypeChatGeneration is the RAG answer-generation prompt.
	TypeChatGeneration Type = "chat-generation"

	// TypeMultiQueryBuilder is the query expansion + constraint extraction prompt.
	TypeMultiQueryBuilder Type = "multi-query-builder-generation"

	// TypeCulinaryBrainstorm rewrites a query as a cooking-instruction sentence.
	TypeCulinaryBrainstorm Type = "culinary-brainstorm-generation"

	// TypeIngestNormalizeIngredients extracts canonical ingredient names from
	// raw ingredient display strings during ingestion.
	TypeIngestNormalizeIngredients Type = "ingest-normalize-ingredients"

	// TypeIngestEnrichRecipes infers missing recipe properties from the
	// recipe text during ingestion.
	TypeIngestEnrichRecipes Type = "ingest-enrich-recipes"

	// TypeMetricRelevancy is the LLM-judge prompt scoring answer relevancy 1-5.
	TypeMetricRelevancy Type = "metric-relevancy"

	// TypeMetricFaithfulness is the LLM-judge prompt classifying an answer as
	// faithful or hallucination with respect to the retrieved context.
	TypeMetricFaithfulness Type = "metric-faithfulness"
)

// DefaultLabel is used when a caller passes an empty label to [Store.Get].
const DefaultLabel = "production"

// Message is a single role/content entry of a compiled prompt.
type Message struct {
	Role    string
	Content string
}

// Template is a compilable prompt: an ordered list of role/content messages
// containing {{var}} placeholders.
type Template struct {
	// Name is the prompt type the template was registered under.
	Name Type
	// Label is the registry label the template was resolved with.
	Label string
	// Messages are the raw template messages before substitution.
	Messages []Message
}

// Compile substitutes {{var}} placeholders in every message and returns the
// resulting messages. Unknown placeholders are left untouched so a missing
// variable is visible in logs rather than silently blank.
func (t Template) Compile(vars map[string]string) []Message {
	out := make([]Message, len(t.Messages))
	for i, m := range t.Messages {
		content := m.Content
		for k, v := range vars {
			content = strings.ReplaceAll(content, "{{"+k+"}}", v)
		}
		out[i] = Message{Role: m.Role, Content: content}
	}
	return out
}

// Store resolves prompt templates by type and label.
type Store interface {
	// Get returns the template registered for typ under label.
	// An empty label resolves to [DefaultLabel].
	Get(typ Type, label string) (Template, error)
}

// StaticStore is a Store backed by an in-memory map of templates.
// The zero value is unusable; construct with [NewStaticStore].
type StaticStore struct {
	templates map[string]Template
}

// NewStaticStore returns a StaticStore preloaded with the built-in prompts
// under the "production" label.
func NewStaticStore() *StaticStore {
	s := &StaticStore{templates: make(map[string]Template)}
	for typ, msgs := range builtins {
		s.Register(typ, DefaultLabel, msgs)
	}
	return s
}

// Register adds or replaces the template for (typ, label).
func (s *StaticStore) Register(typ Type, label string, msgs []Message) {
	if label == "" {
		label = DefaultLabel
	}
	s.templates[key(typ, label)] = Template{Name: typ, Label: label, Messages: msgs}
}

// Get implements Store.
func (s *StaticStore) Get(typ Type, label string) (Template, error) {
	if label == "" {
		label = DefaultLabel
	}
	t, ok := s.templates[key(typ, label)]
	if !ok {
		return Template{}, fmt.Errorf("prompts: no template registered for %q label %q", typ, label)
	}
	return t, nil
}

func key(typ Type, label string) string {
	return string(typ) + "@" + label
}

// builtins holds the production prompt texts.
var builtins = map[Type][]Message{
	TypeChatGeneration: {
		{
			Role: "system",
			Content: `You are a helpful cooking assistant for a personal recipe collection.
Answer the user's question using ONLY the recipes provided in the context below.
Each recipe is delimited by [RECIPE_START] and [RECIPE_END] markers.

Rules:
- Recommend recipes from the context that match the user's request.
- For each recommended recipe, include its name and a link of the form {{external_url}}/g/home/r/<slug> when a slug is present.
- Mention the rating when a recipe has one.
- If none of the recipes in the context fit the question, say so honestly. Never invent recipes.
- Keep the answer concise and friendly.

Context:
{{context_text}}`,
		},
		{
			Role:    "user",
			Content: `{{query}}`,
		},
	},
	TypeMultiQueryBuilder: {
		{
			Role: "system",
			Content: `You expand a cooking question into search queries for a recipe vector index and extract hard constraints.

Return a JSON object with exactly these fields:
- "expanded_queries": five diverse rephrasings of the user's question, one per axis:
  1. synonym substitution (swap key terms for culinary synonyms)
  2. ingredient focus (centre the query on the main ingredients)
  3. technique focus (centre the query on the cooking method)
  4. occasion or meal context (weeknight dinner, party, lunchbox...)
  5. sensory descriptors (texture, flavour, temperature)
- "negative_ingredients": ingredients the user explicitly wants to avoid, lowercase, or null
- "other_negative_constraints": other exclusions that are not ingredients, tools or methods, or null
- "negative_tools": kitchen tools the user wants to avoid, or null
- "negative_methods": cooking methods the user wants to avoid, or null
- "min_rating": minimum recipe rating if the user asked for one, else null
- "max_rating": maximum recipe rating if the user asked for one, else null
- "max_total_time_minutes": time limit in minutes if the user asked for one, else null
- "tools": kitchen tools the user wants to use, or null
- "methods": cooking methods the user wants to use, or null
- "is_healthy": true or false only when the user explicitly asked for healthy or indulgent food, else null

Only extract constraints the user actually stated. Respond with JSON only.`,
		},
		{
			Role:    "user",
			Content: `{{user_input}}`,
		},
	},
	TypeCulinaryBrainstorm: {
		{
			Role: "system",
			Content: `Rewrite the given recipe search query as one short cooking-instruction-style sentence, the kind that appears in a recipe method section. Keep the key ingredients and technique. Respond with the sentence only, no quotes, no preamble.`,
		},
		{
			Role:    "user",
			Content: `{{user_input}}`,
		},
	},
	TypeIngestNormalizeIngredients: {
		{
			Role: "system",
			Content: `You normalize recipe ingredient lines into canonical ingredient names.

For each raw ingredient line, extract the base ingredient name: lowercase,
singular, without quantities, units, brands or preparation notes
("2 tbsp finely chopped fresh parsley" becomes "parsley").

Return a JSON object: {"ingredients": [{"names": ["<canonical name>", ...]}, ...]}
with one entry per input line, in the same order. A line naming several
ingredients ("salt and pepper") gets several names. Respond with JSON only.`,
		},
		{
			Role:    "user",
			Content: `{{user_input}}`,
		},
	},
	TypeIngestEnrichRecipes: {
		{
			Role: "system",
			Content: `You infer missing catalogue properties for a recipe from its text.

You will be asked for a subset of these fields; return a JSON object with
exactly the requested fields and nothing else:
- "recipeCategory": list of categories (e.g. "main course", "dessert", "soup")
- "tags": list of short descriptive tags
- "tools": list of kitchen tools the method requires
- "method": list of cooking methods used (e.g. "baking", "frying", "braising")
- "is_healthy": true or false, a common-sense judgement of the dish
- "total_time_minutes": estimated total preparation and cooking time in minutes

Base every value on the recipe text only. Use null when the text gives no
basis for a field. Respond with JSON only.`,
		},
		{
			Role:    "user",
			Content: `{{user_input}}`,
		},
	},
	TypeMetricRelevancy: {
		{
			Role: "system",
			Content: `You judge how relevant an assistant's answer is to the user's cooking question.

Score on a 1-5 scale:
5 = directly and completely answers the question
4 = answers the question with minor gaps
3 = partially relevant, misses important aspects
2 = mostly off-topic with a tangential connection
1 = irrelevant

Return a JSON object: {"score": <1-5>, "reasoning": "<one sentence>"}`,
		},
		{
			Role: "user",
			Content: `Question: {{query}}

Answer: {{answer}}`,
		},
	},
	TypeMetricFaithfulness: {
		{
			Role: "system",
			Content: `You judge whether an assistant's answer is grounded in the provided recipe context.

Classify as:
- "faithful": every factual claim about recipes (names, ingredients, ratings, times) is supported by the context
- "hallucination": the answer states recipe facts not present in the context

Return a JSON object: {"verdict": "faithful" or "hallucination", "reasoning": "<one sentence>"}`,
		},
		{
			Role: "user",
			Content: `Context:
{{context}}

Question: {{query}}

Answer: {{answer}}`,
		},
	},
}
