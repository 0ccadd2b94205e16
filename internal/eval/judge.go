package eval

import (
	"context"
	"fmt"

	"github.com/ladleworks/ladle/internal/llm"
	"github.com/ladleworks/ladle/internal/prompts"
)

// Faithfulness verdicts.
const (
	VerdictFaithful      = "faithful"
	VerdictHallucination = "hallucination"
)

// Judge scores generated answers with an LLM: numeric relevancy (1 to 5)
// and a discrete faithfulness verdict against the retrieved context.
type Judge struct {
	client llm.Client
	store  prompts.Store
}

// NewJudge constructs a Judge over the given model client and prompt store.
func NewJudge(client llm.Client, store prompts.Store) *Judge {
	return &Judge{client: client, store: store}
}

// RelevancyResult is the judge's relevancy score with its reasoning.
type RelevancyResult struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// FaithfulnessResult is the judge's faithfulness verdict with its reasoning.
type FaithfulnessResult struct {
	Verdict   string `json:"verdict"`
	Reasoning string `json:"reasoning"`
}

// Relevancy scores how relevant the answer is to the question, 1 to 5.
func (j *Judge) Relevancy(ctx context.Context, question, answer string) (*RelevancyResult, error) {
	tmpl, err := j.store.Get(prompts.TypeMetricRelevancy, "")
	if err != nil {
		return nil, fmt.Errorf("eval: %w", err)
	}
	msgs := llm.FromPrompt(tmpl.Compile(map[string]string{
		"query":  question,
		"answer": answer,
	}))

	var result RelevancyResult
	if err := j.client.ChatJSON(ctx, msgs, &result); err != nil {
		return nil, fmt.Errorf("eval: relevancy judge failed: %w", err)
	}
	if result.Score < 1 || result.Score > 5 {
		return nil, fmt.Errorf("eval: relevancy score %g outside [1, 5]", result.Score)
	}
	return &result, nil
}

// Faithfulness classifies the answer as faithful or hallucination with
// respect to the retrieved recipe context.
func (j *Judge) Faithfulness(ctx context.Context, question, context_, answer string) (*FaithfulnessResult, error) {
	tmpl, err := j.store.Get(prompts.TypeMetricFaithfulness, "")
	if err != nil {
		return nil, fmt.Errorf("eval: %w", err)
	}
	msgs := llm.FromPrompt(tmpl.Compile(map[string]string{
		"query":   question,
		"context": context_,
		"answer":  answer,
	}))

	var result FaithfulnessResult
	if err := j.client.ChatJSON(ctx, msgs, &result); err != nil {
		return nil, fmt.Errorf("eval: faithfulness judge failed: %w", err)
	}
	if result.Verdict != VerdictFaithful && result.Verdict != VerdictHallucination {
		return nil, fmt.Errorf("eval: unexpected faithfulness verdict %q", result.Verdict)
	}
	return &result, nil
}
