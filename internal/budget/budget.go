// Package budget provides token budget estimation and retrieved-context
// trimming. Because ladle supports multiple LLM backends with different
// tokenizers, this package uses a conservative character-based heuristic:
// 1 token is roughly 4 characters of English prose. This deliberately
// under-estimates token counts to leave headroom for model-specific overhead.
package budget

import (
	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English and code; using 3
	// would be more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default input context budget in tokens.
	// Conservative enough to fit within 8k-context models (Llama 3 8B)
	// while leaving room for the output.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		// Each message has a small per-message overhead (~4 tokens in most APIs).
		total += 4
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// TrimContexts drops retrieved recipe context blocks from the tail until the
// fixed prompt overhead plus the surviving blocks fit within maxTokens.
// Blocks arrive ranked best-first, so trimming the tail discards the least
// relevant recipes first. Returns the surviving prefix; if even the first
// block does not fit, the result is empty and the caller answers without
// recipe context.
func TrimContexts(contexts []string, fixedTokens, maxTokens int) []string {
	used := fixedTokens
	for i, c := range contexts {
		t := Estimate(c)
		if used+t > maxTokens {
			return contexts[:i]
		}
		used += t
	}
	return contexts
}
