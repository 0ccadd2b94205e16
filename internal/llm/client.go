// Package llm wraps the eino ChatModel behind a small client interface the
// rest of the system depends on: plain chat, JSON-structured chat, and
// streaming chat. Keeping the interface narrow makes fakes trivial in tests.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/ladleworks/ladle/internal/prompts"
)

// Client is the chat surface consumed by query building, generation,
// ingestion enrichment, and the eval judge.
type Client interface {
	// Chat sends messages and returns the assistant's full text response.
	Chat(ctx context.Context, msgs []*schema.Message) (string, error)

	// ChatJSON sends messages, expects a JSON object response, and
	// unmarshals it into out. Markdown code fences around the JSON are
	// tolerated since smaller models add them despite instructions.
	ChatJSON(ctx context.Context, msgs []*schema.Message, out any) error

	// StreamChat sends messages and writes text deltas to w as they
	// arrive, returning the accumulated full response.
	StreamChat(ctx context.Context, msgs []*schema.Message, w io.Writer) (string, error)
}

// ModelClient is a Client backed by an eino ChatModel.
type ModelClient struct {
	model       model.ChatModel //nolint:staticcheck // SA1019: model.ChatModel deprecated upstream; migration tracked separately
	temperature float32
}

// NewModelClient wraps chatModel with the given sampling temperature.
func NewModelClient(chatModel model.ChatModel, temperature float32) *ModelClient { //nolint:staticcheck // SA1019: model.ChatModel deprecated upstream
	return &ModelClient{model: chatModel, temperature: temperature}
}

// Chat implements Client.
func (c *ModelClient) Chat(ctx context.Context, msgs []*schema.Message) (string, error) {
	resp, err := c.model.Generate(ctx, msgs, model.WithTemperature(c.temperature))
	if err != nil {
		return "", fmt.Errorf("llm: generate failed: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("llm: generate returned nil response")
	}
	return resp.Content, nil
}

// ChatJSON implements Client.
func (c *ModelClient) ChatJSON(ctx context.Context, msgs []*schema.Message, out any) error {
	text, err := c.Chat(ctx, msgs)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(StripFences(text)), out); err != nil {
		return fmt.Errorf("llm: response is not valid JSON: %w", err)
	}
	return nil
}

// StreamChat implements Client.
func (c *ModelClient) StreamChat(ctx context.Context, msgs []*schema.Message, w io.Writer) (string, error) {
	sr, err := c.model.Stream(ctx, msgs, model.WithTemperature(c.temperature))
	if err != nil {
		return "", fmt.Errorf("llm: stream failed: %w", err)
	}
	defer sr.Close()

	var buf strings.Builder
	for {
		msg, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("llm: stream receive error: %w", err)
		}
		if msg != nil && msg.Content != "" {
			buf.WriteString(msg.Content)
			if _, err := io.WriteString(w, msg.Content); err != nil {
				return "", fmt.Errorf("llm: write error: %w", err)
			}
		}
	}
	return buf.String(), nil
}

// FromPrompt converts compiled prompt messages into eino schema messages.
// Unknown roles are treated as user messages.
func FromPrompt(msgs []prompts.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, schema.SystemMessage(m.Content))
		case "assistant":
			out = append(out, schema.AssistantMessage(m.Content, nil))
		default:
			out = append(out, schema.UserMessage(m.Content))
		}
	}
	return out
}

// StripFences removes a surrounding markdown code fence from s, if present.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
