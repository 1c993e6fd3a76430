// Package llm implements the LLM adapter contract from §6: parse_feedback
// turns free-text recruiter feedback into a structured {sentiment, reward,
// confidence} record. This is the only external call on the feedback path;
// it is deadlined, and any timeout or malformed response degrades to a
// documented neutral fallback rather than failing the caller.
package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/andreypavlenko/talentgraph/internal/kgerrors"
)

// Sentiment is the coarse feedback classification.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ParsedFeedback is the parse_feedback contract's return value.
type ParsedFeedback struct {
	Sentiment  Sentiment `json:"sentiment"`
	Reward     float64   `json:"reward"`
	Confidence float64   `json:"confidence"`
}

// Neutral is the documented fallback used whenever parsing fails.
func Neutral() ParsedFeedback {
	return ParsedFeedback{Sentiment: SentimentNeutral, Reward: 0.5, Confidence: 0.0}
}

// FeedbackParser parses recruiter feedback text via an LLM call.
type FeedbackParser interface {
	ParseFeedback(ctx context.Context, text string) (ParsedFeedback, error)
}

// NeutralParser is a FeedbackParser that never calls out: every piece of
// feedback degrades straight to the neutral fallback. It exists for
// environments with no configured API key, so the feedback loop has a
// FeedbackParser to depend on without requiring the Anthropic adapter.
type NeutralParser struct{}

func (NeutralParser) ParseFeedback(ctx context.Context, text string) (ParsedFeedback, error) {
	return Neutral(), nil
}

// AnthropicParser implements FeedbackParser against the Anthropic Messages API.
type AnthropicParser struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicParser builds a parser using the given API key and model.
func NewAnthropicParser(apiKey, model string) *AnthropicParser {
	return &AnthropicParser{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

const feedbackSystemPrompt = `You classify recruiter feedback about a candidate.
Respond with ONLY a JSON object of the exact shape:
{"sentiment": "positive" | "negative" | "neutral", "reward": <float 0.0-1.0>, "confidence": <float 0.0-1.0>}
No prose, no markdown, no code fences.`

// ParseFeedback calls the LLM with the configured deadline already present
// on ctx. On any transport failure or malformed JSON response it returns
// the neutral fallback alongside the error, so a caller that ignores the
// error still gets a safe default.
func (p *AnthropicParser) ParseFeedback(ctx context.Context, text string) (ParsedFeedback, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 256,
		System: []anthropic.TextBlockParam{
			{Text: feedbackSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return Neutral(), kgerrors.Wrap(kgerrors.Timeout, "feedback parse deadline exceeded", err)
		}
		return Neutral(), kgerrors.Wrap(kgerrors.TransportError, "feedback parse call failed", err)
	}

	raw := extractText(msg)
	parsed, perr := decodeParsedFeedback(raw)
	if perr != nil {
		return Neutral(), kgerrors.Wrap(kgerrors.ValidationError, "feedback parse response malformed", perr)
	}
	return parsed, nil
}

func extractText(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// decodeParsedFeedback strips any ```json fences the model added despite
// instructions, then decodes and clamps reward/confidence into [0, 1].
func decodeParsedFeedback(raw string) (ParsedFeedback, error) {
	cleaned := stripCodeFences(raw)

	var parsed ParsedFeedback
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return ParsedFeedback{}, err
	}

	switch parsed.Sentiment {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
	default:
		parsed.Sentiment = SentimentNeutral
	}
	parsed.Reward = clamp01(parsed.Reward)
	parsed.Confidence = clamp01(parsed.Confidence)

	return parsed, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
