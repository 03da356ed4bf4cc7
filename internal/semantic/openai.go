// Package semantic escalates inconclusive article pairs to an LLM for a
// final duplicate verdict.
package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/rs/zerolog"

	"horse.fit/dealsweep/internal/dedup"
)

const systemPrompt = "You are a financial news analyst. You decide whether two deal-news articles report the same underlying transaction. Different wire copies, rewrites, and syndicated versions of one announcement count as duplicates. Distinct transactions involving the same companies do not."

// Comparer asks a chat model whether two articles cover the same deal.
// It implements dedup.SemanticComparer.
type Comparer struct {
	client openai.Client
	model  string
	logger zerolog.Logger
}

func NewComparer(apiKey, model string, logger zerolog.Logger) (*Comparer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &Comparer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logger,
	}, nil
}

func (c *Comparer) Compare(ctx context.Context, a, b dedup.Article) (dedup.Verdict, error) {
	prompt := buildComparisonPrompt(a, b)

	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(prompt),
					},
				},
			},
		},
		Temperature: openai.Float(0.1),
		MaxTokens:   openai.Int(200),
	})
	if err != nil {
		return dedup.Verdict{}, fmt.Errorf("openai request failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return dedup.Verdict{}, fmt.Errorf("no response from openai")
	}

	content := stripCodeFences(response.Choices[0].Message.Content)
	var parsed struct {
		IsDuplicate bool   `json:"is_duplicate"`
		Rationale   string `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		c.logger.Debug().Str("content", content).Msg("unparsable comparison answer")
		return dedup.Verdict{}, fmt.Errorf("failed to parse openai response: %w", err)
	}

	return dedup.Verdict{IsDuplicate: parsed.IsDuplicate, Rationale: parsed.Rationale}, nil
}

func buildComparisonPrompt(a, b dedup.Article) string {
	var sb strings.Builder
	sb.WriteString("Do these two articles report the same transaction?\n")
	sb.WriteString(`Respond with JSON: {"is_duplicate": true/false, "rationale": "brief explanation"}`)
	sb.WriteString("\n\n")
	writeArticle(&sb, 1, a)
	writeArticle(&sb, 2, b)
	return sb.String()
}

func writeArticle(sb *strings.Builder, n int, a dedup.Article) {
	sb.WriteString(fmt.Sprintf("Article %d:\n", n))
	sb.WriteString(fmt.Sprintf("Title: %s\n", a.Title))
	sb.WriteString(fmt.Sprintf("Summary: %s\n", a.Summary))
	sb.WriteString(fmt.Sprintf("Source: %s\n", a.Source))
	if !a.PublicationDate.IsZero() {
		sb.WriteString(fmt.Sprintf("Published: %s\n", a.PublicationDate.Format("2006-01-02")))
	}
	sb.WriteString("\n")
}

// stripCodeFences tolerates models that wrap JSON in a markdown block.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
