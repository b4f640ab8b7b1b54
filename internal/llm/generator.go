package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/m-abdeltwab/mini-rag/internal/models"
)

// LangchainGenerator adapts a langchaingo chat model to the Generator
// interface. History ordering is preserved exactly; the new prompt is always
// the final user turn.
type LangchainGenerator struct {
	model llms.Model
	name  string
}

func NewLangchainGenerator(model llms.Model, name string) *LangchainGenerator {
	return &LangchainGenerator{model: model, name: name}
}

func (g *LangchainGenerator) GenerateText(ctx context.Context, prompt string, history []models.Message, maxTokens int, temperature float64) (string, error) {
	messages := make([]llms.MessageContent, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, llms.TextParts(chatRole(m.Role), m.Content))
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, prompt))

	resp, err := g.model.GenerateContent(ctx, messages,
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(temperature),
	)
	if err != nil {
		return "", fmt.Errorf("%w: generating with %s: %v", models.ErrProviderUnavailable, g.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: model %s returned no choices", models.ErrGeneration, g.name)
	}

	choice := resp.Choices[0]
	if strings.TrimSpace(choice.Content) == "" {
		return "", fmt.Errorf("%w: model %s returned an empty completion", models.ErrGeneration, g.name)
	}
	if choice.StopReason == "length" {
		log.Warn().Str("model", g.name).Msg("completion truncated by max tokens limit")
	}
	return choice.Content, nil
}

func (g *LangchainGenerator) ModelName() string { return g.name }

func chatRole(role string) schema.ChatMessageType {
	switch role {
	case models.RoleSystem:
		return schema.ChatMessageTypeSystem
	case models.RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}
