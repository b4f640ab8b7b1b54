package rag

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/m-abdeltwab/mini-rag/internal/llm"
	"github.com/m-abdeltwab/mini-rag/internal/models"
)

// Synthesizer produces a grounded answer: retrieve top chunks, assemble the
// prompt, invoke the generation provider.
type Synthesizer struct {
	retriever *Retriever
	generator llm.Generator

	maxTokens   int
	temperature float64

	// failOnEmptyContext decides the empty-retrieval policy once for the
	// process: true fails with an explicit empty-context error, false
	// proceeds degraded with zero document blocks and lets the system
	// prompt instruct the model to say it cannot answer.
	failOnEmptyContext bool
}

func NewSynthesizer(retriever *Retriever, generator llm.Generator, maxTokens int, temperature float64, failOnEmptyContext bool) *Synthesizer {
	return &Synthesizer{
		retriever:          retriever,
		generator:          generator,
		maxTokens:          maxTokens,
		temperature:        temperature,
		failOnEmptyContext: failOnEmptyContext,
	}
}

// Answer retrieves the top limit chunks for the question and generates a
// grounded answer. The caller's history is never mutated; the returned copy
// has the question turn and the new answer appended as its final elements.
func (s *Synthesizer) Answer(ctx context.Context, projectID, question string, limit int, history []models.Message) (*models.Answer, error) {
	results, err := s.retriever.Retrieve(ctx, projectID, question, limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		if s.failOnEmptyContext {
			return nil, fmt.Errorf("project %s: %w: no indexed context for question", projectID, models.ErrCollectionNotFound)
		}
		log.Warn().Str("project", projectID).Msg("no retrieved context, answering degraded")
	}

	prompt := AssemblePrompt(results, question)

	answerText, err := s.generator.GenerateText(ctx, prompt, history, s.maxTokens, s.temperature)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}

	newHistory := make([]models.Message, 0, len(history)+2)
	newHistory = append(newHistory, history...)
	newHistory = append(newHistory,
		models.Message{Role: models.RoleUser, Content: prompt},
		models.Message{Role: models.RoleAssistant, Content: answerText},
	)

	return &models.Answer{
		Text:    answerText,
		Prompt:  prompt,
		History: newHistory,
	}, nil
}
