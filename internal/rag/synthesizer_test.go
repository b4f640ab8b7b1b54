package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-abdeltwab/mini-rag/internal/models"
)

// fakeGenerator records the prompt and history it was handed.
type fakeGenerator struct {
	answer  string
	err     error
	prompt  string
	history []models.Message
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string, history []models.Message, maxTokens int, temperature float64) (string, error) {
	f.prompt = prompt
	f.history = history
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeGenerator) ModelName() string { return "fake-generator" }

func newTestSynthesizer(t *testing.T, gen *fakeGenerator, failOnEmptyContext bool) *Synthesizer {
	t.Helper()
	vdb := newTestIndex(t)
	seedProject(t, vdb, "p1")
	embedder := &fakeEmbedder{
		dim: 4,
		vectors: map[string][]float32{
			"what is chunk one?": {1, 0, 0, 0},
		},
	}
	retriever := NewRetriever(embedder, vdb, 0)
	return NewSynthesizer(retriever, gen, 512, 0.1, failOnEmptyContext)
}

func TestAnswerGroundsPromptInRetrievedChunks(t *testing.T) {
	gen := &fakeGenerator{answer: "it is chunk one"}
	s := newTestSynthesizer(t, gen, false)

	answer, err := s.Answer(context.Background(), "p1", "what is chunk one?", 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if answer.Text != "it is chunk one" {
		t.Fatalf("answer text %q", answer.Text)
	}
	if !strings.Contains(gen.prompt, "chunk one") {
		t.Error("prompt should carry the best matching chunk")
	}
	if !strings.Contains(gen.prompt, "Question: what is chunk one?") {
		t.Error("prompt should embed the question verbatim")
	}
	if answer.Prompt != gen.prompt {
		t.Error("returned prompt must match what the generator received")
	}
}

func TestAnswerHistoryHandling(t *testing.T) {
	gen := &fakeGenerator{answer: "second answer"}
	s := newTestSynthesizer(t, gen, false)

	history := []models.Message{
		{Role: models.RoleUser, Content: "earlier question"},
		{Role: models.RoleAssistant, Content: "earlier answer"},
	}
	before := make([]models.Message, len(history))
	copy(before, history)

	answer, err := s.Answer(context.Background(), "p1", "what is chunk one?", 1, history)
	if err != nil {
		t.Fatal(err)
	}

	for i := range before {
		if history[i] != before[i] {
			t.Fatal("caller history was mutated")
		}
	}
	if len(gen.history) != 2 {
		t.Fatalf("generator should receive the prior turns only, got %d", len(gen.history))
	}
	if len(answer.History) != 4 {
		t.Fatalf("returned history length %d, want 4", len(answer.History))
	}
	last := answer.History[3]
	if last.Role != models.RoleAssistant || last.Content != "second answer" {
		t.Fatalf("final turn %+v, want the new assistant answer", last)
	}
	if answer.History[2].Role != models.RoleUser || answer.History[2].Content != answer.Prompt {
		t.Fatalf("penultimate turn should be the assembled prompt as a user turn, got %+v", answer.History[2])
	}
}

func TestAnswerEmptyContextDegraded(t *testing.T) {
	gen := &fakeGenerator{answer: "I cannot answer based on the given context."}
	vdb := newTestIndex(t)
	if err := vdb.CreateCollection(context.Background(), CollectionName("empty"), 4, "cosine", false); err != nil {
		t.Fatal(err)
	}
	embedder := &fakeEmbedder{
		dim:     4,
		vectors: map[string][]float32{"anything?": {1, 0, 0, 0}},
	}
	s := NewSynthesizer(NewRetriever(embedder, vdb, 0), gen, 512, 0.1, false)

	answer, err := s.Answer(context.Background(), "empty", "anything?", 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(gen.prompt, "Document #") {
		t.Error("degraded prompt should have no document blocks")
	}
	if answer.Text == "" {
		t.Error("degraded generation should still return an answer")
	}
}

func TestAnswerEmptyContextFailure(t *testing.T) {
	gen := &fakeGenerator{answer: "unused"}
	vdb := newTestIndex(t)
	if err := vdb.CreateCollection(context.Background(), CollectionName("empty"), 4, "cosine", false); err != nil {
		t.Fatal(err)
	}
	embedder := &fakeEmbedder{
		dim:     4,
		vectors: map[string][]float32{"anything?": {1, 0, 0, 0}},
	}
	s := NewSynthesizer(NewRetriever(embedder, vdb, 0), gen, 512, 0.1, true)

	_, err := s.Answer(context.Background(), "empty", "anything?", 3, nil)
	if !errors.Is(err, models.ErrCollectionNotFound) {
		t.Fatalf("expected empty context error, got %v", err)
	}
	if gen.prompt != "" {
		t.Error("generator must not be invoked when empty context is fatal")
	}
}

func TestAnswerGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: models.ErrProviderUnavailable}
	s := newTestSynthesizer(t, gen, false)

	_, err := s.Answer(context.Background(), "p1", "what is chunk one?", 1, nil)
	if !errors.Is(err, models.ErrProviderUnavailable) {
		t.Fatalf("expected provider error, got %v", err)
	}
}
