package rag

import (
	"fmt"
	"strings"

	"github.com/m-abdeltwab/mini-rag/internal/models"
)

// Prompt assembly. Structured builder functions with typed fields instead of
// string-template placeholder substitution; the assembled prompt is returned
// to the caller verbatim for auditability.

// SystemPrompt returns the grounding instructions prepended to every answer
// prompt.
func SystemPrompt() string {
	return strings.Join([]string{
		"You are a helpful and knowledgeable assistant.",
		"Your task is to answer questions based on the provided documents.",
		"",
		"Guidelines:",
		"1. Use ONLY the information from the provided documents to answer",
		"2. If the documents don't contain relevant information, clearly state that you cannot answer based on the given context",
		"3. Cite specific parts of documents when relevant",
		"4. Provide clear, well-structured, and complete answers",
		"5. Match the language of your response to the user's question",
		"6. Be accurate and avoid making assumptions beyond what's in the documents",
	}, "\n")
}

// DocumentPrompt formats one retrieved chunk as a numbered document block.
// docNum is 1-based.
func DocumentPrompt(docNum int, chunkText string) string {
	return strings.Join([]string{
		"---",
		fmt.Sprintf("Document #%d:", docNum),
		chunkText,
		"---",
		"",
	}, "\n")
}

// FooterPrompt embeds the literal question after the document blocks.
func FooterPrompt(question string) string {
	return strings.Join([]string{
		"",
		"Based on the documents above, please answer the following question.",
		"If the answer is not in the documents, say so clearly.",
		"",
		"Question: " + question,
		"",
		"Answer:",
	}, "\n")
}

// AssemblePrompt composes system instructions, the numbered document blocks
// for each retrieved chunk in rank order, and the question footer into the
// single prompt handed to the generation provider.
func AssemblePrompt(results []models.RetrievedResult, question string) string {
	var b strings.Builder
	b.WriteString(SystemPrompt())
	b.WriteString("\n\n")
	for i, r := range results {
		b.WriteString(DocumentPrompt(i+1, r.Text))
	}
	b.WriteString(FooterPrompt(question))
	return b.String()
}
