package models

// Chunk represents a bounded substring of a source document with its metadata.
// Chunks are immutable once created; Order preserves the original document
// position and is unique within an asset.
type Chunk struct {
	ID        string
	ProjectID string
	AssetID   string
	Text      string
	Order     int
	Metadata  map[string]string
}

// RetrievedResult is one ranked hit from a similarity query. Ephemeral,
// produced per query, never persisted.
type RetrievedResult struct {
	Score float32
	Text  string
}

// CollectionInfo holds point counts and health status of one vector
// collection. Operational visibility only.
type CollectionInfo struct {
	Name        string
	Status      string
	PointsCount int
	VectorSize  int
}

// Message is a single chat turn, oldest first in a history slice.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Answer bundles the generated text with the exact prompt that produced it
// and the chat history used, for auditability.
type Answer struct {
	Text    string
	Prompt  string
	History []Message
}

// ProcessResult reports what a document processing run produced.
type ProcessResult struct {
	InsertedChunks int
	ProcessedFiles int
}
