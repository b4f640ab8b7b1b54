package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/m-abdeltwab/mini-rag/internal/models"
)

// LLMConfig selects and configures one provider backend. Provider is one of
// "openai", "ollama" or "openrouter"; embedding and generation are configured
// independently and may use different backends.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

// DatabaseConfig holds the chunk store connection details.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// VectorDBConfig selects and configures the vector index backend.
// Backend is "chromem" (embedded) or "qdrant" (remote).
type VectorDBConfig struct {
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	URL      string `yaml:"url"`
	APIKey   string `yaml:"api_key"`
	Distance string `yaml:"distance"`
}

// RAGConfig holds pipeline defaults resolved once at process start.
type RAGConfig struct {
	AssetsDir           string  `yaml:"assets_dir"`
	ChunkSize           int     `yaml:"chunk_size"`
	ChunkOverlap        int     `yaml:"chunk_overlap"`
	EmbeddingSize       int     `yaml:"embedding_size"`
	MaxInputChars       int     `yaml:"max_input_chars"`
	GenerationMaxTokens int     `yaml:"generation_max_tokens"`
	Temperature         float64 `yaml:"temperature"`
	DefaultLimit        int     `yaml:"default_limit"`
	FailOnEmptyContext  bool    `yaml:"fail_on_empty_context"`
}

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	GenLLM   LLMConfig      `yaml:"gen_llm"`
	VectorDB VectorDBConfig `yaml:"vector_db"`
	RAG      RAGConfig      `yaml:"rag"`
}

// defaultConfig is the starting point the config file is decoded over, so an
// explicit zero in the file (chunk_overlap: 0, temperature: 0) stays zero
// instead of being mistaken for an absent key.
func defaultConfig() Config {
	return Config{
		VectorDB: VectorDBConfig{
			Backend:  "chromem",
			Path:     "./vectordb",
			Distance: "cosine",
		},
		RAG: RAGConfig{
			AssetsDir:           "./assets",
			ChunkSize:           1000,
			ChunkOverlap:        200,
			GenerationMaxTokens: 1024,
			Temperature:         0.1,
			DefaultLimit:        5,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects malformed settings before any I/O happens.
func (c *Config) Validate() error {
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be > 0, got %d", models.ErrConfiguration, c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk_overlap must be >= 0, got %d", models.ErrConfiguration, c.RAG.ChunkOverlap)
	}
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			models.ErrConfiguration, c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}
	if c.RAG.EmbeddingSize <= 0 {
		return fmt.Errorf("%w: embedding_size is unset", models.ErrConfiguration)
	}
	switch c.VectorDB.Backend {
	case "chromem", "qdrant":
	default:
		return fmt.Errorf("%w: unknown vector_db backend %q", models.ErrConfiguration, c.VectorDB.Backend)
	}
	switch c.VectorDB.Distance {
	case "cosine", "dot", "euclidean":
	default:
		return fmt.Errorf("%w: unknown distance %q", models.ErrConfiguration, c.VectorDB.Distance)
	}
	return nil
}
