package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/m-abdeltwab/mini-rag/internal/config"
	"github.com/m-abdeltwab/mini-rag/internal/helper"
	"github.com/m-abdeltwab/mini-rag/internal/llm"
	"github.com/m-abdeltwab/mini-rag/internal/rag"
	"github.com/m-abdeltwab/mini-rag/internal/store"
	"github.com/m-abdeltwab/mini-rag/internal/vectordb"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	cmd := flag.String("cmd", "", "Operation: process | push | info | search | answer")
	project := flag.String("project", "", "Project identifier")
	query := flag.String("query", "", "Query or question text (search, answer)")
	limit := flag.Int("limit", 0, "Result limit (search, answer); 0 uses the configured default")
	reset := flag.Bool("reset", false, "Destroy and recreate existing data first (process, push)")
	chunkSize := flag.Int("chunk-size", 0, "Chunk size override (process); 0 uses the configured default")
	overlap := flag.Int("overlap", -1, "Chunk overlap override (process); -1 uses the configured default")
	flag.Parse()

	if *project == "" {
		log.Fatal().Msg("Please provide a project with the -project flag")
	}

	cfg, err := config.LoadConfig(configFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()
	switch *cmd {
	case "process":
		processProject(ctx, cfg, *project, *chunkSize, *overlap, *reset)
	case "push":
		pushProject(ctx, cfg, *project, *reset)
	case "info":
		indexInfo(ctx, cfg, *project)
	case "search":
		searchProject(ctx, cfg, *project, *query, *limit)
	case "answer":
		answerQuestion(ctx, cfg, *project, *query, *limit)
	default:
		log.Fatal().Msgf("Unknown command %q, expected process | push | info | search | answer", *cmd)
	}
}

func newChunkStore(cfg *config.Config) (*store.ChunkStore, func()) {
	dbClient, err := store.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	dbInstance := store.NewDB(dbClient, cfg.Database.Debug)
	chunks := store.NewChunkStore(dbInstance)
	if err := chunks.Init(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Error initializing chunk store")
	}
	return chunks, func() { dbInstance.Close() }
}

func newVectorDB(cfg *config.Config) vectordb.VectorDB {
	if err := helper.CreateFolder(cfg.VectorDB.Path); err != nil {
		log.Fatal().Err(err).Msg("Error creating vector database folder")
	}
	vdb, err := vectordb.New(cfg.VectorDB, cfg.RAG.EmbeddingSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector database")
	}
	return vdb
}

func newEmbedder(cfg *config.Config) llm.Embedder {
	embedder, err := llm.NewEmbedder(cfg.EmbedLLM, cfg.RAG.EmbeddingSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	return embedder
}

func processProject(ctx context.Context, cfg *config.Config, project string, chunkSize, overlap int, reset bool) {
	if chunkSize == 0 {
		chunkSize = cfg.RAG.ChunkSize
	}
	if overlap < 0 {
		overlap = cfg.RAG.ChunkOverlap
	}

	chunks, closeDB := newChunkStore(cfg)
	defer closeDB()

	processor := rag.NewProcessor(chunks, cfg.RAG.AssetsDir)
	result, err := processor.Process(ctx, project, chunkSize, overlap, reset)
	if err != nil {
		log.Fatal().Err(err).Msg("Error processing project")
	}

	log.Info().
		Str("project", project).
		Int("inserted_chunks", result.InsertedChunks).
		Int("processed_files", result.ProcessedFiles).
		Msg("Processed project assets")
}

func pushProject(ctx context.Context, cfg *config.Config, project string, reset bool) {
	chunks, closeDB := newChunkStore(cfg)
	defer closeDB()

	indexer := rag.NewIndexer(chunks, newEmbedder(cfg), newVectorDB(cfg),
		vectordb.Distance(cfg.VectorDB.Distance), cfg.RAG.MaxInputChars)

	inserted, err := indexer.Push(ctx, project, reset)
	if err != nil {
		log.Fatal().Err(err).Msg("Error pushing project index")
	}

	log.Info().Str("project", project).Int("inserted_items", inserted).Msg("Pushed project chunks to vector index")
}

func indexInfo(ctx context.Context, cfg *config.Config, project string) {
	indexer := rag.NewIndexer(nil, newEmbedder(cfg), newVectorDB(cfg),
		vectordb.Distance(cfg.VectorDB.Distance), cfg.RAG.MaxInputChars)

	info, err := indexer.Info(ctx, project)
	if err != nil {
		log.Fatal().Err(err).Msg("Error fetching index info")
	}
	helper.PrettyPrint(info)
}

func searchProject(ctx context.Context, cfg *config.Config, project, query string, limit int) {
	if limit <= 0 {
		limit = cfg.RAG.DefaultLimit
	}

	retriever := rag.NewRetriever(newEmbedder(cfg), newVectorDB(cfg), cfg.RAG.MaxInputChars)
	results, err := retriever.Retrieve(ctx, project, query, limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Error searching project")
	}

	for i, r := range results {
		fmt.Printf("%d. score=%.4f\n%s\n\n", i+1, r.Score, r.Text)
	}
}

func answerQuestion(ctx context.Context, cfg *config.Config, project, query string, limit int) {
	if limit <= 0 {
		limit = cfg.RAG.DefaultLimit
	}

	generator, err := llm.NewGenerator(cfg.GenLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing generator")
	}

	retriever := rag.NewRetriever(newEmbedder(cfg), newVectorDB(cfg), cfg.RAG.MaxInputChars)
	synthesizer := rag.NewSynthesizer(retriever, generator,
		cfg.RAG.GenerationMaxTokens, cfg.RAG.Temperature, cfg.RAG.FailOnEmptyContext)

	answer, err := synthesizer.Answer(ctx, project, query, limit, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering question")
	}

	log.Info().Msg("Question: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Answer: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", answer.Text)

	log.Debug().Int("history_turns", len(answer.History)).Msg("Full prompt follows")
	fmt.Printf("%s\n", answer.Prompt)
}
