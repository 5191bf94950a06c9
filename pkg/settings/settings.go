// Package settings provides typed configuration loaded from a .env-style
// file, following the teacher's pkg/config/env.go pattern of loading with
// godotenv and resolving values with os.Getenv.
//
// Settings is built once at startup (an explicit init phase, not an
// implicit lazy singleton) and passed down to every component that needs
// it, per the "global singletons → explicit init/teardown" guidance.
package settings

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/standards-engine/retrieval/pkg/apperrors"
)

// Settings holds every recognised .env option (see spec §6).
type Settings struct {
	EmbeddingModel string
	LLMModel       string
	LLMTemperature float64
	LLMBaseURL     string

	OpenAIAPIKey     string
	DeepSeekAPIKey   string
	LlamaCloudAPIKey string

	CollectionName string

	VectorStoreURL    string
	VectorStoreAPIKey string
	VectorStorePath   string

	GraphURI      string
	GraphUsername string
	GraphPassword string
	GraphDatabase string

	DataDir string

	CacheDBPath    string
	FeedbackDBPath string
	HistoryDBPath  string

	LogLevel string
}

// Load reads envFile (if present) and process environment, applying
// defaults, and validates that the configuration is usable.
func Load(envFile string) (*Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, apperrors.Config("failed to load env file "+envFile, err)
		}
	}

	temp, err := strconv.ParseFloat(getOrDefault("LLM_TEMPERATURE", "0.2"), 64)
	if err != nil {
		return nil, apperrors.Config("invalid LLM_TEMPERATURE", err)
	}

	s := &Settings{
		EmbeddingModel: getOrDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
		LLMModel:       getOrDefault("LLM_MODEL", "gpt-4o-mini"),
		LLMTemperature: temp,
		LLMBaseURL:     os.Getenv("LLM_BASE_URL"),

		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		DeepSeekAPIKey:   os.Getenv("DEEPSEEK_API_KEY"),
		LlamaCloudAPIKey: os.Getenv("LLAMA_CLOUD_API_KEY"),

		CollectionName: getOrDefault("COLLECTION_NAME", "engineering_standards"),

		VectorStoreURL:    os.Getenv("VECTOR_STORE_URL"),
		VectorStoreAPIKey: os.Getenv("VECTOR_STORE_API_KEY"),
		VectorStorePath:   os.Getenv("VECTOR_STORE_PATH"),

		GraphURI:      os.Getenv("GRAPH_URI"),
		GraphUsername: os.Getenv("GRAPH_USERNAME"),
		GraphPassword: os.Getenv("GRAPH_PASSWORD"),
		GraphDatabase: getOrDefault("GRAPH_DATABASE", "neo4j"),

		DataDir: getOrDefault("DATA_DIR", "./data"),

		CacheDBPath:    getOrDefault("CACHE_DB_PATH", "./cache_db/semantic_cache.db"),
		FeedbackDBPath: getOrDefault("FEEDBACK_DB_PATH", "./cache_db/feedback.db"),
		HistoryDBPath:  getOrDefault("HISTORY_DB_PATH", "./cache_db/history.db"),

		LogLevel: getOrDefault("LOG_LEVEL", "INFO"),
	}

	if s.VectorStoreURL == "" && s.VectorStorePath == "" {
		return nil, apperrors.Config("one of VECTOR_STORE_URL or VECTOR_STORE_PATH is required", nil)
	}

	return s, nil
}

// ResolvePaths creates the parent directories of every configured SQLite
// path so that first-open never fails on a missing directory.
func (s *Settings) ResolvePaths() error {
	for _, p := range []string{s.CacheDBPath, s.FeedbackDBPath, s.HistoryDBPath} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return apperrors.Config("failed to create directory for "+p, err)
		}
	}
	return nil
}

// UsesRemoteVectorStore reports whether a remote (e.g. Qdrant) backend is
// configured, as opposed to an embedded local (chromem) store.
func (s *Settings) UsesRemoteVectorStore() bool {
	return s.VectorStoreURL != ""
}

// UsesGraphStore reports whether a live Neo4j connection is configured.
func (s *Settings) UsesGraphStore() bool {
	return s.GraphURI != ""
}

func getOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
