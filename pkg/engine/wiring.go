package engine

import (
	"context"
	"database/sql"
	"net/url"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/standards-engine/retrieval/pkg/apperrors"
	"github.com/standards-engine/retrieval/pkg/cache"
	"github.com/standards-engine/retrieval/pkg/catalog"
	"github.com/standards-engine/retrieval/pkg/crossref"
	"github.com/standards-engine/retrieval/pkg/embed"
	"github.com/standards-engine/retrieval/pkg/feedback"
	"github.com/standards-engine/retrieval/pkg/graphstore"
	"github.com/standards-engine/retrieval/pkg/ingest"
	"github.com/standards-engine/retrieval/pkg/knowledge"
	"github.com/standards-engine/retrieval/pkg/llm"
	"github.com/standards-engine/retrieval/pkg/query"
	"github.com/standards-engine/retrieval/pkg/settings"
	"github.com/standards-engine/retrieval/pkg/vectorstore"
)

// System is a fully-wired Facade plus every resource it opened, so a
// caller can shut them down in reverse order. Matches the teacher's
// "global singletons → explicit init/teardown" redesign guidance: nothing
// here lazily initializes itself on first use.
type System struct {
	*Facade

	cacheDB    *sql.DB
	feedbackDB *sql.DB
	graphStore graphstore.Store
}

// Close releases every resource System opened. Safe to call once; errors
// from individual closers are joined informationally but do not stop the
// remaining closes from running.
func (s *System) Close(ctx context.Context) error {
	var firstErr error
	if s.graphStore != nil {
		if err := s.graphStore.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.feedbackDB != nil {
		if err := s.feedbackDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.cacheDB != nil {
		if err := s.cacheDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewFromSettings wires every component from a loaded settings.Settings,
// choosing the embedded (chromem) vector store or a remote Qdrant
// deployment per UsesRemoteVectorStore, and an in-process graph store or
// a live Neo4j deployment per UsesGraphStore. The embedding provider
// requires OPENAI_API_KEY, so a missing key fails startup with a
// ConfigError.
func NewFromSettings(ctx context.Context, s *settings.Settings) (*System, error) {
	embedder, err := embed.NewOpenAIProvider(s.OpenAIAPIKey, s.EmbeddingModel, "")
	if err != nil {
		return nil, err
	}

	vector, err := newVectorStore(s)
	if err != nil {
		return nil, err
	}
	if err := vector.CreateCollection(ctx, s.CollectionName, embedder.Dimension(), vectorstore.DistanceCosine); err != nil {
		return nil, apperrors.Store("failed to create vector collection", err)
	}

	graph, err := newGraphStore(ctx, s)
	if err != nil {
		return nil, err
	}
	if err := graph.EnsureIndexes(ctx); err != nil {
		return nil, apperrors.Store("failed to ensure graph indexes", err)
	}
	kc := knowledge.NewConstructor(graph)

	cat, err := catalog.NewEditor(s.DataDir)
	if err != nil {
		return nil, err
	}

	cacheDB, err := openSQLite(s.CacheDBPath)
	if err != nil {
		return nil, err
	}
	queryCache, err := cache.New(cacheDB, cache.DefaultConfig())
	if err != nil {
		return nil, err
	}

	feedbackDB, err := openSQLite(s.FeedbackDBPath)
	if err != nil {
		return nil, err
	}
	feedbackStore, err := feedback.New(feedbackDB)
	if err != nil {
		return nil, err
	}
	learner := feedback.NewLearner(feedbackStore, graph, feedback.DefaultLearnerConfig())

	var llmClient llm.Client
	if s.OpenAIAPIKey != "" {
		llmClient, err = llm.NewOpenAIClient(s.OpenAIAPIKey, s.LLMModel, s.LLMBaseURL)
		if err != nil {
			return nil, err
		}
	}

	pipeline, err := ingest.NewPipeline(vector, embedder, kc, s.CollectionName, ingest.DefaultConfig())
	if err != nil {
		return nil, err
	}
	pipeline = pipeline.WithCatalog(cat)

	qcfg := query.DefaultConfig()
	queryEngine, err := query.NewEngine(vector, graph, embedder, queryCache, feedbackStore, llmClient, s.CollectionName, qcfg)
	if err != nil {
		return nil, err
	}

	analyzer, err := crossref.NewAnalyzer(vector, s.CollectionName)
	if err != nil {
		return nil, err
	}

	facade := New(vector, graph, kc, cat, pipeline, queryEngine, analyzer, feedbackStore, learner, s.CollectionName)

	return &System{
		Facade:     facade,
		cacheDB:    cacheDB,
		feedbackDB: feedbackDB,
		graphStore: graph,
	}, nil
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, apperrors.Config("failed to open sqlite database "+path, err)
	}
	return db, nil
}

// newVectorStore chooses the embedded chromem store, a remote Qdrant
// deployment, or a managed Pinecone index. Settings carries no explicit
// VECTOR_STORE_PROVIDER field, so the choice between the two remote
// backends is made from VECTOR_STORE_URL's scheme: a "pinecone://"
// scheme selects Pinecone (host component is the index name, TLS is
// implied), anything else is treated as a Qdrant host:port. This is
// recorded as a resolved Open Question rather than a silent default.
func newVectorStore(s *settings.Settings) (vectorstore.Store, error) {
	if !s.UsesRemoteVectorStore() {
		return vectorstore.NewChromemStore(vectorstore.ChromemConfig{PersistPath: s.VectorStorePath})
	}

	parsed, parseErr := url.Parse(s.VectorStoreURL)
	if parseErr == nil && parsed.Scheme == "pinecone" {
		return vectorstore.NewPineconeStore(vectorstore.PineconeConfig{
			APIKey:    s.VectorStoreAPIKey,
			IndexName: parsed.Hostname(),
		})
	}

	host, port := "localhost", 6334
	if parseErr == nil && parsed.Hostname() != "" {
		host = parsed.Hostname()
		if p := parsed.Port(); p != "" {
			if n, err := strconv.Atoi(p); err == nil {
				port = n
			}
		}
	}

	return vectorstore.NewQdrantStore(vectorstore.QdrantConfig{
		Host:   host,
		Port:   port,
		APIKey: s.VectorStoreAPIKey,
		UseTLS: s.VectorStoreAPIKey != "",
	})
}

func newGraphStore(ctx context.Context, s *settings.Settings) (graphstore.Store, error) {
	if !s.UsesGraphStore() {
		return graphstore.NewMemStore(), nil
	}

	return graphstore.NewNeo4jStore(ctx, graphstore.Neo4jConfig{
		URI:      s.GraphURI,
		Username: s.GraphUsername,
		Password: s.GraphPassword,
		Database: s.GraphDatabase,
	})
}
