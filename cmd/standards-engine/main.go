// Command standards-engine is a thin demonstration CLI over
// pkg/engine.Facade: it exercises the boundary operations (ingest,
// query, search, stats, rebuild-graph) an outer GUI/HTTP layer would
// otherwise call, grounded on the teacher's cmd/hector's kong-based
// command shape. Argument parsing depth and output formatting are
// deliberately minimal; this is not the product surface.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/standards-engine/retrieval/pkg/apperrors"
	"github.com/standards-engine/retrieval/pkg/engine"
	"github.com/standards-engine/retrieval/pkg/ingest"
	"github.com/standards-engine/retrieval/pkg/logger"
	"github.com/standards-engine/retrieval/pkg/settings"
)

// exitUsage/exitIngestFailure/exitQueryFailure/exitConfigMissing are
// spec.md §6's CLI wrapper exit codes (0 is the zero value/success).
const (
	exitUsage         = 1
	exitIngestFailure = 2
	exitQueryFailure  = 3
	exitConfigMissing = 4
)

// CLI is the top-level kong command tree.
type CLI struct {
	EnvFile string `name:"env-file" help:"Path to a .env-style settings file." type:"path"`

	Ingest  IngestCmd  `cmd:"" help:"Ingest one or more files into the vector store and knowledge graph."`
	Query   QueryCmd   `cmd:"" help:"Run the full query pipeline (retrieve, expand, generate)."`
	Search  SearchCmd  `cmd:"" help:"Run retrieval only, no generation."`
	Stats   StatsCmd   `cmd:"" help:"Show collection and graph statistics."`
	Rebuild RebuildCmd `cmd:"" help:"Rebuild the knowledge graph from the vector store."`
}

// IngestCmd ingests files, mirroring §6's ingest(paths, options).
type IngestCmd struct {
	Paths        []string `arg:"" help:"File paths to ingest."`
	Categories   string   `help:"Comma-separated categories."`
	Project      string   `help:"Project name."`
	StandardNo   string   `name:"standard-no" help:"Standard number."`
	Date         string   `help:"Document date."`
	Description  string   `help:"Document description."`
	ForceReindex bool     `name:"force-reindex" help:"Delete and re-insert existing chunks for these documents."`
}

func (c *IngestCmd) Run(ctx context.Context, sys *engine.System) error {
	var categories []string
	if c.Categories != "" {
		categories = strings.Split(c.Categories, ",")
	}

	report, err := sys.Ingest(ctx, c.Paths, ingest.Options{
		Categories:   categories,
		Project:      c.Project,
		StandardNo:   c.StandardNo,
		Date:         c.Date,
		Description:  c.Description,
		ForceReindex: c.ForceReindex,
	})
	if err != nil {
		return err
	}

	for _, doc := range report.Documents {
		fmt.Printf("%-30s %-10s chunks=%d %s\n", doc.Document, doc.Status, doc.Chunks, doc.Error)
	}
	fmt.Printf("total chunks indexed: %d\n", report.TotalChunks)
	return nil
}

// QueryCmd runs the full query pipeline.
type QueryCmd struct {
	Text string `arg:"" help:"Query text."`
}

func (c *QueryCmd) Run(ctx context.Context, sys *engine.System) error {
	result, err := sys.Query(ctx, c.Text, nil)
	if err != nil {
		return err
	}

	fmt.Println(result.Answer)
	if result.Degraded {
		fmt.Fprintln(os.Stderr, "(degraded: no LLM response, answer is assembled context)")
	}
	if result.FromCache {
		fmt.Printf("\n%d source(s) (from cache)\n", len(result.CachedSourceNames))
		for _, name := range result.CachedSourceNames {
			fmt.Printf("  - %s\n", name)
		}
		return nil
	}
	fmt.Printf("\n%d source(s)\n", len(result.Sources))
	for _, s := range result.Sources {
		fmt.Printf("  - %s (score %.3f)\n", s.Chunk.DocumentRef, s.Score)
	}
	return nil
}

// SearchCmd runs retrieval only.
type SearchCmd struct {
	Text string `arg:"" help:"Search text."`
	K    int    `default:"10" help:"Number of results."`
}

func (c *SearchCmd) Run(ctx context.Context, sys *engine.System) error {
	sources, err := sys.Search(ctx, c.Text, c.K, nil)
	if err != nil {
		return err
	}
	for _, s := range sources {
		fmt.Printf("%.3f  %s  %s\n", s.Score, s.Chunk.DocumentRef, s.Chunk.SectionNumber)
	}
	return nil
}

// StatsCmd shows collection and graph statistics.
type StatsCmd struct{}

func (c *StatsCmd) Run(ctx context.Context, sys *engine.System, s *settings.Settings) error {
	stats, err := sys.Stats(ctx, storageLocation(s))
	if err != nil {
		return err
	}
	fmt.Printf("collection:       %s\n", stats.Collection)
	fmt.Printf("total chunks:     %d\n", stats.TotalChunks)
	fmt.Printf("storage location: %s\n", stats.StorageLocation)
	for label, count := range stats.GraphStatistics.NodeCountByLabel {
		fmt.Printf("graph nodes[%s]: %d\n", label, count)
	}
	return nil
}

func storageLocation(s *settings.Settings) string {
	if s.VectorStorePath != "" {
		return s.VectorStorePath
	}
	return s.VectorStoreURL
}

// RebuildCmd rebuilds the knowledge graph from the vector store.
type RebuildCmd struct {
	ClearExisting bool `name:"clear-existing" help:"Prune existing graph edges before rebuilding."`
}

func (c *RebuildCmd) Run(ctx context.Context, sys *engine.System) error {
	stats, err := sys.RebuildGraph(ctx, c.ClearExisting)
	if err != nil {
		return err
	}
	for label, count := range stats.NodeCountByLabel {
		fmt.Printf("nodes[%s]: %d\n", label, count)
	}
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("standards-engine"),
		kong.Description("Engineering-standards retrieval pipeline demonstration CLI."),
		kong.UsageOnError(),
	)

	s, err := settings.Load(cli.EnvFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitConfigMissing)
	}
	if err := s.ResolvePaths(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitConfigMissing)
	}
	logger.Init(logger.ParseLevel(s.LogLevel), os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	sys, err := engine.NewFromSettings(ctx, s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitConfigMissing)
	}
	defer sys.Close(ctx)

	err = kctx.Run(ctx, sys, s)
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, err)
	os.Exit(exitCodeFor(kctx.Command(), err))
}

// exitCodeFor maps a command failure to spec.md §6's exit codes: a
// configuration error is always 4 regardless of which command raised
// it; otherwise ingest commands map to 2 and query/search commands map
// to 3, matching "ingestion failure" / "query failure".
func exitCodeFor(command string, err error) int {
	if apperrors.Is(err, apperrors.KindConfig) {
		return exitConfigMissing
	}

	switch {
	case strings.HasPrefix(command, "ingest"):
		return exitIngestFailure
	case strings.HasPrefix(command, "query"), strings.HasPrefix(command, "search"):
		return exitQueryFailure
	default:
		return exitUsage
	}
}
