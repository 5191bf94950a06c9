package ingest

import (
	"github.com/standards-engine/retrieval/pkg/chunk"
	"github.com/standards-engine/retrieval/pkg/model"
	"github.com/standards-engine/retrieval/pkg/sections"
)

// parseDocument runs the single-threaded chunking stage: section
// detection followed by hierarchical tree construction, returning only
// the leaves (Level == 0) — the retrieval units this pipeline embeds and
// persists. Grounded on ingestion.py's parse_file plus
// create_semantic_chunks, collapsed into pkg/chunk.BuildTree's one-pass
// hierarchy.
func (p *Pipeline) parseDocument(name, fileName, text string, pageOf chunk.PageResolver, opts Options) []model.Chunk {
	doc := p.resolveMetadata(name, fileName, opts, 0)

	secs := sections.Parse(text)
	tree := chunk.BuildTree(doc, text, secs, p.cfg.ChunkConfig, pageOf)

	leaves := make([]model.Chunk, 0, len(tree))
	for _, c := range tree {
		if c.Level == 0 {
			leaves = append(leaves, c)
		}
	}
	return leaves
}

func (p *Pipeline) documentMetadata(name, fileName string, opts Options, chunkCount int) model.Document {
	return p.resolveMetadata(name, fileName, opts, chunkCount)
}

// resolveMetadata fills any metadata field Options leaves zero-valued from
// the attached catalog, if one is attached; an explicit Options value
// always wins over the stored mapping. The catalog is consulted by
// fileName (extension kept, `file_path.name` in the original), while name
// (extension stripped) remains the stable document ID.
func (p *Pipeline) resolveMetadata(name, fileName string, opts Options, chunkCount int) model.Document {
	doc := model.Document{
		Name:        name,
		FileName:    fileName,
		Categories:  opts.Categories,
		Project:     opts.Project,
		StandardNo:  opts.StandardNo,
		Date:        opts.Date,
		Description: opts.Description,
		ChunkCount:  chunkCount,
	}
	if p.catalog != nil {
		doc = p.catalog.ApplyToDocument(doc)
		doc.ChunkCount = chunkCount
	}
	return doc
}
