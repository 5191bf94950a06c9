// Package model holds the domain types shared across every component:
// documents, chunks, graph entities and relationships, cache entries, and
// feedback records. Component packages that need a private, non-shared type
// (e.g. pkg/tables.ParsedTable) define it locally instead of here.
package model

import "time"

// Document is a processed source file.
type Document struct {
	Name        string // stable ID
	FileName    string
	Categories  []string
	Project     string
	StandardNo  string
	Date        string
	Description string
	ChunkCount  int
}

// RequirementStrength classifies a requirement sentence.
type RequirementStrength string

const (
	StrengthMandatory   RequirementStrength = "mandatory"
	StrengthProhibited  RequirementStrength = "prohibited"
	StrengthRecommended RequirementStrength = "recommended"
	StrengthOptional    RequirementStrength = "optional"
)

// SpecValue is a (value, unit) pair extracted from text.
type SpecValue struct {
	Type  string // voltage|current|power|area|length|...
	Value float64
	Unit  string
}

// TablePayload is the structured form of a table attached to a chunk.
// Component pkg/tables owns the richer ParsedTable type; this is the
// reduced form persisted on the chunk/vector point.
type TablePayload struct {
	JSON        string
	NaturalText string
	Summary     string
}

// Chunk is an indexed passage — a node in the hierarchical chunk tree.
type Chunk struct {
	ID                   string // stable, content-addressed
	DocumentRef          string
	Page                 int
	SectionNumber        string
	SectionTitle         string
	SectionPath          []string // materialised ancestor titles, root first
	TextOriginal         string
	TextEnriched         string
	ParentID             string // empty for the document root
	ChildrenIDs          []string
	Level                int // 0 = leaf
	HasTable             bool
	TablePayload         *TablePayload
	ReferencedStandards  []string
	SpecValues           []SpecValue
	RequirementStrengths []RequirementStrength
	Embedding            []float32 // only populated for leaves (Level == 0)
}

// IsLeaf reports whether the chunk is an embedding-bearing retrieval unit.
func (c *Chunk) IsLeaf() bool { return c.Level == 0 }

// StandardFamily enumerates the recognised standard-reference families.
type StandardFamily string

const (
	FamilyIS   StandardFamily = "IS"
	FamilyEN   StandardFamily = "EN"
	FamilyIEC  StandardFamily = "IEC"
	FamilyBS   StandardFamily = "BS"
	FamilyNFPA StandardFamily = "NFPA"
	FamilyIEEE StandardFamily = "IEEE"
	FamilyISO  StandardFamily = "ISO"
	FamilyASTM StandardFamily = "ASTM"
	FamilyNEC  StandardFamily = "NEC"
	FamilyDIN  StandardFamily = "DIN"
)

// Standard is a graph entity node for a referenced standard.
type Standard struct {
	Name     string // canonical key, e.g. IEC60364-5-52
	Family   StandardFamily
	RawForms []string
}

// Specification is a graph entity node for a (value, unit) pair.
type Specification struct {
	ID        string
	ParamType string
	Value     float64
	Unit      string
	BaseUnit  string
}

// Requirement is a graph entity node for a classified requirement sentence.
type Requirement struct {
	ID             string
	Strength       RequirementStrength
	Text           string
	SourceDocument string
	SourceSection  string
}

// Section is a graph entity node mirroring a document's section heading.
type Section struct {
	DocumentRef string
	Number      string
	Title       string
}

// EdgeType enumerates the relationship kinds in the knowledge graph.
type EdgeType string

const (
	EdgeContains    EdgeType = "CONTAINS"
	EdgeRefersTo    EdgeType = "REFERS_TO"
	EdgeRequires    EdgeType = "REQUIRES"
	EdgeSupersedes  EdgeType = "SUPERSEDES"
	EdgeSpecifies   EdgeType = "SPECIFIES"
	EdgeComplements EdgeType = "COMPLEMENTS"
	EdgeRelatedTo   EdgeType = "RELATED_TO"
)

// Edge is a directed relationship between two graph nodes, addressed by
// (label, key) pairs rather than in-process pointers.
type Edge struct {
	SrcLabel  string
	SrcKey    string
	DstLabel  string
	DstKey    string
	Type      EdgeType
	Weight    float64
	Learned   bool
	Context   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CacheEntry is a row in the semantic query cache.
type CacheEntry struct {
	ID             int64
	QueryText      string
	QueryEmbedding []float32
	Answer         string
	Sources        []string
	CreatedAt      time.Time
	LastAccessed   time.Time
	HitCount       int
}

// SourceRating classifies per-source feedback.
type SourceRating string

const (
	RatingHelpful    SourceRating = "helpful"
	RatingNotHelpful SourceRating = "not_helpful"
	RatingIrrelevant SourceRating = "irrelevant"
)

// HighlightSentiment classifies a text highlight.
type HighlightSentiment string

const (
	SentimentPositive HighlightSentiment = "positive"
	SentimentNegative HighlightSentiment = "negative"
	SentimentNeutral  HighlightSentiment = "neutral"
)

// SourceFeedback rates one retrieved chunk within an answer.
type SourceFeedback struct {
	Document         string
	Page             int
	ChunkFingerprint string
	Rating           SourceRating
	Stars            *int
}

// TextHighlight records a user-highlighted span with sentiment.
type TextHighlight struct {
	Text        string
	Sentiment   HighlightSentiment
	StartOffset *int
	EndOffset   *int
}

// FeedbackRecord is a full per-answer feedback submission.
type FeedbackRecord struct {
	Query             string
	Answer            string
	OverallRating     *int // 1..5
	Relevance         *int
	Clarity           *int
	Completeness      *int
	SourceFeedback    []SourceFeedback
	Highlights        []TextHighlight
	Comment           string
	CreatedAt         time.Time
	LearningTimeRange *int // non-nil only when the caller opted in to learning (time_window_days)
}

// Source is a chunk surfaced to the caller with its retrieval/adjusted score.
type Source struct {
	Chunk Chunk
	Score float64
}
