package feedback

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/standards-engine/retrieval/pkg/graphstore"
	"github.com/standards-engine/retrieval/pkg/model"
)

// LearnerConfig tunes the co-occurrence and pattern-mining thresholds,
// grounded on feedback_learner.py's FeedbackLearner constructor.
type LearnerConfig struct {
	MinConfidence float64
	MinSupport    int
	LearningRate  float64
	PruneWeight   float64
}

// DefaultLearnerConfig matches the original's defaults.
func DefaultLearnerConfig() LearnerConfig {
	return LearnerConfig{
		MinConfidence: 0.6,
		MinSupport:    3,
		LearningRate:  0.1,
		PruneWeight:   0.3,
	}
}

// LearnStats reports what a Learn pass did.
type LearnStats struct {
	AnalyzedFeedback          int
	NewRelationships          int
	StrengthenedRelationships int
	DiscoveredPatterns        int
	PrunedRelationships       int
}

// Learner mines positive feedback for document co-occurrence and
// keyword→document patterns, writing COMPLEMENTS/RELATED_TO edges into a
// graphstore.Store, grounded on feedback_learner.py's FeedbackLearner.
type Learner struct {
	store *Store
	graph graphstore.Store
	cfg   LearnerConfig
}

// NewLearner builds a Learner reading feedback from store and writing
// edges into graph.
func NewLearner(store *Store, graph graphstore.Store, cfg LearnerConfig) *Learner {
	return &Learner{store: store, graph: graph, cfg: cfg}
}

// Learn runs one full learning pass: co-occurrence mining, keyword
// pattern mining, and pruning of weak learned edges. since limits the
// feedback window; nil considers all time.
func (l *Learner) Learn(ctx context.Context, since *time.Time) (LearnStats, error) {
	records, err := l.store.List(ctx, since)
	if err != nil {
		return LearnStats{}, err
	}

	var positive []model.FeedbackRecord
	for _, rec := range records {
		if IsPositive(rec) {
			positive = append(positive, rec)
		}
	}

	stats := LearnStats{AnalyzedFeedback: len(positive)}
	if len(positive) > 0 {
		if err := l.learnCoOccurrence(ctx, positive, &stats); err != nil {
			return stats, err
		}
		if err := l.learnKeywordPatterns(ctx, positive, &stats); err != nil {
			return stats, err
		}
	}

	pruned, err := l.graph.PruneEdges(ctx, func(e model.Edge) bool {
		return e.Learned && e.Weight < l.cfg.PruneWeight
	})
	if err != nil {
		return stats, err
	}
	stats.PrunedRelationships = pruned

	return stats, nil
}

func recordDocuments(rec model.FeedbackRecord) []string {
	seen := map[string]bool{}
	var docs []string
	for _, sf := range rec.SourceFeedback {
		if sf.Document == "" || seen[sf.Document] {
			continue
		}
		seen[sf.Document] = true
		docs = append(docs, sf.Document)
	}
	sort.Strings(docs)
	return docs
}

// learnCoOccurrence mines pairs of documents that co-appear in positive
// feedback's sources, exactly feedback_learner.py's _analyze_co_occurrences.
func (l *Learner) learnCoOccurrence(ctx context.Context, positive []model.FeedbackRecord, stats *LearnStats) error {
	pairCounts := map[[2]string]int{}
	docCounts := map[string]int{}

	for _, rec := range positive {
		docs := recordDocuments(rec)
		for _, d := range docs {
			docCounts[d]++
		}
		for i := 0; i < len(docs); i++ {
			for j := i + 1; j < len(docs); j++ {
				pairCounts[[2]string{docs[i], docs[j]}]++
			}
		}
	}

	for pair, count := range pairCounts {
		if count < l.cfg.MinSupport {
			continue
		}
		maxSingle := docCounts[pair[0]]
		if docCounts[pair[1]] > maxSingle {
			maxSingle = docCounts[pair[1]]
		}
		if maxSingle == 0 {
			continue
		}
		confidence := float64(count) / float64(maxSingle)
		if confidence < l.cfg.MinConfidence {
			continue
		}

		created, err := l.strengthenOrCreate(ctx, pair[0], pair[1], model.EdgeComplements, confidence)
		if err != nil {
			return err
		}
		if created {
			stats.NewRelationships++
		} else {
			stats.StrengthenedRelationships++
		}
	}
	return nil
}

type queryPattern struct {
	keyword    string
	document   string
	confidence float64
	support    int
}

// learnKeywordPatterns mines query keywords whose positive feedback
// consistently cites the same document, exactly
// feedback_learner.py's _detect_query_patterns/_create_semantic_relationships.
func (l *Learner) learnKeywordPatterns(ctx context.Context, positive []model.FeedbackRecord, stats *LearnStats) error {
	keywordOccurrences := map[string][]model.FeedbackRecord{}
	for _, rec := range positive {
		for _, token := range strings.Fields(strings.ToLower(rec.Query)) {
			if len(token) <= 3 {
				continue
			}
			keywordOccurrences[token] = append(keywordOccurrences[token], rec)
		}
	}

	var patterns []queryPattern
	for keyword, occurrences := range keywordOccurrences {
		if len(occurrences) < l.cfg.MinSupport {
			continue
		}
		docCounter := map[string]int{}
		for _, rec := range occurrences {
			for _, d := range recordDocuments(rec) {
				docCounter[d]++
			}
		}
		topDoc, topCount := "", 0
		for d, c := range docCounter {
			if c > topCount || (c == topCount && d < topDoc) {
				topDoc, topCount = d, c
			}
		}
		if topDoc == "" {
			continue
		}
		confidence := float64(topCount) / float64(len(occurrences))
		if confidence < l.cfg.MinConfidence {
			continue
		}
		patterns = append(patterns, queryPattern{keyword: keyword, document: topDoc, confidence: confidence, support: len(occurrences)})
	}
	stats.DiscoveredPatterns = len(patterns)

	keywordGroups := map[string]map[string]bool{}
	for _, p := range patterns {
		if keywordGroups[p.keyword] == nil {
			keywordGroups[p.keyword] = map[string]bool{}
		}
		keywordGroups[p.keyword][p.document] = true
	}

	for _, docSet := range keywordGroups {
		if len(docSet) < 2 {
			continue
		}
		var docs []string
		for d := range docSet {
			docs = append(docs, d)
		}
		sort.Strings(docs)

		for i := 0; i < len(docs); i++ {
			for j := i + 1; j < len(docs); j++ {
				created, err := l.strengthenOrCreate(ctx, docs[i], docs[j], model.EdgeRelatedTo, 0.5)
				if err != nil {
					return err
				}
				if created {
					stats.NewRelationships++
				} else {
					stats.StrengthenedRelationships++
				}
			}
		}
	}
	return nil
}

// strengthenOrCreate reports whether it created a new edge (true) or
// strengthened an existing one (false), via the monotonic update in
// pkg/graphstore.Store.SetEdgeWeight.
func (l *Learner) strengthenOrCreate(ctx context.Context, docA, docB string, edgeType model.EdgeType, confidence float64) (bool, error) {
	src := graphstore.NodeRef{Label: "Document", Key: docA}
	dst := graphstore.NodeRef{Label: "Document", Key: docB}

	neighbors, err := l.graph.Neighbors(ctx, src, graphstore.EdgeFilter{Types: []model.EdgeType{edgeType}})
	if err != nil {
		return false, err
	}
	existing := false
	for _, n := range neighbors {
		if n == dst {
			existing = true
			break
		}
	}

	if err := l.graph.SetEdgeWeight(ctx, src, dst, edgeType, l.cfg.LearningRate, confidence); err != nil {
		return false, err
	}
	return !existing, nil
}
