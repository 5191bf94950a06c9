package feedback

import (
	"context"
	"sort"

	"github.com/standards-engine/retrieval/pkg/model"
)

// PostProcessConfig tunes the boost/penalty applied to feedback-rated
// sources, grounded on feedback_postprocessor.py's FeedbackPostProcessor
// constructor.
type PostProcessConfig struct {
	Boost   float64
	Penalty float64
}

// DefaultPostProcessConfig matches the original's defaults.
func DefaultPostProcessConfig() PostProcessConfig {
	return PostProcessConfig{Boost: 0.15, Penalty: 0.10}
}

// PostProcess re-ranks sources by their aggregated feedback score, per
// spec.md §4.M: positive scores boost (capped at a multiplier of 5),
// negative scores penalize (capped at a multiplier of 3, floored at 0),
// zero leaves the score unchanged. The result is sorted descending by
// adjusted score.
func PostProcess(ctx context.Context, store *Store, cfg PostProcessConfig, sources []model.Source) ([]model.Source, error) {
	if len(sources) == 0 {
		return sources, nil
	}

	adjusted := make([]model.Source, len(sources))
	for i, src := range sources {
		fingerprint := Fingerprint(src.Chunk.DocumentRef, src.Chunk.Page, src.Chunk.TextOriginal)
		f, err := store.SourceScore(ctx, src.Chunk.DocumentRef, src.Chunk.Page, fingerprint)
		if err != nil {
			return nil, err
		}

		score := src.Score
		switch {
		case f > 0:
			mult := f
			if mult > 5 {
				mult = 5
			}
			score = src.Score + src.Score*cfg.Boost*mult
		case f < 0:
			mult := -f
			if mult > 3 {
				mult = 3
			}
			score = src.Score - src.Score*cfg.Penalty*mult
			if score < 0 {
				score = 0
			}
		}

		adjusted[i] = model.Source{Chunk: src.Chunk, Score: score}
	}

	sort.SliceStable(adjusted, func(i, j int) bool { return adjusted[i].Score > adjusted[j].Score })
	return adjusted, nil
}
