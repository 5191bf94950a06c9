package chunk

import "strings"

// span is a half-open [Start, End) byte range into the owning text.
type span struct {
	Start, End int
}

// splitIntoLeaves slides a window of approximately size characters over
// text, preferring to end each window at the separator nearest the target
// boundary (paragraph, then line, then sentence, then word) so that leaves
// rarely cut mid-word. overlap characters of trailing context are repeated
// at the start of the next window, up to overlapMax.
//
// Grounded on the teacher's pkg/rag chunker family (size/overlap/separator
// shape of ChunkerConfig), adapted from a flat chunk list to the span form
// this package's tree builder consumes.
func splitIntoLeaves(text string, size, overlapMax int) []span {
	n := len(text)
	if n == 0 {
		return []span{{0, 0}}
	}
	if n <= size {
		return []span{{0, n}}
	}

	var spans []span
	start := 0

	for start < n {
		end := start + size
		if end >= n {
			spans = append(spans, span{start, n})
			break
		}

		end = nearestBoundary(text, start, end)
		if end <= start {
			end = start + size // no boundary found; hard cut
			if end > n {
				end = n
			}
		}

		spans = append(spans, span{start, end})

		overlap := overlapMax
		if overlap > end-start {
			overlap = end - start
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return spans
}

var boundarySeparators = []string{"\n\n", "\n", ". ", " "}

// nearestBoundary looks backward from target for the closest separator,
// trying separators in order of semantic strength (paragraph, line,
// sentence, word), within a small search window so the chunk size stays
// close to the target.
func nearestBoundary(text string, start, target int) int {
	n := len(text)
	if target > n {
		target = n
	}
	window := 64
	lo := target - window
	if lo < start {
		lo = start
	}

	for _, sep := range boundarySeparators {
		if idx := strings.LastIndex(text[lo:target], sep); idx >= 0 {
			return lo + idx + len(sep)
		}
	}

	return target
}
