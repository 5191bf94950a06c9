package feedback

import "fmt"

// fingerprintPrefixLen matches feedback_postprocessor.py's chunk_text[:500].
const fingerprintPrefixLen = 500

// Fingerprint identifies a chunk for feedback aggregation independent of
// its vector-store ID: document, page, and a bounded text prefix so two
// re-chunkings of the same passage still collide.
func Fingerprint(document string, page int, textOriginal string) string {
	prefix := textOriginal
	if len(prefix) > fingerprintPrefixLen {
		prefix = prefix[:fingerprintPrefixLen]
	}
	return fmt.Sprintf("%s|%d|%s", document, page, prefix)
}
