package chunk

import (
	"crypto/sha256"
	"encoding/hex"
)

// contentID derives a stable, content-addressed chunk ID from the
// document, its position within it, and its text, so that re-ingesting the
// same document produces identical IDs and the vector/graph stores' id
// upserts stay idempotent (spec §"no cross-store distributed transactions").
//
// crypto/sha256 is used directly rather than a third-party hashing
// library: no example repo or the original Python implementation reaches
// for a content-hashing library for this purpose (the Python side used a
// plain `hashlib.sha256`, the same standard-library choice).
func contentID(documentRef, positionKey, text string) string {
	h := sha256.New()
	h.Write([]byte(documentRef))
	h.Write([]byte{0})
	h.Write([]byte(positionKey))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return "chunk_" + hex.EncodeToString(h.Sum(nil))[:24]
}
