package vectorstore

import (
	"encoding/json"

	"github.com/standards-engine/retrieval/pkg/model"
)

// Payload key names for a leaf chunk point, mirroring the flat
// string-keyed metadata map every backend in the teacher's pkg/vector
// package uses (qdrant.go, chromem.go, pinecone.go all store "content"
// plus a flat key/value metadata bag rather than a nested document).
const (
	payloadDocument     = "document_ref"
	payloadPage         = "page"
	payloadSectionNum   = "section_number"
	payloadSectionTitle = "section_title"
	payloadSectionPath  = "section_path"
	payloadTextOriginal = "text_original"
	payloadTextEnriched = "text_enriched"
	payloadParentID     = "parent_id"
	payloadStandards    = "referenced_standards"
	payloadHasTable     = "has_table"
	payloadTablePayload = "table_payload"
	payloadSpecValues   = "spec_values"
	payloadRequirements = "requirement_strengths"
)

// PayloadFromChunk flattens a leaf chunk's metadata into the payload map
// carried alongside its embedding. Chunk.Embedding is carried separately
// as Point.Vector, not duplicated into the payload.
func PayloadFromChunk(c model.Chunk) map[string]any {
	payload := map[string]any{
		payloadDocument:     c.DocumentRef,
		payloadPage:         c.Page,
		payloadSectionNum:   c.SectionNumber,
		payloadSectionTitle: c.SectionTitle,
		payloadSectionPath:  c.SectionPath,
		payloadTextOriginal: c.TextOriginal,
		payloadTextEnriched: c.TextEnriched,
		payloadParentID:     c.ParentID,
		payloadStandards:    c.ReferencedStandards,
		payloadHasTable:     c.HasTable,
	}

	if c.TablePayload != nil {
		if encoded, err := json.Marshal(c.TablePayload); err == nil {
			payload[payloadTablePayload] = string(encoded)
		}
	}
	if len(c.SpecValues) > 0 {
		if encoded, err := json.Marshal(c.SpecValues); err == nil {
			payload[payloadSpecValues] = string(encoded)
		}
	}
	if len(c.RequirementStrengths) > 0 {
		strengths := make([]string, len(c.RequirementStrengths))
		for i, s := range c.RequirementStrengths {
			strengths[i] = string(s)
		}
		payload[payloadRequirements] = strengths
	}

	return payload
}

// ChunkFromResult rebuilds the leaf chunk metadata a Result carries. Any
// field absent from the payload (an older schema version, a backend that
// dropped an empty key) is left at its zero value rather than erroring:
// query-time reconstruction must be total over whatever a backend hands
// back.
func ChunkFromResult(r Result) model.Chunk {
	c := model.Chunk{
		ID:                  r.ID,
		Level:               0,
		DocumentRef:         stringField(r.Payload, payloadDocument),
		SectionNumber:       stringField(r.Payload, payloadSectionNum),
		SectionTitle:        stringField(r.Payload, payloadSectionTitle),
		TextOriginal:        stringField(r.Payload, payloadTextOriginal),
		TextEnriched:        stringField(r.Payload, payloadTextEnriched),
		ParentID:            stringField(r.Payload, payloadParentID),
		ReferencedStandards: stringSliceField(r.Payload, payloadStandards),
		SectionPath:         stringSliceField(r.Payload, payloadSectionPath),
		HasTable:            boolField(r.Payload, payloadHasTable),
		Embedding:           r.Vector,
	}

	if page, ok := r.Payload[payloadPage]; ok {
		switch v := page.(type) {
		case int:
			c.Page = v
		case float64:
			c.Page = int(v)
		}
	}

	if encoded, ok := r.Payload[payloadTablePayload].(string); ok && encoded != "" {
		var table model.TablePayload
		if json.Unmarshal([]byte(encoded), &table) == nil {
			c.TablePayload = &table
		}
	}
	if encoded, ok := r.Payload[payloadSpecValues].(string); ok && encoded != "" {
		var values []model.SpecValue
		if json.Unmarshal([]byte(encoded), &values) == nil {
			c.SpecValues = values
		}
	}
	for _, s := range stringSliceField(r.Payload, payloadRequirements) {
		c.RequirementStrengths = append(c.RequirementStrengths, model.RequirementStrength(s))
	}

	return c
}

func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}

func boolField(payload map[string]any, key string) bool {
	b, _ := payload[key].(bool)
	return b
}

func stringSliceField(payload map[string]any, key string) []string {
	switch v := payload[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
