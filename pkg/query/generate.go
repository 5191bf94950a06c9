package query

import (
	"context"
	"fmt"

	"github.com/standards-engine/retrieval/pkg/llm"
)

// bilingualSystemPrompt instructs the LLM to mirror the query's
// language, per spec.md §4.N step 6.
const bilingualSystemPrompt = "You are an expert on engineering standards and specifications. Answer in the same language as the question. Base your answer strictly on the provided context; if the context mentions specific standards or specifications, cite them."

// generate runs spec.md §4.N step 6. A nil client or a failed call
// degrades to returning the assembled context verbatim with degraded=true,
// per §7's ProviderError policy: "query path degrades to a no-LLM
// response containing assembled context when the LLM fails."
func (e *Engine) generate(ctx context.Context, queryText, assembledContext string) (answer string, degraded bool) {
	if e.llmClient == nil {
		return assembledContext, true
	}

	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", assembledContext, queryText)
	messages := []llm.Message{
		{Role: "system", Content: bilingualSystemPrompt},
		{Role: "user", Content: prompt},
	}

	response, err := e.llmClient.Complete(ctx, messages)
	if err != nil {
		return assembledContext, true
	}
	return response, false
}
