package usecase

import (
	"fmt"
	"math"
	"strings"

	"ragstore/internal/domain"
)

// ContextHeader marks the start of a formatted retrieved-context block.
const ContextHeader = "=== Retrieved Context ==="

// contextInstruction directs the model to ground its answer in the block
// above. It sits between the context and the user's query.
const contextInstruction = "Use the context above to answer the following question."

// FormatContext renders a retrieved context as a human-readable block: the
// fixed header, one line per document with its rank, integer-percent
// similarity and content, and a footer with the retrieval time. An empty
// context renders an explicit no-context message instead of an empty list.
func FormatContext(ctx domain.RetrievedContext) string {
	var sb strings.Builder

	sb.WriteString(ContextHeader)
	sb.WriteString("\n\n")

	if len(ctx.Documents) == 0 {
		sb.WriteString("No relevant context found.\n")
	} else {
		for _, doc := range ctx.Documents {
			pct := int(math.Round(doc.Similarity * 100))
			fmt.Fprintf(&sb, "[%d] (%d%% match) %s\n", doc.Rank, pct, doc.Content)
		}
	}

	fmt.Fprintf(&sb, "\nRetrieved %d document(s) in %dms.\n", ctx.TotalCount, ctx.RetrievalTime)

	return sb.String()
}

// BuildAugmentedPrompt concatenates the formatted context, the grounding
// instruction, and the literal query, in that order: the context header
// always precedes the query text in the returned string.
func BuildAugmentedPrompt(query string, ctx domain.RetrievedContext) string {
	var sb strings.Builder

	sb.WriteString(FormatContext(ctx))
	sb.WriteString("\n")
	sb.WriteString(contextInstruction)
	sb.WriteString("\n\n")
	sb.WriteString(query)

	return sb.String()
}

// AugmentPrompt retrieves context for the query and wraps it into a
// model-ready prompt. Options are forwarded to Retrieve unchanged.
func (r *Retriever) AugmentPrompt(query string, opts RetrieveOptions) (string, domain.RetrievedContext, error) {
	ctx, err := r.Retrieve(query, opts)
	if err != nil {
		return "", domain.RetrievedContext{}, err
	}
	return BuildAugmentedPrompt(query, ctx), ctx, nil
}
