package rag

import "strings"

const persona = "You are a helpful AI health assistant."

// BuildPrompt assembles the grounded prompt. Documents and query are inserted
// verbatim; context documents are joined by newlines in retrieval order.
func BuildPrompt(contextDocs []string, query string) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\nUse the following context to answer the question:\n\nContext:\n")
	b.WriteString(strings.Join(contextDocs, "\n"))
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(query)
	b.WriteString("\n\nAnswer:")
	return b.String()
}
