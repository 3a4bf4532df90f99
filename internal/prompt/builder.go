// Package prompt constructs grading prompts from a document and a rubric.
// Construction is a pure function: identical inputs always produce identical
// prompt text, which enables caching and reproducible evaluations.
package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ahrav/go-rubric/internal/domain"
)

// replyInstructions describes the provider-agnostic structured reply shape.
// The backend must return one entry per criterion with a score drawn from
// that criterion's declared set.
const replyInstructions = `Respond with a single JSON object and nothing else, in this exact shape:

{"scores": [{"criterion": "<criterion name>", "score": <integer>, "reasoning": "<specific justification>", "confidence": <number between 0.0 and 1.0>}]}

Requirements:
- Include exactly one entry for every criterion in the rubric.
- The score must be one of the integer scores declared for that criterion.
- The reasoning must cite concrete evidence from the document.
- The confidence field is optional; omit it if you cannot estimate certainty.`

// Build renders the grading prompt for a document against a rubric.
// The document is embedded verbatim: no truncation or summarization; length
// management is the caller's concern.
func Build(document string, criteria domain.Criteria) (string, error) {
	rubric, err := criteria.ToXML()
	if err != nil {
		return "", fmt.Errorf("building prompt: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are an expert document evaluator. Grade the document below against every criterion in the rubric.\n\n")
	b.WriteString("Rubric:\n")
	b.WriteString(rubric)
	b.WriteString("\n\nDocument:\n---\n")
	b.WriteString(document)
	b.WriteString("\n---\n\n")
	b.WriteString(replyInstructions)
	return b.String(), nil
}

// Hash returns the SHA-256 of the rendered prompt, hex encoded. Useful as a
// cache key and to detect rubric or template drift between runs.
func Hash(document string, criteria domain.Criteria) (string, error) {
	rendered, err := Build(document, criteria)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(rendered))
	return hex.EncodeToString(sum[:]), nil
}
