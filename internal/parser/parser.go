// Package parser validates structured grading replies from completion
// backends. It extracts the JSON payload from a raw reply, applies a single
// conservative repair pass for formatting defects the backends commonly
// produce, and checks the parsed scores against the rubric.
//
// The repair policy is one-shot: strict parse first, one repair attempt,
// then fail with a *SchemaViolation. Scores are never clamped or coerced;
// a value outside a criterion's declared set rejects the reply.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ahrav/go-rubric/internal/domain"
)

// SchemaViolation reports a reply that could not be validated against the
// rubric. It covers both structural failures (payload is not the expected
// JSON shape) and rubric violations (missing criterion, undeclared score).
// A SchemaViolation is terminal for the reply; retrying the same payload
// cannot succeed.
type SchemaViolation struct {
	// Criterion is the offending criterion name when the violation is
	// attributable to a single entry, empty for structural failures.
	Criterion string

	// Message describes the violation.
	Message string
}

func (e *SchemaViolation) Error() string {
	if e.Criterion != "" {
		return fmt.Sprintf("schema violation for criterion %q: %s", e.Criterion, e.Message)
	}
	return fmt.Sprintf("schema violation: %s", e.Message)
}

// reply mirrors the JSON object the prompt instructs backends to produce.
type reply struct {
	Scores []replyScore `json:"scores"`
}

type replyScore struct {
	Criterion  string   `json:"criterion"`
	Score      int      `json:"score"`
	Reasoning  string   `json:"reasoning"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Parse validates a raw backend reply against the rubric and returns one
// score per criterion, in the rubric's declared order.
//
// The second return value lists non-fatal warnings: entries naming criteria
// the rubric does not declare are dropped rather than failing the reply.
// All other deviations are fatal and return a *SchemaViolation: a payload
// that is not valid JSON after one repair attempt, a missing or duplicated
// criterion, a score outside the criterion's declared level set, or a
// confidence outside [0, 1].
func Parse(raw string, criteria domain.Criteria) ([]domain.EvaluationScore, []string, error) {
	payload := extractPayload(raw)

	var r reply
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		repaired := repairCommonJSONIssues(payload)
		if repaired == payload {
			return nil, nil, &SchemaViolation{Message: fmt.Sprintf("reply is not valid JSON: %v", err)}
		}
		if err := json.Unmarshal([]byte(repaired), &r); err != nil {
			return nil, nil, &SchemaViolation{Message: fmt.Sprintf("reply is not valid JSON after repair: %v", err)}
		}
	}

	if len(r.Scores) == 0 {
		return nil, nil, &SchemaViolation{Message: "reply contains no scores"}
	}

	var warnings []string
	byName := make(map[string]domain.EvaluationScore, criteria.Len())
	for _, entry := range r.Scores {
		crit, known := criteria.ByName(entry.Criterion)
		if !known {
			warnings = append(warnings, fmt.Sprintf("dropping score for undeclared criterion %q", entry.Criterion))
			continue
		}
		if _, dup := byName[entry.Criterion]; dup {
			return nil, nil, &SchemaViolation{
				Criterion: entry.Criterion,
				Message:   "criterion scored more than once",
			}
		}
		if !crit.HasScore(entry.Score) {
			return nil, nil, &SchemaViolation{
				Criterion: entry.Criterion,
				Message:   fmt.Sprintf("score %d is not a declared level score %v", entry.Score, crit.LevelScores()),
			}
		}
		if entry.Confidence != nil && (*entry.Confidence < 0 || *entry.Confidence > 1) {
			return nil, nil, &SchemaViolation{
				Criterion: entry.Criterion,
				Message:   fmt.Sprintf("confidence %g outside [0, 1]", *entry.Confidence),
			}
		}
		byName[entry.Criterion] = domain.EvaluationScore{
			CriterionName: entry.Criterion,
			Score:         entry.Score,
			Confidence:    entry.Confidence,
			Reasoning:     strings.TrimSpace(entry.Reasoning),
		}
	}

	scores := make([]domain.EvaluationScore, 0, criteria.Len())
	for _, crit := range criteria.Criteria {
		s, ok := byName[crit.Name]
		if !ok {
			return nil, nil, &SchemaViolation{
				Criterion: crit.Name,
				Message:   "criterion missing from reply",
			}
		}
		scores = append(scores, s)
	}
	return scores, warnings, nil
}

// extractPayload isolates the JSON object from a reply that may wrap it in
// markdown fences or surrounding prose. The reply contract is a single
// object, so the slice from the first '{' to the last '}' is the candidate
// payload. Returns the input unchanged when no object brackets are present.
func extractPayload(raw string) string {
	s := strings.TrimSpace(raw)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

var (
	unquotedKeyRegex   = regexp.MustCompile(`([{,])\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*:`)
	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
)

// repairCommonJSONIssues applies a single conservative repair pass for
// formatting defects completion backends commonly produce. Returns the
// input unchanged when no repair applies.
func repairCommonJSONIssues(payload string) string {
	repaired := payload

	// Trailing commas before a closing bracket violate the JSON spec but
	// show up regularly in generated output.
	repaired = trailingCommaRegex.ReplaceAllString(repaired, "$1")

	// Unquoted property names.
	repaired = unquotedKeyRegex.ReplaceAllString(repaired, `$1"$2":`)

	// Single-quoted strings, only when the payload uses no double quotes at
	// all so the swap cannot corrupt string contents.
	if !strings.Contains(repaired, `"`) && strings.Contains(repaired, `'`) {
		repaired = strings.ReplaceAll(repaired, `'`, `"`)
	}

	repaired = strings.TrimSpace(repaired)
	if repaired == payload {
		return payload
	}
	return repaired
}
