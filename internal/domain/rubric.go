// Package domain provides the core types and business logic for rubric-driven
// document evaluation. It defines the rubric schema (criteria, levels), the
// per-criterion and per-document score types, and the aggregation functions
// that reduce per-criterion scores to an overall assessment.
//
// Rubric lifecycle:
//   - Criteria are parsed and validated once at startup from a rubric source.
//   - A validated Criteria value is read-only and safe to share across
//     concurrent evaluations; to change a rubric, rebuild it wholesale.
//   - No partial rubric is ever returned: parse or validation failures yield
//     a nil Criteria and a typed error.
package domain

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"sort"
)

// Level is one legal (score, rule) pair within a criterion. The rule text
// describes the conditions under which the score applies.
type Level struct {
	Score int    `json:"score"`
	Rule  string `json:"rule" validate:"required"`
}

// Criterion is a single named axis of evaluation. Its levels collectively
// define the only legal score values for the criterion.
type Criterion struct {
	// Name uniquely identifies the criterion within a Criteria set.
	Name string `json:"name" validate:"required,min=1"`

	// Description explains what the criterion measures.
	Description string `json:"description" validate:"required"`

	// Levels are the legal scoring levels, in declared order.
	// A criterion must define at least two levels with distinct scores.
	Levels []Level `json:"levels" validate:"required,min=2,dive"`
}

// LevelScores returns the declared score values in declared order.
func (c Criterion) LevelScores() []int {
	scores := make([]int, len(c.Levels))
	for i, l := range c.Levels {
		scores[i] = l.Score
	}
	return scores
}

// HasScore reports whether v is one of the criterion's declared level scores.
func (c Criterion) HasScore(v int) bool {
	for _, l := range c.Levels {
		if l.Score == v {
			return true
		}
	}
	return false
}

// Criteria is an ordered set of criteria defining a complete rubric.
// Order matters for deterministic serialization and prompt construction,
// not for scoring.
type Criteria struct {
	Criteria []Criterion `json:"criteria" validate:"required,min=1,dive"`
}

// Len returns the number of criteria in the rubric.
func (c Criteria) Len() int { return len(c.Criteria) }

// ByName returns the criterion with the given name, if present.
func (c Criteria) ByName(name string) (Criterion, bool) {
	for _, crit := range c.Criteria {
		if crit.Name == name {
			return crit, true
		}
	}
	return Criterion{}, false
}

// Names returns the criterion names in declared order.
func (c Criteria) Names() []string {
	names := make([]string, len(c.Criteria))
	for i, crit := range c.Criteria {
		names[i] = crit.Name
	}
	return names
}

// ParseCriteria parses and validates a JSON rubric document of the form
// {"criteria": [{"name": ..., "description": ..., "levels": [...]}, ...]}.
//
// Malformed JSON yields a *ParseError. A structurally valid document that
// violates rubric invariants (fewer than two levels, duplicate level scores
// within a criterion, duplicate criterion names, empty required fields)
// yields a *ValidationError. On any error no partial rubric is returned.
func ParseCriteria(data []byte) (*Criteria, error) {
	var c Criteria
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &ParseError{Err: err}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the rubric invariants. Returns a *ValidationError
// describing the first violation found, or nil if the rubric is valid.
func (c Criteria) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	seen := make(map[string]struct{}, len(c.Criteria))
	for _, crit := range c.Criteria {
		if _, dup := seen[crit.Name]; dup {
			return &ValidationError{
				Criterion: crit.Name,
				Message:   "duplicate criterion name",
			}
		}
		seen[crit.Name] = struct{}{}

		scores := make(map[int]struct{}, len(crit.Levels))
		for _, l := range crit.Levels {
			if _, dup := scores[l.Score]; dup {
				return &ValidationError{
					Criterion: crit.Name,
					Message:   fmt.Sprintf("duplicate level score %d", l.Score),
				}
			}
			scores[l.Score] = struct{}{}
		}
	}
	return nil
}

// Serialize renders the rubric as canonical JSON with stable field order.
// The output round-trips through ParseCriteria.
func (c Criteria) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("serializing rubric: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// xmlLevel mirrors Level for markup export with the score as an attribute.
type xmlLevel struct {
	Score int    `xml:"score,attr"`
	Rule  string `xml:",chardata"`
}

type xmlLevels struct {
	Levels []xmlLevel `xml:"level"`
}

type xmlCriterion struct {
	Name        string    `xml:"name,attr"`
	Description string    `xml:"description"`
	Levels      xmlLevels `xml:"levels"`
}

type xmlCriteria struct {
	XMLName  xml.Name       `xml:"criteria"`
	Criteria []xmlCriterion `xml:"criterion"`
}

// ToXML renders the rubric as markup for embedding in prompts. Criteria are
// emitted in declared order; levels within each criterion are emitted from
// highest to lowest score regardless of declared order.
func (c Criteria) ToXML() (string, error) {
	doc := xmlCriteria{Criteria: make([]xmlCriterion, 0, len(c.Criteria))}
	for _, crit := range c.Criteria {
		levels := make([]xmlLevel, len(crit.Levels))
		for i, l := range crit.Levels {
			levels[i] = xmlLevel{Score: l.Score, Rule: l.Rule}
		}
		sort.SliceStable(levels, func(i, j int) bool { return levels[i].Score > levels[j].Score })

		doc.Criteria = append(doc.Criteria, xmlCriterion{
			Name:        crit.Name,
			Description: crit.Description,
			Levels:      xmlLevels{Levels: levels},
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("rendering rubric markup: %w", err)
	}
	return string(out), nil
}
