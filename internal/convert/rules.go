package convert

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lherron/caseq/internal/domain"
)

const (
	// DefaultType is used when a case type is blank or unknown
	DefaultType = "Functional"
	// DefaultPriority is used when a priority is blank or unknown
	DefaultPriority = "Medium"
)

var (
	typeVocabulary = map[string]string{
		"functional":  "Functional",
		"smoke":       "Smoke",
		"regression":  "Regression",
		"security":    "Security",
		"performance": "Performance",
		"usability":   "Usability",
	}
	priorityVocabulary = map[string]string{
		"low":      "Low",
		"medium":   "Medium",
		"high":     "High",
		"critical": "Critical",
	}

	tagSeparators = regexp.MustCompile(`[,;\s]+`)

	// Action markers: [STEP] or [STEP n]. Expected markers: [VERIFY] or [EXPECTED].
	stepMarker = regexp.MustCompile(`(?i)\[(?:(STEP)(?:\s*\d+)?|(VERIFY|EXPECTED))\]`)
)

// NormalizeType maps free text onto the type vocabulary, defaulting to Functional
func NormalizeType(s string) string {
	if v, ok := typeVocabulary[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v
	}
	return DefaultType
}

// NormalizePriority maps free text onto the priority vocabulary, defaulting to Medium
func NormalizePriority(s string) string {
	if v, ok := priorityVocabulary[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v
	}
	return DefaultPriority
}

// InferAutomation marks a case automated when its automation_type mentions
// "automated" or it names a test class.
func InferAutomation(custom map[string]string) domain.AutomationStatus {
	if strings.Contains(strings.ToLower(custom["automation_type"]), "automated") {
		return domain.AutomationAutomated
	}
	if strings.TrimSpace(custom["test_class"]) != "" {
		return domain.AutomationAutomated
	}
	return domain.AutomationNotAutomated
}

// SplitTags splits a references field into tags. Tokens longer than
// domain.MaxTagLength are discarded and the result is capped at
// domain.MaxTags; dropped reports how many tokens were lost.
func SplitTags(references string) (tags []string, dropped int) {
	for _, tok := range tagSeparators.Split(references, -1) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if utf8.RuneCountInString(tok) > domain.MaxTagLength || len(tags) == domain.MaxTags {
			dropped++
			continue
		}
		tags = append(tags, tok)
	}
	return tags, dropped
}

// ExtractSteps scans each text on its own, the steps text first and then
// the expected text. Each marker yields one step holding the text up to the
// next marker of either kind within the same text; text outside markers is
// discarded.
func ExtractSteps(texts ...string) []domain.Step {
	var steps []domain.Step
	for _, text := range texts {
		steps = append(steps, scanSteps(text)...)
	}
	return steps
}

func scanSteps(text string) []domain.Step {
	matches := stepMarker.FindAllStringSubmatchIndex(text, -1)

	var steps []domain.Step
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		content := strings.TrimSpace(text[m[1]:end])
		if content == "" {
			continue
		}

		// Group 1 is set for action markers, group 2 for expected markers.
		if m[2] >= 0 {
			steps = append(steps, domain.Step{Action: content})
		} else {
			steps = append(steps, domain.Step{Expected: content})
		}
	}
	return steps
}
