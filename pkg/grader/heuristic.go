package grader

import (
	"context"
	"math"
	"strings"
)

// Scoring weights for the rule-based grader.
const (
	lengthWeight    = 0.30
	keywordWeight   = 0.40
	structureBonus  = 0.10
	lengthWordCap   = 50
	keywordMatchCap = 5
)

var mathKeywords = []string{
	"solve", "equation", "calculate", "formula", "variable",
	"x", "value", "sum", "therefore", "because",
}

var scienceKeywords = []string{
	"hypothesis", "experiment", "observation", "theory", "energy",
	"cell", "reaction", "force", "data", "conclusion",
}

var englishKeywords = []string{
	"theme", "character", "metaphor", "author", "plot",
	"symbolism", "narrative", "tone", "imagery", "analysis",
}

var historyKeywords = []string{
	"century", "revolution", "empire", "war", "treaty",
	"society", "culture", "government", "economy", "movement",
}

var conclusionMarkers = []string{"conclusion", "therefore", "in summary"}

var explanationMarkers = []string{"because", "since", "explain"}

// Heuristic is a deterministic, keyword and length based grader that needs no
// network access. It never fails; malformed input scores zero with feedback.
type Heuristic struct{}

// NewHeuristic constructs the rule-based grader.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Grade scores the content from three components: answer length (up to 0.30),
// subject keyword coverage (up to 0.40) and structural markers (three 0.10
// bonuses), then scales by the assignment total. A non-empty answer never
// scores below 1 mark.
func (h *Heuristic) Grade(_ context.Context, input Input) (Result, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return Result{Marks: 0, Feedback: "No answer content was provided, so no marks could be awarded. Submit a written answer to receive a grade."}, nil
	}

	totalMarks := input.TotalMarks
	if totalMarks <= 0 {
		totalMarks = 100
	}

	lower := strings.ToLower(content)
	wordCount := len(strings.Fields(content))

	lengthScore := math.Min(float64(wordCount)/lengthWordCap, 1) * lengthWeight

	keywords := keywordSetFor(input.Subject)
	matched := 0
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			matched++
		}
	}
	keywordScore := math.Min(float64(matched)/keywordMatchCap, 1) * keywordWeight

	structureScore := 0.0
	if strings.Contains(content, "\n") || len(content) > 100 {
		structureScore += structureBonus
	}
	hasConclusion := containsAny(lower, conclusionMarkers)
	if hasConclusion {
		structureScore += structureBonus
	}
	hasExplanation := containsAny(lower, explanationMarkers)
	if hasExplanation {
		structureScore += structureBonus
	}

	finalMarks := int(math.Round((lengthScore + keywordScore + structureScore) * float64(totalMarks)))
	if finalMarks < 1 {
		finalMarks = 1
	}

	feedback := buildHeuristicFeedback(finalMarks, totalMarks, wordCount, matched, hasConclusion, hasExplanation)

	return Result{Marks: float64(finalMarks), Feedback: feedback}, nil
}

func keywordSetFor(subject string) []string {
	lower := strings.ToLower(subject)
	switch {
	case strings.Contains(lower, "math"):
		return mathKeywords
	case strings.Contains(lower, "science"),
		strings.Contains(lower, "physics"),
		strings.Contains(lower, "chemistry"),
		strings.Contains(lower, "biology"):
		return scienceKeywords
	case strings.Contains(lower, "english"), strings.Contains(lower, "literature"):
		return englishKeywords
	case strings.Contains(lower, "history"), strings.Contains(lower, "social"):
		return historyKeywords
	default:
		fallback := make([]string, 0, len(mathKeywords)+len(scienceKeywords)+len(englishKeywords))
		fallback = append(fallback, mathKeywords...)
		fallback = append(fallback, scienceKeywords...)
		fallback = append(fallback, englishKeywords...)
		return fallback
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func buildHeuristicFeedback(marks, totalMarks, wordCount, keywordMatches int, hasConclusion, hasExplanation bool) string {
	percentage := float64(marks) / float64(totalMarks) * 100

	var summary string
	switch {
	case percentage >= 90:
		summary = "Excellent work! The answer is thorough, uses the right terminology and is well structured."
	case percentage >= 80:
		summary = "Very good answer with solid coverage of the topic and clear reasoning."
	case percentage >= 70:
		summary = "Good effort. The answer covers the main points but leaves room for more depth."
	case percentage >= 60:
		summary = "A fair attempt that addresses several important points, though the treatment is uneven."
	case percentage >= 50:
		summary = "The answer shows a basic understanding but misses detail and supporting argument."
	default:
		summary = "The answer needs significant improvement in both depth and structure."
	}

	suggestions := make([]string, 0, 4)
	if wordCount < 30 {
		suggestions = append(suggestions, "Expand the answer with more detail and concrete examples.")
	}
	if keywordMatches < 2 {
		suggestions = append(suggestions, "Use more subject-specific terminology to show command of the material.")
	}
	if !hasConclusion {
		suggestions = append(suggestions, "Finish with a clear concluding statement.")
	}
	if !hasExplanation {
		suggestions = append(suggestions, "Explain the reasoning behind your statements.")
	}

	if len(suggestions) == 0 {
		return summary
	}

	var builder strings.Builder
	builder.WriteString(summary)
	builder.WriteString("\n\nWays to improve:")
	for _, suggestion := range suggestions {
		builder.WriteString("\n- ")
		builder.WriteString(suggestion)
	}
	return builder.String()
}
