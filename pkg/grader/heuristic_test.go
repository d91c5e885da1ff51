package grader

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeuristicGradeFullMarksForStrongAnswer(t *testing.T) {
	g := NewHeuristic()

	content := strings.Join([]string{
		"To solve this equation we first isolate x on the left side.",
		"We subtract five from both sides because both sides must stay balanced,",
		"and then divide by two to find the value of x.",
		"Checking the answer by substitution confirms the result is correct.",
		"Therefore x equals three, which satisfies the original equation,",
		"and the solution set contains exactly one element as expected here.",
	}, "\n")

	result, err := g.Grade(context.Background(), Input{
		AssignmentTitle: "Linear Equations",
		Subject:         "Mathematics",
		TotalMarks:      30,
		Content:         content,
	})
	require.NoError(t, err)
	require.Equal(t, float64(30), result.Marks)
	require.Contains(t, result.Feedback, "Excellent")
}

func TestHeuristicGradeEmptyContentScoresZeroWithoutError(t *testing.T) {
	g := NewHeuristic()

	result, err := g.Grade(context.Background(), Input{
		Subject:    "Mathematics",
		TotalMarks: 50,
		Content:    "   \n\t ",
	})
	require.NoError(t, err)
	require.Zero(t, result.Marks)
	require.Contains(t, result.Feedback, "No answer content")
}

func TestHeuristicGradeNonEmptyContentNeverScoresBelowOne(t *testing.T) {
	g := NewHeuristic()

	result, err := g.Grade(context.Background(), Input{
		Subject:    "History",
		TotalMarks: 100,
		Content:    "idk",
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.Marks, float64(1))
	require.Contains(t, result.Feedback, "Ways to improve:")
}

func TestHeuristicGradeIsDeterministic(t *testing.T) {
	g := NewHeuristic()
	input := Input{
		Subject:    "Science",
		TotalMarks: 20,
		Content:    "The experiment supports the hypothesis because the observed data shows a clear reaction. In conclusion the theory holds.",
	}

	first, err := g.Grade(context.Background(), input)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := g.Grade(context.Background(), input)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestHeuristicGradeDefaultsDenominatorForZeroTotalMarks(t *testing.T) {
	g := NewHeuristic()

	result, err := g.Grade(context.Background(), Input{
		Subject:    "English",
		TotalMarks: 0,
		Content:    "The theme of the novel is explored through the narrator's tone and imagery.",
	})
	require.NoError(t, err)
	require.Greater(t, result.Marks, float64(0))
	require.LessOrEqual(t, result.Marks, float64(100))
}

func TestKeywordSetForSubjectFamilies(t *testing.T) {
	require.Equal(t, mathKeywords, keywordSetFor("Mathematics"))
	require.Equal(t, scienceKeywords, keywordSetFor("Physics"))
	require.Equal(t, scienceKeywords, keywordSetFor("biology"))
	require.Equal(t, englishKeywords, keywordSetFor("English Literature"))
	require.Equal(t, historyKeywords, keywordSetFor("Social Studies"))

	fallback := keywordSetFor("Art")
	require.Len(t, fallback, len(mathKeywords)+len(scienceKeywords)+len(englishKeywords))
}

func TestBuildHeuristicFeedbackSuggestions(t *testing.T) {
	feedback := buildHeuristicFeedback(10, 100, 5, 0, false, false)
	require.Contains(t, feedback, "significant improvement")
	require.Contains(t, feedback, "Expand the answer")
	require.Contains(t, feedback, "subject-specific terminology")
	require.Contains(t, feedback, "concluding statement")
	require.Contains(t, feedback, "reasoning behind")

	clean := buildHeuristicFeedback(95, 100, 60, 5, true, true)
	require.NotContains(t, clean, "Ways to improve:")
}
