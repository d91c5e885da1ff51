package grader

import (
	"context"
	"errors"
	"math"
)

// Input carries the assignment context and the student's answer to grade.
type Input struct {
	AssignmentTitle string
	Subject         string
	Description     string
	PromptText      string
	TotalMarks      int
	StudentName     string
	Content         string
}

// Result is the raw outcome produced by a grader. Marks is unclamped; the
// caller is responsible for rounding and bounding it against the assignment
// total before persisting.
type Result struct {
	Marks    float64
	Feedback string
}

// Grader scores a submission against its assignment. Implementations are
// selected explicitly by the calling endpoint, never by type inspection.
type Grader interface {
	Grade(ctx context.Context, input Input) (Result, error)
}

// Upstream failure kinds for graders that call a remote model. They are kept
// distinct so callers can render different messages and decide whether a
// retry action makes sense.
var (
	// ErrUpstream indicates the remote grading service failed or returned an
	// unusable response.
	ErrUpstream = errors.New("ai grading service failed")
	// ErrUpstreamAuth indicates the remote grading service rejected the API key.
	ErrUpstreamAuth = errors.New("ai grading service rejected credentials")
	// ErrUpstreamRateLimited indicates the remote grading service throttled the
	// request. The call is never retried internally.
	ErrUpstreamRateLimited = errors.New("ai grading service rate limited")
)

// ClampMarks rounds raw marks and bounds them into [0, totalMarks].
func ClampMarks(raw float64, totalMarks int) int {
	marks := int(math.Round(raw))
	if marks < 0 {
		return 0
	}
	if marks > totalMarks {
		return totalMarks
	}
	return marks
}

// Percentage computes marks/totalMarks*100, guarding a zero denominator.
func Percentage(marks, totalMarks int) float64 {
	if totalMarks <= 0 {
		return 0
	}
	return float64(marks) / float64(totalMarks) * 100
}

// LetterGrade maps a percentage to its letter band.
func LetterGrade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 85:
		return "A"
	case percentage >= 80:
		return "A-"
	case percentage >= 75:
		return "B+"
	case percentage >= 70:
		return "B"
	case percentage >= 65:
		return "B-"
	case percentage >= 60:
		return "C+"
	case percentage >= 55:
		return "C"
	case percentage >= 50:
		return "C-"
	default:
		return "F"
	}
}
