package dto

import "time"

// AssignmentStatsResponse carries the teacher-facing counters for one
// assignment. Values are computed at read time and never cached.
type AssignmentStatsResponse struct {
	AssignmentID      uint    `json:"assignment_id"`
	Title             string  `json:"title"`
	Subject           string  `json:"subject"`
	TotalMarks        int     `json:"total_marks"`
	SubmissionCount   int     `json:"submission_count"`
	PendingCount      int     `json:"pending_count"`
	GradedCount       int     `json:"graded_count"`
	AveragePercentage float64 `json:"average_percentage"`
}

// ProgressSummary aggregates a student's standing across all assignments.
type ProgressSummary struct {
	TotalAssignments  int     `json:"total_assignments"`
	Submitted         int     `json:"submitted"`
	PendingCount      int     `json:"pending_count"`
	GradedCount       int     `json:"graded_count"`
	Overdue           int     `json:"overdue"`
	AveragePercentage float64 `json:"average_percentage"`
	CompletionRate    float64 `json:"completion_rate"`
}

// SubjectStats applies the standard counters to one subject's submissions.
type SubjectStats struct {
	Subject           string  `json:"subject"`
	PendingCount      int     `json:"pending_count"`
	GradedCount       int     `json:"graded_count"`
	AveragePercentage float64 `json:"average_percentage"`
}

// SubmissionActivity summarizes one recent submission on the dashboard.
type SubmissionActivity struct {
	SubmissionID   uint       `json:"submission_id"`
	AssignmentID   uint       `json:"assignment_id"`
	AssignmentName string     `json:"assignment_name"`
	Status         string     `json:"status"`
	Marks          *int       `json:"marks"`
	TotalMarks     int        `json:"total_marks"`
	Feedback       string     `json:"feedback"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	GradedAt       *time.Time `json:"graded_at"`
}

// StudentDashboardResponse is the aggregate payload for the student dashboard.
type StudentDashboardResponse struct {
	Summary           ProgressSummary      `json:"summary"`
	Subjects          []SubjectStats       `json:"subjects"`
	RecentSubmissions []SubmissionActivity `json:"recent_submissions"`
}
