package models

import (
	"strings"
	"time"
)

// Submission represents a student's single attempt at an assignment. The
// composite unique index guarantees at most one row per (assignment, student).
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignmentID uint       `gorm:"not null;uniqueIndex:idx_submissions_assignment_student" json:"assignment_id"`
	StudentID    uint       `gorm:"not null;uniqueIndex:idx_submissions_assignment_student" json:"student_id"`
	Content      string     `gorm:"type:text" json:"content"`
	FileURL      string     `gorm:"size:512" json:"file_url"`
	Status       string     `gorm:"size:32;not null" json:"status"`
	Marks        *int       `json:"marks"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	SubmittedAt  time.Time  `gorm:"not null" json:"submitted_at"`
	GradedAt     *time.Time `json:"graded_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Assignment   Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student      Student    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

const (
	// SubmissionStatusSubmitted indicates the submission has been received but not graded.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusPending is a legacy synonym of "submitted"; both mean awaiting a grade.
	SubmissionStatusPending = "pending"
	// SubmissionStatusGraded indicates marks and feedback have been recorded.
	SubmissionStatusGraded = "graded"
)

// IsGraded reports whether the submission carries a final grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// IsUngradedStatus reports whether the status names the single logical
// "awaiting a grade" state. "submitted" and "pending" are synonymous.
func IsUngradedStatus(status string) bool {
	return status == SubmissionStatusSubmitted || status == SubmissionStatusPending
}

// HasContent reports whether the submission carries gradable text.
func (s Submission) HasContent() bool {
	return strings.TrimSpace(s.Content) != ""
}
