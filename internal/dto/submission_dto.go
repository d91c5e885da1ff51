package dto

import (
	"time"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

// SubmissionCreateRequest describes the multipart payload for handing in an
// assignment. Content is optional because a submission may consist of an
// attachment only; the service rejects requests with neither.
type SubmissionCreateRequest struct {
	AssignmentID uint   `form:"assignment_id" validate:"required,gt=0"`
	StudentID    uint   `form:"student_id" validate:"required,gt=0"`
	Content      string `form:"content"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint   `query:"assignment_id"`
	StudentID    *uint   `query:"student_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=submitted pending graded"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint           `json:"id"`
	AssignmentID uint           `json:"assignment_id"`
	StudentID    uint           `json:"student_id"`
	Content      string         `json:"content"`
	FileURL      string         `json:"file_url"`
	Status       string         `json:"status"`
	Marks        *int           `json:"marks"`
	Feedback     string         `json:"feedback"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	GradedAt     *time.Time     `json:"graded_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Assignment   AssignmentLite `json:"assignment"`
	Student      StudentLite    `json:"student"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	Subject    string    `json:"subject"`
	TotalMarks int       `json:"total_marks"`
	DueDate    time.Time `json:"due_date"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		Content:      model.Content,
		FileURL:      model.FileURL,
		Status:       model.Status,
		Marks:        model.Marks,
		Feedback:     model.Feedback,
		SubmittedAt:  model.SubmittedAt,
		GradedAt:     model.GradedAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:         model.Assignment.ID,
			Title:      model.Assignment.Title,
			Subject:    model.Assignment.Subject,
			TotalMarks: model.Assignment.TotalMarks,
			DueDate:    model.Assignment.DueDate,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
