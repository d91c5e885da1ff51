package dto

import (
	"time"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	TeacherID   uint   `form:"teacher_id" json:"teacher_id" validate:"required,gt=0"`
	Title       string `form:"title" json:"title" validate:"required,min=3"`
	Subject     string `form:"subject" json:"subject" validate:"required,min=2"`
	Description string `form:"description" json:"description" validate:"omitempty,min=10"`
	TextContent string `form:"text_content" json:"text_content"`
	TotalMarks  int    `form:"total_marks" json:"total_marks" validate:"required,gt=0"`
	DueDate     string `form:"due_date" json:"due_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

// AssignmentUpdateRequest describes the payload for updating an assignment.
type AssignmentUpdateRequest struct {
	Title       *string `form:"title" json:"title" validate:"omitempty,min=3"`
	Subject     *string `form:"subject" json:"subject" validate:"omitempty,min=2"`
	Description *string `form:"description" json:"description" validate:"omitempty,min=10"`
	TextContent *string `form:"text_content" json:"text_content"`
	TotalMarks  *int    `form:"total_marks" json:"total_marks" validate:"omitempty,gt=0"`
	DueDate     *string `form:"due_date" json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// AssignmentListRequest describes query filters for listing assignments.
type AssignmentListRequest struct {
	Subject  string `query:"subject"`
	Search   string `query:"search"`
	Sort     string `query:"sort"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID          uint      `json:"id"`
	TeacherID   uint      `json:"teacher_id"`
	Title       string    `json:"title"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	TextContent string    `json:"text_content"`
	FileURL     string    `json:"file_url"`
	TotalMarks  int       `json:"total_marks"`
	DueDate     time.Time `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AssignmentListResponse wraps paginated assignments.
type AssignmentListResponse struct {
	Items      []AssignmentResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// PaginationMeta describes the shape of paginated list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:          model.ID,
		TeacherID:   model.TeacherID,
		Title:       model.Title,
		Subject:     model.Subject,
		Description: model.Description,
		TextContent: model.TextContent,
		FileURL:     model.FileURL,
		TotalMarks:  model.TotalMarks,
		DueDate:     model.DueDate,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
