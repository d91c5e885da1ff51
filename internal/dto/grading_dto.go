package dto

// ManualGradeRequest is the payload for the manual grading path.
type ManualGradeRequest struct {
	SubmissionID uint   `json:"submission_id" validate:"required,gt=0"`
	Marks        *int   `json:"marks" validate:"required"`
	Feedback     string `json:"feedback"`
	Status       string `json:"status" validate:"required,oneof=submitted pending graded"`
}

// AutoGradeRequest is the payload for the AI and heuristic grading paths.
type AutoGradeRequest struct {
	SubmissionID uint `json:"submission_id" validate:"required,gt=0"`
}

// GradeResultResponse is the normalized envelope returned after grading.
type GradeResultResponse struct {
	Marks      int                `json:"marks"`
	TotalMarks int                `json:"total_marks"`
	Percentage float64            `json:"percentage"`
	Grade      string             `json:"grade"`
	Feedback   string             `json:"feedback"`
	Submission SubmissionResponse `json:"submission"`
}
