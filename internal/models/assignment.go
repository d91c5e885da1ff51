package models

import "time"

// Assignment represents a graded task distributed by a teacher. TotalMarks is
// the scoring denominator for every submission against it.
type Assignment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TeacherID   uint      `gorm:"not null" json:"teacher_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Subject     string    `gorm:"size:128;not null" json:"subject"`
	Description string    `gorm:"type:text" json:"description"`
	TextContent string    `gorm:"type:text" json:"text_content"`
	FileURL     string    `gorm:"size:512" json:"file_url"`
	TotalMarks  int       `gorm:"not null" json:"total_marks"`
	DueDate     time.Time `gorm:"not null" json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Teacher     Teacher   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"teacher"`
	Submissions []Submission
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// MarksDenominator returns the scoring denominator, guarding against
// assignments persisted before total marks became mandatory.
func (a Assignment) MarksDenominator() int {
	if a.TotalMarks <= 0 {
		return 100
	}
	return a.TotalMarks
}
