package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/repository"
)

// SubmissionStats holds the counters derived from a set of submissions.
type SubmissionStats struct {
	PendingCount      int
	GradedCount       int
	AveragePercentage float64
}

// ComputeSubmissionStats folds over submissions at read time. "submitted" and
// "pending" both count as the single ungraded state. The average is the mean
// of per-submission percentages, NOT pooled points over pooled totals; the two
// differ whenever total marks vary across assignments.
func ComputeSubmissionStats(submissions []models.Submission) SubmissionStats {
	stats := SubmissionStats{}
	percentSum := 0.0
	scored := 0

	for _, submission := range submissions {
		if !submission.IsGraded() {
			stats.PendingCount++
			continue
		}

		stats.GradedCount++
		if submission.Marks != nil {
			total := submission.Assignment.MarksDenominator()
			percentSum += float64(*submission.Marks) / float64(total) * 100
			scored++
		}
	}

	if scored > 0 {
		stats.AveragePercentage = percentSum / float64(scored)
	}

	return stats
}

// StatsService produces dashboard aggregates. Everything is recomputed on
// every read; nothing is cached or persisted.
type StatsService interface {
	AssignmentStats(ctx context.Context, assignmentID uint) (dto.AssignmentStatsResponse, error)
	StudentDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error)
}

type statsService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStatsService builds the statistics aggregator.
func NewStatsService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, logger zerolog.Logger) StatsService {
	return &statsService{
		assignments: assignments,
		submissions: submissions,
		logger:      logger.With().Str("component", "stats_service").Logger(),
		now:         time.Now,
	}
}

func (s *statsService) AssignmentStats(ctx context.Context, assignmentID uint) (dto.AssignmentStatsResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentStatsResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentStatsResponse{}, err
	}

	filter := repository.SubmissionFilter{AssignmentID: &assignmentID}
	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return dto.AssignmentStatsResponse{}, err
	}

	stats := ComputeSubmissionStats(submissions)

	return dto.AssignmentStatsResponse{
		AssignmentID:      assignment.ID,
		Title:             assignment.Title,
		Subject:           assignment.Subject,
		TotalMarks:        assignment.TotalMarks,
		SubmissionCount:   len(submissions),
		PendingCount:      stats.PendingCount,
		GradedCount:       stats.GradedCount,
		AveragePercentage: stats.AveragePercentage,
	}, nil
}

func (s *statsService) StudentDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	assignments, err := s.assignments.List(ctx)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	filter := repository.SubmissionFilter{StudentID: &studentID}
	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	return buildStudentDashboard(assignments, submissions, s.now()), nil
}

func buildStudentDashboard(assignments []models.Assignment, submissions []models.Submission, now time.Time) dto.StudentDashboardResponse {
	overall := ComputeSubmissionStats(submissions)

	summary := dto.ProgressSummary{
		TotalAssignments:  len(assignments),
		Submitted:         len(submissions),
		PendingCount:      overall.PendingCount,
		GradedCount:       overall.GradedCount,
		AveragePercentage: overall.AveragePercentage,
	}

	submissionByAssignment := map[uint]models.Submission{}
	for _, submission := range submissions {
		submissionByAssignment[submission.AssignmentID] = submission
	}

	for _, assignment := range assignments {
		submission, submitted := submissionByAssignment[assignment.ID]
		if assignment.IsPastDue(now) && (!submitted || !submission.IsGraded()) {
			summary.Overdue++
		}
	}

	if summary.TotalAssignments > 0 {
		summary.CompletionRate = float64(summary.GradedCount) / float64(summary.TotalAssignments) * 100
	}

	bySubject := map[string][]models.Submission{}
	for _, submission := range submissions {
		subject := submission.Assignment.Subject
		bySubject[subject] = append(bySubject[subject], submission)
	}

	subjects := make([]dto.SubjectStats, 0, len(bySubject))
	for subject, group := range bySubject {
		stats := ComputeSubmissionStats(group)
		subjects = append(subjects, dto.SubjectStats{
			Subject:           subject,
			PendingCount:      stats.PendingCount,
			GradedCount:       stats.GradedCount,
			AveragePercentage: stats.AveragePercentage,
		})
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Subject < subjects[j].Subject })

	activities := make([]dto.SubmissionActivity, 0, minInt(5, len(submissions)))
	for idx, submission := range submissions {
		if idx >= 5 {
			break
		}
		activities = append(activities, dto.SubmissionActivity{
			SubmissionID:   submission.ID,
			AssignmentID:   submission.AssignmentID,
			AssignmentName: submission.Assignment.Title,
			Status:         submission.Status,
			Marks:          submission.Marks,
			TotalMarks:     submission.Assignment.TotalMarks,
			Feedback:       submission.Feedback,
			SubmittedAt:    submission.SubmittedAt,
			GradedAt:       submission.GradedAt,
		})
	}

	return dto.StudentDashboardResponse{
		Summary:           summary,
		Subjects:          subjects,
		RecentSubmissions: activities,
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
