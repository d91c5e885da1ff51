package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/repository"
)

type fakeAssignmentRepo struct {
	assignments map[uint]models.Assignment
}

func newFakeAssignmentRepo(assignments ...models.Assignment) *fakeAssignmentRepo {
	repo := &fakeAssignmentRepo{assignments: map[uint]models.Assignment{}}
	for _, assignment := range assignments {
		repo.assignments[assignment.ID] = assignment
	}
	return repo
}

func (r *fakeAssignmentRepo) List(_ context.Context) ([]models.Assignment, error) {
	var result []models.Assignment
	for _, assignment := range r.assignments {
		result = append(result, assignment)
	}
	return result, nil
}

func (r *fakeAssignmentRepo) ListWithFilter(ctx context.Context, _ repository.AssignmentFilter) ([]models.Assignment, int64, error) {
	assignments, err := r.List(ctx)
	return assignments, int64(len(assignments)), err
}

func (r *fakeAssignmentRepo) GetByID(_ context.Context, id uint) (models.Assignment, error) {
	assignment, ok := r.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (r *fakeAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	if assignment.ID == 0 {
		assignment.ID = uint(len(r.assignments) + 1)
	}
	r.assignments[assignment.ID] = *assignment
	return nil
}

func (r *fakeAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	r.assignments[assignment.ID] = *assignment
	return nil
}

func (r *fakeAssignmentRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.assignments, id)
	return nil
}

func intPtr(v int) *int { return &v }

func TestComputeSubmissionStatsAveragesPercentagesNotPoints(t *testing.T) {
	submissions := []models.Submission{
		{
			Status:     models.SubmissionStatusGraded,
			Marks:      intPtr(80),
			Assignment: models.Assignment{TotalMarks: 100},
		},
		{
			Status:     models.SubmissionStatusGraded,
			Marks:      intPtr(18),
			Assignment: models.Assignment{TotalMarks: 20},
		},
		{
			Status:     models.SubmissionStatusSubmitted,
			Assignment: models.Assignment{TotalMarks: 50},
		},
	}

	stats := ComputeSubmissionStats(submissions)
	require.Equal(t, 1, stats.PendingCount)
	require.Equal(t, 2, stats.GradedCount)
	require.InDelta(t, 85.0, stats.AveragePercentage, 0.0001)
}

func TestComputeSubmissionStatsPendingIsSynonymOfSubmitted(t *testing.T) {
	submissions := []models.Submission{
		{Status: models.SubmissionStatusSubmitted},
		{Status: models.SubmissionStatusPending},
	}

	stats := ComputeSubmissionStats(submissions)
	require.Equal(t, 2, stats.PendingCount)
	require.Zero(t, stats.GradedCount)
	require.Zero(t, stats.AveragePercentage)
}

func TestComputeSubmissionStatsEmptyInput(t *testing.T) {
	stats := ComputeSubmissionStats(nil)
	require.Zero(t, stats.PendingCount)
	require.Zero(t, stats.GradedCount)
	require.Zero(t, stats.AveragePercentage)
}

func TestComputeSubmissionStatsGradedWithoutMarksCountsButDoesNotScore(t *testing.T) {
	submissions := []models.Submission{
		{Status: models.SubmissionStatusGraded, Assignment: models.Assignment{TotalMarks: 100}},
		{
			Status:     models.SubmissionStatusGraded,
			Marks:      intPtr(50),
			Assignment: models.Assignment{TotalMarks: 100},
		},
	}

	stats := ComputeSubmissionStats(submissions)
	require.Equal(t, 2, stats.GradedCount)
	require.InDelta(t, 50.0, stats.AveragePercentage, 0.0001)
}

func TestAssignmentStatsRecomputedPerRead(t *testing.T) {
	assignment := models.Assignment{ID: 1, Title: "Quiz", Subject: "Science", TotalMarks: 10}
	assignmentRepo := newFakeAssignmentRepo(assignment)
	submissionRepo := newFakeSubmissionRepo(models.Submission{
		ID:           1,
		AssignmentID: 1,
		StudentID:    1,
		Status:       models.SubmissionStatusSubmitted,
		Assignment:   assignment,
	})

	svc := NewStatsService(assignmentRepo, submissionRepo, zerolog.New(io.Discard))

	stats, err := svc.AssignmentStats(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, stats.SubmissionCount)
	require.Equal(t, 1, stats.PendingCount)
	require.Zero(t, stats.GradedCount)

	graded := submissionRepo.submissions[1]
	graded.Status = models.SubmissionStatusGraded
	graded.Marks = intPtr(9)
	submissionRepo.submissions[1] = graded

	stats, err = svc.AssignmentStats(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, stats.GradedCount)
	require.Zero(t, stats.PendingCount)
	require.InDelta(t, 90.0, stats.AveragePercentage, 0.0001)
}

func TestAssignmentStatsNotFound(t *testing.T) {
	svc := NewStatsService(newFakeAssignmentRepo(), newFakeSubmissionRepo(), zerolog.New(io.Discard))

	_, err := svc.AssignmentStats(context.Background(), 42)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestBuildStudentDashboardSummary(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	assignments := []models.Assignment{
		{ID: 1, Subject: "Mathematics", TotalMarks: 20, DueDate: now.Add(-48 * time.Hour)},
		{ID: 2, Subject: "Science", TotalMarks: 100, DueDate: now.Add(24 * time.Hour)},
		{ID: 3, Subject: "Science", TotalMarks: 50, DueDate: now.Add(-24 * time.Hour)},
	}

	gradedAt := now.Add(-time.Hour)
	submissions := []models.Submission{
		{
			ID:           1,
			AssignmentID: 1,
			Status:       models.SubmissionStatusGraded,
			Marks:        intPtr(16),
			GradedAt:     &gradedAt,
			Assignment:   assignments[0],
		},
		{
			ID:           2,
			AssignmentID: 2,
			Status:       models.SubmissionStatusSubmitted,
			Assignment:   assignments[1],
		},
	}

	dashboard := buildStudentDashboard(assignments, submissions, now)

	require.Equal(t, 3, dashboard.Summary.TotalAssignments)
	require.Equal(t, 2, dashboard.Summary.Submitted)
	require.Equal(t, 1, dashboard.Summary.GradedCount)
	require.Equal(t, 1, dashboard.Summary.PendingCount)
	require.InDelta(t, 80.0, dashboard.Summary.AveragePercentage, 0.0001)
	// Assignment 3 is past due with no submission at all.
	require.Equal(t, 1, dashboard.Summary.Overdue)
	require.InDelta(t, 100.0/3.0, dashboard.Summary.CompletionRate, 0.0001)

	require.Len(t, dashboard.Subjects, 2)
	require.Equal(t, "Mathematics", dashboard.Subjects[0].Subject)
	require.Equal(t, "Science", dashboard.Subjects[1].Subject)
	require.Equal(t, 1, dashboard.Subjects[0].GradedCount)
	require.Equal(t, 1, dashboard.Subjects[1].PendingCount)

	require.Len(t, dashboard.RecentSubmissions, 2)
}

func TestBuildStudentDashboardLimitsRecentSubmissions(t *testing.T) {
	now := time.Now()
	var submissions []models.Submission
	for i := 1; i <= 8; i++ {
		submissions = append(submissions, models.Submission{
			ID:           uint(i),
			AssignmentID: uint(i),
			Status:       models.SubmissionStatusSubmitted,
			Assignment:   models.Assignment{ID: uint(i), Subject: "Science", TotalMarks: 10, DueDate: now.Add(time.Hour)},
		})
	}

	dashboard := buildStudentDashboard(nil, submissions, now)
	require.Len(t, dashboard.RecentSubmissions, 5)
	require.Zero(t, dashboard.Summary.CompletionRate)
}
