package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/repository"
	"github.com/gradeflow/gradeflow-api/pkg/grader"
)

type fakeSubmissionRepo struct {
	submissions map[uint]models.Submission
	updates     int
	updateErr   error
}

func newFakeSubmissionRepo(submissions ...models.Submission) *fakeSubmissionRepo {
	repo := &fakeSubmissionRepo{submissions: map[uint]models.Submission{}}
	for _, submission := range submissions {
		repo.submissions[submission.ID] = submission
	}
	return repo
}

func (r *fakeSubmissionRepo) List(_ context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	var result []models.Submission
	for _, submission := range r.submissions {
		if filter.AssignmentID != nil && submission.AssignmentID != *filter.AssignmentID {
			continue
		}
		if filter.StudentID != nil && submission.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		result = append(result, submission)
	}
	return result, nil
}

func (r *fakeSubmissionRepo) GetByID(_ context.Context, id uint) (models.Submission, error) {
	submission, ok := r.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (r *fakeSubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	if submission.ID == 0 {
		submission.ID = uint(len(r.submissions) + 1)
	}
	for _, existing := range r.submissions {
		if existing.AssignmentID == submission.AssignmentID && existing.StudentID == submission.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	r.submissions[submission.ID] = *submission
	return nil
}

func (r *fakeSubmissionRepo) Update(_ context.Context, submission *models.Submission) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updates++
	r.submissions[submission.ID] = *submission
	return nil
}

type fakeGrader struct {
	result grader.Result
	err    error
	calls  int
	input  grader.Input
}

func (g *fakeGrader) Grade(_ context.Context, input grader.Input) (grader.Result, error) {
	g.calls++
	g.input = input
	return g.result, g.err
}

type fakeActivityRecorder struct {
	entries []ActivityEntry
	err     error
}

func (r *fakeActivityRecorder) Record(_ context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	if r.err != nil {
		return dto.ActivityResponse{}, r.err
	}
	r.entries = append(r.entries, entry)
	return dto.ActivityResponse{}, nil
}

func gradedTestSubmission(id uint, content string, totalMarks int) models.Submission {
	return models.Submission{
		ID:           id,
		AssignmentID: 10,
		StudentID:    20,
		Content:      content,
		Status:       models.SubmissionStatusSubmitted,
		SubmittedAt:  time.Now(),
		Assignment: models.Assignment{
			ID:         10,
			Title:      "Essay",
			Subject:    "English",
			TotalMarks: totalMarks,
		},
		Student: models.Student{ID: 20, Name: "Jane"},
	}
}

func newGradingServiceForTest(repo *fakeSubmissionRepo, ai, heuristic grader.Grader, activity ActivityRecorder) GradingService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewGradingService(repo, validate, ai, heuristic, activity, zerolog.New(io.Discard))
}

func TestGradeWithAIClampsAndPersists(t *testing.T) {
	repo := newFakeSubmissionRepo(gradedTestSubmission(1, "A thoughtful essay.", 20))
	ai := &fakeGrader{result: grader.Result{Marks: 25.6, Feedback: "Over-enthusiastic model"}}
	activity := &fakeActivityRecorder{}
	svc := newGradingServiceForTest(repo, ai, &fakeGrader{}, activity)

	result, err := svc.GradeWithAI(context.Background(), 1, ActivityActor{ID: 7, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, 20, result.Marks)
	require.Equal(t, 20, result.TotalMarks)
	require.Equal(t, float64(100), result.Percentage)
	require.Equal(t, "A+", result.Grade)
	require.Equal(t, "Over-enthusiastic model", result.Feedback)

	stored := repo.submissions[1]
	require.Equal(t, models.SubmissionStatusGraded, stored.Status)
	require.NotNil(t, stored.Marks)
	require.Equal(t, 20, *stored.Marks)
	require.NotNil(t, stored.GradedAt)
	require.Equal(t, 1, repo.updates)

	require.Len(t, activity.entries, 1)
	require.Equal(t, "submission.graded", activity.entries[0].Action)
	require.Equal(t, "ai", activity.entries[0].Metadata["method"])
}

func TestGradeWithAIRoundsFractionalMarks(t *testing.T) {
	repo := newFakeSubmissionRepo(gradedTestSubmission(1, "content", 20))
	ai := &fakeGrader{result: grader.Result{Marks: 17.5, Feedback: "ok"}}
	svc := newGradingServiceForTest(repo, ai, &fakeGrader{}, nil)

	result, err := svc.GradeWithAI(context.Background(), 1, ActivityActor{})
	require.NoError(t, err)
	require.Equal(t, 18, result.Marks)
	require.Equal(t, "A+", result.Grade)
}

func TestGradeWithAINegativeMarksClampToZero(t *testing.T) {
	repo := newFakeSubmissionRepo(gradedTestSubmission(1, "content", 20))
	ai := &fakeGrader{result: grader.Result{Marks: -4, Feedback: "harsh"}}
	svc := newGradingServiceForTest(repo, ai, &fakeGrader{}, nil)

	result, err := svc.GradeWithAI(context.Background(), 1, ActivityActor{})
	require.NoError(t, err)
	require.Zero(t, result.Marks)
	require.Equal(t, "F", result.Grade)
}

func TestGradeWithAIEmptyContentRejectedBeforeGraderCall(t *testing.T) {
	repo := newFakeSubmissionRepo(gradedTestSubmission(1, "   ", 20))
	ai := &fakeGrader{result: grader.Result{Marks: 10}}
	svc := newGradingServiceForTest(repo, ai, &fakeGrader{}, nil)

	_, err := svc.GradeWithAI(context.Background(), 1, ActivityActor{})
	require.ErrorIs(t, err, ErrEmptyContent)
	require.Zero(t, ai.calls)
	require.Zero(t, repo.updates)
}

func TestGradeWithAISubmissionNotFound(t *testing.T) {
	svc := newGradingServiceForTest(newFakeSubmissionRepo(), &fakeGrader{}, &fakeGrader{}, nil)

	_, err := svc.GradeWithAI(context.Background(), 99, ActivityActor{})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestGradeWithAIUpstreamFailureLeavesSubmissionUntouched(t *testing.T) {
	repo := newFakeSubmissionRepo(gradedTestSubmission(1, "content", 20))
	ai := &fakeGrader{err: grader.ErrUpstreamRateLimited}
	svc := newGradingServiceForTest(repo, ai, &fakeGrader{}, nil)

	_, err := svc.GradeWithAI(context.Background(), 1, ActivityActor{})
	require.ErrorIs(t, err, grader.ErrUpstreamRateLimited)
	require.Zero(t, repo.updates)

	stored := repo.submissions[1]
	require.Equal(t, models.SubmissionStatusSubmitted, stored.Status)
	require.Nil(t, stored.Marks)
}

func TestGradeWithAIRegradeOverwritesPreviousGrade(t *testing.T) {
	submission := gradedTestSubmission(1, "content", 20)
	previous := 5
	gradedAt := time.Now().Add(-time.Hour)
	submission.Marks = &previous
	submission.Status = models.SubmissionStatusGraded
	submission.GradedAt = &gradedAt

	repo := newFakeSubmissionRepo(submission)
	ai := &fakeGrader{result: grader.Result{Marks: 15, Feedback: "better"}}
	svc := newGradingServiceForTest(repo, ai, &fakeGrader{}, nil)

	result, err := svc.GradeWithAI(context.Background(), 1, ActivityActor{})
	require.NoError(t, err)
	require.Equal(t, 15, result.Marks)

	stored := repo.submissions[1]
	require.Equal(t, 15, *stored.Marks)
	require.Equal(t, "better", stored.Feedback)
	require.True(t, stored.GradedAt.After(gradedAt))
}

func TestGradeWithHeuristicUsesRuleBasedGrader(t *testing.T) {
	repo := newFakeSubmissionRepo(gradedTestSubmission(1, "content", 20))
	ai := &fakeGrader{result: grader.Result{Marks: 1}}
	heuristic := &fakeGrader{result: grader.Result{Marks: 12, Feedback: "rule-based"}}
	svc := newGradingServiceForTest(repo, ai, heuristic, nil)

	result, err := svc.GradeWithHeuristic(context.Background(), 1, ActivityActor{})
	require.NoError(t, err)
	require.Equal(t, 12, result.Marks)
	require.Equal(t, "rule-based", result.Feedback)
	require.Equal(t, 1, heuristic.calls)
	require.Zero(t, ai.calls)
	require.Equal(t, 20, heuristic.input.TotalMarks)
	require.Equal(t, "English", heuristic.input.Subject)
}

func TestGradeManualPersistsGrade(t *testing.T) {
	repo := newFakeSubmissionRepo(gradedTestSubmission(1, "content", 20))
	svc := newGradingServiceForTest(repo, &fakeGrader{}, &fakeGrader{}, nil)

	marks := 14
	response, err := svc.GradeManual(context.Background(), dto.ManualGradeRequest{
		SubmissionID: 1,
		Marks:        &marks,
		Feedback:     "  solid work  ",
		Status:       models.SubmissionStatusGraded,
	}, ActivityActor{ID: 3, Role: "teacher"})
	require.NoError(t, err)
	require.NotNil(t, response.Marks)
	require.Equal(t, 14, *response.Marks)
	require.Equal(t, models.SubmissionStatusGraded, response.Status)
	require.Equal(t, "solid work", response.Feedback)

	stored := repo.submissions[1]
	require.NotNil(t, stored.GradedAt)
}

func TestGradeManualRejectsOutOfRangeMarks(t *testing.T) {
	repo := newFakeSubmissionRepo(gradedTestSubmission(1, "content", 20))
	svc := newGradingServiceForTest(repo, &fakeGrader{}, &fakeGrader{}, nil)

	for _, marks := range []int{-1, 21, 100} {
		value := marks
		_, err := svc.GradeManual(context.Background(), dto.ManualGradeRequest{
			SubmissionID: 1,
			Marks:        &value,
			Status:       models.SubmissionStatusGraded,
		}, ActivityActor{})
		require.ErrorIs(t, err, ErrMarksOutOfRange)
	}

	require.Zero(t, repo.updates)
	stored := repo.submissions[1]
	require.Nil(t, stored.Marks)
	require.Equal(t, models.SubmissionStatusSubmitted, stored.Status)
}

func TestGradeManualUngradedStatusClearsGradedAt(t *testing.T) {
	submission := gradedTestSubmission(1, "content", 20)
	previous := 10
	gradedAt := time.Now()
	submission.Marks = &previous
	submission.Status = models.SubmissionStatusGraded
	submission.GradedAt = &gradedAt

	repo := newFakeSubmissionRepo(submission)
	svc := newGradingServiceForTest(repo, &fakeGrader{}, &fakeGrader{}, nil)

	marks := 10
	_, err := svc.GradeManual(context.Background(), dto.ManualGradeRequest{
		SubmissionID: 1,
		Marks:        &marks,
		Status:       models.SubmissionStatusPending,
	}, ActivityActor{})
	require.NoError(t, err)

	stored := repo.submissions[1]
	require.Nil(t, stored.GradedAt)
	require.Equal(t, models.SubmissionStatusPending, stored.Status)
}

func TestGradeManualValidationFailure(t *testing.T) {
	repo := newFakeSubmissionRepo(gradedTestSubmission(1, "content", 20))
	svc := newGradingServiceForTest(repo, &fakeGrader{}, &fakeGrader{}, nil)

	_, err := svc.GradeManual(context.Background(), dto.ManualGradeRequest{
		SubmissionID: 1,
		Status:       "graded",
	}, ActivityActor{})
	require.Error(t, err)

	var validationErrs validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrs))
}

func TestGradeRecordsActivityFailureIsNotFatal(t *testing.T) {
	repo := newFakeSubmissionRepo(gradedTestSubmission(1, "content", 20))
	ai := &fakeGrader{result: grader.Result{Marks: 10, Feedback: "ok"}}
	activity := &fakeActivityRecorder{err: errors.New("audit store down")}
	svc := newGradingServiceForTest(repo, ai, &fakeGrader{}, activity)

	result, err := svc.GradeWithAI(context.Background(), 1, ActivityActor{})
	require.NoError(t, err)
	require.Equal(t, 10, result.Marks)
}
