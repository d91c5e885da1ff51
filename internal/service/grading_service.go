package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/repository"
	"github.com/gradeflow/gradeflow-api/pkg/grader"
)

// ErrMarksOutOfRange indicates manual marks fall outside [0, totalMarks].
var ErrMarksOutOfRange = errors.New("marks must be between 0 and the assignment total")

// ErrEmptyContent indicates the submission has no text to grade.
var ErrEmptyContent = errors.New("submission has no content to grade")

// GradingService is the single entry point for all grading flows: the manual
// teacher path and the automatic paths backed by a grader implementation. The
// calling endpoint picks the grader; the service never inspects types.
type GradingService interface {
	GradeManual(ctx context.Context, payload dto.ManualGradeRequest, actor ActivityActor) (dto.SubmissionResponse, error)
	GradeWithAI(ctx context.Context, submissionID uint, actor ActivityActor) (dto.GradeResultResponse, error)
	GradeWithHeuristic(ctx context.Context, submissionID uint, actor ActivityActor) (dto.GradeResultResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	aiGrader    grader.Grader
	heuristic   grader.Grader
	activity    ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading orchestrator.
func NewGradingService(submissions repository.SubmissionRepository, validate *validator.Validate, aiGrader, heuristic grader.Grader, activity ActivityRecorder, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: submissions,
		validator:   validate,
		aiGrader:    aiGrader,
		heuristic:   heuristic,
		activity:    activity,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

// GradeManual validates and persists a teacher-entered grade. Marks outside
// the assignment range are rejected and the stored submission stays untouched.
func (s *gradingService) GradeManual(ctx context.Context, payload dto.ManualGradeRequest, actor ActivityActor) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/gradeflow/gradeflow-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.manual")
	span.SetAttributes(attribute.Int64("grading.submission_id", int64(payload.SubmissionID)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, payload.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	totalMarks := submission.Assignment.MarksDenominator()
	marks := *payload.Marks
	if marks < 0 || marks > totalMarks {
		span.SetStatus(codes.Error, "marks_out_of_range")
		return dto.SubmissionResponse{}, ErrMarksOutOfRange
	}

	submission.Marks = &marks
	submission.Feedback = strings.TrimSpace(payload.Feedback)
	submission.Status = payload.Status
	if payload.Status == models.SubmissionStatusGraded {
		gradedAt := s.now()
		submission.GradedAt = &gradedAt
	} else {
		submission.GradedAt = nil
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, fmt.Errorf("failed to persist grade: %w", err)
	}

	s.recordGrade(ctx, submission, actor, "manual")

	span.SetAttributes(attribute.Int("grading.marks", marks))

	return dto.NewSubmissionResponse(submission), nil
}

// GradeWithAI grades the submission through the remote AI grader.
func (s *gradingService) GradeWithAI(ctx context.Context, submissionID uint, actor ActivityActor) (dto.GradeResultResponse, error) {
	return s.autoGrade(ctx, submissionID, s.aiGrader, "ai", actor)
}

// GradeWithHeuristic grades the submission through the rule-based grader.
func (s *gradingService) GradeWithHeuristic(ctx context.Context, submissionID uint, actor ActivityActor) (dto.GradeResultResponse, error) {
	return s.autoGrade(ctx, submissionID, s.heuristic, "heuristic", actor)
}

// autoGrade loads the submission, runs the grader and persists the clamped
// result in a single write. Any failure before that write leaves the stored
// submission in its pre-grading state.
func (s *gradingService) autoGrade(ctx context.Context, submissionID uint, g grader.Grader, method string, actor ActivityActor) (dto.GradeResultResponse, error) {
	tracer := otel.Tracer("github.com/gradeflow/gradeflow-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.auto")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.String("grading.method", method),
	)
	defer span.End()

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.GradeResultResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.GradeResultResponse{}, err
	}

	if !submission.HasContent() {
		span.SetStatus(codes.Error, "empty_content")
		return dto.GradeResultResponse{}, ErrEmptyContent
	}

	totalMarks := submission.Assignment.MarksDenominator()
	input := grader.Input{
		AssignmentTitle: submission.Assignment.Title,
		Subject:         submission.Assignment.Subject,
		Description:     submission.Assignment.Description,
		PromptText:      submission.Assignment.TextContent,
		TotalMarks:      totalMarks,
		StudentName:     submission.Student.Name,
		Content:         submission.Content,
	}

	result, err := g.Grade(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grader_failed")
		return dto.GradeResultResponse{}, err
	}

	marks := grader.ClampMarks(result.Marks, totalMarks)
	percentage := grader.Percentage(marks, totalMarks)
	letter := grader.LetterGrade(percentage)

	submission.Marks = &marks
	submission.Feedback = result.Feedback
	submission.Status = models.SubmissionStatusGraded
	gradedAt := s.now()
	submission.GradedAt = &gradedAt

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.GradeResultResponse{}, fmt.Errorf("failed to persist grade: %w", err)
	}

	s.recordGrade(ctx, submission, actor, method)

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Str("method", method).
		Int("marks", marks).
		Float64("percentage", percentage).
		Msg("submission graded")

	span.SetAttributes(
		attribute.Int("grading.marks", marks),
		attribute.String("grading.letter", letter),
	)

	return dto.GradeResultResponse{
		Marks:      marks,
		TotalMarks: totalMarks,
		Percentage: percentage,
		Grade:      letter,
		Feedback:   result.Feedback,
		Submission: dto.NewSubmissionResponse(submission),
	}, nil
}

func (s *gradingService) recordGrade(ctx context.Context, submission models.Submission, actor ActivityActor, method string) {
	if s.activity == nil {
		return
	}

	metadata := map[string]interface{}{
		"submission_id": submission.ID,
		"assignment_id": submission.AssignmentID,
		"student_id":    submission.StudentID,
		"method":        method,
		"status":        submission.Status,
	}
	if submission.Marks != nil {
		metadata["marks"] = *submission.Marks
	}

	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "submission.graded",
		EntityType: "submission",
		EntityID:   &submission.ID,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to record grading activity")
	}
}
