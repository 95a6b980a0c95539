package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/dto"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/repository"
)

// ErrSubmissionNotFound indicates the submission was not located.
var ErrSubmissionNotFound = errors.New("submission not found")

// LeaderboardInvalidator drops cached standings after a grade commits.
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context, classID uint)
}

// GradingService finalizes submission scores and keeps the leaderboard in
// step inside the same transaction.
type GradingService interface {
	Grade(ctx context.Context, submissionID uint, payload dto.GradeSubmissionRequest, graderID, classID uint) (dto.SubmissionResponse, error)
	GetAnswers(ctx context.Context, taskID, classID, userID uint) ([]dto.AnswerKeyEntry, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	tasks       repository.TaskRepository
	memberships repository.MembershipRepository
	validator   *validator.Validate
	leaderboard LeaderboardInvalidator
	activity    ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(submissions repository.SubmissionRepository, tasks repository.TaskRepository, memberships repository.MembershipRepository, validate *validator.Validate, leaderboard LeaderboardInvalidator, activity ActivityRecorder, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: submissions,
		tasks:       tasks,
		memberships: memberships,
		validator:   validate,
		leaderboard: leaderboard,
		activity:    activity,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

// Grade sets the submission's final score and applies the leaderboard delta
// in one transaction. The total is trusted to combine the auto-graded MCQ
// subtotal with the teacher-entered essay subtotal; re-grading applies only
// the difference to the leaderboard, so repeated calls never double-count.
func (s *gradingService) Grade(ctx context.Context, submissionID uint, payload dto.GradeSubmissionRequest, graderID, classID uint) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/ZechariaBarriga/google-classroom-inspired/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.finalize")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.grader_id", int64(graderID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	if err := requireTeacher(ctx, s.memberships, classID, graderID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unauthorized")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	if submission.Task.ID == 0 || submission.Task.ClassID != classID {
		return dto.SubmissionResponse{}, ErrSubmissionNotFound
	}

	var graded models.Submission
	err = withConflictRetry(func() error {
		var gradeErr error
		graded, gradeErr = s.submissions.Grade(ctx, submissionID, payload.TotalPoints, graderID, s.now())
		return gradeErr
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_failed")
		return dto.SubmissionResponse{}, err
	}

	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx, classID)
	}

	if s.activity != nil {
		id := graded.ID
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    graderID,
			ActorRole:  models.RoleTeacher,
			Action:     "submission.graded",
			EntityType: "submission",
			EntityID:   &id,
			Metadata: map[string]interface{}{
				"task_id":      graded.TaskID,
				"student_id":   graded.UserID,
				"total_points": payload.TotalPoints,
			},
		})
	}

	span.SetAttributes(attribute.Int("grading.total_points", payload.TotalPoints))

	s.logger.Info().
		Uint("submission_id", submissionID).
		Int("total_points", payload.TotalPoints).
		Uint("graded_by", graderID).
		Msg("submission graded")

	return dto.NewSubmissionResponse(graded), nil
}

// GetAnswers returns the reference material per question: the answer key for
// MCQs and the guidelines for essays. Teachers may read it unconditionally;
// students only after at least one recorded submission for the task.
func (s *gradingService) GetAnswers(ctx context.Context, taskID, classID, userID uint) ([]dto.AnswerKeyEntry, error) {
	membership, err := requireMember(ctx, s.memberships, classID, userID)
	if err != nil {
		return nil, err
	}

	if !membership.IsTeacher() {
		if _, err := s.submissions.GetByTaskAndUser(ctx, taskID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUnauthorized
			}
			return nil, err
		}
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if task.ClassID != classID {
		return nil, ErrTaskNotFound
	}

	entries := make([]dto.AnswerKeyEntry, 0, len(task.Questions))
	for _, question := range task.Questions {
		entry := dto.AnswerKeyEntry{
			QuestionID: question.ID,
			Type:       question.Type,
		}
		if question.MCQ != nil {
			entry.CorrectAnswer = question.MCQ.CorrectAnswer
		}
		if question.Essay != nil {
			entry.Guidelines = question.Essay.Guidelines
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
