package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/dto"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/repository"
)

// ErrDeadlinePassed indicates the task deadline is over, regardless of
// remaining attempts.
var ErrDeadlinePassed = errors.New("deadline passed")

// ErrAttemptsExhausted indicates the attempt budget for (task, user) is spent.
var ErrAttemptsExhausted = errors.New("attempts exhausted")

// SubmissionService accepts answer sets, enforces deadline and attempt policy
// and auto-grades tasks without essay questions.
type SubmissionService interface {
	Submit(ctx context.Context, taskID, userID uint, payload dto.SubmitTaskRequest) (dto.SubmissionResponse, error)
	ListForUser(ctx context.Context, taskID, userID uint) ([]dto.SubmissionResponse, error)
	ListForTask(ctx context.Context, classID, taskID uint, actor ActivityActor) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	tasks       repository.TaskRepository
	memberships repository.MembershipRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	activity    ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(submissions repository.SubmissionRepository, tasks repository.TaskRepository, memberships repository.MembershipRepository, validate *validator.Validate, sanitizer *bluemonday.Policy, activity ActivityRecorder, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		tasks:       tasks,
		memberships: memberships,
		validator:   validate,
		sanitizer:   sanitizer,
		activity:    activity,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// Submit records an attempt. Checks run in order: task exists, deadline not
// passed, user is a class member, attempts remain. Tasks without essay
// questions are scored immediately; tasks with essays stay ungraded until a
// teacher finalizes them. The leaderboard is never touched here: all point
// accrual routes through the grading engine.
func (s *submissionService) Submit(ctx context.Context, taskID, userID uint, payload dto.SubmitTaskRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrTaskNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	now := s.now()
	if task.IsPastDeadline(now) {
		return dto.SubmissionResponse{}, ErrDeadlinePassed
	}

	if _, err := requireMember(ctx, s.memberships, task.ClassID, userID); err != nil {
		return dto.SubmissionResponse{}, err
	}

	answers, err := s.checkAnswers(task, payload.Answers)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	encoded, err := json.Marshal(answers)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		TaskID:      taskID,
		UserID:      userID,
		Answers:     encoded,
		SubmittedAt: now,
	}

	if !task.HasEssay() {
		points := scoreMCQs(task, answers)
		submission.PointsEarned = &points
		submission.IsGraded = true
	}

	err = withConflictRetry(func() error {
		return s.submissions.Upsert(ctx, &submission, task.MaxAttempts)
	})
	if err != nil {
		if errors.Is(err, repository.ErrAttemptLimitReached) {
			return dto.SubmissionResponse{}, ErrAttemptsExhausted
		}
		return dto.SubmissionResponse{}, err
	}

	stored, err := s.submissions.GetByTaskAndUser(ctx, taskID, userID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if s.activity != nil {
		id := stored.ID
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    userID,
			ActorRole:  models.RoleStudent,
			Action:     "submission.created",
			EntityType: "submission",
			EntityID:   &id,
			Metadata: map[string]interface{}{
				"task_id": taskID,
				"attempt": stored.AttemptNumber,
			},
		})
	}

	s.logger.Info().
		Uint("task_id", taskID).
		Uint("user_id", userID).
		Int("attempt", stored.AttemptNumber).
		Msg("submission recorded")

	return dto.NewSubmissionResponse(stored), nil
}

// ListForUser returns the recorded submission of a user for a task. With the
// single-row-per-attempt storage only the latest attempt's content remains
// queryable.
func (s *submissionService) ListForUser(ctx context.Context, taskID, userID uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListByTaskAndUser(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

// ListForTask returns all submissions for a task. Teacher-only.
func (s *submissionService) ListForTask(ctx context.Context, classID, taskID uint, actor ActivityActor) ([]dto.SubmissionResponse, error) {
	if err := requireTeacher(ctx, s.memberships, classID, actor.ID); err != nil {
		return nil, err
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

	submissions, err := s.submissions.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

// checkAnswers verifies every answer references a stored question and that
// its declared type matches the question's type. Essay answers are sanitized
// before storage.
func (s *submissionService) checkAnswers(task models.Task, answers []dto.AnswerInput) ([]dto.AnswerInput, error) {
	byID := make(map[uint]models.Question, len(task.Questions))
	for _, question := range task.Questions {
		byID[question.ID] = question
	}

	checked := make([]dto.AnswerInput, 0, len(answers))
	for _, answer := range answers {
		question, ok := byID[answer.QuestionID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown question %d", ErrValidation, answer.QuestionID)
		}
		if answer.Type != question.Type {
			return nil, fmt.Errorf("%w: answer type %s does not match question %d", ErrValidation, answer.Type, answer.QuestionID)
		}

		if question.Type == models.QuestionTypeEssay {
			answer.Answer = s.sanitizer.Sanitize(answer.Answer)
		}
		checked = append(checked, answer)
	}

	return checked, nil
}

// scoreMCQs sums the points of exactly the questions whose submitted answer
// equals the stored answer key. Missing or wrong answers score zero.
func scoreMCQs(task models.Task, answers []dto.AnswerInput) int {
	byQuestion := make(map[uint]string, len(answers))
	for _, answer := range answers {
		byQuestion[answer.QuestionID] = answer.Answer
	}

	total := 0
	for _, question := range task.Questions {
		if question.Type != models.QuestionTypeMCQ || question.MCQ == nil {
			continue
		}
		if byQuestion[question.ID] == question.MCQ.CorrectAnswer {
			total += question.Points
		}
	}

	return total
}
