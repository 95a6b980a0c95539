package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/dto"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/repository"
)

// ErrTaskNotFound indicates the requested task does not exist or does not
// belong to the given class.
var ErrTaskNotFound = errors.New("task not found")

// TaskService composes tasks: it upserts a task together with its full
// question set in one transaction and keeps derived fields consistent.
type TaskService interface {
	Upsert(ctx context.Context, actor ActivityActor, classID uint, taskID *uint, payload dto.TaskUpsertRequest) (dto.TaskResponse, error)
	Get(ctx context.Context, classID, taskID uint) (dto.TaskResponse, error)
	ListByClass(ctx context.Context, classID uint) ([]dto.TaskResponse, error)
	Delete(ctx context.Context, actor ActivityActor, classID, taskID uint) error
}

type taskService struct {
	tasks       repository.TaskRepository
	memberships repository.MembershipRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	activity    ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewTaskService builds a new task service.
func NewTaskService(tasks repository.TaskRepository, memberships repository.MembershipRepository, validate *validator.Validate, sanitizer *bluemonday.Policy, activity ActivityRecorder, logger zerolog.Logger) TaskService {
	return &taskService{
		tasks:       tasks,
		memberships: memberships,
		validator:   validate,
		sanitizer:   sanitizer,
		activity:    activity,
		logger:      logger.With().Str("component", "task_service").Logger(),
		now:         time.Now,
	}
}

// Upsert creates or edits a task with its question set. Only teachers of the
// class may call it; total points are recomputed from the supplied questions
// and every row touched by the edit commits or rolls back together.
func (s *taskService) Upsert(ctx context.Context, actor ActivityActor, classID uint, taskID *uint, payload dto.TaskUpsertRequest) (dto.TaskResponse, error) {
	if err := requireTeacher(ctx, s.memberships, classID, actor.ID); err != nil {
		return dto.TaskResponse{}, err
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.TaskResponse{}, err
	}

	startDate, err := time.Parse(time.RFC3339, payload.StartDate)
	if err != nil {
		return dto.TaskResponse{}, fmt.Errorf("%w: invalid start date", ErrValidation)
	}
	deadline, err := time.Parse(time.RFC3339, payload.Deadline)
	if err != nil {
		return dto.TaskResponse{}, fmt.Errorf("%w: invalid deadline", ErrValidation)
	}
	if !deadline.After(startDate) {
		return dto.TaskResponse{}, fmt.Errorf("%w: deadline must be after start date", ErrValidation)
	}

	questions, totalPoints, err := s.buildQuestions(payload.Questions)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	task := models.Task{
		ClassID:     classID,
		Title:       s.sanitizer.Sanitize(payload.Title),
		Description: s.sanitizer.Sanitize(payload.Description),
		StartDate:   startDate,
		Deadline:    deadline,
		TotalPoints: totalPoints,
		MaxAttempts: payload.MaxAttempts,
		Status:      models.TaskStatusPublished,
	}

	if taskID != nil {
		stored, err := s.loadClassTask(ctx, classID, *taskID)
		if err != nil {
			return dto.TaskResponse{}, err
		}
		task.ID = stored.ID
		task.Status = stored.Status
		task.CreatedAt = stored.CreatedAt
	}

	err = withConflictRetry(func() error {
		return s.tasks.UpsertWithQuestions(ctx, &task, questions)
	})
	if err != nil {
		return dto.TaskResponse{}, err
	}

	hydrated, err := s.tasks.GetByID(ctx, task.ID)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	action := "task.created"
	if taskID != nil {
		action = "task.updated"
	}
	s.recordActivity(ctx, actor, action, hydrated.ID, map[string]interface{}{
		"class_id":     classID,
		"total_points": hydrated.TotalPoints,
	})

	s.logger.Info().Uint("task_id", hydrated.ID).Uint("class_id", classID).Msg("task upserted")

	return dto.NewTaskResponse(hydrated), nil
}

func (s *taskService) Get(ctx context.Context, classID, taskID uint) (dto.TaskResponse, error) {
	task, err := s.loadClassTask(ctx, classID, taskID)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	return dto.NewTaskResponse(task), nil
}

func (s *taskService) ListByClass(ctx context.Context, classID uint) ([]dto.TaskResponse, error) {
	tasks, err := s.tasks.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	return dto.NewTaskResponseSlice(tasks), nil
}

// Delete removes the task with its questions, variants and submissions.
// Teacher-only.
func (s *taskService) Delete(ctx context.Context, actor ActivityActor, classID, taskID uint) error {
	if err := requireTeacher(ctx, s.memberships, classID, actor.ID); err != nil {
		return err
	}

	if _, err := s.loadClassTask(ctx, classID, taskID); err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return err
	}

	s.recordActivity(ctx, actor, "task.deleted", taskID, map[string]interface{}{"class_id": classID})
	s.logger.Info().Uint("task_id", taskID).Msg("task deleted")
	return nil
}

func (s *taskService) loadClassTask(ctx context.Context, classID, taskID uint) (models.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}
	if task.ClassID != classID {
		return models.Task{}, ErrTaskNotFound
	}

	return task, nil
}

// buildQuestions validates the supplied question inputs and converts them into
// models carrying the variant matching their type. The returned total is the
// sum of the question points.
func (s *taskService) buildQuestions(inputs []dto.QuestionInput) ([]models.Question, int, error) {
	questions := make([]models.Question, 0, len(inputs))
	total := 0

	for i, input := range inputs {
		question := models.Question{
			ID:     input.ID,
			Type:   input.Type,
			Text:   s.sanitizer.Sanitize(input.Text),
			Points: input.Points,
		}

		switch input.Type {
		case models.QuestionTypeMCQ:
			variant, err := buildMCQVariant(i, input)
			if err != nil {
				return nil, 0, err
			}
			question.MCQ = variant
		case models.QuestionTypeEssay:
			question.Essay = &models.EssayQuestion{
				Guidelines: s.sanitizer.Sanitize(input.Guidelines),
			}
		default:
			return nil, 0, fmt.Errorf("%w: question %d has unknown type %q", ErrValidation, i+1, input.Type)
		}

		total += input.Points
		questions = append(questions, question)
	}

	return questions, total, nil
}

func buildMCQVariant(index int, input dto.QuestionInput) (*models.MCQQuestion, error) {
	if len(input.Choices) < 2 {
		return nil, fmt.Errorf("%w: question %d needs at least two choices", ErrValidation, index+1)
	}

	seen := make(map[string]struct{}, len(input.Choices))
	for _, choice := range input.Choices {
		trimmed := strings.TrimSpace(choice)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: question %d has an empty choice", ErrValidation, index+1)
		}
		if _, dup := seen[trimmed]; dup {
			return nil, fmt.Errorf("%w: question %d has duplicate choices", ErrValidation, index+1)
		}
		seen[trimmed] = struct{}{}
	}

	if _, ok := seen[strings.TrimSpace(input.CorrectAnswer)]; !ok {
		return nil, fmt.Errorf("%w: question %d correct answer is not among the choices", ErrValidation, index+1)
	}

	choices, err := json.Marshal(input.Choices)
	if err != nil {
		return nil, err
	}

	return &models.MCQQuestion{
		Choices:       choices,
		CorrectAnswer: input.CorrectAnswer,
	}, nil
}

func (s *taskService) recordActivity(ctx context.Context, actor ActivityActor, action string, taskID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := taskID
	_, _ = s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "task",
		EntityID:   &id,
		Metadata:   metadata,
	})
}
