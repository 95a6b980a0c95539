package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/dto"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/repository"
)

const (
	teacherID = uint(1)
	studentID = uint(2)
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.ClassMembership{},
		&models.Task{},
		&models.Question{},
		&models.MCQQuestion{},
		&models.EssayQuestion{},
		&models.Submission{},
		&models.LeaderboardEntry{},
		&models.ActivityLog{},
	))
	return db
}

// seedClassroom creates a class with user 1 as teacher and user 2 as student,
// both with zero-point leaderboard entries.
func seedClassroom(t *testing.T, db *gorm.DB) models.Class {
	t.Helper()
	teacher := models.User{ID: teacherID, Username: "ms-carter", Email: "carter@example.com"}
	student := models.User{ID: studentID, Username: "jamie", Email: "jamie@example.com"}
	require.NoError(t, db.Create(&teacher).Error)
	require.NoError(t, db.Create(&student).Error)

	classes := repository.NewClassRepository(db)
	class := models.Class{Name: "Algorithms", Code: "AL-0A1B2", CreatedBy: teacherID}
	require.NoError(t, classes.CreateWithOwner(context.Background(), &class, teacherID, time.Now()))
	require.NoError(t, classes.Join(context.Background(), class.ID, studentID, time.Now()))
	return class
}

func newTestTaskService(db *gorm.DB) TaskService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewTaskService(
		repository.NewTaskRepository(db),
		repository.NewMembershipRepository(db),
		validate,
		bluemonday.UGCPolicy(),
		NewActivityService(repository.NewActivityLogRepository(db), zerolog.Nop()),
		zerolog.Nop(),
	)
}

func taskPayload() dto.TaskUpsertRequest {
	now := time.Now().UTC().Truncate(time.Second)
	return dto.TaskUpsertRequest{
		Title:       "Sorting quiz",
		Description: "Covers merge sort and quicksort",
		StartDate:   now.Format(time.RFC3339),
		Deadline:    now.Add(48 * time.Hour).Format(time.RFC3339),
		MaxAttempts: 2,
		Questions: []dto.QuestionInput{
			{Type: models.QuestionTypeMCQ, Text: "Best case of quicksort?", Points: 2, Choices: []string{"O(n log n)", "O(n^2)"}, CorrectAnswer: "O(n log n)"},
			{Type: models.QuestionTypeMCQ, Text: "Merge sort is stable?", Points: 3, Choices: []string{"Yes", "No"}, CorrectAnswer: "Yes"},
			{Type: models.QuestionTypeEssay, Text: "Compare both algorithms.", Points: 5, Guidelines: "Mention memory usage"},
		},
	}
}

func TestTaskServiceUpsertComputesTotalAndHidesAnswerKey(t *testing.T) {
	db := newServiceDB(t)
	seedClassroom(t, db)
	svc := newTestTaskService(db)

	task, err := svc.Upsert(context.Background(), ActivityActor{ID: teacherID, Role: models.RoleTeacher}, 1, nil, taskPayload())
	require.NoError(t, err)
	require.Equal(t, 10, task.TotalPoints)
	require.Equal(t, models.TaskStatusPublished, task.Status)
	require.Len(t, task.Questions, 3)

	require.NotNil(t, task.Questions[0].MCQ)
	require.Equal(t, []string{"O(n log n)", "O(n^2)"}, task.Questions[0].MCQ.Choices)
	require.NotNil(t, task.Questions[2].Essay)

	var logged models.ActivityLog
	require.NoError(t, db.Where("action = ?", "task.created").First(&logged).Error)
	require.Equal(t, teacherID, logged.ActorID)
}

func TestTaskServiceUpsertRejectsNonTeacher(t *testing.T) {
	db := newServiceDB(t)
	seedClassroom(t, db)
	svc := newTestTaskService(db)

	_, err := svc.Upsert(context.Background(), ActivityActor{ID: studentID, Role: models.RoleStudent}, 1, nil, taskPayload())
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Upsert(context.Background(), ActivityActor{ID: 42}, 1, nil, taskPayload())
	require.ErrorIs(t, err, ErrUnauthorized)

	var count int64
	require.NoError(t, db.Model(&models.Task{}).Count(&count).Error)
	require.Zero(t, count, "rejected upserts must not write")
}

func TestTaskServiceUpsertValidatesQuestions(t *testing.T) {
	db := newServiceDB(t)
	seedClassroom(t, db)
	svc := newTestTaskService(db)
	actor := ActivityActor{ID: teacherID, Role: models.RoleTeacher}

	payload := taskPayload()
	payload.Questions[0].CorrectAnswer = "O(1)"
	_, err := svc.Upsert(context.Background(), actor, 1, nil, payload)
	require.ErrorIs(t, err, ErrValidation)

	payload = taskPayload()
	payload.Questions[0].Choices = []string{"only one"}
	_, err = svc.Upsert(context.Background(), actor, 1, nil, payload)
	require.ErrorIs(t, err, ErrValidation)

	payload = taskPayload()
	payload.Questions[1].Choices = []string{"Yes", "Yes"}
	_, err = svc.Upsert(context.Background(), actor, 1, nil, payload)
	require.ErrorIs(t, err, ErrValidation)

	payload = taskPayload()
	payload.Deadline = payload.StartDate
	_, err = svc.Upsert(context.Background(), actor, 1, nil, payload)
	require.ErrorIs(t, err, ErrValidation)

	var count int64
	require.NoError(t, db.Model(&models.Task{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestTaskServiceEditRecomputesTotalAndKeepsCreatedAt(t *testing.T) {
	db := newServiceDB(t)
	seedClassroom(t, db)
	svc := newTestTaskService(db)
	actor := ActivityActor{ID: teacherID, Role: models.RoleTeacher}

	created, err := svc.Upsert(context.Background(), actor, 1, nil, taskPayload())
	require.NoError(t, err)

	edit := taskPayload()
	edit.Questions = []dto.QuestionInput{
		{ID: created.Questions[0].ID, Type: models.QuestionTypeMCQ, Text: "Reworded", Points: 7, Choices: []string{"a", "b"}, CorrectAnswer: "b"},
	}
	updated, err := svc.Upsert(context.Background(), actor, 1, &created.ID, edit)
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, 7, updated.TotalPoints)
	require.Len(t, updated.Questions, 1)
	require.Equal(t, created.Questions[0].ID, updated.Questions[0].ID)
	require.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())
}

func TestTaskServiceEditRejectsTaskFromOtherClass(t *testing.T) {
	db := newServiceDB(t)
	seedClassroom(t, db)
	svc := newTestTaskService(db)
	actor := ActivityActor{ID: teacherID, Role: models.RoleTeacher}

	created, err := svc.Upsert(context.Background(), actor, 1, nil, taskPayload())
	require.NoError(t, err)

	other := models.Class{Name: "Networks", Code: "NE-9F8E7", CreatedBy: teacherID}
	classes := repository.NewClassRepository(db)
	require.NoError(t, classes.CreateWithOwner(context.Background(), &other, teacherID, time.Now()))

	_, err = svc.Upsert(context.Background(), actor, other.ID, &created.ID, taskPayload())
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskServiceDelete(t *testing.T) {
	db := newServiceDB(t)
	seedClassroom(t, db)
	svc := newTestTaskService(db)
	actor := ActivityActor{ID: teacherID, Role: models.RoleTeacher}

	created, err := svc.Upsert(context.Background(), actor, 1, nil, taskPayload())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), ActivityActor{ID: studentID, Role: models.RoleStudent}, 1, created.ID)
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, svc.Delete(context.Background(), actor, 1, created.ID))

	_, err = svc.Get(context.Background(), 1, created.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)
}
