package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
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
	))
	return db
}

func mustChoices(t *testing.T, choices ...string) datatypes.JSON {
	t.Helper()
	encoded, err := json.Marshal(choices)
	require.NoError(t, err)
	return datatypes.JSON(encoded)
}

func newTestTask(classID uint) models.Task {
	now := time.Now()
	return models.Task{
		ClassID:     classID,
		Title:       "Binary Arithmetic",
		Description: "Quiz covering two's complement",
		StartDate:   now.Add(-time.Hour),
		Deadline:    now.Add(24 * time.Hour),
		MaxAttempts: 2,
		Status:      models.TaskStatusPublished,
	}
}

func TestTaskRepositoryUpsertCreatesQuestions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)

	task := newTestTask(1)
	task.TotalPoints = 8
	questions := []models.Question{
		{
			Type:   models.QuestionTypeMCQ,
			Text:   "What is 0b101 in decimal?",
			Points: 3,
			MCQ:    &models.MCQQuestion{Choices: mustChoices(t, "4", "5", "6"), CorrectAnswer: "5"},
		},
		{
			Type:   models.QuestionTypeEssay,
			Text:   "Explain overflow in signed addition.",
			Points: 5,
			Essay:  &models.EssayQuestion{Guidelines: "Mention the sign bit"},
		},
	}

	require.NoError(t, repo.UpsertWithQuestions(context.Background(), &task, questions))

	stored, err := repo.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	require.Len(t, stored.Questions, 2)
	require.Equal(t, 8, stored.TotalPoints)

	require.NotNil(t, stored.Questions[0].MCQ)
	require.Equal(t, "5", stored.Questions[0].MCQ.CorrectAnswer)
	choices, err := stored.Questions[0].MCQ.ChoiceList()
	require.NoError(t, err)
	require.Equal(t, []string{"4", "5", "6"}, choices)

	require.NotNil(t, stored.Questions[1].Essay)
	require.Equal(t, "Mention the sign bit", stored.Questions[1].Essay.Guidelines)
}

func TestTaskRepositoryUpsertReconcilesQuestionSet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)

	task := newTestTask(1)
	initial := []models.Question{
		{Type: models.QuestionTypeMCQ, Text: "First", Points: 2, MCQ: &models.MCQQuestion{Choices: mustChoices(t, "a", "b"), CorrectAnswer: "a"}},
		{Type: models.QuestionTypeMCQ, Text: "Second", Points: 2, MCQ: &models.MCQQuestion{Choices: mustChoices(t, "c", "d"), CorrectAnswer: "d"}},
	}
	require.NoError(t, repo.UpsertWithQuestions(context.Background(), &task, initial))

	stored, err := repo.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	require.Len(t, stored.Questions, 2)
	keptID := stored.Questions[0].ID
	droppedID := stored.Questions[1].ID

	edited := []models.Question{
		{ID: keptID, Type: models.QuestionTypeMCQ, Text: "First, reworded", Points: 4, MCQ: &models.MCQQuestion{Choices: mustChoices(t, "a", "b", "e"), CorrectAnswer: "b"}},
		{Type: models.QuestionTypeEssay, Text: "New essay", Points: 6, Essay: &models.EssayQuestion{Guidelines: "Full sentences"}},
	}
	require.NoError(t, repo.UpsertWithQuestions(context.Background(), &task, edited))

	stored, err = repo.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	require.Len(t, stored.Questions, 2)
	require.Equal(t, keptID, stored.Questions[0].ID)
	require.Equal(t, "First, reworded", stored.Questions[0].Text)
	require.Equal(t, "b", stored.Questions[0].MCQ.CorrectAnswer)

	var count int64
	require.NoError(t, db.Model(&models.Question{}).Where("id = ?", droppedID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.MCQQuestion{}).Where("question_id = ?", droppedID).Count(&count).Error)
	require.Zero(t, count)
}

func TestTaskRepositoryUpsertSwapsVariantOnTypeChange(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)

	task := newTestTask(1)
	initial := []models.Question{
		{Type: models.QuestionTypeMCQ, Text: "Pick one", Points: 3, MCQ: &models.MCQQuestion{Choices: mustChoices(t, "x", "y"), CorrectAnswer: "x"}},
	}
	require.NoError(t, repo.UpsertWithQuestions(context.Background(), &task, initial))

	stored, err := repo.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	questionID := stored.Questions[0].ID

	swapped := []models.Question{
		{ID: questionID, Type: models.QuestionTypeEssay, Text: "Now explain it", Points: 3, Essay: &models.EssayQuestion{Guidelines: "Two paragraphs"}},
	}
	require.NoError(t, repo.UpsertWithQuestions(context.Background(), &task, swapped))

	stored, err = repo.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	require.Len(t, stored.Questions, 1)
	require.Equal(t, questionID, stored.Questions[0].ID)
	require.Equal(t, models.QuestionTypeEssay, stored.Questions[0].Type)
	require.Nil(t, stored.Questions[0].MCQ)
	require.NotNil(t, stored.Questions[0].Essay)

	var count int64
	require.NoError(t, db.Model(&models.MCQQuestion{}).Where("question_id = ?", questionID).Count(&count).Error)
	require.Zero(t, count)
}

func TestTaskRepositoryDeleteRemovesChildren(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)

	task := newTestTask(1)
	questions := []models.Question{
		{Type: models.QuestionTypeMCQ, Text: "Pick one", Points: 3, MCQ: &models.MCQQuestion{Choices: mustChoices(t, "x", "y"), CorrectAnswer: "x"}},
	}
	require.NoError(t, repo.UpsertWithQuestions(context.Background(), &task, questions))

	submission := models.Submission{TaskID: task.ID, UserID: 7, AttemptNumber: 1, Answers: datatypes.JSON(`[]`), SubmittedAt: time.Now()}
	require.NoError(t, db.Create(&submission).Error)

	require.NoError(t, repo.Delete(context.Background(), task.ID))

	var count int64
	require.NoError(t, db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.Question{}).Where("task_id = ?", task.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.Submission{}).Where("task_id = ?", task.ID).Count(&count).Error)
	require.Zero(t, count)
}
