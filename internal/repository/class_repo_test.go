package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
)

func TestClassRepositoryCreateWithOwnerSeedsMembershipAndLeaderboard(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassRepository(db)

	class := models.Class{Name: "Algorithms", Code: "AL-0A1B2", CreatedBy: 1}
	require.NoError(t, repo.CreateWithOwner(context.Background(), &class, 1, time.Now()))
	require.NotZero(t, class.ID)

	var membership models.ClassMembership
	require.NoError(t, db.Where("class_id = ? AND user_id = ?", class.ID, uint(1)).First(&membership).Error)
	require.Equal(t, models.RoleTeacher, membership.Role)

	var entry models.LeaderboardEntry
	require.NoError(t, db.Where("class_id = ? AND user_id = ?", class.ID, uint(1)).First(&entry).Error)
	require.Zero(t, entry.TotalPoints)
}

func TestClassRepositoryJoinSeedsZeroPointEntry(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassRepository(db)

	class := models.Class{Name: "Algorithms", Code: "AL-0A1B2", CreatedBy: 1}
	require.NoError(t, repo.CreateWithOwner(context.Background(), &class, 1, time.Now()))

	require.NoError(t, repo.Join(context.Background(), class.ID, 2, time.Now()))

	var membership models.ClassMembership
	require.NoError(t, db.Where("class_id = ? AND user_id = ?", class.ID, uint(2)).First(&membership).Error)
	require.Equal(t, models.RoleStudent, membership.Role)

	var entry models.LeaderboardEntry
	require.NoError(t, db.Where("class_id = ? AND user_id = ?", class.ID, uint(2)).First(&entry).Error)
	require.Zero(t, entry.TotalPoints)

	err := repo.Join(context.Background(), class.ID, 2, time.Now())
	require.ErrorIs(t, err, ErrConflict)
}

func TestClassRepositoryUnenrollRemovesLeaderboardEntry(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassRepository(db)

	class := models.Class{Name: "Algorithms", Code: "AL-0A1B2", CreatedBy: 1}
	require.NoError(t, repo.CreateWithOwner(context.Background(), &class, 1, time.Now()))
	require.NoError(t, repo.Join(context.Background(), class.ID, 2, time.Now()))

	require.NoError(t, repo.Unenroll(context.Background(), class.ID, 2))

	var count int64
	require.NoError(t, db.Model(&models.ClassMembership{}).Where("class_id = ? AND user_id = ?", class.ID, uint(2)).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.LeaderboardEntry{}).Where("class_id = ? AND user_id = ?", class.ID, uint(2)).Count(&count).Error)
	require.Zero(t, count)

	err := repo.Unenroll(context.Background(), class.ID, 2)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestClassRepositoryDissolveRemovesEverything(t *testing.T) {
	db := setupTestDB(t)
	classes := NewClassRepository(db)
	tasks := NewTaskRepository(db)
	submissions := NewSubmissionRepository(db)

	class := models.Class{Name: "Algorithms", Code: "AL-0A1B2", CreatedBy: 1}
	require.NoError(t, classes.CreateWithOwner(context.Background(), &class, 1, time.Now()))
	require.NoError(t, classes.Join(context.Background(), class.ID, 2, time.Now()))

	task := newTestTask(class.ID)
	questions := []models.Question{
		{Type: models.QuestionTypeMCQ, Text: "Pick", Points: 2, MCQ: &models.MCQQuestion{Choices: mustChoices(t, "a", "b"), CorrectAnswer: "a"}},
	}
	require.NoError(t, tasks.UpsertWithQuestions(context.Background(), &task, questions))

	submission := newTestSubmission(task.ID, 2)
	require.NoError(t, submissions.Upsert(context.Background(), &submission, task.MaxAttempts))

	require.NoError(t, classes.Dissolve(context.Background(), class.ID))

	var count int64
	for _, model := range []interface{}{&models.Class{}, &models.Task{}, &models.Question{}, &models.Submission{}, &models.ClassMembership{}, &models.LeaderboardEntry{}} {
		require.NoError(t, db.Model(model).Count(&count).Error)
		require.Zero(t, count)
	}
}

func TestClassRepositoryListForUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassRepository(db)

	first := models.Class{Name: "Algorithms", Code: "AL-0A1B2", CreatedBy: 1}
	require.NoError(t, repo.CreateWithOwner(context.Background(), &first, 1, time.Now()))
	second := models.Class{Name: "Networks", Code: "NE-9F8E7", CreatedBy: 2}
	require.NoError(t, repo.CreateWithOwner(context.Background(), &second, 2, time.Now()))
	require.NoError(t, repo.Join(context.Background(), second.ID, 1, time.Now()))

	classes, err := repo.ListForUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, classes, 2)

	classes, err = repo.ListForUser(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	require.Equal(t, "Networks", classes[0].Name)
}
