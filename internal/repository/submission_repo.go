package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
)

// SubmissionRepository defines data operations for submissions, including the
// two transactional writes of the engine: the attempt-bounded upsert and the
// grade-plus-leaderboard finalization.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByTaskAndUser(ctx context.Context, taskID, userID uint) (models.Submission, error)
	ListByTask(ctx context.Context, taskID uint) ([]models.Submission, error)
	ListByTaskAndUser(ctx context.Context, taskID, userID uint) ([]models.Submission, error)
	Upsert(ctx context.Context, submission *models.Submission, maxAttempts int) error
	Grade(ctx context.Context, submissionID uint, points int, graderID uint, now time.Time) (models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Task").
		Preload("User")
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByTaskAndUser(ctx context.Context, taskID, userID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("task_id = ?", taskID).
		Where("user_id = ?", userID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListByTask(ctx context.Context, taskID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("task_id = ?", taskID).
		Order("submitted_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListByTaskAndUser(ctx context.Context, taskID, userID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("task_id = ?", taskID).
		Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

// Upsert records an attempt for (task, user) atomically. The stored row is
// locked before the attempt count is read so two concurrent submits from the
// same user cannot both pass the attempt check; a first-attempt race instead
// trips the unique (task_id, user_id) index and surfaces as ErrConflict.
// The previous content is overwritten and AttemptNumber bumped; only the
// leaderboard-relevant AwardedPoints survives from the prior row.
func (r *submissionRepository) Upsert(ctx context.Context, submission *models.Submission, maxAttempts int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Submission
		err := lockForUpdate(tx).
			Where("task_id = ?", submission.TaskID).
			Where("user_id = ?", submission.UserID).
			First(&existing).Error

		switch {
		case err == nil:
			if existing.AttemptNumber >= maxAttempts {
				return ErrAttemptLimitReached
			}
			submission.ID = existing.ID
			submission.AttemptNumber = existing.AttemptNumber + 1
			submission.AwardedPoints = existing.AwardedPoints
		case errors.Is(err, gorm.ErrRecordNotFound):
			submission.AttemptNumber = 1
		default:
			return err
		}

		return tx.Save(submission).Error
	})

	if err != nil {
		return translateError(err)
	}
	return nil
}

// Grade finalizes a submission's score and applies the leaderboard delta in
// the same transaction. Only the difference between the new score and the
// previously awarded amount is added, so re-grading never double-counts.
func (r *submissionRepository) Grade(ctx context.Context, submissionID uint, points int, graderID uint, now time.Time) (models.Submission, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		if err := lockForUpdate(tx).First(&submission, submissionID).Error; err != nil {
			return err
		}

		var task models.Task
		if err := tx.First(&task, submission.TaskID).Error; err != nil {
			return err
		}

		delta := points - submission.AwardedPoints

		updates := map[string]interface{}{
			"points_earned":  points,
			"is_graded":      true,
			"graded_by":      graderID,
			"awarded_points": points,
		}
		if err := tx.Model(&models.Submission{}).Where("id = ?", submissionID).Updates(updates).Error; err != nil {
			return err
		}

		return applyLeaderboardDelta(tx, task.ClassID, submission.UserID, delta, now)
	})

	if err != nil {
		return models.Submission{}, translateError(err)
	}

	return r.GetByID(ctx, submissionID)
}

// lockForUpdate applies a row-level write lock where the dialect supports it.
// SQLite rejects FOR UPDATE and serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
