package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
)

// ClassRepository defines data operations for classes and the membership
// writes that must travel with them.
type ClassRepository interface {
	GetByID(ctx context.Context, id uint) (models.Class, error)
	GetByCode(ctx context.Context, code string) (models.Class, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Class, error)
	CreateWithOwner(ctx context.Context, class *models.Class, ownerID uint, now time.Time) error
	Join(ctx context.Context, classID, userID uint, now time.Time) error
	Unenroll(ctx context.Context, classID, userID uint) error
	Dissolve(ctx context.Context, classID uint) error
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository instantiates the repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Class{}).
		Preload("Members").
		Preload("Members.User")
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.baseQuery(ctx).First(&class, id).Error; err != nil {
		return models.Class{}, err
	}

	return class, nil
}

func (r *classRepository) GetByCode(ctx context.Context, code string) (models.Class, error) {
	var class models.Class
	if err := r.baseQuery(ctx).Where("code = ?", code).First(&class).Error; err != nil {
		return models.Class{}, err
	}

	return class, nil
}

func (r *classRepository) ListForUser(ctx context.Context, userID uint) ([]models.Class, error) {
	var classes []models.Class
	if err := r.baseQuery(ctx).
		Joins("JOIN class_memberships ON class_memberships.class_id = classes.id").
		Where("class_memberships.user_id = ?", userID).
		Order("classes.created_at DESC").
		Find(&classes).Error; err != nil {
		return nil, err
	}

	return classes, nil
}

// CreateWithOwner persists the class, the owner's teacher membership and a
// zero-point leaderboard seed in one transaction.
func (r *classRepository) CreateWithOwner(ctx context.Context, class *models.Class, ownerID uint, now time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members", "Tasks", "Leaderboard").Create(class).Error; err != nil {
			return err
		}

		membership := models.ClassMembership{
			ClassID: class.ID,
			UserID:  ownerID,
			Role:    models.RoleTeacher,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}

		return seedLeaderboardEntry(tx, class.ID, ownerID, now)
	})

	return translateError(err)
}

// Join adds a student membership and seeds the leaderboard entry in one
// transaction. A duplicate membership trips the composite primary key and
// surfaces as ErrConflict.
func (r *classRepository) Join(ctx context.Context, classID, userID uint, now time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		membership := models.ClassMembership{
			ClassID: classID,
			UserID:  userID,
			Role:    models.RoleStudent,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}

		return seedLeaderboardEntry(tx, classID, userID, now)
	})

	return translateError(err)
}

// Unenroll removes the membership together with its leaderboard entry.
func (r *classRepository) Unenroll(ctx context.Context, classID, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("class_id = ?", classID).Where("user_id = ?", userID).
			Delete(&models.ClassMembership{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Where("class_id = ?", classID).Where("user_id = ?", userID).
			Delete(&models.LeaderboardEntry{}).Error
	})
}

// Dissolve deletes the class and everything hanging off it: submissions,
// questions with variants, tasks, leaderboard entries and memberships.
func (r *classRepository) Dissolve(ctx context.Context, classID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var class models.Class
		if err := tx.First(&class, classID).Error; err != nil {
			return err
		}

		var tasks []models.Task
		if err := tx.Where("class_id = ?", classID).Find(&tasks).Error; err != nil {
			return err
		}

		for _, task := range tasks {
			if err := tx.Where("task_id = ?", task.ID).Delete(&models.Submission{}).Error; err != nil {
				return err
			}
			if err := deleteQuestionsExcept(tx, task.ID, nil); err != nil {
				return err
			}
		}

		if err := tx.Where("class_id = ?", classID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_id = ?", classID).Delete(&models.LeaderboardEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_id = ?", classID).Delete(&models.ClassMembership{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Class{}, classID).Error
	})
}
