package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
)

// TaskRepository defines data operations for tasks and their question sets.
type TaskRepository interface {
	GetByID(ctx context.Context, id uint) (models.Task, error)
	ListByClass(ctx context.Context, classID uint) ([]models.Task, error)
	UpsertWithQuestions(ctx context.Context, task *models.Task, questions []models.Question) error
	Delete(ctx context.Context, id uint) error
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository instantiates the repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id ASC")
		}).
		Preload("Questions.MCQ").
		Preload("Questions.Essay")
}

func (r *taskRepository) GetByID(ctx context.Context, id uint) (models.Task, error) {
	var task models.Task
	if err := r.baseQuery(ctx).First(&task, id).Error; err != nil {
		return models.Task{}, err
	}

	return task, nil
}

func (r *taskRepository) ListByClass(ctx context.Context, classID uint) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.baseQuery(ctx).
		Where("class_id = ?", classID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}

// UpsertWithQuestions writes the task row and reconciles its question set in a
// single transaction: supplied questions without an id are inserted, questions
// matching a stored id are updated (including a destructive variant swap when
// the type changed), and stored questions absent from the supplied list are
// deleted together with their variants. Any failure rolls back the whole edit.
func (r *taskRepository) UpsertWithQuestions(ctx context.Context, task *models.Task, questions []models.Question) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Questions").Save(task).Error; err != nil {
			return err
		}

		var stored []models.Question
		if err := tx.Where("task_id = ?", task.ID).Find(&stored).Error; err != nil {
			return err
		}

		storedIDs := make(map[uint]struct{}, len(stored))
		for _, q := range stored {
			storedIDs[q.ID] = struct{}{}
		}

		keep := make([]uint, 0, len(questions))
		for i := range questions {
			question := &questions[i]
			question.TaskID = task.ID

			if _, exists := storedIDs[question.ID]; !exists {
				question.ID = 0
			}

			if question.ID == 0 {
				if err := tx.Create(question).Error; err != nil {
					return err
				}
				keep = append(keep, question.ID)
				continue
			}

			updates := map[string]interface{}{
				"type":   question.Type,
				"text":   question.Text,
				"points": question.Points,
			}
			if err := tx.Model(&models.Question{}).Where("id = ?", question.ID).Updates(updates).Error; err != nil {
				return err
			}

			if err := reconcileVariant(tx, question); err != nil {
				return err
			}
			keep = append(keep, question.ID)
		}

		return deleteQuestionsExcept(tx, task.ID, keep)
	})

	if err != nil {
		return translateError(err)
	}
	return nil
}

// reconcileVariant upserts the variant matching the question type and removes
// the opposite kind so a type change never leaves a stale variant behind.
func reconcileVariant(tx *gorm.DB, question *models.Question) error {
	switch question.Type {
	case models.QuestionTypeMCQ:
		variant := question.MCQ
		variant.QuestionID = question.ID
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"choices", "correct_answer"}),
		}).Create(variant).Error; err != nil {
			return err
		}
		return tx.Where("question_id = ?", question.ID).Delete(&models.EssayQuestion{}).Error
	default:
		variant := question.Essay
		variant.QuestionID = question.ID
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"guidelines"}),
		}).Create(variant).Error; err != nil {
			return err
		}
		return tx.Where("question_id = ?", question.ID).Delete(&models.MCQQuestion{}).Error
	}
}

func deleteQuestionsExcept(tx *gorm.DB, taskID uint, keep []uint) error {
	query := tx.Where("task_id = ?", taskID)
	if len(keep) > 0 {
		query = query.Where("id NOT IN ?", keep)
	}

	var removed []models.Question
	if err := query.Find(&removed).Error; err != nil {
		return err
	}
	if len(removed) == 0 {
		return nil
	}

	removedIDs := make([]uint, 0, len(removed))
	for _, q := range removed {
		removedIDs = append(removedIDs, q.ID)
	}

	if err := tx.Where("question_id IN ?", removedIDs).Delete(&models.MCQQuestion{}).Error; err != nil {
		return err
	}
	if err := tx.Where("question_id IN ?", removedIDs).Delete(&models.EssayQuestion{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", removedIDs).Delete(&models.Question{}).Error
}

// Delete removes the task with its questions, variants and submissions.
func (r *taskRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, id).Error; err != nil {
			return err
		}

		if err := tx.Where("task_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		if err := deleteQuestionsExcept(tx, id, nil); err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, id).Error
	})
}
