package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
)

// MembershipRepository resolves class membership rows supplied by the
// membership collaborator.
type MembershipRepository interface {
	Get(ctx context.Context, classID, userID uint) (models.ClassMembership, error)
	ListByClass(ctx context.Context, classID uint) ([]models.ClassMembership, error)
}

type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository instantiates the repository.
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Get(ctx context.Context, classID, userID uint) (models.ClassMembership, error) {
	var membership models.ClassMembership
	if err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Where("user_id = ?", userID).
		First(&membership).Error; err != nil {
		return models.ClassMembership{}, err
	}

	return membership, nil
}

func (r *membershipRepository) ListByClass(ctx context.Context, classID uint) ([]models.ClassMembership, error) {
	var memberships []models.ClassMembership
	if err := r.db.WithContext(ctx).Model(&models.ClassMembership{}).
		Preload("User").
		Where("class_id = ?", classID).
		Order("joined_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}

	return memberships, nil
}
