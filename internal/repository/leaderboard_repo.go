package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
)

// LeaderboardRepository reads per-class standings. Writes happen as side
// effects of joining a class and of grade finalization, not through a
// standalone mutation call.
type LeaderboardRepository interface {
	ListByClass(ctx context.Context, classID uint) ([]models.LeaderboardEntry, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

// NewLeaderboardRepository instantiates the repository.
func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

// ListByClass returns entries ranked by total points descending; ties break
// deterministically by ascending user id.
func (r *leaderboardRepository) ListByClass(ctx context.Context, classID uint) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	if err := r.db.WithContext(ctx).Model(&models.LeaderboardEntry{}).
		Preload("User").
		Where("class_id = ?", classID).
		Order("total_points DESC").
		Order("user_id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

// applyLeaderboardDelta upserts the (class, user) entry inside the caller's
// transaction: created at the delta when absent, otherwise incremented
// atomically so concurrent grading of different submissions for the same user
// cannot lose updates.
func applyLeaderboardDelta(tx *gorm.DB, classID, userID uint, delta int, now time.Time) error {
	entry := models.LeaderboardEntry{
		ClassID:     classID,
		UserID:      userID,
		TotalPoints: delta,
		LastUpdated: now,
	}

	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "class_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_points": gorm.Expr("total_points + ?", delta),
			"last_updated": now,
		}),
	}).Create(&entry).Error
}

// seedLeaderboardEntry creates a zero-point entry for a new member inside the
// caller's transaction. Existing entries are left untouched.
func seedLeaderboardEntry(tx *gorm.DB, classID, userID uint, now time.Time) error {
	entry := models.LeaderboardEntry{
		ClassID:     classID,
		UserID:      userID,
		TotalPoints: 0,
		LastUpdated: now,
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "class_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&entry).Error
}
