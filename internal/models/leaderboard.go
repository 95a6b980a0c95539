package models

import "time"

// LeaderboardEntry is the per-class running point total for a user. Seeded at
// zero when the user joins the class and incremented only inside the
// transaction that finalizes a submission's score.
type LeaderboardEntry struct {
	ClassID     uint      `gorm:"primaryKey;autoIncrement:false" json:"class_id"`
	UserID      uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	TotalPoints int       `gorm:"not null;default:0" json:"total_points"`
	LastUpdated time.Time `gorm:"not null" json:"last_updated"`

	User User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user,omitempty"`
}
