package models

import "time"

// User is an identity row referenced by memberships, submissions and the
// leaderboard. Credential handling lives in the auth collaborator; the API
// only consumes verified user ids from JWT claims.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:255;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
