package models

import "time"

// Class groups members, tasks and a leaderboard under a join code.
type Class struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Code      string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Section   string    `gorm:"size:64" json:"section"`
	Subject   string    `gorm:"size:128" json:"subject"`
	Room      string    `gorm:"size:64" json:"room"`
	CreatedBy uint      `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`

	Members     []ClassMembership  `json:"members,omitempty"`
	Tasks       []Task             `json:"tasks,omitempty"`
	Leaderboard []LeaderboardEntry `json:"leaderboard,omitempty"`
}

const (
	// RoleTeacher marks a member allowed to author tasks and grade submissions.
	RoleTeacher = "Teacher"
	// RoleStudent marks a member allowed to submit answers.
	RoleStudent = "Student"
)

// ClassMembership links a user to a class with a role. One row per (class, user).
type ClassMembership struct {
	ClassID  uint      `gorm:"primaryKey;autoIncrement:false" json:"class_id"`
	UserID   uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Role     string    `gorm:"size:16;not null" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user,omitempty"`
}

// IsTeacher reports whether the membership carries the teacher role.
func (m ClassMembership) IsTeacher() bool {
	return m.Role == RoleTeacher
}
