package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission is a student's recorded answer set for a task. A single row
// exists per (task, user): later attempts overwrite the content and bump
// AttemptNumber, which never exceeds the task's MaxAttempts.
//
// AwardedPoints tracks the amount already applied to the leaderboard so a
// re-grade only applies the signed delta and never double-counts.
type Submission struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	TaskID        uint           `gorm:"not null;uniqueIndex:idx_submissions_task_user" json:"task_id"`
	UserID        uint           `gorm:"not null;uniqueIndex:idx_submissions_task_user" json:"user_id"`
	AttemptNumber int            `gorm:"not null" json:"attempt_number"`
	Answers       datatypes.JSON `gorm:"not null" json:"answers"`
	SubmittedAt   time.Time      `gorm:"not null" json:"submitted_at"`
	PointsEarned  *int           `json:"points_earned"`
	IsGraded      bool           `gorm:"not null;default:false" json:"is_graded"`
	GradedBy      *uint          `json:"graded_by"`
	AwardedPoints int            `gorm:"not null;default:0" json:"-"`

	Task Task `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"task,omitempty"`
	User User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user,omitempty"`
}
