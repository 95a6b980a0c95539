package models

import "time"

// Task is a gradable unit owned by a class: a deadline, a bounded attempt
// budget and an ordered question set. TotalPoints is always derived from the
// question points, never supplied by clients.
type Task struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ClassID     uint      `gorm:"not null;index" json:"class_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`
	Deadline    time.Time `gorm:"not null" json:"deadline"`
	TotalPoints int       `gorm:"not null" json:"total_points"`
	MaxAttempts int       `gorm:"not null;default:1" json:"max_attempts"`
	Status      string    `gorm:"size:32;not null" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Questions []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions,omitempty"`
}

const (
	// TaskStatusPublished marks a task visible to students.
	TaskStatusPublished = "published"
)

// IsPastDeadline returns true when the reference time is after the deadline.
func (t Task) IsPastDeadline(reference time.Time) bool {
	return reference.After(t.Deadline)
}

// HasEssay reports whether the task contains at least one essay question.
// Tasks without essays are auto-graded on submission.
func (t Task) HasEssay() bool {
	for _, q := range t.Questions {
		if q.Type == QuestionTypeEssay {
			return true
		}
	}
	return false
}
