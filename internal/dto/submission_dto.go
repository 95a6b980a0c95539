package dto

import (
	"encoding/json"
	"time"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
)

// AnswerInput is one tagged answer in a submission: the declared type must
// match the stored question type, which the submission service verifies
// before any write.
type AnswerInput struct {
	QuestionID uint   `json:"question_id" validate:"required,gt=0"`
	Type       string `json:"type" validate:"required,oneof=MCQ Essay"`
	Answer     string `json:"answer" validate:"required"`
}

// SubmitTaskRequest describes the payload for submitting an answer set.
type SubmitTaskRequest struct {
	Answers []AnswerInput `json:"answers" validate:"required,min=1,dive"`
}

// GradeSubmissionRequest carries the final score for a submission. The total
// is trusted to already combine the auto-graded MCQ subtotal with the
// teacher-entered essay subtotal.
type GradeSubmissionRequest struct {
	TotalPoints int `json:"total_points" validate:"gte=0"`
}

// TaskLite summarizes a task in submission responses.
type TaskLite struct {
	ID          uint      `json:"id"`
	ClassID     uint      `json:"class_id"`
	Title       string    `json:"title"`
	Deadline    time.Time `json:"deadline"`
	TotalPoints int       `json:"total_points"`
	MaxAttempts int       `json:"max_attempts"`
}

// UserLite summarizes a user without exposing profile internals.
type UserLite struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID            uint          `json:"id"`
	TaskID        uint          `json:"task_id"`
	UserID        uint          `json:"user_id"`
	AttemptNumber int           `json:"attempt_number"`
	Answers       []AnswerInput `json:"answers"`
	SubmittedAt   time.Time     `json:"submitted_at"`
	PointsEarned  *int          `json:"points_earned"`
	IsGraded      bool          `json:"is_graded"`
	GradedBy      *uint         `json:"graded_by"`
	Task          TaskLite      `json:"task"`
	User          UserLite      `json:"user"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:            model.ID,
		TaskID:        model.TaskID,
		UserID:        model.UserID,
		AttemptNumber: model.AttemptNumber,
		SubmittedAt:   model.SubmittedAt,
		PointsEarned:  model.PointsEarned,
		IsGraded:      model.IsGraded,
		GradedBy:      model.GradedBy,
	}

	var answers []AnswerInput
	if err := json.Unmarshal(model.Answers, &answers); err == nil {
		response.Answers = answers
	}

	if model.Task.ID != 0 {
		response.Task = TaskLite{
			ID:          model.Task.ID,
			ClassID:     model.Task.ClassID,
			Title:       model.Task.Title,
			Deadline:    model.Task.Deadline,
			TotalPoints: model.Task.TotalPoints,
			MaxAttempts: model.Task.MaxAttempts,
		}
	}

	if model.User.ID != 0 {
		response.User = UserLite{
			ID:       model.User.ID,
			Username: model.User.Username,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
