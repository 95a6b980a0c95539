package dto

import (
	"time"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
)

// QuestionInput describes one question inside a task upsert payload. Questions
// carrying an id update the stored row; questions without one are inserted.
// Choices and CorrectAnswer apply to MCQ questions, Guidelines to essays; the
// cross-field rules are enforced by the task service.
type QuestionInput struct {
	ID            uint     `json:"id"`
	Type          string   `json:"type" validate:"required,oneof=MCQ Essay"`
	Text          string   `json:"text" validate:"required"`
	Points        int      `json:"points" validate:"required,gte=1"`
	Choices       []string `json:"choices,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Guidelines    string   `json:"guidelines,omitempty"`
}

// TaskUpsertRequest describes the payload for creating or editing a task with
// its full question set. Total points are derived server-side and never
// accepted from clients.
type TaskUpsertRequest struct {
	Title       string          `json:"title" validate:"required,min=3"`
	Description string          `json:"description"`
	StartDate   string          `json:"start_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Deadline    string          `json:"deadline" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	MaxAttempts int             `json:"max_attempts" validate:"required,gte=1"`
	Questions   []QuestionInput `json:"questions" validate:"required,min=1,dive"`
}

// MCQView exposes the choice list without the answer key. Answer keys are only
// released through the answers endpoint, which gates student access.
type MCQView struct {
	Choices []string `json:"choices"`
}

// EssayView exposes essay grading guidelines.
type EssayView struct {
	Guidelines string `json:"guidelines"`
}

// QuestionResponse serializes a question with its variant payload.
type QuestionResponse struct {
	ID     uint       `json:"id"`
	Type   string     `json:"type"`
	Text   string     `json:"text"`
	Points int        `json:"points"`
	MCQ    *MCQView   `json:"mcq,omitempty"`
	Essay  *EssayView `json:"essay,omitempty"`
}

// TaskResponse is the hydrated task representation returned to API clients.
type TaskResponse struct {
	ID          uint               `json:"id"`
	ClassID     uint               `json:"class_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	StartDate   time.Time          `json:"start_date"`
	Deadline    time.Time          `json:"deadline"`
	TotalPoints int                `json:"total_points"`
	MaxAttempts int                `json:"max_attempts"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Questions   []QuestionResponse `json:"questions"`
}

// NewQuestionResponse converts a question model into a DTO.
func NewQuestionResponse(model models.Question) QuestionResponse {
	response := QuestionResponse{
		ID:     model.ID,
		Type:   model.Type,
		Text:   model.Text,
		Points: model.Points,
	}

	if model.MCQ != nil {
		choices, err := model.MCQ.ChoiceList()
		if err != nil {
			choices = nil
		}
		response.MCQ = &MCQView{Choices: choices}
	}

	if model.Essay != nil {
		response.Essay = &EssayView{Guidelines: model.Essay.Guidelines}
	}

	return response
}

// NewTaskResponse converts a task model into a DTO.
func NewTaskResponse(model models.Task) TaskResponse {
	questions := make([]QuestionResponse, 0, len(model.Questions))
	for _, question := range model.Questions {
		questions = append(questions, NewQuestionResponse(question))
	}

	return TaskResponse{
		ID:          model.ID,
		ClassID:     model.ClassID,
		Title:       model.Title,
		Description: model.Description,
		StartDate:   model.StartDate,
		Deadline:    model.Deadline,
		TotalPoints: model.TotalPoints,
		MaxAttempts: model.MaxAttempts,
		Status:      model.Status,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		Questions:   questions,
	}
}

// NewTaskResponseSlice converts a slice of task models into DTOs.
func NewTaskResponseSlice(tasks []models.Task) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, NewTaskResponse(task))
	}

	return responses
}

// AnswerKeyEntry carries the reference material for one question: the correct
// answer for MCQs or the grading guidelines for essays.
type AnswerKeyEntry struct {
	QuestionID    uint   `json:"question_id"`
	Type          string `json:"type"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
	Guidelines    string `json:"guidelines,omitempty"`
}
