package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

const (
	// QuestionTypeMCQ marks a multiple-choice question with a stored answer key.
	QuestionTypeMCQ = "MCQ"
	// QuestionTypeEssay marks a free-text question graded by a teacher.
	QuestionTypeEssay = "Essay"
)

// Question is one gradable item inside a task. Exactly one variant row
// (MCQ or Essay) attaches to it, and the variant kind must match Type.
// Switching the type deletes the old variant and creates the new one inside
// the same transaction as the question update.
type Question struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	TaskID uint   `gorm:"not null;index" json:"task_id"`
	Type   string `gorm:"size:16;not null" json:"type"`
	Text   string `gorm:"type:text;not null" json:"text"`
	Points int    `gorm:"not null" json:"points"`

	MCQ   *MCQQuestion   `gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"mcq,omitempty"`
	Essay *EssayQuestion `gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"essay,omitempty"`
}

// MCQQuestion stores the ordered choice list and the answer key for a
// multiple-choice question.
type MCQQuestion struct {
	QuestionID    uint           `gorm:"primaryKey;autoIncrement:false" json:"question_id"`
	Choices       datatypes.JSON `gorm:"not null" json:"choices"`
	CorrectAnswer string         `gorm:"size:512;not null" json:"correct_answer"`
}

// ChoiceList decodes the stored choices into an ordered string slice.
func (m MCQQuestion) ChoiceList() ([]string, error) {
	var choices []string
	if err := json.Unmarshal(m.Choices, &choices); err != nil {
		return nil, err
	}
	return choices, nil
}

// EssayQuestion stores optional grading guidelines for a free-text question.
type EssayQuestion struct {
	QuestionID uint   `gorm:"primaryKey;autoIncrement:false" json:"question_id"`
	Guidelines string `gorm:"type:text" json:"guidelines"`
}
