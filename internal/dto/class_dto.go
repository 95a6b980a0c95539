package dto

import (
	"time"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
)

// ClassCreateRequest describes the payload for creating a class.
type ClassCreateRequest struct {
	Name    string `json:"name" validate:"required,min=2"`
	Section string `json:"section"`
	Subject string `json:"subject"`
	Room    string `json:"room"`
}

// ClassJoinRequest carries the join code entered by a student.
type ClassJoinRequest struct {
	Code string `json:"code" validate:"required"`
}

// MemberResponse serializes one class membership.
type MemberResponse struct {
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// ClassResponse is the serialized class representation.
type ClassResponse struct {
	ID        uint             `json:"id"`
	Name      string           `json:"name"`
	Code      string           `json:"code"`
	Section   string           `json:"section"`
	Subject   string           `json:"subject"`
	Room      string           `json:"room"`
	CreatedBy uint             `json:"created_by"`
	CreatedAt time.Time        `json:"created_at"`
	Members   []MemberResponse `json:"members,omitempty"`
}

// NewClassResponse converts a class model into a DTO.
func NewClassResponse(model models.Class) ClassResponse {
	members := make([]MemberResponse, 0, len(model.Members))
	for _, member := range model.Members {
		members = append(members, MemberResponse{
			UserID:   member.UserID,
			Username: member.User.Username,
			Role:     member.Role,
			JoinedAt: member.JoinedAt,
		})
	}

	return ClassResponse{
		ID:        model.ID,
		Name:      model.Name,
		Code:      model.Code,
		Section:   model.Section,
		Subject:   model.Subject,
		Room:      model.Room,
		CreatedBy: model.CreatedBy,
		CreatedAt: model.CreatedAt,
		Members:   members,
	}
}

// NewClassResponseSlice converts class models into DTOs.
func NewClassResponseSlice(classes []models.Class) []ClassResponse {
	responses := make([]ClassResponse, 0, len(classes))
	for _, class := range classes {
		responses = append(responses, NewClassResponse(class))
	}

	return responses
}
