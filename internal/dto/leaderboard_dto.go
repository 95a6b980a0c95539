package dto

import (
	"time"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
)

// LeaderboardEntryResponse is one ranked row of a class leaderboard.
type LeaderboardEntryResponse struct {
	Rank        int       `json:"rank"`
	UserID      uint      `json:"user_id"`
	Username    string    `json:"username"`
	TotalPoints int       `json:"total_points"`
	LastUpdated time.Time `json:"last_updated"`
}

// LeaderboardResponse wraps the ranked standings of a class.
type LeaderboardResponse struct {
	ClassID uint                       `json:"class_id"`
	Entries []LeaderboardEntryResponse `json:"entries"`
}

// NewLeaderboardResponse converts ordered entries into a ranked DTO. Entries
// are expected pre-sorted by the repository; ranks are assigned positionally.
func NewLeaderboardResponse(classID uint, entries []models.LeaderboardEntry) LeaderboardResponse {
	response := LeaderboardResponse{
		ClassID: classID,
		Entries: make([]LeaderboardEntryResponse, 0, len(entries)),
	}

	for i, entry := range entries {
		response.Entries = append(response.Entries, LeaderboardEntryResponse{
			Rank:        i + 1,
			UserID:      entry.UserID,
			Username:    entry.User.Username,
			TotalPoints: entry.TotalPoints,
			LastUpdated: entry.LastUpdated,
		})
	}

	return response
}
