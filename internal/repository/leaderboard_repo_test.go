package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
)

func TestLeaderboardRepositoryListOrdersByPointsThenUserID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLeaderboardRepository(db)

	now := time.Now()
	entries := []models.LeaderboardEntry{
		{ClassID: 1, UserID: 3, TotalPoints: 10, LastUpdated: now},
		{ClassID: 1, UserID: 1, TotalPoints: 10, LastUpdated: now},
		{ClassID: 1, UserID: 2, TotalPoints: 20, LastUpdated: now},
		{ClassID: 2, UserID: 4, TotalPoints: 99, LastUpdated: now},
	}
	for i := range entries {
		require.NoError(t, db.Create(&entries[i]).Error)
	}

	listed, err := repo.ListByClass(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	require.EqualValues(t, 2, listed[0].UserID)
	require.EqualValues(t, 1, listed[1].UserID, "ties must break by ascending user id")
	require.EqualValues(t, 3, listed[2].UserID)
}
