package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/dto"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/repository"
)

// LeaderboardService serves ranked class standings. Ranking is computed at
// read time: total points descending, ties broken by ascending user id.
type LeaderboardService interface {
	LeaderboardInvalidator
	Get(ctx context.Context, classID, actorID uint) (dto.LeaderboardResponse, error)
}

type leaderboardService struct {
	entries     repository.LeaderboardRepository
	memberships repository.MembershipRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewLeaderboardService builds the leaderboard read side with an optional
// Redis cache.
func NewLeaderboardService(entries repository.LeaderboardRepository, memberships repository.MembershipRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) LeaderboardService {
	return &leaderboardService{
		entries:     entries,
		memberships: memberships,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "leaderboard_service").Logger(),
	}
}

func leaderboardCacheKey(classID uint) string {
	return fmt.Sprintf("leaderboard:class:%d", classID)
}

// Get returns the ranked standings for a class. Member-only.
func (s *leaderboardService) Get(ctx context.Context, classID, actorID uint) (dto.LeaderboardResponse, error) {
	if _, err := requireMember(ctx, s.memberships, classID, actorID); err != nil {
		return dto.LeaderboardResponse{}, err
	}

	cacheKey := leaderboardCacheKey(classID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.LeaderboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("class_id", classID).Msg("leaderboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read leaderboard cache")
		}
	}

	entries, err := s.entries.ListByClass(ctx, classID)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	response := dto.NewLeaderboardResponse(classID, entries)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store leaderboard cache")
			}
		}
	}

	return response, nil
}

// Invalidate drops the cached standings for a class. Called after a grade
// commits so readers never see stale totals past the TTL window.
func (s *leaderboardService) Invalidate(ctx context.Context, classID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, leaderboardCacheKey(classID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("class_id", classID).Msg("failed to invalidate leaderboard cache")
	}
}
