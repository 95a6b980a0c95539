package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/dto"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/repository"
)

// ErrClassNotFound indicates no class matches the given id or join code.
var ErrClassNotFound = errors.New("class not found")

// ErrAlreadyMember indicates the user already belongs to the class.
var ErrAlreadyMember = errors.New("already a class member")

// ClassService manages classes and the membership writes that seed the
// leaderboard.
type ClassService interface {
	Create(ctx context.Context, payload dto.ClassCreateRequest, ownerID uint) (dto.ClassResponse, error)
	Join(ctx context.Context, payload dto.ClassJoinRequest, userID uint) (dto.ClassResponse, error)
	Unenroll(ctx context.Context, classID, userID uint) error
	Dissolve(ctx context.Context, classID, actorID uint) error
	ListForUser(ctx context.Context, userID uint) ([]dto.ClassResponse, error)
}

type classService struct {
	classes     repository.ClassRepository
	memberships repository.MembershipRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewClassService builds a new class service.
func NewClassService(classes repository.ClassRepository, memberships repository.MembershipRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) ClassService {
	return &classService{
		classes:     classes,
		memberships: memberships,
		validator:   validate,
		activity:    activity,
		logger:      logger.With().Str("component", "class_service").Logger(),
		now:         time.Now,
	}
}

// Create persists the class and seeds the owner's teacher membership plus a
// zero-point leaderboard entry in one transaction. Join-code collisions are
// retried with a fresh code.
func (s *classService) Create(ctx context.Context, payload dto.ClassCreateRequest, ownerID uint) (dto.ClassResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassResponse{}, err
	}

	class := models.Class{
		Name:      payload.Name,
		Section:   payload.Section,
		Subject:   payload.Subject,
		Room:      payload.Room,
		CreatedBy: ownerID,
	}

	err := withConflictRetry(func() error {
		class.ID = 0
		class.Code = generateClassCode(payload.Name)
		return s.classes.CreateWithOwner(ctx, &class, ownerID, s.now())
	})
	if err != nil {
		return dto.ClassResponse{}, err
	}

	created, err := s.classes.GetByID(ctx, class.ID)
	if err != nil {
		return dto.ClassResponse{}, err
	}

	s.recordActivity(ctx, ownerID, models.RoleTeacher, "class.created", created.ID, map[string]interface{}{"code": created.Code})
	s.logger.Info().Uint("class_id", created.ID).Str("code", created.Code).Msg("class created")

	return dto.NewClassResponse(created), nil
}

// Join enrolls a student by join code and seeds their leaderboard entry at
// zero in the same transaction.
func (s *classService) Join(ctx context.Context, payload dto.ClassJoinRequest, userID uint) (dto.ClassResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassResponse{}, err
	}

	class, err := s.classes.GetByCode(ctx, strings.TrimSpace(payload.Code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassResponse{}, ErrClassNotFound
		}
		return dto.ClassResponse{}, err
	}

	if _, err := s.memberships.Get(ctx, class.ID, userID); err == nil {
		return dto.ClassResponse{}, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ClassResponse{}, err
	}

	if err := s.classes.Join(ctx, class.ID, userID, s.now()); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return dto.ClassResponse{}, ErrAlreadyMember
		}
		return dto.ClassResponse{}, err
	}

	joined, err := s.classes.GetByID(ctx, class.ID)
	if err != nil {
		return dto.ClassResponse{}, err
	}

	s.recordActivity(ctx, userID, models.RoleStudent, "class.joined", class.ID, nil)
	s.logger.Info().Uint("class_id", class.ID).Uint("user_id", userID).Msg("user joined class")

	return dto.NewClassResponse(joined), nil
}

// Unenroll removes the user's membership and leaderboard entry together.
func (s *classService) Unenroll(ctx context.Context, classID, userID uint) error {
	if err := s.classes.Unenroll(ctx, classID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotMember
		}
		return err
	}

	s.logger.Info().Uint("class_id", classID).Uint("user_id", userID).Msg("user unenrolled")
	return nil
}

// Dissolve deletes the class and everything owned by it. Teacher-only.
func (s *classService) Dissolve(ctx context.Context, classID, actorID uint) error {
	if err := requireTeacher(ctx, s.memberships, classID, actorID); err != nil {
		return err
	}

	if err := s.classes.Dissolve(ctx, classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassNotFound
		}
		return err
	}

	s.logger.Info().Uint("class_id", classID).Msg("class dissolved")
	return nil
}

func (s *classService) ListForUser(ctx context.Context, userID uint) ([]dto.ClassResponse, error) {
	classes, err := s.classes.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return dto.NewClassResponseSlice(classes), nil
}

// generateClassCode derives a short join code from the class name plus random
// entropy, e.g. "MA-7F3A9".
func generateClassCode(name string) string {
	prefix := strings.ToUpper(strings.TrimSpace(name))
	prefix = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, prefix)
	if len(prefix) < 2 {
		prefix = "CL"
	}
	prefix = prefix[:2]

	entropy := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:5]
	return fmt.Sprintf("%s-%s", prefix, entropy)
}

func (s *classService) recordActivity(ctx context.Context, actorID uint, role, action string, classID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := classID
	_, _ = s.activity.Record(ctx, ActivityEntry{
		ActorID:    actorID,
		ActorRole:  role,
		Action:     action,
		EntityType: "class",
		EntityID:   &id,
		Metadata:   metadata,
	})
}
