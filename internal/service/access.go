package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/repository"
)

// ErrUnauthorized indicates the actor lacks the teacher role required for the
// operation, or a student requested material they have not unlocked.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotMember indicates the user holds no membership in the class.
var ErrNotMember = errors.New("not a class member")

// ErrValidation wraps payloads that fail domain validation before any write.
var ErrValidation = errors.New("validation failed")

// conflictRetries bounds how often a lost write race is retried before the
// conflict is surfaced to the caller.
const conflictRetries = 3

func requireMember(ctx context.Context, memberships repository.MembershipRepository, classID, userID uint) (models.ClassMembership, error) {
	membership, err := memberships.Get(ctx, classID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ClassMembership{}, ErrNotMember
		}
		return models.ClassMembership{}, err
	}

	return membership, nil
}

func requireTeacher(ctx context.Context, memberships repository.MembershipRepository, classID, userID uint) error {
	membership, err := requireMember(ctx, memberships, classID, userID)
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			return ErrUnauthorized
		}
		return err
	}

	if !membership.IsTeacher() {
		return ErrUnauthorized
	}
	return nil
}

// withConflictRetry reruns fn while it fails with repository.ErrConflict, up
// to the retry bound. All other errors pass through immediately.
func withConflictRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err = fn()
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
	}
	return err
}
