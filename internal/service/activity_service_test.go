package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/dto"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/repository"
)

func TestActivityServiceRecordNormalizesAndPersists(t *testing.T) {
	db := newServiceDB(t)
	svc := NewActivityService(repository.NewActivityLogRepository(db), zerolog.Nop())

	entityID := uint(7)
	recorded, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    teacherID,
		ActorRole:  models.RoleTeacher,
		Action:     " Task.Created ",
		EntityType: "Task",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"class_id": uint(1),
			"nested":   []int{1, 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "task.created", recorded.Action)
	require.Equal(t, "task", recorded.EntityType)
	require.Equal(t, "[1 2]", recorded.Metadata["nested"], "non-scalar metadata is flattened")

	_, err = svc.Record(context.Background(), ActivityEntry{ActorID: teacherID, EntityType: "task"})
	require.Error(t, err, "action is required")
}

func TestActivityServiceListFiltersAndPaginates(t *testing.T) {
	db := newServiceDB(t)
	svc := NewActivityService(repository.NewActivityLogRepository(db), zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := svc.Record(context.Background(), ActivityEntry{ActorID: teacherID, ActorRole: models.RoleTeacher, Action: "task.created", EntityType: "task"})
		require.NoError(t, err)
	}
	_, err := svc.Record(context.Background(), ActivityEntry{ActorID: studentID, ActorRole: models.RoleStudent, Action: "submission.created", EntityType: "submission"})
	require.NoError(t, err)

	page, err := svc.List(context.Background(), dto.ActivityListRequest{Page: 1, PageSize: 2, Action: "task.created"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.EqualValues(t, 3, page.Pagination.TotalItems)
	require.Equal(t, 2, page.Pagination.TotalPages)

	filtered, err := svc.List(context.Background(), dto.ActivityListRequest{ActorID: studentID})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	require.Equal(t, "submission.created", filtered.Items[0].Action)
}
