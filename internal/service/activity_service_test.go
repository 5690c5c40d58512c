package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/observability"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

type memoryActivityRepo struct {
	entries    []models.ActivityLog
	lastFilter repository.ActivityLogFilter
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	m.lastFilter = filter
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func TestActivityServiceRecordMasksSensitiveMetadata(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())

	err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    1,
		ActorRole:  "Teacher",
		Action:     "Result.Regraded",
		EntityType: "graded_result",
		EntityID:   ptrUint(5),
		Metadata: map[string]interface{}{
			"student_email": "student@example.com",
			"percentage":    80,
		},
	})
	require.NoError(t, err)
	require.Len(t, repo.entries, 1)

	entry := repo.entries[0]
	require.Equal(t, "***", entry.Metadata["student_email"])
	require.Equal(t, 80, entry.Metadata["percentage"])
	require.Equal(t, ActionResultRegraded, entry.Action)
	require.Equal(t, "teacher", entry.ActorRole)
}

func TestActivityServiceRecordRequiresAction(t *testing.T) {
	svc := NewActivityService(&memoryActivityRepo{}, testLogger())
	require.Error(t, svc.Record(context.Background(), ActivityEntry{EntityType: "certificate"}))
	require.Error(t, svc.Record(context.Background(), ActivityEntry{Action: ActionCertificateIssued}))
}

func TestActivityServiceList(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())
	require.NoError(t, svc.Record(context.Background(), ActivityEntry{Action: ActionCertificateIssued, EntityType: "certificate"}))

	list, err := svc.List(context.Background(), dto.ActivityListRequest{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, "system", list.Items[0].ActorRole)
	require.Equal(t, 1, list.Pagination.TotalPages)
}

func TestActivityServiceRecordCarriesCorrelationID(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())

	ctx := observability.ContextWithCorrelation(context.Background(), "req-77")
	require.NoError(t, svc.Record(ctx, ActivityEntry{ActorID: 3, Action: ActionSubmissionCreated, EntityType: "submission"}))
	require.Equal(t, "req-77", repo.entries[0].CorrelationID)

	since := time.Now().Add(-time.Hour)
	list, err := svc.List(context.Background(), dto.ActivityListRequest{ActorID: 3, Since: &since})
	require.NoError(t, err)
	require.Equal(t, "req-77", list.Items[0].CorrelationID)
	require.NotNil(t, repo.lastFilter.ActorID)
	require.Equal(t, uint(3), *repo.lastFilter.ActorID)
	require.Equal(t, &since, repo.lastFilter.Since)
}

func ptrUint(v uint) *uint {
	return &v
}
