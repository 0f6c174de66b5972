package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neuroclass/neuroclass-hub/internal/application/command"
	"github.com/neuroclass/neuroclass-hub/internal/application/query"
	"github.com/neuroclass/neuroclass-hub/internal/domain/scoring"
	"github.com/neuroclass/neuroclass-hub/internal/domain/shared"
	"github.com/neuroclass/neuroclass-hub/internal/infrastructure/persistence/memory"
)

// fakeCache is an in-process DashboardCache recording its calls.
type fakeCache struct {
	entries     map[string]*query.Dashboard
	gets, sets  int
	invalidates int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*query.Dashboard)}
}

func (c *fakeCache) Get(_ context.Context, studentID string) (*query.Dashboard, bool) {
	c.gets++
	d, ok := c.entries[studentID]
	return d, ok
}

func (c *fakeCache) Set(_ context.Context, studentID string, d *query.Dashboard) error {
	c.sets++
	c.entries[studentID] = d
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, studentID string) error {
	c.invalidates++
	delete(c.entries, studentID)
	return nil
}

func boolPtr(b bool) *bool { return &b }

// seedStudent registers a student with a profile and returns the ID.
func seedStudent(t *testing.T, repo *memory.LessonRepository) string {
	t.Helper()
	ctx := context.Background()

	reg, err := command.NewRegisterStudentHandler(repo).Handle(ctx, command.RegisterStudentCommand{
		FullName: "Miras K.",
	})
	require.NoError(t, err)

	_, err = command.NewSaveProfileHandler(repo).Handle(ctx, command.SaveProfileCommand{
		StudentID:          reg.StudentID,
		ProcessingSpeed:    1.0,
		SensorySensitivity: 0.5,
	})
	require.NoError(t, err)
	return reg.StudentID
}

// finishScoredBlock runs a full block for the student and returns its result.
func finishScoredBlock(t *testing.T, repo *memory.LessonRepository, studentID string, startedAt time.Time) *command.FinishBlockResult {
	t.Helper()
	ctx := context.Background()

	start, err := command.NewStartBlockHandler(repo, nil).Handle(ctx, command.StartBlockCommand{
		StudentID: studentID,
		StartedAt: startedAt,
	})
	require.NoError(t, err)

	recorder := command.NewRecordEventHandler(repo, nil)
	for i, correct := range []bool{true, true, false} {
		_, err := recorder.Handle(ctx, command.RecordEventCommand{
			StudentID:  studentID,
			TaskID:     "task-1",
			BlockID:    start.BlockID,
			Type:       "answer",
			IsCorrect:  boolPtr(correct),
			OccurredAt: startedAt.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	result, err := command.NewFinishBlockHandler(repo, nil, command.DefaultFinishBlockConfig()).
		Handle(ctx, command.FinishBlockCommand{BlockID: start.BlockID})
	require.NoError(t, err)
	return result
}

func TestGetDashboard_UnknownStudent(t *testing.T) {
	repo := memory.NewLessonRepository()
	h := query.NewGetDashboardHandler(repo, nil)

	_, err := h.Handle(context.Background(), query.GetDashboardQuery{StudentID: "ghost"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetDashboard_StudentWithNoBlocks(t *testing.T) {
	repo := memory.NewLessonRepository()
	studentID := seedStudent(t, repo)

	d, err := query.NewGetDashboardHandler(repo, nil).
		Handle(context.Background(), query.GetDashboardQuery{StudentID: studentID})
	require.NoError(t, err)

	require.Equal(t, studentID, d.Student.ID)
	require.Nil(t, d.LastBlock)
	require.Nil(t, d.Recommendation)
	require.Empty(t, d.History)
}

func TestGetDashboard_UnscoredRunningBlockShowsNoIndices(t *testing.T) {
	repo := memory.NewLessonRepository()
	studentID := seedStudent(t, repo)

	_, err := command.NewStartBlockHandler(repo, nil).Handle(context.Background(), command.StartBlockCommand{
		StudentID: studentID,
	})
	require.NoError(t, err)

	d, err := query.NewGetDashboardHandler(repo, nil).
		Handle(context.Background(), query.GetDashboardQuery{StudentID: studentID})
	require.NoError(t, err)

	require.Nil(t, d.LastBlock)
	require.Nil(t, d.Recommendation)
	require.Empty(t, d.History)
}

func TestGetDashboard_ShowsLastScoredBlockAndHistory(t *testing.T) {
	repo := memory.NewLessonRepository()
	studentID := seedStudent(t, repo)

	first := finishScoredBlock(t, repo, studentID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	second := finishScoredBlock(t, repo, studentID, time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC))

	d, err := query.NewGetDashboardHandler(repo, nil).
		Handle(context.Background(), query.GetDashboardQuery{StudentID: studentID})
	require.NoError(t, err)

	require.NotNil(t, d.LastBlock)
	require.Equal(t, second.BlockID, d.LastBlock.BlockID)
	require.InDelta(t, second.OverloadIndex, d.LastBlock.OverloadIndex, 1e-9)
	require.NotNil(t, d.Recommendation)
	require.Equal(t, second.Recommendation.Action, d.Recommendation.Action)

	// History is ordered by block start.
	require.Len(t, d.History, 2)
	require.Equal(t, first.BlockID, d.History[0].BlockID)
	require.Equal(t, second.BlockID, d.History[1].BlockID)
}

func TestGetDashboard_RecommendationMatchesThresholds(t *testing.T) {
	repo := memory.NewLessonRepository()
	studentID := seedStudent(t, repo)

	result := finishScoredBlock(t, repo, studentID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	// Cross-check that the stored indices reproduce the stored action.
	rec := scoring.MakeRecommendation(result.OverloadIndex, result.ReadinessIndex)
	require.Equal(t, result.Recommendation.Action, rec.Action)
}

func TestGetDashboard_ReadThroughCache(t *testing.T) {
	repo := memory.NewLessonRepository()
	studentID := seedStudent(t, repo)
	finishScoredBlock(t, repo, studentID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	cache := newFakeCache()
	h := query.NewGetDashboardHandler(repo, cache)

	first, err := h.Handle(context.Background(), query.GetDashboardQuery{StudentID: studentID})
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets)

	second, err := h.Handle(context.Background(), query.GetDashboardQuery{StudentID: studentID})
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets, "second read must be served from cache")
	require.Equal(t, first.Student, second.Student)

	require.NoError(t, cache.Invalidate(context.Background(), studentID))
	_, err = h.Handle(context.Background(), query.GetDashboardQuery{StudentID: studentID})
	require.NoError(t, err)
	require.Equal(t, 2, cache.sets, "read after invalidation repopulates the cache")
}
