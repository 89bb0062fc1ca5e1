package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/promptician/internal/domain"
	"github.com/davidbz/promptician/internal/mocks"
)

func sampleRecords() []domain.Record {
	positive := domain.RatingPositive
	star := true
	return []domain.Record{
		{ID: "r3", Prompt: "Translate to French", Completion: "Bonjour", Rating: &positive, Star: &star},
		{ID: "r2", Prompt: "Write a haiku", Completion: "autumn moonlight\na worm digs silently"},
		{ID: "r1", Prompt: "Say hello", Completion: "Hello there"},
	}
}

func TestFilterRecords(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name     string
		keywords string
		want     []string
	}{
		{name: "no keywords matches everything", keywords: "", want: []string{"r3", "r2", "r1"}},
		{name: "blank keywords match everything", keywords: "   ", want: []string{"r3", "r2", "r1"}},
		{name: "matches the prompt", keywords: "haiku", want: []string{"r2"}},
		{name: "matches the completion", keywords: "Bonjour", want: []string{"r3"}},
		{name: "every keyword must match", keywords: "Say there", want: []string{"r1"}},
		{name: "keywords may match different fields", keywords: "French Bonjour", want: []string{"r3"}},
		{name: "matching is case sensitive", keywords: "HELLO", want: []string{}},
		{name: "one missing keyword excludes the record", keywords: "Say goodbye", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.FilterRecords(records, tt.keywords)

			ids := make([]string, 0, len(got))
			for _, record := range got {
				ids = append(ids, record.ID)
			}
			require.Equal(t, tt.want, ids)
		})
	}
}

func TestSummary(t *testing.T) {
	records := sampleRecords()

	require.Equal(t, "Translate to French | Bonjour [positive] [star]", domain.Summary(records[0]))
	require.Equal(t, "Write a haiku | autumn moonlight a worm digs silently", domain.Summary(records[1]))
}

func TestHistoryService(t *testing.T) {
	ctx := context.Background()

	newHistory := func(t *testing.T) (*domain.HistoryService, *domain.SessionService) {
		store := mocks.NewMockRecordStore(t)
		store.EXPECT().Items().Return(sampleRecords()).Maybe()

		session := domain.NewSessionService(testConfig(), store, mocks.NewMockCompletionClient(t), nil)
		return domain.NewHistoryService(store, session), session
	}

	t.Run("should search in store order", func(t *testing.T) {
		history, _ := newHistory(t)

		results := history.Search(ctx, "e")

		require.Len(t, results, 3)
		require.Equal(t, "r3", results[0].ID)
		require.Equal(t, "r2", results[1].ID)
		require.Equal(t, "r1", results[2].ID)
	})

	t.Run("should find a record by id", func(t *testing.T) {
		history, _ := newHistory(t)

		record, err := history.Find(ctx, "r2")

		require.NoError(t, err)
		require.Equal(t, "Write a haiku", record.Prompt)
	})

	t.Run("should report unknown ids", func(t *testing.T) {
		history, _ := newHistory(t)

		_, err := history.Find(ctx, "missing")

		require.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("should open a record for editing", func(t *testing.T) {
		history, session := newHistory(t)

		record, err := history.Open(ctx, "r3", true)

		require.NoError(t, err)
		require.Equal(t, "r3", record.ID)

		snap := session.Snapshot()
		require.Equal(t, domain.StateLoaded, snap.State)
		require.True(t, snap.Editable)
		require.Equal(t, "Translate to French", snap.Fields.Prompt)
		require.True(t, snap.Evaluation.Star)
	})

	t.Run("should leave the session untouched for unknown ids", func(t *testing.T) {
		history, session := newHistory(t)

		_, err := history.Open(ctx, "missing", false)

		require.ErrorIs(t, err, domain.ErrRecordNotFound)
		require.Equal(t, domain.StateIdle, session.Snapshot().State)
	})
}
