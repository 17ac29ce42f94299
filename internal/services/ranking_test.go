package services

import (
	"context"
	"testing"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"github.com/SundayYogurt/trainer_service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func displayedIDs(t *testing.T, h *harness) []uint {
	t.Helper()
	profiles, err := h.svc.ListTrainers(context.Background(), repository.TrainerFilter{Status: domain.TrainerActive})
	require.NoError(t, err)
	ids := make([]uint, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}
	return ids
}

func TestRankingDisplayOrderStableAcrossAutoAssign(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.store.putTrainer(domain.TrainerProfile{DisplayName: "A", Status: domain.TrainerActive, IsFeatured: true, SortOrder: 2})
	b := h.store.putTrainer(domain.TrainerProfile{DisplayName: "B", Status: domain.TrainerActive, IsFeatured: true, SortOrder: 1})
	c := h.store.putTrainer(domain.TrainerProfile{DisplayName: "C", Status: domain.TrainerActive, SortOrder: 0})

	want := []uint{b.ID, a.ID, c.ID}
	require.Equal(t, want, displayedIDs(t, h))

	changed, err := h.svc.AutoAssignSortOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed, "only C moves, to position 3")
	assert.Equal(t, want, displayedIDs(t, h))

	for i := 0; i < 3; i++ {
		changed, err = h.svc.AutoAssignSortOrders(ctx)
		require.NoError(t, err)
		assert.Zero(t, changed)
		assert.Equal(t, want, displayedIDs(t, h))
	}
}

func TestRankingAutoAssignUsesRatings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	low := h.store.putTrainer(domain.TrainerProfile{DisplayName: "Low", Status: domain.TrainerActive, SortOrder: 1})
	high := h.store.putTrainer(domain.TrainerProfile{DisplayName: "High", Status: domain.TrainerActive, SortOrder: 2})
	h.store.putTrainer(domain.TrainerProfile{DisplayName: "Gone", Status: domain.TrainerInactive, SortOrder: 9})
	h.store.reviews[low.ID] = []int{2, 2, 3}
	h.store.reviews[high.ID] = []int{5, 5, 5, 4}

	changed, err := h.ranking.AutoAssignSortOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.Equal(t, 1, h.store.trainer(high.ID).SortOrder)
	assert.Equal(t, 2, h.store.trainer(low.ID).SortOrder)
}

func TestRatingScore(t *testing.T) {
	assert.Equal(t, "3.5", RatingScore(0, 0).String())
	assert.Equal(t, "4.25", RatingScore(5, 5).String())
	assert.True(t, RatingScore(5, 100).GreaterThan(RatingScore(5, 1)))
}

func TestRankingFeatured(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.store.putTrainer(domain.TrainerProfile{Status: domain.TrainerActive})
	b := h.store.putTrainer(domain.TrainerProfile{Status: domain.TrainerInactive})
	gone := h.store.putTrainer(domain.TrainerProfile{Status: domain.TrainerDeleted})

	changed, err := h.svc.SetFeatured(ctx, a.ID, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	changed, err = h.svc.SetFeatured(ctx, a.ID, true)
	require.NoError(t, err)
	assert.Zero(t, changed)

	_, err = h.svc.SetFeatured(ctx, gone.ID, true)
	assert.ErrorIs(t, err, ErrTrainerNotFound)

	changed, err = h.svc.BulkSetFeatured(ctx, []uint{a.ID, b.ID, b.ID}, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	_, err = h.svc.BulkSetFeatured(ctx, []uint{a.ID, 9999}, false)
	assert.ErrorIs(t, err, ErrTrainerNotFound)
	assert.True(t, h.store.trainer(a.ID).IsFeatured, "bulk update is all or nothing")

	_, err = h.svc.BulkSetFeatured(ctx, nil, true)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRankingSaveOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.store.putTrainer(domain.TrainerProfile{Status: domain.TrainerActive})
	b := h.store.putTrainer(domain.TrainerProfile{Status: domain.TrainerActive})
	c := h.store.putTrainer(domain.TrainerProfile{Status: domain.TrainerActive})

	require.NoError(t, h.svc.SaveOrder(ctx, []uint{c.ID, a.ID, b.ID}))
	assert.Equal(t, 1, h.store.trainer(c.ID).SortOrder)
	assert.Equal(t, 2, h.store.trainer(a.ID).SortOrder)
	assert.Equal(t, 3, h.store.trainer(b.ID).SortOrder)
	assert.Equal(t, []uint{c.ID, a.ID, b.ID}, displayedIDs(t, h))

	assert.ErrorIs(t, h.svc.SaveOrder(ctx, []uint{a.ID, a.ID}), ErrInvalidInput)
	assert.ErrorIs(t, h.svc.SaveOrder(ctx, []uint{a.ID, 777}), ErrTrainerNotFound)
}

func TestRankingPlaceNewAppends(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.putTrainer(domain.TrainerProfile{Status: domain.TrainerActive, SortOrder: 4})
	h.store.putTrainer(domain.TrainerProfile{Status: domain.TrainerDeleted, SortOrder: 40})

	resp, err := h.svc.Approve(ctx, h.apply(t, "New Coach", "new@example.com").ID)
	require.NoError(t, err)
	assert.Equal(t, 5, h.store.trainer(resp.TrainerID).SortOrder)
}

func TestSortForDisplay(t *testing.T) {
	profiles := []domain.TrainerProfile{
		{ID: 3, SortOrder: 0, CreatedAt: testEpoch},
		{ID: 1, IsFeatured: true, SortOrder: 2},
		{ID: 2, IsFeatured: true, SortOrder: 1},
		{ID: 4, SortOrder: 0, CreatedAt: testEpoch.Add(-1)},
	}
	SortForDisplay(profiles)
	got := []uint{profiles[0].ID, profiles[1].ID, profiles[2].ID, profiles[3].ID}
	assert.Equal(t, []uint{2, 1, 4, 3}, got)
}
