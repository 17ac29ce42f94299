package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"github.com/SundayYogurt/trainer_service/internal/repository"
	"github.com/shopspring/decimal"
)

var (
	// ratingPrior and ratingPriorWeight pull trainers with few reviews toward
	// the platform mean.
	ratingPrior       = decimal.NewFromFloat(3.5)
	ratingPriorWeight = decimal.NewFromInt(5)
)

type Ranking interface {
	// AutoAssignSortOrders renumbers active trainers 1..n by rating signal and
	// returns how many rows changed. Unchanged inputs give unchanged output.
	AutoAssignSortOrders(ctx context.Context) (int, error)
	SetFeatured(ctx context.Context, trainerID uint, featured bool) (int64, error)
	BulkSetFeatured(ctx context.Context, trainerIDs []uint, featured bool) (int64, error)
	// SaveOrder assigns sort_order i+1 to the i-th id.
	SaveOrder(ctx context.Context, orderedIDs []uint) error
	// PlaceNew appends a freshly approved trainer after the current last position.
	PlaceNew(ctx context.Context, ev TrainerApproved) error
}

type ranking struct {
	trainers repository.TrainerRepository
	log      *slog.Logger
}

func NewRanking(trainers repository.TrainerRepository, log *slog.Logger) Ranking {
	return &ranking{trainers: trainers, log: log}
}

// RatingScore is the Bayesian average of a trainer's reviews.
func RatingScore(avg float64, count int64) decimal.Decimal {
	n := decimal.NewFromInt(count)
	sum := decimal.NewFromFloat(avg).Mul(n)
	return ratingPrior.Mul(ratingPriorWeight).Add(sum).Div(ratingPriorWeight.Add(n)).Round(4)
}

func (r *ranking) AutoAssignSortOrders(ctx context.Context) (int, error) {
	signals, err := r.trainers.RankingSignals(ctx)
	if err != nil {
		return 0, err
	}

	scores := make(map[uint]decimal.Decimal, len(signals))
	for _, s := range signals {
		scores[s.TrainerID] = RatingScore(s.AvgRating, s.ReviewCount)
	}

	// current position breaks score ties so repeated runs are stable
	sort.SliceStable(signals, func(i, j int) bool {
		a, b := signals[i], signals[j]
		if a.IsFeatured != b.IsFeatured {
			return a.IsFeatured
		}
		if c := scores[a.TrainerID].Cmp(scores[b.TrainerID]); c != 0 {
			return c > 0
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.TrainerID < b.TrainerID
	})

	changes := make(map[uint]int)
	for i, s := range signals {
		if s.SortOrder != i+1 {
			changes[s.TrainerID] = i + 1
		}
	}
	if err := r.trainers.SaveSortOrders(ctx, changes); err != nil {
		return 0, err
	}

	r.log.Info("sort orders assigned", "trainers", len(signals), "changed", len(changes))
	return len(changes), nil
}

func (r *ranking) SetFeatured(ctx context.Context, trainerID uint, featured bool) (int64, error) {
	profile, err := r.trainers.FindTrainerByID(ctx, trainerID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && profile.Status == domain.TrainerDeleted) {
		return 0, ErrTrainerNotFound
	}
	if err != nil {
		return 0, err
	}
	return r.trainers.SetFeatured(ctx, []uint{trainerID}, featured)
}

func (r *ranking) BulkSetFeatured(ctx context.Context, trainerIDs []uint, featured bool) (int64, error) {
	ids, _ := uniqueIDs(trainerIDs)
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no trainer ids", ErrInvalidInput)
	}

	found, err := r.trainers.CountExisting(ctx, ids)
	if err != nil {
		return 0, err
	}
	if found != int64(len(ids)) {
		return 0, ErrTrainerNotFound
	}
	changed, err := r.trainers.SetFeatured(ctx, ids, featured)
	if err != nil {
		return 0, err
	}
	r.log.Info("featured flag updated", "trainers", len(ids), "featured", featured, "changed", changed)
	return changed, nil
}

func (r *ranking) SaveOrder(ctx context.Context, orderedIDs []uint) error {
	ids, dup := uniqueIDs(orderedIDs)
	if len(ids) == 0 {
		return fmt.Errorf("%w: no trainer ids", ErrInvalidInput)
	}
	if dup {
		return fmt.Errorf("%w: trainer ids repeat", ErrInvalidInput)
	}

	found, err := r.trainers.CountExisting(ctx, ids)
	if err != nil {
		return err
	}
	if found != int64(len(ids)) {
		return ErrTrainerNotFound
	}

	orders := make(map[uint]int, len(ids))
	for i, id := range ids {
		orders[id] = i + 1
	}
	return r.trainers.SaveSortOrders(ctx, orders)
}

func (r *ranking) PlaceNew(ctx context.Context, ev TrainerApproved) error {
	profile, err := r.trainers.FindTrainerByID(ctx, ev.TrainerID)
	if err != nil {
		return err
	}
	if profile.SortOrder != 0 {
		return nil
	}
	last, err := r.trainers.MaxSortOrder(ctx)
	if err != nil {
		return err
	}
	return r.trainers.UpdateTrainer(ctx, profile.ID, map[string]any{"sort_order": last + 1})
}

// SortForDisplay orders profiles for listing: featured first, then sort
// order, then creation time, then id.
func SortForDisplay(profiles []domain.TrainerProfile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		a, b := profiles[i], profiles[j]
		if a.IsFeatured != b.IsFeatured {
			return a.IsFeatured
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// uniqueIDs drops zeros and repeats, keeping first occurrence order.
func uniqueIDs(ids []uint) ([]uint, bool) {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	dup := false
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			dup = true
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, dup
}
