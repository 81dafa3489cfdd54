package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/internal/cart"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
)

const (
	staleCartJobName      = "stale-cart-cleanup"
	defaultStaleCartAge   = 30 * 24 * time.Hour
	defaultStaleCartBatch = 500
	maxStaleCartBatches   = 100
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type previewClearer interface {
	Clear(ctx context.Context, cartID uuid.UUID) error
}

// StaleCartJobParams configure the anonymous cart sweeper.
type StaleCartJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Carts     cart.CartRepository
	Previews  previewClearer
	MaxAge    time.Duration
	BatchSize int
}

type staleCartJob struct {
	logg      *logger.Logger
	db        txRunner
	carts     cart.CartRepository
	previews  previewClearer
	maxAge    time.Duration
	batchSize int
	now       func() time.Time
}

// NewStaleCartJob removes anonymous carts nobody has touched for MaxAge.
func NewStaleCartJob(params StaleCartJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultStaleCartAge
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultStaleCartBatch
	}
	return &staleCartJob{
		logg:      params.Logger,
		db:        params.DB,
		carts:     params.Carts,
		previews:  params.Previews,
		maxAge:    maxAge,
		batchSize: batch,
		now:       time.Now,
	}, nil
}

func (j *staleCartJob) Name() string { return staleCartJobName }

func (j *staleCartJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)

	var (
		total    int64
		clearErr error
	)
	for i := 0; i < maxStaleCartBatches; i++ {
		var ids []uuid.UUID
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			repo := j.carts.WithTx(tx)
			found, err := repo.ListStaleAnonymous(ctx, cutoff, j.batchSize)
			if err != nil {
				return fmt.Errorf("list stale carts: %w", err)
			}
			if len(found) == 0 {
				return nil
			}
			deleted, err := repo.DeleteMany(ctx, found)
			if err != nil {
				return fmt.Errorf("delete stale carts: %w", err)
			}
			ids = found
			total += deleted
			return nil
		})
		if err != nil {
			return multierr.Append(err, clearErr)
		}

		clearErr = multierr.Append(clearErr, j.clearPreviews(ctx, ids))
		if len(ids) < j.batchSize {
			break
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"deleted_carts": total,
		"cutoff":        cutoff,
	}), "stale anonymous carts removed")
	return clearErr
}

func (j *staleCartJob) clearPreviews(ctx context.Context, ids []uuid.UUID) error {
	if j.previews == nil {
		return nil
	}
	var errs error
	for _, id := range ids {
		if err := j.previews.Clear(ctx, id); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cart %s: %w", id, err))
		}
	}
	return errs
}
