package checkpoints

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orbas1/fixnado-backend/pkg/db/models"
	"github.com/orbas1/fixnado-backend/pkg/pagination"
)

// Repository persists append-only checkpoint rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, checkpoint *models.RentalCheckpoint) error
	ListByRental(ctx context.Context, rentalID uuid.UUID, params pagination.Params) ([]models.RentalCheckpoint, error)
	LatestN(ctx context.Context, rentalID uuid.UUID, n int) ([]models.RentalCheckpoint, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkpoint repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, checkpoint *models.RentalCheckpoint) error {
	if checkpoint.ID == uuid.Nil {
		checkpoint.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(checkpoint).Error
}

func (r *repository) ListByRental(ctx context.Context, rentalID uuid.UUID, params pagination.Params) ([]models.RentalCheckpoint, error) {
	query := r.db.WithContext(ctx).
		Where("rental_id = ?", rentalID).
		Order("created_at ASC").
		Order("id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at > ?) OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.RentalCheckpoint
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) LatestN(ctx context.Context, rentalID uuid.UUID, n int) ([]models.RentalCheckpoint, error) {
	if n <= 0 {
		n = 1
	}
	var rows []models.RentalCheckpoint
	err := r.db.WithContext(ctx).
		Where("rental_id = ?", rentalID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(n).
		Find(&rows).Error
	return rows, err
}
