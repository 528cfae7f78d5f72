package rentals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orbas1/fixnado-backend/pkg/db/models"
	"github.com/orbas1/fixnado-backend/pkg/enums"
	"github.com/orbas1/fixnado-backend/pkg/pagination"
)

// ListFilter narrows the rental listing query.
type ListFilter struct {
	CompanyID *uuid.UUID
	RenterID  *uuid.UUID
	Status    *enums.RentalStatus
}

// Repository persists rental agreements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rental *models.RentalAgreement) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RentalAgreement, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.RentalAgreement, error)
	FindByNumber(ctx context.Context, number string) (*models.RentalAgreement, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.RentalAgreement, error)
	Update(ctx context.Context, rental *models.RentalAgreement) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a rental repository backed by the provided DB.
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

func (r *repository) Create(ctx context.Context, rental *models.RentalAgreement) error {
	if rental.ID == uuid.Nil {
		rental.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(rental).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RentalAgreement, error) {
	var rental models.RentalAgreement
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rental).Error
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

// FindByIDForUpdate locks the rental row for the remainder of the
// transaction, serializing transitions on the same rental.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.RentalAgreement, error) {
	var rental models.RentalAgreement
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&rental).Error
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *repository) FindByNumber(ctx context.Context, number string) (*models.RentalAgreement, error) {
	var rental models.RentalAgreement
	err := r.db.WithContext(ctx).Where("rental_number = ?", number).First(&rental).Error
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.RentalAgreement, error) {
	query := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if filter.CompanyID != nil && *filter.CompanyID != uuid.Nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.RenterID != nil && *filter.RenterID != uuid.Nil {
		query = query.Where("renter_id = ?", *filter.RenterID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

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

	var rows []models.RentalAgreement
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, rental *models.RentalAgreement) error {
	return r.db.WithContext(ctx).Save(rental).Error
}
