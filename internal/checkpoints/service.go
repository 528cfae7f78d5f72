package checkpoints

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/orbas1/fixnado-backend/pkg/errors"
	"github.com/orbas1/fixnado-backend/pkg/db/models"
	"github.com/orbas1/fixnado-backend/pkg/enums"
	"github.com/orbas1/fixnado-backend/pkg/pagination"
	"github.com/orbas1/fixnado-backend/pkg/types"
)

// Service defines operations on the checkpoint audit log.
type Service interface {
	Append(ctx context.Context, input AppendInput) (*models.RentalCheckpoint, error)
	AppendTx(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.RentalCheckpoint, error)
	ListByRental(ctx context.Context, rentalID uuid.UUID, params pagination.Params) (*Page, error)
	LatestN(ctx context.Context, rentalID uuid.UUID, n int) ([]models.RentalCheckpoint, error)
}

// AppendInput captures the immutable data a checkpoint requires.
type AppendInput struct {
	RentalID       uuid.UUID
	CheckpointType enums.CheckpointType
	ActorID        *uuid.UUID
	ActorRole      enums.ActorRole
	Note           *string
	Data           *types.JSONMap
}

// Page is one page of checkpoints plus the cursor for the next page.
type Page struct {
	Checkpoints []models.RentalCheckpoint
	NextCursor  string
}

type service struct {
	repo Repository
}

// NewService wires a checkpoint service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkpoint repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Append(ctx context.Context, input AppendInput) (*models.RentalCheckpoint, error) {
	return s.append(ctx, s.repo, input)
}

func (s *service) AppendTx(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.RentalCheckpoint, error) {
	if tx == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "transaction required")
	}
	return s.append(ctx, s.repo.WithTx(tx), input)
}

func (s *service) append(ctx context.Context, repo Repository, input AppendInput) (*models.RentalCheckpoint, error) {
	if input.RentalID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "rental id is required")
	}
	if !input.CheckpointType.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid checkpoint type %q", input.CheckpointType))
	}
	role := input.ActorRole
	if role == "" {
		role = enums.ActorRoleSystem
	}
	if !role.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid actor role %q", role))
	}

	checkpoint := &models.RentalCheckpoint{
		RentalID:       input.RentalID,
		CheckpointType: input.CheckpointType,
		ActorID:        input.ActorID,
		ActorRole:      role,
		Note:           input.Note,
		Data:           input.Data,
	}
	if err := repo.Insert(ctx, checkpoint); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "inserting checkpoint")
	}
	return checkpoint, nil
}

func (s *service) ListByRental(ctx context.Context, rentalID uuid.UUID, params pagination.Params) (*Page, error) {
	if rentalID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "rental id is required")
	}

	rows, err := s.repo.ListByRental(ctx, rentalID, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing checkpoints")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	page := &Page{Checkpoints: rows}
	if len(rows) > limit {
		page.Checkpoints = rows[:limit]
		last := page.Checkpoints[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) LatestN(ctx context.Context, rentalID uuid.UUID, n int) ([]models.RentalCheckpoint, error) {
	if rentalID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "rental id is required")
	}
	rows, err := s.repo.LatestN(ctx, rentalID, n)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading latest checkpoints")
	}
	return rows, nil
}
