package checkpoints

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orbas1/fixnado-backend/pkg/db/models"
	"github.com/orbas1/fixnado-backend/pkg/enums"
	apperrors "github.com/orbas1/fixnado-backend/pkg/errors"
	"github.com/orbas1/fixnado-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:checkpoints_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.RentalCheckpoint{}); err != nil {
		t.Fatalf("migrate checkpoints: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestAppendAndList(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	rentalID := uuid.New()

	for _, cpType := range []enums.CheckpointType{
		enums.CheckpointTypeStatusChange,
		enums.CheckpointTypeHandover,
		enums.CheckpointTypeReturn,
	} {
		if _, err := svc.Append(ctx, AppendInput{
			RentalID:       rentalID,
			CheckpointType: cpType,
			ActorRole:      enums.ActorRoleOperator,
		}); err != nil {
			t.Fatalf("append %s: %v", cpType, err)
		}
	}

	page, err := svc.ListByRental(ctx, rentalID, pagination.Params{})
	if err != nil {
		t.Fatalf("list checkpoints: %v", err)
	}
	if len(page.Checkpoints) != 3 {
		t.Fatalf("expected 3 checkpoints, got %d", len(page.Checkpoints))
	}
	if page.Checkpoints[0].CheckpointType != enums.CheckpointTypeStatusChange {
		t.Fatalf("expected oldest checkpoint first, got %s", page.Checkpoints[0].CheckpointType)
	}
	if page.NextCursor != "" {
		t.Fatalf("expected empty next cursor for a single page")
	}
}

func TestAppendRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	_, err := svc.Append(ctx, AppendInput{CheckpointType: enums.CheckpointTypeNote})
	if typed := apperrors.As(err); typed == nil || typed.Code() != apperrors.CodeValidation {
		t.Fatalf("expected validation error for missing rental id, got %v", err)
	}

	_, err = svc.Append(ctx, AppendInput{RentalID: uuid.New(), CheckpointType: "bogus"})
	if typed := apperrors.As(err); typed == nil || typed.Code() != apperrors.CodeValidation {
		t.Fatalf("expected validation error for bad type, got %v", err)
	}
}

func TestAppendDefaultsActorRole(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	checkpoint, err := svc.Append(context.Background(), AppendInput{
		RentalID:       uuid.New(),
		CheckpointType: enums.CheckpointTypeNote,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if checkpoint.ActorRole != enums.ActorRoleSystem {
		t.Fatalf("expected system actor role, got %s", checkpoint.ActorRole)
	}
}

func TestLatestNOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	rentalID := uuid.New()

	for _, cpType := range []enums.CheckpointType{
		enums.CheckpointTypeStatusChange,
		enums.CheckpointTypeHandover,
		enums.CheckpointTypeDispute,
	} {
		if _, err := svc.Append(ctx, AppendInput{
			RentalID:       rentalID,
			CheckpointType: cpType,
		}); err != nil {
			t.Fatalf("append %s: %v", cpType, err)
		}
	}

	latest, err := svc.LatestN(ctx, rentalID, 2)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(latest))
	}
	if latest[0].CheckpointType != enums.CheckpointTypeDispute {
		t.Fatalf("expected newest checkpoint first, got %s", latest[0].CheckpointType)
	}
}

func TestAppendTxRollsBackWithTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	rentalID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.AppendTx(ctx, tx, AppendInput{
			RentalID:       rentalID,
			CheckpointType: enums.CheckpointTypeNote,
		}); err != nil {
			return err
		}
		return gorm.ErrInvalidData
	})
	if err == nil {
		t.Fatalf("expected transaction error")
	}

	var count int64
	if err := db.Model(&models.RentalCheckpoint{}).Where("rental_id = ?", rentalID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to discard checkpoint, found %d", count)
	}
}
