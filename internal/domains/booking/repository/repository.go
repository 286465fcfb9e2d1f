package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"innkeeper/infras/otel"
	"innkeeper/infras/postgres"
	"innkeeper/internal/domains/booking/model"
	gDto "innkeeper/shared/dto"
	gRepo "innkeeper/shared/repository"
)

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	UpdateTx(ctx context.Context, sqltx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	FindOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeBookingID string) ([]model.Booking, error)
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

// FindOverlapping returns blocking-status bookings of the room whose
// half-open range intersects [checkIn, checkOut). excludeBookingID, when
// set, leaves that booking out so edits don't collide with themselves.
func (repo *repositoryImpl) FindOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeBookingID string) ([]model.Booking, error) {
	filters := []any{
		gDto.Filter{
			Table:    model.TableName,
			Field:    model.FieldRoomID,
			Operator: gDto.FilterOperatorEq,
			Value:    roomID,
		},
		gDto.Filter{
			Table:    model.TableName,
			Field:    model.FieldCheckInDate,
			Operator: gDto.FilterOperatorLess,
			ArgName:  "overlap_before",
			Value:    checkOut,
		},
		gDto.Filter{
			Table:    model.TableName,
			Field:    model.FieldCheckOutDate,
			Operator: gDto.FilterOperatorGreater,
			ArgName:  "overlap_after",
			Value:    checkIn,
		},
		gDto.Filter{
			Table:    model.TableName,
			Field:    model.FieldStatus,
			Operator: gDto.FilterOperatorIn,
			Value:    model.BlockingStatuses(),
		},
	}

	if excludeBookingID != "" {
		filters = append(filters, gDto.Filter{
			Table:    model.TableName,
			Field:    model.FieldID,
			Operator: gDto.FilterOperatorNotEq,
			ArgName:  "exclude_id",
			Value:    excludeBookingID,
		})
	}

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  filters,
	}

	params := gDto.QueryParams{
		SortBy:  model.FieldCheckInDate,
		SortDir: gDto.SortDirAsc,
	}

	return repo.GetAll(ctx, params, filter)
}

// WithTx runs fn inside a single write transaction so booking and room rows
// land together or not at all.
func (repo *repositoryImpl) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to begin transaction")

		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("failed to rollback transaction")
		}

		return err
	}

	if err = tx.Commit(); err != nil {
		log.Error().Err(err).Msg("failed to commit transaction")

		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}
