package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"innkeeper/infras/otel"
	"innkeeper/infras/postgres"
	"innkeeper/internal/domains/audit/model"
	"innkeeper/shared/constant"
	gDto "innkeeper/shared/dto"
	gRepo "innkeeper/shared/repository"

	"github.com/rs/zerolog/log"
)

const appendQuery = `INSERT INTO audit_entries (entity_type, entity_id, action, actor, payload, recorded_at)
VALUES (:entity_type, :entity_id, :action, :actor, :payload, :recorded_at)`

// Audit exposes no update or delete. Entries are immutable once written.
type Audit interface {
	Append(ctx context.Context, entry model.AuditEntry) error
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.AuditEntry, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.AuditEntry]
	db   *postgres.Connection
	otel otel.Otel
}

// Append bypasses the generic insert so the database assigns seq.
func (repo *repositoryImpl) Append(ctx context.Context, entry model.AuditEntry) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Append", constant.OtelRepositoryScopeName, model.EntityName))
	defer scope.End()
	defer scope.TraceIfError(err)

	if _, err = repo.db.Write.NamedExecContext(ctx, appendQuery, entry); err != nil {
		log.Error().Err(err).Msg("failed to append audit entry")

		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

func New(db *postgres.Connection, otel otel.Otel) Audit {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.AuditEntry](model.EntityName, model.TableName, model.FieldSeq, db, otel),
		db:         db,
		otel:       otel,
	}
}
