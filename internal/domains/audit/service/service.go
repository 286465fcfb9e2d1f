package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"

	"innkeeper/config"
	"innkeeper/infras/kafka"
	"innkeeper/infras/otel"
	"innkeeper/internal/domains/audit/model"
	"innkeeper/internal/domains/audit/model/dto"
	"innkeeper/internal/domains/audit/repository"
	"innkeeper/shared/constant"
	gDto "innkeeper/shared/dto"
	"innkeeper/shared/timezone"

	"github.com/rs/zerolog/log"
)

// Recorder persists one audit entry per committed mutation. Record must be
// called inside the mutation's critical section so database order matches
// commit order. A failed append is logged, never propagated.
type Recorder interface {
	Record(ctx context.Context, event dto.Event)
	History(ctx context.Context, entityType, entityID string, params gDto.QueryParams) (dto.GetAuditEntriesResponse, error)
}

const publishBufferSize = 1024

type serviceImpl struct {
	repo      repository.Audit
	cfg       *config.Config
	kafka     kafka.Client
	otel      otel.Otel
	publishCh chan model.AuditEntry
}

func New(repo repository.Audit, cfg *config.Config, kafka kafka.Client, otel otel.Otel) Recorder {
	s := &serviceImpl{
		repo:      repo,
		cfg:       cfg,
		kafka:     kafka,
		otel:      otel,
		publishCh: make(chan model.AuditEntry, publishBufferSize),
	}

	go s.publishLoop()

	return s
}

func (s *serviceImpl) Record(ctx context.Context, event dto.Event) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Record")
	defer scope.End()

	actor, _ := ctx.Value(constant.ContextKeyActorID).(string)

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		log.Error().Err(err).
			Str("entityType", event.EntityType).
			Str("entityID", event.EntityID).
			Msg("failed to marshal audit payload")

		return
	}

	entry := model.AuditEntry{
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		Action:     event.Action,
		Actor:      actor,
		Payload:    payload,
		RecordedAt: timezone.Now(),
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("entityType", event.EntityType).
			Str("entityID", event.EntityID).
			Str("action", event.Action).
			Msg("failed to record audit entry")

		return
	}

	select {
	case s.publishCh <- entry:
	default:
		log.Warn().
			Str("entityType", entry.EntityType).
			Str("entityID", entry.EntityID).
			Msg("audit publish buffer full, entry not streamed")
	}
}

// publishLoop is the only kafka sender, so entries reach the topic in
// append order. The entries are already durable in postgres; a failed send
// is logged and skipped.
func (s *serviceImpl) publishLoop() {
	for entry := range s.publishCh {
		message := kafka.Message{
			Key:   entry.EntityType + ":" + entry.EntityID,
			Value: entry,
		}

		if err := s.kafka.SendMessages(context.Background(), s.cfg.Kafka.AuditTopic, message); err != nil {
			log.Error().Err(err).
				Str("topic", s.cfg.Kafka.AuditTopic).
				Msg("failed to publish audit entry")
		}
	}
}

func (s *serviceImpl) History(ctx context.Context, entityType, entityID string, params gDto.QueryParams) (res dto.GetAuditEntriesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".History")
	defer scope.End()
	defer scope.TraceIfError(err)

	if params.SortBy == constant.Empty {
		params.SortBy = model.FieldSeq
		params.SortDir = gDto.SortDirAsc
	}

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    model.TableName,
				Field:    model.FieldEntityType,
				Operator: gDto.FilterOperatorEq,
				Value:    entityType,
			},
			gDto.Filter{
				Table:    model.TableName,
				Field:    model.FieldEntityID,
				Operator: gDto.FilterOperatorEq,
				Value:    entityID,
			},
		},
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get audit history")

		return res, fmt.Errorf("failed to get audit history: %w", err)
	}

	res.FromModels(models)

	return res, nil
}
