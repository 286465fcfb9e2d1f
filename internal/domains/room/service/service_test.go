package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"innkeeper/config"
	"innkeeper/infras/otel/mocks"
	auditMocks "innkeeper/internal/domains/audit/mocks"
	auditModel "innkeeper/internal/domains/audit/model"
	auditDto "innkeeper/internal/domains/audit/model/dto"
	bookingMocks "innkeeper/internal/domains/booking/mocks"
	roomMocks "innkeeper/internal/domains/room/mocks"
	"innkeeper/internal/domains/room/model"
	"innkeeper/internal/domains/room/model/dto"
	"innkeeper/internal/domains/room/service"
	cacheMocks "innkeeper/shared/cache/mocks"
	"innkeeper/shared/constant"
	"innkeeper/shared/failure"
	gModel "innkeeper/shared/model"
	"innkeeper/shared/timezone"
)

func newService(ctrl *gomock.Controller) (service.Room, *roomMocks.MockRoom, *bookingMocks.MockBooking, *auditMocks.MockRecorder, *cacheMocks.MockRedisCache) {
	mockRepo := roomMocks.NewMockRoom(ctrl)
	mockBookingRepo := bookingMocks.NewMockBooking(ctrl)
	mockAudit := auditMocks.NewMockRecorder(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := service.New(mockRepo, mockBookingRepo, cfg, mockCache, mockAudit, mockOtel)

	return svc, mockRepo, mockBookingRepo, mockAudit, mockCache
}

func TestRoomService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _, mockAudit, _ := newService(ctrl)

	tests := []struct {
		name      string
		req       dto.CreateRoomRequest
		setupMock func()
		wantErr   bool
	}{
		{
			name: "successful creation records an audit entry",
			req: dto.CreateRoomRequest{
				Number:   "101",
				Type:     "double",
				Capacity: 2,
				Rate:     120,
			},
			setupMock: func() {
				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)

				mockAudit.EXPECT().
					Record(gomock.Any(), gomock.Any()).
					Do(func(_ context.Context, event auditDto.Event) {
						assert.Equal(t, model.EntityName, event.EntityType)
						assert.Equal(t, auditModel.ActionInsert, event.Action)

						room, ok := event.Payload.(model.Room)
						assert.True(t, ok)
						assert.Equal(t, "101", room.Number)
						assert.Equal(t, model.StatusAvailable, room.Status)
					})
			},
			wantErr: false,
		},
		{
			name: "repository error skips the audit entry",
			req: dto.CreateRoomRequest{
				Number:   "102",
				Type:     "single",
				Capacity: 1,
				Rate:     80,
			},
			setupMock: func() {
				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyActorID, "test-actor")
			err := svc.Create(ctx, tt.req)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRoomService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _, _, mockCache := newService(ctrl)

	room := model.Room{
		ID:       "room-1",
		Number:   "101",
		Type:     "double",
		Capacity: 2,
		Rate:     120,
		Status:   model.StatusAvailable,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  "test-actor",
			ModifiedBy: "test-actor",
		},
	}

	tests := []struct {
		name      string
		id        string
		setupMock func()
		wantErr   bool
		wantKind  failure.Kind
	}{
		{
			name: "cache miss, found in db",
			id:   "room-1",
			setupMock: func() {
				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(room, nil)
			},
			wantErr: false,
		},
		{
			name: "not found",
			id:   "missing",
			setupMock: func() {
				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Room{}, nil)
			},
			wantErr:  true,
			wantKind: failure.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			result, err := svc.Get(context.Background(), tt.id)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, failure.GetKind(err))
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "room-1", result.ID)
		})
	}
}

func TestRoomService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _, mockAudit, _ := newService(ctrl)

	room := model.Room{ID: "room-1", Number: "101", Status: model.StatusAvailable}

	tests := []struct {
		name      string
		req       dto.UpdateRoomRequest
		setupMock func()
		wantErr   bool
		wantKind  failure.Kind
	}{
		{
			name: "successful update records changed fields",
			req:  dto.UpdateRoomRequest{Status: model.StatusMaintenance},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(room, nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)

				mockAudit.EXPECT().
					Record(gomock.Any(), gomock.Any()).
					Do(func(_ context.Context, event auditDto.Event) {
						assert.Equal(t, auditModel.ActionUpdate, event.Action)

						fields, ok := event.Payload.(map[string]any)
						assert.True(t, ok)
						assert.Equal(t, model.StatusMaintenance, fields[model.FieldStatus])
					})
			},
			wantErr: false,
		},
		{
			name: "room not found",
			req:  dto.UpdateRoomRequest{Status: model.StatusMaintenance},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Room{}, nil)
			},
			wantErr:  true,
			wantKind: failure.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyActorID, "test-actor")
			err := svc.Update(ctx, tt.req, "room-1")

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, failure.GetKind(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRoomService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, mockBookingRepo, mockAudit, _ := newService(ctrl)

	tests := []struct {
		name      string
		setupMock func()
		wantErr   bool
		wantKind  failure.Kind
	}{
		{
			name: "successful delete",
			setupMock: func() {
				mockRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				mockBookingRepo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					Return(0, nil)

				mockRepo.EXPECT().
					Delete(gomock.Any(), gomock.Any()).
					Return(nil)

				mockAudit.EXPECT().
					Record(gomock.Any(), gomock.Any())
			},
			wantErr: false,
		},
		{
			name: "refused while bookings reference the room",
			setupMock: func() {
				mockRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				mockBookingRepo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					Return(2, nil)
			},
			wantErr:  true,
			wantKind: failure.KindConflict,
		},
		{
			name: "room not found",
			setupMock: func() {
				mockRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)
			},
			wantErr:  true,
			wantKind: failure.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := svc.Delete(context.Background(), "room-1")

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, failure.GetKind(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
