package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rishiqwerty/event-management-backend/internal/domain/event"
	"github.com/rishiqwerty/event-management-backend/internal/domain/ledger"
	redisinfra "github.com/rishiqwerty/event-management-backend/internal/infrastructure/redis"
	"github.com/rishiqwerty/event-management-backend/internal/pkg/logger"
)

const availabilityCacheTTL = 10 * time.Second

// AvailabilityCache は残席数の読み取りキャッシュのインターフェース
type AvailabilityCache interface {
	GetRemaining(ctx context.Context, eventID string) (int, error)
	SetRemaining(ctx context.Context, eventID string, remaining int, ttl time.Duration) error
	Invalidate(ctx context.Context, eventID string) error
}

// EventService はイベントライフサイクルの協調者
// イベントを定員付きで作成し、作成後の残席数については読み取りのみを行う
// （増減は予約コーディネーター経由の台帳操作が排他的に所有する）。
type EventService struct {
	eventRepo  event.Repository
	seatLedger ledger.Ledger
	cache      AvailabilityCache
}

// NewEventService はEventServiceを作成する
func NewEventService(eventRepo event.Repository, sl ledger.Ledger, cache AvailabilityCache) *EventService {
	return &EventService{eventRepo: eventRepo, seatLedger: sl, cache: cache}
}

type CreateEventInput struct {
	OrganizerID string
	Title       string
	Description string
	EventType   event.Type
	StartTime   time.Time
	EndTime     time.Time
	ShowTime    time.Time
	Capacity    int
}

// CreateEvent は新しいイベントを作成する（残席数は定員で初期化）
func (s *EventService) CreateEvent(ctx context.Context, input CreateEventInput) (*event.Event, error) {
	e := event.NewEvent(input.OrganizerID, input.Title, input.Description, input.EventType,
		input.StartTime, input.EndTime, input.ShowTime, input.Capacity)
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return e, nil
}

// GetEvent はIDからイベントを取得する
func (s *EventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

// ListEvents はイベント一覧を取得する
func (s *EventService) ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.eventRepo.List(ctx, limit, offset)
}

// Availability はイベントの残席数を返す
// 表示用の読み取りであり入場判定には使わない。キャッシュ→台帳の順で引く
func (s *EventService) Availability(ctx context.Context, eventID string) (int, error) {
	if s.cache != nil {
		remaining, err := s.cache.GetRemaining(ctx, eventID)
		if err == nil {
			logger.Debug("残席キャッシュヒット", zap.String("event_id", eventID), zap.Int("remaining", remaining))
			return remaining, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("残席キャッシュ取得エラー", zap.Error(err))
		}
	}

	remaining, err := s.seatLedger.Remaining(ctx, eventID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.SetRemaining(ctx, eventID, remaining, availabilityCacheTTL); cacheErr != nil {
			logger.Warn("残席キャッシュ保存エラー", zap.Error(cacheErr))
		}
	}

	return remaining, nil
}
