package application

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/rishiqwerty/event-management-backend/internal/domain/event"
	"github.com/rishiqwerty/event-management-backend/internal/domain/ledger"
	"github.com/rishiqwerty/event-management-backend/internal/domain/reservation"
	"github.com/rishiqwerty/event-management-backend/internal/pkg/logger"
	"github.com/rishiqwerty/event-management-backend/internal/pkg/metrics"
)

// CompensationEnqueuer は失敗した座席クレジットを耐久リトライに回すインターフェース
type CompensationEnqueuer interface {
	EnqueueCredit(ctx context.Context, eventID string) error
}

// CacheInvalidator は残席数キャッシュを無効化するインターフェース
type CacheInvalidator interface {
	Invalidate(ctx context.Context, eventID string) error
}

// ReservationService は予約プロトコルのコーディネーター
//
// 予約1回の試行は短い状態機械として進む:
//
//	Start → SeatReserved → Committed        （成功）
//	Start → SeatReserved → Compensating → Aborted （Insert失敗→補償）
//	Start → Rejected                        （満席。ここで即終端、ストアには触れない）
//
// 減算を一意性チェックより先に行う順序は正しさの要。減算は競合する希少資源の
// 入場判定であり高速でなければならず、一意性違反は稀（同一ユーザーの再試行）で
// 補償が安い。順序を逆にすると定員超過の行が一時的に無制限に積まれてしまう。
type ReservationService struct {
	seatLedger      ledger.Ledger
	reservationRepo reservation.Repository
	compensation    CompensationEnqueuer
	cache           CacheInvalidator
}

// NewReservationService はReservationServiceを作成する
func NewReservationService(sl ledger.Ledger, rr reservation.Repository, ce CompensationEnqueuer, ci CacheInvalidator) *ReservationService {
	return &ReservationService{
		seatLedger:      sl,
		reservationRepo: rr,
		compensation:    ce,
		cache:           ci,
	}
}

// AttemptReservation は1席の予約を試行する
//
// 返すエラーは reservation.ErrSoldOut / reservation.ErrDuplicateReservation /
// event.ErrEventNotFound / reservation.ErrReservationFailed のいずれか。
// ストレージ内部のエラー詳細は呼び出し側に漏らさず、ログにのみ残す。
func (s *ReservationService) AttemptReservation(ctx context.Context, eventID, userID string) (*reservation.Reservation, error) {
	res := reservation.NewReservation(eventID, userID)
	if err := res.Validate(); err != nil {
		return nil, err
	}

	// Start: 座席台帳への入場判定。ここが唯一の競合点
	ok, err := s.seatLedger.TryDecrement(ctx, eventID)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			metrics.CountReservationAttempt("not_found")
			return nil, event.ErrEventNotFound
		}
		logger.Error("座席台帳の減算に失敗",
			zap.String("event_id", eventID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		metrics.CountReservationAttempt("failed")
		return nil, reservation.ErrReservationFailed
	}
	if !ok {
		// Rejected: 満席。想定内の高速リジェクトで、予約ストアには触れない
		metrics.CountReservationAttempt("sold_out")
		return nil, reservation.ErrSoldOut
	}

	// SeatReserved: 席は確保済み。予約レコードを永続化する
	if err := s.reservationRepo.Insert(ctx, res); err != nil {
		// Compensating: 確保した席を台帳に返してから中断する
		s.creditSeat(ctx, eventID)

		if errors.Is(err, reservation.ErrDuplicateReservation) {
			metrics.CountReservationAttempt("duplicate")
			return nil, reservation.ErrDuplicateReservation
		}
		logger.Error("予約レコードの作成に失敗",
			zap.String("event_id", eventID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		metrics.CountReservationAttempt("failed")
		return nil, reservation.ErrReservationFailed
	}

	// Committed: 減算と予約の両方が永続化された
	s.invalidateCache(ctx, eventID)
	metrics.CountReservationAttempt("committed")
	return res, nil
}

// CancelReservation は予約をキャンセルし、席を台帳に返す
//
// 冪等: 予約が既に存在しない場合も成功として扱う（二重キャンセルはエラーではなく、
// 席を二重に返すこともない）。
func (s *ReservationService) CancelReservation(ctx context.Context, reservationID string) error {
	eventID, err := s.reservationRepo.Delete(ctx, reservationID)
	if err != nil {
		if errors.Is(err, reservation.ErrReservationNotFound) {
			metrics.CountCancellation("noop")
			return nil
		}
		logger.Error("予約レコードの削除に失敗",
			zap.String("reservation_id", reservationID),
			zap.Error(err),
		)
		metrics.CountCancellation("failed")
		return reservation.ErrReservationFailed
	}

	// 削除は永続化済み。席を返す処理の失敗は補償キュー経由で必ずやり直される
	s.creditSeat(ctx, eventID)
	s.invalidateCache(ctx, eventID)
	metrics.CountCancellation("cancelled")
	return nil
}

// GetReservation はIDから予約を取得する
func (s *ReservationService) GetReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, id)
}

// GetUserReservations はユーザーの予約一覧を取得する
func (s *ReservationService) GetUserReservations(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.reservationRepo.GetByUserID(ctx, userID, limit, offset)
}

// creditSeat は座席を台帳に1席返す
//
// 同期的なIncrementが失敗しても黙って落とさない: 呼び出し元は既に結果を
// 受け取っているため、耐久リトライキューに積んでワーカーにやり直させる。
// キュー登録まで失敗した場合は運用アラート前提のエラーログを残す
// （永続的な席のリークは観測可能でなければならない）。
func (s *ReservationService) creditSeat(ctx context.Context, eventID string) {
	err := s.seatLedger.Increment(ctx, eventID)
	if err == nil {
		return
	}

	if errors.Is(err, ledger.ErrInvariantViolation) {
		// 正常系では到達不能。残席がすでに定員に達しているのに席を返そうと
		// したことを意味する。丸めて隠さず最高レベルで記録して中断する
		logger.DPanic("座席台帳の不変条件違反",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return
	}

	logger.Warn("座席クレジットに失敗、補償キューに登録",
		zap.String("event_id", eventID),
		zap.Error(err),
	)
	if s.compensation == nil {
		logger.Error("補償キュー未設定のため座席クレジットが失われます",
			zap.String("event_id", eventID),
		)
		return
	}
	if qErr := s.compensation.EnqueueCredit(ctx, eventID); qErr != nil {
		// ここまで来たら手動照合が必要。照合ジョブが最終的に回収する
		logger.Error("補償キュー登録に失敗、照合ジョブによる回収待ち",
			zap.String("event_id", eventID),
			zap.Error(qErr),
		)
	}
}

func (s *ReservationService) invalidateCache(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		logger.Warn("残席キャッシュの無効化に失敗", zap.String("event_id", eventID), zap.Error(err))
	}
}
