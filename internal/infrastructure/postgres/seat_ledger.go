package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rishiqwerty/event-management-backend/internal/domain/event"
	"github.com/rishiqwerty/event-management-backend/internal/domain/ledger"
	"github.com/rishiqwerty/event-management-backend/internal/pkg/metrics"
)

// SeatLedger は座席台帳のPostgreSQL実装
// check-and-decrement / check-and-increment は単一の条件付きUPDATEで実行され、
// 行ロックにより同一イベントへの並行呼び出しはDB側で直列化される。
// プロセス内の状態には一切依存しないため、複数インスタンスでも正しく動作する。
type SeatLedger struct {
	db *sqlx.DB
}

// NewSeatLedger はSeatLedgerを作成する
func NewSeatLedger(db *sqlx.DB) *SeatLedger {
	return &SeatLedger{db: db}
}

// TryDecrement は残席がある場合のみ残席数を1減らす
func (l *SeatLedger) TryDecrement(ctx context.Context, eventID string) (bool, error) {
	start := time.Now()

	query := `UPDATE events SET seats_remaining = seats_remaining - 1, updated_at = NOW() WHERE id = $1 AND seats_remaining > 0`
	result, err := l.db.ExecContext(ctx, query, eventID)
	if err != nil {
		metrics.ObserveLedgerOp("try_decrement", "error", time.Since(start))
		return false, fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		metrics.ObserveLedgerOp("try_decrement", "error", time.Since(start))
		return false, fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	if rows == 1 {
		metrics.ObserveLedgerOp("try_decrement", "success", time.Since(start))
		return true, nil
	}

	// 更新0行は「満席」か「イベント不存在」のどちらか。存在確認で区別する
	if _, err := l.exists(ctx, eventID); err != nil {
		metrics.ObserveLedgerOp("try_decrement", "not_found", time.Since(start))
		return false, err
	}
	metrics.ObserveLedgerOp("try_decrement", "sold_out", time.Since(start))
	return false, nil
}

// Increment は残席数を1増やす
// 定員を超える加算は不変条件違反として拒否する。丸めて握りつぶさない
func (l *SeatLedger) Increment(ctx context.Context, eventID string) error {
	start := time.Now()

	query := `UPDATE events SET seats_remaining = seats_remaining + 1, updated_at = NOW() WHERE id = $1 AND seats_remaining < capacity`
	result, err := l.db.ExecContext(ctx, query, eventID)
	if err != nil {
		metrics.ObserveLedgerOp("increment", "error", time.Since(start))
		return fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		metrics.ObserveLedgerOp("increment", "error", time.Since(start))
		return fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	if rows == 1 {
		metrics.ObserveLedgerOp("increment", "success", time.Since(start))
		return nil
	}

	if _, err := l.exists(ctx, eventID); err != nil {
		metrics.ObserveLedgerOp("increment", "not_found", time.Since(start))
		return err
	}

	// イベントは存在するのに加算できなかった = seats_remaining が既に定員
	metrics.ObserveLedgerOp("increment", "invariant_violation", time.Since(start))
	return ledger.ErrInvariantViolation
}

// Remaining は現在の残席数を返す
func (l *SeatLedger) Remaining(ctx context.Context, eventID string) (int, error) {
	var remaining int
	err := l.db.GetContext(ctx, &remaining, `SELECT seats_remaining FROM events WHERE id = $1`, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, event.ErrEventNotFound
		}
		return 0, fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	return remaining, nil
}

func (l *SeatLedger) exists(ctx context.Context, eventID string) (bool, error) {
	var found bool
	err := l.db.GetContext(ctx, &found, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	if !found {
		return false, event.ErrEventNotFound
	}
	return true, nil
}

var _ ledger.Ledger = (*SeatLedger)(nil)
