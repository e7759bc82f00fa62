package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ReconciliationStore は残席数と有効予約数のズレ（シートリーク）を検出・修復する
// ホットパスの外で定期実行される照合ジョブ専用であり、seats_remaining を
// まるごと書き直してよいのはこのストアだけ。
type ReconciliationStore struct {
	db *sqlx.DB
}

// NewReconciliationStore はReconciliationStoreを作成する
func NewReconciliationStore(db *sqlx.DB) *ReconciliationStore {
	return &ReconciliationStore{db: db}
}

// FindDrifted は seats_remaining != capacity - count(reservations) となっている
// イベントのIDを返す
func (s *ReconciliationStore) FindDrifted(ctx context.Context) ([]string, error) {
	query := `
		SELECT e.id
		FROM events e
		LEFT JOIN reservations r ON r.event_id = e.id
		GROUP BY e.id
		HAVING e.seats_remaining <> e.capacity - COUNT(r.id)
	`
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("ドリフト検出に失敗: %w", err)
	}
	return ids, nil
}

// Reconcile は残席数を capacity - count(reservations) に再計算して修正し、
// 修正量（修正前との差分）を返す。差分0は修正不要だったことを表す
func (s *ReconciliationStore) Reconcile(ctx context.Context, eventID string) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// イベント行をロックしてから予約数を数える。ロック中は台帳操作
	// （同じ行への条件付きUPDATE）が待たされるため、計数と修正の間に
	// 予約数が動くことはない
	var before, capacity int
	row := tx.QueryRowContext(ctx,
		`SELECT seats_remaining, capacity FROM events WHERE id = $1 FOR UPDATE`, eventID)
	if err := row.Scan(&before, &capacity); err != nil {
		return 0, fmt.Errorf("照合対象の取得に失敗: %w", err)
	}

	var reserved int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE event_id = $1`, eventID,
	).Scan(&reserved); err != nil {
		return 0, fmt.Errorf("予約数の取得に失敗: %w", err)
	}

	expected := capacity - reserved
	if before == expected {
		return 0, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE events SET seats_remaining = $1, updated_at = NOW() WHERE id = $2`,
		expected, eventID,
	); err != nil {
		return 0, fmt.Errorf("残席数の修正に失敗: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("コミットに失敗: %w", err)
	}
	return expected - before, nil
}
