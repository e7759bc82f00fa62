package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rishiqwerty/event-management-backend/internal/domain/reservation"
)

// uniqueViolation はPostgreSQLの一意制約違反コード
const uniqueViolation = "23505"

type reservationRow struct {
	ID        string    `db:"id"`
	EventID   string    `db:"event_id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *reservationRow) toEntity() *reservation.Reservation {
	return &reservation.Reservation{
		ID:        r.ID,
		EventID:   r.EventID,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
	}
}

// ReservationRepository は予約リポジトリのPostgreSQL実装
// (user_id, event_id) の一意性は reservations テーブルの一意制約で強制される
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository はReservationRepositoryを作成する
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Insert は新しい予約を永続化する
func (r *ReservationRepository) Insert(ctx context.Context, res *reservation.Reservation) error {
	query := `INSERT INTO reservations (event_id, user_id, created_at) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, res.EventID, res.UserID, res.CreatedAt).Scan(&res.ID); err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return reservation.ErrDuplicateReservation
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

// Delete は予約を削除し、所属イベントのIDを返す
func (r *ReservationRepository) Delete(ctx context.Context, id string) (string, error) {
	var eventID string
	query := `DELETE FROM reservations WHERE id = $1 RETURNING event_id`
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", reservation.ErrReservationNotFound
		}
		return "", fmt.Errorf("予約削除に失敗: %w", err)
	}
	return eventID, nil
}

// GetByID はIDから予約を取得する
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	var row reservationRow
	query := `SELECT id, event_id, user_id, created_at FROM reservations WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// GetByUserID はユーザーの予約一覧を取得する
func (r *ReservationRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT id, event_id, user_id, created_at FROM reservations WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*reservation.Reservation, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

// CountByEventID はイベントの有効な予約数を返す
func (r *ReservationRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM reservations WHERE event_id = $1`, eventID); err != nil {
		return 0, fmt.Errorf("予約数取得に失敗: %w", err)
	}
	return count, nil
}

var _ reservation.Repository = (*ReservationRepository)(nil)
