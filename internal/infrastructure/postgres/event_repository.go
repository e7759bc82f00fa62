package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rishiqwerty/event-management-backend/internal/domain/event"
)

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID             string    `db:"id"`
	OrganizerID    string    `db:"organizer_id"`
	Title          string    `db:"title"`
	Description    *string   `db:"description"`
	EventType      *string   `db:"event_type"`
	StartTime      time.Time `db:"start_time"`
	EndTime        time.Time `db:"end_time"`
	ShowTime       time.Time `db:"show_time"`
	Capacity       int       `db:"capacity"`
	SeatsRemaining int       `db:"seats_remaining"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// toEntity はeventRowをEventエンティティに変換する
func (r *eventRow) toEntity() *event.Event {
	var desc string
	if r.Description != nil {
		desc = *r.Description
	}
	var eventType event.Type
	if r.EventType != nil {
		eventType = event.Type(*r.EventType)
	}
	return &event.Event{
		ID:             r.ID,
		OrganizerID:    r.OrganizerID,
		Title:          r.Title,
		Description:    desc,
		EventType:      eventType,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		ShowTime:       r.ShowTime,
		Capacity:       r.Capacity,
		SeatsRemaining: r.SeatsRemaining,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

const eventColumns = `id, organizer_id, title, description, event_type, start_time, end_time, show_time, capacity, seats_remaining, created_at, updated_at`

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	query := `
		INSERT INTO events (organizer_id, title, description, event_type, start_time, end_time, show_time, capacity, seats_remaining, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	var desc, eventType *string
	if e.Description != "" {
		desc = &e.Description
	}
	if e.EventType != "" {
		s := string(e.EventType)
		eventType = &s
	}

	err := r.db.QueryRowContext(ctx, query,
		e.OrganizerID, e.Title, desc, eventType, e.StartTime, e.EndTime, e.ShowTime,
		e.Capacity, e.SeatsRemaining, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var row eventRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List はイベント一覧を取得する
func (r *EventRepository) List(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY start_time DESC LIMIT $1 OFFSET $2`

	var rows []eventRow
	err := r.db.SelectContext(ctx, &rows, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧取得に失敗しました: %w", err)
	}

	events := make([]*event.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toEntity()
	}
	return events, nil
}

var _ event.Repository = (*EventRepository)(nil)
