package handler

import (
	"context"

	"github.com/rishiqwerty/event-management-backend/internal/application"
	"github.com/rishiqwerty/event-management-backend/internal/domain/event"
	"github.com/rishiqwerty/event-management-backend/internal/domain/reservation"
)

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error)
	Availability(ctx context.Context, eventID string) (int, error)
}

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	AttemptReservation(ctx context.Context, eventID, userID string) (*reservation.Reservation, error)
	CancelReservation(ctx context.Context, reservationID string) error
	GetReservation(ctx context.Context, id string) (*reservation.Reservation, error)
	GetUserReservations(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error)
}
