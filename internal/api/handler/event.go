package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rishiqwerty/event-management-backend/internal/application"
	"github.com/rishiqwerty/event-management-backend/internal/domain/event"
)

type EventHandler struct {
	service EventServiceInterface
}

func NewEventHandler(s EventServiceInterface) *EventHandler {
	return &EventHandler{service: s}
}

type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required" example:"Go Conference 2026"`
	Description string    `json:"description" example:"国内最大のGoカンファレンス"`
	EventType   string    `json:"event_type" example:"CONFERENCE"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	ShowTime    time.Time `json:"show_time"`
	// 定員0は有効値。required はintのゼロ値を弾くため付けない
	Capacity int `json:"capacity" validate:"gte=0" example:"500"`
}

type EventResponse struct {
	ID             string    `json:"id"`
	OrganizerID    string    `json:"organizer_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	EventType      string    `json:"event_type,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	ShowTime       time.Time `json:"show_time"`
	Capacity       int       `json:"capacity"`
	SeatsRemaining int       `json:"seats_remaining"`
	CreatedAt      time.Time `json:"created_at"`
}

func toEventResponse(e *event.Event) EventResponse {
	return EventResponse{
		ID:             e.ID,
		OrganizerID:    e.OrganizerID,
		Title:          e.Title,
		Description:    e.Description,
		EventType:      string(e.EventType),
		StartTime:      e.StartTime,
		EndTime:        e.EndTime,
		ShowTime:       e.ShowTime,
		Capacity:       e.Capacity,
		SeatsRemaining: e.SeatsRemaining,
		CreatedAt:      e.CreatedAt,
	}
}

// Create godoc
// @Summary イベントを作成
// @Description 定員付きのイベントを作成します（残席数は定員で初期化）
// @Tags events
// @Accept json
// @Produce json
// @Param X-User-ID header string true "主催者のユーザーID"
// @Param request body CreateEventRequest true "イベント情報"
// @Success 201 {object} EventResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	organizerID := c.Request().Header.Get("X-User-ID")
	if organizerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	e, err := h.service.CreateEvent(c.Request().Context(), application.CreateEventInput{
		OrganizerID: organizerID,
		Title:       req.Title,
		Description: req.Description,
		EventType:   event.Type(req.EventType),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		ShowTime:    req.ShowTime,
		Capacity:    req.Capacity,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, toEventResponse(e))
}

// GetByID godoc
// @Summary イベントを取得
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} EventResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	e, err := h.service.GetEvent(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// List godoc
// @Summary イベント一覧を取得
// @Tags events
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} EventResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	events, err := h.service.ListEvents(c.Request().Context(), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]EventResponse, len(events))
	for i, e := range events {
		resp[i] = toEventResponse(e)
	}
	return c.JSON(http.StatusOK, resp)
}

type AvailabilityResponse struct {
	EventID        string `json:"event_id"`
	SeatsRemaining int    `json:"seats_remaining"`
}

// Availability godoc
// @Summary イベントの残席数を取得
// @Description 表示用の残席数（キャッシュされることがある）
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} AvailabilityResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id}/availability [get]
func (h *EventHandler) Availability(c echo.Context) error {
	id := c.Param("id")
	remaining, err := h.service.Availability(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{EventID: id, SeatsRemaining: remaining})
}
