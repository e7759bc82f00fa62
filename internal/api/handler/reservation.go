package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rishiqwerty/event-management-backend/internal/domain/event"
	"github.com/rishiqwerty/event-management-backend/internal/domain/reservation"
)

type ReservationHandler struct {
	service ReservationServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

type CreateReservationRequest struct {
	EventID string `json:"event_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
}

type ReservationResponse struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EventID   string    `json:"event_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID    string    `json:"user_id" example:"user-123"`
	CreatedAt time.Time `json:"created_at"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:        r.ID,
		EventID:   r.EventID,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
	}
}

// Create godoc
// @Summary 予約を作成
// @Description イベントの座席を1席予約します
// @Tags reservations
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body CreateReservationRequest true "予約情報"
// @Success 201 {object} ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string "イベントが存在しない"
// @Failure 409 {object} map[string]string "満席または予約済み"
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.AttemptReservation(c.Request().Context(), req.EventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, reservation.ErrSoldOut):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, reservation.ErrDuplicateReservation):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, event.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, reservation.ErrEventIDRequired), errors.Is(err, reservation.ErrUserIDRequired):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			// 内部詳細はサービス側でログ済み。呼び出し側には不透明なエラーのみ返す
			return echo.NewHTTPError(http.StatusInternalServerError, reservation.ErrReservationFailed.Error())
		}
	}
	return c.JSON(http.StatusCreated, toReservationResponse(r))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 予約を削除し、座席を戻します（冪等: 既に存在しない場合も成功）
// @Tags reservations
// @Param id path string true "予約ID"
// @Success 204
// @Failure 500 {object} map[string]string
// @Router /reservations/{id} [delete]
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id := c.Param("id")
	if err := h.service.CancelReservation(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, reservation.ErrReservationFailed.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を取得します
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} map[string]string
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	r, err := h.service.GetReservation(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, reservation.ErrReservationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// GetUserReservations godoc
// @Summary ユーザーの予約一覧を取得
// @Description ログインユーザーの予約一覧を取得します
// @Tags reservations
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} ReservationResponse
// @Failure 401 {object} map[string]string
// @Router /reservations [get]
func (h *ReservationHandler) GetUserReservations(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	reservations, err := h.service.GetUserReservations(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]ReservationResponse, len(reservations))
	for i, r := range reservations {
		resp[i] = toReservationResponse(r)
	}
	return c.JSON(http.StatusOK, resp)
}
