package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishiqwerty/event-management-backend/internal/domain/event"
	"github.com/rishiqwerty/event-management-backend/internal/domain/reservation"
)

func invokeErrorHandler(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	CustomHTTPErrorHandler(err, c)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestCustomHTTPErrorHandler_HTTPError(t *testing.T) {
	rec, resp := invokeErrorHandler(t, echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "ユーザーIDが必要です", resp.Error)
}

func TestCustomHTTPErrorHandler_DomainErrorFallback(t *testing.T) {
	// ハンドラーのマッピングを経由せず漏れてきたドメインエラーも
	// 正しいステータスに落とす
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "満席", err: reservation.ErrSoldOut, wantCode: http.StatusConflict},
		{name: "重複予約", err: reservation.ErrDuplicateReservation, wantCode: http.StatusConflict},
		{name: "イベント未存在", err: event.ErrEventNotFound, wantCode: http.StatusNotFound},
		{name: "予約未存在", err: reservation.ErrReservationNotFound, wantCode: http.StatusNotFound},
		{name: "イベントID未指定", err: reservation.ErrEventIDRequired, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := invokeErrorHandler(t, tt.err)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.err.Error(), resp.Error)
		})
	}
}

func TestCustomHTTPErrorHandler_UnknownErrorIsOpaque500(t *testing.T) {
	rec, resp := invokeErrorHandler(t, errors.New("pq: deadlock detected"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// 内部詳細を漏らさない
	assert.NotContains(t, resp.Error, "deadlock")
}

func TestCustomValidator(t *testing.T) {
	type payload struct {
		EventID  string `validate:"required"`
		Capacity int    `validate:"gte=0"`
	}
	v := NewValidator()

	assert.NoError(t, v.Validate(&payload{EventID: "event-1", Capacity: 0}))

	err := v.Validate(&payload{Capacity: -1})
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
