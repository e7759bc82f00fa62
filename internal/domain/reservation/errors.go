package reservation

import "errors"

// Reservation ドメインのエラー定義
// SoldOut / DuplicateReservation は想定内のユーザー向けエラーであり異常としては
// ログしない。ReservationFailed は内部詳細を隠蔽した不透明なエラーで、
// 詳細はロガー経由で運用者にのみ出力される。
var (
	ErrSoldOut              = errors.New("このイベントは満席です")
	ErrDuplicateReservation = errors.New("このイベントは既に予約済みです")
	ErrReservationNotFound  = errors.New("予約が見つかりません")
	ErrReservationFailed    = errors.New("予約処理に失敗しました。時間をおいて再試行してください")
	ErrEventIDRequired      = errors.New("イベントIDは必須です")
	ErrUserIDRequired       = errors.New("ユーザーIDは必須です")
)
