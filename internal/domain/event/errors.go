package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound    = errors.New("イベントが見つかりません")
	ErrTitleRequired    = errors.New("イベント名は必須です")
	ErrInvalidCapacity  = errors.New("定員は0以上である必要があります")
	ErrInvalidEventTime = errors.New("終了時刻は開始時刻より後である必要があります")
	ErrInvalidEventType = errors.New("イベント種別が不正です")
)
