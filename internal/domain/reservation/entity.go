package reservation

import "time"

// Reservation は予約エンティティを表す
// 1ユーザーは1イベントにつき1席のみ予約できる（(user_id, event_id) の一意性は
// ストレージ層の一意制約で強制され、アプリ層の事前チェックには依存しない）
type Reservation struct {
	ID        string
	EventID   string
	UserID    string
	CreatedAt time.Time
}

// NewReservation は新しい予約を作成する
func NewReservation(eventID, userID string) *Reservation {
	return &Reservation{
		EventID:   eventID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
}

// Validate は予約の検証を行う
func (r *Reservation) Validate() error {
	if r.EventID == "" {
		return ErrEventIDRequired
	}
	if r.UserID == "" {
		return ErrUserIDRequired
	}
	return nil
}
