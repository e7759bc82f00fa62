package event

import "time"

// Type はイベントの種別を表す
type Type string

const (
	TypeConcert    Type = "CONCERT"
	TypeConference Type = "CONFERENCE"
	TypeWorkshop   Type = "WORKSHOP"
	TypeMeetup     Type = "MEETUP"
	TypeOther      Type = "OTHER"
)

// IsValid はイベント種別が定義済みの値かを返す（空文字は未指定として許可）
func (t Type) IsValid() bool {
	switch t {
	case TypeConcert, TypeConference, TypeWorkshop, TypeMeetup, TypeOther, "":
		return true
	}
	return false
}

// Event はイベントエンティティを表す
// SeatsRemaining は残席数の正。予約の生カウントから遅延再計算してはならず、
// 更新は座席台帳（ledger.Ledger）のアトミック操作経由に限る。
type Event struct {
	ID             string
	OrganizerID    string
	Title          string
	Description    string
	EventType      Type
	StartTime      time.Time
	EndTime        time.Time
	ShowTime       time.Time
	Capacity       int
	SeatsRemaining int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewEvent は新しいイベントを作成する
// 残席数は常に定員と同値で初期化される
func NewEvent(organizerID, title, description string, eventType Type, startTime, endTime, showTime time.Time, capacity int) *Event {
	now := time.Now()
	return &Event{
		OrganizerID:    organizerID,
		Title:          title,
		Description:    description,
		EventType:      eventType,
		StartTime:      startTime,
		EndTime:        endTime,
		ShowTime:       showTime,
		Capacity:       capacity,
		SeatsRemaining: capacity,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.Title == "" {
		return ErrTitleRequired
	}
	if e.Capacity < 0 {
		return ErrInvalidCapacity
	}
	if e.EndTime.Before(e.StartTime) {
		return ErrInvalidEventTime
	}
	if !e.EventType.IsValid() {
		return ErrInvalidEventType
	}
	return nil
}

// IsSoldOut は残席がないかを返す
func (e *Event) IsSoldOut() bool {
	return e.SeatsRemaining <= 0
}
