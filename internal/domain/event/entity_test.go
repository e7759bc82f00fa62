package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(3 * time.Hour)
	show := start.Add(-1 * time.Hour)

	e := NewEvent("organizer-1", "Go Conference 2026", "年次カンファレンス", TypeConference, start, end, show, 500)

	require.NoError(t, e.Validate())
	assert.Equal(t, "organizer-1", e.OrganizerID)
	assert.Equal(t, 500, e.Capacity)
	// 残席数は常に定員で初期化される
	assert.Equal(t, e.Capacity, e.SeatsRemaining)
	assert.False(t, e.IsSoldOut())
}

func TestEvent_Validate(t *testing.T) {
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(3 * time.Hour)

	tests := []struct {
		name        string
		title       string
		eventType   Type
		startTime   time.Time
		endTime     time.Time
		capacity    int
		wantErr     bool
		errExpected error
	}{
		{
			name: "正常なイベント", title: "ワークショップ", eventType: TypeWorkshop,
			startTime: start, endTime: end, capacity: 30,
			wantErr: false,
		},
		{
			name: "種別未指定も許可", title: "ミートアップ", eventType: "",
			startTime: start, endTime: end, capacity: 10,
			wantErr: false,
		},
		{
			name: "定員0も許可", title: "非公開イベント", eventType: TypeOther,
			startTime: start, endTime: end, capacity: 0,
			wantErr: false,
		},
		{
			name: "イベント名未指定", title: "", eventType: TypeConcert,
			startTime: start, endTime: end, capacity: 100,
			wantErr: true, errExpected: ErrTitleRequired,
		},
		{
			name: "定員が負", title: "コンサート", eventType: TypeConcert,
			startTime: start, endTime: end, capacity: -1,
			wantErr: true, errExpected: ErrInvalidCapacity,
		},
		{
			name: "終了時刻が開始時刻より前", title: "カンファレンス", eventType: TypeConference,
			startTime: end, endTime: start, capacity: 100,
			wantErr: true, errExpected: ErrInvalidEventTime,
		},
		{
			name: "未定義のイベント種別", title: "コンサート", eventType: "FESTIVAL",
			startTime: start, endTime: end, capacity: 100,
			wantErr: true, errExpected: ErrInvalidEventType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvent("organizer-1", tt.title, "", tt.eventType, tt.startTime, tt.endTime, tt.startTime, tt.capacity)
			err := e.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, tt.errExpected)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestEvent_IsSoldOut(t *testing.T) {
	e := NewEvent("organizer-1", "コンサート", "", TypeConcert, time.Now(), time.Now().Add(time.Hour), time.Now(), 2)
	assert.False(t, e.IsSoldOut())

	e.SeatsRemaining = 0
	assert.True(t, e.IsSoldOut())
}

func TestType_IsValid(t *testing.T) {
	for _, valid := range []Type{TypeConcert, TypeConference, TypeWorkshop, TypeMeetup, TypeOther, ""} {
		assert.True(t, valid.IsValid())
	}
	assert.False(t, Type("FESTIVAL").IsValid())
}
