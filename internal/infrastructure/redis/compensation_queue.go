package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrQueueEmpty = errors.New("補償キューは空です")
)

// compensationQueueKey は座席クレジットタスクを積むRedisリストのキー
const compensationQueueKey = "compensation:seat_credits"

// CreditTask は座席台帳への加算（クレジット）をやり直すためのタスク
// キャンセルや補償の途中でIncrementが失敗すると残席の過少計上（実在しない
// 満席）になるため、同期呼び出し側では握りつぶさずここに積んで再試行する。
type CreditTask struct {
	TaskID     string    `json:"task_id"`
	EventID    string    `json:"event_id"`
	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// CompensationQueue はRedisリストを使った耐久リトライキュー
type CompensationQueue struct {
	client *redis.Client
}

// NewCompensationQueue はCompensationQueueを作成する
func NewCompensationQueue(client *redis.Client) *CompensationQueue {
	return &CompensationQueue{client: client}
}

// EnqueueCredit は座席クレジットタスクを新規に積む
func (q *CompensationQueue) EnqueueCredit(ctx context.Context, eventID string) error {
	task := CreditTask{
		TaskID:     uuid.New().String(),
		EventID:    eventID,
		Attempts:   0,
		EnqueuedAt: time.Now(),
	}
	return q.push(ctx, &task)
}

// Dequeue はタスクを1件取り出す。空の場合はErrQueueEmptyを返す
func (q *CompensationQueue) Dequeue(ctx context.Context) (*CreditTask, error) {
	data, err := q.client.RPop(ctx, compensationQueueKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrQueueEmpty
		}
		return nil, fmt.Errorf("補償タスク取得に失敗: %w", err)
	}
	var task CreditTask
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("補償タスクのデコードに失敗: %w", err)
	}
	return &task, nil
}

// Requeue は失敗したタスクを試行回数を増やして積み直す
func (q *CompensationQueue) Requeue(ctx context.Context, task *CreditTask) error {
	task.Attempts++
	return q.push(ctx, task)
}

// Depth は滞留しているタスク数を返す
func (q *CompensationQueue) Depth(ctx context.Context) (int64, error) {
	depth, err := q.client.LLen(ctx, compensationQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("補償キュー長取得に失敗: %w", err)
	}
	return depth, nil
}

func (q *CompensationQueue) push(ctx context.Context, task *CreditTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("補償タスクのエンコードに失敗: %w", err)
	}
	if err := q.client.LPush(ctx, compensationQueueKey, data).Err(); err != nil {
		return fmt.Errorf("補償タスク登録に失敗: %w", err)
	}
	return nil
}
