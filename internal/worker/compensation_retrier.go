package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rishiqwerty/event-management-backend/internal/domain/ledger"
	redisinfra "github.com/rishiqwerty/event-management-backend/internal/infrastructure/redis"
	"github.com/rishiqwerty/event-management-backend/internal/pkg/logger"
	"github.com/rishiqwerty/event-management-backend/internal/pkg/metrics"
)

// CreditQueue は補償クレジットタスクの耐久キューのインターフェース
type CreditQueue interface {
	Dequeue(ctx context.Context) (*redisinfra.CreditTask, error)
	Requeue(ctx context.Context, task *redisinfra.CreditTask) error
	Depth(ctx context.Context) (int64, error)
}

// SeatCrediter は座席を台帳に返すインターフェース
type SeatCrediter interface {
	Increment(ctx context.Context, eventID string) error
}

// CompensationRetrier は失敗した座席クレジットをやり直すワーカー
// 同期呼び出し側が結果を返した後の補償失敗はここが唯一の回収経路であり、
// 回収できないタスクは握りつぶさずエラーログで運用者に可視化する。
type CompensationRetrier struct {
	queue       CreditQueue
	crediter    SeatCrediter
	interval    time.Duration
	maxAttempts int
	batchLimit  int
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewCompensationRetrier は新しいリトライワーカーを作成する
func NewCompensationRetrier(queue CreditQueue, crediter SeatCrediter, interval time.Duration, maxAttempts int) *CompensationRetrier {
	return &CompensationRetrier{
		queue:       queue,
		crediter:    crediter,
		interval:    interval,
		maxAttempts: maxAttempts,
		batchLimit:  100,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start はワーカーを開始する
func (w *CompensationRetrier) Start(ctx context.Context) {
	logger.Info("補償リトライワーカー開始",
		zap.Duration("interval", w.interval),
		zap.Int("max_attempts", w.maxAttempts),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("補償リトライワーカー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("補償リトライワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// Stop はワーカーを停止する
func (w *CompensationRetrier) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// drain は1ティック分のタスクを処理する
// 取り出す件数はティック開始時点のキュー長で打ち切る。失敗して積み直した
// タスクを同一ティック内で再度取り出すと、1件の恒常的な失敗がティックごとに
// batchLimit回連打されてしまうため、再試行は必ず次のティックまで待たせる
func (w *CompensationRetrier) drain(ctx context.Context) {
	depth, err := w.queue.Depth(ctx)
	if err != nil {
		logger.Error("補償キュー長取得に失敗", zap.Error(err))
		return
	}

	limit := w.batchLimit
	if depth < int64(limit) {
		limit = int(depth)
	}

	for i := 0; i < limit; i++ {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if !errors.Is(err, redisinfra.ErrQueueEmpty) {
				logger.Error("補償タスク取得に失敗", zap.Error(err))
			}
			break
		}
		w.process(ctx, task)
	}

	if depth, err := w.queue.Depth(ctx); err == nil {
		if m := metrics.Get(); m != nil {
			m.CompensationQueueDepth.Set(float64(depth))
		}
	}
}

// process はクレジットタスクを1件実行する
func (w *CompensationRetrier) process(ctx context.Context, task *redisinfra.CreditTask) {
	err := w.crediter.Increment(ctx, task.EventID)
	if err == nil {
		logger.Info("補償クレジット成功",
			zap.String("task_id", task.TaskID),
			zap.String("event_id", task.EventID),
			zap.Int("attempts", task.Attempts),
		)
		metrics.CountCompensationRetry("success")
		return
	}

	if errors.Is(err, ledger.ErrInvariantViolation) {
		// 返すべき席がもう存在しない。再試行しても直らないため照合ジョブに委ねる
		logger.DPanic("補償クレジットで不変条件違反",
			zap.String("task_id", task.TaskID),
			zap.String("event_id", task.EventID),
			zap.Error(err),
		)
		metrics.CountCompensationRetry("gave_up")
		return
	}

	if task.Attempts+1 >= w.maxAttempts {
		// 上限超過後も積み直しは続ける（黙って失うことが最悪の結果）が、
		// 以降は毎回エラーログでアラートに載せる
		logger.Error("補償クレジットの再試行が上限に到達、手動照合が必要",
			zap.String("task_id", task.TaskID),
			zap.String("event_id", task.EventID),
			zap.Int("attempts", task.Attempts+1),
			zap.Error(err),
		)
	} else {
		logger.Warn("補償クレジット失敗、積み直し",
			zap.String("task_id", task.TaskID),
			zap.String("event_id", task.EventID),
			zap.Int("attempts", task.Attempts+1),
			zap.Error(err),
		)
	}
	metrics.CountCompensationRetry("retry")

	if qErr := w.queue.Requeue(ctx, task); qErr != nil {
		logger.Error("補償タスクの積み直しに失敗、照合ジョブによる回収待ち",
			zap.String("task_id", task.TaskID),
			zap.String("event_id", task.EventID),
			zap.Error(qErr),
		)
	}
}
