package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rishiqwerty/event-management-backend/internal/pkg/logger"
	"github.com/rishiqwerty/event-management-backend/internal/pkg/metrics"
)

// ReconciliationStore は残席数のドリフト検出・修復のインターフェース
type ReconciliationStore interface {
	// FindDrifted は seats_remaining と有効予約数が食い違うイベントIDを返す
	FindDrifted(ctx context.Context) ([]string, error)
	// Reconcile は残席数を capacity - count(reservations) に修正し、差分を返す
	Reconcile(ctx context.Context, eventID string) (int, error)
}

// SeatReconciler は残席数と予約数の整合を定期的に照合するワーカー
// 減算と予約挿入の間のクラッシュで生じる席のリークは、ホットパスでは
// 同期修正せずこのジョブが回収する。修正が発生した事実は必ずログと
// メトリクスで可視化する（ドリフトはバグか障害の痕跡であるため）。
type SeatReconciler struct {
	store    ReconciliationStore
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSeatReconciler は新しい照合ワーカーを作成する
func NewSeatReconciler(store ReconciliationStore, interval time.Duration) *SeatReconciler {
	return &SeatReconciler{
		store:    store,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はワーカーを開始する
func (w *SeatReconciler) Start(ctx context.Context) {
	logger.Info("残席照合ワーカー開始", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("残席照合ワーカー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("残席照合ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.reconcile(ctx)
		}
	}
}

// Stop はワーカーを停止する
func (w *SeatReconciler) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// reconcile は1回分の照合を実行する
func (w *SeatReconciler) reconcile(ctx context.Context) {
	logger.Debug("残席照合開始")

	drifted, err := w.store.FindDrifted(ctx)
	if err != nil {
		logger.Error("ドリフト検出に失敗", zap.Error(err))
		return
	}
	if len(drifted) == 0 {
		logger.Debug("ドリフトなし")
		return
	}

	for _, eventID := range drifted {
		delta, err := w.store.Reconcile(ctx, eventID)
		if err != nil {
			logger.Error("残席数の修正に失敗",
				zap.String("event_id", eventID),
				zap.Error(err),
			)
			continue
		}
		if delta == 0 {
			// 検出と修正の間に解消済み
			continue
		}
		logger.Warn("残席数のドリフトを修正",
			zap.String("event_id", eventID),
			zap.Int("delta", delta),
		)
		if delta < 0 {
			delta = -delta
		}
		metrics.AddReconciliationCorrections(delta)
	}
}
