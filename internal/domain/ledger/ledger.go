// Package ledger は座席台帳を定義する。
// 残席数（seats_remaining）は1イベントあたり唯一の共有可変状態であり、
// ここで定義するアトミック操作以外からの読み書き更新を許さない。
package ledger

import "context"

// Ledger はイベントごとの残席カウンターへのアトミックな操作を提供する
// 実装はストレージ層での条件付き更新（check-and-decrement が単一の不可分操作）
// でなければならない。複数プロセスで動作するため、プロセス内ロックでは不十分。
type Ledger interface {
	// TryDecrement は残席が1以上の場合のみ残席数を1減らす
	// 減算が行われたかどうかを返す。同一イベントに対する並行呼び出しは
	// ストレージ層で全順序化され、成功数の合計が初期残席数を超えることはない。
	TryDecrement(ctx context.Context, eventID string) (bool, error)

	// Increment は残席数を1増やす
	// 定員を超える加算は行わず ErrInvariantViolation を返す（黙って丸めない）
	Increment(ctx context.Context, eventID string) error

	// Remaining は現在の残席数を返す
	Remaining(ctx context.Context, eventID string) (int, error)
}
