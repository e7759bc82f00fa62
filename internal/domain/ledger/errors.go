package ledger

import "errors"

// 座席台帳のエラー定義
var (
	// ErrInvariantViolation は残席数が定員を超える、または負になる更新が
	// 検出されたことを表す。正常系では到達不能であり、観測された場合は
	// バグの兆候として最高レベルでログに記録し、操作を中断する。
	ErrInvariantViolation = errors.New("座席台帳の不変条件違反を検出しました")

	// ErrUnavailable はストレージへの到達失敗を表す。呼び出し側は結果を
	// 観測していない限り安全にリトライできる。
	ErrUnavailable = errors.New("座席台帳を利用できません")
)
