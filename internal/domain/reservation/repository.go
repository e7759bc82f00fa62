package reservation

import "context"

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Insert は新しい予約を永続化する
	// (user_id, event_id) が既に存在する場合は ErrDuplicateReservation を返す。
	// 重複判定はストレージ層の一意制約によるもので、並行する同一ペアの挿入は
	// 必ず片方だけが成功する。
	Insert(ctx context.Context, reservation *Reservation) error

	// Delete は予約を削除し、補償のために所属イベントのIDを返す
	// 既に削除済みの場合は ErrReservationNotFound を返す。
	Delete(ctx context.Context, id string) (eventID string, err error)

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// GetByUserID はユーザーの予約一覧を作成日時の降順で取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Reservation, error)

	// CountByEventID はイベントの有効な予約数を返す（照合ジョブ用）
	CountByEventID(ctx context.Context, eventID string) (int, error)
}
