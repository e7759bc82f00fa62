package event

import "context"

// Repository はイベントリポジトリのインターフェース
// 座席台帳（seats_remaining の増減）は ledger.Ledger が排他的に所有するため、
// ここには残席数を書き換える操作を置かない。
type Repository interface {
	// Create は新しいイベントを作成する（seats_remaining = capacity で初期化）
	Create(ctx context.Context, event *Event) error

	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id string) (*Event, error)

	// List はイベント一覧を開始時刻の降順で取得する
	List(ctx context.Context, limit, offset int) ([]*Event, error)
}
