package subscription

import (
	"context"

	"github.com/BBBIMAX/feiyu-player/internal/fetch"
	"github.com/BBBIMAX/feiyu-player/internal/model"
)

// Storage 订阅的持久化存储
type Storage interface {
	GetAll(ctx context.Context) ([]*model.Subscribe, error)
	Set(ctx context.Context, key string, sub *model.Subscribe) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Current(ctx context.Context) (string, error)
	SetCurrent(ctx context.Context, key string) error
	GetFlag(ctx context.Context, name string) (bool, error)
	SetFlag(ctx context.Context, name string, value bool) error
}

// Fetcher 获取远程 JSON
type Fetcher interface {
	GetJSON(ctx context.Context, url string, opts fetch.Options) (any, error)
}

// ContentStore 内容寻址存储，用于分享订阅
type ContentStore interface {
	WriteJSON(ctx context.Context, v any, pin bool) (string, error)
	URL(cid string) string
}
