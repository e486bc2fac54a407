package database

import (
	"context"

	"github.com/BBBIMAX/feiyu-player/internal/model"
)

// app_config 中使用的键
const (
	KeyCurrentSubscribe = "currentSubscribe"
	KeyHTTPProxy        = "httpProxy"
	KeyLanguage         = "language"
)

// SubscribeStorage 基于 SQLite 的订阅持久化存储，供订阅管理器使用。
// 需先调用 InitDB。
type SubscribeStorage struct{}

// NewSubscribeStorage 创建订阅存储
func NewSubscribeStorage() *SubscribeStorage {
	return &SubscribeStorage{}
}

func (s *SubscribeStorage) GetAll(ctx context.Context) ([]*model.Subscribe, error) {
	return GetAllSubscribes(ctx)
}

func (s *SubscribeStorage) Set(ctx context.Context, key string, sub *model.Subscribe) error {
	record := *sub
	record.Key = key
	return SaveSubscribe(ctx, &record)
}

func (s *SubscribeStorage) Remove(ctx context.Context, key string) error {
	return DeleteSubscribe(ctx, key)
}

func (s *SubscribeStorage) Clear(ctx context.Context) error {
	return ClearSubscribes(ctx)
}

// Current 返回持久化的当前订阅名称，未设置时为空字符串。
func (s *SubscribeStorage) Current(ctx context.Context) (string, error) {
	return GetAppConfigContext(ctx, KeyCurrentSubscribe)
}

func (s *SubscribeStorage) SetCurrent(ctx context.Context, key string) error {
	return SetAppConfigContext(ctx, KeyCurrentSubscribe, key)
}

// GetFlag 读取布尔开关，未设置时为 false。
func (s *SubscribeStorage) GetFlag(ctx context.Context, name string) (bool, error) {
	value, err := GetAppConfigContext(ctx, name)
	if err != nil {
		return false, err
	}
	return stringToBool(value), nil
}

func (s *SubscribeStorage) SetFlag(ctx context.Context, name string, value bool) error {
	return SetAppConfigContext(ctx, name, boolToString(value))
}

// AppConfigStore 以键值方式访问 app_config 表
type AppConfigStore struct{}

// Get 读取配置，不存在时返回空字符串
func (AppConfigStore) Get(key string) (string, error) {
	return GetAppConfig(key)
}

// Set 写入配置
func (AppConfigStore) Set(key, value string) error {
	return SetAppConfig(key, value)
}
