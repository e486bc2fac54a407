package service

import (
	"context"
	"fmt"

	"golang.org/x/text/language"

	"github.com/BBBIMAX/feiyu-player/internal/apperr"
	"github.com/BBBIMAX/feiyu-player/internal/model"
	"github.com/BBBIMAX/feiyu-player/internal/subscription"
)

// SubscriptionService 订阅服务层，把订阅管理器的结果转换为界面提示。
type SubscriptionService struct {
	manager *subscription.Manager
	config  *ConfigService
}

// NewSubscriptionService 创建新的订阅服务实例。
// 参数：
//   - manager: 订阅管理器
//   - config: 配置服务，用于确定提示语言（可选）
//
// 返回：初始化后的 SubscriptionService 实例
func NewSubscriptionService(manager *subscription.Manager, config *ConfigService) *SubscriptionService {
	return &SubscriptionService{
		manager: manager,
		config:  config,
	}
}

// Manager 返回底层的订阅管理器
func (ss *SubscriptionService) Manager() *subscription.Manager {
	return ss.manager
}

func (ss *SubscriptionService) lang() language.Tag {
	if ss.config == nil {
		return language.SimplifiedChinese
	}
	return ss.config.LanguageTag()
}

// Message 返回错误对应的提示，err 为 nil 时为成功提示
func (ss *SubscriptionService) Message(err error) string {
	return apperr.Message(err, ss.lang())
}

// Add 添加订阅。
// 参数：
//   - key: 订阅名称
//   - configOrURL: 订阅地址或 JSON 配置
//
// 返回：提示文本和错误（如果有）
func (ss *SubscriptionService) Add(ctx context.Context, key, configOrURL string) (string, error) {
	if ss.manager == nil {
		return "", fmt.Errorf("订阅管理器未初始化，无法添加订阅")
	}
	_, err := ss.manager.AddSubscribe(ctx, key, configOrURL)
	return ss.Message(err), err
}

// Import 从地址导入订阅列表。
// 返回：提示文本和错误（如果有）
func (ss *SubscriptionService) Import(ctx context.Context, url string) (string, error) {
	if ss.manager == nil {
		return "", fmt.Errorf("订阅管理器未初始化，无法导入订阅")
	}
	n, err := ss.manager.ImportSubscribes(ctx, url)
	if err != nil {
		return ss.Message(err), err
	}
	return apperr.ImportMessage(n, ss.lang()), nil
}

// Export 导出订阅，key 为空时导出全部订阅。
// 返回：分享地址和错误（如果有）
func (ss *SubscriptionService) Export(ctx context.Context, key string) (string, error) {
	if ss.manager == nil {
		return "", fmt.Errorf("订阅管理器未初始化，无法导出订阅")
	}
	if key == "" {
		return ss.manager.ExportSubscribes(ctx)
	}
	return ss.manager.ExportSubscribe(ctx, key)
}

// Refresh 刷新订阅，key 为空时刷新全部订阅。
func (ss *SubscriptionService) Refresh(ctx context.Context, key string) error {
	if ss.manager == nil {
		return fmt.Errorf("订阅管理器未初始化，无法刷新订阅")
	}
	if key == "" {
		ss.manager.RefreshAll(ctx)
		return nil
	}
	return ss.manager.RefreshSubscribe(ctx, key)
}

// BlockedCategories 根据当前订阅配置和过滤开关返回需要隐藏的分类名称。
// 分类来自配置的 filter.sexy 与 filter.movieCommentary，对应开关打开时不过滤。
func (ss *SubscriptionService) BlockedCategories(ctx context.Context) []string {
	if ss.manager == nil {
		return nil
	}
	filter, _ := ss.manager.Current(ctx)["filter"].(map[string]any)
	if filter == nil {
		filter, _ = model.DefaultConfig()["filter"].(map[string]any)
	}

	var out []string
	if !ss.manager.AllowSexy(ctx) {
		out = append(out, stringList(filter["sexy"])...)
	}
	if !ss.manager.AllowMovieCommentary(ctx) {
		out = append(out, stringList(filter["movieCommentary"])...)
	}
	return out
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
