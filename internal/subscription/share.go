package subscription

import (
	"context"
	"fmt"

	"github.com/BBBIMAX/feiyu-player/internal/apperr"
	"github.com/BBBIMAX/feiyu-player/internal/fetch"
	"github.com/BBBIMAX/feiyu-player/internal/model"
	"github.com/BBBIMAX/feiyu-player/internal/store"
)

// ExportSubscribe 把订阅的配置写入内容存储并返回分享地址
func (m *Manager) ExportSubscribe(ctx context.Context, key string) (string, error) {
	m.ensureInit(ctx)

	sub := m.live().Subscribes.Get(key)
	if sub == nil {
		return "", apperr.New(apperr.CodeNotFound, key, nil)
	}
	return m.write(ctx, key, sub.Config)
}

// ExportSubscribes 把全部订阅按插入顺序的逆序（最新在前）写入内容存储并返回分享地址。
// ImportSubscribes 从列表末尾开始追加，导入后恢复原来的插入顺序。
func (m *Manager) ExportSubscribes(ctx context.Context) (string, error) {
	m.ensureInit(ctx)

	values := m.live().Subscribes.Values()
	list := make([]*model.Subscribe, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		list = append(list, values[i])
	}
	return m.write(ctx, "", list)
}

func (m *Manager) write(ctx context.Context, key string, v any) (string, error) {
	cid, err := m.content.WriteJSON(ctx, v, true)
	if err != nil {
		return "", apperr.New(apperr.CodeWriteFailed, key, err)
	}
	if cid == "" {
		return "", apperr.New(apperr.CodeWriteFailed, key, fmt.Errorf("内容存储未返回标识"))
	}
	return m.content.URL(cid), nil
}

// ImportSubscribes 从地址导入订阅列表，返回导入数量。
// 列表按最新在前排列，从末尾开始逐条追加。响应不是数组时返回 0。
// 名称冲突时追加后缀，链接已存在的记录（包括本次先导入的）被跳过。
func (m *Manager) ImportSubscribes(ctx context.Context, url string) (int, error) {
	if err := m.ready(ctx, ""); err != nil {
		return 0, err
	}

	raw, err := m.fetcher.GetJSON(ctx, url, fetch.Options{Cache: false})
	if err != nil {
		return 0, apperr.New(apperr.CodeFetchFailed, "", err)
	}
	list, ok := raw.([]any)
	if !ok {
		m.log.Warn(fmt.Sprintf("订阅管理: %s 的内容不是订阅列表", url))
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	working := m.live().Subscribes.Clone()
	var imported []*model.Subscribe
	for i := len(list) - 1; i >= 0; i-- {
		sub, err := model.DecodeRecord(list[i])
		if err != nil {
			m.log.Debug(fmt.Sprintf("订阅管理: 跳过第 %d 条记录: %v", i, err))
			continue
		}
		m.warnIfNewer(sub)

		sub.Key = working.UniqueKey(sub.Key)
		if owner := working.LinkOwner(sub.Link); owner != "" {
			m.log.Debug(fmt.Sprintf("订阅管理: 跳过 %s，链接已被 %s 使用", sub.Key, owner))
			continue
		}
		if err := m.storage.Set(ctx, sub.Key, sub); err != nil {
			m.log.Error(fmt.Sprintf("订阅管理: 保存导入的订阅 %s 失败: %v", sub.Key, err))
			continue
		}
		working.Set(sub)
		imported = append(imported, sub)
	}

	if len(imported) > 0 {
		m.publish(func(st *store.SubscribesState) {
			for _, sub := range imported {
				st.Subscribes.Set(sub)
			}
		})
		m.log.Info(fmt.Sprintf("订阅管理: 从 %s 导入 %d 个订阅", url, len(imported)))
	}
	return len(imported), nil
}
