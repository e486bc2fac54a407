package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BBBIMAX/feiyu-player/internal/apperr"
	"github.com/BBBIMAX/feiyu-player/internal/fetch"
	"github.com/BBBIMAX/feiyu-player/internal/logging"
	"github.com/BBBIMAX/feiyu-player/internal/model"
	"github.com/BBBIMAX/feiyu-player/internal/store"
)

// 持久化的开关名称
const (
	FlagAllowSexy            = "allowSexy"
	FlagAllowMovieCommentary = "allowMovieCommentary"
)

// Manager 订阅管理器。
// 订阅集合与当前选择只保存在 Hub 的 SubscribesState 快照中；
// 所有修改先写持久化存储，成功后再发布新快照。
type Manager struct {
	storage Storage
	fetcher Fetcher
	content ContentStore
	hub     *store.Hub
	log     *logging.SafeLogger
	now     func() time.Time

	refreshOnInit bool

	// initMu 保护 loaded，加载失败时下次调用重试
	initMu sync.Mutex
	loaded bool
	bg     sync.WaitGroup

	// mu 串行化"写存储 + 发布快照"
	mu sync.Mutex
}

// Option 管理器选项
type Option func(*Manager)

// WithLogger 设置日志
func WithLogger(l *logging.SafeLogger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithClock 设置时间来源
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithRefreshOnInit 设置初始化后是否在后台刷新全部订阅，默认开启
func WithRefreshOnInit(enabled bool) Option {
	return func(m *Manager) {
		m.refreshOnInit = enabled
	}
}

// NewManager 创建订阅管理器
// 参数：
//   - storage: 持久化存储
//   - fetcher: 远程配置获取
//   - content: 分享用的内容存储
//   - hub: 发布订阅快照的响应式存储
func NewManager(storage Storage, fetcher Fetcher, content ContentStore, hub *store.Hub, opts ...Option) *Manager {
	m := &Manager{
		storage:       storage,
		fetcher:       fetcher,
		content:       content,
		hub:           hub,
		log:           logging.NewSafeLogger(nil),
		now:           time.Now,
		refreshOnInit: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init 从持久化存储加载订阅并发布快照，可重复调用。
// 并发调用会等待同一次加载完成。加载失败时仍发布只含默认订阅的快照并返回错误，
// 下次调用会重新加载。首次加载成功后在后台刷新全部订阅，后台任务不受 ctx 取消影响。
func (m *Manager) Init(ctx context.Context) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()
	if m.loaded {
		return nil
	}
	if err := m.load(ctx); err != nil {
		return err
	}
	m.loaded = true
	if m.refreshOnInit {
		m.bg.Add(1)
		go func() {
			defer m.bg.Done()
			m.RefreshAll(context.WithoutCancel(ctx))
		}()
	}
	return nil
}

// Wait 等待后台任务结束
func (m *Manager) Wait() {
	m.bg.Wait()
}

// ensureInit 被动初始化，加载错误已记录日志，快照仍然可用
func (m *Manager) ensureInit(ctx context.Context) {
	_ = m.Init(ctx)
}

// ready 修改前确认已从存储加载。
// 未加载时快照只含默认订阅，据此写入会覆盖存储中的同名记录，因此拒绝修改。
func (m *Manager) ready(ctx context.Context, key string) error {
	if err := m.Init(ctx); err != nil {
		return apperr.New(apperr.CodePersistFailed, key, err)
	}
	return nil
}

func (m *Manager) load(ctx context.Context) error {
	subs := model.NewCollection()
	subs.Set(model.DefaultSubscribe())

	var loadErr error
	records, err := m.storage.GetAll(ctx)
	if err != nil {
		loadErr = fmt.Errorf("订阅管理: 加载订阅失败: %w", err)
		m.log.Error(loadErr.Error())
	}
	for _, r := range records {
		if r == nil || r.Key == "" {
			continue
		}
		subs.Set(r)
	}

	current, err := m.storage.Current(ctx)
	if err != nil {
		m.log.Warn(fmt.Sprintf("订阅管理: 读取当前订阅失败: %v", err))
	}
	if current == "" || !subs.Has(current) {
		current = model.DefaultKey
	}

	allowSexy := m.flag(ctx, FlagAllowSexy)
	allowMovieCommentary := m.flag(ctx, FlagAllowMovieCommentary)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.hub.Set(store.SubscribesKey, &store.SubscribesState{
		Subscribes:           subs,
		CurrentSubscribe:     current,
		AllowSexy:            allowSexy,
		AllowMovieCommentary: allowMovieCommentary,
	})
	m.log.Info(fmt.Sprintf("订阅管理: 已加载 %d 个订阅，当前订阅 %s", subs.Len(), current))
	return loadErr
}

func (m *Manager) flag(ctx context.Context, name string) bool {
	v, err := m.storage.GetFlag(ctx, name)
	if err != nil {
		m.log.Warn(fmt.Sprintf("订阅管理: 读取开关 %s 失败: %v", name, err))
		return false
	}
	return v
}

// live 返回 Hub 中当前的快照（只读）
func (m *Manager) live() *store.SubscribesState {
	st, ok := store.Subscribes(m.hub)
	if !ok || st == nil {
		subs := model.NewCollection()
		subs.Set(model.DefaultSubscribe())
		return &store.SubscribesState{Subscribes: subs, CurrentSubscribe: model.DefaultKey}
	}
	return st
}

// publish 以发布时刻的快照为基础应用修改并写回，调用方需持有 mu
func (m *Manager) publish(apply func(st *store.SubscribesState)) {
	next := m.live().Clone()
	apply(next)
	if !next.Subscribes.Has(model.DefaultKey) {
		next.Subscribes.Set(model.DefaultSubscribe())
	}
	if !next.Subscribes.Has(next.CurrentSubscribe) {
		next.CurrentSubscribe = model.DefaultKey
	}
	m.hub.Set(store.SubscribesKey, next)
}

func (m *Manager) timestamp() int64 {
	return model.Timestamp(m.now())
}

func (m *Manager) warnIfNewer(sub *model.Subscribe) {
	if model.NewerThanCurrent(sub.Feiyu) {
		m.log.Warn(fmt.Sprintf("订阅管理: 订阅 %s 由更新版本 %s 生成，部分配置可能无法识别", sub.Key, sub.Feiyu))
	}
}

// Subscribes 按插入顺序返回所有订阅的副本
func (m *Manager) Subscribes(ctx context.Context) []*model.Subscribe {
	m.ensureInit(ctx)
	values := m.live().Subscribes.Values()
	out := make([]*model.Subscribe, len(values))
	for i, v := range values {
		out[i] = v.Clone()
	}
	return out
}

// Get 返回指定订阅的副本，不存在时返回 nil
func (m *Manager) Get(ctx context.Context, key string) *model.Subscribe {
	m.ensureInit(ctx)
	return m.live().Subscribes.Get(key).Clone()
}

// CurrentKey 返回当前订阅名称
func (m *Manager) CurrentKey(ctx context.Context) string {
	m.ensureInit(ctx)
	return m.live().CurrentSubscribe
}

// Current 返回当前订阅的配置，缺失时返回内置默认配置
func (m *Manager) Current(ctx context.Context) map[string]any {
	m.ensureInit(ctx)
	st := m.live()
	if sub := st.Subscribes.Get(st.CurrentSubscribe); sub != nil {
		return sub.Clone().Config
	}
	return model.DefaultConfig()
}

// SetCurrent 切换当前订阅
func (m *Manager) SetCurrent(ctx context.Context, key string) error {
	if err := m.ready(ctx, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.live().Subscribes.Has(key) {
		return apperr.New(apperr.CodeNotFound, key, nil)
	}
	if err := m.storage.SetCurrent(ctx, key); err != nil {
		return apperr.New(apperr.CodePersistFailed, key, err)
	}
	m.publish(func(st *store.SubscribesState) {
		st.CurrentSubscribe = key
	})
	return nil
}

// AddSubscribe 添加订阅。
// configOrURL 为 http/https 地址时从该地址获取配置并记录链接，否则按 JSON 文本解析。
// 名称已存在返回 SubscribeExists；链接已被使用返回 LinkExists（Key 为占用者）；
// 配置无效返回 InvalidConfig；获取失败返回 FetchFailed；写入失败返回 PersistFailed。
func (m *Manager) AddSubscribe(ctx context.Context, key, configOrURL string) (*model.Subscribe, error) {
	if err := m.ready(ctx, key); err != nil {
		return nil, err
	}

	st := m.live()
	if st.Subscribes.Has(key) {
		return nil, apperr.New(apperr.CodeSubscribeExists, key, nil)
	}

	var raw any
	link := ""
	if isValidURL(configOrURL) {
		link = strings.TrimSpace(configOrURL)
		if owner := st.Subscribes.LinkOwner(link); owner != "" {
			return nil, apperr.New(apperr.CodeLinkExists, owner, nil)
		}
		v, err := m.fetcher.GetJSON(ctx, link, fetch.Options{Cache: false})
		if err != nil {
			return nil, apperr.New(apperr.CodeFetchFailed, key, err)
		}
		raw = v
	} else if err := json.Unmarshal([]byte(configOrURL), &raw); err != nil {
		return nil, apperr.New(apperr.CodeInvalidConfig, key, err)
	}

	cfg, ok := model.AsConfig(raw)
	if !ok {
		return nil, apperr.New(apperr.CodeInvalidConfig, key, model.ErrMissingMarker)
	}
	sub := &model.Subscribe{
		Feiyu:      model.Version,
		Key:        key,
		Link:       link,
		LastUpdate: m.timestamp(),
		Config:     cfg,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// 获取期间可能有并发的添加
	st = m.live()
	if st.Subscribes.Has(key) {
		return nil, apperr.New(apperr.CodeSubscribeExists, key, nil)
	}
	if owner := st.Subscribes.LinkOwner(link); owner != "" {
		return nil, apperr.New(apperr.CodeLinkExists, owner, nil)
	}

	if err := m.storage.Set(ctx, key, sub); err != nil {
		return nil, apperr.New(apperr.CodePersistFailed, key, err)
	}
	m.publish(func(st *store.SubscribesState) {
		st.Subscribes.Set(sub.Clone())
	})
	m.log.Info(fmt.Sprintf("订阅管理: 已添加订阅 %s", key))
	return sub.Clone(), nil
}

// RefreshSubscribe 重新获取订阅配置。
// 没有链接的本地订阅直接返回 nil，不请求也不修改更新时间。
// 获取期间订阅被删除或链接被修改时，结果被丢弃并返回 NotFound。
func (m *Manager) RefreshSubscribe(ctx context.Context, key string) error {
	if err := m.ready(ctx, key); err != nil {
		return err
	}

	old := m.live().Subscribes.Get(key)
	if old == nil {
		return apperr.New(apperr.CodeNotFound, key, nil)
	}
	if old.Link == "" {
		return nil
	}
	link := old.Link

	raw, err := m.fetcher.GetJSON(ctx, link, fetch.Options{Cache: false})
	if err != nil {
		return apperr.New(apperr.CodeFetchFailed, key, err)
	}
	cfg, ok := model.AsConfig(raw)
	if !ok {
		return apperr.New(apperr.CodeInvalidConfig, key, model.ErrMissingMarker)
	}
	sub := &model.Subscribe{
		Feiyu:      model.Version,
		Key:        key,
		Link:       link,
		LastUpdate: m.timestamp(),
		Config:     cfg,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.live().Subscribes.Get(key)
	if cur == nil || cur.Link != link {
		return apperr.New(apperr.CodeNotFound, key, fmt.Errorf("订阅在刷新期间已变更"))
	}
	if err := m.storage.Set(ctx, key, sub); err != nil {
		return apperr.New(apperr.CodePersistFailed, key, err)
	}
	m.publish(func(st *store.SubscribesState) {
		st.Subscribes.Set(sub)
	})
	m.log.Info(fmt.Sprintf("订阅管理: 已刷新订阅 %s", key))
	return nil
}

// RefreshAll 并发刷新全部订阅，失败只记录日志
func (m *Manager) RefreshAll(ctx context.Context) {
	m.ensureInit(ctx)

	var wg sync.WaitGroup
	for _, key := range m.live().Subscribes.Keys() {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if err := m.RefreshSubscribe(ctx, key); err != nil {
				m.log.Warn(fmt.Sprintf("订阅管理: 刷新订阅 %s 失败: %v", key, err))
			}
		}(key)
	}
	wg.Wait()
}

// EditSubscribe 覆盖已有订阅的内容并更新时间。
// 新链接已被其他订阅使用时返回 LinkExists（Key 为占用者）。
func (m *Manager) EditSubscribe(ctx context.Context, sub *model.Subscribe) error {
	if sub == nil {
		return apperr.New(apperr.CodeInvalidConfig, "", nil)
	}
	if err := m.ready(ctx, sub.Key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.live()
	if !st.Subscribes.Has(sub.Key) {
		return apperr.New(apperr.CodeNotFound, sub.Key, nil)
	}
	if owner := st.Subscribes.LinkOwner(sub.Link); owner != "" && owner != sub.Key {
		return apperr.New(apperr.CodeLinkExists, owner, nil)
	}
	next := sub.Clone()
	next.LastUpdate = m.timestamp()
	if err := m.storage.Set(ctx, next.Key, next); err != nil {
		return apperr.New(apperr.CodePersistFailed, next.Key, err)
	}
	m.publish(func(st *store.SubscribesState) {
		st.Subscribes.Set(next)
	})
	return nil
}

// Remove 删除订阅并把当前选择重置为默认订阅。
// 删除默认订阅会清除其持久化的覆盖内容，内置默认订阅随即恢复。
func (m *Manager) Remove(ctx context.Context, key string) error {
	if err := m.ready(ctx, key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.storage.Remove(ctx, key); err != nil {
		return apperr.New(apperr.CodePersistFailed, key, err)
	}
	if err := m.storage.SetCurrent(ctx, model.DefaultKey); err != nil {
		return apperr.New(apperr.CodePersistFailed, key, err)
	}
	m.publish(func(st *store.SubscribesState) {
		st.Subscribes.Delete(key)
		st.CurrentSubscribe = model.DefaultKey
	})
	m.log.Info(fmt.Sprintf("订阅管理: 已删除订阅 %s", key))
	return nil
}

// Clear 删除全部订阅，只保留默认订阅
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.ready(ctx, ""); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.storage.Clear(ctx); err != nil {
		return apperr.New(apperr.CodePersistFailed, "", err)
	}
	if err := m.storage.SetCurrent(ctx, model.DefaultKey); err != nil {
		return apperr.New(apperr.CodePersistFailed, "", err)
	}
	m.publish(func(st *store.SubscribesState) {
		st.Subscribes = model.NewCollection()
		st.Subscribes.Set(model.DefaultSubscribe())
		st.CurrentSubscribe = model.DefaultKey
	})
	m.log.Info("订阅管理: 已清空订阅")
	return nil
}
