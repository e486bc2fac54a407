package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BBBIMAX/feiyu-player/internal/apperr"
	"github.com/BBBIMAX/feiyu-player/internal/fetch"
	"github.com/BBBIMAX/feiyu-player/internal/model"
	"github.com/BBBIMAX/feiyu-player/internal/store"
)

var errBoom = errors.New("boom")

// memStorage 内存实现的 Storage，可注入错误
type memStorage struct {
	mu      sync.Mutex
	subs    *model.Collection
	current string
	flags   map[string]bool

	getAllCalls int
	setCalls    int

	getAllErr error
	setErr    error
	removeErr error
	clearErr  error
}

func newMemStorage(subs ...*model.Subscribe) *memStorage {
	s := &memStorage{subs: model.NewCollection(), flags: map[string]bool{}}
	for _, sub := range subs {
		s.subs.Set(sub)
	}
	return s
}

func (s *memStorage) GetAll(ctx context.Context) ([]*model.Subscribe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getAllCalls++
	if s.getAllErr != nil {
		return nil, s.getAllErr
	}
	var out []*model.Subscribe
	for _, v := range s.subs.Values() {
		out = append(out, v.Clone())
	}
	return out, nil
}

func (s *memStorage) Set(ctx context.Context, key string, sub *model.Subscribe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalls++
	if s.setErr != nil {
		return s.setErr
	}
	s.subs.Set(sub.Clone())
	return nil
}

func (s *memStorage) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeErr != nil {
		return s.removeErr
	}
	s.subs.Delete(key)
	return nil
}

func (s *memStorage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearErr != nil {
		return s.clearErr
	}
	s.subs = model.NewCollection()
	return nil
}

func (s *memStorage) Current(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, nil
}

func (s *memStorage) SetCurrent(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = key
	return nil
}

func (s *memStorage) GetFlag(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[name], nil
}

func (s *memStorage) SetFlag(ctx context.Context, name string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.flags[name] = value
	return nil
}

func (s *memStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs.Has(key)
}

// memFetcher 按地址返回预设的 JSON 文本
type memFetcher struct {
	mu    sync.Mutex
	body  map[string]string
	calls map[string]int

	// hold 非空时请求进入后通知 entered 并等待 hold 关闭
	hold    chan struct{}
	entered chan string
}

func newMemFetcher() *memFetcher {
	return &memFetcher{body: map[string]string{}, calls: map[string]int{}}
}

func (f *memFetcher) set(url, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body[url] = body
}

func (f *memFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *memFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *memFetcher) GetJSON(ctx context.Context, url string, opts fetch.Options) (any, error) {
	f.mu.Lock()
	f.calls[url]++
	body, ok := f.body[url]
	hold, entered := f.hold, f.entered
	f.mu.Unlock()

	if hold != nil {
		entered <- url
		<-hold
	}
	if !ok {
		return nil, &fetch.StatusError{URL: url, StatusCode: 404}
	}
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// memContent 把写入的 JSON 保存在内存中
type memContent struct {
	mu    sync.Mutex
	blobs map[string][]byte
	pins  map[string]bool
	err   error
	empty bool
}

func newMemContent() *memContent {
	return &memContent{blobs: map[string][]byte{}, pins: map[string]bool{}}
}

func (c *memContent) WriteJSON(ctx context.Context, v any, pin bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	if c.empty {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	cid := fmt.Sprintf("cid-%d", len(c.blobs)+1)
	c.blobs[cid] = data
	c.pins[cid] = pin
	return cid, nil
}

func (c *memContent) URL(cid string) string {
	return "mem://" + cid
}

func (c *memContent) blob(url string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.blobs[url[len("mem://"):]])
}

var fixedNow = time.UnixMilli(1718000000000)

type harness struct {
	storage *memStorage
	fetcher *memFetcher
	content *memContent
	hub     *store.Hub
	mgr     *Manager
}

func newHarness(t *testing.T, storage *memStorage, opts ...Option) *harness {
	t.Helper()
	test.NewTempApp(t)
	if storage == nil {
		storage = newMemStorage()
	}
	h := &harness{
		storage: storage,
		fetcher: newMemFetcher(),
		content: newMemContent(),
		hub:     store.NewHub(),
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow }), WithRefreshOnInit(false)}, opts...)
	h.mgr = NewManager(h.storage, h.fetcher, h.content, h.hub, opts...)
	return h
}

func (h *harness) keys() []string {
	st, _ := store.Subscribes(h.hub)
	return st.Subscribes.Keys()
}

func record(key, link string, extra map[string]any) *model.Subscribe {
	cfg := map[string]any{"feiyu": model.Version}
	for k, v := range extra {
		cfg[k] = v
	}
	return &model.Subscribe{Feiyu: model.Version, Key: key, Link: link, LastUpdate: 100, Config: cfg}
}

func TestInitConcurrentCallsLoadOnce(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.mgr.Init(ctx))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, h.storage.getAllCalls)
	assert.Equal(t, []string{model.DefaultKey}, h.keys())
}

func TestInitMergesStoredAndFallsBackCurrent(t *testing.T) {
	override := record(model.DefaultKey, "", map[string]any{"custom": true})
	storage := newMemStorage(record("A", "", nil), override)
	storage.current = "gone"
	storage.flags[FlagAllowSexy] = true
	h := newHarness(t, storage)
	ctx := context.Background()

	require.NoError(t, h.mgr.Init(ctx))

	assert.Equal(t, []string{model.DefaultKey, "A"}, h.keys())
	assert.Equal(t, model.DefaultKey, h.mgr.CurrentKey(ctx))
	assert.Equal(t, true, h.mgr.Get(ctx, model.DefaultKey).Config["custom"])
	assert.Equal(t, true, h.mgr.Current(ctx)["custom"])

	st, ok := store.Subscribes(h.hub)
	require.True(t, ok)
	assert.True(t, st.AllowSexy)
	assert.False(t, st.AllowMovieCommentary)
}

func TestInitStorageFailureRetries(t *testing.T) {
	storage := newMemStorage(record("A", "", map[string]any{"mine": "precious"}))
	storage.getAllErr = errBoom
	h := newHarness(t, storage)
	ctx := context.Background()

	err := h.mgr.Init(ctx)
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{model.DefaultKey}, h.keys())

	// 未加载成功前拒绝修改，存储中的同名记录保持不变
	_, err = h.mgr.AddSubscribe(ctx, "A", `{"feiyu":"1.0.0","mine":"clobbered"}`)
	require.ErrorIs(t, err, apperr.ErrPersistFailed)
	require.ErrorIs(t, err, errBoom)
	assert.ErrorIs(t, h.mgr.Clear(ctx), apperr.ErrPersistFailed)
	assert.Zero(t, storage.setCalls)
	assert.True(t, storage.has("A"))

	storage.mu.Lock()
	storage.getAllErr = nil
	storage.mu.Unlock()

	require.NoError(t, h.mgr.Init(ctx))
	assert.Equal(t, []string{model.DefaultKey, "A"}, h.keys())

	_, err = h.mgr.AddSubscribe(ctx, "A", `{"feiyu":"1.0.0","mine":"clobbered"}`)
	require.ErrorIs(t, err, apperr.ErrSubscribeExists)
	assert.Equal(t, "precious", h.mgr.Get(ctx, "A").Config["mine"])

	calls := storage.getAllCalls
	require.NoError(t, h.mgr.Init(ctx))
	assert.Equal(t, calls, storage.getAllCalls)
}

func TestInitRefreshesInBackground(t *testing.T) {
	storage := newMemStorage(record("R", "https://example.com/r.json", map[string]any{"rev": 1.0}))
	h := newHarness(t, storage, WithRefreshOnInit(true))
	h.fetcher.set("https://example.com/r.json", `{"feiyu":"1.0.0","rev":2}`)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, h.mgr.Init(ctx))
	cancel()
	h.mgr.Wait()

	got := h.mgr.Get(context.Background(), "R")
	require.NotNil(t, got)
	assert.Equal(t, 2.0, got.Config["rev"])
	assert.Equal(t, model.Timestamp(fixedNow), got.LastUpdate)
}

func TestAddSubscribeDefaultKeyExists(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.mgr.AddSubscribe(ctx, model.DefaultKey, `{"feiyu":"1.0.0"}`)
	require.ErrorIs(t, err, apperr.ErrSubscribeExists)
	assert.Equal(t, "订阅已存在，请重命名", apperr.Message(err, apperr.Lang("zh")))
	assert.Equal(t, []string{model.DefaultKey}, h.keys())
	assert.Zero(t, h.storage.setCalls)
}

func TestAddSubscribeFromURL(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.fetcher.set("https://example.com/a.json", `{"feiyu":"1.0.0","sites":{"api":[]}}`)

	sub, err := h.mgr.AddSubscribe(ctx, "A", " https://example.com/a.json ")
	require.NoError(t, err)

	want := &model.Subscribe{
		Feiyu:      model.Version,
		Key:        "A",
		Link:       "https://example.com/a.json",
		LastUpdate: model.Timestamp(fixedNow),
		Config:     map[string]any{"feiyu": "1.0.0", "sites": map[string]any{"api": []any{}}},
	}
	if diff := cmp.Diff(want, sub); diff != "" {
		t.Fatalf("added subscription mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{model.DefaultKey, "A"}, h.keys())
	assert.True(t, h.storage.has("A"))
	assert.Equal(t, 1, h.fetcher.count("https://example.com/a.json"))
	assert.Equal(t, model.DefaultKey, h.mgr.CurrentKey(ctx))
}

func TestAddSubscribeLocalJSON(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	sub, err := h.mgr.AddSubscribe(ctx, "L", `{"feiyu":"1.0.0","x":1}`)
	require.NoError(t, err)
	assert.Empty(t, sub.Link)
	assert.Zero(t, h.fetcher.total())
	assert.Equal(t, 1.0, h.mgr.Get(ctx, "L").Config["x"])
}

func TestAddSubscribeDuplicateLink(t *testing.T) {
	storage := newMemStorage(record("Owner", "https://example.com/a.json", nil))
	h := newHarness(t, storage)
	ctx := context.Background()

	_, err := h.mgr.AddSubscribe(ctx, "Other", "https://example.com/a.json")
	require.ErrorIs(t, err, apperr.ErrLinkExists)
	assert.Equal(t, "Owner", apperr.KeyOf(err))
	assert.Equal(t, "订阅已存在，请先删除：Owner", apperr.Message(err, apperr.Lang("zh")))
	assert.Zero(t, h.fetcher.total())
	assert.False(t, h.mgr.live().Subscribes.Has("Other"))
}

func TestAddSubscribeFailures(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		setup   func(h *harness)
		wantErr error
	}{
		{
			name:    "非 JSON 文本",
			input:   "not json",
			wantErr: apperr.ErrInvalidConfig,
		},
		{
			name:    "缺少标记",
			input:   `{"sites":{}}`,
			wantErr: apperr.ErrInvalidConfig,
		},
		{
			name:    "标记为假值",
			input:   `{"feiyu":0}`,
			wantErr: apperr.ErrInvalidConfig,
		},
		{
			name:    "数组",
			input:   `[{"feiyu":"1.0.0"}]`,
			wantErr: apperr.ErrInvalidConfig,
		},
		{
			name:    "远程返回无标记配置",
			input:   "https://example.com/bad.json",
			setup:   func(h *harness) { h.fetcher.set("https://example.com/bad.json", `{"feiyu":""}`) },
			wantErr: apperr.ErrInvalidConfig,
		},
		{
			name:    "请求失败",
			input:   "https://example.com/missing.json",
			wantErr: apperr.ErrFetchFailed,
		},
		{
			name:    "写入失败",
			input:   `{"feiyu":"1.0.0"}`,
			setup:   func(h *harness) { h.storage.setErr = errBoom },
			wantErr: apperr.ErrPersistFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			if tt.setup != nil {
				tt.setup(h)
			}
			ctx := context.Background()
			require.NoError(t, h.mgr.Init(ctx))
			before, _ := store.Subscribes(h.hub)

			_, err := h.mgr.AddSubscribe(ctx, "X", tt.input)
			require.ErrorIs(t, err, tt.wantErr)

			after, _ := store.Subscribes(h.hub)
			assert.Same(t, before, after, "failed add must not publish")
			assert.False(t, h.storage.has("X"))
		})
	}
}

func TestRefreshLocalSubscribeIsNoop(t *testing.T) {
	storage := newMemStorage(record("L", "", nil))
	h := newHarness(t, storage)
	ctx := context.Background()

	require.NoError(t, h.mgr.RefreshSubscribe(ctx, "L"))
	assert.Zero(t, h.fetcher.total())
	assert.Equal(t, int64(100), h.mgr.Get(ctx, "L").LastUpdate)
}

func TestRefreshRemoteSubscribe(t *testing.T) {
	storage := newMemStorage(record("R", "https://example.com/r.json", map[string]any{"rev": 1.0}))
	h := newHarness(t, storage)
	ctx := context.Background()
	h.fetcher.set("https://example.com/r.json", `{"feiyu":"1.0.0","rev":2}`)

	require.NoError(t, h.mgr.RefreshSubscribe(ctx, "R"))
	got := h.mgr.Get(ctx, "R")
	assert.Equal(t, 2.0, got.Config["rev"])
	assert.Equal(t, "https://example.com/r.json", got.Link)
	assert.Equal(t, model.Timestamp(fixedNow), got.LastUpdate)

	err := h.mgr.RefreshSubscribe(ctx, "unknown")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRefreshDiscardedWhenRemovedDuringFetch(t *testing.T) {
	storage := newMemStorage(record("R", "https://example.com/r.json", nil))
	h := newHarness(t, storage)
	ctx := context.Background()
	require.NoError(t, h.mgr.Init(ctx))
	h.fetcher.set("https://example.com/r.json", `{"feiyu":"1.0.0","rev":2}`)
	h.fetcher.hold = make(chan struct{})
	h.fetcher.entered = make(chan string, 1)

	errc := make(chan error, 1)
	go func() {
		errc <- h.mgr.RefreshSubscribe(ctx, "R")
	}()
	<-h.fetcher.entered
	require.NoError(t, h.mgr.Remove(ctx, "R"))
	close(h.fetcher.hold)

	assert.ErrorIs(t, <-errc, apperr.ErrNotFound)
	assert.Nil(t, h.mgr.Get(ctx, "R"))
	assert.False(t, h.storage.has("R"))
}

func TestRefreshAllKeepsEveryUpdate(t *testing.T) {
	storage := newMemStorage()
	h := newHarness(t, storage)
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		url := fmt.Sprintf("https://example.com/%d.json", i)
		storage.subs.Set(record(fmt.Sprintf("S%d", i), url, map[string]any{"rev": 1.0}))
		h.fetcher.set(url, fmt.Sprintf(`{"feiyu":"1.0.0","rev":2,"n":%d}`, i))
	}
	// 一个本地订阅和一个失败的远程订阅
	storage.subs.Set(record("local", "", nil))
	storage.subs.Set(record("broken", "https://example.com/broken.json", nil))

	h.mgr.RefreshAll(ctx)

	for i := 0; i < 8; i++ {
		got := h.mgr.Get(ctx, fmt.Sprintf("S%d", i))
		require.NotNil(t, got)
		assert.Equal(t, 2.0, got.Config["rev"])
		assert.Equal(t, float64(i), got.Config["n"])
	}
	assert.Equal(t, int64(100), h.mgr.Get(ctx, "local").LastUpdate)
	assert.Equal(t, int64(100), h.mgr.Get(ctx, "broken").LastUpdate)
	assert.Len(t, h.mgr.Subscribes(ctx), 11)
}

func TestEditSubscribe(t *testing.T) {
	storage := newMemStorage(record("A", "", nil))
	h := newHarness(t, storage)
	ctx := context.Background()

	edited := record("A", "", map[string]any{"note": "edited"})
	require.NoError(t, h.mgr.EditSubscribe(ctx, edited))
	got := h.mgr.Get(ctx, "A")
	assert.Equal(t, "edited", got.Config["note"])
	assert.Equal(t, model.Timestamp(fixedNow), got.LastUpdate)

	err := h.mgr.EditSubscribe(ctx, record("missing", "", nil))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestEditSubscribeLinkExists(t *testing.T) {
	storage := newMemStorage(record("A", "https://x/a.json", nil), record("B", "", nil))
	h := newHarness(t, storage)
	ctx := context.Background()

	err := h.mgr.EditSubscribe(ctx, record("B", "https://x/a.json", map[string]any{"note": "b"}))
	require.ErrorIs(t, err, apperr.ErrLinkExists)
	assert.Equal(t, "A", apperr.KeyOf(err))
	assert.Empty(t, h.mgr.Get(ctx, "B").Link)
	assert.Zero(t, storage.setCalls)

	// 保留自己的链接可以编辑
	require.NoError(t, h.mgr.EditSubscribe(ctx, record("A", "https://x/a.json", map[string]any{"note": "a"})))
	assert.Equal(t, "a", h.mgr.Get(ctx, "A").Config["note"])
}

func TestSetCurrent(t *testing.T) {
	storage := newMemStorage(record("A", "", map[string]any{"which": "A"}))
	h := newHarness(t, storage)
	ctx := context.Background()

	require.NoError(t, h.mgr.SetCurrent(ctx, "A"))
	assert.Equal(t, "A", h.mgr.CurrentKey(ctx))
	assert.Equal(t, "A", h.mgr.Current(ctx)["which"])
	assert.Equal(t, "A", storage.current)

	assert.ErrorIs(t, h.mgr.SetCurrent(ctx, "missing"), apperr.ErrNotFound)
	assert.Equal(t, "A", h.mgr.CurrentKey(ctx))
}

func TestRemove(t *testing.T) {
	storage := newMemStorage(record("A", "", nil), record("B", "", nil))
	storage.current = "A"
	h := newHarness(t, storage)
	ctx := context.Background()
	require.Equal(t, "A", h.mgr.CurrentKey(ctx))

	require.NoError(t, h.mgr.Remove(ctx, "A"))
	assert.Equal(t, []string{model.DefaultKey, "B"}, h.keys())
	assert.Equal(t, model.DefaultKey, h.mgr.CurrentKey(ctx))
	assert.Equal(t, model.DefaultKey, storage.current)
	assert.False(t, storage.has("A"))
}

func TestRemoveDefaultRestoresBuiltin(t *testing.T) {
	storage := newMemStorage(record(model.DefaultKey, "", map[string]any{"custom": true}))
	h := newHarness(t, storage)
	ctx := context.Background()
	require.Equal(t, true, h.mgr.Current(ctx)["custom"])

	require.NoError(t, h.mgr.Remove(ctx, model.DefaultKey))
	got := h.mgr.Get(ctx, model.DefaultKey)
	require.NotNil(t, got)
	if diff := cmp.Diff(model.DefaultSubscribe(), got); diff != "" {
		t.Fatalf("default subscription mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveFailureKeepsState(t *testing.T) {
	storage := newMemStorage(record("A", "", nil))
	storage.removeErr = errBoom
	h := newHarness(t, storage)
	ctx := context.Background()

	err := h.mgr.Remove(ctx, "A")
	require.ErrorIs(t, err, apperr.ErrPersistFailed)
	require.ErrorIs(t, err, errBoom)
	assert.NotNil(t, h.mgr.Get(ctx, "A"))
}

func TestClear(t *testing.T) {
	storage := newMemStorage(record("A", "", nil), record("B", "https://example.com/b.json", nil))
	storage.current = "B"
	h := newHarness(t, storage)
	ctx := context.Background()

	require.NoError(t, h.mgr.Clear(ctx))
	assert.Equal(t, []string{model.DefaultKey}, h.keys())
	assert.Equal(t, model.DefaultKey, h.mgr.CurrentKey(ctx))
	assert.Empty(t, storage.subs.Values())
}

func TestToggleFlags(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	v, err := h.mgr.ToggleAllowSexy(ctx)
	require.NoError(t, err)
	assert.True(t, v)
	assert.True(t, h.mgr.AllowSexy(ctx))

	st, _ := store.Subscribes(h.hub)
	assert.True(t, st.AllowSexy)

	v, err = h.mgr.ToggleAllowMovieCommentary(ctx)
	require.NoError(t, err)
	assert.True(t, v)
	v, err = h.mgr.ToggleAllowMovieCommentary(ctx)
	require.NoError(t, err)
	assert.False(t, v)
	assert.False(t, h.mgr.AllowMovieCommentary(ctx))

	h.storage.setErr = errBoom
	_, err = h.mgr.ToggleAllowSexy(ctx)
	assert.ErrorIs(t, err, apperr.ErrPersistFailed)
	assert.True(t, h.mgr.AllowSexy(ctx))
}

func TestExportSubscribe(t *testing.T) {
	storage := newMemStorage(record("A", "", map[string]any{"x": "y"}))
	h := newHarness(t, storage)
	ctx := context.Background()

	url, err := h.mgr.ExportSubscribe(ctx, "A")
	require.NoError(t, err)
	assert.JSONEq(t, `{"feiyu":"1.0.0","x":"y"}`, h.content.blob(url))
	assert.True(t, h.content.pins["cid-1"])

	_, err = h.mgr.ExportSubscribe(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	h.content.empty = true
	_, err = h.mgr.ExportSubscribe(ctx, "A")
	assert.ErrorIs(t, err, apperr.ErrWriteFailed)

	h.content.empty = false
	h.content.err = errBoom
	_, err = h.mgr.ExportSubscribes(ctx)
	assert.ErrorIs(t, err, apperr.ErrWriteFailed)
}

func TestExportSubscribesNewestFirst(t *testing.T) {
	storage := newMemStorage(record("A", "", nil), record("B", "", nil))
	h := newHarness(t, storage)
	ctx := context.Background()

	url, err := h.mgr.ExportSubscribes(ctx)
	require.NoError(t, err)

	var list []model.Subscribe
	require.NoError(t, json.Unmarshal([]byte(h.content.blob(url)), &list))
	var keys []string
	for _, s := range list {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, []string{"B", "A", model.DefaultKey}, keys)
}

func TestImportNonArrayReturnsZero(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.fetcher.set("https://example.com/obj.json", `{"feiyu":"1.0.0"}`)

	n, err := h.mgr.ImportSubscribes(ctx, "https://example.com/obj.json")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []string{model.DefaultKey}, h.keys())

	_, err = h.mgr.ImportSubscribes(ctx, "https://example.com/missing.json")
	assert.ErrorIs(t, err, apperr.ErrFetchFailed)
}

func TestImportRenamesAndSkipsDuplicateLinks(t *testing.T) {
	storage := newMemStorage(record("A", "https://example.com/a.json", nil))
	h := newHarness(t, storage)
	ctx := context.Background()
	// 列表最新在前，从末尾开始导入
	h.fetcher.set("https://example.com/list.json", `[
		{"feiyu":"1.0.0","key":"D","link":"https://example.com/c.json","lastUpdate":5,"config":{"feiyu":"1.0.0"}},
		{"feiyu":"1.0.0","key":"C","link":"https://example.com/c.json","lastUpdate":4,"config":{"feiyu":"1.0.0"}},
		{"feiyu":"1.0.0","key":"B","link":"https://example.com/a.json","lastUpdate":3,"config":{"feiyu":"1.0.0"}},
		{"feiyu":"","key":"bad","lastUpdate":2,"config":{"feiyu":"1.0.0"}},
		{"feiyu":"1.0.0","key":"nocfg","lastUpdate":2,"config":{"feiyu":false}},
		"junk",
		{"feiyu":"1.0.0","lastUpdate":1,"config":{"feiyu":"1.0.0"}},
		{"feiyu":"1.0.0","key":"A","lastUpdate":1,"config":{"feiyu":"1.0.0","local":true}}
	]`)

	n, err := h.mgr.ImportSubscribes(ctx, "https://example.com/list.json")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "成功导入 3 个订阅", apperr.ImportMessage(n, apperr.Lang("zh")))

	assert.Equal(t, []string{model.DefaultKey, "A", "A" + model.DuplicateSuffix, model.UnknownKey, "C"}, h.keys())
	assert.Equal(t, true, h.mgr.Get(ctx, "A"+model.DuplicateSuffix).Config["local"])
	assert.True(t, storage.has("C"))
	assert.False(t, storage.has("D"))
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newHarness(t, newMemStorage(
		record("A", "https://example.com/a.json", nil),
		record("B", "", map[string]any{"b": 1.0}),
		record("C", "", nil),
	))
	ctx := context.Background()
	url, err := src.mgr.ExportSubscribes(ctx)
	require.NoError(t, err)

	dst := newHarness(t, nil)
	dst.fetcher.set(url, src.content.blob(url))
	n, err := dst.mgr.ImportSubscribes(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.Equal(t, []string{
		model.DefaultKey,
		model.DefaultKey + model.DuplicateSuffix,
		"A", "B", "C",
	}, dst.keys())
	assert.Equal(t, "https://example.com/a.json", dst.mgr.Get(ctx, "A").Link)
	assert.Equal(t, 1.0, dst.mgr.Get(ctx, "B").Config["b"])
}

func TestSnapshotsAreNotShared(t *testing.T) {
	storage := newMemStorage(record("A", "", map[string]any{"x": "y"}))
	h := newHarness(t, storage)
	ctx := context.Background()

	got := h.mgr.Get(ctx, "A")
	got.Config["x"] = "changed"
	assert.Equal(t, "y", h.mgr.Get(ctx, "A").Config["x"])

	before, _ := store.Subscribes(h.hub)
	_, err := h.mgr.AddSubscribe(ctx, "B", `{"feiyu":"1.0.0"}`)
	require.NoError(t, err)
	after, _ := store.Subscribes(h.hub)
	assert.NotSame(t, before, after)
	assert.False(t, before.Subscribes.Has("B"))
}
