package store

import (
	"sync"

	"fyne.io/fyne/v2/data/binding"
)

// Hub 是进程内的响应式键值存储。
// 每个键对应一个 binding.Untyped，写入新值后所有监听者都会收到通知。
// 值应为指针：同一指针重复写入不会触发通知，更新时需写入新的快照。
// 监听回调通过 fyne 的主线程调度执行，注册监听前需要已创建 fyne 应用。
type Hub struct {
	mu    sync.Mutex
	items map[string]binding.Untyped
}

// NewHub 创建空的 Hub
func NewHub() *Hub {
	return &Hub{items: make(map[string]binding.Untyped)}
}

// item 返回键对应的绑定，不存在时创建
func (h *Hub) item(key string) binding.Untyped {
	h.mu.Lock()
	defer h.mu.Unlock()
	it, ok := h.items[key]
	if !ok {
		it = binding.NewUntyped()
		h.items[key] = it
	}
	return it
}

// Get 读取键的当前值，未写入过时返回 false。
func (h *Hub) Get(key string) (any, bool) {
	v, err := h.item(key).Get()
	if err != nil || v == nil {
		return nil, false
	}
	return v, true
}

// Set 写入键的新值并通知监听者
func (h *Hub) Set(key string, value any) error {
	return h.item(key).Set(value)
}

// Listen 监听键的变化，注册时会立即回调一次当前值。
// 返回取消监听的函数。
func (h *Hub) Listen(key string, fn func(value any)) (cancel func()) {
	it := h.item(key)
	listener := binding.NewDataListener(func() {
		v, err := it.Get()
		if err != nil {
			return
		}
		fn(v)
	})
	it.AddListener(listener)
	return func() {
		it.RemoveListener(listener)
	}
}

// Value 按类型读取键的当前值，类型不符或不存在时返回零值和 false。
func Value[T any](h *Hub, key string) (T, bool) {
	var zero T
	v, ok := h.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
