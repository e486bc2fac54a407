package store

import "github.com/BBBIMAX/feiyu-player/internal/model"

// Hub 中使用的键
const (
	// SubscribesKey 订阅快照 *SubscribesState
	SubscribesKey = "kSubscribesKey"
	// ModalsKey 全局弹窗状态 *APPModals
	ModalsKey = "kAPPModals"
)

// SubscribesState 订阅快照。
// 发布后不再修改，更新时复制一份再写回 Hub。
type SubscribesState struct {
	Subscribes           *model.Collection
	CurrentSubscribe     string
	AllowSexy            bool // 不过滤伦理片
	AllowMovieCommentary bool // 不过滤电影解说
}

// Clone 深拷贝快照
func (s *SubscribesState) Clone() *SubscribesState {
	out := *s
	if s.Subscribes != nil {
		out.Subscribes = s.Subscribes.Clone()
	} else {
		out.Subscribes = model.NewCollection()
	}
	return &out
}

// Subscribes 读取订阅快照
func Subscribes(h *Hub) (*SubscribesState, bool) {
	return Value[*SubscribesState](h, SubscribesKey)
}

// APPModals 全局弹窗的显示状态
type APPModals struct {
	ShowAPPConfig bool
}

// Modals 读取弹窗状态，未设置时全部为隐藏
func Modals(h *Hub) APPModals {
	m, ok := Value[*APPModals](h, ModalsKey)
	if !ok || m == nil {
		return APPModals{}
	}
	return *m
}

// SetModals 发布新的弹窗状态
func SetModals(h *Hub, m APPModals) error {
	return h.Set(ModalsKey, &m)
}
