package subscription

import (
	"context"

	"github.com/BBBIMAX/feiyu-player/internal/apperr"
	"github.com/BBBIMAX/feiyu-player/internal/store"
)

// AllowSexy 是否不过滤伦理片
func (m *Manager) AllowSexy(ctx context.Context) bool {
	return m.flag(ctx, FlagAllowSexy)
}

// AllowMovieCommentary 是否不过滤电影解说
func (m *Manager) AllowMovieCommentary(ctx context.Context) bool {
	return m.flag(ctx, FlagAllowMovieCommentary)
}

// ToggleAllowSexy 切换伦理片过滤，返回切换后的值
func (m *Manager) ToggleAllowSexy(ctx context.Context) (bool, error) {
	return m.toggle(ctx, FlagAllowSexy, func(st *store.SubscribesState, v bool) {
		st.AllowSexy = v
	})
}

// ToggleAllowMovieCommentary 切换电影解说过滤，返回切换后的值
func (m *Manager) ToggleAllowMovieCommentary(ctx context.Context) (bool, error) {
	return m.toggle(ctx, FlagAllowMovieCommentary, func(st *store.SubscribesState, v bool) {
		st.AllowMovieCommentary = v
	})
}

func (m *Manager) toggle(ctx context.Context, name string, apply func(*store.SubscribesState, bool)) (bool, error) {
	if err := m.ready(ctx, name); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	value := !m.flag(ctx, name)
	if err := m.storage.SetFlag(ctx, name, value); err != nil {
		return !value, apperr.New(apperr.CodePersistFailed, name, err)
	}
	m.publish(func(st *store.SubscribesState) {
		apply(st, value)
	})
	return value, nil
}
