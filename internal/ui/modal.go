package ui

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/BBBIMAX/feiyu-player/internal/store"
)

// 请求代理提示弹窗的文案
const (
	appConfigTitle   = "💡 提示"
	appConfigMessage = "请先打开设置，配置请求代理"
	appConfigOK      = "设置"
	appConfigCancel  = "取消"
)

// ShowAPPConfigModal 显示或隐藏请求代理提示弹窗。
// 其他弹窗状态会被重置为隐藏。
func ShowAPPConfigModal(hub *store.Hub, visible bool) {
	_ = store.SetModals(hub, store.APPModals{ShowAPPConfig: visible})
}

// APPConfigModal 监听 Hub 中的弹窗状态，显示提示用户配置请求代理的确认框。
// 点击"设置"关闭弹窗并打开设置页面，点击"取消"仅关闭弹窗。
type APPConfigModal struct {
	hub        *store.Hub
	window     fyne.Window
	onSettings func()

	mu      sync.Mutex
	dialog  dialog.Dialog
	visible bool
	cancel  func()
}

// NewAPPConfigModal 创建提示弹窗
// 参数：
//   - hub: 响应式存储
//   - window: 弹窗所属窗口
//   - onSettings: 点击"设置"后的跳转动作（可选）
func NewAPPConfigModal(hub *store.Hub, window fyne.Window, onSettings func()) *APPConfigModal {
	return &APPConfigModal{
		hub:        hub,
		window:     window,
		onSettings: onSettings,
	}
}

// Attach 开始监听弹窗状态，返回自身便于链式调用
func (m *APPConfigModal) Attach() *APPConfigModal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		m.cancel = m.hub.Listen(store.ModalsKey, m.onChange)
	}
	return m
}

// Detach 停止监听并关闭弹窗
func (m *APPConfigModal) Detach() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.setVisible(false)
}

// Visible 弹窗当前是否显示
func (m *APPConfigModal) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

func (m *APPConfigModal) onChange(v any) {
	modals, _ := v.(*store.APPModals)
	m.setVisible(modals != nil && modals.ShowAPPConfig)
}

func (m *APPConfigModal) setVisible(visible bool) {
	m.mu.Lock()
	if m.visible == visible {
		m.mu.Unlock()
		return
	}
	m.visible = visible
	if visible && m.dialog == nil && m.window != nil {
		body := widget.NewLabel(appConfigMessage)
		body.Wrapping = fyne.TextWrapWord
		m.dialog = dialog.NewCustomConfirm(appConfigTitle, appConfigOK, appConfigCancel, body, m.respond, m.window)
	}
	d := m.dialog
	m.mu.Unlock()

	// Hide 会回调 respond，不能持有锁
	if d == nil {
		return
	}
	if visible {
		d.Show()
	} else {
		d.Hide()
	}
}

// respond 处理按钮点击或隐藏，此时 fyne 已隐藏对话框
func (m *APPConfigModal) respond(ok bool) {
	m.mu.Lock()
	m.visible = false
	m.mu.Unlock()

	if store.Modals(m.hub).ShowAPPConfig {
		ShowAPPConfigModal(m.hub, false)
	}
	if ok && m.onSettings != nil {
		m.onSettings()
	}
}
