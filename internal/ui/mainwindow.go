package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// PageType 页面类型枚举
type PageType int

const (
	PageTypeSubscription PageType = iota // 订阅管理页面（主界面）
	PageTypeSettings                     // 设置页面
	PageTypeLogs                         // 日志页面
)

// PageStack 路由栈结构，用于管理页面导航历史
type PageStack struct {
	stack    []PageType // 页面栈
	maxDepth int        // 最大深度限制（0 表示无限制）
}

const (
	// DefaultMaxStackDepth 默认最大栈深度（防止异常情况导致栈无限增长）
	DefaultMaxStackDepth = 50
)

// NewPageStack 创建新的路由栈
func NewPageStack() *PageStack {
	return &PageStack{
		stack:    make([]PageType, 0),
		maxDepth: DefaultMaxStackDepth,
	}
}

// Push 将页面压入栈中
// 如果栈已满（达到最大深度），会移除最旧的页面
func (ps *PageStack) Push(pageType PageType) {
	if ps.maxDepth > 0 && len(ps.stack) >= ps.maxDepth {
		ps.stack = ps.stack[1:]
	}
	ps.stack = append(ps.stack, pageType)
}

// Pop 从栈中弹出页面
// 返回值：页面类型和是否成功弹出（栈为空时返回 false）
func (ps *PageStack) Pop() (PageType, bool) {
	if len(ps.stack) == 0 {
		return PageTypeSubscription, false
	}
	lastIndex := len(ps.stack) - 1
	pageType := ps.stack[lastIndex]
	ps.stack = ps.stack[:lastIndex]
	return pageType, true
}

// Peek 查看栈顶页面但不弹出
func (ps *PageStack) Peek() (PageType, bool) {
	if len(ps.stack) == 0 {
		return PageTypeSubscription, false
	}
	return ps.stack[len(ps.stack)-1], true
}

// Size 返回栈中页面的数量
func (ps *PageStack) Size() int {
	return len(ps.stack)
}

// Clear 清空路由栈
func (ps *PageStack) Clear() {
	ps.stack = ps.stack[:0]
}

// MainWindow 单窗口多页面：通过 SetContent() 在订阅、设置和日志页面之间切换。
type MainWindow struct {
	appState    *AppState
	pageStack   *PageStack // 路由栈，用于管理页面导航历史
	currentPage PageType   // 当前页面类型

	subscriptionPage         fyne.CanvasObject
	subscriptionPageInstance *SubscriptionPage

	settingsPage         fyne.CanvasObject
	settingsPageInstance *SettingsPage

	logsPage fyne.CanvasObject
}

// NewMainWindow 创建主窗口
// 参数：
//   - appState: 应用状态实例
//
// 返回：初始化后的主窗口实例
func NewMainWindow(appState *AppState) *MainWindow {
	return &MainWindow{
		appState:    appState,
		pageStack:   NewPageStack(),
		currentPage: PageTypeSubscription,
	}
}

// Build 构建各页面并返回主界面（订阅管理页面）
func (mw *MainWindow) Build() fyne.CanvasObject {
	mw.subscriptionPageInstance = NewSubscriptionPage(mw.appState)
	mw.subscriptionPage = mw.subscriptionPageInstance.Build()
	return mw.subscriptionPage
}

// CurrentPage 返回当前页面类型
func (mw *MainWindow) CurrentPage() PageType {
	return mw.currentPage
}

// pageHeader 构建带返回按钮和标题的页面头部
func (mw *MainWindow) pageHeader(title string) fyne.CanvasObject {
	backBtn := widget.NewButtonWithIcon("", theme.NavigateBackIcon(), mw.Back)
	backBtn.Importance = widget.LowImportance
	homeBtn := widget.NewButtonWithIcon("", theme.HomeIcon(), mw.ShowSubscriptionPage)
	homeBtn.Importance = widget.LowImportance
	return container.NewPadded(container.NewBorder(nil, nil, container.NewHBox(backBtn, NewTitleLabel(title)), homeBtn))
}

// showPage 切换页面内容，pushCurrent 为 true 时把当前页面压入路由栈
func (mw *MainWindow) showPage(pageType PageType, pageContent fyne.CanvasObject, pushCurrent bool) {
	if mw == nil || mw.appState == nil || mw.appState.Window == nil {
		return
	}
	if pushCurrent && mw.currentPage != pageType {
		mw.pageStack.Push(mw.currentPage)
	}
	mw.currentPage = pageType
	mw.appState.Window.SetContent(pageContent)
}

// Back 返回到上一个页面（从路由栈中弹出），栈为空时回到订阅页面
func (mw *MainWindow) Back() {
	if mw == nil || mw.appState == nil || mw.appState.Window == nil {
		return
	}
	prevPageType, ok := mw.pageStack.Pop()
	if !ok {
		mw.navigateToPage(PageTypeSubscription, false)
		return
	}
	mw.navigateToPage(prevPageType, false)
}

func (mw *MainWindow) navigateToPage(pageType PageType, pushCurrent bool) {
	// 目标就是上一页时按返回处理，避免来回切换时栈不断增长
	if pushCurrent {
		if prev, ok := mw.pageStack.Peek(); ok && prev == pageType {
			mw.pageStack.Pop()
			pushCurrent = false
		}
	}

	var pageContent fyne.CanvasObject

	switch pageType {
	case PageTypeSettings:
		if mw.settingsPage == nil {
			mw.settingsPageInstance = NewSettingsPage(mw.appState)
			mw.settingsPage = container.NewBorder(mw.pageHeader("设置"), nil, nil, nil, mw.settingsPageInstance.Build())
		}
		mw.settingsPageInstance.Refresh()
		pageContent = mw.settingsPage
	case PageTypeLogs:
		if mw.logsPage == nil {
			if mw.appState.LogsPanel == nil {
				mw.appState.LogsPanel = NewLogsPanel(mw.appState)
			}
			mw.logsPage = container.NewBorder(mw.pageHeader("日志"), nil, nil, nil, mw.appState.LogsPanel.Build())
			mw.appState.LogsPanel.LoadFromFile()
		}
		pageContent = mw.logsPage
	default:
		if mw.subscriptionPage == nil {
			mw.Build()
		}
		mw.subscriptionPageInstance.Refresh()
		pageContent = mw.subscriptionPage
		pageType = PageTypeSubscription
	}

	mw.showPage(pageType, pageContent, pushCurrent)
}

// ShowSubscriptionPage 回到订阅管理页面并清空导航历史
func (mw *MainWindow) ShowSubscriptionPage() {
	mw.pageStack.Clear()
	mw.navigateToPage(PageTypeSubscription, false)
}

// ShowSettingsPage 切换到设置页面
func (mw *MainWindow) ShowSettingsPage() {
	mw.navigateToPage(PageTypeSettings, true)
}

// ShowLogsPage 切换到日志页面
func (mw *MainWindow) ShowLogsPage() {
	mw.navigateToPage(PageTypeLogs, true)
}
