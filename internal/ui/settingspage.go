package ui

import (
	"context"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/BBBIMAX/feiyu-player/internal/model"
)

const configKeyLogLevel = "logLevel"

// 提示语言选项与保存值的对应关系
var languageOptions = map[string]string{
	"中文":      "zh",
	"English": "en",
}

// SettingsPage 管理应用设置：请求代理、过滤开关、提示语言、主题和日志级别
type SettingsPage struct {
	appState *AppState
	content  fyne.CanvasObject

	proxyEntry      *widget.Entry
	sexyCheck       *widget.Check
	commentaryCheck *widget.Check
	languageSel     *widget.Select
	themeSel        *widget.Select
	logLevelSel     *widget.Select
}

// NewSettingsPage 创建设置页面实例
func NewSettingsPage(appState *AppState) *SettingsPage {
	return &SettingsPage{appState: appState}
}

func section(title string, objects ...fyne.CanvasObject) fyne.CanvasObject {
	items := []fyne.CanvasObject{
		widget.NewLabelWithStyle(title, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		NewSeparator(),
	}
	for _, o := range objects {
		items = append(items, container.NewPadded(o))
	}
	return container.NewVBox(items...)
}

// Build 构建设置页面 UI
func (sp *SettingsPage) Build() fyne.CanvasObject {
	sp.proxyEntry = widget.NewEntry()
	sp.proxyEntry.SetPlaceHolder("http://127.0.0.1:7890 或 socks5://127.0.0.1:1080")
	saveProxyBtn := NewStyledButton("保存", theme.DocumentSaveIcon(), sp.handleSaveProxy)
	proxyRow := container.NewBorder(nil, nil, nil, saveProxyBtn, sp.proxyEntry)

	sp.sexyCheck = widget.NewCheck("显示伦理片", func(checked bool) {
		sp.handleToggle(checked, sp.appState.Core.Manager.AllowSexy, sp.appState.Core.Manager.ToggleAllowSexy)
	})
	sp.commentaryCheck = widget.NewCheck("显示电影解说", func(checked bool) {
		sp.handleToggle(checked, sp.appState.Core.Manager.AllowMovieCommentary, sp.appState.Core.Manager.ToggleAllowMovieCommentary)
	})

	sp.languageSel = NewStyledSelect([]string{"中文", "English"}, sp.handleLanguage)
	sp.themeSel = NewStyledSelect([]string{"dark", "light"}, sp.handleThemeSettings)
	sp.logLevelSel = NewStyledSelect([]string{"debug", "info", "warn", "error"}, sp.handleLogLevelSettings)

	settingsList := container.NewVBox(
		section("请求代理", proxyRow),
		section("内容过滤", sp.sexyCheck, sp.commentaryCheck),
		section("外观",
			container.NewHBox(NewSubtitleLabel("主题"), sp.themeSel),
			container.NewHBox(NewSubtitleLabel("提示语言"), sp.languageSel),
		),
		section("日志", container.NewHBox(NewSubtitleLabel("日志级别"), sp.logLevelSel)),
		section("关于", widget.NewButtonWithIcon("关于应用", theme.InfoIcon(), sp.handleAboutSettings)),
	)

	sp.content = container.NewVScroll(container.NewPadded(settingsList))
	sp.Refresh()
	return sp.content
}

// Refresh 从配置和订阅管理器重新读取当前设置。
// 直接修改 Checked/Selected 并刷新，不触发回调。
func (sp *SettingsPage) Refresh() {
	if sp.proxyEntry == nil || sp.appState == nil || sp.appState.Core == nil {
		return
	}
	core := sp.appState.Core
	ctx := context.Background()

	sp.proxyEntry.SetText(core.ConfigService.HTTPProxy())

	sp.sexyCheck.Checked = core.Manager.AllowSexy(ctx)
	sp.sexyCheck.Refresh()
	sp.commentaryCheck.Checked = core.Manager.AllowMovieCommentary(ctx)
	sp.commentaryCheck.Refresh()

	for label, lang := range languageOptions {
		if lang == core.ConfigService.Language() {
			sp.languageSel.Selected = label
		}
	}
	sp.languageSel.Refresh()
	sp.themeSel.Selected = core.ConfigService.GetWithDefault(configKeyTheme, "dark")
	sp.themeSel.Refresh()
	sp.logLevelSel.Selected = core.Logger.GetLogLevel()
	sp.logLevelSel.Refresh()
}

func (sp *SettingsPage) showInfo(title, msg string) {
	if sp.appState.Window != nil {
		dialog.ShowInformation(title, msg, sp.appState.Window)
	}
}

// handleSaveProxy 保存请求代理并立即应用到请求客户端
func (sp *SettingsPage) handleSaveProxy() {
	proxy := strings.TrimSpace(sp.proxyEntry.Text)
	if err := sp.appState.Core.ConfigService.SetHTTPProxy(proxy); err != nil {
		sp.showInfo("设置失败", err.Error())
		return
	}
	if proxy == "" {
		sp.showInfo("设置成功", "已清除请求代理")
		return
	}
	sp.showInfo("设置成功", "请求代理: "+proxy)
}

// handleToggle 开关状态与期望不一致时切换并保存
func (sp *SettingsPage) handleToggle(checked bool, get func(context.Context) bool, toggle func(context.Context) (bool, error)) {
	ctx := context.Background()
	if get(ctx) == checked {
		return
	}
	if _, err := toggle(ctx); err != nil {
		sp.showInfo("设置失败", sp.appState.Core.SubscriptionService.Message(err))
		sp.Refresh()
	}
}

func (sp *SettingsPage) handleLanguage(label string) {
	lang, ok := languageOptions[label]
	if !ok || lang == sp.appState.Core.ConfigService.Language() {
		return
	}
	if err := sp.appState.Core.ConfigService.SetLanguage(lang); err != nil {
		sp.showInfo("设置失败", err.Error())
	}
}

// handleThemeSettings 保存并应用主题
func (sp *SettingsPage) handleThemeSettings(name string) {
	if sp.appState.App == nil || name == "" {
		return
	}
	_ = sp.appState.Core.ConfigService.Set(configKeyTheme, name)
	sp.appState.App.Settings().SetTheme(NewMonochromeTheme(ThemeVariant(name)))
}

// handleLogLevelSettings 保存并应用日志级别
func (sp *SettingsPage) handleLogLevelSettings(level string) {
	if level == "" || level == sp.appState.Core.Logger.GetLogLevel() {
		return
	}
	sp.appState.Core.Logger.SetLogLevel(level)
	_ = sp.appState.Core.ConfigService.Set(configKeyLogLevel, level)
}

func (sp *SettingsPage) handleAboutSettings() {
	sp.showInfo(
		"关于 飞鱼",
		"订阅格式版本: "+model.Version+"\n\n管理飞鱼播放器的订阅配置\n支持远程链接、本地 JSON 与 IPFS 分享",
	)
}
