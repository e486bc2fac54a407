package ui

import (
	"strings"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	feiyu "github.com/BBBIMAX/feiyu-player/internal/app"
	"github.com/BBBIMAX/feiyu-player/internal/model"
	"github.com/BBBIMAX/feiyu-player/internal/store"
)

// 界面偏好在 app_config 中的键
const (
	configKeyTheme = "theme"
)

// AppState 管理界面的整体状态：核心组件、fyne 应用与窗口、各页面。
type AppState struct {
	Core   *feiyu.App
	App    fyne.App
	Window fyne.Window

	// 主窗口引用 - 用于页面切换
	MainWindow *MainWindow

	// 日志面板引用 - 用于追加日志
	LogsPanel *LogsPanel

	// 请求代理提示弹窗
	APPConfigModal *APPConfigModal
}

// Hub 返回响应式存储
func (a *AppState) Hub() *store.Hub {
	if a == nil || a.Core == nil {
		return nil
	}
	return a.Core.Hub
}

// InitApp 初始化 Fyne 应用和窗口。
// 注意：必须在创建 UI 组件之前调用此方法。
func (a *AppState) InitApp() {
	if a.App == nil {
		a.App = fyneapp.NewWithID("com.bbbimax.feiyu")
	}
	themeName := "dark"
	if a.Core != nil {
		themeName = a.Core.ConfigService.GetWithDefault(configKeyTheme, "dark")
		if level := a.Core.ConfigService.GetWithDefault(configKeyLogLevel, ""); level != "" {
			a.Core.Logger.SetLogLevel(level)
		}
	}
	a.App.Settings().SetTheme(NewMonochromeTheme(ThemeVariant(themeName)))
	a.Window = a.App.NewWindow("飞鱼 订阅管理 " + model.Version)
	a.Window.Resize(fyne.NewSize(520, 640))
}

// AppendLog 追加一条日志到日志面板（Logger 的面板回调）。
// 参数：
//   - level: 日志级别 (DEBUG, INFO, WARN, ERROR, FATAL)
//   - logType: 日志类型 (app 或 fetch；其他将归并为 app)
//   - message: 日志消息
//   - line: 完整的日志行
func (a *AppState) AppendLog(level, logType, message, line string) {
	if a.LogsPanel != nil {
		a.LogsPanel.AppendLog(strings.ToUpper(level), logType, message, line)
	}
}

// Run 显示窗口并运行应用，窗口关闭后释放资源
func (a *AppState) Run() {
	a.Window.SetOnClosed(func() {
		if a.APPConfigModal != nil {
			a.APPConfigModal.Detach()
		}
	})
	a.Window.ShowAndRun()
	if a.Core != nil {
		_ = a.Core.Close()
	}
}
