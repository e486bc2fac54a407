package ui

import (
	"context"
	"fmt"

	feiyu "github.com/BBBIMAX/feiyu-player/internal/app"
	"github.com/BBBIMAX/feiyu-player/internal/config"
)

// ApplicationFactory 应用工厂，负责创建和初始化所有应用组件
// 集中管理初始化顺序，确保依赖关系正确
type ApplicationFactory struct {
	initialized bool
}

// NewApplicationFactory 创建新的应用工厂实例
func NewApplicationFactory() *ApplicationFactory {
	return &ApplicationFactory{
		initialized: false,
	}
}

// CreateAppState 创建并初始化应用状态
// 按正确的依赖顺序初始化所有组件
func (af *ApplicationFactory) CreateAppState(cfg *config.Config) (*AppState, error) {
	if af.initialized {
		return nil, fmt.Errorf("应用工厂: 已经初始化过")
	}

	appState := &AppState{}
	core, err := feiyu.New(cfg, feiyu.Options{
		Console:       true,
		PanelCallback: appState.AppendLog,
	})
	if err != nil {
		return nil, fmt.Errorf("应用工厂: %w", err)
	}
	appState.Core = core

	af.initialized = true
	return appState, nil
}

// InitializeApplication 初始化整个应用
// 按顺序执行所有初始化步骤
func (af *ApplicationFactory) InitializeApplication(appState *AppState) error {
	if appState == nil || appState.Core == nil {
		return fmt.Errorf("应用工厂: AppState 为 nil")
	}

	appState.InitApp()

	appState.LogsPanel = NewLogsPanel(appState)
	mainWindow := NewMainWindow(appState)
	appState.MainWindow = mainWindow
	appState.Window.SetContent(mainWindow.Build())

	appState.APPConfigModal = NewAPPConfigModal(appState.Hub(), appState.Window, mainWindow.ShowSettingsPage).Attach()

	// 加载订阅在后台进行，完成后列表通过 Hub 自动刷新
	go func() {
		ctx := context.Background()
		if err := appState.Core.Start(ctx); err != nil {
			appState.Core.Log.Error(fmt.Sprintf("加载订阅失败: %v", err))
		}
		appState.Core.ConfigService.PromptProxySetup()
	}()

	return nil
}

// IsInitialized 检查工厂是否已经初始化
func (af *ApplicationFactory) IsInitialized() bool {
	return af.initialized
}
