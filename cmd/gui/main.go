package main

import (
	"flag"
	"log"

	"github.com/BBBIMAX/feiyu-player/internal/config"
	"github.com/BBBIMAX/feiyu-player/internal/ui"
)

func main() {
	configPath := flag.String("config", "config.json", "配置文件路径")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 创建应用工厂
	factory := ui.NewApplicationFactory()

	// 创建应用状态（日志、数据库、订阅管理器等）
	appState, err := factory.CreateAppState(cfg)
	if err != nil {
		log.Fatalf("创建应用状态失败: %v", err)
	}

	// 统一初始化应用（Fyne 应用、主窗口、提示弹窗）
	if err := factory.InitializeApplication(appState); err != nil {
		log.Fatalf("应用启动失败: %v", err)
	}

	// 显示窗口并运行应用
	appState.Run()
}
