// Package app 按依赖顺序组装订阅管理所需的全部组件，供命令行和桌面界面共用。
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/BBBIMAX/feiyu-player/internal/config"
	"github.com/BBBIMAX/feiyu-player/internal/database"
	"github.com/BBBIMAX/feiyu-player/internal/fetch"
	"github.com/BBBIMAX/feiyu-player/internal/ipfs"
	"github.com/BBBIMAX/feiyu-player/internal/logging"
	"github.com/BBBIMAX/feiyu-player/internal/service"
	"github.com/BBBIMAX/feiyu-player/internal/store"
	"github.com/BBBIMAX/feiyu-player/internal/subscription"
)

// Options 组装选项
type Options struct {
	Console       bool                     // 日志是否输出到控制台
	PanelCallback logging.LogPanelCallback // 日志面板回调（可选）
	NoRefresh     bool                     // 为 true 时初始化后不在后台刷新订阅
}

// App 应用实例，持有所有组件
type App struct {
	Config     *config.Config
	Logger     *logging.Logger
	Log        *logging.SafeLogger
	Hub        *store.Hub
	Fetch      *fetch.Client
	Content    subscription.ContentStore
	LocalStore *ipfs.LocalStore // 仅 local 模式
	Manager    *subscription.Manager

	ConfigService       *service.ConfigService
	SubscriptionService *service.SubscriptionService
}

// New 创建应用实例：日志、数据库、请求客户端、内容存储、订阅管理器和服务层。
// 参数：
//   - cfg: 应用配置
//   - opts: 组装选项
//
// 返回：应用实例和错误（任一组件创建失败时，已创建的组件会被关闭）
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	logger, err := logging.NewLogger(cfg.LogFile, opts.Console, cfg.LogLevel, opts.PanelCallback)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	log := logging.NewSafeLogger(logger)

	if err := database.InitDB(cfg.DBPath); err != nil {
		logger.Close()
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}

	a := &App{
		Config: cfg,
		Logger: logger,
		Log:    log,
		Hub:    store.NewHub(),
	}

	a.Fetch, err = fetch.NewClient(fetch.Config{
		Timeout:   time.Duration(cfg.FetchTimeout) * time.Second,
		CacheSize: cfg.FetchCacheSize,
		Logger:    log,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("创建请求客户端失败: %w", err)
	}

	switch cfg.ContentMode {
	case config.ContentModeKubo:
		a.Content = ipfs.NewKuboStore(cfg.IPFSAPI, cfg.IPFSGateway, nil)
	default:
		a.LocalStore, err = ipfs.NewLocalStore(cfg.ContentDir, cfg.IPFSGateway)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("创建内容存储失败: %w", err)
		}
		a.Content = a.LocalStore
	}

	a.Manager = subscription.NewManager(
		database.NewSubscribeStorage(), a.Fetch, a.Content, a.Hub,
		subscription.WithLogger(log),
		subscription.WithRefreshOnInit(cfg.RefreshOnStartup && !opts.NoRefresh),
	)
	a.ConfigService = service.NewConfigService(database.AppConfigStore{}, a.Fetch, a.Hub)
	a.SubscriptionService = service.NewSubscriptionService(a.Manager, a.ConfigService)

	if err := a.ConfigService.InitProxy(cfg.HTTPProxy); err != nil {
		log.Warn(fmt.Sprintf("应用请求代理失败: %v", err))
	}

	log.Info(fmt.Sprintf("应用已初始化，数据库 %s，内容存储 %s", cfg.DBPath, contentMode(cfg)))
	return a, nil
}

func contentMode(cfg *config.Config) string {
	if cfg.ContentMode == "" {
		return config.ContentModeLocal
	}
	return cfg.ContentMode
}

// Start 加载订阅。加载失败时订阅管理器仍可使用（只含默认订阅）。
func (a *App) Start(ctx context.Context) error {
	return a.Manager.Init(ctx)
}

// WatchConfig 监听配置文件，变化后应用新的请求代理与日志级别。
// 数据库中保存的代理优先于配置文件。
func (a *App) WatchConfig(ctx context.Context, path string) error {
	return config.Watch(ctx, path, func(cfg *config.Config) {
		a.Logger.SetLogLevel(cfg.LogLevel)
		if err := a.ConfigService.InitProxy(cfg.HTTPProxy); err != nil {
			a.Log.Warn(fmt.Sprintf("应用请求代理失败: %v", err))
			return
		}
		a.Log.Info(fmt.Sprintf("配置已重新加载: %s", path))
	}, func(err error) {
		a.Log.Warn(fmt.Sprintf("重新加载配置失败: %v", err))
	})
}

// GatewayServer 返回本地内容网关的 HTTP 服务，kubo 模式下返回错误。
func (a *App) GatewayServer() (*http.Server, error) {
	if a.LocalStore == nil {
		return nil, errors.New("当前内容存储模式不提供本地网关")
	}
	return &http.Server{
		Addr:              a.Config.GatewayAddr,
		Handler:           a.LocalStore.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, nil
}

// Close 等待后台刷新结束并释放资源
func (a *App) Close() error {
	if a.Manager != nil {
		a.Manager.Wait()
	}
	err := database.CloseDB()
	if a.Logger != nil {
		a.Logger.Close()
	}
	return err
}
