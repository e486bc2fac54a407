package service

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/BBBIMAX/feiyu-player/internal/apperr"
	"github.com/BBBIMAX/feiyu-player/internal/config"
	"github.com/BBBIMAX/feiyu-player/internal/database"
	"github.com/BBBIMAX/feiyu-player/internal/store"
)

// 支持的提示语言
var supportedLanguages = map[string]bool{
	"zh": true,
	"en": true,
}

// ConfigService 应用配置服务层，提供请求代理与提示语言相关的业务逻辑。
type ConfigService struct {
	store AppConfigStore
	proxy ProxySetter
	hub   *store.Hub
}

// NewConfigService 创建新的配置服务实例。
// 参数：
//   - appConfig: 应用配置存储，用于读写 app_config
//   - proxy: 请求客户端，修改代理后立即生效
//   - hub: 响应式存储，用于弹出配置提示
//
// 返回：初始化后的 ConfigService 实例
func NewConfigService(appConfig AppConfigStore, proxy ProxySetter, hub *store.Hub) *ConfigService {
	return &ConfigService{
		store: appConfig,
		proxy: proxy,
		hub:   hub,
	}
}

// Get 获取配置值。
// 参数：
//   - key: 配置键
//
// 返回：配置值和错误（如果有）
func (cs *ConfigService) Get(key string) (string, error) {
	if cs.store == nil {
		return "", fmt.Errorf("Store 未初始化")
	}
	return cs.store.Get(key)
}

// GetWithDefault 获取配置值，如果不存在则返回默认值。
func (cs *ConfigService) GetWithDefault(key, defaultValue string) string {
	if cs.store == nil {
		return defaultValue
	}
	value, err := cs.store.Get(key)
	if err != nil || value == "" {
		return defaultValue
	}
	return value
}

// Set 设置配置值。
func (cs *ConfigService) Set(key, value string) error {
	if cs.store == nil {
		return fmt.Errorf("Store 未初始化")
	}
	return cs.store.Set(key, value)
}

// HTTPProxy 返回保存的请求代理地址，未设置时为空字符串。
func (cs *ConfigService) HTTPProxy() string {
	return cs.GetWithDefault(database.KeyHTTPProxy, "")
}

// SetHTTPProxy 校验并保存请求代理，保存后立即应用到请求客户端。
// 参数：
//   - proxy: 代理地址（http/https/socks5），空字符串表示直连
//
// 返回：错误（地址无效或保存失败时）
func (cs *ConfigService) SetHTTPProxy(proxy string) error {
	proxy = strings.TrimSpace(proxy)
	if err := config.ValidateProxy(proxy); err != nil {
		return err
	}
	if err := cs.Set(database.KeyHTTPProxy, proxy); err != nil {
		return fmt.Errorf("保存请求代理失败: %w", err)
	}
	return cs.applyProxy(proxy)
}

// InitProxy 启动时应用请求代理。
// 数据库中保存的代理优先，未保存时使用配置文件中的 fallback。
func (cs *ConfigService) InitProxy(fallback string) error {
	proxy := cs.HTTPProxy()
	if proxy == "" {
		proxy = fallback
	}
	return cs.applyProxy(proxy)
}

func (cs *ConfigService) applyProxy(proxy string) error {
	if cs.proxy == nil {
		return nil
	}
	if err := cs.proxy.SetProxy(proxy); err != nil {
		return fmt.Errorf("应用请求代理失败: %w", err)
	}
	return nil
}

// NeedsProxySetup 当前是否未配置请求代理
func (cs *ConfigService) NeedsProxySetup() bool {
	if cs.proxy != nil {
		return cs.proxy.Proxy() == ""
	}
	return cs.HTTPProxy() == ""
}

// PromptProxySetup 未配置请求代理时弹出设置提示。
// 返回：是否弹出了提示
func (cs *ConfigService) PromptProxySetup() bool {
	if cs.hub == nil || !cs.NeedsProxySetup() {
		return false
	}
	_ = store.SetModals(cs.hub, store.APPModals{ShowAPPConfig: true})
	return true
}

// Language 返回提示语言（zh 或 en）
func (cs *ConfigService) Language() string {
	return cs.GetWithDefault(database.KeyLanguage, "zh")
}

// LanguageTag 返回提示语言对应的 language.Tag
func (cs *ConfigService) LanguageTag() language.Tag {
	return apperr.Lang(cs.Language())
}

// SetLanguage 设置提示语言。
// 参数：
//   - lang: zh 或 en
//
// 返回：错误（不支持的语言或保存失败时）
func (cs *ConfigService) SetLanguage(lang string) error {
	if !supportedLanguages[lang] {
		return fmt.Errorf("不支持的语言: %s", lang)
	}
	return cs.Set(database.KeyLanguage, lang)
}
