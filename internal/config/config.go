package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 FEIYU_HTTPPROXY 覆盖 httpProxy
const EnvPrefix = "FEIYU"

// 内容存储模式
const (
	ContentModeLocal = "local"
	ContentModeKubo  = "kubo"
)

// Config 存储应用的配置信息。
// 注意：订阅与开关状态保存在数据库中，此配置只描述运行环境。
type Config struct {
	LogLevel         string `json:"logLevel" mapstructure:"logLevel"`                 // 日志级别
	LogFile          string `json:"logFile" mapstructure:"logFile"`                   // 日志文件路径
	DBPath           string `json:"dbPath" mapstructure:"dbPath"`                     // 数据库文件路径
	Language         string `json:"language" mapstructure:"language"`                 // 提示语言：zh / en
	HTTPProxy        string `json:"httpProxy" mapstructure:"httpProxy"`               // 请求代理，支持 http/https/socks5
	FetchTimeout     int    `json:"fetchTimeout" mapstructure:"fetchTimeout"`         // 请求超时（秒）
	FetchCacheSize   int    `json:"fetchCacheSize" mapstructure:"fetchCacheSize"`     // 响应缓存条目数，0 表示不缓存
	ContentMode      string `json:"contentMode" mapstructure:"contentMode"`           // 内容存储：local / kubo
	ContentDir       string `json:"contentDir" mapstructure:"contentDir"`             // 本地内容存储目录
	IPFSAPI          string `json:"ipfsApi" mapstructure:"ipfsApi"`                   // Kubo RPC 地址
	IPFSGateway      string `json:"ipfsGateway" mapstructure:"ipfsGateway"`           // 分享链接使用的网关
	GatewayAddr      string `json:"gatewayAddr" mapstructure:"gatewayAddr"`           // 本地网关监听地址
	RefreshOnStartup bool   `json:"refreshOnStartup" mapstructure:"refreshOnStartup"` // 初始化后是否后台刷新全部订阅
}

// DefaultConfig 返回默认的应用配置。
// 返回：包含默认值的配置实例
func DefaultConfig() *Config {
	return &Config{
		LogLevel:         "info",
		LogFile:          "feiyu.log",
		DBPath:           filepath.Join("data", "feiyu.db"),
		Language:         "zh",
		HTTPProxy:        "",
		FetchTimeout:     30,
		FetchCacheSize:   64,
		ContentMode:      ContentModeLocal,
		ContentDir:       filepath.Join("data", "ipfs"),
		IPFSAPI:          "http://127.0.0.1:5001",
		IPFSGateway:      "http://127.0.0.1:8180",
		GatewayAddr:      "127.0.0.1:8180",
		RefreshOnStartup: true,
	}
}

// LoadConfig 从指定的 JSON 文件加载配置，环境变量 FEIYU_* 优先于文件内容。
// 如果文件不存在，会创建包含默认配置的新文件。
// 参数：
//   - filePath: 配置文件路径
//
// 返回：配置实例和错误（如果有）
func LoadConfig(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := SaveConfig(DefaultConfig(), filePath); err != nil {
			return nil, fmt.Errorf("保存默认配置失败: %w", err)
		}
	}

	v := viper.New()
	if err := setDefaults(v); err != nil {
		return nil, err
	}
	v.SetConfigFile(filePath)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &config, nil
}

// setDefaults 以默认配置作为 viper 的兜底值，缺失的字段保持默认
func setDefaults(v *viper.Viper) error {
	data, err := json.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("序列化默认配置失败: %w", err)
	}
	var defaults map[string]any
	if err := json.Unmarshal(data, &defaults); err != nil {
		return fmt.Errorf("解析默认配置失败: %w", err)
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return nil
}

// SaveConfig 将配置保存到指定的 JSON 文件。
// 如果目录不存在，会自动创建。
// 参数：
//   - config: 要保存的配置实例
//   - filePath: 配置文件路径
//
// 返回：错误（如果有）
func SaveConfig(config *Config, filePath string) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// Validate 验证配置的有效性。
// 检查日志级别、内容存储模式和请求代理地址。
// 返回：如果配置无效则返回错误，否则返回 nil
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}
	if c.LogLevel != "" && !validLogLevels[c.LogLevel] {
		return fmt.Errorf("无效的日志级别: %s", c.LogLevel)
	}

	switch c.ContentMode {
	case "", ContentModeLocal, ContentModeKubo:
	default:
		return fmt.Errorf("无效的内容存储模式: %s", c.ContentMode)
	}

	if c.FetchTimeout < 0 {
		return fmt.Errorf("无效的请求超时: %d", c.FetchTimeout)
	}

	if err := ValidateProxy(c.HTTPProxy); err != nil {
		return err
	}

	return nil
}

// ValidateProxy 检查请求代理地址，空字符串表示不使用代理。
func ValidateProxy(proxy string) error {
	if proxy == "" {
		return nil
	}
	u, err := url.Parse(proxy)
	if err != nil {
		return fmt.Errorf("无效的代理地址: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return fmt.Errorf("不支持的代理协议: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("代理地址缺少主机: %s", proxy)
	}
	return nil
}
