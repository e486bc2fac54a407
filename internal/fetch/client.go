package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/BBBIMAX/feiyu-player/internal/logging"
)

// DefaultTimeout 默认请求超时
const DefaultTimeout = 30 * time.Second

// maxBodySize 单个响应的最大读取字节数
const maxBodySize int64 = 32 << 20

// Options 单次请求选项
type Options struct {
	// Cache 为 true 时优先使用缓存的响应，并缓存成功的响应
	Cache bool
}

// Config 客户端配置
type Config struct {
	Timeout   time.Duration       // 请求超时，0 使用 DefaultTimeout
	Proxy     string              // 请求代理，支持 http/https/socks5，空表示直连
	CacheSize int                 // 响应缓存条目数，0 表示不缓存
	UserAgent string              // 请求头 User-Agent
	Logger    *logging.SafeLogger // 请求日志（可选）
}

// StatusError 服务器返回了非 2xx 状态码
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("请求 %s 返回状态码 %d", e.URL, e.StatusCode)
}

// Client 获取远程配置的 HTTP 客户端，可在运行时切换代理。
type Client struct {
	mu        sync.RWMutex
	http      *http.Client
	proxy     string
	timeout   time.Duration
	userAgent string
	cache     *lru.Cache
	log       *logging.SafeLogger
}

// NewClient 创建客户端
// 参数：
//   - cfg: 客户端配置
//
// 返回：客户端实例和错误（代理地址无效时）
func NewClient(cfg Config) (*Client, error) {
	c := &Client{
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		log:       cfg.Logger,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.userAgent == "" {
		c.userAgent = "feiyu-player"
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New(cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("创建响应缓存失败: %w", err)
		}
		c.cache = cache
	}
	if err := c.SetProxy(cfg.Proxy); err != nil {
		return nil, err
	}
	return c, nil
}

// SetProxy 切换请求代理，空字符串表示直连
func (c *Client) SetProxy(proxy string) error {
	transport, err := newTransport(proxy)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.transport(); ok {
		old.CloseIdleConnections()
	}
	c.proxy = proxy
	c.http = &http.Client{
		Timeout:   c.timeout,
		Transport: transport,
	}
	return nil
}

// transport 返回当前的 Transport，调用方需持有锁
func (c *Client) transport() (*http.Transport, bool) {
	if c.http == nil {
		return nil, false
	}
	t, ok := c.http.Transport.(*http.Transport)
	return t, ok
}

// Proxy 返回当前使用的请求代理
func (c *Client) Proxy() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.proxy
}

func newTransport(proxy string) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy == "" {
		return transport, nil
	}

	u, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("无效的代理地址: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		d := &socks5Dialer{proxyAddr: u.Host}
		if u.User != nil {
			d.username = u.User.Username()
			d.password, _ = u.User.Password()
		}
		transport.Proxy = nil
		transport.DialContext = d.DialContext
	default:
		return nil, fmt.Errorf("不支持的代理协议: %s", u.Scheme)
	}
	return transport, nil
}

// Get 请求 URL 并返回响应内容
func (c *Client) Get(ctx context.Context, rawURL string, opts Options) ([]byte, error) {
	if opts.Cache && c.cache != nil {
		if v, ok := c.cache.Get(rawURL); ok {
			c.log.Fetch(fmt.Sprintf("命中缓存: %s", rawURL))
			return v.([]byte), nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, */*")

	c.mu.RLock()
	client := c.http
	c.mu.RUnlock()

	c.log.Fetch(fmt.Sprintf("GET %s", rawURL))
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求 %s 失败: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("读取响应内容失败: %w", err)
	}

	if opts.Cache && c.cache != nil {
		c.cache.Add(rawURL, body)
	}
	return body, nil
}

// GetJSON 请求 URL 并把响应解码为任意 JSON 值
func (c *Client) GetJSON(ctx context.Context, rawURL string, opts Options) (any, error) {
	body, err := c.Get(ctx, rawURL, opts)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("解析 %s 的响应失败: %w", rawURL, err)
	}
	return v, nil
}

// Purge 清空响应缓存
func (c *Client) Purge() {
	if c.cache != nil {
		c.cache.Purge()
	}
}
