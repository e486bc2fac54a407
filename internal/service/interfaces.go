package service

// AppConfigStore 应用配置键值存储（由 database.AppConfigStore 实现）
type AppConfigStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// ProxySetter 可在运行时切换请求代理的客户端（由 fetch.Client 实现）
type ProxySetter interface {
	SetProxy(proxy string) error
	Proxy() string
}
