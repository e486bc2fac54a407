package model

import (
	"encoding/json"
	"time"
)

const (
	// Version 当前订阅格式版本，写入每条记录及其配置的 feiyu 标记
	Version = "1.0.0"
	// DefaultKey 内置默认订阅的名称
	DefaultKey = "默认订阅"
	// DefaultLastUpdate 内置默认订阅的更新时间（毫秒）
	DefaultLastUpdate int64 = 1709781073831
	// UnknownKey 导入记录缺少名称时使用的名称
	UnknownKey = "未知订阅"
	// DuplicateSuffix 导入时名称冲突追加的后缀
	DuplicateSuffix = "(重名)"
)

// Subscribe 表示一条订阅配置记录，既是持久化格式也是分享格式。
type Subscribe struct {
	Feiyu      string         `json:"feiyu"`
	Key        string         `json:"key"`
	Link       string         `json:"link,omitempty"`
	LastUpdate int64          `json:"lastUpdate"`
	Config     map[string]any `json:"config"`
}

// Valid 判断记录及其配置是否都带有有效的 feiyu 标记。
func (s *Subscribe) Valid() bool {
	if s == nil || s.Feiyu == "" {
		return false
	}
	return IsConfig(s.Config)
}

// Clone 深拷贝记录，配置内容不与原记录共享。
func (s *Subscribe) Clone() *Subscribe {
	if s == nil {
		return nil
	}
	out := *s
	out.Config = cloneMap(s.Config)
	return &out
}

// IsConfig 判断一个配置对象是否带有真值的 feiyu 标记。
func IsConfig(cfg map[string]any) bool {
	if cfg == nil {
		return false
	}
	return Truthy(cfg["feiyu"])
}

// AsConfig 把解码后的任意 JSON 值转换为配置对象。
// 只有对象且 feiyu 标记为真值时返回 true。
func AsConfig(v any) (map[string]any, bool) {
	cfg, ok := v.(map[string]any)
	if !ok || !IsConfig(cfg) {
		return nil, false
	}
	return cfg, true
}

// Truthy 按 JSON 值的真值规则判断：缺失、null、false、0 和空字符串为假。
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}

// Timestamp 返回毫秒时间戳
func Timestamp(t time.Time) int64 {
	return t.UnixMilli()
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
