package model

import (
	_ "embed"
	"encoding/json"
)

//go:embed default_config.json
var defaultConfigJSON []byte

// DefaultConfig 返回内置默认配置的副本
func DefaultConfig() map[string]any {
	var cfg map[string]any
	if err := json.Unmarshal(defaultConfigJSON, &cfg); err != nil {
		panic("内置默认配置无法解析: " + err.Error())
	}
	return cfg
}

// DefaultSubscribe 返回内置默认订阅，永远存在且不可删除。
func DefaultSubscribe() *Subscribe {
	return &Subscribe{
		Feiyu:      Version,
		Key:        DefaultKey,
		LastUpdate: DefaultLastUpdate,
		Config:     DefaultConfig(),
	}
}
