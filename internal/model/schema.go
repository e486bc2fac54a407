package model

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/subscribe.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// ErrMissingMarker 记录或配置缺少有效的 feiyu 标记
var ErrMissingMarker = errors.New("缺少 feiyu 标记")

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("解析订阅 schema 失败: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("subscribe.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("加载订阅 schema 失败: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("subscribe.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("编译订阅 schema 失败: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// DecodeRecord 校验并解码一条导入的订阅记录。
// 参数：
//   - raw: 由 encoding/json 解码得到的任意值
//
// 返回：订阅记录和错误（结构不符或标记为假值时）
func DecodeRecord(raw any) (*Subscribe, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("序列化订阅记录失败: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解析订阅记录失败: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("订阅记录格式错误: %w", err)
	}

	var rec recordWire
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("解码订阅记录失败: %w", err)
	}
	if !Truthy(rec.Feiyu) {
		return nil, ErrMissingMarker
	}
	sub := rec.Subscribe
	sub.Feiyu = markerVersion(rec.Feiyu)
	if !sub.Valid() {
		return nil, ErrMissingMarker
	}
	return &sub, nil
}

// recordWire 导入格式，feiyu 标记可以是任意真值
type recordWire struct {
	Feiyu any `json:"feiyu"`
	Subscribe
}

// markerVersion 字符串标记即版本号，其他真值按当前版本处理
func markerVersion(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return Version
}
