package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// KuboStore 通过 Kubo (go-ipfs) 的 RPC 接口写入内容。
type KuboStore struct {
	api     string
	gateway string
	client  *http.Client
}

// NewKuboStore 创建 Kubo 内容存储
// 参数：
//   - api: RPC 地址，例如 http://127.0.0.1:5001
//   - gateway: 生成分享链接使用的网关，例如 https://ipfs.io
//   - client: HTTP 客户端，为 nil 时使用 30 秒超时的默认客户端
func NewKuboStore(api, gateway string, client *http.Client) *KuboStore {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &KuboStore{
		api:     strings.TrimRight(api, "/"),
		gateway: strings.TrimRight(gateway, "/"),
		client:  client,
	}
}

// addResponse /api/v0/add 的响应
type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// WriteJSON 把值序列化为 JSON 写入 IPFS，返回内容标识
func (s *KuboStore) WriteJSON(ctx context.Context, v any, pin bool) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("序列化内容失败: %w", err)
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "feiyu.json")
	if err != nil {
		return "", fmt.Errorf("构建上传内容失败: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("构建上传内容失败: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("构建上传内容失败: %w", err)
	}

	query := url.Values{}
	query.Set("pin", strconv.FormatBool(pin))
	query.Set("cid-version", "1")
	endpoint := s.api + "/api/v0/add?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("创建上传请求失败: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("上传到 IPFS 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("IPFS 返回状态码 %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var added addResponse
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		return "", fmt.Errorf("解析 IPFS 响应失败: %w", err)
	}
	if added.Hash == "" {
		return "", fmt.Errorf("IPFS 未返回内容标识")
	}
	return added.Hash, nil
}

// URL 返回内容在网关上的地址
func (s *KuboStore) URL(cid string) string {
	return s.gateway + "/ipfs/" + cid
}
