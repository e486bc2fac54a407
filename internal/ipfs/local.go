package ipfs

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"lukechampine.com/blake3"
)

const (
	cidPrefix = "b3"
	blobExt   = ".json"
	pinExt    = ".pin"
)

var (
	// ErrNotFound 内容不存在
	ErrNotFound = errors.New("内容不存在")
	// ErrInvalidCID 内容标识格式错误
	ErrInvalidCID = errors.New("内容标识格式错误")

	cidPattern = regexp.MustCompile(`^b3[0-9a-f]{64}$`)
)

// ContentID 计算内容标识：b3 前缀加 BLAKE3-256 的十六进制摘要
func ContentID(data []byte) string {
	sum := blake3.Sum256(data)
	return cidPrefix + hex.EncodeToString(sum[:])
}

// LocalStore 本地内容寻址存储，相同内容只保存一份。
// 未固定（pin）的内容可以被 Prune 清理。
type LocalStore struct {
	mu      sync.Mutex
	dir     string
	baseURL string
}

// NewLocalStore 创建本地内容存储
// 参数：
//   - dir: 内容保存目录
//   - baseURL: 网关对外地址，分享链接为 baseURL/ipfs/<cid>
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建内容目录失败: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) blobPath(cid string) string {
	return filepath.Join(s.dir, cid+blobExt)
}

func (s *LocalStore) pinPath(cid string) string {
	return filepath.Join(s.dir, cid+pinExt)
}

// WriteJSON 把值序列化为 JSON 保存，返回内容标识
func (s *LocalStore) WriteJSON(ctx context.Context, v any, pin bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("序列化内容失败: %w", err)
	}
	cid := ContentID(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.blobPath(cid)); os.IsNotExist(err) {
		if err := writeAtomic(s.blobPath(cid), data); err != nil {
			return "", fmt.Errorf("保存内容失败: %w", err)
		}
	}
	if pin {
		if err := os.WriteFile(s.pinPath(cid), nil, 0644); err != nil {
			return "", fmt.Errorf("固定内容失败: %w", err)
		}
	}
	return cid, nil
}

// writeAtomic 先写临时文件再重命名，读取方不会看到写了一半的内容
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Read 读取内容
func (s *LocalStore) Read(cid string) ([]byte, error) {
	if !cidPattern.MatchString(cid) {
		return nil, ErrInvalidCID
	}
	data, err := os.ReadFile(s.blobPath(cid))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取内容失败: %w", err)
	}
	return data, nil
}

// Pinned 判断内容是否已固定
func (s *LocalStore) Pinned(cid string) bool {
	if !cidPattern.MatchString(cid) {
		return false
	}
	_, err := os.Stat(s.pinPath(cid))
	return err == nil
}

// Prune 删除所有未固定的内容，返回删除数量
func (s *LocalStore) Prune() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("读取内容目录失败: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, blobExt) {
			continue
		}
		cid := strings.TrimSuffix(name, blobExt)
		if !cidPattern.MatchString(cid) {
			continue
		}
		if _, err := os.Stat(s.pinPath(cid)); err == nil {
			continue
		}
		if err := os.Remove(s.blobPath(cid)); err != nil {
			return removed, fmt.Errorf("删除内容 %s 失败: %w", cid, err)
		}
		removed++
	}
	return removed, nil
}

// URL 返回内容在本地网关上的地址
func (s *LocalStore) URL(cid string) string {
	return s.baseURL + "/ipfs/" + cid
}
