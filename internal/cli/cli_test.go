package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BBBIMAX/feiyu-player/internal/config"
	"github.com/BBBIMAX/feiyu-player/internal/ipfs"
	"github.com/BBBIMAX/feiyu-player/internal/model"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.LogFile = filepath.Join(dir, "logs", "feiyu.log")
	cfg.DBPath = filepath.Join(dir, "data", "feiyu.db")
	cfg.ContentDir = filepath.Join(dir, "data", "ipfs")
	cfg.RefreshOnStartup = false
	path := filepath.Join(dir, "config.json")
	require.NoError(t, config.SaveConfig(cfg, path))
	return path
}

func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestAddListUse(t *testing.T) {
	path := writeConfig(t)

	out, err := run(t, path, "add", "local", `{"feiyu":"1.0.0","name":"local"}`)
	require.NoError(t, err)
	assert.Equal(t, "添加成功\n", out)

	_, err = run(t, path, "add", "local", `{"feiyu":"1.0.0"}`)
	require.Error(t, err)
	assert.Equal(t, "订阅已存在，请重命名", err.Error())

	_, err = run(t, path, "use", "local")
	require.NoError(t, err)

	out, err = run(t, path, "list", "--json")
	require.NoError(t, err)
	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, model.DefaultKey, entries[0].Key)
	assert.Equal(t, "local", entries[1].Key)
	assert.True(t, entries[1].Current)
	assert.False(t, entries[0].Current)
	assert.Equal(t, model.DefaultLastUpdate, entries[0].LastUpdate)
	assert.Positive(t, entries[1].LastUpdate)
	assert.Empty(t, entries[1].Link)

	out, err = run(t, path, "current")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "local"`)
}

func TestAddFromFileAndEdit(t *testing.T) {
	path := writeConfig(t)
	file := filepath.Join(t.TempDir(), "sub.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"feiyu":"1.0.0","v":1}`), 0o644))

	_, err := run(t, path, "add", "file", "@"+file)
	require.NoError(t, err)

	_, err = run(t, path, "edit", "file", `{"feiyu":"1.0.0","v":2}`)
	require.NoError(t, err)

	_, err = run(t, path, "edit", "file", `{"v":3}`)
	require.Error(t, err)

	_, err = run(t, path, "edit", "missing", `{"feiyu":"1.0.0"}`)
	require.Error(t, err)
	assert.Equal(t, "订阅不存在", err.Error())

	_, err = run(t, path, "use", "file")
	require.NoError(t, err)
	out, err := run(t, path, "current")
	require.NoError(t, err)
	assert.Contains(t, out, `"v": 2`)
}

func TestRemoveAndClear(t *testing.T) {
	path := writeConfig(t)
	for _, key := range []string{"a", "b"} {
		_, err := run(t, path, "add", key, `{"feiyu":"1.0.0"}`)
		require.NoError(t, err)
	}

	_, err := run(t, path, "rm", "a")
	require.NoError(t, err)
	out, err := run(t, path, "list")
	require.NoError(t, err)
	assert.NotContains(t, out, " a ")
	assert.Contains(t, out, "b")

	_, err = run(t, path, "clear")
	require.NoError(t, err)
	out, err = run(t, path, "list", "--json")
	require.NoError(t, err)
	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, model.DefaultKey, entries[0].Key)
}

func TestRefreshRemote(t *testing.T) {
	var version atomic.Int32
	version.Store(1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"feiyu":"1.0.0","v":%d}`, version.Load())
	}))
	defer srv.Close()

	path := writeConfig(t)
	_, err := run(t, path, "add", "remote", srv.URL+"/sub.json")
	require.NoError(t, err)

	version.Store(2)
	out, err := run(t, path, "refresh", "remote")
	require.NoError(t, err)
	assert.Equal(t, "刷新完成\n", out)

	_, err = run(t, path, "use", "remote")
	require.NoError(t, err)
	out, err = run(t, path, "current")
	require.NoError(t, err)
	assert.Contains(t, out, `"v": 2`)

	out, err = run(t, path, "list", "--json")
	require.NoError(t, err)
	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, srv.URL+"/sub.json", entries[1].Link)

	_, err = run(t, path, "refresh", "missing")
	assert.Error(t, err)
}

func TestToggleAndBlocked(t *testing.T) {
	path := writeConfig(t)

	out, err := run(t, path, "blocked")
	require.NoError(t, err)
	assert.Equal(t, []string{"伦理片", "福利", "电影解说"}, strings.Fields(out))

	out, err = run(t, path, "toggle", "sexy")
	require.NoError(t, err)
	assert.Equal(t, "显示伦理片: 开启\n", out)

	out, err = run(t, path, "blocked")
	require.NoError(t, err)
	assert.Equal(t, []string{"电影解说"}, strings.Fields(out))

	_, err = run(t, path, "toggle", "other")
	assert.Error(t, err)
}

func TestProxyAndLang(t *testing.T) {
	path := writeConfig(t)

	out, err := run(t, path, "proxy")
	require.NoError(t, err)
	assert.Equal(t, "未设置\n", out)

	_, err = run(t, path, "proxy", "socks5://127.0.0.1:1080")
	require.NoError(t, err)
	out, err = run(t, path, "proxy")
	require.NoError(t, err)
	assert.Equal(t, "socks5://127.0.0.1:1080\n", out)

	_, err = run(t, path, "proxy", "ftp://x")
	assert.Error(t, err)

	_, err = run(t, path, "proxy", "--clear")
	require.NoError(t, err)
	out, err = run(t, path, "proxy")
	require.NoError(t, err)
	assert.Equal(t, "未设置\n", out)

	out, err = run(t, path, "lang", "en")
	require.NoError(t, err)
	assert.Equal(t, "en\n", out)

	_, err = run(t, path, "use", "missing")
	require.Error(t, err)
	assert.Equal(t, "Subscription not found", err.Error())
}

func TestExportImport(t *testing.T) {
	path := writeConfig(t)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	_, err = run(t, path, "add", "local", `{"feiyu":"1.0.0"}`)
	require.NoError(t, err)

	out, err := run(t, path, "export")
	require.NoError(t, err)
	url := strings.TrimSpace(out)
	require.True(t, strings.HasPrefix(url, cfg.IPFSGateway+"/ipfs/"))

	// 本地网关内容由 httptest 提供
	cid := strings.TrimPrefix(url, cfg.IPFSGateway+"/ipfs/")
	local, err := ipfs.NewLocalStore(cfg.ContentDir, cfg.IPFSGateway)
	require.NoError(t, err)
	srv := httptest.NewServer(local.Handler())
	defer srv.Close()

	_, err = run(t, path, "clear")
	require.NoError(t, err)

	out, err = run(t, path, "import", srv.URL+"/ipfs/"+cid)
	require.NoError(t, err)
	assert.Equal(t, "成功导入 2 个订阅\n", out)

	out, err = run(t, path, "list", "--json")
	require.NoError(t, err)
	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	assert.Equal(t, []string{model.DefaultKey, model.DefaultKey + model.DuplicateSuffix, "local"}, keys)
}
