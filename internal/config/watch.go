package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce 合并编辑器保存时产生的连续事件
var watchDebounce = 300 * time.Millisecond

// Watch 监听配置文件变化，内容稳定后重新加载并回调 onChange。
// 监听的是文件所在目录，因此原子替换（写临时文件再重命名）同样生效。
// ctx 取消后停止监听。
func Watch(ctx context.Context, filePath string, onChange func(*Config), onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建配置监听器失败: %w", err)
	}

	target := filepath.Clean(filePath)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("监听配置目录失败: %w", err)
	}

	if onError == nil {
		onError = func(error) {}
	}

	reload := func() {
		// 文件被删除后不重建默认配置
		if _, err := os.Stat(target); err != nil {
			return
		}
		cfg, err := LoadConfig(target)
		if err != nil {
			onError(err)
			return
		}
		onChange(cfg)
	}

	go func() {
		defer watcher.Close()
		var debounceTimer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(watchDebounce, reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				onError(err)
			}
		}
	}()

	return nil
}
