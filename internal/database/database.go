package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/BBBIMAX/feiyu-player/internal/model"
)

// DB 数据库连接
var DB *sql.DB

// InitDB 初始化 SQLite 数据库，创建必要的表结构。
// 如果数据库文件不存在，会自动创建。如果表已存在，不会重复创建。
// 参数：
//   - dbPath: 数据库文件路径
//
// 返回：错误（如果有）
func InitDB(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("创建数据库目录失败: %w", err)
	}

	var err error
	DB, err = sql.Open("sqlite3", dbPath+"?_foreign_keys=1&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("打开数据库失败: %w", err)
	}

	if err := DB.Ping(); err != nil {
		return fmt.Errorf("数据库连接测试失败: %w", err)
	}

	if err := createTables(); err != nil {
		return fmt.Errorf("创建表失败: %w", err)
	}

	return nil
}

// createTables 创建数据库表
func createTables() error {
	// 订阅表，id 自增用于保持插入顺序
	createSubscribesTable := `
	CREATE TABLE IF NOT EXISTS subscribes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL UNIQUE,
		feiyu TEXT NOT NULL,
		link TEXT NOT NULL DEFAULT '',
		last_update INTEGER NOT NULL DEFAULT 0,
		config TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	// 应用配置表（当前订阅、过滤开关、请求代理等）
	createAppConfigTable := `
	CREATE TABLE IF NOT EXISTS app_config (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL UNIQUE,
		value TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	createIndexes := `
	CREATE INDEX IF NOT EXISTS idx_subscribes_link ON subscribes(link);
	CREATE INDEX IF NOT EXISTS idx_app_config_key ON app_config(key);
	`

	if _, err := DB.Exec(createSubscribesTable); err != nil {
		return fmt.Errorf("创建订阅表失败: %w", err)
	}

	if _, err := DB.Exec(createAppConfigTable); err != nil {
		return fmt.Errorf("创建应用配置表失败: %w", err)
	}

	if _, err := DB.Exec(createIndexes); err != nil {
		return fmt.Errorf("创建索引失败: %w", err)
	}

	return nil
}

// CloseDB 关闭数据库连接。
// 应该在应用退出时调用此方法以正确释放资源。
// 返回：错误（如果有）
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// SaveSubscribe 添加或覆盖订阅记录。
// 名称已存在时原位更新，不改变其排序位置。
// 参数：
//   - ctx: 上下文
//   - sub: 订阅记录
//
// 返回：错误（如果有）
func SaveSubscribe(ctx context.Context, sub *model.Subscribe) error {
	config, err := json.Marshal(sub.Config)
	if err != nil {
		return fmt.Errorf("序列化订阅配置失败: %w", err)
	}

	now := time.Now()
	_, err = DB.ExecContext(ctx, `
		INSERT INTO subscribes (key, feiyu, link, last_update, config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			feiyu = excluded.feiyu,
			link = excluded.link,
			last_update = excluded.last_update,
			config = excluded.config,
			updated_at = excluded.updated_at`,
		sub.Key, sub.Feiyu, sub.Link, sub.LastUpdate, string(config), now, now,
	)
	if err != nil {
		return fmt.Errorf("保存订阅失败: %w", err)
	}
	return nil
}

// GetAllSubscribes 按插入顺序获取所有订阅。
// 返回：订阅列表和错误（如果有）
func GetAllSubscribes(ctx context.Context) ([]*model.Subscribe, error) {
	rows, err := DB.QueryContext(ctx, "SELECT key, feiyu, link, last_update, config FROM subscribes ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("查询订阅列表失败: %w", err)
	}
	defer rows.Close()

	var subscribes []*model.Subscribe
	for rows.Next() {
		var sub model.Subscribe
		var config string
		if err := rows.Scan(&sub.Key, &sub.Feiyu, &sub.Link, &sub.LastUpdate, &config); err != nil {
			return nil, fmt.Errorf("扫描订阅数据失败: %w", err)
		}
		if err := json.Unmarshal([]byte(config), &sub.Config); err != nil {
			return nil, fmt.Errorf("解析订阅 %s 的配置失败: %w", sub.Key, err)
		}
		subscribes = append(subscribes, &sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历订阅数据失败: %w", err)
	}

	return subscribes, nil
}

// DeleteSubscribe 删除订阅，名称不存在时不报错。
func DeleteSubscribe(ctx context.Context, key string) error {
	if _, err := DB.ExecContext(ctx, "DELETE FROM subscribes WHERE key = ?", key); err != nil {
		return fmt.Errorf("删除订阅失败: %w", err)
	}
	return nil
}

// ClearSubscribes 删除所有订阅
func ClearSubscribes(ctx context.Context) error {
	if _, err := DB.ExecContext(ctx, "DELETE FROM subscribes"); err != nil {
		return fmt.Errorf("清空订阅失败: %w", err)
	}
	return nil
}

// SetAppConfig 设置应用配置。
// 参数：
//   - key: 配置键名
//   - value: 配置值
//
// 返回：错误（如果有）
func SetAppConfig(key, value string) error {
	return SetAppConfigContext(context.Background(), key, value)
}

// SetAppConfigContext 与 SetAppConfig 相同，支持取消
func SetAppConfigContext(ctx context.Context, key, value string) error {
	now := time.Now()
	_, err := DB.ExecContext(ctx,
		"INSERT INTO app_config (key, value, created_at, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = ?",
		key, value, now, now, value, now,
	)
	if err != nil {
		return fmt.Errorf("设置应用配置失败: %w", err)
	}
	return nil
}

// GetAppConfig 获取应用配置，不存在时返回空字符串。
func GetAppConfig(key string) (string, error) {
	return GetAppConfigContext(context.Background(), key)
}

// GetAppConfigContext 与 GetAppConfig 相同，支持取消
func GetAppConfigContext(ctx context.Context, key string) (string, error) {
	var value string
	err := DB.QueryRowContext(ctx, "SELECT value FROM app_config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("获取应用配置失败: %w", err)
	}
	return value, nil
}

// boolToString 将布尔值转换为配置表中保存的字符串
func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// stringToBool 将配置表中的字符串转换为布尔值
func stringToBool(s string) bool {
	return s == "true"
}
