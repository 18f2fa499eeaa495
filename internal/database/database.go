package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/iabetor/creativespark/internal/logger"
)

// DB 是本地 SQLite 数据库连接，只保存生成记录。
type DB struct {
	*sql.DB
	path string
}

// Open 打开或创建数据库。
// dbPath 为空时使用 ~/.creativespark/history.db；":memory:" 用于测试。
func Open(dbPath string) (*DB, error) {
	if dbPath == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			dbPath = filepath.Join(home, ".creativespark", "history.db")
		} else {
			dbPath = "./history.db"
		}
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// 内存库每个连接各自独立，限制为单连接
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("设置 WAL 模式失败: %w", err)
	}

	logger.Infof("[database] 数据库已打开: %s", dbPath)

	return &DB{DB: db, path: dbPath}, nil
}

// Path 返回数据库文件路径。
func (db *DB) Path() string {
	return db.path
}

// Migrate 运行数据库迁移。
func (db *DB) Migrate() error {
	migrations := []string{
		// 生成记录表，不保存 API Key 与音频
		`CREATE TABLE IF NOT EXISTS generations (
			id TEXT PRIMARY KEY,
			idea TEXT NOT NULL,
			content_type TEXT NOT NULL,
			audience TEXT NOT NULL,
			language TEXT NOT NULL,
			text TEXT NOT NULL,
			moral TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_generations_content_type ON generations(content_type)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			logger.Warnf("[database] 创建索引失败: %v", err)
		}
	}

	logger.Info("[database] 数据库迁移完成")
	return nil
}
