package db

import (
	"database/sql"
	_ "embed"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/glebarez/go-sqlite"
)

//go:embed schema.sql
var schemaSQL string

var DB *sql.DB

func Init(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	var err error
	DB, err = sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(5)
	if _, err := DB.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.Printf("⚠️ WAL 模式设置失败: %v", err)
	}
	if _, err := DB.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		log.Printf("⚠️ busy_timeout 设置失败: %v", err)
	}
	if _, err := DB.Exec(schemaSQL); err != nil {
		return err
	}
	if err := migrateDatabase(); err != nil {
		log.Printf("⚠️ 数据库迁移警告: %v", err)
	}
	if err := applyPerformanceIndexes(); err != nil {
		log.Printf("⚠️ 性能索引创建警告: %v", err)
	}
	log.Println("✅ 数据库初始化成功:", dbPath)
	return nil
}

func migrateDatabase() error {
	migrations := []string{
		"ALTER TABLE accounts ADD COLUMN auth_token TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE accounts ADD COLUMN api_url TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE submit_logs ADD COLUMN duration_ms INTEGER",
	}
	for _, migration := range migrations {
		if _, err := DB.Exec(migration); err != nil {
			if !strings.Contains(err.Error(), "duplicate column") &&
				!strings.Contains(err.Error(), "already exists") {
				log.Printf("迁移执行失败（可能列已存在）: %v", err)
			}
		}
	}
	log.Println("✅ 数据库迁移检查完成")
	return nil
}

func applyPerformanceIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_submit_logs_account_time ON submit_logs(account_id, submitted_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_submit_logs_date_type ON submit_logs(submitted_date, run_type)",
		"CREATE INDEX IF NOT EXISTS idx_accounts_enabled ON accounts(enabled)",
	}
	for _, indexSQL := range indexes {
		if _, err := DB.Exec(indexSQL); err != nil {
			log.Printf("⚠️ 索引创建失败: %v", err)
		}
	}
	log.Println("✅ 性能索引创建完成")
	return nil
}

func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
