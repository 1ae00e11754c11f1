package db

import (
	"strings"
	"time"

	"forum/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect 建立数据库连接，带简单重试以等待数据库就绪。
// DSN 以 file: 或 :memory: 开头时使用 SQLite（本地开发和测试），
// 其余走 Postgres。
func Connect(dsn string) (*gorm.DB, error) {
	var gdb *gorm.DB
	var err error
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	for i := 0; i < 10; i++ {
		if isSQLite(dsn) {
			gdb, err = gorm.Open(sqlite.Open(dsn), cfg)
		} else {
			gdb, err = gorm.Open(postgres.Open(dsn), cfg)
		}
		if err == nil {
			sqlDB, err2 := gdb.DB()
			if err2 == nil {
				if isSQLite(dsn) {
					// 内存库的数据只在单个连接内可见
					sqlDB.SetMaxOpenConns(1)
				} else {
					sqlDB.SetMaxIdleConns(5)
					sqlDB.SetMaxOpenConns(20)
					sqlDB.SetConnMaxLifetime(time.Hour)
				}
				return gdb, nil
			}
			err = err2
		}
		time.Sleep(time.Duration(500+i*200) * time.Millisecond)
	}
	return nil, err
}

func isSQLite(dsn string) bool {
	return strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:")
}

// Migrate 迁移论坛全部表结构。topics.name 的唯一索引同时充当
// get-or-create 的并发保护。
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.Topic{},
		&models.Room{},
		&models.Message{},
		&models.Session{},
	)
}
