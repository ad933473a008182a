package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/zingg/internal/model"
	"github.com/d60-Lab/zingg/pkg/database"
)

var dbSeq atomic.Int64

// NewTestDB 每个测试一个独立的内存 sqlite，单连接避免锁冲突
func NewTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	// 命名内存库 + shared cache，保证连接池重建连接时仍是同一个库
	dsn := fmt.Sprintf("file:zingg_test_%d?mode=memory&cache=shared&_busy_timeout=5000", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig("silent"))
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedUser 插入一个已分配用户名的账号
func SeedUser(tb testing.TB, db *gorm.DB, id, username, name string) *model.User {
	tb.Helper()
	email := username + "@example.com"
	u := &model.User{ID: id, Username: &username, Email: &email, Name: name, Provider: model.ProviderCredentials}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user %s: %v", id, err)
	}
	return u
}

// SeedBlog 插入一篇博文
func SeedBlog(tb testing.TB, db *gorm.DB, authorID, title string) *model.Blog {
	tb.Helper()
	b := &model.Blog{AuthorID: authorID, Title: title}
	if err := db.Create(b).Error; err != nil {
		tb.Fatalf("seed blog: %v", err)
	}
	return b
}
