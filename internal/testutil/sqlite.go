package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

var schema = []string{
	`CREATE TABLE transactions (
		id TEXT NOT NULL,
		platform_id TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		order_id TEXT NOT NULL DEFAULT '',
		amount NUMERIC NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		customer_name TEXT,
		customer_email TEXT,
		customer_phone TEXT,
		customer_document TEXT,
		product_id TEXT,
		product_name TEXT,
		product_price NUMERIC,
		product_quantity INTEGER,
		payment_method TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		metadata TEXT,
		source_updated_at DATETIME,
		PRIMARY KEY (platform_id, id)
	)`,
	`CREATE INDEX ix_transactions_platform_order ON transactions(platform_id, order_id)`,
	`CREATE TABLE payment_platforms (
		id BIGINT PRIMARY KEY,
		user_id TEXT NOT NULL,
		platform_id TEXT NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT FALSE,
		sandbox BOOLEAN NOT NULL DEFAULT TRUE,
		credentials TEXT NOT NULL DEFAULT '',
		settings TEXT,
		status TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX ux_payment_platforms_user_platform ON payment_platforms(user_id, platform_id)`,
	`CREATE TABLE webhook_events (
		id BIGINT PRIMARY KEY,
		platform_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		delivery_hash TEXT NOT NULL,
		event_type TEXT NOT NULL,
		payload BLOB NOT NULL,
		payload_size INTEGER NOT NULL,
		outcome TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		received_at DATETIME NOT NULL,
		processed_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_webhook_events_delivery ON webhook_events(platform_id, user_id, delivery_hash)`,
}

// OpenSQLite returns an isolated in-memory database with the service schema.
func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:paybridge_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CountRows returns the number of rows in table.
func CountRows(t testing.TB, db *gorm.DB, table string) int64 {
	t.Helper()
	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM " + table).Scan(&count).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return count
}
