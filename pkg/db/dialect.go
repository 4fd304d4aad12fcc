package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const defaultSQLiteFile = "paybridge.db"

// Dialect picks the gorm dialector for cfg.Type. Only engines that support
// INSERT ... ON CONFLICT ... DO UPDATE ... WHERE are accepted, since
// transaction upserts depend on it.
func Dialect(cfg Config) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "postgres", "postgresql":
		return postgres.Open(cfg.postgresDSN()), nil
	case "sqlite":
		file := cfg.Name
		if file == "" {
			file = defaultSQLiteFile
		}
		return sqlite.Open(file), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}
}
