// Package migrationtest opens throwaway sqlite databases carrying the
// marketplace schema.
package migrationtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/campusswap/internal/migration"
	"gorm.io/gorm"
)

var seq atomic.Int64

// Open returns an in-memory database private to t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migration.ApplySchema(conn); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return conn
}

// Exec runs a fixture statement and fails t on error.
func Exec(t testing.TB, conn *gorm.DB, sql string, args ...interface{}) {
	t.Helper()
	if err := conn.Exec(sql, args...).Error; err != nil {
		t.Fatalf("exec fixture: %v", err)
	}
}
