// Package dbtest opens a throwaway sqlite database with the full schema for
// tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"otadmin/database"
	"otadmin/models"
)

// Open returns a migrated database backed by a file in t.TempDir(). A single
// connection serializes writers the way a row lock would.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ot.db")
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Employees inserts one employee per name and returns them in order.
func Employees(t testing.TB, db *gorm.DB, names ...string) []models.Employee {
	t.Helper()

	out := make([]models.Employee, 0, len(names))
	for i, name := range names {
		e := models.Employee{EmpID: "E" + string(rune('A'+i)) + name, Name: name}
		if err := db.Create(&e).Error; err != nil {
			t.Fatalf("create employee %s: %v", name, err)
		}
		out = append(out, e)
	}
	return out
}

// User inserts an active user with the given role.
func User(t testing.TB, db *gorm.DB, username string, role models.Role) models.User {
	t.Helper()

	u := models.User{Username: username, PasswordHash: "x", Role: role, Active: true}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}
