// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"table-reservation-api/config"
	"table-reservation-api/models"
)

var seq atomic.Int64

// NewDB opens a migrated in-memory sqlite database that lives for the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user. A non-empty password is hashed with bcrypt's
// minimum cost; zero fields get unique defaults.
func CreateUser(t *testing.T, db *gorm.DB, user *models.User, password string) *models.User {
	t.Helper()
	n := seq.Add(1)
	if user.Name == "" {
		user.Name = fmt.Sprintf("Guest %d", n)
	}
	if user.Email == "" {
		user.Email = fmt.Sprintf("guest%d@example.com", n)
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Provider == "" {
		user.Provider = models.ProviderCredentials
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		user.PasswordHash = string(hash)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", user.Email, err)
	}
	return user
}

// CreateTable inserts an active available table.
func CreateTable(t *testing.T, db *gorm.DB, number, capacity int) *models.Table {
	t.Helper()
	table := &models.Table{
		TableNumber: number,
		Name:        fmt.Sprintf("Table %d", number),
		Capacity:    capacity,
		Location:    models.LocationIndoor,
		Status:      models.TableAvailable,
		Features:    []string{},
		IsActive:    true,
	}
	if err := db.Create(table).Error; err != nil {
		t.Fatalf("create table %d: %v", number, err)
	}
	return table
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
