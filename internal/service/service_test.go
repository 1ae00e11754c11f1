package service

import (
	"testing"

	"forum/internal/db"
	"forum/internal/forms"
	"forum/internal/models"

	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Connect("file::memory:")
	if err != nil {
		t.Fatalf("db.Connect() error = %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("db.Migrate() error = %v", err)
	}
	return gdb
}

func mustRegister(t *testing.T, svc *UserService, username, password string) *models.User {
	t.Helper()
	user, err := svc.Register(forms.RegisterForm{Username: username, Password1: password, Password2: password})
	if err != nil {
		t.Fatalf("Register(%q) error = %v", username, err)
	}
	return user
}

func mustCreateRoom(t *testing.T, svc *RoomService, hostID uint, name, topic, desc string) *models.Room {
	t.Helper()
	room, err := svc.Create(hostID, forms.RoomForm{Name: name, Topic: topic, Description: desc})
	if err != nil {
		t.Fatalf("Create(%q) error = %v", name, err)
	}
	return room
}
