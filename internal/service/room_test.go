package service

import (
	"errors"
	"testing"

	"forum/internal/forms"
	"forum/internal/models"
)

func TestTopicGetOrCreate(t *testing.T) {
	gdb := testDB(t)
	svc := NewTopicService(gdb)

	first, err := svc.GetOrCreate("python")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	second, err := svc.GetOrCreate("python")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("GetOrCreate() created duplicate topic: %d vs %d", first.ID, second.ID)
	}

	var count int64
	gdb.Model(&models.Topic{}).Count(&count)
	if count != 1 {
		t.Errorf("topic count = %d, want 1", count)
	}

	if _, err := svc.GetOrCreate("golang"); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	gdb.Model(&models.Topic{}).Count(&count)
	if count != 2 {
		t.Errorf("topic count = %d, want 2", count)
	}
}

func TestRoomCreate_ReusesTopic(t *testing.T) {
	gdb := testDB(t)
	userSvc := NewUserService(gdb)
	topicSvc := NewTopicService(gdb)
	roomSvc := NewRoomService(gdb, topicSvc)
	host := mustRegister(t, userSvc, "bob", "pw12345")

	mustCreateRoom(t, roomSvc, host.ID, "Python Help", "python", "")
	mustCreateRoom(t, roomSvc, host.ID, "Python Snippets", "python", "")

	var count int64
	gdb.Model(&models.Topic{}).Count(&count)
	if count != 1 {
		t.Errorf("topic count = %d, want 1 (no duplicate for same name)", count)
	}
}

func TestRoomSearch(t *testing.T) {
	gdb := testDB(t)
	userSvc := NewUserService(gdb)
	topicSvc := NewTopicService(gdb)
	roomSvc := NewRoomService(gdb, topicSvc)
	host := mustRegister(t, userSvc, "bob", "pw12345")

	mustCreateRoom(t, roomSvc, host.ID, "Python Help", "python", "beginner questions")
	mustCreateRoom(t, roomSvc, host.ID, "Gophers", "golang", "all about Go")
	mustCreateRoom(t, roomSvc, host.ID, "Frontend", "javascript", "react and friends")

	tests := []struct {
		name string
		q    string
		want int
	}{
		{"empty query matches all", "", 3},
		{"topic name", "python", 1},
		{"room name case-insensitive", "GOPHERS", 1},
		{"description substring", "react", 1},
		{"substring across fields", "o", 3}, // python topic, Gophers name, about/front descriptions
		{"no match", "rust", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms, err := roomSvc.Search(tt.q)
			if err != nil {
				t.Fatalf("Search(%q) error = %v", tt.q, err)
			}
			if len(rooms) != tt.want {
				t.Errorf("Search(%q) = %d rooms, want %d", tt.q, len(rooms), tt.want)
			}
		})
	}
}

func TestRoomSearch_WildcardsLiteral(t *testing.T) {
	gdb := testDB(t)
	userSvc := NewUserService(gdb)
	topicSvc := NewTopicService(gdb)
	roomSvc := NewRoomService(gdb, topicSvc)
	host := mustRegister(t, userSvc, "bob", "pw12345")

	mustCreateRoom(t, roomSvc, host.ID, "Go Tips", "golang", "plain description")
	mustCreateRoom(t, roomSvc, host.ID, "snake_case", "naming", "give 100% effort")

	// 查询词里的 LIKE 通配符按字面匹配，不能变成任意匹配
	tests := []struct {
		name string
		q    string
		want int
	}{
		{"underscore literal", "_", 1},
		{"percent literal", "%", 1},
		{"underscore inside word", "snake_c", 1},
		{"no wildcard expansion", "G_ T", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms, err := roomSvc.Search(tt.q)
			if err != nil {
				t.Fatalf("Search(%q) error = %v", tt.q, err)
			}
			if len(rooms) != tt.want {
				t.Errorf("Search(%q) = %d rooms, want %d", tt.q, len(rooms), tt.want)
			}
		})
	}
}

func TestRoomUpdate_HostOnly(t *testing.T) {
	gdb := testDB(t)
	userSvc := NewUserService(gdb)
	topicSvc := NewTopicService(gdb)
	roomSvc := NewRoomService(gdb, topicSvc)
	host := mustRegister(t, userSvc, "bob", "pw12345")
	intruder := mustRegister(t, userSvc, "eve", "pw12345")
	room := mustCreateRoom(t, roomSvc, host.ID, "Python Help", "python", "orig")

	err := roomSvc.Update(intruder.ID, room.ID, forms.RoomForm{Name: "Hacked", Topic: "spam"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("Update() by non-host error = %v, want ErrForbidden", err)
	}

	// 房间必须保持原样
	got, err := roomSvc.Get(room.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Python Help" || got.Description != "orig" || got.Topic.Name != "python" {
		t.Errorf("room modified by non-host: %+v", got)
	}

	if err := roomSvc.Update(host.ID, room.ID, forms.RoomForm{Name: "Python Q&A", Topic: "python3", Description: "new"}); err != nil {
		t.Fatalf("Update() by host error = %v", err)
	}
	got, _ = roomSvc.Get(room.ID)
	if got.Name != "Python Q&A" || got.Topic.Name != "python3" || got.Description != "new" {
		t.Errorf("Update() by host not applied: %+v", got)
	}
}

func TestRoomDelete_HostOnlyAndCascade(t *testing.T) {
	gdb := testDB(t)
	userSvc := NewUserService(gdb)
	topicSvc := NewTopicService(gdb)
	roomSvc := NewRoomService(gdb, topicSvc)
	msgSvc := NewMessageService(gdb)
	host := mustRegister(t, userSvc, "bob", "pw12345")
	intruder := mustRegister(t, userSvc, "eve", "pw12345")
	room := mustCreateRoom(t, roomSvc, host.ID, "Python Help", "python", "")
	if _, err := msgSvc.Post(host.ID, room.ID, "hello"); err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	if err := roomSvc.Delete(intruder.ID, room.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Delete() by non-host error = %v, want ErrForbidden", err)
	}
	if _, err := roomSvc.Get(room.ID); err != nil {
		t.Fatalf("room should still exist after refused delete: %v", err)
	}

	if err := roomSvc.Delete(host.ID, room.ID); err != nil {
		t.Fatalf("Delete() by host error = %v", err)
	}
	if _, err := roomSvc.Get(room.ID); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrRoomNotFound", err)
	}

	var msgCount int64
	gdb.Model(&models.Message{}).Where("room_id = ?", room.ID).Count(&msgCount)
	if msgCount != 0 {
		t.Errorf("messages not cascaded: %d remain", msgCount)
	}
	var partCount int64
	gdb.Table("room_participants").Where("room_id = ?", room.ID).Count(&partCount)
	if partCount != 0 {
		t.Errorf("participant rows not cascaded: %d remain", partCount)
	}
}

func TestRoomDetail_NotFound(t *testing.T) {
	gdb := testDB(t)
	topicSvc := NewTopicService(gdb)
	roomSvc := NewRoomService(gdb, topicSvc)
	if _, err := roomSvc.Detail(42); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Detail() error = %v, want ErrRoomNotFound", err)
	}
}
