package server

import (
	"forum/internal/forms"
	"forum/internal/models"
)

// 每个页面一个显式的视图结构，字段强类型，避免松散的
// string-key context map。

type HomeView struct {
	Rooms        []models.Room    `json:"rooms"`
	Topics       []models.Topic   `json:"topics"`
	RoomCount    int              `json:"room_count"`
	RoomMessages []models.Message `json:"room_messages"`
}

type RoomView struct {
	Room         models.Room      `json:"room"`
	RoomMessages []models.Message `json:"room_messages"`
	Participants []models.User    `json:"participants"`
}

type LoginView struct {
	Page  string `json:"page"`
	Error string `json:"error,omitempty"`
}

type RegisterView struct {
	Error  string       `json:"error,omitempty"`
	Errors forms.Errors `json:"errors,omitempty"`
}

type RoomFormView struct {
	Room   *models.Room   `json:"room,omitempty"`
	Topics []models.Topic `json:"topics"`
	Errors forms.Errors   `json:"errors,omitempty"`
}

type UserFormView struct {
	Form   forms.UserForm `json:"form"`
	Errors forms.Errors   `json:"errors,omitempty"`
}

// ConfirmView 删除确认页，展示待删除对象的摘要。
type ConfirmView struct {
	Obj string `json:"obj"`
}

type TopicsView struct {
	Topics []models.Topic `json:"topics"`
}

type ActivityView struct {
	RoomMessages []models.Message `json:"room_messages"`
}
