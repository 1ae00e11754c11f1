package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email        string    `gorm:"size:128" json:"email"`
	Bio          string    `gorm:"type:text" json:"bio"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

type Topic struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
}

type Room struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:128;not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	TopicID      uint      `gorm:"index;not null" json:"topic_id"`
	Topic        Topic     `json:"topic"`
	HostID       uint      `gorm:"index;not null" json:"host_id"`
	Host         User      `json:"host"`
	Participants []User    `gorm:"many2many:room_participants" json:"participants,omitempty"`
	Messages     []Message `gorm:"constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Body      string    `gorm:"type:text" json:"body"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      User      `json:"user"`
	RoomID    uint      `gorm:"index:idx_msg_room_id;not null" json:"room_id"`
	Room      *Room     `json:"room,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Session struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	Token     string    `gorm:"uniqueIndex;size:128;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	RevokedAt *time.Time
	CreatedAt time.Time
}
