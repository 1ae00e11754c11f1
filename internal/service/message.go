package service

import (
	"errors"

	"forum/internal/models"

	"gorm.io/gorm"
)

// MessageService 封装留言的发布、删除与各类动态查询。
type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// Post 在房间里发布一条留言，并把作者加入参与者集合。
// 重复发言不会产生重复的参与者记录。留言内容允许为空。
func (s *MessageService) Post(actorID, roomID uint, body string) (*models.Message, error) {
	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	msg := models.Message{Body: body, UserID: actorID, RoomID: roomID}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		var count int64
		if err := tx.Table("room_participants").
			Where("room_id = ? AND user_id = ?", roomID, actorID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := tx.Exec("INSERT INTO room_participants (room_id, user_id) VALUES (?, ?)", roomID, actorID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Get 按 ID 取留言。
func (s *MessageService) Get(id uint) (*models.Message, error) {
	var msg models.Message
	if err := s.db.Preload("User").First(&msg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// Delete 删除留言。仅作者本人可操作。
func (s *MessageService) Delete(actorID, msgID uint) error {
	msg, err := s.Get(msgID)
	if err != nil {
		return err
	}
	if msg.UserID != actorID {
		return ErrForbidden
	}
	return s.db.Delete(&models.Message{}, msgID).Error
}

// ByTopicQuery 返回所属房间的主题名包含 q 的留言，作为首页的
// 相关动态信息流。独立于房间搜索结果。
func (s *MessageService) ByTopicQuery(q string) ([]models.Message, error) {
	pat := likePattern(q)
	var msgs []models.Message
	err := s.db.
		Joins("JOIN rooms ON rooms.id = messages.room_id").
		Joins("JOIN topics ON topics.id = rooms.topic_id").
		Where(`LOWER(topics.name) LIKE ? ESCAPE '\'`, pat).
		Preload("User").Preload("Room").
		Order("messages.id desc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// Activity 返回全站留言动态，新留言在前。
func (s *MessageService) Activity() ([]models.Message, error) {
	var msgs []models.Message
	if err := s.db.Preload("User").Preload("Room").Order("id desc").Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
