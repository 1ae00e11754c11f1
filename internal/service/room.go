package service

import (
	"errors"

	"forum/internal/forms"
	"forum/internal/models"

	"gorm.io/gorm"
)

// RoomService 封装房间的查询、搜索与宿主专属的增删改。
type RoomService struct {
	db     *gorm.DB
	topics *TopicService
}

func NewRoomService(db *gorm.DB, topics *TopicService) *RoomService {
	return &RoomService{db: db, topics: topics}
}

// Search 返回主题名、房间名或描述包含 q 的房间，三个字段 OR 组合，
// 大小写不敏感。q 为空时匹配全部房间。
func (s *RoomService) Search(q string) ([]models.Room, error) {
	pat := likePattern(q)
	var rooms []models.Room
	err := s.db.
		Joins("JOIN topics ON topics.id = rooms.topic_id").
		Where(`LOWER(topics.name) LIKE ? ESCAPE '\' OR LOWER(rooms.name) LIKE ? ESCAPE '\' OR LOWER(rooms.description) LIKE ? ESCAPE '\'`, pat, pat, pat).
		Preload("Topic").Preload("Host").
		Order("rooms.id desc").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// Get 按 ID 取房间本体（含主题与宿主）。
func (s *RoomService) Get(id uint) (*models.Room, error) {
	var room models.Room
	err := s.db.Preload("Topic").Preload("Host").First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// Detail 返回房间详情页数据：房间、按创建顺序的全部留言、参与者。
func (s *RoomService) Detail(id uint) (*models.Room, error) {
	var room models.Room
	err := s.db.
		Preload("Topic").Preload("Host").Preload("Participants").
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("messages.id asc") }).
		Preload("Messages.User").
		First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// Create 以操作者为宿主创建房间，主题按名 get-or-create。
func (s *RoomService) Create(hostID uint, form forms.RoomForm) (*models.Room, error) {
	topic, err := s.topics.GetOrCreate(form.Topic)
	if err != nil {
		return nil, err
	}
	room := models.Room{
		Name:        form.Name,
		Description: form.Description,
		TopicID:     topic.ID,
		HostID:      hostID,
	}
	if err := s.db.Create(&room).Error; err != nil {
		return nil, err
	}
	room.Topic = *topic
	return &room, nil
}

// Update 覆盖房间的名称、主题和描述。仅宿主可操作。
func (s *RoomService) Update(actorID, roomID uint, form forms.RoomForm) error {
	room, err := s.Get(roomID)
	if err != nil {
		return err
	}
	if room.HostID != actorID {
		return ErrForbidden
	}
	topic, err := s.topics.GetOrCreate(form.Topic)
	if err != nil {
		return err
	}
	room.Name = form.Name
	room.TopicID = topic.ID
	room.Description = form.Description
	return s.db.Model(room).Updates(map[string]interface{}{
		"name":        room.Name,
		"topic_id":    room.TopicID,
		"description": room.Description,
	}).Error
}

// Delete 删除房间及其全部留言和参与者关联。仅宿主可操作。
// 级联在事务里显式执行，不依赖数据库外键设置。
func (s *RoomService) Delete(actorID, roomID uint) error {
	room, err := s.Get(roomID)
	if err != nil {
		return err
	}
	if room.HostID != actorID {
		return ErrForbidden
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM room_participants WHERE room_id = ?", roomID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Room{}, roomID).Error
	})
}
