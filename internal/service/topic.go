package service

import (
	"errors"

	"forum/internal/models"

	"gorm.io/gorm"
)

// TopicService 封装主题查询与按名去重的创建逻辑。
type TopicService struct {
	db *gorm.DB
}

func NewTopicService(db *gorm.DB) *TopicService {
	return &TopicService{db: db}
}

// Search 返回名称包含 q 的主题，大小写不敏感，q 为空时返回全部。
func (s *TopicService) Search(q string) ([]models.Topic, error) {
	var topics []models.Topic
	pat := likePattern(q)
	if err := s.db.Where(`LOWER(name) LIKE ? ESCAPE '\'`, pat).Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

// Top 返回首页侧栏用的前 n 个主题。
func (s *TopicService) Top(n int) ([]models.Topic, error) {
	var topics []models.Topic
	if err := s.db.Limit(n).Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

// GetOrCreate 按精确名称取主题，不存在则创建。name 上的唯一索引
// 保护并发下的重复创建：撞上冲突时重读一次即可。
func (s *TopicService) GetOrCreate(name string) (*models.Topic, error) {
	var topic models.Topic
	err := s.db.Where("name = ?", name).First(&topic).Error
	if err == nil {
		return &topic, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	topic = models.Topic{Name: name}
	if err := s.db.Create(&topic).Error; err != nil {
		// 另一请求抢先创建了同名主题
		var existing models.Topic
		if err2 := s.db.Where("name = ?", name).First(&existing).Error; err2 == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &topic, nil
}
