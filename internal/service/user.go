package service

import (
	"errors"
	"strings"

	"forum/internal/auth"
	"forum/internal/forms"
	"forum/internal/models"

	"gorm.io/gorm"
)

// UserService 封装用户注册、认证和资料相关的业务逻辑。
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Register 注册新用户。用户名统一转为小写后存储。
func (s *UserService) Register(form forms.RegisterForm) (*models.User, error) {
	username := strings.ToLower(strings.TrimSpace(form.Username))
	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}
	hash, err := auth.HashPassword(form.Password1)
	if err != nil {
		return nil, err
	}
	user := models.User{Username: username, PasswordHash: hash}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate 校验用户名密码。用户名大小写不敏感：查找前折叠为小写。
// 用户不存在与密码错误返回不同的错误，登录页据此展示不同的提示。
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get 按 ID 查找用户。
func (s *UserService) Get(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ProfileData 个人主页需要的全部数据。
type ProfileData struct {
	User     models.User      `json:"user"`
	Rooms    []models.Room    `json:"rooms"`
	Messages []models.Message `json:"messages"`
	Topics   []models.Topic   `json:"topics"`
}

// Profile 返回用户主页数据：该用户主持的房间、发表的留言，
// 以及侧栏用的完整主题列表。
func (s *UserService) Profile(id uint) (*ProfileData, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	var rooms []models.Room
	if err := s.db.Preload("Topic").Preload("Host").
		Where("host_id = ?", id).Order("id desc").Find(&rooms).Error; err != nil {
		return nil, err
	}
	var msgs []models.Message
	if err := s.db.Preload("User").Preload("Room").
		Where("user_id = ?", id).Order("id desc").Find(&msgs).Error; err != nil {
		return nil, err
	}
	var topics []models.Topic
	if err := s.db.Find(&topics).Error; err != nil {
		return nil, err
	}
	return &ProfileData{User: *user, Rooms: rooms, Messages: msgs, Topics: topics}, nil
}

// Update 更新用户自己的资料字段。用户名保持小写唯一。
func (s *UserService) Update(userID uint, form forms.UserForm) (*models.User, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	username := strings.ToLower(strings.TrimSpace(form.Username))
	var count int64
	if err := s.db.Model(&models.User{}).
		Where("username = ? AND id <> ?", username, userID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}
	user.Username = username
	user.Email = form.Email
	user.Bio = form.Bio
	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
