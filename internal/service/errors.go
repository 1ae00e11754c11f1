package service

import "errors"

// 业务层通用错误，handler 据此映射到 HTTP 状态码和页面行为。
var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRoomNotFound       = errors.New("room not found")
	ErrMessageNotFound    = errors.New("message not found")
	// ErrForbidden 表示操作者不是资源属主（房主或留言作者）。
	ErrForbidden = errors.New("actor is not the owner")
)
