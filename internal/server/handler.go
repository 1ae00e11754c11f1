package server

import (
	"errors"
	"net/http"
	"strconv"

	"forum/internal/auth"
	"forum/internal/config"
	"forum/internal/forms"
	"forum/internal/metrics"
	"forum/internal/models"
	"forum/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const refusal = "You are not allowed here!!"

// Handler 聚合所有 HTTP handler，依赖注入 service 层。
type Handler struct {
	cfg      config.Config
	db       *gorm.DB
	userSvc  *service.UserService
	roomSvc  *service.RoomService
	msgSvc   *service.MessageService
	topicSvc *service.TopicService
}

func NewHandler(cfg config.Config, db *gorm.DB, userSvc *service.UserService, roomSvc *service.RoomService, msgSvc *service.MessageService, topicSvc *service.TopicService) *Handler {
	return &Handler{cfg: cfg, db: db, userSvc: userSvc, roomSvc: roomSvc, msgSvc: msgSvc, topicSvc: topicSvc}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// LoginPage 渲染登录页，已登录的访客直接回首页。
func (h *Handler) LoginPage(c *gin.Context) {
	if auth.GetUserID(c) != 0 {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.JSON(http.StatusOK, LoginView{Page: "login"})
}

// Login 处理登录提交。找不到用户和密码错误展示不同的提示，
// 查找失败直接短路，不再继续校验凭据。
func (h *Handler) Login(c *gin.Context) {
	if auth.GetUserID(c) != 0 {
		c.Redirect(http.StatusFound, "/")
		return
	}
	var form forms.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, LoginView{Page: "login", Error: "Invalid submission."})
		return
	}
	if errs := form.Validate(); !errs.Empty() {
		c.JSON(http.StatusBadRequest, LoginView{Page: "login", Error: "Invalid submission."})
		return
	}
	user, err := h.userSvc.Authenticate(form.Username, form.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			metrics.LoginFailures.Inc()
			c.JSON(http.StatusUnauthorized, LoginView{Page: "login", Error: "User Does Not Exist."})
		case errors.Is(err, service.ErrInvalidCredentials):
			metrics.LoginFailures.Inc()
			c.JSON(http.StatusUnauthorized, LoginView{Page: "login", Error: "Username OR Password Does Not Exist."})
		default:
			log.Error().Err(err).Str("username", form.Username).Msg("login")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}
	if err := auth.EstablishSession(c, h.db, h.cfg, user.ID); err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("login establish session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// Logout 无条件结束当前会话并回到首页。
func (h *Handler) Logout(c *gin.Context) {
	auth.ClearSession(c, h.db, h.cfg)
	c.Redirect(http.StatusFound, "/")
}

// RegisterPage 渲染注册页。
func (h *Handler) RegisterPage(c *gin.Context) {
	if auth.GetUserID(c) != 0 {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.JSON(http.StatusOK, RegisterView{})
}

// Register 处理注册提交，成功后直接为新用户建立会话。
func (h *Handler) Register(c *gin.Context) {
	var form forms.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, RegisterView{Error: "An error occurred during registration."})
		return
	}
	if errs := form.Validate(); !errs.Empty() {
		c.JSON(http.StatusBadRequest, RegisterView{Error: "An error occurred during registration.", Errors: errs})
		return
	}
	user, err := h.userSvc.Register(form)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			errs := forms.Errors{}
			errs.Add("username", "A user with that username already exists.")
			c.JSON(http.StatusConflict, RegisterView{Error: "An error occurred during registration.", Errors: errs})
			return
		}
		log.Error().Err(err).Str("username", form.Username).Msg("register")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}
	if err := auth.EstablishSession(c, h.db, h.cfg, user.ID); err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("register establish session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// Home 首页：房间搜索、前 5 个主题、匹配房间数，以及主题名
// 命中查询词的留言动态。q 为空时展示全部。
func (h *Handler) Home(c *gin.Context) {
	q := c.Query("q")
	rooms, err := h.roomSvc.Search(q)
	if err != nil {
		log.Error().Err(err).Str("q", q).Msg("home search rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load home"})
		return
	}
	topics, err := h.topicSvc.Top(5)
	if err != nil {
		log.Error().Err(err).Msg("home top topics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load home"})
		return
	}
	msgs, err := h.msgSvc.ByTopicQuery(q)
	if err != nil {
		log.Error().Err(err).Str("q", q).Msg("home related messages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load home"})
		return
	}
	c.JSON(http.StatusOK, HomeView{Rooms: rooms, Topics: topics, RoomCount: len(rooms), RoomMessages: msgs})
}

// Room 房间详情：房间本体、按创建顺序的留言、参与者。
func (h *Handler) Room(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	room, err := h.roomSvc.Detail(id)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		log.Error().Err(err).Uint("room_id", id).Msg("room detail")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load room"})
		return
	}
	c.JSON(http.StatusOK, RoomView{Room: *room, RoomMessages: room.Messages, Participants: room.Participants})
}

// PostMessage 在房间里发言并把发言者加入参与者，完成后跳回房间页。
func (h *Handler) PostMessage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	var form forms.MessageForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	actorID := auth.GetUserID(c)
	if _, err := h.msgSvc.Post(actorID, id, form.Body); err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		log.Error().Err(err).Uint("room_id", id).Uint("user_id", actorID).Msg("post message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to post message"})
		return
	}
	metrics.MessagesPosted.Inc()
	c.Redirect(http.StatusFound, "/room/"+strconv.FormatUint(uint64(id), 10))
}

// Profile 用户主页：其主持的房间、发表的留言和完整主题侧栏。
func (h *Handler) Profile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	data, err := h.userSvc.Profile(id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Error().Err(err).Uint("user_id", id).Msg("profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	c.JSON(http.StatusOK, data)
}

// CreateRoomPage 渲染建房表单，附完整主题列表供选择。
func (h *Handler) CreateRoomPage(c *gin.Context) {
	topics, err := h.topicSvc.Search("")
	if err != nil {
		log.Error().Err(err).Msg("room form topics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load form"})
		return
	}
	c.JSON(http.StatusOK, RoomFormView{Topics: topics})
}

// CreateRoom 以当前用户为宿主创建房间，主题按名 get-or-create。
func (h *Handler) CreateRoom(c *gin.Context) {
	var form forms.RoomForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if errs := form.Validate(); !errs.Empty() {
		topics, _ := h.topicSvc.Search("")
		c.JSON(http.StatusBadRequest, RoomFormView{Topics: topics, Errors: errs})
		return
	}
	actorID := auth.GetUserID(c)
	if _, err := h.roomSvc.Create(actorID, form); err != nil {
		log.Error().Err(err).Uint("host_id", actorID).Str("name", form.Name).Msg("create room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}
	metrics.RoomsCreated.Inc()
	c.Redirect(http.StatusFound, "/")
}

// UpdateRoomPage 渲染编辑表单。非宿主直接收到拒绝文本。
func (h *Handler) UpdateRoomPage(c *gin.Context) {
	room, ok := h.fetchRoomForOwner(c)
	if !ok {
		return
	}
	topics, err := h.topicSvc.Search("")
	if err != nil {
		log.Error().Err(err).Msg("room form topics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load form"})
		return
	}
	c.JSON(http.StatusOK, RoomFormView{Room: room, Topics: topics})
}

// UpdateRoom 覆盖房间的名称、主题和描述，仅宿主可操作。
func (h *Handler) UpdateRoom(c *gin.Context) {
	room, ok := h.fetchRoomForOwner(c)
	if !ok {
		return
	}
	var form forms.RoomForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if errs := form.Validate(); !errs.Empty() {
		topics, _ := h.topicSvc.Search("")
		c.JSON(http.StatusBadRequest, RoomFormView{Room: room, Topics: topics, Errors: errs})
		return
	}
	actorID := auth.GetUserID(c)
	if err := h.roomSvc.Update(actorID, room.ID, form); err != nil {
		h.roomError(c, err, room.ID, "update room")
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// DeleteRoomPage 渲染删除确认页，展示刚取出的房间名。
func (h *Handler) DeleteRoomPage(c *gin.Context) {
	room, ok := h.fetchRoomForOwner(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ConfirmView{Obj: room.Name})
}

// DeleteRoom 删除房间及其留言和参与者关联，仅宿主可操作。
func (h *Handler) DeleteRoom(c *gin.Context) {
	room, ok := h.fetchRoomForOwner(c)
	if !ok {
		return
	}
	actorID := auth.GetUserID(c)
	if err := h.roomSvc.Delete(actorID, room.ID); err != nil {
		h.roomError(c, err, room.ID, "delete room")
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// fetchRoomForOwner 取出路径里的房间并做宿主检查。失败时已写好响应。
func (h *Handler) fetchRoomForOwner(c *gin.Context) (*models.Room, bool) {
	id, okID := pathID(c)
	if !okID {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return nil, false
	}
	r, err := h.roomSvc.Get(id)
	if err != nil {
		h.roomError(c, err, id, "fetch room")
		return nil, false
	}
	if r.HostID != auth.GetUserID(c) {
		c.String(http.StatusForbidden, refusal)
		return nil, false
	}
	return r, true
}

func (h *Handler) roomError(c *gin.Context, err error, roomID uint, op string) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case errors.Is(err, service.ErrForbidden):
		c.String(http.StatusForbidden, refusal)
	default:
		log.Error().Err(err).Uint("room_id", roomID).Msg(op)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}

// DeleteMessagePage 渲染留言删除确认页。
func (h *Handler) DeleteMessagePage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	msg, err := h.msgSvc.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		log.Error().Err(err).Uint("message_id", id).Msg("fetch message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
		return
	}
	if msg.UserID != auth.GetUserID(c) {
		c.String(http.StatusForbidden, refusal)
		return
	}
	c.JSON(http.StatusOK, ConfirmView{Obj: msg.Body})
}

// DeleteMessage 删除留言，仅作者本人可操作。
func (h *Handler) DeleteMessage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	if err := h.msgSvc.Delete(auth.GetUserID(c), id); err != nil {
		switch {
		case errors.Is(err, service.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		case errors.Is(err, service.ErrForbidden):
			c.String(http.StatusForbidden, refusal)
		default:
			log.Error().Err(err).Uint("message_id", id).Msg("delete message")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
		}
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// UpdateUserPage 渲染个人资料编辑表单，预填当前值。
func (h *Handler) UpdateUserPage(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	form := forms.UserForm{Username: user.Username, Email: user.Email, Bio: user.Bio}
	c.JSON(http.StatusOK, UserFormView{Form: form})
}

// UpdateUser 保存资料修改，成功后跳到自己的主页。
// 校验失败只回显字段错误，没有全局提示条。
func (h *Handler) UpdateUser(c *gin.Context) {
	actorID := auth.GetUserID(c)
	var form forms.UserForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if errs := form.Validate(); !errs.Empty() {
		c.JSON(http.StatusBadRequest, UserFormView{Form: form, Errors: errs})
		return
	}
	if _, err := h.userSvc.Update(actorID, form); err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			errs := forms.Errors{}
			errs.Add("username", "A user with that username already exists.")
			c.JSON(http.StatusConflict, UserFormView{Form: form, Errors: errs})
			return
		}
		log.Error().Err(err).Uint("user_id", actorID).Msg("update user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}
	c.Redirect(http.StatusFound, "/profile/"+strconv.FormatUint(uint64(actorID), 10))
}

// Topics 主题列表页，支持名称子串搜索。
func (h *Handler) Topics(c *gin.Context) {
	topics, err := h.topicSvc.Search(c.Query("q"))
	if err != nil {
		log.Error().Err(err).Msg("list topics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list topics"})
		return
	}
	c.JSON(http.StatusOK, TopicsView{Topics: topics})
}

// Activity 全站留言动态。
func (h *Handler) Activity(c *gin.Context) {
	msgs, err := h.msgSvc.Activity()
	if err != nil {
		log.Error().Err(err).Msg("activity")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load activity"})
		return
	}
	c.JSON(http.StatusOK, ActivityView{RoomMessages: msgs})
}
