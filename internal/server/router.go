package server

import (
	"net/http"
	"time"

	"forum/internal/auth"
	"forum/internal/config"
	"forum/internal/metrics"
	"forum/internal/mw"
	"forum/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// SetupRouter 统一初始化 Gin 中间件和论坛的全部路由。
func SetupRouter(cfg config.Config, db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))
	r.Use(mw.CORS(cfg.Env))
	r.Use(auth.Middleware(cfg, db))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	topicSvc := service.NewTopicService(db)
	userSvc := service.NewUserService(db)
	roomSvc := service.NewRoomService(db, topicSvc)
	msgSvc := service.NewMessageService(db)
	h := NewHandler(cfg, db, userSvc, roomSvc, msgSvc, topicSvc)

	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)
	r.GET("/register", h.RegisterPage)
	r.POST("/register", h.Register)

	r.GET("/", h.Home)
	r.GET("/room/:id", h.Room)
	r.GET("/profile/:id", h.Profile)
	r.GET("/topics", h.Topics)
	r.GET("/activity", h.Activity)

	// 需要登录的页面，匿名访问重定向到 /login。
	authed := r.Group("")
	authed.Use(auth.RequireAuth())
	authed.POST("/room/:id", h.PostMessage)
	authed.GET("/create-room", h.CreateRoomPage)
	authed.POST("/create-room", h.CreateRoom)
	authed.GET("/update-room/:id", h.UpdateRoomPage)
	authed.POST("/update-room/:id", h.UpdateRoom)
	authed.GET("/delete-room/:id", h.DeleteRoomPage)
	authed.POST("/delete-room/:id", h.DeleteRoom)
	authed.GET("/delete-message/:id", h.DeleteMessagePage)
	authed.POST("/delete-message/:id", h.DeleteMessage)
	authed.GET("/update-user", h.UpdateUserPage)
	authed.POST("/update-user", h.UpdateUser)

	return r
}
