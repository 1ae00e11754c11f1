package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"forum/internal/config"
	"forum/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	AccessCookie  = "access_token"
	SessionCookie = "session_token"
)

type Claims struct {
	UserID uint `json:"uid"`
	jwt.RegisteredClaims
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func VerifyPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func GenerateAccessToken(userID uint, secret string, ttlMinutes int) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlMinutes) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseAccessToken(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func GenerateSessionToken() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func SaveSession(db *gorm.DB, userID uint, token string, expiresAt time.Time) error {
	s := models.Session{UserID: userID, Token: token, ExpiresAt: expiresAt}
	return db.Create(&s).Error
}

func ValidateSession(db *gorm.DB, token string) (*models.Session, error) {
	var s models.Session
	err := db.Where("token = ? AND revoked_at IS NULL AND expires_at > ?", token, time.Now()).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func RevokeSession(db *gorm.DB, token string) error {
	now := time.Now()
	return db.Model(&models.Session{}).Where("token = ?", token).Update("revoked_at", &now).Error
}

// EstablishSession 为用户签发 access JWT 与数据库会话令牌，
// 并写入 HttpOnly cookie。登录与注册成功后调用。
func EstablishSession(c *gin.Context, db *gorm.DB, cfg config.Config, userID uint) error {
	at, err := GenerateAccessToken(userID, cfg.JWTSecret, cfg.AccessTokenTTLMinutes)
	if err != nil {
		return err
	}
	st, err := GenerateSessionToken()
	if err != nil {
		return err
	}
	exp := time.Now().Add(time.Duration(cfg.SessionTTLDays) * 24 * time.Hour)
	if err := SaveSession(db, userID, st, exp); err != nil {
		return err
	}
	setAuthCookies(c, cfg, at, st)
	return nil
}

// ClearSession 吊销当前会话并清掉 cookie，无会话时也静默成功。
// 清除 cookie 的属性必须和签发时一致，否则浏览器不会覆盖。
func ClearSession(c *gin.Context, db *gorm.DB, cfg config.Config) {
	if st, err := c.Cookie(SessionCookie); err == nil && st != "" {
		_ = RevokeSession(db, st)
	}
	secure := cfg.Env != "dev"
	c.SetCookie(AccessCookie, "", -1, "/", "", secure, true)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
}

func setAuthCookies(c *gin.Context, cfg config.Config, accessToken, sessionToken string) {
	secure := cfg.Env != "dev"
	c.SetCookie(AccessCookie, accessToken, cfg.AccessTokenTTLMinutes*60, "/", "", secure, true)
	c.SetCookie(SessionCookie, sessionToken, cfg.SessionTTLDays*24*3600, "/", "", secure, true)
}

// Middleware 解析当前请求的用户身份并放入 context。公开页面也挂载，
// 因此这里从不中断请求；身份缺失只是匿名访问。
// access cookie 过期时退回数据库会话并旋转令牌。
func Middleware(cfg config.Config, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := resolveUserID(c, cfg, db)
		if !ok {
			c.Next()
			return
		}
		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			c.Next()
			return
		}
		c.Set("userID", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

func resolveUserID(c *gin.Context, cfg config.Config, db *gorm.DB) (uint, bool) {
	if at, err := c.Cookie(AccessCookie); err == nil && at != "" {
		if claims, err := ParseAccessToken(at, cfg.JWTSecret); err == nil {
			return claims.UserID, true
		}
	}
	// API 客户端仍可用 Bearer token
	if authz := c.GetHeader("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		if claims, err := ParseAccessToken(tokenStr, cfg.JWTSecret); err == nil {
			return claims.UserID, true
		}
	}
	st, err := c.Cookie(SessionCookie)
	if err != nil || st == "" {
		return 0, false
	}
	rec, err := ValidateSession(db, st)
	if err != nil {
		return 0, false
	}
	// 旋转：旧会话作废，签发新 access token 和新会话
	if err := RevokeSession(db, st); err != nil {
		return 0, false
	}
	at, err := GenerateAccessToken(rec.UserID, cfg.JWTSecret, cfg.AccessTokenTTLMinutes)
	if err != nil {
		return 0, false
	}
	newST, err := GenerateSessionToken()
	if err != nil {
		return 0, false
	}
	exp := time.Now().Add(time.Duration(cfg.SessionTTLDays) * 24 * time.Hour)
	if err := SaveSession(db, rec.UserID, newST, exp); err != nil {
		return 0, false
	}
	setAuthCookies(c, cfg, at, newST)
	return rec.UserID, true
}

// RequireAuth 保护需要登录的页面，匿名访问重定向到登录页。
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == 0 {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
		}
	}
}

func GetUserID(c *gin.Context) uint {
	if v, ok := c.Get("userID"); ok {
		if id, ok2 := v.(uint); ok2 {
			return id
		}
	}
	return 0
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	if v, ok := c.Get("user"); ok {
		if u, ok2 := v.(models.User); ok2 {
			return u, true
		}
	}
	return models.User{}, false
}
