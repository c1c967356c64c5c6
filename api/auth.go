package api

import (
	"crypto/subtle"

	"expensetracker/config"
	"expensetracker/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler 单用户登录
type AuthHandler struct {
	cfg *config.Config
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"owner"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresIn int64  `json:"expires_in"` // 秒
}

// Login 用户登录
// @Summary 用户登录
// @Description 使用配置中的用户名和密码登录，返回 JWT
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} Response{data=LoginResponse} "登录成功"
// @Failure 400 {object} Response{data=ValidationErrorData} "请求参数错误"
// @Failure 401 {object} Response "用户名或密码错误"
// @Failure 429 {object} Response "尝试过于频繁"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Password = ""
		ValidationFailed(c, BindingErrors(err), req)
		return
	}

	auth := h.cfg.Auth
	if subtle.ConstantTimeCompare([]byte(req.Username), []byte(auth.Username)) != 1 || auth.PasswordHash == "" {
		Unauthorized(c, "用户名或密码错误")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(auth.PasswordHash), []byte(req.Password)); err != nil {
		Unauthorized(c, "用户名或密码错误")
		return
	}

	token, err := middleware.GenerateToken(auth.Username, h.cfg.JWT.ExpireTime)
	if err != nil {
		InternalError(c, "生成 token 失败")
		return
	}

	Success(c, LoginResponse{
		Token:     token,
		Username:  auth.Username,
		ExpiresIn: int64(h.cfg.JWT.ExpireTime.Seconds()),
	})
}

// Profile 当前登录用户
// @Summary 获取当前用户
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "获取成功"
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	Success(c, gin.H{"username": middleware.GetCurrentUsername(c)})
}
