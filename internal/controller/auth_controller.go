package controller

import (
	"party_games_backend/internal/model"
	"party_games_backend/internal/service"
	"party_games_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// SendOTPRequest 发送验证码请求
// swagger:model SendOTPRequest
type SendOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

// VerifyOTPRequest 校验验证码请求，新用户必须提供 name
// swagger:model VerifyOTPRequest
type VerifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	OTPCode     string `json:"otpCode" binding:"required"`
	Name        string `json:"name"`
}

// SetRoleRequest swagger:model SetRoleRequest
type SetRoleRequest struct {
	Role model.UserRole `json:"role" binding:"required"`
}

// SendOTP godoc
// @Summary 发送手机验证码
// @Description 向 +91 手机号发送 6 位验证码，之前未使用的验证码同时失效
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body SendOTPRequest true "手机号"
// @Success 200 {object} util.Response{data=service.SendOTPResult}
// @Failure 400 {object} util.Response "手机号格式错误"
// @Failure 429 {object} util.Response "发送过于频繁"
// @Router /auth/send-otp [post]
func (c *AuthController) SendOTP(ctx *gin.Context) {
	var req SendOTPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.AuthService.SendOTP(ctx.Request.Context(), req.PhoneNumber)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// VerifyOTP godoc
// @Summary 校验验证码并登录
// @Description 验证通过后签发 JWT，首次登录自动注册
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body VerifyOTPRequest true "验证码"
// @Success 200 {object} util.Response{data=service.TokenResult}
// @Failure 400 {object} util.Response "参数错误"
// @Failure 401 {object} util.Response "验证码错误或已过期"
// @Router /auth/verify-otp [post]
func (c *AuthController) VerifyOTP(ctx *gin.Context) {
	var req VerifyOTPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.AuthService.VerifyOTP(ctx.Request.Context(), req.PhoneNumber, req.OTPCode, req.Name)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// Me godoc
// @Summary 当前用户信息
// @Tags 认证
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User}
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	user, err := c.AuthService.Profile(ctx.Request.Context(), actor.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UpdateMe godoc
// @Summary 修改当前用户信息
// @Tags 认证
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ProfileUpdate true "可修改字段"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 409 {object} util.Response "邮箱已被使用"
// @Router /auth/me [put]
func (c *AuthController) UpdateMe(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	var req service.ProfileUpdate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user, err := c.AuthService.UpdateProfile(ctx.Request.Context(), actor.UserID, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// SetRole godoc
// @Summary 设置用户角色
// @Tags 管理员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "用户ID"
// @Param body body SetRoleRequest true "角色"
// @Success 200 {object} util.Response{data=model.User}
// @Router /admin/users/{id}/role [put]
func (c *AuthController) SetRole(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	var req SetRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user, err := c.AuthService.SetRole(ctx.Request.Context(), id, req.Role)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, user)
}
