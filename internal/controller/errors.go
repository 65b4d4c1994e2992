package controller

import (
	"errors"
	"net/http"

	"party_games_backend/internal/service"
	"party_games_backend/internal/util"

	"github.com/gin-gonic/gin"
)

var errorStatus = []struct {
	kind   error
	status int
}{
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrInvalidTransition, http.StatusConflict},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrGone, http.StatusGone},
	{service.ErrTooManyRequests, http.StatusTooManyRequests},
}

// handleServiceError 按错误类型映射 HTTP 状态码，未知错误记录日志后返回 500
func handleServiceError(ctx *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.kind) {
			util.Error(ctx, e.status, err.Error())
			return
		}
	}
	util.LogInternalError(ctx, err)
}

// actorFrom 未登录时返回 false 并已写入 401
func actorFrom(ctx *gin.Context) (service.Actor, bool) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return service.Actor{}, false
	}
	return service.Actor{UserID: user.UserID, Role: user.Role}, true
}

// viewerID 匿名访问时为 0
func viewerID(ctx *gin.Context) uint {
	if user := util.GetUserFromContext(ctx); user != nil {
		return user.UserID
	}
	return 0
}
