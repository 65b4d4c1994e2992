package controller

import (
	"net/http"
	"strconv"

	"party_games_backend/internal/service"
	"party_games_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GameController struct {
	GameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{GameService: gameService}
}

// CreateGame godoc
// @Summary 新增游戏类型
// @Tags 游戏
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.GameRequest true "游戏信息"
// @Success 201 {object} util.Response{data=model.Game}
// @Failure 409 {object} util.Response "游戏类型已存在"
// @Router /games [post]
func (c *GameController) CreateGame(ctx *gin.Context) {
	var req service.GameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	game, err := c.GameService.Create(ctx.Request.Context(), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, game)
}

// ListGames godoc
// @Summary 游戏列表
// @Tags 游戏
// @Produce json
// @Param include_inactive query bool false "是否包含停用的游戏"
// @Success 200 {object} util.Response{data=[]model.Game}
// @Router /games [get]
func (c *GameController) ListGames(ctx *gin.Context) {
	includeInactive, _ := strconv.ParseBool(ctx.Query("include_inactive"))
	games, err := c.GameService.List(ctx.Request.Context(), includeInactive)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, games)
}

// GetGame godoc
// @Summary 游戏详情
// @Tags 游戏
// @Produce json
// @Param id path int true "游戏ID"
// @Success 200 {object} util.Response{data=model.Game}
// @Router /games/{id} [get]
func (c *GameController) GetGame(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	game, err := c.GameService.Get(ctx.Request.Context(), id)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, game)
}

// UpdateGame godoc
// @Summary 修改游戏
// @Tags 游戏
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "游戏ID"
// @Param body body service.GameRequest true "游戏信息"
// @Success 200 {object} util.Response{data=model.Game}
// @Router /games/{id} [put]
func (c *GameController) UpdateGame(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	var req service.GameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	game, err := c.GameService.Update(ctx.Request.Context(), id, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, game)
}

// DeleteGame godoc
// @Summary 删除游戏
// @Tags 游戏
// @Security ApiKeyAuth
// @Param id path int true "游戏ID"
// @Success 204
// @Failure 409 {object} util.Response "仍有关卡在使用"
// @Router /games/{id} [delete]
func (c *GameController) DeleteGame(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	if err := c.GameService.Delete(ctx.Request.Context(), id); err != nil {
		handleServiceError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
