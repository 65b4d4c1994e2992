package controller

import (
	"net/http"

	"party_games_backend/internal/service"
	"party_games_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LevelController struct {
	LevelService *service.LevelService
}

func NewLevelController(levelService *service.LevelService) *LevelController {
	return &LevelController{LevelService: levelService}
}

func eventLevelIDs(ctx *gin.Context) (eventID, levelID uint, ok bool) {
	if eventID, ok = util.ParamUint(ctx, "id"); !ok {
		return
	}
	levelID, ok = util.ParamUint(ctx, "level_id")
	return
}

// AddLevel godoc
// @Summary 为活动添加关卡
// @Tags 关卡
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param body body service.LevelCreateRequest true "关卡信息"
// @Success 201 {object} util.Response{data=model.Level}
// @Failure 409 {object} util.Response "关卡序号重复或已有最终关"
// @Router /events/{id}/levels [post]
func (c *LevelController) AddLevel(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	eventID, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	var req service.LevelCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	level, err := c.LevelService.Add(ctx.Request.Context(), actor, eventID, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, level)
}

// ListLevels godoc
// @Summary 活动关卡列表
// @Description 登录用户附带解锁状态与最好成绩，匿名访问只解锁第一关
// @Tags 关卡
// @Produce json
// @Param id path int true "活动ID"
// @Success 200 {object} util.Response{data=[]service.LevelDetail}
// @Router /events/{id}/levels [get]
func (c *LevelController) ListLevels(ctx *gin.Context) {
	eventID, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	levels, err := c.LevelService.ListForUser(ctx.Request.Context(), eventID, viewerID(ctx))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, levels)
}

// GetLevel godoc
// @Summary 关卡详情
// @Tags 关卡
// @Produce json
// @Param id path int true "活动ID"
// @Param level_id path int true "关卡ID"
// @Success 200 {object} util.Response{data=service.LevelDetail}
// @Router /events/{id}/levels/{level_id} [get]
func (c *LevelController) GetLevel(ctx *gin.Context) {
	eventID, levelID, ok := eventLevelIDs(ctx)
	if !ok {
		return
	}
	level, err := c.LevelService.Get(ctx.Request.Context(), eventID, levelID, viewerID(ctx))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, level)
}

// UpdateLevel godoc
// @Summary 修改关卡
// @Tags 关卡
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param level_id path int true "关卡ID"
// @Param body body service.LevelUpdateRequest true "可修改字段"
// @Success 200 {object} util.Response{data=model.Level}
// @Router /events/{id}/levels/{level_id} [put]
func (c *LevelController) UpdateLevel(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	eventID, levelID, ok := eventLevelIDs(ctx)
	if !ok {
		return
	}
	var req service.LevelUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	level, err := c.LevelService.Update(ctx.Request.Context(), actor, eventID, levelID, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, level)
}

// DeleteLevel godoc
// @Summary 删除关卡
// @Tags 关卡
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param level_id path int true "关卡ID"
// @Success 204
// @Router /events/{id}/levels/{level_id} [delete]
func (c *LevelController) DeleteLevel(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	eventID, levelID, ok := eventLevelIDs(ctx)
	if !ok {
		return
	}
	if err := c.LevelService.Delete(ctx.Request.Context(), actor, eventID, levelID); err != nil {
		handleServiceError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
