package controller

import (
	"party_games_backend/internal/service"
	"party_games_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// ProgressUpdateRequest 保存断点快照
// swagger:model ProgressUpdateRequest
type ProgressUpdateRequest struct {
	ProgressID uint   `json:"progressId" binding:"required"`
	GameState  string `json:"gameState"`
}

// ProgressCompleteRequest 提交关卡结果
// swagger:model ProgressCompleteRequest
type ProgressCompleteRequest struct {
	ProgressID uint   `json:"progressId" binding:"required"`
	ResultData string `json:"resultData"`
	IsPassed   bool   `json:"isPassed"`
}

// StartLevel godoc
// @Summary 开始关卡
// @Description 已有进行中的记录时原样返回；失败的记录在重试次数内重新开始
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param level_id path int true "关卡ID"
// @Success 201 {object} util.Response{data=model.LevelProgress}
// @Failure 403 {object} util.Response "前一关未完成或重试次数用尽"
// @Failure 404 {object} util.Response "关卡不存在"
// @Router /events/{id}/levels/{level_id}/start [post]
func (c *ProgressController) StartLevel(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	eventID, levelID, ok := eventLevelIDs(ctx)
	if !ok {
		return
	}
	progress, err := c.ProgressService.Start(ctx.Request.Context(), actor.UserID, eventID, levelID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, progress)
}

// SaveProgress godoc
// @Summary 保存游戏进度
// @Tags 进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param level_id path int true "关卡ID"
// @Param body body ProgressUpdateRequest true "游戏快照"
// @Success 200 {object} util.Response
// @Router /events/{id}/levels/{level_id}/progress [put]
func (c *ProgressController) SaveProgress(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	eventID, levelID, ok := eventLevelIDs(ctx)
	if !ok {
		return
	}
	var req ProgressUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.ProgressService.UpdateState(ctx.Request.Context(), req.ProgressID, actor.UserID, eventID, levelID, req.GameState); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Progress saved", "progressId": req.ProgressID})
}

// CompleteLevel godoc
// @Summary 提交关卡结果
// @Tags 进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param level_id path int true "关卡ID"
// @Param body body ProgressCompleteRequest true "结果"
// @Success 200 {object} util.Response{data=service.CompleteResult}
// @Failure 409 {object} util.Response "关卡不在进行中"
// @Router /events/{id}/levels/{level_id}/complete [post]
func (c *ProgressController) CompleteLevel(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	eventID, levelID, ok := eventLevelIDs(ctx)
	if !ok {
		return
	}
	var req ProgressCompleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	res, err := c.ProgressService.Complete(ctx.Request.Context(), req.ProgressID, actor.UserID, eventID, levelID, req.ResultData, req.IsPassed)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// GetSummary godoc
// @Summary 我的活动进度
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Success 200 {object} util.Response{data=service.ProgressSummary}
// @Router /events/{id}/progress [get]
func (c *ProgressController) GetSummary(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	eventID, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	summary, err := c.ProgressService.Summary(ctx.Request.Context(), eventID, actor.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// ListAttempts godoc
// @Summary 关卡尝试记录
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param level_id path int true "关卡ID"
// @Success 200 {object} util.Response{data=[]model.LevelProgress}
// @Router /events/{id}/levels/{level_id}/attempts [get]
func (c *ProgressController) ListAttempts(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	eventID, levelID, ok := eventLevelIDs(ctx)
	if !ok {
		return
	}
	attempts, err := c.ProgressService.Attempts(ctx.Request.Context(), eventID, levelID, actor.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}
