package controller

import (
	"party_games_backend/internal/service"
	"party_games_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{LeaderboardService: leaderboardService}
}

// GetLeaderboard godoc
// @Summary 活动排行榜
// @Description 按通关数降序、总用时升序排列，前端每 10 到 15 秒轮询
// @Tags 排行榜
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param filter query string false "all 或 completed" default(all)
// @Param limit query int false "每页数量" default(50)
// @Param offset query int false "偏移量" default(0)
// @Success 200 {object} util.Response{data=service.LeaderboardPage}
// @Failure 404 {object} util.Response "活动不存在"
// @Router /events/{id}/leaderboard [get]
func (c *LeaderboardController) GetLeaderboard(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	eventID, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	page, err := c.LeaderboardService.Rank(ctx.Request.Context(),
		eventID,
		actor.UserID,
		service.ParseFilter(ctx.Query("filter")),
		util.QueryInt(ctx, "limit", 0),
		util.QueryInt(ctx, "offset", 0),
	)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, page)
}

// GetMyRank godoc
// @Summary 我的排名
// @Tags 排行榜
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Success 200 {object} util.Response{data=service.MyRank}
// @Router /events/{id}/leaderboard/me [get]
func (c *LeaderboardController) GetMyRank(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	eventID, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	rank, err := c.LeaderboardService.MyRank(ctx.Request.Context(), eventID, actor.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, rank)
}
