package controller

import (
	"net/http"
	"strconv"

	"party_games_backend/internal/service"
	"party_games_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EventController struct {
	EventService *service.EventService
}

func NewEventController(eventService *service.EventService) *EventController {
	return &EventController{EventService: eventService}
}

// CreateEvent godoc
// @Summary 创建活动
// @Description 生成二维码令牌，宝宝名字编码后保存
// @Tags 活动
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.EventCreateRequest true "活动信息"
// @Success 201 {object} util.Response{data=model.Event}
// @Failure 400 {object} util.Response "参数错误"
// @Router /events [post]
func (c *EventController) CreateEvent(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	var req service.EventCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	event, err := c.EventService.Create(ctx.Request.Context(), actor, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, event)
}

// ListEvents godoc
// @Summary 活动列表
// @Description 管理员看到全部活动，组织者只看到自己创建的
// @Tags 活动
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /events [get]
func (c *EventController) ListEvents(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	page := util.QueryInt(ctx, "page", 1)
	limit := util.QueryInt(ctx, "limit", 20)
	events, total, err := c.EventService.List(ctx.Request.Context(), actor, page, limit)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: events, Total: total, Page: page, Limit: limit})
}

// GetEvent godoc
// @Summary 活动详情
// @Tags 活动
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Success 200 {object} util.Response{data=service.EventDetail}
// @Failure 403 {object} util.Response "非本活动组织者"
// @Failure 404 {object} util.Response "活动不存在"
// @Router /events/{id} [get]
func (c *EventController) GetEvent(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	detail, err := c.EventService.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// UpdateEvent godoc
// @Summary 修改活动
// @Tags 活动
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param body body service.EventUpdateRequest true "可修改字段"
// @Success 200 {object} util.Response{data=model.Event}
// @Router /events/{id} [put]
func (c *EventController) UpdateEvent(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	var req service.EventUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	event, err := c.EventService.Update(ctx.Request.Context(), actor, id, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, event)
}

// SetEventActive godoc
// @Summary 开启或关闭活动
// @Tags 活动
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param is_active query bool true "是否开启"
// @Success 200 {object} util.Response{data=model.Event}
// @Router /events/{id}/activate [patch]
func (c *EventController) SetEventActive(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	active, err := strconv.ParseBool(ctx.Query("is_active"))
	if err != nil {
		util.BadRequest(ctx, "is_active must be true or false")
		return
	}
	event, err := c.EventService.SetActive(ctx.Request.Context(), actor, id, active)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, event)
}

// DeleteEvent godoc
// @Summary 删除活动
// @Description 同时删除关卡、进度与媒体记录
// @Tags 活动
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Success 204
// @Router /events/{id} [delete]
func (c *EventController) DeleteEvent(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	if err := c.EventService.Delete(ctx.Request.Context(), actor, id); err != nil {
		handleServiceError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// GetEventByQR godoc
// @Summary 扫码进入活动
// @Tags 活动
// @Produce json
// @Param token path string true "二维码令牌"
// @Success 200 {object} util.Response{data=service.PublicEvent}
// @Failure 404 {object} util.Response "活动不存在"
// @Failure 410 {object} util.Response "活动已结束"
// @Router /events/qr/{token} [get]
func (c *EventController) GetEventByQR(ctx *gin.Context) {
	event, err := c.EventService.ByQRToken(ctx.Request.Context(), ctx.Param("token"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, event)
}
