package controller

import (
	"net/http"
	"strconv"

	"party_games_backend/internal/repository"
	"party_games_backend/internal/service"
	"party_games_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MediaController struct {
	MediaService *service.MediaService
}

func NewMediaController(mediaService *service.MediaService) *MediaController {
	return &MediaController{MediaService: mediaService}
}

func optionalUint(v string) (*uint, bool) {
	if v == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil || n == 0 {
		return nil, false
	}
	id := uint(n)
	return &id, true
}

// UploadMedia godoc
// @Summary 上传媒体文件
// @Description 图片或视频，视频在可用时生成缩略图
// @Tags 媒体
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param file formData file true "文件"
// @Param asset_type formData string true "MEMORY_CARD_IMAGE / PUZZLE_IMAGE / BABY_PHOTO / VIDEO"
// @Param level_id formData int false "关卡ID"
// @Param display_order formData int false "排序"
// @Success 201 {object} util.Response{data=model.MediaAsset}
// @Failure 400 {object} util.Response "文件类型不支持或过大"
// @Router /events/{id}/media [post]
func (c *MediaController) UploadMedia(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	eventID, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	levelID, ok := optionalUint(ctx.PostForm("level_id"))
	if !ok {
		util.BadRequest(ctx, "invalid level_id")
		return
	}
	order, _ := strconv.Atoi(ctx.PostForm("display_order"))

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	asset, err := c.MediaService.Upload(ctx.Request.Context(), actor, eventID, service.MediaUpload{
		LevelID:      levelID,
		AssetType:    ctx.PostForm("asset_type"),
		DisplayOrder: order,
		Filename:     fileHeader.Filename,
		Size:         fileHeader.Size,
		File:         file,
	})
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, asset)
}

// RegisterMedia godoc
// @Summary 登记外部媒体地址
// @Tags 媒体
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param body body service.MediaRegisterRequest true "媒体信息"
// @Success 201 {object} util.Response{data=model.MediaAsset}
// @Router /events/{id}/media/url [post]
func (c *MediaController) RegisterMedia(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	eventID, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	var req service.MediaRegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	asset, err := c.MediaService.Register(ctx.Request.Context(), actor, eventID, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, asset)
}

// ListMedia godoc
// @Summary 活动媒体列表
// @Tags 媒体
// @Produce json
// @Param id path int true "活动ID"
// @Param level_id query int false "关卡ID"
// @Param asset_type query string false "媒体类型"
// @Success 200 {object} util.Response{data=[]model.MediaAsset}
// @Router /events/{id}/media [get]
func (c *MediaController) ListMedia(ctx *gin.Context) {
	eventID, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	levelID, ok := optionalUint(ctx.Query("level_id"))
	if !ok {
		util.BadRequest(ctx, "invalid level_id")
		return
	}
	assets, err := c.MediaService.List(ctx.Request.Context(), eventID, repository.MediaFilter{
		LevelID:   levelID,
		AssetType: ctx.Query("asset_type"),
	})
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, assets)
}

// DeleteMedia godoc
// @Summary 删除媒体
// @Tags 媒体
// @Security ApiKeyAuth
// @Param id path int true "媒体ID"
// @Success 204
// @Router /media/{id} [delete]
func (c *MediaController) DeleteMedia(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}
	if err := c.MediaService.Delete(ctx.Request.Context(), actor, id); err != nil {
		handleServiceError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
