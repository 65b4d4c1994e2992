package service

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"party_games_backend/internal/model"
	"party_games_backend/internal/repository"
	"party_games_backend/internal/util"
	"party_games_backend/pkg/logger"

	"go.uber.org/zap"
)

var assetTypes = map[string]bool{
	model.AssetMemoryCardImage: true,
	model.AssetPuzzleImage:     true,
	model.AssetBabyPhoto:       true,
	model.AssetVideo:           true,
}

type MediaService struct {
	MediaRepo *repository.MediaRepository
	EventRepo *repository.EventRepository
	LevelRepo *repository.LevelRepository
	Store     ObjectStore
	MaxBytes  int64
}

func NewMediaService(mediaRepo *repository.MediaRepository, eventRepo *repository.EventRepository, levelRepo *repository.LevelRepository, store ObjectStore, maxUploadMB int64) *MediaService {
	return &MediaService{
		MediaRepo: mediaRepo,
		EventRepo: eventRepo,
		LevelRepo: levelRepo,
		Store:     store,
		MaxBytes:  maxUploadMB << 20,
	}
}

type MediaRegisterRequest struct {
	LevelID       *uint   `json:"levelId"`
	AssetType     string  `json:"assetType" binding:"required"`
	FileURL       string  `json:"fileUrl" binding:"required"`
	ThumbnailURL  *string `json:"thumbnailUrl"`
	DisplayOrder  int     `json:"displayOrder"`
	AssetMetadata *string `json:"assetMetadata"`
}

// MediaUpload 上传文件时的表单字段
type MediaUpload struct {
	LevelID      *uint
	AssetType    string
	DisplayOrder int
	Filename     string
	Size         int64
	File         io.ReadSeeker
}

func (s *MediaService) check(ctx context.Context, actor Actor, eventID uint, levelID *uint, assetType string) error {
	event, err := s.EventRepo.FindByID(ctx, eventID)
	if err != nil {
		return notFoundOr(err, "event")
	}
	if !canManage(actor, event) {
		return wrap(ErrForbidden, "not the organizer of this event")
	}
	if !assetTypes[assetType] {
		return wrap(ErrValidation, "unknown asset type")
	}
	if levelID != nil {
		level, err := s.LevelRepo.FindByID(ctx, *levelID)
		if err != nil {
			return notFoundOr(err, "level")
		}
		if level.EventID != eventID {
			return wrap(ErrNotFound, "level not found")
		}
	}
	return nil
}

// Register 登记已上传到外部存储的文件地址
func (s *MediaService) Register(ctx context.Context, actor Actor, eventID uint, req MediaRegisterRequest) (*model.MediaAsset, error) {
	req.AssetType = strings.ToUpper(strings.TrimSpace(req.AssetType))
	if err := s.check(ctx, actor, eventID, req.LevelID, req.AssetType); err != nil {
		return nil, err
	}
	asset := &model.MediaAsset{
		EventID:       eventID,
		LevelID:       req.LevelID,
		AssetType:     req.AssetType,
		FileURL:       req.FileURL,
		ThumbnailURL:  req.ThumbnailURL,
		DisplayOrder:  req.DisplayOrder,
		AssetMetadata: req.AssetMetadata,
	}
	if err := s.MediaRepo.Create(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

func (s *MediaService) Upload(ctx context.Context, actor Actor, eventID uint, up MediaUpload) (*model.MediaAsset, error) {
	up.AssetType = strings.ToUpper(strings.TrimSpace(up.AssetType))
	if err := s.check(ctx, actor, eventID, up.LevelID, up.AssetType); err != nil {
		return nil, err
	}
	if s.MaxBytes > 0 && up.Size > s.MaxBytes {
		return nil, wrap(ErrValidation, "file too large")
	}
	mimeType, err := util.DetectMimeType(up.File, util.AllowedMediaTypes)
	if err != nil {
		return nil, wrap(ErrValidation, err.Error())
	}

	key := util.ObjectKey(eventID, up.Filename)
	url, err := s.Store.Put(ctx, key, up.File, up.Size, mimeType)
	if err != nil {
		return nil, err
	}

	asset := &model.MediaAsset{
		EventID:      eventID,
		LevelID:      up.LevelID,
		AssetType:    up.AssetType,
		FileURL:      url,
		DisplayOrder: up.DisplayOrder,
		ObjectKey:    &key,
	}
	if util.IsVideo(mimeType) {
		s.attachVideoPreview(ctx, asset, up.File, key)
	}

	if err := s.MediaRepo.Create(ctx, asset); err != nil {
		if rmErr := s.Store.Remove(ctx, key); rmErr != nil {
			logger.Log.Warn("Failed to remove orphaned object", zap.String("key", key), zap.Error(rmErr))
		}
		return nil, err
	}
	logger.Log.Info("Media uploaded",
		zap.Uint("event_id", eventID),
		zap.Uint("asset_id", asset.ID),
		zap.String("mime", mimeType))
	return asset, nil
}

// attachVideoPreview 生成缩略图与时长信息，失败时只记录日志
func (s *MediaService) attachVideoPreview(ctx context.Context, asset *model.MediaAsset, file io.ReadSeeker, key string) {
	if !util.FFmpegAvailable() {
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return
	}

	dir, err := os.MkdirTemp("", "party-media-")
	if err != nil {
		logger.Log.Warn("Video preview skipped", zap.Error(err))
		return
	}
	defer os.RemoveAll(dir)

	videoPath := filepath.Join(dir, "source"+filepath.Ext(key))
	tmp, err := os.Create(videoPath)
	if err != nil {
		logger.Log.Warn("Video preview skipped", zap.Error(err))
		return
	}
	_, err = io.Copy(tmp, file)
	tmp.Close()
	if err != nil {
		logger.Log.Warn("Video preview skipped", zap.Error(err))
		return
	}

	if info, err := util.ProbeVideo(videoPath); err == nil {
		if b, err := json.Marshal(info); err == nil {
			meta := string(b)
			asset.AssetMetadata = &meta
		}
	}

	thumbPath := filepath.Join(dir, "thumb.jpg")
	if err := util.GenerateThumbnail(videoPath, thumbPath, "00:00:01"); err != nil {
		logger.Log.Warn("Thumbnail generation failed", zap.String("key", key), zap.Error(err))
		return
	}
	thumbKey := strings.TrimSuffix(key, filepath.Ext(key)) + "_thumb.jpg"
	url, err := s.Store.PutFile(ctx, thumbKey, thumbPath, "image/jpeg")
	if err != nil {
		logger.Log.Warn("Thumbnail upload failed", zap.String("key", thumbKey), zap.Error(err))
		return
	}
	asset.ThumbnailURL = &url
}

func (s *MediaService) List(ctx context.Context, eventID uint, filter repository.MediaFilter) ([]model.MediaAsset, error) {
	if _, err := s.EventRepo.FindByID(ctx, eventID); err != nil {
		return nil, notFoundOr(err, "event")
	}
	filter.AssetType = strings.ToUpper(strings.TrimSpace(filter.AssetType))
	return s.MediaRepo.ListByEvent(ctx, eventID, filter)
}

// Delete 由本服务上传的对象一并从存储中删除
func (s *MediaService) Delete(ctx context.Context, actor Actor, assetID uint) error {
	asset, err := s.MediaRepo.FindByID(ctx, assetID)
	if err != nil {
		return notFoundOr(err, "media")
	}
	event, err := s.EventRepo.FindByID(ctx, asset.EventID)
	if err != nil {
		return notFoundOr(err, "event")
	}
	if !canManage(actor, event) {
		return wrap(ErrForbidden, "not the organizer of this event")
	}
	if err := s.MediaRepo.Delete(ctx, assetID); err != nil {
		return err
	}
	if asset.ObjectKey != nil {
		if err := s.Store.Remove(ctx, *asset.ObjectKey); err != nil {
			logger.Log.Warn("Failed to remove media object", zap.String("key", *asset.ObjectKey), zap.Error(err))
		}
	}
	return nil
}
