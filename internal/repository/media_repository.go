package repository

import (
	"context"

	"party_games_backend/internal/model"

	"gorm.io/gorm"
)

type MediaRepository struct {
	DB *gorm.DB
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{DB: db}
}

func (r *MediaRepository) Create(ctx context.Context, asset *model.MediaAsset) error {
	return r.DB.WithContext(ctx).Create(asset).Error
}

func (r *MediaRepository) FindByID(ctx context.Context, id uint) (*model.MediaAsset, error) {
	var asset model.MediaAsset
	if err := r.DB.WithContext(ctx).First(&asset, id).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

type MediaFilter struct {
	LevelID   *uint
	AssetType string
}

func (r *MediaRepository) ListByEvent(ctx context.Context, eventID uint, filter MediaFilter) ([]model.MediaAsset, error) {
	var assets []model.MediaAsset
	query := r.DB.WithContext(ctx).Where("event_id = ?", eventID)
	if filter.LevelID != nil {
		query = query.Where("level_id = ?", *filter.LevelID)
	}
	if filter.AssetType != "" {
		query = query.Where("asset_type = ?", filter.AssetType)
	}
	err := query.Order("display_order asc, id asc").Find(&assets).Error
	return assets, err
}

func (r *MediaRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&model.MediaAsset{}, id).Error
}
