package repository

import (
	"context"

	"party_games_backend/internal/model"

	"gorm.io/gorm"
)

type LevelRepository struct {
	DB *gorm.DB
}

func NewLevelRepository(db *gorm.DB) *LevelRepository {
	return &LevelRepository{DB: db}
}

func (r *LevelRepository) Create(ctx context.Context, level *model.Level) error {
	return r.DB.WithContext(ctx).Create(level).Error
}

func (r *LevelRepository) Update(ctx context.Context, level *model.Level) error {
	return r.DB.WithContext(ctx).Save(level).Error
}

func (r *LevelRepository) FindByID(ctx context.Context, id uint) (*model.Level, error) {
	var level model.Level
	if err := r.DB.WithContext(ctx).First(&level, id).Error; err != nil {
		return nil, err
	}
	return &level, nil
}

// FindInEvent 关卡必须属于该事件且处于启用状态
func (r *LevelRepository) FindInEvent(ctx context.Context, eventID, levelID uint) (*model.Level, error) {
	var level model.Level
	err := r.DB.WithContext(ctx).
		Where("id = ? AND event_id = ? AND is_enabled = ?", levelID, eventID, true).
		First(&level).Error
	if err != nil {
		return nil, err
	}
	return &level, nil
}

// FindPrevEnabled 编号小于 number 的启用关卡中编号最大的一个
func (r *LevelRepository) FindPrevEnabled(ctx context.Context, eventID uint, number int) (*model.Level, error) {
	var level model.Level
	err := r.DB.WithContext(ctx).
		Where("event_id = ? AND level_number < ? AND is_enabled = ?", eventID, number, true).
		Order("level_number desc").
		First(&level).Error
	if err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *LevelRepository) FindNextEnabled(ctx context.Context, eventID uint, number int) (*model.Level, error) {
	var level model.Level
	err := r.DB.WithContext(ctx).
		Where("event_id = ? AND level_number > ? AND is_enabled = ?", eventID, number, true).
		Order("level_number asc").
		First(&level).Error
	if err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *LevelRepository) FindFinal(ctx context.Context, eventID uint) (*model.Level, error) {
	var level model.Level
	err := r.DB.WithContext(ctx).
		Where("event_id = ? AND is_final_level = ? AND is_enabled = ?", eventID, true, true).
		First(&level).Error
	if err != nil {
		return nil, err
	}
	return &level, nil
}

// ListEnabled 按 level_number 升序
func (r *LevelRepository) ListEnabled(ctx context.Context, eventID uint) ([]model.Level, error) {
	var levels []model.Level
	err := r.DB.WithContext(ctx).
		Where("event_id = ? AND is_enabled = ?", eventID, true).
		Order("level_number asc").
		Find(&levels).Error
	return levels, err
}

// ListByEvent 包含已禁用关卡，供组织者管理
func (r *LevelRepository) ListByEvent(ctx context.Context, eventID uint) ([]model.Level, error) {
	var levels []model.Level
	err := r.DB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("level_number asc").
		Find(&levels).Error
	return levels, err
}

func (r *LevelRepository) NumberTaken(ctx context.Context, eventID uint, number int, excludeID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Level{}).
		Where("event_id = ? AND level_number = ? AND id <> ?", eventID, number, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *LevelRepository) HasOtherFinal(ctx context.Context, eventID, excludeID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Level{}).
		Where("event_id = ? AND is_final_level = ? AND id <> ?", eventID, true, excludeID).
		Count(&count).Error
	return count > 0, err
}

// Delete 同时删除该关卡的进度与媒体
func (r *LevelRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("level_id = ?", id).Delete(&model.LevelProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("level_id = ?", id).Delete(&model.MediaAsset{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Level{}, id).Error
	})
}
