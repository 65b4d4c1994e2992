package repository

import (
	"context"

	"party_games_backend/internal/model"

	"gorm.io/gorm"
)

type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) Create(ctx context.Context, event *model.Event) error {
	return r.DB.WithContext(ctx).Create(event).Error
}

func (r *EventRepository) Update(ctx context.Context, event *model.Event) error {
	return r.DB.WithContext(ctx).Save(event).Error
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (*model.Event, error) {
	var event model.Event
	if err := r.DB.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) FindByQRToken(ctx context.Context, token string) (*model.Event, error) {
	var event model.Event
	if err := r.DB.WithContext(ctx).Where("qr_code_token = ?", token).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// List organizerID 为 0 时返回全部事件
func (r *EventRepository) List(ctx context.Context, organizerID uint, page, limit int) ([]model.Event, int64, error) {
	var events []model.Event
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.Event{})
	if organizerID > 0 {
		query = query.Where("organizer_id = ?", organizerID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("event_date desc").Offset(offset).Limit(limit).Find(&events).Error
	return events, total, err
}

func (r *EventRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.DB.WithContext(ctx).Model(&model.Event{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

// Delete 级联删除进度、媒体与关卡
func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&model.LevelProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&model.MediaAsset{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&model.Level{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Event{}, id).Error
	})
}
