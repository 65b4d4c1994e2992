package repository

import (
	"context"
	"time"

	"party_games_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) FindByID(ctx context.Context, id uint) (*model.LevelProgress, error) {
	var p model.LevelProgress
	if err := r.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindOwned 按 (progressID, userID, eventID, levelID) 查找，其他用户或其他事件的记录视为不存在
func (r *ProgressRepository) FindOwned(ctx context.Context, progressID, userID, eventID, levelID uint) (*model.LevelProgress, error) {
	var p model.LevelProgress
	err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ? AND event_id = ? AND level_id = ?", progressID, userID, eventID, levelID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) FindByUserLevel(ctx context.Context, userID, levelID uint) (*model.LevelProgress, error) {
	var p model.LevelProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND level_id = ?", userID, levelID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateOrGet 插入新记录；唯一索引冲突时返回并发请求已写入的那一行
func (r *ProgressRepository) CreateOrGet(ctx context.Context, p *model.LevelProgress) (*model.LevelProgress, bool, error) {
	err := r.DB.WithContext(ctx).Create(p).Error
	if err == nil {
		return p, true, nil
	}
	existing, findErr := r.FindByUserLevel(ctx, p.UserID, p.LevelID)
	if findErr != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// RestartFailed failed → in_progress，仅当记录仍处于 failed 时生效
func (r *ProgressRepository) RestartFailed(ctx context.Context, id uint, startedAt time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.LevelProgress{}).
		Where("id = ? AND status = ?", id, model.ProgressFailed).
		Updates(map[string]interface{}{
			"status":             model.ProgressInProgress,
			"attempts_count":     gorm.Expr("attempts_count + 1"),
			"start_time":         startedAt,
			"completion_time":    nil,
			"time_taken_seconds": nil,
			"game_state":         nil,
			"result_data":        nil,
			"is_passed":          false,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *ProgressRepository) UpdateGameState(ctx context.Context, id uint, state string) error {
	return r.DB.WithContext(ctx).Model(&model.LevelProgress{}).
		Where("id = ?", id).
		Update("game_state", state).Error
}

// Finish in_progress → completed/failed，返回 false 表示记录已不在进行中
func (r *ProgressRepository) Finish(ctx context.Context, id uint, status model.ProgressStatus, completedAt time.Time, timeTaken int, resultData string, passed bool) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.LevelProgress{}).
		Where("id = ? AND status = ?", id, model.ProgressInProgress).
		Updates(map[string]interface{}{
			"status":             status,
			"completion_time":    completedAt,
			"time_taken_seconds": timeTaken,
			"result_data":        resultData,
			"is_passed":          passed,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *ProgressRepository) HasCompleted(ctx context.Context, userID, levelID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.LevelProgress{}).
		Where("user_id = ? AND level_id = ? AND status = ?", userID, levelID, model.ProgressCompleted).
		Count(&count).Error
	return count > 0, err
}

func (r *ProgressRepository) ListByEventUser(ctx context.Context, eventID, userID uint) ([]model.LevelProgress, error) {
	var records []model.LevelProgress
	err := r.DB.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Order("created_at asc").
		Find(&records).Error
	return records, err
}

func (r *ProgressRepository) ListByUserLevel(ctx context.Context, eventID, levelID, userID uint) ([]model.LevelProgress, error) {
	var records []model.LevelProgress
	err := r.DB.WithContext(ctx).
		Where("event_id = ? AND level_id = ? AND user_id = ?", eventID, levelID, userID).
		Order("created_at asc").
		Find(&records).Error
	return records, err
}

// ListCompletedByEvent 扫描事件内已完成且关卡启用的记录
func (r *ProgressRepository) ListCompletedByEvent(ctx context.Context, eventID uint) ([]model.CompletedLevel, error) {
	var rows []model.CompletedLevel
	err := r.DB.WithContext(ctx).Model(&model.LevelProgress{}).
		Select("level_progresses.user_id, level_progresses.level_id, level_progresses.time_taken_seconds, level_progresses.completion_time").
		Joins("JOIN levels ON levels.id = level_progresses.level_id").
		Where("level_progresses.event_id = ? AND level_progresses.status = ? AND levels.is_enabled = ?", eventID, model.ProgressCompleted, true).
		Scan(&rows).Error
	return rows, err
}

// ListCompletedByLevel 某关卡上所有已完成记录（用于读取最终关结果）
func (r *ProgressRepository) ListCompletedByLevel(ctx context.Context, levelID uint) ([]model.LevelProgress, error) {
	var records []model.LevelProgress
	err := r.DB.WithContext(ctx).
		Where("level_id = ? AND status = ?", levelID, model.ProgressCompleted).
		Find(&records).Error
	return records, err
}

// CountParticipants 有任意进度记录的用户数
func (r *ProgressRepository) CountParticipants(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.LevelProgress{}).
		Where("event_id = ?", eventID).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}

// CountCompletedParticipants 至少完成一关的用户数
func (r *ProgressRepository) CountCompletedParticipants(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.LevelProgress{}).
		Where("event_id = ? AND status = ?", eventID, model.ProgressCompleted).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}
