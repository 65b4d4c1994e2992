package repository

import (
	"context"

	"party_games_backend/internal/model"

	"gorm.io/gorm"
)

type GameRepository struct {
	DB *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{DB: db}
}

func (r *GameRepository) Create(ctx context.Context, game *model.Game) error {
	return r.DB.WithContext(ctx).Create(game).Error
}

func (r *GameRepository) Update(ctx context.Context, game *model.Game) error {
	return r.DB.WithContext(ctx).Save(game).Error
}

func (r *GameRepository) FindByID(ctx context.Context, id uint) (*model.Game, error) {
	var game model.Game
	if err := r.DB.WithContext(ctx).First(&game, id).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *GameRepository) FindByType(ctx context.Context, gameType string) (*model.Game, error) {
	var game model.Game
	if err := r.DB.WithContext(ctx).Where("game_type = ?", gameType).First(&game).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *GameRepository) List(ctx context.Context, includeInactive bool) ([]model.Game, error) {
	var games []model.Game
	query := r.DB.WithContext(ctx).Order("id asc")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&games).Error
	return games, err
}

func (r *GameRepository) InUse(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Level{}).Where("game_id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *GameRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&model.Game{}, id).Error
}
