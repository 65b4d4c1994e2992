package service

import (
	"context"
	"errors"
	"strings"

	"party_games_backend/internal/model"
	"party_games_backend/internal/repository"

	"gorm.io/gorm"
)

type GameService struct {
	GameRepo *repository.GameRepository
}

func NewGameService(gameRepo *repository.GameRepository) *GameService {
	return &GameService{GameRepo: gameRepo}
}

type GameRequest struct {
	GameName            string  `json:"gameName" binding:"required"`
	GameType            string  `json:"gameType" binding:"required"`
	ComponentName       string  `json:"componentName" binding:"required"`
	Description         *string `json:"description"`
	DefaultConfigSchema *string `json:"defaultConfigSchema"`
	IsActive            *bool   `json:"isActive"`
}

func (s *GameService) Create(ctx context.Context, req GameRequest) (*model.Game, error) {
	game := &model.Game{
		GameName:            strings.TrimSpace(req.GameName),
		GameType:            strings.ToUpper(strings.TrimSpace(req.GameType)),
		ComponentName:       strings.TrimSpace(req.ComponentName),
		Description:         req.Description,
		DefaultConfigSchema: req.DefaultConfigSchema,
		IsActive:            true,
	}
	if req.IsActive != nil {
		game.IsActive = *req.IsActive
	}
	if _, err := s.GameRepo.FindByType(ctx, game.GameType); err == nil {
		return nil, wrap(ErrConflict, "game type already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := s.GameRepo.Create(ctx, game); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, wrap(ErrConflict, "game type already exists")
		}
		return nil, err
	}
	return game, nil
}

func (s *GameService) List(ctx context.Context, includeInactive bool) ([]model.Game, error) {
	return s.GameRepo.List(ctx, includeInactive)
}

func (s *GameService) Get(ctx context.Context, id uint) (*model.Game, error) {
	game, err := s.GameRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "game")
	}
	return game, nil
}

func (s *GameService) Update(ctx context.Context, id uint, req GameRequest) (*model.Game, error) {
	game, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	gameType := strings.ToUpper(strings.TrimSpace(req.GameType))
	if gameType != game.GameType {
		if _, err := s.GameRepo.FindByType(ctx, gameType); err == nil {
			return nil, wrap(ErrConflict, "game type already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	game.GameName = strings.TrimSpace(req.GameName)
	game.GameType = gameType
	game.ComponentName = strings.TrimSpace(req.ComponentName)
	game.Description = req.Description
	game.DefaultConfigSchema = req.DefaultConfigSchema
	if req.IsActive != nil {
		game.IsActive = *req.IsActive
	}
	if err := s.GameRepo.Update(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

// Delete 已被关卡引用的游戏不能删除，只能停用
func (s *GameService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	used, err := s.GameRepo.InUse(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return wrap(ErrConflict, "game is used by existing levels, deactivate it instead")
	}
	return s.GameRepo.Delete(ctx, id)
}
