package service

import (
	"context"
	"errors"

	"party_games_backend/internal/model"
	"party_games_backend/internal/repository"
	"party_games_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LevelService struct {
	LevelRepo    *repository.LevelRepository
	EventRepo    *repository.EventRepository
	GameRepo     *repository.GameRepository
	ProgressRepo *repository.ProgressRepository
}

func NewLevelService(levelRepo *repository.LevelRepository, eventRepo *repository.EventRepository, gameRepo *repository.GameRepository, progressRepo *repository.ProgressRepository) *LevelService {
	return &LevelService{
		LevelRepo:    levelRepo,
		EventRepo:    eventRepo,
		GameRepo:     gameRepo,
		ProgressRepo: progressRepo,
	}
}

type LevelCreateRequest struct {
	GameID          uint    `json:"gameId" binding:"required"`
	LevelNumber     int     `json:"levelNumber" binding:"required"`
	LevelConfig     *string `json:"levelConfig"`
	PassingCriteria *string `json:"passingCriteria"`
	MaxRetries      *int    `json:"maxRetries"`
	IsFinalLevel    bool    `json:"isFinalLevel"`
}

type LevelUpdateRequest struct {
	GameID          *uint   `json:"gameId"`
	LevelConfig     *string `json:"levelConfig"`
	PassingCriteria *string `json:"passingCriteria"`
	MaxRetries      *int    `json:"maxRetries"`
	IsFinalLevel    *bool   `json:"isFinalLevel"`
	IsEnabled       *bool   `json:"isEnabled"`
}

// LevelDetail 关卡信息附带游戏信息与当前用户的解锁状态
type LevelDetail struct {
	model.Level
	GameName      string               `json:"gameName"`
	GameType      string               `json:"gameType"`
	ComponentName string               `json:"componentName"`
	IsUnlocked    bool                 `json:"isUnlocked"`
	UserStatus    model.ProgressStatus `json:"userStatus"`
	UserBestTime  *int                 `json:"userBestTime,omitempty"`
}

func (s *LevelService) managedEvent(ctx context.Context, actor Actor, eventID uint) (*model.Event, error) {
	event, err := s.EventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, notFoundOr(err, "event")
	}
	if !canManage(actor, event) {
		return nil, wrap(ErrForbidden, "not the organizer of this event")
	}
	return event, nil
}

func (s *LevelService) checkGame(ctx context.Context, gameID uint) (*model.Game, error) {
	game, err := s.GameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, notFoundOr(err, "game")
	}
	if !game.IsActive {
		return nil, wrap(ErrValidation, "game is not active")
	}
	return game, nil
}

func (s *LevelService) checkFinal(ctx context.Context, eventID, excludeID uint) error {
	taken, err := s.LevelRepo.HasOtherFinal(ctx, eventID, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return wrap(ErrConflict, "event already has a final level")
	}
	return nil
}

func validateMaxRetries(n int) error {
	if n < model.UnlimitedRetries {
		return wrap(ErrValidation, "maxRetries must be -1 (unlimited) or >= 0")
	}
	return nil
}

func (s *LevelService) Add(ctx context.Context, actor Actor, eventID uint, req LevelCreateRequest) (*model.Level, error) {
	if _, err := s.managedEvent(ctx, actor, eventID); err != nil {
		return nil, err
	}
	if req.LevelNumber < 1 {
		return nil, wrap(ErrValidation, "levelNumber must start at 1")
	}
	if _, err := s.checkGame(ctx, req.GameID); err != nil {
		return nil, err
	}
	maxRetries := model.UnlimitedRetries
	if req.MaxRetries != nil {
		if err := validateMaxRetries(*req.MaxRetries); err != nil {
			return nil, err
		}
		maxRetries = *req.MaxRetries
	}
	taken, err := s.LevelRepo.NumberTaken(ctx, eventID, req.LevelNumber, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, wrap(ErrConflict, "level number already exists for this event")
	}
	if req.IsFinalLevel {
		if err := s.checkFinal(ctx, eventID, 0); err != nil {
			return nil, err
		}
	}

	level := &model.Level{
		EventID:         eventID,
		GameID:          req.GameID,
		LevelNumber:     req.LevelNumber,
		LevelConfig:     req.LevelConfig,
		PassingCriteria: req.PassingCriteria,
		MaxRetries:      maxRetries,
		IsFinalLevel:    req.IsFinalLevel,
		IsEnabled:       true,
	}
	if err := s.LevelRepo.Create(ctx, level); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, wrap(ErrConflict, "level number already exists for this event")
		}
		return nil, err
	}
	logger.Log.Info("Level added",
		zap.Uint("event_id", eventID),
		zap.Uint("level_id", level.ID),
		zap.Int("level_number", level.LevelNumber))
	return level, nil
}

// ListForUser userID 为 0 表示匿名访问，只解锁第一关
func (s *LevelService) ListForUser(ctx context.Context, eventID, userID uint) ([]LevelDetail, error) {
	if _, err := s.EventRepo.FindByID(ctx, eventID); err != nil {
		return nil, notFoundOr(err, "event")
	}
	levels, err := s.LevelRepo.ListEnabled(ctx, eventID)
	if err != nil {
		return nil, err
	}
	games, err := s.GameRepo.List(ctx, true)
	if err != nil {
		return nil, err
	}
	gameByID := make(map[uint]model.Game, len(games))
	for _, g := range games {
		gameByID[g.ID] = g
	}

	byLevel := make(map[uint]model.LevelProgress)
	if userID != 0 {
		records, err := s.ProgressRepo.ListByEventUser(ctx, eventID, userID)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			byLevel[r.LevelID] = r
		}
	}

	out := make([]LevelDetail, 0, len(levels))
	for i, l := range levels {
		g := gameByID[l.GameID]
		d := LevelDetail{
			Level:         l,
			GameName:      g.GameName,
			GameType:      g.GameType,
			ComponentName: g.ComponentName,
		}
		// 与开始关卡的门槛一致：前一个启用关卡已完成即解锁
		d.IsUnlocked = i == 0
		if i > 0 && userID != 0 {
			prev, ok := byLevel[levels[i-1].ID]
			d.IsUnlocked = ok && prev.Status == model.ProgressCompleted
		}
		if p, ok := byLevel[l.ID]; ok {
			d.UserStatus = p.Status
			if p.Status == model.ProgressCompleted {
				d.UserBestTime = p.TimeTakenSeconds
			}
		} else if d.IsUnlocked {
			d.UserStatus = model.ProgressNotStarted
		} else {
			d.UserStatus = model.ProgressLocked
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *LevelService) Get(ctx context.Context, eventID, levelID, userID uint) (*LevelDetail, error) {
	list, err := s.ListForUser(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == levelID {
			return &list[i], nil
		}
	}
	return nil, wrap(ErrNotFound, "level not found")
}

func (s *LevelService) Update(ctx context.Context, actor Actor, eventID, levelID uint, req LevelUpdateRequest) (*model.Level, error) {
	if _, err := s.managedEvent(ctx, actor, eventID); err != nil {
		return nil, err
	}
	level, err := s.LevelRepo.FindByID(ctx, levelID)
	if err != nil {
		return nil, notFoundOr(err, "level")
	}
	if level.EventID != eventID {
		return nil, wrap(ErrNotFound, "level not found")
	}

	if req.GameID != nil {
		if _, err := s.checkGame(ctx, *req.GameID); err != nil {
			return nil, err
		}
		level.GameID = *req.GameID
	}
	if req.LevelConfig != nil {
		level.LevelConfig = req.LevelConfig
	}
	if req.PassingCriteria != nil {
		level.PassingCriteria = req.PassingCriteria
	}
	if req.MaxRetries != nil {
		if err := validateMaxRetries(*req.MaxRetries); err != nil {
			return nil, err
		}
		level.MaxRetries = *req.MaxRetries
	}
	if req.IsFinalLevel != nil {
		if *req.IsFinalLevel {
			if err := s.checkFinal(ctx, eventID, level.ID); err != nil {
				return nil, err
			}
		}
		level.IsFinalLevel = *req.IsFinalLevel
	}
	if req.IsEnabled != nil {
		level.IsEnabled = *req.IsEnabled
	}
	if err := s.LevelRepo.Update(ctx, level); err != nil {
		return nil, err
	}
	return level, nil
}

func (s *LevelService) Delete(ctx context.Context, actor Actor, eventID, levelID uint) error {
	if _, err := s.managedEvent(ctx, actor, eventID); err != nil {
		return err
	}
	level, err := s.LevelRepo.FindByID(ctx, levelID)
	if err != nil {
		return notFoundOr(err, "level")
	}
	if level.EventID != eventID {
		return wrap(ErrNotFound, "level not found")
	}
	if err := s.LevelRepo.Delete(ctx, levelID); err != nil {
		return err
	}
	logger.Log.Info("Level deleted", zap.Uint("event_id", eventID), zap.Uint("level_id", levelID))
	return nil
}
