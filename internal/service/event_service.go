package service

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"party_games_backend/internal/model"
	"party_games_backend/internal/repository"
	"party_games_backend/pkg/logger"

	"go.uber.org/zap"
)

const maxTotalLevels = 20

type EventService struct {
	EventRepo   *repository.EventRepository
	Leaderboard *LeaderboardService
}

func NewEventService(eventRepo *repository.EventRepository, leaderboard *LeaderboardService) *EventService {
	return &EventService{EventRepo: eventRepo, Leaderboard: leaderboard}
}

type EventCreateRequest struct {
	EventName        string     `json:"eventName" binding:"required"`
	EventDate        time.Time  `json:"eventDate" binding:"required"`
	OrganizerName    string     `json:"organizerName" binding:"required"`
	OrganizerContact string     `json:"organizerContact" binding:"required"`
	BabyName         string     `json:"babyName" binding:"required"`
	TotalLevels      int        `json:"totalLevels"`
	EventStartTime   *time.Time `json:"eventStartTime"`
	EventEndTime     *time.Time `json:"eventEndTime"`
	Description      *string    `json:"description"`
	ThemeConfig      *string    `json:"themeConfig"`
}

type EventUpdateRequest struct {
	EventName      *string    `json:"eventName"`
	EventDate      *time.Time `json:"eventDate"`
	IsActive       *bool      `json:"isActive"`
	TotalLevels    *int       `json:"totalLevels"`
	EventStartTime *time.Time `json:"eventStartTime"`
	EventEndTime   *time.Time `json:"eventEndTime"`
	Description    *string    `json:"description"`
	ThemeConfig    *string    `json:"themeConfig"`
}

type EventDetail struct {
	model.Event
	BabyName string      `json:"babyName"`
	Stats    *EventStats `json:"stats"`
}

// PublicEvent 扫码入口可见的字段
type PublicEvent struct {
	ID          uint      `json:"id"`
	EventName   string    `json:"eventName"`
	EventDate   time.Time `json:"eventDate"`
	IsActive    bool      `json:"isActive"`
	TotalLevels int       `json:"totalLevels"`
	Description *string   `json:"description,omitempty"`
	ThemeConfig *string   `json:"themeConfig,omitempty"`
}

func EncodeBabyName(name string) string {
	return base64.StdEncoding.EncodeToString([]byte(name))
}

func DecodeBabyName(encoded string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func validateTotalLevels(n int) error {
	if n < 1 || n > maxTotalLevels {
		return wrap(ErrValidation, "totalLevels must be between 1 and 20")
	}
	return nil
}

func validateWindow(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return wrap(ErrValidation, "eventEndTime must be after eventStartTime")
	}
	return nil
}

func (s *EventService) Create(ctx context.Context, actor Actor, req EventCreateRequest) (*model.Event, error) {
	if req.TotalLevels == 0 {
		req.TotalLevels = model.DefaultTotalLevels
	}
	if err := validateTotalLevels(req.TotalLevels); err != nil {
		return nil, err
	}
	if err := validateWindow(req.EventStartTime, req.EventEndTime); err != nil {
		return nil, err
	}
	babyName := strings.TrimSpace(req.BabyName)
	if babyName == "" || strings.TrimSpace(req.EventName) == "" {
		return nil, wrap(ErrValidation, "eventName and babyName are required")
	}

	event := &model.Event{
		EventName:         strings.TrimSpace(req.EventName),
		EventDate:         req.EventDate,
		OrganizerName:     req.OrganizerName,
		OrganizerContact:  req.OrganizerContact,
		OrganizerID:       actor.UserID,
		BabyNameEncrypted: EncodeBabyName(babyName),
		QRCodeToken:       model.GenerateUUID(),
		TotalLevels:       req.TotalLevels,
		IsActive:          true,
		EventStartTime:    req.EventStartTime,
		EventEndTime:      req.EventEndTime,
		Description:       req.Description,
		ThemeConfig:       req.ThemeConfig,
	}
	if err := s.EventRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	logger.Log.Info("Event created", zap.Uint("event_id", event.ID), zap.Uint("organizer_id", actor.UserID))
	return event, nil
}

func (s *EventService) List(ctx context.Context, actor Actor, page, limit int) ([]model.Event, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 100
	}
	organizer := actor.UserID
	if actor.IsAdmin() {
		organizer = 0
	}
	return s.EventRepo.List(ctx, organizer, page, limit)
}

func (s *EventService) managed(ctx context.Context, actor Actor, id uint) (*model.Event, error) {
	event, err := s.EventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "event")
	}
	if !canManage(actor, event) {
		return nil, wrap(ErrForbidden, "not the organizer of this event")
	}
	return event, nil
}

func (s *EventService) Get(ctx context.Context, actor Actor, id uint) (*EventDetail, error) {
	event, err := s.managed(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.Leaderboard.Stats(ctx, event)
	if err != nil {
		return nil, err
	}
	name, err := DecodeBabyName(event.BabyNameEncrypted)
	if err != nil {
		logger.Log.Warn("Undecodable baby name", zap.Uint("event_id", event.ID), zap.Error(err))
	}
	return &EventDetail{Event: *event, BabyName: name, Stats: stats}, nil
}

func (s *EventService) Update(ctx context.Context, actor Actor, id uint, req EventUpdateRequest) (*model.Event, error) {
	event, err := s.managed(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.EventName != nil {
		name := strings.TrimSpace(*req.EventName)
		if name == "" {
			return nil, wrap(ErrValidation, "eventName cannot be empty")
		}
		event.EventName = name
	}
	if req.EventDate != nil {
		event.EventDate = *req.EventDate
	}
	if req.IsActive != nil {
		event.IsActive = *req.IsActive
	}
	if req.TotalLevels != nil {
		if err := validateTotalLevels(*req.TotalLevels); err != nil {
			return nil, err
		}
		event.TotalLevels = *req.TotalLevels
	}
	if req.EventStartTime != nil {
		event.EventStartTime = req.EventStartTime
	}
	if req.EventEndTime != nil {
		event.EventEndTime = req.EventEndTime
	}
	if err := validateWindow(event.EventStartTime, event.EventEndTime); err != nil {
		return nil, err
	}
	if req.Description != nil {
		event.Description = req.Description
	}
	if req.ThemeConfig != nil {
		event.ThemeConfig = req.ThemeConfig
	}
	if err := s.EventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *EventService) SetActive(ctx context.Context, actor Actor, id uint, active bool) (*model.Event, error) {
	event, err := s.managed(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.EventRepo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	event.IsActive = active
	logger.Log.Info("Event status changed", zap.Uint("event_id", id), zap.Bool("active", active))
	return event, nil
}

// Delete 级联删除关卡、进度和媒体记录
func (s *EventService) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.managed(ctx, actor, id); err != nil {
		return err
	}
	if err := s.EventRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Log.Info("Event deleted", zap.Uint("event_id", id))
	return nil
}

// ByQRToken 公开接口，已关闭的事件返回 ErrGone
func (s *EventService) ByQRToken(ctx context.Context, token string) (*PublicEvent, error) {
	event, err := s.EventRepo.FindByQRToken(ctx, token)
	if err != nil {
		return nil, notFoundOr(err, "event")
	}
	if !event.IsActive {
		return nil, wrap(ErrGone, "event has ended")
	}
	return &PublicEvent{
		ID:          event.ID,
		EventName:   event.EventName,
		EventDate:   event.EventDate,
		IsActive:    event.IsActive,
		TotalLevels: event.TotalLevels,
		Description: event.Description,
		ThemeConfig: event.ThemeConfig,
	}, nil
}
