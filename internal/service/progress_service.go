package service

import (
	"context"
	"errors"
	"time"

	"party_games_backend/internal/model"
	"party_games_backend/internal/repository"
	"party_games_backend/pkg/logger"
	"party_games_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
	LevelRepo    *repository.LevelRepository
	EventRepo    *repository.EventRepository
	Clock        Clock
}

func NewProgressService(progressRepo *repository.ProgressRepository, levelRepo *repository.LevelRepository, eventRepo *repository.EventRepository, clock Clock) *ProgressService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ProgressService{
		ProgressRepo: progressRepo,
		LevelRepo:    levelRepo,
		EventRepo:    eventRepo,
		Clock:        clock,
	}
}

type NextLevel struct {
	LevelID     uint `json:"levelId"`
	LevelNumber int  `json:"levelNumber"`
	GameID      uint `json:"gameId"`
	IsUnlocked  bool `json:"isUnlocked"`
}

type Celebration struct {
	Message        string `json:"message"`
	Stars          int    `json:"stars"`
	IsPersonalBest bool   `json:"isPersonalBest"`
}

type CompleteResult struct {
	ProgressID       uint                 `json:"progressId"`
	LevelID          uint                 `json:"levelId"`
	Status           model.ProgressStatus `json:"status"`
	TimeTakenSeconds int                  `json:"timeTakenSeconds"`
	IsPassed         bool                 `json:"isPassed"`
	CompletedAt      time.Time            `json:"completedAt"`
	LeaderboardRank  int64                `json:"leaderboardRank"`
	NextLevel        *NextLevel           `json:"nextLevel,omitempty"`
	Celebration      Celebration          `json:"celebration"`
}

type LevelStatus struct {
	LevelID          uint                 `json:"levelId"`
	LevelNumber      int                  `json:"levelNumber"`
	GameID           uint                 `json:"gameId"`
	IsFinalLevel     bool                 `json:"isFinalLevel"`
	Status           model.ProgressStatus `json:"status"`
	ProgressID       *uint                `json:"progressId,omitempty"`
	AttemptsCount    int                  `json:"attemptsCount"`
	TimeTakenSeconds *int                 `json:"timeTakenSeconds,omitempty"`
	CompletedAt      *time.Time           `json:"completedAt,omitempty"`
}

type ProgressSummary struct {
	EventID          uint          `json:"eventId"`
	UserID           uint          `json:"userId"`
	TotalLevels      int           `json:"totalLevels"`
	CompletedLevels  int           `json:"completedLevels"`
	CurrentLevel     int           `json:"currentLevel"`
	TotalTimeSeconds int           `json:"totalTimeSeconds"`
	StartedAt        *time.Time    `json:"startedAt"`
	LastActivity     *time.Time    `json:"lastActivity"`
	Levels           []LevelStatus `json:"levelProgress"`
}

// loadPlayable 校验事件存在且开放、关卡属于该事件且已启用
func (s *ProgressService) loadPlayable(ctx context.Context, eventID, levelID uint) (*model.Level, error) {
	event, err := s.EventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, notFoundOr(err, "event")
	}
	if !event.IsActive {
		return nil, wrap(ErrForbidden, "event is not active")
	}
	level, err := s.LevelRepo.FindInEvent(ctx, eventID, levelID)
	if err != nil {
		return nil, notFoundOr(err, "level")
	}
	return level, nil
}

func (s *ProgressService) checkPrerequisite(ctx context.Context, userID uint, level *model.Level) error {
	prev, err := s.LevelRepo.FindPrevEnabled(ctx, level.EventID, level.LevelNumber)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 之前没有启用的关卡，即事件的第一关
		return nil
	}
	if err != nil {
		return err
	}
	done, err := s.ProgressRepo.HasCompleted(ctx, userID, prev.ID)
	if err != nil {
		return err
	}
	if !done {
		return wrap(ErrForbidden, "previous level not completed")
	}
	return nil
}

// Start 开始关卡：进行中的记录原样返回；失败记录在重试次数内重新进入进行中
func (s *ProgressService) Start(ctx context.Context, userID, eventID, levelID uint) (*model.LevelProgress, error) {
	level, err := s.loadPlayable(ctx, eventID, levelID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPrerequisite(ctx, userID, level); err != nil {
		return nil, err
	}

	existing, err := s.ProgressRepo.FindByUserLevel(ctx, userID, levelID)
	switch {
	case err == nil:
		return s.resume(ctx, level, existing)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	now := s.Clock.Now()
	record, created, err := s.ProgressRepo.CreateOrGet(ctx, &model.LevelProgress{
		UserID:        userID,
		EventID:       eventID,
		LevelID:       levelID,
		Status:        model.ProgressInProgress,
		AttemptsCount: 1,
		StartTime:     &now,
	})
	if err != nil {
		return nil, err
	}
	if !created {
		// 并发请求先插入了同一行
		return s.resume(ctx, level, record)
	}

	monitoring.LevelStarts.WithLabelValues("new").Inc()
	logger.Log.Info("Level started",
		zap.Uint("user_id", userID),
		zap.Uint("level_id", levelID),
		zap.Uint("progress_id", record.ID))
	return record, nil
}

func (s *ProgressService) resume(ctx context.Context, level *model.Level, p *model.LevelProgress) (*model.LevelProgress, error) {
	switch p.Status {
	case model.ProgressInProgress:
		monitoring.LevelStarts.WithLabelValues("resumed").Inc()
		return p, nil
	case model.ProgressCompleted:
		monitoring.LevelStarts.WithLabelValues("completed").Inc()
		return p, nil
	case model.ProgressFailed:
	default:
		return p, nil
	}

	if !level.RetryAllowed(p.AttemptsCount) {
		return nil, wrap(ErrForbidden, "retry limit reached")
	}
	if _, err := s.ProgressRepo.RestartFailed(ctx, p.ID, s.Clock.Now()); err != nil {
		return nil, err
	}
	// 未生效说明另一个请求已完成重开，重新读取即可
	restarted, err := s.ProgressRepo.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	monitoring.LevelStarts.WithLabelValues("retry").Inc()
	logger.Log.Info("Level retried",
		zap.Uint("user_id", p.UserID),
		zap.Uint("level_id", p.LevelID),
		zap.Uint("progress_id", p.ID),
		zap.Int("attempts", restarted.AttemptsCount))
	return restarted, nil
}

// UpdateState 仅覆盖断点快照，不改变状态与时间
func (s *ProgressService) UpdateState(ctx context.Context, progressID, userID, eventID, levelID uint, gameState string) error {
	p, err := s.ProgressRepo.FindOwned(ctx, progressID, userID, eventID, levelID)
	if err != nil {
		return notFoundOr(err, "progress")
	}
	if err := s.ProgressRepo.UpdateGameState(ctx, p.ID, gameState); err != nil {
		return err
	}
	logger.Log.Debug("Game state saved", zap.Uint("progress_id", p.ID))
	return nil
}

func (s *ProgressService) Complete(ctx context.Context, progressID, userID, eventID, levelID uint, resultData string, isPassed bool) (*CompleteResult, error) {
	p, err := s.ProgressRepo.FindOwned(ctx, progressID, userID, eventID, levelID)
	if err != nil {
		return nil, notFoundOr(err, "progress")
	}
	if p.Status != model.ProgressInProgress {
		return nil, wrap(ErrInvalidTransition, "level is not in progress")
	}

	now := s.Clock.Now()
	timeTaken := 0
	if p.StartTime != nil {
		timeTaken = int(now.Sub(*p.StartTime).Seconds())
		if timeTaken < 0 {
			timeTaken = 0
		}
	}
	status := model.ProgressFailed
	if isPassed {
		status = model.ProgressCompleted
	}

	ok, err := s.ProgressRepo.Finish(ctx, p.ID, status, now, timeTaken, resultData, isPassed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, wrap(ErrInvalidTransition, "level is not in progress")
	}

	result := &CompleteResult{
		ProgressID:       p.ID,
		LevelID:          levelID,
		Status:           status,
		TimeTakenSeconds: timeTaken,
		IsPassed:         isPassed,
		CompletedAt:      now,
		Celebration:      celebrate(isPassed),
	}

	level, err := s.LevelRepo.FindByID(ctx, levelID)
	if err != nil {
		return nil, err
	}
	next, err := s.LevelRepo.FindNextEnabled(ctx, level.EventID, level.LevelNumber)
	switch {
	case err == nil:
		result.NextLevel = &NextLevel{
			LevelID:     next.ID,
			LevelNumber: next.LevelNumber,
			GameID:      next.GameID,
			IsUnlocked:  isPassed,
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	// 粗略名次：已有完成记录的参与人数
	completed, err := s.ProgressRepo.CountCompletedParticipants(ctx, p.EventID)
	if err != nil {
		return nil, err
	}
	if completed < 1 {
		completed = 1
	}
	result.LeaderboardRank = completed

	label := "failed"
	if isPassed {
		label = "passed"
	}
	monitoring.LevelCompletions.WithLabelValues(label).Inc()
	logger.Log.Info("Level finished",
		zap.Uint("user_id", userID),
		zap.Uint("level_id", levelID),
		zap.Uint("progress_id", p.ID),
		zap.String("status", string(status)),
		zap.Int("time_taken_seconds", timeTaken))
	return result, nil
}

func celebrate(passed bool) Celebration {
	if passed {
		return Celebration{Message: "🎉 Great job! Level completed!", Stars: 3, IsPersonalBest: true}
	}
	return Celebration{Message: "Try again!", Stars: 0}
}

// Summary 用户在事件内的逐关状态；首个未完成关卡之后且无记录的关卡显示为 locked
func (s *ProgressService) Summary(ctx context.Context, eventID, userID uint) (*ProgressSummary, error) {
	if _, err := s.EventRepo.FindByID(ctx, eventID); err != nil {
		return nil, notFoundOr(err, "event")
	}
	levels, err := s.LevelRepo.ListEnabled(ctx, eventID)
	if err != nil {
		return nil, err
	}
	records, err := s.ProgressRepo.ListByEventUser(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}

	byLevel := make(map[uint]*model.LevelProgress, len(records))
	summary := &ProgressSummary{
		EventID:     eventID,
		UserID:      userID,
		TotalLevels: len(levels),
		Levels:      make([]LevelStatus, 0, len(levels)),
	}
	for i := range records {
		r := &records[i]
		byLevel[r.LevelID] = r
		if summary.StartedAt == nil || r.CreatedAt.Before(*summary.StartedAt) {
			created := r.CreatedAt
			summary.StartedAt = &created
		}
		if summary.LastActivity == nil || r.UpdatedAt.After(*summary.LastActivity) {
			updated := r.UpdatedAt
			summary.LastActivity = &updated
		}
	}

	frontier := 0
	for _, l := range levels {
		entry := LevelStatus{
			LevelID:      l.ID,
			LevelNumber:  l.LevelNumber,
			GameID:       l.GameID,
			IsFinalLevel: l.IsFinalLevel,
		}
		if p, ok := byLevel[l.ID]; ok {
			id := p.ID
			entry.Status = p.Status
			entry.ProgressID = &id
			entry.AttemptsCount = p.AttemptsCount
			entry.TimeTakenSeconds = p.TimeTakenSeconds
			entry.CompletedAt = p.CompletionTime
			if p.Status == model.ProgressCompleted {
				summary.CompletedLevels++
				if p.TimeTakenSeconds != nil {
					summary.TotalTimeSeconds += *p.TimeTakenSeconds
				}
			} else if frontier == 0 {
				frontier = l.LevelNumber
			}
		} else if frontier == 0 {
			entry.Status = model.ProgressNotStarted
			frontier = l.LevelNumber
		} else {
			entry.Status = model.ProgressLocked
		}
		summary.Levels = append(summary.Levels, entry)
	}

	summary.CurrentLevel = frontier
	if frontier == 0 && len(levels) > 0 {
		// 全部完成
		summary.CurrentLevel = levels[len(levels)-1].LevelNumber
	}
	return summary, nil
}

// Attempts 单行模型下至多返回一条记录
func (s *ProgressService) Attempts(ctx context.Context, eventID, levelID, userID uint) ([]model.LevelProgress, error) {
	if _, err := s.LevelRepo.FindInEvent(ctx, eventID, levelID); err != nil {
		return nil, notFoundOr(err, "level")
	}
	return s.ProgressRepo.ListByUserLevel(ctx, eventID, levelID, userID)
}
