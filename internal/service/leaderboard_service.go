package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"party_games_backend/internal/model"
	"party_games_backend/internal/repository"
	"party_games_backend/pkg/monitoring"
	"party_games_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type LeaderboardFilter string

const (
	FilterAll       LeaderboardFilter = "all"
	FilterCompleted LeaderboardFilter = "completed"
)

// ParseFilter 未知取值按 all 处理
func ParseFilter(v string) LeaderboardFilter {
	if LeaderboardFilter(v) == FilterCompleted {
		return FilterCompleted
	}
	return FilterAll
}

const (
	BadgeGold   = "gold"
	BadgeSilver = "silver"
	BadgeBronze = "bronze"
)

type LeaderboardEntry struct {
	Rank               int        `json:"rank"`
	UserID             uint       `json:"userId"`
	Name               string     `json:"name"`
	LevelsCompleted    int        `json:"levelsCompleted"`
	TotalTimeSeconds   int        `json:"totalTimeSeconds"`
	AllLevelsCompleted bool       `json:"allLevelsCompleted"`
	CorrectNameGuess   *bool      `json:"correctNameGuess"`
	CompletedAt        *time.Time `json:"completedAt"`
	Badge              string     `json:"badge,omitempty"`
	BadgeCode          string     `json:"badgeCode,omitempty"`
}

type LeaderboardPage struct {
	EventID           uint               `json:"eventId"`
	Filter            LeaderboardFilter  `json:"filter"`
	TotalParticipants int64              `json:"totalParticipants"`
	RankedCount       int                `json:"rankedCount"`
	Limit             int                `json:"limit"`
	Offset            int                `json:"offset"`
	Leaderboard       []LeaderboardEntry `json:"leaderboard"`
	CurrentUserRank   *int               `json:"currentUserRank"`
	CurrentUserInPage bool               `json:"currentUserInPage"`
}

type MyRank struct {
	EventID               uint  `json:"eventId"`
	UserID                uint  `json:"userId"`
	Rank                  *int  `json:"rank"`
	LevelsCompleted       int   `json:"levelsCompleted"`
	TotalTimeSeconds      int   `json:"totalTimeSeconds"`
	CompletedParticipants int64 `json:"completedParticipants"`
}

type EventStats struct {
	TotalParticipants  int64 `json:"totalParticipants"`
	CompletedAllLevels int   `json:"completedAllLevels"`
	CorrectNameGuesses int   `json:"correctNameGuesses"`
}

// standing 单个用户的聚合成绩
type standing struct {
	UserID          uint
	LevelsCompleted int
	TotalTime       int
	LastCompleted   *time.Time
}

type LeaderboardService struct {
	ProgressRepo *repository.ProgressRepository
	LevelRepo    *repository.LevelRepository
	EventRepo    *repository.EventRepository
	UserRepo     *repository.UserRepository

	mu           sync.RWMutex
	defaultLimit int
	maxLimit     int
}

func NewLeaderboardService(progressRepo *repository.ProgressRepository, levelRepo *repository.LevelRepository, eventRepo *repository.EventRepository, userRepo *repository.UserRepository, defaultLimit, maxLimit int) *LeaderboardService {
	s := &LeaderboardService{
		ProgressRepo: progressRepo,
		LevelRepo:    levelRepo,
		EventRepo:    eventRepo,
		UserRepo:     userRepo,
	}
	s.SetLimits(defaultLimit, maxLimit)
	return s
}

// SetLimits 配置热更新时调用
func (s *LeaderboardService) SetLimits(defaultLimit, maxLimit int) {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	s.mu.Lock()
	s.defaultLimit, s.maxLimit = defaultLimit, maxLimit
	s.mu.Unlock()
}

func (s *LeaderboardService) clamp(limit, offset int) (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// aggregate 按用户汇总已完成记录，同一关卡只计一次
func aggregate(rows []model.CompletedLevel) []standing {
	index := make(map[uint]int)
	seen := make(map[[2]uint]bool, len(rows))
	var out []standing
	for _, r := range rows {
		key := [2]uint{r.UserID, r.LevelID}
		if seen[key] {
			continue
		}
		seen[key] = true

		i, ok := index[r.UserID]
		if !ok {
			i = len(out)
			index[r.UserID] = i
			out = append(out, standing{UserID: r.UserID})
		}
		st := &out[i]
		st.LevelsCompleted++
		if r.TimeTakenSeconds != nil {
			st.TotalTime += *r.TimeTakenSeconds
		}
		if r.CompletionTime != nil && (st.LastCompleted == nil || r.CompletionTime.After(*st.LastCompleted)) {
			t := *r.CompletionTime
			st.LastCompleted = &t
		}
	}
	return out
}

// sortStandings 通关数降序、总用时升序、最后完成时间升序、用户 ID 升序
func sortStandings(list []standing) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.LevelsCompleted != b.LevelsCompleted {
			return a.LevelsCompleted > b.LevelsCompleted
		}
		if a.TotalTime != b.TotalTime {
			return a.TotalTime < b.TotalTime
		}
		switch {
		case a.LastCompleted != nil && b.LastCompleted != nil && !a.LastCompleted.Equal(*b.LastCompleted):
			return a.LastCompleted.Before(*b.LastCompleted)
		case a.LastCompleted != nil && b.LastCompleted == nil:
			return true
		case a.LastCompleted == nil && b.LastCompleted != nil:
			return false
		}
		return a.UserID < b.UserID
	})
}

func badgeFor(rank int) (emoji, code string) {
	switch rank {
	case 1:
		return "🥇", BadgeGold
	case 2:
		return "🥈", BadgeSilver
	case 3:
		return "🥉", BadgeBronze
	}
	return "", ""
}

// extractCorrectGuess 结果中缺少 is_correct 或无法解析时返回 nil，表示未知
func extractCorrectGuess(resultData *string) *bool {
	if resultData == nil || *resultData == "" {
		return nil
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(*resultData), &payload); err != nil {
		return nil
	}
	raw, ok := payload["is_correct"]
	if !ok {
		return nil
	}
	var correct bool
	if err := json.Unmarshal(raw, &correct); err != nil {
		return nil
	}
	return &correct
}

// standings 计算事件内全部用户的有序成绩
func (s *LeaderboardService) standings(ctx context.Context, eventID uint) ([]standing, error) {
	rows, err := s.ProgressRepo.ListCompletedByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	list := aggregate(rows)
	sortStandings(list)
	return list, nil
}

// finalGuesses 最终关卡已完成记录中解析出的猜名结果
func (s *LeaderboardService) finalGuesses(ctx context.Context, eventID uint) (map[uint]*bool, error) {
	guesses := make(map[uint]*bool)
	final, err := s.LevelRepo.FindFinal(ctx, eventID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return guesses, nil
	}
	if err != nil {
		return nil, err
	}
	records, err := s.ProgressRepo.ListCompletedByLevel(ctx, final.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		guesses[r.UserID] = extractCorrectGuess(r.ResultData)
	}
	return guesses, nil
}

func (s *LeaderboardService) Rank(ctx context.Context, eventID, viewerID uint, filter LeaderboardFilter, limit, offset int) (*LeaderboardPage, error) {
	ctx, span := tracing.Tracer.Start(ctx, "leaderboard.rank")
	defer span.End()
	defer monitoring.ObserveLeaderboard("rank", time.Now())

	event, err := s.EventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, notFoundOr(err, "event")
	}
	limit, offset = s.clamp(limit, offset)

	total, err := s.ProgressRepo.CountParticipants(ctx, eventID)
	if err != nil {
		return nil, err
	}
	all, err := s.standings(ctx, eventID)
	if err != nil {
		return nil, err
	}

	ranked := all
	if filter == FilterCompleted {
		ranked = make([]standing, 0, len(all))
		for _, st := range all {
			if st.LevelsCompleted == event.TotalLevels {
				ranked = append(ranked, st)
			}
		}
	}

	page := &LeaderboardPage{
		EventID:           eventID,
		Filter:            filter,
		TotalParticipants: total,
		RankedCount:       len(ranked),
		Limit:             limit,
		Offset:            offset,
		Leaderboard:       []LeaderboardEntry{},
	}
	for i, st := range ranked {
		if st.UserID == viewerID {
			rank := i + 1
			page.CurrentUserRank = &rank
			break
		}
	}

	if offset >= len(ranked) {
		return page, nil
	}
	end := offset + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	window := ranked[offset:end]

	ids := make([]uint, 0, len(window))
	for _, st := range window {
		ids = append(ids, st.UserID)
	}
	users, err := s.UserRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	guesses, err := s.finalGuesses(ctx, eventID)
	if err != nil {
		return nil, err
	}

	for i, st := range window {
		rank := offset + i + 1
		emoji, code := badgeFor(rank)
		page.Leaderboard = append(page.Leaderboard, LeaderboardEntry{
			Rank:               rank,
			UserID:             st.UserID,
			Name:               users[st.UserID].Name,
			LevelsCompleted:    st.LevelsCompleted,
			TotalTimeSeconds:   st.TotalTime,
			AllLevelsCompleted: st.LevelsCompleted == event.TotalLevels,
			CorrectNameGuess:   guesses[st.UserID],
			CompletedAt:        st.LastCompleted,
			Badge:              emoji,
			BadgeCode:          code,
		})
		if st.UserID == viewerID {
			page.CurrentUserInPage = true
		}
	}

	span.SetAttributes(
		attribute.Int("leaderboard.ranked", len(ranked)),
		attribute.Int("leaderboard.returned", len(page.Leaderboard)),
	)
	return page, nil
}

// MyRank 在全部已完成用户中的全局名次，不分页不过滤
func (s *LeaderboardService) MyRank(ctx context.Context, eventID, userID uint) (*MyRank, error) {
	ctx, span := tracing.Tracer.Start(ctx, "leaderboard.my_rank")
	defer span.End()
	defer monitoring.ObserveLeaderboard("my_rank", time.Now())

	if _, err := s.EventRepo.FindByID(ctx, eventID); err != nil {
		return nil, notFoundOr(err, "event")
	}
	all, err := s.standings(ctx, eventID)
	if err != nil {
		return nil, err
	}

	res := &MyRank{
		EventID:               eventID,
		UserID:                userID,
		CompletedParticipants: int64(len(all)),
	}
	for i, st := range all {
		if st.UserID == userID {
			rank := i + 1
			res.Rank = &rank
			res.LevelsCompleted = st.LevelsCompleted
			res.TotalTimeSeconds = st.TotalTime
			break
		}
	}
	return res, nil
}

// Stats 组织者查看事件详情时附带的统计
func (s *LeaderboardService) Stats(ctx context.Context, event *model.Event) (*EventStats, error) {
	total, err := s.ProgressRepo.CountParticipants(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	all, err := s.standings(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	guesses, err := s.finalGuesses(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	stats := &EventStats{TotalParticipants: total}
	for _, st := range all {
		if st.LevelsCompleted == event.TotalLevels {
			stats.CompletedAllLevels++
		}
	}
	for _, g := range guesses {
		if g != nil && *g {
			stats.CorrectNameGuesses++
		}
	}
	return stats, nil
}
