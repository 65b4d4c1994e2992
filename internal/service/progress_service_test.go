package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"party_games_backend/internal/model"
	"party_games_backend/internal/repository"
	"party_games_backend/internal/testutil"

	"gorm.io/gorm"
)

type fixture struct {
	db          *gorm.DB
	clock       *testutil.FakeClock
	progress    *ProgressService
	leaderboard *LeaderboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	clock := testutil.NewFakeClock()
	progressRepo := repository.NewProgressRepository(db)
	levelRepo := repository.NewLevelRepository(db)
	eventRepo := repository.NewEventRepository(db)
	userRepo := repository.NewUserRepository(db)
	return &fixture{
		db:          db,
		clock:       clock,
		progress:    NewProgressService(progressRepo, levelRepo, eventRepo, clock),
		leaderboard: NewLeaderboardService(progressRepo, levelRepo, eventRepo, userRepo, 50, 100),
	}
}

// play 开始并在 seconds 秒后完成一关
func (f *fixture) play(t *testing.T, userID uint, level *model.Level, seconds int, passed bool, result string) *CompleteResult {
	t.Helper()
	ctx := context.Background()
	p, err := f.progress.Start(ctx, userID, level.EventID, level.ID)
	if err != nil {
		t.Fatalf("Start level %d: %v", level.LevelNumber, err)
	}
	f.clock.Advance(time.Duration(seconds) * time.Second)
	res, err := f.progress.Complete(ctx, p.ID, userID, level.EventID, level.ID, result, passed)
	if err != nil {
		t.Fatalf("Complete level %d: %v", level.LevelNumber, err)
	}
	return res
}

func TestStartIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "Asha")
	event := testutil.CreateEvent(t, f.db, 1)
	levels := testutil.CreateLevels(t, f.db, event.ID, 1)

	first, err := f.progress.Start(ctx, user.ID, event.ID, levels[0].ID)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	f.clock.Advance(time.Minute)
	second, err := f.progress.Start(ctx, user.ID, event.ID, levels[0].ID)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("progress id changed: %d -> %d", first.ID, second.ID)
	}
	if second.AttemptsCount != 1 {
		t.Errorf("attempts = %d, want 1", second.AttemptsCount)
	}
	if !second.StartTime.Equal(*first.StartTime) {
		t.Errorf("start time moved from %v to %v", first.StartTime, second.StartTime)
	}
}

func TestStartConcurrentCreatesSingleRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "Asha")
	event := testutil.CreateEvent(t, f.db, 1)
	levels := testutil.CreateLevels(t, f.db, event.ID, 1)

	const workers = 8
	ids := make([]uint, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := f.progress.Start(ctx, user.ID, event.ID, levels[0].ID)
			errs[i] = err
			if p != nil {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
		if ids[i] != ids[0] {
			t.Errorf("worker %d got id %d, want %d", i, ids[i], ids[0])
		}
	}
	var count int64
	f.db.Model(&model.LevelProgress{}).Where("user_id = ? AND level_id = ?", user.ID, levels[0].ID).Count(&count)
	if count != 1 {
		t.Errorf("rows = %d, want 1", count)
	}
}

func TestStartRequiresPreviousLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "Asha")
	event := testutil.CreateEvent(t, f.db, 3)
	levels := testutil.CreateLevels(t, f.db, event.ID, 3)

	if _, err := f.progress.Start(ctx, user.ID, event.ID, levels[1].ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("level 2 before level 1: err = %v, want ErrForbidden", err)
	}

	// 第一关失败不算完成
	f.play(t, user.ID, levels[0], 10, false, `{}`)
	if _, err := f.progress.Start(ctx, user.ID, event.ID, levels[1].ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("after failing level 1: err = %v, want ErrForbidden", err)
	}

	// 完成第一关不会解锁第三关
	f.play(t, user.ID, levels[0], 10, true, `{}`)
	if _, err := f.progress.Start(ctx, user.ID, event.ID, levels[2].ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("level 3 after level 1: err = %v, want ErrForbidden", err)
	}
	if _, err := f.progress.Start(ctx, user.ID, event.ID, levels[1].ID); err != nil {
		t.Fatalf("level 2 after level 1: %v", err)
	}
}

func TestStartUngatedWithoutLowerLevels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "Asha")
	event := testutil.CreateEvent(t, f.db, 1)

	var game model.Game
	f.db.First(&game)
	level := &model.Level{EventID: event.ID, GameID: game.ID, LevelNumber: 3, MaxRetries: -1, IsEnabled: true}
	if err := f.db.Create(level).Error; err != nil {
		t.Fatalf("create level: %v", err)
	}
	if _, err := f.progress.Start(ctx, user.ID, event.ID, level.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func TestStartGatesOnNearestEnabledLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "Asha")
	event := testutil.CreateEvent(t, f.db, 3)
	levels := testutil.CreateLevels(t, f.db, event.ID, 3)
	if err := f.db.Model(levels[1]).Update("is_enabled", false).Error; err != nil {
		t.Fatalf("disable level 2: %v", err)
	}

	if _, err := f.progress.Start(ctx, user.ID, event.ID, levels[2].ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("level 3 before level 1: err = %v, want ErrForbidden", err)
	}

	res := f.play(t, user.ID, levels[0], 10, true, `{}`)
	if res.NextLevel == nil || res.NextLevel.LevelID != levels[2].ID {
		t.Errorf("next level = %+v, want level 3", res.NextLevel)
	}
	if _, err := f.progress.Start(ctx, user.ID, event.ID, levels[2].ID); err != nil {
		t.Fatalf("level 3 after level 1: %v", err)
	}
}

func TestStartGatesAcrossNumberingGap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "Asha")
	event := testutil.CreateEvent(t, f.db, 2)

	var game model.Game
	f.db.First(&game)
	levels := make([]*model.Level, 0, 2)
	for _, n := range []int{1, 3} {
		l := &model.Level{EventID: event.ID, GameID: game.ID, LevelNumber: n, MaxRetries: -1, IsEnabled: true}
		if err := f.db.Create(l).Error; err != nil {
			t.Fatalf("create level %d: %v", n, err)
		}
		levels = append(levels, l)
	}

	if _, err := f.progress.Start(ctx, user.ID, event.ID, levels[1].ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("level 3 before level 1: err = %v, want ErrForbidden", err)
	}
	f.play(t, user.ID, levels[0], 10, true, `{}`)
	if _, err := f.progress.Start(ctx, user.ID, event.ID, levels[1].ID); err != nil {
		t.Fatalf("level 3 after level 1: %v", err)
	}
}

func TestStartNotFoundCases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "Asha")
	a := testutil.CreateEvent(t, f.db, 1)
	b := testutil.CreateEvent(t, f.db, 1)
	aLevels := testutil.CreateLevels(t, f.db, a.ID, 1)
	bLevels := testutil.CreateLevels(t, f.db, b.ID, 1)

	tests := []struct {
		name    string
		eventID uint
		levelID uint
	}{
		{"missing event", 9999, aLevels[0].ID},
		{"missing level", a.ID, 9999},
		{"level of another event", a.ID, bLevels[0].ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.progress.Start(ctx, user.ID, tt.eventID, tt.levelID); !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStartInactiveEventForbidden(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "Asha")
	event := testutil.CreateEvent(t, f.db, 1)
	levels := testutil.CreateLevels(t, f.db, event.ID, 1)
	f.db.Model(event).Update("is_active", false)

	_, err := f.progress.Start(context.Background(), user.ID, event.ID, levels[0].ID)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestRetryAfterFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "Asha")
	event := testutil.CreateEvent(t, f.db, 1)
	levels := testutil.CreateLevels(t, f.db, event.ID, 1)
	f.db.Model(levels[0]).Update("max_retries", 1)

	failed := f.play(t, user.ID, levels[0], 20, false, `{"score":1}`)

	retried, err := f.progress.Start(ctx, user.ID, event.ID, levels[0].ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if retried.ID != failed.ProgressID {
		t.Errorf("retry created a new row: %d vs %d", retried.ID, failed.ProgressID)
	}
	if retried.Status != model.ProgressInProgress || retried.AttemptsCount != 2 {
		t.Errorf("status=%s attempts=%d, want in_progress/2", retried.Status, retried.AttemptsCount)
	}
	if retried.ResultData != nil || retried.CompletionTime != nil {
		t.Error("retry should clear previous result")
	}

	f.clock.Advance(5 * time.Second)
	if _, err := f.progress.Complete(ctx, retried.ID, user.ID, event.ID, levels[0].ID, `{}`, false); err != nil {
		t.Fatalf("complete retry: %v", err)
	}
	if _, err := f.progress.Start(ctx, user.ID, event.ID, levels[0].ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("third attempt: err = %v, want ErrForbidden", err)
	}
}

func TestStartAfterCompletionReturnsRecord(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "Asha")
	event := testutil.CreateEvent(t, f.db, 1)
	levels := testutil.CreateLevels(t, f.db, event.ID, 1)

	done := f.play(t, user.ID, levels[0], 30, true, `{}`)
	p, err := f.progress.Start(context.Background(), user.ID, event.ID, levels[0].ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if p.ID != done.ProgressID || p.Status != model.ProgressCompleted || p.AttemptsCount != 1 {
		t.Errorf("got id=%d status=%s attempts=%d", p.ID, p.Status, p.AttemptsCount)
	}
}

func TestCompleteComputesElapsedAndNextLevel(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "Asha")
	event := testutil.CreateEvent(t, f.db, 2)
	levels := testutil.CreateLevels(t, f.db, event.ID, 2)

	res := f.play(t, user.ID, levels[0], 50, true, `{"moves":12}`)
	if res.Status != model.ProgressCompleted || !res.IsPassed {
		t.Errorf("status=%s passed=%v", res.Status, res.IsPassed)
	}
	if res.TimeTakenSeconds != 50 {
		t.Errorf("time taken = %d, want 50", res.TimeTakenSeconds)
	}
	if res.NextLevel == nil || res.NextLevel.LevelID != levels[1].ID || !res.NextLevel.IsUnlocked {
		t.Errorf("next level = %+v", res.NextLevel)
	}
	if res.LeaderboardRank != 1 {
		t.Errorf("leaderboard rank = %d, want 1", res.LeaderboardRank)
	}
	if res.Celebration.Stars != 3 {
		t.Errorf("stars = %d, want 3", res.Celebration.Stars)
	}

	last := f.play(t, user.ID, levels[1], 70, false, `{}`)
	if last.NextLevel != nil {
		t.Errorf("final level should have no next level, got %+v", last.NextLevel)
	}
	if last.Status != model.ProgressFailed || last.Celebration.Stars != 0 {
		t.Errorf("status=%s stars=%d", last.Status, last.Celebration.Stars)
	}
}

func TestCompleteScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "Asha")
	other := testutil.CreateUser(t, f.db, "Ravi")
	event := testutil.CreateEvent(t, f.db, 1)
	levels := testutil.CreateLevels(t, f.db, event.ID, 1)

	p, err := f.progress.Start(ctx, owner.ID, event.ID, levels[0].ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.progress.Complete(ctx, p.ID, other.ID, event.ID, levels[0].ID, `{}`, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("complete by other user: err = %v, want ErrNotFound", err)
	}
	if err := f.progress.UpdateState(ctx, p.ID, other.ID, event.ID, levels[0].ID, `{}`); !errors.Is(err, ErrNotFound) {
		t.Errorf("update by other user: err = %v, want ErrNotFound", err)
	}
}

func TestCompleteScopedToEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "Asha")
	event := testutil.CreateEvent(t, f.db, 1)
	levels := testutil.CreateLevels(t, f.db, event.ID, 1)
	other := testutil.CreateEvent(t, f.db, 1)
	testutil.CreateLevels(t, f.db, other.ID, 1)

	p, err := f.progress.Start(ctx, user.ID, event.ID, levels[0].ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.progress.Complete(ctx, p.ID, user.ID, other.ID, levels[0].ID, `{}`, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("complete under another event: err = %v, want ErrNotFound", err)
	}
	if err := f.progress.UpdateState(ctx, p.ID, user.ID, other.ID, levels[0].ID, `{}`); !errors.Is(err, ErrNotFound) {
		t.Errorf("update under another event: err = %v, want ErrNotFound", err)
	}

	var got model.LevelProgress
	f.db.First(&got, p.ID)
	if got.Status != model.ProgressInProgress {
		t.Errorf("status = %s, want in_progress", got.Status)
	}
}

func TestCompleteTwiceIsInvalidTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "Asha")
	event := testutil.CreateEvent(t, f.db, 1)
	levels := testutil.CreateLevels(t, f.db, event.ID, 1)

	res := f.play(t, user.ID, levels[0], 10, true, `{}`)
	_, err := f.progress.Complete(ctx, res.ProgressID, user.ID, event.ID, levels[0].ID, `{}`, true)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestUpdateStateKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "Asha")
	event := testutil.CreateEvent(t, f.db, 1)
	levels := testutil.CreateLevels(t, f.db, event.ID, 1)

	p, err := f.progress.Start(ctx, user.ID, event.ID, levels[0].ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	state := `{"board":[[2,0],[0,4]]}`
	if err := f.progress.UpdateState(ctx, p.ID, user.ID, event.ID, levels[0].ID, state); err != nil {
		t.Fatalf("update: %v", err)
	}

	var got model.LevelProgress
	f.db.First(&got, p.ID)
	if got.GameState == nil || *got.GameState != state {
		t.Errorf("game state = %v", got.GameState)
	}
	if got.Status != model.ProgressInProgress || !got.StartTime.Equal(*p.StartTime) {
		t.Errorf("status=%s start=%v", got.Status, got.StartTime)
	}
}

func TestSummaryMarksLockedLevels(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "Asha")
	event := testutil.CreateEvent(t, f.db, 3)
	levels := testutil.CreateLevels(t, f.db, event.ID, 3)

	f.play(t, user.ID, levels[0], 40, true, `{}`)

	s, err := f.progress.Summary(context.Background(), event.ID, user.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	want := []model.ProgressStatus{model.ProgressCompleted, model.ProgressNotStarted, model.ProgressLocked}
	for i, st := range s.Levels {
		if st.Status != want[i] {
			t.Errorf("level %d status = %s, want %s", i+1, st.Status, want[i])
		}
	}
	if s.CompletedLevels != 1 || s.CurrentLevel != 2 || s.TotalTimeSeconds != 40 {
		t.Errorf("completed=%d current=%d total=%d", s.CompletedLevels, s.CurrentLevel, s.TotalTimeSeconds)
	}
	if s.StartedAt == nil || s.LastActivity == nil {
		t.Error("activity timestamps should be set")
	}
}
