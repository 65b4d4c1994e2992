package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"party_games_backend/internal/model"
	"party_games_backend/internal/testutil"
)

func strPtr(s string) *string { return &s }

func TestMyRankTwoLevelScenario(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "Asha")
	event := testutil.CreateEvent(t, f.db, 2)
	levels := testutil.CreateLevels(t, f.db, event.ID, 2)

	f.play(t, user.ID, levels[0], 50, true, `{}`)
	f.play(t, user.ID, levels[1], 70, true, `{"is_correct":true}`)

	r, err := f.leaderboard.MyRank(context.Background(), event.ID, user.ID)
	if err != nil {
		t.Fatalf("MyRank: %v", err)
	}
	if r.Rank == nil || *r.Rank != 1 {
		t.Fatalf("rank = %v, want 1", r.Rank)
	}
	if r.LevelsCompleted != 2 || r.TotalTimeSeconds != 120 {
		t.Errorf("levels=%d total=%d, want 2/120", r.LevelsCompleted, r.TotalTimeSeconds)
	}
	if r.CompletedParticipants != 1 {
		t.Errorf("completed participants = %d, want 1", r.CompletedParticipants)
	}
}

func TestMyRankWithoutRecords(t *testing.T) {
	f := newFixture(t)
	player := testutil.CreateUser(t, f.db, "Asha")
	idle := testutil.CreateUser(t, f.db, "Ravi")
	event := testutil.CreateEvent(t, f.db, 1)
	levels := testutil.CreateLevels(t, f.db, event.ID, 1)
	f.play(t, player.ID, levels[0], 30, true, `{}`)

	r, err := f.leaderboard.MyRank(context.Background(), event.ID, idle.ID)
	if err != nil {
		t.Fatalf("MyRank: %v", err)
	}
	if r.Rank != nil || r.LevelsCompleted != 0 || r.TotalTimeSeconds != 0 {
		t.Errorf("got rank=%v levels=%d total=%d, want nil/0/0", r.Rank, r.LevelsCompleted, r.TotalTimeSeconds)
	}

	if _, err := f.leaderboard.MyRank(context.Background(), 9999, idle.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing event: err = %v, want ErrNotFound", err)
	}
}

func TestRankFasterPlayerWinsTie(t *testing.T) {
	f := newFixture(t)
	a := testutil.CreateUser(t, f.db, "Asha")
	b := testutil.CreateUser(t, f.db, "Bala")
	event := testutil.CreateEvent(t, f.db, 1)
	levels := testutil.CreateLevels(t, f.db, event.ID, 1)

	f.play(t, a.ID, levels[0], 100, true, `{}`)
	f.play(t, b.ID, levels[0], 90, true, `{}`)

	page, err := f.leaderboard.Rank(context.Background(), event.ID, a.ID, FilterAll, 0, 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(page.Leaderboard) != 2 {
		t.Fatalf("entries = %d, want 2", len(page.Leaderboard))
	}
	first, second := page.Leaderboard[0], page.Leaderboard[1]
	if first.UserID != b.ID || first.Rank != 1 || first.BadgeCode != BadgeGold || first.Badge != "🥇" {
		t.Errorf("first = %+v, want Bala gold", first)
	}
	if second.UserID != a.ID || second.Rank != 2 || second.BadgeCode != BadgeSilver {
		t.Errorf("second = %+v, want Asha silver", second)
	}
	if first.TotalTimeSeconds != 90 || second.TotalTimeSeconds != 100 {
		t.Errorf("times = %d/%d, want 90/100", first.TotalTimeSeconds, second.TotalTimeSeconds)
	}
	if first.Name != "Bala" {
		t.Errorf("name = %q", first.Name)
	}
	if page.CurrentUserRank == nil || *page.CurrentUserRank != 2 || !page.CurrentUserInPage {
		t.Errorf("current user rank = %v in page = %v", page.CurrentUserRank, page.CurrentUserInPage)
	}
}

func TestRankOrderingAndPagination(t *testing.T) {
	f := newFixture(t)
	event := testutil.CreateEvent(t, f.db, 2)
	levels := testutil.CreateLevels(t, f.db, event.ID, 2)

	// 通关数优先于用时
	slowAll := testutil.CreateUser(t, f.db, "Slow")
	f.play(t, slowAll.ID, levels[0], 300, true, `{}`)
	f.play(t, slowAll.ID, levels[1], 300, true, `{}`)
	fastOne := testutil.CreateUser(t, f.db, "Fast")
	f.play(t, fastOne.ID, levels[0], 5, true, `{}`)
	mid := testutil.CreateUser(t, f.db, "Mid")
	f.play(t, mid.ID, levels[0], 20, true, `{}`)
	starter := testutil.CreateUser(t, f.db, "Starter")
	if _, err := f.progress.Start(context.Background(), starter.ID, event.ID, levels[0].ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	ctx := context.Background()
	full, err := f.leaderboard.Rank(ctx, event.ID, mid.ID, FilterAll, 10, 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	wantOrder := []uint{slowAll.ID, fastOne.ID, mid.ID}
	if len(full.Leaderboard) != len(wantOrder) {
		t.Fatalf("entries = %d, want %d", len(full.Leaderboard), len(wantOrder))
	}
	for i, id := range wantOrder {
		if full.Leaderboard[i].UserID != id {
			t.Errorf("position %d = user %d, want %d", i, full.Leaderboard[i].UserID, id)
		}
	}
	for i := 1; i < len(full.Leaderboard); i++ {
		prev, cur := full.Leaderboard[i-1], full.Leaderboard[i]
		if prev.LevelsCompleted < cur.LevelsCompleted ||
			(prev.LevelsCompleted == cur.LevelsCompleted && prev.TotalTimeSeconds > cur.TotalTimeSeconds) {
			t.Errorf("ordering broken between rank %d and %d", prev.Rank, cur.Rank)
		}
	}
	if full.TotalParticipants != 4 {
		t.Errorf("total participants = %d, want 4", full.TotalParticipants)
	}

	page, err := f.leaderboard.Rank(ctx, event.ID, slowAll.ID, FilterAll, 1, 2)
	if err != nil {
		t.Fatalf("Rank page: %v", err)
	}
	if len(page.Leaderboard) != 1 || page.Leaderboard[0].Rank != 3 || page.Leaderboard[0].UserID != mid.ID {
		t.Fatalf("page = %+v, want Mid at rank 3", page.Leaderboard)
	}
	if page.Leaderboard[0].BadgeCode != BadgeBronze {
		t.Errorf("badge = %q, want bronze", page.Leaderboard[0].BadgeCode)
	}
	if page.CurrentUserRank == nil || *page.CurrentUserRank != 1 || page.CurrentUserInPage {
		t.Errorf("viewer rank = %v in page = %v, want 1/false", page.CurrentUserRank, page.CurrentUserInPage)
	}

	beyond, err := f.leaderboard.Rank(ctx, event.ID, slowAll.ID, FilterAll, 10, 50)
	if err != nil {
		t.Fatalf("Rank beyond: %v", err)
	}
	if len(beyond.Leaderboard) != 0 {
		t.Errorf("entries past the end = %d", len(beyond.Leaderboard))
	}
}

func TestRankCompletedFilterIsSubset(t *testing.T) {
	f := newFixture(t)
	event := testutil.CreateEvent(t, f.db, 2)
	levels := testutil.CreateLevels(t, f.db, event.ID, 2)

	finisher := testutil.CreateUser(t, f.db, "Finisher")
	f.play(t, finisher.ID, levels[0], 60, true, `{}`)
	f.play(t, finisher.ID, levels[1], 60, true, `{}`)
	partial := testutil.CreateUser(t, f.db, "Partial")
	f.play(t, partial.ID, levels[0], 10, true, `{}`)

	ctx := context.Background()
	all, err := f.leaderboard.Rank(ctx, event.ID, partial.ID, FilterAll, 0, 0)
	if err != nil {
		t.Fatalf("Rank all: %v", err)
	}
	done, err := f.leaderboard.Rank(ctx, event.ID, partial.ID, ParseFilter("completed"), 0, 0)
	if err != nil {
		t.Fatalf("Rank completed: %v", err)
	}

	inAll := make(map[uint]LeaderboardEntry)
	for _, e := range all.Leaderboard {
		inAll[e.UserID] = e
	}
	for _, e := range done.Leaderboard {
		ref, ok := inAll[e.UserID]
		if !ok {
			t.Errorf("user %d only in completed view", e.UserID)
		}
		if !ref.AllLevelsCompleted || e.LevelsCompleted != event.TotalLevels {
			t.Errorf("user %d in completed view without all levels", e.UserID)
		}
	}
	if len(done.Leaderboard) != 1 || done.Leaderboard[0].UserID != finisher.ID {
		t.Errorf("completed view = %+v", done.Leaderboard)
	}
	if done.CurrentUserRank != nil {
		t.Errorf("partial player should be unranked in completed view, got %d", *done.CurrentUserRank)
	}
	if done.TotalParticipants != all.TotalParticipants {
		t.Errorf("participant count depends on filter: %d vs %d", done.TotalParticipants, all.TotalParticipants)
	}

	unknown, err := f.leaderboard.Rank(ctx, event.ID, partial.ID, ParseFilter("correct_guess"), 0, 0)
	if err != nil {
		t.Fatalf("Rank unknown filter: %v", err)
	}
	if len(unknown.Leaderboard) != len(all.Leaderboard) {
		t.Errorf("unknown filter should behave as all")
	}
}

func TestRankCorrectNameGuess(t *testing.T) {
	f := newFixture(t)
	event := testutil.CreateEvent(t, f.db, 1)
	levels := testutil.CreateLevels(t, f.db, event.ID, 1)

	results := map[string]string{
		"Right":   `{"is_correct":true,"guess":"Aarav"}`,
		"Wrong":   `{"is_correct":false}`,
		"Missing": `{"guess":"Aarav"}`,
		"Garbage": `not json`,
	}
	ids := make(map[string]uint)
	for name, result := range results {
		u := testutil.CreateUser(t, f.db, name)
		ids[name] = u.ID
		f.play(t, u.ID, levels[0], 10, true, result)
	}

	page, err := f.leaderboard.Rank(context.Background(), event.ID, 0, FilterAll, 0, 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	got := make(map[uint]*bool)
	for _, e := range page.Leaderboard {
		got[e.UserID] = e.CorrectNameGuess
	}
	if g := got[ids["Right"]]; g == nil || !*g {
		t.Errorf("Right = %v, want true", g)
	}
	if g := got[ids["Wrong"]]; g == nil || *g {
		t.Errorf("Wrong = %v, want false", g)
	}
	if g := got[ids["Missing"]]; g != nil {
		t.Errorf("Missing = %v, want nil", *g)
	}
	if g := got[ids["Garbage"]]; g != nil {
		t.Errorf("Garbage = %v, want nil", *g)
	}

	stats, err := f.leaderboard.Stats(context.Background(), event)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.CorrectNameGuesses != 1 || stats.CompletedAllLevels != 4 || stats.TotalParticipants != 4 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRankMissingEvent(t *testing.T) {
	f := newFixture(t)
	if _, err := f.leaderboard.Rank(context.Background(), 9999, 1, FilterAll, 0, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSortStandingsTieBreaks(t *testing.T) {
	early := time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC)
	late := early.Add(time.Minute)
	list := []standing{
		{UserID: 4, LevelsCompleted: 2, TotalTime: 60, LastCompleted: &late},
		{UserID: 3, LevelsCompleted: 2, TotalTime: 60, LastCompleted: &early},
		{UserID: 9, LevelsCompleted: 1, TotalTime: 10, LastCompleted: &early},
		{UserID: 2, LevelsCompleted: 2, TotalTime: 60, LastCompleted: &late},
	}
	sortStandings(list)
	want := []uint{3, 2, 4, 9}
	for i, id := range want {
		if list[i].UserID != id {
			t.Errorf("position %d = %d, want %d", i, list[i].UserID, id)
		}
	}
}

func TestAggregateCountsDistinctLevels(t *testing.T) {
	ten, twenty := 10, 20
	rows := []model.CompletedLevel{
		{UserID: 1, LevelID: 1, TimeTakenSeconds: &ten},
		{UserID: 1, LevelID: 1, TimeTakenSeconds: &ten},
		{UserID: 1, LevelID: 2, TimeTakenSeconds: &twenty},
		{UserID: 2, LevelID: 1},
	}
	got := aggregate(rows)
	if len(got) != 2 {
		t.Fatalf("users = %d, want 2", len(got))
	}
	if got[0].LevelsCompleted != 2 || got[0].TotalTime != 30 {
		t.Errorf("user 1 = %+v", got[0])
	}
	if got[1].LevelsCompleted != 1 || got[1].TotalTime != 0 {
		t.Errorf("user 2 = %+v", got[1])
	}
}

func TestExtractCorrectGuess(t *testing.T) {
	tests := []struct {
		name  string
		input *string
		want  *bool
	}{
		{"nil", nil, nil},
		{"empty", strPtr(""), nil},
		{"true", strPtr(`{"is_correct":true}`), boolPtr(true)},
		{"false", strPtr(`{"is_correct":false}`), boolPtr(false)},
		{"string value", strPtr(`{"is_correct":"yes"}`), nil},
		{"array", strPtr(`[1,2]`), nil},
		{"broken", strPtr(`{"is_correct":`), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractCorrectGuess(tt.input)
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func boolPtr(b bool) *bool { return &b }

func TestClampLimits(t *testing.T) {
	s := NewLeaderboardService(nil, nil, nil, nil, 50, 100)
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, 50, 0},
		{500, 0, 100, 0},
		{-3, -1, 1, 0},
		{20, 40, 20, 40},
	}
	for _, tt := range tests {
		l, o := s.clamp(tt.limit, tt.offset)
		if l != tt.wantLimit || o != tt.wantOffset {
			t.Errorf("clamp(%d,%d) = %d,%d want %d,%d", tt.limit, tt.offset, l, o, tt.wantLimit, tt.wantOffset)
		}
	}
}
