package repository

import (
	"context"
	"testing"
	"time"

	"party_games_backend/internal/model"
	"party_games_backend/internal/testutil"
)

func startedRecord(userID, eventID, levelID uint, at time.Time) *model.LevelProgress {
	return &model.LevelProgress{
		UserID:        userID,
		EventID:       eventID,
		LevelID:       levelID,
		Status:        model.ProgressInProgress,
		AttemptsCount: 1,
		StartTime:     &at,
	}
}

func TestCreateOrGetReturnsExistingRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "Asha")
	event := testutil.CreateEvent(t, db, 1)
	levels := testutil.CreateLevels(t, db, event.ID, 1)
	now := time.Now().UTC()

	first, created, err := repo.CreateOrGet(ctx, startedRecord(user.ID, event.ID, levels[0].ID, now))
	if err != nil || !created {
		t.Fatalf("first insert: created=%v err=%v", created, err)
	}
	second, created, err := repo.CreateOrGet(ctx, startedRecord(user.ID, event.ID, levels[0].ID, now))
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if created {
		t.Error("second insert should not create a row")
	}
	if second.ID != first.ID {
		t.Errorf("got id %d, want %d", second.ID, first.ID)
	}
}

func TestFinishOnlyFromInProgress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "Asha")
	event := testutil.CreateEvent(t, db, 1)
	levels := testutil.CreateLevels(t, db, event.ID, 1)
	now := time.Now().UTC()

	p, _, err := repo.CreateOrGet(ctx, startedRecord(user.ID, event.ID, levels[0].ID, now))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ok, err := repo.Finish(ctx, p.ID, model.ProgressFailed, now, 10, `{}`, false)
	if err != nil || !ok {
		t.Fatalf("finish: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Finish(ctx, p.ID, model.ProgressCompleted, now, 10, `{}`, true)
	if err != nil {
		t.Fatalf("second finish: %v", err)
	}
	if ok {
		t.Error("finishing a failed record should not apply")
	}

	ok, err = repo.RestartFailed(ctx, p.ID, now.Add(time.Minute))
	if err != nil || !ok {
		t.Fatalf("restart: ok=%v err=%v", ok, err)
	}
	got, err := repo.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != model.ProgressInProgress || got.AttemptsCount != 2 {
		t.Errorf("after restart status=%s attempts=%d", got.Status, got.AttemptsCount)
	}
	if got.CompletionTime != nil || got.ResultData != nil {
		t.Error("restart should clear completion fields")
	}
}

func TestListCompletedByEventSkipsDisabledLevels(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "Asha")
	event := testutil.CreateEvent(t, db, 2)
	levels := testutil.CreateLevels(t, db, event.ID, 2)
	now := time.Now().UTC()

	for _, l := range levels {
		p, _, err := repo.CreateOrGet(ctx, startedRecord(user.ID, event.ID, l.ID, now))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := repo.Finish(ctx, p.ID, model.ProgressCompleted, now, 30, `{}`, true); err != nil {
			t.Fatalf("finish: %v", err)
		}
	}
	if err := db.Model(&model.Level{}).Where("id = ?", levels[1].ID).Update("is_enabled", false).Error; err != nil {
		t.Fatalf("disable: %v", err)
	}

	rows, err := repo.ListCompletedByEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].LevelID != levels[0].ID {
		t.Fatalf("rows = %+v, want only level %d", rows, levels[0].ID)
	}
	if rows[0].TimeTakenSeconds == nil || *rows[0].TimeTakenSeconds != 30 {
		t.Errorf("time taken = %v, want 30", rows[0].TimeTakenSeconds)
	}

	completed, err := repo.CountCompletedParticipants(ctx, event.ID)
	if err != nil || completed != 1 {
		t.Errorf("completed participants = %d err=%v", completed, err)
	}
}

func TestCountParticipantsIncludesInProgress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	event := testutil.CreateEvent(t, db, 1)
	levels := testutil.CreateLevels(t, db, event.ID, 1)
	now := time.Now().UTC()
	for _, name := range []string{"Asha", "Ravi"} {
		u := testutil.CreateUser(t, db, name)
		if _, _, err := repo.CreateOrGet(ctx, startedRecord(u.ID, event.ID, levels[0].ID, now)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	total, err := repo.CountParticipants(ctx, event.ID)
	if err != nil || total != 2 {
		t.Errorf("participants = %d err=%v, want 2", total, err)
	}
	completed, err := repo.CountCompletedParticipants(ctx, event.ID)
	if err != nil || completed != 0 {
		t.Errorf("completed participants = %d err=%v, want 0", completed, err)
	}
}
