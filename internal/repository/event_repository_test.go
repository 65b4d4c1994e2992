package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"party_games_backend/internal/model"
	"party_games_backend/internal/testutil"

	"gorm.io/gorm"
)

func TestEventDeleteCascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	events := NewEventRepository(db)
	progress := NewProgressRepository(db)
	media := NewMediaRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "Asha")
	event := testutil.CreateEvent(t, db, 2)
	levels := testutil.CreateLevels(t, db, event.ID, 2)
	if _, _, err := progress.CreateOrGet(ctx, startedRecord(user.ID, event.ID, levels[0].ID, time.Now())); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if err := media.Create(ctx, &model.MediaAsset{EventID: event.ID, AssetType: model.AssetBabyPhoto, FileURL: "/uploads/a.jpg"}); err != nil {
		t.Fatalf("media: %v", err)
	}

	if err := events.Delete(ctx, event.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := events.FindByID(ctx, event.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("event lookup err = %v, want not found", err)
	}
	for _, m := range []interface{}{&model.Level{}, &model.LevelProgress{}, &model.MediaAsset{}} {
		var count int64
		if err := db.Model(m).Where("event_id = ?", event.ID).Count(&count).Error; err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 0 {
			t.Errorf("%T rows left: %d", m, count)
		}
	}
}

func TestFindInEventRejectsForeignAndDisabledLevels(t *testing.T) {
	db := testutil.SetupTestDB(t)
	levels := NewLevelRepository(db)
	ctx := context.Background()

	a := testutil.CreateEvent(t, db, 2)
	b := testutil.CreateEvent(t, db, 1)
	aLevels := testutil.CreateLevels(t, db, a.ID, 2)
	bLevels := testutil.CreateLevels(t, db, b.ID, 1)

	if _, err := levels.FindInEvent(ctx, a.ID, aLevels[0].ID); err != nil {
		t.Fatalf("own level: %v", err)
	}
	if _, err := levels.FindInEvent(ctx, a.ID, bLevels[0].ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("foreign level err = %v", err)
	}

	aLevels[1].IsEnabled = false
	if err := levels.Update(ctx, aLevels[1]); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := levels.FindInEvent(ctx, a.ID, aLevels[1].ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("disabled level err = %v", err)
	}
	enabled, err := levels.ListEnabled(ctx, a.ID)
	if err != nil || len(enabled) != 1 {
		t.Errorf("enabled = %d err=%v, want 1", len(enabled), err)
	}
}

func TestOTPReplaceInvalidatesPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewOTPRepository(db)
	ctx := context.Background()
	phone := "+919876543210"
	expires := time.Now().Add(5 * time.Minute)

	first := &model.OTPVerification{PhoneNumber: phone, CodeHash: "a", ExpiresAt: expires}
	if err := repo.Replace(ctx, first); err != nil {
		t.Fatalf("first: %v", err)
	}
	second := &model.OTPVerification{PhoneNumber: phone, CodeHash: "b", ExpiresAt: expires}
	if err := repo.Replace(ctx, second); err != nil {
		t.Fatalf("second: %v", err)
	}

	got, err := repo.FindLatestPending(ctx, phone)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != second.ID {
		t.Errorf("pending id = %d, want %d", got.ID, second.ID)
	}

	ok, err := repo.MarkVerified(ctx, second.ID)
	if err != nil || !ok {
		t.Fatalf("mark: ok=%v err=%v", ok, err)
	}
	ok, _ = repo.MarkVerified(ctx, second.ID)
	if ok {
		t.Error("an otp must only be consumed once")
	}
}
