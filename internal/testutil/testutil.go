package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"party_games_backend/internal/model"
	"party_games_backend/pkg/database"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SetupTestDB 为每个测试创建独立的内存 sqlite 库并完成迁移
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

var phoneSeq atomic.Int64

func CreateUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	phone := fmt.Sprintf("+91%010d", 9000000000+phoneSeq.Add(1))
	u := &model.User{Name: name, PhoneNumber: &phone, Role: model.RoleGuest, IsVerified: true}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return u
}

func CreateEvent(t *testing.T, db *gorm.DB, totalLevels int) *model.Event {
	t.Helper()
	e := &model.Event{
		EventName:         "Naming Ceremony",
		EventDate:         time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC),
		OrganizerName:     "Priya",
		OrganizerContact:  "+919876543210",
		BabyNameEncrypted: "QWFyYXY=",
		QRCodeToken:       model.GenerateUUID(),
		TotalLevels:       totalLevels,
		IsActive:          true,
	}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}
	return e
}

// CreateLevels 按顺序创建 n 个启用的关卡，最后一关为 final
func CreateLevels(t *testing.T, db *gorm.DB, eventID uint, n int) []*model.Level {
	t.Helper()
	var game model.Game
	if err := db.First(&game).Error; err != nil {
		t.Fatalf("Failed to load seeded game: %v", err)
	}
	levels := make([]*model.Level, 0, n)
	for i := 1; i <= n; i++ {
		l := &model.Level{
			EventID:      eventID,
			GameID:       game.ID,
			LevelNumber:  i,
			MaxRetries:   model.UnlimitedRetries,
			IsFinalLevel: i == n,
			IsEnabled:    true,
		}
		if err := db.Create(l).Error; err != nil {
			t.Fatalf("Failed to create level %d: %v", i, err)
		}
		levels = append(levels, l)
	}
	return levels
}

// FakeClock 可手动推进的时钟
type FakeClock struct {
	Current time.Time
}

func NewFakeClock() *FakeClock {
	return &FakeClock{Current: time.Date(2026, 1, 10, 18, 30, 0, 0, time.UTC)}
}

func (c *FakeClock) Now() time.Time {
	return c.Current
}

func (c *FakeClock) Advance(d time.Duration) {
	c.Current = c.Current.Add(d)
}
