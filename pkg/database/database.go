package database

import (
	"fmt"
	"time"

	"party_games_backend/internal/config"
	"party_games_backend/internal/model"
	"party_games_backend/pkg/logger"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=UTC",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func InitDB(cfg *config.DatabaseConfig, logMode gormlogger.LogLevel) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logMode),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// sqlite 单写者
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	logger.Log.Info("Database connection established", zap.String("driver", cfg.Driver))
	return db, nil
}

// Migrate 建表并写入默认游戏目录
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.OTPVerification{},
		&model.Event{},
		&model.Game{},
		&model.Level{},
		&model.LevelProgress{},
		&model.MediaAsset{},
	)
	if err != nil {
		return err
	}

	logger.Log.Info("Database migration completed")
	return seedGames(db)
}

func seedGames(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Game{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	describe := func(s string) *string { return &s }
	defaults := []model.Game{
		{GameName: "2048 Puzzle", GameType: "2048_PUZZLE", ComponentName: "Game2048", Description: describe("Combine tiles to reach the target number"), IsActive: true},
		{GameName: "Memory Match", GameType: "MEMORY_MATCH", ComponentName: "MemoryMatchGame", Description: describe("Find matching pairs of cards"), IsActive: true},
		{GameName: "Jigsaw Puzzle", GameType: "JIGSAW_PUZZLE", ComponentName: "JigsawPuzzleGame", Description: describe("Piece together the image"), IsActive: true},
		{GameName: "Balloon Pop", GameType: "BALLOON_POP", ComponentName: "BalloonPopGame", Description: describe("Pop balloons in sequence or by target"), IsActive: true},
		{GameName: "Name Guessing", GameType: "NAME_GUESS", ComponentName: "NameGuessingGame", Description: describe("Guess the baby's name from options"), IsActive: true},
	}
	return db.Create(&defaults).Error
}
