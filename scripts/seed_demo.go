// 写入一个演示活动及其关卡，便于本地联调前端
//
// 用法: go run scripts/seed_demo.go -file scripts/demo_event.yaml

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"party_games_backend/internal/config"
	"party_games_backend/internal/model"
	"party_games_backend/internal/repository"
	"party_games_backend/internal/service"
	"party_games_backend/pkg/database"
	"party_games_backend/pkg/logger"

	"gopkg.in/yaml.v3"
	gormlogger "gorm.io/gorm/logger"
)

type demoLevel struct {
	GameType    string `yaml:"game_type"`
	LevelConfig string `yaml:"level_config"`
	MaxRetries  *int   `yaml:"max_retries"`
	Final       bool   `yaml:"final"`
}

type demoEvent struct {
	OrganizerPhone string      `yaml:"organizer_phone"`
	OrganizerName  string      `yaml:"organizer_name"`
	EventName      string      `yaml:"event_name"`
	BabyName       string      `yaml:"baby_name"`
	Levels         []demoLevel `yaml:"levels"`
}

func main() {
	file := flag.String("file", "scripts/demo_event.yaml", "演示活动定义")
	configDir := flag.String("config", "configs", "配置文件目录")
	flag.Parse()

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("无法读取演示数据: %v", err)
	}
	var demo demoEvent
	if err := yaml.Unmarshal(data, &demo); err != nil {
		log.Fatalf("解析演示数据失败: %v", err)
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, gormlogger.Warn)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	organizer, err := users.FindByPhone(ctx, demo.OrganizerPhone)
	if err != nil {
		phone := demo.OrganizerPhone
		organizer = &model.User{Name: demo.OrganizerName, PhoneNumber: &phone, Role: model.RoleOrganizer, IsVerified: true}
		if err := users.Create(ctx, organizer); err != nil {
			log.Fatalf("创建组织者失败: %v", err)
		}
	}

	eventRepo := repository.NewEventRepository(db)
	games := repository.NewGameRepository(db)
	levelRepo := repository.NewLevelRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	leaderboard := service.NewLeaderboardService(progressRepo, levelRepo, eventRepo, users, cfg.Leaderboard.DefaultLimit, cfg.Leaderboard.MaxLimit)
	events := service.NewEventService(eventRepo, leaderboard)
	levels := service.NewLevelService(levelRepo, eventRepo, games, progressRepo)

	actor := service.Actor{UserID: organizer.ID, Role: organizer.Role}
	event, err := events.Create(ctx, actor, service.EventCreateRequest{
		EventName:        demo.EventName,
		EventDate:        time.Now().UTC().Add(24 * time.Hour),
		OrganizerName:    demo.OrganizerName,
		OrganizerContact: demo.OrganizerPhone,
		BabyName:         demo.BabyName,
		TotalLevels:      len(demo.Levels),
	})
	if err != nil {
		log.Fatalf("创建活动失败: %v", err)
	}

	for i, l := range demo.Levels {
		game, err := games.FindByType(ctx, l.GameType)
		if err != nil {
			log.Fatalf("未知游戏类型 %s: %v", l.GameType, err)
		}
		req := service.LevelCreateRequest{
			GameID:       game.ID,
			LevelNumber:  i + 1,
			MaxRetries:   l.MaxRetries,
			IsFinalLevel: l.Final,
		}
		if l.LevelConfig != "" {
			cfg := l.LevelConfig
			req.LevelConfig = &cfg
		}
		if _, err := levels.Add(ctx, actor, event.ID, req); err != nil {
			log.Fatalf("创建第 %d 关失败: %v", i+1, err)
		}
	}

	log.Printf("演示活动已创建: id=%d qr=%s", event.ID, event.QRCodeToken)
}
