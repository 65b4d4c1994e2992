package model

import "time"

type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
	ProgressFailed     ProgressStatus = "failed"

	// 仅用于进度汇总展示，不会落库
	ProgressLocked ProgressStatus = "locked"
)

// LevelProgress 每个 (user, level) 仅一行，重试时原地更新并累加 AttemptsCount
// swagger:model LevelProgress
type LevelProgress struct {
	BaseModel

	UserID  uint `gorm:"not null;uniqueIndex:idx_progress_user_level;index:idx_progress_event_status_user,priority:3" json:"userId"`
	EventID uint `gorm:"not null;index:idx_progress_event_status_user,priority:1" json:"eventId"`
	LevelID uint `gorm:"not null;uniqueIndex:idx_progress_user_level" json:"levelId"`

	Status        ProgressStatus `gorm:"size:20;default:'not_started';index:idx_progress_event_status_user,priority:2" json:"status"`
	AttemptsCount int            `gorm:"default:0" json:"attemptsCount"`

	StartTime        *time.Time `json:"startTime"`
	CompletionTime   *time.Time `json:"completionTime"`
	TimeTakenSeconds *int       `json:"timeTakenSeconds"`

	GameState  *string `gorm:"type:text" json:"gameState,omitempty"`  // 断点续玩快照，服务端不解析
	ResultData *string `gorm:"type:text" json:"resultData,omitempty"` // 游戏结果，服务端只读取 is_correct
	IsPassed   bool    `gorm:"default:false" json:"isPassed"`
}

func (LevelProgress) TableName() string {
	return "level_progresses"
}

func (p *LevelProgress) IsTerminal() bool {
	return p.Status == ProgressCompleted || p.Status == ProgressFailed
}

// CompletedLevel 排行榜扫描使用的单行投影
type CompletedLevel struct {
	UserID           uint
	LevelID          uint
	TimeTakenSeconds *int
	CompletionTime   *time.Time
}
