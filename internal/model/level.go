package model

const UnlimitedRetries = -1

// swagger:model Level
type Level struct {
	BaseModel

	EventID         uint    `gorm:"not null;uniqueIndex:idx_event_level_number" json:"eventId"`
	GameID          uint    `gorm:"not null;index" json:"gameId"`
	LevelNumber     int     `gorm:"not null;uniqueIndex:idx_event_level_number" json:"levelNumber"` // 从 1 开始
	LevelConfig     *string `gorm:"type:text" json:"levelConfig,omitempty"`
	PassingCriteria *string `gorm:"type:text" json:"passingCriteria,omitempty"`
	MaxRetries      int     `gorm:"not null" json:"maxRetries"` // -1 不限
	IsFinalLevel    bool    `gorm:"default:false" json:"isFinalLevel"`
	IsEnabled       bool    `json:"isEnabled"`
}

func (Level) TableName() string {
	return "levels"
}

// RetryAllowed attempts 为已用次数，首次不算重试
func (l *Level) RetryAllowed(attempts int) bool {
	if l.MaxRetries < 0 {
		return true
	}
	return attempts-1 < l.MaxRetries
}
