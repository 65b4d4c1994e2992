package model

// swagger:model Game
type Game struct {
	BaseModel
	GameName            string  `gorm:"size:255;not null" json:"gameName"`
	GameType            string  `gorm:"size:100;uniqueIndex;not null" json:"gameType"`
	Description         *string `gorm:"type:text" json:"description,omitempty"`
	ComponentName       string  `gorm:"size:100;not null" json:"componentName"` // 前端组件名
	DefaultConfigSchema *string `gorm:"type:text" json:"defaultConfigSchema,omitempty"`
	IsActive            bool    `json:"isActive"`
}

func (Game) TableName() string {
	return "games"
}
