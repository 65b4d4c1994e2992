package model

import "time"

const DefaultTotalLevels = 5

// swagger:model Event
type Event struct {
	BaseModel
	EventName         string     `gorm:"size:255;not null" json:"eventName"`
	EventDate         time.Time  `gorm:"not null" json:"eventDate"`
	OrganizerName     string     `gorm:"size:255;not null" json:"organizerName"`
	OrganizerContact  string     `gorm:"size:20;not null" json:"organizerContact"`
	OrganizerID       uint       `gorm:"index" json:"organizerId"`
	BabyNameEncrypted string     `gorm:"size:255;not null" json:"-"`
	QRCodeToken       string     `gorm:"size:100;uniqueIndex;not null" json:"qrCodeToken"`
	TotalLevels       int        `gorm:"not null" json:"totalLevels"` // “全部通关”的分母
	IsActive          bool       `json:"isActive"`
	EventStartTime    *time.Time `json:"eventStartTime,omitempty"`
	EventEndTime      *time.Time `json:"eventEndTime,omitempty"`
	Description       *string    `gorm:"type:text" json:"description,omitempty"`
	ThemeConfig       *string    `gorm:"type:text" json:"themeConfig,omitempty"`
}

func (Event) TableName() string {
	return "events"
}
