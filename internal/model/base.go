package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel 所有表共用的主键与时间戳；删除为物理删除，由事件级联
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func GenerateUUID() string {
	return uuid.New().String()
}
