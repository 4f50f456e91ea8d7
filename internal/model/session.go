package model

import (
	"time"

	"gorm.io/datatypes"
)

// Session 会话表：对应 sessions（database 驱动使用）
type Session struct {
	SessionID string            `gorm:"type:varchar(64);primaryKey"   json:"session_id"`
	UserID    string            `gorm:"type:uuid;not null;index"      json:"user_id"`
	Data      datatypes.JSONMap `gorm:"type:jsonb;not null"           json:"data"`
	ExpiresAt time.Time         `gorm:"not null;index"                json:"expires_at"`
	BaseModel
}

// TableName 指定表名
func (Session) TableName() string { return "sessions" }
