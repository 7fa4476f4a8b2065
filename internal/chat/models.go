package chat

import (
	"time"

	"github.com/suPer8Hu/shopchat/internal/catalog"
)

type Session struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID string    `gorm:"type:varchar(26);uniqueIndex;not null" json:"session_id"`
	UserID    uint64    `gorm:"index;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Session) TableName() string { return "chat_sessions" }

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is immutable once created. Products carries snapshots of the
// catalog products an assistant turn showed; RawAIResponse keeps the
// upstream payload for audit.
type Message struct {
	ID            uint64               `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID     string               `gorm:"type:varchar(26);not null;index:idx_chat_msg_user_session_id,priority:2" json:"session_id"`
	UserID        uint64               `gorm:"not null;index:idx_chat_msg_user_session_id,priority:1" json:"-"`
	Role          string               `gorm:"type:varchar(16);index;not null" json:"role"`
	Content       string               `gorm:"type:text;not null" json:"content"`
	DetectedLink  *string              `gorm:"type:varchar(512)" json:"detected_link,omitempty"`
	Products      []catalog.ProductRef `gorm:"type:text;serializer:json" json:"products,omitempty"`
	RawAIResponse *string              `gorm:"type:text" json:"-"`
	CreatedAt     time.Time            `json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }
