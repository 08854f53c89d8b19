package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatSession 聊天会话
// UserID 为空表示匿名会话；归属一旦写入不再改变
type ChatSession struct {
	ID        string        `gorm:"primaryKey;size:36" json:"id"`
	UserID    string        `gorm:"index;size:36" json:"user_id,omitempty"`
	CreatedAt time.Time     `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
	Messages  []ChatMessage `gorm:"foreignKey:SessionID" json:"messages,omitempty"`
}

// ChatMessage 聊天消息
// Embedding 为 nil 表示该消息不可被语义检索
type ChatMessage struct {
	ID        string           `gorm:"primaryKey;size:36" json:"id"`
	SessionID string           `gorm:"index;size:36" json:"session_id"`
	Role      string           `gorm:"size:20" json:"role"` // user, assistant
	Content   string           `gorm:"type:text" json:"content"`
	Embedding *pgvector.Vector `gorm:"type:vector(768)" json:"-"`
	CreatedAt time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
}

// SessionPreview 会话列表项（历史侧边栏用）
type SessionPreview struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `json:"title"`
}

// TableName 指定表名
func (ChatSession) TableName() string {
	return "chat_sessions"
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
