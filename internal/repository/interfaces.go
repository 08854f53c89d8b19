// Package repository 定义数据访问接口
// 接口抽象使依赖注入和单元测试成为可能
package repository

import "github.com/ashwinyue/next-chat/internal/model"

// ChatRepository 会话存储数据访问接口
// 接口定义使 Service 层可以轻松 mock 进行单元测试
type ChatRepository interface {
	// UpsertSession 确保会话存在；ownerID 非空时补写归属（只设置，不清除、不改写）
	UpsertSession(id, ownerID string) error
	// GetSessionByID 获取会话
	GetSessionByID(id string) (*model.ChatSession, error)
	// GetSessionForOwner 获取属于指定用户的会话；不存在与不属于返回同一错误
	GetSessionForOwner(id, ownerID string) (*model.ChatSession, error)
	// ListSessionsByOwner 按创建时间倒序列出用户的会话
	ListSessionsByOwner(ownerID string) ([]*model.ChatSession, error)
	// GetFirstMessageBySession 获取会话最早的一条消息（标题预览用）
	GetFirstMessageBySession(sessionID string) (*model.ChatMessage, error)
	// DeleteSessionOwned 条件删除：仅当归属匹配时删除会话及其全部消息
	// 归属检查与删除必须是同一条件语句，返回 types.ErrNotFound 表示无行被删
	DeleteSessionOwned(id, ownerID string) error

	// CreateMessage 追加消息
	CreateMessage(msg *model.ChatMessage) error
	// GetMessagesBySessionID 按时间升序获取会话全部消息
	GetMessagesBySessionID(sessionID string) ([]*model.ChatMessage, error)
	// GetRecentMessagesBySession 获取最近 N 条，调用方负责重排为升序
	GetRecentMessagesBySession(sessionID string, limit int) ([]*model.ChatMessage, error)
	// GetNearestMessagesBySession 按向量距离升序获取 K 条带 embedding 的消息
	GetNearestMessagesBySession(sessionID string, embedding []float32, limit int) ([]*model.ChatMessage, error)
}

// AuthRepository 用户数据访问接口
type AuthRepository interface {
	CreateUser(user *model.User) error
	GetUserByID(id string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
}

// 确保实现满足接口
var (
	_ ChatRepository = (*chatRepositoryImpl)(nil)
	_ AuthRepository = (*authRepositoryImpl)(nil)
)
