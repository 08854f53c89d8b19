package repository

import (
	"errors"
	"sort"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ashwinyue/next-chat/internal/model"
	"github.com/ashwinyue/next-chat/internal/service/types"
)

// chatRepositoryImpl 会话存储实现
type chatRepositoryImpl struct {
	db *gorm.DB
}

// NewChatRepository 创建会话仓库
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepositoryImpl{db: db}
}

// UpsertSession 确保会话存在
// 已存在时只补写空归属，绝不在两个用户之间转移
func (r *chatRepositoryImpl) UpsertSession(id, ownerID string) error {
	session := &model.ChatSession{ID: id, UserID: ownerID}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(session).Error
	if err != nil {
		return err
	}

	if ownerID == "" {
		return nil
	}
	return r.db.Model(&model.ChatSession{}).
		Where("id = ? AND user_id = ''", id).
		Update("user_id", ownerID).Error
}

// GetSessionByID 获取会话
func (r *chatRepositoryImpl) GetSessionByID(id string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSessionForOwner 获取属于指定用户的会话
// 不存在和不属于返回同一错误，避免泄露他人会话的存在性
func (r *chatRepositoryImpl) GetSessionForOwner(id, ownerID string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.Where("id = ? AND user_id = ?", id, ownerID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessionsByOwner 按创建时间倒序列出用户的会话
func (r *chatRepositoryImpl) ListSessionsByOwner(ownerID string) ([]*model.ChatSession, error) {
	var sessions []*model.ChatSession
	err := r.db.Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// GetFirstMessageBySession 获取会话最早的一条消息
func (r *chatRepositoryImpl) GetFirstMessageBySession(sessionID string) (*model.ChatMessage, error) {
	var msg model.ChatMessage
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteSessionOwned 条件删除会话及其全部消息
// 归属检查和会话删除是同一条件 DELETE，避免检查与删除之间的归属变更竞态。
// 消息表有指向会话的外键，必须先删消息再删会话；
// 消息删除同样以归属为条件，非属主连消息也动不了
func (r *chatRepositoryImpl) DeleteSessionOwned(id, ownerID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where(
			"session_id = ? AND EXISTS (SELECT 1 FROM chat_sessions WHERE id = ? AND user_id = ?)",
			id, id, ownerID,
		).Delete(&model.ChatMessage{}).Error
		if err != nil {
			return err
		}

		res := tx.Where("id = ? AND user_id = ?", id, ownerID).Delete(&model.ChatSession{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrNotFound
		}
		return nil
	})
}

// CreateMessage 追加消息
// 时间戳在单次插入时落库，同一会话的并发追加由存储层序列化
func (r *chatRepositoryImpl) CreateMessage(msg *model.ChatMessage) error {
	return r.db.Create(msg).Error
}

// GetMessagesBySessionID 按时间升序获取会话全部消息
func (r *chatRepositoryImpl) GetMessagesBySessionID(sessionID string) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// GetRecentMessagesBySession 获取最近 N 条消息，重排为升序返回
// 模型需要 oldest-first 的窗口，哪怕只取了尾部
func (r *chatRepositoryImpl) GetRecentMessagesBySession(sessionID string, limit int) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

// GetNearestMessagesBySession 按向量距离升序获取 K 条消息
// 只有带 embedding 的消息可被检索
func (r *chatRepositoryImpl) GetNearestMessagesBySession(sessionID string, embedding []float32, limit int) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.Where("session_id = ? AND embedding IS NOT NULL", sessionID).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{
				SQL:                "embedding <-> ?",
				Vars:               []interface{}{pgvector.NewVector(embedding)},
				WithoutParentheses: true,
			},
		}).
		Limit(limit).
		Find(&messages).Error
	return messages, err
}
