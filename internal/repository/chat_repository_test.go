// Package repository 提供数据访问层单元测试
// 使用内存 sqlite 跑真实迁移出来的 schema，外键约束开启
package repository

import (
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ashwinyue/next-chat/internal/model"
	"github.com/ashwinyue/next-chat/internal/service/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(model.AllModels...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func seedMessage(t *testing.T, db *gorm.DB, id, sessionID, role, content string, at time.Time) {
	t.Helper()
	msg := &model.ChatMessage{ID: id, SessionID: sessionID, Role: role, Content: content, CreatedAt: at}
	if err := db.Create(msg).Error; err != nil {
		t.Fatalf("failed to seed message: %v", err)
	}
}

// ========== UpsertSession 测试 ==========

func TestUpsertSession_OwnerAdoption(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)

	// 匿名创建
	if err := repo.UpsertSession("s1", ""); err != nil {
		t.Fatalf("UpsertSession() error = %v", err)
	}
	sess, err := repo.GetSessionByID("s1")
	if err != nil {
		t.Fatal(err)
	}
	if sess.UserID != "" {
		t.Errorf("UserID = %q, want empty", sess.UserID)
	}

	// 首个带身份的请求认领会话
	if err := repo.UpsertSession("s1", "alice"); err != nil {
		t.Fatalf("UpsertSession() error = %v", err)
	}
	sess, _ = repo.GetSessionByID("s1")
	if sess.UserID != "alice" {
		t.Errorf("UserID = %q, want %q", sess.UserID, "alice")
	}

	// 归属一旦写入不再转移
	if err := repo.UpsertSession("s1", "bob"); err != nil {
		t.Fatalf("UpsertSession() error = %v", err)
	}
	sess, _ = repo.GetSessionByID("s1")
	if sess.UserID != "alice" {
		t.Errorf("UserID = %q, ownership must not transfer", sess.UserID)
	}
}

// ========== DeleteSessionOwned 测试 ==========

func TestDeleteSessionOwned_NonEmptySession(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)

	if err := repo.UpsertSession("s1", "alice"); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	seedMessage(t, db, "m1", "s1", model.RoleUser, "hello", now)
	seedMessage(t, db, "m2", "s1", model.RoleAssistant, "hi", now.Add(time.Second))

	// 外键约束下，带消息的会话也必须能被属主删掉
	if err := repo.DeleteSessionOwned("s1", "alice"); err != nil {
		t.Fatalf("DeleteSessionOwned() error = %v", err)
	}

	if _, err := repo.GetSessionByID("s1"); !errors.Is(err, types.ErrNotFound) {
		t.Error("session should be gone after delete")
	}
	var count int64
	db.Model(&model.ChatMessage{}).Where("session_id = ?", "s1").Count(&count)
	if count != 0 {
		t.Errorf("remaining messages = %d, want 0", count)
	}
}

func TestDeleteSessionOwned_NotOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)

	if err := repo.UpsertSession("s1", "alice"); err != nil {
		t.Fatal(err)
	}
	seedMessage(t, db, "m1", "s1", model.RoleUser, "hello", time.Now())

	if err := repo.DeleteSessionOwned("s1", "bob"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("cross-user delete error = %v, want ErrNotFound", err)
	}

	// 会话和消息都不能少
	if _, err := repo.GetSessionByID("s1"); err != nil {
		t.Error("session should survive a cross-user delete attempt")
	}
	var count int64
	db.Model(&model.ChatMessage{}).Where("session_id = ?", "s1").Count(&count)
	if count != 1 {
		t.Errorf("remaining messages = %d, want 1", count)
	}
}

func TestDeleteSessionOwned_MissingSession(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)

	if err := repo.DeleteSessionOwned("missing", "alice"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("delete of missing session error = %v, want ErrNotFound", err)
	}
}

// ========== 消息读取测试 ==========

func TestGetMessagesBySessionID_Ascending(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)

	if err := repo.UpsertSession("s1", ""); err != nil {
		t.Fatal(err)
	}
	base := time.Now().Add(-time.Minute)
	seedMessage(t, db, "m3", "s1", model.RoleUser, "third", base.Add(2*time.Second))
	seedMessage(t, db, "m1", "s1", model.RoleUser, "first", base)
	seedMessage(t, db, "m2", "s1", model.RoleAssistant, "second", base.Add(time.Second))

	messages, err := repo.GetMessagesBySessionID("s1")
	if err != nil {
		t.Fatalf("GetMessagesBySessionID() error = %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(messages) != len(want) {
		t.Fatalf("messages = %d, want %d", len(messages), len(want))
	}
	for i, content := range want {
		if messages[i].Content != content {
			t.Errorf("messages[%d].Content = %q, want %q", i, messages[i].Content, content)
		}
	}
}

func TestGetRecentMessagesBySession_TailAscending(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)

	if err := repo.UpsertSession("s1", ""); err != nil {
		t.Fatal(err)
	}
	base := time.Now().Add(-time.Minute)
	seedMessage(t, db, "m1", "s1", model.RoleUser, "old", base)
	seedMessage(t, db, "m2", "s1", model.RoleAssistant, "newer", base.Add(time.Second))
	seedMessage(t, db, "m3", "s1", model.RoleUser, "newest", base.Add(2*time.Second))

	messages, err := repo.GetRecentMessagesBySession("s1", 2)
	if err != nil {
		t.Fatalf("GetRecentMessagesBySession() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(messages))
	}
	if messages[0].Content != "newer" || messages[1].Content != "newest" {
		t.Errorf("tail = [%q, %q], want oldest-first [newer, newest]",
			messages[0].Content, messages[1].Content)
	}
}
