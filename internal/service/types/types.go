// Package types 定义跨层共享的类型和错误
// 放在独立包中避免 handler/service/repository 之间的循环导入
package types

import "errors"

// 错误分类
// handler 层通过 errors.Is 映射到 HTTP 状态码
var (
	// ErrValidation 请求输入缺失或非法（4xx，不重试）
	ErrValidation = errors.New("invalid request")
	// ErrRateLimited 请求过于频繁（429）
	ErrRateLimited = errors.New("too many requests")
	// ErrUnauthorized 缺少或无效的身份（401）
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound 会话不存在或不属于调用者
	// 两种情况返回同一信号，避免泄露他人会话的存在性
	ErrNotFound = errors.New("not found")
	// ErrDependency 外部依赖（存储 / 生成 / 向量化）不可用
	// 对调用者呈现为通用内部错误，不透出依赖细节
	ErrDependency = errors.New("dependency failure")
)

// Identity 已验证的调用者身份
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
