// Package callback 提供模型调用的日志回调
// 注册为全局回调后，每次生成与 embedding 调用都会留下痕迹
package callback

import (
	"context"
	"log"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/schema"
)

// Logger 日志回调处理器
// 错误总是记录；开始与结束事件只在调试模式下记录
type Logger struct {
	Debug bool
}

// NewLogger 创建日志回调处理器
func NewLogger(debug bool) *Logger {
	return &Logger{Debug: debug}
}

// OnStart 组件调用开始
func (l *Logger) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	if l.Debug {
		log.Printf("[AI] start: component=%s name=%s", info.Component, info.Name)
	}
	return ctx
}

// OnEnd 组件调用正常结束
func (l *Logger) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	if l.Debug {
		log.Printf("[AI] end: component=%s name=%s", info.Component, info.Name)
	}
	return ctx
}

// OnError 组件调用失败
// 中途失败的流在这里也会留下记录
func (l *Logger) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	log.Printf("[AI] error: component=%s name=%s error=%v", info.Component, info.Name, err)
	return ctx
}

// OnStartWithStreamInput 流式输入开始
func (l *Logger) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo, input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	input.Close()
	if l.Debug {
		log.Printf("[AI] stream start: component=%s name=%s", info.Component, info.Name)
	}
	return ctx
}

// OnEndWithStreamOutput 流式输出开始交付
func (l *Logger) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo, output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	output.Close()
	if l.Debug {
		log.Printf("[AI] stream end: component=%s name=%s", info.Component, info.Name)
	}
	return ctx
}

// Register 注册为全局回调
func Register(debug bool) {
	callbacks.AppendGlobalHandlers(NewLogger(debug))
}
