// Package blog 提供博客生成单元测试
package blog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/ashwinyue/next-chat/internal/service/types"
)

// ========== Mock ChatModel ==========

type fakeGenerateModel struct {
	content    string
	err        error
	lastPrompt string
}

func (m *fakeGenerateModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(input) > 0 {
		m.lastPrompt = input[0].Content
	}
	return schema.AssistantMessage(m.content, nil), nil
}

func (m *fakeGenerateModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	sr, sw := schema.Pipe[*schema.Message](1)
	sw.Send(schema.AssistantMessage(m.content, nil), nil)
	sw.Close()
	return sr, nil
}

// ========== Generate 测试 ==========

func TestGenerate(t *testing.T) {
	cm := &fakeGenerateModel{content: "<h1>Go</h1><p>body</p>"}
	svc := NewService(cm)

	got, err := svc.Generate(context.Background(), "Go concurrency")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "<h1>Go</h1><p>body</p>" {
		t.Errorf("Generate() = %q, want the model output", got)
	}

	if !strings.Contains(cm.lastPrompt, `"Go concurrency"`) {
		t.Errorf("prompt missing quoted topic:\n%s", cm.lastPrompt)
	}
	if !strings.Contains(cm.lastPrompt, "Output ONLY valid HTML") {
		t.Errorf("prompt missing HTML instruction:\n%s", cm.lastPrompt)
	}
}

func TestGenerate_BlankTopic(t *testing.T) {
	svc := NewService(&fakeGenerateModel{content: "unused"})

	for _, topic := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Generate(context.Background(), topic); !errors.Is(err, types.ErrValidation) {
			t.Errorf("Generate(%q) error = %v, want ErrValidation", topic, err)
		}
	}
}

func TestGenerate_ModelFailure(t *testing.T) {
	svc := NewService(&fakeGenerateModel{err: errors.New("connection refused")})

	if _, err := svc.Generate(context.Background(), "Go"); !errors.Is(err, types.ErrDependency) {
		t.Errorf("Generate() error = %v, want ErrDependency", err)
	}
}
