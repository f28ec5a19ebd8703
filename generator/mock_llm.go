package generator

import (
	"context"
	"fmt"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	var sb strings.Builder
	sb.WriteString("# Mock response\n\n")
	sb.WriteString(fmt.Sprintf("max_tokens=%d temperature=%.1f\n\n", prompt.MaxTokens, prompt.Temperature))
	sb.WriteString("```\n")
	sb.WriteString(strings.TrimSpace(prompt.User))
	sb.WriteString("\n```\n")
	return sb.String(), nil
}
