package provider

import (
	"context"
	"fmt"
	"strings"
)

// OfflineProvider 无网络的占位实现，用于未配置 API key 时的本地演示
// OfflineProvider is an offline placeholder used when no API key is configured
type OfflineProvider struct {
	model string
}

// NewOfflineProvider 创建离线 provider
// NewOfflineProvider creates the offline provider
func NewOfflineProvider(model string) *OfflineProvider {
	if model == "" {
		model = "offline"
	}
	return &OfflineProvider{model: model}
}

func (p *OfflineProvider) Name() string {
	return "offline"
}

func (p *OfflineProvider) CurrentModel() string {
	return p.model
}

func (p *OfflineProvider) SetModel(model string) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return fmt.Errorf("model is empty")
	}
	p.model = model
	return nil
}

// Answer 返回确定性的本地回答
// Answer returns a deterministic local answer
func (p *OfflineProvider) Answer(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question is empty")
	}
	return fmt.Sprintf("## %s\n\nNo API key is configured, so this is a placeholder answer.\n\n"+
		"Set `TANGENT_API_KEY` (or `api.api_key` in the config file) to get real answers.", question), nil
}
