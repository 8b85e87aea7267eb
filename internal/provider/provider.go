package provider

import "context"

// Provider 回答后端接口，面向未来多 provider 扩展
// Provider is the answer backend interface, designed for future multi-provider extensibility
type Provider interface {
	// Answer 针对一个问题生成回答（Markdown 文本）
	// Answer generates an answer for a question (Markdown text)
	Answer(ctx context.Context, question string) (string, error)

	// Name 返回 provider 名称
	// Name returns the provider name
	Name() string

	// CurrentModel 返回当前活跃模型
	// CurrentModel returns the current active model
	CurrentModel() string

	// SetModel 切换活跃模型
	// SetModel switches the active model
	SetModel(model string) error
}

// Config provider 配置
// Config is the provider configuration
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	TimeoutMS  int
	MaxRetries int
}

// New 根据配置选择 provider：无 API key 时使用离线实现
// New selects a provider from config: falls back to the offline one without an API key
func New(cfg Config) Provider {
	if cfg.APIKey == "" {
		return NewOfflineProvider(cfg.Model)
	}
	return NewOpenAIProvider(cfg)
}
