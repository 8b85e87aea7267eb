package i18n

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// I18n 按 locale 解析消息，英文目录兜底。
// I18n resolves messages for a locale, falling back to the English catalog.
type I18n struct {
	locale   string
	messages map[string]string
	mu       sync.RWMutex
}

var (
	global     *I18n
	globalOnce sync.Once
)

// Global 返回全局 i18n 实例
// Global returns the global i18n instance
func Global() *I18n {
	globalOnce.Do(func() {
		global = New("")
	})
	return global
}

// Init 初始化全局 i18n 实例
// Init initializes the global i18n instance
func Init(locale string) {
	global = New(locale)
}

// T 全局翻译快捷函数
// T is a global translation shortcut
func T(key string, args ...any) string {
	return Global().T(key, args...)
}

// New 创建 i18n 实例。locale 为空时从环境检测。
// New creates an i18n instance; an empty locale is detected from the
// environment.
func New(locale string) *I18n {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = DetectLocale()
	}
	locale = normalizeLocale(locale)

	return &I18n{
		locale:   locale,
		messages: buildCatalog(locale),
	}
}

// buildCatalog 组装目录：英文打底，中文按需覆盖。
// buildCatalog assembles the catalog: English base, Chinese overlay on demand.
func buildCatalog(locale string) map[string]string {
	messages := make(map[string]string, len(EnMessages))
	for k, v := range EnMessages {
		messages[k] = v
	}
	if locale == "zh-CN" || locale == "zh" {
		for k, v := range ZhCNMessages {
			messages[k] = v
		}
	}
	return messages
}

// T 翻译函数；未知 key 原样返回 / Translates a key; unknown keys pass through
func (i *I18n) T(key string, args ...any) string {
	i.mu.RLock()
	tmpl, ok := i.messages[key]
	i.mu.RUnlock()

	if !ok {
		return key
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Locale 返回当前 locale
// Locale returns current locale
func (i *I18n) Locale() string {
	return i.locale
}

// DetectLocale 从环境变量自动检测 locale
// DetectLocale auto-detects the locale from environment variables
func DetectLocale() string {
	for _, env := range []string{"TANGENT_LANG", "LANG", "LC_ALL", "LC_MESSAGES"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return normalizeLocale(v)
		}
	}
	return "en"
}

func normalizeLocale(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "en"
	}
	// 去掉 .UTF-8 等编码后缀 / Strip .UTF-8 style encoding suffixes
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		s = s[:idx]
	}
	s = strings.ReplaceAll(s, "_", "-")

	switch lower := strings.ToLower(s); {
	case strings.HasPrefix(lower, "zh"):
		return "zh-CN"
	case strings.HasPrefix(lower, "en"):
		return "en"
	default:
		return s
	}
}
