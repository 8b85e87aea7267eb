package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tangent/internal/pager"
	"tangent/internal/session"
)

type PagerConfig struct {
	// PageWidth 世界坐标中单页宽度 / Page width in world space
	PageWidth float64 `json:"page_width"`
	// VelocityThreshold 甩动翻页的速度阈值 / Fling velocity that forces a page turn
	VelocityThreshold float64 `json:"velocity_threshold"`
	// TransitionMS 视口转场动画时长 / Viewport transition duration
	TransitionMS int `json:"transition_ms"`
	// AnchorInsetX/Y 临时目标锚点相对页面原点的偏移
	// AnchorInsetX/Y offset the provisional target anchor from the page origin
	AnchorInsetX float64 `json:"anchor_inset_x"`
	AnchorInsetY float64 `json:"anchor_inset_y"`
}

type RetentionConfig struct {
	// MaxSessions 持久化会话上限 / Cap on persisted sessions
	MaxSessions int `json:"max_sessions"`
	// MaxAgeDays 启动时按年龄淘汰的截止天数 / Age cutoff for startup eviction
	MaxAgeDays int `json:"max_age_days"`
	// RecentWindowDays 最近视图与活跃统计的时间窗 / Window for recent views and active stats
	RecentWindowDays int `json:"recent_window_days"`
}

type StorageConfig struct {
	BaseDir string `json:"base_dir"`
}

type ProviderConfig struct {
	BaseURL   string `json:"base_url"`
	Model     string `json:"model"`
	APIKey    string `json:"api_key"`
	TimeoutMS int    `json:"timeout_ms"`
}

type UIConfig struct {
	Locale        string `json:"locale"`
	PreviewLength int    `json:"preview_length"`
}

type Config struct {
	Pager     PagerConfig     `json:"pager"`
	Retention RetentionConfig `json:"retention"`
	Storage   StorageConfig   `json:"storage"`
	Provider  ProviderConfig  `json:"provider"`
	UI        UIConfig        `json:"ui"`
}

type filePagerConfig struct {
	PageWidth         *float64 `json:"page_width"`
	VelocityThreshold *float64 `json:"velocity_threshold"`
	TransitionMS      *int     `json:"transition_ms"`
	AnchorInsetX      *float64 `json:"anchor_inset_x"`
	AnchorInsetY      *float64 `json:"anchor_inset_y"`
}

type fileRetentionConfig struct {
	MaxSessions      *int `json:"max_sessions"`
	MaxAgeDays       *int `json:"max_age_days"`
	RecentWindowDays *int `json:"recent_window_days"`
}

type fileUIConfig struct {
	Locale        *string `json:"locale"`
	PreviewLength *int    `json:"preview_length"`
}

type fileConfig struct {
	Pager     *filePagerConfig     `json:"pager"`
	Retention *fileRetentionConfig `json:"retention"`
	Storage   *StorageConfig       `json:"storage"`
	Provider  *ProviderConfig      `json:"provider"`
	UI        *fileUIConfig        `json:"ui"`
}

func Default() Config {
	return Config{
		Pager: PagerConfig{
			PageWidth:         DefaultPageWidth,
			VelocityThreshold: DefaultVelocityThreshold,
			TransitionMS:      DefaultTransitionMS,
			AnchorInsetX:      DefaultAnchorInsetX,
			AnchorInsetY:      DefaultAnchorInsetY,
		},
		Retention: RetentionConfig{
			MaxSessions:      DefaultMaxSessions,
			MaxAgeDays:       DefaultMaxAgeDays,
			RecentWindowDays: DefaultRecentWindowDays,
		},
		Storage: StorageConfig{
			BaseDir: "~/.tangent",
		},
		Provider: ProviderConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "gpt-4o-mini",
			TimeoutMS: 60000,
		},
		UI: UIConfig{
			PreviewLength: DefaultPreviewLength,
		},
	}
}

// Load 读取配置：默认值 ← 全局文件 ← 指定文件 ← 环境变量，逐层覆盖。
// Load resolves config in layers: defaults ← global file ← explicit file ←
// environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	for _, globalPath := range globalConfigPaths() {
		if err := mergeFromFile(&cfg, globalPath); err != nil {
			return Config{}, err
		}
	}

	resolvedPath := strings.TrimSpace(path)
	if envPath := strings.TrimSpace(os.Getenv("TANGENT_CONFIG_PATH")); envPath != "" {
		resolvedPath = envPath
	}
	if err := mergeFromFile(&cfg, resolvedPath); err != nil {
		return Config{}, err
	}

	applyEnv(&cfg)
	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// PagerConfig converts the section into the pager's parameter struct.
func (c Config) PagerConfig() pager.Config {
	return pager.Config{
		PageWidth:         c.Pager.PageWidth,
		VelocityThreshold: c.Pager.VelocityThreshold,
		InsetX:            c.Pager.AnchorInsetX,
		InsetY:            c.Pager.AnchorInsetY,
	}
}

// SessionConfig converts the relevant sections into the session store's
// parameter struct.
func (c Config) SessionConfig() session.Config {
	return session.Config{
		Pager:         c.PagerConfig(),
		MaxSessions:   c.Retention.MaxSessions,
		RecentWindow:  time.Duration(c.Retention.RecentWindowDays) * 24 * time.Hour,
		PreviewLength: c.UI.PreviewLength,
	}
}

// TransitionDuration returns the viewport transition duration.
func (c Config) TransitionDuration() time.Duration {
	return time.Duration(c.Pager.TransitionMS) * time.Millisecond
}

// DatabasePath returns the resolved SQLite database path.
func (c Config) DatabasePath() (string, error) {
	base, err := expandPath(c.Storage.BaseDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "sessions.db"), nil
}

// LegacyJSONDir returns the directory scanned for legacy JSON sessions.
func (c Config) LegacyJSONDir() (string, error) {
	return expandPath(c.Storage.BaseDir)
}

func globalConfigPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".tangent", "config.json")}
}

func mergeFromFile(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path %q: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", resolved, err)
	}

	var fileCfg fileConfig
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse config %q: %w", resolved, err)
	}
	applyFileConfig(cfg, fileCfg)
	return nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.Pager != nil {
		if fc.Pager.PageWidth != nil {
			cfg.Pager.PageWidth = *fc.Pager.PageWidth
		}
		if fc.Pager.VelocityThreshold != nil {
			cfg.Pager.VelocityThreshold = *fc.Pager.VelocityThreshold
		}
		if fc.Pager.TransitionMS != nil {
			cfg.Pager.TransitionMS = *fc.Pager.TransitionMS
		}
		if fc.Pager.AnchorInsetX != nil {
			cfg.Pager.AnchorInsetX = *fc.Pager.AnchorInsetX
		}
		if fc.Pager.AnchorInsetY != nil {
			cfg.Pager.AnchorInsetY = *fc.Pager.AnchorInsetY
		}
	}
	if fc.Retention != nil {
		if fc.Retention.MaxSessions != nil {
			cfg.Retention.MaxSessions = *fc.Retention.MaxSessions
		}
		if fc.Retention.MaxAgeDays != nil {
			cfg.Retention.MaxAgeDays = *fc.Retention.MaxAgeDays
		}
		if fc.Retention.RecentWindowDays != nil {
			cfg.Retention.RecentWindowDays = *fc.Retention.RecentWindowDays
		}
	}
	if fc.Storage != nil {
		if strings.TrimSpace(fc.Storage.BaseDir) != "" {
			cfg.Storage.BaseDir = fc.Storage.BaseDir
		}
	}
	if fc.Provider != nil {
		if strings.TrimSpace(fc.Provider.BaseURL) != "" {
			cfg.Provider.BaseURL = fc.Provider.BaseURL
		}
		if strings.TrimSpace(fc.Provider.Model) != "" {
			cfg.Provider.Model = fc.Provider.Model
		}
		if strings.TrimSpace(fc.Provider.APIKey) != "" {
			cfg.Provider.APIKey = fc.Provider.APIKey
		}
		if fc.Provider.TimeoutMS > 0 {
			cfg.Provider.TimeoutMS = fc.Provider.TimeoutMS
		}
	}
	if fc.UI != nil {
		if fc.UI.Locale != nil {
			cfg.UI.Locale = *fc.UI.Locale
		}
		if fc.UI.PreviewLength != nil {
			cfg.UI.PreviewLength = *fc.UI.PreviewLength
		}
	}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("TANGENT_API_KEY")); v != "" {
		cfg.Provider.APIKey = v
	} else if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("TANGENT_DATA_DIR")); v != "" {
		cfg.Storage.BaseDir = v
	}
	if v := strings.TrimSpace(os.Getenv("TANGENT_LOCALE")); v != "" {
		cfg.UI.Locale = v
	}
}

func normalize(cfg *Config) error {
	if cfg.Pager.PageWidth <= 0 {
		return fmt.Errorf("pager.page_width must be positive, got %v", cfg.Pager.PageWidth)
	}
	if cfg.Pager.VelocityThreshold <= 0 {
		cfg.Pager.VelocityThreshold = DefaultVelocityThreshold
	}
	if cfg.Pager.TransitionMS <= 0 {
		cfg.Pager.TransitionMS = DefaultTransitionMS
	}
	if cfg.Retention.MaxSessions <= 0 {
		cfg.Retention.MaxSessions = DefaultMaxSessions
	}
	if cfg.Retention.MaxAgeDays <= 0 {
		cfg.Retention.MaxAgeDays = DefaultMaxAgeDays
	}
	if cfg.Retention.RecentWindowDays <= 0 {
		cfg.Retention.RecentWindowDays = DefaultRecentWindowDays
	}
	if cfg.UI.PreviewLength <= 0 {
		cfg.UI.PreviewLength = DefaultPreviewLength
	}
	if strings.TrimSpace(cfg.Storage.BaseDir) == "" {
		return errors.New("storage.base_dir is empty")
	}
	return nil
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return filepath.Abs(path)
}
