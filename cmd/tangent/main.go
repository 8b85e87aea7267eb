package main

import (
	"flag"
	"fmt"
	"os"

	"tangent/internal/config"
	"tangent/internal/i18n"
	"tangent/internal/provider"
	"tangent/internal/session"
	"tangent/internal/storage"
	"tangent/internal/tui"
)

func main() {
	var (
		configPath string
		dataDir    string
		locale     string
	)
	flag.StringVar(&configPath, "config", "", "Path to config JSON")
	flag.StringVar(&dataDir, "data", "", "Data directory override")
	flag.StringVar(&locale, "lang", "", "UI locale override (en, zh-CN)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if dataDir != "" {
		cfg.Storage.BaseDir = dataDir
	}
	if locale != "" {
		cfg.UI.Locale = locale
	}
	i18n.Init(cfg.UI.Locale)

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve database path failed: %v\n", err)
		os.Exit(1)
	}
	backend, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init storage failed: %v\n", err)
		os.Exit(1)
	}

	// 旧版 JSON 会话迁移是尽力而为的 / Legacy JSON migration is best effort
	if legacyDir, dirErr := cfg.LegacyJSONDir(); dirErr == nil {
		if migrated, migErr := storage.MigrateFromJSON(legacyDir, backend); migErr != nil {
			fmt.Fprintf(os.Stderr, "legacy session migration failed: %v\n", migErr)
		} else if migrated > 0 {
			fmt.Fprintf(os.Stderr, "migrated %d legacy sessions\n", migrated)
		}
	}

	store := session.New(backend, cfg.SessionConfig())
	if err := store.Load(); err != nil {
		// 读取失败不致命：告警后从空列表开始
		// A failed load is not fatal: warn and start from an empty list
		fmt.Fprintf(os.Stderr, "%s\n", i18n.T("error.load", err.Error()))
	}
	if evicted := store.EvictOlderThan(cfg.Retention.MaxAgeDays); evicted > 0 {
		fmt.Fprintf(os.Stderr, "evicted %d stale sessions\n", evicted)
	}

	prov := provider.New(provider.Config{
		BaseURL:   cfg.Provider.BaseURL,
		APIKey:    cfg.Provider.APIKey,
		Model:     cfg.Provider.Model,
		TimeoutMS: cfg.Provider.TimeoutMS,
	})

	runErr := tui.Run(cfg, store, prov)
	if closeErr := store.Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "close store failed: %v\n", closeErr)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "tui failed: %v\n", runErr)
		os.Exit(1)
	}
}
