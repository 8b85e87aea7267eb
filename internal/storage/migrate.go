package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MigrateFromJSON 将旧版 JSON 会话文件迁移进 store。每个文件是一个
// `<id>.session.json` 的 SessionRecord；已存在的 id 与无法解析的文件
// 被跳过。返回迁移成功的条数。
// MigrateFromJSON imports legacy JSON session files into the store. Each
// file holds one SessionRecord named `<id>.session.json`; ids already
// present and unparseable files are skipped. Returns how many sessions
// were migrated.
func MigrateFromJSON(jsonDir string, store Store) (int, error) {
	jsonDir = strings.TrimSpace(jsonDir)
	if jsonDir == "" {
		return 0, nil
	}

	sessionsDir := filepath.Join(jsonDir, "sessions")
	entries, err := os.ReadDir(sessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read sessions dir: %w", err)
	}

	records, err := store.LoadAll()
	if err != nil {
		return 0, fmt.Errorf("load existing sessions: %w", err)
	}
	existing := make(map[string]bool, len(records))
	for _, rec := range records {
		existing[rec.ID] = true
	}

	migrated := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".session.json") {
			continue
		}
		path := filepath.Join(sessionsDir, e.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip migrate %s: %v\n", path, err)
			continue
		}
		var rec SessionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			fmt.Fprintf(os.Stderr, "skip migrate %s: %v\n", path, err)
			continue
		}
		if err := rec.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "skip migrate %s: %v\n", path, err)
			continue
		}
		if existing[rec.ID] {
			continue
		}
		rec.SchemaVersion = SchemaVersion
		records = append(records, rec)
		existing[rec.ID] = true
		migrated++
	}

	if migrated == 0 {
		return 0, nil
	}
	if err := store.SaveAll(records); err != nil {
		return 0, fmt.Errorf("save migrated sessions: %w", err)
	}
	return migrated, nil
}
