package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRecord(id string) SessionRecord {
	now := time.Now().UTC().Format(time.RFC3339)
	return SessionRecord{
		SchemaVersion: SchemaVersion,
		ID:            id,
		Title:         "What Is X",
		AutoTitle:     "What Is X",
		Preview:       "What is X?",
		Tags:          []string{"what"},
		CurrentIndex:  1,
		CreatedAt:     now,
		LastActiveAt:  now,
		Pages: []PageRecord{
			{
				ID:           "page_1",
				Kind:         "result",
				Question:     "What is X?",
				OriginX:      100,
				OriginY:      200,
				TargetX:      399,
				TargetY:      96,
				ConnectionID: "conn_1",
			},
		},
	}
}

func TestSQLiteStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	records := []SessionRecord{testRecord("sess_a"), testRecord("sess_b")}
	records[1].Pinned = true
	records[1].Archived = true
	if err := store.SaveAll(records); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	loaded, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("LoadAll count=%d, want 2", len(loaded))
	}
	// Insertion order survives the round trip.
	if loaded[0].ID != "sess_a" || loaded[1].ID != "sess_b" {
		t.Fatalf("order unexpected: %s, %s", loaded[0].ID, loaded[1].ID)
	}
	if !loaded[1].Pinned || !loaded[1].Archived {
		t.Fatalf("flags lost: %+v", loaded[1])
	}
	got := loaded[0]
	if got.Title != "What Is X" || got.Preview != "What is X?" || got.CurrentIndex != 1 {
		t.Fatalf("session fields unexpected: %+v", got)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "what" {
		t.Fatalf("tags unexpected: %v", got.Tags)
	}
	if len(got.Pages) != 1 {
		t.Fatalf("pages count=%d, want 1", len(got.Pages))
	}
	pg := got.Pages[0]
	if pg.Question != "What is X?" || pg.OriginX != 100 || pg.TargetX != 399 || pg.ConnectionID != "conn_1" {
		t.Fatalf("page fields unexpected: %+v", pg)
	}
}

func TestSQLiteStore_SaveAllReplacesList(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveAll([]SessionRecord{testRecord("sess_a"), testRecord("sess_b")}); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	// 整表替换 / Whole-list replacement
	if err := store.SaveAll([]SessionRecord{testRecord("sess_b")}); err != nil {
		t.Fatalf("SaveAll replace: %v", err)
	}

	loaded, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "sess_b" {
		t.Fatalf("replacement failed: %+v", loaded)
	}
}

func TestSQLiteStore_DropsMalformedRows(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveAll([]SessionRecord{testRecord("sess_good")}); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	// 直接注入畸形行 / Inject malformed rows directly
	if _, err := store.db.Exec(`
		INSERT INTO sessions (id, position, tags, created_at, last_active_at)
		VALUES ('sess_bad_tags', 99, 'not-json', ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339)); err != nil {
		t.Fatal(err)
	}
	if _, err := store.db.Exec(`
		INSERT INTO sessions (id, position, tags, created_at, last_active_at)
		VALUES ('sess_bad_time', 100, '[]', 'yesterday', 'today')`); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "sess_good" {
		t.Fatalf("malformed rows should be dropped, got %+v", loaded)
	}
}

func TestSQLiteStore_EmptyDatabase(t *testing.T) {
	store := newTestStore(t)
	loaded, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("fresh database should be empty, got %d", len(loaded))
	}
}

func TestSQLiteStore_SchemaVersionStamp(t *testing.T) {
	store := newTestStore(t)
	var version int
	if err := store.db.QueryRow("SELECT version FROM schema_meta").Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != SchemaVersion {
		t.Fatalf("version=%d, want %d", version, SchemaVersion)
	}

	// 更新版本的库被拒绝打开 / A newer database refuses to open
	if _, err := store.db.Exec("UPDATE schema_meta SET version=?", SchemaVersion+1); err != nil {
		t.Fatal(err)
	}
	path := store.path
	_ = store.Close()
	if _, err := NewSQLiteStore(path); err == nil {
		t.Fatal("expected error opening newer schema version")
	}
}

func TestValidate(t *testing.T) {
	good := testRecord("sess_ok")
	if err := good.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*SessionRecord)
	}{
		{"empty id", func(r *SessionRecord) { r.ID = " " }},
		{"bad created_at", func(r *SessionRecord) { r.CreatedAt = "not-a-time" }},
		{"bad last_active_at", func(r *SessionRecord) { r.LastActiveAt = "" }},
		{"index out of range", func(r *SessionRecord) { r.CurrentIndex = 5 }},
		{"negative index", func(r *SessionRecord) { r.CurrentIndex = -1 }},
		{"feed page persisted", func(r *SessionRecord) { r.Pages[0].Kind = "feed" }},
		{"page without id", func(r *SessionRecord) { r.Pages[0].ID = "" }},
		{"newer schema", func(r *SessionRecord) { r.SchemaVersion = SchemaVersion + 1 }},
	}
	for _, c := range cases {
		rec := testRecord("sess_ok")
		c.mutate(&rec)
		if err := rec.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", c.name)
		}
	}
}

func TestMigrateFromJSON(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveAll([]SessionRecord{testRecord("sess_present")}); err != nil {
		t.Fatal(err)
	}

	legacyDir := t.TempDir()
	sessionsDir := filepath.Join(legacyDir, "sessions")
	if err := os.MkdirAll(sessionsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeLegacy := func(name string, v any) {
		t.Helper()
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(sessionsDir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	writeLegacy("sess_new.session.json", testRecord("sess_new"))
	writeLegacy("sess_present.session.json", testRecord("sess_present")) // already migrated
	if err := os.WriteFile(filepath.Join(sessionsDir, "broken.session.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	migrated, err := MigrateFromJSON(legacyDir, store)
	if err != nil {
		t.Fatalf("MigrateFromJSON: %v", err)
	}
	if migrated != 1 {
		t.Fatalf("migrated=%d, want 1", migrated)
	}

	loaded, err := store.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("count=%d after migration, want 2", len(loaded))
	}

	// 再跑一次应当无事发生 / A second run is a no-op
	migrated, err = MigrateFromJSON(legacyDir, store)
	if err != nil {
		t.Fatal(err)
	}
	if migrated != 0 {
		t.Fatalf("second run migrated=%d, want 0", migrated)
	}
}

func TestMigrateFromJSON_MissingDir(t *testing.T) {
	store := newTestStore(t)
	migrated, err := MigrateFromJSON(filepath.Join(t.TempDir(), "nope"), store)
	if err != nil || migrated != 0 {
		t.Fatalf("missing dir: migrated=%d err=%v", migrated, err)
	}
}
