package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore 基于 SQLite (WAL 模式) 的持久化实现
// SQLiteStore implements Store using SQLite with WAL mode
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore 创建并初始化 SQLite 数据库
// NewSQLiteStore creates and initializes a SQLite database
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// 启用 WAL 模式和优化 PRAGMA / Enable WAL and performance PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_meta (
		version INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id             TEXT PRIMARY KEY,
		position       INTEGER NOT NULL,
		title          TEXT NOT NULL DEFAULT '',
		auto_title     TEXT NOT NULL DEFAULT '',
		preview        TEXT NOT NULL DEFAULT '',
		tags           TEXT NOT NULL DEFAULT '[]',
		pinned         INTEGER NOT NULL DEFAULT 0,
		archived       INTEGER NOT NULL DEFAULT 0,
		current_index  INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL,
		last_active_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pages (
		session_id    TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		seq           INTEGER NOT NULL,
		id            TEXT NOT NULL,
		kind          TEXT NOT NULL DEFAULT 'result',
		question      TEXT NOT NULL DEFAULT '',
		origin_x      REAL NOT NULL DEFAULT 0,
		origin_y      REAL NOT NULL DEFAULT 0,
		target_x      REAL NOT NULL DEFAULT 0,
		target_y      REAL NOT NULL DEFAULT 0,
		connection_id TEXT NOT NULL DEFAULT '',
		UNIQUE(session_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_session ON pages(session_id, seq);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// 版本标记：首次创建时写入，之后只校验 / Version stamp: written once, then checked
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_meta LIMIT 1").Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		if _, err := s.db.Exec("INSERT INTO schema_meta (version) VALUES (?)", SchemaVersion); err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version > SchemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported %d", version, SchemaVersion)
	}
	return nil
}

// Close 关闭数据库连接 / Close the database connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadAll 按插入顺序读出全部会话。畸形行被丢弃并告警，不中断加载。
// LoadAll reads all sessions in insertion order. Malformed rows are dropped
// with a warning instead of aborting the load.
func (s *SQLiteStore) LoadAll() ([]SessionRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, title, auto_title, preview, tags, pinned, archived, current_index, created_at, last_active_at
		FROM sessions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var tagsJSON string
		var pinned, archived int
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.AutoTitle, &rec.Preview, &tagsJSON,
			&pinned, &archived, &rec.CurrentIndex, &rec.CreatedAt, &rec.LastActiveAt); err != nil {
			fmt.Fprintf(os.Stderr, "skip session row: %v\n", err)
			continue
		}
		rec.SchemaVersion = SchemaVersion
		rec.Pinned = pinned != 0
		rec.Archived = archived != 0
		if tagsJSON != "" && tagsJSON != "[]" {
			if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
				fmt.Fprintf(os.Stderr, "skip session %s: parse tags: %v\n", rec.ID, err)
				continue
			}
		}
		pages, err := s.loadPages(rec.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip session %s: %v\n", rec.ID, err)
			continue
		}
		rec.Pages = pages
		if err := rec.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "skip session %s: %v\n", rec.ID, err)
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) loadPages(sessionID string) ([]PageRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, kind, question, origin_x, origin_y, target_x, target_y, connection_id
		FROM pages WHERE session_id=? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var pages []PageRecord
	for rows.Next() {
		var pg PageRecord
		if err := rows.Scan(&pg.ID, &pg.Kind, &pg.Question,
			&pg.OriginX, &pg.OriginY, &pg.TargetX, &pg.TargetY, &pg.ConnectionID); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, pg)
	}
	return pages, rows.Err()
}

// SaveAll 在单个事务内整表替换持久化列表。
// SaveAll replaces the persisted list inside a single transaction.
func (s *SQLiteStore) SaveAll(records []SessionRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// 清除旧列表，pages 经外键级联删除 / Clear the old list; pages cascade
	if _, err := tx.Exec("DELETE FROM sessions"); err != nil {
		return fmt.Errorf("delete old sessions: %w", err)
	}

	sessionStmt, err := tx.Prepare(`
		INSERT INTO sessions (id, position, title, auto_title, preview, tags, pinned, archived, current_index, created_at, last_active_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare session insert: %w", err)
	}
	defer sessionStmt.Close()

	pageStmt, err := tx.Prepare(`
		INSERT INTO pages (session_id, seq, id, kind, question, origin_x, origin_y, target_x, target_y, connection_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare page insert: %w", err)
	}
	defer pageStmt.Close()

	for pos, rec := range records {
		tagsJSON := "[]"
		if len(rec.Tags) > 0 {
			data, marshalErr := json.Marshal(rec.Tags)
			if marshalErr == nil {
				tagsJSON = string(data)
			}
		}
		if _, err := sessionStmt.Exec(rec.ID, pos, rec.Title, rec.AutoTitle, rec.Preview, tagsJSON,
			boolToInt(rec.Pinned), boolToInt(rec.Archived), rec.CurrentIndex,
			rec.CreatedAt, rec.LastActiveAt); err != nil {
			return fmt.Errorf("insert session %s: %w", rec.ID, err)
		}
		for seq, pg := range rec.Pages {
			if _, err := pageStmt.Exec(rec.ID, seq, pg.ID, pg.Kind, pg.Question,
				pg.OriginX, pg.OriginY, pg.TargetX, pg.TargetY, pg.ConnectionID); err != nil {
				return fmt.Errorf("insert page %d of %s: %w", seq, rec.ID, err)
			}
		}
	}

	return tx.Commit()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
