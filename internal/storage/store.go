package storage

import (
	"fmt"
	"strings"
	"time"
)

// SchemaVersion 当前序列化会话形态的版本号，供未来的存储协作方
// 检测并迁移旧形态。
// SchemaVersion identifies the current serialized session shape so future
// storage collaborators can detect and migrate older persisted data.
const SchemaVersion = 1

// Store 持久化接口。SaveAll 以整表替换的方式写入全量列表：
// 内存副本是唯一事实来源，避免 evict 与 append 交错造成丢更新。
// Store is the persistence interface. SaveAll replaces the whole persisted
// list in one write: the in-memory copy is the source of truth, which keeps
// interleaved evict and append sequences from losing updates.
type Store interface {
	LoadAll() ([]SessionRecord, error)
	SaveAll(records []SessionRecord) error
	Close() error
}

// PageRecord 是页面的扁平序列化形态（仅原始类型，无环引用）。
// PageRecord is the flat serialized shape of a page (primitives only, no
// cyclic references).
type PageRecord struct {
	ID           string  `json:"id"`
	Kind         string  `json:"kind"`
	Question     string  `json:"question,omitempty"`
	OriginX      float64 `json:"origin_x"`
	OriginY      float64 `json:"origin_y"`
	TargetX      float64 `json:"target_x"`
	TargetY      float64 `json:"target_y"`
	ConnectionID string  `json:"connection_id,omitempty"`
}

// SessionRecord 是会话的扁平序列化形态。
// SessionRecord is the flat serialized shape of a session.
type SessionRecord struct {
	SchemaVersion int          `json:"schema_version"`
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	AutoTitle     string       `json:"auto_title"`
	Preview       string       `json:"preview"`
	Tags          []string     `json:"tags"`
	Pinned        bool         `json:"pinned"`
	Archived      bool         `json:"archived"`
	CurrentIndex  int          `json:"current_index"`
	CreatedAt     string       `json:"created_at"`
	LastActiveAt  string       `json:"last_active_at"`
	Pages         []PageRecord `json:"pages"`
}

// Validate 拒绝畸形条目；加载路径丢弃它们而不是中断，保留其余有效会话。
// Validate rejects malformed entries; load paths drop them instead of
// failing, leaving the valid sessions intact.
func (r SessionRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("session id is empty")
	}
	if r.SchemaVersion > SchemaVersion {
		return fmt.Errorf("schema version %d is newer than %d", r.SchemaVersion, SchemaVersion)
	}
	if _, err := time.Parse(time.RFC3339, r.CreatedAt); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	if _, err := time.Parse(time.RFC3339, r.LastActiveAt); err != nil {
		return fmt.Errorf("last_active_at: %w", err)
	}
	if r.CurrentIndex < 0 || r.CurrentIndex > len(r.Pages) {
		return fmt.Errorf("current index %d out of range [0,%d]", r.CurrentIndex, len(r.Pages))
	}
	for i, pg := range r.Pages {
		if strings.TrimSpace(pg.ID) == "" {
			return fmt.Errorf("page %d id is empty", i)
		}
		if pg.Kind != "result" {
			return fmt.Errorf("page %d kind %q is not a result page", i, pg.Kind)
		}
	}
	return nil
}
