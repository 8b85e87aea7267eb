package session

import (
	"time"

	"tangent/internal/geometry"
	"tangent/internal/page"
	"tangent/internal/pager"
	"tangent/internal/storage"
)

// Session 是一条连续的研究线索：一个有序页面集合加上会话级元数据。
// 会话独占其页面；页面不在会话之外存在。
// Session is one continuous line of inquiry: an ordered set of pages plus
// session-level metadata. A session owns its pages exclusively; pages have
// no existence outside a session.
type Session struct {
	ID           string
	CreatedAt    time.Time
	LastActiveAt time.Time

	// Title 展示标题；AutoTitle 由第一条问题派生一次，之后不再重算。
	// Title is the display title; AutoTitle is derived once from the first
	// question and never recomputed.
	Title     string
	AutoTitle string
	// Preview 第一条问题的截断文本 / Preview is the first question, truncated
	Preview string
	// Tags 去重累积的关键词 / Tags accumulate deduplicated keywords
	Tags []string

	Pinned   bool
	Archived bool

	// Pager 该会话的分页状态机 / Pager is the session's pager state machine
	Pager *pager.Pager
}

// QuestionCount returns how many result pages the session holds.
func (s *Session) QuestionCount() int {
	return s.Pager.PageCount()
}

// touch 推进 LastActiveAt，保证单调不减。
// touch advances LastActiveAt, keeping it monotonically non-decreasing.
func (s *Session) touch(now time.Time) {
	if now.After(s.LastActiveAt) {
		s.LastActiveAt = now
	}
}

// toRecord flattens the session into its serialized shape.
func (s *Session) toRecord() storage.SessionRecord {
	pages := s.Pager.Pages()
	pageRecords := make([]storage.PageRecord, 0, len(pages))
	for _, pg := range pages {
		pageRecords = append(pageRecords, storage.PageRecord{
			ID:           pg.ID,
			Kind:         string(pg.Kind),
			Question:     pg.Question,
			OriginX:      pg.OriginAnchor.X,
			OriginY:      pg.OriginAnchor.Y,
			TargetX:      pg.TargetAnchor.X,
			TargetY:      pg.TargetAnchor.Y,
			ConnectionID: pg.ConnectionID,
		})
	}
	return storage.SessionRecord{
		SchemaVersion: storage.SchemaVersion,
		ID:            s.ID,
		Title:         s.Title,
		AutoTitle:     s.AutoTitle,
		Preview:       s.Preview,
		Tags:          append([]string(nil), s.Tags...),
		Pinned:        s.Pinned,
		Archived:      s.Archived,
		CurrentIndex:  s.Pager.PendingIndex(),
		CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339),
		LastActiveAt:  s.LastActiveAt.UTC().Format(time.RFC3339),
		Pages:         pageRecords,
	}
}

// fromRecord rebuilds a session from its serialized shape. The record is
// assumed validated by the storage layer.
func fromRecord(rec storage.SessionRecord, cfg pager.Config) *Session {
	pages := make([]page.Page, 0, len(rec.Pages))
	for _, pr := range rec.Pages {
		pages = append(pages, page.Page{
			ID:           pr.ID,
			Kind:         page.Kind(pr.Kind),
			Question:     pr.Question,
			OriginAnchor: geometry.Point{X: pr.OriginX, Y: pr.OriginY},
			TargetAnchor: geometry.Point{X: pr.TargetX, Y: pr.TargetY},
			ConnectionID: pr.ConnectionID,
		})
	}
	createdAt, _ := time.Parse(time.RFC3339, rec.CreatedAt)
	lastActiveAt, _ := time.Parse(time.RFC3339, rec.LastActiveAt)
	return &Session{
		ID:           rec.ID,
		CreatedAt:    createdAt,
		LastActiveAt: lastActiveAt,
		Title:        rec.Title,
		AutoTitle:    rec.AutoTitle,
		Preview:      rec.Preview,
		Tags:         append([]string(nil), rec.Tags...),
		Pinned:       rec.Pinned,
		Archived:     rec.Archived,
		Pager:        pager.Restore(cfg, pages, rec.CurrentIndex),
	}
}
