package connection

import (
	"tangent/internal/geometry"
	"tangent/internal/page"
)

// Line 是一条连接线：从触发动作的原点锚到新页面的目标锚。
// 派生、短暂、不持久化。
// Line is one connector from the origin anchor of the triggering action to
// the target anchor of the spawned page. Derived, ephemeral, never persisted.
type Line struct {
	ID     string
	From   geometry.Point
	To     geometry.Point
	Active bool
	PageID string
}

// Path returns the elbow connector path for the line's current anchors.
func (l Line) Path() geometry.Path {
	return geometry.ConnectorPath(l.From, l.To)
}

// Manager 维护活动连接线，按 connection id 索引、按创建顺序排列。
// 连接线与其页面同生：页面被移除或一次性揭示动画完成时移除，
// 以先到者为准，绝不活得比页面久。非并发安全，所有调用都应
// 发生在 UI 事件循环上。
// Manager tracks the active connector lines, keyed by connection id and
// ordered by creation. A line lives with its page: it is removed when the
// page is removed or when its one-shot reveal animation completes,
// whichever comes first, and never outlives the page. Not safe for
// concurrent use; every call belongs on the UI event loop.
type Manager struct {
	order []string
	lines map[string]*Line
}

// NewManager creates an empty connection line manager.
func NewManager() *Manager {
	return &Manager{lines: make(map[string]*Line)}
}

// Register 在结果页创建时登记它的连接线。feed 页或重复登记被忽略。
// Register records the connector for a freshly created result page.
// Feed pages and duplicate registrations are ignored.
func (m *Manager) Register(pg page.Page) (Line, bool) {
	if pg.Kind != page.KindResult || pg.ConnectionID == "" {
		return Line{}, false
	}
	if _, exists := m.lines[pg.ConnectionID]; exists {
		return Line{}, false
	}
	line := &Line{
		ID:     pg.ConnectionID,
		From:   pg.OriginAnchor,
		To:     pg.TargetAnchor,
		Active: true,
		PageID: pg.ID,
	}
	m.lines[pg.ConnectionID] = line
	m.order = append(m.order, pg.ConnectionID)
	return *line, true
}

// CorrectTarget 原地更新目标锚点，不会创建新线。迟到的修正回调
// 落在已失效的 connection id 上时被忽略。
// CorrectTarget updates the target anchor in place; it never creates a new
// line. Late correction callbacks for expired connection ids are ignored.
func (m *Manager) CorrectTarget(connectionID string, to geometry.Point) bool {
	line, ok := m.lines[connectionID]
	if !ok {
		return false
	}
	line.To = to
	return true
}

// CompleteReveal 在一次性揭示动画完成时移除连接线。
// CompleteReveal removes the line once its one-shot reveal animation ends.
func (m *Manager) CompleteReveal(connectionID string) {
	m.remove(connectionID)
}

// RemoveForPage removes the line correlated to a removed page.
func (m *Manager) RemoveForPage(pageID string) {
	for id, line := range m.lines {
		if line.PageID == pageID {
			m.remove(id)
			return
		}
	}
}

// Active returns the live lines in creation order.
func (m *Manager) Active() []Line {
	out := make([]Line, 0, len(m.order))
	for _, id := range m.order {
		if line, ok := m.lines[id]; ok {
			out = append(out, *line)
		}
	}
	return out
}

// Len returns how many lines are currently live.
func (m *Manager) Len() int {
	return len(m.lines)
}

func (m *Manager) remove(connectionID string) {
	if _, ok := m.lines[connectionID]; !ok {
		return
	}
	delete(m.lines, connectionID)
	for i, id := range m.order {
		if id == connectionID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
