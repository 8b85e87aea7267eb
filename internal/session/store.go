package session

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"tangent/internal/geometry"
	"tangent/internal/page"
	"tangent/internal/pager"
	"tangent/internal/storage"
)

// ErrSessionNotFound 表示按 id 找不到会话
// ErrSessionNotFound reports an unknown session id
var ErrSessionNotFound = errors.New("session not found")

// Config 会话仓库参数
// Config holds session store parameters
type Config struct {
	// Pager 每个会话的分页器参数 / Pager parameters of every session
	Pager pager.Config
	// MaxSessions 持久化集合的容量上限 / Capacity cap of the persisted set
	MaxSessions int
	// RecentWindow listRecent 与活跃统计的时间窗 / Window for recent views and active stats
	RecentWindow time.Duration
	// PreviewLength 预览文本的最大长度（按 rune 计）/ Preview length cap in runes
	PreviewLength int
}

// Preview 是列表与搜索视图使用的会话摘要。
// Preview is the session summary used by list and search views.
type Preview struct {
	ID            string
	Title         string
	Preview       string
	Tags          []string
	Pinned        bool
	Archived      bool
	LastActiveAt  time.Time
	QuestionCount int
}

// TagCount 标签及其出现次数 / TagCount pairs a tag with its frequency
type TagCount struct {
	Tag   string
	Count int
}

// Stats 跨会话统计 / Stats aggregates across all sessions
type Stats struct {
	TotalSessions  int
	ActiveSessions int
	TotalQuestions int
	FavoriteTags   []TagCount
}

// Store 以内存副本为唯一事实来源管理研究会话。持久化写入通过单个
// saver goroutine 异步进行（最新快照覆盖旧快照），绝不阻塞导航；
// 写入失败仅告警。除持久化外的所有方法都应在 UI 事件循环上调用。
// Store manages research sessions with the in-memory copy as the single
// source of truth. Persistence writes go through one saver goroutine
// asynchronously (latest snapshot wins) and never block navigation;
// failed writes only warn. Apart from persistence, every method belongs
// on the UI event loop.
type Store struct {
	cfg      Config
	backend  storage.Store
	sessions []*Session // insertion order
	byID     map[string]*Session

	now   func() time.Time
	warnf func(format string, args ...any)

	saves chan []storage.SessionRecord
	done  chan struct{}
}

// New 创建会话仓库并启动 saver goroutine
// New creates the session store and starts the saver goroutine
func New(backend storage.Store, cfg Config) *Store {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 50
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = 7 * 24 * time.Hour
	}
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = 80
	}
	s := &Store{
		cfg:     cfg,
		backend: backend,
		byID:    make(map[string]*Session),
		now:     time.Now,
		warnf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		},
		saves: make(chan []storage.SessionRecord, 1),
		done:  make(chan struct{}),
	}
	go s.saveLoop()
	return s
}

// Load 从后端读入持久化会话。读取失败不致命：告警后以空列表继续。
// Load reads the persisted sessions from the backend. A failed read is not
// fatal: it warns and the store continues with an empty list.
func (s *Store) Load() error {
	records, err := s.backend.LoadAll()
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	for _, rec := range records {
		sess := fromRecord(rec, s.cfg.Pager)
		s.sessions = append(s.sessions, sess)
		s.byID[sess.ID] = sess
	}
	return nil
}

// Close 结束 saver goroutine 并关闭后端；退出前最后一次快照会被写入。
// Close stops the saver goroutine and closes the backend; the last pending
// snapshot is flushed before shutdown.
func (s *Store) Close() error {
	close(s.saves)
	<-s.done
	return s.backend.Close()
}

// --- CRUD ---

// Create 新建空会话（currentIndex=0，停在 feed 页）
// Create starts an empty session resting on the feed page
func (s *Store) Create() *Session {
	now := s.now()
	sess := &Session{
		ID:           storage.NewSessionID(),
		CreatedAt:    now,
		LastActiveAt: now,
		Pager:        pager.New(s.cfg.Pager),
	}
	s.sessions = append(s.sessions, sess)
	s.byID[sess.ID] = sess
	s.persist()
	return sess
}

// Get returns the session for an id.
func (s *Store) Get(id string) (*Session, error) {
	sess, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Delete 显式删除会话 / Delete removes a session explicitly
func (s *Store) Delete(id string) error {
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.byID, id)
	for i, sess := range s.sessions {
		if sess.ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			break
		}
	}
	s.persist()
	return nil
}

// --- Mutations ---

// AddQuestion 在会话上追加一个结果页。只在第一条问题时派生并冻结
// AutoTitle 与 Preview；Tags 每次都并入新关键词。转场进行中的重复触发
// 原样返回 pager.ErrTransitionInFlight，由调用方丢弃。
// AddQuestion appends a result page to the session. AutoTitle and Preview
// are derived and frozen on the first question only; Tags union in the new
// keywords every time. A duplicate trigger during a transition surfaces
// pager.ErrTransitionInFlight for the caller to drop.
func (s *Store) AddQuestion(id, question string, origin geometry.Point) (page.Page, error) {
	sess, err := s.Get(id)
	if err != nil {
		return page.Page{}, err
	}

	pg, err := sess.Pager.AppendPage(question, origin)
	if err != nil {
		return page.Page{}, err
	}

	if sess.AutoTitle == "" {
		sess.AutoTitle = deriveAutoTitle(question)
		sess.Preview = derivePreview(question, s.cfg.PreviewLength)
	}
	if sess.Title == "" {
		sess.Title = sess.AutoTitle
	}
	sess.Tags = mergeTags(sess.Tags, extractTags(question))
	sess.touch(s.now())
	s.persist()
	return pg, nil
}

// NavigateTo 导航到钳制后的索引 / NavigateTo moves to the clamped index
func (s *Store) NavigateTo(id string, index int) (int, error) {
	sess, err := s.Get(id)
	if err != nil {
		return 0, err
	}
	target, started := sess.Pager.NavigateTo(index)
	if started {
		sess.touch(s.now())
	}
	return target, nil
}

// CompleteTransition 转场动画完成后的落位事件
// CompleteTransition is the settle event after the transition animation
func (s *Store) CompleteTransition(id string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	sess.Pager.CompleteTransition()
	s.persist()
	return nil
}

// CorrectTargetAnchor 应用测量回调 / CorrectTargetAnchor applies a measurement callback
func (s *Store) CorrectTargetAnchor(id, connectionID string, measured geometry.Point) (page.Page, error) {
	sess, err := s.Get(id)
	if err != nil {
		return page.Page{}, err
	}
	pg, ok := sess.Pager.CorrectTargetAnchor(connectionID, measured)
	if !ok {
		return page.Page{}, fmt.Errorf("connection %s not found in session %s", connectionID, id)
	}
	s.persist()
	return pg, nil
}

// TogglePinned 翻转置顶标志，不影响归档 / TogglePinned flips the pin flag, archive untouched
func (s *Store) TogglePinned(id string) (bool, error) {
	sess, err := s.Get(id)
	if err != nil {
		return false, err
	}
	sess.Pinned = !sess.Pinned
	s.persist()
	return sess.Pinned, nil
}

// ToggleArchived 翻转归档标志，不影响置顶 / ToggleArchived flips the archive flag, pin untouched
func (s *Store) ToggleArchived(id string) (bool, error) {
	sess, err := s.Get(id)
	if err != nil {
		return false, err
	}
	sess.Archived = !sess.Archived
	s.persist()
	return sess.Archived, nil
}

// --- Views ---

// Search 在标题、预览与标签上做大小写无关的子串匹配，按最近活跃降序，
// 相同时间戳按插入顺序稳定排列。
// Search does case-insensitive substring matching over title, preview and
// tags, ordered by last activity descending; equal timestamps keep
// insertion order (stable sort).
func (s *Store) Search(query string) []Preview {
	query = strings.ToLower(strings.TrimSpace(query))
	var matched []*Session
	for _, sess := range s.sessions {
		if query == "" || matchesQuery(sess, query) {
			matched = append(matched, sess)
		}
	}
	sortByRecency(matched)
	return previews(matched)
}

// ListRecent 最近视图：未归档且在时间窗内，按活跃降序。
// ListRecent: unarchived sessions active inside the window, most recent first.
func (s *Store) ListRecent() []Preview {
	cutoff := s.now().Add(-s.cfg.RecentWindow)
	var matched []*Session
	for _, sess := range s.sessions {
		if !sess.Archived && !sess.LastActiveAt.Before(cutoff) {
			matched = append(matched, sess)
		}
	}
	sortByRecency(matched)
	return previews(matched)
}

// ListPinned 置顶视图：已置顶且未归档 / Pinned and not archived
func (s *Store) ListPinned() []Preview {
	var matched []*Session
	for _, sess := range s.sessions {
		if sess.Pinned && !sess.Archived {
			matched = append(matched, sess)
		}
	}
	sortByRecency(matched)
	return previews(matched)
}

// ListArchived 归档视图：已归档，无论是否置顶 / Archived regardless of pin
func (s *Store) ListArchived() []Preview {
	var matched []*Session
	for _, sess := range s.sessions {
		if sess.Archived {
			matched = append(matched, sess)
		}
	}
	sortByRecency(matched)
	return previews(matched)
}

// Stats 跨会话统计 / Stats aggregates across sessions
func (s *Store) Stats() Stats {
	st := Stats{TotalSessions: len(s.sessions)}
	cutoff := s.now().Add(-s.cfg.RecentWindow)
	freq := map[string]int{}
	for _, sess := range s.sessions {
		if !sess.LastActiveAt.Before(cutoff) {
			st.ActiveSessions++
		}
		st.TotalQuestions += sess.QuestionCount()
		for _, tag := range sess.Tags {
			freq[tag]++
		}
	}
	for tag, count := range freq {
		st.FavoriteTags = append(st.FavoriteTags, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(st.FavoriteTags, func(i, j int) bool {
		if st.FavoriteTags[i].Count != st.FavoriteTags[j].Count {
			return st.FavoriteTags[i].Count > st.FavoriteTags[j].Count
		}
		return st.FavoriteTags[i].Tag < st.FavoriteTags[j].Tag
	})
	if len(st.FavoriteTags) > 5 {
		st.FavoriteTags = st.FavoriteTags[:5]
	}
	return st
}

// --- Retention ---

// EvictOlderThan 移除最近活跃早于截止点的未置顶会话；置顶会话无论多旧
// 都豁免。进程启动时跑一次，尽力而为：持久化失败只告警，内存状态照常。
// EvictOlderThan removes unpinned sessions whose last activity predates the
// cutoff; pinned sessions are exempt regardless of age. Runs once at process
// start, best effort: a failed persist only warns and in-memory state keeps
// operating.
func (s *Store) EvictOlderThan(days int) int {
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	kept := s.sessions[:0]
	evicted := 0
	for _, sess := range s.sessions {
		if !sess.Pinned && sess.LastActiveAt.Before(cutoff) {
			delete(s.byID, sess.ID)
			evicted++
			continue
		}
		kept = append(kept, sess)
	}
	s.sessions = kept
	if evicted > 0 {
		s.persist()
	}
	return evicted
}

// enforceCapacity 超出容量时优先淘汰最旧的未置顶会话（未置顶子集上的
// FIFO）。全部置顶时不强制执行上限：置顶会话绝不被静默丢弃。
// enforceCapacity evicts the oldest unpinned sessions first when over the
// cap (FIFO over the unpinned subset). With every session pinned the cap is
// not enforced: pinned sessions are never silently dropped.
func (s *Store) enforceCapacity() {
	for len(s.sessions) > s.cfg.MaxSessions {
		oldest := -1
		for i, sess := range s.sessions {
			if sess.Pinned {
				continue
			}
			if oldest == -1 || sess.LastActiveAt.Before(s.sessions[oldest].LastActiveAt) {
				oldest = i
			}
		}
		if oldest == -1 {
			return
		}
		delete(s.byID, s.sessions[oldest].ID)
		s.sessions = append(s.sessions[:oldest], s.sessions[oldest+1:]...)
	}
}

// --- Persistence ---

// persist 投递当前快照给 saver goroutine；容量上限在快照前执行。
// 通道里未写完的旧快照被最新快照取代（单一生产者，UI 事件循环）。
// persist hands the current snapshot to the saver goroutine, enforcing the
// capacity cap first. A stale queued snapshot is replaced by the latest one
// (single producer, the UI event loop).
func (s *Store) persist() {
	s.enforceCapacity()
	records := make([]storage.SessionRecord, 0, len(s.sessions))
	for _, sess := range s.sessions {
		records = append(records, sess.toRecord())
	}
	select {
	case s.saves <- records:
	default:
		select {
		case <-s.saves:
		default:
		}
		s.saves <- records
	}
}

func (s *Store) saveLoop() {
	defer close(s.done)
	for records := range s.saves {
		if err := s.backend.SaveAll(records); err != nil {
			s.warnf("save sessions: %v", err)
		}
	}
}

// --- Helpers ---

func matchesQuery(sess *Session, query string) bool {
	if strings.Contains(strings.ToLower(sess.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(sess.Preview), query) {
		return true
	}
	for _, tag := range sess.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func sortByRecency(sessions []*Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastActiveAt.After(sessions[j].LastActiveAt)
	})
}

func previews(sessions []*Session) []Preview {
	out := make([]Preview, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, Preview{
			ID:            sess.ID,
			Title:         sess.Title,
			Preview:       sess.Preview,
			Tags:          append([]string(nil), sess.Tags...),
			Pinned:        sess.Pinned,
			Archived:      sess.Archived,
			LastActiveAt:  sess.LastActiveAt,
			QuestionCount: sess.QuestionCount(),
		})
	}
	return out
}
