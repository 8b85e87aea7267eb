package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"tangent/internal/geometry"
	"tangent/internal/pager"
	"tangent/internal/storage"
)

// memBackend is an in-memory storage.Store with optional write failures.
type memBackend struct {
	records []storage.SessionRecord
	saveErr error
	loadErr error
	saves   int
}

func (m *memBackend) LoadAll() ([]storage.SessionRecord, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]storage.SessionRecord(nil), m.records...), nil
}

func (m *memBackend) SaveAll(records []storage.SessionRecord) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = append([]storage.SessionRecord(nil), records...)
	return nil
}

func (m *memBackend) Close() error { return nil }

type fixture struct {
	store   *Store
	backend *memBackend
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		backend: &memBackend{},
		clock:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
	f.store = New(f.backend, Config{
		Pager:         pager.Config{PageWidth: 375, VelocityThreshold: 500, InsetX: 24, InsetY: 96},
		MaxSessions:   50,
		RecentWindow:  7 * 24 * time.Hour,
		PreviewLength: 80,
	})
	f.store.now = func() time.Time { return f.clock }
	f.store.warnf = func(string, ...any) {}
	t.Cleanup(func() { _ = f.store.Close() })
	return f
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func TestAddQuestionEndToEnd(t *testing.T) {
	f := newFixture(t)
	sess := f.store.Create()

	pg, err := f.store.AddQuestion(sess.ID, "What is X?", geometry.Point{X: 100, Y: 200})
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if err := f.store.CompleteTransition(sess.ID); err != nil {
		t.Fatal(err)
	}

	if sess.QuestionCount() != 1 {
		t.Fatalf("QuestionCount=%d, want 1", sess.QuestionCount())
	}
	if sess.Pager.CurrentIndex() != 1 {
		t.Fatalf("CurrentIndex=%d, want 1", sess.Pager.CurrentIndex())
	}
	if sess.AutoTitle != "What Is X" {
		t.Fatalf("AutoTitle=%q, want %q", sess.AutoTitle, "What Is X")
	}
	if sess.Preview != "What is X?" {
		t.Fatalf("Preview=%q, want %q", sess.Preview, "What is X?")
	}
	if pg.OriginAnchor != (geometry.Point{X: 100, Y: 200}) {
		t.Fatalf("origin %+v", pg.OriginAnchor)
	}

	// Second question: title frozen, tags unioned without duplicates.
	if _, err := f.store.AddQuestion(sess.ID, "Follow up on X", geometry.Point{X: 50, Y: 60}); err != nil {
		t.Fatal(err)
	}
	_ = f.store.CompleteTransition(sess.ID)

	if sess.QuestionCount() != 2 || sess.Pager.CurrentIndex() != 2 {
		t.Fatalf("count=%d index=%d, want 2/2", sess.QuestionCount(), sess.Pager.CurrentIndex())
	}
	if sess.Title != "What Is X" || sess.AutoTitle != "What Is X" {
		t.Fatalf("title must stay frozen: %q / %q", sess.Title, sess.AutoTitle)
	}
	if sess.Preview != "What is X?" {
		t.Fatalf("preview must stay frozen: %q", sess.Preview)
	}
	seen := map[string]bool{}
	for _, tag := range sess.Tags {
		if seen[tag] {
			t.Fatalf("duplicate tag %q in %v", tag, sess.Tags)
		}
		seen[tag] = true
	}
	if !seen["follow"] {
		t.Fatalf("tags missing keyword from second question: %v", sess.Tags)
	}
}

func TestAddQuestionDroppedMidTransition(t *testing.T) {
	f := newFixture(t)
	sess := f.store.Create()

	if _, err := f.store.AddQuestion(sess.ID, "first", geometry.Point{}); err != nil {
		t.Fatal(err)
	}
	_, err := f.store.AddQuestion(sess.ID, "rapid second", geometry.Point{})
	if !errors.Is(err, pager.ErrTransitionInFlight) {
		t.Fatalf("err=%v, want ErrTransitionInFlight", err)
	}
	if sess.QuestionCount() != 1 {
		t.Fatalf("dropped question must not be recorded, count=%d", sess.QuestionCount())
	}
}

func TestPreviewTruncation(t *testing.T) {
	f := newFixture(t)
	sess := f.store.Create()

	long := ""
	for i := 0; i < 30; i++ {
		long += "question "
	}
	if _, err := f.store.AddQuestion(sess.ID, long, geometry.Point{}); err != nil {
		t.Fatal(err)
	}
	if len([]rune(sess.Preview)) != 83 { // 80 + "..."
		t.Fatalf("preview length=%d, want 83", len([]rune(sess.Preview)))
	}
	if sess.Preview[len(sess.Preview)-3:] != "..." {
		t.Fatalf("preview missing ellipsis marker: %q", sess.Preview)
	}
}

func TestToggleFlagsIndependent(t *testing.T) {
	f := newFixture(t)
	sess := f.store.Create()

	pinned, err := f.store.TogglePinned(sess.ID)
	if err != nil || !pinned {
		t.Fatalf("TogglePinned: %v %v", pinned, err)
	}
	archived, err := f.store.ToggleArchived(sess.ID)
	if err != nil || !archived {
		t.Fatalf("ToggleArchived: %v %v", archived, err)
	}
	// Archiving left the pin alone and vice versa.
	if !sess.Pinned || !sess.Archived {
		t.Fatalf("flags not independent: %+v", sess)
	}
	if _, err := f.store.TogglePinned(sess.ID); err != nil {
		t.Fatal(err)
	}
	if sess.Pinned || !sess.Archived {
		t.Fatalf("unpin must not touch archive: %+v", sess)
	}
}

func TestSearchOrderingStable(t *testing.T) {
	f := newFixture(t)

	// Two sessions sharing a timestamp: insertion order breaks the tie.
	first := f.store.Create()
	f.store.AddQuestion(first.ID, "Shared topic alpha", geometry.Point{})
	second := f.store.Create()
	f.store.AddQuestion(second.ID, "Shared topic beta", geometry.Point{})

	f.advance(time.Hour)
	third := f.store.Create()
	f.store.AddQuestion(third.ID, "Shared topic gamma", geometry.Point{})

	got := f.store.Search("shared")
	if len(got) != 3 {
		t.Fatalf("matches=%d, want 3", len(got))
	}
	if got[0].ID != third.ID {
		t.Fatalf("most recent first, got %s", got[0].ID)
	}
	if got[1].ID != first.ID || got[2].ID != second.ID {
		t.Fatalf("ties must keep insertion order: %s, %s", got[1].ID, got[2].ID)
	}

	// Case-insensitive, matches tags too.
	if n := len(f.store.Search("ALPHA")); n != 1 {
		t.Fatalf("tag search matches=%d, want 1", n)
	}
	if n := len(f.store.Search("nothing-here")); n != 0 {
		t.Fatalf("no-match search=%d, want 0", n)
	}
}

func TestListViews(t *testing.T) {
	f := newFixture(t)

	old := f.store.Create()
	f.store.AddQuestion(old.ID, "Ancient question", geometry.Point{})

	f.advance(10 * 24 * time.Hour)
	fresh := f.store.Create()
	f.store.AddQuestion(fresh.ID, "Fresh question", geometry.Point{})
	pinned := f.store.Create()
	f.store.TogglePinned(pinned.ID)
	archived := f.store.Create()
	f.store.ToggleArchived(archived.ID)

	recent := f.store.ListRecent()
	if len(recent) != 2 {
		t.Fatalf("recent=%d, want 2 (old outside window, archived excluded)", len(recent))
	}
	for _, p := range recent {
		if p.ID == old.ID || p.ID == archived.ID {
			t.Fatalf("unexpected session in recent: %s", p.ID)
		}
	}

	pins := f.store.ListPinned()
	if len(pins) != 1 || pins[0].ID != pinned.ID {
		t.Fatalf("pinned view unexpected: %+v", pins)
	}
	// An archived pin leaves the pinned view but stays archived.
	f.store.ToggleArchived(pinned.ID)
	if len(f.store.ListPinned()) != 0 {
		t.Fatal("archived sessions must leave the pinned view")
	}
	arch := f.store.ListArchived()
	if len(arch) != 2 {
		t.Fatalf("archived=%d, want 2 (regardless of pin)", len(arch))
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)

	old := f.store.Create()
	f.store.AddQuestion(old.ID, "Kubernetes scheduling question", geometry.Point{})

	f.advance(10 * 24 * time.Hour)
	a := f.store.Create()
	f.store.AddQuestion(a.ID, "Kubernetes networking question", geometry.Point{})
	f.store.AddQuestion(a.ID, "", geometry.Point{}) // rejected, not counted
	b := f.store.Create()
	f.store.AddQuestion(b.ID, "Postgres indexing question", geometry.Point{})

	st := f.store.Stats()
	if st.TotalSessions != 3 {
		t.Fatalf("TotalSessions=%d, want 3", st.TotalSessions)
	}
	if st.ActiveSessions != 2 {
		t.Fatalf("ActiveSessions=%d, want 2", st.ActiveSessions)
	}
	if st.TotalQuestions != 3 {
		t.Fatalf("TotalQuestions=%d, want 3", st.TotalQuestions)
	}
	if len(st.FavoriteTags) == 0 || st.FavoriteTags[0].Tag != "question" || st.FavoriteTags[0].Count != 3 {
		t.Fatalf("FavoriteTags unexpected: %+v", st.FavoriteTags)
	}
	if len(st.FavoriteTags) > 5 {
		t.Fatalf("FavoriteTags capped at 5, got %d", len(st.FavoriteTags))
	}
}

func TestEvictOlderThanPinExemption(t *testing.T) {
	f := newFixture(t)

	pinnedOld := f.store.Create()
	f.store.AddQuestion(pinnedOld.ID, "Pinned but ancient", geometry.Point{})
	f.store.TogglePinned(pinnedOld.ID)
	unpinnedOld := f.store.Create()
	f.store.AddQuestion(unpinnedOld.ID, "Unpinned and ancient", geometry.Point{})

	f.advance(60 * 24 * time.Hour)
	evicted := f.store.EvictOlderThan(30)
	if evicted != 1 {
		t.Fatalf("evicted=%d, want 1", evicted)
	}
	if _, err := f.store.Get(pinnedOld.ID); err != nil {
		t.Fatal("pinned session must survive eviction regardless of age")
	}
	if _, err := f.store.Get(unpinnedOld.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("unpinned session should be gone, err=%v", err)
	}
}

func TestCapacityFIFO(t *testing.T) {
	f := newFixture(t)

	var ids []string
	for i := 1; i <= 51; i++ {
		sess := f.store.Create()
		f.store.AddQuestion(sess.ID, fmt.Sprintf("Question number %d", i), geometry.Point{})
		ids = append(ids, sess.ID)
		f.advance(time.Minute)
	}

	// The save-triggered capacity check dropped S1.
	if _, err := f.store.Get(ids[0]); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("S1 should be evicted, err=%v", err)
	}
	for _, id := range ids[1:] {
		if _, err := f.store.Get(id); err != nil {
			t.Fatalf("S2..S51 must survive: %v", err)
		}
	}
}

func TestCapacityNotEnforcedWhenAllPinned(t *testing.T) {
	f := newFixture(t)

	var pinned []string
	for i := 0; i < 5; i++ {
		sess := f.store.Create()
		f.store.TogglePinned(sess.ID)
		pinned = append(pinned, sess.ID)
		f.advance(time.Minute)
	}

	// Deliberate policy: with every session pinned the cap is not enforced;
	// pinned sessions are never silently dropped.
	f.store.cfg.MaxSessions = 3
	f.store.persist()
	if got := len(f.store.sessions); got != 5 {
		t.Fatalf("all-pinned overflow: len=%d, want 5", got)
	}

	// A single unpinned session is the whole unpinned subset, so it goes
	// first; the pinned ones all survive.
	extra := f.store.Create()
	if _, err := f.store.Get(extra.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("unpinned session should be evicted first, err=%v", err)
	}
	for _, id := range pinned {
		if _, err := f.store.Get(id); err != nil {
			t.Fatalf("pinned session lost: %v", err)
		}
	}
}

func TestStorageFailureNeverBlocksNavigation(t *testing.T) {
	f := newFixture(t)
	f.backend.saveErr = errors.New("disk full")

	sess := f.store.Create()
	if _, err := f.store.AddQuestion(sess.ID, "Still works", geometry.Point{}); err != nil {
		t.Fatalf("navigation blocked by storage failure: %v", err)
	}
	_ = f.store.CompleteTransition(sess.ID)
	if sess.Pager.CurrentIndex() != 1 {
		t.Fatalf("in-memory state must stay authoritative, index=%d", sess.Pager.CurrentIndex())
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	backend := &memBackend{}
	cfg := Config{
		Pager:         pager.Config{PageWidth: 375, VelocityThreshold: 500, InsetX: 24, InsetY: 96},
		MaxSessions:   50,
		RecentWindow:  7 * 24 * time.Hour,
		PreviewLength: 80,
	}

	store := New(backend, cfg)
	sess := store.Create()
	if _, err := store.AddQuestion(sess.ID, "What is X?", geometry.Point{X: 100, Y: 200}); err != nil {
		t.Fatal(err)
	}
	_ = store.CompleteTransition(sess.ID)
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reloaded := New(backend, cfg)
	t.Cleanup(func() { _ = reloaded.Close() })
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := reloaded.Get(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "What Is X" || got.Preview != "What is X?" {
		t.Fatalf("metadata lost: %+v", got)
	}
	if got.QuestionCount() != 1 || got.Pager.CurrentIndex() != 1 {
		t.Fatalf("pager state lost: count=%d index=%d", got.QuestionCount(), got.Pager.CurrentIndex())
	}
	pg := got.Pager.Pages()[0]
	if pg.Question != "What is X?" || pg.OriginAnchor != (geometry.Point{X: 100, Y: 200}) {
		t.Fatalf("page lost: %+v", pg)
	}
	if got.Pager.InTransition() {
		t.Fatal("restored pager must be idle")
	}
}

func TestLoadFailureLeavesEmptyStore(t *testing.T) {
	backend := &memBackend{loadErr: errors.New("corrupt")}
	store := New(backend, Config{Pager: pager.Config{PageWidth: 375}})
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Load(); err == nil {
		t.Fatal("expected load error")
	}
	// The caller warns and continues; the store still works.
	sess := store.Create()
	if _, err := store.AddQuestion(sess.ID, "works anyway", geometry.Point{}); err != nil {
		t.Fatal(err)
	}
}
