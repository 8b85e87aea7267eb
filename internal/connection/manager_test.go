package connection

import (
	"fmt"
	"testing"

	"tangent/internal/geometry"
	"tangent/internal/page"
)

func resultPage(t *testing.T, q string) page.Page {
	t.Helper()
	pg, err := page.NewResultPage(q, geometry.Point{X: 100, Y: 200}, geometry.Point{X: 399, Y: 96})
	if err != nil {
		t.Fatal(err)
	}
	return pg
}

func TestRegisterAndActive(t *testing.T) {
	m := NewManager()
	var pages []page.Page
	for i := 0; i < 3; i++ {
		pg := resultPage(t, fmt.Sprintf("q%d", i))
		pages = append(pages, pg)
		line, ok := m.Register(pg)
		if !ok {
			t.Fatalf("register %d failed", i)
		}
		if !line.Active || line.From != pg.OriginAnchor || line.To != pg.TargetAnchor {
			t.Fatalf("line %d unexpected: %+v", i, line)
		}
	}

	active := m.Active()
	if len(active) != 3 {
		t.Fatalf("active count=%d, want 3", len(active))
	}
	// Creation order preserved, one line per visible result page.
	for i, line := range active {
		if line.PageID != pages[i].ID {
			t.Fatalf("active[%d] out of order: %+v", i, line)
		}
	}

	// Duplicate registration is ignored.
	if _, ok := m.Register(pages[0]); ok {
		t.Fatal("duplicate register should be rejected")
	}
	// Feed pages carry no connector.
	if _, ok := m.Register(page.NewFeedPage()); ok {
		t.Fatal("feed page should not register a line")
	}
}

func TestCorrectTargetInPlace(t *testing.T) {
	m := NewManager()
	pg := resultPage(t, "q")
	m.Register(pg)

	measured := geometry.Point{X: 410, Y: 180}
	if !m.CorrectTarget(pg.ConnectionID, measured) {
		t.Fatal("correction should find the line")
	}
	if m.Len() != 1 {
		t.Fatalf("correction must not create a new line, len=%d", m.Len())
	}
	got := m.Active()[0]
	if got.To != measured {
		t.Fatalf("To=%+v, want %+v", got.To, measured)
	}
	if got.From != pg.OriginAnchor {
		t.Fatalf("From changed: %+v", got.From)
	}

	// Late callback after removal is ignored.
	m.CompleteReveal(pg.ConnectionID)
	if m.CorrectTarget(pg.ConnectionID, measured) {
		t.Fatal("correction after removal should be ignored")
	}
}

func TestLineNeverOutlivesPage(t *testing.T) {
	m := NewManager()
	a := resultPage(t, "a")
	b := resultPage(t, "b")
	m.Register(a)
	m.Register(b)

	// (a) page removed first.
	m.RemoveForPage(a.ID)
	if m.Len() != 1 {
		t.Fatalf("len=%d after page removal, want 1", m.Len())
	}
	// (b) reveal animation completes first.
	m.CompleteReveal(b.ConnectionID)
	if m.Len() != 0 {
		t.Fatalf("len=%d after reveal completion, want 0", m.Len())
	}

	// Both removals are idempotent.
	m.RemoveForPage(a.ID)
	m.CompleteReveal(b.ConnectionID)
	if m.Len() != 0 {
		t.Fatal("repeated removal should be a no-op")
	}
}

func TestLinePath(t *testing.T) {
	m := NewManager()
	pg := resultPage(t, "q")
	m.Register(pg)

	path := m.Active()[0].Path()
	if path.Start() != pg.OriginAnchor || path.End() != pg.TargetAnchor {
		t.Fatalf("path endpoints %+v..%+v", path.Start(), path.End())
	}
}
