package page

import (
	"errors"
	"testing"

	"tangent/internal/geometry"
)

func TestNewResultPage(t *testing.T) {
	origin := geometry.Point{X: 100, Y: 200}
	target := geometry.Point{X: 399, Y: 96}

	p, err := NewResultPage("What is X?", origin, target)
	if err != nil {
		t.Fatalf("NewResultPage: %v", err)
	}
	if p.Kind != KindResult {
		t.Fatalf("Kind=%q, want %q", p.Kind, KindResult)
	}
	if p.ID == "" || p.ConnectionID == "" {
		t.Fatalf("missing ids: %+v", p)
	}
	if p.ID == p.ConnectionID {
		t.Fatal("page id and connection id should be distinct")
	}
	if p.OriginAnchor != origin || p.TargetAnchor != target {
		t.Fatalf("anchors unexpected: %+v", p)
	}
}

func TestNewResultPageEmptyQuestion(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := NewResultPage(q, geometry.Point{}, geometry.Point{})
		if !errors.Is(err, ErrEmptyQuestion) {
			t.Fatalf("question %q: err=%v, want ErrEmptyQuestion", q, err)
		}
	}
}

func TestNewResultPageUniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		p, err := NewResultPage("q", geometry.Point{}, geometry.Point{})
		if err != nil {
			t.Fatal(err)
		}
		if seen[p.ID] {
			t.Fatalf("duplicate id %q", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestWithTargetAnchorIdempotent(t *testing.T) {
	p, err := NewResultPage("q", geometry.Point{X: 1, Y: 2}, geometry.Point{X: 3, Y: 4})
	if err != nil {
		t.Fatal(err)
	}
	measured := geometry.Point{X: 410, Y: 180}

	once := p.WithTargetAnchor(measured)
	twice := once.WithTargetAnchor(measured)
	if once != twice {
		t.Fatalf("correction not idempotent: %+v vs %+v", once, twice)
	}
	if once.TargetAnchor != measured {
		t.Fatalf("TargetAnchor=%+v, want %+v", once.TargetAnchor, measured)
	}
	// Everything else untouched.
	if once.ID != p.ID || once.OriginAnchor != p.OriginAnchor || once.Question != p.Question {
		t.Fatalf("unrelated fields changed: %+v", once)
	}
}

func TestNewFeedPage(t *testing.T) {
	f := NewFeedPage()
	if f.Kind != KindFeed {
		t.Fatalf("Kind=%q, want %q", f.Kind, KindFeed)
	}
	if f.Question != "" || f.ConnectionID != "" {
		t.Fatalf("feed page should carry no question or connection: %+v", f)
	}
}
