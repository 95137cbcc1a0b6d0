package normalisers

import (
	"testing"
)

func TestRegistry_GetByExtension(t *testing.T) {
	r := DefaultRegistry()

	n := r.Get(".htm")
	if n == nil {
		t.Fatal("expected normaliser for .htm")
	}
	if n.Priority() != 50 {
		t.Errorf("priority = %d, want 50", n.Priority())
	}

	n = r.Get(".txt")
	if n == nil {
		t.Fatal("expected normaliser for .txt")
	}
	if n.Priority() != 10 {
		t.Errorf("priority = %d, want 10", n.Priority())
	}

	if r.Get(".pdf") != nil {
		t.Error("expected nil for unregistered extension")
	}
}

func TestRegistry_PriorityWins(t *testing.T) {
	r := NewRegistry()
	low := NewPipeline("low", []string{".htm"}, 5, []Stage{
		{Name: "identity", Apply: func(s string) string { return s }},
	})
	high := NewPipeline("high", []string{".htm"}, 90, []Stage{
		{Name: "upper", Apply: func(s string) string { return "high:" + s }},
	})
	r.Register(low)
	r.Register(high)

	got := r.Get(".htm").Normalise("x")
	if got != "high:x" {
		t.Errorf("expected high priority normaliser, got %q", got)
	}
}

func TestRegistry_List(t *testing.T) {
	r := DefaultRegistry()
	exts := r.List()
	if len(exts) != 2 || exts[0] != ".htm" || exts[1] != ".txt" {
		t.Errorf("List() = %v", exts)
	}
}

func TestPipeline_FoldOrder(t *testing.T) {
	p := NewPipeline("trace", []string{".x"}, 1, []Stage{
		{Name: "a", Apply: func(s string) string { return s + "a" }},
		{Name: "b", Apply: func(s string) string { return s + "b" }},
		{Name: "c", Apply: func(s string) string { return s + "c" }},
	})
	if got := p.Normalise(""); got != "abc" {
		t.Errorf("fold order = %q, want abc", got)
	}
}
