package nav

import "testing"

type screen struct {
	name string
	n    int
}

func sameScreen(a, b screen) bool { return a == b }

func TestPushPushPopEqualsPush(t *testing.T) {
	var got Stack[screen]
	got.Push(screen{name: "a"})
	got.Push(screen{name: "b"})
	if _, ok := got.Pop(); !ok {
		t.Fatal("Pop() on non-empty stack returned false")
	}

	var want Stack[screen]
	want.Push(screen{name: "a"})

	if !got.Equal(want, sameScreen) {
		t.Errorf("stack = %+v, want %+v", got.Entries(), want.Entries())
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	var s Stack[screen]
	s.Push(screen{name: "a"})
	snapshot := s

	s.Push(screen{name: "b"})
	s.Update(1, func(sc *screen) { sc.n = 9 })

	if snapshot.Len() != 1 {
		t.Fatalf("snapshot len = %d, want 1", snapshot.Len())
	}
	if top, _ := snapshot.Top(); top.Screen.n != 0 {
		t.Errorf("snapshot screen mutated: %+v", top.Screen)
	}
}

func TestPresentCoverAndDismiss(t *testing.T) {
	var s Stack[screen]
	s.Push(screen{name: "detail"})
	cover := s.PresentCover(screen{name: "search"})
	s.Push(screen{name: "detail-2"})

	e, ok := s.Entry(cover)
	if !ok || e.Style != StyleCover {
		t.Fatalf("cover entry = %+v, %v", e, ok)
	}

	if !s.Dismiss(cover) {
		t.Fatal("Dismiss() returned false for existing entry")
	}
	if s.Len() != 1 {
		t.Errorf("len after dismiss = %d, want 1", s.Len())
	}
	if s.Dismiss(cover) {
		t.Error("Dismiss() of removed entry should return false")
	}
}

func TestGoBack(t *testing.T) {
	var s Stack[screen]
	s.Push(screen{name: "home"})
	s.Push(screen{name: "detail"})
	s.Push(screen{name: "comments"})

	if !s.GoBack(func(sc screen) bool { return sc.name == "home" }) {
		t.Fatal("GoBack() returned false")
	}
	if top, _ := s.Top(); top.Screen.name != "home" {
		t.Errorf("top = %q, want home", top.Screen.name)
	}

	if s.GoBack(func(sc screen) bool { return sc.name == "missing" }) {
		t.Error("GoBack() to missing screen should return false")
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1 after failed GoBack", s.Len())
	}
}

func TestIDsIncrease(t *testing.T) {
	var s Stack[screen]
	a := s.Push(screen{name: "a"})
	b := s.Push(screen{name: "b"})
	if b <= a {
		t.Errorf("ids = %d, %d, want increasing", a, b)
	}
	if s.Index(b) != 1 {
		t.Errorf("Index(b) = %d, want 1", s.Index(b))
	}
	if _, ok := s.At(5); ok {
		t.Error("At(5) should be out of range")
	}
	s.Pop()
	if c := s.Push(screen{name: "c"}); c == b {
		t.Errorf("id %d reused after pop", c)
	}
	s.PopToRoot()
	if s.Len() != 0 {
		t.Errorf("len = %d after PopToRoot", s.Len())
	}
	if _, ok := s.Pop(); ok {
		t.Error("Pop() on empty stack should return false")
	}
}
