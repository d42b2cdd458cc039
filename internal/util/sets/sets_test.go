package sets

import (
	"reflect"
	"testing"
)

func TestSetBasics(t *testing.T) {
	s := New("GET", "HEAD")
	s.Add("POST")
	s.Add("GET")

	if s.Len() != 3 {
		t.Fatalf("expected 3 members, got %d", s.Len())
	}
	if !s.Has("POST") || s.Has("DELETE") {
		t.Fatalf("unexpected membership: %v", s)
	}
	s.Delete("POST")
	if s.Has("POST") {
		t.Fatal("POST should be deleted")
	}
}

func TestSorted(t *testing.T) {
	got := Sorted(New("slug", "id", "page"))
	want := []string{"id", "page", "slug"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Sorted() = %v, want %v", got, want)
	}
	if got := Sorted(Set[string](nil)); len(got) != 0 {
		t.Fatalf("nil set should sort to empty, got %v", got)
	}
}
