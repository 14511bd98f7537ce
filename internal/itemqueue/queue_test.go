package itemqueue

import (
	"os"
	"reflect"
	"testing"
)

func TestSetInsertsAndMoves(t *testing.T) {
	q := New[string]()
	q.Set("a", 0)
	q.Set("b", 1)
	q.Set("c", 1) // insert between a and b
	if got := q.Keys(); !reflect.DeepEqual(got, []string{"a", "c", "b"}) {
		t.Fatalf("Keys() = %v", got)
	}

	q.Set("a", 2) // move a to the end
	if got := q.Keys(); !reflect.DeepEqual(got, []string{"c", "b", "a"}) {
		t.Fatalf("Keys() after move = %v", got)
	}
}

func TestGetPosAndErase(t *testing.T) {
	q := New[string]()
	for i, k := range []string{"a", "b", "c"} {
		q.Set(k, i)
	}
	if p, ok := q.GetPos("b"); !ok || p != 1 {
		t.Fatalf("GetPos(b) = %d, %v", p, ok)
	}
	if !q.Erase("b") {
		t.Fatal("Erase(b) = false")
	}
	if _, ok := q.GetPos("b"); ok {
		t.Fatal("GetPos(b) found after erase")
	}
	if p, _ := q.GetPos("c"); p != 1 {
		t.Fatalf("GetPos(c) after erase = %d, want 1", p)
	}
}

func TestPopFIFO(t *testing.T) {
	q := New[string]()
	for i, k := range []string{"a", "b", "c"} {
		q.Set(k, i)
	}
	k, ok := q.Pop()
	if !ok || k != "a" {
		t.Fatalf("Pop() = %q, %v; want a, true", k, ok)
	}
	if got := q.Keys(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("Keys() after Pop = %v", got)
	}
}

func TestMoveTopPreservesInputOrder(t *testing.T) {
	q := New[string]()
	for i, k := range []string{"a", "b", "c", "d", "e"} {
		q.Set(k, i)
	}
	q.MoveTop([]string{"d", "b", "zzz"}) // zzz unknown, ignored
	want := []string{"d", "b", "a", "c", "e"}
	if got := q.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() after MoveTop = %v, want %v", got, want)
	}
}

func TestMoveBottomPreservesInputOrder(t *testing.T) {
	q := New[string]()
	for i, k := range []string{"a", "b", "c", "d", "e"} {
		q.Set(k, i)
	}
	q.MoveBottom([]string{"b", "d"})
	want := []string{"a", "c", "e", "b", "d"}
	if got := q.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() after MoveBottom = %v, want %v", got, want)
	}
}

func TestMoveUp(t *testing.T) {
	initial := []string{"a", "b", "c", "d", "e", "f"}
	tests := []struct {
		moved []string
		want  []string
	}{
		{[]string{"a"}, []string{"a", "b", "c", "d", "e", "f"}},
		{[]string{"a", "b"}, []string{"b", "a", "c", "d", "e", "f"}},
		{[]string{"b", "d"}, []string{"b", "a", "d", "c", "e", "f"}},
		{[]string{"c", "d"}, []string{"a", "c", "d", "b", "e", "f"}},
		{[]string{"f"}, []string{"a", "b", "c", "d", "f", "e"}},
		{[]string{"f", "f"}, []string{"a", "b", "c", "d", "f", "e"}},
		{[]string{"z", "q"}, []string{"a", "b", "c", "d", "e", "f"}},
	}
	for _, tc := range tests {
		q := New[string]()
		for i, k := range initial {
			q.Set(k, i)
		}
		q.MoveUp(tc.moved)
		if got := q.Keys(); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("MoveUp(%v) = %v, want %v", tc.moved, got, tc.want)
		}
	}
}

func TestMoveDown(t *testing.T) {
	initial := []string{"a", "b", "c", "d", "e", "f"}
	tests := []struct {
		moved []string
		want  []string
	}{
		{[]string{"a"}, []string{"b", "a", "c", "d", "e", "f"}},
		{[]string{"a", "b"}, []string{"c", "a", "b", "d", "e", "f"}},
		{[]string{"b", "d"}, []string{"a", "c", "b", "e", "d", "f"}},
		{[]string{"c", "d"}, []string{"a", "b", "e", "c", "d", "f"}},
		{[]string{"f"}, []string{"a", "b", "c", "d", "e", "f"}},
		{[]string{"f", "f"}, []string{"a", "b", "c", "d", "e", "f"}},
		{[]string{"z", "q"}, []string{"a", "b", "c", "d", "e", "f"}},
	}
	for _, tc := range tests {
		q := New[string]()
		for i, k := range initial {
			q.Set(k, i)
		}
		q.MoveDown(tc.moved)
		if got := q.Keys(); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("MoveDown(%v) = %v, want %v", tc.moved, got, tc.want)
		}
	}
}

func TestToFileFromFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	q := New[string]()
	for i, k := range []string{"torrent-a", "torrent-b", "torrent-c"} {
		q.Set(k, i)
	}
	if err := ToFile(q, dir); err != nil {
		t.Fatalf("ToFile: %v", err)
	}
	if _, err := os.Stat(dir + "/queue.json"); err != nil {
		t.Fatalf("queue.json not written: %v", err)
	}

	loaded, err := FromFile(dir)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if got, want := loaded.Keys(), q.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("round-tripped keys = %v, want %v", got, want)
	}
}
