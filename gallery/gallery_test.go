package gallery

import (
	"testing"

	"github.com/pthm-cable/stellar/field"
)

func entry(name string, v float32) *field.Field {
	f := &field.Field{Buffers: field.NewBuffers()}
	f.Name = name
	f.Position[0] = v
	return f
}

func TestAddAndOrder(t *testing.T) {
	g := New()
	for i, name := range []string{"a", "b", "c"} {
		if idx := g.Add(entry(name, float32(i))); idx != i {
			t.Errorf("Add(%s) = %d, want %d", name, idx, i)
		}
	}
	if g.Len() != 3 {
		t.Fatalf("Len = %d, want 3", g.Len())
	}
	for i, want := range []string{"a", "b", "c"} {
		e, ok := g.At(i)
		if !ok || e.Info.Name != want || e.Buffers.Position[0] != float32(i) {
			t.Errorf("At(%d) = %q/%v, want %q", i, e.Info.Name, ok, want)
		}
	}
	if _, ok := g.At(3); ok {
		t.Error("At(3) found an entry")
	}
	if _, ok := g.At(-1); ok {
		t.Error("At(-1) found an entry")
	}
}

func TestRemoveKeepsOrder(t *testing.T) {
	g := New()
	g.Add(entry("a", 0))
	g.Add(entry("b", 1))
	g.Add(entry("c", 2))

	if !g.Remove(1) {
		t.Fatal("Remove(1) = false")
	}
	if g.Remove(5) {
		t.Error("Remove(5) = true")
	}
	names := []string{}
	for _, info := range g.Infos() {
		names = append(names, info.Name)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "c" {
		t.Errorf("names = %v, want [a c]", names)
	}
	if g.IndexOf("c") != 1 || g.IndexOf("b") != -1 {
		t.Errorf("IndexOf c=%d b=%d", g.IndexOf("c"), g.IndexOf("b"))
	}

	// Entities are recycled without disturbing survivors
	g.Add(entry("d", 3))
	if e, _ := g.At(2); e.Info.Name != "d" {
		t.Errorf("At(2) = %q, want d", e.Info.Name)
	}
	if e, _ := g.At(0); e.Buffers.Position[0] != 0 {
		t.Errorf("survivor buffer changed: %v", e.Buffers.Position[0])
	}
}

func TestClear(t *testing.T) {
	g := New()
	g.Add(entry("a", 0))
	g.Add(entry("b", 1))
	g.Clear()
	if g.Len() != 0 || len(g.Infos()) != 0 {
		t.Errorf("Len after Clear = %d", g.Len())
	}
	if idx := g.Add(entry("c", 2)); idx != 0 {
		t.Errorf("Add after Clear = %d, want 0", idx)
	}
}
