// Package gallery keeps synthesized fields in insertion order.
package gallery

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/stellar/field"
)

// Entry is a read-only view of a stored field.
type Entry struct {
	Info    field.Info
	Buffers field.Buffers
}

// Gallery stores one entity per field. Insertion order is cycle order.
type Gallery struct {
	world   *ecs.World
	entries *ecs.Map2[field.Info, field.Buffers]
	order   []ecs.Entity
}

// New creates an empty gallery.
func New() *Gallery {
	world := ecs.NewWorld()
	return &Gallery{
		world:   world,
		entries: ecs.NewMap2[field.Info, field.Buffers](world),
	}
}

// Add appends a field and returns its index.
func (g *Gallery) Add(f *field.Field) int {
	info := f.Info
	bufs := f.Buffers
	e := g.entries.NewEntity(&info, &bufs)
	g.order = append(g.order, e)
	return len(g.order) - 1
}

// Len returns the number of entries.
func (g *Gallery) Len() int { return len(g.order) }

// At returns entry i.
func (g *Gallery) At(i int) (Entry, bool) {
	if i < 0 || i >= len(g.order) {
		return Entry{}, false
	}
	e := g.order[i]
	if !g.world.Alive(e) {
		return Entry{}, false
	}
	info, bufs := g.entries.Get(e)
	return Entry{Info: *info, Buffers: *bufs}, true
}

// IndexOf returns the index of the first entry named name, or -1.
func (g *Gallery) IndexOf(name string) int {
	for i, e := range g.order {
		info, _ := g.entries.Get(e)
		if info.Name == name {
			return i
		}
	}
	return -1
}

// Remove deletes entry i and reports whether it existed.
func (g *Gallery) Remove(i int) bool {
	if i < 0 || i >= len(g.order) {
		return false
	}
	g.entries.Remove(g.order[i])
	g.order = append(g.order[:i], g.order[i+1:]...)
	return true
}

// Clear removes every entry.
func (g *Gallery) Clear() {
	for _, e := range g.order {
		g.entries.Remove(e)
	}
	g.order = g.order[:0]
}

// Infos returns entry descriptions in order.
func (g *Gallery) Infos() []field.Info {
	out := make([]field.Info, 0, len(g.order))
	for _, e := range g.order {
		info, _ := g.entries.Get(e)
		out = append(out, *info)
	}
	return out
}
