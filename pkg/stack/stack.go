package stack

import (
	"maps"
	"slices"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/moonlayout/pkg/ecs"
)

// Range is a half-open slice [Start, End) of [Stack.Entities].
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of entities in the range.
func (r Range) Len() int { return r.End - r.Start }

// Stack is the back-to-front paint order of the layout entities one camera
// can see.
type Stack struct {
	// Visible holds the indices of the visible layout entities.
	Visible *bitset.BitSet
	// Roots lists the visible layout roots in ascending entity order.
	Roots []ecs.Entity
	// Entities is the flattened paint order, farthest first.
	Entities []ecs.Entity
	// Ranges are contiguous runs of siblings; concatenated they cover
	// Entities exactly.
	Ranges []Range
}

// Contains reports whether e is in the visible set.
func (s *Stack) Contains(e ecs.Entity) bool {
	return s.Visible != nil && s.Visible.Test(uint(e.Index))
}

// Slice returns the entities covered by r.
func (s *Stack) Slice(r Range) []ecs.Entity {
	return s.Entities[r.Start:r.End]
}

// Clone returns a deep copy of s.
func (s *Stack) Clone() *Stack {
	c := &Stack{
		Roots:    slices.Clone(s.Roots),
		Entities: slices.Clone(s.Entities),
		Ranges:   slices.Clone(s.Ranges),
	}
	if s.Visible != nil {
		c.Visible = s.Visible.Clone()
	}
	return c
}

// =============================================================================
// Copy-on-write map
// =============================================================================

type mapData struct {
	refs   atomic.Int32
	stacks map[ecs.Entity]*Stack
}

func newMapData(stacks map[ecs.Entity]*Stack) *mapData {
	d := &mapData{stacks: stacks}
	d.refs.Store(1)
	return d
}

// Map holds one [Stack] per camera behind a reference-counted handle.
// [Map.Share] hands out another handle to the same stacks; the first
// [Map.Mut] on a shared handle copies the stacks so other holders keep
// seeing the old ones.
//
// Readers of a shared handle may run on other goroutines. Each handle itself
// must be used by one goroutine at a time.
type Map struct {
	data *mapData
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{data: newMapData(make(map[ecs.Entity]*Stack))}
}

// Share returns a new handle to the same stacks.
func (m *Map) Share() *Map {
	m.data.refs.Add(1)
	return &Map{data: m.data}
}

// Release drops this handle. The handle must not be used afterwards.
func (m *Map) Release() {
	if m.data != nil {
		m.data.refs.Add(-1)
		m.data = nil
	}
}

// Shared reports whether another handle refers to the same stacks.
func (m *Map) Shared() bool {
	return m.data != nil && m.data.refs.Load() > 1
}

// Mut returns the stacks for writing, copying them first when shared.
func (m *Map) Mut() map[ecs.Entity]*Stack {
	if m.Shared() {
		cp := make(map[ecs.Entity]*Stack, len(m.data.stacks))
		for k, v := range m.data.stacks {
			cp[k] = v.Clone()
		}
		m.data.refs.Add(-1)
		m.data = newMapData(cp)
	}
	return m.data.stacks
}

// Clear empties the map. A shared handle detaches onto fresh storage
// without copying.
func (m *Map) Clear() {
	if m.Shared() {
		m.data.refs.Add(-1)
		m.data = newMapData(make(map[ecs.Entity]*Stack))
		return
	}
	clear(m.data.stacks)
}

// Get returns the stack of camera.
func (m *Map) Get(camera ecs.Entity) (*Stack, bool) {
	if m.data == nil {
		return nil, false
	}
	s, ok := m.data.stacks[camera]
	return s, ok
}

// Len returns the number of stacks.
func (m *Map) Len() int {
	if m.data == nil {
		return 0
	}
	return len(m.data.stacks)
}

// Cameras returns the cameras with a stack in ascending order.
func (m *Map) Cameras() []ecs.Entity {
	if m.data == nil {
		return nil
	}
	return slices.SortedFunc(maps.Keys(m.data.stacks), ecs.Entity.Compare)
}
