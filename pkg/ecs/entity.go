// Package ecs defines the entity identifier shared by every layout package.
//
// An [Entity] is an opaque handle made of a slot index and a generation. The
// index is dense, which lets per-frame sets such as the stack visibility set
// be stored as bitsets keyed by [Entity.Index]. The generation distinguishes
// entities that reuse a freed slot.
//
// [Entity.Less] is the stable, frame-independent ordering used to break ties
// between siblings at the same depth.
package ecs

import (
	"fmt"
	"strconv"
	"strings"
)

// Entity identifies a scene entity.
type Entity struct {
	Index      uint32
	Generation uint32
}

// Placeholder is the zero entity. It is never handed out by a world.
var Placeholder = Entity{}

// New returns the entity with the given index and generation.
func New(index, generation uint32) Entity {
	return Entity{Index: index, Generation: generation}
}

// Less orders entities by index, then generation.
func (e Entity) Less(o Entity) bool {
	if e.Index != o.Index {
		return e.Index < o.Index
	}
	return e.Generation < o.Generation
}

// Compare returns -1, 0 or +1 following [Entity.Less]. It is suitable for
// slices.SortFunc.
func (e Entity) Compare(o Entity) int {
	switch {
	case e.Less(o):
		return -1
	case o.Less(e):
		return 1
	default:
		return 0
	}
}

// Bits packs the entity into a single integer, generation in the high word.
func (e Entity) Bits() uint64 {
	return uint64(e.Generation)<<32 | uint64(e.Index)
}

// FromBits is the inverse of [Entity.Bits].
func FromBits(b uint64) Entity {
	return Entity{Index: uint32(b), Generation: uint32(b >> 32)}
}

// String renders the entity as "<index>v<generation>".
func (e Entity) String() string {
	return fmt.Sprintf("%dv%d", e.Index, e.Generation)
}

// Parse reads an entity in the form produced by [Entity.String]. A bare index
// is accepted and implies generation 1.
func Parse(s string) (Entity, error) {
	idx, gen, found := strings.Cut(s, "v")
	i, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return Entity{}, fmt.Errorf("parse entity %q: %w", s, err)
	}
	if !found {
		return Entity{Index: uint32(i), Generation: 1}, nil
	}
	g, err := strconv.ParseUint(gen, 10, 32)
	if err != nil {
		return Entity{}, fmt.Errorf("parse entity %q: %w", s, err)
	}
	return Entity{Index: uint32(i), Generation: uint32(g)}, nil
}

// MarshalText implements encoding.TextMarshaler so entities can key JSON maps.
func (e Entity) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Entity) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}
