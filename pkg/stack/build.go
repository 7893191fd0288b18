package stack

import (
	"cmp"
	"slices"

	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/moonlayout/pkg/ecs"
	"github.com/matzehuels/moonlayout/pkg/scene"
)

// Build rebuilds m from the cameras of w and returns the number of entities
// stacked across all cameras. Every stacked entity gets its paint-order rank
// written to [scene.Node.StackIndex] without marking the node changed.
//
// Cameras whose visible set holds no layout entity get no stack.
func Build(w *scene.World, m *Map) int {
	m.Clear()

	relevant := bitset.New(64)
	for _, e := range w.Entities() {
		if w.HasNode(e) {
			relevant.Set(uint(e.Index))
		}
	}
	roots := w.LayoutRoots()

	total := 0
	for _, cam := range w.Cameras() {
		c, _ := w.Camera(cam)
		if c.Visible == nil {
			continue
		}
		visible := c.Visible.Intersection(relevant)
		if visible.None() {
			continue
		}

		st := &Stack{Visible: visible}
		for _, r := range roots {
			if visible.Test(uint(r.Index)) {
				st.Roots = append(st.Roots, r)
			}
		}
		flatten(w, st)
		total += len(st.Entities)
		m.Mut()[cam] = st
	}
	return total
}

type group struct {
	items []ecs.Entity
	next  int
}

// flatten walks st.Roots depth first, appending every visible entity to
// st.Entities and closing a range whenever the walk leaves a run of siblings.
func flatten(w *scene.World, st *Stack) {
	runStart := 0
	closeRun := func() {
		if n := len(st.Entities); n > runStart {
			st.Ranges = append(st.Ranges, Range{Start: runStart, End: n})
			runStart = n
		}
	}

	rank := 0
	work := []*group{{items: sortBackToFront(w, slices.Clone(st.Roots))}}
	for len(work) > 0 {
		g := work[len(work)-1]
		if g.next == len(g.items) {
			closeRun()
			work = work[:len(work)-1]
			continue
		}

		e := g.items[g.next]
		g.next++
		st.Entities = append(st.Entities, e)
		w.SetStackIndex(e, rank)
		rank++

		var kids []ecs.Entity
		for _, c := range w.LayoutChildren(e) {
			if st.Contains(c) {
				kids = append(kids, c)
			}
		}
		if len(kids) > 0 {
			closeRun()
			work = append(work, &group{items: sortBackToFront(w, kids)})
		}
	}
}

// sortBackToFront orders siblings farthest first (larger global z), breaking
// ties by ascending entity order.
func sortBackToFront(w *scene.World, items []ecs.Entity) []ecs.Entity {
	z := make(map[ecs.Entity]float32, len(items))
	for _, e := range items {
		z[e] = w.GlobalZ(e)
	}
	slices.SortFunc(items, func(a, b ecs.Entity) int {
		if c := cmp.Compare(z[b], z[a]); c != 0 {
			return c
		}
		return a.Compare(b)
	})
	return items
}
