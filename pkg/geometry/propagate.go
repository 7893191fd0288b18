// Package geometry copies solver output back into the scene.
//
// The solver works in a Y-down frame with every box positioned at its
// parent's top-left corner. Scene transforms are Y-up and centred on the
// parent. For a child with location l and size s inside a parent of size p
// the scene translation is
//
//	c = l + (s - p)/2,  c.y = -c.y
//
// [Propagate] keeps the translation it last applied in
// [scene.ComputedLayout.Affine]. When c moves, it strips that affine from the
// entity's current transform to recover the externally authored base
// transform, applies the new affine on top and writes back translation x and
// y. Rotation, scale, depth and manual offsets set by other systems between
// frames survive. Roots keep whatever transform the scene gives them.
package geometry

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/moonlayout/pkg/ecs"
	"github.com/matzehuels/moonlayout/pkg/errors"
	"github.com/matzehuels/moonlayout/pkg/layout"
	"github.com/matzehuels/moonlayout/pkg/scene"
	"github.com/matzehuels/moonlayout/pkg/stack"
)

// Stats counts the work done by [Propagate].
type Stats struct {
	Visited           int // entities with a solver node
	Skipped           int // entities without one; their subtrees are skipped
	ComputedChanged   int // computed layouts whose location or size moved
	TransformsWritten int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Visited += o.Visited
	s.Skipped += o.Skipped
	s.ComputedChanged += o.ComputedChanged
	s.TransformsWritten += o.TransformsWritten
}

type frame struct {
	transform scene.Transform
	size      mgl32.Vec2
}

type item struct {
	entity ecs.Entity
	parent *frame
}

// Propagate walks the visible layout subtree of root in st and applies the
// computed geometry of tree to each entity's computed layout and transform.
func Propagate(w *scene.World, tree *layout.Tree, st *stack.Stack, root ecs.Entity) (Stats, error) {
	var stats Stats
	work := []item{{entity: root}}

	for len(work) > 0 {
		it := work[len(work)-1]
		work = work[:len(work)-1]

		g, err := tree.Layout(it.entity)
		if errors.IsNotFound(err) {
			stats.Skipped++
			continue
		}
		if err != nil {
			return stats, err
		}
		tr, ok := w.Transform(it.entity)
		if !ok {
			stats.Skipped++
			continue
		}
		stats.Visited++

		var affine mgl32.Mat4
		w.UpdateComputed(it.entity, func(c *scene.ComputedLayout) bool {
			moved := c.Location != g.Location || c.Size != g.Size
			c.Location, c.Size, c.Border = g.Location, g.Size, g.Border
			affine = c.Affine
			return moved
		})
		if w.ComputedChanged(it.entity) {
			stats.ComputedChanged++
		}

		if it.parent != nil {
			if next, moved := Anchor(tr, affine, g, it.parent.size); moved {
				tr = next.Transform
				if err := w.SetTransform(it.entity, tr); err != nil {
					return stats, err
				}
				w.UpdateComputed(it.entity, func(c *scene.ComputedLayout) bool {
					c.Affine = next.Affine
					return false
				})
				stats.TransformsWritten++
			}
		}

		inherited := &frame{transform: tr, size: g.Size}
		kids := w.LayoutChildren(it.entity)
		for i := len(kids) - 1; i >= 0; i-- {
			if st == nil || st.Contains(kids[i]) {
				work = append(work, item{entity: kids[i], parent: inherited})
			}
		}
	}
	return stats, nil
}

// Anchored is the result of [Anchor].
type Anchored struct {
	Transform scene.Transform
	// Affine is the layout affine to cache for the next comparison.
	Affine mgl32.Mat4
}

// Center returns the Y-up, parent-centred translation of a box.
func Center(g layout.Geometry, parentSize mgl32.Vec2) mgl32.Vec2 {
	c := g.Location.Add(g.Size.Sub(parentSize).Mul(0.5))
	return mgl32.Vec2{c.X(), -c.Y()}
}

// Anchor computes the transform of a box given its current transform, the
// layout affine applied last time and its parent's size. It reports false
// when the translation is unchanged and nothing needs writing.
func Anchor(tr scene.Transform, affine mgl32.Mat4, g layout.Geometry, parentSize mgl32.Vec2) (Anchored, bool) {
	center := Center(g, parentSize)
	if center == (mgl32.Vec2{affine[12], affine[13]}) {
		return Anchored{Transform: tr, Affine: affine}, false
	}

	base := tr.Mat4().Mul4(affine.Inv())
	affine[12], affine[13] = center.X(), center.Y()
	m := base.Mul4(affine)

	tr.Translation[0], tr.Translation[1] = m[12], m[13]
	return Anchored{Transform: tr, Affine: affine}, true
}
