// Package treesync mirrors the scene hierarchy onto the layout tree.
//
// [Sync] walks every camera's visible layout roots depth first and pushes
// added or modified nodes into the tree. A node needs synchronization when
// it has no solver node yet, when its [scene.Node] was added or modified this
// frame, or when its children changed this frame. Such a node is upserted,
// records its id in a collection buffer shared by the walk, and after its
// subtree replaces its solver children with every id collected above its
// own mark. Nodes that need no synchronization are still descended into but
// contribute no id of their own.
//
// Consequently an unchanged node below a changed ancestor is left out of the
// ancestor's new child list, and changed nodes below it are attached to the
// ancestor directly. This is long-standing behaviour that the tests pin.
//
// [Cleanup] runs after Sync and applies the frame's removal streams: child
// lists are cleared first, then solver nodes of entities that no longer
// carry a [scene.Node] are removed.
package treesync

import (
	"slices"

	"github.com/matzehuels/moonlayout/pkg/ecs"
	"github.com/matzehuels/moonlayout/pkg/errors"
	"github.com/matzehuels/moonlayout/pkg/layout"
	"github.com/matzehuels/moonlayout/pkg/scene"
	"github.com/matzehuels/moonlayout/pkg/stack"
)

// SyncStats counts the work done by one [Sync].
type SyncStats struct {
	Visited     int // entities walked
	Upserted    int // entities pushed into the tree
	ChildLists  int // SetChildren calls
	Cameras     int // stacks walked
	Collected   int // ids handed to SetChildren
	Uncollected int // ids left in the buffer when a stack ended
}

// CleanupStats counts the work done by one [Cleanup].
type CleanupStats struct {
	ChildrenCleared int
	Removed         int
}

type visit struct {
	entity ecs.Entity
	exit   bool
	id     layout.NodeID
	mark   int
}

// NeedsSync reports whether e must be pushed into tree this frame.
func NeedsSync(w *scene.World, tree *layout.Tree, e ecs.Entity) bool {
	if _, ok := tree.NodeID(e); !ok {
		return true
	}
	return w.NodeAdded(e) || w.NodeChanged(e) || w.ChildrenChanged(e)
}

// Sync pushes this frame's scene changes into tree, following the stacks in
// m in camera order. Any tree error aborts the pass.
func Sync(w *scene.World, tree *layout.Tree, m *stack.Map) (SyncStats, error) {
	var stats SyncStats
	var buf []layout.NodeID
	var work []visit

	for _, cam := range m.Cameras() {
		st, _ := m.Get(cam)
		stats.Cameras++
		buf = buf[:0]

		for _, root := range st.Roots {
			work = append(work[:0], visit{entity: root})
			for len(work) > 0 {
				v := work[len(work)-1]
				work = work[:len(work)-1]

				if v.exit {
					if kids := buf[v.mark:]; len(kids) > 0 {
						if err := tree.SetChildren(v.id, slices.Clone(kids)); err != nil {
							return stats, errors.Wrap(errors.GetCode(err), err, "sync children of %s", v.entity)
						}
						stats.ChildLists++
						stats.Collected += len(kids)
						buf = buf[:v.mark]
					}
					continue
				}

				stats.Visited++
				if NeedsSync(w, tree, v.entity) {
					node, _ := w.Node(v.entity)
					var measure layout.Measure
					if node.Measure != nil {
						measure = node.Measure.Clone()
					}
					id, err := tree.Upsert(v.entity, node.Style, measure)
					if err != nil {
						return stats, errors.Wrap(errors.GetCode(err), err, "sync %s", v.entity)
					}
					stats.Upserted++
					buf = append(buf, id)
					work = append(work, visit{entity: v.entity, exit: true, id: id, mark: len(buf)})
				}

				kids := visibleChildren(w, st, v.entity)
				for i := len(kids) - 1; i >= 0; i-- {
					work = append(work, visit{entity: kids[i]})
				}
			}
		}
		stats.Uncollected += len(buf)
	}
	return stats, nil
}

func visibleChildren(w *scene.World, st *stack.Stack, e ecs.Entity) []ecs.Entity {
	kids := w.LayoutChildren(e)
	return slices.DeleteFunc(kids, func(c ecs.Entity) bool { return !st.Contains(c) })
}

// Cleanup applies the removal streams of w to tree. Children are cleared for
// entities that still carry a node; solver nodes are removed for entities
// that no longer do, so a node removed and re-added in the same frame keeps
// its solver identity.
func Cleanup(w *scene.World, tree *layout.Tree) (CleanupStats, error) {
	var stats CleanupStats

	for _, e := range w.DrainRemovedChildren() {
		if !w.HasNode(e) {
			continue
		}
		if err := tree.RemoveChildren(e); err != nil {
			return stats, err
		}
		stats.ChildrenCleared++
	}

	for _, e := range w.DrainRemovedNodes() {
		if w.HasNode(e) {
			continue
		}
		if _, ok := tree.NodeID(e); !ok {
			continue
		}
		if err := tree.Remove(e); err != nil {
			return stats, err
		}
		stats.Removed++
	}
	return stats, nil
}
