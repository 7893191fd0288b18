package layout

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjk/flex"

	"github.com/matzehuels/moonlayout/pkg/ecs"
	"github.com/matzehuels/moonlayout/pkg/errors"
)

// NodeID identifies a solver node. IDs come from a monotonic counter and are
// never reused.
type NodeID uint64

// Geometry is the computed box of a node, relative to its parent's
// top-left corner in a Y-down frame.
type Geometry struct {
	Location mgl32.Vec2
	Size     mgl32.Vec2
	// Border widths in top, right, bottom, left order.
	Border mgl32.Vec4
}

// Options configures a [Tree].
type Options struct {
	// PointScaleFactor is the number of physical pixels per layout point used
	// for rounding. Zero disables rounding.
	PointScaleFactor float32
}

type nodeContext struct {
	id      NodeID
	entity  ecs.Entity
	style   Style
	measure Measure
}

// Tree owns the retained solver nodes, one per synchronized entity.
//
// Tree is not safe for concurrent use.
type Tree struct {
	config   *flex.Config
	nodes    map[NodeID]*flex.Node
	entities map[ecs.Entity]NodeID
	next     NodeID

	// scratch holds a solver style built from a Style before it is copied
	// onto a node, so unchanged styles do not dirty the node.
	scratch  *flex.Node
	defaults flex.Style

	// mctx is only set while Compute runs.
	mctx *MeasureContext
}

// NewTree returns an empty tree.
func NewTree(opts Options) *Tree {
	cfg := flex.NewConfig()
	cfg.PointScaleFactor = opts.PointScaleFactor
	scratch := flex.NewNodeWithConfig(cfg)
	return &Tree{
		config:   cfg,
		nodes:    make(map[NodeID]*flex.Node),
		entities: make(map[ecs.Entity]NodeID),
		scratch:  scratch,
		defaults: scratch.Style,
	}
}

// guard converts solver assertion panics into invariant errors.
func guard(op string, err *error) {
	if r := recover(); r != nil {
		*err = errors.New(errors.ErrCodeInvariant, "%s: solver assertion: %v", op, r)
	}
}

func contextOf(n *flex.Node) *nodeContext {
	return n.Context.(*nodeContext)
}

// =============================================================================
// Node lifecycle
// =============================================================================

// Upsert creates a leaf node for entity or, if one exists, updates its style
// and measure in place. The returned id never changes for a mapped entity.
func (t *Tree) Upsert(entity ecs.Entity, style Style, measure Measure) (id NodeID, err error) {
	defer guard("upsert", &err)

	if id, ok := t.entities[entity]; ok {
		n := t.nodes[id]
		t.setStyle(n, style)
		if err := t.setMeasure(n, measure); err != nil {
			return id, err
		}
		return id, nil
	}

	t.next++
	id = t.next
	n := flex.NewNodeWithConfig(t.config)
	n.Context = &nodeContext{id: id, entity: entity}
	t.setStyle(n, style)
	if err := t.setMeasure(n, measure); err != nil {
		return 0, err
	}
	t.nodes[id] = n
	t.entities[entity] = id
	return id, nil
}

func (t *Tree) setStyle(n *flex.Node, style Style) {
	t.scratch.Style = t.defaults
	style.apply(&t.scratch.Style)
	flex.NodeCopyStyle(n, t.scratch)
	// NodeCopyStyle ignores the aspect ratio when comparing styles.
	if !sameFloat(n.Style.AspectRatio, t.scratch.Style.AspectRatio) {
		n.Style.AspectRatio = t.scratch.Style.AspectRatio
		forceDirty(n)
	}
	contextOf(n).style = style
}

func sameFloat(a, b float32) bool {
	if flex.FloatIsUndefined(a) || flex.FloatIsUndefined(b) {
		return flex.FloatIsUndefined(a) && flex.FloatIsUndefined(b)
	}
	return a == b
}

func (t *Tree) setMeasure(n *flex.Node, m Measure) error {
	ctx := contextOf(n)
	if m != nil && len(n.Children) > 0 {
		return errors.New(errors.ErrCodeInvariant, "node %d (%s) has children and cannot be measured", ctx.id, ctx.entity)
	}
	had := ctx.measure != nil
	ctx.measure = m

	if m == nil {
		n.SetMeasureFunc(nil)
		if had {
			forceDirty(n)
		}
		return nil
	}
	n.SetMeasureFunc(t.measure)
	n.MarkDirty()
	return nil
}

// forceDirty invalidates a node whether or not it has a measure function;
// the solver only exposes MarkDirty for measured leaves, so the style is
// bounced through a copy that differs in Flex.
func forceDirty(n *flex.Node) {
	orig := n.Style
	tmp := &flex.Node{Style: orig}
	if flex.FloatIsUndefined(orig.Flex) {
		tmp.Style.Flex = 0
	} else {
		tmp.Style.Flex = flex.Undefined
	}
	flex.NodeCopyStyle(n, tmp)
	tmp.Style = orig
	flex.NodeCopyStyle(n, tmp)
}

// SetChildren replaces the child list of id. Children attached to another
// parent are detached first.
func (t *Tree) SetChildren(id NodeID, children []NodeID) (err error) {
	defer guard("set children", &err)

	parent, ok := t.nodes[id]
	if !ok {
		return errors.New(errors.ErrCodeInvariant, "set children: unknown node %d", id)
	}

	kids := make([]*flex.Node, 0, len(children))
	seen := make(map[NodeID]struct{}, len(children))
	for _, c := range children {
		n, ok := t.nodes[c]
		switch {
		case !ok:
			return errors.New(errors.ErrCodeInvariant, "set children of %d: unknown child %d", id, c)
		case c == id:
			return errors.New(errors.ErrCodeInvariant, "set children of %d: node cannot be its own child", id)
		}
		if _, dup := seen[c]; dup {
			return errors.New(errors.ErrCodeInvariant, "set children of %d: duplicate child %d", id, c)
		}
		if isAncestor(n, parent) {
			return errors.New(errors.ErrCodeInvariant, "set children of %d: child %d is an ancestor", id, c)
		}
		seen[c] = struct{}{}
		kids = append(kids, n)
	}

	if slices.Equal(parent.Children, kids) {
		return nil
	}
	if len(kids) > 0 && parent.Measure != nil {
		return errors.New(errors.ErrCodeInvariant, "set children of %d: measured leaf cannot have children", id)
	}

	clearChildren(parent)
	for i, n := range kids {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		parent.InsertChild(n, i)
	}
	return nil
}

func isAncestor(candidate, n *flex.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

func clearChildren(n *flex.Node) {
	for len(n.Children) > 0 {
		n.RemoveChild(n.Children[len(n.Children)-1])
	}
}

// Remove deletes the node of entity, detaching it from its parent and
// releasing its children. Unknown entities are ignored.
func (t *Tree) Remove(entity ecs.Entity) (err error) {
	defer guard("remove", &err)

	id, ok := t.entities[entity]
	if !ok {
		return nil
	}
	n := t.nodes[id]
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	clearChildren(n)
	delete(t.nodes, id)
	delete(t.entities, entity)
	return nil
}

// RemoveChildren clears the child list of entity's node, keeping the node.
// Unknown entities are ignored.
func (t *Tree) RemoveChildren(entity ecs.Entity) (err error) {
	defer guard("remove children", &err)

	if id, ok := t.entities[entity]; ok {
		clearChildren(t.nodes[id])
	}
	return nil
}

// =============================================================================
// Computation
// =============================================================================

// Compute lays out the subtree rooted at root's node within viewport. A root
// without a node gets a default leaf first. mctx is handed to every measure
// invoked during the computation and may be nil.
func (t *Tree) Compute(root ecs.Entity, viewport mgl32.Vec2, mctx *MeasureContext) (err error) {
	id, ok := t.entities[root]
	if !ok {
		if id, err = t.Upsert(root, DefaultStyle(), nil); err != nil {
			return err
		}
	}

	defer guard("compute", &err)
	t.mctx = mctx
	defer func() { t.mctx = nil }()

	flex.CalculateLayout(t.nodes[id], viewport.X(), viewport.Y(), flex.DirectionLTR)
	return nil
}

// measure is the solver measure callback shared by every measured node.
func (t *Tree) measure(n *flex.Node, width float32, widthMode flex.MeasureMode, height float32, heightMode flex.MeasureMode) flex.Size {
	ctx := contextOf(n)
	args := MeasureArgs{
		KnownWidth:      known(width, widthMode),
		KnownHeight:     known(height, heightMode),
		AvailableWidth:  available(width, widthMode),
		AvailableHeight: available(height, heightMode),
		Context:         t.mctx,
	}
	size := measureOrZero(ctx.measure, args, &ctx.style)
	return flex.Size{Width: size.X(), Height: size.Y()}
}

func known(v float32, mode flex.MeasureMode) Optional {
	if mode == flex.MeasureModeExactly && !flex.FloatIsUndefined(v) {
		return Some(v)
	}
	return Optional{}
}

func available(v float32, mode flex.MeasureMode) AvailableSpace {
	if mode == flex.MeasureModeUndefined || flex.FloatIsUndefined(v) {
		return AvailableSpace{Kind: MaxContent}
	}
	return AvailableSpace{Kind: Definite, Value: v}
}

// Layout returns the last computed geometry of entity's node. It fails with
// errors.ErrCodeNotFound when the entity has no node.
func (t *Tree) Layout(entity ecs.Entity) (Geometry, error) {
	id, ok := t.entities[entity]
	if !ok {
		return Geometry{}, errors.New(errors.ErrCodeNotFound, "no layout node for entity %s", entity)
	}
	l := &t.nodes[id].Layout
	return Geometry{
		Location: mgl32.Vec2{finite(l.Position[flex.EdgeLeft]), finite(l.Position[flex.EdgeTop])},
		Size:     mgl32.Vec2{finite(l.Dimensions[flex.DimensionWidth]), finite(l.Dimensions[flex.DimensionHeight])},
		Border: mgl32.Vec4{
			finite(l.Border[flex.EdgeTop]),
			finite(l.Border[flex.EdgeEnd]),
			finite(l.Border[flex.EdgeBottom]),
			finite(l.Border[flex.EdgeStart]),
		},
	}, nil
}

func finite(v float32) float32 {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return 0
	}
	return v
}

// =============================================================================
// Introspection
// =============================================================================

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// NodeID returns the node of entity.
func (t *Tree) NodeID(entity ecs.Entity) (NodeID, bool) {
	id, ok := t.entities[entity]
	return id, ok
}

// Entity returns the entity owning id.
func (t *Tree) Entity(id NodeID) (ecs.Entity, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return ecs.Entity{}, false
	}
	return contextOf(n).entity, true
}

// Children returns the child ids of id in order.
func (t *Tree) Children(id NodeID) []NodeID {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	out := make([]NodeID, len(n.Children))
	for i, c := range n.Children {
		out[i] = contextOf(c).id
	}
	return out
}

// Parent returns the parent of id, if attached.
func (t *Tree) Parent(id NodeID) (NodeID, bool) {
	n, ok := t.nodes[id]
	if !ok || n.Parent == nil {
		return 0, false
	}
	return contextOf(n.Parent).id, true
}

// Roots returns the ids of all detached nodes in ascending order.
func (t *Tree) Roots() []NodeID {
	var out []NodeID
	for id, n := range t.nodes {
		if n.Parent == nil {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// IsMeasured reports whether id has a measure.
func (t *Tree) IsMeasured(id NodeID) bool {
	n, ok := t.nodes[id]
	return ok && contextOf(n).measure != nil
}

// Describe renders a short description of a node for debugging.
func (t *Tree) Describe(id NodeID) string {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Sprintf("node %d (removed)", id)
	}
	ctx := contextOf(n)
	return fmt.Sprintf("node %d (%s) %s", id, ctx.entity, ctx.style.FlexDirection)
}
