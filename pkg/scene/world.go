package scene

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/moonlayout/pkg/ecs"
	"github.com/matzehuels/moonlayout/pkg/errors"
)

// record holds every component of one live entity. Ticks record the frame
// in which a component was last added or changed; zero means never.
type record struct {
	entity   ecs.Entity
	name     string
	parent   ecs.Entity
	children []ecs.Entity

	node      *Node
	transform Transform
	computed  ComputedLayout
	camera    *Camera

	nodeAdded        uint64
	nodeChanged      uint64
	childrenChanged  uint64
	transformChanged uint64
	computedChanged  uint64
}

func (r *record) hasParent() bool { return r.parent != ecs.Placeholder }

// World is an in-memory entity store with hierarchy, change ticks and
// removal streams.
//
// The zero value is not usable; create worlds with [NewWorld]. World is not
// safe for concurrent use.
type World struct {
	tick    uint64
	records []*record // indexed by entity index; slot 0 is never used
	gens    []uint32
	free    []uint32
	names   map[string]ecs.Entity

	removedNodes    []ecs.Entity
	removedChildren []ecs.Entity
}

// NewWorld returns an empty world at frame 1.
func NewWorld() *World {
	return &World{
		tick:    1,
		records: []*record{nil},
		gens:    []uint32{0},
		names:   make(map[string]ecs.Entity),
	}
}

// Tick returns the current frame number.
func (w *World) Tick() uint64 { return w.tick }

// AdvanceFrame ends the current frame. Change flags set so far stop
// reporting as changed.
func (w *World) AdvanceFrame() { w.tick++ }

func (w *World) get(e ecs.Entity) *record {
	if e.Index == 0 || int(e.Index) >= len(w.records) {
		return nil
	}
	r := w.records[e.Index]
	if r == nil || r.entity != e {
		return nil
	}
	return r
}

func (w *World) mustGet(e ecs.Entity) (*record, error) {
	r := w.get(e)
	if r == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "entity %s does not exist", e)
	}
	return r, nil
}

// =============================================================================
// Entities
// =============================================================================

// Spawn creates an entity with an identity transform. A non-empty name must
// be unique and can be looked up with [World.Lookup].
func (w *World) Spawn(name string) (ecs.Entity, error) {
	if name != "" {
		if _, taken := w.names[name]; taken {
			return ecs.Entity{}, errors.New(errors.ErrCodeInvalidScene, "duplicate entity name %q", name)
		}
	}

	var idx uint32
	if n := len(w.free); n > 0 {
		idx = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		idx = uint32(len(w.records))
		w.records = append(w.records, nil)
		w.gens = append(w.gens, 0)
	}
	w.gens[idx]++

	e := ecs.New(idx, w.gens[idx])
	w.records[idx] = &record{
		entity:           e,
		name:             name,
		transform:        IdentityTransform(),
		computed:         NewComputedLayout(),
		transformChanged: w.tick,
	}
	if name != "" {
		w.names[name] = e
	}
	return e, nil
}

// Alive reports whether e exists.
func (w *World) Alive(e ecs.Entity) bool { return w.get(e) != nil }

// Lookup finds an entity by name.
func (w *World) Lookup(name string) (ecs.Entity, bool) {
	e, ok := w.names[name]
	return e, ok
}

// Name returns the name e was spawned with.
func (w *World) Name(e ecs.Entity) string {
	if r := w.get(e); r != nil {
		return r.name
	}
	return ""
}

// Label returns the name of e, or its id when unnamed.
func (w *World) Label(e ecs.Entity) string {
	if n := w.Name(e); n != "" {
		return n
	}
	return e.String()
}

// Entities returns every live entity in ascending order.
func (w *World) Entities() []ecs.Entity {
	var out []ecs.Entity
	for _, r := range w.records {
		if r != nil {
			out = append(out, r.entity)
		}
	}
	return out
}

// Despawn removes e and its descendants. Entities carrying a [Node] are
// reported on the node removal stream; a parent left without children is
// reported on the children removal stream.
func (w *World) Despawn(e ecs.Entity) error {
	r, err := w.mustGet(e)
	if err != nil {
		return err
	}
	if r.hasParent() {
		w.detach(r)
	}

	stack := []*record{r}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range cur.children {
			if cr := w.get(c); cr != nil {
				stack = append(stack, cr)
			}
		}
		if cur.node != nil {
			w.removedNodes = append(w.removedNodes, cur.entity)
		}
		if cur.name != "" {
			delete(w.names, cur.name)
		}
		w.records[cur.entity.Index] = nil
		w.free = append(w.free, cur.entity.Index)
	}
	return nil
}

// =============================================================================
// Hierarchy
// =============================================================================

// SetParent appends child to parent's children, detaching it from any
// previous parent first.
func (w *World) SetParent(child, parent ecs.Entity) error {
	cr, err := w.mustGet(child)
	if err != nil {
		return err
	}
	pr, err := w.mustGet(parent)
	if err != nil {
		return err
	}
	if child == parent {
		return errors.New(errors.ErrCodeInvalidScene, "entity %s cannot be its own parent", w.Label(child))
	}
	for p := pr; p != nil && p.hasParent(); p = w.get(p.parent) {
		if p.parent == child {
			return errors.New(errors.ErrCodeInvalidScene, "parenting %s under %s creates a cycle", w.Label(child), w.Label(parent))
		}
	}
	if cr.parent == parent {
		return nil
	}

	if cr.hasParent() {
		w.detach(cr)
	}
	cr.parent = parent
	pr.children = append(pr.children, child)
	pr.childrenChanged = w.tick
	return nil
}

// RemoveParent detaches child from its parent, making it a root.
func (w *World) RemoveParent(child ecs.Entity) error {
	cr, err := w.mustGet(child)
	if err != nil {
		return err
	}
	if cr.hasParent() {
		w.detach(cr)
	}
	return nil
}

func (w *World) detach(cr *record) {
	pr := w.get(cr.parent)
	cr.parent = ecs.Placeholder
	if pr == nil {
		return
	}
	pr.children = slices.DeleteFunc(pr.children, func(e ecs.Entity) bool { return e == cr.entity })
	pr.childrenChanged = w.tick
	if len(pr.children) == 0 {
		pr.children = nil
		w.removedChildren = append(w.removedChildren, pr.entity)
	}
}

// Parent returns the parent of e.
func (w *World) Parent(e ecs.Entity) (ecs.Entity, bool) {
	r := w.get(e)
	if r == nil || !r.hasParent() {
		return ecs.Entity{}, false
	}
	return r.parent, true
}

// Children returns the children of e in insertion order. The slice must not
// be modified.
func (w *World) Children(e ecs.Entity) []ecs.Entity {
	if r := w.get(e); r != nil {
		return r.children
	}
	return nil
}

// =============================================================================
// Layout components
// =============================================================================

// InsertNode attaches or replaces the layout node of e. The computed layout
// is kept across a remove and re-add, since the transform still carries the
// translation it records.
func (w *World) InsertNode(e ecs.Entity, n Node) error {
	r, err := w.mustGet(e)
	if err != nil {
		return err
	}
	if r.node == nil {
		r.nodeAdded = w.tick
	}
	r.nodeChanged = w.tick
	cp := n
	r.node = &cp
	return nil
}

// RemoveNode detaches the layout node of e and reports it on the node
// removal stream.
func (w *World) RemoveNode(e ecs.Entity) error {
	r, err := w.mustGet(e)
	if err != nil {
		return err
	}
	if r.node != nil {
		r.node = nil
		w.removedNodes = append(w.removedNodes, e)
	}
	return nil
}

// HasNode reports whether e takes part in layout.
func (w *World) HasNode(e ecs.Entity) bool {
	r := w.get(e)
	return r != nil && r.node != nil
}

// Node returns a copy of e's layout node.
func (w *World) Node(e ecs.Entity) (Node, bool) {
	r := w.get(e)
	if r == nil || r.node == nil {
		return Node{}, false
	}
	return *r.node, true
}

// NodeMut returns e's layout node for modification and marks it changed.
func (w *World) NodeMut(e ecs.Entity) (*Node, bool) {
	r := w.get(e)
	if r == nil || r.node == nil {
		return nil, false
	}
	r.nodeChanged = w.tick
	return r.node, true
}

// SetStackIndex records e's paint-order rank without marking the node
// changed.
func (w *World) SetStackIndex(e ecs.Entity, idx int) {
	if r := w.get(e); r != nil && r.node != nil {
		r.node.StackIndex = idx
	}
}

// Computed returns e's computed layout.
func (w *World) Computed(e ecs.Entity) (ComputedLayout, bool) {
	r := w.get(e)
	if r == nil || r.node == nil {
		return ComputedLayout{}, false
	}
	return r.computed, true
}

// UpdateComputed lets fn modify e's computed layout without change
// detection; the layout is marked changed only if fn returns true.
func (w *World) UpdateComputed(e ecs.Entity, fn func(*ComputedLayout) bool) {
	r := w.get(e)
	if r == nil || r.node == nil {
		return
	}
	if fn(&r.computed) {
		r.computedChanged = w.tick
	}
}

// Transform returns e's local transform.
func (w *World) Transform(e ecs.Entity) (Transform, bool) {
	r := w.get(e)
	if r == nil {
		return Transform{}, false
	}
	return r.transform, true
}

// SetTransform replaces e's local transform and marks it changed.
func (w *World) SetTransform(e ecs.Entity, t Transform) error {
	r, err := w.mustGet(e)
	if err != nil {
		return err
	}
	r.transform = t
	r.transformChanged = w.tick
	return nil
}

// GlobalTransform composes the transforms from the hierarchy root down to e.
func (w *World) GlobalTransform(e ecs.Entity) mgl32.Mat4 {
	r := w.get(e)
	if r == nil {
		return mgl32.Ident4()
	}
	m := r.transform.Mat4()
	for p := w.get(r.parent); p != nil; p = w.get(p.parent) {
		m = p.transform.Mat4().Mul4(m)
	}
	return m
}

// GlobalZ returns the world-space depth of e. Larger values are farther
// from the viewer.
func (w *World) GlobalZ(e ecs.Entity) float32 {
	return w.GlobalTransform(e)[14]
}

// =============================================================================
// Change detection
// =============================================================================

func (w *World) ticked(e ecs.Entity, pick func(*record) uint64) bool {
	r := w.get(e)
	return r != nil && pick(r) == w.tick
}

// NodeAdded reports whether e's layout node was inserted this frame.
func (w *World) NodeAdded(e ecs.Entity) bool {
	return w.ticked(e, func(r *record) uint64 { return r.nodeAdded })
}

// NodeChanged reports whether e's layout node was inserted or modified this
// frame.
func (w *World) NodeChanged(e ecs.Entity) bool {
	return w.ticked(e, func(r *record) uint64 { return r.nodeChanged })
}

// ChildrenChanged reports whether e gained or lost children this frame.
func (w *World) ChildrenChanged(e ecs.Entity) bool {
	return w.ticked(e, func(r *record) uint64 { return r.childrenChanged })
}

// TransformChanged reports whether e's transform was written this frame.
func (w *World) TransformChanged(e ecs.Entity) bool {
	return w.ticked(e, func(r *record) uint64 { return r.transformChanged })
}

// ComputedChanged reports whether e's computed layout changed this frame.
func (w *World) ComputedChanged(e ecs.Entity) bool {
	return w.ticked(e, func(r *record) uint64 { return r.computedChanged })
}

// DrainRemovedNodes returns and clears the entities that lost their layout
// node (or were despawned with one) since the last drain.
func (w *World) DrainRemovedNodes() []ecs.Entity {
	out := w.removedNodes
	w.removedNodes = nil
	return out
}

// DrainRemovedChildren returns and clears the entities whose last child was
// removed since the last drain.
func (w *World) DrainRemovedChildren() []ecs.Entity {
	out := w.removedChildren
	w.removedChildren = nil
	return out
}

// =============================================================================
// Cameras
// =============================================================================

// SpawnCamera creates a camera entity.
func (w *World) SpawnCamera(name string, c Camera) (ecs.Entity, error) {
	e, err := w.Spawn(name)
	if err != nil {
		return e, err
	}
	cp := c
	w.records[e.Index].camera = &cp
	return e, nil
}

// Camera returns the camera component of e for modification.
func (w *World) Camera(e ecs.Entity) (*Camera, bool) {
	r := w.get(e)
	if r == nil || r.camera == nil {
		return nil, false
	}
	return r.camera, true
}

// Cameras returns every camera entity in ascending order.
func (w *World) Cameras() []ecs.Entity {
	var out []ecs.Entity
	for _, r := range w.records {
		if r != nil && r.camera != nil {
			out = append(out, r.entity)
		}
	}
	return out
}

// LayoutRoots returns the layout-relevant entities that have no
// layout-relevant ancestor, in ascending order.
func (w *World) LayoutRoots() []ecs.Entity {
	var out []ecs.Entity
	for _, r := range w.records {
		if r == nil || r.node == nil {
			continue
		}
		root := true
		for p := w.get(r.parent); p != nil; p = w.get(p.parent) {
			if p.node != nil {
				root = false
				break
			}
		}
		if root {
			out = append(out, r.entity)
		}
	}
	return out
}

// LayoutChildren returns the nearest layout-relevant descendants of e in
// hierarchy order, looking through entities without a [Node].
func (w *World) LayoutChildren(e ecs.Entity) []ecs.Entity {
	r := w.get(e)
	if r == nil {
		return nil
	}
	var out []ecs.Entity
	pending := slices.Clone(r.children)
	for len(pending) > 0 {
		c := pending[0]
		pending = pending[1:]
		cr := w.get(c)
		switch {
		case cr == nil:
		case cr.node != nil:
			out = append(out, c)
		default:
			pending = append(slices.Clone(cr.children), pending...)
		}
	}
	return out
}
