package scene

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/moonlayout/pkg/ecs"
	"github.com/matzehuels/moonlayout/pkg/layout"
)

// Node marks an entity as taking part in layout.
type Node struct {
	Style layout.Style
	// Measure sizes leaf content; nil means an empty container.
	Measure layout.Measure
	// StackIndex is the paint-order rank assigned by the stack builder.
	StackIndex int
}

// NewNode returns a node with the default style.
func NewNode() Node {
	return Node{Style: layout.DefaultStyle()}
}

// ComputedLayout caches the solver output of a node and the parent-relative
// translation last applied to its transform.
type ComputedLayout struct {
	Location mgl32.Vec2
	Size     mgl32.Vec2
	// Border widths in top, right, bottom, left order.
	Border mgl32.Vec4
	// Affine is the last applied layout translation, identity until the
	// first propagation.
	Affine mgl32.Mat4
}

// NewComputedLayout returns an empty computed layout with an identity affine.
func NewComputedLayout() ComputedLayout {
	return ComputedLayout{Affine: mgl32.Ident4()}
}

// Viewport is the physical area a camera renders into.
type Viewport struct {
	PhysicalSize mgl32.Vec2
}

// Camera renders the entities in its visible set.
type Camera struct {
	// Viewport is nil when the camera has no render target yet.
	Viewport *Viewport
	// Visible holds the indices of the entities the camera can see.
	Visible *bitset.BitSet
}

// NewCamera returns a camera with the given viewport size and an empty
// visible set.
func NewCamera(width, height float32) Camera {
	return Camera{
		Viewport: &Viewport{PhysicalSize: mgl32.Vec2{width, height}},
		Visible:  bitset.New(64),
	}
}

// See adds entities to the camera's visible set.
func (c *Camera) See(entities ...ecs.Entity) {
	if c.Visible == nil {
		c.Visible = bitset.New(64)
	}
	for _, e := range entities {
		c.Visible.Set(uint(e.Index))
	}
}

// ViewportSize returns the physical viewport size, zero without a viewport.
func (c *Camera) ViewportSize() mgl32.Vec2 {
	if c.Viewport == nil {
		return mgl32.Vec2{}
	}
	return c.Viewport.PhysicalSize
}
