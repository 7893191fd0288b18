package extract

import (
	"maps"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/matzehuels/moonlayout/pkg/ecs"
	"github.com/matzehuels/moonlayout/pkg/scene"
	"github.com/matzehuels/moonlayout/pkg/stack"
)

// NodeState is the extracted state of one layout node.
type NodeState struct {
	Entity     ecs.Entity `json:"entity"`
	Name       string     `json:"name,omitempty"`
	Location   mgl32.Vec2 `json:"location"`
	Size       mgl32.Vec2 `json:"size"`
	Border     mgl32.Vec4 `json:"border"`
	Affine     mgl32.Mat4 `json:"affine"`
	StackIndex int        `json:"stack_index"`
	// Translation is the world-space translation of the node.
	Translation mgl32.Vec3 `json:"translation"`
}

// Snapshot is the extracted result of one frame.
type Snapshot struct {
	ID        uuid.UUID
	Scene     string
	Frame     uint64
	CreatedAt time.Time
	// Stacks is a shared handle; call Release when done.
	Stacks *stack.Map
	Nodes  map[ecs.Entity]NodeState
}

// Extract captures the current frame. Only entities that appear in at
// least one stack are recorded.
func Extract(w *scene.World, m *stack.Map, sceneName string, id uuid.UUID) *Snapshot {
	s := &Snapshot{
		ID:        id,
		Scene:     sceneName,
		Frame:     w.Tick(),
		CreatedAt: time.Now().UTC(),
		Stacks:    m.Share(),
		Nodes:     make(map[ecs.Entity]NodeState),
	}
	for _, cam := range m.Cameras() {
		st, _ := m.Get(cam)
		for _, e := range st.Entities {
			if _, seen := s.Nodes[e]; seen {
				continue
			}
			s.Nodes[e] = nodeState(w, e)
		}
	}
	return s
}

func nodeState(w *scene.World, e ecs.Entity) NodeState {
	ns := NodeState{Entity: e, Name: w.Name(e), Affine: mgl32.Ident4()}
	if c, ok := w.Computed(e); ok {
		ns.Location, ns.Size, ns.Border, ns.Affine = c.Location, c.Size, c.Border, c.Affine
	}
	if n, ok := w.Node(e); ok {
		ns.StackIndex = n.StackIndex
	}
	g := w.GlobalTransform(e)
	ns.Translation = mgl32.Vec3{g[12], g[13], g[14]}
	return ns
}

// Release drops the snapshot's stack handle. The snapshot's Stacks must not
// be used afterwards.
func (s *Snapshot) Release() {
	if s.Stacks != nil {
		s.Stacks.Release()
		s.Stacks = nil
	}
}

// Node returns the extracted state of e.
func (s *Snapshot) Node(e ecs.Entity) (NodeState, bool) {
	n, ok := s.Nodes[e]
	return n, ok
}

// Lookup returns the extracted state of the node called name.
func (s *Snapshot) Lookup(name string) (NodeState, bool) {
	for _, n := range s.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return NodeState{}, false
}

// Entities returns the extracted entities in ascending order.
func (s *Snapshot) Entities() []ecs.Entity {
	return slices.SortedFunc(maps.Keys(s.Nodes), ecs.Entity.Compare)
}
