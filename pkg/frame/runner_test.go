package frame

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/moonlayout/pkg/cache"
	"github.com/matzehuels/moonlayout/pkg/ecs"
	"github.com/matzehuels/moonlayout/pkg/errors"
	"github.com/matzehuels/moonlayout/pkg/extract"
	"github.com/matzehuels/moonlayout/pkg/layout"
	"github.com/matzehuels/moonlayout/pkg/observability"
	"github.com/matzehuels/moonlayout/pkg/scene"
)

func box(x, y, w, h float32) layout.Style {
	s := layout.DefaultStyle()
	s.Position = layout.PositionAbsolute
	s.Inset = layout.Rect{Left: layout.Points(x), Top: layout.Points(y)}
	s.Size = layout.Size{Width: layout.Points(w), Height: layout.Points(h)}
	return s
}

type fixture struct {
	w           *scene.World
	cam         ecs.Entity
	root, child ecs.Entity
}

func newFixture(t *testing.T, camera scene.Camera) fixture {
	t.Helper()
	w := scene.NewWorld()
	cam, err := w.SpawnCamera("cam", camera)
	if err != nil {
		t.Fatal(err)
	}
	root, _ := w.Spawn("root")
	child, _ := w.Spawn("child")
	if err := w.InsertNode(root, scene.NewNode()); err != nil {
		t.Fatal(err)
	}
	if err := w.InsertNode(child, scene.Node{Style: box(10, 10, 50, 50)}); err != nil {
		t.Fatal(err)
	}
	if err := w.SetParent(child, root); err != nil {
		t.Fatal(err)
	}
	c, _ := w.Camera(cam)
	c.See(root, child)
	return fixture{w: w, cam: cam, root: root, child: child}
}

func translation(w *scene.World, e ecs.Entity) mgl32.Vec3 {
	tr, _ := w.Transform(e)
	return tr.Translation
}

func TestStep(t *testing.T) {
	f := newFixture(t, scene.NewCamera(200, 100))
	r, err := NewRunner(f.w, Options{SceneName: "menu"})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer r.Close()

	res, err := r.Step(context.Background())
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if res.Tick != 1 || f.w.Tick() != 2 {
		t.Errorf("ticks = %d/%d, want 1/2", res.Tick, f.w.Tick())
	}
	if res.Stats.Cameras != 1 || res.Stats.Stacked != 2 || res.Stats.TreeNodes != 2 || res.Stats.Computed != 1 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if got := translation(f.w, f.child); !got.ApproxEqual(mgl32.Vec3{-65, 15, 0}) {
		t.Errorf("child translation = %v, want [-65 15 0]", got)
	}
	if got := translation(f.w, f.root); got != (mgl32.Vec3{}) {
		t.Errorf("root translation = %v, want origin", got)
	}

	g, err := r.Tree.Layout(f.root)
	if err != nil {
		t.Fatalf("Layout(root): %v", err)
	}
	if g.Size != (mgl32.Vec2{200, 100}) {
		t.Errorf("root size = %v, want [200 100]", g.Size)
	}
	if n, ok := res.Snapshot.Node(f.child); !ok || n.Size != (mgl32.Vec2{50, 50}) {
		t.Errorf("snapshot child = %+v, %v", n, ok)
	}
	if r.Last() != res.Snapshot {
		t.Error("Last() should return the latest snapshot")
	}
}

func TestStepSteadyState(t *testing.T) {
	f := newFixture(t, scene.NewCamera(200, 100))
	r, _ := NewRunner(f.w, Options{})
	ctx := context.Background()

	first, err := r.Step(ctx)
	if err != nil {
		t.Fatal(err)
	}
	id, _ := r.Tree.NodeID(f.child)
	firstSnap := first.Snapshot

	second, err := r.Step(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second.Stats.Sync.Upserted != 0 {
		t.Errorf("Upserted = %d, want 0", second.Stats.Sync.Upserted)
	}
	if second.Stats.Geometry.TransformsWritten != 0 {
		t.Errorf("TransformsWritten = %d, want 0", second.Stats.Geometry.TransformsWritten)
	}
	if f.w.TransformChanged(f.child) {
		t.Error("child transform touched by an unchanged frame")
	}
	if got, _ := r.Tree.NodeID(f.child); got != id {
		t.Errorf("NodeID changed: %v -> %v", id, got)
	}
	if firstSnap.Stacks != nil {
		t.Error("previous snapshot should be released by the next frame")
	}
}

func TestStepNoViewport(t *testing.T) {
	cam := scene.NewCamera(0, 0)
	cam.Viewport = nil
	f := newFixture(t, cam)
	r, _ := NewRunner(f.w, Options{})

	if _, err := r.Step(context.Background()); err != nil {
		t.Fatalf("Step: %v", err)
	}
	// A zero-size parent centres the child on its own midpoint.
	if got := translation(f.w, f.child); !got.ApproxEqual(mgl32.Vec3{35, -35, 0}) {
		t.Errorf("child translation = %v, want [35 -35 0]", got)
	}
}

func TestStepDespawn(t *testing.T) {
	f := newFixture(t, scene.NewCamera(200, 100))
	r, _ := NewRunner(f.w, Options{})
	ctx := context.Background()

	if _, err := r.Step(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.w.Despawn(f.child); err != nil {
		t.Fatal(err)
	}
	res, err := r.Step(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Cleanup.Removed != 1 {
		t.Errorf("Removed = %d, want 1", res.Stats.Cleanup.Removed)
	}
	if r.Tree.Len() != 1 {
		t.Errorf("Tree.Len() = %d, want 1", r.Tree.Len())
	}
	if _, err := r.Tree.Layout(f.child); !errors.IsNotFound(err) {
		t.Errorf("Layout(despawned) = %v, want NotFound", err)
	}
}

func TestStepMissingCamera(t *testing.T) {
	w := scene.NewWorld()
	r, _ := NewRunner(w, Options{})
	res, err := r.Step(context.Background())
	if err != nil {
		t.Fatalf("Step on empty world: %v", err)
	}
	if res.Stats.Cameras != 0 || res.Stats.Computed != 0 {
		t.Errorf("Stats = %+v, want empty", res.Stats)
	}
}

func TestRun(t *testing.T) {
	f := newFixture(t, scene.NewCamera(200, 100))
	r, _ := NewRunner(f.w, Options{Frames: 3})

	res, err := r.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Tick != 3 {
		t.Errorf("last Tick = %d, want 3", res.Tick)
	}
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t, scene.NewCamera(200, 100))
	r, _ := NewRunner(f.w, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Run(ctx, 5); err != context.Canceled {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if f.w.Tick() != 1 {
		t.Errorf("Tick() = %d, want 1", f.w.Tick())
	}
}

func TestStepPersistsSnapshot(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store := extract.NewStore(fc, nil, time.Hour)
	f := newFixture(t, scene.NewCamera(200, 100))
	r, _ := NewRunner(f.w, Options{SceneName: "menu", Store: store})
	ctx := context.Background()

	res, err := r.Step(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got, err := store.Latest(ctx, "menu")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ID != res.ID {
		t.Errorf("stored ID = %v, want %v", got.ID, res.ID)
	}
}

type recordingHooks struct {
	observability.NoopFrameHooks
	mu     sync.Mutex
	phases []string
	frames int
}

func (h *recordingHooks) OnPhaseComplete(_ context.Context, _, phase string, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.phases = append(h.phases, phase)
}

func (h *recordingHooks) OnFrameComplete(context.Context, string, uint64, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames++
}

func TestStepHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetFrameHooks(hooks)
	defer observability.Reset()

	f := newFixture(t, scene.NewCamera(200, 100))
	r, _ := NewRunner(f.w, Options{})
	if _, err := r.Step(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []string{PhaseStack, PhaseSync, PhaseCleanup, PhaseCompute, PhasePropagate, PhaseExtract}
	if len(hooks.phases) != len(want) {
		t.Fatalf("phases = %v, want %v", hooks.phases, want)
	}
	for i := range want {
		if hooks.phases[i] != want[i] {
			t.Errorf("phase[%d] = %s, want %s", i, hooks.phases[i], want[i])
		}
	}
	if hooks.frames != 1 {
		t.Errorf("frames = %d, want 1", hooks.frames)
	}
}

type downCache struct{ cache.Cache }

func (downCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New(errors.ErrCodeNetwork, "redis down")
}

type cacheErrorHooks struct {
	observability.NoopCacheHooks
	mu     sync.Mutex
	failed []string
}

func (h *cacheErrorHooks) OnCacheError(_ context.Context, keyType string, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failed = append(h.failed, keyType)
}

func TestStepStoreFailure(t *testing.T) {
	hooks := &cacheErrorHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	f := newFixture(t, scene.NewCamera(200, 100))
	store := extract.NewStore(downCache{cache.NewNullCache()}, nil, time.Hour)
	r, _ := NewRunner(f.w, Options{SceneName: "menu", Store: store})
	defer r.Close()

	for tick := uint64(1); tick <= 2; tick++ {
		res, err := r.Step(context.Background())
		if err != nil {
			t.Fatalf("Step() error = %v, want nil", err)
		}
		if res.Tick != tick {
			t.Errorf("Tick = %d, want %d", res.Tick, tick)
		}
		if !errors.Is(res.StoreErr, errors.ErrCodeNetwork) {
			t.Errorf("StoreErr = %v, want network error", res.StoreErr)
		}
		if r.Last() != res.Snapshot {
			t.Error("Last() should return the unpersisted snapshot")
		}
	}
	if f.w.Tick() != 3 {
		t.Errorf("world Tick() = %d, want 3", f.w.Tick())
	}
	if got := translation(f.w, f.child); !got.ApproxEqual(mgl32.Vec3{-65, 15, 0}) {
		t.Errorf("child translation = %v, want [-65 15 0]", got)
	}
	if len(hooks.failed) != 2 || hooks.failed[0] != "snapshot" {
		t.Errorf("cache errors = %v, want two snapshot failures", hooks.failed)
	}
}

func TestStepNodeReAdded(t *testing.T) {
	tests := []struct {
		name  string
		style layout.Style
		want  mgl32.Vec3
	}{
		{"same geometry", box(10, 10, 50, 50), mgl32.Vec3{-65, 15, 0}},
		{"moved", box(20, 30, 50, 50), mgl32.Vec3{-55, -5, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, scene.NewCamera(200, 100))
			r, _ := NewRunner(f.w, Options{})
			defer r.Close()
			ctx := context.Background()

			if _, err := r.Step(ctx); err != nil {
				t.Fatal(err)
			}
			if err := f.w.RemoveNode(f.child); err != nil {
				t.Fatal(err)
			}
			if err := f.w.InsertNode(f.child, scene.Node{Style: tt.style}); err != nil {
				t.Fatal(err)
			}
			for i := 0; i < 2; i++ {
				if _, err := r.Step(ctx); err != nil {
					t.Fatal(err)
				}
				if got := translation(f.w, f.child); !got.ApproxEqual(tt.want) {
					t.Errorf("frame %d: child translation = %v, want %v", i+2, got, tt.want)
				}
			}
		})
	}
}
