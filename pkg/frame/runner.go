package frame

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/moonlayout/pkg/errors"
	"github.com/matzehuels/moonlayout/pkg/extract"
	"github.com/matzehuels/moonlayout/pkg/geometry"
	"github.com/matzehuels/moonlayout/pkg/layout"
	"github.com/matzehuels/moonlayout/pkg/observability"
	"github.com/matzehuels/moonlayout/pkg/scene"
	"github.com/matzehuels/moonlayout/pkg/stack"
	"github.com/matzehuels/moonlayout/pkg/treesync"
)

// Phase names reported to observability hooks.
const (
	PhaseStack     = "stack"
	PhaseSync      = "sync"
	PhaseCleanup   = "cleanup"
	PhaseCompute   = "compute"
	PhasePropagate = "propagate"
	PhaseExtract   = "extract"
)

// Runner owns the layout tree and stack map of one world and steps it
// frame by frame. A Runner is not safe for concurrent use.
type Runner struct {
	World  *scene.World
	Tree   *layout.Tree
	Stacks *stack.Map

	opts   Options
	logger *log.Logger
	mctx   *layout.MeasureContext
	last   *extract.Snapshot
}

// Result is the outcome of one frame.
type Result struct {
	ID   uuid.UUID
	Tick uint64
	// Snapshot stays valid until the next Step or Close.
	Snapshot *extract.Snapshot
	// StoreErr is set when the snapshot could not be persisted. The frame
	// itself still completed.
	StoreErr error
	Stats    Stats
}

// Stats contains frame execution statistics.
type Stats struct {
	Cameras   int // stacks built
	Stacked   int // entities across all stacks
	TreeNodes int // solver nodes after cleanup
	Computed  int // roots solved

	Sync     treesync.SyncStats
	Cleanup  treesync.CleanupStats
	Geometry geometry.Stats

	StackTime     time.Duration
	SyncTime      time.Duration
	CleanupTime   time.Duration
	ComputeTime   time.Duration
	PropagateTime time.Duration
	ExtractTime   time.Duration
	Total         time.Duration
}

// NewRunner validates opts and creates a runner over w.
func NewRunner(w *scene.World, opts Options) (*Runner, error) {
	if w == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "world is required")
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Runner{
		World:  w,
		Tree:   layout.NewTree(layout.Options{PointScaleFactor: opts.PointScaleFactor}),
		Stacks: stack.NewMap(),
		opts:   opts,
		logger: opts.Logger,
		mctx:   &layout.MeasureContext{Text: opts.Text},
	}, nil
}

// Options returns the runner's effective options.
func (r *Runner) Options() Options { return r.opts }

// Last returns the snapshot of the most recent frame, or nil.
func (r *Runner) Last() *extract.Snapshot { return r.last }

// Step runs one frame. An invariant violation aborts the frame before the
// world advances; the tree may then hold a partial update. A snapshot that
// cannot be stored is reported in Result.StoreErr and does not fail the frame.
func (r *Runner) Step(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{ID: uuid.New(), Tick: r.World.Tick()}
	frameID := res.ID.String()
	hooks := observability.Frame()
	start := time.Now()
	hooks.OnFrameStart(ctx, frameID, res.Tick)

	err := r.step(ctx, res)
	res.Stats.Total = time.Since(start)
	hooks.OnFrameComplete(ctx, frameID, res.Tick, res.Stats.Total, err)
	if err != nil {
		r.logger.Error("frame failed", "tick", res.Tick, "err", err)
		return nil, err
	}

	r.logger.Debug("frame complete",
		"tick", res.Tick,
		"cameras", res.Stats.Cameras,
		"stacked", res.Stats.Stacked,
		"upserted", res.Stats.Sync.Upserted,
		"removed", res.Stats.Cleanup.Removed,
		"transforms", res.Stats.Geometry.TransformsWritten,
		"duration", res.Stats.Total)

	r.World.AdvanceFrame()
	return res, nil
}

func (r *Runner) step(ctx context.Context, res *Result) error {
	s := &res.Stats
	frameID := res.ID.String()

	err := r.phase(ctx, frameID, PhaseStack, &s.StackTime, func() error {
		s.Stacked = stack.Build(r.World, r.Stacks)
		s.Cameras = r.Stacks.Len()
		return nil
	})
	if err != nil {
		return err
	}

	err = r.phase(ctx, frameID, PhaseSync, &s.SyncTime, func() (err error) {
		s.Sync, err = treesync.Sync(r.World, r.Tree, r.Stacks)
		return err
	})
	if err != nil {
		return err
	}

	err = r.phase(ctx, frameID, PhaseCleanup, &s.CleanupTime, func() (err error) {
		s.Cleanup, err = treesync.Cleanup(r.World, r.Tree)
		s.TreeNodes = r.Tree.Len()
		return err
	})
	if err != nil {
		return err
	}

	if err := r.solve(ctx, frameID, s); err != nil {
		return err
	}

	return r.phase(ctx, frameID, PhaseExtract, &s.ExtractTime, func() error {
		snap := extract.Extract(r.World, r.Stacks, r.opts.SceneName, res.ID)
		if r.last != nil {
			r.last.Release()
		}
		r.last = snap
		res.Snapshot = snap
		if r.opts.Store == nil {
			return nil
		}
		if err := r.opts.Store.Put(ctx, snap); err != nil {
			res.StoreErr = err
			r.logger.Warn("snapshot not stored", "tick", res.Tick, "err", err)
		}
		return nil
	})
}

// solve computes and propagates every camera's roots. Cameras that have
// gone away since the stacks were built are skipped; a camera without a
// viewport solves against zero size.
func (r *Runner) solve(ctx context.Context, frameID string, s *Stats) error {
	var computeTime, propagateTime time.Duration
	hooks := observability.Frame()

	for _, cam := range r.Stacks.Cameras() {
		c, ok := r.World.Camera(cam)
		if !ok {
			continue
		}
		st, _ := r.Stacks.Get(cam)
		viewport := c.ViewportSize()

		for _, root := range st.Roots {
			t := time.Now()
			if err := r.Tree.Compute(root, viewport, r.mctx); err != nil {
				hooks.OnPhaseComplete(ctx, frameID, PhaseCompute, time.Since(t), err)
				return errors.Wrap(codeOf(err), err, "compute %s for camera %s", r.World.Label(root), r.World.Label(cam))
			}
			computeTime += time.Since(t)
			s.Computed++

			t = time.Now()
			gs, err := geometry.Propagate(r.World, r.Tree, st, root)
			if err != nil {
				hooks.OnPhaseComplete(ctx, frameID, PhasePropagate, time.Since(t), err)
				return errors.Wrap(codeOf(err), err, "propagate %s", r.World.Label(root))
			}
			propagateTime += time.Since(t)
			s.Geometry.Add(gs)
		}
	}

	s.ComputeTime, s.PropagateTime = computeTime, propagateTime
	hooks.OnPhaseComplete(ctx, frameID, PhaseCompute, computeTime, nil)
	hooks.OnPhaseComplete(ctx, frameID, PhasePropagate, propagateTime, nil)
	return nil
}

func (r *Runner) phase(ctx context.Context, frameID, name string, d *time.Duration, fn func() error) error {
	start := time.Now()
	err := fn()
	*d = time.Since(start)
	observability.Frame().OnPhaseComplete(ctx, frameID, name, *d, err)
	if err != nil {
		return errors.Wrap(codeOf(err), err, "%s phase", name)
	}
	return nil
}

func codeOf(err error) errors.Code {
	if code := errors.GetCode(err); code != "" {
		return code
	}
	return errors.ErrCodeInternal
}

// Run steps n frames, or Options.Frames when n is zero, and returns the
// last result. Cancellation is checked between frames.
func (r *Runner) Run(ctx context.Context, n int) (*Result, error) {
	if n <= 0 {
		n = r.opts.Frames
	}
	var last *Result
	for i := 0; i < n; i++ {
		res, err := r.Step(ctx)
		if err != nil {
			return last, err
		}
		last = res
	}
	r.logger.Info("run complete", "scene", r.opts.SceneName, "frames", n, "tree_nodes", r.Tree.Len())
	return last, nil
}

// Close releases the last snapshot.
func (r *Runner) Close() error {
	if r.last != nil {
		r.last.Release()
		r.last = nil
	}
	return nil
}
