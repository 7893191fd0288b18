// Package frame runs the per-frame layout pass over a [scene.World].
//
// A frame executes these phases in order:
//
//  1. stack: rebuild every camera's paint-order stack ([stack.Build])
//  2. sync: push added and modified nodes into the solver ([treesync.Sync])
//  3. cleanup: apply the frame's removal streams ([treesync.Cleanup])
//  4. compute: solve each camera's roots against its viewport
//  5. propagate: write solver geometry back into the scene ([geometry.Propagate])
//  6. extract: capture an immutable [extract.Snapshot]
//
// The world then advances to the next frame so change ticks reset.
//
// # Usage
//
//	runner, err := frame.NewRunner(world, frame.Options{SceneName: "menu"})
//	if err != nil {
//	    return err
//	}
//	defer runner.Close()
//	res, err := runner.Step(ctx)
//	fmt.Println(res.Stats.Stacked, res.Snapshot.Nodes)
package frame

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/moonlayout/pkg/cache"
	"github.com/matzehuels/moonlayout/pkg/errors"
	"github.com/matzehuels/moonlayout/pkg/extract"
	"github.com/matzehuels/moonlayout/pkg/layout"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultFrames is the number of frames Run executes when unset.
	DefaultFrames = 1

	// DefaultPointScaleFactor rounds layout to whole points.
	DefaultPointScaleFactor = 1

	// DefaultSceneName names snapshots when the scene has no name.
	DefaultSceneName = "scene"

	// MaxFrames bounds a single Run.
	MaxFrames = 100_000
)

// Options configures a [Runner].
type Options struct {
	Frames           int     `json:"frames,omitempty"`
	PointScaleFactor float32 `json:"point_scale_factor,omitempty"`
	SceneName        string  `json:"scene,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger         `json:"-"`
	Store  *extract.Store      `json:"-"`
	Text   layout.TextMeasurer `json:"-"`
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.Frames == 0 {
		o.Frames = DefaultFrames
	}
	if o.PointScaleFactor == 0 {
		o.PointScaleFactor = DefaultPointScaleFactor
	}
	if o.SceneName == "" {
		o.SceneName = DefaultSceneName
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Text == nil {
		o.Text = layout.NewMonospaceMeasurer()
	}
}

// Validate checks option ranges. Call after SetDefaults.
func (o *Options) Validate() error {
	if o.Frames < 1 || o.Frames > MaxFrames {
		return errors.New(errors.ErrCodeInvalidInput, "frames must be between 1 and %d, got %d", MaxFrames, o.Frames)
	}
	if o.PointScaleFactor < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "point scale factor must not be negative, got %g", o.PointScaleFactor)
	}
	if err := errors.ValidateName(o.SceneName); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "scene name")
	}
	return nil
}

// RunKeyOpts returns the options that identify a run for caching.
func (o *Options) RunKeyOpts() cache.RunKeyOpts {
	return cache.RunKeyOpts{Frames: o.Frames, PointScaleFactor: o.PointScaleFactor}
}

// String summarises the options for logs.
func (o Options) String() string {
	return fmt.Sprintf("scene=%s frames=%d scale=%g", o.SceneName, o.Frames, o.PointScaleFactor)
}
