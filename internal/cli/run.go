package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/moonlayout/pkg/cache"
	"github.com/matzehuels/moonlayout/pkg/errors"
	"github.com/matzehuels/moonlayout/pkg/extract"
	"github.com/matzehuels/moonlayout/pkg/frame"
	"github.com/matzehuels/moonlayout/pkg/scene"
)

// runOpts holds the flags of the run command.
type runOpts struct {
	frames  int
	scale   float32
	jsonOut string
	reuse   bool
	quiet   bool
}

// runCommand creates the run command.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run <scene.toml>",
		Short: "Run layout frames over a scene and print the result",
		Long: `Run loads a scene file, steps the requested number of frames and prints each
camera's paint-order stack and the solved geometry of every visible node.

The last snapshot is written to the snapshot store (see --store).`,
		Example: `  moonlayout run examples/menu.toml
  moonlayout run examples/menu.toml --frames 3 --json menu.json
  moonlayout run examples/menu.toml --store redis --redis-addr localhost:6379`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSceneFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScene(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.frames, "frames", "n", frame.DefaultFrames, "number of frames to run")
	cmd.Flags().Float32Var(&opts.scale, "scale", frame.DefaultPointScaleFactor, "point scale factor for rounding (0 disables)")
	cmd.Flags().StringVarP(&opts.jsonOut, "json", "o", "", "write the last snapshot as JSON to this file")
	cmd.Flags().BoolVar(&opts.reuse, "reuse", false, "reuse a stored result for an identical scene and options")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "only print the summary line")

	return cmd
}

func (c *CLI) runScene(cmd *cobra.Command, path string, opts runOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	f, w, err := loadScene(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	sceneHash := cache.Hash(data)

	store, ch, err := c.connectStore(cmd)
	if err != nil {
		return err
	}
	defer ch.Close()

	runner, err := c.newRunner(f, w, path, frame.Options{
		Frames:           opts.frames,
		PointScaleFactor: opts.scale,
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	defer runner.Close()
	keyOpts := runner.Options().RunKeyOpts()

	if opts.reuse {
		snap, err := store.Run(ctx, sceneHash, keyOpts)
		if err == nil {
			defer snap.Release()
			printSuccess("Reused stored result for %s", StyleValue.Render(path))
			printDetail("frame %d · snapshot %s", snap.Frame, snap.ID)
			if !opts.quiet {
				printSnapshot(w, snap)
			}
			return writeSnapshotJSON(snap, opts.jsonOut)
		}
		if !errors.IsNotFound(err) {
			logger.Warn("stored result unavailable", "err", err)
		}
	}

	prog := newProgress(logger)
	sp := newSpinnerWithContext(ctx, "Running frames...")
	if opts.frames > 1 && !opts.quiet {
		restore := trackFrames(sp, opts.frames)
		defer restore()
		sp.Start()
	}
	res, err := runner.Run(ctx, opts.frames)
	sp.Stop()
	if err != nil {
		printError("%s", errors.UserMessage(err))
		return err
	}
	prog.done("ran frames", "scene", runner.Options().SceneName, "frames", opts.frames, "tree_nodes", runner.Tree.Len())

	printSuccess("Ran %s frame(s) of %s", StyleNumber.Render(fmt.Sprint(opts.frames)), StyleValue.Render(path))
	fmt.Println(renderFrameStats(res, false))
	if !opts.quiet {
		printStacks(w, runner)
		fmt.Println()
		fmt.Println(renderNodeTable(w, res.Snapshot))
	}

	if err := store.Put(ctx, res.Snapshot); err != nil {
		logger.Warn("snapshot not stored", "err", err)
	} else if err := store.PutRun(ctx, sceneHash, keyOpts, res.Snapshot); err != nil {
		logger.Warn("run result not stored", "err", err)
	}

	if err := writeSnapshotJSON(res.Snapshot, opts.jsonOut); err != nil {
		return err
	}
	if opts.jsonOut == "" && !opts.quiet {
		fmt.Println()
		printNextStep("Inspect the solver tree", fmt.Sprintf("%s tree %s", appName, path))
	}
	return nil
}

// connectStore opens the snapshot store, showing a spinner for remote
// backends.
func (c *CLI) connectStore(cmd *cobra.Command) (*extract.Store, cache.Cache, error) {
	remote := c.store.backend == storeRedis || c.store.backend == storeMongo
	var sp *Spinner
	if remote {
		sp = newSpinnerWithContext(cmd.Context(), "Connecting to "+c.store.backend+"...")
		sp.Start()
	}
	store, ch, err := c.openStore(cmd.Context())
	if sp != nil {
		if err != nil {
			sp.StopWithError("Could not connect to " + c.store.backend)
		} else {
			sp.Stop()
		}
	}
	if err != nil {
		return nil, nil, err
	}
	return store, ch, nil
}

func printStacks(w *scene.World, runner *frame.Runner) {
	for _, cam := range runner.Stacks.Cameras() {
		st, _ := runner.Stacks.Get(cam)
		fmt.Println()
		fmt.Println(cameraTitle(w, cam))
		fmt.Println(renderStackTable(w, st))
	}
}

func printSnapshot(w *scene.World, snap *extract.Snapshot) {
	if snap.Stacks != nil {
		for _, cam := range snap.Stacks.Cameras() {
			st, _ := snap.Stacks.Get(cam)
			fmt.Println()
			fmt.Println(cameraTitle(w, cam))
			fmt.Println(renderStackTable(w, st))
		}
	}
	fmt.Println()
	fmt.Println(renderNodeTable(w, snap))
}

// writeSnapshotJSON writes snap as indented JSON when path is set.
func writeSnapshotJSON(snap *extract.Snapshot, path string) error {
	if path == "" {
		return nil
	}
	data, err := extract.Encode(snap)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "write %s", path)
	}
	printFile(path)
	return nil
}
