package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/moonlayout/pkg/debugviz"
	"github.com/matzehuels/moonlayout/pkg/errors"
	"github.com/matzehuels/moonlayout/pkg/frame"
)

// Output formats of the tree command.
const (
	formatText = "text"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

type treeOpts struct {
	frames   int
	format   string
	camera   string
	output   string
	detailed bool
}

// treeCommand creates the tree command.
func (c *CLI) treeCommand() *cobra.Command {
	var opts treeOpts

	cmd := &cobra.Command{
		Use:   "tree <scene.toml>",
		Short: "Print the solver tree or a camera's stack",
		Long: `Tree runs the scene and prints the resulting solver tree as an indented
outline, Graphviz DOT or SVG. With --camera it draws that camera's
paint-order stack instead.`,
		Example: `  moonlayout tree examples/menu.toml
  moonlayout tree examples/menu.toml --format svg -o tree.svg --detailed
  moonlayout tree examples/menu.toml --camera main --format dot`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSceneFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.tree(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.frames, "frames", "n", frame.DefaultFrames, "number of frames to run first")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format: text, dot or svg")
	cmd.Flags().StringVar(&opts.camera, "camera", "", "draw this camera's stack instead of the solver tree")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include geometry and style in DOT labels")

	return cmd
}

func (c *CLI) tree(cmd *cobra.Command, path string, opts treeOpts) error {
	switch opts.format {
	case formatText, formatDOT, formatSVG:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: text, dot, svg)", opts.format)
	}

	f, w, err := loadScene(path)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(f, w, path, frame.Options{Frames: opts.frames, Logger: loggerFromContext(cmd.Context())})
	if err != nil {
		return err
	}
	defer runner.Close()
	if _, err := runner.Run(cmd.Context(), opts.frames); err != nil {
		return err
	}

	var out []byte
	if opts.camera != "" {
		cam, ok := w.Lookup(opts.camera)
		if !ok {
			return errors.New(errors.ErrCodeNotFound, "camera %q not found", opts.camera)
		}
		st, ok := runner.Stacks.Get(cam)
		if !ok {
			return errors.New(errors.ErrCodeNotFound, "camera %q sees no layout nodes", opts.camera)
		}
		if opts.format == formatText {
			out = []byte(renderStackTable(w, st) + "\n")
		} else {
			out = []byte(debugviz.StackDOT(st, w))
		}
	} else if opts.format == formatText {
		out = []byte(debugviz.TreeText(runner.Tree, w))
	} else {
		out = []byte(debugviz.TreeDOT(runner.Tree, w, debugviz.Options{Detailed: opts.detailed}))
	}

	if opts.format == formatSVG {
		if out, err = debugviz.RenderSVG(cmd.Context(), string(out)); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "render svg")
		}
	}

	if opts.output == "" {
		_, err := cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(opts.output, out, 0644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printFile(opts.output)
	return nil
}
