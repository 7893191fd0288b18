// Package debugviz renders the layout tree and paint-order stacks for
// debugging.
//
// [TreeText] prints the solver tree as an indented outline with each
// node's computed geometry. [TreeDOT] and [StackDOT] produce Graphviz DOT
// source, which [RenderSVG] turns into SVG in process:
//
//	dot := debugviz.TreeDOT(runner.Tree, world, debugviz.Options{Detailed: true})
//	svg, err := debugviz.RenderSVG(dot)
//
// # Dependencies
//
// SVG output uses [github.com/goccy/go-graphviz], a WebAssembly build of
// Graphviz, so no system installation is needed.
package debugviz
