package debugviz

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/moonlayout/pkg/layout"
	"github.com/matzehuels/moonlayout/pkg/scene"
	"github.com/matzehuels/moonlayout/pkg/stack"
)

// Options configures DOT output.
type Options struct {
	// Detailed adds geometry and style to node labels.
	Detailed bool
}

// TreeText renders every solver tree as an indented outline.
func TreeText(tree *layout.Tree, w *scene.World) string {
	var buf bytes.Buffer
	type entry struct {
		id    layout.NodeID
		depth int
	}
	var work []entry
	roots := tree.Roots()
	for i := len(roots) - 1; i >= 0; i-- {
		work = append(work, entry{id: roots[i]})
	}
	for len(work) > 0 {
		e := work[len(work)-1]
		work = work[:len(work)-1]

		fmt.Fprintf(&buf, "%s%s\n", strings.Repeat("  ", e.depth), nodeLine(tree, w, e.id))
		kids := tree.Children(e.id)
		for i := len(kids) - 1; i >= 0; i-- {
			work = append(work, entry{id: kids[i], depth: e.depth + 1})
		}
	}
	return buf.String()
}

func nodeLine(tree *layout.Tree, w *scene.World, id layout.NodeID) string {
	ent, _ := tree.Entity(id)
	line := w.Label(ent)
	if tree.IsMeasured(id) {
		line += " [measured]"
	}
	if g, err := tree.Layout(ent); err == nil {
		line += fmt.Sprintf(" pos=(%g, %g) size=(%g, %g)", g.Location.X(), g.Location.Y(), g.Size.X(), g.Size.Y())
	}
	return line
}

// TreeDOT converts the solver tree to Graphviz DOT.
func TreeDOT(tree *layout.Tree, w *scene.World, opts Options) string {
	var buf bytes.Buffer
	header(&buf, "TB")

	var edges [][2]layout.NodeID
	work := tree.Roots()
	seen := make(map[layout.NodeID]bool)
	for len(work) > 0 {
		id := work[0]
		work = work[1:]
		if seen[id] {
			continue
		}
		seen[id] = true

		label := treeLabel(tree, w, id, opts.Detailed)
		attrs := []string{fmt.Sprintf("label=%q", label)}
		if tree.IsMeasured(id) {
			attrs = append(attrs, "fillcolor=lightyellow")
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", id, strings.Join(attrs, ", "))

		for _, c := range tree.Children(id) {
			edges = append(edges, [2]layout.NodeID{id, c})
			work = append(work, c)
		}
	}

	buf.WriteString("\n")
	for _, e := range edges {
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", e[0], e[1])
	}
	buf.WriteString("}\n")
	return buf.String()
}

func treeLabel(tree *layout.Tree, w *scene.World, id layout.NodeID, detailed bool) string {
	ent, _ := tree.Entity(id)
	label := w.Label(ent)
	if !detailed {
		return label
	}
	parts := []string{label}
	if g, err := tree.Layout(ent); err == nil {
		parts = append(parts,
			fmt.Sprintf("pos: %g, %g", g.Location.X(), g.Location.Y()),
			fmt.Sprintf("size: %g x %g", g.Size.X(), g.Size.Y()))
	}
	if n, ok := w.Node(ent); ok {
		parts = append(parts, fmt.Sprintf("%s %s", n.Style.Position, n.Style.FlexDirection))
	}
	return strings.Join(parts, "\n")
}

// StackDOT draws one camera's paint order left to right, one cluster per
// sibling range.
func StackDOT(st *stack.Stack, w *scene.World) string {
	var buf bytes.Buffer
	header(&buf, "LR")

	for i, r := range st.Ranges {
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", fmt.Sprintf("range %d..%d", r.Start, r.End))
		buf.WriteString("    style=dashed;\n")
		for j, e := range st.Slice(r) {
			fmt.Fprintf(&buf, "    s%d [label=%q];\n", r.Start+j, fmt.Sprintf("%d: %s", r.Start+j, w.Label(e)))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for i := 1; i < len(st.Entities); i++ {
		fmt.Fprintf(&buf, "  s%d -> s%d;\n", i-1, i)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func header(buf *bytes.Buffer, rankdir string) {
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")
}
