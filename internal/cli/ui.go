package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/moonlayout/pkg/ecs"
	"github.com/matzehuels/moonlayout/pkg/extract"
	"github.com/matzehuels/moonlayout/pkg/frame"
	"github.com/matzehuels/moonlayout/pkg/scene"
	"github.com/matzehuels/moonlayout/pkg/stack"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleTableHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleTableBorder = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

// printError prints an error message.
func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Frame Output
// =============================================================================

// renderFrameStats renders a frame's counters on a single line.
func renderFrameStats(res *frame.Result, cached bool) string {
	s := res.Stats
	parts := []string{
		fmt.Sprintf("frame %d", res.Tick),
		fmt.Sprintf("%d cameras", s.Cameras),
		fmt.Sprintf("%d stacked", s.Stacked),
		fmt.Sprintf("%d upserted", s.Sync.Upserted),
		fmt.Sprintf("%d moved", s.Geometry.TransformsWritten),
		s.Total.Round(time.Microsecond).String(),
	}

	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	return line + StyleDim.Render(" · ") + statusStyle.Render(status)
}

// renderStackTable renders one camera's paint order.
func renderStackTable(w *scene.World, st *stack.Stack) string {
	rangeOf := make([]int, len(st.Entities))
	for i, r := range st.Ranges {
		for j := r.Start; j < r.End; j++ {
			rangeOf[j] = i
		}
	}

	rows := make([][]string, len(st.Entities))
	for i, e := range st.Entities {
		rows[i] = []string{
			strconv.Itoa(i),
			w.Label(e),
			e.String(),
			strconv.Itoa(rangeOf[i]),
			fmtFloat(w.GlobalZ(e)),
		}
	}
	return newTable("#", "Entity", "Id", "Range", "Z").Rows(rows...).Render()
}

// renderNodeTable renders the extracted geometry of a snapshot.
func renderNodeTable(w *scene.World, snap *extract.Snapshot) string {
	var rows [][]string
	for _, e := range snap.Entities() {
		n := snap.Nodes[e]
		rows = append(rows, []string{
			label(w, n),
			fmtVec2(n.Location),
			fmtVec2(n.Size),
			fmtVec2(n.Translation.Vec2()),
			fmtFloat(n.Translation.Z()),
		})
	}
	return newTable("Entity", "Location", "Size", "Translation", "Z").Rows(rows...).Render()
}

func label(w *scene.World, n extract.NodeState) string {
	if n.Name != "" {
		return n.Name
	}
	if w != nil {
		return w.Label(n.Entity)
	}
	return n.Entity.String()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		})
}

// cameraTitle renders a camera heading with its viewport size.
func cameraTitle(w *scene.World, cam ecs.Entity) string {
	title := "camera " + w.Label(cam)
	if c, ok := w.Camera(cam); ok {
		if c.Viewport == nil {
			title += StyleDim.Render(" (no viewport)")
		} else {
			size := c.ViewportSize()
			title += StyleDim.Render(fmt.Sprintf(" (%sx%s)", fmtFloat(size.X()), fmtFloat(size.Y())))
		}
	}
	return StyleTitle.Render(title)
}

func fmtFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

func fmtVec2(v mgl32.Vec2) string {
	return fmtFloat(v.X()) + ", " + fmtFloat(v.Y())
}
