package layout

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mattn/go-runewidth"
)

// Optional is a float that may be absent.
type Optional struct {
	Value float32
	Set   bool
}

// Some returns a present Optional.
func Some(v float32) Optional { return Optional{Value: v, Set: true} }

// Or returns the value if present, otherwise fallback.
func (o Optional) Or(fallback float32) float32 {
	if o.Set {
		return o.Value
	}
	return fallback
}

// AvailableKind tells a measure how much room it has along one axis.
type AvailableKind uint8

const (
	// Definite means Value is the available length.
	Definite AvailableKind = iota
	// MinContent asks for the smallest size the content can take.
	MinContent
	// MaxContent asks for the size the content takes without constraints.
	MaxContent
)

// AvailableSpace is the space offered to a measure along one axis.
type AvailableSpace struct {
	Kind  AvailableKind
	Value float32
}

// Limit returns the definite length, or +Inf when unconstrained.
func (a AvailableSpace) Limit() float32 {
	switch a.Kind {
	case Definite:
		return a.Value
	case MinContent:
		return 0
	default:
		return float32(math.Inf(1))
	}
}

// MeasureArgs is what the solver knows about a node when it asks for its
// content size.
type MeasureArgs struct {
	KnownWidth      Optional
	KnownHeight     Optional
	AvailableWidth  AvailableSpace
	AvailableHeight AvailableSpace
	// Context is the per-compute measurement context; it may be nil.
	Context *MeasureContext
}

// MeasureContext carries shared measurement services for one computation.
type MeasureContext struct {
	Text TextMeasurer
}

// TextMeasurer sizes a run of text.
type TextMeasurer interface {
	MeasureText(text string, fontSize float32, maxWidth AvailableSpace) mgl32.Vec2
}

// Measure supplies the content size of a leaf node. Implementations must be
// safe to Clone; the layout tree keeps its own clone.
type Measure interface {
	Measure(args MeasureArgs, style *Style) mgl32.Vec2
	Clone() Measure
}

// BufferResolver is implemented by measures whose content lives in an
// external buffer (for example shaped text). The layout tree does not call it.
type BufferResolver interface {
	ResolveBuffer(lookup func(key string) (string, bool)) bool
}

// measureOrZero evaluates m, treating an absent measure as empty content.
func measureOrZero(m Measure, args MeasureArgs, style *Style) mgl32.Vec2 {
	if m == nil {
		return mgl32.Vec2{}
	}
	return m.Measure(args, style)
}

// =============================================================================
// Built-in measures
// =============================================================================

// FixedMeasure reports a constant content size, overridden per axis by any
// dimension the solver already knows.
type FixedMeasure struct {
	Size mgl32.Vec2
}

// Measure implements [Measure].
func (m *FixedMeasure) Measure(args MeasureArgs, _ *Style) mgl32.Vec2 {
	return mgl32.Vec2{args.KnownWidth.Or(m.Size.X()), args.KnownHeight.Or(m.Size.Y())}
}

// Clone implements [Measure].
func (m *FixedMeasure) Clone() Measure {
	c := *m
	return &c
}

// TextMeasure sizes a text run through the context's [TextMeasurer]. Without
// a measurer it reports zero.
type TextMeasure struct {
	Text     string
	FontSize float32
	// Buffer names external text content resolved by ResolveBuffer.
	Buffer string
}

// Measure implements [Measure].
func (m *TextMeasure) Measure(args MeasureArgs, _ *Style) mgl32.Vec2 {
	if args.KnownWidth.Set && args.KnownHeight.Set {
		return mgl32.Vec2{args.KnownWidth.Value, args.KnownHeight.Value}
	}
	if args.Context == nil || args.Context.Text == nil {
		return mgl32.Vec2{args.KnownWidth.Or(0), args.KnownHeight.Or(0)}
	}

	avail := args.AvailableWidth
	if args.KnownWidth.Set {
		avail = AvailableSpace{Kind: Definite, Value: args.KnownWidth.Value}
	}
	size := args.Context.Text.MeasureText(m.Text, m.FontSize, avail)
	return mgl32.Vec2{args.KnownWidth.Or(size.X()), args.KnownHeight.Or(size.Y())}
}

// Clone implements [Measure].
func (m *TextMeasure) Clone() Measure {
	c := *m
	return &c
}

// ResolveBuffer implements [BufferResolver]: it replaces Text with the
// buffer's content when the lookup knows it.
func (m *TextMeasure) ResolveBuffer(lookup func(key string) (string, bool)) bool {
	if m.Buffer == "" {
		return false
	}
	text, ok := lookup(m.Buffer)
	if ok {
		m.Text = text
	}
	return ok
}

// =============================================================================
// Monospace text measurer
// =============================================================================

// MonospaceMeasurer measures text on a fixed grid: each terminal cell (as
// reported by go-runewidth) is CellWidth*fontSize wide and each line
// LineHeight*fontSize tall. Lines wrap greedily at word boundaries.
type MonospaceMeasurer struct {
	CellWidth  float32
	LineHeight float32
}

// NewMonospaceMeasurer returns a measurer with typical monospace metrics.
func NewMonospaceMeasurer() *MonospaceMeasurer {
	return &MonospaceMeasurer{CellWidth: 0.6, LineHeight: 1.2}
}

// MeasureText implements [TextMeasurer].
func (m *MonospaceMeasurer) MeasureText(text string, fontSize float32, maxWidth AvailableSpace) mgl32.Vec2 {
	if text == "" || fontSize <= 0 {
		return mgl32.Vec2{}
	}
	cell := m.CellWidth * fontSize
	if cell <= 0 {
		return mgl32.Vec2{}
	}

	maxCells := math.MaxInt
	switch maxWidth.Kind {
	case Definite:
		maxCells = cellsIn(maxWidth.Value / cell)
	case MinContent:
		maxCells = 1
	}

	lines := wrapCells(text, maxCells)
	widest := 0
	for _, w := range lines {
		widest = max(widest, w)
	}
	return mgl32.Vec2{float32(widest) * cell, float32(len(lines)) * m.LineHeight * fontSize}
}

// cellsIn converts a width in cells to a line capacity of at least one.
// Widths beyond the int range, including +Inf and NaN, are unbounded.
func cellsIn(w float32) int {
	c := float64(w)
	switch {
	case c < 1:
		return 1
	case c >= math.MaxInt || math.IsNaN(c):
		return math.MaxInt
	}
	return int(c)
}

// wrapCells greedily wraps text at spaces so each line fits in maxCells
// cells where possible, returning the cell width of every line. Words wider
// than a line get a line of their own.
func wrapCells(text string, maxCells int) []int {
	var lines []int
	for _, para := range strings.Split(text, "\n") {
		line := 0
		for _, word := range strings.Fields(para) {
			w := runewidth.StringWidth(word)
			switch {
			case line == 0:
				line = w
			case line+1+w <= maxCells:
				line += 1 + w
			default:
				lines = append(lines, line)
				line = w
			}
		}
		lines = append(lines, line)
	}
	return lines
}
