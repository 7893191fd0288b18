package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kjk/flex"
)

// =============================================================================
// Dimensions
// =============================================================================

// Unit is the unit of a [Dimension].
type Unit uint8

const (
	// UnitAuto lets the solver decide. It is the zero value.
	UnitAuto Unit = iota
	// UnitPoints is an absolute length in logical pixels.
	UnitPoints
	// UnitPercent is a fraction (0..1) of the parent's size.
	UnitPercent
)

// Dimension is a length that may be absolute, relative or automatic.
type Dimension struct {
	Value float32
	Unit  Unit
}

// Auto returns an automatic dimension.
func Auto() Dimension { return Dimension{Unit: UnitAuto} }

// Points returns an absolute dimension.
func Points(v float32) Dimension { return Dimension{Value: v, Unit: UnitPoints} }

// Percent returns a dimension relative to the parent; 0.5 means half.
func Percent(fraction float32) Dimension { return Dimension{Value: fraction, Unit: UnitPercent} }

// IsAuto reports whether d is automatic.
func (d Dimension) IsAuto() bool { return d.Unit == UnitAuto }

// String renders d as "auto", "12px" or "50%".
func (d Dimension) String() string {
	switch d.Unit {
	case UnitPoints:
		return strconv.FormatFloat(float64(d.Value), 'f', -1, 32) + "px"
	case UnitPercent:
		return strconv.FormatFloat(float64(d.Value*100), 'f', -1, 32) + "%"
	default:
		return "auto"
	}
}

// ParseDimension parses "auto", "12", "12px" or "50%".
func ParseDimension(s string) (Dimension, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "auto" || s == "":
		return Auto(), nil
	case strings.HasSuffix(s, "%"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 32)
		if err != nil {
			return Dimension{}, fmt.Errorf("invalid percentage %q", s)
		}
		return Percent(float32(v) / 100), nil
	default:
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 32)
		if err != nil {
			return Dimension{}, fmt.Errorf("invalid dimension %q", s)
		}
		return Points(float32(v)), nil
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Dimension) UnmarshalText(b []byte) error {
	v, err := ParseDimension(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Dimension) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalTOML accepts bare numbers (points) as well as strings.
func (d *Dimension) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case int64:
		*d = Points(float32(x))
	case float64:
		*d = Points(float32(x))
	case string:
		return d.UnmarshalText([]byte(x))
	default:
		return fmt.Errorf("invalid dimension %v (%T)", v, v)
	}
	return nil
}

func (d Dimension) value() flex.Value {
	switch d.Unit {
	case UnitPoints:
		return flex.Value{Value: d.Value, Unit: flex.UnitPoint}
	case UnitPercent:
		return flex.Value{Value: d.Value * 100, Unit: flex.UnitPercent}
	default:
		return flex.Value{Value: flex.Undefined, Unit: flex.UnitAuto}
	}
}

// edge converts d for margin, padding and inset edges, where auto is
// undefined rather than automatic except for margins.
func (d Dimension) edge(autoMargin bool) flex.Value {
	if d.Unit == UnitAuto {
		if autoMargin {
			return flex.Value{Value: flex.Undefined, Unit: flex.UnitAuto}
		}
		return flex.Value{Value: flex.Undefined, Unit: flex.UnitUndefined}
	}
	return d.value()
}

// Size is a pair of dimensions.
type Size struct {
	Width  Dimension `toml:"width" json:"width"`
	Height Dimension `toml:"height" json:"height"`
}

// Rect holds one dimension per edge.
type Rect struct {
	Left   Dimension `toml:"left" json:"left"`
	Right  Dimension `toml:"right" json:"right"`
	Top    Dimension `toml:"top" json:"top"`
	Bottom Dimension `toml:"bottom" json:"bottom"`
}

// Uniform returns a Rect with d on every edge.
func Uniform(d Dimension) Rect { return Rect{Left: d, Right: d, Top: d, Bottom: d} }

func (r Rect) apply(dst *[flex.EdgeCount]flex.Value, autoMargin bool) {
	dst[flex.EdgeLeft] = r.Left.edge(autoMargin)
	dst[flex.EdgeRight] = r.Right.edge(autoMargin)
	dst[flex.EdgeTop] = r.Top.edge(autoMargin)
	dst[flex.EdgeBottom] = r.Bottom.edge(autoMargin)
}

// =============================================================================
// Enumerations
// =============================================================================

// Display controls whether a node takes part in layout.
type Display uint8

const (
	DisplayFlex Display = iota
	DisplayNone
)

// PositionType selects in-flow or absolute positioning.
type PositionType uint8

const (
	PositionRelative PositionType = iota
	PositionAbsolute
)

// FlexDirection is the main axis of a container.
type FlexDirection uint8

const (
	FlexDirectionRow FlexDirection = iota
	FlexDirectionColumn
	FlexDirectionRowReverse
	FlexDirectionColumnReverse
)

// FlexWrap controls line wrapping.
type FlexWrap uint8

const (
	NoWrap FlexWrap = iota
	Wrap
	WrapReverse
)

// Overflow controls how content exceeding the box is treated.
type Overflow uint8

const (
	OverflowVisible Overflow = iota
	OverflowHidden
	OverflowScroll
)

// Justify distributes items along the main axis.
type Justify uint8

const (
	JustifyStart Justify = iota
	JustifyCenter
	JustifyEnd
	JustifySpaceBetween
	JustifySpaceAround
)

// Align positions items or lines along the cross axis. AlignAuto is only
// meaningful for AlignSelf.
type Align uint8

const (
	AlignAuto Align = iota
	AlignStart
	AlignCenter
	AlignEnd
	AlignStretch
	AlignBaseline
	AlignSpaceBetween
	AlignSpaceAround
)

var (
	displayNames   = []string{"flex", "none"}
	positionNames  = []string{"relative", "absolute"}
	directionNames = []string{"row", "column", "row-reverse", "column-reverse"}
	wrapNames      = []string{"nowrap", "wrap", "wrap-reverse"}
	overflowNames  = []string{"visible", "hidden", "scroll"}
	justifyNames   = []string{"start", "center", "end", "space-between", "space-around"}
	alignNames     = []string{"auto", "start", "center", "end", "stretch", "baseline", "space-between", "space-around"}
)

func enumName(names []string, v uint8) string {
	if int(v) < len(names) {
		return names[v]
	}
	return strconv.Itoa(int(v))
}

func parseEnum(kind string, names []string, b []byte) (uint8, error) {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range names {
		if n == s {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("invalid %s %q (want one of %s)", kind, s, strings.Join(names, ", "))
}

func (v Display) String() string       { return enumName(displayNames, uint8(v)) }
func (v PositionType) String() string  { return enumName(positionNames, uint8(v)) }
func (v FlexDirection) String() string { return enumName(directionNames, uint8(v)) }
func (v FlexWrap) String() string      { return enumName(wrapNames, uint8(v)) }
func (v Overflow) String() string      { return enumName(overflowNames, uint8(v)) }
func (v Justify) String() string       { return enumName(justifyNames, uint8(v)) }
func (v Align) String() string         { return enumName(alignNames, uint8(v)) }

func (v Display) MarshalText() ([]byte, error)       { return []byte(v.String()), nil }
func (v PositionType) MarshalText() ([]byte, error)  { return []byte(v.String()), nil }
func (v FlexDirection) MarshalText() ([]byte, error) { return []byte(v.String()), nil }
func (v FlexWrap) MarshalText() ([]byte, error)      { return []byte(v.String()), nil }
func (v Overflow) MarshalText() ([]byte, error)      { return []byte(v.String()), nil }
func (v Justify) MarshalText() ([]byte, error)       { return []byte(v.String()), nil }
func (v Align) MarshalText() ([]byte, error)         { return []byte(v.String()), nil }

func (v *Display) UnmarshalText(b []byte) error {
	x, err := parseEnum("display", displayNames, b)
	*v = Display(x)
	return err
}

func (v *PositionType) UnmarshalText(b []byte) error {
	x, err := parseEnum("position", positionNames, b)
	*v = PositionType(x)
	return err
}

func (v *FlexDirection) UnmarshalText(b []byte) error {
	x, err := parseEnum("flex direction", directionNames, b)
	*v = FlexDirection(x)
	return err
}

func (v *FlexWrap) UnmarshalText(b []byte) error {
	x, err := parseEnum("flex wrap", wrapNames, b)
	*v = FlexWrap(x)
	return err
}

func (v *Overflow) UnmarshalText(b []byte) error {
	x, err := parseEnum("overflow", overflowNames, b)
	*v = Overflow(x)
	return err
}

func (v *Justify) UnmarshalText(b []byte) error {
	x, err := parseEnum("justify", justifyNames, b)
	*v = Justify(x)
	return err
}

func (v *Align) UnmarshalText(b []byte) error {
	x, err := parseEnum("align", alignNames, b)
	*v = Align(x)
	return err
}

// =============================================================================
// Style
// =============================================================================

// Style is the intrinsic layout style of a node. Start from [DefaultStyle];
// the zero value does not shrink and leaves AlignItems on auto.
type Style struct {
	Display        Display       `toml:"display" json:"display"`
	Position       PositionType  `toml:"position" json:"position"`
	Overflow       Overflow      `toml:"overflow" json:"overflow"`
	FlexDirection  FlexDirection `toml:"flex_direction" json:"flex_direction"`
	FlexWrap       FlexWrap      `toml:"flex_wrap" json:"flex_wrap"`
	JustifyContent Justify       `toml:"justify_content" json:"justify_content"`
	AlignItems     Align         `toml:"align_items" json:"align_items"`
	AlignSelf      Align         `toml:"align_self" json:"align_self"`
	AlignContent   Align         `toml:"align_content" json:"align_content"`

	FlexGrow   float32   `toml:"flex_grow" json:"flex_grow"`
	FlexShrink float32   `toml:"flex_shrink" json:"flex_shrink"`
	FlexBasis  Dimension `toml:"flex_basis" json:"flex_basis"`

	Size    Size `toml:"size" json:"size"`
	MinSize Size `toml:"min_size" json:"min_size"`
	MaxSize Size `toml:"max_size" json:"max_size"`

	// AspectRatio is width/height; zero means unconstrained.
	AspectRatio float32 `toml:"aspect_ratio" json:"aspect_ratio"`

	Inset   Rect `toml:"inset" json:"inset"`
	Margin  Rect `toml:"margin" json:"margin"`
	Padding Rect `toml:"padding" json:"padding"`
	// Border widths; only point values are honoured.
	Border Rect `toml:"border" json:"border"`
}

// DefaultStyle returns the style every new node starts with: a row flex
// container that shrinks, stretches its items and is sized automatically.
func DefaultStyle() Style {
	return Style{
		FlexDirection: FlexDirectionRow,
		FlexShrink:    1,
		AlignItems:    AlignStretch,
		AlignContent:  AlignStretch,
	}
}

var (
	flexDisplay   = [...]flex.Display{flex.DisplayFlex, flex.DisplayNone}
	flexPosition  = [...]flex.PositionType{flex.PositionTypeRelative, flex.PositionTypeAbsolute}
	flexDirection = [...]flex.FlexDirection{flex.FlexDirectionRow, flex.FlexDirectionColumn, flex.FlexDirectionRowReverse, flex.FlexDirectionColumnReverse}
	flexWrap      = [...]flex.Wrap{flex.WrapNoWrap, flex.WrapWrap, flex.WrapWrapReverse}
	flexOverflow  = [...]flex.Overflow{flex.OverflowVisible, flex.OverflowHidden, flex.OverflowScroll}
	flexJustify   = [...]flex.Justify{flex.JustifyFlexStart, flex.JustifyCenter, flex.JustifyFlexEnd, flex.JustifySpaceBetween, flex.JustifySpaceAround}
	flexAlign     = [...]flex.Align{flex.AlignAuto, flex.AlignFlexStart, flex.AlignCenter, flex.AlignFlexEnd, flex.AlignStretch, flex.AlignBaseline, flex.AlignSpaceBetween, flex.AlignSpaceAround}
)

func pick[E any, T ~uint8](table []E, v T) E {
	if int(v) < len(table) {
		return table[v]
	}
	return table[0]
}

// apply writes s over dst, which must hold the solver defaults.
func (s *Style) apply(dst *flex.Style) {
	dst.Display = pick(flexDisplay[:], s.Display)
	dst.PositionType = pick(flexPosition[:], s.Position)
	dst.Overflow = pick(flexOverflow[:], s.Overflow)
	dst.FlexDirection = pick(flexDirection[:], s.FlexDirection)
	dst.FlexWrap = pick(flexWrap[:], s.FlexWrap)
	dst.JustifyContent = pick(flexJustify[:], s.JustifyContent)
	dst.AlignItems = pick(flexAlign[:], s.AlignItems)
	dst.AlignSelf = pick(flexAlign[:], s.AlignSelf)
	dst.AlignContent = pick(flexAlign[:], s.AlignContent)

	dst.FlexGrow = s.FlexGrow
	dst.FlexShrink = s.FlexShrink
	dst.FlexBasis = s.FlexBasis.value()

	dst.Dimensions[flex.DimensionWidth] = s.Size.Width.value()
	dst.Dimensions[flex.DimensionHeight] = s.Size.Height.value()
	dst.MinDimensions[flex.DimensionWidth] = s.MinSize.Width.edge(false)
	dst.MinDimensions[flex.DimensionHeight] = s.MinSize.Height.edge(false)
	dst.MaxDimensions[flex.DimensionWidth] = s.MaxSize.Width.edge(false)
	dst.MaxDimensions[flex.DimensionHeight] = s.MaxSize.Height.edge(false)

	if s.AspectRatio > 0 {
		dst.AspectRatio = s.AspectRatio
	} else {
		dst.AspectRatio = flex.Undefined
	}

	s.Inset.apply(&dst.Position, false)
	s.Margin.apply(&dst.Margin, true)
	s.Padding.apply(&dst.Padding, false)

	border := Rect{
		Left:   pointsOnly(s.Border.Left),
		Right:  pointsOnly(s.Border.Right),
		Top:    pointsOnly(s.Border.Top),
		Bottom: pointsOnly(s.Border.Bottom),
	}
	border.apply(&dst.Border, false)
}

func pointsOnly(d Dimension) Dimension {
	if d.Unit != UnitPoints {
		return Auto()
	}
	return d
}
