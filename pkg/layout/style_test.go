package layout

import (
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/kjk/flex"
)

func TestParseDimension(t *testing.T) {
	tests := []struct {
		in      string
		want    Dimension
		wantErr bool
	}{
		{"auto", Auto(), false},
		{"", Auto(), false},
		{"12", Points(12), false},
		{"12px", Points(12), false},
		{" 7.5PX ", Points(7.5), false},
		{"50%", Percent(0.5), false},
		{"abc", Dimension{}, true},
		{"x%", Dimension{}, true},
	}
	for _, tt := range tests {
		got, err := ParseDimension(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDimension(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDimension(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDimensionString(t *testing.T) {
	tests := []struct {
		d    Dimension
		want string
	}{
		{Auto(), "auto"},
		{Points(12), "12px"},
		{Percent(0.25), "25%"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestDimensionValue(t *testing.T) {
	if v := Percent(0.5).value(); v.Unit != flex.UnitPercent || v.Value != 50 {
		t.Errorf("Percent(0.5).value() = %+v, want 50%%", v)
	}
	if v := Auto().edge(false); v.Unit != flex.UnitUndefined {
		t.Errorf("Auto().edge(false).Unit = %v, want undefined", v.Unit)
	}
	if v := Auto().edge(true); v.Unit != flex.UnitAuto {
		t.Errorf("Auto().edge(true).Unit = %v, want auto", v.Unit)
	}
}

func TestStyleFromTOML(t *testing.T) {
	const doc = `
flex_direction = "column"
justify_content = "space-between"
align_items = "center"
position = "absolute"
flex_grow = 2.0
size = { width = 120, height = "50%" }
padding = { left = 8, top = "4px" }
`
	s := DefaultStyle()
	if _, err := toml.Decode(doc, &s); err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if s.FlexDirection != FlexDirectionColumn {
		t.Errorf("FlexDirection = %v, want column", s.FlexDirection)
	}
	if s.JustifyContent != JustifySpaceBetween {
		t.Errorf("JustifyContent = %v, want space-between", s.JustifyContent)
	}
	if s.AlignItems != AlignCenter {
		t.Errorf("AlignItems = %v, want center", s.AlignItems)
	}
	if s.Position != PositionAbsolute {
		t.Errorf("Position = %v, want absolute", s.Position)
	}
	if s.FlexGrow != 2 {
		t.Errorf("FlexGrow = %v, want 2", s.FlexGrow)
	}
	if s.Size.Width != Points(120) || s.Size.Height != Percent(0.5) {
		t.Errorf("Size = %v x %v, want 120px x 50%%", s.Size.Width, s.Size.Height)
	}
	if s.Padding.Left != Points(8) || s.Padding.Top != Points(4) || !s.Padding.Right.IsAuto() {
		t.Errorf("Padding = %+v", s.Padding)
	}
}

func TestStyleFromTOMLRejectsBadEnum(t *testing.T) {
	s := DefaultStyle()
	if _, err := toml.Decode(`flex_direction = "diagonal"`, &s); err == nil {
		t.Error("Decode() accepted an unknown direction")
	}
}

func TestEnumNames(t *testing.T) {
	if got := FlexDirectionRowReverse.String(); got != "row-reverse" {
		t.Errorf("String() = %q, want row-reverse", got)
	}
	if got := Align(200).String(); got != "200" {
		t.Errorf("out of range String() = %q, want 200", got)
	}

	var a Align
	if err := a.UnmarshalText([]byte("Baseline")); err != nil || a != AlignBaseline {
		t.Errorf("UnmarshalText(Baseline) = %v, %v, want baseline", a, err)
	}
}
