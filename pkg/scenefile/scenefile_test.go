package scenefile

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/moonlayout/pkg/errors"
	"github.com/matzehuels/moonlayout/pkg/layout"
)

func TestLoad(t *testing.T) {
	f, err := Load(filepath.Join("testdata", "menu.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.SceneName("x") != "menu" {
		t.Errorf("SceneName() = %q, want menu", f.SceneName("x"))
	}
	if len(f.Cameras) != 2 || len(f.Nodes) != 3 || len(f.Entities) != 1 {
		t.Fatalf("counts = %d/%d/%d, want 2/3/1", len(f.Cameras), len(f.Nodes), len(f.Entities))
	}

	w, err := f.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	panel, ok := w.Lookup("panel")
	if !ok {
		t.Fatal("panel not spawned")
	}
	n, _ := w.Node(panel)
	if n.Style.FlexDirection != layout.FlexDirectionColumn {
		t.Errorf("FlexDirection = %v, want column", n.Style.FlexDirection)
	}
	if n.Style.FlexShrink != 1 || n.Style.AlignItems != layout.AlignStretch {
		t.Error("unset style keys should keep their defaults")
	}
	if n.Style.Padding.Left != layout.Points(8) {
		t.Errorf("Padding.Left = %v, want 8pt", n.Style.Padding.Left)
	}

	badge, _ := w.Lookup("badge")
	bn, _ := w.Node(badge)
	if bn.Style.Size.Height != layout.Percent(0.5) {
		t.Errorf("Size.Height = %v, want 50%%", bn.Style.Size.Height)
	}
	if fm, ok := bn.Measure.(*layout.FixedMeasure); !ok || fm.Size != (mgl32.Vec2{40, 20}) {
		t.Errorf("Measure = %#v, want fixed 40x20", bn.Measure)
	}

	title, _ := w.Lookup("title")
	tn, _ := w.Node(title)
	if tm, ok := tn.Measure.(*layout.TextMeasure); !ok || tm.Text != "Hello" || tm.FontSize != 10 {
		t.Errorf("Measure = %#v, want text Hello/10", tn.Measure)
	}

	decor, _ := w.Lookup("decor")
	if p, _ := w.Parent(badge); p != decor {
		t.Errorf("Parent(badge) = %v, want decor", p)
	}
	if w.HasNode(decor) {
		t.Error("plain entity should have no layout node")
	}
	if tr, _ := w.Transform(decor); tr.Translation.Z() != 2 {
		t.Errorf("decor z = %g, want 2", tr.Translation.Z())
	}

	cams := w.Cameras()
	if len(cams) != 2 {
		t.Fatalf("len(Cameras()) = %d, want 2", len(cams))
	}
	main, _ := w.Camera(cams[0])
	for _, name := range []string{"panel", "title", "badge", "decor"} {
		e, _ := w.Lookup(name)
		if !main.Visible.Test(uint(e.Index)) {
			t.Errorf("main camera should see %s", name)
		}
	}
	off, _ := w.Camera(cams[1])
	if off.Viewport != nil {
		t.Error("inactive camera should have no viewport")
	}
	if off.Visible.Test(uint(title.Index)) {
		t.Error("offscreen camera should only see panel")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errors.Code
	}{
		{"syntax", "name = ", errors.ErrCodeInvalidInput},
		{"unknown key", "colour = 1", errors.ErrCodeInvalidInput},
		{"unknown style key", "[[node]]\nname = \"a\"\n[node.style]\nfloat = \"left\"", errors.ErrCodeInvalidInput},
		{"bad enum", "[[node]]\nname = \"a\"\n[node.style]\nposition = \"sticky\"", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("Parse() code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown parent", "[[node]]\nname = \"a\"\nparent = \"ghost\""},
		{"duplicate name", "[[node]]\nname = \"a\"\n[[entity]]\nname = \"a\""},
		{"bad name", "[[node]]\nname = \"has space\""},
		{"text and fixed", "[[node]]\nname = \"a\"\ntext = \"x\"\nfixed = [1.0, 2.0]"},
		{"fixed arity", "[[node]]\nname = \"a\"\nfixed = [1.0]"},
		{"translation arity", "[[entity]]\nname = \"a\"\ntranslation = [1.0]"},
		{"unknown visible", "[[camera]]\nname = \"c\"\nvisible = [\"ghost\"]"},
		{"cycle", "[[node]]\nname = \"a\"\nparent = \"b\"\n[[node]]\nname = \"b\"\nparent = \"a\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.src))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			_, err = f.Build()
			if got := errors.GetCode(err); got != errors.ErrCodeInvalidScene {
				t.Errorf("Build() code = %q, want %q (err %v)", got, errors.ErrCodeInvalidScene, err)
			}
		})
	}
}

func TestLoadPathErrors(t *testing.T) {
	if _, err := Load("scene.json"); errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("Load(json) = %v, want INVALID_INPUT", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.IsNotFound(err) {
		t.Errorf("Load(missing) = %v, want NotFound", err)
	}
}
