// Package scenefile loads scene descriptions written in TOML.
//
// A scene file declares cameras, layout nodes and plain entities by name:
//
//	name = "menu"
//
//	[[camera]]
//	name = "main"
//	width = 800.0
//	height = 600.0
//	visible = ["root", "title"]   # omit to see every entity
//
//	[[node]]
//	name = "root"
//	[node.style]
//	flex_direction = "column"
//	padding = { left = 8, right = 8, top = 8, bottom = 8 }
//
//	[[node]]
//	name = "title"
//	parent = "root"
//	text = "Hello"
//	font_size = 16.0
//
//	[[entity]]
//	name = "decor"
//	parent = "root"
//	z = 2.0
//
// Node styles start from [layout.DefaultStyle]; only the keys present in
// the file override it. A node may carry either text or a fixed content
// size, not both.
package scenefile

import (
	"bytes"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/moonlayout/pkg/ecs"
	"github.com/matzehuels/moonlayout/pkg/errors"
	"github.com/matzehuels/moonlayout/pkg/layout"
	"github.com/matzehuels/moonlayout/pkg/scene"
)

// File is a decoded scene file.
type File struct {
	Name     string   `toml:"name"`
	Cameras  []Camera `toml:"camera"`
	Nodes    []Node   `toml:"node"`
	Entities []Entity `toml:"entity"`

	md toml.MetaData
}

// Camera declares a camera. Inactive cameras have no viewport.
type Camera struct {
	Name     string   `toml:"name"`
	Width    float32  `toml:"width"`
	Height   float32  `toml:"height"`
	Inactive bool     `toml:"inactive"`
	Visible  []string `toml:"visible"`
}

// Entity declares a plain scene entity that takes no part in layout.
type Entity struct {
	Name        string    `toml:"name"`
	Parent      string    `toml:"parent"`
	Translation []float32 `toml:"translation"`
	Z           float32   `toml:"z"`
	RotationDeg float32   `toml:"rotation_deg"`
	Scale       []float32 `toml:"scale"`
}

// Node declares a layout node.
type Node struct {
	Entity

	Style    *toml.Primitive `toml:"style"`
	Text     string          `toml:"text"`
	FontSize float32         `toml:"font_size"`
	Fixed    []float32       `toml:"fixed"`
}

// Load reads and decodes a scene file.
func Load(path string) (*File, error) {
	if err := errors.ValidateScenePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "scene file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read scene file %s", path)
	}
	return Parse(data)
}

// Parse decodes scene file contents. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse scene")
	}
	f.md = md

	// Styles are decoded later against the default style.
	for i := range f.Nodes {
		if _, err := f.style(i); err != nil {
			return nil, err
		}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown scene keys: %s", strings.Join(keys, ", "))
	}
	return &f, nil
}

// style decodes the style of node i on top of the default style.
func (f *File) style(i int) (layout.Style, error) {
	s := layout.DefaultStyle()
	n := &f.Nodes[i]
	if n.Style == nil {
		return s, nil
	}
	if err := f.md.PrimitiveDecode(*n.Style, &s); err != nil {
		return s, errors.Wrap(errors.ErrCodeInvalidInput, err, "style of node %q", n.Name)
	}
	return s, nil
}

func (n *Node) measure() (layout.Measure, error) {
	switch {
	case n.Text != "" && n.Fixed != nil:
		return nil, errors.New(errors.ErrCodeInvalidScene, "node %q has both text and fixed size", n.Name)
	case n.Text != "":
		size := n.FontSize
		if size == 0 {
			size = 16
		}
		return &layout.TextMeasure{Text: n.Text, FontSize: size}, nil
	case n.Fixed != nil:
		if len(n.Fixed) != 2 {
			return nil, errors.New(errors.ErrCodeInvalidScene, "node %q: fixed needs [width, height]", n.Name)
		}
		return &layout.FixedMeasure{Size: mgl32.Vec2{n.Fixed[0], n.Fixed[1]}}, nil
	}
	return nil, nil
}

func (e *Entity) transform() (scene.Transform, error) {
	t := scene.IdentityTransform()
	switch len(e.Translation) {
	case 0:
	case 2, 3:
		copy(t.Translation[:], e.Translation)
	default:
		return t, errors.New(errors.ErrCodeInvalidScene, "entity %q: translation needs 2 or 3 components", e.Name)
	}
	if e.Z != 0 {
		t.Translation[2] = e.Z
	}
	switch len(e.Scale) {
	case 0:
	case 3:
		copy(t.Scale[:], e.Scale)
	default:
		return t, errors.New(errors.ErrCodeInvalidScene, "entity %q: scale needs 3 components", e.Name)
	}
	if e.RotationDeg != 0 {
		t.Rotation = mgl32.QuatRotate(mgl32.DegToRad(e.RotationDeg), mgl32.Vec3{0, 0, 1})
	}
	return t, nil
}

// =============================================================================
// World construction
// =============================================================================

// Build creates a world from f. Entities are spawned in file order, plain
// entities first, so entity ids are stable for a given file.
func (f *File) Build() (*scene.World, error) {
	w := scene.NewWorld()
	parents := make(map[ecs.Entity]string)

	spawn := func(e *Entity) (ecs.Entity, error) {
		if err := errors.ValidateName(e.Name); err != nil {
			return ecs.Placeholder, err
		}
		id, err := w.Spawn(e.Name)
		if err != nil {
			return id, err
		}
		t, err := e.transform()
		if err != nil {
			return id, err
		}
		if err := w.SetTransform(id, t); err != nil {
			return id, err
		}
		if e.Parent != "" {
			parents[id] = e.Parent
		}
		return id, nil
	}

	for i := range f.Entities {
		if _, err := spawn(&f.Entities[i]); err != nil {
			return nil, err
		}
	}
	for i := range f.Nodes {
		n := &f.Nodes[i]
		id, err := spawn(&n.Entity)
		if err != nil {
			return nil, err
		}
		style, err := f.style(i)
		if err != nil {
			return nil, err
		}
		m, err := n.measure()
		if err != nil {
			return nil, err
		}
		if err := w.InsertNode(id, scene.Node{Style: style, Measure: m}); err != nil {
			return nil, err
		}
	}

	for _, child := range slices.SortedFunc(maps.Keys(parents), ecs.Entity.Compare) {
		name := parents[child]
		parent, ok := w.Lookup(name)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidScene, "%s: unknown parent %q", w.Label(child), name)
		}
		if err := w.SetParent(child, parent); err != nil {
			return nil, err
		}
	}

	for _, c := range f.Cameras {
		if err := f.addCamera(w, c); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (f *File) addCamera(w *scene.World, c Camera) error {
	if err := errors.ValidateName(c.Name); err != nil {
		return err
	}
	if c.Width < 0 || c.Height < 0 {
		return errors.New(errors.ErrCodeInvalidScene, "camera %q: negative viewport", c.Name)
	}
	cam := scene.NewCamera(c.Width, c.Height)
	if c.Inactive {
		cam.Viewport = nil
	}
	if c.Visible == nil {
		cam.See(w.Entities()...)
	}
	for _, name := range c.Visible {
		e, ok := w.Lookup(name)
		if !ok {
			return errors.New(errors.ErrCodeInvalidScene, "camera %q: unknown visible entity %q", c.Name, name)
		}
		cam.See(e)
	}
	_, err := w.SpawnCamera(c.Name, cam)
	return err
}

// SceneName returns the declared name, or fallback when unset.
func (f *File) SceneName(fallback string) string {
	if f.Name != "" {
		return f.Name
	}
	return fallback
}
