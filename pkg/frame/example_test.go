package frame_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/moonlayout/pkg/frame"
	"github.com/matzehuels/moonlayout/pkg/layout"
	"github.com/matzehuels/moonlayout/pkg/scene"
)

func ExampleRunner() {
	w := scene.NewWorld()
	cam, _ := w.SpawnCamera("main", scene.NewCamera(200, 100))
	panel, _ := w.Spawn("panel")
	button, _ := w.Spawn("button")

	// A 50x50 button placed 10 points from the panel's top-left corner.
	style := layout.DefaultStyle()
	style.Position = layout.PositionAbsolute
	style.Inset = layout.Rect{Left: layout.Points(10), Top: layout.Points(10)}
	style.Size = layout.Size{Width: layout.Points(50), Height: layout.Points(50)}

	_ = w.InsertNode(panel, scene.NewNode())
	_ = w.InsertNode(button, scene.Node{Style: style})
	_ = w.SetParent(button, panel)
	c, _ := w.Camera(cam)
	c.See(panel, button)

	r, err := frame.NewRunner(w, frame.Options{SceneName: "example"})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer r.Close()

	res, err := r.Step(context.Background())
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	// Translations are relative to the parent's centre, Y up.
	n, _ := res.Snapshot.Lookup("button")
	fmt.Printf("button: location=%v size=%v translation=(%g, %g)\n",
		n.Location, n.Size, n.Translation.X(), n.Translation.Y())
	// Output:
	// button: location=[10 10] size=[50 50] translation=(-65, 15)
}
