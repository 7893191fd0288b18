// Package pkg holds the libraries behind moonlayout, a flex layout driver for
// retained scene hierarchies.
//
// # Overview
//
// A scene is a set of entities with parents, transforms and optional layout
// nodes. Cameras see a subset of those entities. Every frame moonlayout
// mirrors the layout nodes onto a flex solver tree, solves one tree per
// camera and writes the solved geometry back into the entity transforms.
//
// # Architecture
//
// One frame flows through these packages:
//
//	[scenefile] TOML scene
//	     ↓
//	[scene] world: entities, hierarchy, nodes, cameras, change ticks
//	     ↓
//	[stack] per-camera back-to-front paint order
//	     ↓
//	[treesync] solver tree upserts, child lists and cleanup
//	     ↓
//	[layout] flex solve per root against the camera viewport
//	     ↓
//	[geometry] computed layouts and transform propagation
//	     ↓
//	[extract] immutable snapshot, optionally persisted through [cache]
//
// [frame] drives the phases in order. [debugviz] renders the solver tree
// and stacks as text, DOT or SVG. [ecs] provides the generational entity
// ids, [errors] the error codes and [observability] the frame, cache and
// HTTP hooks.
//
// # Quick Start
//
//	f, _ := scenefile.Load("examples/menu.toml")
//	w, _ := f.Build()
//
//	r, _ := frame.NewRunner(w, frame.Options{SceneName: f.SceneName("menu")})
//	defer r.Close()
//
//	res, _ := r.Step(context.Background())
//	title, _ := res.Snapshot.Lookup("title")
//	fmt.Println(title.Translation)
package pkg
