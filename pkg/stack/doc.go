// Package stack builds the per-camera paint order of layout entities.
//
// For every camera, [Build] intersects the camera's visible set with the
// entities that carry a layout node, then walks the visible layout roots
// depth first. Siblings are ordered back to front: larger global z first,
// ties broken by ascending entity order so the result never depends on
// storage order. Each visited entity is appended to [Stack.Entities] and
// receives the next paint-order rank.
//
// The flattened sequence is partitioned into [Range] values. A range is a
// contiguous run of siblings; a run is closed before descending into an
// entity with visible children and when a sibling group is exhausted, so
// concatenating the ranges reproduces the sequence exactly:
//
//	root          Entities: [root, panel, label, icon, footer]
//	├── panel     Ranges:   [0,1) [1,2) [2,4) [4,5)
//	│   ├── label
//	│   └── icon
//	└── footer
//
// # Snapshots
//
// Stacks live in a [Map], a reference-counted copy-on-write handle. The
// frame runner hands [Map.Share] to the extraction stage; the next frame's
// rebuild detaches from the shared storage instead of mutating it.
package stack
