// Package scene provides the in-memory scene the layout core runs against.
//
// A [World] stores entities with a parent/children hierarchy and a small set
// of components:
//
//   - [Node]: marks an entity as layout relevant and carries its style,
//     optional measure and paint-order rank
//   - [Transform]: the local transform in the scene frame (Y up)
//   - [ComputedLayout]: the cached solver box and last applied translation
//   - [Camera]: a viewport and the set of entities it can see
//
// # Change Detection
//
// Every component write is stamped with the current frame number. Queries
// such as [World.NodeChanged] report whether the stamp equals the current
// frame; [World.AdvanceFrame] moves on to the next frame. Writes made
// through [World.SetStackIndex] and [World.UpdateComputed] bypass the stamp
// so that derived state does not trigger another synchronization.
//
// Removals are reported on two streams that are drained once per frame:
// [World.DrainRemovedNodes] for entities that lost their [Node] and
// [World.DrainRemovedChildren] for entities whose last child went away.
package scene
