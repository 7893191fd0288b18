// Package extract hands the result of a frame to consumers outside the
// layout pass.
//
// A [Snapshot] is an immutable view of one frame: a shared handle to the
// frame's [stack.Map] plus a copy of every laid-out node's computed state.
// The next frame's first write to the stack map clones it, so a snapshot
// stays valid while the runner keeps stepping. Call [Snapshot.Release] when
// done so the runner can write in place again.
//
// Snapshots encode to JSON and persist through a [Store], which keys them
// with a [cache.Keyer] on any [cache.Cache] backend:
//
//	store := extract.NewStore(c, cache.NewDefaultKeyer(), time.Hour)
//	if err := store.Put(ctx, snap); err != nil { ... }
//	latest, err := store.Latest(ctx, "menu")
package extract
