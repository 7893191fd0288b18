// Package layout wraps the flex solver behind a retained tree keyed by
// entity.
//
// A [Tree] holds one solver node per synchronized entity. [Tree.Upsert]
// creates a node or updates its [Style] and [Measure] in place, so a node
// keeps its [NodeID] and its cached layout for as long as the entity stays
// layout relevant. [Tree.SetChildren] replaces a child list wholesale.
// [Tree.Compute] solves one root against a viewport and [Tree.Layout]
// returns the resulting [Geometry] in the solver's frame: origin at the
// parent's top-left corner, Y down.
//
// Misuse of the tree, such as parenting a node to itself or adding children
// to a measured leaf, is reported as INVARIANT_VIOLATION. Asking for the
// layout of an entity the tree does not know returns NOT_FOUND.
//
// # Measurement
//
// Leaves with intrinsic content implement [Measure]. [FixedMeasure] reports
// a constant size and [TextMeasure] asks the [TextMeasurer] of the current
// [MeasureContext]. [MonospaceMeasurer] is the default text measurer: it
// counts terminal cells and wraps greedily at word boundaries.
//
// # Styles in TOML
//
// [Style] decodes from TOML. Dimensions accept bare numbers (points),
// "12px", "50%" or "auto"; enumerations accept their lower-case names:
//
//	flex_direction = "column"
//	justify_content = "space-between"
//	size = { width = 120, height = "50%" }
//	padding = { left = 8, right = 8, top = 4, bottom = 4 }
package layout
