// Package sim defines the simulation node tree and the contracts the frame
// scheduler executes against: the per-node update logic, the declared
// read/write resource keys and ordering constraints, and the AccessGuard that
// enforces component access against those declarations at run time.
//
// Nodes are long-lived. They are created, wired into a single-rooted tree,
// and registered once; the scheduler wraps them in fresh per-frame state each
// frame and discards that state when the frame ends.
package sim
