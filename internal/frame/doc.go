// Package frame builds and executes the per-frame node dependency graph.
//
// A Frame is transient: it flattens the active subtree of the simulation
// tree into per-frame node states, resolves the declared ordering
// constraints into concrete predecessor edges, and records which nodes still
// owe reads or writes on each declared resource key. Execution then runs on
// a single coordinating goroutine that is the sole mutator of frame
// bookkeeping: it picks eligible nodes highest-priority first, takes their
// resource locks, dispatches their updates onto the task runner with bounded
// concurrency, and suspends only while waiting for any in-flight update to
// complete.
//
// Resource arbitration spans the two most recent frames: a node is held
// back not only by locks taken within its own frame but also by undrained
// read/write obligations left over from the previous frame, so a new
// frame's writers can never race the prior frame's unfinished readers or
// writers. A full coordinator pass that starts nothing, finishes nothing,
// and promotes nothing is a structural scheduling fault and fails the frame
// with a diagnostic listing every pending node's declared and computed
// dependencies.
package frame
