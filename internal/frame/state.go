package frame

import (
	"time"

	"github.com/vk/simgridgo/internal/sim"
)

// Status is the per-frame execution state of one node.
type Status int

const (
	// StatusScheduled means the node was flattened into the frame but not
	// yet added to the pending list.
	StatusScheduled Status = iota
	// StatusPending means the node waits for its dependencies and resources.
	StatusPending
	// StatusRunning means the node's body is executing.
	StatusRunning
	// StatusFinishedWaitingForChildren means the node's own body finished;
	// its children may now start.
	StatusFinishedWaitingForChildren
	// StatusHierarchyFinished means the node and its entire subtree
	// finished. Only now do successors ordered after this node become
	// eligible.
	StatusHierarchyFinished
)

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusFinishedWaitingForChildren:
		return "finished-waiting-for-children"
	case StatusHierarchyFinished:
		return "hierarchy-finished"
	}
	return "unknown"
}

// NodeState is the transient per-frame wrapper around one node. It is
// created by InitializeNodeGraph and discarded with the frame.
type NodeState struct {
	Node   *sim.Node
	Status Status

	// Parent and Children mirror the tree over the nodes active this
	// frame; gated-out subtrees are absent.
	Parent   *NodeState
	Children []*NodeState
	// Predecessors holds the resolved ordering constraints: every listed
	// state must reach StatusHierarchyFinished before this node starts.
	Predecessors []*NodeState

	Started time.Time
	Ended   time.Time
	Err     error
}

// Duration returns how long the node's body ran this frame.
func (st *NodeState) Duration() time.Duration {
	if st.Started.IsZero() || st.Ended.IsZero() {
		return 0
	}
	return st.Ended.Sub(st.Started)
}

// bodyFinished reports whether the node's own update completed, children
// aside.
func (st *NodeState) bodyFinished() bool {
	return st.Status >= StatusFinishedWaitingForChildren
}
