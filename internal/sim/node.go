package sim

import (
	"context"
	"fmt"
)

// Logic is the unit of simulation work attached to a node. Update is invoked
// by the scheduler once per frame the node participates in; it may suspend on
// the context without blocking the scheduler's coordinator.
type Logic interface {
	Update(ctx context.Context, uc *UpdateContext) error
}

// Gate is an optional interface for Logic that opts a node (and its whole
// subtree) out of individual frames, e.g. to pace expensive work. The
// returned reason is propagated into the skip log.
type Gate interface {
	ShouldUpdate(frame uint64) (bool, string)
}

// LogicFunc adapts a plain function to the Logic interface.
type LogicFunc func(ctx context.Context, uc *UpdateContext) error

// Update implements Logic.
func (f LogicFunc) Update(ctx context.Context, uc *UpdateContext) error { return f(ctx, uc) }

// NodeSpec declares a node before registration: its identity, scheduling
// priority, resource locks, and ordering constraints by node name.
type NodeSpec struct {
	Name     string
	Priority int
	// NoOp marks a grouping node with no dispatchable body; the scheduler
	// completes it synchronously.
	NoOp bool
	// Reads and Writes name the resource keys (pages) the node's body will
	// touch. The AccessGuard holds the node to exactly these declarations.
	Reads  []string
	Writes []string
	// UpdateAfter and UpdateBefore order this node against other nodes by
	// name within a frame. Naming an ancestor is rejected at frame
	// initialization: a parent implicitly finishes only after all of its
	// descendants.
	UpdateAfter  []string
	UpdateBefore []string
	Logic        Logic
}

// Node is one schedulable unit in the simulation tree.
type Node struct {
	name         string
	priority     int
	noop         bool
	reads        []string
	writes       []string
	updateAfter  []string
	updateBefore []string
	logic        Logic

	enabled   bool
	paceEvery uint64

	parent   *Node
	children []*Node
	disposed bool
}

// New builds a node from its spec. Nodes without logic must be NoOp.
func New(spec NodeSpec) (*Node, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("node name must not be empty")
	}
	if spec.Logic == nil && !spec.NoOp {
		return nil, fmt.Errorf("node %q has no logic and is not a no-op", spec.Name)
	}
	return &Node{
		name:         spec.Name,
		priority:     spec.Priority,
		noop:         spec.NoOp,
		reads:        append([]string(nil), spec.Reads...),
		writes:       append([]string(nil), spec.Writes...),
		updateAfter:  append([]string(nil), spec.UpdateAfter...),
		updateBefore: append([]string(nil), spec.UpdateBefore...),
		logic:        spec.Logic,
		enabled:      true,
	}, nil
}

// MustNew is New for wiring code where a bad spec is a programming error.
func MustNew(spec NodeSpec) *Node {
	n, err := New(spec)
	if err != nil {
		panic(err)
	}
	return n
}

// Name returns the node's unique name.
func (n *Node) Name() string { return n.name }

// Priority returns the node's scheduling priority; higher runs earlier when
// several nodes are eligible.
func (n *Node) Priority() int { return n.priority }

// NoOp reports whether the node has no dispatchable body.
func (n *Node) NoOp() bool { return n.noop }

// Reads returns the declared read keys.
func (n *Node) Reads() []string { return n.reads }

// Writes returns the declared write keys.
func (n *Node) Writes() []string { return n.writes }

// UpdateAfter returns the names this node must run after.
func (n *Node) UpdateAfter() []string { return n.updateAfter }

// UpdateBefore returns the names this node must run before.
func (n *Node) UpdateBefore() []string { return n.updateBefore }

// Logic returns the node's attached update logic, nil for no-op nodes.
func (n *Node) Logic() Logic { return n.logic }

// Parent returns the node's parent, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's children in registration order.
func (n *Node) Children() []*Node { return n.children }

// AddChild attaches child under n. A child has exactly one parent for its
// lifetime, and the tree stays acyclic.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		return fmt.Errorf("node %q: child must not be nil", n.name)
	}
	if child == n {
		return fmt.Errorf("node %q cannot parent itself", n.name)
	}
	if child.parent != nil {
		return fmt.Errorf("node %q already has parent %q", child.name, child.parent.name)
	}
	if child.IsAncestorOf(n) {
		return fmt.Errorf("adding %q under %q would create a cycle", child.name, n.name)
	}
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// IsAncestorOf reports whether n appears on other's parent chain.
func (n *Node) IsAncestorOf(other *Node) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// SetEnabled toggles the node; a disabled node and its subtree are excluded
// from the frame graph.
func (n *Node) SetEnabled(enabled bool) { n.enabled = enabled }

// Enabled reports whether the node participates in frames.
func (n *Node) Enabled() bool { return n.enabled }

// SetPaceEvery makes the node participate only in frames whose number is a
// multiple of every. Zero or one restores every-frame updates.
func (n *Node) SetPaceEvery(every uint64) { n.paceEvery = every }

// ShouldUpdate combines the enabled flag, the pacing setting, and the
// logic's optional Gate to decide whether the node joins the given frame.
// The reason string describes an exclusion for the skip log.
func (n *Node) ShouldUpdate(frame uint64) (bool, string) {
	if !n.enabled {
		return false, "node is disabled"
	}
	if n.paceEvery > 1 && frame%n.paceEvery != 0 {
		return false, fmt.Sprintf("paced to every %d frames", n.paceEvery)
	}
	if gate, ok := n.logic.(Gate); ok {
		if run, reason := gate.ShouldUpdate(frame); !run {
			return false, reason
		}
	}
	return true, ""
}

// Dispose detaches the subtree rooted at n. Disposed nodes cannot rejoin a
// tree.
func (n *Node) Dispose() {
	for _, child := range n.children {
		child.Dispose()
	}
	n.children = nil
	n.parent = nil
	n.disposed = true
}

// Disposed reports whether Dispose ran.
func (n *Node) Disposed() bool { return n.disposed }
