package frame

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/vk/simgridgo/internal/ctxlog"
	"github.com/vk/simgridgo/internal/sim"
	"github.com/vk/simgridgo/internal/storage"
	"github.com/vk/simgridgo/internal/task"
)

// Options configures one Frame.
type Options struct {
	Number uint64
	Store  *storage.Store
	Runner task.Runner
	// Workers bounds concurrent node updates. Zero picks processor count
	// plus two, leaving headroom for updates that suspend.
	Workers int
	// Previous is the obligation table of the frame before this one, nil
	// for the first frame.
	Previous *ObligationTable
}

// AncestorConstraintError reports an ordering constraint that names an
// ancestor of the declaring node. A parent implicitly finishes only after
// all of its descendants, so such a constraint could never be satisfied;
// initialization rejects it instead of deadlocking later.
type AncestorConstraintError struct {
	Node       string
	Constraint string
	Target     string
}

func (e AncestorConstraintError) Error() string {
	return fmt.Sprintf("node %q declares %s %q, which is one of its ancestors; a parent finishes only after all descendants, so the constraint is unsatisfiable",
		e.Node, e.Constraint, e.Target)
}

// Frame owns the dependency graph and execution bookkeeping for one tick of
// the simulation. Build one with New, call InitializeNodeGraph, then
// ExecuteNodeGraph; the frame is discarded afterwards, its obligation table
// surviving into the next frame's Options.
type Frame struct {
	number  uint64
	store   *storage.Store
	runner  task.Runner
	workers int

	states  []*NodeState
	byName  map[string]*NodeState
	pending []*NodeState

	locks       lockTable
	obligations *ObligationTable
	previous    *ObligationTable

	done        chan completion
	inFlight    int
	failed      error
	initialized bool
}

type completion struct {
	st  *NodeState
	err error
}

// New returns a frame ready for InitializeNodeGraph.
func New(opts Options) *Frame {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU() + 2
	}
	if opts.Runner == nil {
		opts.Runner = task.GoRunner{}
	}
	return &Frame{
		number:      opts.Number,
		store:       opts.Store,
		runner:      opts.Runner,
		workers:     opts.Workers,
		byName:      make(map[string]*NodeState),
		locks:       make(lockTable),
		obligations: NewObligationTable(),
		previous:    opts.Previous,
	}
}

// Number returns the frame counter.
func (f *Frame) Number() uint64 { return f.number }

// Obligations returns this frame's obligation table, handed to the next
// frame for cross-frame arbitration.
func (f *Frame) Obligations() *ObligationTable { return f.obligations }

// States returns the flattened per-frame node states.
func (f *Frame) States() []*NodeState { return f.states }

// State returns the per-frame state for a node name, nil when the node was
// gated out of this frame.
func (f *Frame) State(name string) *NodeState { return f.byName[name] }

// InitializeNodeGraph flattens the active subtree under root, resolves each
// node's named ordering constraints into predecessor edges, and records the
// frame's resource obligations.
func (f *Frame) InitializeNodeGraph(ctx context.Context, root *sim.Node) error {
	logger := ctxlog.FromContext(ctx)
	if f.initialized {
		return fmt.Errorf("frame %d already initialized", f.number)
	}
	if root == nil {
		return fmt.Errorf("frame %d has no root node", f.number)
	}

	if err := f.flatten(ctx, root, nil); err != nil {
		return err
	}
	logger.Debug("Frame graph flattened.", "frame", f.number, "node_count", len(f.states))

	if err := f.resolveConstraints(ctx); err != nil {
		return err
	}

	for _, st := range f.states {
		f.obligations.owe(st.Node.Name(), st.Node.Reads(), st.Node.Writes())
		st.Status = StatusPending
	}

	f.pending = append(f.pending, f.states...)
	sort.SliceStable(f.pending, func(i, j int) bool {
		return f.pending[i].Node.Priority() > f.pending[j].Node.Priority()
	})

	f.done = make(chan completion, len(f.states))
	f.initialized = true
	logger.Debug("Frame graph initialized.", "frame", f.number, "workers", f.workers)
	return nil
}

// flatten walks the tree depth-first, honoring enable and pacing gates. A
// gated-out node excludes its whole subtree from the frame.
func (f *Frame) flatten(ctx context.Context, node *sim.Node, parent *NodeState) error {
	logger := ctxlog.FromContext(ctx)

	if run, reason := node.ShouldUpdate(f.number); !run {
		logger.Debug("Node gated out of frame, skipping subtree.",
			"frame", f.number, "node", node.Name(), "reason", reason)
		return nil
	}
	if _, dup := f.byName[node.Name()]; dup {
		return fmt.Errorf("duplicate node name %q in frame graph", node.Name())
	}

	st := &NodeState{Node: node, Status: StatusScheduled, Parent: parent}
	f.states = append(f.states, st)
	f.byName[node.Name()] = st
	if parent != nil {
		parent.Children = append(parent.Children, st)
	}

	for _, child := range node.Children() {
		if err := f.flatten(ctx, child, st); err != nil {
			return err
		}
	}
	return nil
}

// resolveConstraints turns the per-node updateAfter/updateBefore name lists
// into predecessor edges over this frame's states. Constraints naming nodes
// absent from the frame resolve to nothing; constraints naming an ancestor
// are rejected outright.
func (f *Frame) resolveConstraints(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	for _, st := range f.states {
		for _, name := range st.Node.UpdateAfter() {
			target, ok := f.byName[name]
			if !ok {
				logger.Debug("Ordering constraint target absent this frame, ignoring.",
					"frame", f.number, "node", st.Node.Name(), "update_after", name)
				continue
			}
			if target.Node.IsAncestorOf(st.Node) {
				return AncestorConstraintError{Node: st.Node.Name(), Constraint: "updateAfter", Target: name}
			}
			st.Predecessors = append(st.Predecessors, target)
		}
		for _, name := range st.Node.UpdateBefore() {
			target, ok := f.byName[name]
			if !ok {
				logger.Debug("Ordering constraint target absent this frame, ignoring.",
					"frame", f.number, "node", st.Node.Name(), "update_before", name)
				continue
			}
			if target.Node.IsAncestorOf(st.Node) {
				return AncestorConstraintError{Node: st.Node.Name(), Constraint: "updateBefore", Target: name}
			}
			target.Predecessors = append(target.Predecessors, st)
		}
	}
	return nil
}
