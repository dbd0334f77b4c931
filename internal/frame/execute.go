package frame

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/simgridgo/internal/ctxlog"
	"github.com/vk/simgridgo/internal/sim"
)

// ExecuteNodeGraph runs every node in the frame to HierarchyFinished. A
// single coordinator goroutine is the only mutator of frame state; node
// bodies run on the runner and report back over a channel.
//
// Dispatch order among simultaneously eligible nodes follows priority,
// highest first. A node becomes eligible once its parent's body has
// finished, every predecessor has reached HierarchyFinished, and the
// resources it declares are free both within this frame and in the previous
// frame's obligation table.
func (f *Frame) ExecuteNodeGraph(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if !f.initialized {
		return fmt.Errorf("frame %d executed before initialization", f.number)
	}
	logger.Debug("Frame execution starting.", "frame", f.number, "node_count", len(f.states))
	start := time.Now()

	for !f.finished() {
		started := f.startEligible(ctx)
		promoted := f.promote(ctx)
		if started == 0 && promoted == 0 {
			if f.inFlight > 0 {
				f.reap(ctx)
				continue
			}
			if f.failed != nil {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			return f.deadlock()
		}
		// Drain without blocking so completions interleave with dispatch.
		f.reapNonBlocking(ctx)
	}

	// A failed node stops dispatch; in-flight bodies still drain.
	for f.inFlight > 0 {
		f.reap(ctx)
		f.promote(ctx)
	}

	logger.Debug("Frame execution finished.",
		"frame", f.number, "duration", time.Since(start), "error", f.failed != nil)
	return f.failed
}

func (f *Frame) finished() bool {
	if f.failed != nil {
		return true
	}
	for _, st := range f.states {
		if st.Status != StatusHierarchyFinished {
			return false
		}
	}
	return true
}

// startEligible dispatches every currently eligible pending node, in
// priority order, and returns how many it started.
func (f *Frame) startEligible(ctx context.Context) int {
	if f.failed != nil {
		return 0
	}
	started := 0
	for _, st := range f.pending {
		if st.Status != StatusPending {
			continue
		}
		if !f.eligible(st) {
			continue
		}
		if st.Node.NoOp() {
			f.finishBody(ctx, st, nil)
			started++
			continue
		}
		if f.inFlight >= f.workers {
			break
		}
		f.dispatch(ctx, st)
		started++
	}
	if started > 0 {
		f.compactPending()
	}
	return started
}

func (f *Frame) eligible(st *NodeState) bool {
	if st.Parent != nil && !st.Parent.bodyFinished() {
		return false
	}
	for _, pred := range st.Predecessors {
		if pred.Status != StatusHierarchyFinished {
			return false
		}
	}
	node := st.Node
	for _, key := range node.Reads() {
		if !f.locks.canRead(key) {
			return false
		}
		if f.previous.HasWriters(key) {
			return false
		}
	}
	for _, key := range node.Writes() {
		if !f.locks.canWrite(key) {
			return false
		}
		if f.previous.HasAny(key) {
			return false
		}
	}
	return true
}

func (f *Frame) dispatch(ctx context.Context, st *NodeState) {
	logger := ctxlog.FromContext(ctx)
	node := st.Node
	for _, key := range node.Reads() {
		f.locks.lockRead(key, node.Name())
	}
	for _, key := range node.Writes() {
		f.locks.lockWrite(key, node.Name())
	}
	st.Status = StatusRunning
	st.Started = time.Now()
	f.inFlight++
	logger.Debug("Node dispatched.", "frame", f.number, "node", node.Name())

	uctx := sim.NewUpdateContext(f.number, f.store, sim.NewAccessGuard(node))
	c := f.runner.Run(func() error {
		return node.Logic().Update(ctx, uctx)
	})
	go func() {
		f.done <- completion{st: st, err: <-c}
	}()
}

// reap blocks on one completion, then drains any others already queued.
func (f *Frame) reap(ctx context.Context) {
	c := <-f.done
	f.complete(ctx, c)
	f.reapNonBlocking(ctx)
}

func (f *Frame) reapNonBlocking(ctx context.Context) {
	for {
		select {
		case c := <-f.done:
			f.complete(ctx, c)
		default:
			return
		}
	}
}

func (f *Frame) complete(ctx context.Context, c completion) {
	f.inFlight--
	f.finishBody(ctx, c.st, c.err)
}

// finishBody records a node body's result, releases its locks, and drains
// its obligations so the next frame may touch its resources.
func (f *Frame) finishBody(ctx context.Context, st *NodeState, err error) {
	logger := ctxlog.FromContext(ctx)
	node := st.Node
	if st.Status == StatusRunning {
		f.locks.unlock(node.Name(), node.Reads(), node.Writes())
	} else {
		st.Started = time.Now()
	}
	st.Ended = time.Now()
	st.Err = err
	st.Status = StatusFinishedWaitingForChildren
	f.obligations.drain(node.Name(), node.Reads(), node.Writes())

	if err != nil {
		logger.Debug("Node failed.", "frame", f.number, "node", node.Name(), "error", err)
		if f.failed == nil {
			f.failed = fmt.Errorf("node %q failed on frame %d: %w", node.Name(), f.number, err)
		}
		return
	}
	logger.Debug("Node body finished.",
		"frame", f.number, "node", node.Name(), "duration", st.Duration())
}

// promote moves nodes whose body finished and whose children all reached
// HierarchyFinished up to HierarchyFinished, repeating until a fixpoint.
func (f *Frame) promote(ctx context.Context) int {
	logger := ctxlog.FromContext(ctx)
	total := 0
	for {
		progressed := 0
		for _, st := range f.states {
			if st.Status != StatusFinishedWaitingForChildren {
				continue
			}
			ready := true
			for _, child := range st.Children {
				if child.Status != StatusHierarchyFinished {
					ready = false
					break
				}
			}
			if !ready {
				continue
			}
			st.Status = StatusHierarchyFinished
			progressed++
			logger.Debug("Node hierarchy finished.", "frame", f.number, "node", st.Node.Name())
		}
		if progressed == 0 {
			return total
		}
		total += progressed
	}
}

func (f *Frame) compactPending() {
	kept := f.pending[:0]
	for _, st := range f.pending {
		if st.Status == StatusPending {
			kept = append(kept, st)
		}
	}
	f.pending = kept
}
