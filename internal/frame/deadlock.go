package frame

import (
	"fmt"
	"strings"
)

// NodeDiagnostic is a snapshot of one unfinished node, captured when the
// frame can make no further progress.
type NodeDiagnostic struct {
	Name                 string
	Status               Status
	Parent               string
	ParentStatus         string
	DeclaredAfter        []string
	DeclaredBefore       []string
	ComputedPredecessors []string
	Reads                []string
	Writes               []string
	BlockedOn            []string
}

// DeadlockError reports a frame where no node could start, finish, or be
// promoted. It carries a diagnostic per unfinished node so the cycle or
// resource standoff can be read off the error text.
type DeadlockError struct {
	Frame   uint64
	Pending []NodeDiagnostic
}

func (e DeadlockError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "frame %d deadlocked with %d unfinished node(s):", e.Frame, len(e.Pending))
	for _, d := range e.Pending {
		fmt.Fprintf(&b, "\n  node %q [%s]", d.Name, d.Status)
		if d.Parent != "" {
			fmt.Fprintf(&b, " parent=%q(%s)", d.Parent, d.ParentStatus)
		}
		if len(d.DeclaredAfter) > 0 {
			fmt.Fprintf(&b, " updateAfter=%v", d.DeclaredAfter)
		}
		if len(d.DeclaredBefore) > 0 {
			fmt.Fprintf(&b, " updateBefore=%v", d.DeclaredBefore)
		}
		if len(d.ComputedPredecessors) > 0 {
			fmt.Fprintf(&b, " waitingOn=%v", d.ComputedPredecessors)
		}
		if len(d.Reads) > 0 {
			fmt.Fprintf(&b, " reads=%v", d.Reads)
		}
		if len(d.Writes) > 0 {
			fmt.Fprintf(&b, " writes=%v", d.Writes)
		}
		if len(d.BlockedOn) > 0 {
			fmt.Fprintf(&b, " blockedOn=%v", d.BlockedOn)
		}
	}
	return b.String()
}

// deadlock builds the diagnostic error for the current stuck state.
func (f *Frame) deadlock() error {
	err := DeadlockError{Frame: f.number}
	for _, st := range f.states {
		if st.Status == StatusHierarchyFinished {
			continue
		}
		d := NodeDiagnostic{
			Name:           st.Node.Name(),
			Status:         st.Status,
			DeclaredAfter:  st.Node.UpdateAfter(),
			DeclaredBefore: st.Node.UpdateBefore(),
			Reads:          st.Node.Reads(),
			Writes:         st.Node.Writes(),
		}
		if st.Parent != nil {
			d.Parent = st.Parent.Node.Name()
			d.ParentStatus = st.Parent.Status.String()
		}
		for _, pred := range st.Predecessors {
			if pred.Status != StatusHierarchyFinished {
				d.ComputedPredecessors = append(d.ComputedPredecessors, pred.Node.Name())
			}
		}
		d.BlockedOn = f.blockedResources(st)
		err.Pending = append(err.Pending, d)
	}
	return err
}

// blockedResources names the resources whose locks or carried-over
// obligations keep a pending node from starting.
func (f *Frame) blockedResources(st *NodeState) []string {
	if st.Status != StatusPending {
		return nil
	}
	var blocked []string
	for _, key := range st.Node.Reads() {
		if !f.locks.canRead(key) || f.previous.HasWriters(key) {
			blocked = append(blocked, fmt.Sprintf("%s(read, held by %v)", key, f.locks.holders(key)))
		}
	}
	for _, key := range st.Node.Writes() {
		if !f.locks.canWrite(key) || f.previous.HasAny(key) {
			blocked = append(blocked, fmt.Sprintf("%s(write, held by %v)", key, f.locks.holders(key)))
		}
	}
	return blocked
}
