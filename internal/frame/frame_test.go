package frame

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/simgridgo/internal/ctxlog"
	"github.com/vk/simgridgo/internal/sim"
	"github.com/vk/simgridgo/internal/task"
)

// recorder collects node execution order under a lock so concurrent runners
// can share it.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) logic(name string) sim.Logic {
	return sim.LogicFunc(func(ctx context.Context, uc *sim.UpdateContext) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.order = append(r.order, name)
		return nil
	})
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func (r *recorder) index(t *testing.T, name string) int {
	t.Helper()
	for i, n := range r.snapshot() {
		if n == name {
			return i
		}
	}
	t.Fatalf("node %q never ran; order: %v", name, r.snapshot())
	return -1
}

func newTestFrame(opts Options) *Frame {
	if opts.Runner == nil {
		opts.Runner = task.SyncRunner{}
	}
	if opts.Number == 0 {
		opts.Number = 1
	}
	return New(opts)
}

func runFrame(t *testing.T, f *Frame, root *sim.Node) error {
	t.Helper()
	ctx := ctxlog.Discard(context.Background())
	require.NoError(t, f.InitializeNodeGraph(ctx, root))
	return f.ExecuteNodeGraph(ctx)
}

func TestParentBodyRunsBeforeChildren(t *testing.T) {
	rec := &recorder{}
	root := sim.MustNew(sim.NodeSpec{Name: "root", Logic: rec.logic("root")})
	a := sim.MustNew(sim.NodeSpec{Name: "a", Logic: rec.logic("a")})
	b := sim.MustNew(sim.NodeSpec{Name: "b", Logic: rec.logic("b")})
	require.NoError(t, root.AddChild(a))
	require.NoError(t, a.AddChild(b))

	f := newTestFrame(Options{})
	require.NoError(t, runFrame(t, f, root))

	assert.Equal(t, []string{"root", "a", "b"}, rec.snapshot())
	for _, st := range f.States() {
		assert.Equal(t, StatusHierarchyFinished, st.Status, st.Node.Name())
	}
}

func TestPriorityOrdersSiblingDispatch(t *testing.T) {
	rec := &recorder{}
	root := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	low := sim.MustNew(sim.NodeSpec{Name: "low", Priority: 1, Logic: rec.logic("low")})
	high := sim.MustNew(sim.NodeSpec{Name: "high", Priority: 10, Logic: rec.logic("high")})
	require.NoError(t, root.AddChild(low))
	require.NoError(t, root.AddChild(high))

	f := newTestFrame(Options{})
	require.NoError(t, runFrame(t, f, root))

	assert.Equal(t, []string{"high", "low"}, rec.snapshot())
}

func TestUpdateAfterWaitsForWholeHierarchy(t *testing.T) {
	rec := &recorder{}
	root := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	first := sim.MustNew(sim.NodeSpec{Name: "first", Priority: 1, Logic: rec.logic("first")})
	firstChild := sim.MustNew(sim.NodeSpec{Name: "first-child", Logic: rec.logic("first-child")})
	// Higher priority, but the constraint must still hold it back until
	// first's entire subtree finished.
	second := sim.MustNew(sim.NodeSpec{
		Name: "second", Priority: 100, UpdateAfter: []string{"first"},
		Logic: rec.logic("second"),
	})
	require.NoError(t, root.AddChild(first))
	require.NoError(t, first.AddChild(firstChild))
	require.NoError(t, root.AddChild(second))

	f := newTestFrame(Options{})
	require.NoError(t, runFrame(t, f, root))

	assert.Equal(t, []string{"first", "first-child", "second"}, rec.snapshot())
}

func TestUpdateBeforeInvertsTheEdge(t *testing.T) {
	rec := &recorder{}
	root := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	late := sim.MustNew(sim.NodeSpec{Name: "late", Priority: 100, Logic: rec.logic("late")})
	early := sim.MustNew(sim.NodeSpec{
		Name: "early", Priority: 1, UpdateBefore: []string{"late"},
		Logic: rec.logic("early"),
	})
	require.NoError(t, root.AddChild(late))
	require.NoError(t, root.AddChild(early))

	f := newTestFrame(Options{})
	require.NoError(t, runFrame(t, f, root))

	assert.Equal(t, []string{"early", "late"}, rec.snapshot())
}

func TestConstraintOnAbsentNodeIsIgnored(t *testing.T) {
	rec := &recorder{}
	root := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	gated := sim.MustNew(sim.NodeSpec{Name: "gated", Logic: rec.logic("gated")})
	gated.SetEnabled(false)
	dependent := sim.MustNew(sim.NodeSpec{
		Name: "dependent", UpdateAfter: []string{"gated", "never-registered"},
		Logic: rec.logic("dependent"),
	})
	require.NoError(t, root.AddChild(gated))
	require.NoError(t, root.AddChild(dependent))

	f := newTestFrame(Options{})
	require.NoError(t, runFrame(t, f, root))

	assert.Equal(t, []string{"dependent"}, rec.snapshot())
	assert.Nil(t, f.State("gated"))
}

func TestDisabledNodeExcludesItsSubtree(t *testing.T) {
	rec := &recorder{}
	root := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	off := sim.MustNew(sim.NodeSpec{Name: "off", NoOp: true})
	off.SetEnabled(false)
	leaf := sim.MustNew(sim.NodeSpec{Name: "leaf", Logic: rec.logic("leaf")})
	require.NoError(t, root.AddChild(off))
	require.NoError(t, off.AddChild(leaf))

	f := newTestFrame(Options{})
	require.NoError(t, runFrame(t, f, root))

	assert.Empty(t, rec.snapshot())
	assert.Nil(t, f.State("leaf"))
}

func TestPacedNodeSkipsOffFrames(t *testing.T) {
	rec := &recorder{}
	root := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	paced := sim.MustNew(sim.NodeSpec{Name: "paced", Logic: rec.logic("paced")})
	paced.SetPaceEvery(3)
	require.NoError(t, root.AddChild(paced))

	ctx := ctxlog.Discard(context.Background())
	var ran []uint64
	for frame := uint64(1); frame <= 6; frame++ {
		f := New(Options{Number: frame, Runner: task.SyncRunner{}})
		require.NoError(t, f.InitializeNodeGraph(ctx, root))
		require.NoError(t, f.ExecuteNodeGraph(ctx))
		if f.State("paced") != nil {
			ran = append(ran, frame)
		}
	}
	assert.Equal(t, []uint64{3, 6}, ran)
	assert.Len(t, rec.snapshot(), 2)
}

func TestAncestorConstraintRejectedAtInit(t *testing.T) {
	root := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	child := sim.MustNew(sim.NodeSpec{
		Name: "child", UpdateAfter: []string{"root"},
		Logic: sim.LogicFunc(func(context.Context, *sim.UpdateContext) error { return nil }),
	})
	require.NoError(t, root.AddChild(child))

	f := newTestFrame(Options{})
	err := f.InitializeNodeGraph(ctxlog.Discard(context.Background()), root)
	var ace AncestorConstraintError
	require.ErrorAs(t, err, &ace)
	assert.Equal(t, "child", ace.Node)
	assert.Equal(t, "root", ace.Target)
	assert.Equal(t, "updateAfter", ace.Constraint)
}

func TestDuplicateNodeNameRejected(t *testing.T) {
	root := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	require.NoError(t, root.AddChild(sim.MustNew(sim.NodeSpec{Name: "twin", NoOp: true})))
	require.NoError(t, root.AddChild(sim.MustNew(sim.NodeSpec{Name: "twin", NoOp: true})))

	f := newTestFrame(Options{})
	err := f.InitializeNodeGraph(ctxlog.Discard(context.Background()), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate node name")
}

func TestConstraintCycleReportsDeadlock(t *testing.T) {
	rec := &recorder{}
	root := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	a := sim.MustNew(sim.NodeSpec{Name: "a", UpdateAfter: []string{"b"}, Logic: rec.logic("a")})
	b := sim.MustNew(sim.NodeSpec{Name: "b", UpdateAfter: []string{"a"}, Logic: rec.logic("b")})
	require.NoError(t, root.AddChild(a))
	require.NoError(t, root.AddChild(b))

	f := newTestFrame(Options{})
	err := runFrame(t, f, root)
	var dle DeadlockError
	require.ErrorAs(t, err, &dle)
	assert.Equal(t, uint64(1), dle.Frame)

	names := make([]string, 0, len(dle.Pending))
	for _, d := range dle.Pending {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "a")
	assert.Contains(t, names, "b")
	assert.Contains(t, err.Error(), `waitingOn=[b]`)
	assert.Empty(t, rec.snapshot())
}

func TestWriterExcludesConcurrentAccess(t *testing.T) {
	var active, maxActive atomic.Int32
	touch := func(name string) sim.Logic {
		return sim.LogicFunc(func(ctx context.Context, uc *sim.UpdateContext) error {
			n := active.Add(1)
			for {
				m := maxActive.Load()
				if n <= m || maxActive.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
			return nil
		})
	}

	root := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	for i := 0; i < 2; i++ {
		w := sim.MustNew(sim.NodeSpec{
			Name:   fmt.Sprintf("writer-%d", i),
			Writes: []string{"pages.bodies"},
			Logic:  touch("writer"),
		})
		require.NoError(t, root.AddChild(w))
	}
	for i := 0; i < 2; i++ {
		r := sim.MustNew(sim.NodeSpec{
			Name:  fmt.Sprintf("reader-%d", i),
			Reads: []string{"pages.bodies"},
			Logic: touch("reader"),
		})
		require.NoError(t, root.AddChild(r))
	}

	f := New(Options{Number: 1, Runner: task.GoRunner{}, Workers: 8})
	require.NoError(t, runFrame(t, f, root))

	// A writer never overlaps anything; only the two readers may run
	// together.
	assert.LessOrEqual(t, maxActive.Load(), int32(2))
}

func TestReadersShareTheLock(t *testing.T) {
	startedBoth := make(chan struct{})
	var started atomic.Int32
	reader := sim.LogicFunc(func(ctx context.Context, uc *sim.UpdateContext) error {
		if started.Add(1) == 2 {
			close(startedBoth)
		}
		select {
		case <-startedBoth:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("second reader never started; read locks are not shared")
		}
	})

	root := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	require.NoError(t, root.AddChild(sim.MustNew(sim.NodeSpec{
		Name: "reader-0", Reads: []string{"pages.bodies"}, Logic: reader,
	})))
	require.NoError(t, root.AddChild(sim.MustNew(sim.NodeSpec{
		Name: "reader-1", Reads: []string{"pages.bodies"}, Logic: reader,
	})))

	f := New(Options{Number: 1, Runner: task.GoRunner{}, Workers: 4})
	require.NoError(t, runFrame(t, f, root))
}

func TestCarriedObligationBlocksNextFrame(t *testing.T) {
	prev := NewObligationTable()
	prev.owe("straggler", nil, []string{"pages.bodies"})

	rec := &recorder{}
	root := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	reader := sim.MustNew(sim.NodeSpec{
		Name: "reader", Reads: []string{"pages.bodies"}, Logic: rec.logic("reader"),
	})
	require.NoError(t, root.AddChild(reader))

	f := newTestFrame(Options{Number: 2, Previous: prev})
	err := runFrame(t, f, root)
	var dle DeadlockError
	require.ErrorAs(t, err, &dle)
	assert.Empty(t, rec.snapshot())

	// Once the previous frame's holder drains, the same graph runs.
	prev.drain("straggler", nil, []string{"pages.bodies"})
	require.True(t, prev.Drained())
	f2 := newTestFrame(Options{Number: 2, Previous: prev})
	require.NoError(t, runFrame(t, f2, root))
	assert.Equal(t, []string{"reader"}, rec.snapshot())
}

func TestCarriedReadObligationBlocksOnlyWriters(t *testing.T) {
	prev := NewObligationTable()
	prev.owe("straggler", []string{"pages.bodies"}, nil)

	rec := &recorder{}
	root := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	require.NoError(t, root.AddChild(sim.MustNew(sim.NodeSpec{
		Name: "reader", Reads: []string{"pages.bodies"}, Logic: rec.logic("reader"),
	})))

	f := newTestFrame(Options{Number: 2, Previous: prev})
	require.NoError(t, runFrame(t, f, root))
	assert.Equal(t, []string{"reader"}, rec.snapshot())

	writerRoot := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	require.NoError(t, writerRoot.AddChild(sim.MustNew(sim.NodeSpec{
		Name: "writer", Writes: []string{"pages.bodies"}, Logic: rec.logic("writer"),
	})))
	f2 := newTestFrame(Options{Number: 2, Previous: prev})
	var dle DeadlockError
	require.ErrorAs(t, runFrame(t, f2, writerRoot), &dle)
}

func TestNodeErrorStopsDispatchAndPropagates(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("integration diverged")
	root := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	failing := sim.MustNew(sim.NodeSpec{
		Name: "failing",
		Logic: sim.LogicFunc(func(context.Context, *sim.UpdateContext) error {
			return boom
		}),
	})
	after := sim.MustNew(sim.NodeSpec{
		Name: "after", UpdateAfter: []string{"failing"}, Logic: rec.logic("after"),
	})
	require.NoError(t, root.AddChild(failing))
	require.NoError(t, root.AddChild(after))

	f := newTestFrame(Options{})
	err := runFrame(t, f, root)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `node "failing" failed on frame 1`)
	assert.Empty(t, rec.snapshot())
	assert.ErrorIs(t, f.State("failing").Err, boom)
}

func TestNoOpNodeNeedsNoWorkerSlot(t *testing.T) {
	rec := &recorder{}
	root := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	group := sim.MustNew(sim.NodeSpec{Name: "group", NoOp: true})
	leaf := sim.MustNew(sim.NodeSpec{Name: "leaf", Logic: rec.logic("leaf")})
	require.NoError(t, root.AddChild(group))
	require.NoError(t, group.AddChild(leaf))

	f := New(Options{Number: 1, Runner: task.SyncRunner{}, Workers: 1})
	require.NoError(t, runFrame(t, f, root))
	assert.Equal(t, []string{"leaf"}, rec.snapshot())
	assert.Equal(t, StatusHierarchyFinished, f.State("group").Status)
}

func TestObligationsDrainAsBodiesFinish(t *testing.T) {
	root := sim.MustNew(sim.NodeSpec{Name: "root", NoOp: true})
	require.NoError(t, root.AddChild(sim.MustNew(sim.NodeSpec{
		Name: "writer", Writes: []string{"pages.bodies"},
		Logic: sim.LogicFunc(func(context.Context, *sim.UpdateContext) error { return nil }),
	})))

	f := newTestFrame(Options{})
	ctx := ctxlog.Discard(context.Background())
	require.NoError(t, f.InitializeNodeGraph(ctx, root))
	assert.True(t, f.Obligations().HasAny("pages.bodies"))
	require.NoError(t, f.ExecuteNodeGraph(ctx))
	assert.True(t, f.Obligations().Drained())
}
