package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/simgridgo/internal/config"
	"github.com/vk/simgridgo/internal/ctxlog"
)

type testPosition struct{ X, Y float64 }

func newTestRegistry() *Registry {
	r := New()
	RegisterComponent[testPosition](r, "position")
	r.RegisterKind("mover", &RegisteredKind{})
	return r
}

func validModel() *config.Model {
	m := config.NewModel()
	m.Pages["bodies"] = &config.PageDef{Name: "bodies", Components: []string{"position"}}
	m.Nodes = append(m.Nodes, &config.NodeDef{
		Kind: "mover", Name: "m1", Writes: []string{"bodies"},
	})
	return m
}

func TestValidateScenario_AcceptsCoherentModel(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	require.NoError(t, newTestRegistry().ValidateScenario(ctx, validModel()))
}

func TestValidateScenario_CollectsAllProblems(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	m := config.NewModel()
	m.Pages["bodies"] = &config.PageDef{Name: "bodies", Components: []string{"mass"}}
	m.Nodes = append(m.Nodes,
		&config.NodeDef{Kind: "warp", Name: "w1", Reads: []string{"ghost"}},
		&config.NodeDef{Kind: "mover", Name: "w1"},
		&config.NodeDef{Kind: "mover", Name: "m2", Parent: "absent"},
	)

	err := newTestRegistry().ValidateScenario(ctx, m)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "component 'mass' is not registered")
	assert.Contains(t, msg, "kind 'warp' is not registered")
	assert.Contains(t, msg, "resource 'ghost' does not name a declared page")
	assert.Contains(t, msg, "node 'w1' is declared more than once")
	assert.Contains(t, msg, "parent 'absent' is not declared")
}

func TestRegisterKind_PanicsOnDuplicate(t *testing.T) {
	r := newTestRegistry()
	assert.Panics(t, func() {
		r.RegisterKind("mover", &RegisteredKind{})
	})
}

func TestRegisterComponent_PanicsOnDuplicate(t *testing.T) {
	r := newTestRegistry()
	assert.Panics(t, func() {
		RegisterComponent[testPosition](r, "position")
	})
}

func TestComponentsFor_ResolvesRegisteredNames(t *testing.T) {
	r := newTestRegistry()
	comps, ok := r.ComponentsFor([]string{"position"})
	require.True(t, ok)
	require.Len(t, comps, 1)
	assert.Equal(t, "position", comps[0].Name())

	_, ok = r.ComponentsFor([]string{"position", "mass"})
	assert.False(t, ok)
}
