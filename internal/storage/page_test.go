package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct{ X, Y float64 }

type velocity struct{ DX, DY float64 }

func newTestPage(t *testing.T, opts PageOptions) (*Store, *Page, ComponentType[position], ComponentType[velocity]) {
	t.Helper()
	store := NewStore(StoreOptions{EntityCapacity: 256, Checked: true})
	pos := RegisterComponent[position](store.Components(), "position")
	vel := RegisterComponent[velocity](store.Components(), "velocity")
	page, err := store.CreatePage("particles", opts, pos, vel)
	require.NoError(t, err)
	return store, page, pos, vel
}

func linearSlots(t *testing.T, page *Page, tokens []AccessToken) []int {
	t.Helper()
	out := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		fresh, err := page.Token(tok.Handle())
		require.NoError(t, err)
		out = append(out, fresh.Slot().linear(page.ChunkSize()))
	}
	return out
}

func TestPageAllocGrowsChunksInLockStep(t *testing.T) {
	_, page, pos, _ := newTestPage(t, PageOptions{ChunkSize: 4, MaxChunks: 8})

	tokens, err := page.Alloc(10)
	require.NoError(t, err)
	require.Len(t, tokens, 10)

	assert.Equal(t, 10, page.Count())
	assert.Equal(t, 3, page.ChunkCount())

	col, err := ColumnOf(page, pos)
	require.NoError(t, err)
	assert.Equal(t, 4, col.ChunkAt(0).Live())
	assert.Equal(t, 4, col.ChunkAt(1).Live())
	assert.Equal(t, 2, col.ChunkAt(2).Live())
}

func TestPageComponentRoundTrip(t *testing.T) {
	_, page, pos, vel := newTestPage(t, PageOptions{ChunkSize: 4})

	tokens, err := page.Alloc(3)
	require.NoError(t, err)

	p, err := Mut(page, pos, tokens[1])
	require.NoError(t, err)
	p.X, p.Y = 3, 4

	v, err := Mut(page, vel, tokens[1])
	require.NoError(t, err)
	v.DX = 1

	got, err := Get(page, pos, tokens[1])
	require.NoError(t, err)
	assert.Equal(t, position{X: 3, Y: 4}, *got)

	md, err := page.Metadata(tokens[1])
	require.NoError(t, err)
	assert.Equal(t, uint32(2), md.FieldWrites)
	assert.Equal(t, 2, md.ComponentCount)
}

func TestPagePackScenario(t *testing.T) {
	// 10 entities over chunk size 4 fills chunks as 4, 4, 2. Freeing slots
	// 1, 3, and 5 then packing 3 must leave 7 live entities in slots [0,6]
	// with a single pack-version bump and the empty tail chunk recycled.
	_, page, _, _ := newTestPage(t, PageOptions{ChunkSize: 4, MaxChunks: 8})

	tokens, err := page.Alloc(10)
	require.NoError(t, err)
	require.Equal(t, 3, page.ChunkCount())
	before := page.PackVersion()

	require.NoError(t, page.Free(tokens[1], tokens[3], tokens[5]))
	assert.Equal(t, 7, page.Count())

	moved, err := page.Pack(3)
	require.NoError(t, err)
	assert.Equal(t, 3, moved)
	assert.Equal(t, before+1, page.PackVersion())
	assert.Equal(t, 2, page.ChunkCount())

	survivors := []AccessToken{tokens[0], tokens[2], tokens[4], tokens[6], tokens[7], tokens[8], tokens[9]}
	slots := linearSlots(t, page, survivors)
	for _, slot := range slots {
		assert.Less(t, slot, page.Count())
	}
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6}, slots)
}

func TestPagePackPreservesComponentValues(t *testing.T) {
	_, page, pos, _ := newTestPage(t, PageOptions{ChunkSize: 4})

	tokens, err := page.Alloc(6)
	require.NoError(t, err)
	for i, tok := range tokens {
		p, err := Mut(page, pos, tok)
		require.NoError(t, err)
		p.X = float64(i)
	}

	require.NoError(t, page.Free(tokens[0], tokens[2]))
	_, err = page.Pack(2)
	require.NoError(t, err)

	for _, i := range []int{1, 3, 4, 5} {
		fresh, err := page.Token(tokens[i].Handle())
		require.NoError(t, err)
		p, err := Get(page, pos, fresh)
		require.NoError(t, err)
		assert.Equal(t, float64(i), p.X, "entity %d kept its value across the move", i)
	}
}

func TestPackInvalidatesAllPriorTokens(t *testing.T) {
	_, page, _, _ := newTestPage(t, PageOptions{ChunkSize: 4})

	tokens, err := page.Alloc(4)
	require.NoError(t, err)
	require.NoError(t, page.Free(tokens[0]))

	_, err = page.Pack(1)
	require.NoError(t, err)

	// Every token issued before the pack is invalid, moved or not.
	for _, tok := range tokens[1:] {
		assert.Error(t, tok.CheckIsValid(page))
	}
	// Re-acquired tokens are valid again.
	for _, tok := range tokens[1:] {
		fresh, err := page.Token(tok.Handle())
		require.NoError(t, err)
		assert.NoError(t, fresh.CheckIsValid(page))
	}
}

func TestPackRetiresDeadTrailingSlots(t *testing.T) {
	_, page, _, _ := newTestPage(t, PageOptions{ChunkSize: 4})

	tokens, err := page.Alloc(5)
	require.NoError(t, err)
	// Free the top two slots; packing must retire them without copying.
	require.NoError(t, page.Free(tokens[4], tokens[3]))

	moved, err := page.Pack(2)
	require.NoError(t, err)
	assert.Zero(t, moved)
	assert.Equal(t, 3, page.Count())
	assert.Equal(t, 1, page.ChunkCount())
}

func TestPageCountMatchesLiveTokens(t *testing.T) {
	_, page, _, _ := newTestPage(t, PageOptions{ChunkSize: 4})

	a, err := page.Alloc(6)
	require.NoError(t, err)
	require.NoError(t, page.Free(a[1], a[4]))
	b, err := page.Alloc(3)
	require.NoError(t, err)
	require.NoError(t, page.Free(b[0]))

	assert.Equal(t, 6, page.Count())

	_, err = page.Pack(len(a) + len(b))
	require.NoError(t, err)
	assert.Equal(t, 6, page.Count())

	live := 0
	for _, tok := range append(a, b...) {
		if _, err := page.Token(tok.Handle()); err == nil {
			live++
		}
	}
	assert.Equal(t, page.Count(), live)
}

func TestAllocReusesFreedSlotsButNotTokens(t *testing.T) {
	_, page, _, _ := newTestPage(t, PageOptions{ChunkSize: 4})

	first, err := page.Alloc(4)
	require.NoError(t, err)
	require.NoError(t, page.Free(first...))
	require.Zero(t, page.Count())

	second, err := page.Alloc(4)
	require.NoError(t, err)
	assert.Equal(t, 4, page.Count())

	for _, old := range first {
		assert.Error(t, old.CheckIsValid(page), "freed tokens are single-use per generation")
		for _, fresh := range second {
			assert.NotEqual(t, old.Handle(), fresh.Handle())
		}
	}
}

func TestAutoPackRunsOnFree(t *testing.T) {
	_, page, _, _ := newTestPage(t, PageOptions{ChunkSize: 4, AutoPack: true})

	tokens, err := page.Alloc(6)
	require.NoError(t, err)
	before := page.PackVersion()

	require.NoError(t, page.Free(tokens[0]))
	assert.Equal(t, before+1, page.PackVersion())

	slots := make(map[int]bool)
	for _, tok := range tokens[1:] {
		fresh, err := page.Token(tok.Handle())
		require.NoError(t, err)
		slots[fresh.Slot().linear(page.ChunkSize())] = true
	}
	for i := 0; i < page.Count(); i++ {
		assert.True(t, slots[i], "live slots form a contiguous prefix")
	}
}

func TestPageCapacityFault(t *testing.T) {
	_, page, _, _ := newTestPage(t, PageOptions{ChunkSize: 4, MaxChunks: 2})

	_, err := page.Alloc(8)
	require.NoError(t, err)

	_, err = page.Alloc(1)
	var capErr CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 8, capErr.Capacity)
}

func TestDoubleFreeFailsFast(t *testing.T) {
	_, page, _, _ := newTestPage(t, PageOptions{ChunkSize: 4})

	tokens, err := page.Alloc(2)
	require.NoError(t, err)
	require.NoError(t, page.Free(tokens[0]))

	err = page.Free(tokens[0])
	var tokenErr InvalidTokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, 1, page.Count())
}

func TestDisposedPageRejectsEverything(t *testing.T) {
	_, page, _, _ := newTestPage(t, PageOptions{ChunkSize: 4})
	tokens, err := page.Alloc(1)
	require.NoError(t, err)

	page.Dispose()

	var disposed DisposedError
	_, err = page.Alloc(1)
	assert.ErrorAs(t, err, &disposed)
	assert.ErrorAs(t, page.Free(tokens[0]), &disposed)
	_, err = page.Pack(1)
	assert.ErrorAs(t, err, &disposed)
	assert.Error(t, tokens[0].CheckIsValid(page))
}
