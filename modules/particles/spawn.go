package particles

import (
	"context"
	"math"

	"github.com/vk/simgridgo/internal/ctxlog"
	"github.com/vk/simgridgo/internal/registry"
	"github.com/vk/simgridgo/internal/sim"
)

// SpawnInput defines the arguments for the particles_spawn kind.
type SpawnInput struct {
	// Page names the page entities are allocated into; it must also appear
	// in the node's writes list.
	Page string `sgo:"page,required"`
	// Count is how many particles each frame adds.
	Count int `sgo:"count,required"`
	// Speed scales the initial velocity magnitude.
	Speed float64 `sgo:"speed"`
	// Max caps the page's live population; spawning pauses at the cap.
	Max int `sgo:"max"`
}

func newSpawnInput() *SpawnInput {
	return &SpawnInput{Speed: 1}
}

type spawnLogic struct {
	input  *SpawnInput
	h      handles
	minted int
}

func buildSpawn(ctx context.Context, args registry.BuildArgs) (sim.Logic, error) {
	h, err := resolveHandles(args.Store)
	if err != nil {
		return nil, err
	}
	return &spawnLogic{input: args.Input.(*SpawnInput), h: h}, nil
}

// Update allocates a batch of particles at the origin with deterministic
// fan-out velocities.
func (s *spawnLogic) Update(ctx context.Context, uc *sim.UpdateContext) error {
	logger := ctxlog.FromContext(ctx)

	view, err := uc.Write(s.input.Page)
	if err != nil {
		return err
	}

	count := s.input.Count
	if s.input.Max > 0 {
		if room := s.input.Max - view.Count(); room < count {
			count = room
		}
	}
	if count <= 0 {
		return nil
	}

	tokens, err := view.Alloc(count)
	if err != nil {
		return err
	}
	for _, tok := range tokens {
		vel, err := sim.Mut(view, s.h.vel, tok)
		if err != nil {
			return err
		}
		// The golden angle spreads successive particles evenly.
		angle := float64(s.minted) * 2.399963229728653
		vel.DX = math.Cos(angle) * s.input.Speed
		vel.DY = math.Sin(angle) * s.input.Speed
		s.minted++
	}

	logger.Debug("Particles spawned.",
		"page", s.input.Page, "count", count, "live", view.Count())
	return nil
}
