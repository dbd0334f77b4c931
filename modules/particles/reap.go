package particles

import (
	"context"
	"math"

	"github.com/vk/simgridgo/internal/ctxlog"
	"github.com/vk/simgridgo/internal/registry"
	"github.com/vk/simgridgo/internal/sim"
	"github.com/vk/simgridgo/internal/storage"
)

// ReapInput defines the arguments for the particles_reap kind.
type ReapInput struct {
	Page string `sgo:"page,required"`
	// Bound is the coordinate magnitude past which a particle is freed.
	Bound float64 `sgo:"bound,required"`
	// PackBudget caps how many live entities one frame may relocate while
	// defragmenting. Ignored on auto-packing pages.
	PackBudget int `sgo:"pack_budget"`
}

func newReapInput() *ReapInput {
	return &ReapInput{PackBudget: 64}
}

type reapLogic struct {
	input *ReapInput
	h     handles
}

func buildReap(ctx context.Context, args registry.BuildArgs) (sim.Logic, error) {
	h, err := resolveHandles(args.Store)
	if err != nil {
		return nil, err
	}
	return &reapLogic{input: args.Input.(*ReapInput), h: h}, nil
}

// Update frees every particle outside the bound, then defragments within
// the configured budget.
func (l *reapLogic) Update(ctx context.Context, uc *sim.UpdateContext) error {
	logger := ctxlog.FromContext(ctx)

	view, err := uc.Write(l.input.Page)
	if err != nil {
		return err
	}

	tokens, err := view.Tokens()
	if err != nil {
		return err
	}
	var doomed []storage.AccessToken
	for _, tok := range tokens {
		pos, err := sim.Get(view, l.h.pos, tok)
		if err != nil {
			return err
		}
		if math.Abs(pos.X) > l.input.Bound || math.Abs(pos.Y) > l.input.Bound {
			doomed = append(doomed, tok)
		}
	}
	if len(doomed) == 0 {
		return nil
	}

	if err := view.Free(doomed...); err != nil {
		return err
	}
	moved := 0
	if l.input.PackBudget > 0 {
		if moved, err = view.Pack(l.input.PackBudget); err != nil {
			return err
		}
	}

	logger.Debug("Particles reaped.",
		"page", l.input.Page, "freed", len(doomed), "moved", moved, "live", view.Count())
	return nil
}
