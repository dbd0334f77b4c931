package particles

import (
	"context"

	"github.com/vk/simgridgo/internal/registry"
	"github.com/vk/simgridgo/internal/sim"
)

// IntegrateInput defines the arguments for the particles_integrate kind.
type IntegrateInput struct {
	Page string `sgo:"page,required"`
	// Dt is the timestep applied per frame.
	Dt float64 `sgo:"dt"`
}

func newIntegrateInput() *IntegrateInput {
	return &IntegrateInput{Dt: 1}
}

type integrateLogic struct {
	input *IntegrateInput
	h     handles
}

func buildIntegrate(ctx context.Context, args registry.BuildArgs) (sim.Logic, error) {
	h, err := resolveHandles(args.Store)
	if err != nil {
		return nil, err
	}
	return &integrateLogic{input: args.Input.(*IntegrateInput), h: h}, nil
}

// Update advances every live particle by one timestep.
func (l *integrateLogic) Update(ctx context.Context, uc *sim.UpdateContext) error {
	view, err := uc.Write(l.input.Page)
	if err != nil {
		return err
	}

	tokens, err := view.Tokens()
	if err != nil {
		return err
	}
	for _, tok := range tokens {
		pos, err := sim.Mut(view, l.h.pos, tok)
		if err != nil {
			return err
		}
		vel, err := sim.Get(view, l.h.vel, tok)
		if err != nil {
			return err
		}
		pos.X += vel.DX * l.input.Dt
		pos.Y += vel.DY * l.input.Dt
	}
	return nil
}
