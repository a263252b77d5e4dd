package system

import (
	"time"

	"github.com/l1jgo/worldcore/internal/core/ecs"
	"github.com/l1jgo/worldcore/internal/core/event"
	coresys "github.com/l1jgo/worldcore/internal/core/system"
)

// CleanupSystem sweeps destroyed entities out of every registered store and
// advances the destruction machine at tick end.
// Phase 4 (Cleanup).
type CleanupSystem struct {
	world *ecs.World
	bus   *event.Bus
}

func NewCleanupSystem(world *ecs.World, bus *event.Bus) *CleanupSystem {
	return &CleanupSystem{world: world, bus: bus}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if n := s.world.Update(); n > 0 {
		event.Emit(s.bus, event.EntitiesReaped{Records: n})
	}
}
