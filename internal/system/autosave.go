package system

import (
	"context"
	"time"

	coresys "github.com/l1jgo/worldcore/internal/core/system"
	"github.com/l1jgo/worldcore/internal/store"
	"go.uber.org/zap"
)

// Snapshotter produces a store tree of the whole world.
type Snapshotter interface {
	Save() (*store.Node, error)
}

// SlotSaver stores encoded store text under a slot name.
type SlotSaver interface {
	Save(ctx context.Context, slot, text string) error
}

// AutosaveSystem periodically writes the world to a file and, when a slot
// saver is configured, to a named save slot. Phase 3 (Persist).
type AutosaveSystem struct {
	world     Snapshotter
	path      string
	slots     SlotSaver
	slot      string
	log       *zap.Logger
	tickCount int
	interval  int // autosave every N ticks
}

// NewAutosaveSystem creates the system. path may be empty to skip files and
// slots may be nil to skip slots. intervalTicks <= 0 disables periodic saves.
func NewAutosaveSystem(world Snapshotter, path string, slots SlotSaver, slot string, log *zap.Logger, intervalTicks int) *AutosaveSystem {
	return &AutosaveSystem{
		world:    world,
		path:     path,
		slots:    slots,
		slot:     slot,
		log:      log,
		interval: intervalTicks,
	}
}

func (s *AutosaveSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *AutosaveSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	if err := s.SaveNow(); err != nil {
		s.log.Error("autosave failed", zap.Error(err))
	}
}

// SaveNow writes the world immediately. Used for graceful shutdown.
func (s *AutosaveSystem) SaveNow() error {
	root, err := s.world.Save()
	if err != nil {
		return err
	}
	if s.path != "" {
		if err := root.WriteFile(s.path); err != nil {
			return err
		}
	}
	if s.slots != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.slots.Save(ctx, s.slot, root.WriteString()); err != nil {
			return err
		}
	}
	s.log.Debug("world saved", zap.String("path", s.path), zap.String("slot", s.slot))
	return nil
}
