package system

import (
	"time"

	"github.com/l1jgo/worldcore/internal/store"
)

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseScript     Phase = iota // 0: script update hooks
	PhaseUpdate                  // 1: per-system game logic
	PhasePostUpdate              // 2: derived state
	PhasePersist                 // 3: autosave
	PhaseCleanup                 // 4: reap destroyed entities, advance destruction
)

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

// Persistent is implemented by systems that own per-entity state which is
// part of a world save. Save and Load are called once per world save/load, in
// a fixed order, each with the system's own section named by Name.
type Persistent interface {
	Name() string
	Save(n *store.Node) error
	Load(n *store.Node) error
}
