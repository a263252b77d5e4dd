package event

import "github.com/l1jgo/worldcore/internal/core/ecs"

// ParentChanged is emitted when an entity's transform parent changes.
type ParentChanged struct {
	Entity    ecs.Entity
	OldParent ecs.Entity
	NewParent ecs.Entity
}

// EntitiesReaped is emitted after the tick-end sweep removed records of
// destroyed entities from registered stores.
type EntitiesReaped struct {
	Records int
}

// SceneLoaded is emitted after a store was merged into the live world.
type SceneLoaded struct {
	Source   string
	Entities int
}

// SceneSaved is emitted after the world was written to a store.
type SceneSaved struct {
	Target string
	Bytes  int
}
