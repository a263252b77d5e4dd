// Package scene wires the entity manager, the transform hierarchy and any
// collaborating systems into one world with a fixed update and save order.
package scene

import (
	"fmt"
	"time"

	"github.com/l1jgo/worldcore/internal/core/ecs"
	"github.com/l1jgo/worldcore/internal/core/event"
	coresys "github.com/l1jgo/worldcore/internal/core/system"
	"github.com/l1jgo/worldcore/internal/store"
	"github.com/l1jgo/worldcore/internal/system"
	"github.com/l1jgo/worldcore/internal/transform"
	"go.uber.org/zap"
)

// Scene owns one running world.
type Scene struct {
	log        *zap.Logger
	world      *ecs.World
	bus        *event.Bus
	runner     *coresys.Runner
	transforms *transform.System

	// Save/load order: entities, transforms, then systems in registration order.
	persistent []coresys.Persistent
}

func New(log *zap.Logger) *Scene {
	w := ecs.NewWorld()
	bus := event.NewBus()
	ts := transform.New(w.Manager(), bus)
	s := &Scene{
		log:        log,
		world:      w,
		bus:        bus,
		runner:     coresys.NewRunner(),
		transforms: ts,
		persistent: []coresys.Persistent{w.Manager(), ts},
	}
	w.Registry().Register(ts)
	s.runner.Register(system.NewCleanupSystem(w, bus))
	return s
}

func (s *Scene) World() *ecs.World                { return s.world }
func (s *Scene) Manager() *ecs.Manager            { return s.world.Manager() }
func (s *Scene) Transforms() *transform.System    { return s.transforms }
func (s *Scene) Bus() *event.Bus                  { return s.bus }
func (s *Scene) Runner() *coresys.Runner          { return s.runner }
func (s *Scene) Persistent() []coresys.Persistent { return s.persistent }

// Register adds a system to the tick. Systems that implement
// coresys.Persistent join the save order; systems that implement ecs.Reaper
// are swept for destroyed entities at tick end.
func (s *Scene) Register(sys coresys.System) {
	s.runner.Register(sys)
	if p, ok := sys.(coresys.Persistent); ok {
		s.AddPersistent(p)
	}
	if r, ok := sys.(ecs.Reaper); ok {
		s.world.Registry().Register(r)
	}
}

// AddPersistent appends a store that is not a ticking system to the save order.
func (s *Scene) AddPersistent(p coresys.Persistent) {
	s.persistent = append(s.persistent, p)
}

// Update runs one tick: last tick's events are delivered, systems run in
// phase order, and the cleanup phase reaps destroyed entities.
func (s *Scene) Update(dt time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
	s.runner.Tick(dt)
}

// Save writes every persistent store into a fresh tree, one section each.
func (s *Scene) Save() (*store.Node, error) {
	root := store.Open()
	for _, p := range s.persistent {
		if err := p.Save(root.ChildSave(p.Name())); err != nil {
			return nil, fmt.Errorf("save %s: %w", p.Name(), err)
		}
	}
	return root, nil
}

// Load merges a saved tree into the live world. Saved entity ids are remapped
// through one remap table shared by every section. Missing sections are
// skipped.
func (s *Scene) Load(root *store.Node, source string) error {
	m := s.Manager()
	m.BeginLoad()
	defer m.EndLoad()
	for _, p := range s.persistent {
		sec, ok := root.ChildLoad(p.Name())
		if !ok {
			s.log.Debug("store section missing", zap.String("section", p.Name()), zap.String("source", source))
			continue
		}
		if err := p.Load(sec); err != nil {
			return fmt.Errorf("load %s: %w", p.Name(), err)
		}
	}
	n := m.LoadCount()
	s.log.Info("scene loaded", zap.String("source", source), zap.Int("entities", n))
	event.Emit(s.bus, event.SceneLoaded{Source: source, Entities: n})
	return nil
}

func (s *Scene) WriteString() (string, error) {
	root, err := s.Save()
	if err != nil {
		return "", err
	}
	return root.WriteString(), nil
}

func (s *Scene) LoadString(text string) error {
	root, err := store.OpenFromString(text)
	if err != nil {
		return err
	}
	return s.Load(root, "string")
}

func (s *Scene) SaveToFile(path string) error {
	root, err := s.Save()
	if err != nil {
		return err
	}
	if err := root.WriteFile(path); err != nil {
		return err
	}
	bytes := len(root.WriteString())
	s.log.Info("scene saved", zap.String("path", path), zap.Int("bytes", bytes))
	event.Emit(s.bus, event.SceneSaved{Target: path, Bytes: bytes})
	return nil
}

func (s *Scene) LoadFromFile(path string) error {
	root, err := store.OpenFromFile(path)
	if err != nil {
		return err
	}
	return s.Load(root, path)
}
