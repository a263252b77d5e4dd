package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/l1jgo/worldcore/internal/core/ecs"
	coresys "github.com/l1jgo/worldcore/internal/core/system"
	"github.com/l1jgo/worldcore/internal/geom"
	"github.com/l1jgo/worldcore/internal/scene"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM bound to a scene.
// Single-goroutine access only (game loop).
type Engine struct {
	vm    *lua.LState
	scene *scene.Scene
	log   *zap.Logger
}

// NewEngine creates a Lua engine, registers the entity and transform API and
// loads every .lua file in scriptsDir in name order. A missing directory is
// not an error.
func NewEngine(scriptsDir string, sc *scene.Scene, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, scene: sc, log: log}
	e.register()

	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

// DoString runs a chunk of Lua source.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) Phase() coresys.Phase { return coresys.PhaseScript }

// Update calls the global update(dt) function, if scripts defined one. Script
// errors are logged and do not stop the tick.
func (e *Engine) Update(dt time.Duration) {
	fn := e.vm.GetGlobal("update")
	if fn == lua.LNil {
		return
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(dt.Seconds())); err != nil {
		e.log.Error("lua update error", zap.Error(err))
	}
}

// guard turns assertion panics raised by engine calls into Lua errors so a
// misbehaving script cannot bring down the host.
func guard(fn lua.LGFunction) lua.LGFunction {
	return func(L *lua.LState) int {
		var err error
		n := func() (n int) {
			defer ecs.Recover(&err)
			return fn(L)
		}()
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		return n
	}
}

// checkID reads an entity id argument. Values outside the id space raise a
// Lua error instead of wrapping onto another entity.
func checkID(L *lua.LState, n int) ecs.Entity {
	v := float64(L.CheckNumber(n))
	if v < 0 || v > math.MaxUint32 || v != math.Trunc(v) {
		L.ArgError(n, "entity id out of range")
	}
	return ecs.Entity(v)
}

// checkEntity reads an id that must name an allocated entity.
func checkEntity(L *lua.LState, m *ecs.Manager, n int) ecs.Entity {
	e := checkID(L, n)
	if !m.Exists(e) {
		L.ArgError(n, e.String()+" does not exist")
	}
	return e
}

// checkParent is checkEntity that also accepts 0 for "no parent".
func checkParent(L *lua.LState, m *ecs.Manager, n int) ecs.Entity {
	if e := checkID(L, n); e.IsNil() {
		return e
	}
	return checkEntity(L, m, n)
}

func pushEntity(L *lua.LState, ent ecs.Entity) {
	L.Push(lua.LNumber(ent))
}

func (e *Engine) register() {
	m := e.scene.Manager()
	ts := e.scene.Transforms()
	fns := map[string]lua.LGFunction{
		"entity_create": func(L *lua.LState) int {
			pushEntity(L, m.Create())
			return 1
		},
		"entity_destroy": func(L *lua.LState) int {
			m.Destroy(checkEntity(L, m, 1))
			return 0
		},
		"entity_destroyed": func(L *lua.LState) int {
			L.Push(lua.LBool(m.Destroyed(checkID(L, 1))))
			return 1
		},
		"entity_set_save_filter": func(L *lua.LState) int {
			m.SetSaveFilter(checkEntity(L, m, 1), L.CheckBool(2))
			return 0
		},
		"transform_add": func(L *lua.LState) int {
			ts.Add(checkEntity(L, m, 1))
			return 0
		},
		"transform_remove": func(L *lua.LState) int {
			ts.Remove(checkEntity(L, m, 1))
			return 0
		},
		"transform_set_parent": func(L *lua.LState) int {
			if err := ts.SetParentChecked(checkEntity(L, m, 1), checkParent(L, m, 2)); err != nil {
				L.RaiseError("%s", err.Error())
			}
			return 0
		},
		"transform_get_parent": func(L *lua.LState) int {
			pushEntity(L, ts.Parent(checkEntity(L, m, 1)))
			return 1
		},
		"transform_set_position": func(L *lua.LState) int {
			ts.SetPosition(checkEntity(L, m, 1), geom.V(float64(L.CheckNumber(2)), float64(L.CheckNumber(3))))
			return 0
		},
		"transform_translate": func(L *lua.LState) int {
			ts.Translate(checkEntity(L, m, 1), geom.V(float64(L.CheckNumber(2)), float64(L.CheckNumber(3))))
			return 0
		},
		"transform_set_rotation": func(L *lua.LState) int {
			ts.SetRotation(checkEntity(L, m, 1), float64(L.CheckNumber(2)))
			return 0
		},
		"transform_rotate": func(L *lua.LState) int {
			ts.Rotate(checkEntity(L, m, 1), float64(L.CheckNumber(2)))
			return 0
		},
		"transform_set_scale": func(L *lua.LState) int {
			ts.SetScale(checkEntity(L, m, 1), geom.V(float64(L.CheckNumber(2)), float64(L.CheckNumber(3))))
			return 0
		},
		"transform_get_world_position": func(L *lua.LState) int {
			p := ts.WorldPosition(checkEntity(L, m, 1))
			L.Push(lua.LNumber(p.X))
			L.Push(lua.LNumber(p.Y))
			return 2
		},
		"transform_get_world_rotation": func(L *lua.LState) int {
			L.Push(lua.LNumber(ts.WorldRotation(checkEntity(L, m, 1))))
			return 1
		},
		"transform_destroy_rec": func(L *lua.LState) int {
			ts.DestroyRec(checkEntity(L, m, 1))
			return 0
		},
	}
	for name, fn := range fns {
		e.vm.SetGlobal(name, e.vm.NewFunction(guard(fn)))
	}
}
