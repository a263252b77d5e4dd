package data

import (
	"fmt"
	"os"

	"github.com/l1jgo/worldcore/internal/core/ecs"
	"github.com/l1jgo/worldcore/internal/geom"
	"github.com/l1jgo/worldcore/internal/transform"
	"gopkg.in/yaml.v3"
)

// PrefabNode is one entity of a prefab. Parent names another node's key in
// the same prefab; empty means the node is a root of the prefab.
type PrefabNode struct {
	Key        string      `yaml:"key"`
	Parent     string      `yaml:"parent"`
	Position   [2]float64  `yaml:"position"`
	Rotation   float64     `yaml:"rotation"` // radians
	Scale      *[2]float64 `yaml:"scale"`    // defaults to (1,1)
	Persistent bool        `yaml:"persistent"`
}

// Prefab is a named entity tree.
type Prefab struct {
	Name  string       `yaml:"name"`
	Nodes []PrefabNode `yaml:"nodes"`
}

// SpawnEntry places a prefab at boot.
type SpawnEntry struct {
	Prefab   string     `yaml:"prefab"`
	Position [2]float64 `yaml:"position"`
	Rotation float64    `yaml:"rotation"`
}

type prefabFile struct {
	Prefabs []Prefab     `yaml:"prefabs"`
	Spawns  []SpawnEntry `yaml:"spawns"`
}

// PrefabTable provides prefab lookup by name plus the boot spawn list.
type PrefabTable struct {
	prefabs map[string]*Prefab
	spawns  []SpawnEntry
}

// LoadPrefabTable loads prefabs.yaml.
func LoadPrefabTable(path string) (*PrefabTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prefab list: %w", err)
	}
	return ParsePrefabTable(raw)
}

// ParsePrefabTable validates that keys are unique and parents resolve
// without cycles.
func ParsePrefabTable(raw []byte) (*PrefabTable, error) {
	var f prefabFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse prefab list: %w", err)
	}
	t := &PrefabTable{
		prefabs: make(map[string]*Prefab, len(f.Prefabs)),
		spawns:  f.Spawns,
	}
	for i := range f.Prefabs {
		p := &f.Prefabs[i]
		if _, dup := t.prefabs[p.Name]; dup {
			return nil, fmt.Errorf("prefab %q defined twice", p.Name)
		}
		if _, err := p.order(); err != nil {
			return nil, err
		}
		t.prefabs[p.Name] = p
	}
	for _, s := range t.spawns {
		if _, ok := t.prefabs[s.Prefab]; !ok {
			return nil, fmt.Errorf("spawn references unknown prefab %q", s.Prefab)
		}
	}
	return t, nil
}

// Get returns the prefab with the given name, or nil if none.
func (t *PrefabTable) Get(name string) *Prefab {
	return t.prefabs[name]
}

// Count returns the total number of prefabs loaded.
func (t *PrefabTable) Count() int {
	return len(t.prefabs)
}

func (t *PrefabTable) Spawns() []SpawnEntry { return t.spawns }

// order returns node indices with every parent before its children.
func (p *Prefab) order() ([]int, error) {
	index := make(map[string]int, len(p.Nodes))
	for i, n := range p.Nodes {
		if _, dup := index[n.Key]; dup {
			return nil, fmt.Errorf("prefab %q: duplicate key %q", p.Name, n.Key)
		}
		index[n.Key] = i
	}
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(p.Nodes))
	out := make([]int, 0, len(p.Nodes))
	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("prefab %q: parent cycle at %q", p.Name, p.Nodes[i].Key)
		}
		state[i] = visiting
		if parent := p.Nodes[i].Parent; parent != "" {
			j, ok := index[parent]
			if !ok {
				return fmt.Errorf("prefab %q: node %q has unknown parent %q", p.Name, p.Nodes[i].Key, parent)
			}
			if err := visit(j); err != nil {
				return err
			}
		}
		state[i] = done
		out = append(out, i)
		return nil
	}
	for i := range p.Nodes {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Spawn instantiates the prefab. Root nodes are offset by at and rotated by
// rot. Returns the created entities keyed by node key.
func (p *Prefab) Spawn(m *ecs.Manager, ts *transform.System, at geom.Vec2, rot float64) (map[string]ecs.Entity, error) {
	order, err := p.order()
	if err != nil {
		return nil, err
	}
	ents := make(map[string]ecs.Entity, len(p.Nodes))
	for _, i := range order {
		n := p.Nodes[i]
		e := m.Create()
		ents[n.Key] = e
		if n.Persistent {
			m.SetPersistent(e, true)
		}
		ts.Add(e)
		pos := geom.V(n.Position[0], n.Position[1])
		r := n.Rotation
		if n.Parent == "" {
			pos = pos.Rotate(rot).Add(at)
			r += rot
		} else {
			ts.SetParent(e, ents[n.Parent])
		}
		ts.SetPosition(e, pos)
		ts.SetRotation(e, r)
		if n.Scale != nil {
			ts.SetScale(e, geom.V(n.Scale[0], n.Scale[1]))
		}
	}
	return ents, nil
}

// SpawnAll places every entry of the spawn list and returns the number of
// entities created.
func (t *PrefabTable) SpawnAll(m *ecs.Manager, ts *transform.System) (int, error) {
	count := 0
	for _, s := range t.spawns {
		ents, err := t.prefabs[s.Prefab].Spawn(m, ts, geom.V(s.Position[0], s.Position[1]), s.Rotation)
		if err != nil {
			return count, err
		}
		count += len(ents)
	}
	return count, nil
}
