package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/worldcore/internal/core/ecs"
	"github.com/l1jgo/worldcore/internal/geom"
	"github.com/l1jgo/worldcore/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shipYAML = `
prefabs:
  - name: ship
    nodes:
      - key: turret
        parent: hull
        position: [1, 0]
      - key: hull
        position: [0, 0]
        scale: [2, 2]
        persistent: true
spawns:
  - prefab: ship
    position: [10, 5]
  - prefab: ship
    position: [-3, 0]
`

func TestLoadPrefabTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefabs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(shipYAML), 0o644))

	table, err := LoadPrefabTable(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Count())
	assert.Len(t, table.Spawns(), 2)
	assert.NotNil(t, table.Get("ship"))
	assert.Nil(t, table.Get("missing"))
}

func TestSpawnBuildsHierarchy(t *testing.T) {
	table, err := ParsePrefabTable([]byte(shipYAML))
	require.NoError(t, err)

	m := ecs.NewManager()
	ts := transform.New(m, nil)
	ents, err := table.Get("ship").Spawn(m, ts, geom.V(10, 5), 0)
	require.NoError(t, err)

	hull, turret := ents["hull"], ents["turret"]
	assert.Equal(t, hull, ts.Parent(turret))
	assert.True(t, m.Persistent(hull))
	assert.False(t, m.Persistent(turret))
	// The turret sits one local unit right of a hull scaled by 2.
	assert.True(t, ts.WorldPosition(turret).ApproxEqual(geom.V(12, 5), geom.Epsilon))
}

func TestSpawnAll(t *testing.T) {
	table, err := ParsePrefabTable([]byte(shipYAML))
	require.NoError(t, err)
	m := ecs.NewManager()
	ts := transform.New(m, nil)
	n, err := table.SpawnAll(m, ts)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, m.Count())
	assert.Equal(t, 4, ts.Len())
}

func TestParseRejectsBadTables(t *testing.T) {
	cases := map[string]string{
		"cycle": `
prefabs:
  - name: loop
    nodes:
      - {key: a, parent: b}
      - {key: b, parent: a}
`,
		"unknown parent": `
prefabs:
  - name: p
    nodes:
      - {key: a, parent: nope}
`,
		"duplicate key": `
prefabs:
  - name: p
    nodes:
      - {key: a}
      - {key: a}
`,
		"unknown spawn": `
prefabs: []
spawns:
  - prefab: ghost
`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePrefabTable([]byte(src))
			assert.Error(t, err)
		})
	}
}
