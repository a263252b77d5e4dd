package system

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/l1jgo/worldcore/internal/core/ecs"
	"github.com/l1jgo/worldcore/internal/core/event"
	"github.com/l1jgo/worldcore/internal/store"
)

type fakeSnapshot struct {
	calls int
	err   error
}

func (f *fakeSnapshot) Save() (*store.Node, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	root := store.Open()
	root.SaveInt("calls", int64(f.calls))
	return root, nil
}

type fakeSlots struct {
	saved map[string]string
}

func (f *fakeSlots) Save(_ context.Context, slot, text string) error {
	f.saved[slot] = text
	return nil
}

func TestAutosaveInterval(t *testing.T) {
	snap := &fakeSnapshot{}
	path := filepath.Join(t.TempDir(), "auto.store")
	slots := &fakeSlots{saved: map[string]string{}}
	s := NewAutosaveSystem(snap, path, slots, "auto", zaptest.NewLogger(t), 3)

	s.Update(time.Millisecond)
	s.Update(time.Millisecond)
	assert.Equal(t, 0, snap.calls)
	s.Update(time.Millisecond)
	assert.Equal(t, 1, snap.calls)

	root, err := store.OpenFromFile(path)
	require.NoError(t, err)
	n, _ := root.LoadInt("calls", 0)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, root.WriteString(), slots.saved["auto"])

	for i := 0; i < 3; i++ {
		s.Update(time.Millisecond)
	}
	assert.Equal(t, 2, snap.calls)
}

func TestAutosaveDisabled(t *testing.T) {
	snap := &fakeSnapshot{}
	s := NewAutosaveSystem(snap, "", nil, "", zaptest.NewLogger(t), 0)
	for i := 0; i < 10; i++ {
		s.Update(time.Millisecond)
	}
	assert.Equal(t, 0, snap.calls)
	require.NoError(t, s.SaveNow())
	assert.Equal(t, 1, snap.calls)
}

func TestAutosaveReportsSnapshotError(t *testing.T) {
	boom := errors.New("boom")
	s := NewAutosaveSystem(&fakeSnapshot{err: boom}, "", nil, "", zaptest.NewLogger(t), 1)
	assert.ErrorIs(t, s.SaveNow(), boom)
	assert.NotPanics(t, func() { s.Update(time.Millisecond) })
}

func TestCleanupEmitsReaped(t *testing.T) {
	w := ecs.NewWorld()
	bus := event.NewBus()
	pool := ecs.NewPool[int]()
	w.Registry().Register(pool)
	e := w.CreateEntity()
	pool.Set(e, 1)

	c := NewCleanupSystem(w, bus)
	c.Update(time.Millisecond)
	assert.Equal(t, 0, event.Pending[event.EntitiesReaped](bus))

	w.Destroy(e)
	c.Update(time.Millisecond)
	assert.Equal(t, 1, event.Pending[event.EntitiesReaped](bus))
	assert.False(t, pool.Has(e))
}
