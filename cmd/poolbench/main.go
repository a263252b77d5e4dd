// poolbench drives the entity pool and transform hierarchy under a synthetic
// churn workload, optionally with CPU or memory profiling.
//
// Usage:
//
//	go run ./cmd/poolbench -entities 100000 -ticks 200 -profile cpu
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/l1jgo/worldcore/internal/core/ecs"
	"github.com/l1jgo/worldcore/internal/geom"
	"github.com/l1jgo/worldcore/internal/scene"
	"github.com/pkg/profile"
	"go.uber.org/zap"
)

func main() {
	entities := flag.Int("entities", 50000, "live entity target")
	ticks := flag.Int("ticks", 100, "ticks to simulate")
	churn := flag.Float64("churn", 0.01, "fraction of entities destroyed and recreated per tick")
	depth := flag.Int("depth", 4, "maximum hierarchy depth")
	mode := flag.String("profile", "", "cpu, mem or empty for none")
	flag.Parse()

	switch *mode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	}

	rng := rand.New(rand.NewSource(1))
	sc := scene.New(zap.NewNop())
	m, ts := sc.Manager(), sc.Transforms()

	live := make([]ecs.Entity, 0, *entities)
	spawn := func() {
		e := m.Create()
		ts.Add(e)
		ts.SetPosition(e, geom.V(rng.Float64()*100, rng.Float64()*100))
		if len(live) > 0 && rng.Intn(*depth) != 0 {
			ts.SetParent(e, live[rng.Intn(len(live))])
		}
		live = append(live, e)
	}

	start := time.Now()
	for len(live) < *entities {
		spawn()
	}
	fmt.Printf("spawn    %8d entities  %v\n", len(live), time.Since(start))

	start = time.Now()
	for tick := 0; tick < *ticks; tick++ {
		kill := int(float64(len(live)) * *churn)
		for i := 0; i < kill; i++ {
			j := rng.Intn(len(live))
			m.Destroy(live[j])
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]
		}
		for _, e := range live[:min(len(live), 1000)] {
			if !m.Destroyed(e) {
				ts.Rotate(e, 0.01)
			}
		}
		sc.Update(time.Millisecond)
		for len(live) < *entities {
			spawn()
		}
	}
	elapsed := time.Since(start)
	fmt.Printf("simulate %8d ticks     %v (%v/tick)\n", *ticks, elapsed, elapsed/time.Duration(max(*ticks, 1)))
	fmt.Printf("entities %8d  transforms %d\n", m.Count(), ts.Len())
}
