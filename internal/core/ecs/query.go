package ecs

// Each2 iterates over entities present in both pools. It walks the smaller
// pool and probes the larger one. fn must not add or remove records.
func Each2[A, B any](pa *Pool[A], pb *Pool[B], fn func(Entity, *A, *B)) {
	if pa.Len() <= pb.Len() {
		pa.Each(func(e Entity, a *A) {
			if b, ok := pb.Get(e); ok {
				fn(e, a, b)
			}
		})
		return
	}
	pb.Each(func(e Entity, b *B) {
		if a, ok := pa.Get(e); ok {
			fn(e, a, b)
		}
	})
}

// Each3 iterates over entities present in all three pools.
func Each3[A, B, C any](pa *Pool[A], pb *Pool[B], pc *Pool[C], fn func(Entity, *A, *B, *C)) {
	// Iterate the smallest pool
	smallest := pa.Len()
	which := 0
	if pb.Len() < smallest {
		smallest = pb.Len()
		which = 1
	}
	if pc.Len() < smallest {
		which = 2
	}

	switch which {
	case 0:
		pa.Each(func(e Entity, a *A) {
			if b, ok := pb.Get(e); ok {
				if c, ok := pc.Get(e); ok {
					fn(e, a, b, c)
				}
			}
		})
	case 1:
		pb.Each(func(e Entity, b *B) {
			if a, ok := pa.Get(e); ok {
				if c, ok := pc.Get(e); ok {
					fn(e, a, b, c)
				}
			}
		})
	case 2:
		pc.Each(func(e Entity, c *C) {
			if a, ok := pa.Get(e); ok {
				if b, ok := pb.Get(e); ok {
					fn(e, a, b, c)
				}
			}
		})
	}
}
