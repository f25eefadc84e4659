package ecs

import (
	"context"
	"time"
)

// System is one named unit of per-frame work a Scheduler runs against a
// World. ID must be stable across a system's lifetime: it is the key
// Query's per-system change-detection channel is tracked under (spec
// §4.J).
type System interface {
	ID() string
	Execute(w *World, dt float64)
}

// Scheduler runs a fixed list of systems once per tick, publishing each
// system's id on the World before calling it so any query it runs with a
// nil systemId sees that system's bySystemId change-detection cursor
// (spec §4.J). This is
// intentionally minimal: a frame-graph with parallel stages or scheduling
// dependencies is out of scope — the only reason this exists at all is
// that the per-system tick channel is otherwise untestable without some
// collaborator that runs a system to completion and advances the tick
// between runs.
type Scheduler struct {
	world   *World
	systems []System
	tick    uint32
}

// NewScheduler creates a scheduler over world.
func NewScheduler(world *World) *Scheduler {
	return &Scheduler{world: world}
}

// Register appends system to the run list, in registration order.
func (s *Scheduler) Register(system System) {
	s.systems = append(s.systems, system)
}

// Once advances the world's tick for this frame, then runs every
// registered system exactly once in registration order. The tick moves
// before any system runs so that a component added or changed during this
// frame is stamped with a tick a query's per-system cursor (left over
// from the previous frame) can never already equal.
func (s *Scheduler) Once(dt float64) {
	s.tick++
	s.world.AdvanceTick(s.tick)
	for _, sys := range s.systems {
		id := sys.ID()
		s.world.SetSystemID(&id)
		sys.Execute(s.world, dt)
	}
	s.world.SetSystemID(nil)
}

// Run calls Once on every tick of interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			s.Once(dt)
		}
	}
}
