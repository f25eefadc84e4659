package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/latticeecs/core/ecs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	entityCount int
	ticks       int
	configPath  string
)

func main() {
	root := &cobra.Command{
		Use:   "ecsdemo",
		Short: "Run a small simulation against the ecs package to exercise its hot paths.",
		RunE:  run,
	}
	root.Flags().IntVar(&entityCount, "entities", 10000, "number of entities to spawn")
	root.Flags().IntVar(&ticks, "ticks", 120, "number of scheduler ticks to run")
	root.Flags().StringVar(&configPath, "config", "", "optional TOML WorldConfig path")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg := ecs.DefaultWorldConfig()
	if configPath != "" {
		cfg, err = ecs.LoadWorldConfig(configPath)
		if err != nil {
			return err
		}
	}
	metrics := ecs.NewMetrics(nil)
	w := ecs.CreateWorld(ecs.WithConfig(cfg), ecs.WithLogger(logger), ecs.WithMetrics(metrics))

	position, err := ecs.DefineComponent("Position", ecs.NewSchema(ecs.FieldF64("x"), ecs.FieldF64("y")))
	if err != nil {
		return err
	}
	velocity, err := ecs.DefineComponent("Velocity", ecs.NewSchema(ecs.FieldF64("dx"), ecs.FieldF64("dy")))
	if err != nil {
		return err
	}
	childOf, err := ecs.DefineRelation("ChildOf", ecs.RelationOptions{OnDeleteTarget: ecs.OnDeleteDelete})
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(1))
	entities := make([]ecs.Id, 0, entityCount)
	for i := 0; i < entityCount; i++ {
		e, err := ecs.NewEntityBuilder(w).
			With(position, map[string]any{"x": rng.Float64() * 100, "y": rng.Float64() * 100}).
			With(velocity, map[string]any{"dx": rng.Float64() - 0.5, "dy": rng.Float64() - 0.5}).
			Build()
		if err != nil {
			return err
		}
		entities = append(entities, e)
		if i > 0 && i%7 == 0 {
			if err := ecs.AddPair(w, e, childOf, entities[i-1]); err != nil {
				return err
			}
		}
	}

	sched := ecs.NewScheduler(w)
	sched.Register(&movementSystem{position: position, velocity: velocity})

	start := time.Now()
	for i := 0; i < ticks; i++ {
		sched.Once(1.0 / 60.0)
	}
	logger.Info("simulation complete",
		zap.Int("entities", entityCount),
		zap.Int("ticks", ticks),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

type movementSystem struct {
	position ecs.Id
	velocity ecs.Id
}

func (s *movementSystem) ID() string { return "movement" }

func (s *movementSystem) Execute(w *ecs.World, dt float64) {
	sysID := s.ID()
	q := ecs.EnsureQuery(w, []ecs.Id{s.position, s.velocity}, nil, nil, nil)
	ecs.FetchEntities(w, q, &sysID, func(e ecs.Id) bool {
		dx, _ := ecs.GetComponentValue(w, e, s.velocity, "dx")
		dy, _ := ecs.GetComponentValue(w, e, s.velocity, "dy")
		x, _ := ecs.GetComponentValue(w, e, s.position, "x")
		y, _ := ecs.GetComponentValue(w, e, s.position, "y")
		_ = ecs.SetComponentValue(w, e, s.position, "x", x.(float64)+dx.(float64)*dt)
		_ = ecs.SetComponentValue(w, e, s.position, "y", y.(float64)+dy.(float64)*dt)
		return true
	})
}
