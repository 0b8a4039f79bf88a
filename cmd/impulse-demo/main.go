package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/akmonengine/impulse"
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/profile"
)

func main() {
	configPath := flag.String("config", "", "YAML world config, defaults are used when empty")
	steps := flag.Int("steps", 300, "number of steps to simulate")
	boxes := flag.Int("boxes", 5, "height of the box stack")
	profileDir := flag.String("profile", "", "write a CPU profile to this directory")
	verbose := flag.Bool("v", false, "log debug messages")
	flag.Parse()

	if *profileDir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*profileDir)).Stop()
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger, *configPath, *steps, *boxes); err != nil {
		logger.Error("demo failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, configPath string, steps, boxes int) error {
	cfg := impulse.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = impulse.LoadConfig(configPath); err != nil {
			return err
		}
	}

	registry := impulse.NewRegistry()
	stack, err := setupScene(registry, boxes)
	if err != nil {
		return err
	}

	world, err := impulse.NewWorld(cfg, registry)
	if err != nil {
		return err
	}
	world.Logger = logger

	world.Events.Subscribe(impulse.COLLISION_ENTER, func(event impulse.Event) {
		e := event.(impulse.CollisionEnterEvent)
		logger.Debug("collision enter", slog.Any("a", e.A), slog.Any("b", e.B))
	})
	world.Events.Subscribe(impulse.ON_SLEEP, func(event impulse.Event) {
		logger.Info("body asleep", slog.Any("entity", event.(impulse.SleepEvent).Entity))
	})

	const dt = 1.0 / 60.0
	for i := 0; i < steps; i++ {
		if err := world.Step(dt); err != nil {
			return err
		}
		if i%60 == 0 || i == steps-1 {
			printStack(registry, stack, i)
		}
	}

	if hit, ok := world.Raycast(mgl64.Vec3{0, 50, 0}, mgl64.Vec3{0, -1, 0}, 100); ok {
		fmt.Printf("raycast down hits %v at %.3f\n", hit.Entity, hit.Point.Y())
	}
	return nil
}

// setupScene builds a static ground and a stack of unit boxes.
func setupScene(registry *impulse.Registry, boxes int) ([]actor.EntityID, error) {
	ground := actor.Box{HalfExtents: mgl64.Vec3{20, 0.5, 20}}
	groundBody, err := actor.NewRigidBody(actor.BodyKindStatic, 0, ground)
	if err != nil {
		return nil, err
	}
	registry.SpawnBody(actor.NewTransformAt(mgl64.Vec3{0, -0.5, 0}), actor.NewCollider(ground), groundBody)

	box := actor.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}
	stack := make([]actor.EntityID, 0, boxes)
	for i := 0; i < boxes; i++ {
		body, err := actor.NewRigidBody(actor.BodyKindDynamic, 1, box)
		if err != nil {
			return nil, err
		}
		position := mgl64.Vec3{0, 0.5 + float64(i)*1.01, 0}
		stack = append(stack, registry.SpawnBody(actor.NewTransformAt(position), actor.NewCollider(box), body))
	}
	return stack, nil
}

func printStack(registry *impulse.Registry, stack []actor.EntityID, step int) {
	fmt.Printf("step %d\n", step)
	for _, id := range stack {
		t := registry.Transform(id)
		body := registry.RigidBody(id)
		fmt.Printf("  %v y=%.4f v=%.4f sleeping=%t\n", id, t.Position.Y(), body.Velocity.Len(), body.Sleeping)
	}
}
