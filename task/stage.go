// Package task models a pipeline of planning stages. Stages declare typed properties, are initialized against a
// planning scene and produce solutions, each an interface state with the trajectory leading to it, into a sink.
package task

import (
	"context"

	"github.com/google/uuid"
	"go.viam.com/rdk/logging"

	"go.viam.com/graspgen/scene"
)

// Stage is a step of a planning pipeline.
type Stage interface {
	Name() string
	Properties() *PropertyMap
	Connect(sink Sink)
	Init(ctx context.Context, s *scene.Scene) error
	CanCompute() bool
	Compute(ctx context.Context) (bool, error)
}

// Generator holds what every generator stage shares: its name, properties, logger and the sink it feeds.
// Stages embed it.
type Generator struct {
	name       string
	properties *PropertyMap
	sink       Sink
	logger     logging.Logger
}

// NewGenerator returns a generator base with an empty property map.
func NewGenerator(name string, logger logging.Logger) Generator {
	return Generator{
		name:       name,
		properties: NewPropertyMap(),
		logger:     logger,
	}
}

// Name returns the name of the stage.
func (g *Generator) Name() string {
	return g.name
}

// Properties returns the property map of the stage.
func (g *Generator) Properties() *PropertyMap {
	return g.properties
}

// Logger returns the logger of the stage.
func (g *Generator) Logger() logging.Logger {
	return g.logger
}

// Connect sets the sink that receives the stage's solutions.
func (g *Generator) Connect(sink Sink) {
	g.sink = sink
}

// Spawn hands a new solution to the sink.
func (g *Generator) Spawn(state *InterfaceState, traj *SubTrajectory) error {
	if g.sink == nil {
		return ErrNoSink
	}
	g.sink.Spawn(&Solution{
		ID:         uuid.New(),
		Stage:      g.name,
		State:      state,
		Trajectory: traj,
	})
	return nil
}
