package task

import (
	"sync"

	"github.com/google/uuid"
)

// Solution is one result of a stage. Once spawned it belongs to the sink.
type Solution struct {
	ID         uuid.UUID
	Stage      string
	State      *InterfaceState
	Trajectory *SubTrajectory
}

// Sink receives the solutions of a stage.
type Sink interface {
	Spawn(sol *Solution)
}

// SolutionCollector is a Sink that keeps every solution in the order it was spawned.
type SolutionCollector struct {
	mu        sync.Mutex
	solutions []*Solution
}

// NewSolutionCollector returns an empty collector.
func NewSolutionCollector() *SolutionCollector {
	return &SolutionCollector{}
}

// Spawn stores a solution.
func (c *SolutionCollector) Spawn(sol *Solution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.solutions = append(c.solutions, sol)
}

// Solutions returns the solutions collected so far.
func (c *SolutionCollector) Solutions() []*Solution {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Solution(nil), c.solutions...)
}

// Len returns the number of solutions collected.
func (c *SolutionCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.solutions)
}
