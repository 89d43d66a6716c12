// Package pipeline runs named steps in dependency order and records every
// run in the state store.
//
// A failing step stops the run: every step that has not started yet is
// recorded as skipped and the step's error is returned to the caller.
package pipeline

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/sparkify/internal/dag"
)

// Step is one unit of work. Run returns the number of rows the step produced
// or validated.
type Step interface {
	Name() string
	Run(ctx context.Context) (int64, error)
}

// funcStep adapts a function to Step.
type funcStep struct {
	name string
	fn   func(ctx context.Context) (int64, error)
}

// NewStep wraps fn as a step called name.
func NewStep(name string, fn func(ctx context.Context) (int64, error)) Step {
	return &funcStep{name: name, fn: fn}
}

func (s *funcStep) Name() string                           { return s.name }
func (s *funcStep) Run(ctx context.Context) (int64, error) { return s.fn(ctx) }

// Pipeline is a graph of steps.
type Pipeline struct {
	graph *dag.Graph[Step]
}

// New creates an empty pipeline.
func New() *Pipeline {
	return &Pipeline{graph: dag.NewGraph[Step]()}
}

// Add registers step and makes it depend on the named steps, which must
// already be registered.
func (p *Pipeline) Add(step Step, dependsOn ...string) error {
	name := step.Name()
	if _, exists := p.graph.Node(name); exists {
		return fmt.Errorf("step %q already registered", name)
	}
	p.graph.AddNode(name, step)
	for _, dep := range dependsOn {
		if err := p.graph.AddEdge(dep, name); err != nil {
			return fmt.Errorf("step %q: %w", name, err)
		}
	}
	return nil
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() ([]string, error) {
	sorted, err := p.graph.TopologicalSort()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(sorted))
	for i, n := range sorted {
		names[i] = n.ID
	}
	return names, nil
}

// Select returns the named steps, plus everything downstream of them when
// downstream is true. Unknown names are an error.
func (p *Pipeline) Select(names []string, downstream bool) ([]string, error) {
	for _, name := range names {
		if _, ok := p.graph.Node(name); !ok {
			return nil, &UnknownStepError{Name: name, Available: p.graph.IDs()}
		}
	}
	if downstream {
		return p.graph.Downstream(names), nil
	}
	return names, nil
}

// UnknownStepError is returned when a selection names a step that is not in
// the pipeline.
type UnknownStepError struct {
	Name      string
	Available []string
}

func (e *UnknownStepError) Error() string {
	return fmt.Sprintf("unknown step %q (available: %v)", e.Name, e.Available)
}
