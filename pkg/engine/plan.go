package engine

import (
	"fmt"

	"github.com/andrearaponi/gauge/internal/models"
)

// Plan represents the order in which jobs should be executed
type Plan struct {
	Phases [][]models.Job // Each phase contains jobs that can run in parallel
}

// BuildPlan orders jobs by their depends_on lists using a topological
// sort. Jobs keep their config order within a phase.
func BuildPlan(jobs []models.Job) (*Plan, error) {
	if len(jobs) == 0 {
		return &Plan{Phases: [][]models.Job{}}, nil
	}

	// Build adjacency list and in-degree count
	known := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		known[job.Name] = true
	}

	inDegree := make(map[string]int, len(jobs))
	dependents := make(map[string][]string) // who depends on this job
	for _, job := range jobs {
		for _, dep := range job.DependsOn {
			if !known[dep] {
				return nil, fmt.Errorf("unknown dependency: job '%s' depends on '%s' which doesn't exist", job.Name, dep)
			}
			inDegree[job.Name]++
			dependents[dep] = append(dependents[dep], job.Name)
		}
	}

	// Kahn's algorithm with level tracking
	var phases [][]models.Job
	remaining := jobs
	for len(remaining) > 0 {
		var phase, next []models.Job
		for _, job := range remaining {
			if inDegree[job.Name] == 0 {
				phase = append(phase, job)
			} else {
				next = append(next, job)
			}
		}

		// If no jobs can be processed, we have a cycle
		if len(phase) == 0 {
			return nil, fmt.Errorf("cyclic dependency detected in jobs")
		}

		for _, job := range phase {
			for _, dependent := range dependents[job.Name] {
				inDegree[dependent]--
			}
		}

		phases = append(phases, phase)
		remaining = next
	}

	return &Plan{Phases: phases}, nil
}

// PhaseOf returns the phase index for a given job name
func (p *Plan) PhaseOf(name string) int {
	for i, phase := range p.Phases {
		for _, job := range phase {
			if job.Name == name {
				return i
			}
		}
	}
	return -1
}

func (p *Plan) TotalPhases() int {
	return len(p.Phases)
}
