package worker

import (
	"github.com/domino14/crossfill/solvesvc"
)

// Job represents a solve job claimed from the jobs API
type Job struct {
	// Unique identifier for this job
	JobID string

	// The solve request to run
	Request solvesvc.SolveRequest
}

// HeartbeatProgress represents progress information sent in heartbeats
type HeartbeatProgress struct {
	// Optional status message
	Status string

	// Seconds spent on the job so far
	ElapsedSec float64
}
