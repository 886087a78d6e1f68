package worker

import (
	"os"
	"time"

	"github.com/domino14/crossfill/config"
)

// WorkerConfig holds configuration for the solve worker
type WorkerConfig struct {
	// Base URL for the jobs API
	JobsBaseURL string

	// API key for authentication with the jobs API
	APIKey string

	// How often to poll for new jobs when idle
	PollInterval time.Duration

	// How often to send heartbeats while processing
	HeartbeatInterval time.Duration

	// Name of the Lambda function that runs the solver
	LambdaFunctionName string

	// Crossfill configuration for the worker
	CrossfillConfig *config.Config
}

// DefaultWorkerConfig creates a WorkerConfig with default values
func DefaultWorkerConfig() *WorkerConfig {
	cfg := config.DefaultConfig()
	return &WorkerConfig{
		JobsBaseURL:        getEnv("CROSSFILL_JOBS_URL", "http://localhost:8087"),
		APIKey:             getEnv("CROSSFILL_JOBS_API_KEY", ""),
		PollInterval:       getEnvDuration("CROSSFILL_WORKER_POLL_INTERVAL", 5*time.Second),
		HeartbeatInterval:  getEnvDuration("CROSSFILL_WORKER_HEARTBEAT_INTERVAL", 30*time.Second),
		LambdaFunctionName: getEnv("CROSSFILL_WORKER_LAMBDA_FUNCTION", cfg.GetString(config.ConfigLambdaFunctionName)),
		CrossfillConfig:    cfg,
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration gets a duration from an environment variable or returns a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
