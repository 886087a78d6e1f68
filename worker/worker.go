package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/rs/zerolog/log"

	"github.com/domino14/crossfill/solvesvc"
)

// lambdaInvoker is the part of the Lambda API the worker needs. The
// aws-sdk-go-v2 client satisfies it.
type lambdaInvoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// SolveWorker polls for solve jobs and runs them through the solver
// Lambda function.
type SolveWorker struct {
	config  *WorkerConfig
	client  *JobsClient
	invoker lambdaInvoker
}

// NewSolveWorker creates a new worker. It loads AWS credentials from
// the default chain.
func NewSolveWorker(ctx context.Context, cfg *WorkerConfig) (*SolveWorker, error) {
	client := NewJobsClient(cfg.JobsBaseURL, cfg.APIKey)

	awscfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SolveWorker{
		config:  cfg,
		client:  client,
		invoker: lambda.NewFromConfig(awscfg),
	}, nil
}

// Run starts the worker main loop
func (w *SolveWorker) Run(ctx context.Context) error {
	log.Info().
		Str("jobs-url", w.config.JobsBaseURL).
		Str("lambda-function", w.config.LambdaFunctionName).
		Dur("poll-interval", w.config.PollInterval).
		Dur("heartbeat-interval", w.config.HeartbeatInterval).
		Msg("starting solve worker")

	wait := w.config.PollInterval
	maxWait := 8 * w.config.PollInterval
	pollTicker := time.NewTicker(wait)
	defer pollTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker shutting down")
			return ctx.Err()

		case <-pollTicker.C:
			// Try to claim a job
			job, err := w.client.ClaimJob(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("failed to claim job")
				continue
			}

			if job == nil {
				// No jobs available, back off up to maxWait
				if wait < maxWait {
					wait *= 2
					if wait > maxWait {
						wait = maxWait
					}
					pollTicker.Reset(wait)
				}
				log.Debug().Dur("wait", wait).Msg("no jobs available")
				continue
			}

			if wait != w.config.PollInterval {
				wait = w.config.PollInterval
				pollTicker.Reset(wait)
			}

			// Process the job
			log.Info().
				Str("job-id", job.JobID).
				Str("lexicon", job.Request.Lexicon).
				Msg("claimed job")

			if err := w.processJob(ctx, job); err != nil {
				log.Error().
					Err(err).
					Str("job-id", job.JobID).
					Msg("failed to process job")
			}
		}
	}
}

// processJob invokes the solver Lambda for a job and submits the result
func (w *SolveWorker) processJob(ctx context.Context, job *Job) error {
	start := time.Now()

	heartbeatTicker := time.NewTicker(w.config.HeartbeatInterval)
	defer heartbeatTicker.Stop()

	// Channel to signal completion
	done := make(chan struct{})
	defer close(done)

	// Start heartbeat goroutine
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-heartbeatTicker.C:
				progress := &HeartbeatProgress{
					Status:     "solving",
					ElapsedSec: time.Since(start).Seconds(),
				}
				if err := w.client.SendHeartbeat(ctx, job.JobID, progress); err != nil {
					log.Warn().
						Err(err).
						Str("job-id", job.JobID).
						Msg("heartbeat failed")
					// If heartbeat fails, the job may have been reclaimed
					return
				}
				log.Debug().Str("job-id", job.JobID).Msg("sent heartbeat")
			}
		}
	}()

	payload, err := json.Marshal(job.Request)
	if err != nil {
		return fmt.Errorf("failed to marshal solve request: %w", err)
	}

	log.Info().
		Str("job-id", job.JobID).
		Str("function", w.config.LambdaFunctionName).
		Msg("invoking solver function")

	out, err := w.invoker.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(w.config.LambdaFunctionName),
		InvocationType: types.InvocationTypeRequestResponse,
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke solver function: %w", err)
	}
	if out.FunctionError != nil {
		return fmt.Errorf("solver function error: %s: %s", *out.FunctionError, string(out.Payload))
	}

	var result solvesvc.SolveResponse
	if err := json.Unmarshal(out.Payload, &result); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}

	log.Info().
		Str("job-id", job.JobID).
		Bool("solved", result.Solved).
		Uint64("nodes", result.Nodes).
		Float64("elapsed-sec", result.ElapsedSec).
		Msg("solve complete, submitting result")

	if err := w.client.SubmitResult(ctx, job.JobID, &result); err != nil {
		return fmt.Errorf("failed to submit result: %w", err)
	}

	log.Info().
		Str("job-id", job.JobID).
		Msg("job completed successfully")

	return nil
}
