package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/domino14/crossfill/solvesvc"
)

// JobsClient handles HTTP communication with the solve jobs API
type JobsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewJobsClient creates a new jobs API client
func NewJobsClient(baseURL, apiKey string) *JobsClient {
	return &JobsClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// ClaimJob attempts to claim a job from the queue
// Uses Connect RPC JSON format
func (c *JobsClient) ClaimJob(ctx context.Context) (*Job, error) {
	url := c.baseURL + "/api/solve_service.SolveQueueService/ClaimJob"

	// Empty request body for Connect RPC
	reqBody := []byte("{}")

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var claimResp struct {
		NoJobs  bool                  `json:"noJobs"`
		JobId   string                `json:"jobId"`
		Request solvesvc.SolveRequest `json:"request"`
	}

	if err := json.Unmarshal(body, &claimResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if claimResp.NoJobs {
		return nil, nil // No jobs available
	}

	return &Job{
		JobID:   claimResp.JobId,
		Request: claimResp.Request,
	}, nil
}

// SubmitResult submits the solve outcome back to the jobs API
func (c *JobsClient) SubmitResult(ctx context.Context, jobID string, result *solvesvc.SolveResponse) error {
	url := c.baseURL + "/api/solve_service.SolveQueueService/SubmitResult"

	req := map[string]interface{}{
		"jobId":  jobID,
		"result": result,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var submitResp struct {
		Accepted bool   `json:"accepted"`
		Error    string `json:"error"`
	}
	if err := json.Unmarshal(body, &submitResp); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !submitResp.Accepted {
		return fmt.Errorf("result rejected: %s", submitResp.Error)
	}

	return nil
}

// SendHeartbeat sends a heartbeat to indicate the worker is still processing
func (c *JobsClient) SendHeartbeat(ctx context.Context, jobID string, progress *HeartbeatProgress) error {
	url := c.baseURL + "/api/solve_service.SolveQueueService/Heartbeat"

	req := map[string]interface{}{
		"jobId": jobID,
	}
	if progress != nil {
		req["status"] = progress.Status
		req["elapsedSec"] = progress.ElapsedSec
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// 410 Gone means the job was reclaimed by the server
	if resp.StatusCode == http.StatusGone {
		return fmt.Errorf("job was reclaimed by server")
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var hbResp struct {
		Continue bool `json:"continue"`
	}
	if err := json.Unmarshal(body, &hbResp); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !hbResp.Continue {
		return fmt.Errorf("server requested stop")
	}

	return nil
}
