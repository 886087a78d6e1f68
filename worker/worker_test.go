package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/matryer/is"

	"github.com/domino14/crossfill/solvesvc"
)

func TestDefaultWorkerConfig(t *testing.T) {
	is := is.New(t)
	t.Setenv("CROSSFILL_JOBS_URL", "https://jobs.example.com")
	t.Setenv("CROSSFILL_WORKER_POLL_INTERVAL", "2s")
	t.Setenv("CROSSFILL_WORKER_HEARTBEAT_INTERVAL", "not-a-duration")

	cfg := DefaultWorkerConfig()
	is.Equal(cfg.JobsBaseURL, "https://jobs.example.com")
	is.Equal(cfg.APIKey, "")
	is.Equal(cfg.PollInterval, 2*time.Second)
	// Unparseable durations fall back to the default.
	is.Equal(cfg.HeartbeatInterval, 30*time.Second)
	is.Equal(cfg.LambdaFunctionName, "crossfill-solver")
}

func TestClaimJob(t *testing.T) {
	is := is.New(t)
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		w.Write([]byte(`{"jobId": "j1", "request": {"structure": "___", "words": ["CAT", "DOG"], "timeout_secs": 5}}`))
	}))
	defer srv.Close()

	c := NewJobsClient(srv.URL, "sekrit")
	job, err := c.ClaimJob(context.Background())
	is.NoErr(err)
	is.Equal(gotPath, "/api/solve_service.SolveQueueService/ClaimJob")
	is.Equal(gotKey, "sekrit")
	is.Equal(job.JobID, "j1")
	is.Equal(job.Request.Structure, "___")
	is.Equal(job.Request.Words, []string{"CAT", "DOG"})
	is.Equal(job.Request.TimeoutSecs, 5)
}

func TestClaimJobEmpty(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"noJobs": true}`))
	}))
	defer srv.Close()

	c := NewJobsClient(srv.URL, "")
	job, err := c.ClaimJob(context.Background())
	is.NoErr(err)
	is.Equal(job, (*Job)(nil))
}

func TestSubmitResultRejected(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"accepted": false, "error": "job expired"}`))
	}))
	defer srv.Close()

	c := NewJobsClient(srv.URL, "")
	err := c.SubmitResult(context.Background(), "j1", &solvesvc.SolveResponse{Solved: true})
	is.True(err != nil)
	is.Equal(err.Error(), "result rejected: job expired")
}

func TestSendHeartbeatReclaimed(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	c := NewJobsClient(srv.URL, "")
	err := c.SendHeartbeat(context.Background(), "j1", &HeartbeatProgress{Status: "solving"})
	is.True(err != nil)
	is.Equal(err.Error(), "job was reclaimed by server")
}

// fakeInvoker stands in for the Lambda client.
type fakeInvoker struct {
	payload []byte
	fnErr   *string
	input   *lambda.InvokeInput
}

func (f *fakeInvoker) Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.input = params
	return &lambda.InvokeOutput{Payload: f.payload, FunctionError: f.fnErr}, nil
}

func TestProcessJob(t *testing.T) {
	is := is.New(t)
	var submitted struct {
		JobID  string                 `json:"jobId"`
		Result solvesvc.SolveResponse `json:"result"`
	}
	var submitErr error
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/solve_service.SolveQueueService/SubmitResult" {
			http.NotFound(w, r)
			return
		}
		submitErr = json.NewDecoder(r.Body).Decode(&submitted)
		w.Write([]byte(`{"accepted": true}`))
	}))
	defer srv.Close()

	lambdaResult, err := json.Marshal(&solvesvc.SolveResponse{
		Solved: true,
		Rows:   []string{"CAT"},
		Nodes:  1,
	})
	is.NoErr(err)
	fake := &fakeInvoker{payload: lambdaResult}

	cfg := DefaultWorkerConfig()
	cfg.HeartbeatInterval = time.Minute
	w := &SolveWorker{
		config:  cfg,
		client:  NewJobsClient(srv.URL, ""),
		invoker: fake,
	}

	job := &Job{
		JobID:   "j1",
		Request: solvesvc.SolveRequest{Structure: "___", Words: []string{"CAT"}},
	}
	err = w.processJob(context.Background(), job)
	is.NoErr(err)
	is.NoErr(submitErr)

	is.Equal(*fake.input.FunctionName, cfg.LambdaFunctionName)
	var sentReq solvesvc.SolveRequest
	is.NoErr(json.Unmarshal(fake.input.Payload, &sentReq))
	is.Equal(sentReq.Structure, "___")

	is.Equal(submitted.JobID, "j1")
	is.True(submitted.Result.Solved)
	is.Equal(submitted.Result.Rows, []string{"CAT"})
}

func TestProcessJobFunctionError(t *testing.T) {
	is := is.New(t)
	fnErr := "Unhandled"
	fake := &fakeInvoker{payload: []byte(`{"errorMessage": "oom"}`), fnErr: &fnErr}

	cfg := DefaultWorkerConfig()
	cfg.HeartbeatInterval = time.Minute
	w := &SolveWorker{
		config:  cfg,
		client:  NewJobsClient("http://localhost:0", ""),
		invoker: fake,
	}

	err := w.processJob(context.Background(), &Job{JobID: "j2"})
	is.True(err != nil)
	is.Equal(err.Error(), `solver function error: Unhandled: {"errorMessage": "oom"}`)
}
