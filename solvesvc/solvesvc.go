// Package solvesvc exposes the solver as a NATS request/reply service.
// Requests and responses are JSON; the service itself keeps no state
// between requests.
package solvesvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/crossfill/config"
	"github.com/domino14/crossfill/grid"
	"github.com/domino14/crossfill/lexicon"
	"github.com/domino14/crossfill/render"
	"github.com/domino14/crossfill/solver"
)

// SolveRequest asks for one fill.
type SolveRequest struct {
	Structure string `json:"structure"`
	Lexicon   string `json:"lexicon,omitempty"`
	// Words overrides Lexicon when non-empty.
	Words       []string `json:"words,omitempty"`
	TimeoutSecs int      `json:"timeout_secs,omitempty"`
}

// SolveResponse carries the outcome back. Solved false with an empty
// Error means the puzzle has no fill; Error is for everything else.
type SolveResponse struct {
	Solved     bool     `json:"solved"`
	Rows       []string `json:"rows,omitempty"`
	Nodes      uint64   `json:"nodes"`
	Backtracks uint64   `json:"backtracks"`
	ElapsedSec float64  `json:"elapsed_sec"`
	Error      string   `json:"error,omitempty"`
}

// LambdaEvent is the payload for the solver lambda. The embedded
// request's fields sit at the top level, so a bare SolveRequest is
// also a valid event. ReplyChannel, when set, names a NATS subject to
// publish the result to as well.
type LambdaEvent struct {
	SolveRequest
	ID           string `json:"id,omitempty"`
	ReplyChannel string `json:"reply_channel,omitempty"`
}

func errorResponse(message string, err error) *SolveResponse {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return &SolveResponse{Error: msg}
}

// Handle runs one request through the solver.
func Handle(ctx context.Context, cfg *config.Config, req *SolveRequest) *SolveResponse {
	words := req.Words
	if len(words) == 0 {
		name := req.Lexicon
		if name == "" {
			name = cfg.GetString(config.ConfigDefaultLexicon)
		}
		lex, err := lexicon.GetOrFetch(ctx, cfg, name)
		if err != nil {
			return errorResponse("could not load lexicon", err)
		}
		words = lex.Words()
	}
	g, err := grid.ParseStructureString(req.Structure)
	if err != nil {
		return errorResponse("could not parse structure", err)
	}
	p, err := grid.NewPuzzle(g, words)
	if err != nil {
		return errorResponse("could not build puzzle", err)
	}
	s := &solver.Solver{}
	if err = s.Init(p); err != nil {
		return errorResponse("could not initialize solver", err)
	}
	if req.TimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutSecs)*time.Second)
		defer cancel()
	}

	tstart := time.Now()
	fill, err := s.Solve(ctx)
	resp := &SolveResponse{
		Nodes:      s.Nodes(),
		Backtracks: s.Backtracks(),
		ElapsedSec: time.Since(tstart).Seconds(),
	}
	switch {
	case err == nil:
		resp.Solved = true
		resp.Rows = render.Rows(p, fill)
	case errors.Is(err, solver.ErrNoSolution):
		// an answer, not an error
	default:
		resp.Error = err.Error()
	}
	return resp
}

// Main connects to NATS and serves solve requests on channel until the
// process exits.
func Main(channel string, cfg *config.Config) {
	nc, err := nats.Connect(cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to nats")
	}
	// Simple Async Subscriber
	nc.Subscribe(channel, func(m *nats.Msg) {
		log.Info().Msgf("RECV: %d bytes", len(m.Data))
		req := &SolveRequest{}
		var resp *SolveResponse
		if err := json.Unmarshal(m.Data, req); err != nil {
			resp = errorResponse("could not parse request", err)
		} else {
			resp = Handle(context.Background(), cfg, req)
		}
		data, err := json.Marshal(resp)
		if err != nil {
			// Should never happen, ideally, but we need to do something sensible here.
			m.Respond([]byte(err.Error()))
		} else {
			m.Respond(data)
		}
	})
	nc.Flush()

	if err := nc.LastError(); err != nil {
		log.Fatal().Err(err).Msg("nats subscribe")
	}

	log.Info().Msgf("Listening on [%s]", channel)

	runtime.Goexit()
}
