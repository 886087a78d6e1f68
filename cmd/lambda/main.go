package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/crossfill/config"
	"github.com/domino14/crossfill/solvesvc"
)

var cfg *config.Config
var nc *nats.Conn

const HardTimeLimit = 180 // max time per solve in seconds

func HandleRequest(ctx context.Context, evt solvesvc.LambdaEvent) (*solvesvc.SolveResponse, error) {
	// Return something but we have to block till we're done.

	logger := log.With().
		Str("id", evt.ID).
		Logger()

	if evt.TimeoutSecs <= 0 || evt.TimeoutSecs > HardTimeLimit {
		evt.TimeoutSecs = HardTimeLimit
	}
	logger.Info().Str("structure", evt.Structure).
		Str("lexicon", evt.Lexicon).
		Int("timeout-secs", evt.TimeoutSecs).Msg("solving")

	resp := solvesvc.Handle(ctx, cfg, &evt.SolveRequest)
	logger.Info().Bool("solved", resp.Solved).
		Uint64("nodes", resp.Nodes).
		Float64("elapsed-sec", resp.ElapsedSec).Msg("solve-done")

	if evt.ReplyChannel != "" {
		data, err := json.Marshal(resp)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("solve-done-sending-via-nats")
		err = retry.Do(
			func() error {
				_, err := nc.Request(evt.ReplyChannel, data, 3*time.Second)
				if err != nil {
					return err
				}
				// We're just waiting for an acknowledgement. The actual
				// data doesn't matter.
				return nil
			},
			retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
				logger.Err(err).Uint("n", n).
					Msg("did-not-receive-ack-try-again")
				return retry.BackOffDelay(n, err, config)
			}),
		)
		if err != nil {
			logger.Err(err).Msg("result-send-failed")
		}
	}
	logger.Info().Msg("exiting-fn")
	return resp, nil
}

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg = &config.Config{}
	args := os.Args[1:]
	cfg.Load(args)
	log.Info().Msgf("Loaded config: %v", cfg.SanitizedSettings())
	cfg.AdjustRelativePaths(exPath)
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	nc, err = nats.Connect(cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		log.Fatal().AnErr("natsConnectErr", err).Msg(":(")
	}

	lambda.Start(HandleRequest)
}
