package main

import (
	"context"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/crossfill/config"
	"github.com/domino14/crossfill/solvesvc"
)

func TestHandleRequest(t *testing.T) {
	is := is.New(t)
	evt := solvesvc.LambdaEvent{
		SolveRequest: solvesvc.SolveRequest{
			Structure: "█_█\n___\n█_█",
			Words:     []string{"CAT", "DOG", "TAG"},
		},
		ID: "foo",
	}
	cfg = config.DefaultConfig()
	ctx := context.Background()
	ret, err := HandleRequest(ctx, evt)
	is.NoErr(err)
	is.True(ret.Solved)
	is.Equal(ret.Rows, []string{"█C█", "TAG", "█T█"})
}
