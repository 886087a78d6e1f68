package solvesvc

import (
	"context"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/crossfill/config"
)

const crossStructure = "█_█\n___\n█_█"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigLexiconPath, "testdata")
	return cfg
}

func TestHandleSolves(t *testing.T) {
	is := is.New(t)
	resp := Handle(context.Background(), testConfig(t), &SolveRequest{
		Structure: crossStructure,
		Words:     []string{"CAT", "DOG", "TAG"},
	})
	is.Equal(resp.Error, "")
	is.True(resp.Solved)
	is.Equal(resp.Rows, []string{"█C█", "TAG", "█T█"})
	is.Equal(resp.Nodes, uint64(3))
}

func TestHandleUsesLexicon(t *testing.T) {
	is := is.New(t)
	resp := Handle(context.Background(), testConfig(t), &SolveRequest{
		Structure: crossStructure,
		Lexicon:   "common",
	})
	is.Equal(resp.Error, "")
	is.True(resp.Solved)
	is.Equal(resp.Rows, []string{"█C█", "TAG", "█T█"})
}

func TestHandleNoSolution(t *testing.T) {
	is := is.New(t)
	resp := Handle(context.Background(), testConfig(t), &SolveRequest{
		Structure: crossStructure,
		Words:     []string{"DOG"},
	})
	is.Equal(resp.Error, "")
	is.True(!resp.Solved)
	is.Equal(len(resp.Rows), 0)
}

func TestHandleBadStructure(t *testing.T) {
	is := is.New(t)
	resp := Handle(context.Background(), testConfig(t), &SolveRequest{
		Structure: "",
		Words:     []string{"CAT"},
	})
	is.True(!resp.Solved)
	is.True(strings.Contains(resp.Error, "could not parse structure"))
}

func TestHandleMissingLexicon(t *testing.T) {
	is := is.New(t)
	resp := Handle(context.Background(), testConfig(t), &SolveRequest{
		Structure: crossStructure,
		Lexicon:   "nope",
	})
	is.True(strings.Contains(resp.Error, "could not load lexicon"))
}
