package shell

import (
	"testing"

	"github.com/matryer/is"
)

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"autosolve -log /tmp/autosolve.log",
			&shellcmd{"autosolve", nil, CmdOptions{"log": {"/tmp/autosolve.log"}}},
			nil},
		{"solve stop",
			&shellcmd{"solve", []string{"stop"}, CmdOptions{}},
			nil},
		{"load text ____ _AB_ -lexicon common ",
			&shellcmd{"load",
				[]string{"text", "____", "_AB_"},
				CmdOptions{"lexicon": {"common"}}},
			nil,
		},
		{"autosolve stop -log",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func TestCmdOptions(t *testing.T) {
	is := is.New(t)
	cmd, err := extractFields("autosolve -n 500 -blocks 0.25 -structure true -lexicon common")
	is.NoErr(err)

	n, err := cmd.options.IntDefault("n", 100)
	is.NoErr(err)
	is.Equal(n, 500)

	threads, err := cmd.options.IntDefault("threads", 8)
	is.NoErr(err)
	is.Equal(threads, 8)

	blocks, err := cmd.options.FloatDefault("blocks", 0.2)
	is.NoErr(err)
	is.Equal(blocks, 0.25)

	is.Equal(cmd.options.Bool("structure"), true)
	is.Equal(cmd.options.Bool("log"), false)
	is.Equal(cmd.options.String("lexicon"), "common")
}
