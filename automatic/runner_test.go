package automatic

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/domino14/crossfill/config"
	"github.com/domino14/crossfill/grid"
	"github.com/domino14/crossfill/store"
)

const crossStructure = "█_█\n___\n█_█"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigLexiconPath, "testdata")
	return cfg
}

func TestRunFixedStructure(t *testing.T) {
	r := NewRunner(testConfig(t), Options{Structure: crossStructure, Lexicon: "common"})
	var buf bytes.Buffer
	summary, err := r.Run(context.Background(), 8, 2, &buf)
	require.NoError(t, err)
	assert.Equal(t, 8, summary.Completed)
	assert.Equal(t, 8, summary.Solved)
	assert.Equal(t, 0, summary.Unsolvable)
	assert.Equal(t, 0, summary.Timeouts)
	// The same puzzle solves in the same number of nodes every time.
	assert.Equal(t, 3.0, summary.Nodes.Mean)
	assert.Equal(t, 0.0, summary.Nodes.Stdev)

	var recs []LogSolve
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &recs))
	assert.Len(t, recs, 8)
	assert.Equal(t, "solved", recs[0].Outcome)
	assert.Equal(t, store.Fingerprint(crossStructure, "common"), recs[0].Fingerprint)
}

func TestRunRecordsHistory(t *testing.T) {
	h, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer h.Close()

	r := NewRunner(testConfig(t), Options{Structure: crossStructure, Lexicon: "common"})
	r.SetHistory(h)
	_, err = r.Run(context.Background(), 3, 1, nil)
	require.NoError(t, err)

	recs, err := h.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, store.Fingerprint(crossStructure, "common"), recs[0].Fingerprint)
	assert.True(t, recs[0].Solved)
	assert.Equal(t, uint64(3), recs[0].Nodes)
}

func TestRunAlreadyRunning(t *testing.T) {
	IsRunning.Add(1)
	defer IsRunning.Add(-1)
	r := NewRunner(testConfig(t), Options{Structure: crossStructure, Lexicon: "common"})
	_, err := r.Run(context.Background(), 1, 1, nil)
	assert.Error(t, err)
}

func TestRandomStructure(t *testing.T) {
	for i := 0; i < 20; i++ {
		s := RandomStructure(4, 6, 0.3)
		g, err := grid.ParseStructureString(s)
		require.NoError(t, err)
		assert.Equal(t, 6, g.Width())
		assert.Equal(t, 4, g.Height())
		assert.NotEmpty(t, g.Slots())
	}
}

func TestRandomStructureDenseFallsBack(t *testing.T) {
	s := RandomStructure(3, 4, 1.0)
	g, err := grid.ParseStructureString(s)
	require.NoError(t, err)
	assert.NotEmpty(t, g.Slots())
}

func TestSampleWords(t *testing.T) {
	words := []string{"ACE", "BEE", "COO", "DEW"}
	r := NewRunner(testConfig(t), Options{SampleSize: 2, Lexicon: "common"})
	sample := r.sampleWords(words)
	assert.Len(t, sample, 2)
	for _, w := range sample {
		assert.Contains(t, words, w)
	}

	whole := NewRunner(testConfig(t), Options{SampleSize: 10, Lexicon: "common"})
	assert.Equal(t, words, whole.sampleWords(words))
}

func TestHistogram(t *testing.T) {
	r := NewRunner(testConfig(t), Options{Lexicon: "common"})
	var buf bytes.Buffer
	assert.Error(t, r.Histogram(&buf))

	r.nodeCounts = []float64{3, 5, 9, 3, 17, 4, 4, 8}
	require.NoError(t, r.Histogram(&buf))
	assert.NotEmpty(t, buf.String())
}

func TestSummaryString(t *testing.T) {
	r := NewRunner(testConfig(t), Options{Structure: crossStructure, Lexicon: "common"})
	summary, err := r.Run(context.Background(), 2, 1, nil)
	require.NoError(t, err)
	out := summary.String()
	assert.Contains(t, out, "solved: 2")
	assert.Contains(t, out, "nodes:")
}
