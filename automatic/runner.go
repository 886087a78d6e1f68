// Package automatic runs unattended batches of fills, for measuring
// solver behavior across many puzzles at once.
package automatic

import (
	"context"
	"errors"
	"expvar"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/domino14/crossfill/config"
	"github.com/domino14/crossfill/grid"
	"github.com/domino14/crossfill/lexicon"
	"github.com/domino14/crossfill/solver"
	"github.com/domino14/crossfill/stats"
	"github.com/domino14/crossfill/store"
)

var (
	BatchCounter *expvar.Int
	IsRunning    *expvar.Int
)

func init() {
	BatchCounter = expvar.NewInt("batchCounter")
	IsRunning = expvar.NewInt("isRunning")
}

// Options configures a batch run.
type Options struct {
	Structure  string // fixed structure for every solve; empty samples random ones
	Rows, Cols int    // sampled structure dimensions
	BlockRatio float64
	Lexicon    string
	SampleSize int           // words drawn per solve; 0 means the whole lexicon
	Timeout    time.Duration // per-solve deadline; 0 means none
}

// LogSolve is one batch solve, serialized to the run log.
type LogSolve struct {
	Fingerprint string  `json:"fingerprint" yaml:"fingerprint"`
	Outcome     string  `json:"outcome" yaml:"outcome"`
	Nodes       uint64  `json:"nodes" yaml:"nodes"`
	Backtracks  uint64  `json:"backtracks" yaml:"backtracks"`
	ElapsedSec  float64 `json:"elapsed_sec" yaml:"elapsed_sec"`
}

// SummaryStat aggregates one metric across the batch.
type SummaryStat struct {
	Mean  float64 `json:"mean" yaml:"mean"`
	Stdev float64 `json:"stdev" yaml:"stdev"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	// CI95 is the 95% confidence half-interval around the mean.
	CI95 float64 `json:"ci95" yaml:"ci95"`
}

// Summary is what a batch run hands back.
type Summary struct {
	Requested  int         `json:"requested" yaml:"requested"`
	Completed  int         `json:"completed" yaml:"completed"`
	Solved     int         `json:"solved" yaml:"solved"`
	Unsolvable int         `json:"unsolvable" yaml:"unsolvable"`
	Timeouts   int         `json:"timeouts" yaml:"timeouts"`
	ElapsedSec float64     `json:"elapsed_sec" yaml:"elapsed_sec"`
	Nodes      SummaryStat `json:"nodes" yaml:"nodes"`
	Backtracks SummaryStat `json:"backtracks" yaml:"backtracks"`
	SolveSec   SummaryStat `json:"solve_sec" yaml:"solve_sec"`
}

// String renders the summary as YAML.
func (s *Summary) String() string {
	out, err := yaml.Marshal(s)
	if err != nil {
		return err.Error()
	}
	return string(out)
}

// Runner solves batches of puzzles and aggregates their statistics.
type Runner struct {
	cfg  *config.Config
	opts Options

	history *store.History

	mu         sync.Mutex
	nodes      stats.Statistic
	backtracks stats.Statistic
	solveSec   stats.Statistic
	nodeCounts []float64
	completed  int
	solved     int
	unsolvable int
	timeouts   int
}

func NewRunner(cfg *config.Config, opts Options) *Runner {
	if opts.Rows == 0 {
		opts.Rows = 5
	}
	if opts.Cols == 0 {
		opts.Cols = 5
	}
	if opts.BlockRatio == 0 {
		opts.BlockRatio = 0.2
	}
	if opts.Lexicon == "" {
		opts.Lexicon = cfg.GetString(config.ConfigDefaultLexicon)
	}
	return &Runner{cfg: cfg, opts: opts}
}

// SetHistory records every completed solve in the history store.
func (r *Runner) SetHistory(h *store.History) {
	r.history = h
}

// Run solves n puzzles across the given number of goroutines, blocking
// until the batch finishes or ctx is canceled; whatever completed by
// then is summarized. Per-solve records stream to logWriter as YAML
// when it is non-nil.
func (r *Runner) Run(ctx context.Context, n, threads int, logWriter io.Writer) (*Summary, error) {
	if IsRunning.Value() > 0 {
		return nil, errors.New("a batch is already running, please wait till complete")
	}
	if threads < 1 {
		threads = 1
	}
	IsRunning.Add(1)
	defer IsRunning.Add(-1)
	BatchCounter.Set(0)

	lex, err := lexicon.Get(r.cfg, r.opts.Lexicon)
	if err != nil {
		return nil, err
	}
	if r.opts.Structure != "" {
		if _, err = grid.ParseStructureString(r.opts.Structure); err != nil {
			return nil, err
		}
	}

	log.Debug().Int("solves", n).Int("threads", threads).
		Str("lexicon", r.opts.Lexicon).Msg("starting-batch")
	tstart := time.Now()

	jobs := make(chan int, 100)
	logChan := make(chan []byte, 100)

	writer := errgroup.Group{}
	if logWriter != nil {
		writer.Go(func() error {
			for out := range logChan {
				logWriter.Write(out)
			}
			return nil
		})
	}

	g := errgroup.Group{}
	for t := 0; t < threads; t++ {
		g.Go(func() error {
			s := &solver.Solver{}
			for range jobs {
				err := r.solveOne(ctx, s, lex.Words(), logWriter != nil, logChan)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						// Keep draining so the feeder can finish.
						continue
					}
					return err
				}
				BatchCounter.Add(1)
			}
			return nil
		})
	}

	go func() {
	feedLoop:
		for i := 0; i < n; i++ {
			select {
			case <-ctx.Done():
				log.Info().Msg("got stop signal, exiting soon...")
				break feedLoop
			case jobs <- i:
			}
		}
		close(jobs)
	}()

	err = g.Wait()
	close(logChan)
	writer.Wait()
	if err != nil {
		return nil, err
	}

	summary := r.summarize(n, time.Since(tstart))
	log.Info().Int("completed", summary.Completed).Int("solved", summary.Solved).
		Float64("time-elapsed-sec", summary.ElapsedSec).Msg("batch-done")
	return summary, nil
}

func (r *Runner) solveOne(ctx context.Context, s *solver.Solver, words []string,
	logging bool, logChan chan []byte) error {

	structure := r.opts.Structure
	if structure == "" {
		structure = RandomStructure(r.opts.Rows, r.opts.Cols, r.opts.BlockRatio)
	}
	g, err := grid.ParseStructureString(structure)
	if err != nil {
		return err
	}
	p, err := grid.NewPuzzle(g, r.sampleWords(words))
	if err != nil {
		return err
	}
	if err = s.Init(p); err != nil {
		return err
	}

	solveCtx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}
	tsolve := time.Now()
	_, err = s.Solve(solveCtx)
	elapsed := time.Since(tsolve)

	outcome := "solved"
	switch {
	case err == nil:
	case errors.Is(err, solver.ErrNoSolution):
		outcome = "unsolvable"
	case errors.Is(err, solver.ErrTimeout):
		outcome = "timeout"
	default:
		return err
	}

	r.mu.Lock()
	r.completed++
	switch outcome {
	case "solved":
		r.solved++
	case "unsolvable":
		r.unsolvable++
	case "timeout":
		r.timeouts++
	}
	r.nodes.Push(float64(s.Nodes()))
	r.backtracks.Push(float64(s.Backtracks()))
	r.solveSec.Push(elapsed.Seconds())
	r.nodeCounts = append(r.nodeCounts, float64(s.Nodes()))
	r.mu.Unlock()

	fingerprint := store.Fingerprint(structure, r.opts.Lexicon)
	if logging {
		rec := LogSolve{
			Fingerprint: fingerprint,
			Outcome:     outcome,
			Nodes:       s.Nodes(),
			Backtracks:  s.Backtracks(),
			ElapsedSec:  elapsed.Seconds(),
		}
		out, err := yaml.Marshal([]LogSolve{rec})
		if err != nil {
			log.Error().Err(err).Msg("marshalling log")
		} else {
			logChan <- out
		}
	}
	if r.history != nil {
		herr := r.history.Add(ctx, &store.Record{
			Fingerprint: fingerprint,
			Structure:   structure,
			Lexicon:     r.opts.Lexicon,
			Solved:      outcome == "solved",
			Nodes:       s.Nodes(),
			Backtracks:  s.Backtracks(),
			Elapsed:     elapsed,
		})
		if herr != nil {
			log.Err(herr).Msg("recording solve history")
		}
	}
	return nil
}

func (r *Runner) sampleWords(words []string) []string {
	k := r.opts.SampleSize
	if k <= 0 || k >= len(words) {
		return words
	}
	sample := make([]string, len(words))
	copy(sample, words)
	frand.Shuffle(len(sample), func(i, j int) {
		sample[i], sample[j] = sample[j], sample[i]
	})
	return sample[:k]
}

func (r *Runner) summarize(requested int, elapsed time.Duration) *Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Summary{
		Requested:  requested,
		Completed:  r.completed,
		Solved:     r.solved,
		Unsolvable: r.unsolvable,
		Timeouts:   r.timeouts,
		ElapsedSec: elapsed.Seconds(),
		Nodes:      summaryStat(&r.nodes),
		Backtracks: summaryStat(&r.backtracks),
		SolveSec:   summaryStat(&r.solveSec),
	}
}

func summaryStat(s *stats.Statistic) SummaryStat {
	if s.Iterations() == 0 {
		return SummaryStat{}
	}
	return SummaryStat{
		Mean:  s.Mean(),
		Stdev: s.Stdev(),
		Min:   s.Min(),
		Max:   s.Max(),
		CI95:  stats.ZVal(95) * s.StandardError(),
	}
}

// Histogram writes a text histogram of per-solve node counts.
func (r *Runner) Histogram(w io.Writer) error {
	r.mu.Lock()
	counts := make([]float64, len(r.nodeCounts))
	copy(counts, r.nodeCounts)
	r.mu.Unlock()
	if len(counts) == 0 {
		return errors.New("no solves recorded yet")
	}
	hist := histogram.Hist(15, counts)
	return histogram.Fprint(w, hist, histogram.Linear(40))
}

const maxStructureAttempts = 50

// RandomStructure samples a rows x cols structure with roughly ratio
// of its cells blocked, retrying until the pattern yields at least one
// slot. After too many dense failures it falls back to a fully open
// grid, which always has slots.
func RandomStructure(rows, cols int, ratio float64) string {
	if rows < 1 {
		rows = 1
	}
	if cols < 2 {
		cols = 2
	}
	for attempt := 0; attempt < maxStructureAttempts; attempt++ {
		var sb strings.Builder
		for i := 0; i < rows; i++ {
			if i > 0 {
				sb.WriteRune('\n')
			}
			for j := 0; j < cols; j++ {
				if frand.Float64() < ratio {
					sb.WriteRune(grid.BlockedGlyph)
				} else {
					sb.WriteRune('_')
				}
			}
		}
		structure := sb.String()
		g, err := grid.ParseStructureString(structure)
		if err == nil && len(g.Slots()) > 0 {
			return structure
		}
	}
	row := strings.Repeat("_", cols)
	rowsOut := make([]string, rows)
	for i := range rowsOut {
		rowsOut[i] = row
	}
	return strings.Join(rowsOut, "\n")
}
