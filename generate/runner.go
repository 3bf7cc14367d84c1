package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/ForrestTrepte/SoCloverAI/logging"
	"github.com/ForrestTrepte/SoCloverAI/results"
	"github.com/ForrestTrepte/SoCloverAI/types"
	"github.com/ForrestTrepte/SoCloverAI/usage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Task is one generation request.
type Task struct {
	Method      Method
	Temperature float64
	Trial       int
	Pair        types.Pair
}

// Sweep lists what a Runner generates.
type Sweep struct {
	Methods      []Method
	Temperatures []float64
	Trials       int
	Pairs        []types.Pair
}

// Tasks expands the sweep in method, temperature, trial, pair order.
func (s Sweep) Tasks() []Task {
	tasks := make([]Task, 0, len(s.Methods)*len(s.Temperatures)*s.Trials*len(s.Pairs))
	for _, m := range s.Methods {
		for _, temperature := range s.Temperatures {
			for trial := 0; trial < s.Trials; trial++ {
				for _, pair := range s.Pairs {
					tasks = append(tasks, Task{Method: m, Temperature: temperature, Trial: trial, Pair: pair})
				}
			}
		}
	}
	return tasks
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// Concurrency is the number of tasks run at once; values below 2 run sequentially.
	Concurrency int
	// Accountant, when set, has its summary logged and is cleared after each run.
	Accountant *usage.Accountant
	Logger     *zap.Logger
}

// Runner executes sweeps.
type Runner struct {
	concurrency int
	accountant  *usage.Accountant
	logger      *zap.Logger
}

// NewRunner creates a runner.
func NewRunner(cfg RunnerConfig) *Runner {
	return &Runner{
		concurrency: max(cfg.Concurrency, 1),
		accountant:  cfg.Accountant,
		logger:      logging.OrNop(cfg.Logger),
	}
}

// Run generates clues for every task of the sweep. Results keep sweep order
// regardless of concurrency. The first failing task cancels the rest.
func (r *Runner) Run(ctx context.Context, sweep Sweep) (*results.Results, error) {
	tasks := sweep.Tasks()
	clues := make([][]string, len(tasks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, task := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			candidates, err := task.Method.Generate(ctx, task.Temperature, task.Trial, task.Pair)
			if err != nil {
				return fmt.Errorf("%s at temperature %g, trial %d, %s/%s: %w",
					task.Method.Name(), task.Temperature, task.Trial, task.Pair[0], task.Pair[1], err)
			}
			r.logger.Info("generated",
				zap.String("method", task.Method.Name()),
				zap.Float64("temperature", task.Temperature),
				zap.Int("trial", task.Trial),
				zap.String("word0", task.Pair[0]),
				zap.String("word1", task.Pair[1]),
				zap.Strings("clues", candidates),
			)
			clues[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &results.Results{}
	for i, task := range tasks {
		n := len(out.Configurations)
		if n == 0 || out.Configurations[n-1].Method != task.Method.Name() || out.Configurations[n-1].Temperature != task.Temperature {
			out.Configurations = append(out.Configurations, results.Configuration{
				Method:      task.Method.Name(),
				Temperature: task.Temperature,
				Trials:      []results.Clue{},
			})
			n++
		}
		cfg := &out.Configurations[n-1]
		for _, c := range clues[i] {
			cfg.Trials = append(cfg.Trials, results.Clue{Word0: task.Pair[0], Word1: task.Pair[1], Clue: c})
		}
	}

	r.flushUsage()
	return out, nil
}

func (r *Runner) flushUsage() {
	if r.accountant == nil {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(r.accountant.Summary(), "\n"), "\n") {
		r.logger.Info(strings.TrimSpace(line))
	}
	r.accountant.Clear()
}
