package simulate

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lufenny/wealthsim/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Scenario Batches
// ════════════════════════════════════════════════════════════════════

// RunnerConfig holds the knobs for a scenario batch run.
type RunnerConfig struct {
	Parallel   bool // evaluate scenarios concurrently
	MaxWorkers int  // concurrent evaluations when Parallel (default: 4)

	// Progress, when set, is called once per completed scenario with the
	// running completion count, the batch size and the scenario name. It
	// must be safe for concurrent use when Parallel is enabled.
	Progress func(done, total int, name string)
}

// DefaultRunnerConfig enables bounded parallel evaluation.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{Parallel: true, MaxWorkers: 4}
}

// Runner evaluates a named, ordered set of scenarios. Each scenario is
// projected and tipping-point-checked independently; one bad scenario never
// aborts the rest.
type Runner struct {
	cfg RunnerConfig
}

// NewRunner creates a runner, filling unset config fields with defaults.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultRunnerConfig().MaxWorkers
	}
	return &Runner{cfg: cfg}
}

// Run evaluates every scenario and returns one outcome per scenario in the
// input order, regardless of evaluation order. Scenario failures are
// recorded in their slot as structured error descriptors. Run itself fails
// only on malformed batches (empty, unnamed or duplicate scenario names) or
// a cancelled context.
func (r *Runner) Run(ctx context.Context, scenarios []models.Scenario) (*models.BatchResult, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios to run")
	}
	seen := make(map[string]struct{}, len(scenarios))
	for _, sc := range scenarios {
		if sc.Name == "" {
			return nil, fmt.Errorf("scenario without a name")
		}
		if _, dup := seen[sc.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario name %q", sc.Name)
		}
		seen[sc.Name] = struct{}{}
	}

	outcomes := make([]models.ScenarioOutcome, len(scenarios))
	total := len(scenarios)
	var done atomic.Int64

	if r.cfg.Parallel && len(scenarios) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.cfg.MaxWorkers)
		for i, sc := range scenarios {
			i, sc := i, sc
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				outcomes[i] = evaluateScenario(sc)
				r.reportProgress(&done, total, sc.Name)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, sc := range scenarios {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outcomes[i] = evaluateScenario(sc)
			r.reportProgress(&done, total, sc.Name)
		}
	}

	return &models.BatchResult{Outcomes: outcomes}, nil
}

// reportProgress bumps the completion counter and notifies the configured
// callback, if any.
func (r *Runner) reportProgress(done *atomic.Int64, total int, name string) {
	if r.cfg.Progress == nil {
		return
	}
	r.cfg.Progress(int(done.Add(1)), total, name)
}

// evaluateScenario projects one scenario and detects its tipping point.
// Failures become the scenario's outcome, never a batch abort.
func evaluateScenario(sc models.Scenario) models.ScenarioOutcome {
	proj, err := Project(sc.Assumptions)
	if err != nil {
		logrus.Debugf("Scenario %q failed: %v", sc.Name, err)
		return models.ScenarioOutcome{Name: sc.Name, Err: toOutcomeError(err)}
	}
	tp, err := DetectTippingPoint(proj.Buy, proj.Rent)
	if err != nil {
		return models.ScenarioOutcome{Name: sc.Name, Err: toOutcomeError(err)}
	}
	return models.ScenarioOutcome{
		Name: sc.Name,
		Result: &models.ScenarioResult{
			Name:         sc.Name,
			Assumptions:  sc.Assumptions,
			Projection:   proj,
			TippingPoint: tp,
		},
	}
}

// toOutcomeError maps an engine error onto the structured outcome taxonomy.
func toOutcomeError(err error) *models.OutcomeError {
	var iae *models.InvalidAssumptionError
	if errors.As(err, &iae) {
		return &models.OutcomeError{Kind: models.ErrKindInvalidAssumption, Message: err.Error()}
	}
	var pe *ProjectionError
	if errors.As(err, &pe) {
		return &models.OutcomeError{Kind: models.ErrKindProjection, Message: err.Error()}
	}
	return &models.OutcomeError{Kind: models.ErrKindComputation, Message: err.Error()}
}
