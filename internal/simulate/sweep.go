package simulate

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/lufenny/wealthsim/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Sensitivity Sweeps
// ════════════════════════════════════════════════════════════════════

// AnalyzerConfig holds the knobs for a sensitivity sweep.
type AnalyzerConfig struct {
	Parallel   bool // evaluate grid cells concurrently
	MaxWorkers int  // concurrent evaluations when Parallel (default: 4)

	// KeepResults retains each successful cell's full projection instead of
	// just the summary fields. Memory grows with cells × horizon.
	KeepResults bool

	// Progress, when set, is called once per completed cell with the running
	// completion count and the cell count. It must be safe for concurrent
	// use when Parallel is enabled.
	Progress func(done, total int)
}

// DefaultAnalyzerConfig enables bounded parallel evaluation.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{Parallel: true, MaxWorkers: 4}
}

// Analyzer sweeps one or two parameters over value grids, holding the rest
// of the base assumptions fixed, and records a summary per grid cell.
type Analyzer struct {
	cfg AnalyzerConfig
}

// NewAnalyzer creates an analyzer, filling unset config fields with defaults.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultAnalyzerConfig().MaxWorkers
	}
	return &Analyzer{cfg: cfg}
}

// Sweep evaluates the cross product of the axis values against the base
// set. Cells are laid out row-major (first axis = row). Every cell is
// computed independently from its own modified copy of base, so evaluation
// order cannot change results; a cell whose substituted value fails
// validation carries an error marker instead of aborting the sweep.
//
// Sweep itself fails only on a malformed request: no axes, more than two,
// an unknown parameter, an empty value list, or an invalid base set.
func (an *Analyzer) Sweep(ctx context.Context, base models.AssumptionSet, axes []models.SweepAxis) (*models.SensitivityGrid, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("sensitivity sweep needs at least one axis")
	}
	if len(axes) > models.MaxSweepAxes {
		return nil, fmt.Errorf("sensitivity sweep supports at most %d axes, got %d",
			models.MaxSweepAxes, len(axes))
	}
	for _, ax := range axes {
		if !models.IsSweepable(ax.Param) {
			return nil, fmt.Errorf("parameter %q is not sweepable", ax.Param)
		}
		if len(ax.Values) == 0 {
			return nil, fmt.Errorf("sweep axis %q has no values", ax.Param)
		}
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	grid := &models.SensitivityGrid{Base: base, Axes: axes}
	rows, cols := grid.Dims()
	grid.Cells = make([]models.GridCell, rows*cols)
	total := rows * cols
	var done atomic.Int64

	if an.cfg.Parallel && total > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(an.cfg.MaxWorkers)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				i, j := i, j
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					grid.Cells[i*cols+j] = evaluateCell(base, axes, i, j, an.cfg.KeepResults)
					an.reportProgress(&done, total)
					return nil
				})
			}
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				grid.Cells[i*cols+j] = evaluateCell(base, axes, i, j, an.cfg.KeepResults)
				an.reportProgress(&done, total)
			}
		}
	}

	return grid, nil
}

// reportProgress bumps the completion counter and notifies the configured
// callback, if any.
func (an *Analyzer) reportProgress(done *atomic.Int64, total int) {
	if an.cfg.Progress == nil {
		return
	}
	an.cfg.Progress(int(done.Add(1)), total)
}

// evaluateCell substitutes the cell's parameter values into base and records
// the summary statistics, or an error marker when the combination cannot be
// projected. With keep set, successful cells also retain the projection.
func evaluateCell(base models.AssumptionSet, axes []models.SweepAxis, i, j int, keep bool) models.GridCell {
	coords := [2]int{i, j}
	params := make([]float64, len(axes))
	for k := range axes {
		params[k] = axes[k].Values[coords[k]]
	}
	cell := models.GridCell{Params: params, TippingYear: -1}

	modified := base
	var err error
	for k, ax := range axes {
		modified, err = modified.WithParam(ax.Param, params[k])
		if err != nil {
			cell.Err = toOutcomeError(err)
			return cell
		}
	}

	proj, err := Project(modified)
	if err != nil {
		cell.Err = toOutcomeError(err)
		return cell
	}
	tp, err := DetectTippingPoint(proj.Buy, proj.Rent)
	if err != nil {
		cell.Err = toOutcomeError(err)
		return cell
	}

	cell.FinalWealthDiff = proj.FinalWealthDiff()
	cell.FinalLeader = proj.FinalLeader()
	if tp.Found {
		cell.TippingYear = tp.Year
	}
	if keep {
		cell.Projection = proj
	}
	return cell
}
