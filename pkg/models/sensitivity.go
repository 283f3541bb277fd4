package models

import "fmt"

// MaxSweepAxes is the maximum number of parameter axes a sensitivity sweep
// accepts. Cross products beyond two dimensions explode combinatorially and
// are not representable in the grid reports.
const MaxSweepAxes = 2

// SweepAxis is one swept parameter: its name and the candidate values to
// substitute into the base assumptions.
type SweepAxis struct {
	Param  string    `json:"param"  yaml:"param"`
	Values []float64 `json:"values" yaml:"values"`
}

// NewSweepAxis builds a SweepAxis after checking that the parameter is
// sweepable and at least one value is supplied.
func NewSweepAxis(param string, values []float64) (SweepAxis, error) {
	if !IsSweepable(param) {
		return SweepAxis{}, fmt.Errorf("parameter %q is not sweepable", param)
	}
	if len(values) == 0 {
		return SweepAxis{}, fmt.Errorf("sweep axis %q has no values", param)
	}
	vs := make([]float64, len(values))
	copy(vs, values)
	return SweepAxis{Param: param, Values: vs}, nil
}

// SweepRange builds an axis of evenly spaced values from min to max
// inclusive. steps is the number of grid points and must be at least 1;
// steps == 1 yields just min.
func SweepRange(param string, min, max float64, steps int) (SweepAxis, error) {
	if steps < 1 {
		return SweepAxis{}, fmt.Errorf("sweep axis %q: steps must be >= 1, got %d", param, steps)
	}
	if max < min {
		return SweepAxis{}, fmt.Errorf("sweep axis %q: max %v below min %v", param, max, min)
	}
	values := make([]float64, steps)
	if steps == 1 {
		values[0] = min
	} else {
		step := (max - min) / float64(steps-1)
		for i := range values {
			values[i] = min + float64(i)*step
		}
		values[steps-1] = max // avoid drift on the endpoint
	}
	return NewSweepAxis(param, values)
}

// GridCell is one evaluated point of a sensitivity grid. Params holds the
// substituted values in axis order. On failure Err is set instead of the
// summary fields. TippingYear is -1 whenever no tipping year is known,
// including failed cells. Projection is populated only when the sweep is
// configured to keep full results.
type GridCell struct {
	Params          []float64     `json:"params"`
	FinalWealthDiff float64       `json:"final_wealth_diff"`
	FinalLeader     Strategy      `json:"final_leader"`
	TippingYear     int           `json:"tipping_year"`
	Projection      *Projection   `json:"projection,omitempty"`
	Err             *OutcomeError `json:"error,omitempty"`
}

// OK reports whether this cell evaluated successfully.
func (c GridCell) OK() bool { return c.Err == nil }

// SensitivityGrid is the cross product of one or two sweep axes evaluated
// against a base assumption set. Cells are stored row-major: the first axis
// is the row, the second (if present) the column.
type SensitivityGrid struct {
	Base  AssumptionSet `json:"base"`
	Axes  []SweepAxis   `json:"axes"`
	Cells []GridCell    `json:"cells"`
}

// Dims returns the grid dimensions (rows, cols). A one-axis grid is a
// single column with one row per value; a grid with no axes is (0, 0).
func (g *SensitivityGrid) Dims() (rows, cols int) {
	switch len(g.Axes) {
	case 0:
		return 0, 0
	case 1:
		return len(g.Axes[0].Values), 1
	default:
		return len(g.Axes[0].Values), len(g.Axes[1].Values)
	}
}

// CellCount returns the expected number of cells for the configured axes.
func (g *SensitivityGrid) CellCount() int {
	rows, cols := g.Dims()
	return rows * cols
}

// At returns the cell at row i (first axis) and column j (second axis). For
// one-axis grids pass j == 0.
func (g *SensitivityGrid) At(i, j int) (GridCell, bool) {
	rows, cols := g.Dims()
	if i < 0 || i >= rows || j < 0 || j >= cols {
		return GridCell{}, false
	}
	idx := i*cols + j
	if idx >= len(g.Cells) {
		return GridCell{}, false
	}
	return g.Cells[idx], true
}
