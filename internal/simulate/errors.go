package simulate

import (
	"fmt"
	"math"
)

// ProjectionError reports a structurally undefined projection, such as an
// amortization schedule that cannot be built from the given inputs. Distinct
// from InvalidAssumptionError: the inputs passed field validation but do not
// combine into a well-defined schedule.
type ProjectionError struct {
	Stage string // which construction stage failed, e.g. "mortgage"
	Msg   string
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("projection failed (%s): %s", e.Stage, e.Msg)
}

// ComputationError reports a non-finite intermediate value. Validation bounds
// make this unlikely, but compounding over long horizons can still overflow;
// it must surface as an error, never as a silent NaN in a series.
type ComputationError struct {
	Quantity string // the quantity that went non-finite, e.g. "buy wealth"
	Year     int
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("non-finite %s at year %d", e.Quantity, e.Year)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
