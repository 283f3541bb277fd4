package models

import "fmt"

// Scenario is a named AssumptionSet inside a batch run.
type Scenario struct {
	Name        string        `json:"name"        yaml:"name"`
	Assumptions AssumptionSet `json:"assumptions" yaml:"assumptions"`
}

// ScenarioResult bundles everything computed for one successful scenario.
type ScenarioResult struct {
	Name         string        `json:"name"`
	Assumptions  AssumptionSet `json:"assumptions"`
	Projection   *Projection   `json:"projection"`
	TippingPoint TippingPoint  `json:"tipping_point"`
}

// Error kinds carried by an OutcomeError, mirroring the engine's error
// taxonomy.
const (
	ErrKindInvalidAssumption = "invalid_assumption"
	ErrKindProjection        = "projection"
	ErrKindComputation       = "computation"
)

// OutcomeError is the structured error descriptor recorded for a failed
// scenario or grid cell. It travels alongside successful results instead of
// aborting the batch.
type OutcomeError struct {
	Kind    string `json:"kind"` // one of the ErrKind* constants
	Message string `json:"message"`
}

func (e *OutcomeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ScenarioOutcome is one slot of a batch result: either a ScenarioResult or
// an error descriptor, never both.
type ScenarioOutcome struct {
	Name   string          `json:"name"`
	Result *ScenarioResult `json:"result,omitempty"`
	Err    *OutcomeError   `json:"error,omitempty"`
}

// OK reports whether this scenario evaluated successfully.
func (o ScenarioOutcome) OK() bool { return o.Err == nil }

// BatchResult holds the outcomes of a scenario batch in input order,
// regardless of evaluation order.
type BatchResult struct {
	Outcomes []ScenarioOutcome `json:"outcomes"`
}

// ByName returns the outcome for the named scenario.
func (b *BatchResult) ByName(name string) (ScenarioOutcome, bool) {
	for _, o := range b.Outcomes {
		if o.Name == name {
			return o, true
		}
	}
	return ScenarioOutcome{}, false
}

// Succeeded returns the successful outcomes in input order.
func (b *BatchResult) Succeeded() []ScenarioOutcome {
	var ok []ScenarioOutcome
	for _, o := range b.Outcomes {
		if o.OK() {
			ok = append(ok, o)
		}
	}
	return ok
}

// Failed returns the failed outcomes in input order.
func (b *BatchResult) Failed() []ScenarioOutcome {
	var failed []ScenarioOutcome
	for _, o := range b.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}
