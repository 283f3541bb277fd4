package simulate

import (
	"context"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/lufenny/wealthsim/pkg/models"
)

// ── Sensitivity Sweep Tests ──

func TestSweepOneAxisMatchesDirectProjection(t *testing.T) {
	base := exampleAssumptions()
	axis, err := models.NewSweepAxis(models.ParamInvestReturnRate,
		[]float64{0.03, 0.04, 0.05, 0.06, 0.07})
	if err != nil {
		t.Fatalf("axis: %v", err)
	}

	an := NewAnalyzer(DefaultAnalyzerConfig())
	grid, err := an.Sweep(context.Background(), base, []models.SweepAxis{axis})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(grid.Cells) != 5 {
		t.Fatalf("cells: got %d, want 5", len(grid.Cells))
	}

	for i, v := range axis.Values {
		cell, ok := grid.At(i, 0)
		if !ok {
			t.Fatalf("missing cell %d", i)
		}
		if !cell.OK() {
			t.Fatalf("cell %d failed: %v", i, cell.Err)
		}
		if len(cell.Params) != 1 || cell.Params[0] != v {
			t.Errorf("cell %d params: got %v, want [%v]", i, cell.Params, v)
		}

		// Each cell must match an independent direct projection.
		modified, err := base.WithParam(models.ParamInvestReturnRate, v)
		if err != nil {
			t.Fatalf("WithParam: %v", err)
		}
		proj, err := Project(modified)
		if err != nil {
			t.Fatalf("direct projection: %v", err)
		}
		if cell.FinalWealthDiff != proj.FinalWealthDiff() {
			t.Errorf("cell %d diff: got %v, want %v", i, cell.FinalWealthDiff, proj.FinalWealthDiff())
		}
		if cell.FinalLeader != proj.FinalLeader() {
			t.Errorf("cell %d leader: got %q, want %q", i, cell.FinalLeader, proj.FinalLeader())
		}
		tp, err := DetectTippingPoint(proj.Buy, proj.Rent)
		if err != nil {
			t.Fatalf("direct tipping point: %v", err)
		}
		wantYear := -1
		if tp.Found {
			wantYear = tp.Year
		}
		if cell.TippingYear != wantYear {
			t.Errorf("cell %d tipping year: got %d, want %d", i, cell.TippingYear, wantYear)
		}
	}
}

func TestSweepCrossProduct(t *testing.T) {
	base := exampleAssumptions()
	axes := []models.SweepAxis{
		{Param: models.ParamMortgageRate, Values: []float64{0.03, 0.04, 0.05}},
		{Param: models.ParamRentMonthly, Values: []float64{1200, 1500, 1800, 2100}},
	}
	an := NewAnalyzer(DefaultAnalyzerConfig())
	grid, err := an.Sweep(context.Background(), base, axes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(grid.Cells) != 12 {
		t.Fatalf("cells: got %d, want 3×4 = 12", len(grid.Cells))
	}
	for i, rate := range axes[0].Values {
		for j, rent := range axes[1].Values {
			cell, ok := grid.At(i, j)
			if !ok {
				t.Fatalf("missing cell (%d,%d)", i, j)
			}
			if !cell.OK() {
				t.Fatalf("cell (%d,%d) failed: %v", i, j, cell.Err)
			}
			want := []float64{rate, rent}
			if !reflect.DeepEqual(cell.Params, want) {
				t.Errorf("cell (%d,%d) params: got %v, want %v", i, j, cell.Params, want)
			}
		}
	}
}

func TestSweepRecordsCellErrors(t *testing.T) {
	base := exampleAssumptions()
	axis := models.SweepAxis{
		Param:  models.ParamDownPaymentFrac,
		Values: []float64{0.1, 1.5, 0.3}, // middle value violates [0,1]
	}
	an := NewAnalyzer(AnalyzerConfig{Parallel: false})
	grid, err := an.Sweep(context.Background(), base, []models.SweepAxis{axis})
	if err != nil {
		t.Fatalf("a bad cell must not abort the sweep: %v", err)
	}
	good, _ := grid.At(0, 0)
	bad, _ := grid.At(1, 0)
	alsoGood, _ := grid.At(2, 0)
	if !good.OK() || !alsoGood.OK() {
		t.Error("valid cells should succeed")
	}
	if bad.OK() {
		t.Fatal("invalid substitution should be marked on its cell")
	}
	if bad.Err.Kind != models.ErrKindInvalidAssumption {
		t.Errorf("error kind: got %q, want %q", bad.Err.Kind, models.ErrKindInvalidAssumption)
	}
	if bad.TippingYear != -1 {
		t.Errorf("failed cell tipping year: got %d, want -1", bad.TippingYear)
	}
}

func TestSweepRejectsMalformedRequests(t *testing.T) {
	base := exampleAssumptions()
	an := NewAnalyzer(DefaultAnalyzerConfig())
	ctx := context.Background()

	if _, err := an.Sweep(ctx, base, nil); err == nil {
		t.Error("no axes should be rejected")
	}
	three := []models.SweepAxis{
		{Param: models.ParamMortgageRate, Values: []float64{0.04}},
		{Param: models.ParamRentMonthly, Values: []float64{1500}},
		{Param: models.ParamRentGrowthRate, Values: []float64{0.02}},
	}
	if _, err := an.Sweep(ctx, base, three); err == nil {
		t.Error("more than two axes should be rejected")
	}
	unknown := []models.SweepAxis{{Param: "horizon_years", Values: []float64{10}}}
	if _, err := an.Sweep(ctx, base, unknown); err == nil {
		t.Error("non-sweepable parameter should be rejected")
	}
	empty := []models.SweepAxis{{Param: models.ParamMortgageRate}}
	if _, err := an.Sweep(ctx, base, empty); err == nil {
		t.Error("empty axis should be rejected")
	}
	invalidBase := base
	invalidBase.PropertyPrice = -1
	valid := []models.SweepAxis{{Param: models.ParamMortgageRate, Values: []float64{0.04}}}
	if _, err := an.Sweep(ctx, invalidBase, valid); err == nil {
		t.Error("invalid base set should be rejected")
	}
}

func TestSweepKeepResults(t *testing.T) {
	base := exampleAssumptions()
	axes := []models.SweepAxis{
		{Param: models.ParamInvestReturnRate, Values: []float64{0.04, 0.06}},
	}

	summary, err := NewAnalyzer(AnalyzerConfig{Parallel: false}).Sweep(context.Background(), base, axes)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	for _, c := range summary.Cells {
		if c.Projection != nil {
			t.Fatal("projections retained without KeepResults")
		}
	}

	full, err := NewAnalyzer(AnalyzerConfig{Parallel: false, KeepResults: true}).Sweep(context.Background(), base, axes)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	for i, c := range full.Cells {
		if c.Projection == nil {
			t.Fatalf("cell %d: projection not retained", i)
		}
		if got := c.Projection.FinalWealthDiff(); got != c.FinalWealthDiff {
			t.Errorf("cell %d: summary diff %v disagrees with projection %v", i, c.FinalWealthDiff, got)
		}
		if c.Projection.Assumptions.InvestReturnRate != axes[0].Values[i] {
			t.Errorf("cell %d: projection built from wrong assumptions", i)
		}
	}
}

func TestSweepProgressCallback(t *testing.T) {
	base := exampleAssumptions()
	axes := []models.SweepAxis{
		{Param: models.ParamAppreciationRate, Values: []float64{0.01, 0.03}},
		{Param: models.ParamInvestReturnRate, Values: []float64{0.04, 0.06}},
	}
	var done atomic.Int64
	cfg := AnalyzerConfig{
		Parallel:   true,
		MaxWorkers: 2,
		Progress: func(d, total int) {
			if total != 4 {
				t.Errorf("total: got %d, want 4", total)
			}
			done.Add(1)
		},
	}
	if _, err := NewAnalyzer(cfg).Sweep(context.Background(), base, axes); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if got := done.Load(); got != 4 {
		t.Errorf("progress calls: got %d, want 4", got)
	}
}

func TestSweepParallelMatchesSerial(t *testing.T) {
	base := exampleAssumptions()
	axes := []models.SweepAxis{
		{Param: models.ParamAppreciationRate, Values: []float64{0.01, 0.03, 0.05}},
		{Param: models.ParamInvestReturnRate, Values: []float64{0.04, 0.06}},
	}
	serial, err := NewAnalyzer(AnalyzerConfig{Parallel: false}).Sweep(context.Background(), base, axes)
	if err != nil {
		t.Fatalf("serial sweep: %v", err)
	}
	parallel, err := NewAnalyzer(AnalyzerConfig{Parallel: true, MaxWorkers: 4}).Sweep(context.Background(), base, axes)
	if err != nil {
		t.Fatalf("parallel sweep: %v", err)
	}
	if !reflect.DeepEqual(serial, parallel) {
		t.Error("parallel evaluation must not change results")
	}
}

func TestSweepLeavesBaseUntouched(t *testing.T) {
	base := exampleAssumptions()
	before := base
	axes := []models.SweepAxis{{Param: models.ParamMortgageRate, Values: []float64{0.02, 0.08}}}
	if _, err := NewAnalyzer(DefaultAnalyzerConfig()).Sweep(context.Background(), base, axes); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base != before {
		t.Error("sweeping must not mutate the base assumptions")
	}
}

// ── Sweep Benchmarks ──

func BenchmarkSweepGrid(b *testing.B) {
	base := exampleAssumptions()
	axes := []models.SweepAxis{
		{Param: models.ParamMortgageRate, Values: []float64{0.02, 0.03, 0.04, 0.05, 0.06}},
		{Param: models.ParamInvestReturnRate, Values: []float64{0.03, 0.04, 0.05, 0.06, 0.07}},
	}
	an := NewAnalyzer(AnalyzerConfig{Parallel: false})
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := an.Sweep(ctx, base, axes); err != nil {
			b.Fatal(err)
		}
	}
}
