package simulate

import (
	"fmt"
	"math"

	"github.com/lufenny/wealthsim/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Mortgage Amortization
// ════════════════════════════════════════════════════════════════════

// MortgageSchedule is a standard fixed-rate amortizing loan: a constant
// monthly installment derived from principal, annual rate and term, with
// each installment split into interest and principal portions.
type MortgageSchedule struct {
	Principal      float64
	AnnualRate     float64
	TermMonths     int
	MonthlyPayment float64

	monthlyRate float64
}

// NewMortgageSchedule derives the fixed monthly installment:
//
//	payment = P · r · (1+r)^n / ((1+r)^n − 1)
//
// with r the monthly rate and n the term in months. A zero interest rate
// degenerates the formula to 0/0 and is special-cased as straight-line
// principal repayment (P / n). A zero principal yields an empty schedule.
func NewMortgageSchedule(principal, annualRate float64, termYears int) (*MortgageSchedule, error) {
	if principal < 0 {
		return nil, &ProjectionError{Stage: "mortgage",
			Msg: fmt.Sprintf("negative principal %.2f", principal)}
	}
	if annualRate < 0 {
		return nil, &ProjectionError{Stage: "mortgage",
			Msg: fmt.Sprintf("negative interest rate %g", annualRate)}
	}
	s := &MortgageSchedule{
		Principal:   principal,
		AnnualRate:  annualRate,
		TermMonths:  termYears * models.MonthsPerYear,
		monthlyRate: annualRate / models.MonthsPerYear,
	}
	if principal == 0 {
		return s, nil
	}
	if termYears < 1 {
		return nil, &ProjectionError{Stage: "mortgage",
			Msg: fmt.Sprintf("term of %d years cannot amortize a principal of %.2f", termYears, principal)}
	}
	if annualRate == 0 {
		s.MonthlyPayment = principal / float64(s.TermMonths)
		return s, nil
	}
	pow := math.Pow(1+s.monthlyRate, float64(s.TermMonths))
	payment := principal * s.monthlyRate * pow / (pow - 1)
	if !isFinite(payment) || payment <= 0 {
		return nil, &ProjectionError{Stage: "mortgage",
			Msg: fmt.Sprintf("installment is undefined for rate %g over %d months", annualRate, s.TermMonths)}
	}
	s.MonthlyPayment = payment
	return s, nil
}

// Step computes one month's installment from the given outstanding balance,
// returning its interest and principal portions and the amount actually
// paid. The final installment is clamped so the balance lands exactly on
// zero; a zero balance yields a zero step.
func (s *MortgageSchedule) Step(balance float64) (interest, principal, payment float64) {
	if balance <= 0 {
		return 0, 0, 0
	}
	interest = balance * s.monthlyRate
	principal = s.MonthlyPayment - interest
	if principal > balance {
		principal = balance
	}
	return interest, principal, interest + principal
}

// RemainingBalance is the closed-form balance after monthsPaid installments,
// used to cross-check the iterative schedule:
//
//	B(k) = P · ((1+r)^n − (1+r)^k) / ((1+r)^n − 1)
func (s *MortgageSchedule) RemainingBalance(monthsPaid int) float64 {
	if monthsPaid <= 0 {
		return s.Principal
	}
	if monthsPaid >= s.TermMonths {
		return 0
	}
	if s.monthlyRate == 0 {
		return s.Principal - s.MonthlyPayment*float64(monthsPaid)
	}
	powK := math.Pow(1+s.monthlyRate, float64(monthsPaid))
	powN := math.Pow(1+s.monthlyRate, float64(s.TermMonths))
	return s.Principal * (powN - powK) / (powN - 1)
}
