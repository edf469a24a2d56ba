// Package underwriting provides the default rule-based credit assessment.
package underwriting

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/loanmesh/core"
)

// Options tunes the assessment rules.
type Options struct {
	// MinCreditScore rejects known customers scoring below it.
	MinCreditScore int
	// LimitMultiple bounds the amount relative to the pre-approved limit.
	LimitMultiple float64
	// MaxEMIRatio bounds total monthly obligations relative to salary.
	MaxEMIRatio float64
	// DefaultTenureMonths and DefaultRate price the EMI when no offer exists.
	DefaultTenureMonths int
	DefaultRate         float64
}

// Rules implements core.Assessor:
//   - known customers below MinCreditScore are rejected
//   - amounts within the pre-approved limit are approved
//   - amounts above LimitMultiple times the limit are rejected
//   - anything else needs a salary slip and is approved when
//     (new EMI + existing EMI) / monthly salary stays within MaxEMIRatio
//
// Customers not in the directory follow the salary slip path.
type Rules struct {
	directory core.CustomerDirectory
	opts      Options
}

var _ core.Assessor = (*Rules)(nil)

// New creates the assessor.
func New(directory core.CustomerDirectory, optFns ...func(o *Options)) *Rules {
	opts := Options{
		MinCreditScore:      700,
		LimitMultiple:       2,
		MaxEMIRatio:         0.5,
		DefaultTenureMonths: 36,
		DefaultRate:         12.5,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Rules{directory: directory, opts: opts}
}

// Assess implements core.Assessor.
func (r *Rules) Assess(ctx context.Context, rec *core.Record) (core.Assessment, error) {
	amount := rec.Loan.RequestedAmount
	if amount <= 0 {
		return core.Assessment{
			Decision: core.DecisionPending,
			Reasons:  []string{"requested amount is missing"},
		}, nil
	}

	profile, err := r.lookup(ctx, rec.Customer.ID)
	if err != nil {
		return core.Assessment{}, err
	}

	tenure, rate := r.terms(rec)
	emi := core.RoundMoney(core.Installment(amount, rate, tenure))

	a := core.Assessment{MonthlyEMI: emi}
	var limit, existing, salary float64
	if profile != nil {
		a.CreditScore = profile.CreditScore
		limit = profile.PreApprovedLimit
		existing = profile.ExistingEMI
		salary = profile.MonthlySalary
	}
	if rec.Documents.MonthlySalary > 0 {
		salary = rec.Documents.MonthlySalary
	}
	if salary > 0 {
		a.EMIToIncome = round2((emi + existing) / salary)
	}
	a.RiskScore = riskScore(a.CreditScore, a.EMIToIncome)

	switch {
	case profile != nil && a.CreditScore > 0 && a.CreditScore < r.opts.MinCreditScore:
		a.Decision = core.DecisionRejected
		a.Reasons = []string{fmt.Sprintf("credit score %d is below the minimum of %d", a.CreditScore, r.opts.MinCreditScore)}
		a.Recommendations = []string{"improve your credit score by repaying existing dues on time", "apply again after six months"}

	case limit > 0 && amount <= limit:
		a.Decision = core.DecisionApproved
		a.ApprovedAmount = amount
		a.Reasons = []string{"amount within pre-approved limit"}

	case limit > 0 && amount > r.opts.LimitMultiple*limit:
		a.Decision = core.DecisionRejected
		a.Reasons = []string{fmt.Sprintf("requested amount exceeds %.0fx the pre-approved limit", r.opts.LimitMultiple)}
		a.Recommendations = []string{fmt.Sprintf("consider a loan of up to Rs %.0f", r.opts.LimitMultiple*limit)}

	case !rec.Documents.SalarySlipUploaded:
		a.Decision = core.DecisionNeedsDocuments
		a.Conditions = []string{"upload your latest salary slip"}

	case salary <= 0:
		a.Decision = core.DecisionNeedsDocuments
		a.Conditions = []string{"declare your monthly salary with the salary slip"}

	case a.EMIToIncome <= r.opts.MaxEMIRatio:
		a.Decision = core.DecisionApproved
		a.ApprovedAmount = amount
		a.Reasons = []string{fmt.Sprintf("EMI to income ratio %.0f%% within limit", a.EMIToIncome*100)}

	default:
		a.Decision = core.DecisionRejected
		a.Reasons = []string{fmt.Sprintf("EMI to income ratio %.0f%% exceeds %.0f%%", a.EMIToIncome*100, r.opts.MaxEMIRatio*100)}
		a.Recommendations = []string{"choose a longer tenure or a smaller amount"}
	}
	return a, nil
}

func (r *Rules) lookup(ctx context.Context, id string) (*core.CustomerProfile, error) {
	if r.directory == nil || id == "" {
		return nil, nil
	}
	p, err := r.directory.LookupCustomer(ctx, id)
	if errors.Is(err, core.ErrCustomerNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	return p, nil
}

// terms picks tenure and rate from the selected offer, the recommended offer
// or the defaults.
func (r *Rules) terms(rec *core.Record) (int, float64) {
	if o := rec.Sales.SelectedOffer; o != nil {
		return o.TenureMonths, o.InterestRate
	}
	for _, o := range rec.Sales.Offers {
		if o.Recommended {
			return o.TenureMonths, o.InterestRate
		}
	}
	if rec.Loan.TenureMonths > 0 && rec.Loan.InterestRate > 0 {
		return rec.Loan.TenureMonths, rec.Loan.InterestRate
	}
	return r.opts.DefaultTenureMonths, r.opts.DefaultRate
}

// riskScore maps credit score and obligation ratio into [0,1], higher is
// riskier. Unknown scores start at 0.5.
func riskScore(score int, ratio float64) float64 {
	risk := 0.5
	if score > 0 {
		risk = 1 - float64(score-300)/600
	}
	if ratio > 0 {
		risk += (ratio - 0.3) / 2
	}
	return round2(math.Min(1, math.Max(0, risk)))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
