package agent

import (
	"context"

	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/logging"
)

// Underwriting delegates scoring to an assessor and maps its output onto the
// record. Terminal decisions set the application status.
type Underwriting struct {
	BaseAgent
	assessor core.Assessor
}

// NewUnderwriting creates the underwriting stage.
func NewUnderwriting(assessor core.Assessor, logger logging.Logger) *Underwriting {
	u := &Underwriting{
		BaseAgent: NewBaseAgent(core.AgentUnderwriting, logger),
		assessor:  assessor,
	}
	u.SetDescription("Runs the credit assessment and records the decision")
	return u
}

// Run implements core.Agent.
func (u *Underwriting) Run(ctx context.Context, rec *core.Record) *core.Record {
	next := u.begin(rec)

	a, err := u.assessor.Assess(ctx, next)
	if err != nil {
		u.fail(next, "assess", err)
		u.reply(next, apologyMessage)
		return next
	}

	uw := &next.Underwriting
	uw.Decision = a.Decision
	uw.CreditScore = a.CreditScore
	uw.RiskScore = a.RiskScore
	uw.EMIToIncome = a.EMIToIncome
	uw.Conditions = a.Conditions
	uw.Reasons = a.Reasons
	uw.Recommendations = a.Recommendations

	if a.ApprovedAmount > 0 {
		next.Loan.ApprovedAmount = a.ApprovedAmount
	}
	if a.MonthlyEMI > 0 {
		next.Loan.MonthlyEMI = a.MonthlyEMI
	}
	if next.Loan.TenureMonths == 0 {
		if o, _, ok := chosenOffer(next.Sales); ok {
			next.Loan.TenureMonths = o.TenureMonths
			next.Loan.InterestRate = o.InterestRate
		}
	}

	switch a.Decision {
	case core.DecisionApproved:
		next.Status = core.StatusApproved
	case core.DecisionRejected:
		next.Status = core.StatusRejected
	}

	u.reply(next, assessmentMessage(a))
	return next
}
