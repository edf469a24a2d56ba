package underwriting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/crm"
)

func record(customerID string, amount float64) *core.Record {
	rec := core.NewRecord("s1", time.Now())
	rec.Customer.ID = customerID
	rec.Loan.RequestedAmount = amount
	return rec
}

func TestRules_Decisions(t *testing.T) {
	dir := crm.NewDemoDirectory()
	r := New(dir)
	ctx := context.Background()

	tests := []struct {
		name     string
		rec      *core.Record
		decision core.Decision
	}{
		{"within limit", record("CUST001", 300000), core.DecisionApproved},
		{"low score", record("CUST004", 50000), core.DecisionRejected},
		{"above twice the limit", record("CUST001", 1200000), core.DecisionRejected},
		{"between limit and twice the limit", record("CUST001", 800000), core.DecisionNeedsDocuments},
		{"unknown customer", record("CUST999", 100000), core.DecisionNeedsDocuments},
		{"no customer", record("", 100000), core.DecisionNeedsDocuments},
		{"no amount", record("CUST001", 0), core.DecisionPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := r.Assess(ctx, tt.rec)
			require.NoError(t, err)
			assert.Equal(t, tt.decision, a.Decision)
			assert.GreaterOrEqual(t, a.RiskScore, 0.0)
			assert.LessOrEqual(t, a.RiskScore, 1.0)
		})
	}
}

func TestRules_SalarySlipPath(t *testing.T) {
	r := New(crm.NewDemoDirectory())
	ctx := context.Background()

	rec := record("CUST001", 800000)
	rec.Documents.SalarySlipUploaded = true
	a, err := r.Assess(ctx, rec)
	require.NoError(t, err)
	// 800000 over 36 months at 12.5% is about 26763 plus 5000 existing on 85000 salary.
	assert.Equal(t, core.DecisionApproved, a.Decision)
	assert.Equal(t, 800000.0, a.ApprovedAmount)
	assert.InDelta(t, 0.37, a.EMIToIncome, 0.01)

	rec.Documents.MonthlySalary = 40000
	a, err = r.Assess(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, core.DecisionRejected, a.Decision)
	assert.NotEmpty(t, a.Recommendations)

	unknown := record("", 200000)
	unknown.Documents.SalarySlipUploaded = true
	a, err = r.Assess(ctx, unknown)
	require.NoError(t, err)
	assert.Equal(t, core.DecisionNeedsDocuments, a.Decision)

	unknown.Documents.MonthlySalary = 100000
	a, err = r.Assess(ctx, unknown)
	require.NoError(t, err)
	assert.Equal(t, core.DecisionApproved, a.Decision)
}

func TestRules_UsesSelectedOffer(t *testing.T) {
	r := New(crm.NewDemoDirectory())
	rec := record("CUST001", 300000)
	rec.Sales.SelectedOffer = &core.Offer{ID: "offer-3", TenureMonths: 60, InterestRate: 11.75}

	a, err := r.Assess(context.Background(), rec)
	require.NoError(t, err)
	assert.InDelta(t, core.Installment(300000, 11.75, 60), a.MonthlyEMI, 0.01)
}

type brokenDirectory struct{}

func (brokenDirectory) LookupCustomer(context.Context, string) (*core.CustomerProfile, error) {
	return nil, errors.New("crm down")
}

func (brokenDirectory) VerifyAddress(context.Context, string, string) (core.AddressCheck, error) {
	return core.AddressCheck{}, errors.New("crm down")
}

func TestRules_DirectoryFailure(t *testing.T) {
	r := New(brokenDirectory{})
	_, err := r.Assess(context.Background(), record("CUST001", 100000))
	assert.Error(t, err)
}
