package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/loanmesh/agent"
	"github.com/hupe1980/loanmesh/artifact"
	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/crm"
	"github.com/hupe1980/loanmesh/internal/testutil"
	"github.com/hupe1980/loanmesh/sanction"
	"github.com/hupe1980/loanmesh/underwriting"
)

func newStages(t *testing.T) []core.Agent {
	t.Helper()
	dir := crm.NewDemoDirectory()
	gen, err := sanction.New(artifact.NewInMemoryStore())
	require.NoError(t, err)

	return []core.Agent{
		agent.NewOrchestrator(&testutil.Responder{}),
		agent.NewSales(func(o *agent.SalesOptions) { o.Directory = dir }),
		agent.NewVerification(func(o *agent.VerificationOptions) {
			o.Directory = dir
			o.GenerateCode = func() (string, error) { return "123456", nil }
		}),
		agent.NewUnderwriting(underwriting.New(dir), nil),
		agent.NewSanction(gen, nil),
	}
}

// cycle appends text and runs one cycle, checking the per-cycle invariants.
func cycle(t *testing.T, f *Flow, rec *core.Record, text string) (*core.Record, Result) {
	t.Helper()
	in := rec.Clone()
	in.AppendMessage(core.RoleUser, text, "")

	res := f.Run(context.Background(), in)
	out := res.Record
	assert.LessOrEqual(t, len(res.Hops), 2, "hops for %q: %v", text, res.Hops)
	assert.Equal(t, in.CountRole(core.RoleAssistant)+1, out.CountRole(core.RoleAssistant), "exactly one reply for %q", text)
	assert.LessOrEqual(t, len(out.Messages)-len(in.Messages), len(res.Hops))
	assert.Equal(t, core.ActionNone, out.PendingAction)
	last, ok := out.LastMessage()
	require.True(t, ok)
	assert.Equal(t, core.RoleAssistant, last.Role)
	return out, res
}

func TestFlow_FullApplication(t *testing.T) {
	f, err := New(newStages(t))
	require.NoError(t, err)

	rec := testutil.NewRecordBuilder("sess-1").Customer("CUST001", "Rahul Sharma").Build()

	rec, res := cycle(t, f, rec, "hi")
	assert.Equal(t, []core.AgentName{core.AgentOrchestrator}, res.Hops)
	assert.Equal(t, core.StageEntry, rec.Stage)

	rec, res = cycle(t, f, rec, "I need a loan of 3 lakhs")
	assert.Equal(t, []core.AgentName{core.AgentOrchestrator, core.AgentSales}, res.Hops)
	assert.Equal(t, core.StageSalesNegotiation, rec.Stage)
	assert.Equal(t, 300000.0, rec.Loan.RequestedAmount)
	assert.NotEmpty(t, rec.Sales.Offers)

	rec, _ = cycle(t, f, rec, "option 2")
	require.NotNil(t, rec.Sales.SelectedOffer)

	rec, res = cycle(t, f, rec, "proceed")
	assert.Equal(t, core.StageVerification, rec.Stage)
	assert.Equal(t, core.AgentVerification, res.Hops[len(res.Hops)-1])
	assert.True(t, rec.Verification.Started)

	rec, _ = cycle(t, f, rec, "send otp")
	assert.True(t, rec.Verification.OTPSent)
	assert.Equal(t, 0, rec.Verification.OTPAttempts)

	rec, _ = cycle(t, f, rec, "999999")
	assert.Equal(t, 1, rec.Verification.OTPAttempts)
	assert.Equal(t, core.StageVerification, rec.Stage)

	rec, _ = cycle(t, f, rec, "123456 PAN: ABCDE1234F, DOB: 1990-05-15, email: rahul@example.com")
	assert.True(t, rec.Verification.PhoneVerified)
	assert.True(t, rec.Verification.KYCVerified)

	rec, res = cycle(t, f, rec, "continue")
	assert.Equal(t, []core.AgentName{core.AgentOrchestrator, core.AgentUnderwriting}, res.Hops)
	assert.Equal(t, core.DecisionApproved, rec.Underwriting.Decision)
	assert.Equal(t, core.StatusApproved, rec.Status)
	assert.Equal(t, core.StageUnderwriting, rec.Stage)

	rec, res = cycle(t, f, rec, "great, what next?")
	assert.Equal(t, []core.AgentName{core.AgentOrchestrator, core.AgentSanction}, res.Hops)
	assert.Equal(t, RuleClosed, res.Rule)
	assert.Equal(t, core.StageClosure, rec.Stage)
	assert.Regexp(t, `^SL-\d{8}-[0-9A-F]{6}$`, rec.Sanction.ReferenceNumber)
	assert.Contains(t, rec.Sanction.LetterURL, "artifact://sess-1/sanction-")

	rec, res = cycle(t, f, rec, "thanks!")
	assert.Equal(t, []core.AgentName{core.AgentOrchestrator}, res.Hops)
	assert.Equal(t, RuleClosed, res.Rule)
	assert.Equal(t, core.StageClosure, rec.Stage)
	assert.Zero(t, rec.ErrorCount)
}

func TestFlow_DocumentPath(t *testing.T) {
	f, err := New(newStages(t))
	require.NoError(t, err)

	rec := testutil.NewRecordBuilder("sess-2").Customer("CUST001", "Rahul Sharma").Assistant("hello").Build()
	rec, _ = cycle(t, f, rec, "I need 8 lakh")
	rec, _ = cycle(t, f, rec, "proceed")
	rec, _ = cycle(t, f, rec, "send otp")
	rec, _ = cycle(t, f, rec, "123456 PAN: ABCDE1234F, DOB: 1990-05-15, email: rahul@example.com")

	rec, _ = cycle(t, f, rec, "continue")
	assert.Equal(t, core.DecisionNeedsDocuments, rec.Underwriting.Decision)
	assert.Equal(t, core.StageUnderwriting, rec.Stage)

	rec, _ = cycle(t, f, rec, "what do you need?")
	assert.Equal(t, core.StageDocumentUpload, rec.Stage)

	rec, _ = cycle(t, f, rec, "done")
	assert.Equal(t, core.StageDocumentUpload, rec.Stage, "no slip yet")

	rec.Documents.SalarySlipUploaded = true
	rec, res := cycle(t, f, rec, "uploaded it")
	assert.Equal(t, []core.AgentName{core.AgentOrchestrator, core.AgentUnderwriting}, res.Hops)
	assert.Equal(t, core.StageUnderwriting, rec.Stage, "re-assessment, not straight to sanction")
	assert.Equal(t, core.DecisionApproved, rec.Underwriting.Decision)
	assert.Empty(t, rec.Sanction.ReferenceNumber)
}

func TestFlow_DoesNotMutateInput(t *testing.T) {
	f, err := New(newStages(t))
	require.NoError(t, err)

	in := testutil.NewRecordBuilder("s").Assistant("hello").User("I need 3 lakh").Build()
	before := in.Clone()
	_ = f.Run(context.Background(), in)
	assert.Equal(t, before, in)
}

// stub delegates forever without replying.
type stub struct {
	name   core.AgentName
	action core.Action
}

func (s stub) Name() core.AgentName { return s.name }
func (s stub) Description() string  { return "stub" }
func (s stub) Run(_ context.Context, rec *core.Record) *core.Record {
	next := rec.Clone()
	next.PendingAction = s.action
	return next
}

func TestFlow_FailedSpecialistKeepsCursor(t *testing.T) {
	assessor := &testutil.Assessor{Err: errors.New("bureau offline")}
	f, err := New([]core.Agent{
		agent.NewOrchestrator(&testutil.Responder{}),
		agent.NewUnderwriting(assessor, nil),
	})
	require.NoError(t, err)

	rec := testutil.NewRecordBuilder("s").
		Stage(core.StageVerification).
		Verification(core.Verification{Started: true, PhoneVerified: true, KYCVerified: true}).
		Assistant("All verification steps are complete.").
		Build()

	rec, res := cycle(t, f, rec, "continue")
	assert.Equal(t, []core.AgentName{core.AgentOrchestrator, core.AgentUnderwriting}, res.Hops)
	assert.Equal(t, core.StageVerification, rec.Stage)
	assert.Equal(t, 1, rec.ErrorCount)

	assessor.Err = nil
	assessor.Assessment = core.Assessment{Decision: core.DecisionApproved, CreditScore: 780, ApprovedAmount: 300000}
	rec, res = cycle(t, f, rec, "please try again")
	assert.Equal(t, []core.AgentName{core.AgentOrchestrator, core.AgentUnderwriting}, res.Hops)
	assert.Equal(t, core.StageUnderwriting, rec.Stage)
	assert.Equal(t, core.DecisionApproved, rec.Underwriting.Decision)
	assert.Equal(t, 2, assessor.Calls())
}

func TestFlow_HopLimit(t *testing.T) {
	f, err := New([]core.Agent{
		stub{name: core.AgentOrchestrator, action: core.ActionDelegateSales},
		stub{name: core.AgentSales, action: core.ActionDelegateSales},
	}, func(o *Options) { o.MaxHops = 4 })
	require.NoError(t, err)

	res := f.Run(context.Background(), testutil.NewRecordBuilder("s").User("hi").Build())
	assert.Equal(t, RuleHopLimit, res.Rule)
	assert.Len(t, res.Hops, 4)
	assert.Equal(t, core.ActionNone, res.Record.PendingAction)
	assert.Equal(t, 1, res.Record.ErrorCount)
	last, _ := res.Record.LastMessage()
	assert.Equal(t, core.RoleAssistant, last.Role)
}

func TestFlow_UnregisteredStage(t *testing.T) {
	f, err := New([]core.Agent{stub{name: core.AgentOrchestrator, action: core.ActionDelegateSanction}})
	require.NoError(t, err)

	res := f.Run(context.Background(), testutil.NewRecordBuilder("s").User("hi").Build())
	assert.Equal(t, RuleInvalidAction, res.Rule)
	assert.Equal(t, []core.AgentName{core.AgentOrchestrator}, res.Hops)
	assert.Contains(t, res.Record.LastError, "sanction")
}

func TestFlow_Hooks(t *testing.T) {
	var before, after []core.AgentName
	f, err := New(newStages(t), func(o *Options) {
		o.Hooks = Hooks{
			BeforeAgent: func(_ context.Context, name core.AgentName, _ *core.Record) { before = append(before, name) },
			AfterAgent: func(_ context.Context, name core.AgentName, in, out *core.Record, elapsed time.Duration) {
				assert.NotSame(t, in, out)
				assert.GreaterOrEqual(t, elapsed, time.Duration(0))
				after = append(after, name)
			},
		}
	})
	require.NoError(t, err)

	_ = f.Run(context.Background(), testutil.NewRecordBuilder("s").Assistant("hello").User("I need 3 lakh").Build())
	assert.Equal(t, []core.AgentName{core.AgentOrchestrator, core.AgentSales}, before)
	assert.Equal(t, before, after)
}

func TestNew_Validation(t *testing.T) {
	_, err := New([]core.Agent{stub{name: core.AgentSales}})
	assert.ErrorIs(t, err, ErrNoOrchestrator)

	_, err = New([]core.Agent{stub{name: core.AgentOrchestrator}, stub{name: core.AgentOrchestrator}})
	assert.ErrorContains(t, err, "duplicate")

	_, err = New([]core.Agent{stub{name: core.AgentOrchestrator}}, func(o *Options) { o.MaxHops = 0 })
	assert.Error(t, err)
}
