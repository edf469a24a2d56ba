package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hupe1980/loanmesh/agent"
	"github.com/hupe1980/loanmesh/artifact"
	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/crm"
	"github.com/hupe1980/loanmesh/flow"
	"github.com/hupe1980/loanmesh/internal/testutil"
	"github.com/hupe1980/loanmesh/metrics"
	"github.com/hupe1980/loanmesh/sanction"
	"github.com/hupe1980/loanmesh/session"
	"github.com/hupe1980/loanmesh/underwriting"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	manager   *Manager
	responder *testutil.Responder
	artifacts *artifact.InMemoryStore
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T, optFns ...func(o *Options)) *fixture {
	t.Helper()
	dir := crm.NewDemoDirectory()
	store := artifact.NewInMemoryStore()
	gen, err := sanction.New(store)
	require.NoError(t, err)

	responder := &testutil.Responder{}
	stages := []core.Agent{
		agent.NewOrchestrator(responder),
		agent.NewSales(func(o *agent.SalesOptions) { o.Directory = dir }),
		agent.NewVerification(func(o *agent.VerificationOptions) {
			o.Directory = dir
			o.GenerateCode = func() (string, error) { return "123456", nil }
		}),
		agent.NewUnderwriting(underwriting.New(dir), nil),
		agent.NewSanction(gen, nil),
	}

	met := metrics.New(prometheus.NewRegistry())
	seq := 0
	var mu sync.Mutex
	m, err := New(stages, append([]func(o *Options){func(o *Options) {
		o.Artifacts = store
		o.Directory = dir
		o.Metrics = met
		o.NewID = func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("id-%03d", seq)
		}
	}}, optFns...)...)
	require.NoError(t, err)

	return &fixture{manager: m, responder: responder, artifacts: store, metrics: met}
}

func (f *fixture) send(t *testing.T, id, text string) Result {
	t.Helper()
	res, err := f.manager.ProcessMessage(context.Background(), id, text)
	require.NoError(t, err)
	require.NotEmpty(t, res.Response, "reply to %q", text)
	return res
}

func TestManager_CreateSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.manager.CreateSession(ctx, "cust001")
	require.NoError(t, err)
	assert.Equal(t, "id-001", id)

	rec, err := f.manager.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "CUST001", rec.Customer.ID)
	assert.Equal(t, "Rahul Sharma", rec.Customer.Name)
	assert.Equal(t, "9876543210", rec.Customer.Phone)
	assert.Equal(t, core.StageEntry, rec.Stage)
	assert.Equal(t, core.StatusInProgress, rec.Status)
	assert.Empty(t, rec.Messages)

	id2, err := f.manager.CreateSession(ctx, "CUST999")
	require.NoError(t, err)
	rec, err = f.manager.GetSession(ctx, id2)
	require.NoError(t, err)
	assert.Equal(t, "CUST999", rec.Customer.ID)
	assert.Empty(t, rec.Customer.Name)

	assert.InDelta(t, 2, promtest.ToFloat64(f.metrics.ActiveSessions), 0)
}

func TestManager_GreetingThenAmount(t *testing.T) {
	f := newFixture(t)
	id, err := f.manager.CreateSession(context.Background(), "")
	require.NoError(t, err)

	res := f.send(t, id, "I need a loan of 3 lakhs")
	assert.True(t, res.OK)
	assert.Contains(t, res.Response, "Hello!")
	assert.Equal(t, core.StageEntry, res.Stage, "first message is not interpreted")
	assert.Equal(t, []core.AgentName{core.AgentOrchestrator}, res.Hops)

	res = f.send(t, id, "I need a loan of 3 lakhs")
	assert.Equal(t, core.StageSalesNegotiation, res.Stage)
	assert.Equal(t, core.AgentSales, res.Agent)
	assert.Contains(t, res.Response, "Option 1")

	rec, err := f.manager.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 300000.0, rec.Loan.RequestedAmount)
	assert.NotEmpty(t, rec.Sales.Offers)
	assert.Equal(t, 2, rec.TotalInteractions)
	assert.Len(t, rec.Messages, 4)

	assert.InDelta(t, 2, promtest.ToFloat64(f.metrics.AgentRunsTotal.WithLabelValues("orchestrator")), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(f.metrics.AgentRunsTotal.WithLabelValues("sales")), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(f.metrics.CyclesTotal.WithLabelValues("sales_negotiation", "in_progress")), 0)
}

func TestManager_CapturesCustomerID(t *testing.T) {
	f := newFixture(t)
	id, err := f.manager.CreateSession(context.Background(), "")
	require.NoError(t, err)

	res := f.send(t, id, "hi, my customer id is cust002")
	assert.Contains(t, res.Response, "Priya Patel")

	rec, err := f.manager.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "CUST002", rec.Customer.ID)
	assert.Equal(t, "priya.patel@example.com", rec.Customer.Email)
}

func TestManager_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.ProcessMessage(ctx, "missing", "hello")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	_, err = f.manager.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	assert.ErrorIs(t, f.manager.DiscardSession(ctx, "missing"), core.ErrSessionNotFound)

	id, err := f.manager.CreateSession(ctx, "")
	require.NoError(t, err)

	_, err = f.manager.ProcessMessage(ctx, id, "   ")
	assert.ErrorIs(t, err, core.ErrEmptyMessage)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = f.manager.ProcessMessage(cancelled, id, "hello")
	assert.ErrorIs(t, err, context.Canceled)

	rec, err := f.manager.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, rec.TotalInteractions)
	assert.Empty(t, rec.Messages)
}

func TestManager_CollaboratorFailure(t *testing.T) {
	f := newFixture(t)
	id, err := f.manager.CreateSession(context.Background(), "")
	require.NoError(t, err)
	f.send(t, id, "hello")

	f.responder.Err = errors.New("provider down")
	res := f.send(t, id, "what can you do?")
	assert.False(t, res.OK)
	assert.Contains(t, res.Response, "Sorry")
	assert.Equal(t, core.StageEntry, res.Stage)

	rec, err := f.manager.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.ErrorCount)
	assert.Contains(t, rec.LastError, "provider down")
	assert.InDelta(t, 1, promtest.ToFloat64(f.metrics.FailuresTotal.WithLabelValues("orchestrator")), 0)
}

func TestManager_DocumentPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.manager.CreateSession(ctx, "CUST001")
	require.NoError(t, err)

	f.send(t, id, "hi")
	f.send(t, id, "I need 8 lakh")
	f.send(t, id, "proceed")
	f.send(t, id, "send otp")
	f.send(t, id, "123456 PAN: ABCDE1234F, DOB: 1990-05-15, email: rahul@example.com")

	res := f.send(t, id, "continue")
	assert.Equal(t, core.StageUnderwriting, res.Stage)
	assert.Contains(t, res.Response, "salary slip")

	res = f.send(t, id, "what do you need?")
	assert.Equal(t, core.StageDocumentUpload, res.Stage)

	locator, err := f.manager.AttachDocument(ctx, id, Upload{
		Kind:          DocumentSalarySlip,
		Filename:      "slip.PDF",
		Data:          []byte("%PDF-1.4"),
		MonthlySalary: 120000,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^artifact://id-001/salary_slip-id[0-9]+\.pdf$`, locator)

	rec, err := f.manager.GetSession(ctx, id)
	require.NoError(t, err)
	assert.True(t, rec.Documents.SalarySlipUploaded)
	assert.Equal(t, locator, rec.Documents.SalarySlipURL)
	assert.Equal(t, 120000.0, rec.Documents.MonthlySalary)
	messages := len(rec.Messages)

	res = f.send(t, id, "uploaded")
	assert.Equal(t, core.StageUnderwriting, res.Stage)
	assert.Equal(t, core.StatusApproved, res.Status)
	assert.Equal(t, []core.AgentName{core.AgentOrchestrator, core.AgentUnderwriting}, res.Hops)

	res = f.send(t, id, "great")
	assert.Equal(t, core.StageClosure, res.Stage)
	assert.Equal(t, flow.RuleClosed, res.Rule)
	assert.Contains(t, res.Response, "SL-")

	rec, err = f.manager.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Len(t, rec.Messages, messages+4)
	_, aid, err := artifact.ParseLocator(rec.Sanction.LetterURL)
	require.NoError(t, err)
	letter, err := f.artifacts.Get(id, aid)
	require.NoError(t, err)
	assert.Contains(t, string(letter), "Rahul Sharma")
}

func TestManager_AttachDocumentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.manager.CreateSession(ctx, "")
	require.NoError(t, err)

	_, err = f.manager.AttachDocument(ctx, id, Upload{Kind: "passport", Data: []byte("x")})
	assert.ErrorIs(t, err, core.ErrInvalidDocument)

	_, err = f.manager.AttachDocument(ctx, id, Upload{Kind: DocumentIDFront})
	assert.ErrorIs(t, err, core.ErrInvalidDocument)

	_, err = f.manager.AttachDocument(ctx, "missing", Upload{Kind: DocumentIDFront, Data: []byte("x")})
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	locator, err := f.manager.AttachDocument(ctx, id, Upload{Kind: DocumentIDBack, Filename: "back", Data: []byte("x")})
	require.NoError(t, err)
	assert.True(t, len(locator) > 0)

	rec, err := f.manager.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, locator, rec.Documents.IDBackURL)
	assert.False(t, rec.Documents.SalarySlipUploaded)
	assert.Empty(t, rec.Messages)
}

func TestManager_SetOTPPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.manager.CreateSession(ctx, "CUST001")
	require.NoError(t, err)

	assert.ErrorIs(t, f.manager.SetOTPPhone(ctx, id, "12ab"), core.ErrInvalidPhone)
	require.NoError(t, f.manager.SetOTPPhone(ctx, id, "90000 00001"))

	rec, err := f.manager.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "+919000000001", rec.Verification.OTPPhone)

	f.send(t, id, "hi")
	f.send(t, id, "I need 3 lakh")
	f.send(t, id, "proceed")
	res := f.send(t, id, "send otp")
	assert.Contains(t, res.Response, "0001")
	assert.NotContains(t, res.Response, "3210")
}

func TestManager_RetriesAfterCollaboratorFailure(t *testing.T) {
	ctx := context.Background()
	assessor := &testutil.Assessor{Err: errors.New("bureau offline")}
	letters := &testutil.SanctionGenerator{Err: errors.New("renderer down")}
	store := session.NewInMemoryStore()

	m, err := New([]core.Agent{
		agent.NewOrchestrator(&testutil.Responder{}),
		agent.NewSales(),
		agent.NewVerification(),
		agent.NewUnderwriting(assessor, nil),
		agent.NewSanction(letters, nil),
	}, func(o *Options) { o.Store = store })
	require.NoError(t, err)

	id, err := m.CreateSession(ctx, "")
	require.NoError(t, err)
	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	rec.Stage = core.StageVerification
	rec.Verification = core.Verification{Started: true, PhoneVerified: true, KYCVerified: true}
	rec.AppendMessage(core.RoleAssistant, "All verification steps are complete.", core.AgentVerification)
	require.NoError(t, store.Put(ctx, rec))

	process := func(text string) Result {
		t.Helper()
		res, err := m.ProcessMessage(ctx, id, text)
		require.NoError(t, err)
		return res
	}

	res := process("continue")
	assert.False(t, res.OK)
	assert.Equal(t, core.StageVerification, res.Stage)
	assert.Equal(t, 1, assessor.Calls())

	assessor.Err = nil
	assessor.Assessment = core.Assessment{Decision: core.DecisionApproved, CreditScore: 780, ApprovedAmount: 300000}
	res = process("please retry")
	assert.True(t, res.OK)
	assert.Equal(t, core.StageUnderwriting, res.Stage)
	assert.Equal(t, 2, assessor.Calls())

	res = process("send my letter")
	assert.False(t, res.OK)
	assert.Equal(t, core.StageUnderwriting, res.Stage)
	assert.Equal(t, 1, letters.Calls())

	letters.Err = nil
	letters.Letter = core.SanctionLetter{OK: true, Locator: artifact.Locator(id, "sanction-SL-1.txt"), ReferenceNumber: "SL-1"}
	res = process("try again")
	assert.True(t, res.OK)
	assert.Equal(t, core.StageClosure, res.Stage)
	assert.Equal(t, core.StatusApproved, res.Status)
	assert.Equal(t, 2, letters.Calls())
}

func TestManager_UnknownSessionsLeaveNoLocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		missing := fmt.Sprintf("missing-%d", i)
		_, err := f.manager.ProcessMessage(ctx, missing, "hello")
		require.ErrorIs(t, err, core.ErrSessionNotFound)
		require.ErrorIs(t, f.manager.DiscardSession(ctx, missing), core.ErrSessionNotFound)
		require.ErrorIs(t, f.manager.SetOTPPhone(ctx, missing, "9876543210"), core.ErrSessionNotFound)
	}

	id, err := f.manager.CreateSession(ctx, "")
	require.NoError(t, err)
	f.send(t, id, "hello")

	f.manager.locksMu.Lock()
	defer f.manager.locksMu.Unlock()
	assert.Empty(t, f.manager.locks)
}

func TestManager_DiscardSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.manager.CreateSession(ctx, "")
	require.NoError(t, err)
	_, err = f.manager.AttachDocument(ctx, id, Upload{Kind: DocumentIDFront, Filename: "front.png", Data: []byte("png")})
	require.NoError(t, err)

	require.NoError(t, f.manager.DiscardSession(ctx, id))

	_, err = f.manager.GetSession(ctx, id)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	ids, err := f.artifacts.List(id)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.InDelta(t, 0, promtest.ToFloat64(f.metrics.ActiveSessions), 0)
}

func TestManager_ConcurrentMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const sessions, perSession = 4, 10
	ids := make([]string, sessions)
	for i := range ids {
		id, err := f.manager.CreateSession(ctx, "")
		require.NoError(t, err)
		ids[i] = id
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for j := 0; j < perSession; j++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := f.manager.ProcessMessage(ctx, id, "hello there")
				assert.NoError(t, err)
			}(id)
		}
	}
	wg.Wait()

	for _, id := range ids {
		rec, err := f.manager.GetSession(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, perSession, rec.TotalInteractions)
		assert.Equal(t, perSession, rec.CountRole(core.RoleUser))
		assert.Equal(t, perSession, rec.CountRole(core.RoleAssistant))
	}
}

func TestNew_RequiresOrchestrator(t *testing.T) {
	_, err := New([]core.Agent{agent.NewSales()})
	assert.ErrorIs(t, err, flow.ErrNoOrchestrator)
}
