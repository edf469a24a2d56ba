package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/internal/testutil"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name string
		rec  *core.Record
		want Decision
	}{
		{
			name: "delegation wins",
			rec: testutil.NewRecordBuilder("s").Stage(core.StageClosure).Assistant("hi").
				With(func(r *core.Record) { r.PendingAction = core.ActionDelegateSanction }).Build(),
			want: Decision{Next: core.AgentSanction, Rule: RuleDelegation},
		},
		{
			name: "invalid action",
			rec:  testutil.NewRecordBuilder("s").With(func(r *core.Record) { r.PendingAction = "delegate_to_nobody" }).Build(),
			want: Decision{Stop: true, Rule: RuleInvalidAction},
		},
		{
			name: "verification code request",
			rec:  testutil.NewRecordBuilder("s").Stage(core.StageVerification).Assistant("hi").User("please resend otp").Build(),
			want: Decision{Next: core.AgentVerification, Rule: RuleVerificationFollowUp},
		},
		{
			name: "verification code entry",
			rec:  testutil.NewRecordBuilder("s").Stage(core.StageVerification).Assistant("hi").User("it is 482913").Build(),
			want: Decision{Next: core.AgentVerification, Rule: RuleVerificationFollowUp},
		},
		{
			name: "verification only looks at the most recent entry",
			rec:  testutil.NewRecordBuilder("s").Stage(core.StageVerification).User("send otp").Assistant("sent").Build(),
			want: Decision{Stop: true, Rule: RuleAwaitInput},
		},
		{
			name: "verification without cue",
			rec:  testutil.NewRecordBuilder("s").Stage(core.StageVerification).Assistant("hi").User("what next?").Build(),
			want: Decision{Next: core.AgentOrchestrator, Rule: RuleReenter},
		},
		{
			name: "code outside verification",
			rec:  testutil.NewRecordBuilder("s").Stage(core.StageSalesNegotiation).Assistant("hi").User("482913").Build(),
			want: Decision{Next: core.AgentOrchestrator, Rule: RuleReenter},
		},
		{
			name: "closed",
			rec: testutil.NewRecordBuilder("s").Stage(core.StageClosure).User("thanks").
				With(func(r *core.Record) { r.Status = core.StatusRejected }).Build(),
			want: Decision{Stop: true, Rule: RuleClosed},
		},
		{
			name: "closure still in progress",
			rec:  testutil.NewRecordBuilder("s").Stage(core.StageClosure).Assistant("hi").User("thanks").Build(),
			want: Decision{Next: core.AgentOrchestrator, Rule: RuleReenter},
		},
		{
			name: "assistant replied",
			rec:  testutil.NewRecordBuilder("s").User("hi").Assistant("hello").Build(),
			want: Decision{Stop: true, Rule: RuleAwaitInput},
		},
		{
			name: "empty log",
			rec:  testutil.NewRecordBuilder("s").Build(),
			want: Decision{Next: core.AgentOrchestrator, Rule: RuleReenter},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.rec.Clone()
			assert.Equal(t, tt.want, Route(tt.rec))
			assert.Equal(t, before, tt.rec, "Route must not mutate the record")
		})
	}
}
