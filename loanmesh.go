// Package loanmesh provides a high-level façade that assembles the
// conversational loan application pipeline: the orchestrator and specialist
// stages, their collaborators, the flow runner and the session manager.
// Most applications interact with this package by:
//  1. Creating a LoanMesh via New() (optionally overriding collaborators and stores)
//  2. Creating a session per customer conversation (CreateSession)
//  3. Feeding inbound messages one at a time (ProcessMessage)
//
// All defaults are safe for local development and testing: a deterministic
// responder, the demo customer book, local one-time codes and in-memory
// stores. Production deployments typically supply a model backed responder,
// a code delivery provider and durable stores.
package loanmesh

import (
	"github.com/hupe1980/loanmesh/agent"
	"github.com/hupe1980/loanmesh/artifact"
	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/crm"
	"github.com/hupe1980/loanmesh/engine"
	"github.com/hupe1980/loanmesh/logging"
	"github.com/hupe1980/loanmesh/metrics"
	"github.com/hupe1980/loanmesh/model"
	"github.com/hupe1980/loanmesh/otp"
	"github.com/hupe1980/loanmesh/sanction"
	"github.com/hupe1980/loanmesh/session"
	"github.com/hupe1980/loanmesh/underwriting"
)

// Options configures the LoanMesh instance.
type Options struct {
	// Collaborators (defaults in parentheses)
	Responder core.Responder         // model.DraftResponder
	Directory core.CustomerDirectory // crm demo book
	Codes     core.CodeProvider      // none: local codes only
	Assessor  core.Assessor          // underwriting rules over Directory
	Sanction  core.SanctionGenerator // sanction letters stored in Artifacts

	// Stores (defaults to in-memory implementations if not provided)
	Store     core.RecordStore
	Artifacts core.ArtifactStore

	// Lender is printed on default sanction letters.
	Lender string
	// GenerateCode creates local one-time codes.
	GenerateCode func() (string, error)
	// CountryCode is prefixed to bare 10-digit phone numbers.
	CountryCode string
	// MaxOTPAttempts is the number of wrong codes before lockout.
	MaxOTPAttempts int
	// MaxHops bounds stage executions per inbound message.
	MaxHops int
	// Offers prices and negotiates offers.
	Offers agent.OfferPolicy

	// Metrics (nil disables) and Logger (defaults to NoOp logger if nil)
	Metrics *metrics.Metrics
	Logger  logging.Logger
}

// LoanMesh is the high-level façade over the session manager.
type LoanMesh struct {
	*engine.Manager
	opts Options
}

// New assembles the stages and the session manager.
func New(optFns ...func(o *Options)) (*LoanMesh, error) {
	opts := Options{
		Responder:      model.DraftResponder{},
		Directory:      crm.NewDemoDirectory(),
		Store:          session.NewInMemoryStore(),
		Artifacts:      artifact.NewInMemoryStore(),
		GenerateCode:   otp.GenerateCode,
		CountryCode:    "+91",
		MaxOTPAttempts: 3,
		MaxHops:        6,
		Offers:         agent.DefaultOfferPolicy,
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Assessor == nil {
		opts.Assessor = underwriting.New(opts.Directory)
	}
	if opts.Sanction == nil {
		gen, err := sanction.New(opts.Artifacts, func(o *sanction.Options) {
			if opts.Lender != "" {
				o.Lender = opts.Lender
			}
		})
		if err != nil {
			return nil, err
		}
		opts.Sanction = gen
	}

	stages := []core.Agent{
		agent.NewOrchestrator(opts.Responder, func(o *agent.OrchestratorOptions) {
			o.Logger = opts.Logger
		}),
		agent.NewSales(func(o *agent.SalesOptions) {
			o.Directory = opts.Directory
			o.Policy = opts.Offers
			o.Logger = opts.Logger
		}),
		agent.NewVerification(func(o *agent.VerificationOptions) {
			o.Directory = opts.Directory
			o.Codes = opts.Codes
			o.GenerateCode = opts.GenerateCode
			o.CountryCode = opts.CountryCode
			o.MaxAttempts = opts.MaxOTPAttempts
			o.Logger = opts.Logger
		}),
		agent.NewUnderwriting(opts.Assessor, opts.Logger),
		agent.NewSanction(opts.Sanction, opts.Logger),
	}

	m, err := engine.New(stages, func(o *engine.Options) {
		o.Store = opts.Store
		o.Artifacts = opts.Artifacts
		o.Directory = opts.Directory
		o.MaxHops = opts.MaxHops
		o.CountryCode = opts.CountryCode
		o.Metrics = opts.Metrics
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	return &LoanMesh{Manager: m, opts: opts}, nil
}

// Artifacts returns the store holding letters and uploads.
func (lm *LoanMesh) Artifacts() core.ArtifactStore { return lm.opts.Artifacts }

// Directory returns the customer directory.
func (lm *LoanMesh) Directory() core.CustomerDirectory { return lm.opts.Directory }
