package agent

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/logging"
	"github.com/hupe1980/loanmesh/signal"
)

// SalesOptions configures a Sales instance.
type SalesOptions struct {
	// Directory supplies the credit score used to price offers. Optional.
	Directory core.CustomerDirectory
	Policy    OfferPolicy
	Clock     func() time.Time
	Logger    logging.Logger
}

// Sales presents candidate offers, records offer selection and runs
// negotiation steps. It never changes the stage cursor.
type Sales struct {
	BaseAgent
	directory core.CustomerDirectory
	policy    OfferPolicy
	clock     func() time.Time
}

// NewSales creates the sales stage.
func NewSales(optFns ...func(o *SalesOptions)) *Sales {
	opts := SalesOptions{
		Policy: DefaultOfferPolicy,
		Clock:  time.Now,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Sales{
		BaseAgent: NewBaseAgent(core.AgentSales, opts.Logger),
		directory: opts.Directory,
		policy:    opts.Policy,
		clock:     opts.Clock,
	}
	s.SetDescription("Quotes personal loan offers, records the customer's choice and negotiates rate")
	return s
}

// Run implements core.Agent.
func (s *Sales) Run(ctx context.Context, rec *core.Record) *core.Record {
	next := s.begin(rec)
	text := next.LastUserText()
	offers := next.Sales.Offers

	if sel := signal.ParseSelection(text); sel.Found() && len(offers) > 0 {
		idx := matchOffer(offers, sel.Option, sel.TenureMonths)
		s.selectOffer(next, offers[idx])
		s.reply(next, selectionMessage(offers[idx]))
		return next
	}

	if signal.SalesRules.Has(text, signal.IntentNegotiate) && len(offers) > 0 {
		s.reply(next, s.negotiate(next, text))
		return next
	}

	amount, ok := next.KnownAmount()
	if !ok {
		s.reply(next, "How much would you like to borrow? For example \"3 lakh\" or \"250000\".")
		return next
	}

	next.Sales.Offers = s.policy.Quote(amount, s.creditScore(ctx, next))
	next.Sales.SelectedOffer = nil
	if o, _, ok := chosenOffer(next.Sales); ok {
		applyTerms(next, o)
	}
	s.reply(next, offersMessage(next.Sales.Offers))
	return next
}

func (s *Sales) selectOffer(rec *core.Record, o core.Offer) {
	selected := o
	rec.Sales.SelectedOffer = &selected
	applyTerms(rec, o)
}

// applyTerms copies the offer's tenure, rate and installment onto the loan.
func applyTerms(rec *core.Record, o core.Offer) {
	rec.Loan.TenureMonths = o.TenureMonths
	rec.Loan.InterestRate = o.InterestRate
	rec.Loan.MonthlyEMI = o.MonthlyEMI
}

func (s *Sales) negotiate(rec *core.Record, text string) string {
	current, idx, _ := chosenOffer(rec.Sales)
	requested, _ := signal.RequestedRate(text)

	updated, granted := s.policy.Negotiate(current, requested)
	entry := core.NegotiationEntry{
		At:            s.clock(),
		OfferID:       current.ID,
		Request:       text,
		RequestedRate: requested,
		Granted:       granted,
		PreviousRate:  current.InterestRate,
		NewRate:       updated.InterestRate,
	}
	rec.Sales.NegotiationLog = append(rec.Sales.NegotiationLog, entry)

	if granted {
		if idx >= 0 {
			rec.Sales.Offers[idx] = updated
		}
		if rec.Sales.SelectedOffer != nil && rec.Sales.SelectedOffer.ID == updated.ID {
			selected := updated
			rec.Sales.SelectedOffer = &selected
		}
		applyTerms(rec, updated)
	}
	return negotiationMessage(entry, updated)
}

// creditScore looks up the customer's score. Unknown customers price at the
// default band.
func (s *Sales) creditScore(ctx context.Context, rec *core.Record) int {
	if s.directory == nil || rec.Customer.ID == "" {
		return 0
	}
	profile, err := s.directory.LookupCustomer(ctx, rec.Customer.ID)
	if err != nil {
		if !errors.Is(err, core.ErrCustomerNotFound) {
			s.fail(rec, "lookup customer", err)
		}
		return 0
	}
	return profile.CreditScore
}
