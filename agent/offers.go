package agent

import (
	"fmt"
	"math"

	"github.com/hupe1980/loanmesh/core"
)

// OfferPolicy controls how the sales stage prices offers and how far it may
// move on rate during negotiation.
type OfferPolicy struct {
	Tenures          []int   // Offered tenures in months, shortest first
	TenureStepBps    int     // Rate increase per longer tenure step
	FeeRate          float64 // Processing fee as a fraction of principal
	MinFee           float64 // Processing fee floor
	MaxConcessionBps int     // Largest total rate cut per offer
	RateFloor        float64 // Lowest rate ever offered, percent p.a.
}

// DefaultOfferPolicy is used when no policy is configured.
var DefaultOfferPolicy = OfferPolicy{
	Tenures:          []int{24, 36, 60},
	TenureStepBps:    25,
	FeeRate:          0.01,
	MinFee:           999,
	MaxConcessionBps: 50,
	RateFloor:        10,
}

// BaseRate returns the annual rate for a credit score. A zero score means
// the score is unknown.
func (p OfferPolicy) BaseRate(score int) float64 {
	switch {
	case score >= 800:
		return 10.5
	case score >= 750:
		return 11.25
	case score >= 700:
		return 12
	case score > 0:
		return 13.5
	default:
		return 12.5
	}
}

// Quote builds the candidate offers for amount ordered by tenure. The middle
// offer is marked as recommended.
func (p OfferPolicy) Quote(amount float64, score int) []core.Offer {
	if amount <= 0 || len(p.Tenures) == 0 {
		return nil
	}
	base := p.BaseRate(score)
	offers := make([]core.Offer, 0, len(p.Tenures))
	for i, months := range p.Tenures {
		rate := math.Max(p.RateFloor, base+float64(i*p.TenureStepBps)/100)
		o := p.price(core.Offer{
			ID:           fmt.Sprintf("offer-%d", i+1),
			Amount:       amount,
			TenureMonths: months,
		}, rate)
		offers = append(offers, o)
	}
	offers[recommendedIndex(len(offers))].Recommended = true
	return offers
}

// Negotiate tries to lower the rate of o. A concession is granted at most
// once per offer and never below the rate floor; requested is honoured when
// it lies within the allowed band.
func (p OfferPolicy) Negotiate(o core.Offer, requested float64) (core.Offer, bool) {
	if o.ConcessionBps > 0 {
		return o, false
	}
	target := math.Max(p.RateFloor, o.InterestRate-float64(p.MaxConcessionBps)/100)
	if requested > target {
		target = requested
	}
	target = math.Round(target*100) / 100
	if target >= o.InterestRate {
		return o, false
	}
	bps := int(math.Round((o.InterestRate - target) * 100))
	updated := p.price(o, target)
	updated.ConcessionBps = bps
	return updated, true
}

func (p OfferPolicy) price(o core.Offer, rate float64) core.Offer {
	o.InterestRate = rate
	o.MonthlyEMI = core.RoundMoney(core.Installment(o.Amount, rate, o.TenureMonths))
	o.ProcessingFee = core.RoundMoney(math.Max(p.MinFee, o.Amount*p.FeeRate))
	o.TotalPayable = core.RoundMoney(o.MonthlyEMI * float64(o.TenureMonths))
	o.TotalInterest = core.RoundMoney(o.TotalPayable - o.Amount)
	return o
}

func recommendedIndex(n int) int {
	if n <= 1 {
		return 0
	}
	return 1
}

// matchOffer returns the index of the offer chosen by an option number or a
// tenure. Option numbers are clamped into range; a tenure picks the offer
// with the closest term, the shorter one on a tie. It returns -1 when offers
// is empty or neither signal is set.
func matchOffer(offers []core.Offer, option, tenureMonths int) int {
	if len(offers) == 0 {
		return -1
	}
	if option > 0 {
		return min(option, len(offers)) - 1
	}
	if tenureMonths <= 0 {
		return -1
	}
	best, bestDiff := 0, -1
	for i, o := range offers {
		diff := o.TenureMonths - tenureMonths
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

// chosenOffer returns the selected offer, else the recommended one.
func chosenOffer(s core.Sales) (core.Offer, int, bool) {
	if s.SelectedOffer != nil {
		for i, o := range s.Offers {
			if o.ID == s.SelectedOffer.ID {
				return o, i, true
			}
		}
		return *s.SelectedOffer, -1, true
	}
	if len(s.Offers) == 0 {
		return core.Offer{}, -1, false
	}
	i := recommendedIndex(len(s.Offers))
	return s.Offers[i], i, true
}
