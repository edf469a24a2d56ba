// Package sanction renders sanction letters and stores them as artifacts.
package sanction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/loanmesh/artifact"
	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/internal/util"
)

// ErrNotApproved is returned for records without an approved amount.
var ErrNotApproved = errors.New("sanction: application is not approved")

const defaultLetter = `{{.Lender}}
SANCTION LETTER

Reference: {{.Reference}}
Date: {{.Date}}

Dear {{default "Customer" .Customer.Name}},
{{- if .Customer.ID}}
Customer ID: {{.Customer.ID}}
{{- end}}

We are pleased to inform you that your personal loan application has been sanctioned
on the following terms:

  Sanctioned amount : Rs {{money .Loan.ApprovedAmount}}
  Tenure            : {{.Loan.TenureMonths}} months
  Interest rate     : {{printf "%.2f" .Loan.InterestRate}}% p.a.
  Monthly EMI       : Rs {{money .Loan.MonthlyEMI}}
{{- if .Offer}}
  Processing fee    : Rs {{money .Offer.ProcessingFee}}
{{- end}}
{{- if .Conditions}}

Conditions:
{{- range .Conditions}}
  - {{.}}
{{- end}}
{{- end}}

This sanction is valid for {{.ValidDays}} days from the date above and is subject to
execution of the loan agreement.

Authorised signatory
{{.Lender}}
`

// Options configures a Generator.
type Options struct {
	Lender string
	// Template overrides the letter layout (text/template over letterData).
	Template  string
	ValidDays int
	Clock     func() time.Time
	// Reference generates the letter reference for a timestamp.
	Reference func(now time.Time) string
}

// Generator implements core.SanctionGenerator.
type Generator struct {
	store     core.ArtifactStore
	tmpl      *template.Template
	lender    string
	validDays int
	clock     func() time.Time
	reference func(time.Time) string
}

var _ core.SanctionGenerator = (*Generator)(nil)

// New creates a Generator saving letters to store.
func New(store core.ArtifactStore, optFns ...func(o *Options)) (*Generator, error) {
	opts := Options{
		Lender:    "LoanMesh Finance Ltd.",
		Template:  defaultLetter,
		ValidDays: 30,
		Clock:     time.Now,
		Reference: NewReference,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	tmpl, err := template.New("sanction").Funcs(util.FuncMap).Parse(opts.Template)
	if err != nil {
		return nil, fmt.Errorf("parse sanction template: %w", err)
	}
	return &Generator{
		store:     store,
		tmpl:      tmpl,
		lender:    opts.Lender,
		validDays: opts.ValidDays,
		clock:     opts.Clock,
		reference: opts.Reference,
	}, nil
}

// NewReference returns SL-<YYYYMMDD>-<6 hex>.
func NewReference(now time.Time) string {
	return fmt.Sprintf("SL-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:6]))
}

type letterData struct {
	Lender     string
	Reference  string
	Date       string
	ValidDays  int
	Customer   core.Customer
	Loan       core.Loan
	Offer      *core.Offer
	Conditions []string
}

// GenerateSanction implements core.SanctionGenerator.
func (g *Generator) GenerateSanction(_ context.Context, rec *core.Record) (core.SanctionLetter, error) {
	if rec.Loan.ApprovedAmount <= 0 {
		return core.SanctionLetter{}, ErrNotApproved
	}

	now := g.clock()
	ref := g.reference(now)
	data := letterData{
		Lender:     g.lender,
		Reference:  ref,
		Date:       now.Format("02 Jan 2006"),
		ValidDays:  g.validDays,
		Customer:   rec.Customer,
		Loan:       rec.Loan,
		Offer:      rec.Sales.SelectedOffer,
		Conditions: rec.Underwriting.Conditions,
	}

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, data); err != nil {
		return core.SanctionLetter{}, fmt.Errorf("render sanction letter: %w", err)
	}

	artifactID := fmt.Sprintf("sanction-%s.txt", ref)
	if err := g.store.Save(rec.SessionID, artifactID, buf.Bytes()); err != nil {
		return core.SanctionLetter{}, fmt.Errorf("save sanction letter: %w", err)
	}

	return core.SanctionLetter{
		OK:              true,
		Locator:         artifact.Locator(rec.SessionID, artifactID),
		ReferenceNumber: ref,
	}, nil
}
