package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/signal"
)

const apologyMessage = "Sorry, something went wrong on our side while handling that. Could you please try again in a moment?"

func greetingMessage(name string) string {
	if name != "" {
		return fmt.Sprintf("Hello %s! Welcome back. I'm your personal loan assistant. "+
			"How much would you like to borrow today?", name)
	}
	return "Hello! I'm your personal loan assistant. I can help you find a personal loan, " +
		"check your eligibility and get it sanctioned in a few steps. How can I help you today?"
}

// stageDraft is the deterministic reply the orchestrator hands to the
// responder when it keeps the conversation.
func stageDraft(rec *core.Record) string {
	switch rec.Stage {
	case core.StageEntry:
		return "I can help with personal loans. Tell me how much you need, for example \"I need 3 lakh\"."
	case core.StageNeedsAssessment:
		return "Great! How much would you like to borrow? You can say something like \"5 lakh\" or \"75000\"."
	case core.StageSalesNegotiation:
		return "Pick an offer by saying \"option 2\" or a tenure like \"3 years\", ask me for a better rate, " +
			"or say \"proceed\" to continue with the recommended offer."
	case core.StageVerification:
		return verificationStatus(rec.Verification)
	case core.StageUnderwriting:
		switch rec.Underwriting.Decision {
		case core.DecisionNeedsDocuments:
			return "To complete the assessment I need your latest salary slip. Please upload it and let me know once it's done."
		case core.DecisionRejected:
			return "I'm sorry, we are unable to approve this application right now. " + joinReasons(rec.Underwriting.Reasons)
		default:
			return "Your application is being assessed. I'll update you shortly."
		}
	case core.StageDocumentUpload:
		if rec.Documents.SalarySlipUploaded {
			return "Thanks, I have your salary slip. Re-assessing your application now."
		}
		return "Please upload your latest salary slip so we can complete the assessment, then send me a message."
	case core.StageSanctionGeneration:
		return "Your loan is approved and the sanction letter is being prepared."
	case core.StageClosure:
		if rec.Sanction.ReferenceNumber != "" {
			return fmt.Sprintf("Your application is complete. Sanction reference: %s. Thank you for choosing us!", rec.Sanction.ReferenceNumber)
		}
		return "This application is closed. Thank you for your time."
	default:
		return "How can I help you with your loan today?"
	}
}

func verificationStatus(v core.Verification) string {
	var pending []string
	if !v.PhoneVerified {
		pending = append(pending, "phone (type \"send otp\")")
	}
	if !v.KYCVerified {
		pending = append(pending, "identity (share PAN, DOB and email)")
	}
	if len(pending) == 0 {
		return "All verification steps are complete. Say \"continue\" to move to underwriting."
	}
	return "Still pending: " + strings.Join(pending, " and ") + "."
}

func joinReasons(reasons []string) string {
	if len(reasons) == 0 {
		return ""
	}
	return "Reason: " + strings.Join(reasons, "; ") + "."
}

func formatRupees(v float64) string {
	return "Rs " + groupIndian(int64(v+0.5))
}

// groupIndian formats n with Indian digit grouping (12,34,567).
func groupIndian(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	if len(s) > 3 {
		head, tail := s[:len(s)-3], s[len(s)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		if head != "" {
			parts = append([]string{head}, parts...)
		}
		s = strings.Join(parts, ",") + "," + tail
	}
	if neg {
		return "-" + s
	}
	return s
}

func offersMessage(offers []core.Offer) string {
	var b strings.Builder
	rec := offers[recommendedIndex(len(offers))]
	fmt.Fprintf(&b, "Here is my recommended offer: %s for %d months at %.2f%% p.a., EMI %s.\n\nAll options:\n",
		formatRupees(rec.Amount), rec.TenureMonths, rec.InterestRate, formatRupees(rec.MonthlyEMI))
	for i, o := range offers {
		marker := ""
		if o.Recommended {
			marker = " (recommended)"
		}
		fmt.Fprintf(&b, "Option %d: %d months at %.2f%%, EMI %s, processing fee %s, total payable %s%s\n",
			i+1, o.TenureMonths, o.InterestRate, formatRupees(o.MonthlyEMI), formatRupees(o.ProcessingFee), formatRupees(o.TotalPayable), marker)
	}
	b.WriteString("\nSay \"option 2\" or a tenure to choose, ask for a better rate, or say \"proceed\" to continue.")
	return b.String()
}

func selectionMessage(o core.Offer) string {
	return fmt.Sprintf("Done. You've selected %s for %d months at %.2f%% p.a. with an EMI of %s. "+
		"Say \"proceed\" when you're ready to continue with verification.",
		formatRupees(o.Amount), o.TenureMonths, o.InterestRate, formatRupees(o.MonthlyEMI))
}

func negotiationMessage(entry core.NegotiationEntry, o core.Offer) string {
	if !entry.Granted {
		return fmt.Sprintf("I'm afraid %.2f%% is already the best rate I can offer for the %d month option. "+
			"Your EMI stays at %s. Say \"proceed\" to continue.", o.InterestRate, o.TenureMonths, formatRupees(o.MonthlyEMI))
	}
	return fmt.Sprintf("Good news! I could bring the rate down from %.2f%% to %.2f%% for the %d month option. "+
		"Your new EMI is %s. Say \"proceed\" to continue.", entry.PreviousRate, entry.NewRate, o.TenureMonths, formatRupees(o.MonthlyEMI))
}

func explainerMessage(profile *core.CustomerProfile) string {
	var b strings.Builder
	b.WriteString("Let's verify your details. This takes three quick steps:\n")
	b.WriteString("1. Phone: type \"send otp\" and enter the code you receive.\n")
	b.WriteString("2. Identity: share \"PAN: ..., DOB: YYYY-MM-DD, email: ...\" (you can include them with your code).\n")
	b.WriteString("3. Address: type \"address: <your address>\".\n")
	if profile != nil {
		kyc := profile.KYCStatus
		if kyc == "" {
			kyc = "pending"
		}
		fmt.Fprintf(&b, "\nOn file: %s, phone %s, city %s, KYC %s.", profile.Name, signal.MaskPhone(profile.Phone), profile.City, kyc)
	}
	return b.String()
}

func assessmentMessage(a core.Assessment) string {
	switch a.Decision {
	case core.DecisionApproved:
		return fmt.Sprintf("Congratulations! Your loan of %s is approved (credit score %d). "+
			"Reply to generate your sanction letter.", formatRupees(a.ApprovedAmount), a.CreditScore)
	case core.DecisionNeedsDocuments:
		msg := "Your request is above your pre-approved limit, so I need your latest salary slip to continue."
		if len(a.Conditions) > 0 {
			msg += " Requirements: " + strings.Join(a.Conditions, "; ") + "."
		}
		return msg
	case core.DecisionRejected:
		msg := "I'm sorry, we can't approve this application right now. " + joinReasons(a.Reasons)
		if len(a.Recommendations) > 0 {
			msg += " Suggestions: " + strings.Join(a.Recommendations, "; ") + "."
		}
		return strings.TrimSpace(msg)
	default:
		return "Your application is still under review."
	}
}

func sanctionMessage(letter core.SanctionLetter) string {
	return fmt.Sprintf("Your sanction letter is ready. Reference number: %s. You can download it from %s.",
		letter.ReferenceNumber, letter.Locator)
}
