package signal

// EntryRules detect loan intent on the first interpreted messages.
var EntryRules = NewTable("entry",
	rule(IntentLoanInterest, 10, `(?i)\b(loan|money|borrow|need|want)\b`),
)

// SalesRules classify replies while offers are being discussed. Acceptance
// wins over selection, which wins over negotiation.
var SalesRules = NewTable("sales",
	rule(IntentAccept, 30, `(?i)\b(proceed|go ahead|accept|let'?s go|confirm|finali[sz]e|book|i agree|looks good)\b`),
	rule(IntentSelectOffer, 20, `(?i)\boption\s*[1-9]\b`),
	rule(IntentSelectOffer, 20, `(?i)\b\d+\s*(years?|yrs?|months?)\b`),
	rule(IntentNegotiate, 10, `(?i)\b(rate|reduce|discount|lower|cheaper|negotiate|negotiation|emi)\b`),
	rule(IntentNegotiate, 10, `\d+(\.\d+)?\s*%`),
)

// VerificationRules detect one-time-code requests. A bare "otp" message counts
// as a request; "my otp is 1234" does not.
var VerificationRules = NewTable("verification",
	rule(IntentRequestCode, 10, `(?i)\b(send|resend)\s+(the\s+|an\s+|a\s+new\s+)?otp\b`),
	rule(IntentRequestCode, 10, `(?i)\botp\s+please\b`),
	rule(IntentRequestCode, 10, `(?i)^\s*otp\s*[.!?]*\s*$`),
)
