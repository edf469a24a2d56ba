package core

// Stage is the conversational phase cursor stored on a record.
type Stage string

const (
	StageEntry              Stage = "entry"
	StageNeedsAssessment    Stage = "needs_assessment"
	StageSalesNegotiation   Stage = "sales_negotiation"
	StageVerification       Stage = "verification"
	StageUnderwriting       Stage = "underwriting"
	StageDocumentUpload     Stage = "document_upload"
	StageSanctionGeneration Stage = "sanction_generation"
	StageClosure            Stage = "closure"
)

// Stages lists every cursor value in flow order.
var Stages = []Stage{
	StageEntry,
	StageNeedsAssessment,
	StageSalesNegotiation,
	StageVerification,
	StageUnderwriting,
	StageDocumentUpload,
	StageSanctionGeneration,
	StageClosure,
}

// Valid reports whether s is one of the enumerated cursor values.
func (s Stage) Valid() bool {
	for _, v := range Stages {
		if v == s {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (s Stage) String() string { return string(s) }

// Status is the overall application status.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusAbandoned  Status = "abandoned"
)

// Terminal reports whether no further processing is expected.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusAbandoned
}

// Decision is the underwriting outcome.
type Decision string

const (
	DecisionPending        Decision = "pending"
	DecisionApproved       Decision = "approved"
	DecisionRejected       Decision = "rejected"
	DecisionNeedsDocuments Decision = "needs_documents"
)

// Role is the author role of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)
