package domain

type Mode string

const (
	ModeStudent Mode = "student"
	ModeStaff   Mode = "staff"
)

// PipelineState is threaded through the pipeline stages. Each stage reads
// fields set by earlier stages and sets its own; no stage unsets a field a
// later stage depends on. Answered marks that an answer is already in place
// (safety escalation), which later stages treat as a pass-through signal.
type PipelineState struct {
	Question  string
	Mode      Mode
	Locale    string
	Plan      *QueryPlan
	Docs      []RetrievedDoc
	Answer    string
	Answered  bool
	Citations []Citation
	Meta      map[string]any
}

// SafetyResult is the safety gate verdict for a raw question.
type SafetyResult struct {
	Escalate bool
	Reason   string
}

// AskResult is what the pipeline hands back to front ends per question.
type AskResult struct {
	Answer    string         `json:"answer"`
	Citations []Citation     `json:"citations"`
	Meta      map[string]any `json:"meta"`
	Plan      *QueryPlan     `json:"plan"`
}
