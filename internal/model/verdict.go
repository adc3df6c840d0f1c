package model

// Label is the canonical verdict classification shown to the user.
// Both backend result shapes collapse into this one enumeration, except
// when the backend supplies an explicit verdict_text, which passes
// through verbatim (backend authority wins over client heuristics).
type Label string

const (
	LabelVerified   Label = "VERIFIED"
	LabelDebunked   Label = "DEBUNKED"
	LabelUncertain  Label = "UNCERTAIN"
	LabelMisleading Label = "MISLEADING"
	LabelUnverified Label = "UNVERIFIED"
)

// Verdict is the canonical representation of a completed verification.
// This is the contract every presenter (terminal, JSON, Markdown, digest)
// relies on; all scores are guaranteed to be in [0,1] and optional fields
// stay absent rather than defaulting to zero.
type Verdict struct {
	Claim            string     `json:"claim"`
	Label            Label      `json:"label"`
	ConfidenceScore  float64    `json:"confidence_score"`             // [0,1]
	TruthProbability *float64   `json:"truth_probability,omitempty"`  // [0,100], absent when the backend did not compute one
	ConfidenceLevel  string     `json:"confidence_level,omitempty"`   // backend-supplied, passed through
	Summary          string     `json:"summary"`
	Sources          []Source   `json:"sources"`
	Forensics        *Forensics `json:"forensics,omitempty"`
	ForensicNote     string     `json:"forensic_note,omitempty"` // free-text forensic commentary when no structured block exists
	ProcessingTime   string     `json:"processing_time,omitempty"`
	ReportURL        string     `json:"report_url,omitempty"`
}

// Source is a single evidence link, flattened from possibly-nested
// backend result groups. GroupIndex records the originating group so
// grouped display remains possible after flattening.
type Source struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Host        string  `json:"host,omitempty"` // display hostname; raw URL when unparsable
	GroupIndex  int     `json:"group_index"`
	Reliability float64 `json:"reliability,omitempty"`
}

// Forensics carries the content-authenticity signals computed by the
// backend, independent of the factual verdict.
type Forensics struct {
	Verdict        string    `json:"verdict"`
	IntegrityScore float64   `json:"integrity_score"` // [0,1]
	AIProbability  float64   `json:"ai_probability"`  // [0,1]
	Indicators     []string  `json:"indicators,omitempty"`
	Penalties      []Penalty `json:"penalties,omitempty"` // backend order preserved, ranks severity
}

// Penalty is one forensic red flag and the score it deducted.
type Penalty struct {
	Flag  string  `json:"flag"`
	Score float64 `json:"score"`
}
