package model

// RawInsightResponse is the opaque payload returned by the generative
// provider for one section. It is treated as untrusted input.
type RawInsightResponse struct {
	Text       string `json:"text"`                  // Structured JSON or free text
	Model      string `json:"model,omitempty"`       // Model that produced it
	TokensUsed int    `json:"tokens_used,omitempty"` // Token consumption, when reported
}

// ClaimOutcome is the validation verdict for one claim.
type ClaimOutcome string

const (
	ClaimSupported    ClaimOutcome = "supported"    // Checked against the summary and passed
	ClaimUnsupported  ClaimOutcome = "unsupported"  // Checked against the summary and failed
	ClaimUnverifiable ClaimOutcome = "unverifiable" // No checkable reference; excluded from the supported ratio
)

// ValidatedClaim is one atomic assertion extracted from a raw response.
// Claims are never mutated after creation.
type ValidatedClaim struct {
	Text     string       `json:"text"`
	Category string       `json:"category,omitempty"` // Referenced segment key, if any
	Metric   string       `json:"metric,omitempty"`   // Metric the numeric value was checked against
	Value    *float64     `json:"value,omitempty"`    // Asserted numeric value, if any
	Outcome  ClaimOutcome `json:"outcome"`
	Reason   string       `json:"reason,omitempty"` // Why the verdict was reached
}
